package models

import "time"

// LineStatus enumerates the lifecycle states of a line.
type LineStatus string

const (
	LineStatusWorking      LineStatus = "working"
	LineStatusFaulty       LineStatus = "faulty"
	LineStatusMaintenance  LineStatus = "maintenance"
	LineStatusOutOfService LineStatus = "out_of_service"
	LineStatusArchived     LineStatus = "archived"
)

// Valid reports whether the status is a known lifecycle state.
func (s LineStatus) Valid() bool {
	switch s {
	case LineStatusWorking, LineStatusFaulty, LineStatusMaintenance, LineStatusOutOfService, LineStatusArchived:
		return true
	default:
		return false
	}
}

// DirectlySettable reports whether a maintenance actor may set the status
// outside the fault flow. Faulty and maintenance are derived exclusively
// from fault activity.
func (s LineStatus) DirectlySettable() bool {
	switch s {
	case LineStatusWorking, LineStatusOutOfService, LineStatusArchived:
		return true
	default:
		return false
	}
}

// Line is a managed telephone/IP circuit owned by a subsidiary.
type Line struct {
	ID                int64      `db:"id" json:"id"`
	Number            string     `db:"number" json:"number"`
	Type              string     `db:"type" json:"type"`
	SubsidiaryID      int64      `db:"subsidiary_id" json:"subsidiaryId"`
	Location          string     `db:"location" json:"location"`
	EstablishmentDate time.Time  `db:"establishment_date" json:"establishmentDate"`
	Status            LineStatus `db:"status" json:"status"`
	LastChecked       time.Time  `db:"last_checked" json:"lastChecked"`
	InFaultFlow       bool       `db:"in_fault_flow" json:"inFaultFlow"`
	Version           int64      `db:"version" json:"version"`
}

// LineFilter captures supported filters for listing lines.
type LineFilter struct {
	SubsidiaryID int64
	Status       LineStatus
	Limit        int
	Offset       int
}
