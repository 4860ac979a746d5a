package models

import "time"

// FaultStatus enumerates the monotonic ticket states: open, assigned, resolved.
type FaultStatus string

const (
	FaultStatusOpen     FaultStatus = "open"
	FaultStatusAssigned FaultStatus = "assigned"
	FaultStatusResolved FaultStatus = "resolved"
)

// AutoResolveFeedback is stored on faults force-closed by confirm-working.
const AutoResolveFeedback = "Auto-resolved by check"

// Fault is an incident ticket reporting a line malfunction.
type Fault struct {
	ID            int64       `db:"id" json:"id"`
	LineID        int64       `db:"line_id" json:"lineId"`
	SubsidiaryID  int64       `db:"subsidiary_id" json:"subsidiaryId"`
	DeclaredBy    int64       `db:"declared_by" json:"declaredBy"`
	DeclaredAt    time.Time   `db:"declared_at" json:"declaredAt"`
	Symptoms      string      `db:"symptoms" json:"symptoms"`
	ProbableCause string      `db:"probable_cause" json:"probableCause"`
	Status        FaultStatus `db:"status" json:"status"`
	AssignedTo    *int64      `db:"assigned_to" json:"assignedTo,omitempty"`
	AssignedAt    *time.Time  `db:"assigned_at" json:"assignedAt,omitempty"`
	ResolvedAt    *time.Time  `db:"resolved_at" json:"resolvedAt,omitempty"`
	Feedback      *string     `db:"feedback" json:"feedback,omitempty"`
	Version       int64       `db:"version" json:"version"`
}

// FaultFilter captures supported filters for listing faults.
type FaultFilter struct {
	LineID       int64
	SubsidiaryID int64
	Status       FaultStatus
	Limit        int
	Offset       int
}

// FaultStats aggregates ticket counts and resolution latency for the
// maintenance dashboard.
type FaultStats struct {
	Total               int     `db:"total" json:"total"`
	Open                int     `db:"open" json:"open"`
	Assigned            int     `db:"assigned" json:"assigned"`
	Resolved            int     `db:"resolved" json:"resolved"`
	AvgResolutionTimeMS float64 `db:"avg_resolution_ms" json:"avgResolutionTimeMs"`
}
