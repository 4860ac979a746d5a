package models

import "time"

// LineRequestStatus captures workflow states for provisioning requests.
type LineRequestStatus string

const (
	LineRequestStatusPending  LineRequestStatus = "pending"
	LineRequestStatusApproved LineRequestStatus = "approved"
	LineRequestStatusRejected LineRequestStatus = "rejected"
)

// LineRequest is a provisioning request for a new line awaiting
// maintenance approval. Status transitions are terminal and exactly-once.
type LineRequest struct {
	ID              int64             `db:"id" json:"id"`
	SubsidiaryID    int64             `db:"subsidiary_id" json:"subsidiaryId"`
	RequestedType   string            `db:"requested_type" json:"requestedType"`
	AssignedNumber  *string           `db:"assigned_number" json:"assignedNumber,omitempty"`
	AdminID         int64             `db:"admin_id" json:"adminId"`
	Status          LineRequestStatus `db:"status" json:"status"`
	RejectionReason *string           `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"createdAt"`
	RespondedAt     *time.Time        `db:"responded_at" json:"respondedAt,omitempty"`
	Version         int64             `db:"version" json:"version"`
}

// LineRequestFilter captures supported filters for listing requests.
type LineRequestFilter struct {
	SubsidiaryID int64
	Status       LineRequestStatus
	Limit        int
	Offset       int
}
