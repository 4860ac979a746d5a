package dto

import "github.com/atlasnet/linetrack-api/internal/models"

// CreateLineRequestPayload opens a provisioning request for a new line.
type CreateLineRequestPayload struct {
	SubsidiaryID  int64  `json:"subsidiaryId" validate:"required"`
	RequestedType string `json:"requestedType" validate:"required"`
	AdminID       int64  `json:"adminId" validate:"required"`
}

// ApproveLineRequestPayload carries the number assigned to the new line.
type ApproveLineRequestPayload struct {
	AssignedNumber string `json:"assignedNumber" validate:"required"`
}

// RejectLineRequestPayload carries the mandatory rejection reason.
type RejectLineRequestPayload struct {
	Reason string `json:"reason" validate:"required"`
}

// LineRequestDecision bundles the mutated request with the line created
// on approval.
type LineRequestDecision struct {
	Request *models.LineRequest `json:"request"`
	Line    *models.Line        `json:"line,omitempty"`
}
