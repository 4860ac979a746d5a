package dto

import (
	"time"

	"github.com/atlasnet/linetrack-api/internal/models"
)

// CreateLineRequest payload for registering a line directly.
type CreateLineRequest struct {
	Number       string  `json:"number" validate:"required"`
	Type         string  `json:"type" validate:"required"`
	SubsidiaryID int64   `json:"subsidiaryId" validate:"required"`
	Location     string  `json:"location" validate:"required"`
	InFaultFlow  *bool   `json:"inFaultFlow"`
	Status       *string `json:"status"`
}

// UpdateLineRequest is the generic partial update used by the legacy
// confirm-working path; only status and lastChecked are writable.
type UpdateLineRequest struct {
	Status      *models.LineStatus `json:"status"`
	LastChecked *time.Time         `json:"lastChecked"`
}

// SetLineStatusRequest is the maintenance-direct status setter payload.
type SetLineStatusRequest struct {
	Status models.LineStatus `json:"status" validate:"required"`
}
