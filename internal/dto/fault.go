package dto

// DeclareFaultRequest payload for reporting a line malfunction.
type DeclareFaultRequest struct {
	LineID        int64  `json:"lineId" validate:"required"`
	SubsidiaryID  int64  `json:"subsidiaryId" validate:"required"`
	DeclaredBy    int64  `json:"declaredBy" validate:"required"`
	Symptoms      string `json:"symptoms" validate:"required"`
	ProbableCause string `json:"probableCause" validate:"required"`
}

// AssignFaultRequest routes an open fault to a maintenance user.
type AssignFaultRequest struct {
	MaintenanceUserID int64 `json:"maintenanceUserId" validate:"required"`
}

// ResolveFaultRequest closes a fault with repair feedback.
type ResolveFaultRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

// FaultFeedbackRequest edits feedback on an already-resolved fault.
type FaultFeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}
