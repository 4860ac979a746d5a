package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlasnet/linetrack-api/internal/dto"
	"github.com/atlasnet/linetrack-api/internal/models"
	appErrors "github.com/atlasnet/linetrack-api/pkg/errors"
	"github.com/atlasnet/linetrack-api/pkg/response"
)

type faultService interface {
	Declare(ctx context.Context, req dto.DeclareFaultRequest) (*models.Fault, error)
	Assign(ctx context.Context, faultID int64, req dto.AssignFaultRequest) (*models.Fault, error)
	Resolve(ctx context.Context, faultID int64, req dto.ResolveFaultRequest) (*models.Fault, error)
	UpdateFeedback(ctx context.Context, faultID int64, req dto.FaultFeedbackRequest) (*models.Fault, error)
	Get(ctx context.Context, id int64) (*models.Fault, error)
	List(ctx context.Context, filter models.FaultFilter) ([]models.Fault, error)
}

// FaultHandler exposes fault ticket endpoints.
type FaultHandler struct {
	service faultService
}

// NewFaultHandler builds a new handler.
func NewFaultHandler(service faultService) *FaultHandler {
	return &FaultHandler{service: service}
}

// List godoc
// @Summary List fault tickets
// @Tags Faults
// @Produce json
// @Param lineId query int false "Line ID filter"
// @Param subsidiaryId query int false "Subsidiary ID filter"
// @Param status query string false "Fault status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /faults [get]
func (h *FaultHandler) List(c *gin.Context) {
	filter := models.FaultFilter{
		LineID:       queryInt64(c, "lineId"),
		SubsidiaryID: queryInt64(c, "subsidiaryId"),
		Status:       models.FaultStatus(c.Query("status")),
		Limit:        queryInt(c, "limit"),
		Offset:       queryInt(c, "offset"),
	}
	faults, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faults, nil)
}

// ListByLine godoc
// @Summary List faults declared against a line
// @Tags Faults
// @Produce json
// @Param id path int true "Line ID"
// @Param status query string false "Fault status filter"
// @Success 200 {object} response.Envelope
// @Router /lines/{id}/faults [get]
func (h *FaultHandler) ListByLine(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.FaultFilter{
		LineID: id,
		Status: models.FaultStatus(c.Query("status")),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	}
	faults, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faults, nil)
}

// ListBySubsidiary godoc
// @Summary List faults across a subsidiary's lines
// @Tags Faults
// @Produce json
// @Param id path int true "Subsidiary ID"
// @Param status query string false "Fault status filter"
// @Success 200 {object} response.Envelope
// @Router /subsidiaries/{id}/faults [get]
func (h *FaultHandler) ListBySubsidiary(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.FaultFilter{
		SubsidiaryID: id,
		Status:       models.FaultStatus(c.Query("status")),
		Limit:        queryInt(c, "limit"),
		Offset:       queryInt(c, "offset"),
	}
	faults, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faults, nil)
}

// Get godoc
// @Summary Get a fault by ID
// @Tags Faults
// @Produce json
// @Param id path int true "Fault ID"
// @Success 200 {object} response.Envelope
// @Router /faults/{id} [get]
func (h *FaultHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	fault, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fault, nil)
}

// Declare godoc
// @Summary Declare a fault on a line
// @Tags Faults
// @Accept json
// @Produce json
// @Param payload body dto.DeclareFaultRequest true "Fault payload"
// @Success 201 {object} response.Envelope
// @Router /faults [post]
func (h *FaultHandler) Declare(c *gin.Context) {
	var req dto.DeclareFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fault payload"))
		return
	}
	fault, err := h.service.Declare(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fault)
}

// Assign godoc
// @Summary Assign a fault to a maintenance user
// @Tags Faults
// @Accept json
// @Produce json
// @Param id path int true "Fault ID"
// @Param payload body dto.AssignFaultRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /faults/{id}/assign [patch]
func (h *FaultHandler) Assign(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AssignFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	fault, err := h.service.Assign(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fault, nil)
}

// Resolve godoc
// @Summary Resolve a fault
// @Tags Faults
// @Accept json
// @Produce json
// @Param id path int true "Fault ID"
// @Param payload body dto.ResolveFaultRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Router /faults/{id}/resolve [patch]
func (h *FaultHandler) Resolve(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ResolveFaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	fault, err := h.service.Resolve(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fault, nil)
}

// UpdateFeedback godoc
// @Summary Update feedback on a resolved fault
// @Tags Faults
// @Accept json
// @Produce json
// @Param id path int true "Fault ID"
// @Param payload body dto.FaultFeedbackRequest true "Feedback payload"
// @Success 200 {object} response.Envelope
// @Router /faults/{id}/feedback [patch]
func (h *FaultHandler) UpdateFeedback(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.FaultFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	fault, err := h.service.UpdateFeedback(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fault, nil)
}
