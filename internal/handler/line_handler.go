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

type lineService interface {
	Create(ctx context.Context, req dto.CreateLineRequest) (*models.Line, error)
	Get(ctx context.Context, id int64) (*models.Line, error)
	List(ctx context.Context, filter models.LineFilter) ([]models.Line, error)
	Update(ctx context.Context, lineID int64, req dto.UpdateLineRequest) (*models.Line, error)
	SetStatus(ctx context.Context, lineID int64, req dto.SetLineStatusRequest) (*models.Line, error)
	ConfirmWorking(ctx context.Context, lineID int64) (*models.Line, error)
	ToggleFaultFlow(ctx context.Context, lineID int64) (*models.Line, error)
	Delete(ctx context.Context, lineID int64) error
}

// LineHandler exposes line registry endpoints.
type LineHandler struct {
	service lineService
}

// NewLineHandler builds a new handler.
func NewLineHandler(service lineService) *LineHandler {
	return &LineHandler{service: service}
}

// List godoc
// @Summary List lines
// @Tags Lines
// @Produce json
// @Param subsidiaryId query int false "Subsidiary ID filter"
// @Param status query string false "Line status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /lines [get]
func (h *LineHandler) List(c *gin.Context) {
	filter := models.LineFilter{
		SubsidiaryID: queryInt64(c, "subsidiaryId"),
		Status:       models.LineStatus(c.Query("status")),
		Limit:        queryInt(c, "limit"),
		Offset:       queryInt(c, "offset"),
	}
	lines, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lines, nil)
}

// ListBySubsidiary godoc
// @Summary List lines owned by a subsidiary
// @Tags Lines
// @Produce json
// @Param id path int true "Subsidiary ID"
// @Param status query string false "Line status filter"
// @Success 200 {object} response.Envelope
// @Router /subsidiaries/{id}/lines [get]
func (h *LineHandler) ListBySubsidiary(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.LineFilter{
		SubsidiaryID: id,
		Status:       models.LineStatus(c.Query("status")),
		Limit:        queryInt(c, "limit"),
		Offset:       queryInt(c, "offset"),
	}
	lines, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lines, nil)
}

// Get godoc
// @Summary Get a line by ID
// @Tags Lines
// @Produce json
// @Param id path int true "Line ID"
// @Success 200 {object} response.Envelope
// @Router /lines/{id} [get]
func (h *LineHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	line, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, line, nil)
}

// Create godoc
// @Summary Register a line
// @Tags Lines
// @Accept json
// @Produce json
// @Param payload body dto.CreateLineRequest true "Line payload"
// @Success 201 {object} response.Envelope
// @Router /lines [post]
func (h *LineHandler) Create(c *gin.Context) {
	var req dto.CreateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid line payload"))
		return
	}
	line, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, line)
}

// Update godoc
// @Summary Update a line's status or check timestamp
// @Tags Lines
// @Accept json
// @Produce json
// @Param id path int true "Line ID"
// @Param payload body dto.UpdateLineRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /lines/{id} [patch]
func (h *LineHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid line update payload"))
		return
	}
	line, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, line, nil)
}

// SetStatus godoc
// @Summary Set a line's status directly, bypassing fault linkage
// @Tags Lines
// @Accept json
// @Produce json
// @Param id path int true "Line ID"
// @Param payload body dto.SetLineStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /lines/{id}/status [patch]
func (h *LineHandler) SetStatus(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SetLineStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	line, err := h.service.SetStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, line, nil)
}

// ConfirmWorking godoc
// @Summary Confirm a line is working, resolving outstanding faults
// @Tags Lines
// @Produce json
// @Param id path int true "Line ID"
// @Success 200 {object} response.Envelope
// @Router /lines/{id}/confirm-working [patch]
func (h *LineHandler) ConfirmWorking(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	line, err := h.service.ConfirmWorking(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, line, nil)
}

// ToggleFaultFlow godoc
// @Summary Toggle the fault-flow flag on a line
// @Tags Lines
// @Produce json
// @Param id path int true "Line ID"
// @Success 200 {object} response.Envelope
// @Router /lines/{id}/toggle-fault-flow [patch]
func (h *LineHandler) ToggleFaultFlow(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	line, err := h.service.ToggleFaultFlow(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, line, nil)
}

// Delete godoc
// @Summary Delete a line
// @Tags Lines
// @Param id path int true "Line ID"
// @Success 204
// @Router /lines/{id} [delete]
func (h *LineHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
