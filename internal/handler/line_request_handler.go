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

type lineRequestService interface {
	Create(ctx context.Context, req dto.CreateLineRequestPayload) (*models.LineRequest, error)
	Get(ctx context.Context, id int64) (*models.LineRequest, error)
	List(ctx context.Context, filter models.LineRequestFilter) ([]models.LineRequest, error)
	Approve(ctx context.Context, id int64, req dto.ApproveLineRequestPayload) (*dto.LineRequestDecision, error)
	Reject(ctx context.Context, id int64, req dto.RejectLineRequestPayload) (*models.LineRequest, error)
	Delete(ctx context.Context, id int64) error
}

// LineRequestHandler exposes line provisioning request endpoints.
type LineRequestHandler struct {
	service lineRequestService
}

// NewLineRequestHandler builds a new handler.
func NewLineRequestHandler(service lineRequestService) *LineRequestHandler {
	return &LineRequestHandler{service: service}
}

// List godoc
// @Summary List line requests
// @Tags LineRequests
// @Produce json
// @Param subsidiaryId query int false "Subsidiary ID filter"
// @Param status query string false "Request status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /line-requests [get]
func (h *LineRequestHandler) List(c *gin.Context) {
	filter := models.LineRequestFilter{
		SubsidiaryID: queryInt64(c, "subsidiaryId"),
		Status:       models.LineRequestStatus(c.Query("status")),
		Limit:        queryInt(c, "limit"),
		Offset:       queryInt(c, "offset"),
	}
	requests, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get a line request by ID
// @Tags LineRequests
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /line-requests/{id} [get]
func (h *LineRequestHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	req, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Create godoc
// @Summary Submit a line provisioning request
// @Tags LineRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateLineRequestPayload true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /line-requests [post]
func (h *LineRequestHandler) Create(c *gin.Context) {
	var req dto.CreateLineRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid line request payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Approve godoc
// @Summary Approve a pending line request and provision its line
// @Tags LineRequests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.ApproveLineRequestPayload true "Approval payload"
// @Success 200 {object} response.Envelope
// @Router /line-requests/{id}/approve [post]
func (h *LineRequestHandler) Approve(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ApproveLineRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}
	decision, err := h.service.Approve(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decision, nil)
}

// Reject godoc
// @Summary Reject a pending line request
// @Tags LineRequests
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param payload body dto.RejectLineRequestPayload true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Router /line-requests/{id}/reject [post]
func (h *LineRequestHandler) Reject(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RejectLineRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
		return
	}
	rejected, err := h.service.Reject(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rejected, nil)
}

// Delete godoc
// @Summary Delete a line request
// @Tags LineRequests
// @Param id path int true "Request ID"
// @Success 204
// @Router /line-requests/{id} [delete]
func (h *LineRequestHandler) Delete(c *gin.Context) {
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
