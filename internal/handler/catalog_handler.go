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

type catalogService interface {
	CreateLineType(ctx context.Context, req dto.CreateLineTypeRequest) (*models.LineType, error)
	ListLineTypes(ctx context.Context) ([]models.LineType, error)
	UpdateLineType(ctx context.Context, id int64, req dto.UpdateLineTypeRequest) (*models.LineType, error)
	DeleteLineType(ctx context.Context, id int64) error
	CreateSubsidiary(ctx context.Context, req dto.CreateSubsidiaryRequest) (*models.Subsidiary, error)
	ListSubsidiaries(ctx context.Context) ([]models.Subsidiary, error)
	GetSubsidiary(ctx context.Context, id int64) (*models.Subsidiary, error)
	ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// CatalogHandler exposes line type, subsidiary and user catalog endpoints.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListLineTypes godoc
// @Summary List line types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /line-types [get]
func (h *CatalogHandler) ListLineTypes(c *gin.Context) {
	types, err := h.service.ListLineTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// CreateLineType godoc
// @Summary Create a line type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateLineTypeRequest true "Line type payload"
// @Success 201 {object} response.Envelope
// @Router /line-types [post]
func (h *CatalogHandler) CreateLineType(c *gin.Context) {
	var req dto.CreateLineTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid line type payload"))
		return
	}
	created, err := h.service.CreateLineType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// UpdateLineType godoc
// @Summary Update a line type title
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path int true "Line type ID"
// @Param payload body dto.UpdateLineTypeRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /line-types/{id} [patch]
func (h *CatalogHandler) UpdateLineType(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateLineTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid line type payload"))
		return
	}
	updated, err := h.service.UpdateLineType(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// DeleteLineType godoc
// @Summary Delete a line type
// @Tags Catalog
// @Param id path int true "Line type ID"
// @Success 204
// @Router /line-types/{id} [delete]
func (h *CatalogHandler) DeleteLineType(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteLineType(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListSubsidiaries godoc
// @Summary List subsidiaries
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subsidiaries [get]
func (h *CatalogHandler) ListSubsidiaries(c *gin.Context) {
	subs, err := h.service.ListSubsidiaries(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil)
}

// GetSubsidiary godoc
// @Summary Get a subsidiary by ID
// @Tags Catalog
// @Produce json
// @Param id path int true "Subsidiary ID"
// @Success 200 {object} response.Envelope
// @Router /subsidiaries/{id} [get]
func (h *CatalogHandler) GetSubsidiary(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	sub, err := h.service.GetSubsidiary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// CreateSubsidiary godoc
// @Summary Create a subsidiary
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubsidiaryRequest true "Subsidiary payload"
// @Success 201 {object} response.Envelope
// @Router /subsidiaries [post]
func (h *CatalogHandler) CreateSubsidiary(c *gin.Context) {
	var req dto.CreateSubsidiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subsidiary payload"))
		return
	}
	created, err := h.service.CreateSubsidiary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// ListUsers godoc
// @Summary List users, optionally by role
// @Tags Catalog
// @Produce json
// @Param role query string false "User role filter"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *CatalogHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// GetUser godoc
// @Summary Get a user by ID
// @Tags Catalog
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id} [get]
func (h *CatalogHandler) GetUser(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
