package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atlasnet/linetrack-api/internal/dto"
	"github.com/atlasnet/linetrack-api/internal/models"
	appErrors "github.com/atlasnet/linetrack-api/pkg/errors"
)

type lineTypeStore interface {
	Create(ctx context.Context, lineType *models.LineType) error
	GetByCode(ctx context.Context, code string) (*models.LineType, error)
	List(ctx context.Context) ([]models.LineType, error)
	UpdateTitle(ctx context.Context, id int64, title string) (*models.LineType, error)
	Delete(ctx context.Context, id int64) error
}

type subsidiaryStore interface {
	Create(ctx context.Context, subsidiary *models.Subsidiary) error
	GetByID(ctx context.Context, id int64) (*models.Subsidiary, error)
	List(ctx context.Context) ([]models.Subsidiary, error)
}

type userStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, role models.UserRole) ([]models.User, error)
}

// CatalogService serves the reference data the lifecycle validates
// against: the line-type registry, subsidiaries, and actor records.
// Plain CRUD, no state machine.
type CatalogService struct {
	types     lineTypeStore
	subs      subsidiaryStore
	users     userStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(types lineTypeStore, subsidiaries subsidiaryStore, users userStore, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{types: types, subs: subsidiaries, users: users, validator: validate, logger: logger}
}

// CreateLineType registers a new type code.
func (s *CatalogService) CreateLineType(ctx context.Context, req dto.CreateLineTypeRequest) (*models.LineType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code and title are required")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.types.GetByCode(ctx, code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "line type code already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check line type code")
	}

	lineType := &models.LineType{Code: code, Title: strings.TrimSpace(req.Title)}
	if err := s.types.Create(ctx, lineType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create line type")
	}
	return lineType, nil
}

// ListLineTypes returns the registry.
func (s *CatalogService) ListLineTypes(ctx context.Context) ([]models.LineType, error) {
	lineTypes, err := s.types.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list line types")
	}
	return lineTypes, nil
}

// UpdateLineType renames a registry entry.
func (s *CatalogService) UpdateLineType(ctx context.Context, id int64, req dto.UpdateLineTypeRequest) (*models.LineType, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	lineType, err := s.types.UpdateTitle(ctx, id, strings.TrimSpace(req.Title))
	if err != nil {
		return nil, notFoundOr(err, "line type not found")
	}
	return lineType, nil
}

// DeleteLineType removes a registry entry.
func (s *CatalogService) DeleteLineType(ctx context.Context, id int64) error {
	if err := s.types.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "line type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete line type")
	}
	return nil
}

// CreateSubsidiary registers an organizational unit.
func (s *CatalogService) CreateSubsidiary(ctx context.Context, req dto.CreateSubsidiaryRequest) (*models.Subsidiary, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}
	subsidiary := &models.Subsidiary{Name: strings.TrimSpace(req.Name)}
	if err := s.subs.Create(ctx, subsidiary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create subsidiary")
	}
	return subsidiary, nil
}

// ListSubsidiaries returns all subsidiaries.
func (s *CatalogService) ListSubsidiaries(ctx context.Context) ([]models.Subsidiary, error) {
	subsidiaries, err := s.subs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subsidiaries")
	}
	return subsidiaries, nil
}

// GetSubsidiary returns a subsidiary by id.
func (s *CatalogService) GetSubsidiary(ctx context.Context, id int64) (*models.Subsidiary, error) {
	subsidiary, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "subsidiary not found")
	}
	return subsidiary, nil
}

// ListUsers returns actor records, optionally filtered by role.
func (s *CatalogService) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	users, err := s.users.List(ctx, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// GetUser returns an actor record by id.
func (s *CatalogService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return user, nil
}
