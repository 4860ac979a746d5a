package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atlasnet/linetrack-api/internal/dto"
	"github.com/atlasnet/linetrack-api/internal/models"
	"github.com/atlasnet/linetrack-api/internal/repository"
	appErrors "github.com/atlasnet/linetrack-api/pkg/errors"
)

type lineRequestStore interface {
	Create(ctx context.Context, request *models.LineRequest) error
	GetByID(ctx context.Context, id int64) (*models.LineRequest, error)
	List(ctx context.Context, filter models.LineRequestFilter) ([]models.LineRequest, error)
	Approve(ctx context.Context, id int64, assignedNumber string) (*models.LineRequest, *models.Line, error)
	Reject(ctx context.Context, id int64, reason string) (*models.LineRequest, error)
	Delete(ctx context.Context, id int64) error
}

// LineRequestService runs the provisioning approval workflow:
// pending → approved creates exactly one line; pending → rejected requires
// a reason. Both are exactly-once.
type LineRequestService struct {
	repo      lineRequestStore
	types     lineTypeResolver
	subs      subsidiaryReader
	users     userReader
	cache     snapshotCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// LineRequestServiceOption configures the service.
type LineRequestServiceOption func(*LineRequestService)

// WithLineRequestSnapshotCache enables read-side caching of request collections.
func WithLineRequestSnapshotCache(cache snapshotCache, ttl time.Duration) LineRequestServiceOption {
	return func(s *LineRequestService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// NewLineRequestService constructs the service.
func NewLineRequestService(repo lineRequestStore, types lineTypeResolver, subsidiaries subsidiaryReader, users userReader, validate *validator.Validate, logger *zap.Logger, opts ...LineRequestServiceOption) *LineRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LineRequestService{
		repo:      repo,
		types:     types,
		subs:      subsidiaries,
		users:     users,
		validator: validate,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a pending provisioning request.
func (s *LineRequestService) Create(ctx context.Context, req dto.CreateLineRequestPayload) (*models.LineRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subsidiaryId, requestedType, and adminId are required")
	}
	if _, err := s.types.GetByCode(ctx, req.RequestedType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown line type code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve line type")
	}
	if _, err := s.subs.GetByID(ctx, req.SubsidiaryID); err != nil {
		return nil, badReferenceOr(err, "subsidiaryId does not reference a known subsidiary")
	}
	if _, err := s.users.GetByID(ctx, req.AdminID); err != nil {
		return nil, badReferenceOr(err, "adminId does not reference a known user")
	}

	request := &models.LineRequest{
		SubsidiaryID:  req.SubsidiaryID,
		RequestedType: req.RequestedType,
		AdminID:       req.AdminID,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create line request")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyLineRequests)
	s.logger.Info("line request created",
		zap.Int64("request_id", request.ID),
		zap.Int64("subsidiary_id", request.SubsidiaryID),
		zap.String("requested_type", request.RequestedType),
	)
	return request, nil
}

// Get returns a request by id.
func (s *LineRequestService) Get(ctx context.Context, id int64) (*models.LineRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "line request not found")
	}
	return request, nil
}

// List returns requests matching the filter. Unfiltered listings are
// served from the snapshot cache when one is configured.
func (s *LineRequestService) List(ctx context.Context, filter models.LineRequestFilter) ([]models.LineRequest, error) {
	useCache := s.cache != nil && filter == (models.LineRequestFilter{})
	if useCache {
		var cached []models.LineRequest
		if err := s.cache.Get(ctx, repository.CacheKeyLineRequests, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("line request snapshot cache read failed", zap.Error(err))
		}
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list line requests")
	}

	if useCache {
		if err := s.cache.Set(ctx, repository.CacheKeyLineRequests, requests, s.cacheTTL); err != nil {
			s.logger.Warn("line request snapshot cache write failed", zap.Error(err))
		}
	}
	return requests, nil
}

// Approve provisions a line for a pending request. A request that is no
// longer pending fails with a conflict and no line is created.
func (s *LineRequestService) Approve(ctx context.Context, id int64, req dto.ApproveLineRequestPayload) (*dto.LineRequestDecision, error) {
	if strings.TrimSpace(req.AssignedNumber) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignedNumber is required for approval")
	}

	request, line, err := s.repo.Approve(ctx, id, strings.TrimSpace(req.AssignedNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "line request not found")
		}
		if errors.Is(err, repository.ErrRequestProcessed) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "line request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to approve line request")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyLineRequests, repository.CacheKeyLines)
	s.logger.Info("line request approved",
		zap.Int64("request_id", request.ID),
		zap.Int64("line_id", line.ID),
		zap.String("assigned_number", line.Number),
	)
	return &dto.LineRequestDecision{Request: request, Line: line}, nil
}

// Reject closes a pending request with a reason.
func (s *LineRequestService) Reject(ctx context.Context, id int64, req dto.RejectLineRequestPayload) (*models.LineRequest, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	request, err := s.repo.Reject(ctx, id, strings.TrimSpace(req.Reason))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.repo.GetByID(ctx, id); getErr == nil {
				return nil, appErrors.Clone(appErrors.ErrConflict, "line request already processed")
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "line request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to reject line request")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyLineRequests)
	s.logger.Info("line request rejected", zap.Int64("request_id", request.ID))
	return request, nil
}

// Delete removes a request record.
func (s *LineRequestService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "line request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete line request")
	}
	s.invalidateSnapshots(ctx, repository.CacheKeyLineRequests)
	return nil
}

func (s *LineRequestService) invalidateSnapshots(ctx context.Context, prefixes ...string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, prefixes...)
}
