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

type faultStore interface {
	GetByID(ctx context.Context, id int64) (*models.Fault, error)
	List(ctx context.Context, filter models.FaultFilter) ([]models.Fault, error)
	Declare(ctx context.Context, fault *models.Fault) error
	Assign(ctx context.Context, faultID, maintenanceUserID int64) (*models.Fault, error)
	Resolve(ctx context.Context, faultID int64, feedback string) (*models.Fault, error)
	UpdateFeedback(ctx context.Context, faultID int64, feedback string) (*models.Fault, error)
	Stats(ctx context.Context) (*models.FaultStats, error)
}

type lineReader interface {
	GetByID(ctx context.Context, id int64) (*models.Line, error)
}

type subsidiaryReader interface {
	GetByID(ctx context.Context, id int64) (*models.Subsidiary, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// snapshotCache is the read-side cache for collection snapshots served to
// polling clients.
type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, prefixes ...string)
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// FaultService coordinates the fault lifecycle: declaration, assignment,
// resolution, and post-resolution feedback edits. State is re-validated
// inside the repository transaction, never against caller-supplied data.
type FaultService struct {
	repo         faultStore
	lines        lineReader
	subsidiaries subsidiaryReader
	users        userReader
	cache        snapshotCache
	cacheTTL     time.Duration
	metrics      cacheMetrics
	validator    *validator.Validate
	logger       *zap.Logger
}

// FaultServiceOption configures the service.
type FaultServiceOption func(*FaultService)

// WithFaultSnapshotCache enables read-side caching of fault collections.
func WithFaultSnapshotCache(cache snapshotCache, ttl time.Duration) FaultServiceOption {
	return func(s *FaultService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithFaultCacheMetrics records cache hit/miss metrics.
func WithFaultCacheMetrics(metrics cacheMetrics) FaultServiceOption {
	return func(s *FaultService) {
		s.metrics = metrics
	}
}

// NewFaultService constructs the service.
func NewFaultService(repo faultStore, lines lineReader, subsidiaries subsidiaryReader, users userReader, validate *validator.Validate, logger *zap.Logger, opts ...FaultServiceOption) *FaultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &FaultService{
		repo:         repo,
		lines:        lines,
		subsidiaries: subsidiaries,
		users:        users,
		validator:    validate,
		logger:       logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Declare validates references and opens a fault; the line moves to faulty
// in the same transaction.
func (s *FaultService) Declare(ctx context.Context, req dto.DeclareFaultRequest) (*models.Fault, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lineId, subsidiaryId, declaredBy, symptoms, and probableCause are required")
	}
	symptoms := strings.TrimSpace(req.Symptoms)
	cause := strings.TrimSpace(req.ProbableCause)
	if symptoms == "" || cause == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "symptoms and probableCause must not be blank")
	}

	if _, err := s.users.GetByID(ctx, req.DeclaredBy); err != nil {
		return nil, badReferenceOr(err, "declaredBy does not reference a known user")
	}
	if _, err := s.subsidiaries.GetByID(ctx, req.SubsidiaryID); err != nil {
		return nil, badReferenceOr(err, "subsidiaryId does not reference a known subsidiary")
	}
	line, err := s.lines.GetByID(ctx, req.LineID)
	if err != nil {
		return nil, badReferenceOr(err, "lineId does not reference a known line")
	}
	if line.SubsidiaryID != req.SubsidiaryID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subsidiaryId does not match the line's subsidiary")
	}

	fault := &models.Fault{
		LineID:        req.LineID,
		SubsidiaryID:  req.SubsidiaryID,
		DeclaredBy:    req.DeclaredBy,
		Symptoms:      symptoms,
		ProbableCause: cause,
	}
	if err := s.repo.Declare(ctx, fault); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "lineId does not reference a known line")
		}
		if errors.Is(err, repository.ErrSubsidiaryMismatch) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subsidiaryId does not match the line's subsidiary")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to declare fault")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyFaults, repository.CacheKeyLines)
	s.logger.Info("fault declared",
		zap.Int64("fault_id", fault.ID),
		zap.Int64("line_id", fault.LineID),
		zap.Int64("declared_by", fault.DeclaredBy),
	)
	return fault, nil
}

// Assign routes an open fault to a maintenance user; the line moves to
// maintenance in the same transaction.
func (s *FaultService) Assign(ctx context.Context, faultID int64, req dto.AssignFaultRequest) (*models.Fault, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "maintenanceUserId is required")
	}
	if _, err := s.users.GetByID(ctx, req.MaintenanceUserID); err != nil {
		return nil, badReferenceOr(err, "maintenanceUserId does not reference a known user")
	}

	fault, err := s.repo.Assign(ctx, faultID, req.MaintenanceUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fault not found")
		}
		if errors.Is(err, repository.ErrFaultNotOpen) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "fault is not open")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to assign fault")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyFaults, repository.CacheKeyLines)
	s.logger.Info("fault assigned",
		zap.Int64("fault_id", fault.ID),
		zap.Int64("assigned_to", req.MaintenanceUserID),
	)
	return fault, nil
}

// Resolve closes a fault with repair feedback; the line returns to working
// in the same transaction.
func (s *FaultService) Resolve(ctx context.Context, faultID int64, req dto.ResolveFaultRequest) (*models.Fault, error) {
	if strings.TrimSpace(req.Feedback) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback is required")
	}

	fault, err := s.repo.Resolve(ctx, faultID, strings.TrimSpace(req.Feedback))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fault not found")
		}
		if errors.Is(err, repository.ErrFaultResolved) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "fault is already resolved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve fault")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyFaults, repository.CacheKeyLines)
	s.logger.Info("fault resolved", zap.Int64("fault_id", fault.ID))
	return fault, nil
}

// UpdateFeedback edits feedback on an already-resolved fault.
func (s *FaultService) UpdateFeedback(ctx context.Context, faultID int64, req dto.FaultFeedbackRequest) (*models.Fault, error) {
	if strings.TrimSpace(req.Feedback) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "feedback is required")
	}

	fault, err := s.repo.UpdateFeedback(ctx, faultID, strings.TrimSpace(req.Feedback))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.repo.GetByID(ctx, faultID); getErr == nil {
				return nil, appErrors.Clone(appErrors.ErrConflict, "feedback can only be edited after resolution")
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fault not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update feedback")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyFaults)
	return fault, nil
}

// Get returns a fault by id.
func (s *FaultService) Get(ctx context.Context, id int64) (*models.Fault, error) {
	fault, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "fault not found")
	}
	return fault, nil
}

// List returns faults matching the filter. Unfiltered listings are served
// from the snapshot cache when one is configured.
func (s *FaultService) List(ctx context.Context, filter models.FaultFilter) ([]models.Fault, error) {
	useCache := s.cache != nil && filter == (models.FaultFilter{})
	if useCache {
		start := time.Now()
		var cached []models.Fault
		err := s.cache.Get(ctx, repository.CacheKeyFaults, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("fault snapshot cache read failed", zap.Error(err))
		}
	}

	faults, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faults")
	}

	if useCache {
		if err := s.cache.Set(ctx, repository.CacheKeyFaults, faults, s.cacheTTL); err != nil {
			s.logger.Warn("fault snapshot cache write failed", zap.Error(err))
		}
	}
	return faults, nil
}

// Stats aggregates fault counts and resolution latency.
func (s *FaultService) Stats(ctx context.Context) (*models.FaultStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute fault statistics")
	}
	return stats, nil
}

func (s *FaultService) invalidateSnapshots(ctx context.Context, prefixes ...string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, prefixes...)
}

// notFoundOr maps sql.ErrNoRows to a NOT_FOUND error with the given
// message and wraps anything else as internal. Used for path-addressed
// lookups; references carried in a request body go through badReferenceOr.
func notFoundOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// badReferenceOr maps sql.ErrNoRows to a 400 validation error: an
// unresolved foreign key supplied in a request body is a bad payload,
// not a missing resource.
func badReferenceOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrValidation, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
