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

type lineStore interface {
	Create(ctx context.Context, line *models.Line) error
	GetByID(ctx context.Context, id int64) (*models.Line, error)
	List(ctx context.Context, filter models.LineFilter) ([]models.Line, error)
	SetStatusDirect(ctx context.Context, id int64, status models.LineStatus) (*models.Line, error)
	TouchLastChecked(ctx context.Context, id int64, checkedAt time.Time) (*models.Line, error)
	ToggleFaultFlow(ctx context.Context, id int64) (*models.Line, error)
	Delete(ctx context.Context, id int64) error
}

type faultResolver interface {
	ResolveAllForLine(ctx context.Context, lineID int64, feedback string) (*models.Line, int, error)
}

type lineTypeResolver interface {
	GetByCode(ctx context.Context, code string) (*models.LineType, error)
}

// LineService coordinates line records: creation, confirm-working, the
// maintenance-direct status setter, and deletion guarded against
// unresolved faults.
type LineService struct {
	repo      lineStore
	faults    faultResolver
	types     lineTypeResolver
	subs      subsidiaryReader
	cache     snapshotCache
	cacheTTL  time.Duration
	metrics   cacheMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// LineServiceOption configures the service.
type LineServiceOption func(*LineService)

// WithLineSnapshotCache enables read-side caching of line collections.
func WithLineSnapshotCache(cache snapshotCache, ttl time.Duration) LineServiceOption {
	return func(s *LineService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithLineCacheMetrics records cache hit/miss metrics.
func WithLineCacheMetrics(metrics cacheMetrics) LineServiceOption {
	return func(s *LineService) {
		s.metrics = metrics
	}
}

// NewLineService constructs the service.
func NewLineService(repo lineStore, faults faultResolver, types lineTypeResolver, subsidiaries subsidiaryReader, validate *validator.Validate, logger *zap.Logger, opts ...LineServiceOption) *LineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LineService{
		repo:      repo,
		faults:    faults,
		types:     types,
		subs:      subsidiaries,
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

// Create registers a line after resolving its type code and subsidiary.
func (s *LineService) Create(ctx context.Context, req dto.CreateLineRequest) (*models.Line, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "number, type, subsidiaryId, and location are required")
	}
	if _, err := s.types.GetByCode(ctx, req.Type); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown line type code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve line type")
	}
	if _, err := s.subs.GetByID(ctx, req.SubsidiaryID); err != nil {
		return nil, badReferenceOr(err, "subsidiaryId does not reference a known subsidiary")
	}

	line := &models.Line{
		Number:       strings.TrimSpace(req.Number),
		Type:         req.Type,
		SubsidiaryID: req.SubsidiaryID,
		Location:     strings.TrimSpace(req.Location),
		InFaultFlow:  true,
	}
	if req.InFaultFlow != nil {
		line.InFaultFlow = *req.InFaultFlow
	}
	if req.Status != nil {
		status := models.LineStatus(*req.Status)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown line status")
		}
		line.Status = status
	}

	if err := s.repo.Create(ctx, line); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create line")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyLines)
	s.logger.Info("line created", zap.Int64("line_id", line.ID), zap.String("number", line.Number))
	return line, nil
}

// Get returns a line by id.
func (s *LineService) Get(ctx context.Context, id int64) (*models.Line, error) {
	line, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "line not found")
	}
	return line, nil
}

// List returns lines matching the filter. Unfiltered listings are served
// from the snapshot cache when one is configured.
func (s *LineService) List(ctx context.Context, filter models.LineFilter) ([]models.Line, error) {
	useCache := s.cache != nil && filter == (models.LineFilter{})
	if useCache {
		start := time.Now()
		var cached []models.Line
		err := s.cache.Get(ctx, repository.CacheKeyLines, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("line snapshot cache read failed", zap.Error(err))
		}
	}

	lines, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lines")
	}

	if useCache {
		if err := s.cache.Set(ctx, repository.CacheKeyLines, lines, s.cacheTTL); err != nil {
			s.logger.Warn("line snapshot cache write failed", zap.Error(err))
		}
	}
	return lines, nil
}

// ConfirmWorking asserts the line is healthy: every unresolved fault is
// force-closed and the line returns to working, all in one transaction.
// Calling it on an already-healthy line is a no-op.
func (s *LineService) ConfirmWorking(ctx context.Context, lineID int64) (*models.Line, error) {
	line, closed, err := s.faults.ResolveAllForLine(ctx, lineID, models.AutoResolveFeedback)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "line not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to confirm line working")
	}

	if closed > 0 {
		s.invalidateSnapshots(ctx, repository.CacheKeyLines, repository.CacheKeyFaults)
	} else {
		s.invalidateSnapshots(ctx, repository.CacheKeyLines)
	}
	s.logger.Info("line confirmed working", zap.Int64("line_id", lineID), zap.Int("faults_closed", closed))
	return line, nil
}

// SetStatus applies the maintenance-direct status setter. Faulty and
// maintenance are refused here: they are derived from fault activity.
func (s *LineService) SetStatus(ctx context.Context, lineID int64, req dto.SetLineStatusRequest) (*models.Line, error) {
	if req.Status == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status is required")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown line status")
	}
	if !req.Status.DirectlySettable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faulty and maintenance are derived from fault activity and cannot be set directly")
	}

	line, err := s.repo.SetStatusDirect(ctx, lineID, req.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "line not found")
		}
		if errors.Is(err, repository.ErrUnresolvedFaults) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "line has unresolved faults; use confirm-working to close them")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to set line status")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyLines)
	s.logger.Info("line status set directly", zap.Int64("line_id", lineID), zap.String("status", string(req.Status)))
	return line, nil
}

// Update handles the generic partial update. A status of working routes
// through confirm-working so outstanding faults are closed with it; other
// statuses follow the direct-setter rules; a lastChecked records a health
// check at the supplied timestamp, after any status transition.
func (s *LineService) Update(ctx context.Context, lineID int64, req dto.UpdateLineRequest) (*models.Line, error) {
	if req.Status == nil && req.LastChecked == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update: provide status or lastChecked")
	}

	if req.Status != nil {
		var (
			line *models.Line
			err  error
		)
		if *req.Status == models.LineStatusWorking {
			line, err = s.ConfirmWorking(ctx, lineID)
		} else {
			line, err = s.SetStatus(ctx, lineID, dto.SetLineStatusRequest{Status: *req.Status})
		}
		if err != nil || req.LastChecked == nil {
			return line, err
		}
	}

	line, err := s.repo.TouchLastChecked(ctx, lineID, *req.LastChecked)
	if err != nil {
		return nil, notFoundOr(err, "line not found")
	}
	s.invalidateSnapshots(ctx, repository.CacheKeyLines)
	return line, nil
}

// ToggleFaultFlow flips whether the line appears in subsidiary-facing
// fault reporting.
func (s *LineService) ToggleFaultFlow(ctx context.Context, lineID int64) (*models.Line, error) {
	line, err := s.repo.ToggleFaultFlow(ctx, lineID)
	if err != nil {
		return nil, notFoundOr(err, "line not found")
	}
	s.invalidateSnapshots(ctx, repository.CacheKeyLines)
	return line, nil
}

// Delete removes a line; unresolved faults block it.
func (s *LineService) Delete(ctx context.Context, lineID int64) error {
	if err := s.repo.Delete(ctx, lineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "line not found")
		}
		if errors.Is(err, repository.ErrUnresolvedFaults) {
			return appErrors.Clone(appErrors.ErrConflict, "line has unresolved faults and cannot be deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete line")
	}

	s.invalidateSnapshots(ctx, repository.CacheKeyLines)
	s.logger.Info("line deleted", zap.Int64("line_id", lineID))
	return nil
}

func (s *LineService) invalidateSnapshots(ctx context.Context, prefixes ...string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, prefixes...)
}
