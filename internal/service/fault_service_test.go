package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasnet/linetrack-api/internal/dto"
	"github.com/atlasnet/linetrack-api/internal/models"
	"github.com/atlasnet/linetrack-api/internal/repository"
	appErrors "github.com/atlasnet/linetrack-api/pkg/errors"
)

type faultStoreStub struct {
	declareErr  error
	assignResp  *models.Fault
	assignErr   error
	resolveResp *models.Fault
	resolveErr  error
	feedbackErr error
	getResp     *models.Fault
	getErr      error
	listResp    []models.Fault
	listErr     error
	statsResp   *models.FaultStats

	declared   *models.Fault
	listCalled bool
}

func (s *faultStoreStub) GetByID(ctx context.Context, id int64) (*models.Fault, error) {
	return s.getResp, s.getErr
}

func (s *faultStoreStub) List(ctx context.Context, filter models.FaultFilter) ([]models.Fault, error) {
	s.listCalled = true
	return s.listResp, s.listErr
}

func (s *faultStoreStub) Declare(ctx context.Context, fault *models.Fault) error {
	if s.declareErr != nil {
		return s.declareErr
	}
	fault.ID = 42
	fault.Status = models.FaultStatusOpen
	s.declared = fault
	return nil
}

func (s *faultStoreStub) Assign(ctx context.Context, faultID, maintenanceUserID int64) (*models.Fault, error) {
	return s.assignResp, s.assignErr
}

func (s *faultStoreStub) Resolve(ctx context.Context, faultID int64, feedback string) (*models.Fault, error) {
	return s.resolveResp, s.resolveErr
}

func (s *faultStoreStub) UpdateFeedback(ctx context.Context, faultID int64, feedback string) (*models.Fault, error) {
	if s.feedbackErr != nil {
		return nil, s.feedbackErr
	}
	return s.getResp, nil
}

func (s *faultStoreStub) Stats(ctx context.Context) (*models.FaultStats, error) {
	return s.statsResp, nil
}

type lineReaderStub struct {
	line *models.Line
	err  error
}

func (s *lineReaderStub) GetByID(ctx context.Context, id int64) (*models.Line, error) {
	return s.line, s.err
}

type subsidiaryReaderStub struct {
	err error
}

func (s *subsidiaryReaderStub) GetByID(ctx context.Context, id int64) (*models.Subsidiary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Subsidiary{ID: id, Name: "North"}, nil
}

type userReaderStub struct {
	err error
}

func (s *userReaderStub) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.User{ID: id, Role: models.RoleMaintenance}, nil
}

type snapshotCacheStub struct {
	getErr      error
	hits        int
	sets        int
	invalidated []string
}

func (s *snapshotCacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	s.hits++
	return nil
}

func (s *snapshotCacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets++
	return nil
}

func (s *snapshotCacheStub) Invalidate(ctx context.Context, prefixes ...string) {
	s.invalidated = append(s.invalidated, prefixes...)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	return appErr.Status
}

func validDeclareRequest() dto.DeclareFaultRequest {
	return dto.DeclareFaultRequest{
		LineID:        10,
		SubsidiaryID:  3,
		DeclaredBy:    7,
		Symptoms:      "no dial tone",
		ProbableCause: "cut cable",
	}
}

func TestFaultServiceDeclare(t *testing.T) {
	store := &faultStoreStub{}
	cache := &snapshotCacheStub{}
	svc := NewFaultService(store,
		&lineReaderStub{line: &models.Line{ID: 10, SubsidiaryID: 3}},
		&subsidiaryReaderStub{}, &userReaderStub{}, nil, nil,
		WithFaultSnapshotCache(cache, time.Second))

	fault, err := svc.Declare(context.Background(), validDeclareRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(42), fault.ID)
	assert.Equal(t, models.FaultStatusOpen, fault.Status)
	assert.Contains(t, cache.invalidated, repository.CacheKeyFaults)
	assert.Contains(t, cache.invalidated, repository.CacheKeyLines)
}

func TestFaultServiceDeclareMissingFields(t *testing.T) {
	svc := NewFaultService(&faultStoreStub{}, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	_, err := svc.Declare(context.Background(), dto.DeclareFaultRequest{LineID: 10})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestFaultServiceDeclareBlankSymptoms(t *testing.T) {
	svc := NewFaultService(&faultStoreStub{}, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	req := validDeclareRequest()
	req.Symptoms = "   "
	_, err := svc.Declare(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestFaultServiceDeclareUnknownLine(t *testing.T) {
	// A dangling body reference is a bad payload, not a missing resource.
	svc := NewFaultService(&faultStoreStub{},
		&lineReaderStub{err: sql.ErrNoRows},
		&subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	_, err := svc.Declare(context.Background(), validDeclareRequest())
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFaultServiceDeclareUnknownDeclarer(t *testing.T) {
	svc := NewFaultService(&faultStoreStub{},
		&lineReaderStub{line: &models.Line{ID: 10, SubsidiaryID: 3}},
		&subsidiaryReaderStub{}, &userReaderStub{err: sql.ErrNoRows}, nil, nil)

	_, err := svc.Declare(context.Background(), validDeclareRequest())
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestFaultServiceDeclareSubsidiaryMismatch(t *testing.T) {
	svc := NewFaultService(&faultStoreStub{},
		&lineReaderStub{line: &models.Line{ID: 10, SubsidiaryID: 99}},
		&subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	_, err := svc.Declare(context.Background(), validDeclareRequest())
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestFaultServiceAssignConflictWhenNotOpen(t *testing.T) {
	store := &faultStoreStub{assignErr: repository.ErrFaultNotOpen}
	svc := NewFaultService(store, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	_, err := svc.Assign(context.Background(), 42, dto.AssignFaultRequest{MaintenanceUserID: 5})
	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))
}

func TestFaultServiceAssignUnknownUser(t *testing.T) {
	svc := NewFaultService(&faultStoreStub{}, &lineReaderStub{}, &subsidiaryReaderStub{},
		&userReaderStub{err: sql.ErrNoRows}, nil, nil)

	_, err := svc.Assign(context.Background(), 42, dto.AssignFaultRequest{MaintenanceUserID: 5})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestFaultServiceResolveRequiresFeedback(t *testing.T) {
	svc := NewFaultService(&faultStoreStub{}, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	_, err := svc.Resolve(context.Background(), 42, dto.ResolveFaultRequest{Feedback: "  "})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestFaultServiceResolveConflictWhenResolved(t *testing.T) {
	store := &faultStoreStub{resolveErr: repository.ErrFaultResolved}
	svc := NewFaultService(store, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	_, err := svc.Resolve(context.Background(), 42, dto.ResolveFaultRequest{Feedback: "done"})
	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))
}

func TestFaultServiceUpdateFeedbackBeforeResolution(t *testing.T) {
	// Zero rows with the fault still present means it is not resolved yet.
	store := &faultStoreStub{
		feedbackErr: sql.ErrNoRows,
		getResp:     &models.Fault{ID: 42, Status: models.FaultStatusOpen},
	}
	svc := NewFaultService(store, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	_, err := svc.UpdateFeedback(context.Background(), 42, dto.FaultFeedbackRequest{Feedback: "new"})
	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))
}

func TestFaultServiceUpdateFeedbackMissingFault(t *testing.T) {
	store := &faultStoreStub{feedbackErr: sql.ErrNoRows, getErr: sql.ErrNoRows}
	svc := NewFaultService(store, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil)

	_, err := svc.UpdateFeedback(context.Background(), 42, dto.FaultFeedbackRequest{Feedback: "new"})
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestFaultServiceListServedFromCache(t *testing.T) {
	store := &faultStoreStub{}
	cache := &snapshotCacheStub{}
	svc := NewFaultService(store, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil,
		WithFaultSnapshotCache(cache, time.Second))

	_, err := svc.List(context.Background(), models.FaultFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.False(t, store.listCalled)
}

func TestFaultServiceListFilteredBypassesCache(t *testing.T) {
	store := &faultStoreStub{listResp: []models.Fault{{ID: 42}}}
	cache := &snapshotCacheStub{}
	svc := NewFaultService(store, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil,
		WithFaultSnapshotCache(cache, time.Second))

	faults, err := svc.List(context.Background(), models.FaultFilter{LineID: 10})
	require.NoError(t, err)
	assert.Len(t, faults, 1)
	assert.True(t, store.listCalled)
	assert.Zero(t, cache.hits)
}

func TestFaultServiceListCacheMissFallsThrough(t *testing.T) {
	store := &faultStoreStub{listResp: []models.Fault{{ID: 42}}}
	cache := &snapshotCacheStub{getErr: appErrors.ErrCacheMiss}
	svc := NewFaultService(store, &lineReaderStub{}, &subsidiaryReaderStub{}, &userReaderStub{}, nil, nil,
		WithFaultSnapshotCache(cache, time.Second))

	faults, err := svc.List(context.Background(), models.FaultFilter{})
	require.NoError(t, err)
	assert.Len(t, faults, 1)
	assert.True(t, store.listCalled)
	assert.Equal(t, 1, cache.sets)
}
