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
)

type lineStoreStub struct {
	created     *models.Line
	createErr   error
	getResp     *models.Line
	getErr      error
	listResp    []models.Line
	setResp     *models.Line
	setErr      error
	touchResp   *models.Line
	touchErr    error
	toggleResp  *models.Line
	deleteErr   error
	setCalled   bool
	touchCalled bool
	touchedAt   time.Time
}

func (s *lineStoreStub) Create(ctx context.Context, line *models.Line) error {
	if s.createErr != nil {
		return s.createErr
	}
	line.ID = 10
	line.Version = 1
	s.created = line
	return nil
}

func (s *lineStoreStub) GetByID(ctx context.Context, id int64) (*models.Line, error) {
	return s.getResp, s.getErr
}

func (s *lineStoreStub) List(ctx context.Context, filter models.LineFilter) ([]models.Line, error) {
	return s.listResp, nil
}

func (s *lineStoreStub) SetStatusDirect(ctx context.Context, id int64, status models.LineStatus) (*models.Line, error) {
	s.setCalled = true
	return s.setResp, s.setErr
}

func (s *lineStoreStub) TouchLastChecked(ctx context.Context, id int64, checkedAt time.Time) (*models.Line, error) {
	s.touchCalled = true
	s.touchedAt = checkedAt
	return s.touchResp, s.touchErr
}

func (s *lineStoreStub) ToggleFaultFlow(ctx context.Context, id int64) (*models.Line, error) {
	return s.toggleResp, nil
}

func (s *lineStoreStub) Delete(ctx context.Context, id int64) error {
	return s.deleteErr
}

type faultResolverStub struct {
	line     *models.Line
	closed   int
	err      error
	called   bool
	feedback string
}

func (s *faultResolverStub) ResolveAllForLine(ctx context.Context, lineID int64, feedback string) (*models.Line, int, error) {
	s.called = true
	s.feedback = feedback
	return s.line, s.closed, s.err
}

type lineTypeResolverStub struct {
	err error
}

func (s *lineTypeResolverStub) GetByCode(ctx context.Context, code string) (*models.LineType, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.LineType{ID: 1, Code: code, Title: "Voice over IP"}, nil
}

func newLineService(store *lineStoreStub, resolver *faultResolverStub) *LineService {
	return NewLineService(store, resolver, &lineTypeResolverStub{}, &subsidiaryReaderStub{}, nil, nil)
}

func TestLineServiceCreateDefaultsFaultFlow(t *testing.T) {
	store := &lineStoreStub{}
	svc := newLineService(store, &faultResolverStub{})

	line, err := svc.Create(context.Background(), dto.CreateLineRequest{
		Number:       "0611223344",
		Type:         "VOIP",
		SubsidiaryID: 3,
		Location:     "Building A",
	})
	require.NoError(t, err)
	assert.True(t, line.InFaultFlow)
	assert.Equal(t, int64(10), line.ID)
}

func TestLineServiceCreateUnknownType(t *testing.T) {
	svc := NewLineService(&lineStoreStub{}, &faultResolverStub{},
		&lineTypeResolverStub{err: sql.ErrNoRows}, &subsidiaryReaderStub{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateLineRequest{
		Number:       "0611223344",
		Type:         "NOPE",
		SubsidiaryID: 3,
		Location:     "Building A",
	})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestLineServiceConfirmWorkingClosesFaults(t *testing.T) {
	resolver := &faultResolverStub{
		line:   &models.Line{ID: 10, Status: models.LineStatusWorking},
		closed: 2,
	}
	svc := newLineService(&lineStoreStub{}, resolver)

	line, err := svc.ConfirmWorking(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, resolver.called)
	assert.Equal(t, models.AutoResolveFeedback, resolver.feedback)
	assert.Equal(t, models.LineStatusWorking, line.Status)
}

func TestLineServiceConfirmWorkingMissingLine(t *testing.T) {
	resolver := &faultResolverStub{err: sql.ErrNoRows}
	svc := newLineService(&lineStoreStub{}, resolver)

	_, err := svc.ConfirmWorking(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestLineServiceSetStatusRejectsDerivedStates(t *testing.T) {
	svc := newLineService(&lineStoreStub{}, &faultResolverStub{})

	for _, status := range []models.LineStatus{models.LineStatusFaulty, models.LineStatusMaintenance} {
		_, err := svc.SetStatus(context.Background(), 10, dto.SetLineStatusRequest{Status: status})
		require.Error(t, err)
		assert.Equal(t, 400, statusOf(t, err))
	}
}

func TestLineServiceSetStatusUnknownValue(t *testing.T) {
	svc := newLineService(&lineStoreStub{}, &faultResolverStub{})

	_, err := svc.SetStatus(context.Background(), 10, dto.SetLineStatusRequest{Status: "broken"})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestLineServiceSetStatusConflictOnUnresolvedFaults(t *testing.T) {
	store := &lineStoreStub{setErr: repository.ErrUnresolvedFaults}
	svc := newLineService(store, &faultResolverStub{})

	_, err := svc.SetStatus(context.Background(), 10, dto.SetLineStatusRequest{Status: models.LineStatusWorking})
	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))
}

func TestLineServiceUpdateRoutesWorkingThroughConfirm(t *testing.T) {
	resolver := &faultResolverStub{line: &models.Line{ID: 10, Status: models.LineStatusWorking}}
	store := &lineStoreStub{}
	svc := newLineService(store, resolver)

	status := models.LineStatusWorking
	_, err := svc.Update(context.Background(), 10, dto.UpdateLineRequest{Status: &status})
	require.NoError(t, err)
	assert.True(t, resolver.called)
	assert.False(t, store.setCalled)
}

func TestLineServiceUpdateDirectStatus(t *testing.T) {
	store := &lineStoreStub{setResp: &models.Line{ID: 10, Status: models.LineStatusOutOfService}}
	svc := newLineService(store, &faultResolverStub{})

	status := models.LineStatusOutOfService
	line, err := svc.Update(context.Background(), 10, dto.UpdateLineRequest{Status: &status})
	require.NoError(t, err)
	assert.True(t, store.setCalled)
	assert.Equal(t, models.LineStatusOutOfService, line.Status)
}

func TestLineServiceUpdateLastCheckedOnly(t *testing.T) {
	store := &lineStoreStub{touchResp: &models.Line{ID: 10}}
	svc := newLineService(store, &faultResolverStub{})

	now := time.Now()
	_, err := svc.Update(context.Background(), 10, dto.UpdateLineRequest{LastChecked: &now})
	require.NoError(t, err)
	assert.True(t, store.touchCalled)
}

func TestLineServiceUpdateStatusWithLastChecked(t *testing.T) {
	// A supplied lastChecked must survive the status transition instead of
	// being overwritten by the transition's own timestamp.
	checked := time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC)
	store := &lineStoreStub{
		setResp:   &models.Line{ID: 10, Status: models.LineStatusOutOfService},
		touchResp: &models.Line{ID: 10, Status: models.LineStatusOutOfService, LastChecked: checked},
	}
	svc := newLineService(store, &faultResolverStub{})

	status := models.LineStatusOutOfService
	line, err := svc.Update(context.Background(), 10, dto.UpdateLineRequest{Status: &status, LastChecked: &checked})
	require.NoError(t, err)
	assert.True(t, store.setCalled)
	assert.True(t, store.touchCalled)
	assert.Equal(t, checked, store.touchedAt)
	assert.Equal(t, checked, line.LastChecked)
}

func TestLineServiceUpdateEmptyPayload(t *testing.T) {
	svc := newLineService(&lineStoreStub{}, &faultResolverStub{})

	_, err := svc.Update(context.Background(), 10, dto.UpdateLineRequest{})
	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestLineServiceDeleteConflictOnUnresolvedFaults(t *testing.T) {
	store := &lineStoreStub{deleteErr: repository.ErrUnresolvedFaults}
	svc := newLineService(store, &faultResolverStub{})

	err := svc.Delete(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))
}

func TestLineServiceDeleteMissing(t *testing.T) {
	store := &lineStoreStub{deleteErr: sql.ErrNoRows}
	svc := newLineService(store, &faultResolverStub{})

	err := svc.Delete(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}
