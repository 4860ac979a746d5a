package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/atlasnet/linetrack-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func lineRows(id, subsidiaryID int64, status models.LineStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "number", "type", "subsidiary_id", "location", "establishment_date", "status", "last_checked", "in_fault_flow", "version"}).
		AddRow(id, "0611223344", "VOIP", subsidiaryID, "Building A", now, string(status), now, true, 1)
}

func faultRows(id, lineID int64, status models.FaultStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "line_id", "subsidiary_id", "declared_by", "declared_at", "symptoms", "probable_cause", "status", "assigned_to", "assigned_at", "resolved_at", "feedback", "version"}).
		AddRow(id, lineID, 3, 7, now, "no dial tone", "cut cable", string(status), nil, nil, nil, nil, 1)
}

func TestFaultRepositoryDeclare(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, type")).
		WithArgs(int64(10)).
		WillReturnRows(lineRows(10, 3, models.LineStatusWorking))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO faults")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lines SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fault := &models.Fault{
		LineID:        10,
		SubsidiaryID:  3,
		DeclaredBy:    7,
		Symptoms:      "no dial tone",
		ProbableCause: "cut cable",
	}
	require.NoError(t, repo.Declare(context.Background(), fault))
	require.Equal(t, int64(42), fault.ID)
	require.Equal(t, models.FaultStatusOpen, fault.Status)
	require.False(t, fault.DeclaredAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryDeclareSubsidiaryMismatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, type")).
		WithArgs(int64(10)).
		WillReturnRows(lineRows(10, 99, models.LineStatusWorking))
	mock.ExpectRollback()

	fault := &models.Fault{LineID: 10, SubsidiaryID: 3, DeclaredBy: 7, Symptoms: "s", ProbableCause: "c"}
	err := repo.Declare(context.Background(), fault)
	require.ErrorIs(t, err, ErrSubsidiaryMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryAssignRefusesNonOpen(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, line_id")).
		WithArgs(int64(42)).
		WillReturnRows(faultRows(42, 10, models.FaultStatusResolved))
	mock.ExpectRollback()

	_, err := repo.Assign(context.Background(), 42, 5)
	require.ErrorIs(t, err, ErrFaultNotOpen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryAssign(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, line_id")).
		WithArgs(int64(42)).
		WillReturnRows(faultRows(42, 10, models.FaultStatusOpen))
	assigned := sqlmock.NewRows([]string{"id", "line_id", "subsidiary_id", "declared_by", "declared_at", "symptoms", "probable_cause", "status", "assigned_to", "assigned_at", "resolved_at", "feedback", "version"}).
		AddRow(int64(42), int64(10), int64(3), int64(7), now, "no dial tone", "cut cable", "assigned", int64(5), now, nil, nil, 2)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE faults SET status")).
		WillReturnRows(assigned)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lines SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fault, err := repo.Assign(context.Background(), 42, 5)
	require.NoError(t, err)
	require.Equal(t, models.FaultStatusAssigned, fault.Status)
	require.NotNil(t, fault.AssignedTo)
	require.Equal(t, int64(5), *fault.AssignedTo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryResolveRefusesResolved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, line_id")).
		WithArgs(int64(42)).
		WillReturnRows(faultRows(42, 10, models.FaultStatusResolved))
	mock.ExpectRollback()

	_, err := repo.Resolve(context.Background(), 42, "replaced cable")
	require.ErrorIs(t, err, ErrFaultResolved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryResolveFromOpen(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)
	now := time.Now().UTC()
	feedback := "replaced cable"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, line_id")).
		WithArgs(int64(42)).
		WillReturnRows(faultRows(42, 10, models.FaultStatusOpen))
	resolved := sqlmock.NewRows([]string{"id", "line_id", "subsidiary_id", "declared_by", "declared_at", "symptoms", "probable_cause", "status", "assigned_to", "assigned_at", "resolved_at", "feedback", "version"}).
		AddRow(int64(42), int64(10), int64(3), int64(7), now, "no dial tone", "cut cable", "resolved", nil, now, now, feedback, 2)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE faults SET status")).
		WillReturnRows(resolved)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lines SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fault, err := repo.Resolve(context.Background(), 42, feedback)
	require.NoError(t, err)
	require.Equal(t, models.FaultStatusResolved, fault.Status)
	require.NotNil(t, fault.AssignedAt)
	require.NotNil(t, fault.ResolvedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryResolveAllForLine(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, type")).
		WithArgs(int64(10)).
		WillReturnRows(lineRows(10, 3, models.LineStatusFaulty))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE faults SET status")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE lines SET status")).
		WillReturnRows(lineRows(10, 3, models.LineStatusWorking))
	mock.ExpectCommit()

	line, closed, err := repo.ResolveAllForLine(context.Background(), 10, models.AutoResolveFeedback)
	require.NoError(t, err)
	require.Equal(t, 2, closed)
	require.Equal(t, models.LineStatusWorking, line.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryResolveAllForLineNoOp(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, type")).
		WithArgs(int64(10)).
		WillReturnRows(lineRows(10, 3, models.LineStatusWorking))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE faults SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	line, closed, err := repo.ResolveAllForLine(context.Background(), 10, models.AutoResolveFeedback)
	require.NoError(t, err)
	require.Zero(t, closed)
	require.Equal(t, models.LineStatusWorking, line.Status)
	require.Equal(t, int64(1), line.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryUpdateFeedbackRequiresResolved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE faults SET feedback")).
		WithArgs("new feedback", int64(42), string(models.FaultStatusResolved)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateFeedback(context.Background(), 42, "new feedback")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFaultRepository(db)

	rows := sqlmock.NewRows([]string{"total", "open", "assigned", "resolved", "avg_resolution_ms"}).
		AddRow(10, 3, 2, 5, 3600000.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).WillReturnRows(rows)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, stats.Total)
	require.Equal(t, 3, stats.Open)
	require.Equal(t, 5, stats.Resolved)
	require.InDelta(t, 3600000.0, stats.AvgResolutionTimeMS, 0.01)
	require.NoError(t, mock.ExpectationsWereMet())
}
