package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/atlasnet/linetrack-api/internal/models"
)

func TestLineRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lines")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	line := &models.Line{
		Number:       "0611223344",
		Type:         "VOIP",
		SubsidiaryID: 3,
		Location:     "Building A",
	}
	require.NoError(t, repo.Create(context.Background(), line))
	require.Equal(t, int64(10), line.ID)
	require.Equal(t, models.LineStatusWorking, line.Status)
	require.Equal(t, int64(1), line.Version)
	require.False(t, line.EstablishmentDate.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLineRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, type")).
		WithArgs(int64(3), string(models.LineStatusWorking)).
		WillReturnRows(lineRows(10, 3, models.LineStatusWorking))

	lines, err := repo.List(context.Background(), models.LineFilter{
		SubsidiaryID: 3,
		Status:       models.LineStatusWorking,
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, int64(10), lines[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLineRepositorySetStatusDirectBlockedByUnresolvedFaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, type")).
		WithArgs(int64(10)).
		WillReturnRows(lineRows(10, 3, models.LineStatusFaulty))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM faults")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := repo.SetStatusDirect(context.Background(), 10, models.LineStatusWorking)
	require.ErrorIs(t, err, ErrUnresolvedFaults)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLineRepositorySetStatusDirectOutOfService(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	// out_of_service is allowed even while faults are open, so no
	// unresolved-fault count is issued.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, number, type")).
		WithArgs(int64(10)).
		WillReturnRows(lineRows(10, 3, models.LineStatusFaulty))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE lines SET status")).
		WillReturnRows(lineRows(10, 3, models.LineStatusOutOfService))
	mock.ExpectCommit()

	line, err := repo.SetStatusDirect(context.Background(), 10, models.LineStatusOutOfService)
	require.NoError(t, err)
	require.Equal(t, models.LineStatusOutOfService, line.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLineRepositoryTouchLastChecked(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE lines SET last_checked")).
		WillReturnRows(lineRows(10, 3, models.LineStatusWorking))

	line, err := repo.TouchLastChecked(context.Background(), 10, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(10), line.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLineRepositoryToggleFaultFlow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE lines SET in_fault_flow = NOT in_fault_flow")).
		WithArgs(int64(10)).
		WillReturnRows(lineRows(10, 3, models.LineStatusWorking))

	line, err := repo.ToggleFaultFlow(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(10), line.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLineRepositoryDeleteBlockedByUnresolvedFaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM lines")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM faults")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 10)
	require.ErrorIs(t, err, ErrUnresolvedFaults)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLineRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM lines")).
		WithArgs(int64(10)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 10)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLineRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewLineRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM lines")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM faults")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lines")).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 10))
	require.NoError(t, mock.ExpectationsWereMet())
}
