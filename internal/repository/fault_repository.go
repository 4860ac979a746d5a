package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/atlasnet/linetrack-api/internal/models"
)

const faultColumns = `id, line_id, subsidiary_id, declared_by, declared_at, symptoms, probable_cause, status, assigned_to, assigned_at, resolved_at, feedback, version`

// FaultRepository persists fault tickets. Every transition that touches
// both a fault and its line runs inside one transaction: either both rows
// change or neither does.
type FaultRepository struct {
	db *sqlx.DB
}

// NewFaultRepository constructs the repository.
func NewFaultRepository(db *sqlx.DB) *FaultRepository {
	return &FaultRepository{db: db}
}

// GetByID fetches a fault by identifier.
func (r *FaultRepository) GetByID(ctx context.Context, id int64) (*models.Fault, error) {
	query := fmt.Sprintf(`SELECT %s FROM faults WHERE id = $1`, faultColumns)
	var fault models.Fault
	if err := r.db.GetContext(ctx, &fault, query, id); err != nil {
		return nil, err
	}
	return &fault, nil
}

// List returns faults matching the filter (latest declared first).
func (r *FaultRepository) List(ctx context.Context, filter models.FaultFilter) ([]models.Fault, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM faults`, faultColumns))

	conditions := make([]string, 0, 3)
	if filter.LineID > 0 {
		args = append(args, filter.LineID)
		conditions = append(conditions, fmt.Sprintf("line_id = $%d", len(args)))
	}
	if filter.SubsidiaryID > 0 {
		args = append(args, filter.SubsidiaryID)
		conditions = append(conditions, fmt.Sprintf("subsidiary_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY declared_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var faults []models.Fault
	if err := r.db.SelectContext(ctx, &faults, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list faults: %w", err)
	}
	return faults, nil
}

// Declare inserts an open fault and marks the owning line faulty in one
// transaction. The line row is locked first so its subsidiary can be
// re-checked against the payload at the moment of the write.
func (r *FaultRepository) Declare(ctx context.Context, fault *models.Fault) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fault declaration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var line models.Line
	selectQuery := fmt.Sprintf(`SELECT %s FROM lines WHERE id = $1 FOR UPDATE`, lineColumns)
	if err = tx.GetContext(ctx, &line, selectQuery, fault.LineID); err != nil {
		return err
	}
	if line.SubsidiaryID != fault.SubsidiaryID {
		err = ErrSubsidiaryMismatch
		return err
	}

	now := time.Now().UTC()
	if fault.DeclaredAt.IsZero() {
		fault.DeclaredAt = now
	}
	fault.Status = models.FaultStatusOpen
	fault.Version = 1

	const insertQuery = `INSERT INTO faults (line_id, subsidiary_id, declared_by, declared_at, symptoms, probable_cause, status, version)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insertQuery,
		fault.LineID, fault.SubsidiaryID, fault.DeclaredBy, fault.DeclaredAt,
		fault.Symptoms, fault.ProbableCause, fault.Status, fault.Version,
	).Scan(&fault.ID); err != nil {
		return fmt.Errorf("insert fault: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE lines SET status = $1, last_checked = $2, version = version + 1 WHERE id = $3`,
		models.LineStatusFaulty, now, fault.LineID); err != nil {
		return fmt.Errorf("mark line faulty: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit fault declaration: %w", err)
	}
	return nil
}

// Assign routes an open fault to a maintenance user and moves the line to
// maintenance, atomically. Non-open faults are refused.
func (r *FaultRepository) Assign(ctx context.Context, faultID, maintenanceUserID int64) (*models.Fault, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin fault assignment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var fault models.Fault
	selectQuery := fmt.Sprintf(`SELECT %s FROM faults WHERE id = $1 FOR UPDATE`, faultColumns)
	if err = tx.GetContext(ctx, &fault, selectQuery, faultID); err != nil {
		return nil, err
	}
	if fault.Status != models.FaultStatusOpen {
		err = ErrFaultNotOpen
		return nil, err
	}

	now := time.Now().UTC()
	updateQuery := fmt.Sprintf(`UPDATE faults SET status = $1, assigned_to = $2, assigned_at = $3, version = version + 1 WHERE id = $4 RETURNING %s`, faultColumns)
	if err = tx.GetContext(ctx, &fault, updateQuery, models.FaultStatusAssigned, maintenanceUserID, now, faultID); err != nil {
		return nil, fmt.Errorf("assign fault: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE lines SET status = $1, version = version + 1 WHERE id = $2`,
		models.LineStatusMaintenance, fault.LineID); err != nil {
		return nil, fmt.Errorf("mark line under maintenance: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fault assignment: %w", err)
	}
	return &fault, nil
}

// Resolve closes a fault with feedback and returns the line to working,
// atomically. Already-resolved faults are refused. assigned_at is
// backfilled for faults resolved straight from open so that resolved
// tickets always carry the full timeline.
func (r *FaultRepository) Resolve(ctx context.Context, faultID int64, feedback string) (*models.Fault, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin fault resolution: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var fault models.Fault
	selectQuery := fmt.Sprintf(`SELECT %s FROM faults WHERE id = $1 FOR UPDATE`, faultColumns)
	if err = tx.GetContext(ctx, &fault, selectQuery, faultID); err != nil {
		return nil, err
	}
	if fault.Status == models.FaultStatusResolved {
		err = ErrFaultResolved
		return nil, err
	}

	now := time.Now().UTC()
	updateQuery := fmt.Sprintf(`UPDATE faults SET status = $1, feedback = $2, resolved_at = $3, assigned_at = COALESCE(assigned_at, $3), version = version + 1 WHERE id = $4 RETURNING %s`, faultColumns)
	if err = tx.GetContext(ctx, &fault, updateQuery, models.FaultStatusResolved, feedback, now, faultID); err != nil {
		return nil, fmt.Errorf("resolve fault: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE lines SET status = $1, last_checked = $2, version = version + 1 WHERE id = $3`,
		models.LineStatusWorking, now, fault.LineID); err != nil {
		return nil, fmt.Errorf("mark line working: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit fault resolution: %w", err)
	}
	return &fault, nil
}

// ResolveAllForLine force-resolves every unresolved fault on the line and
// marks it working, all in one transaction. A single UPDATE covers the
// whole fault set so the fan-out cannot be partially applied. Returns the
// line and the number of faults closed; when the line is already working
// and nothing is unresolved the call is a no-op.
func (r *FaultRepository) ResolveAllForLine(ctx context.Context, lineID int64, feedback string) (*models.Line, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin confirm-working: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var line models.Line
	selectQuery := fmt.Sprintf(`SELECT %s FROM lines WHERE id = $1 FOR UPDATE`, lineColumns)
	if err = tx.GetContext(ctx, &line, selectQuery, lineID); err != nil {
		return nil, 0, err
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE faults SET status = $1, feedback = $2, resolved_at = $3, assigned_at = COALESCE(assigned_at, $3), version = version + 1
		 WHERE line_id = $4 AND status <> $1`,
		models.FaultStatusResolved, feedback, now, lineID)
	if err != nil {
		return nil, 0, fmt.Errorf("force-resolve faults: %w", err)
	}
	closed64, err := result.RowsAffected()
	if err != nil {
		return nil, 0, fmt.Errorf("check force-resolve rows: %w", err)
	}
	closed := int(closed64)

	if closed == 0 && line.Status == models.LineStatusWorking {
		// Nothing to do; leave version and last_checked untouched.
		if err = tx.Commit(); err != nil {
			return nil, 0, fmt.Errorf("commit confirm-working: %w", err)
		}
		return &line, 0, nil
	}

	updateQuery := fmt.Sprintf(`UPDATE lines SET status = $1, last_checked = $2, version = version + 1 WHERE id = $3 RETURNING %s`, lineColumns)
	if err = tx.GetContext(ctx, &line, updateQuery, models.LineStatusWorking, now, lineID); err != nil {
		return nil, 0, fmt.Errorf("mark line working: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit confirm-working: %w", err)
	}
	return &line, closed, nil
}

// UpdateFeedback edits feedback on a resolved fault. Zero rows means the
// fault is missing or not yet resolved; callers disambiguate.
func (r *FaultRepository) UpdateFeedback(ctx context.Context, faultID int64, feedback string) (*models.Fault, error) {
	query := fmt.Sprintf(`UPDATE faults SET feedback = $1, version = version + 1 WHERE id = $2 AND status = $3 RETURNING %s`, faultColumns)
	var fault models.Fault
	if err := r.db.GetContext(ctx, &fault, query, feedback, faultID, models.FaultStatusResolved); err != nil {
		return nil, err
	}
	return &fault, nil
}

// Stats aggregates ticket counts and mean resolution latency.
func (r *FaultRepository) Stats(ctx context.Context) (*models.FaultStats, error) {
	const query = `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'open') AS open,
		COUNT(*) FILTER (WHERE status = 'assigned') AS assigned,
		COUNT(*) FILTER (WHERE status = 'resolved') AS resolved,
		COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - declared_at)) * 1000) FILTER (WHERE resolved_at IS NOT NULL), 0) AS avg_resolution_ms
	FROM faults`
	var stats models.FaultStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("fault stats: %w", err)
	}
	return &stats, nil
}
