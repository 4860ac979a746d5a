package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/atlasnet/linetrack-api/internal/models"
)

// Sentinel errors surfaced by lifecycle repositories. Services translate
// them into the HTTP error taxonomy.
var (
	ErrUnresolvedFaults   = errors.New("line has unresolved faults")
	ErrFaultNotOpen       = errors.New("fault is not open")
	ErrFaultResolved      = errors.New("fault is already resolved")
	ErrSubsidiaryMismatch = errors.New("fault subsidiary does not match line subsidiary")
	ErrRequestProcessed   = errors.New("line request already processed")
)

const lineColumns = `id, number, type, subsidiary_id, location, establishment_date, status, last_checked, in_fault_flow, version`

// LineRepository persists line records and their guarded status updates.
type LineRepository struct {
	db *sqlx.DB
}

// NewLineRepository constructs the repository.
func NewLineRepository(db *sqlx.DB) *LineRepository {
	return &LineRepository{db: db}
}

// Create inserts a new line row and fills in generated fields.
func (r *LineRepository) Create(ctx context.Context, line *models.Line) error {
	now := time.Now().UTC()
	if line.Status == "" {
		line.Status = models.LineStatusWorking
	}
	if line.EstablishmentDate.IsZero() {
		line.EstablishmentDate = now
	}
	if line.LastChecked.IsZero() {
		line.LastChecked = now
	}
	line.Version = 1
	const query = `INSERT INTO lines (number, type, subsidiary_id, location, establishment_date, status, last_checked, in_fault_flow, version)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		line.Number, line.Type, line.SubsidiaryID, line.Location,
		line.EstablishmentDate, line.Status, line.LastChecked, line.InFaultFlow, line.Version,
	).Scan(&line.ID); err != nil {
		return fmt.Errorf("create line: %w", err)
	}
	return nil
}

// GetByID fetches a line by identifier.
func (r *LineRepository) GetByID(ctx context.Context, id int64) (*models.Line, error) {
	query := fmt.Sprintf(`SELECT %s FROM lines WHERE id = $1`, lineColumns)
	var line models.Line
	if err := r.db.GetContext(ctx, &line, query, id); err != nil {
		return nil, err
	}
	return &line, nil
}

// List returns lines matching the filter (newest first).
func (r *LineRepository) List(ctx context.Context, filter models.LineFilter) ([]models.Line, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM lines`, lineColumns))

	conditions := make([]string, 0, 2)
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
	builder.WriteString(" ORDER BY id DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var lines []models.Line
	if err := r.db.SelectContext(ctx, &lines, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	return lines, nil
}

// SetStatusDirect applies the maintenance-direct status setter. The target
// state must already be vetted by the caller; the transaction re-reads the
// line and refuses working/archived targets while unresolved faults remain.
func (r *LineRepository) SetStatusDirect(ctx context.Context, id int64, status models.LineStatus) (*models.Line, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin line status transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var line models.Line
	selectQuery := fmt.Sprintf(`SELECT %s FROM lines WHERE id = $1 FOR UPDATE`, lineColumns)
	if err = tx.GetContext(ctx, &line, selectQuery, id); err != nil {
		return nil, err
	}

	if status == models.LineStatusWorking || status == models.LineStatusArchived {
		var unresolved int
		if err = tx.GetContext(ctx, &unresolved,
			`SELECT COUNT(*) FROM faults WHERE line_id = $1 AND status <> $2`, id, models.FaultStatusResolved); err != nil {
			return nil, fmt.Errorf("count unresolved faults: %w", err)
		}
		if unresolved > 0 {
			err = ErrUnresolvedFaults
			return nil, err
		}
	}

	now := time.Now().UTC()
	updateQuery := fmt.Sprintf(`UPDATE lines SET status = $1, last_checked = $2, version = version + 1 WHERE id = $3 RETURNING %s`, lineColumns)
	if err = tx.GetContext(ctx, &line, updateQuery, status, now, id); err != nil {
		return nil, fmt.Errorf("update line status: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit line status: %w", err)
	}
	return &line, nil
}

// TouchLastChecked records a health check without changing status.
func (r *LineRepository) TouchLastChecked(ctx context.Context, id int64, checkedAt time.Time) (*models.Line, error) {
	query := fmt.Sprintf(`UPDATE lines SET last_checked = $1, version = version + 1 WHERE id = $2 RETURNING %s`, lineColumns)
	var line models.Line
	if err := r.db.GetContext(ctx, &line, query, checkedAt.UTC(), id); err != nil {
		return nil, err
	}
	return &line, nil
}

// ToggleFaultFlow flips subsidiary-facing fault reporting for the line.
func (r *LineRepository) ToggleFaultFlow(ctx context.Context, id int64) (*models.Line, error) {
	query := fmt.Sprintf(`UPDATE lines SET in_fault_flow = NOT in_fault_flow, version = version + 1 WHERE id = $1 RETURNING %s`, lineColumns)
	var line models.Line
	if err := r.db.GetContext(ctx, &line, query, id); err != nil {
		return nil, err
	}
	return &line, nil
}

// Delete removes a line unless unresolved faults still reference it.
func (r *LineRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin line delete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int64
	if err = tx.GetContext(ctx, &exists, `SELECT id FROM lines WHERE id = $1 FOR UPDATE`, id); err != nil {
		return err
	}

	var unresolved int
	if err = tx.GetContext(ctx, &unresolved,
		`SELECT COUNT(*) FROM faults WHERE line_id = $1 AND status <> $2`, id, models.FaultStatusResolved); err != nil {
		return fmt.Errorf("count unresolved faults: %w", err)
	}
	if unresolved > 0 {
		err = ErrUnresolvedFaults
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM lines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete line: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit line delete: %w", err)
	}
	return nil
}
