package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/atlasnet/linetrack-api/internal/models"
)

const lineRequestColumns = `id, subsidiary_id, requested_type, assigned_number, admin_id, status, rejection_reason, created_at, responded_at, version`

// Location placeholder for lines provisioned from a request; the
// subsidiary fills it in afterwards.
const provisionedLineLocation = "To be updated"

// LineRequestRepository persists provisioning requests. Approval creates
// the line and flips the request in one transaction so a request can
// never be approved twice or approved without its line.
type LineRequestRepository struct {
	db *sqlx.DB
}

// NewLineRequestRepository constructs the repository.
func NewLineRequestRepository(db *sqlx.DB) *LineRequestRepository {
	return &LineRequestRepository{db: db}
}

// Create inserts a pending request.
func (r *LineRequestRepository) Create(ctx context.Context, request *models.LineRequest) error {
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	request.Status = models.LineRequestStatusPending
	request.Version = 1
	const query = `INSERT INTO line_requests (subsidiary_id, requested_type, admin_id, status, created_at, version)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		request.SubsidiaryID, request.RequestedType, request.AdminID,
		request.Status, request.CreatedAt, request.Version,
	).Scan(&request.ID); err != nil {
		return fmt.Errorf("create line request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *LineRequestRepository) GetByID(ctx context.Context, id int64) (*models.LineRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM line_requests WHERE id = $1`, lineRequestColumns)
	var request models.LineRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter (newest first).
func (r *LineRequestRepository) List(ctx context.Context, filter models.LineRequestFilter) ([]models.LineRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM line_requests`, lineRequestColumns))

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
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.LineRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list line requests: %w", err)
	}
	return requests, nil
}

// Approve provisions the line and marks the request approved in one
// transaction. The request row is locked and its state re-read so a
// concurrent or repeated approval fails instead of creating a second line.
func (r *LineRequestRepository) Approve(ctx context.Context, id int64, assignedNumber string) (*models.LineRequest, *models.Line, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin request approval: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var request models.LineRequest
	selectQuery := fmt.Sprintf(`SELECT %s FROM line_requests WHERE id = $1 FOR UPDATE`, lineRequestColumns)
	if err = tx.GetContext(ctx, &request, selectQuery, id); err != nil {
		return nil, nil, err
	}
	if request.Status != models.LineRequestStatusPending {
		err = ErrRequestProcessed
		return nil, nil, err
	}

	now := time.Now().UTC()
	line := models.Line{
		Number:            assignedNumber,
		Type:              request.RequestedType,
		SubsidiaryID:      request.SubsidiaryID,
		Location:          provisionedLineLocation,
		EstablishmentDate: now,
		Status:            models.LineStatusWorking,
		LastChecked:       now,
		InFaultFlow:       true,
		Version:           1,
	}
	const insertQuery = `INSERT INTO lines (number, type, subsidiary_id, location, establishment_date, status, last_checked, in_fault_flow, version)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insertQuery,
		line.Number, line.Type, line.SubsidiaryID, line.Location,
		line.EstablishmentDate, line.Status, line.LastChecked, line.InFaultFlow, line.Version,
	).Scan(&line.ID); err != nil {
		return nil, nil, fmt.Errorf("provision line: %w", err)
	}

	updateQuery := fmt.Sprintf(`UPDATE line_requests SET status = $1, assigned_number = $2, responded_at = $3, version = version + 1 WHERE id = $4 AND status = $5 RETURNING %s`, lineRequestColumns)
	if err = tx.GetContext(ctx, &request, updateQuery,
		models.LineRequestStatusApproved, assignedNumber, now, id, models.LineRequestStatusPending); err != nil {
		if err == sql.ErrNoRows {
			err = ErrRequestProcessed
		}
		return nil, nil, fmt.Errorf("approve line request: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit request approval: %w", err)
	}
	return &request, &line, nil
}

// Reject marks a pending request rejected with the given reason. Zero rows
// means the request is missing or already processed; callers disambiguate.
func (r *LineRequestRepository) Reject(ctx context.Context, id int64, reason string) (*models.LineRequest, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`UPDATE line_requests SET status = $1, rejection_reason = $2, responded_at = $3, version = version + 1 WHERE id = $4 AND status = $5 RETURNING %s`, lineRequestColumns)
	var request models.LineRequest
	if err := r.db.GetContext(ctx, &request, query,
		models.LineRequestStatusRejected, reason, now, id, models.LineRequestStatusPending); err != nil {
		return nil, err
	}
	return &request, nil
}

// Delete removes a request record.
func (r *LineRequestRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM line_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete line request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check line request delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
