package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/atlasnet/linetrack-api/internal/models"
)

// LineTypeRepository persists the line-type catalog that line and request
// type codes resolve against.
type LineTypeRepository struct {
	db *sqlx.DB
}

// NewLineTypeRepository constructs the repository.
func NewLineTypeRepository(db *sqlx.DB) *LineTypeRepository {
	return &LineTypeRepository{db: db}
}

// Create registers a new type code.
func (r *LineTypeRepository) Create(ctx context.Context, lineType *models.LineType) error {
	const query = `INSERT INTO line_types (code, title) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, lineType.Code, lineType.Title).Scan(&lineType.ID); err != nil {
		return fmt.Errorf("create line type: %w", err)
	}
	return nil
}

// GetByCode resolves a type code against the registry.
func (r *LineTypeRepository) GetByCode(ctx context.Context, code string) (*models.LineType, error) {
	var lineType models.LineType
	if err := r.db.GetContext(ctx, &lineType, `SELECT id, code, title FROM line_types WHERE code = $1`, code); err != nil {
		return nil, err
	}
	return &lineType, nil
}

// List returns all registered line types.
func (r *LineTypeRepository) List(ctx context.Context) ([]models.LineType, error) {
	var lineTypes []models.LineType
	if err := r.db.SelectContext(ctx, &lineTypes, `SELECT id, code, title FROM line_types ORDER BY code`); err != nil {
		return nil, fmt.Errorf("list line types: %w", err)
	}
	return lineTypes, nil
}

// UpdateTitle renames a catalog entry.
func (r *LineTypeRepository) UpdateTitle(ctx context.Context, id int64, title string) (*models.LineType, error) {
	var lineType models.LineType
	if err := r.db.GetContext(ctx, &lineType, `UPDATE line_types SET title = $1 WHERE id = $2 RETURNING id, code, title`, title, id); err != nil {
		return nil, err
	}
	return &lineType, nil
}

// Delete removes a catalog entry.
func (r *LineTypeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM line_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete line type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check line type delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
