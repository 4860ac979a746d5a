package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/atlasnet/linetrack-api/internal/models"
)

// SubsidiaryRepository persists subsidiary records.
type SubsidiaryRepository struct {
	db *sqlx.DB
}

// NewSubsidiaryRepository constructs the repository.
func NewSubsidiaryRepository(db *sqlx.DB) *SubsidiaryRepository {
	return &SubsidiaryRepository{db: db}
}

// Create registers an organizational unit.
func (r *SubsidiaryRepository) Create(ctx context.Context, subsidiary *models.Subsidiary) error {
	const query = `INSERT INTO subsidiaries (name) VALUES ($1) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, subsidiary.Name).Scan(&subsidiary.ID); err != nil {
		return fmt.Errorf("create subsidiary: %w", err)
	}
	return nil
}

// GetByID fetches a subsidiary by identifier.
func (r *SubsidiaryRepository) GetByID(ctx context.Context, id int64) (*models.Subsidiary, error) {
	var subsidiary models.Subsidiary
	if err := r.db.GetContext(ctx, &subsidiary, `SELECT id, name FROM subsidiaries WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &subsidiary, nil
}

// List returns all subsidiaries.
func (r *SubsidiaryRepository) List(ctx context.Context) ([]models.Subsidiary, error) {
	var subsidiaries []models.Subsidiary
	if err := r.db.SelectContext(ctx, &subsidiaries, `SELECT id, name FROM subsidiaries ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list subsidiaries: %w", err)
	}
	return subsidiaries, nil
}
