package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/atlasnet/linetrack-api/internal/models"
)

// UserRepository reads actor records; account management lives elsewhere.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID fetches a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT id, name, role, subsidiary_id FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users, optionally filtered by role.
func (r *UserRepository) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	if role != "" {
		if err := r.db.SelectContext(ctx, &users, `SELECT id, name, role, subsidiary_id FROM users WHERE role = $1 ORDER BY name`, role); err != nil {
			return nil, fmt.Errorf("list users by role: %w", err)
		}
		return users, nil
	}
	if err := r.db.SelectContext(ctx, &users, `SELECT id, name, role, subsidiary_id FROM users ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
