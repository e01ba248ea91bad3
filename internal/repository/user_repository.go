package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

// UserRepository reads users of a tenant.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads a user scoped to the tenant.
func (r *UserRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.User, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `SELECT id, tenant_id, name, last_name, email, role FROM users WHERE tenant_id = $1 AND id = $2`
	var user models.User
	if err := sqlx.GetContext(ctx, exec, &user, query, tenant.String(), id); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
