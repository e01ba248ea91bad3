package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

const workshopColumns = `id, tenant_id, name, capacity, start_date, end_date, inscriptions_open, inscriptions_start_date`

// WorkshopRepository reads workshop rows.
type WorkshopRepository struct {
	db *sqlx.DB
}

// NewWorkshopRepository constructs the repository.
func NewWorkshopRepository(db *sqlx.DB) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

// LockByID loads a workshop and holds its row lock until exec commits. Every
// seat-changing unit of work goes through this lock so seat counts are serialised per workshop.
func (r *WorkshopRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	var w models.Workshop
	if err := sqlx.GetContext(ctx, exec, &w, query, tenant.String(), id); err != nil {
		return nil, fmt.Errorf("lock workshop: %w", err)
	}
	return &w, nil
}
