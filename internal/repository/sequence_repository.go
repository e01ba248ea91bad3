package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

// SequenceRepository owns the per-tenant per-day reservation counters.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next atomically increments and returns the counter for (tenant, day). The
// row lock taken by the upsert is held until exec commits.
func (r *SequenceRepository) Next(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, day time.Time) (int, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `INSERT INTO reservation_counters (tenant_id, counter_date, last_number)
VALUES ($1, $2, 1)
ON CONFLICT (tenant_id, counter_date) DO UPDATE SET last_number = reservation_counters.last_number + 1
RETURNING last_number`
	var next int
	if err := sqlx.GetContext(ctx, exec, &next, query, tenant.String(), day.Format(dateLayout)); err != nil {
		return 0, fmt.Errorf("increment reservation counter: %w", err)
	}
	return next, nil
}
