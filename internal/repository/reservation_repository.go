package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/interval"
	"github.com/noah-isme/booking-engine-api/internal/models"
)

const reservationColumns = `id, tenant_id, user_id, resource_type, resource_id, start_time, end_time, status, title, notes,
rejection_reason, reviewed_by, submission_id, display_id, checkout_at, checkin_at, created_at, updated_at`

// ReservationRepository persists interval reservations.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindOverlapping returns PENDING or APPROVED reservations on ref whose interval overlaps iv.
// excludeID skips one reservation, used when re-checking an existing row.
func (r *ReservationRepository) FindOverlapping(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef, iv interval.Interval, excludeID string) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
FROM reservations
WHERE tenant_id = $1 AND resource_type = $2 AND resource_id = $3
AND status IN ('PENDING', 'APPROVED')
AND start_time < $4 AND $5 < end_time`
	args := []interface{}{tenant.String(), ref.Type, ref.ID, iv.End, iv.Start}
	if excludeID != "" {
		query += ` AND id <> $6`
		args = append(args, excludeID)
	}
	query += ` ORDER BY start_time ASC`

	var items []models.Reservation
	if err := sqlx.SelectContext(ctx, r.exec(exec), &items, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping reservations: %w", err)
	}
	return items, nil
}

// CreateBatch inserts every reservation using exec, which is expected to be a transaction.
func (r *ReservationRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, items []*models.Reservation) error {
	const query = `INSERT INTO reservations (id, tenant_id, user_id, resource_type, resource_id, start_time, end_time, status, title, notes, submission_id, display_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	now := time.Now().UTC()
	target := r.exec(exec)
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		if _, err := target.ExecContext(ctx, query,
			item.ID, item.TenantID, item.UserID, item.Type, item.ResourceRef.ID,
			item.StartTime, item.EndTime, item.Status, item.Title, item.Notes,
			item.SubmissionID, item.DisplayID, item.CreatedAt, item.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
	}
	return nil
}

// FindByID loads a reservation scoped to the tenant.
func (r *ReservationRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = $1 AND id = $2`
	var item models.Reservation
	if err := sqlx.GetContext(ctx, r.exec(exec), &item, query, tenant.String(), id); err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &item, nil
}

// ListBySubmission returns every item of a submission in creation order.
func (r *ReservationRepository) ListBySubmission(ctx context.Context, tenant models.TenantScope, submissionID string) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = $1 AND submission_id = $2 ORDER BY resource_type ASC, resource_id ASC`
	var items []models.Reservation
	if err := r.db.SelectContext(ctx, &items, query, tenant.String(), submissionID); err != nil {
		return nil, fmt.Errorf("list submission reservations: %w", err)
	}
	return items, nil
}

// Review moves a PENDING reservation to status. It returns false when the row
// was not PENDING any more, leaving it untouched.
func (r *ReservationRepository) Review(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, status models.ReservationStatus, reason *string, reviewer string) (bool, error) {
	const query = `UPDATE reservations SET status = $1, rejection_reason = $2, reviewed_by = $3, updated_at = $4
WHERE tenant_id = $5 AND id = $6 AND status = 'PENDING'`
	res, err := r.exec(exec).ExecContext(ctx, query, status, reason, reviewer, time.Now().UTC(), tenant.String(), id)
	if err != nil {
		return false, fmt.Errorf("review reservation: %w", err)
	}
	return affectedOne(res)
}

// MarkCheckout stamps the retrieval time on an approved reservation not yet checked out.
func (r *ReservationRepository) MarkCheckout(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, at time.Time) (bool, error) {
	const query = `UPDATE reservations SET checkout_at = $1, updated_at = $1
WHERE tenant_id = $2 AND id = $3 AND status = 'APPROVED' AND checkout_at IS NULL`
	res, err := r.exec(exec).ExecContext(ctx, query, at, tenant.String(), id)
	if err != nil {
		return false, fmt.Errorf("checkout reservation: %w", err)
	}
	return affectedOne(res)
}

// MarkCheckin stamps the return time on a checked-out reservation.
func (r *ReservationRepository) MarkCheckin(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, at time.Time) (bool, error) {
	const query = `UPDATE reservations SET checkin_at = $1, updated_at = $1
WHERE tenant_id = $2 AND id = $3 AND checkout_at IS NOT NULL AND checkin_at IS NULL`
	res, err := r.exec(exec).ExecContext(ctx, query, at, tenant.String(), id)
	if err != nil {
		return false, fmt.Errorf("checkin reservation: %w", err)
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
