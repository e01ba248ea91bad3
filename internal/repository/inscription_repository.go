package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

// InscriptionUniqueConstraint guards one inscription per (workshop, user).
const InscriptionUniqueConstraint = "inscriptions_workshop_user_key"

const inscriptionColumns = `id, tenant_id, workshop_id, user_id, status, reviewed_by, created_at, updated_at`

// InscriptionRepository persists workshop inscriptions and answers the capacity counts.
type InscriptionRepository struct {
	db *sqlx.DB
}

// NewInscriptionRepository constructs the repository.
func NewInscriptionRepository(db *sqlx.DB) *InscriptionRepository {
	return &InscriptionRepository{db: db}
}

func (r *InscriptionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Exists reports whether the user already holds an inscription for the workshop.
func (r *InscriptionRepository) Exists(ctx context.Context, exec sqlx.ExtContext, workshopID, userID string) (bool, error) {
	const query = `SELECT 1 FROM inscriptions WHERE workshop_id = $1 AND user_id = $2 LIMIT 1`
	var marker int
	if err := sqlx.GetContext(ctx, r.exec(exec), &marker, query, workshopID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check inscription: %w", err)
	}
	return true, nil
}

// CountSeats counts inscriptions holding a seat (PENDING or APPROVED).
func (r *InscriptionRepository) CountSeats(ctx context.Context, exec sqlx.ExtContext, workshopID string) (int, error) {
	const query = `SELECT COUNT(*) FROM inscriptions WHERE workshop_id = $1 AND status IN ('PENDING', 'APPROVED')`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, workshopID); err != nil {
		return 0, fmt.Errorf("count workshop seats: %w", err)
	}
	return count, nil
}

// CountActive counts the user's active inscriptions: PENDING, or APPROVED for a
// workshop whose end date is unset or after now.
func (r *InscriptionRepository) CountActive(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, userID string, now time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM inscriptions i JOIN workshops w ON w.id = i.workshop_id
WHERE i.tenant_id = $1 AND i.user_id = $2
AND (i.status = 'PENDING' OR (i.status = 'APPROVED' AND (w.end_date IS NULL OR w.end_date > $3)))`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, tenant.String(), userID, now); err != nil {
		return 0, fmt.Errorf("count active inscriptions: %w", err)
	}
	return count, nil
}

// CountExtraordinary counts the user's PENDING_EXTRAORDINARY inscriptions.
func (r *InscriptionRepository) CountExtraordinary(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM inscriptions WHERE tenant_id = $1 AND user_id = $2 AND status = 'PENDING_EXTRAORDINARY'`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, tenant.String(), userID); err != nil {
		return 0, fmt.Errorf("count extraordinary inscriptions: %w", err)
	}
	return count, nil
}

// Create inserts an inscription.
func (r *InscriptionRepository) Create(ctx context.Context, exec sqlx.ExtContext, ins *models.Inscription) error {
	if ins.ID == "" {
		ins.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	ins.CreatedAt = now
	ins.UpdatedAt = now
	const query = `INSERT INTO inscriptions (id, tenant_id, workshop_id, user_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.exec(exec).ExecContext(ctx, query, ins.ID, ins.TenantID, ins.WorkshopID, ins.UserID, ins.Status, ins.CreatedAt, ins.UpdatedAt); err != nil {
		return fmt.Errorf("insert inscription: %w", err)
	}
	return nil
}

// FindByID loads an inscription scoped to the tenant.
func (r *InscriptionRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Inscription, error) {
	query := `SELECT ` + inscriptionColumns + ` FROM inscriptions WHERE tenant_id = $1 AND id = $2`
	var ins models.Inscription
	if err := sqlx.GetContext(ctx, r.exec(exec), &ins, query, tenant.String(), id); err != nil {
		return nil, fmt.Errorf("get inscription: %w", err)
	}
	return &ins, nil
}

// Transition moves the inscription to status when its current status is one of from.
// It returns false when the row was in none of them.
func (r *InscriptionRepository) Transition(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, from []models.InscriptionStatus, to models.InscriptionStatus, reviewer string) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	const query = `UPDATE inscriptions SET status = $1, reviewed_by = $2, updated_at = $3
WHERE tenant_id = $4 AND id = $5 AND status = ANY($6)`
	res, err := r.exec(exec).ExecContext(ctx, query, to, reviewer, time.Now().UTC(), tenant.String(), id, pq.Array(allowed))
	if err != nil {
		return false, fmt.Errorf("transition inscription: %w", err)
	}
	return affectedOne(res)
}
