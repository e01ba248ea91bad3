package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

// ResourceRepository answers questions about spaces, equipment and workshops
// as bookable resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func (r *ResourceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

func tableFor(t models.ResourceType) (string, error) {
	switch t {
	case models.ResourceSpace:
		return "spaces", nil
	case models.ResourceEquipment:
		return "equipment", nil
	case models.ResourceWorkshop:
		return "workshops", nil
	default:
		return "", fmt.Errorf("unknown resource type %q", t)
	}
}

// Exists reports whether ref names a resource of the tenant.
func (r *ResourceRepository) Exists(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef) (bool, error) {
	table, err := tableFor(ref.Type)
	if err != nil {
		return false, err
	}
	query := `SELECT 1 FROM ` + table + ` WHERE tenant_id = $1 AND id = $2`
	var marker int
	if err := sqlx.GetContext(ctx, r.exec(exec), &marker, query, tenant.String(), ref.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check resource %s: %w", ref.Key(), err)
	}
	return true, nil
}

// Coupled returns the resources physically bound to ref: the equipment fixed to
// a space, or the space an equipment item is fixed to.
func (r *ResourceRepository) Coupled(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef) ([]models.ResourceRef, error) {
	target := r.exec(exec)
	switch ref.Type {
	case models.ResourceSpace:
		const query = `SELECT id FROM equipment WHERE tenant_id = $1 AND fixed_to_space_id = $2 ORDER BY id`
		var ids []string
		if err := sqlx.SelectContext(ctx, target, &ids, query, tenant.String(), ref.ID); err != nil {
			return nil, fmt.Errorf("list fixed equipment: %w", err)
		}
		out := make([]models.ResourceRef, 0, len(ids))
		for _, id := range ids {
			out = append(out, models.ResourceRef{Type: models.ResourceEquipment, ID: id})
		}
		return out, nil
	case models.ResourceEquipment:
		const query = `SELECT fixed_to_space_id FROM equipment WHERE tenant_id = $1 AND id = $2`
		var spaceID sql.NullString
		if err := sqlx.GetContext(ctx, target, &spaceID, query, tenant.String(), ref.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("get equipment space: %w", err)
		}
		if !spaceID.Valid || spaceID.String == "" {
			return nil, nil
		}
		return []models.ResourceRef{{Type: models.ResourceSpace, ID: spaceID.String}}, nil
	default:
		return nil, nil
	}
}

// ResponsibleUser returns the user in charge of reviewing bookings of ref, if any.
func (r *ResourceRepository) ResponsibleUser(ctx context.Context, tenant models.TenantScope, ref models.ResourceRef) (string, error) {
	if !ref.Type.Schedulable() {
		return "", nil
	}
	table, err := tableFor(ref.Type)
	if err != nil {
		return "", err
	}
	query := `SELECT responsible_user_id FROM ` + table + ` WHERE tenant_id = $1 AND id = $2`
	var userID sql.NullString
	if err := r.db.GetContext(ctx, &userID, query, tenant.String(), ref.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get responsible user: %w", err)
	}
	return userID.String, nil
}
