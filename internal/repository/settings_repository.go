package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

// SettingExtraordinaryLimit is the system_settings key holding the extraordinary inscription quota.
const SettingExtraordinaryLimit = "extraordinaryInscriptionLimit"

// SettingsRepository reads per-tenant system settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetInt returns the integer setting and whether it was present and parseable.
func (r *SettingsRepository) GetInt(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, key string) (int, bool, error) {
	if exec == nil {
		exec = r.db
	}
	const query = `SELECT value FROM system_settings WHERE tenant_id = $1 AND key = $2`
	var raw string
	if err := sqlx.GetContext(ctx, exec, &raw, query, tenant.String(), key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get setting %s: %w", key, err)
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, nil
	}
	return value, true, nil
}
