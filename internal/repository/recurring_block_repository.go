package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

const blockColumns = `b.id, b.tenant_id, b.title, b.description, b.days_of_week, to_char(b.start_time, 'HH24:MI') AS start_time,
to_char(b.end_time, 'HH24:MI') AS end_time, b.start_date, b.end_date, b.is_visible, b.created_by, b.created_at, b.updated_at`

const dateLayout = "2006-01-02"

// ExceptionUniqueConstraint allows one override per block and date.
const ExceptionUniqueConstraint = "recurring_block_exceptions_block_date_key"

const exceptionColumns = `id, block_id, exception_date, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, created_at`

// RecurringBlockRepository persists weekly block templates, their resources and exceptions.
type RecurringBlockRepository struct {
	db *sqlx.DB
}

// NewRecurringBlockRepository constructs the repository.
func NewRecurringBlockRepository(db *sqlx.DB) *RecurringBlockRepository {
	return &RecurringBlockRepository{db: db}
}

func (r *RecurringBlockRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts the template and its resource associations.
func (r *RecurringBlockRepository) Create(ctx context.Context, exec sqlx.ExtContext, block *models.RecurringBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	block.CreatedAt = now
	block.UpdatedAt = now

	const query = `INSERT INTO recurring_blocks (id, tenant_id, title, description, days_of_week, start_time, end_time, start_date, end_date, is_visible, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, query,
		block.ID, block.TenantID, block.Title, block.Description, block.DaysOfWeek, block.StartTime, block.EndTime,
		block.StartDate, block.EndDate, block.Visible, block.CreatedBy, block.CreatedAt, block.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert recurring block: %w", err)
	}
	return r.insertResources(ctx, target, block.ID, block.Resources)
}

// Update replaces the template fields and its resource associations wholesale.
func (r *RecurringBlockRepository) Update(ctx context.Context, exec sqlx.ExtContext, block *models.RecurringBlock) error {
	block.UpdatedAt = time.Now().UTC()
	const query = `UPDATE recurring_blocks SET title = $1, description = $2, days_of_week = $3, start_time = $4, end_time = $5,
start_date = $6, end_date = $7, is_visible = $8, updated_at = $9 WHERE tenant_id = $10 AND id = $11`
	target := r.exec(exec)
	res, err := target.ExecContext(ctx, query,
		block.Title, block.Description, block.DaysOfWeek, block.StartTime, block.EndTime,
		block.StartDate, block.EndDate, block.Visible, block.UpdatedAt, block.TenantID, block.ID,
	)
	if err != nil {
		return fmt.Errorf("update recurring block: %w", err)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("update recurring block: %w", sql.ErrNoRows)
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM recurring_block_resources WHERE block_id = $1`, block.ID); err != nil {
		return fmt.Errorf("clear recurring block resources: %w", err)
	}
	return r.insertResources(ctx, target, block.ID, block.Resources)
}

// Delete removes a block together with its exceptions and associations.
func (r *RecurringBlockRepository) Delete(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (bool, error) {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM recurring_block_exceptions WHERE block_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete recurring block exceptions: %w", err)
	}
	if _, err := target.ExecContext(ctx, `DELETE FROM recurring_block_resources WHERE block_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete recurring block resources: %w", err)
	}
	res, err := target.ExecContext(ctx, `DELETE FROM recurring_blocks WHERE tenant_id = $1 AND id = $2`, tenant.String(), id)
	if err != nil {
		return false, fmt.Errorf("delete recurring block: %w", err)
	}
	return affectedOne(res)
}

// FindByID loads a block with its resources.
func (r *RecurringBlockRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.RecurringBlock, error) {
	target := r.exec(exec)
	query := `SELECT ` + blockColumns + ` FROM recurring_blocks b WHERE b.tenant_id = $1 AND b.id = $2`
	var block models.RecurringBlock
	if err := sqlx.GetContext(ctx, target, &block, query, tenant.String(), id); err != nil {
		return nil, fmt.Errorf("get recurring block: %w", err)
	}
	blocks := []models.RecurringBlock{block}
	if err := r.attachResources(ctx, target, blocks); err != nil {
		return nil, err
	}
	return &blocks[0], nil
}

// List returns blocks for the tenant, optionally narrowed to a resource or to visible blocks.
func (r *RecurringBlockRepository) List(ctx context.Context, tenant models.TenantScope, filter models.RecurringBlockFilter) ([]models.RecurringBlock, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + blockColumns + ` FROM recurring_blocks b WHERE b.tenant_id = $1`)
	args := []interface{}{tenant.String()}
	if filter.VisibleOnly {
		query.WriteString(` AND b.is_visible = TRUE`)
	}
	if filter.Resource != nil {
		args = append(args, filter.Resource.Type, filter.Resource.ID)
		fmt.Fprintf(&query, ` AND EXISTS (SELECT 1 FROM recurring_block_resources br WHERE br.block_id = b.id AND br.resource_type = $%d AND br.resource_id = $%d)`, len(args)-1, len(args))
	}
	query.WriteString(` ORDER BY b.start_date ASC, b.title ASC`)

	var blocks []models.RecurringBlock
	if err := r.db.SelectContext(ctx, &blocks, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list recurring blocks: %w", err)
	}
	if err := r.attachResources(ctx, r.db, blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// ListForResource returns blocks attached to ref whose validity intersects [from, to].
func (r *RecurringBlockRepository) ListForResource(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef, visibleOnly bool, from, to time.Time) ([]models.RecurringBlock, error) {
	query := `SELECT ` + blockColumns + `
FROM recurring_blocks b
JOIN recurring_block_resources br ON br.block_id = b.id
WHERE b.tenant_id = $1 AND br.resource_type = $2 AND br.resource_id = $3
AND b.start_date <= $4 AND b.end_date >= $5`
	if visibleOnly {
		query += ` AND b.is_visible = TRUE`
	}
	query += ` ORDER BY b.start_date ASC`

	var blocks []models.RecurringBlock
	if err := sqlx.SelectContext(ctx, r.exec(exec), &blocks, query, tenant.String(), ref.Type, ref.ID, to.Format(dateLayout), from.Format(dateLayout)); err != nil {
		return nil, fmt.Errorf("list recurring blocks for resource: %w", err)
	}
	return blocks, nil
}

// CreateException inserts a per-date override.
func (r *RecurringBlockRepository) CreateException(ctx context.Context, exec sqlx.ExtContext, ex *models.RecurringBlockException) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	ex.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO recurring_block_exceptions (id, block_id, exception_date, start_time, end_time, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.exec(exec).ExecContext(ctx, query, ex.ID, ex.BlockID, ex.ExceptionDate, ex.StartTime, ex.EndTime, ex.CreatedAt); err != nil {
		return fmt.Errorf("insert recurring block exception: %w", err)
	}
	return nil
}

// FindException loads an exception scoped to the tenant through its parent block.
func (r *RecurringBlockRepository) FindException(ctx context.Context, tenant models.TenantScope, id string) (*models.RecurringBlockException, error) {
	const query = `SELECT e.id, e.block_id, e.exception_date, to_char(e.start_time, 'HH24:MI') AS start_time, to_char(e.end_time, 'HH24:MI') AS end_time, e.created_at
FROM recurring_block_exceptions e JOIN recurring_blocks b ON b.id = e.block_id
WHERE b.tenant_id = $1 AND e.id = $2`
	var ex models.RecurringBlockException
	if err := r.db.GetContext(ctx, &ex, query, tenant.String(), id); err != nil {
		return nil, fmt.Errorf("get recurring block exception: %w", err)
	}
	return &ex, nil
}

// DeleteException removes one override.
func (r *RecurringBlockRepository) DeleteException(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM recurring_block_exceptions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete recurring block exception: %w", err)
	}
	return affectedOne(res)
}

// ListExceptions returns overrides for blockIDs dated within [from, to].
func (r *RecurringBlockRepository) ListExceptions(ctx context.Context, exec sqlx.ExtContext, blockIDs []string, from, to time.Time) ([]models.RecurringBlockException, error) {
	if len(blockIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + exceptionColumns + ` FROM recurring_block_exceptions
WHERE block_id = ANY($1) AND exception_date BETWEEN $2 AND $3 ORDER BY exception_date ASC`
	var items []models.RecurringBlockException
	if err := sqlx.SelectContext(ctx, r.exec(exec), &items, query, pq.Array(blockIDs), from.Format(dateLayout), to.Format(dateLayout)); err != nil {
		return nil, fmt.Errorf("list recurring block exceptions: %w", err)
	}
	return items, nil
}

func (r *RecurringBlockRepository) insertResources(ctx context.Context, exec sqlx.ExtContext, blockID string, refs []models.ResourceRef) error {
	const query = `INSERT INTO recurring_block_resources (block_id, resource_type, resource_id) VALUES ($1, $2, $3)`
	for _, ref := range refs {
		if _, err := exec.ExecContext(ctx, query, blockID, ref.Type, ref.ID); err != nil {
			return fmt.Errorf("insert recurring block resource: %w", err)
		}
	}
	return nil
}

type blockResourceRow struct {
	BlockID string `db:"block_id"`
	models.ResourceRef
}

func (r *RecurringBlockRepository) attachResources(ctx context.Context, exec sqlx.ExtContext, blocks []models.RecurringBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	ids := make([]string, len(blocks))
	index := make(map[string]int, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
		index[b.ID] = i
	}
	const query = `SELECT block_id, resource_type, resource_id FROM recurring_block_resources WHERE block_id = ANY($1) ORDER BY resource_type, resource_id`
	var rows []blockResourceRow
	if err := sqlx.SelectContext(ctx, exec, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("list recurring block resources: %w", err)
	}
	for _, row := range rows {
		if i, ok := index[row.BlockID]; ok {
			blocks[i].Resources = append(blocks[i].Resources, row.ResourceRef)
		}
	}
	return nil
}
