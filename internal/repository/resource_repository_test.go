package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

func TestResourceRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)
	tenant := models.TenantScope("tenant-1")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM spaces WHERE tenant_id = $1 AND id = $2")).
		WithArgs("tenant-1", "lab").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM equipment WHERE tenant_id = $1 AND id = $2")).
		WithArgs("tenant-1", "ghost").
		WillReturnError(sql.ErrNoRows)

	ok, err := repo.Exists(context.Background(), nil, tenant, models.ResourceRef{Type: models.ResourceSpace, ID: "lab"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(context.Background(), nil, tenant, models.ResourceRef{Type: models.ResourceEquipment, ID: "ghost"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryCoupled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)
	tenant := models.TenantScope("tenant-1")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM equipment WHERE tenant_id = $1 AND fixed_to_space_id = $2")).
		WithArgs("tenant-1", "lab").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("projector"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT fixed_to_space_id FROM equipment WHERE tenant_id = $1 AND id = $2")).
		WithArgs("tenant-1", "speakers").
		WillReturnRows(sqlmock.NewRows([]string{"fixed_to_space_id"}).AddRow(nil))

	refs, err := repo.Coupled(context.Background(), nil, tenant, models.ResourceRef{Type: models.ResourceSpace, ID: "lab"})
	require.NoError(t, err)
	assert.Equal(t, []models.ResourceRef{{Type: models.ResourceEquipment, ID: "projector"}}, refs)

	refs, err = repo.Coupled(context.Background(), nil, tenant, models.ResourceRef{Type: models.ResourceEquipment, ID: "speakers"})
	require.NoError(t, err)
	assert.Empty(t, refs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest map[string]string

	assert.Error(t, repo.Get(context.Background(), "calendar:x", &dest))
	assert.NoError(t, repo.Set(context.Background(), "calendar:x", map[string]string{"a": "b"}, 0))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "calendar:*"))
	assert.NoError(t, repo.Close())
}
