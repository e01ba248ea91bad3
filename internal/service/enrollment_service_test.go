package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
)

type fakeWorkshops struct {
	items map[string]models.Workshop
}

func (f *fakeWorkshops) LockByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Workshop, error) {
	w, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("lock workshop: %w", sql.ErrNoRows)
	}
	return &w, nil
}

type fakeInscriptions struct {
	mu      sync.Mutex
	rows    []models.Inscription
	ends    map[string]*time.Time
	nextID  int
	created int
}

func (f *fakeInscriptions) Exists(ctx context.Context, exec sqlx.ExtContext, workshopID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.WorkshopID == workshopID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInscriptions) CountSeats(ctx context.Context, exec sqlx.ExtContext, workshopID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.WorkshopID == workshopID && (r.Status == models.InscriptionPending || r.Status == models.InscriptionApproved) {
			n++
		}
	}
	return n, nil
}

func (f *fakeInscriptions) CountActive(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, userID string, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		switch r.Status {
		case models.InscriptionPending:
			n++
		case models.InscriptionApproved:
			if end := f.ends[r.WorkshopID]; end == nil || end.After(now) {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeInscriptions) CountExtraordinary(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.UserID == userID && r.Status == models.InscriptionPendingExtraordinary {
			n++
		}
	}
	return n, nil
}

func (f *fakeInscriptions) Create(ctx context.Context, exec sqlx.ExtContext, ins *models.Inscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created++
	ins.ID = fmt.Sprintf("ins-%d", f.nextID)
	f.rows = append(f.rows, *ins)
	return nil
}

func (f *fakeInscriptions) FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Inscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			row := r
			return &row, nil
		}
	}
	return nil, fmt.Errorf("get inscription: %w", sql.ErrNoRows)
}

func (f *fakeInscriptions) Transition(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, from []models.InscriptionStatus, to models.InscriptionStatus, reviewer string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID != id {
			continue
		}
		for _, s := range from {
			if f.rows[i].Status == s {
				f.rows[i].Status = to
				f.rows[i].ReviewedBy = &reviewer
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

type fakeSettings struct {
	values map[string]int
}

func (f *fakeSettings) GetInt(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, key string) (int, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func openWorkshop(id string, capacity int) models.Workshop {
	return models.Workshop{ID: id, TenantID: "tenant-1", Name: id, Capacity: capacity, InscriptionsOpen: true}
}

func newEnrollmentFixture(workshops ...models.Workshop) (*EnrollmentService, *fakeInscriptions, *fakeTx) {
	items := map[string]models.Workshop{}
	for _, w := range workshops {
		items[w.ID] = w
	}
	tx := &fakeTx{}
	inscriptions := &fakeInscriptions{ends: map[string]*time.Time{}}
	settings := &fakeSettings{values: map[string]int{}}
	svc := NewEnrollmentService(tx, &fakeWorkshops{items: items}, inscriptions, settings, nil, NewMetricsService(), EnrollmentConfig{ActiveLimit: 3, ExtraordinaryQuota: 1}, nil)
	return svc, inscriptions, tx
}

func actor(id string) models.Caller {
	return models.Caller{Tenant: "tenant-1", ActorID: id, Role: models.RoleUser}
}

func TestTryEnrollCapacityUnderConcurrency(t *testing.T) {
	const capacity = 10
	svc, inscriptions, _ := newEnrollmentFixture(openWorkshop("robotics", capacity))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, full := 0, 0
	for i := 0; i < capacity+5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.TryEnroll(context.Background(), actor(fmt.Sprintf("user-%d", i)), "robotics", models.EnrollRequest{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case appErrors.HasCode(err, appErrors.ErrCapacityReached.Code):
				full++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, 5, full)
	assert.Equal(t, capacity, inscriptions.created)
}

func TestTryEnrollUnlimitedCapacity(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(openWorkshop("chess", 0))
	for i := 0; i < 20; i++ {
		_, err := svc.TryEnroll(context.Background(), actor(fmt.Sprintf("user-%d", i)), "chess", models.EnrollRequest{})
		require.NoError(t, err)
	}
}

func TestTryEnrollRejectsDuplicate(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(openWorkshop("chess", 5))
	_, err := svc.TryEnroll(context.Background(), actor("user-1"), "chess", models.EnrollRequest{})
	require.NoError(t, err)

	_, err = svc.TryEnroll(context.Background(), actor("user-1"), "chess", models.EnrollRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAlreadyEnrolled.Code))
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestTryEnrollActiveLimitAndExtraordinaryPath(t *testing.T) {
	svc, inscriptions, _ := newEnrollmentFixture(
		openWorkshop("w1", 0), openWorkshop("w2", 0), openWorkshop("w3", 0), openWorkshop("w4", 0), openWorkshop("w5", 0),
	)
	ctx := context.Background()
	for _, id := range []string{"w1", "w2", "w3"} {
		_, err := svc.TryEnroll(ctx, actor("user-1"), id, models.EnrollRequest{})
		require.NoError(t, err)
	}

	_, err := svc.TryEnroll(ctx, actor("user-1"), "w4", models.EnrollRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrActiveLimitExceeded.Code))

	ins, err := svc.TryEnroll(ctx, actor("user-1"), "w4", models.EnrollRequest{WantsExtraordinary: true})
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionPendingExtraordinary, ins.Status)

	_, err = svc.TryEnroll(ctx, actor("user-1"), "w5", models.EnrollRequest{WantsExtraordinary: true})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrExtraordinaryQuotaExceeded.Code))
	assert.Equal(t, 4, inscriptions.created)
}

func TestTryEnrollFinishedWorkshopsDoNotCountAsActive(t *testing.T) {
	svc, inscriptions, _ := newEnrollmentFixture(openWorkshop("old", 0), openWorkshop("new", 0))
	past := time.Now().AddDate(0, -1, 0)
	inscriptions.ends["old"] = &past
	for i := 0; i < 3; i++ {
		inscriptions.rows = append(inscriptions.rows, models.Inscription{
			ID: fmt.Sprintf("old-%d", i), WorkshopID: "old", UserID: "user-1", Status: models.InscriptionApproved,
		})
	}

	ins, err := svc.TryEnroll(context.Background(), actor("user-1"), "new", models.EnrollRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionPending, ins.Status)
}

func TestTryEnrollTenantQuotaOverridesDefault(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(openWorkshop("w1", 0), openWorkshop("w2", 0), openWorkshop("w3", 0), openWorkshop("w4", 0))
	svc.settings = &fakeSettings{values: map[string]int{"extraordinaryInscriptionLimit": 0}}
	ctx := context.Background()
	for _, id := range []string{"w1", "w2", "w3"} {
		_, err := svc.TryEnroll(ctx, actor("user-1"), id, models.EnrollRequest{})
		require.NoError(t, err)
	}

	_, err := svc.TryEnroll(ctx, actor("user-1"), "w4", models.EnrollRequest{WantsExtraordinary: true})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrExtraordinaryQuotaExceeded.Code))
}

func TestTryEnrollClosedOrMissingWorkshop(t *testing.T) {
	closed := openWorkshop("closed", 5)
	closed.InscriptionsOpen = false
	later := openWorkshop("later", 5)
	future := time.Now().Add(48 * time.Hour)
	later.InscriptionsStartDate = &future
	svc, _, _ := newEnrollmentFixture(closed, later)

	_, err := svc.TryEnroll(context.Background(), actor("user-1"), "closed", models.EnrollRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInscriptionsClosed.Code))

	_, err = svc.TryEnroll(context.Background(), actor("user-1"), "later", models.EnrollRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInscriptionsClosed.Code))

	_, err = svc.TryEnroll(context.Background(), actor("user-1"), "missing", models.EnrollRequest{})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}

func TestTryEnrollLocksActor(t *testing.T) {
	svc, _, tx := newEnrollmentFixture(openWorkshop("chess", 5))
	_, err := svc.TryEnroll(context.Background(), actor("user-1"), "chess", models.EnrollRequest{})
	require.NoError(t, err)
	require.Len(t, tx.locks, 1)
	assert.Equal(t, []string{"actor:tenant-1:user-1"}, tx.locks[0])
}

func TestInscriptionReview(t *testing.T) {
	svc, _, _ := newEnrollmentFixture(openWorkshop("chess", 1))
	ctx := context.Background()
	ins, err := svc.TryEnroll(ctx, actor("user-1"), "chess", models.EnrollRequest{})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, actor("user-2"), ins.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden.Code))

	approved, err := svc.Approve(ctx, admin, ins.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionApproved, approved.Status)

	_, err = svc.Reject(ctx, admin, ins.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrFinalized.Code))
}

func TestApproveExtraordinaryRechecksCapacity(t *testing.T) {
	svc, inscriptions, _ := newEnrollmentFixture(openWorkshop("chess", 1))
	inscriptions.rows = []models.Inscription{
		{ID: "seat", WorkshopID: "chess", UserID: "user-1", Status: models.InscriptionApproved},
		{ID: "extra", WorkshopID: "chess", UserID: "user-2", Status: models.InscriptionPendingExtraordinary},
	}

	_, err := svc.Approve(context.Background(), admin, "extra")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCapacityReached.Code))

	rejected, err := svc.Reject(context.Background(), admin, "extra")
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionRejected, rejected.Status)
}
