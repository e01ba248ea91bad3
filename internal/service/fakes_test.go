package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/interval"
	"github.com/noah-isme/booking-engine-api/internal/models"
)

// fakeTx serializes units of work the way advisory and row locks do.
type fakeTx struct {
	mu    sync.Mutex
	locks [][]string
	runs  int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return fn(nil)
}

func (f *fakeTx) Lock(ctx context.Context, exec sqlx.ExtContext, keys ...string) error {
	f.locks = append(f.locks, append([]string(nil), keys...))
	return nil
}

type fakeReservations struct {
	mu    sync.Mutex
	rows  []models.Reservation
	err   error
	calls int
}

func (f *fakeReservations) FindOverlapping(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef, iv interval.Interval, excludeID string) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Reservation
	for _, r := range f.rows {
		if r.TenantID != tenant.String() || r.ResourceRef != ref || r.ID == excludeID || !r.Status.Blocking() {
			continue
		}
		if interval.Overlaps(r.Interval(), iv) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeReservations) CreateBatch(ctx context.Context, exec sqlx.ExtContext, items []*models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range items {
		f.rows = append(f.rows, *item)
	}
	return nil
}

func (f *fakeReservations) ListBySubmission(ctx context.Context, tenant models.TenantScope, submissionID string) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.rows {
		if r.TenantID == tenant.String() && r.SubmissionID != nil && *r.SubmissionID == submissionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservations) FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.TenantID == tenant.String() && r.ID == id {
			row := r
			return &row, nil
		}
	}
	return nil, fmt.Errorf("get reservation: %w", sql.ErrNoRows)
}

func (f *fakeReservations) Review(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, status models.ReservationStatus, reason *string, reviewer string) (bool, error) {
	return f.update(tenant, id, func(r *models.Reservation) bool {
		if r.Status != models.ReservationPending {
			return false
		}
		r.Status = status
		r.RejectionReason = reason
		r.ReviewedBy = &reviewer
		return true
	})
}

func (f *fakeReservations) MarkCheckout(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, at time.Time) (bool, error) {
	return f.update(tenant, id, func(r *models.Reservation) bool {
		if r.Status != models.ReservationApproved || r.CheckoutAt != nil {
			return false
		}
		r.CheckoutAt = &at
		return true
	})
}

func (f *fakeReservations) MarkCheckin(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, at time.Time) (bool, error) {
	return f.update(tenant, id, func(r *models.Reservation) bool {
		if r.CheckoutAt == nil || r.CheckinAt != nil {
			return false
		}
		r.CheckinAt = &at
		return true
	})
}

func (f *fakeReservations) update(tenant models.TenantScope, id string, apply func(r *models.Reservation) bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].TenantID == tenant.String() && f.rows[i].ID == id {
			return apply(&f.rows[i]), nil
		}
	}
	return false, nil
}

type fakeResources struct {
	known       map[string]bool
	coupled     map[string][]models.ResourceRef
	responsible map[string]string
}

func newFakeResources(refs ...models.ResourceRef) *fakeResources {
	f := &fakeResources{known: map[string]bool{}, coupled: map[string][]models.ResourceRef{}, responsible: map[string]string{}}
	for _, ref := range refs {
		f.known[ref.Key()] = true
	}
	return f
}

func (f *fakeResources) Exists(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef) (bool, error) {
	return f.known[ref.Key()], nil
}

func (f *fakeResources) Coupled(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef) ([]models.ResourceRef, error) {
	return f.coupled[ref.Key()], nil
}

func (f *fakeResources) ResponsibleUser(ctx context.Context, tenant models.TenantScope, ref models.ResourceRef) (string, error) {
	return f.responsible[ref.Key()], nil
}

type fakeBlocks struct {
	mu         sync.Mutex
	blocks     map[string]models.RecurringBlock
	exceptions []models.RecurringBlockException
	nextID     int
}

func newFakeBlocks(blocks ...models.RecurringBlock) *fakeBlocks {
	f := &fakeBlocks{blocks: map[string]models.RecurringBlock{}}
	for _, b := range blocks {
		f.blocks[b.ID] = b
	}
	return f
}

func (f *fakeBlocks) ListForResource(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef, visibleOnly bool, from, to time.Time) ([]models.RecurringBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RecurringBlock
	for _, b := range f.blocks {
		if b.TenantID != tenant.String() || (visibleOnly && !b.Visible) {
			continue
		}
		if b.StartDate.After(to) || b.EndDate.Before(dayOf(from)) {
			continue
		}
		for _, r := range b.Resources {
			if r == ref {
				out = append(out, b)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBlocks) ListExceptions(ctx context.Context, exec sqlx.ExtContext, blockIDs []string, from, to time.Time) ([]models.RecurringBlockException, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range blockIDs {
		wanted[id] = true
	}
	var out []models.RecurringBlockException
	for _, ex := range f.exceptions {
		if wanted[ex.BlockID] {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (f *fakeBlocks) Create(ctx context.Context, exec sqlx.ExtContext, block *models.RecurringBlock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if block.ID == "" {
		f.nextID++
		block.ID = fmt.Sprintf("block-%d", f.nextID)
	}
	f.blocks[block.ID] = *block
	return nil
}

func (f *fakeBlocks) Update(ctx context.Context, exec sqlx.ExtContext, block *models.RecurringBlock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blocks[block.ID]; !ok {
		return fmt.Errorf("update recurring block: %w", sql.ErrNoRows)
	}
	f.blocks[block.ID] = *block
	return nil
}

func (f *fakeBlocks) Delete(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blocks[id]; !ok {
		return false, nil
	}
	delete(f.blocks, id)
	return true, nil
}

func (f *fakeBlocks) FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.RecurringBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[id]
	if !ok || b.TenantID != tenant.String() {
		return nil, fmt.Errorf("get recurring block: %w", sql.ErrNoRows)
	}
	return &b, nil
}

func (f *fakeBlocks) List(ctx context.Context, tenant models.TenantScope, filter models.RecurringBlockFilter) ([]models.RecurringBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RecurringBlock
	for _, b := range f.blocks {
		if b.TenantID == tenant.String() && (!filter.VisibleOnly || b.Visible) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBlocks) CreateException(ctx context.Context, exec sqlx.ExtContext, ex *models.RecurringBlockException) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ex.ID = fmt.Sprintf("exception-%d", f.nextID)
	f.exceptions = append(f.exceptions, *ex)
	return nil
}

func (f *fakeBlocks) FindException(ctx context.Context, tenant models.TenantScope, id string) (*models.RecurringBlockException, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.exceptions {
		if ex.ID == id {
			row := ex
			return &row, nil
		}
	}
	return nil, fmt.Errorf("get recurring block exception: %w", sql.ErrNoRows)
}

func (f *fakeBlocks) DeleteException(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ex := range f.exceptions {
		if ex.ID == id {
			f.exceptions = append(f.exceptions[:i], f.exceptions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeSequence struct {
	mu sync.Mutex
	n  int
}

func (f *fakeSequence) NextDisplayID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, actorID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return FormatDisplayID(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "ROJAS", f.n), nil
}

type recordingInvalidator struct {
	mu   sync.Mutex
	refs []models.ResourceRef
}

func (r *recordingInvalidator) InvalidateResources(ctx context.Context, tenant models.TenantScope, refs []models.ResourceRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = append(r.refs, refs...)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func at(day, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", day+" "+clock)
	if err != nil {
		panic(err)
	}
	return t
}

func mustDate(day string) time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return t
}
