package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/internal/interval"
	"github.com/noah-isme/booking-engine-api/internal/models"
	"github.com/noah-isme/booking-engine-api/internal/recurrence"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
	"github.com/noah-isme/booking-engine-api/pkg/export"
)

const calendarCachePrefix = "calendar"

// calendarCache is satisfied by *CacheService.
type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	Invalidate(ctx context.Context, pattern string)
}

// CalendarService merges reservations and expanded block occurrences into a
// resource calendar.
type CalendarService struct {
	reservations  reservationOverlapReader
	blocks        blockOccurrenceReader
	expander      *recurrence.Expander
	cache         calendarCache
	maxWindowDays int
	logger        *zap.Logger
}

// NewCalendarService constructs CalendarService. cache may be nil.
func NewCalendarService(reservations reservationOverlapReader, blocks blockOccurrenceReader, expander *recurrence.Expander, cache calendarCache, maxWindowDays int, logger *zap.Logger) *CalendarService {
	if expander == nil {
		expander = recurrence.NewExpander(time.UTC)
	}
	if maxWindowDays <= 0 {
		maxWindowDays = 366
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{reservations: reservations, blocks: blocks, expander: expander, cache: cache, maxWindowDays: maxWindowDays, logger: logger}
}

// ListOccurrences returns reservations holding a slot and block occurrences of
// the resource between the inclusive window dates, sorted by start. Hidden
// blocks are included only for administrative callers.
func (s *CalendarService) ListOccurrences(ctx context.Context, caller models.Caller, query models.OccurrenceQuery) ([]models.CalendarOccurrence, bool, error) {
	if err := caller.Validate(); err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	window, err := s.window(query)
	if err != nil {
		return nil, false, err
	}
	visibleOnly := !caller.Role.IsAdministrative()

	key := calendarKey(caller.Tenant, query.Resource, window, visibleOnly)
	var cached []models.CalendarOccurrence
	if s.cache != nil && s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	occurrences, err := s.collect(ctx, caller.Tenant, query.Resource, window, visibleOnly)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, occurrences)
	}
	return occurrences, false, nil
}

// Export renders the calendar through the requested export format.
func (s *CalendarService) Export(ctx context.Context, caller models.Caller, query models.OccurrenceQuery, format string) ([]byte, export.Renderer, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, nil, validationError(err, "unsupported export format")
	}
	occurrences, _, err := s.ListOccurrences(ctx, caller, query)
	if err != nil {
		return nil, nil, err
	}

	data := export.Dataset{Headers: []string{"start", "end", "source", "title", "status"}}
	for _, occ := range occurrences {
		status := ""
		if occ.Status != nil {
			status = string(*occ.Status)
		}
		data.Rows = append(data.Rows, map[string]string{
			"start":  occ.StartTime.Format("2006-01-02 15:04"),
			"end":    occ.EndTime.Format("2006-01-02 15:04"),
			"source": string(occ.Source),
			"title":  occ.Title,
			"status": status,
		})
	}
	title := fmt.Sprintf("%s %s, %s to %s", query.Resource.Type, query.Resource.ID,
		query.WindowStart.Format(recurrence.DateLayout), query.WindowEnd.Format(recurrence.DateLayout))
	body, err := renderer.Render(data, title)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar export")
	}
	return body, renderer, nil
}

// InvalidateResources drops cached calendars of refs for the tenant.
func (s *CalendarService) InvalidateResources(ctx context.Context, tenant models.TenantScope, refs []models.ResourceRef) {
	if s == nil || s.cache == nil {
		return
	}
	for _, ref := range refs {
		s.cache.Invalidate(ctx, fmt.Sprintf("%s:%s:%s:*", calendarCachePrefix, tenant, ref.Key()))
	}
}

func (s *CalendarService) window(query models.OccurrenceQuery) (interval.Interval, error) {
	if !query.Resource.Type.Schedulable() || query.Resource.ID == "" {
		return interval.Interval{}, appErrors.Clone(appErrors.ErrValidation, "resource must be a space or equipment item")
	}
	loc := s.expander.Location()
	start := midnight(query.WindowStart, loc)
	end := midnight(query.WindowEnd, loc).AddDate(0, 0, 1)
	if !start.Before(end) {
		return interval.Interval{}, appErrors.Clone(appErrors.ErrValidation, "window start must not be after window end")
	}
	if days := int(end.Sub(start).Hours() / 24); days > s.maxWindowDays {
		return interval.Interval{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window may span at most %d days", s.maxWindowDays))
	}
	return interval.Interval{Start: start, End: end}, nil
}

func (s *CalendarService) collect(ctx context.Context, tenant models.TenantScope, ref models.ResourceRef, window interval.Interval, visibleOnly bool) ([]models.CalendarOccurrence, error) {
	reservations, err := s.reservations.FindOverlapping(ctx, nil, tenant, ref, window, "")
	if err != nil {
		return nil, storageError(err, "failed to load reservations")
	}
	out := make([]models.CalendarOccurrence, 0, len(reservations))
	for _, r := range reservations {
		status := r.Status
		title := ""
		if r.Title != nil {
			title = *r.Title
		}
		out = append(out, models.CalendarOccurrence{
			Source: models.SourceReservation, SourceID: r.ID, Title: title, Resource: ref,
			StartTime: r.StartTime, EndTime: r.EndTime, Status: &status,
		})
	}

	// window.End is exclusive; the last calendar date is the day before.
	lastDay := window.End.AddDate(0, 0, -1)
	blocks, err := s.blocks.ListForResource(ctx, nil, tenant, ref, visibleOnly, window.Start, lastDay)
	if err != nil {
		return nil, storageError(err, "failed to load recurring blocks")
	}
	if len(blocks) > 0 {
		ids := make([]string, len(blocks))
		for i, b := range blocks {
			ids[i] = b.ID
		}
		rows, err := s.blocks.ListExceptions(ctx, nil, ids, window.Start, lastDay)
		if err != nil {
			return nil, storageError(err, "failed to load recurring block exceptions")
		}
		exceptions := groupExceptions(rows, s.logger)
		for _, block := range blocks {
			rule, err := block.Rule()
			if err != nil {
				s.logger.Warn("skipping malformed recurring block", zap.String("block_id", block.ID), zap.Error(err))
				continue
			}
			for occ := range s.expander.Occurrences(rule, window.Start, lastDay, exceptions[block.ID]) {
				out = append(out, models.CalendarOccurrence{
					Source: models.SourceBlock, SourceID: block.ID, Title: block.Title, Resource: ref,
					StartTime: occ.Interval.Start, EndTime: occ.Interval.End, Overridden: occ.Overridden,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func groupExceptions(rows []models.RecurringBlockException, logger *zap.Logger) map[string][]recurrence.Exception {
	out := make(map[string][]recurrence.Exception)
	for _, row := range rows {
		ex, err := row.ToRecurrence()
		if err != nil {
			logger.Warn("skipping malformed exception", zap.String("exception_id", row.ID), zap.Error(err))
			continue
		}
		out[row.BlockID] = append(out[row.BlockID], ex)
	}
	return out
}

func calendarKey(tenant models.TenantScope, ref models.ResourceRef, window interval.Interval, visibleOnly bool) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%t", calendarCachePrefix, tenant, ref.Key(),
		window.Start.Format(recurrence.DateLayout), window.End.Format(recurrence.DateLayout), visibleOnly)
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
