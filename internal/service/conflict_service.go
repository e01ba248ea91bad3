package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/internal/interval"
	"github.com/noah-isme/booking-engine-api/internal/models"
	"github.com/noah-isme/booking-engine-api/internal/recurrence"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
)

type reservationOverlapReader interface {
	FindOverlapping(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef, iv interval.Interval, excludeID string) ([]models.Reservation, error)
}

type blockOccurrenceReader interface {
	ListForResource(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef, visibleOnly bool, from, to time.Time) ([]models.RecurringBlock, error)
	ListExceptions(ctx context.Context, exec sqlx.ExtContext, blockIDs []string, from, to time.Time) ([]models.RecurringBlockException, error)
}

// ConflictService decides whether a candidate interval clashes with existing
// reservations or recurring-block occurrences of a resource.
type ConflictService struct {
	reservations reservationOverlapReader
	blocks       blockOccurrenceReader
	expander     *recurrence.Expander
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewConflictService constructs ConflictService.
func NewConflictService(reservations reservationOverlapReader, blocks blockOccurrenceReader, expander *recurrence.Expander, metrics *MetricsService, logger *zap.Logger) *ConflictService {
	if expander == nil {
		expander = recurrence.NewExpander(time.UTC)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{reservations: reservations, blocks: blocks, expander: expander, metrics: metrics, logger: logger}
}

// Check reports every PENDING/APPROVED reservation and visible block occurrence
// on ref overlapping candidate. Conflicts are results, not errors; only storage
// failures are returned as errors. exec lets callers run the check inside their transaction.
func (s *ConflictService) Check(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef, candidate interval.Interval, excludeID string) (models.ConflictResult, error) {
	var result models.ConflictResult
	if candidate.IsEmpty() {
		return result, nil
	}
	loc := s.expander.Location()
	candidate = candidate.In(loc)

	existing, err := s.reservations.FindOverlapping(ctx, exec, tenant, ref, candidate, excludeID)
	if err != nil {
		return result, storageError(err, "failed to load reservations")
	}
	for _, r := range existing {
		if !r.Status.Blocking() || !interval.Overlaps(r.Interval(), candidate) {
			continue
		}
		result.Reservations = append(result.Reservations, models.ConflictingReservation{
			ID: r.ID, Resource: r.ResourceRef, StartTime: r.StartTime, EndTime: r.EndTime, Status: r.Status,
		})
	}

	occurrences, err := s.blockOccurrences(ctx, exec, tenant, ref, candidate)
	if err != nil {
		return result, err
	}
	result.Occurrences = occurrences

	if result.HasConflict() {
		s.metrics.RecordConflict(string(ref.Type))
	}
	return result, nil
}

// CheckAll runs Check for every ref and merges the results.
func (s *ConflictService) CheckAll(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, refs []models.ResourceRef, candidate interval.Interval, excludeID string) (models.ConflictResult, error) {
	var merged models.ConflictResult
	for _, ref := range refs {
		result, err := s.Check(ctx, exec, tenant, ref, candidate, excludeID)
		if err != nil {
			return merged, err
		}
		merged.Merge(result)
	}
	return merged, nil
}

// Preflight is the read-only check exposed to callers before they submit a booking.
func (s *ConflictService) Preflight(ctx context.Context, caller models.Caller, ref models.ResourceRef, candidate interval.Interval, excludeID string) (models.ConflictResult, error) {
	if err := caller.Validate(); err != nil {
		return models.ConflictResult{}, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	if !candidate.Valid() {
		return models.ConflictResult{}, appErrors.Clone(appErrors.ErrValidation, "start must be before end")
	}
	if !ref.Type.Schedulable() {
		return models.ConflictResult{}, appErrors.Clone(appErrors.ErrValidation, "resource type does not hold reservations")
	}
	return s.Check(ctx, nil, caller.Tenant, ref, candidate, excludeID)
}

func (s *ConflictService) blockOccurrences(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef, candidate interval.Interval) ([]models.ConflictingOccurrence, error) {
	from, to := candidate.Start, candidate.End
	blocks, err := s.blocks.ListForResource(ctx, exec, tenant, ref, true, from, to)
	if err != nil {
		return nil, storageError(err, "failed to load recurring blocks")
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	exceptions, err := s.exceptionsByBlock(ctx, exec, blocks, from, to)
	if err != nil {
		return nil, err
	}

	var out []models.ConflictingOccurrence
	for _, block := range blocks {
		rule, err := block.Rule()
		if err != nil {
			s.logger.Warn("skipping malformed recurring block", zap.String("block_id", block.ID), zap.Error(err))
			continue
		}
		for occ := range s.expander.Overlapping(rule, candidate, exceptions[block.ID]) {
			out = append(out, models.ConflictingOccurrence{
				BlockID:   block.ID,
				Title:     block.Title,
				Resource:  ref,
				StartTime: occ.Interval.Start,
				EndTime:   occ.Interval.End,
			})
		}
	}
	return out, nil
}

func (s *ConflictService) exceptionsByBlock(ctx context.Context, exec sqlx.ExtContext, blocks []models.RecurringBlock, from, to time.Time) (map[string][]recurrence.Exception, error) {
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	rows, err := s.blocks.ListExceptions(ctx, exec, ids, from, to)
	if err != nil {
		return nil, storageError(err, "failed to load recurring block exceptions")
	}
	out := make(map[string][]recurrence.Exception, len(blocks))
	for _, row := range rows {
		ex, err := row.ToRecurrence()
		if err != nil {
			s.logger.Warn("skipping malformed exception", zap.String("exception_id", row.ID), zap.Error(err))
			continue
		}
		out[row.BlockID] = append(out[row.BlockID], ex)
	}
	return out, nil
}
