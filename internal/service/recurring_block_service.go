package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/internal/interval"
	"github.com/noah-isme/booking-engine-api/internal/models"
	"github.com/noah-isme/booking-engine-api/internal/recurrence"
	"github.com/noah-isme/booking-engine-api/internal/repository"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
)

type recurringBlockStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, block *models.RecurringBlock) error
	Update(ctx context.Context, exec sqlx.ExtContext, block *models.RecurringBlock) error
	Delete(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (bool, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.RecurringBlock, error)
	List(ctx context.Context, tenant models.TenantScope, filter models.RecurringBlockFilter) ([]models.RecurringBlock, error)
	CreateException(ctx context.Context, exec sqlx.ExtContext, ex *models.RecurringBlockException) error
	FindException(ctx context.Context, tenant models.TenantScope, id string) (*models.RecurringBlockException, error)
	DeleteException(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
	ListExceptions(ctx context.Context, exec sqlx.ExtContext, blockIDs []string, from, to time.Time) ([]models.RecurringBlockException, error)
}

type resourceExistence interface {
	Exists(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef) (bool, error)
}

// RecurringBlockService manages weekly blocks. Every write scans the block's
// occurrences against existing reservations before anything is stored.
type RecurringBlockService struct {
	tx           txRunner
	blocks       recurringBlockStore
	reservations reservationOverlapReader
	resources    resourceExistence
	expander     *recurrence.Expander
	calendar     calendarInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewRecurringBlockService constructs RecurringBlockService.
func NewRecurringBlockService(tx txRunner, blocks recurringBlockStore, reservations reservationOverlapReader, resources resourceExistence, expander *recurrence.Expander, calendar calendarInvalidator, validate *validator.Validate, logger *zap.Logger) *RecurringBlockService {
	if expander == nil {
		expander = recurrence.NewExpander(time.UTC)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecurringBlockService{
		tx:           tx,
		blocks:       blocks,
		reservations: reservations,
		resources:    resources,
		expander:     expander,
		calendar:     calendar,
		validator:    validate,
		logger:       logger,
	}
}

// Create stores a block after verifying none of its occurrences overlaps a
// PENDING or APPROVED reservation on any of its resources.
func (s *RecurringBlockService) Create(ctx context.Context, caller models.Caller, req models.RecurringBlockRequest) (*models.RecurringBlock, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	block, rule, err := s.buildBlock(req)
	if err != nil {
		return nil, err
	}
	block.TenantID = caller.Tenant.String()
	block.CreatedBy = caller.ActorID

	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.prepare(ctx, exec, caller.Tenant, block.Resources); err != nil {
			return err
		}
		if err := s.scan(ctx, exec, caller.Tenant, block.Resources, rule, nil); err != nil {
			return err
		}
		return s.blocks.Create(ctx, exec, block)
	})
	if err != nil {
		return nil, storageError(err, "failed to create recurring block")
	}
	s.invalidate(ctx, caller.Tenant, block.Resources)
	s.logger.Info("recurring block created", zap.String("block_id", block.ID), zap.Int("resources", len(block.Resources)))
	return block, nil
}

// Update replaces a block. The new pattern, with the block's existing
// exceptions applied, must be free of reservation conflicts.
func (s *RecurringBlockService) Update(ctx context.Context, caller models.Caller, id string, req models.RecurringBlockRequest) (*models.RecurringBlock, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	block, rule, err := s.buildBlock(req)
	if err != nil {
		return nil, err
	}
	block.ID = id
	block.TenantID = caller.Tenant.String()

	var previous []models.ResourceRef
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.blocks.FindByID(ctx, exec, caller.Tenant, id)
		if err != nil {
			return notFoundOr(err, "recurring block", "failed to load recurring block")
		}
		previous = current.Resources
		block.CreatedBy = current.CreatedBy
		block.CreatedAt = current.CreatedAt

		if err := s.prepare(ctx, exec, caller.Tenant, block.Resources); err != nil {
			return err
		}
		rows, err := s.blocks.ListExceptions(ctx, exec, []string{id}, rule.StartDate, rule.EndDate)
		if err != nil {
			return err
		}
		exceptions := make([]recurrence.Exception, 0, len(rows))
		for _, row := range rows {
			if ex, err := row.ToRecurrence(); err == nil {
				exceptions = append(exceptions, ex)
			}
		}
		if err := s.scan(ctx, exec, caller.Tenant, block.Resources, rule, exceptions); err != nil {
			return err
		}
		if err := s.blocks.Update(ctx, exec, block); err != nil {
			return notFoundOr(err, "recurring block", "failed to update recurring block")
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "failed to update recurring block")
	}
	s.invalidate(ctx, caller.Tenant, append(previous, block.Resources...))
	return block, nil
}

// Delete removes a block with its exceptions.
func (s *RecurringBlockService) Delete(ctx context.Context, caller models.Caller, id string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	var resources []models.ResourceRef
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		block, err := s.blocks.FindByID(ctx, exec, caller.Tenant, id)
		if err != nil {
			return notFoundOr(err, "recurring block", "failed to load recurring block")
		}
		resources = block.Resources
		if err := s.tx.Lock(ctx, exec, refKeys(models.SortRefs(resources))...); err != nil {
			return err
		}
		ok, err := s.blocks.Delete(ctx, exec, caller.Tenant, id)
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "recurring block not found")
		}
		return nil
	})
	if err != nil {
		return storageError(err, "failed to delete recurring block")
	}
	s.invalidate(ctx, caller.Tenant, resources)
	return nil
}

// Get returns one block. Hidden blocks are visible to administrators only.
func (s *RecurringBlockService) Get(ctx context.Context, caller models.Caller, id string) (*models.RecurringBlock, error) {
	if err := caller.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	block, err := s.blocks.FindByID(ctx, nil, caller.Tenant, id)
	if err != nil {
		return nil, notFoundOr(err, "recurring block", "failed to load recurring block")
	}
	if !block.Visible && !caller.Role.IsAdministrative() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "recurring block not found")
	}
	return block, nil
}

// List returns the tenant's blocks. Non-administrative callers only see visible ones.
func (s *RecurringBlockService) List(ctx context.Context, caller models.Caller, filter models.RecurringBlockFilter) ([]models.RecurringBlock, error) {
	if err := caller.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	if !caller.Role.IsAdministrative() {
		filter.VisibleOnly = true
	}
	blocks, err := s.blocks.List(ctx, caller.Tenant, filter)
	if err != nil {
		return nil, storageError(err, "failed to list recurring blocks")
	}
	return blocks, nil
}

// AddException overrides the times of one occurrence. The date must be an
// occurrence date of the block and the new interval must be free of reservations.
func (s *RecurringBlockService) AddException(ctx context.Context, caller models.Caller, blockID string, req models.ExceptionRequest) (*models.RecurringBlockException, error) {
	if err := s.authorize(caller); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid exception payload")
	}
	loc := s.expander.Location()
	date, err := time.ParseInLocation(recurrence.DateLayout, req.ExceptionDate, loc)
	if err != nil {
		return nil, validationError(err, "exception_date must use YYYY-MM-DD")
	}
	start, err := recurrence.ParseClock(req.StartTime)
	if err != nil {
		return nil, validationError(err, "invalid start_time")
	}
	end, err := recurrence.ParseClock(req.EndTime)
	if err != nil {
		return nil, validationError(err, "invalid end_time")
	}
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exception start_time must be before end_time")
	}

	ex := &models.RecurringBlockException{
		BlockID:       blockID,
		ExceptionDate: date,
		StartTime:     start.String(),
		EndTime:       end.String(),
	}
	var resources []models.ResourceRef
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		block, err := s.blocks.FindByID(ctx, exec, caller.Tenant, blockID)
		if err != nil {
			return notFoundOr(err, "recurring block", "failed to load recurring block")
		}
		rule, err := block.Rule()
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored recurring block is malformed")
		}
		if !rule.Includes(date) {
			return appErrors.Clone(appErrors.ErrValidation, "exception_date is not an occurrence date of the block")
		}
		resources = block.Resources
		if err := s.tx.Lock(ctx, exec, refKeys(models.SortRefs(resources))...); err != nil {
			return err
		}
		override := interval.Interval{Start: start.On(date, loc), End: end.On(date, loc)}
		for _, ref := range resources {
			existing, err := s.reservations.FindOverlapping(ctx, exec, caller.Tenant, ref, override, "")
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return appErrors.WithDetails(appErrors.ErrBlockConflict, "exception overlaps an existing reservation", models.BlockConflict{
					OccurrenceStart: override.Start,
					OccurrenceEnd:   override.End,
					Resource:        ref,
					ReservationID:   existing[0].ID,
				})
			}
		}
		if err := s.blocks.CreateException(ctx, exec, ex); err != nil {
			if repository.IsUniqueViolation(err, repository.ExceptionUniqueConstraint) {
				return appErrors.Clone(appErrors.ErrConflict, "an exception already exists for this date")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "failed to create exception")
	}
	s.invalidate(ctx, caller.Tenant, resources)
	return ex, nil
}

// ListExceptions returns every override of a block.
func (s *RecurringBlockService) ListExceptions(ctx context.Context, caller models.Caller, blockID string) ([]models.RecurringBlockException, error) {
	block, err := s.Get(ctx, caller, blockID)
	if err != nil {
		return nil, err
	}
	items, err := s.blocks.ListExceptions(ctx, nil, []string{block.ID}, block.StartDate, block.EndDate)
	if err != nil {
		return nil, storageError(err, "failed to list exceptions")
	}
	return items, nil
}

// DeleteException removes an override, restoring the block's regular times for that date.
func (s *RecurringBlockService) DeleteException(ctx context.Context, caller models.Caller, id string) error {
	if err := s.authorize(caller); err != nil {
		return err
	}
	ex, err := s.blocks.FindException(ctx, caller.Tenant, id)
	if err != nil {
		return notFoundOr(err, "exception", "failed to load exception")
	}
	ok, err := s.blocks.DeleteException(ctx, nil, id)
	if err != nil {
		return storageError(err, "failed to delete exception")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "exception not found")
	}
	if block, err := s.blocks.FindByID(ctx, nil, caller.Tenant, ex.BlockID); err == nil {
		s.invalidate(ctx, caller.Tenant, block.Resources)
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to reload block after exception delete", zap.String("block_id", ex.BlockID), zap.Error(err))
	}
	return nil
}

func (s *RecurringBlockService) authorize(caller models.Caller) error {
	if err := caller.Validate(); err != nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	if !caller.HasRole(models.RoleSuperuser, models.RoleAdminResource) {
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot manage recurring blocks")
	}
	return nil
}

func (s *RecurringBlockService) buildBlock(req models.RecurringBlockRequest) (*models.RecurringBlock, recurrence.Rule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, recurrence.Rule{}, validationError(err, "invalid recurring block payload")
	}
	loc := s.expander.Location()
	startDate, err := time.ParseInLocation(recurrence.DateLayout, req.StartDate, loc)
	if err != nil {
		return nil, recurrence.Rule{}, validationError(err, "start_date must use YYYY-MM-DD")
	}
	endDate, err := time.ParseInLocation(recurrence.DateLayout, req.EndDate, loc)
	if err != nil {
		return nil, recurrence.Rule{}, validationError(err, "end_date must use YYYY-MM-DD")
	}
	startTime, err := recurrence.ParseClock(req.StartTime)
	if err != nil {
		return nil, recurrence.Rule{}, validationError(err, "invalid start_time")
	}
	endTime, err := recurrence.ParseClock(req.EndTime)
	if err != nil {
		return nil, recurrence.Rule{}, validationError(err, "invalid end_time")
	}

	days := make([]time.Weekday, len(req.DaysOfWeek))
	stored := make([]int64, len(req.DaysOfWeek))
	for i, d := range req.DaysOfWeek {
		days[i] = time.Weekday(d)
		stored[i] = int64(d)
	}
	rule := recurrence.Rule{StartDate: startDate, EndDate: endDate, Weekdays: days, StartTime: startTime, EndTime: endTime}
	if err := rule.Validate(); err != nil {
		return nil, recurrence.Rule{}, validationError(err, err.Error())
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	for _, ref := range req.Resources {
		if !ref.Type.Schedulable() {
			return nil, recurrence.Rule{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("resource type %s cannot be blocked", ref.Type))
		}
	}
	block := &models.RecurringBlock{
		Title:       req.Title,
		Description: req.Description,
		DaysOfWeek:  stored,
		StartTime:   startTime.String(),
		EndTime:     endTime.String(),
		StartDate:   startDate,
		EndDate:     endDate,
		Visible:     visible,
		Resources:   models.SortRefs(req.Resources),
	}
	return block, rule, nil
}

// prepare checks the resources exist and locks them for the rest of the transaction.
func (s *RecurringBlockService) prepare(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, refs []models.ResourceRef) error {
	for _, ref := range refs {
		ok, err := s.resources.Exists(ctx, exec, tenant, ref)
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", ref))
		}
	}
	return s.tx.Lock(ctx, exec, refKeys(refs)...)
}

// scan walks the rule's occurrences in date order and stops at the first one
// overlapping a reservation on any of refs.
func (s *RecurringBlockService) scan(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, refs []models.ResourceRef, rule recurrence.Rule, exceptions []recurrence.Exception) error {
	loc := s.expander.Location()
	span := interval.Interval{Start: rule.StartDate.In(loc), End: rule.EndDate.In(loc).AddDate(0, 0, 1)}

	existing := make(map[string][]models.Reservation, len(refs))
	for _, ref := range refs {
		rows, err := s.reservations.FindOverlapping(ctx, exec, tenant, ref, span, "")
		if err != nil {
			return err
		}
		existing[ref.Key()] = rows
	}

	for occ := range s.expander.Occurrences(rule, rule.StartDate, rule.EndDate, exceptions) {
		for _, ref := range refs {
			for _, r := range existing[ref.Key()] {
				if !r.Status.Blocking() || !interval.Overlaps(r.Interval(), occ.Interval) {
					continue
				}
				return appErrors.WithDetails(appErrors.ErrBlockConflict,
					fmt.Sprintf("occurrence on %s overlaps reservation %s", occ.Date.Format(recurrence.DateLayout), r.ID),
					models.BlockConflict{
						OccurrenceStart: occ.Interval.Start,
						OccurrenceEnd:   occ.Interval.End,
						Resource:        ref,
						ReservationID:   r.ID,
					})
			}
		}
	}
	return nil
}

func (s *RecurringBlockService) invalidate(ctx context.Context, tenant models.TenantScope, refs []models.ResourceRef) {
	if s.calendar != nil {
		s.calendar.InvalidateResources(ctx, tenant, refs)
	}
}
