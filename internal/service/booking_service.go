package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/internal/interval"
	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
)

type reservationWriter interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, items []*models.Reservation) error
	ListBySubmission(ctx context.Context, tenant models.TenantScope, submissionID string) ([]models.Reservation, error)
}

type resourceDirectory interface {
	Exists(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef) (bool, error)
	Coupled(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, ref models.ResourceRef) ([]models.ResourceRef, error)
}

type conflictChecker interface {
	CheckAll(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, refs []models.ResourceRef, candidate interval.Interval, excludeID string) (models.ConflictResult, error)
}

type displayIDAllocator interface {
	NextDisplayID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, actorID string) (string, error)
}

type calendarInvalidator interface {
	InvalidateResources(ctx context.Context, tenant models.TenantScope, refs []models.ResourceRef)
}

// BookingService turns a submission into reservations: validate, check every
// resource for conflicts and commit all items or none.
type BookingService struct {
	tx            txRunner
	reservations  reservationWriter
	resources     resourceDirectory
	conflicts     conflictChecker
	sequences     displayIDAllocator
	calendar      calendarInvalidator
	notifications *NotificationService
	metrics       *MetricsService
	validator     *validator.Validate
	location      *time.Location
	logger        *zap.Logger
}

// BookingDeps groups BookingService collaborators.
type BookingDeps struct {
	Tx            txRunner
	Reservations  reservationWriter
	Resources     resourceDirectory
	Conflicts     conflictChecker
	Sequences     displayIDAllocator
	Calendar      calendarInvalidator
	Notifications *NotificationService
	Metrics       *MetricsService
	Validator     *validator.Validate
	Location      *time.Location
	Logger        *zap.Logger
}

// NewBookingService constructs BookingService.
func NewBookingService(deps BookingDeps) *BookingService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &BookingService{
		tx:            deps.Tx,
		reservations:  deps.Reservations,
		resources:     deps.Resources,
		conflicts:     deps.Conflicts,
		sequences:     deps.Sequences,
		calendar:      deps.Calendar,
		notifications: deps.Notifications,
		metrics:       deps.Metrics,
		validator:     deps.Validator,
		location:      deps.Location,
		logger:        deps.Logger,
	}
}

// Create validates and commits a submission. Either every item is stored or
// none is; a conflict on any item, or on equipment coupled to an item, rejects
// the whole submission with the conflicting entries attached.
func (s *BookingService) Create(ctx context.Context, caller models.Caller, req models.CreateReservationRequest) (*models.Submission, error) {
	if err := caller.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, validationError(err, "invalid reservation payload")
	}
	iv, err := interval.New(req.StartTime, req.EndTime)
	if err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, validationError(err, "start time must be before end time")
	}
	iv = iv.In(s.location)
	if err := checkItems(req.Items); err != nil {
		s.metrics.RecordBooking("invalid")
		return nil, err
	}
	if req.Block && !caller.Role.IsAdministrative() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may create blocking reservations")
	}

	status := models.ReservationPending
	if req.Block {
		status = models.ReservationApproved
	}

	started := time.Now()
	var items []*models.Reservation
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		refs, err := s.expandRefs(ctx, exec, caller.Tenant, req.Items)
		if err != nil {
			return err
		}
		if err := s.tx.Lock(ctx, exec, refKeys(refs)...); err != nil {
			return err
		}

		result, err := s.conflicts.CheckAll(ctx, exec, caller.Tenant, refs, iv, "")
		if err != nil {
			return err
		}
		if result.HasConflict() {
			s.logger.Info("submission rejected by conflict",
				zap.String("tenant_id", caller.Tenant.String()),
				zap.Strings("reservation_ids", result.ReservationIDs()),
				zap.Int("block_occurrences", len(result.Occurrences)),
			)
			return appErrors.WithDetails(appErrors.ErrReservationConflict, "one or more resources are already booked for this time", result)
		}

		displayID, err := s.sequences.NextDisplayID(ctx, exec, caller.Tenant, caller.ActorID)
		if err != nil {
			return err
		}
		submissionID := uuid.NewString()
		items = make([]*models.Reservation, len(req.Items))
		for i, ref := range req.Items {
			items[i] = &models.Reservation{
				ResourceRef:  ref,
				ID:           uuid.NewString(),
				TenantID:     caller.Tenant.String(),
				UserID:       caller.ActorID,
				StartTime:    iv.Start,
				EndTime:      iv.End,
				Status:       status,
				Title:        req.Title,
				Notes:        req.Notes,
				SubmissionID: &submissionID,
				DisplayID:    &displayID,
			}
			if req.Block {
				items[i].ReviewedBy = &caller.ActorID
			}
		}
		return s.reservations.CreateBatch(ctx, exec, items)
	})
	s.metrics.ObserveTx("create_submission", time.Since(started))
	if err != nil {
		s.metrics.RecordBooking(bookingOutcome(err))
		return nil, storageError(err, "failed to create reservations")
	}
	s.metrics.RecordBooking("committed")

	rows := make([]models.Reservation, len(items))
	for i, item := range items {
		rows[i] = *item
	}
	submission := models.NewSubmission(*items[0].SubmissionID, *items[0].DisplayID, rows)

	if s.calendar != nil {
		s.calendar.InvalidateResources(ctx, caller.Tenant, req.Items)
	}
	s.notifications.Publish(Notification{
		TenantID:  caller.Tenant.String(),
		UserID:    caller.ActorID,
		Subject:   "submission",
		SubjectID: submission.ID,
		Status:    string(submission.Status),
	})
	s.logger.Info("submission committed",
		zap.String("tenant_id", caller.Tenant.String()),
		zap.String("submission_id", submission.ID),
		zap.String("display_id", submission.DisplayID),
		zap.Int("items", len(rows)),
		zap.Duration("duration", iv.Duration()),
	)
	return &submission, nil
}

// GetSubmission returns a submission with its aggregate status. Plain users see only their own.
func (s *BookingService) GetSubmission(ctx context.Context, caller models.Caller, submissionID string) (*models.Submission, error) {
	if err := caller.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	rows, err := s.reservations.ListBySubmission(ctx, caller.Tenant, submissionID)
	if err != nil {
		return nil, storageError(err, "failed to load submission")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	}
	if caller.Role == models.RoleUser && rows[0].UserID != caller.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another user")
	}
	displayID := ""
	if rows[0].DisplayID != nil {
		displayID = *rows[0].DisplayID
	}
	submission := models.NewSubmission(submissionID, displayID, rows)
	return &submission, nil
}

// expandRefs verifies each item exists and adds resources coupled to it.
func (s *BookingService) expandRefs(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, items []models.ResourceRef) ([]models.ResourceRef, error) {
	refs := append([]models.ResourceRef(nil), items...)
	for _, ref := range items {
		ok, err := s.resources.Exists(ctx, exec, tenant, ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", ref))
		}
		coupled, err := s.resources.Coupled(ctx, exec, tenant, ref)
		if err != nil {
			return nil, err
		}
		refs = append(refs, coupled...)
	}
	return models.SortRefs(refs), nil
}

func checkItems(items []models.ResourceRef) error {
	seen := make(map[string]struct{}, len(items))
	for _, ref := range items {
		if !ref.Type.Schedulable() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("resource type %s cannot be reserved", ref.Type))
		}
		if _, dup := seen[ref.Key()]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("resource %s listed more than once", ref))
		}
		seen[ref.Key()] = struct{}{}
	}
	return nil
}

func bookingOutcome(err error) string {
	switch {
	case appErrors.HasCode(err, appErrors.ErrReservationConflict.Code):
		return "conflict"
	case appErrors.HasCode(err, appErrors.ErrNotFound.Code):
		return "not_found"
	default:
		return "error"
	}
}
