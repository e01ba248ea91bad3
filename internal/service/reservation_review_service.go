package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
)

type reservationReviewStore interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Reservation, error)
	Review(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, status models.ReservationStatus, reason *string, reviewer string) (bool, error)
	MarkCheckout(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, at time.Time) (bool, error)
	MarkCheckin(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, at time.Time) (bool, error)
}

type responsibleResolver interface {
	ResponsibleUser(ctx context.Context, tenant models.TenantScope, ref models.ResourceRef) (string, error)
}

var reviewerRoles = []models.UserRole{models.RoleSuperuser, models.RoleAdminReservation, models.RoleAdminResource}

// ReservationReviewService moves reservations through review and equipment handover.
type ReservationReviewService struct {
	store         reservationReviewStore
	responsible   responsibleResolver
	calendar      calendarInvalidator
	notifications *NotificationService
	validator     *validator.Validate
	now           func() time.Time
	logger        *zap.Logger
}

// NewReservationReviewService constructs ReservationReviewService.
func NewReservationReviewService(store reservationReviewStore, responsible responsibleResolver, calendar calendarInvalidator, notifications *NotificationService, validate *validator.Validate, logger *zap.Logger) *ReservationReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationReviewService{
		store:         store,
		responsible:   responsible,
		calendar:      calendar,
		notifications: notifications,
		validator:     validate,
		now:           time.Now,
		logger:        logger,
	}
}

// Approve finalizes a PENDING reservation as APPROVED.
func (s *ReservationReviewService) Approve(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error) {
	return s.review(ctx, caller, id, models.ReservationApproved, nil)
}

// Reject finalizes a PENDING reservation as REJECTED, releasing its slot.
func (s *ReservationReviewService) Reject(ctx context.Context, caller models.Caller, id string, req models.RejectReservationRequest) (*models.Reservation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid rejection payload")
	}
	var reason *string
	if trimmed := strings.TrimSpace(req.Reason); trimmed != "" {
		reason = &trimmed
	}
	return s.review(ctx, caller, id, models.ReservationRejected, reason)
}

// Checkout records that approved equipment left its custody.
func (s *ReservationReviewService) Checkout(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error) {
	reservation, err := s.handoverTarget(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if reservation.Type != models.ResourceEquipment {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only equipment reservations can be checked out")
	}
	if reservation.Status != models.ReservationApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "reservation must be approved before checkout")
	}
	if reservation.CheckoutAt != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "equipment already checked out")
	}
	ok, err := s.store.MarkCheckout(ctx, nil, caller.Tenant, id, s.now().UTC())
	if err != nil {
		return nil, storageError(err, "failed to check out reservation")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "equipment already checked out")
	}
	return s.reload(ctx, caller.Tenant, id)
}

// Checkin records the return of checked-out equipment.
func (s *ReservationReviewService) Checkin(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error) {
	reservation, err := s.handoverTarget(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if reservation.CheckoutAt == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "equipment has not been checked out")
	}
	if reservation.CheckinAt != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "equipment already checked in")
	}
	ok, err := s.store.MarkCheckin(ctx, nil, caller.Tenant, id, s.now().UTC())
	if err != nil {
		return nil, storageError(err, "failed to check in reservation")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "equipment already checked in")
	}
	return s.reload(ctx, caller.Tenant, id)
}

func (s *ReservationReviewService) review(ctx context.Context, caller models.Caller, id string, to models.ReservationStatus, reason *string) (*models.Reservation, error) {
	if err := caller.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	if !caller.HasRole(reviewerRoles...) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot review reservations")
	}
	reservation, err := s.store.FindByID(ctx, nil, caller.Tenant, id)
	if err != nil {
		return nil, notFoundOr(err, "reservation", "failed to load reservation")
	}
	if caller.Role != models.RoleSuperuser {
		responsible, err := s.responsible.ResponsibleUser(ctx, caller.Tenant, reservation.ResourceRef)
		if err != nil {
			return nil, storageError(err, "failed to resolve resource reviewer")
		}
		if responsible != caller.ActorID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "caller is not responsible for this resource")
		}
	}
	if reservation.Status != models.ReservationPending {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "reservation already reviewed")
	}

	ok, err := s.store.Review(ctx, nil, caller.Tenant, id, to, reason, caller.ActorID)
	if err != nil {
		return nil, storageError(err, "failed to review reservation")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "reservation already reviewed")
	}

	updated, err := s.reload(ctx, caller.Tenant, id)
	if err != nil {
		return nil, err
	}
	if s.calendar != nil {
		s.calendar.InvalidateResources(ctx, caller.Tenant, []models.ResourceRef{updated.ResourceRef})
	}
	note := Notification{
		TenantID:  caller.Tenant.String(),
		UserID:    updated.UserID,
		Subject:   "reservation",
		SubjectID: updated.ID,
		Status:    string(updated.Status),
	}
	if reason != nil {
		note.Reason = *reason
	}
	s.notifications.Publish(note)
	s.logger.Info("reservation reviewed",
		zap.String("reservation_id", id),
		zap.String("status", string(to)),
		zap.String("reviewer", caller.ActorID),
	)
	return updated, nil
}

func (s *ReservationReviewService) handoverTarget(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error) {
	if err := caller.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	if !caller.HasRole(models.RoleSuperuser, models.RoleVigilancia) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot record equipment handover")
	}
	reservation, err := s.store.FindByID(ctx, nil, caller.Tenant, id)
	if err != nil {
		return nil, notFoundOr(err, "reservation", "failed to load reservation")
	}
	return reservation, nil
}

func (s *ReservationReviewService) reload(ctx context.Context, tenant models.TenantScope, id string) (*models.Reservation, error) {
	reservation, err := s.store.FindByID(ctx, nil, tenant, id)
	if err != nil {
		return nil, notFoundOr(err, "reservation", "failed to reload reservation")
	}
	return reservation, nil
}
