package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/internal/models"
	"github.com/noah-isme/booking-engine-api/internal/repository"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
)

type workshopLocker interface {
	LockByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Workshop, error)
}

type inscriptionStore interface {
	Exists(ctx context.Context, exec sqlx.ExtContext, workshopID, userID string) (bool, error)
	CountSeats(ctx context.Context, exec sqlx.ExtContext, workshopID string) (int, error)
	CountActive(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, userID string, now time.Time) (int, error)
	CountExtraordinary(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, userID string) (int, error)
	Create(ctx context.Context, exec sqlx.ExtContext, ins *models.Inscription) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.Inscription, error)
	Transition(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string, from []models.InscriptionStatus, to models.InscriptionStatus, reviewer string) (bool, error)
}

type settingsReader interface {
	GetInt(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, key string) (int, bool, error)
}

// EnrollmentConfig holds the per-actor limits.
type EnrollmentConfig struct {
	ActiveLimit        int
	ExtraordinaryQuota int
}

// EnrollmentService guards workshop seats and per-actor inscription limits.
type EnrollmentService struct {
	tx            txRunner
	workshops     workshopLocker
	inscriptions  inscriptionStore
	settings      settingsReader
	notifications *NotificationService
	metrics       *MetricsService
	cfg           EnrollmentConfig
	now           func() time.Time
	logger        *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(tx txRunner, workshops workshopLocker, inscriptions inscriptionStore, settings settingsReader, notifications *NotificationService, metrics *MetricsService, cfg EnrollmentConfig, logger *zap.Logger) *EnrollmentService {
	if cfg.ActiveLimit <= 0 {
		cfg.ActiveLimit = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		tx:            tx,
		workshops:     workshops,
		inscriptions:  inscriptions,
		settings:      settings,
		notifications: notifications,
		metrics:       metrics,
		cfg:           cfg,
		now:           time.Now,
		logger:        logger,
	}
}

// TryEnroll creates an inscription for the caller. Uniqueness, the seat count,
// the active limit and the extraordinary quota are all decided in the same
// transaction as the insert.
func (s *EnrollmentService) TryEnroll(ctx context.Context, caller models.Caller, workshopID string, req models.EnrollRequest) (*models.Inscription, error) {
	if err := caller.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	if workshopID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workshop id is required")
	}

	started := time.Now()
	var created *models.Inscription
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.tx.Lock(ctx, exec, actorLockKey(caller)); err != nil {
			return err
		}
		workshop, err := s.workshops.LockByID(ctx, exec, caller.Tenant, workshopID)
		if err != nil {
			return notFoundOr(err, "workshop", "failed to load workshop")
		}
		now := s.now()
		if !workshop.AcceptingAt(now) {
			return appErrors.Clone(appErrors.ErrInscriptionsClosed, "")
		}

		enrolled, err := s.inscriptions.Exists(ctx, exec, workshop.ID, caller.ActorID)
		if err != nil {
			return err
		}
		if enrolled {
			return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		}

		if !workshop.Unlimited() {
			seats, err := s.inscriptions.CountSeats(ctx, exec, workshop.ID)
			if err != nil {
				return err
			}
			if seats >= workshop.Capacity {
				return appErrors.Clone(appErrors.ErrCapacityReached, "")
			}
		}

		status := models.InscriptionPending
		active, err := s.inscriptions.CountActive(ctx, exec, caller.Tenant, caller.ActorID, now)
		if err != nil {
			return err
		}
		if active >= s.cfg.ActiveLimit {
			if !req.WantsExtraordinary {
				return appErrors.Clone(appErrors.ErrActiveLimitExceeded, "")
			}
			quota, err := s.extraordinaryQuota(ctx, exec, caller.Tenant)
			if err != nil {
				return err
			}
			used, err := s.inscriptions.CountExtraordinary(ctx, exec, caller.Tenant, caller.ActorID)
			if err != nil {
				return err
			}
			if used >= quota {
				return appErrors.Clone(appErrors.ErrExtraordinaryQuotaExceeded, "")
			}
			status = models.InscriptionPendingExtraordinary
		}

		ins := &models.Inscription{
			TenantID:   caller.Tenant.String(),
			WorkshopID: workshop.ID,
			UserID:     caller.ActorID,
			Status:     status,
		}
		if err := s.inscriptions.Create(ctx, exec, ins); err != nil {
			if repository.IsUniqueViolation(err, repository.InscriptionUniqueConstraint) {
				return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
			}
			return err
		}
		created = ins
		return nil
	})
	s.metrics.ObserveTx("enroll", time.Since(started))
	if err != nil {
		s.metrics.RecordEnrollment(enrollmentOutcome(err))
		return nil, storageError(err, "failed to enroll")
	}
	s.metrics.RecordEnrollment(string(created.Status))
	s.logger.Info("inscription created",
		zap.String("workshop_id", workshopID),
		zap.String("user_id", caller.ActorID),
		zap.String("status", string(created.Status)),
	)
	return created, nil
}

// Approve accepts a pending inscription. An extraordinary inscription takes a
// seat only now, so capacity is re-checked under the workshop lock.
func (s *EnrollmentService) Approve(ctx context.Context, caller models.Caller, id string) (*models.Inscription, error) {
	return s.transition(ctx, caller, id, models.InscriptionApproved)
}

// Reject declines a pending inscription.
func (s *EnrollmentService) Reject(ctx context.Context, caller models.Caller, id string) (*models.Inscription, error) {
	return s.transition(ctx, caller, id, models.InscriptionRejected)
}

func (s *EnrollmentService) transition(ctx context.Context, caller models.Caller, id string, to models.InscriptionStatus) (*models.Inscription, error) {
	if err := caller.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, err.Error())
	}
	if !caller.HasRole(models.RoleSuperuser, models.RoleAdminResource) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot review inscriptions")
	}

	var updated *models.Inscription
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		ins, err := s.inscriptions.FindByID(ctx, exec, caller.Tenant, id)
		if err != nil {
			return notFoundOr(err, "inscription", "failed to load inscription")
		}
		if ins.Status.Final() {
			return appErrors.Clone(appErrors.ErrFinalized, "inscription already reviewed")
		}
		workshop, err := s.workshops.LockByID(ctx, exec, caller.Tenant, ins.WorkshopID)
		if err != nil {
			return notFoundOr(err, "workshop", "failed to load workshop")
		}
		if to == models.InscriptionApproved && ins.Status == models.InscriptionPendingExtraordinary && !workshop.Unlimited() {
			seats, err := s.inscriptions.CountSeats(ctx, exec, workshop.ID)
			if err != nil {
				return err
			}
			if seats >= workshop.Capacity {
				return appErrors.Clone(appErrors.ErrCapacityReached, "")
			}
		}

		from := []models.InscriptionStatus{models.InscriptionPending, models.InscriptionPendingExtraordinary}
		ok, err := s.inscriptions.Transition(ctx, exec, caller.Tenant, id, from, to, caller.ActorID)
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrFinalized, "inscription already reviewed")
		}
		updated, err = s.inscriptions.FindByID(ctx, exec, caller.Tenant, id)
		return err
	})
	if err != nil {
		return nil, storageError(err, "failed to review inscription")
	}
	s.notifications.Publish(Notification{
		TenantID:  caller.Tenant.String(),
		UserID:    updated.UserID,
		Subject:   "inscription",
		SubjectID: updated.ID,
		Status:    string(updated.Status),
	})
	return updated, nil
}

func (s *EnrollmentService) extraordinaryQuota(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope) (int, error) {
	if s.settings != nil {
		value, ok, err := s.settings.GetInt(ctx, exec, tenant, repository.SettingExtraordinaryLimit)
		if err != nil {
			return 0, err
		}
		if ok {
			return value, nil
		}
	}
	return s.cfg.ExtraordinaryQuota, nil
}

// actorLockKey serializes enrollments of one actor so the active count cannot be raced across workshops.
func actorLockKey(caller models.Caller) string {
	return "actor:" + caller.Tenant.String() + ":" + caller.ActorID
}

func enrollmentOutcome(err error) string {
	for _, known := range []*appErrors.Error{
		appErrors.ErrAlreadyEnrolled,
		appErrors.ErrCapacityReached,
		appErrors.ErrActiveLimitExceeded,
		appErrors.ErrExtraordinaryQuotaExceeded,
		appErrors.ErrInscriptionsClosed,
	} {
		if appErrors.HasCode(err, known.Code) {
			return known.Code
		}
	}
	return "error"
}
