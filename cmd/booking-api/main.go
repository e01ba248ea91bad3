package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/booking-engine-api/api/swagger"
	"github.com/noah-isme/booking-engine-api/internal/handler"
	"github.com/noah-isme/booking-engine-api/internal/recurrence"
	"github.com/noah-isme/booking-engine-api/internal/repository"
	"github.com/noah-isme/booking-engine-api/internal/service"
	"github.com/noah-isme/booking-engine-api/pkg/cache"
	"github.com/noah-isme/booking-engine-api/pkg/config"
	"github.com/noah-isme/booking-engine-api/pkg/database"
	"github.com/noah-isme/booking-engine-api/pkg/jobs"
	"github.com/noah-isme/booking-engine-api/pkg/logger"
)

// @title Booking Engine API
// @version 1.0.0
// @description Reservation scheduling, recurring blocks and workshop enrollment
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, calendar cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	notifyQueue := jobs.NewQueue("notifications", service.NotificationHandler(service.NewLogNotifier(logr)), jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()

	deps := wire(cfg, db, cacheRepo, redisClient != nil, metrics, service.NewNotificationService(notifyQueue, logr), logr)

	r := newRouter(cfg, deps, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type handlers struct {
	reservations *handler.ReservationHandler
	calendar     *handler.CalendarHandler
	blocks       *handler.RecurringBlockHandler
	inscriptions *handler.InscriptionHandler
	metrics      *handler.MetricsHandler
	auth         *service.AuthService
	metricsSvc   *service.MetricsService
}

func wire(cfg *config.Config, db *sqlx.DB, cacheRepo *repository.CacheRepository, redisReady bool, metrics *service.MetricsService, notifications *service.NotificationService, logr *zap.Logger) handlers {
	loc := cfg.Booking.Location()
	expander := recurrence.NewExpander(loc)
	validate := validator.New()

	tx := repository.NewTxManager(db)
	reservationRepo := repository.NewReservationRepository(db)
	blockRepo := repository.NewRecurringBlockRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	workshopRepo := repository.NewWorkshopRepository(db)
	inscriptionRepo := repository.NewInscriptionRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Calendar.CacheTTL, logr, cfg.Calendar.CacheEnabled && redisReady)
	calendarSvc := service.NewCalendarService(reservationRepo, blockRepo, expander, cacheSvc, cfg.Booking.MaxWindowDays, logr)
	conflictSvc := service.NewConflictService(reservationRepo, blockRepo, expander, metrics, logr)
	sequenceSvc := service.NewSequenceService(sequenceRepo, userRepo, loc)

	bookingSvc := service.NewBookingService(service.BookingDeps{
		Tx:            tx,
		Reservations:  reservationRepo,
		Resources:     resourceRepo,
		Conflicts:     conflictSvc,
		Sequences:     sequenceSvc,
		Calendar:      calendarSvc,
		Notifications: notifications,
		Metrics:       metrics,
		Validator:     validate,
		Location:      loc,
		Logger:        logr,
	})
	reviewSvc := service.NewReservationReviewService(reservationRepo, resourceRepo, calendarSvc, notifications, validate, logr)
	blockSvc := service.NewRecurringBlockService(tx, blockRepo, reservationRepo, resourceRepo, expander, calendarSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(tx, workshopRepo, inscriptionRepo, settingsRepo, notifications, metrics, service.EnrollmentConfig{
		ActiveLimit:        cfg.Booking.ActiveInscriptionLimit,
		ExtraordinaryQuota: cfg.Booking.DefaultExtraordinaryQuota,
	}, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	return handlers{
		reservations: handler.NewReservationHandler(bookingSvc, reviewSvc, conflictSvc),
		calendar:     handler.NewCalendarHandler(calendarSvc),
		blocks:       handler.NewRecurringBlockHandler(blockSvc),
		inscriptions: handler.NewInscriptionHandler(enrollmentSvc),
		metrics:      handler.NewMetricsHandler(metrics, db),
		auth:         authSvc,
		metricsSvc:   metrics,
	}
}
