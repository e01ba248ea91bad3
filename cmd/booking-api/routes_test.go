package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/internal/models"
	"github.com/noah-isme/booking-engine-api/internal/repository"
	"github.com/noah-isme/booking-engine-api/internal/service"
	"github.com/noah-isme/booking-engine-api/pkg/config"
	"github.com/noah-isme/booking-engine-api/pkg/jobs"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.AuthService, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	db := sqlx.NewDb(raw, "sqlmock")

	cfg := &config.Config{
		Env:       config.EnvProduction,
		APIPrefix: "/api/v1",
		JWT:       config.JWTConfig{Secret: "route-test-secret", Issuer: "booking-engine"},
		Booking:   config.BookingConfig{Timezone: "UTC", ActiveInscriptionLimit: 3, MaxWindowDays: 366},
		Calendar:  config.CalendarConfig{CacheTTL: time.Minute},
	}
	logr := zap.NewNop()
	queue := jobs.NewQueue("notifications", service.NotificationHandler(service.NewLogNotifier(logr)), jobs.QueueConfig{Logger: logr})
	deps := wire(cfg, db, repository.NewCacheRepository(nil, logr), false, service.NewMetricsService(), service.NewNotificationService(queue, logr), logr)
	return newRouter(cfg, deps, logr), deps.auth, mock
}

func TestRouterRegistersBookingRoutes(t *testing.T) {
	r, _, _ := newTestRouter(t)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/reservations",
		"GET /api/v1/reservations/submissions/:id",
		"POST /api/v1/reservations/:id/approve",
		"POST /api/v1/reservations/:id/checkin",
		"GET /api/v1/resources/:type/:id/occurrences",
		"GET /api/v1/resources/:type/:id/conflicts",
		"PUT /api/v1/recurring-blocks/:id",
		"DELETE /api/v1/recurring-blocks/exceptions/:id",
		"POST /api/v1/workshops/:id/inscriptions",
		"POST /api/v1/inscriptions/:id/reject",
		"GET /metrics",
	} {
		assert.True(t, registered[want], want)
	}
	assert.False(t, registered["GET /docs/*any"], "docs are hidden in production")
}

func TestRouterRequiresBearerToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterEnforcesHandoverRoles(t *testing.T) {
	r, auth, _ := newTestRouter(t)

	token, _, err := auth.IssueToken(models.Caller{Tenant: "tenant-1", ActorID: "user-1", Role: models.RoleUser}, "Ada")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations/res-1/checkout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouterReadyPingsDatabase(t *testing.T) {
	r, _, mock := newTestRouter(t)
	mock.ExpectPing()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
