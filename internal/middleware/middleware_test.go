package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
	"github.com/noah-isme/booking-engine-api/pkg/logger"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type recordingObserver struct {
	path   string
	status int
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.path, r.status = path, status
}

func newRouter(role models.UserRole, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	claims := &models.JWTClaims{UserID: "user-1", TenantID: "tenant-1", Role: role}
	handlers := append([]gin.HandlerFunc{JWT(stubValidator{claims: claims})}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.TenantKey))
	})
	r.GET("/resources/:id", handlers...)
	return r
}

func perform(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/resources/42", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWT(t *testing.T) {
	r := newRouter(models.RoleUser)

	assert.Equal(t, http.StatusUnauthorized, perform(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, map[string]string{"Authorization": "Token good"}).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, map[string]string{"Authorization": "Bearer bad"}).Code)

	rec := perform(r, map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tenant-1", rec.Body.String())

	rec = perform(r, map[string]string{"Authorization": "Bearer good", TenantHeader: "tenant-2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	denied := newRouter(models.RoleUser, RequireAdministrative())
	assert.Equal(t, http.StatusForbidden, perform(denied, map[string]string{"Authorization": "Bearer good"}).Code)

	allowed := newRouter(models.RoleAdminResource, RequireAdministrative())
	assert.Equal(t, http.StatusOK, perform(allowed, map[string]string{"Authorization": "Bearer good"}).Code)

	guard := newRouter(models.RoleVigilancia, RequireRoles(models.RoleSuperuser, models.RoleVigilancia))
	assert.Equal(t, http.StatusOK, perform(guard, map[string]string{"Authorization": "Bearer good"}).Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/resources/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	perform(r, nil)
	assert.Equal(t, "/resources/:id", observer.path)
	assert.Equal(t, http.StatusAccepted, observer.status)
}

func TestResponseMetaReachesClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/resources/:id", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, gin.H{"meta": ExtractMeta(c)})
	})

	w := perform(r, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body.Meta[cacheHitKey])
	assert.Contains(t, body.Meta, processingTimeKey)
}
