package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-engine-api/internal/middleware"
	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
)

func callerFromContext(c *gin.Context) (models.Caller, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		return models.Caller{}, false
	}
	return claims.Caller(), true
}

// resourceFromPath reads :type and :id, accepting plural type names.
func resourceFromPath(c *gin.Context) (models.ResourceRef, error) {
	kind, err := models.ParseResourceType(c.Param("type"))
	if err != nil {
		return models.ResourceRef{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unknown resource type")
	}
	return models.ResourceRef{Type: kind, ID: c.Param("id")}, nil
}

func queryTime(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, key+" is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, key+" must be RFC3339")
	}
	return t, nil
}

func queryDate(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, key+" is required")
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, key+" must use YYYY-MM-DD")
	}
	return t, nil
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
