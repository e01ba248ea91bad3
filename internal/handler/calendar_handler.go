package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-engine-api/internal/middleware"
	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
	"github.com/noah-isme/booking-engine-api/pkg/export"
	"github.com/noah-isme/booking-engine-api/pkg/response"
)

type calendarService interface {
	ListOccurrences(ctx context.Context, caller models.Caller, query models.OccurrenceQuery) ([]models.CalendarOccurrence, bool, error)
	Export(ctx context.Context, caller models.Caller, query models.OccurrenceQuery, format string) ([]byte, export.Renderer, error)
}

// CalendarHandler serves resource calendars.
type CalendarHandler struct {
	calendar calendarService
}

// NewCalendarHandler constructs CalendarHandler.
func NewCalendarHandler(calendar calendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// Occurrences godoc
// @Summary List reservations and block occurrences of a resource
// @Tags Resources
// @Produce json
// @Param type path string true "spaces or equipment"
// @Param id path string true "Resource ID"
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string true "Last date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf to download"
// @Success 200 {object} response.Envelope
// @Router /resources/{type}/{id}/occurrences [get]
func (h *CalendarHandler) Occurrences(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	ref, err := resourceFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	from, err := queryDate(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}
	query := models.OccurrenceQuery{Resource: ref, WindowStart: from, WindowEnd: to}

	if format := c.Query("format"); format != "" {
		body, renderer, err := h.calendar.Export(c.Request.Context(), caller, query, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		filename := fmt.Sprintf("calendar_%s_%s_%s.%s", ref.ID, from.Format("20060102"), to.Format("20060102"), renderer.Extension())
		response.Attachment(c, filename, renderer.ContentType(), body)
		return
	}

	items, cached, err := h.calendar.ListOccurrences(c.Request.Context(), caller, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}
