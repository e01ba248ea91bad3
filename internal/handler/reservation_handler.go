package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-engine-api/internal/interval"
	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
	"github.com/noah-isme/booking-engine-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, caller models.Caller, req models.CreateReservationRequest) (*models.Submission, error)
	GetSubmission(ctx context.Context, caller models.Caller, submissionID string) (*models.Submission, error)
}

type reviewService interface {
	Approve(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error)
	Reject(ctx context.Context, caller models.Caller, id string, req models.RejectReservationRequest) (*models.Reservation, error)
	Checkout(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error)
	Checkin(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error)
}

type conflictPreflight interface {
	Preflight(ctx context.Context, caller models.Caller, ref models.ResourceRef, candidate interval.Interval, excludeID string) (models.ConflictResult, error)
}

// ReservationHandler exposes booking submissions and their review.
type ReservationHandler struct {
	bookings  bookingService
	reviews   reviewService
	conflicts conflictPreflight
}

// NewReservationHandler constructs ReservationHandler.
func NewReservationHandler(bookings bookingService, reviews reviewService, conflicts conflictPreflight) *ReservationHandler {
	return &ReservationHandler{bookings: bookings, reviews: reviews, conflicts: conflicts}
}

// Create godoc
// @Summary Submit a booking for one or more resources
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body models.CreateReservationRequest true "Submission"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	submission, err := h.bookings.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// GetSubmission godoc
// @Summary Get a submission with its aggregate status
// @Tags Reservations
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/submissions/{id} [get]
func (h *ReservationHandler) GetSubmission(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	submission, err := h.bookings.GetSubmission(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Approve godoc
// @Summary Approve a pending reservation
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/approve [post]
func (h *ReservationHandler) Approve(c *gin.Context) {
	h.transition(c, h.reviews.Approve)
}

// Reject godoc
// @Summary Reject a pending reservation
// @Tags Reservations
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param payload body models.RejectReservationRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/reject [post]
func (h *ReservationHandler) Reject(c *gin.Context) {
	var req models.RejectReservationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err))
			return
		}
	}
	h.transition(c, func(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error) {
		return h.reviews.Reject(ctx, caller, id, req)
	})
}

// Checkout godoc
// @Summary Record equipment leaving custody
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/checkout [post]
func (h *ReservationHandler) Checkout(c *gin.Context) {
	h.transition(c, h.reviews.Checkout)
}

// Checkin godoc
// @Summary Record equipment return
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Envelope
// @Router /reservations/{id}/checkin [post]
func (h *ReservationHandler) Checkin(c *gin.Context) {
	h.transition(c, h.reviews.Checkin)
}

// Conflicts godoc
// @Summary Check an interval for conflicts without booking
// @Tags Resources
// @Produce json
// @Param type path string true "spaces or equipment"
// @Param id path string true "Resource ID"
// @Param start query string true "RFC3339 start"
// @Param end query string true "RFC3339 end"
// @Param exclude query string false "Reservation ID to ignore"
// @Success 200 {object} response.Envelope
// @Router /resources/{type}/{id}/conflicts [get]
func (h *ReservationHandler) Conflicts(c *gin.Context) {
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
	start, err := queryTime(c, "start")
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := queryTime(c, "end")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.conflicts.Preflight(c.Request.Context(), caller, ref, interval.Interval{Start: start, End: end}, c.Query("exclude"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"has_conflict": result.HasConflict(), "conflicts": result}, nil)
}

func (h *ReservationHandler) transition(c *gin.Context, fn func(ctx context.Context, caller models.Caller, id string) (*models.Reservation, error)) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	reservation, err := fn(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reservation, nil)
}
