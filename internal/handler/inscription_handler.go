package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
	"github.com/noah-isme/booking-engine-api/pkg/response"
)

type enrollmentService interface {
	TryEnroll(ctx context.Context, caller models.Caller, workshopID string, req models.EnrollRequest) (*models.Inscription, error)
	Approve(ctx context.Context, caller models.Caller, id string) (*models.Inscription, error)
	Reject(ctx context.Context, caller models.Caller, id string) (*models.Inscription, error)
}

// InscriptionHandler exposes workshop enrollment.
type InscriptionHandler struct {
	enrollments enrollmentService
}

// NewInscriptionHandler constructs InscriptionHandler.
func NewInscriptionHandler(enrollments enrollmentService) *InscriptionHandler {
	return &InscriptionHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Enroll the caller into a workshop
// @Tags Workshops
// @Accept json
// @Produce json
// @Param id path string true "Workshop ID"
// @Param payload body models.EnrollRequest false "Extraordinary request"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /workshops/{id}/inscriptions [post]
func (h *InscriptionHandler) Enroll(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.EnrollRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, invalidPayload(err))
			return
		}
	}
	ins, err := h.enrollments.TryEnroll(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ins)
}

// Approve godoc
// @Summary Approve an inscription
// @Tags Workshops
// @Produce json
// @Param id path string true "Inscription ID"
// @Success 200 {object} response.Envelope
// @Router /inscriptions/{id}/approve [post]
func (h *InscriptionHandler) Approve(c *gin.Context) {
	h.review(c, h.enrollments.Approve)
}

// Reject godoc
// @Summary Reject an inscription
// @Tags Workshops
// @Produce json
// @Param id path string true "Inscription ID"
// @Success 200 {object} response.Envelope
// @Router /inscriptions/{id}/reject [post]
func (h *InscriptionHandler) Reject(c *gin.Context) {
	h.review(c, h.enrollments.Reject)
}

func (h *InscriptionHandler) review(c *gin.Context, fn func(ctx context.Context, caller models.Caller, id string) (*models.Inscription, error)) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	ins, err := fn(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ins, nil)
}
