package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-engine-api/internal/models"
	appErrors "github.com/noah-isme/booking-engine-api/pkg/errors"
	"github.com/noah-isme/booking-engine-api/pkg/response"
)

type recurringBlockService interface {
	Create(ctx context.Context, caller models.Caller, req models.RecurringBlockRequest) (*models.RecurringBlock, error)
	Update(ctx context.Context, caller models.Caller, id string, req models.RecurringBlockRequest) (*models.RecurringBlock, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
	Get(ctx context.Context, caller models.Caller, id string) (*models.RecurringBlock, error)
	List(ctx context.Context, caller models.Caller, filter models.RecurringBlockFilter) ([]models.RecurringBlock, error)
	AddException(ctx context.Context, caller models.Caller, blockID string, req models.ExceptionRequest) (*models.RecurringBlockException, error)
	ListExceptions(ctx context.Context, caller models.Caller, blockID string) ([]models.RecurringBlockException, error)
	DeleteException(ctx context.Context, caller models.Caller, id string) error
}

// RecurringBlockHandler manages weekly blocks and their exceptions.
type RecurringBlockHandler struct {
	blocks recurringBlockService
}

// NewRecurringBlockHandler constructs RecurringBlockHandler.
func NewRecurringBlockHandler(blocks recurringBlockService) *RecurringBlockHandler {
	return &RecurringBlockHandler{blocks: blocks}
}

// List godoc
// @Summary List recurring blocks
// @Tags RecurringBlocks
// @Produce json
// @Param resourceType query string false "spaces or equipment"
// @Param resourceId query string false "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /recurring-blocks [get]
func (h *RecurringBlockHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.RecurringBlockFilter
	if rawType, rawID := c.Query("resourceType"), c.Query("resourceId"); rawType != "" && rawID != "" {
		kind, err := models.ParseResourceType(rawType)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unknown resource type"))
			return
		}
		filter.Resource = &models.ResourceRef{Type: kind, ID: rawID}
	}
	blocks, err := h.blocks.List(c.Request.Context(), caller, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}

// Get godoc
// @Summary Get a recurring block
// @Tags RecurringBlocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /recurring-blocks/{id} [get]
func (h *RecurringBlockHandler) Get(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	block, err := h.blocks.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// Create godoc
// @Summary Create a recurring block after scanning every occurrence for conflicts
// @Tags RecurringBlocks
// @Accept json
// @Produce json
// @Param payload body models.RecurringBlockRequest true "Block"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /recurring-blocks [post]
func (h *RecurringBlockHandler) Create(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.RecurringBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	block, err := h.blocks.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// Update godoc
// @Summary Replace a recurring block
// @Tags RecurringBlocks
// @Accept json
// @Produce json
// @Param id path string true "Block ID"
// @Param payload body models.RecurringBlockRequest true "Block"
// @Success 200 {object} response.Envelope
// @Router /recurring-blocks/{id} [put]
func (h *RecurringBlockHandler) Update(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.RecurringBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	block, err := h.blocks.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, block, nil)
}

// Delete godoc
// @Summary Delete a recurring block
// @Tags RecurringBlocks
// @Param id path string true "Block ID"
// @Success 204
// @Router /recurring-blocks/{id} [delete]
func (h *RecurringBlockHandler) Delete(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.blocks.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListExceptions godoc
// @Summary List per-date overrides of a block
// @Tags RecurringBlocks
// @Produce json
// @Param id path string true "Block ID"
// @Success 200 {object} response.Envelope
// @Router /recurring-blocks/{id}/exceptions [get]
func (h *RecurringBlockHandler) ListExceptions(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.blocks.ListExceptions(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// AddException godoc
// @Summary Override the times of one occurrence
// @Tags RecurringBlocks
// @Accept json
// @Produce json
// @Param id path string true "Block ID"
// @Param payload body models.ExceptionRequest true "Override"
// @Success 201 {object} response.Envelope
// @Router /recurring-blocks/{id}/exceptions [post]
func (h *RecurringBlockHandler) AddException(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	ex, err := h.blocks.AddException(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ex)
}

// DeleteException godoc
// @Summary Remove an override
// @Tags RecurringBlocks
// @Param id path string true "Exception ID"
// @Success 204
// @Router /recurring-blocks/exceptions/{id} [delete]
func (h *RecurringBlockHandler) DeleteException(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.blocks.DeleteException(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
