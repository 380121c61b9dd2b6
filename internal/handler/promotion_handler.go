package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/college-admin-api/internal/dto"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/response"
)

type promotionService interface {
	Stats(ctx context.Context) (*dto.PromotionStatsResponse, error)
	Promote(ctx context.Context, req dto.PromoteRequest, actorID string) (*dto.PromoteResponse, error)
	UndoLast(ctx context.Context, actorID string) (*dto.UndoResponse, error)
}

// PromotionHandler exposes the semester promotion endpoints.
type PromotionHandler struct {
	service promotionService
}

// NewPromotionHandler constructs the handler.
func NewPromotionHandler(service promotionService) *PromotionHandler {
	return &PromotionHandler{service: service}
}

// Stats godoc
// @Summary Current semester distribution and recommended transitions
// @Tags Promotion
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /promotion/stats [get]
func (h *PromotionHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Promote godoc
// @Summary Execute a promotion batch
// @Tags Promotion
// @Accept json
// @Produce json
// @Param payload body dto.PromoteRequest true "Selected transitions"
// @Success 200 {object} response.Envelope
// @Router /promotion/promote [post]
func (h *PromotionHandler) Promote(c *gin.Context) {
	var req dto.PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid promotion payload"))
		return
	}
	var actorID string
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	result, err := h.service.Promote(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Undo godoc
// @Summary Undo the most recent promotion batch
// @Tags Promotion
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /promotion/undo [post]
func (h *PromotionHandler) Undo(c *gin.Context) {
	var actorID string
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	result, err := h.service.UndoLast(c.Request.Context(), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
