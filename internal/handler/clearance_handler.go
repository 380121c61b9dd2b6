package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/college-admin-api/internal/service"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/response"
)

// ClearanceHandler exposes no-due clearance endpoints.
type ClearanceHandler struct {
	service *service.ClearanceService
}

// NewClearanceHandler constructs the handler.
func NewClearanceHandler(svc *service.ClearanceService) *ClearanceHandler {
	return &ClearanceHandler{service: svc}
}

// Request godoc
// @Summary Open a clearance request for a student
// @Tags Clearance
// @Produce json
// @Param id path string true "Student ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clearances/students/{id} [post]
func (h *ClearanceHandler) Request(c *gin.Context) {
	clearance, holds, err := h.service.Request(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"clearance": clearance, "holds": holds}, nil)
}

// ListPending godoc
// @Summary List clearance requests awaiting a decision
// @Tags Clearance
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /clearances/pending [get]
func (h *ClearanceHandler) ListPending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	clearances, err := h.service.ListPending(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clearances, nil)
}

// Decide godoc
// @Summary Approve or reject a clearance request
// @Tags Clearance
// @Accept json
// @Produce json
// @Param id path string true "Clearance ID"
// @Param payload body service.ClearanceDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /clearances/decisions/{id} [post]
func (h *ClearanceHandler) Decide(c *gin.Context) {
	var req service.ClearanceDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	clearance, err := h.service.Decide(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clearance, nil)
}
