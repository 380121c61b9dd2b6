package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/college-admin-api/internal/service"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/response"
)

// BusHandler exposes transport route endpoints.
type BusHandler struct {
	service *service.BusService
}

// NewBusHandler constructs the handler.
func NewBusHandler(svc *service.BusService) *BusHandler {
	return &BusHandler{service: svc}
}

// ListRoutes godoc
// @Summary List bus routes
// @Tags Transport
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bus/routes [get]
func (h *BusHandler) ListRoutes(c *gin.Context) {
	routes, err := h.service.ListRoutes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, routes, nil)
}

// CreateRoute godoc
// @Summary Register a bus route
// @Tags Transport
// @Accept json
// @Produce json
// @Param payload body service.CreateRouteRequest true "Route payload"
// @Success 201 {object} response.Envelope
// @Router /bus/routes [post]
func (h *BusHandler) CreateRoute(c *gin.Context) {
	var req service.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid route payload"))
		return
	}
	route, err := h.service.CreateRoute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, route, nil)
}

// Subscribe godoc
// @Summary Subscribe a student to a route
// @Tags Transport
// @Produce json
// @Param id path string true "Route ID"
// @Param student_id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bus/routes/{id}/students/{student_id} [post]
func (h *BusHandler) Subscribe(c *gin.Context) {
	if err := h.service.Subscribe(c.Request.Context(), c.Param("id"), c.Param("student_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unsubscribe godoc
// @Summary Remove a student's route subscription
// @Tags Transport
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Router /bus/students/{student_id} [delete]
func (h *BusHandler) Unsubscribe(c *gin.Context) {
	if err := h.service.Unsubscribe(c.Request.Context(), c.Param("student_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
