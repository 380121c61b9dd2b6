package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/college-admin-api/internal/service"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/response"
)

// HostelHandler exposes hostel room endpoints.
type HostelHandler struct {
	service *service.HostelService
}

// NewHostelHandler constructs the handler.
func NewHostelHandler(svc *service.HostelService) *HostelHandler {
	return &HostelHandler{service: svc}
}

// ListRooms godoc
// @Summary List hostel rooms
// @Tags Hostel
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hostel/rooms [get]
func (h *HostelHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// CreateRoom godoc
// @Summary Register a hostel room
// @Tags Hostel
// @Accept json
// @Produce json
// @Param payload body service.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /hostel/rooms [post]
func (h *HostelHandler) CreateRoom(c *gin.Context) {
	var req service.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid room payload"))
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, room, nil)
}

// Assign godoc
// @Summary Assign a student to a room
// @Tags Hostel
// @Produce json
// @Param id path string true "Room ID"
// @Param student_id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /hostel/rooms/{id}/students/{student_id} [post]
func (h *HostelHandler) Assign(c *gin.Context) {
	if err := h.service.Assign(c.Request.Context(), c.Param("id"), c.Param("student_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Vacate godoc
// @Summary Vacate a student's room
// @Tags Hostel
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Router /hostel/students/{student_id} [delete]
func (h *HostelHandler) Vacate(c *gin.Context) {
	if err := h.service.Vacate(c.Request.Context(), c.Param("student_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Occupancy godoc
// @Summary Hostel occupancy per block
// @Tags Hostel
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /hostel/occupancy [get]
func (h *HostelHandler) Occupancy(c *gin.Context) {
	occupancy, err := h.service.Occupancy(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occupancy, nil)
}
