package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/college-admin-api/internal/models"
	"github.com/campushq/college-admin-api/internal/service"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/response"
)

// FeeHandler exposes invoicing and payment endpoints.
type FeeHandler struct {
	service *service.FeeService
}

// NewFeeHandler constructs the handler.
func NewFeeHandler(svc *service.FeeService) *FeeHandler {
	return &FeeHandler{service: svc}
}

// ListInvoices godoc
// @Summary List fee invoices
// @Tags Fees
// @Produce json
// @Param student_id query string false "Student ID"
// @Param semester query int false "Semester 1-8"
// @Param status query string false "Invoice status"
// @Success 200 {object} response.Envelope
// @Router /fees/invoices [get]
func (h *FeeHandler) ListInvoices(c *gin.Context) {
	filter := models.FeeInvoiceFilter{StudentID: c.Query("student_id")}
	if raw := c.Query("semester"); raw != "" {
		semester, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be a number"))
			return
		}
		filter.Semester = &semester
	}
	if raw := c.Query("status"); raw != "" {
		status := models.FeeInvoiceStatus(raw)
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	invoices, pagination, err := h.service.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, pagination)
}

// CreateInvoice godoc
// @Summary Bill a student
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.CreateInvoiceRequest true "Invoice payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/invoices [post]
func (h *FeeHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid invoice payload"))
		return
	}
	invoice, err := h.service.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, invoice, nil)
}

// RecordPayment godoc
// @Summary Record a payment against an invoice
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /fees/invoices/{id}/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payment payload"))
		return
	}
	invoice, err := h.service.RecordPayment(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// StudentOutstanding godoc
// @Summary Total outstanding dues for a student
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /fees/students/{id}/outstanding [get]
func (h *FeeHandler) StudentOutstanding(c *gin.Context) {
	outstanding, err := h.service.OutstandingForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": c.Param("id"), "outstanding": outstanding}, nil)
}
