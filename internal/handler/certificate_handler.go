package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushq/college-admin-api/internal/models"
	"github.com/campushq/college-admin-api/internal/service"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/response"
)

// CertificateHandler exposes certificate issuance endpoints.
type CertificateHandler struct {
	service *service.CertificateService
}

// NewCertificateHandler constructs the handler.
func NewCertificateHandler(svc *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// Issue godoc
// @Summary Issue a certificate PDF for a student
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param type query string true "BONAFIDE, TRANSFER or CONDUCT"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /certificates/students/{id} [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	certType := models.CertificateType(strings.ToUpper(c.Query("type")))
	if certType == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "certificate type is required"))
		return
	}

	cert, pdf, err := h.service.Issue(c.Request.Context(), actorID(c), c.Param("id"), certType)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.pdf", strings.ToLower(string(cert.Type)), strings.ReplaceAll(cert.Serial, "/", "-"))
	response.File(c, "application/pdf", filename, pdf)
}

// History godoc
// @Summary List certificates issued to a student
// @Tags Certificates
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/students/{id} [get]
func (h *CertificateHandler) History(c *gin.Context) {
	certs, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}
