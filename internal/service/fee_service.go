package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type feeRepository interface {
	ListInvoices(ctx context.Context, filter models.FeeInvoiceFilter) ([]models.FeeInvoice, int, error)
	FindInvoiceByID(ctx context.Context, id string) (*models.FeeInvoice, error)
	CreateInvoice(ctx context.Context, invoice *models.FeeInvoice) error
	RecordPayment(ctx context.Context, payment *models.FeePayment, newPaid int64, newStatus models.FeeInvoiceStatus) error
	OutstandingByStudent(ctx context.Context, studentID string) (int64, error)
}

// CreateInvoiceRequest bills a student for one semester's charges.
type CreateInvoiceRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	Semester  int       `json:"semester" validate:"required,min=1,max=8"`
	Category  string    `json:"category" validate:"required"`
	Amount    int64     `json:"amount" validate:"required,gt=0"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// RecordPaymentRequest applies a payment to an invoice.
type RecordPaymentRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Mode      string `json:"mode" validate:"required"`
	Reference string `json:"reference"`
}

// FeeService handles invoicing and payment collection.
type FeeService struct {
	repo      feeRepository
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs the fee service.
func NewFeeService(repo feeRepository, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// ListInvoices returns invoices and pagination metadata.
func (s *FeeService) ListInvoices(ctx context.Context, filter models.FeeInvoiceFilter) ([]models.FeeInvoice, *models.Pagination, error) {
	invoices, total, err := s.repo.ListInvoices(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return invoices, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// CreateInvoice bills a student.
func (s *FeeService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*models.FeeInvoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}
	invoice := &models.FeeInvoice{
		StudentID: req.StudentID,
		Semester:  req.Semester,
		Category:  req.Category,
		Amount:    req.Amount,
		Status:    models.FeeInvoiceStatusUnpaid,
		DueDate:   req.DueDate,
	}
	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}
	return invoice, nil
}

// RecordPayment applies a payment against an invoice and advances its status.
func (s *FeeService) RecordPayment(ctx context.Context, actorID, invoiceID string, req RecordPaymentRequest) (*models.FeeInvoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	invoice, err := s.repo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	if invoice.Status == models.FeeInvoiceStatusPaid || invoice.Status == models.FeeInvoiceStatusWaived {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invoice is already settled")
	}
	if req.Amount > invoice.Outstanding() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment exceeds outstanding amount")
	}

	newPaid := invoice.AmountPaid + req.Amount
	newStatus := models.FeeInvoiceStatusPartial
	if newPaid >= invoice.Amount {
		newStatus = models.FeeInvoiceStatusPaid
	}

	payment := &models.FeePayment{
		InvoiceID: invoice.ID,
		Amount:    req.Amount,
		Mode:      req.Mode,
		Reference: req.Reference,
		PaidAt:    time.Now().UTC(),
	}
	if err := s.repo.RecordPayment(ctx, payment, newPaid, newStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	if s.audit != nil {
		entry := &models.AuditLog{
			Action:     models.AuditActionFeePayment,
			Resource:   "fees",
			ResourceID: &invoice.ID,
			NewValues:  []byte(fmt.Sprintf(`{"amount":%d,"mode":%q}`, req.Amount, req.Mode)),
		}
		if actorID != "" {
			entry.UserID = &actorID
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record payment audit log", zap.Error(err))
		}
	}

	invoice.AmountPaid = newPaid
	invoice.Status = newStatus
	return invoice, nil
}

// OutstandingForStudent reports the total unpaid remainder for one student.
func (s *FeeService) OutstandingForStudent(ctx context.Context, studentID string) (int64, error) {
	outstanding, err := s.repo.OutstandingByStudent(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum outstanding dues")
	}
	return outstanding, nil
}
