package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type feeRepoStub struct {
	invoices    map[string]*models.FeeInvoice
	payments    []*models.FeePayment
	outstanding int64
}

func newFeeRepoStub() *feeRepoStub {
	return &feeRepoStub{invoices: map[string]*models.FeeInvoice{}}
}

func (r *feeRepoStub) ListInvoices(ctx context.Context, filter models.FeeInvoiceFilter) ([]models.FeeInvoice, int, error) {
	var out []models.FeeInvoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (r *feeRepoStub) FindInvoiceByID(ctx context.Context, id string) (*models.FeeInvoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *inv
	return &clone, nil
}

func (r *feeRepoStub) CreateInvoice(ctx context.Context, invoice *models.FeeInvoice) error {
	if invoice.ID == "" {
		invoice.ID = "inv-gen"
	}
	r.invoices[invoice.ID] = invoice
	return nil
}

func (r *feeRepoStub) RecordPayment(ctx context.Context, payment *models.FeePayment, newPaid int64, newStatus models.FeeInvoiceStatus) error {
	r.payments = append(r.payments, payment)
	inv := r.invoices[payment.InvoiceID]
	inv.AmountPaid = newPaid
	inv.Status = newStatus
	return nil
}

func (r *feeRepoStub) OutstandingByStudent(ctx context.Context, studentID string) (int64, error) {
	return r.outstanding, nil
}

func TestFeePaymentAdvancesInvoiceStatus(t *testing.T) {
	repo := newFeeRepoStub()
	repo.invoices["inv-1"] = &models.FeeInvoice{
		ID: "inv-1", StudentID: "s1", Semester: 2, Amount: 10000,
		Status: models.FeeInvoiceStatusUnpaid, DueDate: time.Now(),
	}
	svc := NewFeeService(repo, nil, nil, nil)

	invoice, err := svc.RecordPayment(context.Background(), "admin-1", "inv-1", RecordPaymentRequest{Amount: 4000, Mode: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, models.FeeInvoiceStatusPartial, invoice.Status)

	invoice, err = svc.RecordPayment(context.Background(), "admin-1", "inv-1", RecordPaymentRequest{Amount: 6000, Mode: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, models.FeeInvoiceStatusPaid, invoice.Status)
	assert.Len(t, repo.payments, 2)
}

func TestFeePaymentRejectsOverpayment(t *testing.T) {
	repo := newFeeRepoStub()
	repo.invoices["inv-1"] = &models.FeeInvoice{
		ID: "inv-1", Amount: 10000, AmountPaid: 8000,
		Status: models.FeeInvoiceStatusPartial, DueDate: time.Now(),
	}
	svc := NewFeeService(repo, nil, nil, nil)

	_, err := svc.RecordPayment(context.Background(), "admin-1", "inv-1", RecordPaymentRequest{Amount: 5000, Mode: "CASH"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeePaymentRejectsSettledInvoice(t *testing.T) {
	repo := newFeeRepoStub()
	repo.invoices["inv-1"] = &models.FeeInvoice{ID: "inv-1", Amount: 10000, AmountPaid: 10000, Status: models.FeeInvoiceStatusPaid}
	svc := NewFeeService(repo, nil, nil, nil)

	_, err := svc.RecordPayment(context.Background(), "admin-1", "inv-1", RecordPaymentRequest{Amount: 100, Mode: "CASH"})
	require.Error(t, err)
}

func TestFeePaymentUnknownInvoice(t *testing.T) {
	svc := NewFeeService(newFeeRepoStub(), nil, nil, nil)

	_, err := svc.RecordPayment(context.Background(), "admin-1", "missing", RecordPaymentRequest{Amount: 100, Mode: "CASH"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeeWaivedInvoiceHasNoOutstanding(t *testing.T) {
	invoice := models.FeeInvoice{Amount: 5000, AmountPaid: 0, Status: models.FeeInvoiceStatusWaived}
	assert.EqualValues(t, 0, invoice.Outstanding())
}
