package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/college-admin-api/internal/models"
)

// FeeRepository manages fee invoices and payments.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// ListInvoices returns invoices matching the filter with a total count.
func (r *FeeRepository) ListInvoices(ctx context.Context, filter models.FeeInvoiceFilter) ([]models.FeeInvoice, int, error) {
	base := "FROM fee_invoices WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Semester != nil {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, semester, category, amount, amount_paid, status, due_date, created_at, updated_at %s ORDER BY due_date DESC LIMIT %d OFFSET %d`, base, size, offset)

	var invoices []models.FeeInvoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fee invoices: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fee invoices: %w", err)
	}
	return invoices, total, nil
}

// FindInvoiceByID fetches one invoice.
func (r *FeeRepository) FindInvoiceByID(ctx context.Context, id string) (*models.FeeInvoice, error) {
	const query = `SELECT id, student_id, semester, category, amount, amount_paid, status, due_date, created_at, updated_at FROM fee_invoices WHERE id = $1`
	var invoice models.FeeInvoice
	if err := r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// CreateInvoice inserts a new invoice.
func (r *FeeRepository) CreateInvoice(ctx context.Context, invoice *models.FeeInvoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	const query = `INSERT INTO fee_invoices (id, student_id, semester, category, amount, amount_paid, status, due_date, created_at, updated_at)
        VALUES (:id, :student_id, :semester, :category, :amount, :amount_paid, :status, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("create fee invoice: %w", err)
	}
	return nil
}

// RecordPayment stores a payment and advances the invoice balance in one transaction.
func (r *FeeRepository) RecordPayment(ctx context.Context, payment *models.FeePayment, newPaid int64, newStatus models.FeeInvoiceStatus) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertPayment = `INSERT INTO fee_payments (id, invoice_id, amount, mode, reference, paid_at, created_at)
        VALUES (:id, :invoice_id, :amount, :mode, :reference, :paid_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertPayment, payment); err != nil {
		return fmt.Errorf("insert fee payment: %w", err)
	}

	const updateInvoice = `UPDATE fee_invoices SET amount_paid = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateInvoice, payment.InvoiceID, newPaid, newStatus, time.Now().UTC()); err != nil {
		return fmt.Errorf("update invoice balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment tx: %w", err)
	}
	return nil
}

// OutstandingByStudent sums the unpaid remainder across a student's invoices.
func (r *FeeRepository) OutstandingByStudent(ctx context.Context, studentID string) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount - amount_paid), 0) FROM fee_invoices WHERE student_id = $1 AND status IN ($2, $3)`
	var outstanding int64
	if err := r.db.GetContext(ctx, &outstanding, query, studentID, models.FeeInvoiceStatusUnpaid, models.FeeInvoiceStatusPartial); err != nil {
		return 0, fmt.Errorf("sum outstanding for student: %w", err)
	}
	return outstanding, nil
}

// CountOutstandingBySemester counts distinct students with unpaid dues per semester.
func (r *FeeRepository) CountOutstandingBySemester(ctx context.Context) ([]models.SemesterCount, error) {
	const query = `SELECT semester, COUNT(DISTINCT student_id) AS count FROM fee_invoices
        WHERE status IN ($1, $2) GROUP BY semester ORDER BY semester`
	var counts []models.SemesterCount
	if err := r.db.SelectContext(ctx, &counts, query, models.FeeInvoiceStatusUnpaid, models.FeeInvoiceStatusPartial); err != nil {
		return nil, fmt.Errorf("count outstanding dues by semester: %w", err)
	}
	return counts, nil
}

// CollectionSummary aggregates invoiced versus collected totals.
func (r *FeeRepository) CollectionSummary(ctx context.Context) (*models.FeeCollectionSummary, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) AS total_invoiced,
        COALESCE(SUM(amount_paid), 0) AS total_collected,
        COALESCE(SUM(CASE WHEN status IN ($1, $2) THEN amount - amount_paid ELSE 0 END), 0) AS outstanding
        FROM fee_invoices`
	var summary models.FeeCollectionSummary
	if err := r.db.GetContext(ctx, &summary, query, models.FeeInvoiceStatusUnpaid, models.FeeInvoiceStatusPartial); err != nil {
		return nil, fmt.Errorf("fee collection summary: %w", err)
	}
	return &summary, nil
}
