package models

import "time"

// FeeInvoiceStatus tracks the payment state of an invoice.
type FeeInvoiceStatus string

const (
	FeeInvoiceStatusUnpaid  FeeInvoiceStatus = "UNPAID"
	FeeInvoiceStatusPartial FeeInvoiceStatus = "PARTIAL"
	FeeInvoiceStatusPaid    FeeInvoiceStatus = "PAID"
	FeeInvoiceStatusWaived  FeeInvoiceStatus = "WAIVED"
)

// FeeInvoice bills a student for one semester's charges.
type FeeInvoice struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Semester   int              `db:"semester" json:"semester"`
	Category   string           `db:"category" json:"category"`
	Amount     int64            `db:"amount" json:"amount"`
	AmountPaid int64            `db:"amount_paid" json:"amount_paid"`
	Status     FeeInvoiceStatus `db:"status" json:"status"`
	DueDate    time.Time        `db:"due_date" json:"due_date"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// Outstanding returns the unpaid remainder of the invoice.
func (i FeeInvoice) Outstanding() int64 {
	if i.Status == FeeInvoiceStatusWaived {
		return 0
	}
	if remainder := i.Amount - i.AmountPaid; remainder > 0 {
		return remainder
	}
	return 0
}

// FeePayment records one payment against an invoice.
type FeePayment struct {
	ID        string    `db:"id" json:"id"`
	InvoiceID string    `db:"invoice_id" json:"invoice_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Mode      string    `db:"mode" json:"mode"`
	Reference string    `db:"reference" json:"reference"`
	PaidAt    time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeeInvoiceFilter captures invoice listing criteria.
type FeeInvoiceFilter struct {
	StudentID string
	Semester  *int
	Status    *FeeInvoiceStatus
	Page      int
	PageSize  int
}
