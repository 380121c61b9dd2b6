package models

import "time"

// ClearanceStatus tracks a no-due clearance request.
type ClearanceStatus string

const (
	ClearanceStatusPending  ClearanceStatus = "PENDING"
	ClearanceStatusCleared  ClearanceStatus = "CLEARED"
	ClearanceStatusRejected ClearanceStatus = "REJECTED"
)

// ClearanceHold names a department blocking a clearance.
type ClearanceHold struct {
	Department string `json:"department"`
	Reason     string `json:"reason"`
	Amount     int64  `json:"amount,omitempty"`
}

// Clearance is a no-due clearance request for one student.
type Clearance struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	Status      ClearanceStatus `db:"status" json:"status"`
	Holds       []byte          `db:"holds" json:"-"`
	Note        *string         `db:"note" json:"note,omitempty"`
	DecidedBy   *string         `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt   *time.Time      `db:"decided_at" json:"decided_at,omitempty"`
	RequestedAt time.Time       `db:"requested_at" json:"requested_at"`
}
