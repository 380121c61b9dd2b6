package models

import "time"

// CertificateType enumerates issuable certificate kinds.
type CertificateType string

const (
	CertificateTypeBonafide CertificateType = "BONAFIDE"
	CertificateTypeTransfer CertificateType = "TRANSFER"
	CertificateTypeConduct  CertificateType = "CONDUCT"
)

// Certificate is a record of an issued certificate. The rendered PDF is
// returned to the caller; only the issuance metadata is persisted.
type Certificate struct {
	ID        string          `db:"id" json:"id"`
	StudentID string          `db:"student_id" json:"student_id"`
	Type      CertificateType `db:"type" json:"type"`
	Serial    string          `db:"serial" json:"serial"`
	IssuedBy  string          `db:"issued_by" json:"issued_by"`
	IssuedAt  time.Time       `db:"issued_at" json:"issued_at"`
}
