package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/college-admin-api/internal/models"
)

// CertificateRepository persists certificate issuance records.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs a CertificateRepository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Create stores an issuance record.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.IssuedAt.IsZero() {
		cert.IssuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO certificates (id, student_id, type, serial, issued_by, issued_at)
        VALUES (:id, :student_id, :type, :serial, :issued_by, :issued_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// NextSerial reserves the next sequence number for the given year.
func (r *CertificateRepository) NextSerial(ctx context.Context, year int) (int, error) {
	const query = `SELECT COUNT(*) + 1 FROM certificates WHERE EXTRACT(YEAR FROM issued_at) = $1`
	var next int
	if err := r.db.GetContext(ctx, &next, query, year); err != nil {
		return 0, fmt.Errorf("next certificate serial: %w", err)
	}
	return next, nil
}

// ListForStudent returns issuance records for a student, newest first.
func (r *CertificateRepository) ListForStudent(ctx context.Context, studentID string) ([]models.Certificate, error) {
	const query = `SELECT id, student_id, type, serial, issued_by, issued_at FROM certificates WHERE student_id = $1 ORDER BY issued_at DESC`
	var certs []models.Certificate
	if err := r.db.SelectContext(ctx, &certs, query, studentID); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}
