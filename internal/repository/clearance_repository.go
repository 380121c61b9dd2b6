package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/college-admin-api/internal/models"
)

// ClearanceRepository manages no-due clearance requests.
type ClearanceRepository struct {
	db *sqlx.DB
}

// NewClearanceRepository constructs a ClearanceRepository.
func NewClearanceRepository(db *sqlx.DB) *ClearanceRepository {
	return &ClearanceRepository{db: db}
}

// Create inserts a clearance request.
func (r *ClearanceRepository) Create(ctx context.Context, clearance *models.Clearance) error {
	if clearance.ID == "" {
		clearance.ID = uuid.NewString()
	}
	if clearance.RequestedAt.IsZero() {
		clearance.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO clearances (id, student_id, status, holds, note, decided_by, decided_at, requested_at)
        VALUES (:id, :student_id, :status, :holds, :note, :decided_by, :decided_at, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, clearance); err != nil {
		return fmt.Errorf("create clearance: %w", err)
	}
	return nil
}

// FindByID fetches a clearance request.
func (r *ClearanceRepository) FindByID(ctx context.Context, id string) (*models.Clearance, error) {
	const query = `SELECT id, student_id, status, holds, note, decided_by, decided_at, requested_at FROM clearances WHERE id = $1`
	var clearance models.Clearance
	if err := r.db.GetContext(ctx, &clearance, query, id); err != nil {
		return nil, err
	}
	return &clearance, nil
}

// LatestForStudent returns the most recent clearance request for a student.
func (r *ClearanceRepository) LatestForStudent(ctx context.Context, studentID string) (*models.Clearance, error) {
	const query = `SELECT id, student_id, status, holds, note, decided_by, decided_at, requested_at FROM clearances WHERE student_id = $1 ORDER BY requested_at DESC LIMIT 1`
	var clearance models.Clearance
	if err := r.db.GetContext(ctx, &clearance, query, studentID); err != nil {
		return nil, err
	}
	return &clearance, nil
}

// ListPending returns clearance requests awaiting a decision, oldest first.
func (r *ClearanceRepository) ListPending(ctx context.Context, limit int) ([]models.Clearance, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, student_id, status, holds, note, decided_by, decided_at, requested_at FROM clearances WHERE status = $1 ORDER BY requested_at ASC LIMIT %d`, limit)
	var clearances []models.Clearance
	if err := r.db.SelectContext(ctx, &clearances, query, models.ClearanceStatusPending); err != nil {
		return nil, fmt.Errorf("list pending clearances: %w", err)
	}
	return clearances, nil
}

// Decide records the decision on a clearance request.
func (r *ClearanceRepository) Decide(ctx context.Context, id string, status models.ClearanceStatus, decidedBy string, note *string, decidedAt time.Time) error {
	const query = `UPDATE clearances SET status = $2, decided_by = $3, note = $4, decided_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, decidedBy, note, decidedAt); err != nil {
		return fmt.Errorf("decide clearance: %w", err)
	}
	return nil
}
