package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushq/college-admin-api/internal/models"
)

// PromotionTx is the set of mutations available inside a promotion
// transaction. The executor and undo handler only ever touch student
// semester/status fields and the history table through it.
type PromotionTx interface {
	UpdateSemester(ctx context.Context, ids []string, semester int) error
	UpdateStatus(ctx context.Context, ids []string, status models.StudentStatus) error
	InsertHistory(ctx context.Context, entry *models.PromotionHistory) error
	DeleteHistory(ctx context.Context, id string) error
}

// PromotionRepository persists promotion batches and their history.
type PromotionRepository struct {
	db *sqlx.DB
}

// NewPromotionRepository constructs the repository.
func NewPromotionRepository(db *sqlx.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// CountApprovedBySemester groups approved students by current semester.
func (r *PromotionRepository) CountApprovedBySemester(ctx context.Context) ([]models.SemesterCount, error) {
	const query = `SELECT semester, COUNT(*) AS count FROM students
		WHERE status = $1 AND semester BETWEEN $2 AND $3
		GROUP BY semester ORDER BY semester`
	var counts []models.SemesterCount
	if err := r.db.SelectContext(ctx, &counts, query, models.StudentStatusApproved, models.MinSemester, models.MaxSemester); err != nil {
		return nil, fmt.Errorf("count students by semester: %w", err)
	}
	return counts, nil
}

// ApprovedIDsBySemester lists identifiers of approved students sitting at
// the given semester.
func (r *PromotionRepository) ApprovedIDsBySemester(ctx context.Context, semester int) ([]string, error) {
	const query = `SELECT id FROM students WHERE status = $1 AND semester = $2 ORDER BY id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.StudentStatusApproved, semester); err != nil {
		return nil, fmt.Errorf("list students at semester %d: %w", semester, err)
	}
	return ids, nil
}

// LatestHistory returns the most recent promotion history entry. The
// caller receives sql.ErrNoRows untouched when the table is empty.
func (r *PromotionRepository) LatestHistory(ctx context.Context) (*models.PromotionHistory, error) {
	const query = `SELECT id, semester_type, student_ids, details, created_at
		FROM promotion_history ORDER BY created_at DESC LIMIT 1`
	var entry models.PromotionHistory
	if err := r.db.GetContext(ctx, &entry, query); err != nil {
		return nil, err
	}
	return &entry, nil
}

// InTx runs fn inside one database transaction. Any error from fn rolls
// the whole batch back.
func (r *PromotionRepository) InTx(ctx context.Context, fn func(tx PromotionTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin promotion tx: %w", err)
	}
	if err := fn(&promotionTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback promotion tx after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit promotion tx: %w", err)
	}
	return nil
}

type promotionTx struct {
	tx *sqlx.Tx
}

func (p *promotionTx) UpdateSemester(ctx context.Context, ids []string, semester int) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE students SET semester = $1, updated_at = $2 WHERE id = ANY($3)`
	if _, err := p.tx.ExecContext(ctx, query, semester, time.Now().UTC(), pq.Array(ids)); err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	return nil
}

func (p *promotionTx) UpdateStatus(ctx context.Context, ids []string, status models.StudentStatus) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE students SET status = $1, updated_at = $2 WHERE id = ANY($3)`
	if _, err := p.tx.ExecContext(ctx, query, status, time.Now().UTC(), pq.Array(ids)); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

func (p *promotionTx) InsertHistory(ctx context.Context, entry *models.PromotionHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO promotion_history (id, semester_type, student_ids, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := p.tx.ExecContext(ctx, query, entry.ID, entry.SemesterType, entry.StudentIDs, entry.Details, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert promotion history: %w", err)
	}
	return nil
}

func (p *promotionTx) DeleteHistory(ctx context.Context, id string) error {
	const query = `DELETE FROM promotion_history WHERE id = $1`
	if _, err := p.tx.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete promotion history: %w", err)
	}
	return nil
}
