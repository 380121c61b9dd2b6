package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/college-admin-api/internal/models"
)

// HostelRepository manages hostel rooms and student occupancy.
type HostelRepository struct {
	db *sqlx.DB
}

// NewHostelRepository constructs a HostelRepository.
func NewHostelRepository(db *sqlx.DB) *HostelRepository {
	return &HostelRepository{db: db}
}

// ListRooms returns all rooms ordered by block and number.
func (r *HostelRepository) ListRooms(ctx context.Context) ([]models.HostelRoom, error) {
	const query = `SELECT id, block, number, capacity, occupied, monthly_charge, created_at, updated_at FROM hostel_rooms ORDER BY block, number`
	var rooms []models.HostelRoom
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list hostel rooms: %w", err)
	}
	return rooms, nil
}

// FindRoomByID fetches one room.
func (r *HostelRepository) FindRoomByID(ctx context.Context, id string) (*models.HostelRoom, error) {
	const query = `SELECT id, block, number, capacity, occupied, monthly_charge, created_at, updated_at FROM hostel_rooms WHERE id = $1`
	var room models.HostelRoom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom inserts a new room.
func (r *HostelRepository) CreateRoom(ctx context.Context, room *models.HostelRoom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now
	const query = `INSERT INTO hostel_rooms (id, block, number, capacity, occupied, monthly_charge, created_at, updated_at)
        VALUES (:id, :block, :number, :capacity, :occupied, :monthly_charge, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create hostel room: %w", err)
	}
	return nil
}

// Assign places a student in a room, guarding capacity inside one transaction.
func (r *HostelRepository) Assign(ctx context.Context, roomID, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const claim = `UPDATE hostel_rooms SET occupied = occupied + 1, updated_at = $2 WHERE id = $1 AND occupied < capacity`
	res, err := tx.ExecContext(ctx, claim, roomID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("claim hostel room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim hostel room rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const place = `UPDATE students SET hostel_room_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, place, studentID, roomID, time.Now().UTC()); err != nil {
		return fmt.Errorf("place student in room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign tx: %w", err)
	}
	return nil
}

// Vacate removes a student from their room and releases the bed.
func (r *HostelRepository) Vacate(ctx context.Context, roomID, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vacate tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const release = `UPDATE hostel_rooms SET occupied = occupied - 1, updated_at = $2 WHERE id = $1 AND occupied > 0`
	if _, err := tx.ExecContext(ctx, release, roomID, time.Now().UTC()); err != nil {
		return fmt.Errorf("release hostel bed: %w", err)
	}

	const clear = `UPDATE students SET hostel_room_id = NULL, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, clear, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear student room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vacate tx: %w", err)
	}
	return nil
}

// OccupancyByBlock aggregates utilisation per block.
func (r *HostelRepository) OccupancyByBlock(ctx context.Context) ([]models.HostelOccupancy, error) {
	const query = `SELECT block, SUM(capacity) AS capacity, SUM(occupied) AS occupied FROM hostel_rooms GROUP BY block ORDER BY block`
	var occupancy []models.HostelOccupancy
	if err := r.db.SelectContext(ctx, &occupancy, query); err != nil {
		return nil, fmt.Errorf("hostel occupancy by block: %w", err)
	}
	return occupancy, nil
}

// OccupancySummary aggregates utilisation across all rooms.
func (r *HostelRepository) OccupancySummary(ctx context.Context) (*models.HostelOccupancySummary, error) {
	const query = `SELECT COUNT(*) AS total_rooms, COALESCE(SUM(capacity), 0) AS total_capacity, COALESCE(SUM(occupied), 0) AS occupied FROM hostel_rooms`
	var summary models.HostelOccupancySummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("hostel occupancy summary: %w", err)
	}
	return &summary, nil
}
