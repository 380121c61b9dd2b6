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

// BusRepository manages transport routes and subscriptions.
type BusRepository struct {
	db *sqlx.DB
}

// NewBusRepository constructs a BusRepository.
func NewBusRepository(db *sqlx.DB) *BusRepository {
	return &BusRepository{db: db}
}

// ListRoutes returns all routes ordered by name.
func (r *BusRepository) ListRoutes(ctx context.Context) ([]models.BusRoute, error) {
	const query = `SELECT id, name, stops, capacity, subscribed, monthly_charge, created_at, updated_at FROM bus_routes ORDER BY name`
	var routes []models.BusRoute
	if err := r.db.SelectContext(ctx, &routes, query); err != nil {
		return nil, fmt.Errorf("list bus routes: %w", err)
	}
	return routes, nil
}

// FindRouteByID fetches one route.
func (r *BusRepository) FindRouteByID(ctx context.Context, id string) (*models.BusRoute, error) {
	const query = `SELECT id, name, stops, capacity, subscribed, monthly_charge, created_at, updated_at FROM bus_routes WHERE id = $1`
	var route models.BusRoute
	if err := r.db.GetContext(ctx, &route, query, id); err != nil {
		return nil, err
	}
	return &route, nil
}

// CreateRoute inserts a new route.
func (r *BusRepository) CreateRoute(ctx context.Context, route *models.BusRoute) error {
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if route.CreatedAt.IsZero() {
		route.CreatedAt = now
	}
	route.UpdatedAt = now
	const query = `INSERT INTO bus_routes (id, name, stops, capacity, subscribed, monthly_charge, created_at, updated_at)
        VALUES (:id, :name, :stops, :capacity, :subscribed, :monthly_charge, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, route); err != nil {
		return fmt.Errorf("create bus route: %w", err)
	}
	return nil
}

// Subscribe adds a student to a route, guarding capacity inside one transaction.
func (r *BusRepository) Subscribe(ctx context.Context, routeID, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subscribe tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const claim = `UPDATE bus_routes SET subscribed = subscribed + 1, updated_at = $2 WHERE id = $1 AND subscribed < capacity`
	res, err := tx.ExecContext(ctx, claim, routeID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("claim bus seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim bus seat rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const place = `UPDATE students SET bus_route_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, place, studentID, routeID, time.Now().UTC()); err != nil {
		return fmt.Errorf("place student on route: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit subscribe tx: %w", err)
	}
	return nil
}

// Unsubscribe removes a student from their route and releases the seat.
func (r *BusRepository) Unsubscribe(ctx context.Context, routeID, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unsubscribe tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const release = `UPDATE bus_routes SET subscribed = subscribed - 1, updated_at = $2 WHERE id = $1 AND subscribed > 0`
	if _, err := tx.ExecContext(ctx, release, routeID, time.Now().UTC()); err != nil {
		return fmt.Errorf("release bus seat: %w", err)
	}

	const clear = `UPDATE students SET bus_route_id = NULL, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, clear, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear student route: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unsubscribe tx: %w", err)
	}
	return nil
}
