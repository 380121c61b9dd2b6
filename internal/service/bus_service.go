package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type busRepository interface {
	ListRoutes(ctx context.Context) ([]models.BusRoute, error)
	FindRouteByID(ctx context.Context, id string) (*models.BusRoute, error)
	CreateRoute(ctx context.Context, route *models.BusRoute) error
	Subscribe(ctx context.Context, routeID, studentID string) error
	Unsubscribe(ctx context.Context, routeID, studentID string) error
}

// CreateRouteRequest registers a bus route.
type CreateRouteRequest struct {
	Name          string `json:"name" validate:"required"`
	Stops         string `json:"stops" validate:"required"`
	Capacity      int    `json:"capacity" validate:"required,gt=0"`
	MonthlyCharge int64  `json:"monthly_charge" validate:"gte=0"`
}

// BusService manages transport routes and subscriptions.
type BusService struct {
	repo      busRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBusService constructs the bus service.
func NewBusService(repo busRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *BusService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusService{repo: repo, students: students, validator: validate, logger: logger}
}

// ListRoutes returns all routes.
func (s *BusService) ListRoutes(ctx context.Context) ([]models.BusRoute, error) {
	routes, err := s.repo.ListRoutes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list routes")
	}
	return routes, nil
}

// CreateRoute registers a new route.
func (s *BusService) CreateRoute(ctx context.Context, req CreateRouteRequest) (*models.BusRoute, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid route payload")
	}
	route := &models.BusRoute{
		Name:          req.Name,
		Stops:         req.Stops,
		Capacity:      req.Capacity,
		MonthlyCharge: req.MonthlyCharge,
	}
	if err := s.repo.CreateRoute(ctx, route); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create route")
	}
	return route, nil
}

// Subscribe adds an enrolled student to a route with free seats.
func (s *BusService) Subscribe(ctx context.Context, routeID, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusApproved {
		return appErrors.Clone(appErrors.ErrValidation, "only enrolled students can subscribe to a route")
	}
	if student.BusRouteID != nil {
		return appErrors.Clone(appErrors.ErrConflict, "student already subscribed to a route")
	}
	if _, err := s.repo.FindRouteByID(ctx, routeID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "route not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load route")
	}
	if err := s.repo.Subscribe(ctx, routeID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrConflict, "route is full")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to subscribe")
	}
	return nil
}

// Unsubscribe removes a student from their route.
func (s *BusService) Unsubscribe(ctx context.Context, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.BusRouteID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "student has no route subscription")
	}
	if err := s.repo.Unsubscribe(ctx, *student.BusRouteID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unsubscribe")
	}
	return nil
}
