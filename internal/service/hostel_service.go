package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type hostelRepository interface {
	ListRooms(ctx context.Context) ([]models.HostelRoom, error)
	FindRoomByID(ctx context.Context, id string) (*models.HostelRoom, error)
	CreateRoom(ctx context.Context, room *models.HostelRoom) error
	Assign(ctx context.Context, roomID, studentID string) error
	Vacate(ctx context.Context, roomID, studentID string) error
	OccupancyByBlock(ctx context.Context) ([]models.HostelOccupancy, error)
}

// CreateRoomRequest registers a hostel room.
type CreateRoomRequest struct {
	Block         string `json:"block" validate:"required"`
	Number        string `json:"number" validate:"required"`
	Capacity      int    `json:"capacity" validate:"required,gt=0"`
	MonthlyCharge int64  `json:"monthly_charge" validate:"gte=0"`
}

// HostelService manages rooms and student occupancy.
type HostelService struct {
	repo      hostelRepository
	students  studentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHostelService constructs the hostel service.
func NewHostelService(repo hostelRepository, students studentReader, validate *validator.Validate, logger *zap.Logger) *HostelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostelService{repo: repo, students: students, validator: validate, logger: logger}
}

// ListRooms returns all rooms.
func (s *HostelService) ListRooms(ctx context.Context) ([]models.HostelRoom, error) {
	rooms, err := s.repo.ListRooms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// CreateRoom registers a new room.
func (s *HostelService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.HostelRoom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.HostelRoom{
		Block:         req.Block,
		Number:        req.Number,
		Capacity:      req.Capacity,
		MonthlyCharge: req.MonthlyCharge,
	}
	if err := s.repo.CreateRoom(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	return room, nil
}

// Assign places an enrolled student into a room with free capacity.
func (s *HostelService) Assign(ctx context.Context, roomID, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusApproved {
		return appErrors.Clone(appErrors.ErrValidation, "only enrolled students can be assigned a room")
	}
	if student.HostelRoomID != nil {
		return appErrors.Clone(appErrors.ErrConflict, "student already has a room")
	}
	if _, err := s.repo.FindRoomByID(ctx, roomID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if err := s.repo.Assign(ctx, roomID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrConflict, "room is full")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign room")
	}
	return nil
}

// Vacate removes a student from their room.
func (s *HostelService) Vacate(ctx context.Context, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.HostelRoomID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "student has no room to vacate")
	}
	if err := s.repo.Vacate(ctx, *student.HostelRoomID, studentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to vacate room")
	}
	return nil
}

// Occupancy aggregates utilisation per block.
func (s *HostelService) Occupancy(ctx context.Context) ([]models.HostelOccupancy, error) {
	occupancy, err := s.repo.OccupancyByBlock(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy")
	}
	return occupancy, nil
}
