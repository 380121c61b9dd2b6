package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/export"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByRegisterNo(ctx context.Context, registerNo string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error
	DeleteStalePending(ctx context.Context, before time.Time) (int64, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	RegisterNo   string  `json:"register_no" validate:"required"`
	FullName     string  `json:"full_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone"`
	DepartmentID *string `json:"department_id"`
	Semester     int     `json:"semester" validate:"required,min=1,max=8"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	RegisterNo   string  `json:"register_no" validate:"required"`
	FullName     string  `json:"full_name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone"`
	DepartmentID *string `json:"department_id"`
	Semester     int     `json:"semester" validate:"required,min=1,max=8"`
	HostelRoomID *string `json:"hostel_room_id"`
	BusRouteID   *string `json:"bus_route_id"`
}

// DecideAdmissionRequest carries an admission decision for a pending application.
type DecideAdmissionRequest struct {
	Status models.StudentStatus `json:"status" validate:"required"`
}

// StudentService handles the student registry and admission lifecycle.
type StudentService struct {
	repo      studentRepository
	audit     auditLogger
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, audit: audit, csv: export.NewCSVExporter(), validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a single student record.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new application. Records enter the registry as PENDING.
func (s *StudentService) Create(ctx context.Context, actorID string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByRegisterNo(ctx, req.RegisterNo, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate register number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "register number already used")
	}
	student := &models.Student{
		RegisterNo:   req.RegisterNo,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		DepartmentID: req.DepartmentID,
		Semester:     req.Semester,
		Status:       models.StudentStatusPending,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.auditStudent(ctx, actorID, models.AuditActionStudentCreate, student.ID, fmt.Sprintf(`{"register_no":%q}`, student.RegisterNo))
	return student, nil
}

// Update modifies an existing student record. Status changes go through Decide.
func (s *StudentService) Update(ctx context.Context, actorID, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByRegisterNo(ctx, req.RegisterNo, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate register number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "register number already used")
	}
	student.RegisterNo = req.RegisterNo
	student.FullName = req.FullName
	student.Email = req.Email
	student.Phone = req.Phone
	student.DepartmentID = req.DepartmentID
	student.Semester = req.Semester
	student.HostelRoomID = req.HostelRoomID
	student.BusRouteID = req.BusRouteID
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.auditStudent(ctx, actorID, models.AuditActionStudentUpdate, student.ID, "")
	return student, nil
}

// Decide applies an admission decision to a pending or waitlisted application.
func (s *StudentService) Decide(ctx context.Context, actorID, id string, req DecideAdmissionRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !models.ValidStatusTransition(student.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot move student from %s to %s", student.Status, req.Status))
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	s.auditStudent(ctx, actorID, models.AuditActionStudentDecision, id, fmt.Sprintf(`{"from":%q,"to":%q}`, student.Status, req.Status))
	student.Status = req.Status
	return student, nil
}

// Delete soft-deletes a student record.
func (s *StudentService) Delete(ctx context.Context, actorID, id string) error {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !models.ValidStatusTransition(student.Status, models.StudentStatusDeleted) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot delete student in status %s", student.Status))
	}
	if err := s.repo.UpdateStatus(ctx, id, models.StudentStatusDeleted); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.auditStudent(ctx, actorID, models.AuditActionStudentDelete, id, "")
	return nil
}

// ExportRoster renders the filtered student list as CSV. Pagination in the
// filter is ignored; the export covers every matching row.
func (s *StudentService) ExportRoster(ctx context.Context, filter models.StudentFilter) ([]byte, error) {
	filter.Page = 1
	filter.PageSize = 100
	var rows []map[string]string
	for {
		students, _, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export students")
		}
		for _, student := range students {
			rows = append(rows, map[string]string{
				"register_no": student.RegisterNo,
				"full_name":   student.FullName,
				"email":       student.Email,
				"semester":    fmt.Sprintf("%d", student.Semester),
				"status":      string(student.Status),
			})
		}
		if len(students) < filter.PageSize {
			break
		}
		filter.Page++
	}
	return s.csv.Render(export.Dataset{
		Headers: []string{"register_no", "full_name", "email", "semester", "status"},
		Rows:    rows,
	})
}

// CleanupStaleApplications removes pending applications older than the retention window.
func (s *StudentService) CleanupStaleApplications(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "retention window must be positive")
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	removed, err := s.repo.DeleteStalePending(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cleanup stale applications")
	}
	if removed > 0 {
		s.logger.Info("removed stale admission applications", zap.Int64("count", removed))
	}
	return removed, nil
}

func (s *StudentService) auditStudent(ctx context.Context, actorID, action, studentID, payload string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "students",
		ResourceID: &studentID,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if payload != "" {
		entry.NewValues = []byte(payload)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record student audit log", zap.Error(err))
	}
}
