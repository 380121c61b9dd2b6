package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type clearanceRepository interface {
	Create(ctx context.Context, clearance *models.Clearance) error
	FindByID(ctx context.Context, id string) (*models.Clearance, error)
	LatestForStudent(ctx context.Context, studentID string) (*models.Clearance, error)
	ListPending(ctx context.Context, limit int) ([]models.Clearance, error)
	Decide(ctx context.Context, id string, status models.ClearanceStatus, decidedBy string, note *string, decidedAt time.Time) error
}

type outstandingReader interface {
	OutstandingByStudent(ctx context.Context, studentID string) (int64, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// ClearanceDecisionRequest records an approval or rejection.
type ClearanceDecisionRequest struct {
	Status models.ClearanceStatus `json:"status" validate:"required"`
	Note   *string                `json:"note"`
}

// ClearanceService orchestrates no-due clearance requests. A request
// snapshots the holds open at request time; a CLEARED decision is refused
// while any hold remains.
type ClearanceService struct {
	repo     clearanceRepository
	fees     outstandingReader
	students studentReader
	audit    auditLogger
	logger   *zap.Logger
}

// NewClearanceService constructs the clearance service.
func NewClearanceService(repo clearanceRepository, fees outstandingReader, students studentReader, audit auditLogger, logger *zap.Logger) *ClearanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClearanceService{repo: repo, fees: fees, students: students, audit: audit, logger: logger}
}

// Request opens a clearance request for a student, snapshotting current holds.
func (s *ClearanceService) Request(ctx context.Context, actorID, studentID string) (*models.Clearance, []models.ClearanceHold, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status == models.StudentStatusDeleted {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "student record is deleted")
	}

	if latest, err := s.repo.LatestForStudent(ctx, studentID); err == nil && latest.Status == models.ClearanceStatusPending {
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "clearance request already pending")
	} else if err != nil && err != sql.ErrNoRows {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing requests")
	}

	holds, err := s.collectHolds(ctx, student)
	if err != nil {
		return nil, nil, err
	}
	encoded, err := json.Marshal(holds)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode holds")
	}

	clearance := &models.Clearance{
		StudentID:   studentID,
		Status:      models.ClearanceStatusPending,
		Holds:       encoded,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, clearance); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create clearance request")
	}

	s.emitClearanceAudit(ctx, actorID, models.AuditActionClearanceRequest, clearance.ID)
	return clearance, holds, nil
}

// ListPending returns clearance requests awaiting a decision.
func (s *ClearanceService) ListPending(ctx context.Context, limit int) ([]models.Clearance, error) {
	clearances, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending clearances")
	}
	return clearances, nil
}

// Decide records the decision. Approval re-checks holds against live data so a
// stale snapshot cannot clear a student who has since accrued dues.
func (s *ClearanceService) Decide(ctx context.Context, actorID, id string, req ClearanceDecisionRequest) (*models.Clearance, error) {
	if req.Status != models.ClearanceStatusCleared && req.Status != models.ClearanceStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be CLEARED or REJECTED")
	}
	clearance, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clearance request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clearance request")
	}
	if clearance.Status != models.ClearanceStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "clearance request already decided")
	}

	if req.Status == models.ClearanceStatusCleared {
		student, err := s.students.FindByID(ctx, clearance.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		holds, err := s.collectHolds(ctx, student)
		if err != nil {
			return nil, err
		}
		if len(holds) > 0 {
			return nil, appErrors.Clone(appErrors.ErrNotCleared, "student still has open holds")
		}
	}

	decidedAt := time.Now().UTC()
	if err := s.repo.Decide(ctx, id, req.Status, actorID, req.Note, decidedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record decision")
	}

	s.emitClearanceAudit(ctx, actorID, models.AuditActionClearanceDecision, id)

	clearance.Status = req.Status
	clearance.Note = req.Note
	clearance.DecidedBy = &actorID
	clearance.DecidedAt = &decidedAt
	return clearance, nil
}

// IsCleared reports whether the student's latest clearance request was approved.
func (s *ClearanceService) IsCleared(ctx context.Context, studentID string) (bool, error) {
	latest, err := s.repo.LatestForStudent(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clearance state")
	}
	return latest.Status == models.ClearanceStatusCleared, nil
}

func (s *ClearanceService) collectHolds(ctx context.Context, student *models.Student) ([]models.ClearanceHold, error) {
	var holds []models.ClearanceHold

	outstanding, err := s.fees.OutstandingByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee dues")
	}
	if outstanding > 0 {
		holds = append(holds, models.ClearanceHold{Department: "accounts", Reason: "outstanding fee balance", Amount: outstanding})
	}
	if student.HostelRoomID != nil {
		holds = append(holds, models.ClearanceHold{Department: "hostel", Reason: "room not vacated"})
	}
	if student.BusRouteID != nil {
		holds = append(holds, models.ClearanceHold{Department: "transport", Reason: "bus pass not surrendered"})
	}
	return holds, nil
}

func (s *ClearanceService) emitClearanceAudit(ctx context.Context, actorID, action, clearanceID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "clearances",
		ResourceID: &clearanceID,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record clearance audit log", zap.Error(err))
	}
}
