package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/dto"
	"github.com/campushq/college-admin-api/internal/models"
	"github.com/campushq/college-admin-api/internal/repository"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type promotionStore interface {
	CountApprovedBySemester(ctx context.Context) ([]models.SemesterCount, error)
	ApprovedIDsBySemester(ctx context.Context, semester int) ([]string, error)
	LatestHistory(ctx context.Context) (*models.PromotionHistory, error)
	InTx(ctx context.Context, fn func(tx repository.PromotionTx) error) error
}

type duesCounter interface {
	CountOutstandingBySemester(ctx context.Context) ([]models.SemesterCount, error)
}

// PromotionServiceConfig tunes executor behaviour.
type PromotionServiceConfig struct {
	// TxTimeout bounds the execution transaction; a batch can touch an
	// unbounded number of student rows in one unit of work.
	TxTimeout time.Duration
}

// PromotionService implements the semester promotion planner, executor
// and undo handler over the student registry.
type PromotionService struct {
	store   promotionStore
	dues    duesCounter
	audit   auditLogger
	metrics *MetricsService
	logger  *zap.Logger
	cfg     PromotionServiceConfig
}

// NewPromotionService constructs the service with defaults.
func NewPromotionService(store promotionStore, dues duesCounter, audit auditLogger, metrics *MetricsService, logger *zap.Logger, cfg PromotionServiceConfig) *PromotionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = 30 * time.Second
	}
	return &PromotionService{store: store, dues: dues, audit: audit, metrics: metrics, logger: logger, cfg: cfg}
}

// Stats computes the menu of candidate transitions from the live student
// distribution. It is a pure read; nothing is cached in process because a
// stale distribution would produce wrong recommendations.
func (s *PromotionService) Stats(ctx context.Context) (*dto.PromotionStatsResponse, error) {
	rows, err := s.store.CountApprovedBySemester(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students by semester")
	}

	counts := make(map[int]int, models.MaxSemester)
	for sem := models.MinSemester; sem <= models.MaxSemester; sem++ {
		counts[sem] = 0
	}
	var oddSum, evenSum int
	for _, row := range rows {
		counts[row.Semester] = row.Count
		if row.Semester%2 == 1 {
			oddSum += row.Count
		} else {
			evenSum += row.Count
		}
	}

	// Equal sums resolve to ODD: the >= comparison is load-bearing.
	currentType := models.SemesterTypeEven
	if oddSum >= evenSum {
		currentType = models.SemesterTypeOdd
	}

	dues := s.loadDues(ctx)

	transitions := recommendedTransitions(currentType)
	options := make([]dto.TransitionOption, 0, len(transitions))
	for _, t := range transitions {
		options = append(options, dto.TransitionOption{
			From:        t.From,
			To:          t.To,
			Label:       t.Label,
			Students:    counts[t.From],
			PendingDues: dues[t.From],
		})
	}

	return &dto.PromotionStatsResponse{
		Counts:                 counts,
		CurrentType:            currentType,
		RecommendedTransitions: options,
	}, nil
}

// Promote applies the selected transitions atomically and appends one
// history entry so the batch can be undone later.
func (s *PromotionService) Promote(ctx context.Context, req dto.PromoteRequest, actorID string) (*dto.PromoteResponse, error) {
	if len(req.Transitions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no transitions provided")
	}
	for _, t := range req.Transitions {
		if t.From < models.MinSemester || t.From > models.MaxSemester {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid source semester %d", t.From))
		}
		if !t.To.Graduate && (t.To.Semester < models.MinSemester || t.To.Semester > models.MaxSemester) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid destination semester %d", t.To.Semester))
		}
	}
	semesterType := req.SemesterType
	if semesterType != models.SemesterTypeOdd && semesterType != models.SemesterTypeEven {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester_type must be ODD or EVEN")
	}

	yearBack := make(map[string]struct{}, len(req.YearBackIDs))
	for _, id := range req.YearBackIDs {
		yearBack[id] = struct{}{}
	}

	// Identification phase. This read runs outside the execution
	// transaction, matching the single-operator contract: a student
	// changing state between the two phases is an accepted race.
	type group struct {
		transition models.Transition
		promoteIDs []string
		ybIDs      []string
	}
	groups := make([]group, 0, len(req.Transitions))
	var affected []string
	for _, t := range req.Transitions {
		ids, err := s.store.ApprovedIDsBySemester(ctx, t.From)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to identify eligible students")
		}
		g := group{transition: t}
		for _, id := range ids {
			if _, ok := yearBack[id]; ok {
				g.ybIDs = append(g.ybIDs, id)
			} else {
				g.promoteIDs = append(g.promoteIDs, id)
			}
		}
		affected = append(affected, ids...)
		groups = append(groups, g)
	}

	if len(affected) == 0 {
		// Deliberate short-circuit: success with zero effect, no history.
		return &dto.PromoteResponse{Message: "no eligible students"}, nil
	}

	var promoted, archived, yearBacked int
	records := make([]models.TransitionRecord, 0, len(groups))

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()
	err := s.store.InTx(txCtx, func(tx repository.PromotionTx) error {
		for _, g := range groups {
			if len(g.promoteIDs) > 0 {
				if g.transition.To.Graduate {
					if err := tx.UpdateStatus(txCtx, g.promoteIDs, models.StudentStatusGraduated); err != nil {
						return err
					}
					archived += len(g.promoteIDs)
				} else {
					if err := tx.UpdateSemester(txCtx, g.promoteIDs, g.transition.To.Semester); err != nil {
						return err
					}
					promoted += len(g.promoteIDs)
				}
			}
			if len(g.ybIDs) > 0 {
				// Demoting below semester 1 is silently skipped; the
				// affected ids are still recorded for undo symmetry only
				// when the demotion actually happened.
				if target := g.transition.From - 1; target > 0 {
					if err := tx.UpdateSemester(txCtx, g.ybIDs, target); err != nil {
						return err
					}
					yearBacked += len(g.ybIDs)
				} else {
					g.ybIDs = nil
				}
			}
			if len(g.promoteIDs) == 0 && len(g.ybIDs) == 0 {
				continue
			}
			records = append(records, models.TransitionRecord{
				From:        g.transition.From,
				To:          g.transition.To,
				PromotedIDs: g.promoteIDs,
				YearBackIDs: g.ybIDs,
			})
		}

		details, err := models.EncodeDetails(records)
		if err != nil {
			return err
		}
		return tx.InsertHistory(txCtx, &models.PromotionHistory{
			SemesterType: semesterType,
			StudentIDs:   affected,
			Details:      details,
		})
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "promotion batch failed")
	}

	if s.metrics != nil {
		s.metrics.RecordPromotionBatch(promoted, archived, yearBacked)
	}
	s.emitAudit(ctx, actorID, models.AuditActionPromotionExecute, map[string]interface{}{
		"semester_type": semesterType,
		"promoted":      promoted,
		"archived":      archived,
		"year_back":     yearBacked,
	})
	s.logger.Info("promotion batch executed",
		zap.String("semester_type", string(semesterType)),
		zap.Int("promoted", promoted),
		zap.Int("archived", archived),
		zap.Int("year_back", yearBacked),
	)

	return &dto.PromoteResponse{
		Message:  "promotion completed",
		Promoted: promoted,
		Archived: archived,
		YearBack: yearBacked,
	}, nil
}

// UndoLast reverses the most recently recorded promotion batch exactly
// once. Only the entry with the latest timestamp is ever considered.
func (s *PromotionService) UndoLast(ctx context.Context, actorID string) (*dto.UndoResponse, error) {
	entry, err := s.store.LatestHistory(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no promotion history to undo")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load promotion history")
	}
	records, err := entry.DecodeDetails()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt promotion history payload")
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()
	err = s.store.InTx(txCtx, func(tx repository.PromotionTx) error {
		for _, record := range records {
			if len(record.PromotedIDs) > 0 {
				if record.To.Graduate {
					// Graduation never touched the semester field, so
					// only the status flips back.
					if err := tx.UpdateStatus(txCtx, record.PromotedIDs, models.StudentStatusApproved); err != nil {
						return err
					}
				} else if err := tx.UpdateSemester(txCtx, record.PromotedIDs, record.From); err != nil {
					return err
				}
			}
			if len(record.YearBackIDs) > 0 {
				if err := tx.UpdateSemester(txCtx, record.YearBackIDs, record.From); err != nil {
					return err
				}
			}
		}
		return tx.DeleteHistory(txCtx, entry.ID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "undo failed")
	}

	s.emitAudit(ctx, actorID, models.AuditActionPromotionUndo, map[string]interface{}{
		"history_id":    entry.ID,
		"semester_type": entry.SemesterType,
		"students":      len(entry.StudentIDs),
	})
	s.logger.Info("promotion batch undone",
		zap.String("history_id", entry.ID),
		zap.Int("students", len(entry.StudentIDs)),
	)

	return &dto.UndoResponse{Message: "last promotion undone"}, nil
}

func (s *PromotionService) loadDues(ctx context.Context) map[int]int {
	dues := make(map[int]int)
	if s.dues == nil {
		return dues
	}
	rows, err := s.dues.CountOutstandingBySemester(ctx)
	if err != nil {
		s.logger.Warn("failed to load outstanding dues, omitting annotation", zap.Error(err))
		return dues
	}
	for _, row := range rows {
		dues[row.Semester] = row.Count
	}
	return dues
}

func (s *PromotionService) emitAudit(ctx context.Context, actorID, action string, payload map[string]interface{}) {
	if s.audit == nil {
		return
	}
	body, _ := json.Marshal(payload)
	log := &models.AuditLog{
		Action:    action,
		Resource:  "promotion",
		NewValues: body,
		IPAddress: "system",
		UserAgent: "promotion-service",
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func recommendedTransitions(current models.SemesterType) []models.Transition {
	if current == models.SemesterTypeOdd {
		return []models.Transition{
			{From: 1, To: models.SemesterTarget(2), Label: "Semester 1 → Semester 2"},
			{From: 3, To: models.SemesterTarget(4), Label: "Semester 3 → Semester 4"},
			{From: 5, To: models.SemesterTarget(6), Label: "Semester 5 → Semester 6"},
			{From: 7, To: models.SemesterTarget(8), Label: "Semester 7 → Semester 8"},
		}
	}
	return []models.Transition{
		{From: 2, To: models.SemesterTarget(3), Label: "Semester 2 → Semester 3"},
		{From: 4, To: models.SemesterTarget(5), Label: "Semester 4 → Semester 5"},
		{From: 6, To: models.SemesterTarget(7), Label: "Semester 6 → Semester 7"},
		{From: 8, To: models.GraduateTarget(), Label: "Semester 8 → Graduated"},
		{From: 1, To: models.SemesterTarget(2), Label: "Semester 1 → Semester 2 (optional)"},
	}
}
