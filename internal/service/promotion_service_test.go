package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/dto"
	"github.com/campushq/college-admin-api/internal/models"
	"github.com/campushq/college-admin-api/internal/repository"
)

type studentState struct {
	Semester int
	Status   models.StudentStatus
}

// promotionStoreStub keeps students and history in memory and mimics the
// all-or-nothing transaction of the real repository: writes go to a
// scratch copy that only replaces live state when the closure succeeds.
type promotionStoreStub struct {
	students map[string]*studentState
	history  []*models.PromotionHistory

	failOn     string
	callCounts map[string]int
	duesErr    error
	dues       []models.SemesterCount
}

func newPromotionStoreStub() *promotionStoreStub {
	return &promotionStoreStub{
		students:   make(map[string]*studentState),
		callCounts: make(map[string]int),
	}
}

func (s *promotionStoreStub) addStudent(id string, semester int, status models.StudentStatus) {
	s.students[id] = &studentState{Semester: semester, Status: status}
}

func (s *promotionStoreStub) CountApprovedBySemester(ctx context.Context) ([]models.SemesterCount, error) {
	counts := make(map[int]int)
	for _, st := range s.students {
		if st.Status == models.StudentStatusApproved {
			counts[st.Semester]++
		}
	}
	var rows []models.SemesterCount
	for sem := models.MinSemester; sem <= models.MaxSemester; sem++ {
		if counts[sem] > 0 {
			rows = append(rows, models.SemesterCount{Semester: sem, Count: counts[sem]})
		}
	}
	return rows, nil
}

func (s *promotionStoreStub) ApprovedIDsBySemester(ctx context.Context, semester int) ([]string, error) {
	var ids []string
	for id, st := range s.students {
		if st.Status == models.StudentStatusApproved && st.Semester == semester {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *promotionStoreStub) LatestHistory(ctx context.Context) (*models.PromotionHistory, error) {
	if len(s.history) == 0 {
		return nil, sql.ErrNoRows
	}
	latest := s.history[len(s.history)-1]
	clone := *latest
	return &clone, nil
}

func (s *promotionStoreStub) InTx(ctx context.Context, fn func(tx repository.PromotionTx) error) error {
	scratch := &promotionTxStub{
		store:    s,
		students: make(map[string]*studentState, len(s.students)),
	}
	for id, st := range s.students {
		clone := *st
		scratch.students[id] = &clone
	}
	scratch.history = append(scratch.history, s.history...)

	if err := fn(scratch); err != nil {
		return err
	}
	s.students = scratch.students
	s.history = scratch.history
	return nil
}

func (s *promotionStoreStub) CountOutstandingBySemester(ctx context.Context) ([]models.SemesterCount, error) {
	if s.duesErr != nil {
		return nil, s.duesErr
	}
	return s.dues, nil
}

type promotionTxStub struct {
	store    *promotionStoreStub
	students map[string]*studentState
	history  []*models.PromotionHistory
}

func (t *promotionTxStub) fail(op string) error {
	t.store.callCounts[op]++
	if t.store.failOn == op {
		return errors.New("injected failure: " + op)
	}
	return nil
}

func (t *promotionTxStub) UpdateSemester(ctx context.Context, ids []string, semester int) error {
	if err := t.fail("update_semester"); err != nil {
		return err
	}
	for _, id := range ids {
		if st, ok := t.students[id]; ok {
			st.Semester = semester
		}
	}
	return nil
}

func (t *promotionTxStub) UpdateStatus(ctx context.Context, ids []string, status models.StudentStatus) error {
	if err := t.fail("update_status"); err != nil {
		return err
	}
	for _, id := range ids {
		if st, ok := t.students[id]; ok {
			st.Status = status
		}
	}
	return nil
}

func (t *promotionTxStub) InsertHistory(ctx context.Context, entry *models.PromotionHistory) error {
	if err := t.fail("insert_history"); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = "hist-1"
	}
	clone := *entry
	t.history = append(t.history, &clone)
	return nil
}

func (t *promotionTxStub) DeleteHistory(ctx context.Context, id string) error {
	if err := t.fail("delete_history"); err != nil {
		return err
	}
	kept := t.history[:0]
	for _, entry := range t.history {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	t.history = kept
	return nil
}

func newTestPromotionService(store *promotionStoreStub) *PromotionService {
	return NewPromotionService(store, store, nil, nil, nil, PromotionServiceConfig{})
}

func TestStatsTieBreakResolvesOdd(t *testing.T) {
	store := newPromotionStoreStub()
	for i := 0; i < 10; i++ {
		store.addStudent(stubID("s1", i), 1, models.StudentStatusApproved)
		store.addStudent(stubID("s2", i), 2, models.StudentStatusApproved)
	}
	svc := newTestPromotionService(store)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SemesterTypeOdd, stats.CurrentType)
	require.Equal(t, 10, stats.Counts[1])
	require.Equal(t, 10, stats.Counts[2])
}

func TestStatsEvenIncludesGraduateAndOptionalFirst(t *testing.T) {
	store := newPromotionStoreStub()
	for i := 0; i < 5; i++ {
		store.addStudent(stubID("s8", i), 8, models.StudentStatusApproved)
	}
	store.addStudent("lone-odd", 1, models.StudentStatusApproved)
	svc := newTestPromotionService(store)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.SemesterTypeEven, stats.CurrentType)

	var hasGraduate, hasOptionalFirst bool
	for _, option := range stats.RecommendedTransitions {
		if option.From == 8 && option.To.Graduate {
			hasGraduate = true
			require.Equal(t, 5, option.Students)
		}
		if option.From == 1 && option.To.Semester == 2 {
			hasOptionalFirst = true
		}
	}
	require.True(t, hasGraduate)
	require.True(t, hasOptionalFirst)
}

func TestStatsDuesAnnotation(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("a", 3, models.StudentStatusApproved)
	store.dues = []models.SemesterCount{{Semester: 3, Count: 1}}
	svc := newTestPromotionService(store)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	for _, option := range stats.RecommendedTransitions {
		if option.From == 3 {
			require.Equal(t, 1, option.PendingDues)
		}
	}
}

func TestPromoteEmptyTransitionsRejected(t *testing.T) {
	svc := newTestPromotionService(newPromotionStoreStub())

	_, err := svc.Promote(context.Background(), dto.PromoteRequest{SemesterType: models.SemesterTypeOdd}, "admin-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no transitions provided")
}

func TestPromoteNoEligibleStudentsIsNoOp(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("pending-1", 3, models.StudentStatusPending)
	svc := newTestPromotionService(store)

	res, err := svc.Promote(context.Background(), dto.PromoteRequest{
		Transitions:  []models.Transition{{From: 3, To: models.SemesterTarget(4)}},
		SemesterType: models.SemesterTypeOdd,
	}, "admin-1")
	require.NoError(t, err)
	require.Zero(t, res.Promoted)
	require.Zero(t, res.Archived)
	require.Zero(t, res.YearBack)
	require.Empty(t, store.history, "a no-op batch must not write history")
}

func TestPromoteThenUndoRestoresState(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("a", 1, models.StudentStatusApproved)
	store.addStudent("b", 3, models.StudentStatusApproved)
	store.addStudent("c", 3, models.StudentStatusApproved)
	svc := newTestPromotionService(store)

	res, err := svc.Promote(context.Background(), dto.PromoteRequest{
		Transitions: []models.Transition{
			{From: 1, To: models.SemesterTarget(2)},
			{From: 3, To: models.SemesterTarget(4)},
		},
		SemesterType: models.SemesterTypeOdd,
		YearBackIDs:  []string{"c"},
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 2, res.Promoted)
	require.Equal(t, 1, res.YearBack)
	require.Equal(t, 2, store.students["a"].Semester)
	require.Equal(t, 4, store.students["b"].Semester)
	require.Equal(t, 2, store.students["c"].Semester)
	require.Len(t, store.history, 1)

	_, err = svc.UndoLast(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, 1, store.students["a"].Semester)
	require.Equal(t, 3, store.students["b"].Semester)
	require.Equal(t, 3, store.students["c"].Semester)
	require.Empty(t, store.history)
}

func TestPromoteRollsBackOnHistoryWriteFailure(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("a", 1, models.StudentStatusApproved)
	store.addStudent("b", 3, models.StudentStatusApproved)
	store.failOn = "insert_history"
	svc := newTestPromotionService(store)

	_, err := svc.Promote(context.Background(), dto.PromoteRequest{
		Transitions: []models.Transition{
			{From: 1, To: models.SemesterTarget(2)},
			{From: 3, To: models.SemesterTarget(4)},
		},
		SemesterType: models.SemesterTypeOdd,
	}, "admin-1")
	require.Error(t, err)
	require.Equal(t, 1, store.students["a"].Semester, "partial updates must roll back")
	require.Equal(t, 3, store.students["b"].Semester)
	require.Empty(t, store.history)
}

func TestGraduateTransitionAndUndo(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("final-year", 8, models.StudentStatusApproved)
	svc := newTestPromotionService(store)

	res, err := svc.Promote(context.Background(), dto.PromoteRequest{
		Transitions:  []models.Transition{{From: 8, To: models.GraduateTarget()}},
		SemesterType: models.SemesterTypeEven,
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 1, res.Archived)
	require.Zero(t, res.Promoted)
	require.Equal(t, models.StudentStatusGraduated, store.students["final-year"].Status)
	require.Equal(t, 8, store.students["final-year"].Semester, "graduation leaves semester untouched")

	_, err = svc.UndoLast(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.StudentStatusApproved, store.students["final-year"].Status)
	require.Equal(t, 8, store.students["final-year"].Semester)
}

func TestYearBackArithmetic(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("repeat", 5, models.StudentStatusApproved)
	svc := newTestPromotionService(store)

	res, err := svc.Promote(context.Background(), dto.PromoteRequest{
		Transitions:  []models.Transition{{From: 5, To: models.SemesterTarget(6)}},
		SemesterType: models.SemesterTypeOdd,
		YearBackIDs:  []string{"repeat"},
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 1, res.YearBack)
	require.Equal(t, 4, store.students["repeat"].Semester)

	_, err = svc.UndoLast(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, 5, store.students["repeat"].Semester)
}

func TestYearBackFromSemesterOneSilentlySkipped(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("fresher", 1, models.StudentStatusApproved)
	store.addStudent("mover", 1, models.StudentStatusApproved)
	svc := newTestPromotionService(store)

	res, err := svc.Promote(context.Background(), dto.PromoteRequest{
		Transitions:  []models.Transition{{From: 1, To: models.SemesterTarget(2)}},
		SemesterType: models.SemesterTypeOdd,
		YearBackIDs:  []string{"fresher"},
	}, "admin-1")
	require.NoError(t, err)
	require.Zero(t, res.YearBack, "demotion below semester 1 is dropped without error")
	require.Equal(t, 1, res.Promoted)
	require.Equal(t, 1, store.students["fresher"].Semester)
	require.Equal(t, 2, store.students["mover"].Semester)
}

func TestUndoWithoutHistoryFails(t *testing.T) {
	svc := newTestPromotionService(newPromotionStoreStub())

	_, err := svc.UndoLast(context.Background(), "admin-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no promotion history to undo")
}

func TestUndoIsSingleLevel(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("a", 1, models.StudentStatusApproved)
	svc := newTestPromotionService(store)

	_, err := svc.Promote(context.Background(), dto.PromoteRequest{
		Transitions:  []models.Transition{{From: 1, To: models.SemesterTarget(2)}},
		SemesterType: models.SemesterTypeOdd,
	}, "admin-1")
	require.NoError(t, err)

	_, err = svc.UndoLast(context.Background(), "admin-1")
	require.NoError(t, err)

	_, err = svc.UndoLast(context.Background(), "admin-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no promotion history to undo")
}

func TestUndoAcceptsLegacyDetailFieldName(t *testing.T) {
	store := newPromotionStoreStub()
	store.addStudent("old", 4, models.StudentStatusApproved)
	store.history = append(store.history, &models.PromotionHistory{
		ID:           "legacy-1",
		SemesterType: models.SemesterTypeOdd,
		StudentIDs:   []string{"old"},
		Details:      []byte(`[{"from":3,"to":4,"studentIds":["old"]}]`),
	})
	svc := newTestPromotionService(store)

	_, err := svc.UndoLast(context.Background(), "admin-1")
	require.NoError(t, err)
	require.Equal(t, 3, store.students["old"].Semester)
	require.Empty(t, store.history)
}

func stubID(prefix string, n int) string {
	return prefix + "-" + string(rune('a'+n))
}
