package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type clearanceRepoStub struct {
	clearances map[string]*models.Clearance
	byStudent  map[string]*models.Clearance
}

func newClearanceRepoStub() *clearanceRepoStub {
	return &clearanceRepoStub{clearances: map[string]*models.Clearance{}, byStudent: map[string]*models.Clearance{}}
}

func (r *clearanceRepoStub) Create(ctx context.Context, clearance *models.Clearance) error {
	if clearance.ID == "" {
		clearance.ID = "clr-" + clearance.StudentID
	}
	r.clearances[clearance.ID] = clearance
	r.byStudent[clearance.StudentID] = clearance
	return nil
}

func (r *clearanceRepoStub) FindByID(ctx context.Context, id string) (*models.Clearance, error) {
	c, ok := r.clearances[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (r *clearanceRepoStub) LatestForStudent(ctx context.Context, studentID string) (*models.Clearance, error) {
	c, ok := r.byStudent[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (r *clearanceRepoStub) ListPending(ctx context.Context, limit int) ([]models.Clearance, error) {
	var out []models.Clearance
	for _, c := range r.clearances {
		if c.Status == models.ClearanceStatusPending {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *clearanceRepoStub) Decide(ctx context.Context, id string, status models.ClearanceStatus, decidedBy string, note *string, decidedAt time.Time) error {
	c := r.clearances[id]
	c.Status = status
	c.DecidedBy = &decidedBy
	c.Note = note
	c.DecidedAt = &decidedAt
	return nil
}

type outstandingStub struct {
	amounts map[string]int64
}

func (o *outstandingStub) OutstandingByStudent(ctx context.Context, studentID string) (int64, error) {
	return o.amounts[studentID], nil
}

type studentReaderStub struct {
	students map[string]*models.Student
}

func (s *studentReaderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := s.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *student
	return &clone, nil
}

func newClearanceTestService(repo *clearanceRepoStub, dues map[string]int64, students map[string]*models.Student) *ClearanceService {
	return NewClearanceService(repo, &outstandingStub{amounts: dues}, &studentReaderStub{students: students}, nil, nil)
}

func TestClearanceRequestSnapshotsHolds(t *testing.T) {
	repo := newClearanceRepoStub()
	room := "room-12"
	svc := newClearanceTestService(repo,
		map[string]int64{"s1": 2500},
		map[string]*models.Student{"s1": {ID: "s1", Status: models.StudentStatusApproved, HostelRoomID: &room}},
	)

	clearance, holds, err := svc.Request(context.Background(), "admin-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.ClearanceStatusPending, clearance.Status)
	require.Len(t, holds, 2)
	assert.Equal(t, "accounts", holds[0].Department)
	assert.EqualValues(t, 2500, holds[0].Amount)
	assert.Equal(t, "hostel", holds[1].Department)
}

func TestClearanceRequestRejectsDuplicatePending(t *testing.T) {
	repo := newClearanceRepoStub()
	svc := newClearanceTestService(repo, nil, map[string]*models.Student{"s1": {ID: "s1", Status: models.StudentStatusApproved}})

	_, _, err := svc.Request(context.Background(), "admin-1", "s1")
	require.NoError(t, err)

	_, _, err = svc.Request(context.Background(), "admin-1", "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClearanceApprovalBlockedByLiveHolds(t *testing.T) {
	repo := newClearanceRepoStub()
	dues := map[string]int64{}
	svc := newClearanceTestService(repo, dues, map[string]*models.Student{"s1": {ID: "s1", Status: models.StudentStatusApproved}})

	clearance, _, err := svc.Request(context.Background(), "admin-1", "s1")
	require.NoError(t, err)

	// Dues accrued after the request was opened.
	dues["s1"] = 900

	_, err = svc.Decide(context.Background(), "staff-1", clearance.ID, ClearanceDecisionRequest{Status: models.ClearanceStatusCleared})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotCleared.Code, appErrors.FromError(err).Code)
}

func TestClearanceApproveAndQueryState(t *testing.T) {
	repo := newClearanceRepoStub()
	svc := newClearanceTestService(repo, nil, map[string]*models.Student{"s1": {ID: "s1", Status: models.StudentStatusGraduated}})

	clearance, holds, err := svc.Request(context.Background(), "admin-1", "s1")
	require.NoError(t, err)
	assert.Empty(t, holds)

	decided, err := svc.Decide(context.Background(), "staff-1", clearance.ID, ClearanceDecisionRequest{Status: models.ClearanceStatusCleared})
	require.NoError(t, err)
	assert.Equal(t, models.ClearanceStatusCleared, decided.Status)

	cleared, err := svc.IsCleared(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, cleared)
}

func TestClearanceDecisionIsFinal(t *testing.T) {
	repo := newClearanceRepoStub()
	svc := newClearanceTestService(repo, nil, map[string]*models.Student{"s1": {ID: "s1", Status: models.StudentStatusApproved}})

	clearance, _, err := svc.Request(context.Background(), "admin-1", "s1")
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), "staff-1", clearance.ID, ClearanceDecisionRequest{Status: models.ClearanceStatusRejected})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), "staff-1", clearance.ID, ClearanceDecisionRequest{Status: models.ClearanceStatusCleared})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
