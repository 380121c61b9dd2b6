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

type studentRepoStub struct {
	students     map[string]*models.Student
	registerNos  map[string]string
	staleRemoved int64
}

func newStudentRepoStub() *studentRepoStub {
	return &studentRepoStub{students: map[string]*models.Student{}, registerNos: map[string]string{}}
}

func (r *studentRepoStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range r.students {
		if s.Status == models.StudentStatusDeleted && filter.Status == nil {
			continue
		}
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (r *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *s
	return &clone, nil
}

func (r *studentRepoStub) ExistsByRegisterNo(ctx context.Context, registerNo string, excludeID string) (bool, error) {
	id, ok := r.registerNos[registerNo]
	if !ok {
		return false, nil
	}
	return id != excludeID, nil
}

func (r *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "gen-" + student.RegisterNo
	}
	r.students[student.ID] = student
	r.registerNos[student.RegisterNo] = student.ID
	return nil
}

func (r *studentRepoStub) Update(ctx context.Context, student *models.Student) error {
	r.students[student.ID] = student
	return nil
}

func (r *studentRepoStub) UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error {
	r.students[id].Status = status
	return nil
}

func (r *studentRepoStub) DeleteStalePending(ctx context.Context, before time.Time) (int64, error) {
	return r.staleRemoved, nil
}

func TestStudentCreateStartsPending(t *testing.T) {
	repo := newStudentRepoStub()
	svc := NewStudentService(repo, nil, nil, nil)

	student, err := svc.Create(context.Background(), "admin-1", CreateStudentRequest{
		RegisterNo: "CS-2026-014",
		FullName:   "Meera Pillai",
		Email:      "meera@example.com",
		Semester:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusPending, student.Status)
}

func TestStudentCreateRejectsDuplicateRegisterNo(t *testing.T) {
	repo := newStudentRepoStub()
	repo.registerNos["CS-2026-014"] = "existing"
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), "admin-1", CreateStudentRequest{
		RegisterNo: "CS-2026-014",
		FullName:   "Meera Pillai",
		Email:      "meera@example.com",
		Semester:   1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestStudentCreateValidatesSemesterRange(t *testing.T) {
	svc := NewStudentService(newStudentRepoStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), "admin-1", CreateStudentRequest{
		RegisterNo: "CS-2026-015",
		FullName:   "Dev Anand",
		Email:      "dev@example.com",
		Semester:   9,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentAdmissionDecisionFlow(t *testing.T) {
	repo := newStudentRepoStub()
	repo.students["s1"] = &models.Student{ID: "s1", Status: models.StudentStatusPending}
	audit := &auditRecorder{}
	svc := NewStudentService(repo, audit, nil, nil)

	student, err := svc.Decide(context.Background(), "admin-1", "s1", DecideAdmissionRequest{Status: models.StudentStatusWaitlisted})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusWaitlisted, student.Status)

	student, err = svc.Decide(context.Background(), "admin-1", "s1", DecideAdmissionRequest{Status: models.StudentStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusApproved, student.Status)
	assert.Len(t, audit.logs, 2)
}

func TestStudentDecisionRejectsInvalidTransition(t *testing.T) {
	repo := newStudentRepoStub()
	repo.students["s1"] = &models.Student{ID: "s1", Status: models.StudentStatusApproved}
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.Decide(context.Background(), "admin-1", "s1", DecideAdmissionRequest{Status: models.StudentStatusPending})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentDeleteIsSoft(t *testing.T) {
	repo := newStudentRepoStub()
	repo.students["s1"] = &models.Student{ID: "s1", Status: models.StudentStatusApproved}
	svc := NewStudentService(repo, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "admin-1", "s1"))
	assert.Equal(t, models.StudentStatusDeleted, repo.students["s1"].Status)

	listed, _, err := svc.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestStudentCleanupStaleApplications(t *testing.T) {
	repo := newStudentRepoStub()
	repo.staleRemoved = 3
	svc := NewStudentService(repo, nil, nil, nil)

	removed, err := svc.CleanupStaleApplications(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	_, err = svc.CleanupStaleApplications(context.Background(), 0)
	require.Error(t, err)
}

func TestStudentExportRendersCSV(t *testing.T) {
	repo := newStudentRepoStub()
	repo.students["s1"] = &models.Student{ID: "s1", RegisterNo: "REG-001", FullName: "Asha Nair", Email: "asha@campus.edu", Semester: 3, Status: models.StudentStatusApproved}
	svc := NewStudentService(repo, nil, nil, nil)

	payload, err := svc.ExportRoster(context.Background(), models.StudentFilter{})
	require.NoError(t, err)

	csv := string(payload)
	assert.Contains(t, csv, "register_no,full_name,email,semester,status")
	assert.Contains(t, csv, "REG-001,Asha Nair,asha@campus.edu,3,APPROVED")
}
