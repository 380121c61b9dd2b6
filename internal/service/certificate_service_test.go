package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type certificateRepoStub struct {
	created []*models.Certificate
	next    int
}

func (r *certificateRepoStub) Create(ctx context.Context, cert *models.Certificate) error {
	r.created = append(r.created, cert)
	return nil
}

func (r *certificateRepoStub) NextSerial(ctx context.Context, year int) (int, error) {
	r.next++
	return r.next, nil
}

func (r *certificateRepoStub) ListForStudent(ctx context.Context, studentID string) ([]models.Certificate, error) {
	var out []models.Certificate
	for _, c := range r.created {
		if c.StudentID == studentID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type clearanceCheckerStub struct {
	cleared map[string]bool
}

func (c *clearanceCheckerStub) IsCleared(ctx context.Context, studentID string) (bool, error) {
	return c.cleared[studentID], nil
}

func newCertificateTestService(repo *certificateRepoStub, students map[string]*models.Student, cleared map[string]bool) *CertificateService {
	return NewCertificateService(repo, &studentReaderStub{students: students}, &clearanceCheckerStub{cleared: cleared}, nil, nil, nil, CertificateServiceConfig{
		Enabled:       true,
		InstituteName: "Test College",
		SerialPrefix:  "TC",
	})
}

func TestCertificateBonafideForEnrolledStudent(t *testing.T) {
	repo := &certificateRepoStub{}
	svc := newCertificateTestService(repo, map[string]*models.Student{
		"s1": {ID: "s1", RegisterNo: "CS-001", FullName: "Asha Nair", Semester: 5, Status: models.StudentStatusApproved},
	}, nil)

	cert, pdf, err := svc.Issue(context.Background(), "staff-1", "s1", models.CertificateTypeBonafide)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Contains(t, cert.Serial, "TC/")
	require.Len(t, repo.created, 1)
}

func TestCertificateTransferRequiresGraduationAndClearance(t *testing.T) {
	repo := &certificateRepoStub{}
	students := map[string]*models.Student{
		"enrolled":  {ID: "enrolled", Status: models.StudentStatusApproved},
		"graduated": {ID: "graduated", RegisterNo: "CS-002", FullName: "Dev Anand", Status: models.StudentStatusGraduated},
	}
	cleared := map[string]bool{}
	svc := newCertificateTestService(repo, students, cleared)

	_, _, err := svc.Issue(context.Background(), "staff-1", "enrolled", models.CertificateTypeTransfer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Issue(context.Background(), "staff-1", "graduated", models.CertificateTypeTransfer)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotCleared.Code, appErrors.FromError(err).Code)

	cleared["graduated"] = true
	cert, pdf, err := svc.Issue(context.Background(), "staff-1", "graduated", models.CertificateTypeTransfer)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, models.CertificateTypeTransfer, cert.Type)
}

func TestCertificateSerialsIncrementWithinYear(t *testing.T) {
	repo := &certificateRepoStub{}
	svc := newCertificateTestService(repo, map[string]*models.Student{
		"s1": {ID: "s1", Status: models.StudentStatusApproved},
	}, nil)

	first, _, err := svc.Issue(context.Background(), "staff-1", "s1", models.CertificateTypeBonafide)
	require.NoError(t, err)
	second, _, err := svc.Issue(context.Background(), "staff-1", "s1", models.CertificateTypeBonafide)
	require.NoError(t, err)
	assert.NotEqual(t, first.Serial, second.Serial)
}

func TestCertificateIssuanceDisabled(t *testing.T) {
	svc := NewCertificateService(&certificateRepoStub{}, &studentReaderStub{}, &clearanceCheckerStub{}, nil, nil, nil, CertificateServiceConfig{Enabled: false})

	_, _, err := svc.Issue(context.Background(), "staff-1", "s1", models.CertificateTypeBonafide)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
