package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/export"
)

type certificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	NextSerial(ctx context.Context, year int) (int, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.Certificate, error)
}

type clearanceChecker interface {
	IsCleared(ctx context.Context, studentID string) (bool, error)
}

// CertificateServiceConfig controls issuance behaviour.
type CertificateServiceConfig struct {
	Enabled       bool
	InstituteName string
	SerialPrefix  string
}

// CertificateService issues bonafide, transfer and conduct certificates as
// rendered PDFs with a persisted issuance trail.
type CertificateService struct {
	repo      certificateRepository
	students  studentReader
	clearance clearanceChecker
	exporter  *export.PDFExporter
	audit     auditLogger
	logger    *zap.Logger
	cfg       CertificateServiceConfig
}

// NewCertificateService constructs the certificate service.
func NewCertificateService(repo certificateRepository, students studentReader, clearance clearanceChecker, exporter *export.PDFExporter, audit auditLogger, logger *zap.Logger, cfg CertificateServiceConfig) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = export.NewPDFExporter()
	}
	if cfg.InstituteName == "" {
		cfg.InstituteName = "CampusHQ College"
	}
	if cfg.SerialPrefix == "" {
		cfg.SerialPrefix = "CERT"
	}
	return &CertificateService{repo: repo, students: students, clearance: clearance, exporter: exporter, audit: audit, logger: logger, cfg: cfg}
}

// Issue validates eligibility, renders the PDF and records the issuance.
func (s *CertificateService) Issue(ctx context.Context, actorID, studentID string, certType models.CertificateType) (*models.Certificate, []byte, error) {
	if !s.cfg.Enabled {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "certificate issuance is disabled")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.checkEligibility(ctx, student, certType); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	seq, err := s.repo.NextSerial(ctx, now.Year())
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve serial")
	}
	serial := fmt.Sprintf("%s/%d/%04d", s.cfg.SerialPrefix, now.Year(), seq)

	pdf, err := s.exporter.RenderCertificate(export.CertificateLetter{
		Institute: s.cfg.InstituteName,
		Title:     s.titleFor(certType),
		Serial:    serial,
		Body:      s.bodyFor(student, certType),
		IssuedOn:  now.Format("02 Jan 2006"),
		Signatory: "Principal",
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	cert := &models.Certificate{
		StudentID: studentID,
		Type:      certType,
		Serial:    serial,
		IssuedBy:  actorID,
		IssuedAt:  now,
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record issuance")
	}

	if s.audit != nil {
		entry := &models.AuditLog{
			Action:     models.AuditActionCertificateIssue,
			Resource:   "certificates",
			ResourceID: &cert.ID,
			NewValues:  []byte(fmt.Sprintf(`{"type":%q,"serial":%q}`, certType, serial)),
		}
		if actorID != "" {
			entry.UserID = &actorID
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record certificate audit log", zap.Error(err))
		}
	}

	return cert, pdf, nil
}

// History lists issued certificates for a student.
func (s *CertificateService) History(ctx context.Context, studentID string) ([]models.Certificate, error) {
	certs, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

func (s *CertificateService) checkEligibility(ctx context.Context, student *models.Student, certType models.CertificateType) error {
	switch certType {
	case models.CertificateTypeBonafide:
		if student.Status != models.StudentStatusApproved {
			return appErrors.Clone(appErrors.ErrValidation, "bonafide requires an enrolled student")
		}
	case models.CertificateTypeConduct:
		if student.Status != models.StudentStatusApproved && student.Status != models.StudentStatusGraduated {
			return appErrors.Clone(appErrors.ErrValidation, "conduct certificate requires an enrolled or graduated student")
		}
	case models.CertificateTypeTransfer:
		if student.Status != models.StudentStatusGraduated {
			return appErrors.Clone(appErrors.ErrValidation, "transfer certificate requires a graduated student")
		}
		cleared, err := s.clearance.IsCleared(ctx, student.ID)
		if err != nil {
			return err
		}
		if !cleared {
			return appErrors.Clone(appErrors.ErrNotCleared, "transfer certificate requires an approved no-due clearance")
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown certificate type")
	}
	return nil
}

func (s *CertificateService) titleFor(certType models.CertificateType) string {
	switch certType {
	case models.CertificateTypeBonafide:
		return "Bonafide Certificate"
	case models.CertificateTypeTransfer:
		return "Transfer Certificate"
	case models.CertificateTypeConduct:
		return "Conduct Certificate"
	}
	return string(certType)
}

func (s *CertificateService) bodyFor(student *models.Student, certType models.CertificateType) string {
	switch certType {
	case models.CertificateTypeBonafide:
		return fmt.Sprintf("This is to certify that %s (Register No. %s) is a bonafide student of this institution, currently studying in semester %d.",
			student.FullName, student.RegisterNo, student.Semester)
	case models.CertificateTypeTransfer:
		return fmt.Sprintf("This is to certify that %s (Register No. %s) has completed the programme at this institution and has no pending dues. The student is hereby granted transfer.",
			student.FullName, student.RegisterNo)
	case models.CertificateTypeConduct:
		return fmt.Sprintf("This is to certify that %s (Register No. %s) has maintained good conduct during the period of study at this institution.",
			student.FullName, student.RegisterNo)
	}
	return ""
}
