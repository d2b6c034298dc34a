package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/models"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

type evidenceStore interface {
	Create(ctx context.Context, evidence *models.Evidence) error
	GetByID(ctx context.Context, id string) (*models.Evidence, error)
	ListByCriteria(ctx context.Context, criteriaID, yearID string) ([]models.Evidence, error)
	UpdateFileURL(ctx context.Context, id, fileURL string) error
	Delete(ctx context.Context, id string) error
}

type evidenceFileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type evidenceURLSigner interface {
	Generate(evidenceID, relPath string) (string, time.Time, error)
	Parse(token string) (evidenceID, relPath string, expiresAt time.Time, err error)
}

type evidenceCriteriaReader interface {
	GetCriteriaByID(ctx context.Context, id string) (*models.Criteria, error)
}

type evidencePermissionChecker interface {
	CanUploadEvidence(ctx context.Context, userID, role, criteriaID, yearID string) (bool, error)
}

// EvidenceService manages supporting documents under criteria.
type EvidenceService struct {
	repo        evidenceStore
	structure   evidenceCriteriaReader
	permissions evidencePermissionChecker
	files       evidenceFileStore
	signer      evidenceURLSigner
	audit       auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEvidenceService constructs an EvidenceService.
func NewEvidenceService(repo evidenceStore, structure evidenceCriteriaReader, permissions evidencePermissionChecker, files evidenceFileStore, signer evidenceURLSigner, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *EvidenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidenceService{
		repo:        repo,
		structure:   structure,
		permissions: permissions,
		files:       files,
		signer:      signer,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// Create uploads evidence. The actor needs upload authority at the
// criterion's scope.
func (s *EvidenceService) Create(ctx context.Context, year *models.AcademicYear, req dto.CreateEvidenceRequest, actor *models.JWTClaims) (*models.Evidence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evidence payload")
	}

	criteria, err := s.structure.GetCriteriaByID(ctx, req.CriteriaID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criteria")
	}
	if criteria == nil || criteria.AcademicYearID != year.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "criteria not found in academic year")
	}

	allowed, err := s.permissions.CanUploadEvidence(ctx, actor.UserID, actor.Role, criteria.ID, year.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no upload authority under this criteria")
	}

	now := time.Now().UTC()
	evidence := &models.Evidence{
		ID:             uuid.NewString(),
		AcademicYearID: year.ID,
		StandardID:     criteria.StandardID,
		CriteriaID:     criteria.ID,
		Code:           req.Code,
		Name:           req.Name,
		Status:         models.EvidenceStatusPending,
		UploadedBy:     actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.FileURL != "" {
		evidence.FileURL = sql.NullString{String: req.FileURL, Valid: true}
	}

	if err := s.repo.Create(ctx, evidence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evidence")
	}

	s.audit.Record(actor.UserID, models.AuditEvidenceCreated, "evidence", evidence.ID, map[string]string{"code": evidence.Code})
	return evidence, nil
}

// ListByCriteria returns the evidence under a criterion.
func (s *EvidenceService) ListByCriteria(ctx context.Context, year *models.AcademicYear, criteriaID string) ([]models.Evidence, error) {
	evidences, err := s.repo.ListByCriteria(ctx, criteriaID, year.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evidence")
	}
	return evidences, nil
}

// AttachFile streams an uploaded file into storage and points the evidence
// record at it. The actor needs upload authority at the criterion's scope.
func (s *EvidenceService) AttachFile(ctx context.Context, year *models.AcademicYear, evidenceID, filename string, r io.Reader, actor *models.JWTClaims) (*models.Evidence, error) {
	evidence, err := s.getInYear(ctx, year, evidenceID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.permissions.CanUploadEvidence(ctx, actor.UserID, actor.Role, evidence.CriteriaID, year.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no upload authority under this criteria")
	}

	relPath := fmt.Sprintf("%s/%s%s", year.ID, evidence.ID, path.Ext(filename))
	if _, err := s.files.SaveStream(relPath, r); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store evidence file")
	}
	if err := s.repo.UpdateFileURL(ctx, evidence.ID, relPath); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record evidence file")
	}
	evidence.FileURL = sql.NullString{String: relPath, Valid: true}
	evidence.UpdatedAt = time.Now().UTC()

	s.audit.Record(actor.UserID, models.AuditEvidenceUploaded, "evidence", evidence.ID, map[string]string{"file": relPath})
	return evidence, nil
}

// DownloadURL issues a short-lived signed token for the evidence file.
func (s *EvidenceService) DownloadURL(ctx context.Context, year *models.AcademicYear, evidenceID string) (string, time.Time, error) {
	evidence, err := s.getInYear(ctx, year, evidenceID)
	if err != nil {
		return "", time.Time{}, err
	}
	if !evidence.FileURL.Valid {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "evidence has no attached file")
	}

	token, expiresAt, err := s.signer.Generate(evidence.ID, evidence.FileURL.String)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expiresAt, nil
}

// EvidenceDownload is a resolved signed download.
type EvidenceDownload struct {
	File     *os.File
	Filename string
}

// ResolveDownload validates a signed token and opens the referenced file.
func (s *EvidenceService) ResolveDownload(ctx context.Context, token string) (*EvidenceDownload, error) {
	evidenceID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}

	evidence, err := s.repo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}
	if evidence == nil || !evidence.FileURL.Valid || evidence.FileURL.String != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence file not found")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open evidence file")
	}
	return &EvidenceDownload{
		File:     file,
		Filename: fmt.Sprintf("%s%s", evidence.Code, path.Ext(relPath)),
	}, nil
}

// Delete removes an evidence record. Upload authority doubles as delete
// authority.
func (s *EvidenceService) Delete(ctx context.Context, year *models.AcademicYear, evidenceID string, actor *models.JWTClaims) error {
	evidence, err := s.getInYear(ctx, year, evidenceID)
	if err != nil {
		return err
	}

	allowed, err := s.permissions.CanUploadEvidence(ctx, actor.UserID, actor.Role, evidence.CriteriaID, year.ID)
	if err != nil {
		return err
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "no upload authority under this criteria")
	}

	if err := s.repo.Delete(ctx, evidence.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete evidence")
	}
	if evidence.FileURL.Valid {
		if err := s.files.Delete(evidence.FileURL.String); err != nil {
			s.logger.Warn("failed to remove evidence file", zap.String("evidence_id", evidence.ID), zap.Error(err))
		}
	}

	s.audit.Record(actor.UserID, models.AuditEvidenceDeleted, "evidence", evidence.ID, nil)
	return nil
}

func (s *EvidenceService) getInYear(ctx context.Context, year *models.AcademicYear, evidenceID string) (*models.Evidence, error) {
	evidence, err := s.repo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evidence")
	}
	if evidence == nil || evidence.AcademicYearID != year.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "evidence not found in academic year")
	}
	return evidence, nil
}
