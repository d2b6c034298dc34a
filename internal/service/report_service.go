package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vietqa/accred-api/internal/dto"
	"github.com/vietqa/accred-api/internal/models"
	"github.com/vietqa/accred-api/internal/repository"
	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

type reportStore interface {
	CreateWithCode(ctx context.Context, report *models.Report, prefix string) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	UpdateContentWithVersion(ctx context.Context, report *models.Report, expectedSeq int64, version *models.ReportVersion) (bool, error)
	SetStatus(ctx context.Context, id, status string, publishedAt sql.NullTime) error
	SetApprovalWithCascade(ctx context.Context, report *models.Report, evidenceStatus string) error
	SetReporters(ctx context.Context, id string, reporters pq.StringArray) error
	Delete(ctx context.Context, id string) error
	ListVersions(ctx context.Context, reportID string) ([]models.ReportVersion, error)
	AddComment(ctx context.Context, comment *models.ReviewerComment) error
	GetCommentByID(ctx context.Context, id string) (*models.ReviewerComment, error)
	ResolveComment(ctx context.Context, id, resolvedBy string) error
	ListComments(ctx context.Context, reportID string) ([]models.ReviewerComment, error)
	List(ctx context.Context, filter models.ReportFilter, visibility *repository.ReportVisibility) ([]models.Report, int, error)
}

type reportStructureStore interface {
	GetStandardByID(ctx context.Context, id string) (*models.Standard, error)
	GetCriteriaByID(ctx context.Context, id string) (*models.Criteria, error)
}

type reportTaskReader interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
}

type reportPermissionChecker interface {
	CanAssignReporters(ctx context.Context, userID, role, standardID, criteriaID, yearID string) (bool, error)
	AccessibleStandardIDs(ctx context.Context, userID, role, yearID string) ([]string, error)
	AccessibleCriteriaIDs(ctx context.Context, userID, role, yearID string) ([]string, error)
}

// Report code prefixes per scope tier.
var reportCodePrefixes = map[string]string{
	models.ReportTypeOverallTDG: "TDG",
	models.ReportTypeStandard:   "SA",
	models.ReportTypeCriteria:   "CA",
}

// ReportService orchestrates the report lifecycle: authoring, versioning,
// publication, review and the evidence cascade.
type ReportService struct {
	repo        reportStore
	structure   reportStructureStore
	tasks       reportTaskReader
	permissions reportPermissionChecker
	audit       auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(repo reportStore, structure reportStructureStore, tasks reportTaskReader, permissions reportPermissionChecker, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:        repo,
		structure:   structure,
		tasks:       tasks,
		permissions: permissions,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// canEdit reports whether the actor holds editor rights on the report.
func (s *ReportService) canEdit(report *models.Report, actor *models.JWTClaims) bool {
	return models.IsPrivileged(actor.Role) ||
		report.CreatedBy == actor.UserID ||
		report.HasReporter(actor.UserID)
}

// Create authors a new report at the requested scope. The code is derived
// from the scope tier, academic year and the standard/criteria codes.
func (s *ReportService) Create(ctx context.Context, year *models.AcademicYear, req dto.CreateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	switch req.ReportType {
	case models.ReportTypeStandard:
		if req.StandardID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a standard report requires standardId")
		}
		req.CriteriaID = ""
	case models.ReportTypeCriteria:
		if req.StandardID == "" || req.CriteriaID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "a criteria report requires standardId and criteriaId")
		}
	default:
		req.StandardID = ""
		req.CriteriaID = ""
	}

	allowed, err := s.permissions.CanAssignReporters(ctx, actor.UserID, actor.Role, req.StandardID, req.CriteriaID, year.ID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no report authority at the requested scope")
	}

	now := time.Now().UTC()
	report := &models.Report{
		ID:                uuid.NewString(),
		AcademicYearID:    year.ID,
		ReportType:        req.ReportType,
		Title:             req.Title,
		Content:           req.Content,
		ContentMethod:     req.ContentMethod,
		Status:            models.ReportStatusDraft,
		AssignedReporters: pq.StringArray{actor.UserID},
		CreatedBy:         actor.UserID,
		UpdateSeq:         1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if req.AttachedFileURL != "" {
		report.AttachedFileURL = sql.NullString{String: req.AttachedFileURL, Valid: true}
	}

	prefix := fmt.Sprintf("%s-%d", reportCodePrefixes[req.ReportType], year.StartYear)

	if req.StandardID != "" {
		standard, err := s.structure.GetStandardByID(ctx, req.StandardID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load standard")
		}
		if standard == nil || standard.AcademicYearID != year.ID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "standard not found in academic year")
		}
		report.StandardID = sql.NullString{String: standard.ID, Valid: true}
		report.ProgramID = standard.ProgramID
		report.OrganizationID = standard.OrganizationID
		prefix += "-" + standard.Code
	}
	if req.CriteriaID != "" {
		criteria, err := s.structure.GetCriteriaByID(ctx, req.CriteriaID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criteria")
		}
		if criteria == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "criteria not found")
		}
		if criteria.StandardID != req.StandardID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "criteria does not belong to the given standard")
		}
		report.CriteriaID = sql.NullString{String: criteria.ID, Valid: true}
		prefix += "-" + criteria.Code
	}
	if req.TaskID != "" {
		task, err := s.tasks.GetByID(ctx, req.TaskID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
		}
		if task == nil || task.AcademicYearID != year.ID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found in academic year")
		}
		report.TaskID = sql.NullString{String: task.ID, Valid: true}
	}

	if err := s.repo.CreateWithCode(ctx, report, prefix); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	s.audit.Record(actor.UserID, models.AuditReportCreated, "report", report.ID, map[string]string{"code": report.Code})
	return report, nil
}

// Update edits report content. When title or content differ from the stored
// values, the previous values are snapshotted into the version log in the
// same transaction as the edit. The client must echo the update_seq it read;
// a stale value is rejected rather than silently overwriting a concurrent
// edit.
func (s *ReportService) Update(ctx context.Context, year *models.AcademicYear, reportID string, req dto.UpdateReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(report, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no edit access to this report")
	}
	if report.UpdateSeq != req.UpdateSeq {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report was modified by someone else, reload and retry")
	}

	previousTitle := report.Title
	previousContent := report.Content
	changed := false

	if req.Title != nil && *req.Title != report.Title {
		report.Title = *req.Title
		changed = true
	}
	if req.Content != nil && *req.Content != report.Content {
		report.Content = *req.Content
		changed = true
	}
	if req.AttachedFileURL != nil {
		if *req.AttachedFileURL == "" {
			report.AttachedFileURL = sql.NullString{}
		} else {
			report.AttachedFileURL = sql.NullString{String: *req.AttachedFileURL, Valid: true}
		}
	}

	var version *models.ReportVersion
	if changed {
		version = &models.ReportVersion{
			ID:        uuid.NewString(),
			ReportID:  report.ID,
			Title:     previousTitle,
			Content:   previousContent,
			ChangedBy: actor.UserID,
			CreatedAt: time.Now().UTC(),
		}
		if req.ChangeNote != "" {
			version.ChangeNote = sql.NullString{String: req.ChangeNote, Valid: true}
		}
	}

	ok, err := s.repo.UpdateContentWithVersion(ctx, report, req.UpdateSeq, version)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report was modified by someone else, reload and retry")
	}
	report.UpdateSeq++

	s.audit.Record(actor.UserID, models.AuditReportUpdated, "report", report.ID, nil)
	return report, nil
}

// Publish makes the report available to reviewers. An online_editor report
// needs non-empty content; a file_upload report needs an attached file.
func (s *ReportService) Publish(ctx context.Context, year *models.AcademicYear, reportID string, actor *models.JWTClaims) (*models.Report, error) {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(report, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no edit access to this report")
	}
	if report.Status == models.ReportStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report is already published")
	}
	switch report.ContentMethod {
	case models.ContentMethodOnlineEditor:
		if report.Content == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot publish a report with empty content")
		}
	case models.ContentMethodFileUpload:
		if !report.AttachedFileURL.Valid || report.AttachedFileURL.String == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot publish a report without an attached file")
		}
	}

	now := time.Now().UTC()
	if err := s.repo.SetStatus(ctx, report.ID, models.ReportStatusPublished, sql.NullTime{Time: now, Valid: true}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish report")
	}
	report.Status = models.ReportStatusPublished
	report.PublishedAt = sql.NullTime{Time: now, Valid: true}

	s.audit.Record(actor.UserID, models.AuditReportPublished, "report", report.ID, nil)
	return report, nil
}

// Unpublish returns a published report to draft.
func (s *ReportService) Unpublish(ctx context.Context, year *models.AcademicYear, reportID string, actor *models.JWTClaims) (*models.Report, error) {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(report, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no edit access to this report")
	}
	if report.Status != models.ReportStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only a published report can be unpublished")
	}

	if err := s.repo.SetStatus(ctx, report.ID, models.ReportStatusDraft, sql.NullTime{}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unpublish report")
	}
	report.Status = models.ReportStatusDraft
	report.PublishedAt = sql.NullTime{}

	s.audit.Record(actor.UserID, models.AuditReportUnpublished, "report", report.ID, nil)
	return report, nil
}

// MakePublic shares the report inside the workspace.
func (s *ReportService) MakePublic(ctx context.Context, year *models.AcademicYear, reportID string, actor *models.JWTClaims) (*models.Report, error) {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(report, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no edit access to this report")
	}
	if report.Status == models.ReportStatusPublic {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report is already public")
	}
	if report.Status == models.ReportStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an approved report cannot be modified")
	}

	if err := s.repo.SetStatus(ctx, report.ID, models.ReportStatusPublic, report.PublishedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to make report public")
	}
	report.Status = models.ReportStatusPublic

	s.audit.Record(actor.UserID, models.AuditReportMadePublic, "report", report.ID, nil)
	return report, nil
}

// Approve marks the report approved and, for criteria reports, approves the
// criterion's evidence in the same transaction.
func (s *ReportService) Approve(ctx context.Context, year *models.AcademicYear, reportID string, req dto.ReviewReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	return s.review(ctx, year, reportID, models.ReportStatusApproved, req.Feedback, actor)
}

// Reject marks the report rejected with mandatory feedback and cascades the
// rejection to the criterion's evidence.
func (s *ReportService) Reject(ctx context.Context, year *models.AcademicYear, reportID string, req dto.ReviewReportRequest, actor *models.JWTClaims) (*models.Report, error) {
	if req.Feedback == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection requires feedback")
	}
	return s.review(ctx, year, reportID, models.ReportStatusRejected, req.Feedback, actor)
}

func (s *ReportService) review(ctx context.Context, year *models.AcademicYear, reportID, targetStatus, feedback string, actor *models.JWTClaims) (*models.Report, error) {
	if !models.IsPrivileged(actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admin or manager may review reports")
	}

	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status == targetStatus {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("report is already %s", targetStatus))
	}

	now := time.Now().UTC()
	report.Status = targetStatus
	report.ApprovedBy = sql.NullString{String: actor.UserID, Valid: true}
	report.ApprovedAt = sql.NullTime{Time: now, Valid: true}
	if feedback != "" {
		report.ApprovalFeedback = sql.NullString{String: feedback, Valid: true}
	} else {
		report.ApprovalFeedback = sql.NullString{}
	}

	evidenceStatus := models.EvidenceStatusApproved
	action := models.AuditReportApproved
	if targetStatus == models.ReportStatusRejected {
		evidenceStatus = models.EvidenceStatusRejected
		action = models.AuditReportRejected
	}

	if err := s.repo.SetApprovalWithCascade(ctx, report, evidenceStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review decision")
	}

	s.audit.Record(actor.UserID, action, "report", report.ID, map[string]string{"status": targetStatus})
	return report, nil
}

// RequestEditPermission grants the actor edit access. Access is granted
// immediately on request; callers who already hold it get a conflict.
func (s *ReportService) RequestEditPermission(ctx context.Context, year *models.AcademicYear, reportID string, actor *models.JWTClaims) (*models.Report, error) {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	if report.HasReporter(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has edit access")
	}

	reporters := append(pq.StringArray(nil), report.AssignedReporters...)
	if !report.HasReporter(report.CreatedBy) {
		reporters = append(reporters, report.CreatedBy)
	}
	reporters = append(reporters, actor.UserID)

	if err := s.repo.SetReporters(ctx, report.ID, reporters); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant edit access")
	}
	report.AssignedReporters = reporters

	s.audit.Record(actor.UserID, models.AuditEditAccessGranted, "report", report.ID, nil)
	return report, nil
}

// AssignReporters replaces the reporter list wholesale. The creator is
// always retained.
func (s *ReportService) AssignReporters(ctx context.Context, year *models.AcademicYear, reportID string, req dto.AssignReportersRequest, actor *models.JWTClaims) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reporters payload")
	}
	if !models.IsPrivileged(actor.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admin or manager may assign reporters")
	}

	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	reporters := pq.StringArray{}
	for _, id := range req.Reporters {
		if !seen[id] {
			seen[id] = true
			reporters = append(reporters, id)
		}
	}
	if !seen[report.CreatedBy] {
		reporters = append(reporters, report.CreatedBy)
	}

	if err := s.repo.SetReporters(ctx, report.ID, reporters); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign reporters")
	}
	report.AssignedReporters = reporters

	s.audit.Record(actor.UserID, models.AuditReportersAssigned, "report", report.ID, map[string]interface{}{"reporters": reporters})
	return report, nil
}

// Delete removes a report unless it has reached a shared status.
func (s *ReportService) Delete(ctx context.Context, year *models.AcademicYear, reportID string, actor *models.JWTClaims) error {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return err
	}
	if !models.IsPrivileged(actor.Role) && report.CreatedBy != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the creator or a manager may delete this report")
	}
	switch report.Status {
	case models.ReportStatusPublic, models.ReportStatusApproved, models.ReportStatusPublished:
		return appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot delete a %s report", report.Status))
	}

	if err := s.repo.Delete(ctx, report.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}

	s.audit.Record(actor.UserID, models.AuditReportDeleted, "report", report.ID, map[string]string{"code": report.Code})
	return nil
}

// AddComment appends an open reviewer comment. Any authenticated actor may
// comment.
func (s *ReportService) AddComment(ctx context.Context, year *models.AcademicYear, reportID string, req dto.AddCommentRequest, actor *models.JWTClaims) (*models.ReviewerComment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := &models.ReviewerComment{
		ID:        uuid.NewString(),
		ReportID:  report.ID,
		UserID:    actor.UserID,
		Content:   req.Content,
		Status:    models.CommentStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Section != "" {
		comment.Section = sql.NullString{String: req.Section, Valid: true}
	}

	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}

	s.audit.Record(actor.UserID, models.AuditCommentAdded, "report", report.ID, nil)
	return comment, nil
}

// ResolveComment flips a comment to resolved. Editor rights required.
func (s *ReportService) ResolveComment(ctx context.Context, year *models.AcademicYear, reportID, commentID string, actor *models.JWTClaims) (*models.ReviewerComment, error) {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	if !s.canEdit(report, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no edit access to this report")
	}

	comment, err := s.repo.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if comment == nil || comment.ReportID != report.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	if comment.Status == models.CommentStatusResolved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "comment is already resolved")
	}

	if err := s.repo.ResolveComment(ctx, comment.ID, actor.UserID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve comment")
	}
	now := time.Now().UTC()
	comment.Status = models.CommentStatusResolved
	comment.ResolvedBy = sql.NullString{String: actor.UserID, Valid: true}
	comment.ResolvedAt = sql.NullTime{Time: now, Valid: true}

	s.audit.Record(actor.UserID, models.AuditCommentResolved, "report", report.ID, nil)
	return comment, nil
}

// ListVersions returns the report's version history.
func (s *ReportService) ListVersions(ctx context.Context, year *models.AcademicYear, reportID string) ([]models.ReportVersion, error) {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list versions")
	}
	return versions, nil
}

// ListComments returns the report's comment thread.
func (s *ReportService) ListComments(ctx context.Context, year *models.AcademicYear, reportID string) ([]models.ReviewerComment, error) {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, report.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// GetByID fetches a report visible to the actor.
func (s *ReportService) GetByID(ctx context.Context, year *models.AcademicYear, reportID string, actor *models.JWTClaims) (*models.Report, error) {
	report, err := s.getInYear(ctx, year, reportID)
	if err != nil {
		return nil, err
	}
	if s.canEdit(report, actor) {
		return report, nil
	}
	switch report.Status {
	case models.ReportStatusPublic, models.ReportStatusApproved, models.ReportStatusPublished:
		return report, nil
	}

	visible, err := s.inAccessibleScope(ctx, report, actor, year.ID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this report")
	}
	return report, nil
}

// List returns reports in the year, restricted to what the actor may see.
func (s *ReportService) List(ctx context.Context, year *models.AcademicYear, query dto.ReportListQuery, actor *models.JWTClaims) ([]models.Report, int, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report filter")
	}

	filter := models.ReportFilter{
		AcademicYearID: year.ID,
		ReportType:     query.ReportType,
		Status:         query.Status,
		StandardID:     query.StandardID,
		CriteriaID:     query.CriteriaID,
		CreatedBy:      query.CreatedBy,
		Page:           query.Page,
		PageSize:       query.PageSize,
	}

	var visibility *repository.ReportVisibility
	if !models.IsPrivileged(actor.Role) {
		standards, err := s.permissions.AccessibleStandardIDs(ctx, actor.UserID, actor.Role, year.ID)
		if err != nil {
			return nil, 0, err
		}
		criteria, err := s.permissions.AccessibleCriteriaIDs(ctx, actor.UserID, actor.Role, year.ID)
		if err != nil {
			return nil, 0, err
		}
		visibility = &repository.ReportVisibility{
			UserID:              actor.UserID,
			AccessibleStandards: standards,
			AccessibleCriteria:  criteria,
		}
	}

	reports, total, err := s.repo.List(ctx, filter, visibility)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, total, nil
}

func (s *ReportService) inAccessibleScope(ctx context.Context, report *models.Report, actor *models.JWTClaims, yearID string) (bool, error) {
	if report.CriteriaID.Valid {
		criteria, err := s.permissions.AccessibleCriteriaIDs(ctx, actor.UserID, actor.Role, yearID)
		if err != nil {
			return false, err
		}
		for _, id := range criteria {
			if id == report.CriteriaID.String {
				return true, nil
			}
		}
		return false, nil
	}
	if report.StandardID.Valid {
		standards, err := s.permissions.AccessibleStandardIDs(ctx, actor.UserID, actor.Role, yearID)
		if err != nil {
			return false, err
		}
		for _, id := range standards {
			if id == report.StandardID.String {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

func (s *ReportService) getInYear(ctx context.Context, year *models.AcademicYear, reportID string) (*models.Report, error) {
	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if report == nil || report.AcademicYearID != year.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found in academic year")
	}
	return report, nil
}
