package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vietqa/accred-api/internal/models"
)

const pqUniqueViolation = "23505"

// maxCodeAttempts bounds the retry loop for report code collisions.
const maxCodeAttempts = 5

// ReportRepository persists self-assessment reports, their version history
// and reviewer comment threads.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ReportVisibility restricts listings for unprivileged callers. A report is
// visible when the user created it, is assigned to it, it has reached a
// shared status, or it falls inside the user's accessible scope.
type ReportVisibility struct {
	UserID              string
	AccessibleStandards []string
	AccessibleCriteria  []string
}

// CreateWithCode inserts a report, allocating its code under the given
// prefix. Codes are sequential per prefix; a concurrent insert that takes
// the same sequence trips the unique index and the loop retries with the
// next one.
func (r *ReportRepository) CreateWithCode(ctx context.Context, report *models.Report, prefix string) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		var count int
		err := r.db.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM reports WHERE code LIKE $1`, prefix+"-%")
		if err != nil {
			return fmt.Errorf("count report codes: %w", err)
		}

		report.Code = fmt.Sprintf("%s-%03d", prefix, count+1+attempt)

		_, err = r.db.NamedExecContext(ctx, `
			INSERT INTO reports (
				id, code, academic_year_id, program_id, organization_id, report_type,
				task_id, standard_id, criteria_id, title, content, content_method,
				attached_file_url, status, assigned_reporters, created_by, update_seq,
				created_at, updated_at
			) VALUES (
				:id, :code, :academic_year_id, :program_id, :organization_id, :report_type,
				:task_id, :standard_id, :criteria_id, :title, :content, :content_method,
				:attached_file_url, :status, :assigned_reporters, :created_by, :update_seq,
				:created_at, :updated_at
			)`, report)
		if err == nil {
			return nil
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			continue
		}
		return fmt.Errorf("create report: %w", err)
	}
	return fmt.Errorf("create report: code collision for prefix %s persisted after %d attempts", prefix, maxCodeAttempts)
}

// GetByID fetches a report. Returns (nil, nil) when absent.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := r.db.GetContext(ctx, &report, `SELECT * FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

// UpdateContentWithVersion applies a content edit guarded by the caller's
// update_seq and, when a snapshot of the previous values is supplied, records
// it in the version log inside the same transaction. Either the edit and its
// snapshot both land or neither does. Returns false when the row has moved on
// since the caller read it.
func (r *ReportRepository) UpdateContentWithVersion(ctx context.Context, report *models.Report, expectedSeq int64, version *models.ReportVersion) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin report update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE reports SET
			title = $1,
			content = $2,
			content_method = $3,
			attached_file_url = $4,
			update_seq = update_seq + 1,
			updated_at = $5
		WHERE id = $6 AND update_seq = $7`,
		report.Title, report.Content, report.ContentMethod, report.AttachedFileURL,
		time.Now().UTC(), report.ID, expectedSeq)
	if err != nil {
		return false, fmt.Errorf("update report content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update report content: %w", err)
	}
	if affected != 1 {
		return false, nil
	}

	if version != nil {
		err := tx.GetContext(ctx, &version.VersionNumber, `
			INSERT INTO report_versions (id, report_id, version_number, title, content, change_note, changed_by, created_at)
			VALUES ($1, $2,
				(SELECT COALESCE(MAX(version_number), 0) + 1 FROM report_versions WHERE report_id = $2),
				$3, $4, $5, $6, $7)
			RETURNING version_number`,
			version.ID, version.ReportID, version.Title, version.Content,
			version.ChangeNote, version.ChangedBy, version.CreatedAt)
		if err != nil {
			return false, fmt.Errorf("add report version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit report update: %w", err)
	}
	return true, nil
}

// SetStatus rewrites the report's status and publication timestamp.
func (r *ReportRepository) SetStatus(ctx context.Context, id, status string, publishedAt sql.NullTime) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reports SET status = $1, published_at = $2, updated_at = $3
		WHERE id = $4`, status, publishedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set report status: %w", err)
	}
	return nil
}

// SetApprovalWithCascade writes the approval decision and, for criteria
// reports, flips the criterion's evidence to the matching status inside the
// same transaction. Either both land or neither does.
func (r *ReportRepository) SetApprovalWithCascade(ctx context.Context, report *models.Report, evidenceStatus string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approval: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		UPDATE reports SET
			status = $1,
			approved_by = $2,
			approved_at = $3,
			approval_feedback = $4,
			updated_at = $5
		WHERE id = $6`,
		report.Status, report.ApprovedBy, report.ApprovedAt,
		report.ApprovalFeedback, time.Now().UTC(), report.ID)
	if err != nil {
		return fmt.Errorf("set report approval: %w", err)
	}

	if report.CriteriaID.Valid {
		_, err = tx.ExecContext(ctx, `
			UPDATE evidences SET status = $1, updated_at = $2
			WHERE criteria_id = $3 AND academic_year_id = $4`,
			evidenceStatus, time.Now().UTC(), report.CriteriaID.String, report.AcademicYearID)
		if err != nil {
			return fmt.Errorf("cascade evidence status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approval: %w", err)
	}
	return nil
}

// SetReporters replaces the report's assigned reporter list.
func (r *ReportRepository) SetReporters(ctx context.Context, id string, reporters pq.StringArray) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reports SET assigned_reporters = $1, updated_at = $2
		WHERE id = $3`, reporters, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set report reporters: %w", err)
	}
	return nil
}

// Delete removes a report together with its versions and comments.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete report: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM report_versions WHERE report_id = $1`, id); err != nil {
		return fmt.Errorf("delete report versions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reviewer_comments WHERE report_id = $1`, id); err != nil {
		return fmt.Errorf("delete reviewer comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete report: %w", err)
	}
	return nil
}

// ListVersions returns a report's snapshots, newest first.
func (r *ReportRepository) ListVersions(ctx context.Context, reportID string) ([]models.ReportVersion, error) {
	versions := []models.ReportVersion{}
	err := r.db.SelectContext(ctx, &versions, `
		SELECT * FROM report_versions
		WHERE report_id = $1
		ORDER BY version_number DESC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list report versions: %w", err)
	}
	return versions, nil
}

// AddComment inserts a reviewer comment.
func (r *ReportRepository) AddComment(ctx context.Context, comment *models.ReviewerComment) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO reviewer_comments (id, report_id, user_id, section, content, status, created_at, updated_at)
		VALUES (:id, :report_id, :user_id, :section, :content, :status, :created_at, :updated_at)`, comment)
	if err != nil {
		return fmt.Errorf("add reviewer comment: %w", err)
	}
	return nil
}

// GetCommentByID fetches a comment. Returns (nil, nil) when absent.
func (r *ReportRepository) GetCommentByID(ctx context.Context, id string) (*models.ReviewerComment, error) {
	var comment models.ReviewerComment
	err := r.db.GetContext(ctx, &comment, `SELECT * FROM reviewer_comments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reviewer comment: %w", err)
	}
	return &comment, nil
}

// ResolveComment marks a comment resolved.
func (r *ReportRepository) ResolveComment(ctx context.Context, id, resolvedBy string) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE reviewer_comments SET status = $1, resolved_by = $2, resolved_at = $3, updated_at = $3
		WHERE id = $4`, models.CommentStatusResolved, resolvedBy, now, id)
	if err != nil {
		return fmt.Errorf("resolve reviewer comment: %w", err)
	}
	return nil
}

// ListComments returns a report's comment thread, oldest first.
func (r *ReportRepository) ListComments(ctx context.Context, reportID string) ([]models.ReviewerComment, error) {
	comments := []models.ReviewerComment{}
	err := r.db.SelectContext(ctx, &comments, `
		SELECT * FROM reviewer_comments
		WHERE report_id = $1
		ORDER BY created_at ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("list reviewer comments: %w", err)
	}
	return comments, nil
}

// List returns reports matching the filter plus the unpaginated total. When
// visibility is non-nil the result is restricted to what that user may see.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter, visibility *ReportVisibility) ([]models.Report, int, error) {
	where := []string{"academic_year_id = :academic_year_id"}
	args := map[string]interface{}{
		"academic_year_id": filter.AcademicYearID,
	}

	if filter.ReportType != "" {
		where = append(where, "report_type = :report_type")
		args["report_type"] = filter.ReportType
	}
	if filter.Status != "" {
		where = append(where, "status = :status")
		args["status"] = filter.Status
	}
	if filter.StandardID != "" {
		where = append(where, "standard_id = :standard_id")
		args["standard_id"] = filter.StandardID
	}
	if filter.CriteriaID != "" {
		where = append(where, "criteria_id = :criteria_id")
		args["criteria_id"] = filter.CriteriaID
	}
	if filter.CreatedBy != "" {
		where = append(where, "created_by = :created_by")
		args["created_by"] = filter.CreatedBy
	}

	if visibility != nil {
		where = append(where, `(
			created_by = :viewer_id
			OR :viewer_id = ANY(assigned_reporters)
			OR status IN ('public', 'approved', 'published')
			OR standard_id = ANY(:viewer_standards)
			OR criteria_id = ANY(:viewer_criteria)
		)`)
		args["viewer_id"] = visibility.UserID
		args["viewer_standards"] = pq.Array(visibility.AccessibleStandards)
		args["viewer_criteria"] = pq.Array(visibility.AccessibleCriteria)
	}

	clause := strings.Join(where, " AND ")

	countQuery, countArgs, err := sqlx.Named(`SELECT COUNT(*) FROM reports WHERE `+clause, args)
	if err != nil {
		return nil, 0, fmt.Errorf("build report count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	args["limit"] = pageSize
	args["offset"] = (page - 1) * pageSize

	listQuery, listArgs, err := sqlx.Named(`
		SELECT * FROM reports WHERE `+clause+`
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset`, args)
	if err != nil {
		return nil, 0, fmt.Errorf("build report list query: %w", err)
	}

	reports := []models.Report{}
	if err := r.db.SelectContext(ctx, &reports, r.db.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	return reports, total, nil
}
