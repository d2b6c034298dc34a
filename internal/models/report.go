package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Report statuses. Public, approved and published reports cannot be
// deleted.
const (
	ReportStatusDraft     = "draft"
	ReportStatusPublic    = "public"
	ReportStatusApproved  = "approved"
	ReportStatusRejected  = "rejected"
	ReportStatusPublished = "published"
)

// Content delivery methods for a report body.
const (
	ContentMethodOnlineEditor = "online_editor"
	ContentMethodFileUpload   = "file_upload"
)

// Comment statuses for reviewer feedback threads.
const (
	CommentStatusOpen     = "open"
	CommentStatusResolved = "resolved"
)

// ValidReportStatus reports whether the status is part of the lifecycle.
func ValidReportStatus(status string) bool {
	switch status {
	case ReportStatusDraft, ReportStatusPublic, ReportStatusApproved,
		ReportStatusRejected, ReportStatusPublished:
		return true
	}
	return false
}

// Report is a self-assessment document at one of three scopes: a criterion,
// a standard, or the overall program.
type Report struct {
	ID                string         `db:"id" json:"id"`
	Code              string         `db:"code" json:"code"`
	AcademicYearID    string         `db:"academic_year_id" json:"academicYearId"`
	ProgramID         string         `db:"program_id" json:"programId"`
	OrganizationID    sql.NullString `db:"organization_id" json:"organizationId,omitempty"`
	ReportType        string         `db:"report_type" json:"reportType"`
	TaskID            sql.NullString `db:"task_id" json:"taskId,omitempty"`
	StandardID        sql.NullString `db:"standard_id" json:"standardId,omitempty"`
	CriteriaID        sql.NullString `db:"criteria_id" json:"criteriaId,omitempty"`
	Title             string         `db:"title" json:"title"`
	Content           string         `db:"content" json:"content"`
	ContentMethod     string         `db:"content_method" json:"contentMethod"`
	AttachedFileURL   sql.NullString `db:"attached_file_url" json:"attachedFileUrl,omitempty"`
	Status            string         `db:"status" json:"status"`
	AssignedReporters pq.StringArray `db:"assigned_reporters" json:"assignedReporters"`
	CreatedBy         string         `db:"created_by" json:"createdBy"`
	UpdateSeq         int64          `db:"update_seq" json:"updateSeq"`
	ApprovedBy        sql.NullString `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt        sql.NullTime   `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovalFeedback  sql.NullString `db:"approval_feedback" json:"approvalFeedback,omitempty"`
	PublishedAt       sql.NullTime   `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// HasReporter reports whether the user is in the report's reporter list.
func (r *Report) HasReporter(userID string) bool {
	for _, id := range r.AssignedReporters {
		if id == userID {
			return true
		}
	}
	return false
}

// ReportVersion snapshots the report content prior to an edit.
type ReportVersion struct {
	ID            string         `db:"id" json:"id"`
	ReportID      string         `db:"report_id" json:"reportId"`
	VersionNumber int            `db:"version_number" json:"versionNumber"`
	Title         string         `db:"title" json:"title"`
	Content       string         `db:"content" json:"content"`
	ChangeNote    sql.NullString `db:"change_note" json:"changeNote,omitempty"`
	ChangedBy     string         `db:"changed_by" json:"changedBy"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

// ReviewerComment is a feedback thread entry on a report.
type ReviewerComment struct {
	ID         string         `db:"id" json:"id"`
	ReportID   string         `db:"report_id" json:"reportId"`
	UserID     string         `db:"user_id" json:"userId"`
	Section    sql.NullString `db:"section" json:"section,omitempty"`
	Content    string         `db:"content" json:"content"`
	Status     string         `db:"status" json:"status"`
	ResolvedBy sql.NullString `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt sql.NullTime   `db:"resolved_at" json:"resolvedAt,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}

// ReportFilter narrows report listings.
type ReportFilter struct {
	AcademicYearID string
	ReportType     string
	Status         string
	StandardID     string
	CriteriaID     string
	CreatedBy      string
	Page           int
	PageSize       int
}
