package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Task statuses. A task moves through the lifecycle via the transition
// table in internal/workflow; there is no other path between statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusSubmitted  = "submitted"
	TaskStatusCompleted  = "completed"
	TaskStatusRejected   = "rejected"
	TaskStatusCancelled  = "cancelled"
)

// Report types, ordered by scope breadth. An overall_tdg assignment grants
// access to everything in the year; a standard assignment covers the standard
// and every criteria under it; a criteria assignment covers one criterion.
const (
	ReportTypeCriteria   = "criteria"
	ReportTypeStandard   = "standard"
	ReportTypeOverallTDG = "overall_tdg"
)

// TaskActiveStatuses are the statuses in which a task grants its assignees
// scoped permissions. Completed, rejected and cancelled tasks grant nothing.
var TaskActiveStatuses = []string{TaskStatusPending, TaskStatusInProgress, TaskStatusSubmitted}

// ValidTaskStatus reports whether the status is part of the lifecycle.
func ValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusSubmitted,
		TaskStatusCompleted, TaskStatusRejected, TaskStatusCancelled:
		return true
	}
	return false
}

// ValidReportType reports whether the report type is recognised.
func ValidReportType(reportType string) bool {
	switch reportType {
	case ReportTypeCriteria, ReportTypeStandard, ReportTypeOverallTDG:
		return true
	}
	return false
}

// Task is a writing assignment binding one or more reporters to a slice of
// the accreditation structure for one academic year.
type Task struct {
	ID              string         `db:"id" json:"id"`
	TaskCode        string         `db:"task_code" json:"taskCode"`
	AcademicYearID  string         `db:"academic_year_id" json:"academicYearId"`
	ProgramID       string         `db:"program_id" json:"programId"`
	OrganizationID  sql.NullString `db:"organization_id" json:"organizationId,omitempty"`
	StandardID      string         `db:"standard_id" json:"standardId"`
	CriteriaID      sql.NullString `db:"criteria_id" json:"criteriaId,omitempty"`
	ReportType      string         `db:"report_type" json:"reportType"`
	Status          string         `db:"status" json:"status"`
	Description     string         `db:"description" json:"description"`
	AssignedTo      pq.StringArray `db:"assigned_to" json:"assignedTo"`
	CreatedBy       string         `db:"created_by" json:"createdBy"`
	DueDate         sql.NullTime   `db:"due_date" json:"dueDate,omitempty"`
	SubmittedAt     sql.NullTime   `db:"submitted_at" json:"submittedAt,omitempty"`
	ReviewedBy      sql.NullString `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt      sql.NullTime   `db:"reviewed_at" json:"reviewedAt,omitempty"`
	RejectionReason sql.NullString `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the task currently grants scoped permissions.
func (t *Task) IsActive() bool {
	switch t.Status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusSubmitted:
		return true
	}
	return false
}

// HasAssignee reports whether the user is among the task's assignees.
func (t *Task) HasAssignee(userID string) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AcademicYearID string
	Status         string
	ReportType     string
	StandardID     string
	CriteriaID     string
	AssignedTo     string
	CreatedBy      string
	Search         string
	SortBy         string
	SortOrder      string
	Page           int
	PageSize       int
}
