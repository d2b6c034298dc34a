package dto

import "time"

// CreateTaskRequest is the payload for creating a writing assignment.
type CreateTaskRequest struct {
	Description string     `json:"description" validate:"required"`
	StandardID  string     `json:"standardId" validate:"required"`
	CriteriaID  string     `json:"criteriaId" validate:"omitempty"`
	ReportType  string     `json:"reportType" validate:"required,oneof=overall_tdg standard criteria"`
	AssignedTo  []string   `json:"assignedTo" validate:"required,min=1,dive,required"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateTaskRequest is the payload for updating a task. Nil fields are left
// untouched.
type UpdateTaskRequest struct {
	Description *string    `json:"description" validate:"omitempty,min=1"`
	AssignedTo  []string   `json:"assignedTo" validate:"omitempty,min=1,dive,required"`
	ReportType  *string    `json:"reportType" validate:"omitempty,oneof=overall_tdg standard criteria"`
	Status      *string    `json:"status" validate:"omitempty,oneof=pending in_progress submitted completed rejected cancelled"`
	DueDate     *time.Time `json:"dueDate"`
}

// ReviewTaskRequest is the payload for the review action on a submitted
// task.
type ReviewTaskRequest struct {
	Status          string `json:"status" validate:"required,oneof=completed rejected"`
	RejectionReason string `json:"rejectionReason"`
}

// TaskListQuery holds the supported list filters. Search matches task code
// and description; sortBy is restricted to a fixed set of columns.
type TaskListQuery struct {
	Status       string `form:"status" validate:"omitempty,oneof=pending in_progress submitted completed rejected cancelled"`
	ReportType   string `form:"reportType" validate:"omitempty,oneof=overall_tdg standard criteria"`
	StandardID   string `form:"standardId"`
	CriteriaID   string `form:"criteriaId"`
	Search       string `form:"search"`
	SortBy       string `form:"sortBy" validate:"omitempty,oneof=created_at due_date task_code status"`
	SortOrder    string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	AssignedToMe bool   `form:"assignedToMe"`
	CreatedByMe  bool   `form:"createdByMe"`
	Page         int    `form:"page"`
	PageSize     int    `form:"pageSize"`
}
