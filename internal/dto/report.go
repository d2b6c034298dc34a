package dto

// CreateReportRequest is the payload for creating a report.
type CreateReportRequest struct {
	ReportType      string `json:"reportType" validate:"required,oneof=overall_tdg standard criteria"`
	TaskID          string `json:"taskId" validate:"omitempty"`
	StandardID      string `json:"standardId" validate:"omitempty"`
	CriteriaID      string `json:"criteriaId" validate:"omitempty"`
	Title           string `json:"title" validate:"required"`
	Content         string `json:"content"`
	ContentMethod   string `json:"contentMethod" validate:"required,oneof=online_editor file_upload"`
	AttachedFileURL string `json:"attachedFileUrl"`
}

// UpdateReportRequest is the payload for editing report content. UpdateSeq
// must echo the sequence the client read; a stale value is rejected.
type UpdateReportRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1"`
	Content         *string `json:"content"`
	AttachedFileURL *string `json:"attachedFileUrl"`
	ChangeNote      string  `json:"changeNote"`
	UpdateSeq       int64   `json:"updateSeq" validate:"required,min=1"`
}

// ReviewReportRequest carries approval or rejection feedback.
type ReviewReportRequest struct {
	Feedback string `json:"feedback"`
}

// AssignReportersRequest replaces a report's reporter list.
type AssignReportersRequest struct {
	Reporters []string `json:"reporters" validate:"required,min=1,dive,required"`
}

// AddCommentRequest appends a reviewer comment.
type AddCommentRequest struct {
	Section string `json:"section"`
	Content string `json:"content" validate:"required"`
}

// ReportListQuery holds the supported list filters.
type ReportListQuery struct {
	ReportType string `form:"reportType" validate:"omitempty,oneof=overall_tdg standard criteria"`
	Status     string `form:"status" validate:"omitempty,oneof=draft public approved rejected published"`
	StandardID string `form:"standardId"`
	CriteriaID string `form:"criteriaId"`
	CreatedBy  string `form:"createdBy"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}
