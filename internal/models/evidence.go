package models

import (
	"database/sql"
	"time"
)

// Evidence statuses. Evidence rides along with its criteria report: when the
// report is approved or rejected, every evidence item under the same
// criterion and year follows.
const (
	EvidenceStatusPending  = "pending"
	EvidenceStatusApproved = "approved"
	EvidenceStatusRejected = "rejected"
)

// Evidence is a supporting document attached to a criterion.
type Evidence struct {
	ID             string         `db:"id" json:"id"`
	AcademicYearID string         `db:"academic_year_id" json:"academicYearId"`
	StandardID     string         `db:"standard_id" json:"standardId"`
	CriteriaID     string         `db:"criteria_id" json:"criteriaId"`
	Code           string         `db:"code" json:"code"`
	Name           string         `db:"name" json:"name"`
	FileURL        sql.NullString `db:"file_url" json:"fileUrl,omitempty"`
	Status         string         `db:"status" json:"status"`
	UploadedBy     string         `db:"uploaded_by" json:"uploadedBy"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}
