package models

import (
	"database/sql"
	"time"
)

// Program is a training program under assessment, e.g. an undergraduate major.
type Program struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academicYearId"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Organization is the unit responsible for a program.
type Organization struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academicYearId"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Standard statuses. The structure is maintained by an external subsystem;
// this API only carries the value through.
const (
	StandardStatusDraft    = "draft"
	StandardStatusActive   = "active"
	StandardStatusInactive = "inactive"
	StandardStatusArchived = "archived"
)

// Standard is a top-level accreditation standard within a program.
type Standard struct {
	ID             string         `db:"id" json:"id"`
	AcademicYearID string         `db:"academic_year_id" json:"academicYearId"`
	ProgramID      string         `db:"program_id" json:"programId"`
	OrganizationID sql.NullString `db:"organization_id" json:"organizationId,omitempty"`
	Code           string         `db:"code" json:"code"`
	Name           string         `db:"name" json:"name"`
	Status         string         `db:"status" json:"status"`
	OrderIndex     int            `db:"order_index" json:"orderIndex"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// Criteria is a single criterion nested under a standard.
type Criteria struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academicYearId"`
	StandardID     string    `db:"standard_id" json:"standardId"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	OrderIndex     int       `db:"order_index" json:"orderIndex"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
