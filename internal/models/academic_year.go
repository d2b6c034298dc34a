package models

import "time"

// AcademicYear scopes the entire accreditation workspace. Exactly one year
// is flagged current at a time.
type AcademicYear struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	StartYear int       `db:"start_year" json:"startYear"`
	EndYear   int       `db:"end_year" json:"endYear"`
	IsCurrent bool      `db:"is_current" json:"isCurrent"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
