package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vietqa/accred-api/internal/models"
)

// AcademicYearRepository reads academic year records.
type AcademicYearRepository struct {
	db *sqlx.DB
}

func NewAcademicYearRepository(db *sqlx.DB) *AcademicYearRepository {
	return &AcademicYearRepository{db: db}
}

// GetByID fetches a year by its ID. Returns (nil, nil) when absent.
func (r *AcademicYearRepository) GetByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	var year models.AcademicYear
	err := r.db.GetContext(ctx, &year, `SELECT * FROM academic_years WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get academic year: %w", err)
	}
	return &year, nil
}

// GetCurrent fetches the year flagged current. Returns (nil, nil) when none.
func (r *AcademicYearRepository) GetCurrent(ctx context.Context) (*models.AcademicYear, error) {
	var year models.AcademicYear
	err := r.db.GetContext(ctx, &year, `SELECT * FROM academic_years WHERE is_current = TRUE LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current academic year: %w", err)
	}
	return &year, nil
}

// List returns all years, newest first.
func (r *AcademicYearRepository) List(ctx context.Context) ([]models.AcademicYear, error) {
	years := []models.AcademicYear{}
	err := r.db.SelectContext(ctx, &years, `SELECT * FROM academic_years ORDER BY start_year DESC`)
	if err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}
