package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vietqa/accred-api/internal/models"
)

// StructureRepository reads the program / standard / criteria hierarchy.
type StructureRepository struct {
	db *sqlx.DB
}

func NewStructureRepository(db *sqlx.DB) *StructureRepository {
	return &StructureRepository{db: db}
}

// GetStandardByID fetches a standard. Returns (nil, nil) when absent.
func (r *StructureRepository) GetStandardByID(ctx context.Context, id string) (*models.Standard, error) {
	var standard models.Standard
	err := r.db.GetContext(ctx, &standard, `SELECT * FROM standards WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get standard: %w", err)
	}
	return &standard, nil
}

// GetCriteriaByID fetches a criterion. Returns (nil, nil) when absent.
func (r *StructureRepository) GetCriteriaByID(ctx context.Context, id string) (*models.Criteria, error) {
	var criteria models.Criteria
	err := r.db.GetContext(ctx, &criteria, `SELECT * FROM criteria WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get criteria: %w", err)
	}
	return &criteria, nil
}

// ListStandardIDsByYear returns every standard ID in the year.
func (r *StructureRepository) ListStandardIDsByYear(ctx context.Context, yearID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM standards WHERE academic_year_id = $1 ORDER BY order_index`, yearID)
	if err != nil {
		return nil, fmt.Errorf("list standard ids: %w", err)
	}
	return ids, nil
}

// ListCriteriaIDsByYear returns every criteria ID in the year.
func (r *StructureRepository) ListCriteriaIDsByYear(ctx context.Context, yearID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM criteria WHERE academic_year_id = $1 ORDER BY order_index`, yearID)
	if err != nil {
		return nil, fmt.Errorf("list criteria ids: %w", err)
	}
	return ids, nil
}

// ListCriteriaIDsByStandard returns the criteria IDs under one standard.
func (r *StructureRepository) ListCriteriaIDsByStandard(ctx context.Context, standardID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM criteria WHERE standard_id = $1 ORDER BY order_index`, standardID)
	if err != nil {
		return nil, fmt.Errorf("list criteria ids by standard: %w", err)
	}
	return ids, nil
}

// ListStandardsByYear returns the standards of a year in display order.
func (r *StructureRepository) ListStandardsByYear(ctx context.Context, yearID string) ([]models.Standard, error) {
	standards := []models.Standard{}
	err := r.db.SelectContext(ctx, &standards,
		`SELECT * FROM standards WHERE academic_year_id = $1 ORDER BY order_index`, yearID)
	if err != nil {
		return nil, fmt.Errorf("list standards: %w", err)
	}
	return standards, nil
}

// ListCriteriaByStandard returns the criteria of a standard in display order.
func (r *StructureRepository) ListCriteriaByStandard(ctx context.Context, standardID string) ([]models.Criteria, error) {
	criteria := []models.Criteria{}
	err := r.db.SelectContext(ctx, &criteria,
		`SELECT * FROM criteria WHERE standard_id = $1 ORDER BY order_index`, standardID)
	if err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	return criteria, nil
}
