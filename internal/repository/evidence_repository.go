package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vietqa/accred-api/internal/models"
)

// EvidenceRepository persists supporting documents attached to criteria.
type EvidenceRepository struct {
	db *sqlx.DB
}

func NewEvidenceRepository(db *sqlx.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Create inserts an evidence record.
func (r *EvidenceRepository) Create(ctx context.Context, evidence *models.Evidence) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO evidences (
			id, academic_year_id, standard_id, criteria_id, code, name,
			file_url, status, uploaded_by, created_at, updated_at
		) VALUES (
			:id, :academic_year_id, :standard_id, :criteria_id, :code, :name,
			:file_url, :status, :uploaded_by, :created_at, :updated_at
		)`, evidence)
	if err != nil {
		return fmt.Errorf("create evidence: %w", err)
	}
	return nil
}

// GetByID fetches an evidence record. Returns (nil, nil) when absent.
func (r *EvidenceRepository) GetByID(ctx context.Context, id string) (*models.Evidence, error) {
	var evidence models.Evidence
	err := r.db.GetContext(ctx, &evidence, `SELECT * FROM evidences WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	return &evidence, nil
}

// ListByCriteria returns the evidence of a criterion within one year.
func (r *EvidenceRepository) ListByCriteria(ctx context.Context, criteriaID, yearID string) ([]models.Evidence, error) {
	evidences := []models.Evidence{}
	err := r.db.SelectContext(ctx, &evidences, `
		SELECT * FROM evidences
		WHERE criteria_id = $1 AND academic_year_id = $2
		ORDER BY code ASC`, criteriaID, yearID)
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return evidences, nil
}

// UpdateFileURL points an evidence record at its stored file.
func (r *EvidenceRepository) UpdateFileURL(ctx context.Context, id, fileURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE evidences SET file_url = $1, updated_at = $2 WHERE id = $3`,
		fileURL, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update evidence file: %w", err)
	}
	return nil
}

// Delete removes an evidence record.
func (r *EvidenceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM evidences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete evidence: %w", err)
	}
	return nil
}

// UpdateStatusByCriteria flips every evidence record under a criterion to
// the given status.
func (r *EvidenceRepository) UpdateStatusByCriteria(ctx context.Context, criteriaID, yearID, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE evidences SET status = $1, updated_at = $2
		WHERE criteria_id = $3 AND academic_year_id = $4`,
		status, time.Now().UTC(), criteriaID, yearID)
	if err != nil {
		return fmt.Errorf("update evidence status: %w", err)
	}
	return nil
}
