package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vietqa/accred-api/internal/models"
)

// AuditRepository persists audit trail entries.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert writes a single audit log entry.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, detail, created_at)
		VALUES (:id, :user_id, :action, :entity_type, :entity_id, :detail, :created_at)`, entry)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListByEntity returns the audit trail of one entity, newest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	entries := []models.AuditLog{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
