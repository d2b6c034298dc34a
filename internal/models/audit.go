package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded by the background audit sink.
const (
	AuditTaskCreated       = "task.created"
	AuditTaskUpdated       = "task.updated"
	AuditTaskSubmitted     = "task.submitted"
	AuditTaskReviewed      = "task.reviewed"
	AuditTaskDeleted       = "task.deleted"
	AuditReportCreated     = "report.created"
	AuditReportUpdated     = "report.updated"
	AuditReportApproved    = "report.approved"
	AuditReportRejected    = "report.rejected"
	AuditReportPublished   = "report.published"
	AuditReportUnpublished = "report.unpublished"
	AuditReportMadePublic  = "report.made_public"
	AuditReportDeleted     = "report.deleted"
	AuditReportersAssigned = "report.reporters_assigned"
	AuditEditAccessGranted = "report.edit_access_granted"
	AuditCommentAdded      = "report.comment_added"
	AuditCommentResolved   = "report.comment_resolved"
	AuditEvidenceCreated   = "evidence.created"
	AuditEvidenceUploaded  = "evidence.file_uploaded"
	AuditEvidenceDeleted   = "evidence.deleted"
)

// AuditLog is a persisted audit trail entry. Writes are asynchronous and
// never block or fail the triggering operation.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"userId"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   string          `db:"entity_id" json:"entityId"`
	Detail     json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}
