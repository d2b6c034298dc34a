package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vietqa/accred-api/internal/models"
	"github.com/vietqa/accred-api/pkg/jobs"
)

type auditStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
}

// AuditServiceConfig tunes the background queue.
type AuditServiceConfig struct {
	Workers    int
	BufferSize int
}

// AuditService records audit events through a background queue. Recording is
// fire-and-forget: a full buffer or a failed insert is logged and dropped,
// never surfaced to the triggering operation.
type AuditService struct {
	store  auditStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(store auditStore, logger *zap.Logger, cfg AuditServiceConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{store: store, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit event. detail may be nil or any JSON-encodable
// value.
func (s *AuditService) Record(userID, action, entityType, entityID string, detail interface{}) {
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now().UTC(),
	}
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			s.logger.Warn("failed to encode audit detail",
				zap.String("action", action), zap.Error(err))
		} else {
			entry.Detail = raw
		}
	}

	err := s.queue.Enqueue(jobs.Job{
		ID:      entry.ID,
		Type:    action,
		Payload: entry,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue audit event",
			zap.String("action", action), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Warn("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.store.Insert(ctx, entry)
}
