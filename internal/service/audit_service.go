package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditLogStore interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditQueue interface {
	Enqueue(job jobs.Job) error
}

// AuditService hands audit records to a background queue so request latency
// does not include the insert. When the queue refuses a record it is written inline.
type AuditService struct {
	store  auditLogStore
	queue  auditQueue
	logger *zap.Logger
}

// NewAuditService constructs the service. A nil queue makes every write synchronous.
func NewAuditService(store auditLogStore, queue auditQueue, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{store: store, queue: queue, logger: logger}
}

// CreateAuditLog enqueues the record for the audit worker.
func (s *AuditService) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log == nil {
		return nil
	}
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: log.ID, Type: auditJobType, Payload: log})
		if err == nil {
			return nil
		}
		s.logger.Warn("audit queue rejected record, writing inline", zap.String("action", log.Action), zap.Error(err))
	}
	return s.store.CreateAuditLog(ctx, log)
}

// AuditWorker persists queued audit records.
type AuditWorker struct {
	store  auditLogStore
	logger *zap.Logger
}

// NewAuditWorker constructs a worker.
func NewAuditWorker(store auditLogStore, logger *zap.Logger) *AuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditWorker{store: store, logger: logger}
}

// Handle processes a queue job. Returning an error schedules a retry.
func (w *AuditWorker) Handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok || log == nil {
		w.logger.Error("unexpected audit payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	if err := w.store.CreateAuditLog(ctx, log); err != nil {
		return fmt.Errorf("persist audit log %s: %w", log.ID, err)
	}
	return nil
}
