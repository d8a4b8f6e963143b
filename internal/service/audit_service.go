package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/pkg/jobs"
)

const (
	auditQueueName = "audit"
	auditJobType   = "audit.write"
	auditWriteTTL  = 5 * time.Second
)

type auditLogRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditRecorder is implemented by anything that accepts audit records.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog)
}

// AuditService persists audit records off the request path through a job queue.
type AuditService struct {
	repo    auditLogRepository
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// AuditConfig sizes the worker pool behind the audit queue.
type AuditConfig struct {
	Workers    int
	MaxRetries int
}

// NewAuditService wires the queue; call Start before recording.
func NewAuditService(repo auditLogRepository, metrics *MetricsService, logger *zap.Logger, cfg AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue(auditQueueName, s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains pending records until ctx expires.
func (s *AuditService) Stop(ctx context.Context) error {
	return s.queue.Stop(ctx)
}

// Record queues entry for persistence. It never blocks and never fails the
// caller; dropped records are logged and counted.
func (s *AuditService) Record(_ context.Context, entry *models.AuditLog) {
	if s == nil || entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry}); err != nil {
		s.metrics.RecordAuditDropped()
		s.logger.Warn("audit record dropped", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, auditWriteTTL)
	defer cancel()
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		return fmt.Errorf("persist audit log %s: %w", entry.ID, err)
	}
	return nil
}

// auditValues encodes v for the old/new value columns, swallowing encoder errors.
func auditValues(v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// noopAudit discards records; used when a service is built without an auditor.
type noopAudit struct{}

func (noopAudit) Record(context.Context, *models.AuditLog) {}

// Actor identifies who triggered a mutation, for audit records.
type Actor struct {
	UserID    string
	IP        string
	UserAgent string
}

func (a Actor) entry(action, resource, resourceID string, newValues interface{}) *models.AuditLog {
	log := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		NewValues: auditValues(newValues),
		IPAddress: a.IP,
		UserAgent: a.UserAgent,
	}
	if a.UserID != "" {
		userID := a.UserID
		log.UserID = &userID
	}
	if resourceID != "" {
		log.ResourceID = &resourceID
	}
	return log
}
