package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/internal/notify"
	"github.com/epost-hub/backend/pkg/queue"
)

// EmailAttempts is how many times an email job is tried before it is dead-lettered.
const EmailAttempts = 1

// JobQueue is the part of the Redis queue the email worker needs. *queue.Queue implements it.
type JobQueue interface {
	Dequeue(ctx context.Context, queues ...string) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job, cause error, maxAttempts int) error
}

// LogRecorder stores delivery outcomes. *emaillogs.Repository implements it.
type LogRecorder interface {
	Create(ctx context.Context, el *models.EmailLog) error
}

// EmailProcessor sends queued transactional emails and records each attempt.
type EmailProcessor struct {
	queue   JobQueue
	sender  notify.Sender
	logs    LogRecorder
	logger  *zap.Logger
	backoff time.Duration
}

// NewEmailProcessor creates an email processor. logs may be nil.
func NewEmailProcessor(q JobQueue, sender notify.Sender, logs LogRecorder, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{queue: q, sender: sender, logs: logs, logger: logger, backoff: queue.RetryBackoff}
}

// Process sends one email job and records the outcome.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	sendErr := p.sender.Send(ctx, notify.Message{
		To:      payload.RecipientEmail,
		ToName:  payload.RecipientName,
		Subject: payload.Subject,
		Body:    payload.BodyText,
	})
	p.record(ctx, payload, sendErr)
	if sendErr != nil {
		return fmt.Errorf("send %s to %s: %w", payload.EmailType, payload.RecipientEmail, sendErr)
	}
	p.logger.Info("email sent", zap.String("job_id", job.ID), zap.String("type", payload.EmailType))
	return nil
}

func (p *EmailProcessor) record(ctx context.Context, payload queue.EmailPayload, sendErr error) {
	if p.logs == nil {
		return
	}
	el := &models.EmailLog{
		EventID:        payload.EventID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
		Status:         models.EmailLogStatusSent,
	}
	if sendErr != nil {
		el.Status = models.EmailLogStatusFailed
		el.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now().UTC()
		el.SentAt = &now
	}
	if err := p.logs.Create(ctx, el); err != nil {
		p.logger.Warn("email log not recorded", zap.Error(err))
	}
}

// Run dequeues and processes email jobs until ctx is cancelled.
// A failed job is dead-lettered, never re-enqueued.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, queue.QueueEmails)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if dlqErr := p.queue.Retry(ctx, job, err, EmailAttempts); dlqErr != nil {
				p.logger.Error("dead-letter failed", zap.Error(dlqErr))
			}
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
