package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueEmails is the Redis list key for transactional email jobs.
	QueueEmails = "worker:emails"
	// QueueDLQ is the dead-letter list for jobs that exhausted their attempts.
	QueueDLQ = "worker:dlq"
	// DefaultPollTimeout bounds one blocking pop so workers notice cancellation.
	DefaultPollTimeout = 5 * time.Second
	// RetryBackoff is the delay a worker waits after a queue error.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeEmail JobType = "email"
)

// EmailPayload is the payload for email jobs.
type EmailPayload struct {
	EmailType      string     `json:"email_type"`
	EventID        *uuid.UUID `json:"event_id,omitempty"`
	RecipientEmail string     `json:"recipient_email"`
	RecipientName  string     `json:"recipient_name,omitempty"`
	Subject        string     `json:"subject"`
	BodyText       string     `json:"body_text"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Queue     string          `json:"queue"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
	LastError string          `json:"last_error,omitempty"`
}

// Queue enqueues and dequeues jobs via Redis lists.
type Queue struct {
	client      *redis.Client
	logger      *zap.Logger
	pollTimeout time.Duration
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger, pollTimeout: DefaultPollTimeout}
}

// SetPollTimeout overrides how long Dequeue blocks before returning empty-handed.
func (q *Queue) SetPollTimeout(d time.Duration) {
	if d > 0 {
		q.pollTimeout = d
	}
}

// Enqueue wraps payload in a job envelope and appends it to the named list.
func (q *Queue) Enqueue(ctx context.Context, queueName string, jobType JobType, payload interface{}) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Queue:     queueName,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}
	if err := q.push(ctx, queueName, job); err != nil {
		return nil, err
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(jobType)), zap.String("queue", queueName))
	return job, nil
}

// EnqueueEmail enqueues an email job.
func (q *Queue) EnqueueEmail(ctx context.Context, payload EmailPayload) error {
	_, err := q.Enqueue(ctx, QueueEmails, JobTypeEmail, payload)
	return err
}

// Dequeue blocks up to the poll timeout for a job on any of the given lists.
// A nil job with nil error means nothing arrived in time.
func (q *Queue) Dequeue(ctx context.Context, queues ...string) (*Job, error) {
	if len(queues) == 0 {
		queues = []string{QueueEmails}
	}
	result, err := q.client.BLPop(ctx, q.pollTimeout, queues...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	if job.Queue == "" {
		job.Queue = result[0]
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. Once the attempt count reaches maxAttempts
// the job goes to the DLQ instead. maxAttempts of 1 means a job is never re-run.
func (q *Queue) Retry(ctx context.Context, job *Job, cause error, maxAttempts int) error {
	job.Attempt++
	if cause != nil {
		job.LastError = cause.Error()
	}
	if job.Attempt >= maxAttempts {
		if err := q.push(ctx, QueueDLQ, job); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.push(ctx, job.Queue, job); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// Len returns the number of jobs waiting on a list.
func (q *Queue) Len(ctx context.Context, queueName string) (int64, error) {
	return q.client.LLen(ctx, queueName).Result()
}

func (q *Queue) push(ctx context.Context, queueName string, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, queueName, raw).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", queueName, err)
	}
	return nil
}
