package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/queue"
)

// ErrNoRecipient is returned when there is nobody to email, e.g. the event creator was deleted.
var ErrNoRecipient = errors.New("no recipient email")

// Notifier sends the hub's transactional notices. Callers treat every error as best-effort.
type Notifier interface {
	EventApproved(ctx context.Context, ev *models.Event) error
	EventDenied(ctx context.Context, ev *models.Event, reason string) error
	EventModified(ctx context.Context, ev *models.Event) error
	PrivateQuestion(ctx context.Context, q *models.Question) error
}

// Enqueuer puts an email job on the worker queue. *queue.Queue implements it.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// QueueNotifier renders notices and hands them to the email worker.
type QueueNotifier struct {
	queue      Enqueuer
	adminInbox string
	logger     *zap.Logger
}

// NewQueueNotifier creates a notifier. adminInbox receives private questions; empty disables them.
func NewQueueNotifier(q Enqueuer, adminInbox string, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{queue: q, adminInbox: strings.TrimSpace(adminInbox), logger: logger}
}

// EventApproved tells the creator their event is live.
func (n *QueueNotifier) EventApproved(ctx context.Context, ev *models.Event) error {
	return n.toCreator(ctx, models.EmailTypeEventApproved, ev, eventData{Event: ev})
}

// EventDenied tells the creator their event was rejected and why.
func (n *QueueNotifier) EventDenied(ctx context.Context, ev *models.Event, reason string) error {
	return n.toCreator(ctx, models.EmailTypeEventDenied, ev, eventData{Event: ev, Reason: reason})
}

// EventModified tells the creator their event was edited.
func (n *QueueNotifier) EventModified(ctx context.Context, ev *models.Event) error {
	return n.toCreator(ctx, models.EmailTypeEventModified, ev, eventData{Event: ev})
}

// PrivateQuestion forwards a private question to the admin inbox.
func (n *QueueNotifier) PrivateQuestion(ctx context.Context, q *models.Question) error {
	if n.adminInbox == "" {
		return ErrNoRecipient
	}
	subject, body, err := render(models.EmailTypePrivateQuestion, questionData{Question: q})
	if err != nil {
		return err
	}
	return n.enqueue(ctx, queue.EmailPayload{
		EmailType:      models.EmailTypePrivateQuestion,
		RecipientEmail: n.adminInbox,
		Subject:        subject,
		BodyText:       body,
	})
}

func (n *QueueNotifier) toCreator(ctx context.Context, emailType string, ev *models.Event, data eventData) error {
	if ev.Creator == nil || strings.TrimSpace(ev.Creator.Email) == "" {
		return ErrNoRecipient
	}
	data.Name = ev.Creator.Name
	subject, body, err := render(emailType, data)
	if err != nil {
		return err
	}
	id := ev.ID
	return n.enqueue(ctx, queue.EmailPayload{
		EmailType:      emailType,
		EventID:        &id,
		RecipientEmail: ev.Creator.Email,
		RecipientName:  ev.Creator.Name,
		Subject:        subject,
		BodyText:       body,
	})
}

func (n *QueueNotifier) enqueue(ctx context.Context, p queue.EmailPayload) error {
	if err := n.queue.EnqueueEmail(ctx, p); err != nil {
		return fmt.Errorf("enqueue %s email: %w", p.EmailType, err)
	}
	n.logger.Debug("email queued", zap.String("type", p.EmailType), zap.String("to", p.RecipientEmail))
	return nil
}
