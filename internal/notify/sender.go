package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *zap.Logger
}

// NewSendGridSender creates a SendGrid-backed sender.
func NewSendGridSender(apiKey, fromAddress, fromName string, logger *zap.Logger) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
		logger: logger,
	}
}

// Send posts the message and treats any non-2xx status as failure.
func (s *SendGridSender) Send(ctx context.Context, m Message) error {
	resp, err := s.client.SendWithContext(ctx, buildMail(s.from, m))
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func buildMail(from *mail.Email, m Message) *mail.SGMailV3 {
	to := mail.NewEmail(m.ToName, m.To)
	return mail.NewSingleEmail(from, m.Subject, to, m.Body, plainToHTML(m.Body))
}

func plainToHTML(s string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(s), "\n", "<br>") + "</p>"
}

// LogSender only logs messages. Used when no SendGrid key is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a logging sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message and always succeeds.
func (s *LogSender) Send(_ context.Context, m Message) error {
	s.logger.Info("email (not sent, no provider configured)",
		zap.String("to", m.To), zap.String("subject", m.Subject))
	return nil
}
