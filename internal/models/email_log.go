package models

import (
	"time"

	"github.com/google/uuid"
)

// Email types sent by the hub.
const (
	EmailTypeEventApproved   = "event_approved"
	EmailTypeEventDenied     = "event_denied"
	EmailTypeEventModified   = "event_modified"
	EmailTypePrivateQuestion = "private_question"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records one attempted transactional email.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	EventID        *uuid.UUID `json:"event_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
