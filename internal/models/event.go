package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the moderation state of an event.
type EventStatus string

const (
	EventPending  EventStatus = "PENDING"
	EventApproved EventStatus = "APPROVED"
	EventDenied   EventStatus = "DENIED"
)

// Terminal reports whether no further moderation transition exists from s.
func (s EventStatus) Terminal() bool {
	return s == EventApproved || s == EventDenied
}

// InitialStatusFor returns the status a new event gets when created by role.
func InitialStatusFor(role Role) EventStatus {
	if role == RoleAdmin {
		return EventApproved
	}
	return EventPending
}

// Event is a community event listing.
type Event struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Type         string      `json:"type,omitempty"`
	Address      string      `json:"address,omitempty"`
	Latitude     *float64    `json:"latitude"`
	Longitude    *float64    `json:"longitude"`
	Website      string      `json:"website,omitempty"`
	StartDate    *time.Time  `json:"start_date"`
	EndDate      *time.Time  `json:"end_date"`
	StartTime    string      `json:"start_time,omitempty"`
	EndTime      string      `json:"end_time,omitempty"`
	Flyer        string      `json:"flyer,omitempty"`
	Status       EventStatus `json:"status"`
	DenialReason string      `json:"denial_reason,omitempty"`
	Interested   int         `json:"interested"`
	CreatedBy    *uuid.UUID  `json:"created_by"`
	Creator      *Author     `json:"creator,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// HasTitleOrFlyer reports whether the event carries enough content to be listed.
func (e *Event) HasTitleOrFlyer() bool {
	return strings.TrimSpace(e.Title) != "" || strings.TrimSpace(e.Flyer) != ""
}

// Author is the display identity attached to events and comments.
type Author struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}
