package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is a community question; private ones are only visible to admins.
type Question struct {
	ID           uuid.UUID  `json:"id"`
	Text         string     `json:"text"`
	Username     string     `json:"username"`
	UserEmail    string     `json:"user_email,omitempty"`
	IsPrivate    bool       `json:"is_private"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	DatePosted   time.Time  `json:"date_posted"`
	CommentCount int        `json:"comment_count"`
}

// PublicQuestion is the shape returned by the public listing. It never carries an email.
type PublicQuestion struct {
	ID           uuid.UUID `json:"id"`
	Text         string    `json:"text"`
	Username     string    `json:"username"`
	DatePosted   time.Time `json:"date_posted"`
	CommentCount int       `json:"comment_count"`
}
