package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment belongs to exactly one event or one question and may reply to another comment.
type Comment struct {
	ID         uuid.UUID  `json:"id"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	UserID     uuid.UUID  `json:"user_id"`
	EventID    *uuid.UUID `json:"event_id,omitempty"`
	QuestionID *uuid.UUID `json:"question_id,omitempty"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
	Author     *Author    `json:"created_by,omitempty"`
	Replies    []*Comment `json:"replies,omitempty"`
}
