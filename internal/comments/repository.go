package comments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/database"
)

var (
	ErrNotFound       = errors.New("comment not found")
	ErrTargetNotFound = errors.New("comment target not found")
)

// TargetKind says what a comment is attached to.
type TargetKind string

const (
	TargetEvent    TargetKind = "event"
	TargetQuestion TargetKind = "question"
)

// Target is the event or question a comment belongs to.
type Target struct {
	Kind TargetKind
	ID   uuid.UUID
}

func (t Target) column() string {
	if t.Kind == TargetQuestion {
		return "question_id"
	}
	return "event_id"
}

func (t Target) table() string {
	if t.Kind == TargetQuestion {
		return "questions"
	}
	return "events"
}

// Matches reports whether c is attached to t.
func (t Target) Matches(c *models.Comment) bool {
	switch t.Kind {
	case TargetEvent:
		return c.EventID != nil && *c.EventID == t.ID
	case TargetQuestion:
		return c.QuestionID != nil && *c.QuestionID == t.ID
	}
	return false
}

// Repository handles comment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a comments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectComment = `SELECT c.id, c.content, c.created_at, c.user_id, c.event_id, c.question_id, c.parent_id, u.name, u.email
	FROM comments c JOIN users u ON u.id = c.user_id`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	var author models.Author
	if err := row.Scan(&c.ID, &c.Content, &c.CreatedAt, &c.UserID, &c.EventID, &c.QuestionID, &c.ParentID,
		&author.Name, &author.Email); err != nil {
		return nil, err
	}
	author.ID = c.UserID
	c.Author = &author
	return &c, nil
}

// TargetExists reports whether the event or question exists.
func (r *Repository) TargetExists(ctx context.Context, t Target) (bool, error) {
	var ok bool
	q := `SELECT EXISTS (SELECT 1 FROM ` + t.table() + ` WHERE id = $1)`
	if err := r.pool.QueryRow(ctx, q, t.ID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check %s %s: %w", t.Kind, t.ID, err)
	}
	return ok, nil
}

// GetByID returns a comment with its author.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, selectComment+` WHERE c.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get comment %s: %w", id, err)
	}
	return c, nil
}

// Create inserts a comment on t and returns it with its author.
func (r *Repository) Create(ctx context.Context, t Target, userID uuid.UUID, content string, parentID *uuid.UUID) (*models.Comment, error) {
	q := `INSERT INTO comments (content, user_id, ` + t.column() + `, parent_id) VALUES ($1, $2, $3, $4) RETURNING id`
	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, q, content, userID, t.ID, parentID).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return r.GetByID(ctx, id)
}

// ListByTarget returns every comment on t, oldest first, as a flat list.
func (r *Repository) ListByTarget(ctx context.Context, t Target) ([]*models.Comment, error) {
	rows, err := r.pool.Query(ctx, selectComment+` WHERE c.`+t.column()+` = $1 ORDER BY c.created_at ASC, c.id ASC`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	list := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CountByTarget returns the number of comments on t, replies included.
func (r *Repository) CountByTarget(ctx context.Context, t Target) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments WHERE `+t.column()+` = $1`, t.ID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

// Delete removes a comment and, through the parent cascade, its replies.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
