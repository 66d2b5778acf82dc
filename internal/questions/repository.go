package questions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epost-hub/backend/internal/models"
)

var ErrNotFound = errors.New("question not found")

// Repository handles question persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new question and fills in its id and posting time.
func (r *Repository) Create(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (text, username, user_email, is_private, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, date_posted`
	return r.pool.QueryRow(ctx, query, q.Text, q.Username, q.UserEmail, q.IsPrivate, q.UserID).
		Scan(&q.ID, &q.DatePosted)
}

// ListPublic returns non-private questions, newest first, with their comment counts.
func (r *Repository) ListPublic(ctx context.Context) ([]models.PublicQuestion, error) {
	const query = `SELECT q.id, q.text, q.username, q.date_posted,
			(SELECT COUNT(*) FROM comments c WHERE c.question_id = q.id)
		FROM questions q
		WHERE q.is_private = FALSE
		ORDER BY q.date_posted DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.PublicQuestion{}
	for rows.Next() {
		var q models.PublicQuestion
		if err := rows.Scan(&q.ID, &q.Text, &q.Username, &q.DatePosted, &q.CommentCount); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListPrivate returns private questions, newest first.
func (r *Repository) ListPrivate(ctx context.Context) ([]*models.Question, error) {
	const query = `SELECT id, text, username, user_email, is_private, user_id, date_posted
		FROM questions
		WHERE is_private = TRUE
		ORDER BY date_posted DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Username, &q.UserEmail, &q.IsPrivate, &q.UserID, &q.DatePosted); err != nil {
			return nil, err
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

// GetByID returns a question by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	const query = `SELECT id, text, username, user_email, is_private, user_id, date_posted
		FROM questions WHERE id = $1`
	var q models.Question
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&q.ID, &q.Text, &q.Username, &q.UserEmail, &q.IsPrivate, &q.UserID, &q.DatePosted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Delete removes a question; its comments go with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
