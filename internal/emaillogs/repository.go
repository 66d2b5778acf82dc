package emaillogs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epost-hub/backend/internal/models"
)

// DefaultListLimit caps GET /emails when no limit is given.
const DefaultListLimit = 100

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create records one delivery attempt.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (event_id, email_type, recipient_email, subject, status, sent_at, error_message)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, NULLIF($7,''))
		RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, el.EventID, el.EmailType, el.RecipientEmail, el.Subject, el.Status, el.SentAt, el.ErrorMessage).
		Scan(&el.ID, &el.CreatedAt); err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

// List returns the most recent email logs, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]*models.EmailLog, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	const q = `SELECT id, event_id, email_type, recipient_email, subject, status, sent_at, error_message, created_at
		FROM email_logs
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()
	list := []*models.EmailLog{}
	for rows.Next() {
		var el models.EmailLog
		var subject, errMsg *string
		if err := rows.Scan(&el.ID, &el.EventID, &el.EmailType, &el.RecipientEmail, &subject, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan email log: %w", err)
		}
		if subject != nil {
			el.Subject = *subject
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
