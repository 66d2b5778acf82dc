package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/database"
)

var (
	ErrNotFound = errors.New("event not found")
	// ErrInvalidTransition means the event already reached the other terminal status.
	ErrInvalidTransition = errors.New("event already moderated")
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectEvent = `SELECT e.id, COALESCE(e.title,''), COALESCE(e.description,''), COALESCE(e.type,''),
	COALESCE(e.address,''), e.latitude, e.longitude, COALESCE(e.website,''),
	e.start_date, e.end_date, COALESCE(e.start_time,''), COALESCE(e.end_time,''), COALESCE(e.flyer,''),
	e.status, COALESCE(e.denial_reason,''), e.interested, e.created_by, e.created_at, e.updated_at,
	u.name, u.email
	FROM events e LEFT JOIN users u ON u.id = e.created_by`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var (
		ev                     models.Event
		status                 string
		creatorName, creatorEm *string
	)
	err := row.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Type,
		&ev.Address, &ev.Latitude, &ev.Longitude, &ev.Website,
		&ev.StartDate, &ev.EndDate, &ev.StartTime, &ev.EndTime, &ev.Flyer,
		&status, &ev.DenialReason, &ev.Interested, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
		&creatorName, &creatorEm)
	if err != nil {
		return nil, err
	}
	ev.Status = models.EventStatus(status)
	if ev.CreatedBy != nil && creatorName != nil {
		ev.Creator = &models.Author{ID: *ev.CreatedBy, Name: *creatorName}
		if creatorEm != nil {
			ev.Creator.Email = *creatorEm
		}
	}
	return &ev, nil
}

func (r *Repository) list(ctx context.Context, q string, args ...interface{}) ([]*models.Event, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// Create inserts an event and fills in its generated fields.
func (r *Repository) Create(ctx context.Context, ev *models.Event) error {
	const q = `INSERT INTO events (title, description, type, address, latitude, longitude, website,
		start_date, end_date, start_time, end_time, flyer, status, created_by)
		VALUES (NULLIF($1,''), NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), $5, $6, NULLIF($7,''),
		$8, $9, NULLIF($10,''), NULLIF($11,''), NULLIF($12,''), $13, $14)
		RETURNING id, interested, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, ev.Title, ev.Description, ev.Type, ev.Address, ev.Latitude, ev.Longitude, ev.Website,
		ev.StartDate, ev.EndDate, ev.StartTime, ev.EndTime, ev.Flyer, string(ev.Status), ev.CreatedBy).
		Scan(&ev.ID, &ev.Interested, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID returns an event with its creator.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	ev, err := scanEvent(r.pool.QueryRow(ctx, selectEvent+` WHERE e.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

// ListByStatus returns events in status. Approved events come soonest first, others oldest submission first.
func (r *Repository) ListByStatus(ctx context.Context, status models.EventStatus) ([]*models.Event, error) {
	order := ` ORDER BY e.created_at ASC`
	if status == models.EventApproved {
		order = ` ORDER BY e.start_date ASC NULLS LAST, e.start_time ASC NULLS LAST, e.created_at ASC`
	}
	list, err := r.list(ctx, selectEvent+` WHERE e.status = $1`+order, string(status))
	if err != nil {
		return nil, fmt.Errorf("list %s events: %w", status, err)
	}
	return list, nil
}

// CountByStatus returns how many events are in status.
func (r *Repository) CountByStatus(ctx context.Context, status models.EventStatus) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE status = $1`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s events: %w", status, err)
	}
	return n, nil
}

// ListEndedBefore returns events whose end date falls before the cutoff's calendar day.
func (r *Repository) ListEndedBefore(ctx context.Context, cutoff time.Time) ([]*models.Event, error) {
	list, err := r.list(ctx, selectEvent+` WHERE e.end_date < $1::date ORDER BY e.end_date ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list ended events: %w", err)
	}
	return list, nil
}

// TransitionFromPending moves a PENDING event to status. It reports false when the event was not
// PENDING (or does not exist), in which case nothing was written.
func (r *Repository) TransitionFromPending(ctx context.Context, id uuid.UUID, to models.EventStatus, reason string) (bool, error) {
	const q = `UPDATE events SET status = $2, denial_reason = NULLIF($3,''), updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`
	tag, err := r.pool.Exec(ctx, q, id, string(to), reason)
	if err != nil {
		return false, fmt.Errorf("transition event %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateContent writes the editable fields of ev. Status is never touched here.
func (r *Repository) UpdateContent(ctx context.Context, ev *models.Event) error {
	const q = `UPDATE events SET title = NULLIF($2,''), description = NULLIF($3,''), type = NULLIF($4,''),
		address = NULLIF($5,''), latitude = $6, longitude = $7, website = NULLIF($8,''),
		start_date = $9, end_date = $10, start_time = NULLIF($11,''), end_time = NULLIF($12,''),
		flyer = NULLIF($13,''), updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, ev.ID, ev.Title, ev.Description, ev.Type, ev.Address, ev.Latitude, ev.Longitude,
		ev.Website, ev.StartDate, ev.EndDate, ev.StartTime, ev.EndTime, ev.Flyer).Scan(&ev.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return ErrNotFound
		}
		return fmt.Errorf("update event %s: %w", ev.ID, err)
	}
	return nil
}

// IncrementInterest bumps the interested counter.
func (r *Repository) IncrementInterest(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET interested = interested + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment interest %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComments removes every comment on an event, replies included.
func (r *Repository) DeleteComments(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE event_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete comments of event %s: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteEvent removes the event row. Its comments must already be gone.
func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event and its comments in one transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE event_id = $1`, id); err != nil {
			return fmt.Errorf("delete comments of event %s: %w", id, err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete event %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
