package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/models"
)

// CleanupStore is the persistence the cleanup job needs.
type CleanupStore interface {
	ListEndedBefore(ctx context.Context, cutoff time.Time) ([]*models.Event, error)
	DeleteComments(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

// Cleaner deletes events that ended more than the retention period ago.
type Cleaner struct {
	store           CleanupStore
	flyers          FlyerStore
	retentionMonths int
	now             func() time.Time
	logger          *zap.Logger
}

// NewCleaner creates a cleanup job. flyers may be nil when storage is not configured.
func NewCleaner(store CleanupStore, flyers FlyerStore, retentionMonths int, logger *zap.Logger) *Cleaner {
	if retentionMonths < 1 {
		retentionMonths = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{store: store, flyers: flyers, retentionMonths: retentionMonths, now: time.Now, logger: logger}
}

// Cutoff returns the end date before which events are removed.
func (c *Cleaner) Cutoff() time.Time {
	return c.now().AddDate(0, -c.retentionMonths, 0)
}

// Run deletes every expired event one at a time: flyer first (best-effort), then comments, then the row.
// It stops at the first database error; events already handled stay deleted and a rerun picks up the rest.
func (c *Cleaner) Run(ctx context.Context) (int, error) {
	cutoff := c.Cutoff()
	expired, err := c.store.ListEndedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expired events: %w", err)
	}
	deleted := 0
	for _, ev := range expired {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if ev.Flyer != "" && c.flyers != nil {
			if err := c.flyers.DeleteFlyer(ctx, ev.Flyer); err != nil {
				c.logger.Warn("cleanup: flyer delete failed", zap.String("event_id", ev.ID.String()),
					zap.String("flyer", ev.Flyer), zap.Error(err))
			}
		}
		n, err := c.store.DeleteComments(ctx, ev.ID)
		if err != nil {
			return deleted, err
		}
		if err := c.store.DeleteEvent(ctx, ev.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
		c.logger.Debug("cleanup: event deleted", zap.String("event_id", ev.ID.String()), zap.Int64("comments", n))
	}
	c.logger.Info("cleanup finished", zap.Int("deleted", deleted), zap.Time("cutoff", cutoff))
	return deleted, nil
}
