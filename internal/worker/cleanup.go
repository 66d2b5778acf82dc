package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupRunner removes expired events. *events.Cleaner implements it.
type CleanupRunner interface {
	Run(ctx context.Context) (int, error)
}

// CleanupScheduler runs the expired event cleanup on a fixed interval.
type CleanupScheduler struct {
	runner   CleanupRunner
	interval time.Duration
	logger   *zap.Logger
}

// NewCleanupScheduler creates a scheduler. A non-positive interval defaults to a day.
func NewCleanupScheduler(runner CleanupRunner, interval time.Duration, logger *zap.Logger) *CleanupScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanupScheduler{runner: runner, interval: interval, logger: logger}
}

// Run performs one cleanup immediately and then once per interval until ctx is cancelled.
func (s *CleanupScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.once(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("cleanup scheduler stopping")
			return
		case <-ticker.C:
		}
	}
}

func (s *CleanupScheduler) once(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled cleanup failed", zap.Int("deleted", n), zap.Error(err))
		return
	}
	s.logger.Info("scheduled cleanup finished", zap.Int("deleted", n))
}
