// Package main runs the background worker: transactional email delivery and expired event cleanup.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/epost-hub/backend/config"
	"github.com/epost-hub/backend/internal/emaillogs"
	"github.com/epost-hub/backend/internal/events"
	"github.com/epost-hub/backend/internal/notify"
	"github.com/epost-hub/backend/internal/worker"
	"github.com/epost-hub/backend/pkg/database"
	"github.com/epost-hub/backend/pkg/queue"
	"github.com/epost-hub/backend/pkg/redis"
	"github.com/epost-hub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var flyers events.FlyerStore
	if cfg.AWS.FlyersBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			FlyersBucket:    cfg.AWS.FlyersBucket,
			Endpoint:        cfg.AWS.Endpoint,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled; cleanup keeps flyer objects", zap.Error(err))
		} else {
			flyers = s3Client
		}
	}

	var sender notify.Sender
	if cfg.Email.APIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set; emails will only be logged")
		sender = notify.NewLogSender(logger)
	} else {
		sender = notify.NewSendGridSender(cfg.Email.APIKey, cfg.Email.FromAddress, cfg.Email.FromName, logger)
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(jobQueue, sender, emaillogs.NewRepository(pool), logger)
	cleaner := events.NewCleaner(events.NewRepository(pool), flyers, cfg.Cleanup.RetentionMonths, logger)
	scheduler := worker.NewCleanupScheduler(cleaner, cfg.Cleanup.Interval, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Run(workerCtx)
	}()
	go func() {
		defer wg.Done()
		scheduler.Run(workerCtx)
	}()
	logger.Info("worker started", zap.Duration("cleanup_interval", cfg.Cleanup.Interval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	wg.Wait()
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
