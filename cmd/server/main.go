// Package main runs the e-Post Hub HTTP API with the realtime feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/epost-hub/backend/config"
	"github.com/epost-hub/backend/internal/accounts"
	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/internal/comments"
	"github.com/epost-hub/backend/internal/emaillogs"
	"github.com/epost-hub/backend/internal/events"
	"github.com/epost-hub/backend/internal/geo"
	"github.com/epost-hub/backend/internal/links"
	"github.com/epost-hub/backend/internal/middleware"
	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/internal/notify"
	"github.com/epost-hub/backend/internal/questions"
	"github.com/epost-hub/backend/internal/realtime"
	"github.com/epost-hub/backend/internal/settings"
	"github.com/epost-hub/backend/internal/worker"
	"github.com/epost-hub/backend/pkg/database"
	"github.com/epost-hub/backend/pkg/queue"
	"github.com/epost-hub/backend/pkg/redis"
	"github.com/epost-hub/backend/pkg/response"
	"github.com/epost-hub/backend/pkg/storage"
	"github.com/epost-hub/backend/pkg/validation"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := validation.Register(); err != nil {
		logger.Fatal("register validators", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

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
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			flyers = s3Client
		}
	} else {
		logger.Warn("flyer storage disabled: AWS_S3_FLYERS_BUCKET not set")
	}

	mapsClient, err := geo.NewMapsClient(cfg.Maps.APIKey, logger)
	if err != nil {
		logger.Fatal("maps client", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	notifier := notify.NewQueueNotifier(jobQueue, cfg.Email.AdminInbox, logger)

	// Accounts
	userRepo := auth.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool, cfg.Auth.DefaultCreatorCode)
	authHandler := auth.NewHandler(userRepo, settingsRepo, jwtService, logger)
	accountsHandler := accounts.NewHandler(userRepo, logger)
	settingsHandler := settings.NewHandler(settingsRepo, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	cleaner := events.NewCleaner(eventRepo, flyers, cfg.Cleanup.RetentionMonths, logger)
	eventHandler := events.NewHandler(eventRepo, mapsClient, flyers, notifier, hub, cleaner, logger)

	// Community
	commentHandler := comments.NewHandler(comments.NewRepository(pool), hub, logger)
	questionHandler := questions.NewHandler(questions.NewRepository(pool), notifier, hub, logger)
	linkHandler := links.NewHandler(links.NewRepository(pool), logger)

	geoHandler := geo.NewHandler(mapsClient, logger)
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	authed := middleware.JWT(jwtService)
	admin := middleware.RequireRole(models.RoleAdmin)

	// Auth (public, rate limited per client IP)
	authGroup := router.Group("/auth")
	{
		login, register := authLimits(rdb, cfg, logger)
		authGroup.POST("/login", login, authHandler.Login)
		authGroup.POST("/members", register, authHandler.RegisterMember)
		authGroup.POST("/admins", register, authHandler.RegisterAdmin)
		authGroup.POST("/password", authed, authHandler.UpdatePassword)
	}

	router.GET("/me", authed, accountsHandler.Me)
	router.PUT("/me", authed, accountsHandler.Update)
	router.DELETE("/me", authed, accountsHandler.Delete)
	router.GET("/users", authed, admin, accountsHandler.List)

	router.GET("/admins/creator-code", authed, admin, settingsHandler.GetCreatorCode)
	router.PUT("/admins/creator-code", authed, admin, settingsHandler.UpdateCreatorCode)

	eventGroup := router.Group("/events")
	{
		eventGroup.POST("", authed, middleware.RequireRole(models.RoleAdmin, models.RoleMember), eventHandler.Create)
		eventGroup.POST("/flyers", authed, eventHandler.UploadFlyer)
		eventGroup.GET("/approved", eventHandler.ListApproved)
		eventGroup.GET("/pending", authed, admin, eventHandler.ListPending)
		eventGroup.GET("/pending/count", authed, admin, eventHandler.PendingCount)
		eventGroup.GET("/expired", authed, admin, eventHandler.ListExpired)
		eventGroup.DELETE("", authed, admin, eventHandler.BulkDelete)
		eventGroup.DELETE("/cleanup", authed, admin, eventHandler.Cleanup)
		eventGroup.GET("/:id", eventHandler.Get)
		eventGroup.PATCH("/:id", authed, eventHandler.Update)
		eventGroup.PATCH("/:id/approve", authed, admin, eventHandler.Approve)
		eventGroup.PATCH("/:id/deny", authed, admin, eventHandler.Deny)
		eventGroup.POST("/:id/interest", eventHandler.Interest)
		eventGroup.GET("/:id/comments", commentHandler.ListForEvent)
		eventGroup.POST("/:id/comments", authed, commentHandler.CreateForEvent)
	}

	questionGroup := router.Group("/community/questions")
	{
		questionGroup.POST("", middleware.OptionalJWT(jwtService), questionHandler.Create)
		questionGroup.GET("/public", questionHandler.ListPublic)
		questionGroup.GET("/private", authed, admin, questionHandler.ListPrivate)
		questionGroup.DELETE("/:id", authed, admin, questionHandler.Resolve)
		questionGroup.GET("/:id/comments", commentHandler.ListForQuestion)
		questionGroup.POST("/:id/comments", authed, commentHandler.CreateForQuestion)
		questionGroup.GET("/:id/comments/count", commentHandler.CountForQuestion)
	}
	router.DELETE("/comments/:id", authed, commentHandler.Delete)

	router.GET("/links", linkHandler.List)
	router.POST("/links", authed, admin, linkHandler.Create)
	router.GET("/categories", linkHandler.ListCategories)
	router.POST("/categories", authed, admin, linkHandler.CreateCategory)

	router.GET("/proximity", geoHandler.Proximity)
	router.GET("/emails", authed, admin, emailLogsHandler.List)

	// WebSocket (token in query; browsers cannot set headers on upgrade)
	router.GET("/ws", realtime.ServeWs(hub, jwtService, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Server.RunWorker {
		processor := worker.NewEmailProcessor(jobQueue, newSender(cfg, logger), emailLogsRepo, logger)
		scheduler := worker.NewCleanupScheduler(cleaner, cfg.Cleanup.Interval, logger)
		go processor.Run(workerCtx)
		go scheduler.Run(workerCtx)
		logger.Info("in-process worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// authLimits returns the login and registration limiters. A zero budget disables both.
func authLimits(rdb *redis.Client, cfg *config.Config, logger *zap.Logger) (login, register gin.HandlerFunc) {
	if cfg.Auth.RateLimitPerMinute <= 0 {
		pass := func(c *gin.Context) { c.Next() }
		return pass, pass
	}
	limiter := redis_rate.NewLimiter(rdb.Client)
	limit := redis_rate.PerMinute(cfg.Auth.RateLimitPerMinute)
	return middleware.RateLimit(limiter, "login", limit, logger),
		middleware.RateLimit(limiter, "register", limit, logger)
}

func newSender(cfg *config.Config, logger *zap.Logger) notify.Sender {
	if cfg.Email.APIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set; emails will only be logged")
		return notify.NewLogSender(logger)
	}
	return notify.NewSendGridSender(cfg.Email.APIKey, cfg.Email.FromAddress, cfg.Email.FromName, logger)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
