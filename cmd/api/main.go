// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/blogsy/internal/admin"
	"github.com/carterperez-dev/blogsy/internal/auth"
	"github.com/carterperez-dev/blogsy/internal/billing"
	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/generation"
	"github.com/carterperez-dev/blogsy/internal/health"
	"github.com/carterperez-dev/blogsy/internal/media"
	"github.com/carterperez-dev/blogsy/internal/middleware"
	"github.com/carterperez-dev/blogsy/internal/pipeline"
	"github.com/carterperez-dev/blogsy/internal/plan"
	"github.com/carterperez-dev/blogsy/internal/post"
	"github.com/carterperez-dev/blogsy/internal/server"
	"github.com/carterperez-dev/blogsy/internal/storage"
	"github.com/carterperez-dev/blogsy/internal/transcription"
	"github.com/carterperez-dev/blogsy/internal/user"
)

const (
	drainDelay       = 5 * time.Second
	webhookLedgerTTL = 72 * time.Hour

	imageUploadsPerHour = 60
	imageUploadBurst    = 10
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	verifier, err := auth.NewVerifier(ctx, cfg.Identity)
	if err != nil {
		return err
	}
	logger.Info("session verifier initialized",
		"jwks", cfg.Identity.JWKSURL != "",
		"issuer", cfg.Identity.Issuer,
	)

	store, err := storage.NewSupabaseStore(cfg.Storage)
	if err != nil {
		return err
	}
	uploader := storage.NewUploader(store, cfg.Storage.MaxUploadSize, logger)

	catalog := plan.NewCatalog(cfg.Plans)
	postRepo := post.NewRepository(db.DB)
	quota := plan.NewChecker(postRepo)

	userSvc := user.NewService(user.NewRepository(db.DB), catalog, quota, logger)
	postSvc := post.NewService(postRepo, logger)

	model, err := generation.NewClient(ctx, cfg.Generation)
	if err != nil {
		return err
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Media: uploader,
		Downloader: media.NewDownloader(
			cfg.Downloader.URL,
			cfg.Downloader.Timeout,
			uploader,
			logger,
		),
		Transcriber: transcription.NewClient(
			cfg.Transcription,
			cfg.Storage.PublicBaseURL,
			logger,
		),
		Writer:  generation.NewGenerator(model, cfg.Generation, logger),
		Posts:   postRepo,
		Plans:   userSvc,
		Quota:   quota,
		Guard:   pipeline.NewGuard(redis.Client, cfg.Pipeline.GuardTTL),
		Tracker: pipeline.NewTracker(redis.Client, cfg.Pipeline.ProgressTTL),
		Logger:  logger,
	})

	ledger := core.NewEventLedger(redis.Client, "webhook", webhookLedgerTTL)

	identityWebhooks, err := auth.NewWebhookHandler(
		cfg.Identity.WebhookSecret,
		userSvc,
		ledger,
		logger,
	)
	if err != nil {
		return err
	}

	billingWebhooks := billing.NewWebhookHandler(
		cfg.Billing.StripeWebhookSecret,
		billing.NewStripeClient(cfg.Billing.StripeSecretKey),
		userSvc,
		ledger,
		logger,
	)

	userHandler := user.NewHandler(userSvc)
	postHandler := post.NewHandler(postSvc)
	planHandler := plan.NewHandler(catalog)
	imageHandler := storage.NewHandler(uploader)
	pipelineHandler := pipeline.NewHandler(orchestrator, uploader.MaxBytes())

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
		health.Dependency{Name: "storage", Checker: store, Optional: true},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:           db.Stats,
		RedisStats:        redis.PoolStats,
		DBPing:            db.Ping,
		RedisPing:         redis.Ping,
		ActiveGenerations: orchestrator.ActiveCount,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	identityWebhooks.RegisterRoutes(router)
	billingWebhooks.RegisterRoutes(router)

	authenticator := middleware.Authenticator(verifier)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		planHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r, authenticator)
		postHandler.RegisterRoutes(r, authenticator)
		imageHandler.RegisterRoutes(r, authenticator,
			middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
				Scope:    "images",
				Limit:    middleware.PerHour(imageUploadsPerHour, imageUploadBurst),
				KeyFunc:  middleware.KeyByUser,
				FailOpen: true,
			}).Handler,
		)

		pipelineHandler.RegisterRoutes(r, authenticator,
			middleware.ResolveTier(userSvc),
			middleware.TieredRateLimiter(redis.Client, middleware.DefaultTiers),
		)

		adminHandler.RegisterRoutes(r, authenticator, adminOnly,
			userHandler.RegisterAdminRoutes,
		)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
