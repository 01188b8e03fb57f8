package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/farmstead-erp/farmstead-erp/internal/alerts"
	"github.com/farmstead-erp/farmstead-erp/internal/app"
	"github.com/farmstead-erp/farmstead-erp/internal/finance"
	"github.com/farmstead-erp/farmstead-erp/internal/integration"
	jobmetrics "github.com/farmstead-erp/farmstead-erp/internal/jobs"
	"github.com/farmstead-erp/farmstead-erp/internal/observability"
	"github.com/farmstead-erp/farmstead-erp/internal/outbox"
	"github.com/farmstead-erp/farmstead-erp/internal/platform/cache"
	"github.com/farmstead-erp/farmstead-erp/internal/platform/db"
	"github.com/farmstead-erp/farmstead-erp/internal/shared"
	"github.com/farmstead-erp/farmstead-erp/internal/stock"
	"github.com/farmstead-erp/farmstead-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, alert debounce disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	appMetrics := observability.NewMetrics()

	financeService := finance.NewService(finance.NewRepository(pool), logger)
	notifier := jobs.NewLowStockNotifier(jobClient, cfg.AlertRecipient, logger)
	alertService := alerts.NewService(alerts.NewRepository(pool), redisClient, notifier, appMetrics, alerts.ServiceConfig{
		DebounceTTL: cfg.AlertDebounceTTL,
	}, logger)

	stockRepo := stock.NewRepository(pool)
	outboxStore := outbox.NewStore(pool)
	dispatcher := outbox.NewDispatcher(outboxStore, appMetrics, logger)
	integration.NewHooks(financeService, alertService, stockRepo, logger).Register(dispatcher)

	metrics := jobmetrics.NewMetrics(nil)
	sweepJob := jobs.NewOutboxSweepJob(dispatcher, outboxStore, cfg.OutboxRetention, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), cfg.IdempotencyRetention, logger, metrics)

	now := time.Now().UTC()
	sweepTask, err := jobs.NewOutboxSweepTask(now)
	if err != nil {
		logger.Error("build outbox sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(now)
	if err != nil {
		logger.Error("build idempotency cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Mailer:    jobs.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, logger),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOutboxSweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "* * * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
