package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/farmstead-erp/farmstead-erp/internal/alerts"
	"github.com/farmstead-erp/farmstead-erp/internal/app"
	"github.com/farmstead-erp/farmstead-erp/internal/catalog"
	"github.com/farmstead-erp/farmstead-erp/internal/finance"
	"github.com/farmstead-erp/farmstead-erp/internal/integration"
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
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
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

	metrics := observability.NewMetrics()

	defaultMinStock, err := decimal.NewFromString(cfg.DefaultMinStockLevel)
	if err != nil {
		logger.Error("parse STOCK_DEFAULT_MIN_LEVEL", slog.Any("error", err))
		os.Exit(1)
	}

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

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, catalog.ServiceConfig{
		DefaultMinStockLevel: defaultMinStock,
	})

	financeRepo := finance.NewRepository(pool)
	financeService := finance.NewService(financeRepo, logger)

	notifier := jobs.NewLowStockNotifier(jobClient, cfg.AlertRecipient, logger)
	alertRepo := alerts.NewRepository(pool)
	alertService := alerts.NewService(alertRepo, redisClient, notifier, metrics, alerts.ServiceConfig{
		DebounceTTL: cfg.AlertDebounceTTL,
	}, logger)

	stockRepo := stock.NewRepository(pool)
	outboxStore := outbox.NewStore(pool)
	dispatcher := outbox.NewDispatcher(outboxStore, metrics, logger)
	hooks := integration.NewHooks(financeService, alertService, stockRepo, logger)
	hooks.Register(dispatcher)

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	stockService := stock.NewService(stockRepo, auditLogger, idempotencyStore, dispatcher, metrics, stock.ServiceConfig{
		DefaultLocation: cfg.DefaultLocation,
	}, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		CatalogHandler: catalog.NewHandler(logger, catalogService),
		StockHandler:   stock.NewHandler(logger, stockService),
		FinanceHandler: finance.NewHandler(logger, financeService),
		AlertsHandler:  alerts.NewHandler(logger, alertService),
		JobHandler:     jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger),
		Pool:           pool,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
