package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/farmstead-erp/farmstead-erp/internal/app"
)

const defaultDir = "migrations"

func main() {
	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|up-to|down-to")
	dir := flag.String("dir", defaultDir, "goose migrations directory")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	db, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database", slog.Any("error", err))
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		logger.Error("set goose dialect", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()
	if err := goose.RunContext(ctx, *cmd, db, *dir, flag.Args()...); err != nil {
		logger.Error("run migration", slog.String("cmd", *cmd), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migration complete", slog.String("cmd", *cmd))
}
