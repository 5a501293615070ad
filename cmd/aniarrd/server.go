package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/aniarr/aniarr/internal/config"
	"github.com/aniarr/aniarr/internal/migrations"
	"github.com/aniarr/aniarr/internal/server"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(configPath string) error {
	if configPath == "" {
		var err error
		configPath, err = config.Discover()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path+"?_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	runner := server.NewRunner(db, server.Config{
		PollInterval:   cfg.Server.PollInterval.Duration,
		FlushInterval:  cfg.Engine.FlushInterval.Duration,
		EventBuffer:    cfg.Engine.EventBuffer,
		EventRetention: cfg.Events.Retention.Duration,
		RebuildOnStart: cfg.Engine.RebuildOnStart,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("daemon starting",
		"config", configPath,
		"database", cfg.Database.Path,
		"poll_interval", cfg.Server.PollInterval.Duration,
		"rebuild_on_start", cfg.Engine.RebuildOnStart,
		"log_level", cfg.Server.LogLevel,
	)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("daemon stopped")
	return nil
}
