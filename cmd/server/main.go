package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/kapu/sql-detective-go/internal/app"
	"github.com/kapu/sql-detective-go/internal/config"
	"github.com/kapu/sql-detective-go/internal/constants"
	"github.com/kapu/sql-detective-go/internal/health"
	"github.com/kapu/sql-detective-go/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.EnableFileLoggingWithLevel(util.LogConfig{
		Dir:        cfg.Logging.Dir,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, "server.log", cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	health.Init(cfg.Version)

	logger.Info("sql_detective_starting",
		slog.String("version", cfg.Version),
		slog.String("log_level", cfg.Logging.Level),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), constants.AppTimeout.Build)
	runtime, err := app.BuildRuntime(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("runtime_build_failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := runtime.Run(context.Background()); err != nil {
		logger.Error("server_exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server_stopped")
}
