package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/hugh/lead-hunter/internal/database"
	"github.com/hugh/lead-hunter/internal/leads"
	"github.com/hugh/lead-hunter/internal/observability/tracing"
	"github.com/hugh/lead-hunter/internal/tasks"
	"github.com/hugh/lead-hunter/pkg/config"
	"github.com/hugh/lead-hunter/pkg/queue"
	"github.com/hugh/lead-hunter/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	if !cfg.Redis.Enabled() {
		logger.Error("worker requires REDIS_HOST")
		os.Exit(1)
	}

	logger.Info("starting lead-hunter worker", "concurrency", cfg.Worker.Concurrency)

	shutdownTracing, err := tracing.Init(context.Background(), logger, cfg.Tracing.Endpoint, "lead-hunter-worker", cfg.Server.Env)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency)

	handler := tasks.NewHandler(leads.NewGormStore(db), logger)
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	if err := srv.Start(mux); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	srv.Shutdown()

	if shutdownTracing != nil {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}
	if err := database.Close(db); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("worker stopped")
}
