package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/surojit-ghosh/url-shortener/internal/analytics"
	"github.com/surojit-ghosh/url-shortener/internal/config"
	"github.com/surojit-ghosh/url-shortener/internal/infra"
	"github.com/surojit-ghosh/url-shortener/internal/observability"
	"github.com/surojit-ghosh/url-shortener/internal/repository"
)

// The worker drains the click queue and writes immutable click rows.
// It shares the module's repositories with the gateway but runs as its
// own process so a slow store never backs up into redirect latency.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.Setup(ctx, observability.Config{
		ServiceName:  cfg.Observability.ServiceName + "-worker",
		Environment:  cfg.Observability.Environment,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to setup observability: %v", err)
	}
	logger := obs.Logger

	db, err := infra.NewPostgresPool(ctx, cfg.Database.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	queue, err := infra.NewQueue(cfg.Queue.ConnectionString(), cfg.Queue.Name)
	if err != nil {
		logger.Error("failed to connect to message queue", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer queue.Close()

	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickRepository(db)
	recorder := analytics.NewRecorder(linkRepo, clickRepo, logger)
	consumer := analytics.NewConsumer(queue, recorder, cfg.Queue.Consumers, logger)

	logger.Info("worker starting",
		slog.String("queue", cfg.Queue.Name),
		slog.Int("consumers", cfg.Queue.Consumers))

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	obs.Shutdown(shutdownCtx)

	logger.Info("worker exited gracefully")
}
