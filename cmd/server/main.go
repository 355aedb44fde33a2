package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/surojit-ghosh/url-shortener/internal/config"
	"github.com/surojit-ghosh/url-shortener/internal/infra"
	"github.com/surojit-ghosh/url-shortener/internal/observability"
	"github.com/surojit-ghosh/url-shortener/internal/reqinfo"
	"github.com/surojit-ghosh/url-shortener/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	obs, err := observability.Setup(ctx, observability.Config{
		ServiceName:  cfg.Observability.ServiceName,
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
	logger.Info("database connected")

	cache, err := infra.NewCacheClient(ctx, cfg.Cache.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cache.Close()
	logger.Info("cache connected")

	// Click dispatch is best-effort: a broker outage at startup degrades
	// to redirects without analytics instead of refusing to serve.
	queue, err := infra.NewQueue(cfg.Queue.ConnectionString(), cfg.Queue.Name)
	if err != nil {
		logger.Warn("failed to connect to message queue, click tracking disabled",
			slog.String("error", err.Error()))
		queue = nil
	} else {
		defer queue.Close()
		logger.Info("message queue connected")
	}

	geo := reqinfo.NewGeoResolver(cfg.Geo.DBPath, logger)
	defer geo.Close()

	srv := server.NewServer(cfg, db, cache, queue, geo, obs)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Server.Port),
			slog.String("base_url", cfg.App.BaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal (Ctrl+C or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	obs.Shutdown(shutdownCtx)
	logger.Info("server exited gracefully")
}
