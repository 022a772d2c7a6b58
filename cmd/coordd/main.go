package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-response-core/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/disaster-response-core/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-response-core/internal/adapter/ws"
	"github.com/couchcryptid/disaster-response-core/internal/broadcast"
	"github.com/couchcryptid/disaster-response-core/internal/cache"
	"github.com/couchcryptid/disaster-response-core/internal/config"
	"github.com/couchcryptid/disaster-response-core/internal/enrich/analyze"
	"github.com/couchcryptid/disaster-response-core/internal/enrich/geocode"
	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Cache backend (feature-flagged via CACHE_DB_PATH).
	var backend cache.Backend
	var closeBackend func() error
	if cfg.CacheDBPath != "" {
		store, err := cache.OpenLibSQL(cfg.CacheDBPath)
		if err != nil {
			logger.Error("failed to open cache database", "path", cfg.CacheDBPath, "error", err)
			os.Exit(1)
		}
		backend = store
		closeBackend = store.Close
		logger.Info("durable cache enabled", "path", cfg.CacheDBPath)
	} else {
		backend = cache.NewMemory()
		logger.Info("in-memory cache enabled")
	}

	c := cache.New(backend, clock, logger, metrics)
	sweeper := cache.NewSweeper(c, cfg.CacheSweepInterval, clock, logger, metrics)

	hub := broadcast.NewHub(logger, metrics)

	// Mutation relay (feature-flagged via KAFKA_BROKERS).
	var relay broadcast.Relay
	var closeRelay func() error
	if cfg.RelayEnabled {
		r := kafkaadapter.NewRelay(cfg, clock, logger, metrics)
		relay = r
		closeRelay = r.Close
		logger.Info("kafka mutation relay enabled", "topic", cfg.KafkaEventsTopic)
	} else {
		logger.Info("kafka mutation relay disabled")
	}

	notifier := broadcast.NewNotifier(hub, relay, logger)
	geocoder := geocode.NewService(cfg, c, logger, metrics)
	analyzer := analyze.NewService(cfg, c, logger, metrics)
	wsHandler := ws.NewHandler(hub, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, geocoder, analyzer, notifier, wsHandler, c, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start background cache sweep.
	go func() {
		if err := sweeper.Run(ctx); err != nil {
			logger.Error("cache sweeper error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closeRelay != nil {
		if err := closeRelay(); err != nil {
			logger.Error("kafka relay close error", "error", err)
		}
	}
	if closeBackend != nil {
		if err := closeBackend(); err != nil {
			logger.Error("cache database close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
