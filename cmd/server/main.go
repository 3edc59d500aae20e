package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MobilityData/gtfs-validator-sub012/internal/config"
	"github.com/MobilityData/gtfs-validator-sub012/internal/core"
	"github.com/MobilityData/gtfs-validator-sub012/internal/logging"
	"github.com/MobilityData/gtfs-validator-sub012/internal/metrics"
	"github.com/MobilityData/gtfs-validator-sub012/internal/schema"
	"github.com/MobilityData/gtfs-validator-sub012/internal/store"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator"
	"github.com/MobilityData/gtfs-validator-sub012/internal/validator/rules"
	"github.com/MobilityData/gtfs-validator-sub012/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	opts := core.Options{
		Threads:           cfg.Validation.Threads,
		CountryCode:       cfg.Validation.CountryCode,
		MaxNoticesPerCode: cfg.Validation.MaxNoticesPerCode,
		Timeout:           cfg.Validation.Timeout,
		RetainRuns:        cfg.Validation.RetainRuns,
		MaxConcurrent:     cfg.Validation.MaxConcurrent,
		MaxWaitTime:       cfg.Validation.MaxWaitTime,
		Logger:            slog.Default(),
	}

	if cfg.Database.Enabled() {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		runs := store.New(pool)
		if err := runs.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		opts.Store = runs
	} else {
		slog.Info("DATABASE_URL not set, run summaries are kept in memory only")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts.Metrics = metrics.New(registry)

	validators := validator.NewRegistry()
	rules.RegisterDefaults(validators, schema.All())
	slog.Info("schema loaded",
		"tables", schema.Default().TableCount(),
		"validators", validators.Len(),
	)

	service := core.NewService(schema.Default(), validators, opts)
	server := web.NewServer(service, cfg, registry)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for validations to complete", "active", status.Active)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
