// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Etl is the entry point for the film catalogue search-index sync engine.

It continuously reflects changes from the upstream content catalogue
(Postgres) into the three Elasticsearch indices (movies, genres, persons)
the read-side query API serves from.

Usage:

	go run cmd/etl/main.go

Startup Sequence:

 1. Logger: initialize structured JSON logging (slog).
 2. Config: load and validate environment variables.
 3. Migration (optional): bootstrap the dev/test source schema.
 4. Sink: connect and validate the Elasticsearch client (long-lived).
 5. Dead-letter sidecar (optional): connect to Redis if configured.
 6. State: load the watermark file from disk.
 7. Wiring: compose the source reader, sink writer, coordinator, scheduler.
 8. Control plane: bind the health/resync HTTP listener.
 9. Run: tick on a fixed interval until a shutdown signal arrives.

No business logic lives here. This file is strictly for orchestration and
wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vivat7on/filmindex/internal/etl/admin"
	"github.com/vivat7on/filmindex/internal/etl/pipeline"
	"github.com/vivat7on/filmindex/internal/etl/scheduler"
	"github.com/vivat7on/filmindex/internal/etl/sink"
	"github.com/vivat7on/filmindex/internal/etl/state"
	"github.com/vivat7on/filmindex/internal/platform/config"
	"github.com/vivat7on/filmindex/internal/platform/constants"
	"github.com/vivat7on/filmindex/internal/platform/elastic"
	"github.com/vivat7on/filmindex/internal/platform/migration"
	redisstore "github.com/vivat7on/filmindex/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	log := newLogger(slog.LevelInfo).With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	log.Info("service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if level, ok := parseLevel(cfg.LogLevel); ok {
		log = newLogger(level).With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.Duration("poll_interval", cfg.PollInterval),
	)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// # 3. Migrations (dev/test bootstrap only)
	if cfg.MigrationPath != "" {
		if err := migration.RunUp(cfg.PostgresDSN(), cfg.MigrationPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// # 4. Elasticsearch sink
	esClient, err := elastic.NewClient(appCtx, cfg.ElasticAddresses, cfg.ElasticUsername, cfg.ElasticPassword, log)
	if err != nil {
		return fmt.Errorf("connect to elasticsearch: %w", err)
	}

	// # 5. Dead-letter sidecar (optional)
	var deadLetter sink.DeadLetterRecorder
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(appCtx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()
		deadLetter = sink.NewRedisDeadLetter(rdb, cfg.DeadLetterTTL)
	} else {
		log.Warn("dead_letter_sidecar_disabled", slog.String("reason", "REDIS_URL unset"))
	}

	// # 6. State store
	store, err := state.Open(cfg.StorageFileName)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	// # 7. Wiring
	writer := sink.NewWriter(esClient, cfg.MoviesIndex, cfg.GenresIndex, cfg.PersonsIndex, deadLetter, log)
	connector := pipeline.PostgresConnector(cfg.PostgresDSN(), log)
	coordinator := pipeline.New(connector, writer, store, log)
	sched := scheduler.New(coordinator, cfg.PollInterval, log)

	// # 8. Control plane
	adminServer := admin.NewServer(appCtx, admin.Dependencies{
		Port: cfg.AdminPort,
		Health: admin.HealthDependencies{
			CheckSink: func() error { return elastic.Ping(appCtx, esClient) },
		},
		Scheduler:      sched,
		AdminTokenHash: cfg.AdminTokenHash,
	}, log)

	// # 9. Lifecycle
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("admin_server_crash: %w", err)
		}
	}()

	schedulerErr := make(chan error, 1)
	go func() {
		schedulerErr <- sched.Run(appCtx)
	}()

	log.Info("etl_running", slog.String("admin_port", cfg.AdminPort))

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		appCancel()
		return err
	case err := <-schedulerErr:
		appCancel()
		if err != nil {
			return fmt.Errorf("scheduler crashed: %w", err)
		}
		return nil
	}

	appCancel()

	log.Info("shutting_down_admin_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := adminServer.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("admin server shutdown failed: %w", err)
	}

	<-schedulerErr
	log.Info("graceful_shutdown_complete")
	return nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func parseLevel(raw string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, false
	}
	return level, true
}
