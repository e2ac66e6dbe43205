// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: once loaded, configuration is read-only.
  - DI-Friendly: passed to core components (source reader, sink writer,
    scheduler) via constructors.
  - Zero Hidden State: no global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the sync engine.
type Config struct {

	// Environment names the deployment environment. It is logged at startup
	// and read by IsDevelopment/IsProduction; log verbosity comes from LogLevel.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Source Postgres connection. The engine opens a fresh connection at
	// the start of each tick and closes it at the end; these settings
	// describe how to reach the database, not a pool.
	PostgresHost     string `env:"POSTGRES_HOST,required"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresDB       string `env:"POSTGRES_DB,required"`
	PostgresUser     string `env:"POSTGRES_USER,required"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,required"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Elasticsearch sink.
	ElasticAddresses []string `env:"ELASTIC_ADDRESSES" envSeparator:"," envDefault:"http://localhost:9200"`
	ElasticUsername  string   `env:"ELASTIC_USERNAME"`
	ElasticPassword  string   `env:"ELASTIC_PASSWORD"`

	MoviesIndex  string `env:"MOVIES_ES_INDEX"  envDefault:"movies"`
	GenresIndex  string `env:"GENRES_ES_INDEX"  envDefault:"genres"`
	PersonsIndex string `env:"PERSONS_ES_INDEX" envDefault:"persons"`

	// Watermark persistence.
	StorageFileName string `env:"STORAGE_FILE_NAME" envDefault:"./data/state.json"`

	// Scheduler pacing.
	PollInterval time.Duration `env:"POLL_INTERVAL_SECONDS" envDefault:"10"`

	// LogLevel controls the slog handler's minimum level (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Dead-letter sidecar (Redis). Optional: if RedisURL is empty, bulk
	// partial failures are only logged, never sidecar-recorded.
	RedisURL      string        `env:"REDIS_URL"`
	DeadLetterTTL time.Duration `env:"DEADLETTER_TTL_SECONDS" envDefault:"604800"`

	// MigrationPath, when set, runs the bundled dev/test source-schema
	// migrations at startup. Leave unset against a real upstream database,
	// whose schema this engine never owns.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Control-plane HTTP surface (health, readiness, manual resync).
	// AdminTokenHash is optional: leaving it unset disables /admin/resync
	// entirely rather than failing startup, since health/readiness probes
	// must keep working even on a deployment with no operator token minted
	// yet.
	AdminPort      string `env:"ADMIN_PORT" envDefault:"8090"`
	AdminTokenHash string `env:"ADMIN_TOKEN_HASH"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	// Duration fields come from *_SECONDS variables holding whole seconds.
	opts := env.Options{FuncMap: map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(time.Duration(0)): func(value string) (any, error) {
			seconds, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("expected whole seconds, got %q: %w", value, err)
			}
			return time.Duration(seconds) * time.Second, nil
		},
	}}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PostgresDSN builds a libpq-compatible connection string for [pgx.Connect].
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSLMode,
	)
}
