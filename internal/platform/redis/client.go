// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides a managed client for the dead-letter sidecar.

When a bulk index request partially fails, the sync engine still advances
its watermark (the document is picked up again the next time its source
row changes), but an operator needs visibility into
which documents were dropped. This client backs a small recorder that keeps
those document ids around with a TTL so they can be inspected or
re-triggered without grepping logs.

Core Responsibilities:

  - Volatility: dead-letter records expire on their own; they are a
    diagnostic aid, not a source of truth.
  - Speed: low-latency append, used inline in the bulk-indexing hot path.
  - Safety: connection pooling and retry logic are handled by the driver.

This is an optional component: if no Redis URL is configured, partial bulk
failures are logged but not recorded anywhere durable.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Opinionated default timeouts for Redis operations.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// NewClient parses a Redis URL and returns a ready-to-use client.
//
// # Parameters
//   - ctx: context for the initial ping.
//   - redisURL: Redis connection URL.
//   - logger: structured logger for connection events.
func NewClient(ctx stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	// Pool configuration tuning: the dead-letter sidecar is low-traffic,
	// at most a handful of writes per tick.
	options.PoolSize = 4
	options.MinIdleConns = 1
	options.MaxIdleConns = 2

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	// Validate connectivity immediately at startup.
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis client connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(ctx stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
