// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package postgres manages connections to the upstream source database.

Unlike a typical web backend, the sync engine does not hold a long-lived
connection pool: the source database belongs to another service, and a tick
only needs a handful of read queries before going back to sleep. [Connect]
opens a single connection at the start of a tick; the caller closes it
before the next tick begins.

Architecture:

  - Connect: a short-lived [pgx.Conn], not a pool, tuned with a statement
    timeout so a stuck query cannot wedge a tick forever.
  - Ping: a standalone health check that opens, verifies and immediately
    closes its own connection. The control-plane readiness endpoint does
    not call it; readiness probes only the sink.
*/
package postgres

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// Opinionated timeouts for the per-tick connection lifecycle.
const (
	// connectTimeout is the maximum time allowed to establish a new connection.
	connectTimeout = 5 * time.Second

	// statementTimeout bounds every query issued on the connection, so a
	// single slow extraction query cannot stall the tick indefinitely.
	statementTimeout = 20 * time.Second

	// pingTimeout is the maximum duration for a readiness check.
	pingTimeout = 2 * time.Second
)

// Connect opens a new connection to the source database for the duration
// of one tick. The caller is responsible for closing it.
func Connect(ctx stdctx.Context, dsn string, logger *slog.Logger) (*pgx.Conn, error) {
	connectCtx, cancel := stdctx.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := pgx.Connect(connectCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}

	timeoutQuery := fmt.Sprintf("SET statement_timeout = '%ds'", int(statementTimeout.Seconds()))
	if _, err := conn.Exec(connectCtx, timeoutQuery); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("postgres: failed to set statement_timeout: %w", err)
	}

	logger.Debug("postgres connection opened")

	return conn, nil
}

// Ping opens a throwaway connection, verifies it, and closes it. It does not
// depend on any tick-scoped connection.
func Ping(ctx stdctx.Context, dsn string) error {
	pingCtx, cancel := stdctx.WithTimeout(ctx, pingTimeout)
	defer cancel()

	conn, err := pgx.Connect(pingCtx, dsn)
	if err != nil {
		return fmt.Errorf("postgres: ping failed to connect: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if err := conn.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}

	return nil
}
