// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backoff retries a function call with naive exponential backoff.

Formula:

	t = min(start * factor^attempt, ceiling)

Retries stop either when the call succeeds, when the retry predicate
returns false for the error, or after maxTries attempts, whichever comes
first. On the last failed attempt the original error is returned as-is.
*/
package backoff

import (
	"context"
	"log/slog"
	"time"
)

// Config tunes the retry loop. The zero value is not usable; use [Default].
type Config struct {
	Start    time.Duration
	Factor   int
	Ceiling  time.Duration
	MaxTries int

	// Retryable reports whether err should trigger another attempt. If nil,
	// every error is retried.
	Retryable func(error) bool
}

// Default matches the reference implementation: start at 100ms, double
// each attempt, cap at 10s, give up after 8 tries.
func Default() Config {
	return Config{
		Start:    100 * time.Millisecond,
		Factor:   2,
		Ceiling:  10 * time.Second,
		MaxTries: 8,
	}
}

// Do runs fn, retrying per cfg until it succeeds, ctx is cancelled, or
// retries are exhausted. op and logger are used only for diagnostics.
func Do(ctx context.Context, cfg Config, logger *slog.Logger, op string, fn func() error) error {
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxTries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}

		if attempt == cfg.MaxTries {
			logger.Error("backoff_retries_exhausted",
				slog.String("op", op),
				slog.Int("attempts", attempt),
				slog.Any("error", err),
			)
			return err
		}

		sleepFor := sleepDuration(cfg, attempt)
		logger.Warn("backoff_retry",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Int("max_tries", cfg.MaxTries),
			slog.Duration("sleep", sleepFor),
			slog.Any("error", err),
		)

		timer := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func sleepDuration(cfg Config, attempt int) time.Duration {
	sleepFor := cfg.Start
	for i := 0; i < attempt; i++ {
		sleepFor *= time.Duration(cfg.Factor)
		if sleepFor >= cfg.Ceiling {
			return cfg.Ceiling
		}
	}
	return sleepFor
}
