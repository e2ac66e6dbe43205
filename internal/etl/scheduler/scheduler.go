// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package scheduler drives the pipeline coordinator at a fixed interval.

It is the outermost loop of the sync engine: it owns the only retry policy
that spans whole ticks (as opposed to [backoff], which retries a single
unit of work inside a tick). A transient failure from the coordinator — the
source or sink was briefly unreachable, and the in-tick backoff already
exhausted its retries — is logged and the scheduler simply waits for the
next tick; a fatal failure is not the scheduler's to recover from and is
returned to the caller, which crashes the process for a supervisor to
restart.
*/
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/vivat7on/filmindex/internal/etl/pipeline"
	"github.com/vivat7on/filmindex/internal/platform/errkind"
)

// Coordinator is the subset of [pipeline.Coordinator] the scheduler
// depends on, kept as an interface so tests can substitute a fake.
type Coordinator interface {
	RunOnce(ctx context.Context) (pipeline.Summary, error)
}

// Scheduler invokes a [Coordinator] once per tick, on a fixed interval,
// until its context is cancelled.
type Scheduler struct {
	coordinator Coordinator
	interval    time.Duration
	logger      *slog.Logger
	resync      chan chan error
}

// New builds a [Scheduler] that ticks coordinator every interval.
func New(coordinator Coordinator, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		coordinator: coordinator,
		interval:    interval,
		logger:      logger,
		// Buffered by one so a single concurrent resync request never
		// blocks the caller if the scheduler is mid-tick.
		resync: make(chan chan error, 1),
	}
}

// Run blocks, ticking the coordinator every interval, until ctx is
// cancelled. It returns nil on a clean shutdown and a non-nil error only
// when the coordinator reports a fatal (non-transient) failure — the
// caller is expected to treat that as unrecoverable and exit.
//
// The first tick fires immediately rather than waiting a full interval;
// every tick after that, scheduled or resync-triggered, resets the
// interval timer so a manual resync does not cause a tick to follow
// immediately behind it.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler_started", slog.Duration("poll_interval", s.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler_stopped")
			return nil

		case respCh := <-s.resync:
			err := s.tick(ctx)
			respCh <- err
			if err != nil {
				return err
			}
			resetTimer(timer, s.interval)

		case <-timer.C:
			if err := s.tick(ctx); err != nil {
				return err
			}
			resetTimer(timer, s.interval)
		}
	}
}

// resetTimer arms timer to fire after d, draining any pending (already
// expired but unread) tick first so Reset's documented caveat about racing
// with an in-flight send never leaves a stale tick queued.
func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}

// TriggerResync asks the scheduler to run one extra tick immediately,
// outside its normal poll interval, and waits for that tick to finish. It
// is used by the control-plane "run now" endpoint. Calling it while the
// scheduler is not running (ctx already cancelled, or Run never started)
// returns ctx's error instead of blocking forever.
func (s *Scheduler) TriggerResync(ctx context.Context) error {
	respCh := make(chan error, 1)

	select {
	case s.resync <- respCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-respCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tick runs one coordinator pass. A transient error is logged and
// swallowed — the next tick will retry from the last committed watermark,
// unchanged. Any other error is fatal and propagates to the caller.
func (s *Scheduler) tick(ctx context.Context) error {
	summary, err := s.coordinator.RunOnce(ctx)
	if err == nil {
		s.logger.Info("tick_complete",
			slog.Int("genres_indexed", summary.GenresIndexed),
			slog.Int("persons_indexed", summary.PersonsIndexed),
			slog.Int("film_works_indexed", summary.FilmWorksIndexed),
			slog.Int("affected_film_works", summary.AffectedFilmWorks),
		)
		return nil
	}

	if errkind.IsTransient(err) {
		s.logger.Warn("tick_failed_transient", slog.Any("error", err))
		return nil
	}

	s.logger.Error("tick_failed_fatal", slog.Any("error", err))
	return err
}
