// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pipeline runs one tick of the sync engine: genres, then persons,
then the fan-in movies pass, against a single per-tick source connection.

The ordering is deliberate. Genres and persons are indexed first because
the movies pass denormalizes their names into film documents; running
movies first could embed stale genre/person names for the same tick.
*/
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vivat7on/filmindex/internal/etl/dto"
	"github.com/vivat7on/filmindex/internal/etl/source"
	"github.com/vivat7on/filmindex/internal/etl/state"
	"github.com/vivat7on/filmindex/internal/etl/transform"
	"github.com/vivat7on/filmindex/internal/platform/errkind"
	"github.com/vivat7on/filmindex/internal/platform/postgres"
)

// Reader is the subset of [source.Reader] the coordinator depends on, kept
// as an interface so tests can substitute a fake instead of a live
// Postgres connection.
type Reader interface {
	ChangedGenres(ctx context.Context, since *time.Time) ([]dto.Genre, time.Time, bool, error)
	ChangedPersons(ctx context.Context, since *time.Time) ([]dto.Person, time.Time, bool, error)
	ChangedFilmWorkIDs(ctx context.Context, since *time.Time) (source.ChangeSet, error)
	FilmWorkIDsByChangedGenres(ctx context.Context, since *time.Time) (source.ChangeSet, error)
	FilmWorkIDsByChangedPersons(ctx context.Context, since *time.Time) (source.ChangeSet, error)
	FilmWorkIDsByChangedGenreFilmWork(ctx context.Context, since *time.Time) (source.ChangeSet, error)
	FilmWorkIDsByChangedPersonFilmWork(ctx context.Context, since *time.Time) (source.ChangeSet, error)
	FilmWorkForIndex(ctx context.Context, ids []uuid.UUID) ([]dto.FilmWork, error)
}

// Sink is the subset of [sink.Writer] the coordinator depends on, kept as
// an interface so tests can substitute a fake.
type Sink interface {
	EnsureIndices(ctx context.Context) error
	BulkGenres(ctx context.Context, docs []GenreDoc) (Result, error)
	BulkPersons(ctx context.Context, docs []PersonDoc) (Result, error)
	BulkFilmWorks(ctx context.Context, docs []FilmDoc) (Result, error)
}

// Connector opens a fresh source connection for one tick and returns a
// [Reader] over it plus a close function the coordinator calls once the
// tick is done, win or lose.
type Connector func(ctx context.Context) (Reader, func(context.Context) error, error)

// PostgresConnector builds the default [Connector]: a short-lived
// [pgx.Conn] opened fresh per tick, per spec.md §3.5's "source connection
// is not long-lived" lifecycle.
func PostgresConnector(dsn string, logger *slog.Logger) Connector {
	return func(ctx context.Context) (Reader, func(context.Context) error, error) {
		conn, err := postgres.Connect(ctx, dsn, logger)
		if err != nil {
			return nil, nil, errkind.Transient("source.connect", err)
		}
		return source.New(conn), func(closeCtx context.Context) error { return closeConn(closeCtx, conn) }, nil
	}
}

func closeConn(ctx context.Context, conn *pgx.Conn) error {
	return conn.Close(ctx)
}

// Coordinator runs one tick at a time against a fresh source connection.
type Coordinator struct {
	connect Connector
	sink    Sink
	store   *state.Store
	logger  *slog.Logger
}

// New builds a [Coordinator]. connect is invoked once per
// [Coordinator.RunOnce] call to obtain a [Reader]; its close function runs
// before RunOnce returns, whether the tick succeeded or failed.
func New(connect Connector, sink Sink, store *state.Store, logger *slog.Logger) *Coordinator {
	return &Coordinator{connect: connect, sink: sink, store: store, logger: logger}
}

// Summary reports what a tick actually did, for logging and tests.
type Summary struct {
	GenresIndexed     int
	PersonsIndexed    int
	FilmWorksIndexed  int
	AffectedFilmWorks int
}

// watermarkUpdate is a single key's new value, queued for persistence
// until every read for the tick has completed.
type watermarkUpdate struct {
	key string
	ts  time.Time
}

// RunOnce executes a single tick: opens a source connection, snapshots all
// five watermarks once, runs the genres pass, the persons pass, and the
// movies fan-in pass against those same snapshots, then persists every
// advanced watermark together before closing the connection. Snapshotting
// once up front (rather than re-reading the store between passes) keeps
// genre_ts and person_ts at a single value per tick even though both the
// dedicated indexing passes and the movies fan-in query against them: a
// genre renamed this tick is read with the same "since" cutoff by the
// genres pass that re-indexes the genre document and by the fan-in query
// that decides which movies to re-index for it, so the affected movie is
// never missed because its pass ran after the genre watermark had already
// moved past the change.
func (c *Coordinator) RunOnce(ctx context.Context) (Summary, error) {
	reader, closeSource, err := c.connect(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if cerr := closeSource(ctx); cerr != nil {
			c.logger.Warn("source_connection_close_failed", slog.Any("error", cerr))
		}
	}()

	if err := c.sink.EnsureIndices(ctx); err != nil {
		return Summary{}, err
	}

	filmWorkSince := c.watermark(state.FilmWorkTS)
	genreSince := c.watermark(state.GenreTS)
	personSince := c.watermark(state.PersonTS)
	genreFilmWorkSince := c.watermark(state.GenreFilmWorkTS)
	personFilmWorkSince := c.watermark(state.PersonFilmWorkTS)

	var summary Summary
	var updates []watermarkUpdate

	genresIndexed, genreUpdate, err := c.runGenres(ctx, reader, genreSince)
	if err != nil {
		return summary, err
	}
	summary.GenresIndexed = genresIndexed
	if genreUpdate != nil {
		updates = append(updates, *genreUpdate)
	}

	personsIndexed, personUpdate, err := c.runPersons(ctx, reader, personSince)
	if err != nil {
		return summary, err
	}
	summary.PersonsIndexed = personsIndexed
	if personUpdate != nil {
		updates = append(updates, *personUpdate)
	}

	filmWorksIndexed, affected, movieUpdates, err := c.runMovies(ctx, reader,
		filmWorkSince, genreSince, personSince, genreFilmWorkSince, personFilmWorkSince)
	if err != nil {
		return summary, err
	}
	summary.FilmWorksIndexed = filmWorksIndexed
	summary.AffectedFilmWorks = affected
	updates = append(updates, movieUpdates...)

	for _, u := range updates {
		if err := c.store.Set(u.key, u.ts); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func (c *Coordinator) runGenres(ctx context.Context, reader Reader, since *time.Time) (int, *watermarkUpdate, error) {
	genres, watermark, advanced, err := reader.ChangedGenres(ctx, since)
	if err != nil {
		return 0, nil, err
	}
	if len(genres) == 0 {
		c.logger.Debug("genres_no_changes")
		return 0, nil, nil
	}

	docs := make([]GenreDoc, len(genres))
	for i, g := range genres {
		docs[i] = transform.Genre(g)
	}

	if _, err := c.sink.BulkGenres(ctx, docs); err != nil {
		return 0, nil, err
	}

	var update *watermarkUpdate
	if advanced {
		update = &watermarkUpdate{key: state.GenreTS, ts: watermark}
	}

	c.logger.Info("genres_tick_complete", slog.Int("count", len(docs)))
	return len(docs), update, nil
}

func (c *Coordinator) runPersons(ctx context.Context, reader Reader, since *time.Time) (int, *watermarkUpdate, error) {
	persons, watermark, advanced, err := reader.ChangedPersons(ctx, since)
	if err != nil {
		return 0, nil, err
	}
	if len(persons) == 0 {
		c.logger.Debug("persons_no_changes")
		return 0, nil, nil
	}

	docs := make([]PersonDoc, len(persons))
	for i, p := range persons {
		docs[i] = transform.Person(p)
	}

	if _, err := c.sink.BulkPersons(ctx, docs); err != nil {
		return 0, nil, err
	}

	var update *watermarkUpdate
	if advanced {
		update = &watermarkUpdate{key: state.PersonTS, ts: watermark}
	}

	c.logger.Info("persons_tick_complete", slog.Int("count", len(docs)))
	return len(docs), update, nil
}

// runMovies fans five change-detection queries into one deduplicated set
// of affected film work ids, fetches their denormalized rows, transforms
// and bulk-indexes them. The genre_ts and person_ts queries here read the
// same snapshots the genres and persons passes already used; only
// film_work_ts, genre_film_work_ts and person_film_work_ts are this
// pass's own watermarks to advance.
func (c *Coordinator) runMovies(
	ctx context.Context,
	reader Reader,
	filmWorkSince, genreSince, personSince, genreFilmWorkSince, personFilmWorkSince *time.Time,
) (int, int, []watermarkUpdate, error) {
	affected := make(map[uuid.UUID]struct{})
	var updates []watermarkUpdate

	type query struct {
		key   string
		since *time.Time
		fn    func(context.Context, *time.Time) (source.ChangeSet, error)
		// track reports whether this query's own watermark should be
		// persisted; genre_ts/person_ts are tracked by the dedicated
		// passes instead, since both readers must agree on one value.
		track bool
	}

	queries := []query{
		{state.FilmWorkTS, filmWorkSince, reader.ChangedFilmWorkIDs, true},
		{state.GenreTS, genreSince, reader.FilmWorkIDsByChangedGenres, false},
		{state.PersonTS, personSince, reader.FilmWorkIDsByChangedPersons, false},
		{state.GenreFilmWorkTS, genreFilmWorkSince, reader.FilmWorkIDsByChangedGenreFilmWork, true},
		{state.PersonFilmWorkTS, personFilmWorkSince, reader.FilmWorkIDsByChangedPersonFilmWork, true},
	}

	for _, q := range queries {
		changes, err := q.fn(ctx, q.since)
		if err != nil {
			return 0, 0, nil, err
		}
		source.MergeInto(affected, changes)
		if q.track && changes.Advanced {
			updates = append(updates, watermarkUpdate{key: q.key, ts: changes.Watermark})
		}
	}

	if len(affected) == 0 {
		c.logger.Debug("movies_no_changes")
		return 0, 0, updates, nil
	}

	ids := make([]uuid.UUID, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}

	filmWorks, err := reader.FilmWorkForIndex(ctx, ids)
	if err != nil {
		return 0, len(ids), nil, err
	}

	docs := make([]FilmDoc, len(filmWorks))
	for i, fw := range filmWorks {
		docs[i] = transform.FilmWork(fw)
	}

	if _, err := c.sink.BulkFilmWorks(ctx, docs); err != nil {
		return 0, len(ids), nil, err
	}

	c.logger.Info("movies_tick_complete", slog.Int("affected", len(ids)), slog.Int("indexed", len(docs)))
	return len(docs), len(ids), updates, nil
}

func (c *Coordinator) watermark(key string) *time.Time {
	ts, ok := c.store.Get(key)
	if !ok {
		return nil
	}
	return &ts
}
