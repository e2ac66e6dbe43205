// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package source reads incremental changes out of the upstream content
catalogue.

Every query here is a straight read against content.* tables the engine
does not own: it never writes to the source database, only selects from
it. Each change-detection query returns both the set of affected ids and
the newest updated_at it saw, so the caller can advance a watermark only
as far as what was actually fetched.
*/
package source

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vivat7on/filmindex/internal/etl/dto"
	"github.com/vivat7on/filmindex/internal/platform/errkind"
)

// Reader issues read-only queries against a single per-tick connection.
type Reader struct {
	conn *pgx.Conn
}

// New wraps an already-open connection. The connection's lifetime is the
// caller's responsibility (opened at tick start, closed at tick end).
func New(conn *pgx.Conn) *Reader {
	return &Reader{conn: conn}
}

// ChangeSet is the result of a single change-detection query: the ids it
// touched and the newest updated_at among them.
type ChangeSet struct {
	IDs       map[uuid.UUID]struct{}
	Watermark time.Time
	Advanced  bool
}

func newChangeSet() ChangeSet {
	return ChangeSet{IDs: make(map[uuid.UUID]struct{})}
}

func (c *ChangeSet) observe(id uuid.UUID, updatedAt time.Time) {
	c.IDs[id] = struct{}{}
	if !c.Advanced || updatedAt.After(c.Watermark) {
		c.Watermark = updatedAt
		c.Advanced = true
	}
}

// ChangedFilmWorkIDs returns film_work rows updated after since.
func (r *Reader) ChangedFilmWorkIDs(ctx context.Context, since *time.Time) (ChangeSet, error) {
	const query = `
		SELECT fw.id, fw.updated_at
		FROM content.film_work fw
		WHERE ($1::timestamptz IS NULL OR fw.updated_at > $1)
		ORDER BY fw.updated_at ASC`

	return r.runIDChangeQuery(ctx, "source.changed_film_work_ids", query, since)
}

// FilmWorkIDsByChangedGenres returns film_work ids whose linked genre
// changed after since.
func (r *Reader) FilmWorkIDsByChangedGenres(ctx context.Context, since *time.Time) (ChangeSet, error) {
	const query = `
		SELECT gfw.film_work_id, g.updated_at
		FROM content.genre g
		JOIN content.genre_film_work gfw ON g.id = gfw.genre_id
		WHERE ($1::timestamptz IS NULL OR g.updated_at > $1)
		ORDER BY g.updated_at ASC`

	return r.runIDChangeQuery(ctx, "source.film_work_ids_by_changed_genres", query, since)
}

// FilmWorkIDsByChangedPersons returns film_work ids whose linked person
// changed after since.
func (r *Reader) FilmWorkIDsByChangedPersons(ctx context.Context, since *time.Time) (ChangeSet, error) {
	const query = `
		SELECT pfw.film_work_id, p.updated_at
		FROM content.person p
		JOIN content.person_film_work pfw ON p.id = pfw.person_id
		WHERE ($1::timestamptz IS NULL OR p.updated_at > $1)
		ORDER BY p.updated_at ASC`

	return r.runIDChangeQuery(ctx, "source.film_work_ids_by_changed_persons", query, since)
}

// FilmWorkIDsByChangedGenreFilmWork returns film_work ids whose
// genre_film_work link changed after since.
func (r *Reader) FilmWorkIDsByChangedGenreFilmWork(ctx context.Context, since *time.Time) (ChangeSet, error) {
	const query = `
		SELECT gfw.film_work_id, gfw.updated_at
		FROM content.genre_film_work gfw
		WHERE ($1::timestamptz IS NULL OR gfw.updated_at > $1)
		ORDER BY gfw.updated_at ASC`

	return r.runIDChangeQuery(ctx, "source.film_work_ids_by_changed_genre_film_work", query, since)
}

// FilmWorkIDsByChangedPersonFilmWork returns film_work ids whose
// person_film_work link changed after since.
func (r *Reader) FilmWorkIDsByChangedPersonFilmWork(ctx context.Context, since *time.Time) (ChangeSet, error) {
	const query = `
		SELECT pfw.film_work_id, pfw.updated_at
		FROM content.person_film_work pfw
		WHERE ($1::timestamptz IS NULL OR pfw.updated_at > $1)
		ORDER BY pfw.updated_at ASC`

	return r.runIDChangeQuery(ctx, "source.film_work_ids_by_changed_person_film_work", query, since)
}

func (r *Reader) runIDChangeQuery(ctx context.Context, op, query string, since *time.Time) (ChangeSet, error) {
	changes := newChangeSet()

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return changes, errkind.Transient(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var updatedAt time.Time
		if err := rows.Scan(&id, &updatedAt); err != nil {
			return changes, errkind.Transient(op, err)
		}
		changes.observe(id, updatedAt)
	}
	if err := rows.Err(); err != nil {
		return changes, errkind.Transient(op, err)
	}

	return changes, nil
}

// ChangedGenres returns genre rows updated after since.
func (r *Reader) ChangedGenres(ctx context.Context, since *time.Time) ([]dto.Genre, time.Time, bool, error) {
	const query = `
		SELECT g.id, g.name, g.updated_at
		FROM content.genre g
		WHERE ($1::timestamptz IS NULL OR g.updated_at > $1)
		ORDER BY g.updated_at ASC`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, time.Time{}, false, errkind.Transient("source.changed_genres", err)
	}
	defer rows.Close()

	var genres []dto.Genre
	var watermark time.Time
	var advanced bool

	for rows.Next() {
		var g dto.Genre
		var updatedAt time.Time
		if err := rows.Scan(&g.ID, &g.Name, &updatedAt); err != nil {
			return nil, time.Time{}, false, errkind.Transient("source.changed_genres", err)
		}
		genres = append(genres, g)
		if !advanced || updatedAt.After(watermark) {
			watermark = updatedAt
			advanced = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, false, errkind.Transient("source.changed_genres", err)
	}

	return genres, watermark, advanced, nil
}

// ChangedPersons returns person rows updated after since.
func (r *Reader) ChangedPersons(ctx context.Context, since *time.Time) ([]dto.Person, time.Time, bool, error) {
	const query = `
		SELECT p.id, p.full_name, p.updated_at
		FROM content.person p
		WHERE ($1::timestamptz IS NULL OR p.updated_at > $1)
		ORDER BY p.updated_at ASC`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, time.Time{}, false, errkind.Transient("source.changed_persons", err)
	}
	defer rows.Close()

	var persons []dto.Person
	var watermark time.Time
	var advanced bool

	for rows.Next() {
		var p dto.Person
		var updatedAt time.Time
		if err := rows.Scan(&p.ID, &p.FullName, &updatedAt); err != nil {
			return nil, time.Time{}, false, errkind.Transient("source.changed_persons", err)
		}
		persons = append(persons, p)
		if !advanced || updatedAt.After(watermark) {
			watermark = updatedAt
			advanced = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, false, errkind.Transient("source.changed_persons", err)
	}

	return persons, watermark, advanced, nil
}

// filmPersonRow and genreRow mirror the jsonb_agg payload shapes produced
// by FilmWorkForIndex's SQL below.
type filmPersonRow struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
}

type genreRow struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// FilmWorkForIndex fetches fully denormalized film work rows for the given
// ids, with genres and person credits aggregated server-side.
func (r *Reader) FilmWorkForIndex(ctx context.Context, ids []uuid.UUID) ([]dto.FilmWork, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT fw.id,
		       fw.title,
		       fw.rating,
		       fw.description,
		       fw.updated_at,
		       COALESCE(
		           jsonb_agg(DISTINCT jsonb_build_object('id', g.id, 'name', g.name))
		               FILTER (WHERE g.name IS NOT NULL),
		           '[]'::jsonb
		       ) AS genres,
		       COALESCE(
		           jsonb_agg(DISTINCT jsonb_build_object('id', p.id, 'full_name', p.full_name, 'role', pfw.role))
		               FILTER (WHERE p.full_name IS NOT NULL),
		           '[]'::jsonb
		       ) AS persons
		FROM content.film_work fw
		LEFT JOIN content.person_film_work pfw ON pfw.film_work_id = fw.id
		LEFT JOIN content.genre_film_work gfw ON gfw.film_work_id = fw.id
		LEFT JOIN content.genre g ON g.id = gfw.genre_id
		LEFT JOIN content.person p ON p.id = pfw.person_id
		WHERE fw.id = ANY($1::uuid[])
		GROUP BY fw.id`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, errkind.Transient("source.film_work_for_index", err)
	}
	defer rows.Close()

	var filmWorks []dto.FilmWork
	for rows.Next() {
		var (
			fw         dto.FilmWork
			genres     []genreRow
			personRows []filmPersonRow
		)

		if err := rows.Scan(&fw.ID, &fw.Title, &fw.Rating, &fw.Description, &fw.UpdatedAt, &genres, &personRows); err != nil {
			return nil, errkind.Transient("source.film_work_for_index", err)
		}

		fw.Genres = make([]dto.Genre, 0, len(genres))
		for _, g := range genres {
			fw.Genres = append(fw.Genres, dto.Genre{ID: g.ID, Name: g.Name})
		}

		fw.Persons = make([]dto.FilmPerson, 0, len(personRows))
		for _, p := range personRows {
			fw.Persons = append(fw.Persons, dto.FilmPerson{ID: p.ID, FullName: p.FullName, Role: dto.ParseRole(p.Role)})
		}

		filmWorks = append(filmWorks, fw)
	}
	if err := rows.Err(); err != nil {
		return nil, errkind.Transient("source.film_work_for_index", err)
	}

	return filmWorks, nil
}

// IDSlice flattens a [ChangeSet]'s id set into a slice, for use as a query
// parameter. The order of the ids follows map iteration and is not stable.
func IDSlice(c ChangeSet) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.IDs))
	for id := range c.IDs {
		ids = append(ids, id)
	}
	return ids
}

// MergeInto folds src's ids into dst.
func MergeInto(dst map[uuid.UUID]struct{}, src ChangeSet) {
	for id := range src.IDs {
		dst[id] = struct{}{}
	}
}
