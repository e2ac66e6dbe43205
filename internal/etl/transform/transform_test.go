// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package transform_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivat7on/filmindex/internal/etl/dto"
	"github.com/vivat7on/filmindex/internal/etl/transform"
	"github.com/vivat7on/filmindex/pkg/pointer"
)

func TestGenre(t *testing.T) {
	id := uuid.New()
	doc := transform.Genre(dto.Genre{ID: id, Name: "Drama"})

	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "Drama", doc.Name)
}

func TestPerson(t *testing.T) {
	id := uuid.New()
	doc := transform.Person(dto.Person{ID: id, FullName: "Jane Doe"})

	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "Jane Doe", doc.Name)
}

/*
TestFilmWork_PartitionsByRole verifies the end-to-end scenario 1 from the
spec: one film with one genre and one actor credit.
*/
func TestFilmWork_PartitionsByRole(t *testing.T) {
	genreID := uuid.New()
	personID := uuid.New()
	filmID := uuid.New()

	fw := dto.FilmWork{
		ID:          filmID,
		Title:       "A",
		Rating:      pointer.To(8.1),
		Description: pointer.To("desc"),
		UpdatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Genres:      []dto.Genre{{ID: genreID, Name: "Drama"}},
		Persons:     []dto.FilmPerson{{ID: personID, FullName: "Jane Doe", Role: dto.RoleActor}},
	}

	doc := transform.FilmWork(fw)

	assert.Equal(t, filmID, doc.ID)
	require.NotNil(t, doc.IMDBRating)
	assert.Equal(t, 8.1, *doc.IMDBRating)
	assert.Equal(t, "A", doc.Title)
	require.NotNil(t, doc.Description)
	assert.Equal(t, "desc", *doc.Description)

	assert.Equal(t, []string{"Jane Doe"}, doc.ActorsNames)
	assert.Empty(t, doc.DirectorsNames)
	assert.Empty(t, doc.WritersNames)

	require.Len(t, doc.Actors, 1)
	assert.Equal(t, personID, doc.Actors[0].ID)
	assert.Equal(t, "Jane Doe", doc.Actors[0].Name)
	assert.Empty(t, doc.Directors)
	assert.Empty(t, doc.Writers)

	require.Len(t, doc.Genres, 1)
	assert.Equal(t, genreID, doc.Genres[0].ID)
	assert.Equal(t, "Drama", doc.Genres[0].Name)
}

/*
TestFilmWork_UnknownRoleDropped covers spec scenario 6: a person_film_work
row with an unrecognized role must vanish from every facet without error.
*/
func TestFilmWork_UnknownRoleDropped(t *testing.T) {
	fw := dto.FilmWork{
		ID:    uuid.New(),
		Title: "B",
		Persons: []dto.FilmPerson{
			{ID: uuid.New(), FullName: "Composer Carl", Role: dto.ParseRole("composer")},
		},
	}

	doc := transform.FilmWork(fw)

	assert.Empty(t, doc.Actors)
	assert.Empty(t, doc.Directors)
	assert.Empty(t, doc.Writers)
	assert.Empty(t, doc.ActorsNames)
	assert.Empty(t, doc.DirectorsNames)
	assert.Empty(t, doc.WritersNames)
}

func TestFilmWork_DedupesNamesPreservingOrder(t *testing.T) {
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	fw := dto.FilmWork{
		ID: uuid.New(),
		Persons: []dto.FilmPerson{
			{ID: p1, FullName: "Alice", Role: dto.RoleDirector},
			{ID: p2, FullName: "Bob", Role: dto.RoleDirector},
			{ID: p3, FullName: "Alice", Role: dto.RoleDirector},
		},
	}

	doc := transform.FilmWork(fw)

	assert.Equal(t, []string{"Alice", "Bob"}, doc.DirectorsNames)
	require.Len(t, doc.Directors, 3)
}

func TestFilmWork_NoPersonsOrGenres(t *testing.T) {
	doc := transform.FilmWork(dto.FilmWork{ID: uuid.New(), Title: "Empty"})

	assert.Nil(t, doc.IMDBRating)
	assert.Nil(t, doc.Description)
	assert.Empty(t, doc.Genres)
	assert.Empty(t, doc.Actors)
	assert.Empty(t, doc.ActorsNames)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want dto.Role
	}{
		{"actor", "actor", dto.RoleActor},
		{"director", "director", dto.RoleDirector},
		{"writer", "writer", dto.RoleWriter},
		{"unknown", "composer", dto.RoleUnknown},
		{"empty", "", dto.RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dto.ParseRole(tt.raw))
		})
	}
}
