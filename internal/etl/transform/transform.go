// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package transform turns source rows into Elasticsearch documents.

Every transform here is a pure function of its input: the same row always
produces the same document, with the document's _id set to the source
entity's UUID. That property is what lets the sync engine retry a failed
bulk write without risking duplicate or inconsistent documents.
*/
package transform

import (
	"github.com/vivat7on/filmindex/internal/etl/dto"
	"github.com/vivat7on/filmindex/internal/etl/sink"
	"github.com/vivat7on/filmindex/pkg/slice"
)

// Genre converts a genre row into its search document.
func Genre(g dto.Genre) sink.GenreDocument {
	return sink.GenreDocument{ID: g.ID, Name: g.Name}
}

// Person converts a person row into its search document.
func Person(p dto.Person) sink.PersonDocument {
	return sink.PersonDocument{ID: p.ID, Name: p.FullName}
}

// FilmWork converts a denormalized film work row into its search document,
// partitioning credited persons by role the way the catalogue's director
// actor/writer facets expect.
func FilmWork(fw dto.FilmWork) sink.FilmDocument {
	directors := filterByRole(fw.Persons, dto.RoleDirector)
	actors := filterByRole(fw.Persons, dto.RoleActor)
	writers := filterByRole(fw.Persons, dto.RoleWriter)

	return sink.FilmDocument{
		ID:          fw.ID,
		IMDBRating:  fw.Rating,
		Title:       fw.Title,
		Description: fw.Description,
		Genres:      slice.Map(fw.Genres, toGenreDoc),

		DirectorsNames: dedupNames(directors),
		ActorsNames:    dedupNames(actors),
		WritersNames:   dedupNames(writers),

		Directors: slice.Map(directors, toPersonDoc),
		Actors:    slice.Map(actors, toPersonDoc),
		Writers:   slice.Map(writers, toPersonDoc),
	}
}

func filterByRole(persons []dto.FilmPerson, role dto.Role) []dto.FilmPerson {
	return slice.Filter(persons, func(p dto.FilmPerson) bool { return p.Role == role })
}

func toGenreDoc(g dto.Genre) sink.NestedGenre {
	return sink.NestedGenre{ID: g.ID, Name: g.Name}
}

func toPersonDoc(p dto.FilmPerson) sink.NestedPerson {
	return sink.NestedPerson{ID: p.ID, Name: p.FullName}
}

// dedupNames collects distinct full names in first-seen order. The source
// used a set for this; Go has none built in, so order is preserved
// explicitly instead of left to map iteration.
func dedupNames(persons []dto.FilmPerson) []string {
	seen := make(map[string]struct{}, len(persons))
	names := make([]string, 0, len(persons))
	for _, p := range persons {
		if _, ok := seen[p.FullName]; ok {
			continue
		}
		seen[p.FullName] = struct{}{}
		names = append(names, p.FullName)
	}
	return names
}
