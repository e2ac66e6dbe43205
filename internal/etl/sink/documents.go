// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sink writes search documents into Elasticsearch: it owns the
// index mappings, the JSON document shapes, and the bulk-write path with
// its partial-failure handling.
package sink

import "github.com/google/uuid"

// GenreDocument is the document shape for the genres index.
type GenreDocument struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// PersonDocument is the document shape for the persons index.
type PersonDocument struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NestedGenre is a genre as embedded in a [FilmDocument]. The original
// catalogue only stored genre names on film documents; search needs the
// id too so the UI can deep-link into the dedicated genres index.
type NestedGenre struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NestedPerson is a person credit as embedded in a [FilmDocument].
type NestedPerson struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// FilmDocument is the document shape for the movies index.
type FilmDocument struct {
	ID          uuid.UUID     `json:"id"`
	IMDBRating  *float64      `json:"imdb_rating"`
	Genres      []NestedGenre `json:"genres"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`

	DirectorsNames []string `json:"directors_names"`
	ActorsNames    []string `json:"actors_names"`
	WritersNames   []string `json:"writers_names"`

	Directors []NestedPerson `json:"directors"`
	Actors    []NestedPerson `json:"actors"`
	Writers   []NestedPerson `json:"writers"`
}

// DocumentID identifies the document types the writer knows how to index,
// so it can extract a document's _id without a type switch at every call
// site.
type DocumentID interface {
	documentID() string
}

func (d GenreDocument) documentID() string  { return d.ID.String() }
func (d PersonDocument) documentID() string { return d.ID.String() }
func (d FilmDocument) documentID() string   { return d.ID.String() }
