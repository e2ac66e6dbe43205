// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dto holds the plain data-transfer shapes the source reader
// produces, before they are transformed into Elasticsearch documents.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies how a person is credited on a film work.
type Role string

const (
	RoleActor    Role = "actor"
	RoleDirector Role = "director"
	RoleWriter   Role = "writer"

	// RoleUnknown is never produced by the source (the role column is
	// constrained upstream), but parsing defensively avoids a panic if
	// that constraint is ever relaxed. The transformer silently drops
	// credits with this role rather than surfacing them on any facet.
	RoleUnknown Role = ""
)

// ParseRole normalizes a raw role string, falling back to [RoleUnknown]
// for anything it does not recognize.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleActor, RoleDirector, RoleWriter:
		return Role(raw)
	default:
		return RoleUnknown
	}
}

// Genre is a row from content.genre.
type Genre struct {
	ID   uuid.UUID
	Name string
}

// Person is a row from content.person.
type Person struct {
	ID       uuid.UUID
	FullName string
}

// FilmPerson is one person credit on a film work, as returned by the
// denormalized film_work-for-index query.
type FilmPerson struct {
	ID       uuid.UUID
	FullName string
	Role     Role
}

// FilmWork is a fully denormalized film work row, with its genres and
// person credits already aggregated by the source query.
type FilmWork struct {
	ID          uuid.UUID
	Title       string
	Rating      *float64
	Description *string
	Genres      []Genre
	Persons     []FilmPerson
	UpdatedAt   time.Time
}
