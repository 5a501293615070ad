// Package library manages the entity model (groups, series, users),
// stored filter definitions, and the statistics-snapshot blobs the
// external stats job writes.
package library

import (
	"time"
)

// Group is a collection node owning series and child groups. Groups
// form a tree via ParentGroupID; the root of a series' chain is its
// top-level group.
type Group struct {
	ID            int64
	ParentGroupID *int64
	Name          string
	SortName      string
	AddedAt       time.Time
	UpdatedAt     time.Time
}

// Series is a single anime series owned by a group.
type Series struct {
	ID        int64
	GroupID   *int64 // nil when the owning group was deleted
	AniDBID   *int64
	Title     string
	SortTitle string
	AddedAt   time.Time
	UpdatedAt time.Time
}

// User is a library account. HiddenTags is the per-user content gate:
// entities tagged with any of them are invisible to the user in every
// filter, regardless of the filter's own conditions.
type User struct {
	ID         int64
	Name       string
	HiddenTags []string
	IsAdmin    bool
	AddedAt    time.Time
	UpdatedAt  time.Time
}
