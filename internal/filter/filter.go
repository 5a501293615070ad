// Package filter implements the smart-collection condition vocabulary:
// filter definitions, the statistics snapshot they are evaluated
// against, the pure condition evaluator, and the change detector that
// bounds incremental recomputation.
package filter

import "time"

// TargetLevel says whether a filter's conditions run against series
// snapshots or group snapshots.
type TargetLevel string

const (
	TargetSeries TargetLevel = "series"
	TargetGroup  TargetLevel = "group"
)

// BasePolicy interprets a filter's condition list as a whitelist or a
// blacklist.
type BasePolicy string

const (
	PolicyInclude BasePolicy = "include"
	PolicyExclude BasePolicy = "exclude"
)

// SortDirection orders a materialized collection.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortField is the closed set of attributes a collection can be
// ordered by. Sorting applies only at materialization, never to
// membership computation.
type SortField string

const (
	SortByName                SortField = "name"
	SortBySortName            SortField = "sort_name"
	SortByYear                SortField = "year"
	SortByAirDate             SortField = "air_date"
	SortByAddedDate           SortField = "added_date"
	SortByWatchedDate         SortField = "watched_date"
	SortByEpisodeCount        SortField = "episode_count"
	SortByMissingEpisodeCount SortField = "missing_episode_count"
	SortByUnwatchedCount      SortField = "unwatched_count"
	SortByUserRating          SortField = "user_rating"
	SortByRating              SortField = "rating"
)

// SortClause is one entry of a filter's sort order.
type SortClause struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Definition is the stored shape of a smart collection. Filters form a
// tree via ParentID for display grouping only; a child's membership is
// independent of its parent's.
type Definition struct {
	ID       int64  `json:"id"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Name     string `json:"name"`

	TargetLevel TargetLevel  `json:"target_level"`
	BasePolicy  BasePolicy   `json:"base_policy"`
	Conditions  []Condition  `json:"conditions,omitempty"`
	SortOrder   []SortClause `json:"sort_order,omitempty"`

	Locked         bool `json:"locked,omitempty"`
	Hidden         bool `json:"hidden,omitempty"`
	StructuralOnly bool `json:"structural_only,omitempty"`

	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Kinds returns the distinct condition kinds the definition references,
// used to intersect against the change detector's output.
func (d *Definition) Kinds() map[Kind]struct{} {
	kinds := make(map[Kind]struct{}, len(d.Conditions))
	for _, c := range d.Conditions {
		kinds[c.Kind] = struct{}{}
	}
	return kinds
}

// References reports whether any condition uses the given kind.
func (d *Definition) References(k Kind) bool {
	for _, c := range d.Conditions {
		if c.Kind == k {
			return true
		}
	}
	return false
}
