package membership

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aniarr/aniarr/internal/filter"
	"github.com/aniarr/aniarr/internal/library"
)

// Sorter materializes an ordered collection from a membership set.
// Names are collated case- and accent-insensitively so "Ōkami" and
// "Okami" sort together.
type Sorter struct {
	snaps SnapshotSource
	names NameSource
	coll  *collate.Collator
}

// NewSorter creates a sorter over the given sources.
func NewSorter(snaps SnapshotSource, names NameSource) *Sorter {
	return &Sorter{
		snaps: snaps,
		names: names,
		coll:  collate.New(language.Und, collate.Loose),
	}
}

// sortKey carries every attribute a sort clause can reference, pulled
// once per entity before comparison.
type sortKey struct {
	id             int64
	name           string
	sortName       string
	year           int
	airDate        time.Time
	addedDate      time.Time
	watchedDate    time.Time
	episodeCount   int
	missingCount   int
	unwatchedCount int
	userRating     float64
	rating         float64
}

func needsNames(order []filter.SortClause) bool {
	for _, c := range order {
		if c.Field == filter.SortByName || c.Field == filter.SortBySortName {
			return true
		}
	}
	return false
}

// Sort orders the given membership IDs by the definition's sort order,
// tie-breaking by entity ID. Entities whose snapshot vanished mid-read
// keep zero-valued keys rather than failing the whole materialization.
func (s *Sorter) Sort(ctx context.Context, def *filter.Definition, userID int64, ids []int64) ([]int64, error) {
	if len(def.SortOrder) == 0 || len(ids) < 2 {
		return ids, nil
	}

	var displayNames, sortNames map[int64]string
	if needsNames(def.SortOrder) {
		var err error
		displayNames, err = s.names.DisplayNames(ctx, def.TargetLevel, ids)
		if err != nil {
			return nil, err
		}
		sortNames, err = s.names.SortNames(ctx, def.TargetLevel, ids)
		if err != nil {
			return nil, err
		}
	}

	keys := make(map[int64]*sortKey, len(ids))
	for _, id := range ids {
		key := &sortKey{id: id, name: displayNames[id], sortName: sortNames[id]}
		snap, err := s.snaps.Snapshot(ctx, def.TargetLevel, id)
		if err != nil {
			if !errors.Is(err, library.ErrNotFound) {
				return nil, err
			}
			keys[id] = key
			continue
		}
		us := snap.UserStats(userID)
		if len(snap.Years) > 0 {
			min := snap.Years[0]
			for _, y := range snap.Years[1:] {
				if y < min {
					min = y
				}
			}
			key.year = min
		}
		if snap.AirDateMin != nil {
			key.airDate = *snap.AirDateMin
		}
		if snap.LastEpisodeAdded != nil {
			key.addedDate = *snap.LastEpisodeAdded
		}
		if us.LastWatched != nil {
			key.watchedDate = *us.LastWatched
		}
		key.episodeCount = snap.EpisodeCount
		key.missingCount = snap.MissingEpisodeCount
		key.unwatchedCount = us.UnwatchedCount
		if us.Rating != nil {
			key.userRating = *us.Rating
		}
		key.rating = snap.Rating
		keys[id] = key
	}

	ordered := make([]int64, len(ids))
	copy(ordered, ids)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := keys[ordered[i]], keys[ordered[j]]
		for _, clause := range def.SortOrder {
			cmp := s.compare(clause.Field, a, b)
			if cmp == 0 {
				continue
			}
			if clause.Direction == filter.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return a.id < b.id
	})
	return ordered, nil
}

func (s *Sorter) compare(field filter.SortField, a, b *sortKey) int {
	switch field {
	case filter.SortByName:
		return s.coll.CompareString(a.name, b.name)
	case filter.SortBySortName:
		return s.coll.CompareString(a.sortName, b.sortName)
	case filter.SortByYear:
		return compareInt(a.year, b.year)
	case filter.SortByAirDate:
		return compareTime(a.airDate, b.airDate)
	case filter.SortByAddedDate:
		return compareTime(a.addedDate, b.addedDate)
	case filter.SortByWatchedDate:
		return compareTime(a.watchedDate, b.watchedDate)
	case filter.SortByEpisodeCount:
		return compareInt(a.episodeCount, b.episodeCount)
	case filter.SortByMissingEpisodeCount:
		return compareInt(a.missingCount, b.missingCount)
	case filter.SortByUnwatchedCount:
		return compareInt(a.unwatchedCount, b.unwatchedCount)
	case filter.SortByUserRating:
		return compareFloat(a.userRating, b.userRating)
	case filter.SortByRating:
		return compareFloat(a.rating, b.rating)
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
