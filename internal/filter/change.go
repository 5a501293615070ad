package filter

import (
	"fmt"
	"time"
)

// comparator reports whether the snapshot fields backing one condition
// kind differ between two snapshots. Exhaustive over the vocabulary:
// the change detector is the sole mechanism bounding incremental
// re-evaluation, so every kind is enumerated explicitly and coverage
// is asserted at init. There is deliberately no default branch.
type comparator func(old, new *Snapshot) bool

var comparators = map[Kind]comparator{
	KindTag:        setChanged(func(s *Snapshot) []string { return s.Tags }),
	KindCustomTags: setChanged(func(s *Snapshot) []string { return s.CustomTags }),
	KindSeason:     setChanged(func(s *Snapshot) []string { return s.Seasons }),
	KindAnimeType:  setChanged(func(s *Snapshot) []string { return s.AnimeTypes }),

	KindVideoQuality: anyChanged(
		setChanged(func(s *Snapshot) []string { return s.VideoQualities }),
		setChanged(func(s *Snapshot) []string { return s.VideoQualitiesAllEps })),
	KindAudioLanguage: anyChanged(
		setChanged(func(s *Snapshot) []string { return s.AudioLanguages }),
		setChanged(func(s *Snapshot) []string { return s.AudioLanguagesAllEps })),
	KindSubtitleLanguage: anyChanged(
		setChanged(func(s *Snapshot) []string { return s.SubtitleLanguages }),
		setChanged(func(s *Snapshot) []string { return s.SubtitleLangsAllEps })),

	KindYear: func(old, new *Snapshot) bool { return !intSetEqual(old.Years, new.Years) },

	KindAirDate: anyChanged(
		dateChanged(func(s *Snapshot) *time.Time { return s.AirDateMin }),
		dateChanged(func(s *Snapshot) *time.Time { return s.AirDateMax })),
	KindLatestEpisodeAirDate: dateChanged(func(s *Snapshot) *time.Time { return s.LatestEpisodeAir }),
	KindSeriesCreatedDate:    dateChanged(func(s *Snapshot) *time.Time { return s.CreatedAt }),
	KindEpisodeAddedDate:     dateChanged(func(s *Snapshot) *time.Time { return s.LastEpisodeAdded }),
	KindEpisodeWatchedDate: userChanged(func(a, b UserStats) bool {
		return !timePtrEqual(a.LastWatched, b.LastWatched)
	}),

	KindHasWatchedEpisodes: userChanged(func(a, b UserStats) bool {
		return (a.WatchedCount > 0) != (b.WatchedCount > 0)
	}),
	KindHasUnwatchedEpisodes: userChanged(func(a, b UserStats) bool {
		return (a.UnwatchedCount > 0) != (b.UnwatchedCount > 0)
	}),
	KindUserVoted:    userChanged(func(a, b UserStats) bool { return a.HasPermVote != b.HasPermVote }),
	KindUserVotedAny: userChanged(func(a, b UserStats) bool { return a.HasVote != b.HasVote }),
	KindFavourite:    userChanged(func(a, b UserStats) bool { return a.Favourite != b.Favourite }),
	KindUserRating: userChanged(func(a, b UserStats) bool {
		return !floatPtrEqual(a.Rating, b.Rating)
	}),

	KindMissingEpisodes: func(old, new *Snapshot) bool {
		return old.MissingEpisodeCount != new.MissingEpisodeCount
	},
	KindMissingEpisodesCollecting: func(old, new *Snapshot) bool {
		return old.MissingEpisodeCollecting != new.MissingEpisodeCollecting
	},
	KindEpisodeCount: func(old, new *Snapshot) bool { return old.EpisodeCount != new.EpisodeCount },
	KindAniDBRating:  func(old, new *Snapshot) bool { return old.Rating != new.Rating },

	KindAssignedTvDBLink:    func(old, new *Snapshot) bool { return old.HasTvDBLink != new.HasTvDBLink },
	KindAssignedMALLink:     func(old, new *Snapshot) bool { return old.HasMALLink != new.HasMALLink },
	KindAssignedMovieDBLink: func(old, new *Snapshot) bool { return old.HasMovieDBLink != new.HasMovieDBLink },
	KindAssignedAnyLink: func(old, new *Snapshot) bool {
		return (old.HasTvDBLink || old.HasMovieDBLink) != (new.HasTvDBLink || new.HasMovieDBLink)
	},

	KindCompletedSeries: func(old, new *Snapshot) bool { return old.Completed != new.Completed },
	KindFinishedAiring:  func(old, new *Snapshot) bool { return !timePtrEqual(old.EndDate, new.EndDate) },

	KindAnimeGroup: func(old, new *Snapshot) bool {
		return old.EntityID != new.EntityID || old.ParentGroupID != new.ParentGroupID
	},
}

func init() {
	for _, k := range AllKinds {
		if _, ok := comparators[k]; !ok {
			panic(fmt.Sprintf("filter: no comparator registered for kind %q", k))
		}
	}
	if len(comparators) != len(AllKinds) {
		panic("filter: comparator table has kinds outside the vocabulary")
	}
}

// ChangedKinds returns the condition kinds that could have flipped
// between two snapshots of the same entity. A nil old snapshot means
// the entity was never evaluated; every kind is reported.
func ChangedKinds(old, new *Snapshot) map[Kind]struct{} {
	changed := make(map[Kind]struct{})
	if old == nil || new == nil {
		for _, k := range AllKinds {
			changed[k] = struct{}{}
		}
		return changed
	}
	for k, cmp := range comparators {
		if cmp(old, new) {
			changed[k] = struct{}{}
		}
	}
	return changed
}

func setChanged(field func(*Snapshot) []string) comparator {
	return func(old, new *Snapshot) bool {
		return !stringSetEqual(field(old), field(new))
	}
}

func dateChanged(field func(*Snapshot) *time.Time) comparator {
	return func(old, new *Snapshot) bool {
		return !timePtrEqual(field(old), field(new))
	}
}

func anyChanged(cmps ...comparator) comparator {
	return func(old, new *Snapshot) bool {
		for _, cmp := range cmps {
			if cmp(old, new) {
				return true
			}
		}
		return false
	}
}

// userChanged lifts a per-user comparison over the user-stats maps:
// any user present in either snapshot whose slice differs counts.
func userChanged(differs func(a, b UserStats) bool) comparator {
	return func(old, new *Snapshot) bool {
		for id, a := range old.Users {
			if differs(a, new.UserStats(id)) {
				return true
			}
		}
		for id, b := range new.Users {
			if _, seen := old.Users[id]; seen {
				continue
			}
			if differs(old.UserStats(id), b) {
				return true
			}
		}
		return false
	}
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, v := range a {
		set[v]++
	}
	for _, v := range b {
		if set[v] == 0 {
			return false
		}
		set[v]--
	}
	return true
}

func intSetEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]int, len(a))
	for _, v := range a {
		set[v]++
	}
	for _, v := range b {
		if set[v] == 0 {
			return false
		}
		set[v]--
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
