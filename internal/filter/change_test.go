package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChangedKinds_NilOldReportsEverything(t *testing.T) {
	changed := ChangedKinds(nil, snap())
	assert.Len(t, changed, len(AllKinds))

	changed = ChangedKinds(snap(), nil)
	assert.Len(t, changed, len(AllKinds))
}

func TestChangedKinds_IdenticalSnapshotsReportNothing(t *testing.T) {
	a := snap(func(s *Snapshot) {
		s.Tags = []string{"mecha", "drama"}
		s.Years = []int{2012}
		s.EpisodeCount = 26
		s.Rating = 8.2
		s.AirDateMin = date(2012, time.April, 5)
		s.Users = map[int64]UserStats{7: {WatchedCount: 3}}
	})
	b := snap(func(s *Snapshot) {
		// Same content, different ordering of the sets.
		s.Tags = []string{"drama", "mecha"}
		s.Years = []int{2012}
		s.EpisodeCount = 26
		s.Rating = 8.2
		s.AirDateMin = date(2012, time.April, 5)
		s.Users = map[int64]UserStats{7: {WatchedCount: 3}}
	})

	assert.Empty(t, ChangedKinds(a, b))
}

func TestChangedKinds_SingleFieldChanges(t *testing.T) {
	base := func() *Snapshot {
		return snap(func(s *Snapshot) {
			s.Tags = []string{"mecha"}
			s.Years = []int{2012}
			s.EpisodeCount = 26
		})
	}

	tests := []struct {
		name string
		mod  func(*Snapshot)
		want Kind
	}{
		{"tag added", func(s *Snapshot) { s.Tags = []string{"mecha", "drama"} }, KindTag},
		{"custom tag", func(s *Snapshot) { s.CustomTags = []string{"rewatch"} }, KindCustomTags},
		{"year", func(s *Snapshot) { s.Years = []int{2012, 2013} }, KindYear},
		{"season", func(s *Snapshot) { s.Seasons = []string{"winter 2012"} }, KindSeason},
		{"anime type", func(s *Snapshot) { s.AnimeTypes = []string{"movie"} }, KindAnimeType},
		{"air date", func(s *Snapshot) { s.AirDateMin = date(2012, time.April, 5) }, KindAirDate},
		{"latest episode air", func(s *Snapshot) { s.LatestEpisodeAir = date(2013, time.March, 1) }, KindLatestEpisodeAirDate},
		{"created", func(s *Snapshot) { s.CreatedAt = date(2020, time.January, 1) }, KindSeriesCreatedDate},
		{"episode added", func(s *Snapshot) { s.LastEpisodeAdded = date(2024, time.April, 1) }, KindEpisodeAddedDate},
		{"episode count", func(s *Snapshot) { s.EpisodeCount = 27 }, KindEpisodeCount},
		{"missing count", func(s *Snapshot) { s.MissingEpisodeCount = 1 }, KindMissingEpisodes},
		{"missing collecting", func(s *Snapshot) { s.MissingEpisodeCollecting = 1 }, KindMissingEpisodesCollecting},
		{"rating", func(s *Snapshot) { s.Rating = 8.3 }, KindAniDBRating},
		{"tvdb link", func(s *Snapshot) { s.HasTvDBLink = true }, KindAssignedTvDBLink},
		{"mal link", func(s *Snapshot) { s.HasMALLink = true }, KindAssignedMALLink},
		{"completed", func(s *Snapshot) { s.Completed = true }, KindCompletedSeries},
		{"end date", func(s *Snapshot) { s.EndDate = date(2013, time.March, 1) }, KindFinishedAiring},
		{"regrouped", func(s *Snapshot) { s.ParentGroupID = 9 }, KindAnimeGroup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old, new := base(), base()
			tt.mod(new)
			changed := ChangedKinds(old, new)
			assert.Contains(t, changed, tt.want)
		})
	}
}

func TestChangedKinds_TvDBLinkAlsoFlipsAnyLink(t *testing.T) {
	old, new := snap(), snap(func(s *Snapshot) { s.HasTvDBLink = true })
	changed := ChangedKinds(old, new)

	assert.Contains(t, changed, KindAssignedTvDBLink)
	assert.Contains(t, changed, KindAssignedAnyLink)
}

func TestChangedKinds_AnyLinkStableWhenStillLinked(t *testing.T) {
	// TvDB link swaps for a MovieDB link: the individual kinds change
	// but the any-link disjunction does not.
	old := snap(func(s *Snapshot) { s.HasTvDBLink = true })
	new := snap(func(s *Snapshot) { s.HasMovieDBLink = true })
	changed := ChangedKinds(old, new)

	assert.Contains(t, changed, KindAssignedTvDBLink)
	assert.Contains(t, changed, KindAssignedMovieDBLink)
	assert.NotContains(t, changed, KindAssignedAnyLink)
}

func TestChangedKinds_AllEpisodesVariantCounts(t *testing.T) {
	old := snap(func(s *Snapshot) {
		s.AudioLanguages = []string{"japanese"}
		s.AudioLanguagesAllEps = []string{"japanese"}
	})
	new := snap(func(s *Snapshot) {
		s.AudioLanguages = []string{"japanese"}
		s.AudioLanguagesAllEps = []string{}
	})

	assert.Contains(t, ChangedKinds(old, new), KindAudioLanguage)
}

func TestChangedKinds_PerUserFlips(t *testing.T) {
	tests := []struct {
		name string
		old  map[int64]UserStats
		new  map[int64]UserStats
		want Kind
	}{
		{
			"favourite toggled",
			map[int64]UserStats{7: {}},
			map[int64]UserStats{7: {Favourite: true}},
			KindFavourite,
		},
		{
			"watched count crossed zero",
			map[int64]UserStats{7: {WatchedCount: 0}},
			map[int64]UserStats{7: {WatchedCount: 1}},
			KindHasWatchedEpisodes,
		},
		{
			"user appears only in new",
			nil,
			map[int64]UserStats{7: {HasVote: true}},
			KindUserVotedAny,
		},
		{
			"user disappears",
			map[int64]UserStats{7: {UnwatchedCount: 3}},
			nil,
			KindHasUnwatchedEpisodes,
		},
		{
			"rating set",
			map[int64]UserStats{7: {}},
			map[int64]UserStats{7: {Rating: ptr(9.0)}},
			KindUserRating,
		},
		{
			"watched date moved",
			map[int64]UserStats{7: {LastWatched: date(2024, time.April, 1)}},
			map[int64]UserStats{7: {LastWatched: date(2024, time.April, 2)}},
			KindEpisodeWatchedDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := snap(func(s *Snapshot) { s.Users = tt.old })
			new := snap(func(s *Snapshot) { s.Users = tt.new })
			assert.Contains(t, ChangedKinds(old, new), tt.want)
		})
	}
}

func TestChangedKinds_WatchedCountChangeWithoutZeroCrossing(t *testing.T) {
	old := snap(func(s *Snapshot) { s.Users = map[int64]UserStats{7: {WatchedCount: 3}} })
	new := snap(func(s *Snapshot) { s.Users = map[int64]UserStats{7: {WatchedCount: 4}} })

	// HasWatchedEpisodes only cares about the zero boundary.
	assert.NotContains(t, ChangedKinds(old, new), KindHasWatchedEpisodes)
}

// Soundness: if evaluation of a condition flips between two snapshots,
// the change detector must report that condition's kind.
func TestChangedKinds_SoundForEvaluationFlips(t *testing.T) {
	old := snap(func(s *Snapshot) {
		s.Tags = []string{"drama"}
		s.EpisodeCount = 12
		s.Rating = 6.0
	})
	new := snap(func(s *Snapshot) {
		s.Tags = []string{"drama", "mecha"}
		s.EpisodeCount = 26
		s.Rating = 8.5
	})

	conds := []Condition{
		{KindTag, OpIn, "mecha"},
		{KindEpisodeCount, OpGreaterThan, "20"},
		{KindAniDBRating, OpGreaterThan, "8"},
	}

	changed := ChangedKinds(old, new)
	for _, c := range conds {
		before := Matches(old, c, User{}, testNow)
		after := Matches(new, c, User{}, testNow)
		if before != after {
			assert.Contains(t, changed, c.Kind, "kind %s flipped but was not reported", c.Kind)
		}
	}
}

func TestVocabularyTablesAreExhaustive(t *testing.T) {
	assert.Len(t, evaluators, len(AllKinds))
	assert.Len(t, comparators, len(AllKinds))
	for _, k := range AllKinds {
		assert.Contains(t, evaluators, k)
		assert.Contains(t, comparators, k)
		assert.True(t, KnownKind(k), string(k))
	}
}
