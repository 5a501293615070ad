package filter

// Kind identifies which snapshot attribute a condition tests.
// The vocabulary is closed and versioned; the evaluator and change
// detector are both checked at startup for full coverage.
type Kind string

const (
	KindTag                       Kind = "tag"
	KindCustomTags                Kind = "custom_tags"
	KindYear                      Kind = "year"
	KindSeason                    Kind = "season"
	KindAirDate                   Kind = "air_date"
	KindLatestEpisodeAirDate      Kind = "latest_episode_air_date"
	KindSeriesCreatedDate         Kind = "series_created_date"
	KindEpisodeAddedDate          Kind = "episode_added_date"
	KindEpisodeWatchedDate        Kind = "episode_watched_date"
	KindHasWatchedEpisodes        Kind = "has_watched_episodes"
	KindHasUnwatchedEpisodes      Kind = "has_unwatched_episodes"
	KindMissingEpisodes           Kind = "missing_episodes"
	KindMissingEpisodesCollecting Kind = "missing_episodes_collecting"
	KindEpisodeCount              Kind = "episode_count"
	KindAniDBRating               Kind = "anidb_rating"
	KindUserRating                Kind = "user_rating"
	KindUserVoted                 Kind = "user_voted"
	KindUserVotedAny              Kind = "user_voted_any"
	KindVideoQuality              Kind = "video_quality"
	KindAudioLanguage             Kind = "audio_language"
	KindSubtitleLanguage          Kind = "subtitle_language"
	KindAnimeType                 Kind = "anime_type"
	KindAssignedTvDBLink          Kind = "assigned_tvdb_link"
	KindAssignedMALLink           Kind = "assigned_mal_link"
	KindAssignedMovieDBLink       Kind = "assigned_moviedb_link"
	KindAssignedAnyLink           Kind = "assigned_any_link"
	KindCompletedSeries           Kind = "completed_series"
	KindFinishedAiring            Kind = "finished_airing"
	KindFavourite                 Kind = "favourite"
	KindAnimeGroup                Kind = "anime_group"
)

// AllKinds lists every condition kind. Evaluator and comparator tables
// are verified against it at init time.
var AllKinds = []Kind{
	KindTag, KindCustomTags, KindYear, KindSeason,
	KindAirDate, KindLatestEpisodeAirDate, KindSeriesCreatedDate,
	KindEpisodeAddedDate, KindEpisodeWatchedDate,
	KindHasWatchedEpisodes, KindHasUnwatchedEpisodes,
	KindMissingEpisodes, KindMissingEpisodesCollecting,
	KindEpisodeCount, KindAniDBRating, KindUserRating,
	KindUserVoted, KindUserVotedAny,
	KindVideoQuality, KindAudioLanguage, KindSubtitleLanguage,
	KindAnimeType,
	KindAssignedTvDBLink, KindAssignedMALLink, KindAssignedMovieDBLink,
	KindAssignedAnyLink,
	KindCompletedSeries, KindFinishedAiring, KindFavourite,
	KindAnimeGroup,
}

// Operator selects how a condition's parameter is compared against the
// snapshot attribute.
type Operator string

const (
	OpInclude          Operator = "include"
	OpExclude          Operator = "exclude"
	OpIn               Operator = "in"
	OpNotIn            Operator = "notin"
	OpEquals           Operator = "equals"
	OpNotEquals        Operator = "not_equals"
	OpGreaterThan      Operator = "greater_than"
	OpLessThan         Operator = "less_than"
	OpLastXDays        Operator = "last_x_days"
	OpInAllEpisodes    Operator = "in_all_episodes"
	OpNotInAllEpisodes Operator = "not_in_all_episodes"
)

// Condition is one clause of a filter definition. Parameter is a raw
// string parsed per-kind; unparsable parameters never error, the
// condition just fails to match.
type Condition struct {
	Kind      Kind     `json:"kind"`
	Operator  Operator `json:"operator"`
	Parameter string   `json:"parameter,omitempty"`
}

// Level flags where a condition kind may be evaluated.
const (
	levelSeries = 1 << iota
	levelGroup
)

// kindLevels restricts kinds to the entity level they make sense at.
// AnimeGroup is the explicit group override; SeriesCreatedDate only
// exists on series. Everything else aggregates to both levels.
var kindLevels = map[Kind]int{
	KindSeriesCreatedDate: levelSeries,
	KindAnimeGroup:        levelGroup,
}

func kindAllowedAt(k Kind, level TargetLevel) bool {
	mask, ok := kindLevels[k]
	if !ok {
		return true
	}
	switch level {
	case TargetSeries:
		return mask&levelSeries != 0
	case TargetGroup:
		return mask&levelGroup != 0
	}
	return false
}

// validOperators constrains which operators each kind accepts.
var validOperators = map[Kind][]Operator{
	KindTag:              {OpInclude, OpExclude, OpIn, OpNotIn},
	KindCustomTags:       {OpInclude, OpExclude, OpIn, OpNotIn},
	KindYear:             {OpInclude, OpExclude, OpIn, OpNotIn},
	KindSeason:           {OpInclude, OpExclude, OpIn, OpNotIn},
	KindAnimeType:        {OpInclude, OpExclude, OpIn, OpNotIn},
	KindVideoQuality:     {OpInclude, OpExclude, OpIn, OpNotIn, OpInAllEpisodes, OpNotInAllEpisodes},
	KindAudioLanguage:    {OpInclude, OpExclude, OpIn, OpNotIn, OpInAllEpisodes, OpNotInAllEpisodes},
	KindSubtitleLanguage: {OpInclude, OpExclude, OpIn, OpNotIn, OpInAllEpisodes, OpNotInAllEpisodes},

	KindAirDate:              {OpGreaterThan, OpLessThan, OpLastXDays},
	KindLatestEpisodeAirDate: {OpGreaterThan, OpLessThan, OpLastXDays},
	KindSeriesCreatedDate:    {OpGreaterThan, OpLessThan, OpLastXDays},
	KindEpisodeAddedDate:     {OpGreaterThan, OpLessThan, OpLastXDays},
	KindEpisodeWatchedDate:   {OpGreaterThan, OpLessThan, OpLastXDays},

	KindEpisodeCount: {OpGreaterThan, OpLessThan},
	KindAniDBRating:  {OpGreaterThan, OpLessThan},
	KindUserRating:   {OpGreaterThan, OpLessThan},

	KindHasWatchedEpisodes:        {OpInclude, OpExclude},
	KindHasUnwatchedEpisodes:      {OpInclude, OpExclude},
	KindMissingEpisodes:           {OpInclude, OpExclude},
	KindMissingEpisodesCollecting: {OpInclude, OpExclude},
	KindUserVoted:                 {OpInclude, OpExclude},
	KindUserVotedAny:              {OpInclude, OpExclude},
	KindAssignedTvDBLink:          {OpInclude, OpExclude},
	KindAssignedMALLink:           {OpInclude, OpExclude},
	KindAssignedMovieDBLink:       {OpInclude, OpExclude},
	KindAssignedAnyLink:           {OpInclude, OpExclude},
	KindCompletedSeries:           {OpInclude, OpExclude},
	KindFinishedAiring:            {OpInclude, OpExclude},
	KindFavourite:                 {OpInclude, OpExclude},

	KindAnimeGroup: {OpEquals, OpNotEquals},
}

// OperatorValid reports whether op is accepted for kind k.
func OperatorValid(k Kind, op Operator) bool {
	for _, v := range validOperators[k] {
		if v == op {
			return true
		}
	}
	return false
}

// KnownKind reports whether k belongs to the closed vocabulary.
func KnownKind(k Kind) bool {
	_, ok := validOperators[k]
	return ok
}
