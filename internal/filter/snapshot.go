package filter

import "time"

// Snapshot is the immutable, versioned statistics aggregate the stats
// subsystem computes per entity (series or group). It carries every
// field any condition can reference; the evaluator never reaches past
// it. A nil Tags slice marks an entity whose stats were never
// computed, which fails every filter.
type Snapshot struct {
	EntityID      int64 `json:"entity_id"`
	ParentGroupID int64 `json:"parent_group_id,omitempty"` // series only
	Version       int64 `json:"version"`

	Tags       []string `json:"tags"`
	CustomTags []string `json:"custom_tags,omitempty"`
	Years      []int    `json:"years,omitempty"`
	Seasons    []string `json:"seasons,omitempty"` // "winter 2012" style
	AnimeTypes []string `json:"anime_types,omitempty"`

	// Qualities and languages come in two flavours: present in at
	// least one episode, and present in every episode.
	VideoQualities       []string `json:"video_qualities,omitempty"`
	VideoQualitiesAllEps []string `json:"video_qualities_all_eps,omitempty"`
	AudioLanguages       []string `json:"audio_languages,omitempty"`
	AudioLanguagesAllEps []string `json:"audio_languages_all_eps,omitempty"`
	SubtitleLanguages    []string `json:"subtitle_languages,omitempty"`
	SubtitleLangsAllEps  []string `json:"subtitle_langs_all_eps,omitempty"`

	AirDateMin        *time.Time `json:"air_date_min,omitempty"`
	AirDateMax        *time.Time `json:"air_date_max,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	LatestEpisodeAir  *time.Time `json:"latest_episode_air,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	LastEpisodeAdded  *time.Time `json:"last_episode_added,omitempty"`

	EpisodeCount             int `json:"episode_count"`
	MissingEpisodeCount      int `json:"missing_episode_count"`
	MissingEpisodeCollecting int `json:"missing_episode_collecting"`

	Rating        float64 `json:"rating"` // AniDB weighted average
	VoteCount     int     `json:"vote_count"`
	TempVoteCount int     `json:"temp_vote_count"`

	HasTvDBLink    bool `json:"has_tvdb_link"`
	HasMALLink     bool `json:"has_mal_link"`
	HasMovieDBLink bool `json:"has_moviedb_link"`

	Completed bool `json:"completed"`

	// Per-user statistics keyed by user ID. User 0 (the system
	// context) is never present; absent users read as zero values.
	Users map[int64]UserStats `json:"users,omitempty"`
}

// UserStats is the per-user slice of a snapshot.
type UserStats struct {
	WatchedCount   int        `json:"watched_count"`
	UnwatchedCount int        `json:"unwatched_count"`
	Favourite      bool       `json:"favourite"`
	HasVote        bool       `json:"has_vote"`
	HasPermVote    bool       `json:"has_perm_vote"`
	Rating         *float64   `json:"rating,omitempty"`
	LastWatched    *time.Time `json:"last_watched,omitempty"`
}

// UserStats returns the stats slice for a user, zero-valued when the
// user has no record on this entity.
func (s *Snapshot) UserStats(userID int64) UserStats {
	if s.Users == nil {
		return UserStats{}
	}
	return s.Users[userID]
}

// User is the evaluation context a membership update runs under. ID 0
// denotes the system/no-user context. HiddenTags is the per-user
// content gate applied underneath every filter.
type User struct {
	ID         int64
	HiddenTags []string
}
