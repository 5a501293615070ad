package filter

import (
	"fmt"
	"time"
)

// evalContext bundles the immutable inputs a single condition sees.
type evalContext struct {
	snap *Snapshot
	user UserStats
	now  time.Time
}

// conditionEval decides whether one condition holds for one entity.
// Pure: no I/O, no logging, deterministic for a fixed now.
type conditionEval func(ctx evalContext, c Condition) bool

// evaluators maps every condition kind to its evaluator. Coverage of
// the full vocabulary is asserted in init; a missing entry is a
// programming error, not a runtime fallback.
var evaluators = map[Kind]conditionEval{
	KindTag:        setEval(func(s *Snapshot) []string { return s.Tags }, nil),
	KindCustomTags: setEval(func(s *Snapshot) []string { return s.CustomTags }, nil),
	KindSeason:     setEval(func(s *Snapshot) []string { return s.Seasons }, nil),
	KindAnimeType:  setEval(func(s *Snapshot) []string { return s.AnimeTypes }, nil),
	KindVideoQuality: setEval(
		func(s *Snapshot) []string { return s.VideoQualities },
		func(s *Snapshot) []string { return s.VideoQualitiesAllEps }),
	KindAudioLanguage: setEval(
		func(s *Snapshot) []string { return s.AudioLanguages },
		func(s *Snapshot) []string { return s.AudioLanguagesAllEps }),
	KindSubtitleLanguage: setEval(
		func(s *Snapshot) []string { return s.SubtitleLanguages },
		func(s *Snapshot) []string { return s.SubtitleLangsAllEps }),

	KindYear: evalYear,

	KindAirDate:              dateEval(func(ctx evalContext) *time.Time { return ctx.snap.AirDateMin }),
	KindLatestEpisodeAirDate: dateEval(func(ctx evalContext) *time.Time { return ctx.snap.LatestEpisodeAir }),
	KindSeriesCreatedDate:    dateEval(func(ctx evalContext) *time.Time { return ctx.snap.CreatedAt }),
	KindEpisodeAddedDate:     dateEval(func(ctx evalContext) *time.Time { return ctx.snap.LastEpisodeAdded }),
	KindEpisodeWatchedDate:   dateEval(func(ctx evalContext) *time.Time { return ctx.user.LastWatched }),

	KindEpisodeCount: numberEval(func(ctx evalContext) (float64, bool) {
		return float64(ctx.snap.EpisodeCount), true
	}),
	KindAniDBRating: numberEval(func(ctx evalContext) (float64, bool) {
		return ctx.snap.Rating, ctx.snap.Rating > 0
	}),
	KindUserRating: numberEval(func(ctx evalContext) (float64, bool) {
		if ctx.user.Rating == nil {
			return 0, false
		}
		return *ctx.user.Rating, true
	}),

	KindHasWatchedEpisodes:        flagEval(func(ctx evalContext) bool { return ctx.user.WatchedCount > 0 }),
	KindHasUnwatchedEpisodes:      flagEval(func(ctx evalContext) bool { return ctx.user.UnwatchedCount > 0 }),
	KindMissingEpisodes:           flagEval(func(ctx evalContext) bool { return ctx.snap.MissingEpisodeCount > 0 }),
	KindMissingEpisodesCollecting: flagEval(func(ctx evalContext) bool { return ctx.snap.MissingEpisodeCollecting > 0 }),
	KindUserVoted:                 flagEval(func(ctx evalContext) bool { return ctx.user.HasPermVote }),
	KindUserVotedAny:              flagEval(func(ctx evalContext) bool { return ctx.user.HasVote }),
	KindAssignedTvDBLink:          flagEval(func(ctx evalContext) bool { return ctx.snap.HasTvDBLink }),
	KindAssignedMALLink:           flagEval(func(ctx evalContext) bool { return ctx.snap.HasMALLink }),
	KindAssignedMovieDBLink:       flagEval(func(ctx evalContext) bool { return ctx.snap.HasMovieDBLink }),
	KindAssignedAnyLink: flagEval(func(ctx evalContext) bool {
		return ctx.snap.HasTvDBLink || ctx.snap.HasMovieDBLink
	}),
	KindCompletedSeries: flagEval(func(ctx evalContext) bool { return ctx.snap.Completed }),
	KindFinishedAiring: flagEval(func(ctx evalContext) bool {
		return ctx.snap.EndDate != nil && !ctx.snap.EndDate.After(ctx.now)
	}),
	KindFavourite: flagEval(func(ctx evalContext) bool { return ctx.user.Favourite }),

	KindAnimeGroup: evalAnimeGroup,
}

func init() {
	for _, k := range AllKinds {
		if _, ok := evaluators[k]; !ok {
			panic(fmt.Sprintf("filter: no evaluator registered for kind %q", k))
		}
	}
	if len(evaluators) != len(AllKinds) {
		panic("filter: evaluator table has kinds outside the vocabulary")
	}
}

// setEval builds an evaluator over a set-valued snapshot field, with an
// optional all-episodes variant for InAllEpisodes/NotInAllEpisodes.
func setEval(anyField, allField func(*Snapshot) []string) conditionEval {
	return func(ctx evalContext, c Condition) bool {
		params := parseList(c.Parameter)
		if len(params) == 0 {
			return false
		}
		field := anyField
		switch c.Operator {
		case OpInAllEpisodes, OpNotInAllEpisodes:
			if allField == nil {
				return false
			}
			field = allField
		}
		have := FoldSet(field(ctx.snap))
		intersects := false
		for _, p := range params {
			if _, ok := have[p]; ok {
				intersects = true
				break
			}
		}
		switch c.Operator {
		case OpInclude, OpIn, OpInAllEpisodes:
			return intersects
		case OpExclude, OpNotIn, OpNotInAllEpisodes:
			return !intersects
		}
		return false
	}
}

func evalYear(ctx evalContext, c Condition) bool {
	params := parseIntList(c.Parameter)
	if len(params) == 0 {
		return false
	}
	have := make(map[int]struct{}, len(ctx.snap.Years))
	for _, y := range ctx.snap.Years {
		have[y] = struct{}{}
	}
	intersects := false
	for _, y := range params {
		if _, ok := have[y]; ok {
			intersects = true
			break
		}
	}
	switch c.Operator {
	case OpInclude, OpIn:
		return intersects
	case OpExclude, OpNotIn:
		return !intersects
	}
	return false
}

// dateEval builds an evaluator over an optional snapshot date. A
// missing date fails every operator: "aired after X" cannot hold for
// something that never aired, and "before X" requires existence too.
func dateEval(field func(evalContext) *time.Time) conditionEval {
	return func(ctx evalContext, c Condition) bool {
		date := field(ctx)
		if date == nil {
			return false
		}
		switch c.Operator {
		case OpGreaterThan:
			threshold, ok := parseDate(c.Parameter)
			return ok && !date.Before(threshold)
		case OpLastXDays:
			days, ok := parseDays(c.Parameter)
			if !ok {
				return false
			}
			threshold := ctx.now.AddDate(0, 0, -days)
			return !date.Before(threshold)
		case OpLessThan:
			threshold, ok := parseDate(c.Parameter)
			return ok && !date.After(threshold)
		}
		return false
	}
}

// numberEval builds a threshold evaluator; the value func reports
// whether the snapshot has the value at all.
func numberEval(value func(evalContext) (float64, bool)) conditionEval {
	return func(ctx evalContext, c Condition) bool {
		threshold, ok := parseDecimal(c.Parameter)
		if !ok {
			return false
		}
		v, present := value(ctx)
		if !present {
			return false
		}
		switch c.Operator {
		case OpGreaterThan:
			return v >= threshold
		case OpLessThan:
			return v <= threshold
		}
		return false
	}
}

// flagEval builds a boolean-flag evaluator: Include wants the flag
// set, Exclude wants it clear.
func flagEval(flag func(evalContext) bool) conditionEval {
	return func(ctx evalContext, c Condition) bool {
		switch c.Operator {
		case OpInclude:
			return flag(ctx)
		case OpExclude:
			return !flag(ctx)
		}
		return false
	}
}

func evalAnimeGroup(ctx evalContext, c Condition) bool {
	id, ok := parseGroupID(c.Parameter)
	if !ok {
		return false
	}
	switch c.Operator {
	case OpEquals:
		return ctx.snap.EntityID == id
	case OpNotEquals:
		return ctx.snap.EntityID != id
	}
	return false
}

// Matches evaluates a single condition against a snapshot for a user.
// Unknown kinds never match.
func Matches(snap *Snapshot, c Condition, user User, now time.Time) bool {
	eval, ok := evaluators[c.Kind]
	if !ok {
		return false
	}
	return eval(evalContext{snap: snap, user: snap.UserStats(user.ID), now: now}, c)
}

// Evaluate decides whether an entity belongs to the filter for the
// given user:
//
//  1. structural-only filters match nothing;
//  2. an entity whose stats were never computed (nil tag set) matches
//     nothing;
//  3. the user's hidden categories gate everything underneath;
//  4. AnimeGroup conditions on a group filter are an explicit
//     allow/deny override bypassing policy and all other conditions;
//  5. otherwise the result is the conjunction over all conditions of
//     (exclude XOR match): every condition must hold under Include
//     policy and fail under Exclude policy;
//  6. zero conditions match everything under either policy.
func Evaluate(d *Definition, snap *Snapshot, user User, now time.Time) bool {
	if d.StructuralOnly {
		return false
	}
	if snap == nil || snap.Tags == nil {
		return false
	}

	if len(user.HiddenTags) > 0 {
		tags := FoldSet(snap.Tags)
		for _, hidden := range user.HiddenTags {
			if _, ok := tags[Fold(hidden)]; ok {
				return false
			}
		}
	}

	if d.TargetLevel == TargetGroup && d.References(KindAnimeGroup) {
		us := snap.UserStats(user.ID)
		for _, c := range d.Conditions {
			if c.Kind != KindAnimeGroup {
				continue
			}
			if !evalAnimeGroup(evalContext{snap: snap, user: us, now: now}, c) {
				return false
			}
		}
		return true
	}

	exclude := d.BasePolicy == PolicyExclude
	for _, c := range d.Conditions {
		if exclude == Matches(snap, c, user, now) {
			return false
		}
	}
	return true
}
