package filter

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes a tag, language, quality or season token for
// comparison: lowercased, accent-stripped, whitespace-trimmed. Both
// snapshot sets and condition parameters pass through it so "Pokémon"
// and "pokemon" compare equal.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// FoldSet normalizes every element of a set-valued snapshot field.
func FoldSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, v := range in {
		if f := Fold(v); f != "" {
			out[f] = struct{}{}
		}
	}
	return out
}

// parseList splits a comma-separated parameter into folded tokens.
// An empty result means the parameter was unparsable.
func parseList(param string) []string {
	var out []string
	for _, part := range strings.Split(param, ",") {
		if f := Fold(part); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseIntList parses a comma-separated list of integers, dropping
// malformed entries.
func parseIntList(param string) []int {
	var out []int
	for _, part := range strings.Split(param, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// parseDate parses the yyyymmdd parameter grammar.
func parseDate(param string) (time.Time, bool) {
	s := strings.TrimSpace(param)
	if len(s) != 8 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseDays parses the integer day-count parameter used by LastXDays.
func parseDays(param string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(param))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseDecimal parses a decimal threshold (ratings, counts).
func parseDecimal(param string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(param), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseGroupID parses the AnimeGroup override parameter.
func parseGroupID(param string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// CheckParameter reports whether a condition's parameter parses under
// its kind's grammar. Evaluation never errors on bad parameters; this
// is the load-time check that lets the engine log the anomaly once.
func CheckParameter(c Condition) bool {
	switch c.Kind {
	case KindTag, KindCustomTags, KindSeason, KindAnimeType,
		KindVideoQuality, KindAudioLanguage, KindSubtitleLanguage:
		return len(parseList(c.Parameter)) > 0
	case KindYear:
		return len(parseIntList(c.Parameter)) > 0
	case KindAirDate, KindLatestEpisodeAirDate, KindSeriesCreatedDate,
		KindEpisodeAddedDate, KindEpisodeWatchedDate:
		if c.Operator == OpLastXDays {
			_, ok := parseDays(c.Parameter)
			return ok
		}
		_, ok := parseDate(c.Parameter)
		return ok
	case KindEpisodeCount, KindAniDBRating, KindUserRating:
		_, ok := parseDecimal(c.Parameter)
		return ok
	case KindAnimeGroup:
		_, ok := parseGroupID(c.Parameter)
		return ok
	default:
		// Boolean-flag kinds take no parameter.
		return true
	}
}
