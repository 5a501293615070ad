// Package match provides fuzzy name matching for looking up filters
// and titles by approximate name.
package match

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/aniarr/aniarr/internal/filter"
)

// Confidence represents the confidence level of a name match.
type Confidence int

const (
	ConfidenceNone   Confidence = iota // Score < 0.70
	ConfidenceLow                      // Score >= 0.70
	ConfidenceMedium                   // Score >= 0.85
	ConfidenceHigh                     // Score >= 0.95
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// Result is the best candidate for a query.
type Result struct {
	Name       string     // The matched candidate name
	Score      float64    // Jaro-Winkler similarity score (0.0-1.0)
	Confidence Confidence // Confidence level based on score
}

// Name finds the best match for a query against candidate names.
// Uses Jaro-Winkler similarity, which favors prefix matches; names are
// folded first so case and accents never split a match.
func Name(query string, candidates []string) Result {
	if len(candidates) == 0 {
		return Result{Confidence: ConfidenceNone}
	}

	normalizedQuery := normalize(query)

	best := Result{Confidence: ConfidenceNone}
	for _, candidate := range candidates {
		score := float64(edlib.JaroWinklerSimilarity(normalizedQuery, normalize(candidate)))
		if score > best.Score {
			best.Name = candidate
			best.Score = score
		}
	}

	switch {
	case best.Score >= 0.95:
		best.Confidence = ConfidenceHigh
	case best.Score >= 0.85:
		best.Confidence = ConfidenceMedium
	case best.Score >= 0.70:
		best.Confidence = ConfidenceLow
	default:
		best.Confidence = ConfidenceNone
		best.Name = ""
	}

	return best
}

// normalize folds case and accents and collapses runs of whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(filter.Fold(s)), " ")
}
