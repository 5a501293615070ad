package filter

import "fmt"

var validSortFields = map[SortField]bool{
	SortByName: true, SortBySortName: true, SortByYear: true,
	SortByAirDate: true, SortByAddedDate: true, SortByWatchedDate: true,
	SortByEpisodeCount: true, SortByMissingEpisodeCount: true,
	SortByUnwatchedCount: true, SortByUserRating: true, SortByRating: true,
}

// Validate checks a definition for structural misconfiguration before
// it ever reaches the evaluator. Returns a slice of error messages
// (empty if valid), mirroring config validation.
func (d *Definition) Validate() []string {
	var errs []string

	if d.Name == "" {
		errs = append(errs, "name: required")
	}
	switch d.TargetLevel {
	case TargetSeries, TargetGroup:
	default:
		errs = append(errs, fmt.Sprintf("target_level: must be %q or %q, got %q", TargetSeries, TargetGroup, d.TargetLevel))
	}
	switch d.BasePolicy {
	case PolicyInclude, PolicyExclude:
	default:
		errs = append(errs, fmt.Sprintf("base_policy: must be %q or %q, got %q", PolicyInclude, PolicyExclude, d.BasePolicy))
	}

	for i, c := range d.Conditions {
		if !KnownKind(c.Kind) {
			errs = append(errs, fmt.Sprintf("conditions[%d]: unknown kind %q", i, c.Kind))
			continue
		}
		if !OperatorValid(c.Kind, c.Operator) {
			errs = append(errs, fmt.Sprintf("conditions[%d]: operator %q not valid for kind %q", i, c.Operator, c.Kind))
		}
		if !kindAllowedAt(c.Kind, d.TargetLevel) {
			errs = append(errs, fmt.Sprintf("conditions[%d]: kind %q not valid at %s level", i, c.Kind, d.TargetLevel))
		}
	}

	for i, s := range d.SortOrder {
		if !validSortFields[s.Field] {
			errs = append(errs, fmt.Sprintf("sort_order[%d]: unknown field %q", i, s.Field))
		}
		switch s.Direction {
		case SortAsc, SortDesc:
		default:
			errs = append(errs, fmt.Sprintf("sort_order[%d]: direction must be %q or %q", i, SortAsc, SortDesc))
		}
	}

	if d.StructuralOnly && len(d.Conditions) > 0 {
		errs = append(errs, "structural_only: directory filters cannot carry conditions")
	}

	return errs
}

// BadParameters returns the indexes of conditions whose parameters do
// not parse under their kind's grammar. Such conditions are legal but
// never match; callers log them once at load time.
func (d *Definition) BadParameters() []int {
	var bad []int
	for i, c := range d.Conditions {
		if !KnownKind(c.Kind) {
			continue
		}
		if !CheckParameter(c) {
			bad = append(bad, i)
		}
	}
	return bad
}
