package events

import "github.com/aniarr/aniarr/internal/filter"

// Event type constants for the stats and membership domain.
const (
	EventSeriesStatsUpdated = "series.stats_updated"
	EventGroupStatsUpdated  = "group.stats_updated"
	EventMembershipChanged  = "filter.membership_changed"
)

// StatsUpdated is emitted when the stats job recomputes an entity's
// statistics snapshot. Old is nil the first time an entity is seen;
// New is nil when the entity was removed. The engine consumes these to
// update memberships incrementally.
type StatsUpdated struct {
	BaseEvent
	Level filter.TargetLevel `json:"level"`
	Old   *filter.Snapshot   `json:"old,omitempty"`
	New   *filter.Snapshot   `json:"new,omitempty"`
}

// NewSeriesStatsUpdated builds a stats event for a series recompute.
func NewSeriesStatsUpdated(seriesID int64, old, new *filter.Snapshot) *StatsUpdated {
	return &StatsUpdated{
		BaseEvent: NewBaseEvent(EventSeriesStatsUpdated, "series", seriesID),
		Level:     filter.TargetSeries,
		Old:       old,
		New:       new,
	}
}

// NewGroupStatsUpdated builds a stats event for a group recompute.
func NewGroupStatsUpdated(groupID int64, old, new *filter.Snapshot) *StatsUpdated {
	return &StatsUpdated{
		BaseEvent: NewBaseEvent(EventGroupStatsUpdated, "group", groupID),
		Level:     filter.TargetGroup,
		Old:       old,
		New:       new,
	}
}

// MembershipChanged is emitted after the engine changed a filter's
// membership, for audit and for consumers that poll lazily.
type MembershipChanged struct {
	BaseEvent
	Level     filter.TargetLevel `json:"level"`
	ChangedID int64              `json:"changed_entity_id"`
}

// NewMembershipChanged builds a membership-change event for a filter.
// entityID is the entity whose stats change moved the membership; the
// event's own entity is the filter.
func NewMembershipChanged(filterID int64, level filter.TargetLevel, entityID int64) *MembershipChanged {
	return &MembershipChanged{
		BaseEvent: NewBaseEvent(EventMembershipChanged, "filter", filterID),
		Level:     level,
		ChangedID: entityID,
	}
}
