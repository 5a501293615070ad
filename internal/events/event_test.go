package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseEvent_ImplementsEvent(t *testing.T) {
	now := time.Now()
	e := BaseEvent{
		Type:      "series.stats_updated",
		Entity:    "series",
		ID:        42,
		Timestamp: now,
	}

	assert.Equal(t, "series.stats_updated", e.EventType())
	assert.Equal(t, "series", e.EntityType())
	assert.Equal(t, int64(42), e.EntityID())
	assert.Equal(t, now, e.OccurredAt())
}

func TestNewBaseEvent(t *testing.T) {
	e := NewBaseEvent("filter.membership_changed", "filter", 5)

	assert.Equal(t, "filter.membership_changed", e.EventType())
	assert.Equal(t, "filter", e.EntityType())
	assert.Equal(t, int64(5), e.EntityID())
	assert.False(t, e.OccurredAt().IsZero())
}
