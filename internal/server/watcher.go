package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/aniarr/aniarr/internal/events"
	"github.com/aniarr/aniarr/internal/filter"
	"github.com/aniarr/aniarr/internal/library"
)

// StatsWatcher polls the stats tables for snapshot versions past its
// cursor and turns each recompute into a StatsUpdated event carrying
// the previous and current snapshots. The stats job itself is an
// external process; polling is the only coupling.
type StatsWatcher struct {
	store    *library.Store
	bus      *events.Bus
	logger   *slog.Logger
	interval time.Duration

	cursors map[filter.TargetLevel]int64
	prev    map[filter.TargetLevel]map[int64]*filter.Snapshot
}

// NewStatsWatcher creates a watcher polling at the given interval.
func NewStatsWatcher(store *library.Store, bus *events.Bus, interval time.Duration, logger *slog.Logger) *StatsWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsWatcher{
		store:    store,
		bus:      bus,
		logger:   logger.With("component", "stats-watcher"),
		interval: interval,
		cursors: map[filter.TargetLevel]int64{
			filter.TargetSeries: 0,
			filter.TargetGroup:  0,
		},
		prev: map[filter.TargetLevel]map[int64]*filter.Snapshot{
			filter.TargetSeries: {},
			filter.TargetGroup:  {},
		},
	}
}

// Run polls until the context is canceled.
func (w *StatsWatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Prime once so a freshly started daemon catches up immediately.
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *StatsWatcher) poll(ctx context.Context) {
	for _, level := range []filter.TargetLevel{filter.TargetSeries, filter.TargetGroup} {
		w.pollLevel(ctx, level)
		w.reapRemoved(ctx, level)
	}
}

// pollLevel publishes one StatsUpdated per snapshot written since the
// cursor and advances it.
func (w *StatsWatcher) pollLevel(ctx context.Context, level filter.TargetLevel) {
	snaps, maxVersion, err := w.store.ChangedSnapshots(ctx, level, w.cursors[level])
	if err != nil {
		w.logger.Error("poll stats", "level", level, "error", err)
		return
	}
	for _, snap := range snaps {
		old := w.prev[level][snap.EntityID]
		if err := w.bus.Publish(ctx, w.event(level, snap.EntityID, old, snap)); err != nil {
			w.logger.Error("publish stats event", "level", level, "entity_id", snap.EntityID, "error", err)
			continue
		}
		w.prev[level][snap.EntityID] = snap
	}
	w.cursors[level] = maxVersion
}

// reapRemoved emits a nil-snapshot event for every entity the watcher
// has seen that no longer exists, so memberships drop removed entities
// without waiting for a rebuild.
func (w *StatsWatcher) reapRemoved(ctx context.Context, level filter.TargetLevel) {
	if len(w.prev[level]) == 0 {
		return
	}
	ids, err := w.store.EntityIDs(ctx, level)
	if err != nil {
		w.logger.Error("list entities", "level", level, "error", err)
		return
	}
	alive := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		alive[id] = struct{}{}
	}
	for id, old := range w.prev[level] {
		if _, ok := alive[id]; ok {
			continue
		}
		if err := w.bus.Publish(ctx, w.event(level, id, old, nil)); err != nil {
			w.logger.Error("publish removal event", "level", level, "entity_id", id, "error", err)
			continue
		}
		delete(w.prev[level], id)
	}
}

func (w *StatsWatcher) event(level filter.TargetLevel, entityID int64, old, new *filter.Snapshot) events.Event {
	if level == filter.TargetGroup {
		return events.NewGroupStatsUpdated(entityID, old, new)
	}
	return events.NewSeriesStatsUpdated(entityID, old, new)
}
