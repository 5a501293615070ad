package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aniarr/aniarr/internal/filter"
	"github.com/aniarr/aniarr/internal/library"
)

// Engine is the membership index plus its maintenance algorithm. All
// inputs (snapshots) are passed in or fetched through the collaborator
// interfaces; nothing in the evaluation path blocks on network.
type Engine struct {
	logger *slog.Logger
	snaps  SnapshotSource
	hier   Hierarchy
	users  UserSource
	blobs  BlobStore // optional, nil disables persistence
	sorter *Sorter   // optional, nil sorts by ID
	now    func() time.Time

	mu      sync.RWMutex
	entries map[int64]*entry
}

// NewEngine creates an engine. blobs and names may be nil to disable
// persistence and name-based sorting. A nil logger falls back to the
// default slog logger.
func NewEngine(snaps SnapshotSource, hier Hierarchy, users UserSource, blobs BlobStore, names NameSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		logger:  logger,
		snaps:   snaps,
		hier:    hier,
		users:   users,
		blobs:   blobs,
		now:     time.Now,
		entries: make(map[int64]*entry),
	}
	if names != nil {
		e.sorter = NewSorter(snaps, names)
	}
	return e
}

// SetFilters installs the filter definitions the engine maintains.
// Invalid definitions are skipped with an error log; conditions with
// unparsable parameters are logged once here and simply never match.
// Existing membership for a surviving filter ID is kept; callers
// rebuild filters whose conditions were edited.
func (e *Engine) SetFilters(defs []*filter.Definition) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := make(map[int64]*entry, len(defs))
	for _, def := range defs {
		if errs := def.Validate(); len(errs) > 0 {
			e.logger.Error("skipping misconfigured filter",
				"filter_id", def.ID, "name", def.Name, "error", errs[0])
			continue
		}
		for _, i := range def.BadParameters() {
			c := def.Conditions[i]
			e.logger.Warn("condition parameter does not parse, condition will never match",
				"filter_id", def.ID, "name", def.Name,
				"kind", c.Kind, "operator", c.Operator, "parameter", c.Parameter)
		}
		if existing, ok := e.entries[def.ID]; ok {
			existing.mu.Lock()
			existing.def = def
			existing.mu.Unlock()
			kept[def.ID] = existing
			continue
		}
		kept[def.ID] = newEntry(def)
	}
	e.entries = kept
}

// Filters returns the currently loaded definitions.
func (e *Engine) Filters() []*filter.Definition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*filter.Definition, 0, len(e.entries))
	for _, ent := range e.entries {
		out = append(out, ent.definition())
	}
	return out
}

func (e *Engine) entry(filterID int64) (*entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.entries[filterID]
	if !ok {
		return nil, fmt.Errorf("filter %d: %w", filterID, ErrUnknownFilter)
	}
	return ent, nil
}

func (e *Engine) snapshotEntries() []*entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*entry, 0, len(e.entries))
	for _, ent := range e.entries {
		out = append(out, ent)
	}
	return out
}

// loadUsers returns every known user plus the system context (user 0,
// no hidden categories).
func (e *Engine) loadUsers(ctx context.Context) ([]filter.User, error) {
	ids, err := e.users.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]filter.User, 0, len(ids)+1)
	users = append(users, filter.User{ID: 0})
	for _, id := range ids {
		if id == 0 {
			continue
		}
		hidden, err := e.users.HiddenTags(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("hidden tags for user %d: %w", id, err)
		}
		users = append(users, filter.User{ID: id, HiddenTags: hidden})
	}
	return users, nil
}

// candidate reports whether a filter must be re-evaluated for the
// given changed-kind set. The per-user hidden-category gate reads the
// tag set underneath every filter, so a tag change re-evaluates all of
// them regardless of their declared kinds.
func candidate(def *filter.Definition, changed map[filter.Kind]struct{}) bool {
	if _, ok := changed[filter.KindTag]; ok {
		return true
	}
	for _, c := range def.Conditions {
		if _, ok := changed[c.Kind]; ok {
			return true
		}
	}
	return false
}

// NotifyEntityChanged is the update entry point: a stats recompute
// fired for an entity with its (old, new) snapshots. A nil old
// snapshot means the entity was never evaluated and every filter is a
// candidate; a nil new snapshot means the entity was removed. Returns
// the IDs of filters whose membership actually changed.
//
// Updates to the same entity must arrive in increasing snapshot
// version order; the engine does not sequence them. Recomputing with
// the same snapshot is idempotent.
func (e *Engine) NotifyEntityChanged(ctx context.Context, level filter.TargetLevel, entityID int64, old, new *filter.Snapshot) ([]int64, error) {
	changed := filter.ChangedKinds(old, new)
	users, err := e.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now()

	var changedFilters []int64
	for _, ent := range e.snapshotEntries() {
		def := ent.definition()
		if def.TargetLevel != level {
			continue
		}
		if len(def.Conditions) > 0 && !candidate(def, changed) {
			continue
		}

		// Evaluation only reads the immutable snapshot; keep it
		// outside the filter's lock.
		matches := make(map[int64]bool, len(users))
		for _, u := range users {
			matches[u.ID] = new != nil && filter.Evaluate(def, new, u, now)
		}

		ent.mu.Lock()
		var changedUsers []int64
		for _, u := range users {
			if ent.apply(level, u.ID, entityID, matches[u.ID]) {
				changedUsers = append(changedUsers, u.ID)
			}
		}
		for _, userID := range changedUsers {
			e.roll(ctx, ent, userID)
		}
		if len(changedUsers) > 0 {
			ent.markDirty()
		}
		ent.mu.Unlock()

		if len(changedUsers) > 0 {
			changedFilters = append(changedFilters, def.ID)
			e.persist(ctx, ent)
		}
	}
	return changedFilters, nil
}

// roll re-establishes the derived level for one user: group sets of a
// series filter are the top-level groups of its series (roll-up),
// series sets of a group filter are all descendant series of its
// groups (roll-down). Callers hold the entry's write lock.
func (e *Engine) roll(ctx context.Context, ent *entry, userID int64) {
	switch ent.def.TargetLevel {
	case filter.TargetSeries:
		groups := make(map[int64]struct{})
		for seriesID := range ent.series[userID] {
			groupID, err := e.hier.TopLevelGroup(ctx, seriesID)
			if err != nil {
				// Preserved source behavior: the series silently
				// drops out of the group view. The log line is the
				// monitoring hook.
				e.logger.Warn("roll-up dropped series",
					"filter_id", ent.def.ID, "user_id", userID,
					"series_id", seriesID, "error", err)
				continue
			}
			groups[groupID] = struct{}{}
		}
		ent.groups[userID] = groups
	case filter.TargetGroup:
		series := make(map[int64]struct{})
		for groupID := range ent.groups[userID] {
			ids, err := e.hier.DescendantSeries(ctx, groupID)
			if err != nil {
				e.logger.Warn("roll-down dropped group",
					"filter_id", ent.def.ID, "user_id", userID,
					"group_id", groupID, "error", err)
				continue
			}
			for _, id := range ids {
				series[id] = struct{}{}
			}
		}
		ent.series[userID] = series
	}
}

// persist writes a filter's membership snapshot if it is dirty.
// Failures are logged and the dirty bit kept so the periodic flush
// retries; a persistence error never aborts membership maintenance.
func (e *Engine) persist(ctx context.Context, ent *entry) {
	if e.blobs == nil {
		return
	}
	// One persist of this entry at a time: with exports taken under
	// persistMu, a save of older state can never follow one of newer
	// state into the store.
	ent.persistMu.Lock()
	defer ent.persistMu.Unlock()

	ent.mu.RLock()
	if !ent.dirty {
		ent.mu.RUnlock()
		return
	}
	gen := ent.gen
	seriesSets := ent.export(filter.TargetSeries)
	groupSets := ent.export(filter.TargetGroup)
	filterID := ent.def.ID
	ent.mu.RUnlock()

	if err := e.blobs.Save(ctx, filterID, filter.TargetSeries, seriesSets); err != nil {
		e.logger.Error("persist series membership failed", "filter_id", filterID, "error", err)
		return
	}
	if err := e.blobs.Save(ctx, filterID, filter.TargetGroup, groupSets); err != nil {
		e.logger.Error("persist group membership failed", "filter_id", filterID, "error", err)
		return
	}

	// A mutation that raced the export leaves the dirty bit set so the
	// next flush writes the newer state.
	ent.mu.Lock()
	if ent.gen == gen {
		ent.dirty = false
	}
	ent.mu.Unlock()
}

// FlushDirty persists every filter with unsaved membership changes.
func (e *Engine) FlushDirty(ctx context.Context) {
	for _, ent := range e.snapshotEntries() {
		e.persist(ctx, ent)
	}
}

// Rebuild recomputes a filter's membership from scratch: every entity
// at the filter's target level is evaluated as if never seen before,
// then the derived level is re-established once. Long-running;
// cancellation is checked between entities.
func (e *Engine) Rebuild(ctx context.Context, filterID int64) error {
	ent, err := e.entry(filterID)
	if err != nil {
		return err
	}
	def := ent.definition()

	users, err := e.loadUsers(ctx)
	if err != nil {
		return err
	}
	ids, err := e.snaps.EntityIDs(ctx, def.TargetLevel)
	if err != nil {
		return fmt.Errorf("rebuild filter %d: %w", filterID, err)
	}
	now := e.now()

	fresh := make(map[int64]map[int64]struct{}, len(users))
	for _, u := range users {
		fresh[u.ID] = make(map[int64]struct{})
	}
	for _, entityID := range ids {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		snap, err := e.snaps.Snapshot(ctx, def.TargetLevel, entityID)
		if err != nil {
			if !errors.Is(err, library.ErrNotFound) {
				e.logger.Warn("snapshot load failed during rebuild",
					"filter_id", filterID, "entity_id", entityID, "error", err)
			}
			// No stats: excluded from all memberships, not an error.
			continue
		}
		for _, u := range users {
			if filter.Evaluate(def, snap, u, now) {
				fresh[u.ID][entityID] = struct{}{}
			}
		}
	}

	// Both levels are replaced: the derived maps may still hold sets
	// for users deleted since the last rebuild.
	ent.mu.Lock()
	if def.TargetLevel == filter.TargetGroup {
		ent.groups = fresh
		ent.series = make(map[int64]map[int64]struct{}, len(users))
	} else {
		ent.series = fresh
		ent.groups = make(map[int64]map[int64]struct{}, len(users))
	}
	for _, u := range users {
		e.roll(ctx, ent, u.ID)
	}
	ent.markDirty()
	ent.mu.Unlock()

	e.persist(ctx, ent)
	return nil
}

// RebuildAll recomputes every filter. The series-level and group-level
// families run in parallel with each other; filters within a family
// run sequentially to bound peak memory.
func (e *Engine) RebuildAll(ctx context.Context) error {
	var seriesFilters, groupFilters []int64
	for _, ent := range e.snapshotEntries() {
		def := ent.definition()
		if def.TargetLevel == filter.TargetGroup {
			groupFilters = append(groupFilters, def.ID)
		} else {
			seriesFilters = append(seriesFilters, def.ID)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	rebuild := func(ids []int64) func() error {
		return func() error {
			for _, id := range ids {
				if err := e.Rebuild(ctx, id); err != nil {
					return err
				}
			}
			return nil
		}
	}
	g.Go(rebuild(seriesFilters))
	g.Go(rebuild(groupFilters))
	return g.Wait()
}

// LoadOrRebuild restores persisted membership snapshots, rebuilding
// any filter whose snapshot is missing or written by a different
// schema version.
func (e *Engine) LoadOrRebuild(ctx context.Context) error {
	if e.blobs == nil {
		return e.RebuildAll(ctx)
	}
	for _, ent := range e.snapshotEntries() {
		filterID := ent.definition().ID
		seriesSets, err1 := e.blobs.Load(ctx, filterID, filter.TargetSeries)
		groupSets, err2 := e.blobs.Load(ctx, filterID, filter.TargetGroup)
		if err1 != nil || err2 != nil {
			err := err1
			if err == nil {
				err = err2
			}
			if !errors.Is(err, ErrNoSnapshot) {
				e.logger.Warn("membership snapshot unusable, rebuilding",
					"filter_id", filterID, "error", err)
			}
			if err := e.Rebuild(ctx, filterID); err != nil {
				return err
			}
			continue
		}
		ent.mu.Lock()
		ent.install(filter.TargetSeries, seriesSets)
		ent.install(filter.TargetGroup, groupSets)
		ent.dirty = false
		ent.mu.Unlock()
	}
	return nil
}

// Members returns the current membership for a filter and user at a
// level, sorted by entity ID.
func (e *Engine) Members(filterID, userID int64, level filter.TargetLevel) ([]int64, error) {
	ent, err := e.entry(filterID)
	if err != nil {
		return nil, err
	}
	ent.mu.RLock()
	defer ent.mu.RUnlock()
	return ent.ids(level, userID), nil
}

// Evaluate materializes the ordered collection for a filter and user
// at the filter's own target level, applying the definition's sort
// order. Sorting happens only here, never during maintenance.
func (e *Engine) Evaluate(ctx context.Context, filterID, userID int64) ([]int64, error) {
	ent, err := e.entry(filterID)
	if err != nil {
		return nil, err
	}
	ent.mu.RLock()
	ids := ent.ids(ent.def.TargetLevel, userID)
	def := ent.def
	ent.mu.RUnlock()

	if e.sorter == nil || len(def.SortOrder) == 0 {
		return ids, nil
	}
	return e.sorter.Sort(ctx, def, userID, ids)
}

// EvaluateAdHoc checks a single entity against a definition that need
// not be stored, for previewing unsaved filters. Entities without
// stats never match.
func (e *Engine) EvaluateAdHoc(ctx context.Context, def *filter.Definition, entityID, userID int64) (bool, error) {
	if errs := def.Validate(); len(errs) > 0 {
		return false, fmt.Errorf("invalid filter definition: %s", errs[0])
	}
	snap, err := e.snaps.Snapshot(ctx, def.TargetLevel, entityID)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	hidden, err := e.users.HiddenTags(ctx, userID)
	if err != nil {
		return false, err
	}
	return filter.Evaluate(def, snap, filter.User{ID: userID, HiddenTags: hidden}, e.now()), nil
}
