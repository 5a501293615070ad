package membership

import (
	"sort"
	"sync"

	"github.com/aniarr/aniarr/internal/filter"
)

// entry is one filter's slice of the membership index. The mutex
// covers the two level maps and the dirty bit; evaluation happens
// outside it, map mutation and roll-up/down inside it. A single
// update never holds two entries' locks, so there is no ordering
// hazard between filters.
type entry struct {
	// persistMu serializes export+Save sequences so an older export
	// can never land in the store after a newer one.
	persistMu sync.Mutex

	mu     sync.RWMutex
	def    *filter.Definition
	series map[int64]map[int64]struct{} // userID -> series IDs
	groups map[int64]map[int64]struct{} // userID -> group IDs
	dirty  bool
	gen    uint64 // advances on every mutation, guards the dirty clear
}

func newEntry(def *filter.Definition) *entry {
	return &entry{
		def:    def,
		series: make(map[int64]map[int64]struct{}),
		groups: make(map[int64]map[int64]struct{}),
	}
}

// definition returns the current definition. Definitions are immutable
// once installed; SetFilters swaps the pointer under the write lock.
func (e *entry) definition() *filter.Definition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.def
}

// markDirty flags unsaved changes and advances the generation persist
// uses to detect mutations that raced its export. Callers hold the
// write lock.
func (e *entry) markDirty() {
	e.dirty = true
	e.gen++
}

// level returns the map holding the given level's sets. Callers hold
// the entry lock.
func (e *entry) level(l filter.TargetLevel) map[int64]map[int64]struct{} {
	if l == filter.TargetGroup {
		return e.groups
	}
	return e.series
}

// apply adds or removes an entity from one user's set at a level and
// reports whether the set actually changed. Callers hold the write
// lock.
func (e *entry) apply(l filter.TargetLevel, userID, entityID int64, member bool) bool {
	sets := e.level(l)
	set := sets[userID]
	if member {
		if set == nil {
			set = make(map[int64]struct{})
			sets[userID] = set
		}
		if _, ok := set[entityID]; ok {
			return false
		}
		set[entityID] = struct{}{}
		return true
	}
	if set == nil {
		return false
	}
	if _, ok := set[entityID]; !ok {
		return false
	}
	delete(set, entityID)
	return true
}

// ids returns a user's membership at a level as a sorted slice.
// Callers hold at least the read lock.
func (e *entry) ids(l filter.TargetLevel, userID int64) []int64 {
	set := e.level(l)[userID]
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// userIDs returns every user with a set at either level. Callers hold
// at least the read lock.
func (e *entry) userIDs() []int64 {
	seen := make(map[int64]struct{}, len(e.series)+len(e.groups))
	for id := range e.series {
		seen[id] = struct{}{}
	}
	for id := range e.groups {
		seen[id] = struct{}{}
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// export snapshots one level's sets as plain slices for persistence.
// Callers hold at least the read lock.
func (e *entry) export(l filter.TargetLevel) map[int64][]int64 {
	sets := e.level(l)
	out := make(map[int64][]int64, len(sets))
	for userID := range sets {
		out[userID] = e.ids(l, userID)
	}
	return out
}

// install replaces one level's sets from persisted slices. Callers
// hold the write lock.
func (e *entry) install(l filter.TargetLevel, members map[int64][]int64) {
	sets := make(map[int64]map[int64]struct{}, len(members))
	for userID, ids := range members {
		set := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		sets[userID] = set
	}
	if l == filter.TargetGroup {
		e.groups = sets
	} else {
		e.series = sets
	}
}
