// Package membership maintains, per filter and per user, the set of
// entities currently matching each smart collection. Updates arrive
// incrementally from stats recomputes; readers query memberships at
// any time. Each filter has its own reader/writer lock, so unrelated
// filters recompute fully in parallel.
package membership

import (
	"context"
	"errors"

	"github.com/aniarr/aniarr/internal/filter"
)

//go:generate mockgen -source=membership.go -destination=mocks/mocks.go -package=mocks

var (
	// ErrUnknownFilter indicates the filter ID is not loaded.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrStale indicates a persisted membership snapshot was written
	// by a different schema version and must not be trusted.
	ErrStale = errors.New("membership snapshot stale")

	// ErrNoSnapshot indicates no membership snapshot is persisted for
	// the filter.
	ErrNoSnapshot = errors.New("no membership snapshot")
)

// SnapshotSource hands out entity statistics snapshots. Owned by the
// library-stats subsystem; the engine never computes stats itself.
type SnapshotSource interface {
	// Snapshot returns an entity's current stats, or an error wrapping
	// a not-found condition when stats were never computed.
	Snapshot(ctx context.Context, level filter.TargetLevel, entityID int64) (*filter.Snapshot, error)
	// EntityIDs lists every entity at a level, for rebuilds.
	EntityIDs(ctx context.Context, level filter.TargetLevel) ([]int64, error)
}

// Hierarchy resolves ownership for roll-up and roll-down.
type Hierarchy interface {
	TopLevelGroup(ctx context.Context, seriesID int64) (int64, error)
	DescendantSeries(ctx context.Context, groupID int64) ([]int64, error)
}

// UserSource supplies the known users and their hidden-category gates.
type UserSource interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	HiddenTags(ctx context.Context, userID int64) ([]string, error)
}

// NameSource supplies entity names for sorted materialization.
type NameSource interface {
	DisplayNames(ctx context.Context, level filter.TargetLevel, ids []int64) (map[int64]string, error)
	SortNames(ctx context.Context, level filter.TargetLevel, ids []int64) (map[int64]string, error)
}

// BlobStore persists membership snapshots between restarts. Load
// returns ErrStale on a schema-version mismatch and ErrNoSnapshot when
// nothing was saved; both force a rebuild.
type BlobStore interface {
	Save(ctx context.Context, filterID int64, level filter.TargetLevel, members map[int64][]int64) error
	Load(ctx context.Context, filterID int64, level filter.TargetLevel) (map[int64][]int64, error)
}
