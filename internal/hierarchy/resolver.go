// Package hierarchy resolves series and group ownership: the top-level
// group above a series, and every series owned beneath a group. The
// entity graph is read-only from here; dangling references are logged
// and skipped, never fatal.
package hierarchy

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotFound indicates the entity, or a link on its parent chain, is
// missing from the graph.
var ErrNotFound = errors.New("hierarchy: not found")

// Graph is the read-only entity graph the resolver walks. Implemented
// by the library store; the ok results distinguish "no link" from a
// query failure.
type Graph interface {
	// GroupOfSeries returns the group owning a series, ok=false when
	// the series is unknown or unassigned.
	GroupOfSeries(ctx context.Context, seriesID int64) (int64, bool, error)
	// ParentGroup returns a group's parent, ok=false at the root or
	// when the group is unknown.
	ParentGroup(ctx context.Context, groupID int64) (int64, bool, error)
	// GroupExists reports whether the group is present at all.
	GroupExists(ctx context.Context, groupID int64) (bool, error)
	// ChildGroups lists a group's direct child groups.
	ChildGroups(ctx context.Context, groupID int64) ([]int64, error)
	// SeriesOfGroup lists the series directly owned by a group.
	SeriesOfGroup(ctx context.Context, groupID int64) ([]int64, error)
}

// Resolver answers ownership queries over a Graph.
type Resolver struct {
	graph  Graph
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger falls back to the
// default slog logger.
func NewResolver(graph Graph, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{graph: graph, logger: logger}
}

// TopLevelGroup walks a series' group parent-chain to its root.
// Returns ErrNotFound for series with no resolvable group; a cycle on
// the chain stops at the revisited node.
func (r *Resolver) TopLevelGroup(ctx context.Context, seriesID int64) (int64, error) {
	groupID, ok, err := r.graph.GroupOfSeries(ctx, seriesID)
	if err != nil {
		return 0, err
	}
	if !ok {
		r.logger.Warn("series has no group", "series_id", seriesID)
		return 0, ErrNotFound
	}

	exists, err := r.graph.GroupExists(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if !exists {
		r.logger.Warn("series references deleted group", "series_id", seriesID, "group_id", groupID)
		return 0, ErrNotFound
	}

	seen := map[int64]struct{}{groupID: {}}
	for {
		parentID, ok, err := r.graph.ParentGroup(ctx, groupID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return groupID, nil
		}
		if _, cycled := seen[parentID]; cycled {
			r.logger.Warn("cycle in group parent chain", "group_id", groupID, "parent_id", parentID)
			return groupID, nil
		}
		seen[parentID] = struct{}{}
		groupID = parentID
	}
}

// DescendantSeries collects every series owned by a group at any
// depth, the group's own series included. Unknown groups yield
// ErrNotFound; cycles among child groups are tolerated.
func (r *Resolver) DescendantSeries(ctx context.Context, groupID int64) ([]int64, error) {
	exists, err := r.graph.GroupExists(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !exists {
		r.logger.Warn("descendant query for deleted group", "group_id", groupID)
		return nil, ErrNotFound
	}

	var series []int64
	visited := make(map[int64]struct{})
	var walk func(id int64) error
	walk = func(id int64) error {
		if _, ok := visited[id]; ok {
			return nil
		}
		visited[id] = struct{}{}

		owned, err := r.graph.SeriesOfGroup(ctx, id)
		if err != nil {
			return err
		}
		series = append(series, owned...)

		children, err := r.graph.ChildGroups(ctx, id)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(groupID); err != nil {
		return nil, err
	}
	return series, nil
}
