package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraph is an in-memory Graph for resolver tests.
type fakeGraph struct {
	seriesGroup map[int64]int64   // series -> owning group
	parents     map[int64]int64   // group -> parent group
	groups      map[int64]bool    // group existence
	children    map[int64][]int64 // group -> child groups
	groupSeries map[int64][]int64 // group -> owned series
	err         error
}

func (g *fakeGraph) GroupOfSeries(_ context.Context, seriesID int64) (int64, bool, error) {
	if g.err != nil {
		return 0, false, g.err
	}
	id, ok := g.seriesGroup[seriesID]
	return id, ok, nil
}

func (g *fakeGraph) ParentGroup(_ context.Context, groupID int64) (int64, bool, error) {
	if g.err != nil {
		return 0, false, g.err
	}
	id, ok := g.parents[groupID]
	return id, ok, nil
}

func (g *fakeGraph) GroupExists(_ context.Context, groupID int64) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.groups[groupID], nil
}

func (g *fakeGraph) ChildGroups(_ context.Context, groupID int64) ([]int64, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.children[groupID], nil
}

func (g *fakeGraph) SeriesOfGroup(_ context.Context, groupID int64) ([]int64, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.groupSeries[groupID], nil
}

// testGraph builds:
//
//	group 1 (root)
//	└── group 2
//	    ├── series 10
//	    └── group 3
//	        └── series 11
//	group 4 (root, empty)
func testGraph() *fakeGraph {
	return &fakeGraph{
		seriesGroup: map[int64]int64{10: 2, 11: 3},
		parents:     map[int64]int64{2: 1, 3: 2},
		groups:      map[int64]bool{1: true, 2: true, 3: true, 4: true},
		children:    map[int64][]int64{1: {2}, 2: {3}},
		groupSeries: map[int64][]int64{2: {10}, 3: {11}},
	}
}

func TestTopLevelGroup(t *testing.T) {
	r := NewResolver(testGraph(), nil)
	ctx := context.Background()

	for _, seriesID := range []int64{10, 11} {
		got, err := r.TopLevelGroup(ctx, seriesID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got, "series %d", seriesID)
	}
}

func TestTopLevelGroup_UnassignedSeries(t *testing.T) {
	r := NewResolver(testGraph(), nil)

	_, err := r.TopLevelGroup(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTopLevelGroup_DanglingGroupLink(t *testing.T) {
	g := testGraph()
	g.seriesGroup[12] = 77 // group 77 does not exist
	r := NewResolver(g, nil)

	_, err := r.TopLevelGroup(context.Background(), 12)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTopLevelGroup_CycleStopsAtRevisit(t *testing.T) {
	g := testGraph()
	g.parents[1] = 3 // 1 -> 3 -> 2 -> 1
	r := NewResolver(g, nil)

	got, err := r.TopLevelGroup(context.Background(), 10)
	require.NoError(t, err)
	// The walk stops when it would revisit a node; any node on the
	// cycle is acceptable as long as it terminates.
	assert.Contains(t, []int64{1, 2, 3}, got)
}

func TestTopLevelGroup_GraphError(t *testing.T) {
	boom := errors.New("db locked")
	r := NewResolver(&fakeGraph{err: boom}, nil)

	_, err := r.TopLevelGroup(context.Background(), 10)
	assert.ErrorIs(t, err, boom)
}

func TestDescendantSeries(t *testing.T) {
	r := NewResolver(testGraph(), nil)
	ctx := context.Background()

	got, err := r.DescendantSeries(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 11}, got)

	got, err = r.DescendantSeries(ctx, 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{11}, got)

	got, err = r.DescendantSeries(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDescendantSeries_UnknownGroup(t *testing.T) {
	r := NewResolver(testGraph(), nil)

	_, err := r.DescendantSeries(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDescendantSeries_ToleratesChildCycle(t *testing.T) {
	g := testGraph()
	g.children[3] = []int64{1} // cycle back to the root
	r := NewResolver(g, nil)

	got, err := r.DescendantSeries(context.Background(), 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 11}, got)
}
