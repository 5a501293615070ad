package membership_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/aniarr/aniarr/internal/filter"
	"github.com/aniarr/aniarr/internal/library"
	"github.com/aniarr/aniarr/internal/membership"
	"github.com/aniarr/aniarr/internal/membership/mocks"
)

func sortDef(clauses ...filter.SortClause) *filter.Definition {
	return &filter.Definition{
		ID:          1,
		Name:        "Sorted",
		TargetLevel: filter.TargetSeries,
		BasePolicy:  filter.PolicyInclude,
		SortOrder:   clauses,
	}
}

func TestSorter_ByNameCollatesAccentsAndCase(t *testing.T) {
	ctrl := gomock.NewController(t)
	snaps := mocks.NewMockSnapshotSource(ctrl)
	names := mocks.NewMockNameSource(ctrl)
	s := membership.NewSorter(snaps, names)

	names.EXPECT().DisplayNames(gomock.Any(), filter.TargetSeries, gomock.Any()).
		Return(map[int64]string{1: "Ōkami-san", 2: "bleach", 3: "Naruto"}, nil)
	names.EXPECT().SortNames(gomock.Any(), filter.TargetSeries, gomock.Any()).
		Return(map[int64]string{1: "Okami-san", 2: "Bleach", 3: "Naruto"}, nil)
	snaps.EXPECT().Snapshot(gomock.Any(), filter.TargetSeries, gomock.Any()).
		Return(seriesSnap(), nil).Times(3)

	def := sortDef(filter.SortClause{Field: filter.SortByName, Direction: filter.SortAsc})
	got, err := s.Sort(context.Background(), def, 0, []int64{1, 2, 3})
	require.NoError(t, err)

	// Loose collation: "bleach" < "Naruto" < "Ōkami-san" regardless
	// of case or the macron.
	assert.Equal(t, []int64{2, 3, 1}, got)
}

func TestSorter_MultiClauseWithDescending(t *testing.T) {
	ctrl := gomock.NewController(t)
	snaps := mocks.NewMockSnapshotSource(ctrl)
	names := mocks.NewMockNameSource(ctrl)
	s := membership.NewSorter(snaps, names)

	bySeries := map[int64]*filter.Snapshot{
		1: seriesSnap(func(sn *filter.Snapshot) { sn.Years = []int{2012}; sn.Rating = 7.1 }),
		2: seriesSnap(func(sn *filter.Snapshot) { sn.Years = []int{2012}; sn.Rating = 9.0 }),
		3: seriesSnap(func(sn *filter.Snapshot) { sn.Years = []int{2010}; sn.Rating = 5.0 }),
	}
	snaps.EXPECT().Snapshot(gomock.Any(), filter.TargetSeries, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ filter.TargetLevel, id int64) (*filter.Snapshot, error) {
			return bySeries[id], nil
		}).Times(3)

	def := sortDef(
		filter.SortClause{Field: filter.SortByYear, Direction: filter.SortAsc},
		filter.SortClause{Field: filter.SortByRating, Direction: filter.SortDesc},
	)
	got, err := s.Sort(context.Background(), def, 0, []int64{1, 2, 3})
	require.NoError(t, err)

	// 2010 first, then the 2012 pair with the higher rating ahead.
	assert.Equal(t, []int64{3, 2, 1}, got)
}

func TestSorter_TieBreaksByEntityID(t *testing.T) {
	ctrl := gomock.NewController(t)
	snaps := mocks.NewMockSnapshotSource(ctrl)
	names := mocks.NewMockNameSource(ctrl)
	s := membership.NewSorter(snaps, names)

	snaps.EXPECT().Snapshot(gomock.Any(), filter.TargetSeries, gomock.Any()).
		Return(seriesSnap(func(sn *filter.Snapshot) { sn.Rating = 8.0 }), nil).Times(3)

	def := sortDef(filter.SortClause{Field: filter.SortByRating, Direction: filter.SortDesc})
	got, err := s.Sort(context.Background(), def, 0, []int64{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestSorter_MissingSnapshotKeepsZeroKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	snaps := mocks.NewMockSnapshotSource(ctrl)
	names := mocks.NewMockNameSource(ctrl)
	s := membership.NewSorter(snaps, names)

	aired := time.Date(2012, time.April, 5, 0, 0, 0, 0, time.UTC)
	snaps.EXPECT().Snapshot(gomock.Any(), filter.TargetSeries, int64(1)).
		Return(seriesSnap(func(sn *filter.Snapshot) { sn.AirDateMin = &aired }), nil)
	snaps.EXPECT().Snapshot(gomock.Any(), filter.TargetSeries, int64(2)).
		Return(nil, library.ErrNotFound)

	def := sortDef(filter.SortClause{Field: filter.SortByAirDate, Direction: filter.SortAsc})
	got, err := s.Sort(context.Background(), def, 0, []int64{1, 2})
	require.NoError(t, err)

	// The vanished entity sorts with a zero air date instead of
	// failing the whole materialization.
	assert.Equal(t, []int64{2, 1}, got)
}

func TestSorter_ShortInputsReturnedAsIs(t *testing.T) {
	ctrl := gomock.NewController(t)
	snaps := mocks.NewMockSnapshotSource(ctrl)
	names := mocks.NewMockNameSource(ctrl)
	s := membership.NewSorter(snaps, names)
	ctx := context.Background()

	def := sortDef(filter.SortClause{Field: filter.SortByName, Direction: filter.SortAsc})
	got, err := s.Sort(ctx, def, 0, []int64{42})
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, got)

	got, err = s.Sort(ctx, sortDef(), 0, []int64{3, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, got, "no sort order leaves the membership order alone")
}
