package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mecha", "mecha"},
		{"  Drama  ", "drama"},
		{"Pokémon", "pokemon"},
		{"Ōkami", "okami"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), tt.in)
	}
}

func TestFoldSet(t *testing.T) {
	set := FoldSet([]string{"Mecha", "MECHA", "Drama", "", "  "})

	assert.Len(t, set, 2)
	assert.Contains(t, set, "mecha")
	assert.Contains(t, set, "drama")
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"mecha", "drama"}, parseList("Mecha, Drama"))
	assert.Equal(t, []string{"mecha"}, parseList("mecha"))
	assert.Nil(t, parseList(" , ,"))
	assert.Nil(t, parseList(""))
}

func TestParseIntList(t *testing.T) {
	assert.Equal(t, []int{2012, 2013}, parseIntList("2012, 2013"))
	assert.Equal(t, []int{2012}, parseIntList("2012, oops"))
	assert.Nil(t, parseIntList("oops"))
}

func TestParseDate(t *testing.T) {
	d, ok := parseDate("20120405")
	assert.True(t, ok)
	assert.Equal(t, 2012, d.Year())

	for _, bad := range []string{"2012-04-05", "201204", "99999999", ""} {
		_, ok := parseDate(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseDays(t *testing.T) {
	n, ok := parseDays(" 30 ")
	assert.True(t, ok)
	assert.Equal(t, 30, n)

	_, ok = parseDays("-1")
	assert.False(t, ok)
	_, ok = parseDays("soon")
	assert.False(t, ok)
}

func TestCheckParameter(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"tag list", Condition{KindTag, OpIn, "mecha, drama"}, true},
		{"tag empty", Condition{KindTag, OpIn, " , "}, false},
		{"year", Condition{KindYear, OpIn, "2012"}, true},
		{"year garbage", Condition{KindYear, OpIn, "oops"}, false},
		{"date", Condition{KindAirDate, OpGreaterThan, "20120405"}, true},
		{"date garbage", Condition{KindAirDate, OpGreaterThan, "later"}, false},
		{"last x days", Condition{KindAirDate, OpLastXDays, "30"}, true},
		{"last x days garbage", Condition{KindAirDate, OpLastXDays, "soon"}, false},
		{"rating", Condition{KindAniDBRating, OpGreaterThan, "8.5"}, true},
		{"rating garbage", Condition{KindAniDBRating, OpGreaterThan, "high"}, false},
		{"group id", Condition{KindAnimeGroup, OpEquals, "42"}, true},
		{"group id zero", Condition{KindAnimeGroup, OpEquals, "0"}, false},
		{"flag takes no parameter", Condition{Kind: KindFavourite, Operator: OpInclude}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckParameter(tt.cond))
		})
	}
}
