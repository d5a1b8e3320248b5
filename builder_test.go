package ncl

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNoContainment(t *testing.T) {
	records := []Record{
		{Start: 30, End: 40, Sublist: noSublist},
		{Start: 0, End: 10, Sublist: noSublist},
		{Start: 50, End: 60, Sublist: noSublist},
	}
	ntop, headers, err := Build(records, BuildOpts{})
	require.NoError(t, err)
	assert.Equal(t, 3, ntop)
	assert.Empty(t, headers)
	got := make([]Pos, ntop)
	for i := 0; i < ntop; i++ {
		got[i] = records[i].Start
	}
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i] < got[j] }))
}

func TestBuildNestedContainment(t *testing.T) {
	// A [0,100) contains B [10,20) and C [30,40); B contains D [12,15).
	records := []Record{
		{Start: 0, End: 100, TargetID: 1, Sublist: noSublist},
		{Start: 10, End: 20, TargetID: 2, Sublist: noSublist},
		{Start: 30, End: 40, TargetID: 3, Sublist: noSublist},
		{Start: 12, End: 15, TargetID: 4, Sublist: noSublist},
	}
	ntop, headers, err := Build(records, BuildOpts{})
	require.NoError(t, err)
	// Only A has no container.
	require.Equal(t, 1, ntop)
	require.Len(t, headers, 2)

	s := NewSearcher(records, ntop, headers)

	// A query inside D's range must find A, B and D (D and its ancestors),
	// but not C.
	buf := make([]Record, 10)
	n, next := s.Search(13, 14, buf, nil)
	assert.Nil(t, next)
	gotTargets := map[int32]bool{}
	for i := 0; i < n; i++ {
		gotTargets[buf[i].TargetID] = true
	}
	assert.Equal(t, map[int32]bool{1: true, 2: true, 4: true}, gotTargets)

	// A query that only touches C finds A and C.
	n, next = s.Search(32, 33, buf, nil)
	assert.Nil(t, next)
	gotTargets = map[int32]bool{}
	for i := 0; i < n; i++ {
		gotTargets[buf[i].TargetID] = true
	}
	assert.Equal(t, map[int32]bool{1: true, 3: true}, gotTargets)
}

func TestBuildRejectsReservedCoordinate(t *testing.T) {
	records := []Record{
		{Start: -1, End: -1, Sublist: noSublist},
	}
	_, _, err := Build(records, BuildOpts{})
	assert.ErrorIs(t, err, ErrReservedCoordinate)
}

func TestBuildMergeOrientationsNormalizesNegativeRecords(t *testing.T) {
	records := []Record{
		{Start: -20, End: -10, TargetID: 1, Sublist: noSublist}, // negative orientation
		{Start: 5, End: 15, TargetID: 2, Sublist: noSublist},    // positive orientation
	}
	ntop, headers, err := Build(records, BuildOpts{MergeOrientations: true})
	require.NoError(t, err)
	assert.Empty(t, headers)
	assert.Equal(t, 2, ntop)
	for _, r := range records[:ntop] {
		assert.True(t, r.Start >= 0)
		if r.TargetID == 1 {
			assert.True(t, r.Reverse)
			assert.Equal(t, Pos(10), r.Start)
			assert.Equal(t, Pos(20), r.End)
		} else {
			assert.False(t, r.Reverse)
		}
	}
}
