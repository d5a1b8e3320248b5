package ncl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         Record
		wantFlip   bool
		wantRecord Record
	}{
		{
			name:       "already positive",
			in:         Record{Start: 10, End: 20, TargetStart: 100, TargetEnd: 110},
			wantFlip:   false,
			wantRecord: Record{Start: 10, End: 20, TargetStart: 100, TargetEnd: 110},
		},
		{
			name:       "zero start stays positive",
			in:         Record{Start: 0, End: 5},
			wantFlip:   false,
			wantRecord: Record{Start: 0, End: 5},
		},
		{
			name:       "negative start flips to positive and tags Reverse",
			in:         Record{Start: -20, End: -10, TargetStart: 100, TargetEnd: 110},
			wantFlip:   true,
			wantRecord: Record{Start: 10, End: 20, TargetStart: 100, TargetEnd: 110, Reverse: true},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := tc.in
			got := Normalize(&rec)
			assert.Equal(t, tc.wantFlip, got)
			assert.Equal(t, tc.wantRecord, rec)
		})
	}
}

func TestRestoreOrientationAfterNormalize(t *testing.T) {
	orig := Record{Start: -20, End: -10, TargetStart: 100, TargetEnd: 110}
	rec := orig
	Normalize(&rec)
	restoreOrientation(&rec)
	// Start/End come back as supplied; the target pair, untouched by
	// Normalize, is swapped and negated.
	assert.Equal(t, orig.Start, rec.Start)
	assert.Equal(t, orig.End, rec.End)
	assert.Equal(t, -orig.TargetEnd, rec.TargetStart)
	assert.Equal(t, -orig.TargetStart, rec.TargetEnd)
}

func TestOverlaps(t *testing.T) {
	rec := Record{Start: 10, End: 20}
	tests := []struct {
		qStart, qEnd Pos
		want         bool
	}{
		{0, 10, false},  // touches but doesn't overlap (half-open)
		{0, 11, true},   // overlaps by one unit
		{19, 20, true},  // overlaps by one unit at the other edge
		{20, 30, false}, // touches but doesn't overlap
		{12, 15, true},  // fully contained query
		{5, 25, true},   // query fully contains record
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, overlaps(rec, tc.qStart, tc.qEnd), "query [%d,%d)", tc.qStart, tc.qEnd)
	}
}

func TestReservedSentinel(t *testing.T) {
	assert.True(t, reservedSentinel(Record{Start: -1, End: -1}))
	assert.False(t, reservedSentinel(Record{Start: -1, End: 5}))
	assert.False(t, reservedSentinel(Record{Start: 0, End: 0}))
}
