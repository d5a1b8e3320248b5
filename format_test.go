package ncl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	tests := []Record{
		{Start: 0, End: 0, TargetID: 0, TargetStart: 0, TargetEnd: 0, Sublist: noSublist, Reverse: false},
		{Start: 10, End: 20, TargetID: 7, TargetStart: -100, TargetEnd: -90, Sublist: 3, Reverse: true},
		{Start: PosMax, End: PosMax, TargetID: -1, TargetStart: PosMax, TargetEnd: 0},
	}
	for _, rec := range tests {
		buf := make([]byte, recordWidth)
		encodeRecord(buf, rec)
		assert.Equal(t, rec, decodeRecord(buf))
	}
}

func TestDecodeRecordsReusesCapacity(t *testing.T) {
	recs := []Record{
		{Start: 1, End: 2, Sublist: noSublist},
		{Start: 3, End: 4, Sublist: noSublist},
		{Start: 5, End: 6, Sublist: noSublist},
	}
	buf := make([]byte, recordWidth*len(recs))
	for i, r := range recs {
		encodeRecord(buf[i*recordWidth:(i+1)*recordWidth], r)
	}

	dst := make([]Record, 0, len(recs))
	got := decodeRecords(dst, buf, len(recs))
	assert.Equal(t, recs, got)
	assert.Same(t, &dst[:1][0], &got[0], "a dst with enough capacity is reused")

	// A dst with insufficient capacity gets reallocated, not overrun.
	small := make([]Record, 1)
	got2 := decodeRecords(small, buf, len(recs))
	assert.Equal(t, recs, got2)
}

func TestEncodeDecodeHeaderRoundTrip(t *testing.T) {
	h := Header{Start: 123, Len: 456}
	buf := make([]byte, headerWidth)
	encodeHeader(buf, h)
	assert.Equal(t, h, decodeHeader(buf))
}

func TestEncodeDecodeBlockIndexEntryRoundTrip(t *testing.T) {
	e := blockIndexEntry{Lo: 5, Hi: 5000}
	buf := make([]byte, blockIndexWidth)
	encodeBlockIndexEntry(buf, e)
	assert.Equal(t, e, decodeBlockIndexEntry(buf))
}

func TestPositiveBounds(t *testing.T) {
	rec := Record{Start: 10, End: 20}
	lo, hi := positiveBounds(rec)
	assert.Equal(t, Pos(10), lo)
	assert.Equal(t, Pos(20), hi)
}
