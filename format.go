package ncl

import "encoding/binary"

// On-disk layout. The source format is native-endian with natural struct
// alignment; per spec.md's design notes this is a compatibility break worth
// taking, so the bundle here is a fixed little-endian layout with explicit
// field widths, close to how encoding/bam's .gbai index defines its entries.
//
// recordWidth also carries one field the in-memory Record struct needs but
// the distilled wire format doesn't mention: Reverse. Without persisting it,
// a file-backed searcher reopened from a bundle built with orientation
// merging would have no way to tell which records were originally negative,
// breaking the round-trip property for S4-style queries. See DESIGN.md.
const (
	recordWidth      = 4*6 + 1 // start,end,targetID,targetStart,targetEnd,sublist (int32) + reverse (byte)
	headerWidth      = 4 * 2   // start, len (int32)
	blockIndexWidth  = 4 * 2   // lo, hi (int32)
	sizeLineTemplate = "%d %d %d %d %d\n"
	sizeLineScan     = "%d %d %d %d %d"
)

func encodeRecord(buf []byte, r Record) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Start))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.End))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(r.TargetID))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.TargetStart))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(r.TargetEnd))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(r.Sublist))
	if r.Reverse {
		buf[24] = 1
	} else {
		buf[24] = 0
	}
}

func decodeRecord(buf []byte) Record {
	return Record{
		Start:       Pos(int32(binary.LittleEndian.Uint32(buf[0:4]))),
		End:         Pos(int32(binary.LittleEndian.Uint32(buf[4:8]))),
		TargetID:    int32(binary.LittleEndian.Uint32(buf[8:12])),
		TargetStart: Pos(int32(binary.LittleEndian.Uint32(buf[12:16]))),
		TargetEnd:   Pos(int32(binary.LittleEndian.Uint32(buf[16:20]))),
		Sublist:     int32(binary.LittleEndian.Uint32(buf[20:24])),
		Reverse:     buf[24] != 0,
	}
}

func encodeHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Start))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.Len))
}

func decodeHeader(buf []byte) Header {
	return Header{
		Start: int32(binary.LittleEndian.Uint32(buf[0:4])),
		Len:   int32(binary.LittleEndian.Uint32(buf[4:8])),
	}
}

// blockIndexEntry is one (lo, hi) pair of .index: lo is the positive-start
// of the first record in a block, hi the positive-end of the last.
type blockIndexEntry struct {
	Lo, Hi Pos
}

func encodeBlockIndexEntry(buf []byte, e blockIndexEntry) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(e.Lo))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(e.Hi))
}

// decodeRecords decodes n consecutive records from buf into dst, reusing
// dst's storage when it already has capacity for n (the file-backed
// searcher's per-frame block buffer).
func decodeRecords(dst []Record, buf []byte, n int) []Record {
	if cap(dst) < n {
		dst = make([]Record, n)
	} else {
		dst = dst[:n]
	}
	for i := 0; i < n; i++ {
		dst[i] = decodeRecord(buf[i*recordWidth : (i+1)*recordWidth])
	}
	return dst
}

func decodeBlockIndexEntry(buf []byte) blockIndexEntry {
	return blockIndexEntry{
		Lo: Pos(int32(binary.LittleEndian.Uint32(buf[0:4]))),
		Hi: Pos(int32(binary.LittleEndian.Uint32(buf[4:8]))),
	}
}

// positiveBounds returns the positive-orientation (start, end) of rec,
// regardless of whether rec is currently stored in its original sign. Build
// always leaves records in positive orientation, so this is simply
// rec.Start, rec.End; it exists as a named seam for the sparse-index writer
// in serialize.go, mirroring spec.md's positive_start/positive_end helpers.
func positiveBounds(rec Record) (Pos, Pos) {
	return rec.Start, rec.End
}
