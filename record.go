package ncl

import "math"

// Pos is the coordinate type used by Record. int32 matches what the teacher
// package (github.com/grailbio/bio/interval) uses for BAM-derived
// coordinates, and is wide enough for any single contig.
type Pos int32

// PosMax is the largest representable Pos.
const PosMax = Pos(math.MaxInt32)

// noSublist is the sentinel stored in Record.Sublist when a record has no
// contained children.
const noSublist = int32(-1)

// Record is one interval-to-target mapping. It is the unit that Build,
// Searcher and the on-disk bundle all operate on; its wire layout is fixed
// by recordWidth in format.go.
type Record struct {
	// Start, End are the interval bounds. After Build, they are always in
	// positive orientation (Start < End); see Normalize.
	Start, End Pos
	// TargetID is an opaque identifier of the mapped-to entity.
	TargetID int32
	// TargetStart, TargetEnd are coordinates in the target. Their sign
	// independently encodes the orientation of the mapping and is untouched
	// by Normalize.
	TargetStart, TargetEnd Pos
	// Sublist indexes into the header table of the containing nested list,
	// or -1 if this record has no contained children. Build treats this
	// field as scratch space until construction completes (see DESIGN.md).
	Sublist int32
	// Reverse records whether this record's Start/End were flipped by
	// Normalize, i.e. whether the caller supplied it in negative
	// orientation. Only meaningful when the index was built with
	// BuildOpts.MergeOrientations; always false otherwise.
	Reverse bool
}

// Header describes one sublist: Start is an offset (a record index in
// memory, a record offset within the .idb file on disk) and Len is the
// sublist's record count.
type Header struct {
	Start, Len int32
}

// Normalize puts rec into positive orientation in place, returning whether
// it flipped the record. A record with Start >= 0 passes through untouched.
// One with Start < 0 denotes reverse orientation and is rewritten to its
// positive projection (-End, -Start). TargetStart/TargetEnd are left alone:
// their sign encodes the target mapping's orientation, a separate concern.
func Normalize(rec *Record) bool {
	if rec.Start >= 0 {
		return false
	}
	rec.Start, rec.End = -rec.End, -rec.Start
	rec.Reverse = true
	return true
}

// restoreOrientation swaps and negates both coordinate pairs of rec. On
// Start/End this undoes Normalize, so a caller sees the interval in the
// orientation it was originally supplied in; TargetStart/TargetEnd, which
// Normalize leaves alone, are swapped and negated as well. It is an
// involution: applying it twice leaves rec unchanged.
func restoreOrientation(rec *Record) {
	rec.Start, rec.End = -rec.End, -rec.Start
	rec.TargetStart, rec.TargetEnd = -rec.TargetEnd, -rec.TargetStart
}

// overlaps reports whether rec (in positive orientation) overlaps the
// half-open query [qStart, qEnd).
func overlaps(rec Record, qStart, qEnd Pos) bool {
	return rec.Start < qEnd && qStart < rec.End
}

// reservedSentinel reports whether rec, as it will be stored (after any
// Normalize call), collides with the (-1,-1) sentinel Build uses internally
// to mark compacted-away slots. See spec.md's Open Questions and DESIGN.md.
func reservedSentinel(rec Record) bool {
	return rec.Start == -1 && rec.End == -1
}
