package ncl

import "sort"

// frame is one level of the iterator stack: the record range [regionStart,
// regionEnd) of the list currently being scanned (the top list or a single
// sublist), and cursor, the next record to examine within it.
type frame struct {
	regionStart, regionEnd int32
	cursor                 int32
}

// Resume is the suspended state of a search that filled its caller's buffer
// before exhausting the containment forest. A nil Resume means the previous
// call ran to completion; passing one back into Search continues exactly
// where it left off.
type Resume struct {
	frames []frame
	qStart, qEnd Pos
	negative     bool
}

// Searcher answers overlap queries against a Nested Containment List built
// entirely in memory by Build. It is read-only and safe to share across
// concurrently running searches, so long as none of them mutate records or
// headers (Search never does).
type Searcher struct {
	records []Record
	ntop    int32
	headers []Header
}

// NewSearcher wraps the output of Build. records must be in the layout Build
// leaves it in: records[0:ntop] the top list ascending by Start, records[ntop:]
// the concatenated sublists addressed by headers.
func NewSearcher(records []Record, ntop int, headers []Header) *Searcher {
	return &Searcher{records: records, ntop: int32(ntop), headers: headers}
}

// findOverlapStart binary-searches records[lo:hi) for the lowest index whose
// End is greater than qStart. records[lo:hi) must be one NCL list: sorted
// ascending by Start, and, since no record in a list contains another,
// ascending by End too. ok reports whether such an index exists before hi;
// whether that record also starts before the query's end is left to the
// caller, which checks the full overlap before emitting it.
func findOverlapStart(records []Record, lo, hi int32, qStart Pos) (idx int32, ok bool) {
	k := sort.Search(int(hi-lo), func(k int) bool {
		return records[lo+int32(k)].End > qStart
	})
	i := lo + int32(k)
	return i, i < hi
}

// normalizeQuery puts a query range into positive orientation the same way
// Normalize does for a record, reporting whether it had to flip.
func normalizeQuery(qStart, qEnd Pos) (nStart, nEnd Pos, negative bool) {
	if qStart >= 0 {
		return qStart, qEnd, false
	}
	return -qEnd, -qStart, true
}

// Search reports every record overlapping [qStart, qEnd), writing up to
// len(buf) of them into buf and returning how many it filled. If the
// containment forest has more overlapping records than fit, it returns a
// non-nil Resume; pass it as resume on the next call (with the same buf,
// though it may be reused/resliced) to continue the same logical traversal.
// A nil resume result means the search is complete.
//
// When the index was built with BuildOpts.MergeOrientations, a negative
// qStart selects the reverse-oriented half of the index: Search restores
// each emitted record's original sign and only returns records that were
// themselves stored in that orientation (see DESIGN.md's note on this
// departure from the original reorient_intervals).
func (s *Searcher) Search(qStart, qEnd Pos, buf []Record, resume *Resume) (n int, next *Resume) {
	var st Resume
	if resume != nil {
		st = *resume
	} else {
		nStart, nEnd, neg := normalizeQuery(qStart, qEnd)
		st.qStart, st.qEnd, st.negative = nStart, nEnd, neg
		idx, ok := findOverlapStart(s.records, 0, s.ntop, nStart)
		if !ok {
			return 0, nil
		}
		st.frames = []frame{{regionStart: 0, regionEnd: s.ntop, cursor: idx}}
	}

	for len(st.frames) > 0 {
		ti := len(st.frames) - 1
		if st.frames[ti].cursor >= st.frames[ti].regionEnd {
			st.frames = st.frames[:ti]
			continue
		}
		rec := s.records[st.frames[ti].cursor]
		if !overlaps(rec, st.qStart, st.qEnd) {
			st.frames = st.frames[:ti]
			continue
		}

		st.frames[ti].cursor++ // advance now: the append below may reallocate st.frames

		if rec.Sublist >= 0 {
			h := s.headers[rec.Sublist]
			subLo, subHi := h.Start, h.Start+h.Len
			if idx, ok := findOverlapStart(s.records, subLo, subHi, st.qStart); ok {
				st.frames = append(st.frames, frame{regionStart: subLo, regionEnd: subHi, cursor: idx})
			}
		}

		if rec.Reverse != st.negative {
			continue
		}
		if st.negative {
			restoreOrientation(&rec)
		}
		buf[n] = rec
		n++
		if n == len(buf) {
			frames := make([]frame, len(st.frames))
			copy(frames, st.frames)
			st.frames = frames
			return n, &st
		}
	}
	return n, nil
}
