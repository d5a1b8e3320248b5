package ncl

// repackSubheaders reorders headers so that "big" sublists (Len > div) occupy
// indices 0..nbig-1 and "small" ones (Len <= div) occupy the rest, preserving
// relative order within each class. It returns the reordered headers and the
// count of big ones, and rewrites every record's Sublist field through the
// resulting permutation so header references stay valid.
//
// This is repack_subheaders from the source database writer: the sparse
// block index in .index only covers big sublists (small ones are scanned
// whole), so the serializer needs them contiguous at the front of the header
// table before it can walk the table once to emit index entries.
func repackSubheaders(records []Record, headers []Header, div int32) (packed []Header, nbig int) {
	nlists := len(headers)
	perm := make([]int32, nlists) // perm[oldIndex] = newIndex
	packed = make([]Header, nlists)

	next := 0
	for i, h := range headers {
		if h.Len > div {
			perm[i] = int32(next)
			packed[next] = h
			next++
		}
	}
	nbig = next
	for i, h := range headers {
		if h.Len <= div {
			perm[i] = int32(next)
			packed[next] = h
			next++
		}
	}

	for i := range records {
		if records[i].Sublist >= 0 {
			records[i].Sublist = perm[records[i].Sublist]
		}
	}
	return packed, nbig
}
