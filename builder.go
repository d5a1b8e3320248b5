package ncl

import (
	"sort"

	"github.com/grailbio/base/log"
)

// BuildOpts controls Build's behavior.
type BuildOpts struct {
	// MergeOrientations, when set, normalizes negative-start records to
	// positive orientation on entry (see Normalize) and tags them so Search
	// can restore and filter on orientation later. When unset, every input
	// record's Start is assumed to already be non-negative.
	MergeOrientations bool
}

// Build turns an arbitrary-order slice of records, all with Sublist == -1,
// into a Nested Containment List: records is reordered in place so that
// records[0:ntop] is the top-level list in ascending Start, and
// records[ntop:] is the concatenation of sublists, each internally sorted
// by Start. headers[k] describes sublist k as a (start, len) pair into
// records; a record belongs to sublist records[headers[k].Start :
// headers[k].Start+headers[k].Len].
//
// Build implements spec.md §4.2, including reusing Record.Sublist as
// scratch space for three distinct meanings across the algorithm's phases
// (see DESIGN.md): first the index of the record's immediate container
// while the implicit stack is threaded through the sorted array, then the
// newly assigned header id for that container's children, and finally the
// header id of the record's own children for lookup at search time, or -1
// for a record that contains nothing.
func Build(records []Record, opts BuildOpts) (ntop int, headers []Header, err error) {
	n := len(records)
	for i := range records {
		if opts.MergeOrientations {
			Normalize(&records[i])
		}
		if reservedSentinel(records[i]) {
			return 0, nil, ErrReservedCoordinate
		}
	}

	sort.Slice(records, func(a, b int) bool {
		ra, rb := records[a], records[b]
		if ra.Start != rb.Start {
			return ra.Start < rb.Start
		}
		return ra.End > rb.End // longer (containing) interval sorts first
	})

	nsub := 0
	i := 0
	for i < n {
		parent := i
		i = parent + 1
		for i < n && parent >= 0 {
			if records[i].End <= records[parent].End {
				records[i].Sublist = int32(parent)
				nsub++
				parent = i
				i++
			} else {
				parent = records[parent].Sublist
			}
		}
	}

	if nsub == 0 {
		log.Printf("ncl.Build: %d record(s), no containment, ntop=%d", n, n)
		return n, nil, nil
	}

	type subEntry struct {
		origIndex int32
		headerID  int32
	}
	imsub := make([]subEntry, 0, nsub)
	nlists := int32(0)
	for i := 0; i < n; i++ {
		parent := records[i].Sublist
		if parent >= 0 {
			if records[parent].Sublist < 0 {
				records[parent].Sublist = nlists
				nlists++
			}
			imsub = append(imsub, subEntry{origIndex: int32(i), headerID: records[parent].Sublist})
		}
		records[i].Sublist = noSublist
	}

	sort.Slice(imsub, func(a, b int) bool {
		if imsub[a].headerID != imsub[b].headerID {
			return imsub[a].headerID < imsub[b].headerID
		}
		return imsub[a].origIndex < imsub[b].origIndex
	})

	headers = make([]Header, nlists)
	packed := make([]Record, nsub)
	for i, e := range imsub {
		packed[i] = records[e.origIndex]
		if headers[e.headerID].Len == 0 {
			headers[e.headerID].Start = int32(i)
		}
		headers[e.headerID].Len++
		records[e.origIndex].Start, records[e.origIndex].End = -1, -1 // mark for compaction
	}

	j := 0
	for i := 0; i < n; i++ {
		if records[i].Start != -1 || records[i].End != -1 {
			if j < i {
				records[j] = records[i]
			}
			j++
		}
	}
	copy(records[j:], packed)
	for k := range headers {
		headers[k].Start += int32(j)
	}

	log.Printf("ncl.Build: %d record(s), ntop=%d, %d sublist(s), %d contained record(s)", n, j, nlists, nsub)
	return j, headers, nil
}
