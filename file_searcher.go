package ncl

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// fileFrame is one level of FileSearcher's iterator stack: the on-disk
// region [regionOffset, regionOffset+regionLen) currently being scanned
// (the top list or one sublist), whether a sparse-index segment covers it,
// and the single currently-loaded block plus the cursor into it. This
// is the file-backed analogue of search.go's frame, widened with the
// bookkeeping needed to fetch the next block on demand.
type fileFrame struct {
	regionOffset, regionLen int32

	indexed bool

	block      []Record
	blockStart int32 // region-relative index of block[0]
	blockLen   int32
	cursor     int32 // region-relative index of the next record to examine
}

// FileResume is the suspended state of a FileSearcher.Search call that
// filled its caller's buffer before the traversal completed.
type FileResume struct {
	frames       []fileFrame
	qStart, qEnd Pos
	negative     bool
}

// FileSearcher answers overlap queries against an on-disk bundle written by
// Serialize, reading .idb blocks on demand instead of loading the whole
// index into RAM. The index table and header table are read in full at
// Open time; only .idb is read lazily. A FileSearcher is not safe for
// concurrent Search calls (the underlying file handle has one seek
// position); use Reopen to get an independent handle onto the same bundle.
type FileSearcher struct {
	ctx  context.Context
	stem string
	div  int32

	n, ntop, nlists, nii int

	headers []Header
	index   []blockIndexEntry
	// segOf[k] gives the sparse-index segment for header k, valid only when
	// headers[k].Len > div (a "big" sublist; small ones have no segment and
	// are read in full instead).
	segOf []struct{ start, count int32 }
	topSeg struct{ start, count int32 }

	idb   file.File
	idbR  io.ReadSeeker
	mm    *mmapFile
	mmapWanted bool
}

// OpenOpts controls how Open attaches to an on-disk bundle.
type OpenOpts struct {
	// Mmap opts into a memory-mapped .idb read path instead of seek+read,
	// on GOOS where mmap_unix.go applies. Ignored (silently falls back to
	// seek+read) on other platforms, for a non-local stem, or for an empty
	// .idb file.
	Mmap bool
	// VerifyChecksum, if set, checks stem+".sum" against the .idb contents
	// and fails Open on mismatch. A missing .sum file is never an error.
	VerifyChecksum bool
}

// Open reads the four-file bundle at stem and returns a ready FileSearcher.
// On any failure, whatever was already opened or allocated is released
// before Open returns, per spec.md's error-handling design.
func Open(ctx context.Context, stem string, opts OpenOpts) (fs *FileSearcher, err error) {
	if opts.VerifyChecksum {
		if err := VerifyChecksum(ctx, stem); err != nil {
			return nil, err
		}
	}

	fs = &FileSearcher{ctx: ctx, stem: stem}

	n, ntop, div, nlists, nii, err := readSizeFile(ctx, stem+".size")
	if err != nil {
		return nil, err
	}
	fs.n, fs.ntop, fs.div, fs.nlists, fs.nii = n, ntop, div, nlists, nii

	fs.headers, err = readHeaders(ctx, stem+".subhead", nlists)
	if err != nil {
		return nil, err
	}
	fs.index, err = readBlockIndex(ctx, stem+".index", nii)
	if err != nil {
		return nil, err
	}

	fs.topSeg.start, fs.topSeg.count = 0, int32(ceilDiv(ntop, int(div)))
	fs.segOf = make([]struct{ start, count int32 }, nlists)
	next := fs.topSeg.count
	for k, h := range fs.headers {
		if h.Len > div {
			cnt := int32(ceilDiv(int(h.Len), int(div)))
			fs.segOf[k] = struct{ start, count int32 }{next, cnt}
			next += cnt
		}
	}

	fs.idb, err = file.Open(ctx, stem+".idb")
	if err != nil {
		return nil, ioErr(err, stem+".idb")
	}
	fs.idbR = fs.idb.Reader(ctx)
	fs.mmapWanted = opts.Mmap

	if opts.Mmap {
		if mm, ok, merr := mmapOpen(stem + ".idb"); merr == nil && ok {
			fs.mm = mm
		}
	}

	log.Printf("ncl.Open: %s: %d record(s), ntop=%d, div=%d, %d sublist(s), %d index entries, mmap=%v",
		stem, n, ntop, div, nlists, nii, fs.mm != nil)
	return fs, nil
}

// Reopen returns an independent FileSearcher over the same bundle, with its
// own file handle and its own iterator state, sharing the (read-only)
// header and index tables this one already loaded. This is the file-backed
// analogue of BEDUnion.Clone: callers that want to search the same bundle
// from multiple goroutines need one handle each.
func (fs *FileSearcher) Reopen() (*FileSearcher, error) {
	nfs := &FileSearcher{
		ctx: fs.ctx, stem: fs.stem, div: fs.div,
		n: fs.n, ntop: fs.ntop, nlists: fs.nlists, nii: fs.nii,
		headers: fs.headers, index: fs.index,
		segOf: fs.segOf, topSeg: fs.topSeg,
		mmapWanted: fs.mmapWanted,
	}
	idb, err := file.Open(fs.ctx, fs.stem+".idb")
	if err != nil {
		return nil, ioErr(err, fs.stem+".idb")
	}
	nfs.idb = idb
	nfs.idbR = idb.Reader(fs.ctx)
	if fs.mmapWanted {
		if mm, ok, merr := mmapOpen(fs.stem + ".idb"); merr == nil && ok {
			nfs.mm = mm
		}
	}
	return nfs, nil
}

// Close releases the file handle (and mapping, if one was used). It does
// not affect any other FileSearcher returned by Reopen.
func (fs *FileSearcher) Close() error {
	var rep errorreporter.T
	if fs.idb != nil {
		rep.Set(fs.idb.Close(fs.ctx))
	}
	rep.Set(fs.mm.close())
	return rep.Err()
}

func readSizeFile(ctx context.Context, path string) (n, ntop int, div int32, nlists, nii int, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return 0, 0, 0, 0, 0, ioErr(err, path)
	}
	defer f.Close(ctx) // nolint: errcheck

	buf, err := io.ReadAll(f.Reader(ctx))
	if err != nil {
		return 0, 0, 0, 0, 0, ioErr(err, path)
	}
	var divInt int
	if _, serr := fmt.Sscanf(strings.TrimSpace(string(buf)), sizeLineScan, &n, &ntop, &divInt, &nlists, &nii); serr != nil {
		return 0, 0, 0, 0, 0, shortReadErr("%s: malformed size file: %v", path, serr)
	}
	return n, ntop, int32(divInt), nlists, nii, nil
}

func readHeaders(ctx context.Context, path string, nlists int) ([]Header, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, ioErr(err, path)
	}
	defer f.Close(ctx) // nolint: errcheck

	buf := make([]byte, headerWidth*nlists)
	if _, err := io.ReadFull(f.Reader(ctx), buf); err != nil {
		return nil, shortReadErr("%s: %v", path, err)
	}
	headers := make([]Header, nlists)
	for k := range headers {
		headers[k] = decodeHeader(buf[k*headerWidth : (k+1)*headerWidth])
	}
	return headers, nil
}

func readBlockIndex(ctx context.Context, path string, nii int) ([]blockIndexEntry, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, ioErr(err, path)
	}
	defer f.Close(ctx) // nolint: errcheck

	buf := make([]byte, blockIndexWidth*nii)
	if _, err := io.ReadFull(f.Reader(ctx), buf); err != nil {
		return nil, shortReadErr("%s: %v", path, err)
	}
	index := make([]blockIndexEntry, nii)
	for k := range index {
		index[k] = decodeBlockIndexEntry(buf[k*blockIndexWidth : (k+1)*blockIndexWidth])
	}
	return index, nil
}

// readRegionRecords reads count records starting at the absolute record
// offset recOffset from .idb, reusing dst's backing array when possible.
func (fs *FileSearcher) readRegionRecords(dst []Record, recOffset, count int32) ([]Record, error) {
	byteOff := int64(recOffset) * recordWidth
	n := int(count)
	if fs.mm != nil {
		end := byteOff + int64(n)*recordWidth
		if end > int64(len(fs.mm.data)) {
			return nil, shortReadErr("%s.idb: want %d bytes at %d, have %d", fs.stem, end-byteOff, byteOff, len(fs.mm.data))
		}
		return decodeRecords(dst, fs.mm.data[byteOff:end], n), nil
	}
	if _, err := fs.idbR.Seek(byteOff, io.SeekStart); err != nil {
		return nil, ioErr(err, fs.stem+".idb")
	}
	buf := make([]byte, n*recordWidth)
	if _, err := io.ReadFull(fs.idbR, buf); err != nil {
		return nil, shortReadErr("%s.idb: %v", fs.stem, err)
	}
	return decodeRecords(dst, buf, n), nil
}

// newFileFrame opens a fresh frame over the on-disk region
// [regionOffset, regionOffset+regionLen) -- the top list or one sublist --
// positioned at the first record overlapping qStart, or reports ok=false if
// the region has no such record.
func (fs *FileSearcher) newFileFrame(regionOffset, regionLen int32, indexed bool, seg struct{ start, count int32 }, qStart Pos) (fr fileFrame, ok bool, err error) {
	fr = fileFrame{regionOffset: regionOffset, regionLen: regionLen, indexed: indexed}
	if regionLen == 0 {
		return fr, false, nil
	}

	var blockRecOffset, blockLen int32
	if indexed {
		k := int32(sort.Search(int(seg.count), func(i int) bool {
			return fs.index[int(seg.start)+i].Hi > qStart
		}))
		if k >= seg.count {
			return fr, false, nil
		}
		blockRecOffset = k * fs.div
		blockLen = fs.div
		if blockRecOffset+blockLen > regionLen {
			blockLen = regionLen - blockRecOffset
		}
		fr.blockStart = blockRecOffset
	} else {
		blockRecOffset = 0
		blockLen = regionLen
		fr.blockStart = 0
	}

	fr.block, err = fs.readRegionRecords(nil, regionOffset+blockRecOffset, blockLen)
	if err != nil {
		return fr, false, err
	}
	fr.blockLen = blockLen

	idx, ok := findOverlapStart(fr.block, 0, blockLen, qStart)
	if !ok {
		return fr, false, nil
	}
	fr.cursor = fr.blockStart + idx
	return fr, true, nil
}

// advanceBlock loads the block containing fr.cursor when the cursor has
// moved past the currently loaded one. Only indexed regions have more than
// one block; unindexed (small sublist) regions load everything up front in
// newFileFrame.
func (fs *FileSearcher) advanceBlock(fr *fileFrame) error {
	if fr.cursor >= fr.regionLen {
		return nil // exhausted; caller pops on the next check
	}
	if fr.cursor < fr.blockStart+fr.blockLen {
		return nil
	}
	if !fr.indexed {
		return nil // exhausted; caller pops on the next regionLen check
	}
	blockRecOffset := (fr.cursor / fs.div) * fs.div
	blockLen := fs.div
	if blockRecOffset+blockLen > fr.regionLen {
		blockLen = fr.regionLen - blockRecOffset
	}
	var err error
	fr.block, err = fs.readRegionRecords(fr.block, fr.regionOffset+blockRecOffset, blockLen)
	if err != nil {
		return err
	}
	fr.blockStart, fr.blockLen = blockRecOffset, blockLen
	return nil
}

// Search is the file-backed analogue of Searcher.Search: see its doc
// comment for the buffer/resume/orientation contract, which is identical
// here. The only difference is that records are fetched from .idb one
// block at a time instead of being already resident.
func (fs *FileSearcher) Search(qStart, qEnd Pos, buf []Record, resume *FileResume) (n int, next *FileResume, err error) {
	var st FileResume
	if resume != nil {
		st = *resume
	} else {
		nStart, nEnd, neg := normalizeQuery(qStart, qEnd)
		st.qStart, st.qEnd, st.negative = nStart, nEnd, neg
		fr, ok, ferr := fs.newFileFrame(0, int32(fs.ntop), true, fs.topSeg, nStart)
		if ferr != nil {
			return 0, nil, ferr
		}
		if !ok {
			return 0, nil, nil
		}
		st.frames = []fileFrame{fr}
	}

	for len(st.frames) > 0 {
		ti := len(st.frames) - 1
		fr := &st.frames[ti]

		if err := fs.advanceBlock(fr); err != nil {
			return n, nil, err
		}
		if fr.cursor >= fr.regionLen {
			st.frames = st.frames[:ti]
			continue
		}
		rec := fr.block[fr.cursor-fr.blockStart]
		if !overlaps(rec, st.qStart, st.qEnd) {
			st.frames = st.frames[:ti]
			continue
		}

		fr.cursor++

		if rec.Sublist >= 0 {
			h := fs.headers[rec.Sublist]
			indexed := h.Len > fs.div
			seg := fs.segOf[rec.Sublist]
			child, ok, ferr := fs.newFileFrame(h.Start, h.Len, indexed, seg, st.qStart)
			if ferr != nil {
				return n, nil, ferr
			}
			if ok {
				st.frames = append(st.frames, child)
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
			frames := make([]fileFrame, len(st.frames))
			copy(frames, st.frames)
			st.frames = frames
			return n, &st, nil
		}
	}
	return n, nil, nil
}
