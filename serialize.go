package ncl

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// SerializeOpts controls how Serialize lays out the on-disk bundle.
type SerializeOpts struct {
	// Div is the block size: records per .idb block, and the sparse-index
	// granularity. Must be >= 1; a typical value is 256-4096. Defaults to
	// 256 if zero.
	Div int32
	// Checksum, if set, also writes a stem+".sum" seahash digest of the
	// .idb file alongside the four bundle files. See checksum.go.
	Checksum bool
}

const defaultDiv = 256

// Serialize writes the four-file bundle stem+".idb", stem+".subhead",
// stem+".index", stem+".size" for a built index (the output of Build).
// Before anything is written, repackSubheaders rewrites every record's
// Sublist field in place to the repacked header order (headers itself is not
// modified), so records no longer pairs with headers afterward and callers
// should treat them as consumed, the way the original's write_binary_files
// does.
//
// The .idb, .subhead and .index files are held open together and closed on
// the way out regardless of which write failed; errorreporter.T collects
// their close errors, which are returned only when no write failed.
func Serialize(ctx context.Context, stem string, records []Record, ntop int, headers []Header, opts SerializeOpts) (err error) {
	div := opts.Div
	if div < 1 {
		div = defaultDiv
	}

	packedHeaders, nbig := repackSubheaders(records, headers, div)

	idbPath, subheadPath, indexPath, sizePath := stem+".idb", stem+".subhead", stem+".index", stem+".size"

	idbFile, err := file.Create(ctx, idbPath)
	if err != nil {
		return ioErr(err, idbPath)
	}
	subheadFile, err := file.Create(ctx, subheadPath)
	if err != nil {
		idbFile.Close(ctx) // nolint: errcheck
		return ioErr(err, subheadPath)
	}
	indexFile, err := file.Create(ctx, indexPath)
	if err != nil {
		idbFile.Close(ctx)     // nolint: errcheck
		subheadFile.Close(ctx) // nolint: errcheck
		return ioErr(err, indexPath)
	}

	defer func() {
		var rep errorreporter.T
		rep.Set(idbFile.Close(ctx))
		rep.Set(subheadFile.Close(ctx))
		rep.Set(indexFile.Close(ctx))
		if err == nil {
			err = rep.Err()
		}
	}()

	idbW := idbFile.Writer(ctx)
	subheadW := subheadFile.Writer(ctx)
	indexW := indexFile.Writer(ctx)

	var filler Record
	if len(records) > 0 {
		filler = records[0]
	}

	recordsWritten := 0
	nii := 0

	top := records[:ntop]
	n, err := writeRecords(idbW, top, div, filler)
	if err != nil {
		return ioErr(err, idbPath)
	}
	recordsWritten += n
	if err := writeBlockIndex(indexW, top, div); err != nil {
		return ioErr(err, indexPath)
	}
	nii += ceilDiv(len(top), int(div))

	for k, h := range packedHeaders {
		sub := records[h.Start : h.Start+h.Len]
		onDisk := Header{Start: int32(recordsWritten), Len: h.Len}
		if err := writeHeaderEntry(subheadW, onDisk); err != nil {
			return ioErr(err, subheadPath)
		}

		big := k < nbig
		n, err := writeRecords(idbW, sub, pickDiv(big, div), filler)
		if err != nil {
			return ioErr(err, idbPath)
		}
		recordsWritten += n

		if big {
			if err := writeBlockIndex(indexW, sub, div); err != nil {
				return ioErr(err, indexPath)
			}
			nii += ceilDiv(len(sub), int(div))
		}
	}

	sizeFile, err := file.Create(ctx, sizePath)
	if err != nil {
		return ioErr(err, sizePath)
	}
	line := fmt.Sprintf(sizeLineTemplate, len(records), ntop, div, len(packedHeaders), nii)
	_, werr := io.WriteString(sizeFile.Writer(ctx), line)
	cerr := sizeFile.Close(ctx)
	if werr != nil {
		return ioErr(werr, sizePath)
	}
	if cerr != nil {
		return ioErr(cerr, sizePath)
	}

	log.Printf("ncl.Serialize: %s: %d record(s), ntop=%d, %d sublist(s) (%d big), div=%d, %d index entries",
		stem, len(records), ntop, len(packedHeaders), nbig, div, nii)

	if opts.Checksum {
		if err := WriteChecksum(ctx, stem); err != nil {
			return err
		}
	}
	return nil
}

// pickDiv returns div if the region should be padded to a block multiple
// (big sublists and the top list), or 0 (meaning "no padding") otherwise.
func pickDiv(pad bool, div int32) int32 {
	if pad {
		return div
	}
	return 0
}

func ceilDiv(n, div int) int {
	if div <= 0 {
		return 0
	}
	return (n + div - 1) / div
}

// writeRecords writes recs to w, padding with copies of filler up to the
// next multiple of div if div > 0. It returns the total record count
// written including padding, i.e. how far the .idb file offset advanced.
func writeRecords(w io.Writer, recs []Record, div int32, filler Record) (int, error) {
	buf := make([]byte, recordWidth)
	for _, r := range recs {
		encodeRecord(buf, r)
		if _, err := w.Write(buf); err != nil {
			return 0, err
		}
	}
	n := len(recs)
	if div <= 0 {
		return n, nil
	}
	pad := 0
	if rem := n % int(div); rem != 0 {
		pad = int(div) - rem
	}
	if pad > 0 {
		encodeRecord(buf, filler)
		for i := 0; i < pad; i++ {
			if _, err := w.Write(buf); err != nil {
				return 0, err
			}
		}
	}
	return n + pad, nil
}

func writeHeaderEntry(w io.Writer, h Header) error {
	buf := make([]byte, headerWidth)
	encodeHeader(buf, h)
	_, err := w.Write(buf)
	return err
}

// writeBlockIndex emits one (lo, hi) pair per div-sized chunk of recs (the
// last chunk may be partial), derived from the logical record count, never
// from any padding writeRecords may have added to the .idb file.
func writeBlockIndex(w io.Writer, recs []Record, div int32) error {
	buf := make([]byte, blockIndexWidth)
	n := len(recs)
	for lo := 0; lo < n; lo += int(div) {
		hi := lo + int(div)
		if hi > n {
			hi = n
		}
		start, _ := positiveBounds(recs[lo])
		_, end := positiveBounds(recs[hi-1])
		encodeBlockIndexEntry(buf, blockIndexEntry{Lo: start, Hi: end})
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
