package ncl

import (
	"context"
	"encoding/hex"
	"hash"
	"io"
	"strings"

	"github.com/blainsmith/seahash"
	baseerrors "github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// WriteChecksum computes a seahash digest over stem+".idb"'s contents and
// writes it, hex-encoded, to stem+".sum". This is an optional fifth file:
// Open and Serialize work without it, and its presence or absence never
// changes the four-file contract spec.md describes. It exists so a caller
// that copies a bundle around can cheaply detect corruption, the same role
// cmd/bio-pamtool/checksum's digest plays for a BAM file.
func WriteChecksum(ctx context.Context, stem string) (err error) {
	sum, err := bundleChecksum(ctx, stem)
	if err != nil {
		return err
	}
	out, err := file.Create(ctx, stem+".sum")
	if err != nil {
		return ioErr(err, stem+".sum")
	}
	_, werr := io.WriteString(out.Writer(ctx), hex.EncodeToString(sum)+"\n")
	cerr := out.Close(ctx)
	if werr != nil {
		return ioErr(werr, stem+".sum")
	}
	return ioErrIfNotNil(cerr, stem+".sum")
}

// VerifyChecksum recomputes the digest of stem+".idb" and compares it
// against stem+".sum", returning an error if they disagree or the .sum
// file is malformed. A missing .sum file is not an error: older bundles
// simply have none.
func VerifyChecksum(ctx context.Context, stem string) error {
	in, err := file.Open(ctx, stem+".sum")
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return ioErr(err, stem+".sum")
	}
	raw, err := io.ReadAll(in.Reader(ctx))
	_ = in.Close(ctx) // nolint: errcheck
	if err != nil {
		return ioErr(err, stem+".sum")
	}
	want, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return shortReadErr("%s.sum: malformed checksum: %v", stem, err)
	}
	got, err := bundleChecksum(ctx, stem)
	if err != nil {
		return err
	}
	if string(got) != string(want) {
		return shortReadErr("%s: checksum mismatch", stem)
	}
	return nil
}

// isNotExist reports whether err is a file.Open "not found" error, the way
// fieldio.NewReader distinguishes a missing optional field file from a real
// I/O failure.
func isNotExist(err error) bool {
	e, ok := err.(*baseerrors.Error)
	return ok && e.Kind == baseerrors.NotExist
}

func bundleChecksum(ctx context.Context, stem string) ([]byte, error) {
	h := seahash.New()
	if err := hashFile(ctx, h, stem+".idb"); err != nil {
		return nil, err
	}
	return sum64Bytes(h), nil
}

func hashFile(ctx context.Context, h hash.Hash64, path string) error {
	f, err := file.Open(ctx, path)
	if err != nil {
		return ioErr(err, path)
	}
	defer f.Close(ctx) // nolint: errcheck
	if _, err := io.Copy(h, f.Reader(ctx)); err != nil {
		return ioErr(err, path)
	}
	return nil
}

func sum64Bytes(h hash.Hash64) []byte {
	v := h.Sum64()
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	return buf
}

func ioErrIfNotNil(err error, path string) error {
	if err == nil {
		return nil
	}
	return ioErr(err, path)
}
