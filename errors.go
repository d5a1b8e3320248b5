package ncl

import (
	"errors"
	"fmt"

	baseerrors "github.com/grailbio/base/errors"
)

// Sentinel errors for the kinds spec.md §7 names. Callers distinguish them
// with errors.Is; NoHit is not among them because it isn't an error (Search
// returns a zero count and a nil resume handle instead).
var (
	// ErrAllocation marks an aborted operation that could not acquire the
	// scratch space it needed (header table, iterator frame, block buffer).
	ErrAllocation = errors.New("ncl: allocation failure")
	// ErrIO marks a failure opening, reading or writing one of the bundle
	// files.
	ErrIO = errors.New("ncl: i/o failure")
	// ErrShortRead marks a record count that didn't match what the caller
	// promised, whether during ingestion or while reading a bundle file.
	ErrShortRead = errors.New("ncl: short read or record count mismatch")
	// ErrReservedCoordinate marks an input record whose stored (start, end)
	// would collide with the (-1,-1) sentinel Build uses internally during
	// compaction. See spec.md's Open Questions and DESIGN.md.
	ErrReservedCoordinate = errors.New("ncl: (-1,-1) is a reserved coordinate pair")
)

// ioErr wraps err as an ErrIO identifying path, the way
// encoding/pam/pamutil.ReadShardIndex attaches a path to the errors it
// returns.
func ioErr(err error, path string) error {
	return baseerrors.E(fmt.Errorf("%w: %s", ErrIO, path), err)
}

func shortReadErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrShortRead, fmt.Sprintf(format, args...))
}

func allocErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrAllocation, fmt.Sprintf(format, args...))
}
