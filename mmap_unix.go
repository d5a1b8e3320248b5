// +build linux darwin

package ncl

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile is a read-only memory mapping of a local .idb file, used by
// FileSearcher as a zero-copy alternative to Seek+Read when the bundle
// lives on local disk. This mirrors the cgo/nocgo split
// encoding/bgzf uses for its gzip backend: one file per build
// configuration, same exported surface.
type mmapFile struct {
	data []byte
}

// mmapOpen maps path read-only. ok is false (with a nil error) whenever
// mapping isn't applicable -- an empty file can't be mapped -- so callers
// fall back to the portable Seek+Read path instead of treating it as
// fatal.
func mmapOpen(path string) (m *mmapFile, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close() // nolint: errcheck

	fi, err := f.Stat()
	if err != nil {
		return nil, false, err
	}
	if fi.Size() == 0 {
		return nil, false, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, false, err
	}
	return &mmapFile{data: data}, true, nil
}

func (m *mmapFile) close() error {
	if m == nil || m.data == nil {
		return nil
	}
	return unix.Munmap(m.data)
}
