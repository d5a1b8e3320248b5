// +build !linux,!darwin

package ncl

// mmapFile is unused on platforms without a mmap implementation wired up
// here; see mmap_unix.go.
type mmapFile struct{}

// mmapOpen always reports unavailable outside mmap_unix.go's build
// constraint, so FileSearcher falls back to its portable Seek+Read path.
func mmapOpen(path string) (m *mmapFile, ok bool, err error) {
	return nil, false, nil
}

func (m *mmapFile) close() error {
	return nil
}
