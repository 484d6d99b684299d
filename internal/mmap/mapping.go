package mmap

import (
	"io"
	"os"
	"sync/atomic"
)

// Mapping is a read-only view of a container file.
type Mapping struct {
	data   []byte
	unmap  func() error
	closed atomic.Bool
}

// Open maps the file at path. Empty files yield an empty mapping without a
// kernel mapping behind it.
func Open(path string, access Access) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if int64(int(size)) != size {
		return nil, ErrTooLarge
	}
	if size == 0 {
		return &Mapping{}, nil
	}

	data, unmap, err := osMap(f, int(size), access)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Size returns the file size in bytes.
func (m *Mapping) Size() int64 { return int64(len(m.data)) }

// Bytes returns the whole file, or nil once closed.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Range returns [off, off+n) without copying.
func (m *Mapping) Range(off, n int64) ([]byte, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if off < 0 || n < 0 || off+n > m.Size() {
		return nil, ErrOutOfBounds
	}
	return m.data[off : off+n], nil
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrOutOfBounds
	}
	if off >= m.Size() {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file. Slices handed out before must not be used after.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap()
}
