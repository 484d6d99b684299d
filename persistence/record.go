package persistence

import (
	"encoding/binary"
	"fmt"
	"math"
)

// RecordWriter appends little-endian fields to an in-memory record.
type RecordWriter struct {
	b []byte
}

// Bytes returns the encoded record.
func (w *RecordWriter) Bytes() []byte { return w.b }

func (w *RecordWriter) WriteUint8(v uint8) { w.b = append(w.b, v) }

func (w *RecordWriter) WriteUint32(v uint32) { w.b = binary.LittleEndian.AppendUint32(w.b, v) }

func (w *RecordWriter) WriteUint64(v uint64) { w.b = binary.LittleEndian.AppendUint64(w.b, v) }

// WriteString writes a uint32 length prefix followed by the bytes of s.
func (w *RecordWriter) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.b = append(w.b, s...)
}

// SliceReader provides bounds-checked reads from a byte slice.
type SliceReader struct {
	b   []byte
	off int
}

func NewSliceReader(b []byte) *SliceReader {
	return &SliceReader{b: b}
}

func (r *SliceReader) Offset() int { return r.off }

// Len returns the number of unread bytes.
func (r *SliceReader) Len() int { return len(r.b) - r.off }

func (r *SliceReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > len(r.b)-r.off {
		return nil, fmt.Errorf("%w: %d bytes at %d, len=%d", ErrTruncated, n, r.off, len(r.b))
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *SliceReader) ReadUint8() (uint8, error) {
	b, err := r.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *SliceReader) ReadUint32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *SliceReader) ReadUint64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *SliceReader) ReadString() (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if uint64(n) > math.MaxInt32 {
		return "", fmt.Errorf("%w: string length %d", ErrTruncated, n)
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
