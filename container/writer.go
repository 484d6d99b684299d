package container

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/railrad/internal/compress"
	"github.com/hupe1980/railrad/internal/conv"
	"github.com/hupe1980/railrad/persistence"
)

// Writer appends datasets to w. Close must be called to write the directory;
// it does not close w.
type Writer struct {
	cw          *persistence.ChecksumWriter
	compression Compression
	entries     []Entry
	names       map[string]struct{}
	closed      bool
}

// NewWriter returns a Writer storing datasets with compression c.
func NewWriter(w io.Writer, c Compression) *Writer {
	return &Writer{
		cw:          persistence.NewChecksumWriter(w),
		compression: c,
		names:       make(map[string]struct{}),
	}
}

// PutFloat64s writes a float64 dataset. An empty shape means a 1-axis
// dataset of len(data).
func (w *Writer) PutFloat64s(name string, data []float64, shape ...int) error {
	return w.put(name, Float64, conv.Float64sToBytes(data), len(data), shape)
}

// PutComplex128s writes a complex128 dataset.
func (w *Writer) PutComplex128s(name string, data []complex128, shape ...int) error {
	return w.put(name, Complex128, conv.Complex128sToBytes(data), len(data), shape)
}

// PutInt64s writes an int64 dataset.
func (w *Writer) PutInt64s(name string, data []int64, shape ...int) error {
	return w.put(name, Int64, conv.Int64sToBytes(data), len(data), shape)
}

// PutBytes writes an opaque byte dataset.
func (w *Writer) PutBytes(name string, data []byte) error {
	return w.put(name, Bytes, data, len(data), nil)
}

func (w *Writer) put(name string, dt DType, raw []byte, n int, shape []int) error {
	if w.closed {
		return errors.New("container: writer closed")
	}
	if name == "" {
		return errors.New("container: empty dataset name")
	}
	if _, ok := w.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrExists, name)
	}
	if len(shape) == 0 {
		shape = []int{n}
	}
	vol := 1
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("container: %q has negative dimension in %v", name, shape)
		}
		vol *= d
	}
	if vol != n {
		return fmt.Errorf("container: %q shape %v does not match %d elements", name, shape, n)
	}

	frame, err := compress.Encode(raw, compress.Type(w.compression))
	if err != nil {
		return fmt.Errorf("container: compress %q: %w", name, err)
	}

	e := Entry{
		Name:        name,
		DType:       dt,
		Shape:       append([]int(nil), shape...),
		Compression: w.compression,
		Offset:      uint64(w.cw.Offset()),
		Stored:      uint64(len(frame)),
		Raw:         uint64(len(raw)),
		Checksum:    persistence.Checksum(raw),
	}
	if _, err := w.cw.Write(frame); err != nil {
		return err
	}
	w.entries = append(w.entries, e)
	w.names[name] = struct{}{}
	return nil
}

// Close writes the directory and trailer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	dir := encodeDirectory(w.entries)
	trailer := persistence.Trailer{
		Magic:       persistence.ContainerMagic,
		Version:     persistence.Version,
		DirOffset:   uint64(w.cw.Offset()),
		DirLength:   uint64(len(dir)),
		DirChecksum: persistence.Checksum(dir),
	}
	tb, err := trailer.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.cw.Write(dir); err != nil {
		return err
	}
	_, err = w.cw.Write(tb)
	return err
}

func encodeDirectory(entries []Entry) []byte {
	var rw persistence.RecordWriter
	rw.WriteUint32(uint32(len(entries)))
	for _, e := range entries {
		rw.WriteString(e.Name)
		rw.WriteUint8(uint8(e.DType))
		rw.WriteUint8(uint8(e.Compression))
		rw.WriteUint32(uint32(len(e.Shape)))
		for _, d := range e.Shape {
			rw.WriteUint64(uint64(d))
		}
		rw.WriteUint64(e.Offset)
		rw.WriteUint64(e.Stored)
		rw.WriteUint64(e.Raw)
		rw.WriteUint32(e.Checksum)
	}
	return rw.Bytes()
}
