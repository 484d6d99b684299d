package container

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/railrad/blobstore"
	"github.com/hupe1980/railrad/internal/compress"
	"github.com/hupe1980/railrad/internal/conv"
	"github.com/hupe1980/railrad/persistence"
)

// maxDims bounds the rank accepted from a directory entry.
const maxDims = 32

// Reader gives random access to the datasets of a container blob.
// It is safe for concurrent use if the underlying blob is.
type Reader struct {
	blob    blobstore.Blob
	entries map[string]Entry
	names   []string
}

// Open reads the trailer and directory of blob.
func Open(ctx context.Context, blob blobstore.Blob) (*Reader, error) {
	size := blob.Size()
	if size < persistence.TrailerSize {
		return nil, fmt.Errorf("%w: blob of %d bytes has no trailer", ErrCorrupt, size)
	}

	tb := make([]byte, persistence.TrailerSize)
	if _, err := blob.ReadAt(ctx, tb, size-persistence.TrailerSize); err != nil {
		return nil, err
	}
	trailer, err := persistence.ParseTrailer(tb, persistence.ContainerMagic, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	dir := make([]byte, trailer.DirLength)
	if len(dir) > 0 {
		if _, err := blob.ReadAt(ctx, dir, int64(trailer.DirOffset)); err != nil {
			return nil, err
		}
	}
	if err := persistence.VerifyChecksum("directory", dir, trailer.DirChecksum); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	entries, err := decodeDirectory(dir, trailer.DirOffset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	r := &Reader{blob: blob, entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		if _, dup := r.entries[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate dataset %q", ErrCorrupt, e.Name)
		}
		r.entries[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

func decodeDirectory(dir []byte, limit uint64) ([]Entry, error) {
	sr := persistence.NewSliceReader(dir)
	count, err := sr.ReadUint32()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for i := uint32(0); i < count; i++ {
		var e Entry
		if e.Name, err = sr.ReadString(); err != nil {
			return nil, err
		}
		dt, err := sr.ReadUint8()
		if err != nil {
			return nil, err
		}
		c, err := sr.ReadUint8()
		if err != nil {
			return nil, err
		}
		e.DType, e.Compression = DType(dt), Compression(c)
		if !e.DType.valid() || !compress.Type(c).Valid() {
			return nil, fmt.Errorf("dataset %q: dtype %d compression %d", e.Name, dt, c)
		}

		ndims, err := sr.ReadUint32()
		if err != nil {
			return nil, err
		}
		if ndims > maxDims {
			return nil, fmt.Errorf("dataset %q: rank %d", e.Name, ndims)
		}
		dims := make([]uint64, ndims)
		for j := range dims {
			if dims[j], err = sr.ReadUint64(); err != nil {
				return nil, err
			}
		}
		shape, vol, err := conv.ShapeFromUint64(dims)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", e.Name, err)
		}
		e.Shape = shape

		if e.Offset, err = sr.ReadUint64(); err != nil {
			return nil, err
		}
		if e.Stored, err = sr.ReadUint64(); err != nil {
			return nil, err
		}
		if e.Raw, err = sr.ReadUint64(); err != nil {
			return nil, err
		}
		if e.Checksum, err = sr.ReadUint32(); err != nil {
			return nil, err
		}

		if e.Offset > limit || e.Stored > limit-e.Offset {
			return nil, fmt.Errorf("dataset %q: frame [%d,+%d) overlaps directory", e.Name, e.Offset, e.Stored)
		}
		if uint64(vol)*uint64(e.DType.size()) != e.Raw {
			return nil, fmt.Errorf("dataset %q: %d raw bytes for shape %v", e.Name, e.Raw, e.Shape)
		}
		entries = append(entries, e)
	}
	if sr.Len() != 0 {
		return nil, fmt.Errorf("%d trailing directory bytes", sr.Len())
	}
	return entries, nil
}

// Names returns the sorted dataset names.
func (r *Reader) Names() []string {
	return append([]string(nil), r.names...)
}

// Has reports whether a dataset exists.
func (r *Reader) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Entry returns the directory entry for name.
func (r *Reader) Entry(name string) (Entry, bool) {
	e, ok := r.entries[name]
	if ok {
		e.Shape = append([]int(nil), e.Shape...)
	}
	return e, ok
}

// Shape returns the shape of a dataset.
func (r *Reader) Shape(name string) ([]int, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return append([]int(nil), e.Shape...), nil
}

func (r *Reader) raw(ctx context.Context, name string, want DType) (Entry, []byte, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if e.DType != want {
		return Entry{}, nil, fmt.Errorf("%w: %q is %s, not %s", ErrType, name, e.DType, want)
	}

	frame := make([]byte, e.Stored)
	if len(frame) > 0 {
		if _, err := r.blob.ReadAt(ctx, frame, int64(e.Offset)); err != nil {
			return Entry{}, nil, err
		}
	}
	raw, err := compress.Decode(frame, compress.Type(e.Compression))
	if err != nil {
		return Entry{}, nil, fmt.Errorf("%w: dataset %q: %w", ErrCorrupt, name, err)
	}
	if uint64(len(raw)) != e.Raw {
		return Entry{}, nil, fmt.Errorf("%w: dataset %q decoded to %d bytes, want %d", ErrCorrupt, name, len(raw), e.Raw)
	}
	if err := persistence.VerifyChecksum(name, raw, e.Checksum); err != nil {
		return Entry{}, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return e, raw, nil
}

// Float64s reads a float64 dataset and its shape.
func (r *Reader) Float64s(ctx context.Context, name string) ([]float64, []int, error) {
	e, raw, err := r.raw(ctx, name, Float64)
	if err != nil {
		return nil, nil, err
	}
	v, err := conv.BytesToFloat64s(raw)
	return v, e.Shape, err
}

// Complex128s reads a complex128 dataset and its shape.
func (r *Reader) Complex128s(ctx context.Context, name string) ([]complex128, []int, error) {
	e, raw, err := r.raw(ctx, name, Complex128)
	if err != nil {
		return nil, nil, err
	}
	v, err := conv.BytesToComplex128s(raw)
	return v, e.Shape, err
}

// Int64s reads an int64 dataset and its shape.
func (r *Reader) Int64s(ctx context.Context, name string) ([]int64, []int, error) {
	e, raw, err := r.raw(ctx, name, Int64)
	if err != nil {
		return nil, nil, err
	}
	v, err := conv.BytesToInt64s(raw)
	return v, e.Shape, err
}

// Bytes reads an opaque byte dataset.
func (r *Reader) Bytes(ctx context.Context, name string) ([]byte, error) {
	_, raw, err := r.raw(ctx, name, Bytes)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), raw...), nil
}
