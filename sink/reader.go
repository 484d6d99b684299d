package sink

import (
	"context"
	"fmt"

	"github.com/hupe1980/railrad/blobstore"
	"github.com/hupe1980/railrad/container"
	"github.com/hupe1980/railrad/internal/compress"
	"github.com/hupe1980/railrad/internal/conv"
	"github.com/hupe1980/railrad/persistence"
	"github.com/hupe1980/railrad/tensor"
)

// Reader reads rows back from a blob written by Chunked.
type Reader struct {
	blob        blobstore.Blob
	compression container.Compression
	shape       []int
	rowLen      int
	rows        []rowRef
}

// OpenReader reads the trailer and row index of blob.
func OpenReader(ctx context.Context, blob blobstore.Blob) (*Reader, error) {
	size := blob.Size()
	if size < persistence.TrailerSize {
		return nil, fmt.Errorf("%w: blob of %d bytes has no trailer", ErrCorrupt, size)
	}
	tb := make([]byte, persistence.TrailerSize)
	if _, err := blob.ReadAt(ctx, tb, size-persistence.TrailerSize); err != nil {
		return nil, err
	}
	trailer, err := persistence.ParseTrailer(tb, persistence.SinkMagic, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	dir := make([]byte, trailer.DirLength)
	if _, err := blob.ReadAt(ctx, dir, int64(trailer.DirOffset)); err != nil {
		return nil, err
	}
	if err := persistence.VerifyChecksum("row index", dir, trailer.DirChecksum); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	r := &Reader{blob: blob}
	if err := r.decodeIndex(dir, trailer.DirOffset); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return r, nil
}

func (r *Reader) decodeIndex(dir []byte, limit uint64) error {
	sr := persistence.NewSliceReader(dir)
	comp, err := sr.ReadUint8()
	if err != nil {
		return err
	}
	if !compress.Type(comp).Valid() {
		return fmt.Errorf("compression %d", comp)
	}
	r.compression = container.Compression(comp)

	ndims, err := sr.ReadUint32()
	if err != nil {
		return err
	}
	if ndims == 0 || ndims > 32 {
		return fmt.Errorf("rank %d", ndims)
	}
	dims := make([]uint64, ndims)
	for i := range dims {
		if dims[i], err = sr.ReadUint64(); err != nil {
			return err
		}
	}
	shape, _, err := conv.ShapeFromUint64(dims)
	if err != nil {
		return err
	}
	rows, rowLen, err := rowGeometry(shape)
	if err != nil {
		return err
	}
	// Each index record is 20 bytes; reject counts the index cannot hold.
	if rows > sr.Len()/20 {
		return fmt.Errorf("%d rows in %d index bytes", rows, sr.Len())
	}

	r.shape, r.rowLen = shape, rowLen
	r.rows = make([]rowRef, rows)
	for i := range r.rows {
		var ref rowRef
		if ref.offset, err = sr.ReadUint64(); err != nil {
			return err
		}
		if ref.stored, err = sr.ReadUint64(); err != nil {
			return err
		}
		if ref.checksum, err = sr.ReadUint32(); err != nil {
			return err
		}
		if ref.offset > limit || ref.stored > limit-ref.offset {
			return fmt.Errorf("row %d frame [%d,+%d) overlaps index", i, ref.offset, ref.stored)
		}
		ref.written = true
		r.rows[i] = ref
	}
	if sr.Len() != 0 {
		return fmt.Errorf("%d trailing index bytes", sr.Len())
	}
	return nil
}

// Shape returns the full dataset shape.
func (r *Reader) Shape() []int { return append([]int(nil), r.shape...) }

// Rows returns the number of rows.
func (r *Reader) Rows() int { return len(r.rows) }

// Compression returns the frame compression.
func (r *Reader) Compression() container.Compression { return r.compression }

// Row reads and verifies row i.
func (r *Reader) Row(ctx context.Context, i int) ([]complex128, error) {
	if i < 0 || i >= len(r.rows) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrShape, i, len(r.rows))
	}
	ref := r.rows[i]
	frame := make([]byte, ref.stored)
	if _, err := r.blob.ReadAt(ctx, frame, int64(ref.offset)); err != nil {
		return nil, err
	}
	raw, err := compress.Decode(frame, compress.Type(r.compression))
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: %w", ErrCorrupt, i, err)
	}
	if err := persistence.VerifyChecksum(fmt.Sprintf("row %d", i), raw, ref.checksum); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	row, err := conv.BytesToComplex128s(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: %w", ErrCorrupt, i, err)
	}
	if len(row) != r.rowLen {
		return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrCorrupt, i, len(row), r.rowLen)
	}
	return row, nil
}

// ReadAll assembles every row into a tensor.
func (r *Reader) ReadAll(ctx context.Context) (*tensor.Dense[complex128], error) {
	out := tensor.New[complex128](r.shape...)
	data := out.Data()
	for i := range r.rows {
		row, err := r.Row(ctx, i)
		if err != nil {
			return nil, err
		}
		copy(data[i*r.rowLen:], row)
	}
	return out, nil
}
