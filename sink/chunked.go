package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/railrad/blobstore"
	"github.com/hupe1980/railrad/container"
	"github.com/hupe1980/railrad/internal/compress"
	"github.com/hupe1980/railrad/internal/conv"
	"github.com/hupe1980/railrad/persistence"
	"github.com/hupe1980/railrad/resource"
)

// Options configures a Chunked sink.
type Options struct {
	// Compression is applied to each row frame. Default: LZ4.
	Compression container.Compression
	// Resource rate-limits frame writes. Optional.
	Resource *resource.Controller
}

// WithCompression sets the row frame compression.
func WithCompression(c container.Compression) func(*Options) {
	return func(o *Options) { o.Compression = c }
}

// WithResourceController rate-limits writes through rc.
func WithResourceController(rc *resource.Controller) func(*Options) {
	return func(o *Options) { o.Resource = rc }
}

type rowRef struct {
	offset   uint64
	stored   uint64
	checksum uint32
	written  bool
}

// Chunked streams rows to a writable blob.
type Chunked struct {
	mu     sync.Mutex
	blob   blobstore.WritableBlob
	cw     *persistence.ChecksumWriter
	opts   Options
	shape  []int
	rowLen int
	rows   []rowRef
	state  int // 0 new, 1 begun, 2 committed, 3 aborted
}

// NewChunked wraps w. Commit closes w; Abort discards it.
func NewChunked(w blobstore.WritableBlob, optFns ...func(*Options)) *Chunked {
	opts := Options{Compression: container.LZ4}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Chunked{
		blob: w,
		cw:   persistence.NewChecksumWriter(w),
		opts: opts,
	}
}

// Create opens name on store and returns a Chunked sink writing to it.
func Create(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(*Options)) (*Chunked, error) {
	w, err := store.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return NewChunked(w, optFns...), nil
}

func (c *Chunked) write(ctx context.Context, p []byte) error {
	_, err := c.opts.Resource.Writer(ctx, c.cw).Write(p)
	return err
}

func (c *Chunked) Begin(ctx context.Context, shape []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != 0 {
		return fmt.Errorf("%w: Begin called twice", ErrState)
	}
	rows, rowLen, err := rowGeometry(shape)
	if err != nil {
		return fmt.Errorf("%w: %v", err, shape)
	}

	var hdr persistence.RecordWriter
	hdr.WriteUint32(persistence.SinkMagic)
	hdr.WriteUint32(persistence.Version)
	writeShape(&hdr, c.opts.Compression, shape)
	if err := c.write(ctx, hdr.Bytes()); err != nil {
		return err
	}

	c.shape = append([]int(nil), shape...)
	c.rowLen = rowLen
	c.rows = make([]rowRef, rows)
	c.state = 1
	return nil
}

func (c *Chunked) WriteRow(ctx context.Context, i int, row []complex128) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != 1 {
		return fmt.Errorf("%w: WriteRow outside Begin/Commit", ErrState)
	}
	if i < 0 || i >= len(c.rows) || len(row) != c.rowLen {
		return fmt.Errorf("%w: row %d of length %d, want length %d", ErrShape, i, len(row), c.rowLen)
	}
	if c.rows[i].written {
		return fmt.Errorf("%w: %d", ErrRowWritten, i)
	}

	raw := conv.Complex128sToBytes(row)
	frame, err := compress.Encode(raw, compress.Type(c.opts.Compression))
	if err != nil {
		return err
	}
	ref := rowRef{
		offset:   uint64(c.cw.Offset()),
		stored:   uint64(len(frame)),
		checksum: persistence.Checksum(raw),
		written:  true,
	}
	if err := c.write(ctx, frame); err != nil {
		return err
	}
	c.rows[i] = ref
	return nil
}

// Commit writes the row index and trailer and closes the blob.
// On ErrIncomplete the blob is left open so the caller may Abort.
func (c *Chunked) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != 1 {
		return fmt.Errorf("%w: Commit outside Begin", ErrState)
	}
	for i, r := range c.rows {
		if !r.written {
			return fmt.Errorf("%w: row %d missing", ErrIncomplete, i)
		}
	}

	var idx persistence.RecordWriter
	writeShape(&idx, c.opts.Compression, c.shape)
	for _, r := range c.rows {
		idx.WriteUint64(r.offset)
		idx.WriteUint64(r.stored)
		idx.WriteUint32(r.checksum)
	}
	dir := idx.Bytes()

	trailer := persistence.Trailer{
		Magic:       persistence.SinkMagic,
		Version:     persistence.Version,
		DirOffset:   uint64(c.cw.Offset()),
		DirLength:   uint64(len(dir)),
		DirChecksum: persistence.Checksum(dir),
	}
	tb, err := trailer.MarshalBinary()
	if err != nil {
		return err
	}
	if err := c.write(ctx, dir); err != nil {
		return err
	}
	if err := c.write(ctx, tb); err != nil {
		return err
	}
	if err := c.blob.Sync(); err != nil {
		return err
	}
	if err := c.blob.Close(); err != nil {
		return err
	}
	c.state = 2
	return nil
}

// Abort discards the partial blob. It is a no-op after Commit.
func (c *Chunked) Abort() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state >= 2 {
		return nil
	}
	c.state = 3
	return blobstore.Abort(c.blob)
}

func writeShape(w *persistence.RecordWriter, comp container.Compression, shape []int) {
	w.WriteUint8(uint8(comp))
	w.WriteUint32(uint32(len(shape)))
	for _, d := range shape {
		w.WriteUint64(uint64(d))
	}
}
