package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/railrad/blobstore"
	"github.com/hupe1980/railrad/container"
	"github.com/hupe1980/railrad/persistence"
	"github.com/hupe1980/railrad/resource"
	"github.com/hupe1980/railrad/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowOf(data []complex128, i, rowLen int) []complex128 {
	return data[i*rowLen : (i+1)*rowLen]
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	want := testutil.NewRNG(1).ComplexTensor(3, 2, 4, 5)
	rowLen := 2 * 4 * 5

	m := NewMemory()
	require.ErrorIs(t, m.WriteRow(ctx, 0, nil), ErrState)
	require.NoError(t, m.Begin(ctx, want.Shape()))
	require.ErrorIs(t, m.Begin(ctx, want.Shape()), ErrState)

	for _, i := range []int{2, 0} {
		require.NoError(t, m.WriteRow(ctx, i, rowOf(want.Data(), i, rowLen)))
	}
	assert.ErrorIs(t, m.WriteRow(ctx, 0, rowOf(want.Data(), 0, rowLen)), ErrRowWritten)
	assert.ErrorIs(t, m.WriteRow(ctx, 1, make([]complex128, 3)), ErrShape)
	assert.ErrorIs(t, m.WriteRow(ctx, 3, rowOf(want.Data(), 0, rowLen)), ErrShape)
	assert.ErrorIs(t, m.Commit(ctx), ErrIncomplete)
	assert.Nil(t, m.Result())

	require.NoError(t, m.WriteRow(ctx, 1, rowOf(want.Data(), 1, rowLen)))
	require.NoError(t, m.Commit(ctx))
	assert.Equal(t, want.Shape(), m.Result().Shape())
	assert.Equal(t, want.Data(), m.Result().Data())
}

func TestChunked_RoundTrip(t *testing.T) {
	ctx := context.Background()
	want := testutil.NewRNG(2).ComplexTensor(4, 3, 2, 2)
	rowLen := 3 * 2 * 2

	for _, c := range []container.Compression{container.None, container.LZ4, container.ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			s, err := Create(ctx, store, "tf.rrsk", WithCompression(c),
				WithResourceController(resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})))
			require.NoError(t, err)

			require.NoError(t, s.Begin(ctx, want.Shape()))
			for _, i := range []int{3, 1, 0, 2} {
				require.NoError(t, s.WriteRow(ctx, i, rowOf(want.Data(), i, rowLen)))
			}
			require.NoError(t, s.Commit(ctx))

			blob, err := store.Open(ctx, "tf.rrsk")
			require.NoError(t, err)
			defer blob.Close()

			r, err := OpenReader(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, want.Shape(), r.Shape())
			assert.Equal(t, 4, r.Rows())
			assert.Equal(t, c, r.Compression())

			row, err := r.Row(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, rowOf(want.Data(), 2, rowLen), row)

			_, err = r.Row(ctx, 4)
			assert.ErrorIs(t, err, ErrShape)

			all, err := r.ReadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.Data(), all.Data())
		})
	}
}

func TestChunked_Errors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	s, err := Create(ctx, store, "tf.rrsk")
	require.NoError(t, err)

	require.ErrorIs(t, s.WriteRow(ctx, 0, nil), ErrState)
	require.ErrorIs(t, s.Begin(ctx, []int{2, -1}), ErrShape)
	require.NoError(t, s.Begin(ctx, []int{2, 3}))

	require.NoError(t, s.WriteRow(ctx, 0, make([]complex128, 3)))
	assert.ErrorIs(t, s.WriteRow(ctx, 0, make([]complex128, 3)), ErrRowWritten)
	assert.ErrorIs(t, s.WriteRow(ctx, 1, make([]complex128, 2)), ErrShape)
	assert.ErrorIs(t, s.Commit(ctx), ErrIncomplete)

	require.NoError(t, s.Abort())
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names, "aborted sink must not publish a blob")
}

func TestChunked_Corruption(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	s, err := Create(ctx, store, "tf.rrsk", WithCompression(container.None))
	require.NoError(t, err)
	require.NoError(t, s.Begin(ctx, []int{1, 4}))
	require.NoError(t, s.WriteRow(ctx, 0, []complex128{1, 2, 3, 4}))
	require.NoError(t, s.Commit(ctx))

	data, err := blobstore.Get(ctx, store, "tf.rrsk")
	require.NoError(t, err)

	// Header is 4+4+1+4+2*8 = 29 bytes, then a 16-byte frame header.
	data[29+16+3] ^= 0xff
	require.NoError(t, store.Put(ctx, "bad.rrsk", data))

	blob, err := store.Open(ctx, "bad.rrsk")
	require.NoError(t, err)
	r, err := OpenReader(ctx, blob)
	require.NoError(t, err)

	_, err = r.Row(ctx, 0)
	require.ErrorIs(t, err, ErrCorrupt)
	var mismatch *persistence.ChecksumMismatchError
	assert.True(t, errors.As(err, &mismatch))

	// A container is not a sink blob.
	require.NoError(t, store.Put(ctx, "db.rrdb", make([]byte, persistence.TrailerSize)))
	blob, err = store.Open(ctx, "db.rrdb")
	require.NoError(t, err)
	_, err = OpenReader(ctx, blob)
	assert.ErrorIs(t, err, ErrCorrupt)
}
