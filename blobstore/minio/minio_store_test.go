package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/railrad/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
}

func TestDial(t *testing.T) {
	store, err := Dial("localhost:9000", "track-databases", WithCredentials("k", "s"), WithPrefix("line-7/"))
	require.NoError(t, err)
	assert.Equal(t, "line-7/ballasted.rrdb", store.key("ballasted.rrdb"))
}

// TestMinioStore_Integration requires a running MinIO instance at
// MINIO_ENDPOINT (e.g. localhost:9000 with minioadmin credentials).
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: MINIO_ENDPOINT not set")
	}
	bucket := "test-railrad"

	store, err := Dial(endpoint, bucket, WithCredentials("minioadmin", "minioadmin"), WithPrefix("test-prefix/"))
	require.NoError(t, err)

	ctx := context.Background()
	exists, err := store.client.BucketExists(ctx, bucket)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("receiver source frequency")
	require.NoError(t, store.Put(ctx, "db.rrdb", data))

	got, err := blobstore.Get(ctx, store, "db.rrdb")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	blob, err := store.Open(ctx, "db.rrdb")
	require.NoError(t, err)
	rc, err := blob.ReadRange(ctx, 9, 6)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "source", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	wb, err := store.Create(ctx, "result.rrsk")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed rows"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"db.rrdb", "result.rrsk"}, names)

	require.NoError(t, store.Delete(ctx, "db.rrdb"))
	require.NoError(t, store.Delete(ctx, "result.rrsk"))
	_, err = store.Open(ctx, "db.rrdb")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
