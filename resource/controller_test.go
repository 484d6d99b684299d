package resource

import (
	"bytes"
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	require.NoError(t, c.ReserveMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.False(t, c.TryAcquireMemory(20))
	assert.ErrorIs(t, c.ReserveMemory(20), ErrMemoryLimit)
	assert.Equal(t, int64(90), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 20), context.DeadlineExceeded)

	// Larger than the whole limit never blocks.
	assert.ErrorIs(t, c.AcquireMemory(context.Background(), 101), ErrMemoryLimit)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	assert.Equal(t, 2, c.Workers())

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))
	assert.False(t, c.TryAcquireWorker())

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())

	assert.Equal(t, runtime.GOMAXPROCS(0), NewController(Config{}).Workers())
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireMemory(context.Background(), 1<<40))
	require.NoError(t, c.ReserveMemory(1<<40))
	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	c.ReleaseWorker()
	c.ReleaseMemory(1)
	assert.Equal(t, runtime.GOMAXPROCS(0), c.Workers())

	var buf bytes.Buffer
	assert.Same(t, &buf, c.Writer(context.Background(), &buf))
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1000})

	// The burst covers the first 1000 bytes; the next 500 take ~0.5s.
	start := time.Now()
	var buf bytes.Buffer
	w := c.Writer(context.Background(), &buf)
	_, err := w.Write(make([]byte, 1500))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
	assert.Equal(t, 1500, buf.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Writer(ctx, &buf).Write(make([]byte, 10))
	assert.Error(t, err)
}
