package railrad

import (
	"context"
	"testing"

	"github.com/hupe1980/railrad/dispersion"
	"github.com/hupe1980/railrad/interp"
	"github.com/hupe1980/railrad/resource"
	"github.com/hupe1980/railrad/tensor"
	"github.com/hupe1980/railrad/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperpose(t *testing.T) {
	ctx := context.Background()

	for _, kind := range []interp.Kind{interp.Linear, interp.Cubic, interp.Nearest} {
		t.Run(kind.String(), func(t *testing.T) {
			db, d := newTestDatabase(t, WithInterpolation(kind), WithWorkers(3))
			f, k := queryGrid(5)
			recv, src := []int{3, 0, 1}, []int{5, 2, 0}
			require.NoError(t, db.Configure(ctx, f, k, WithReceivers(recv...), WithSources(src...)))

			const nl = 2
			v := testutil.NewRNG(11).ComplexTensor(len(f), len(k[0]), nl, len(src))
			out, err := db.Superpose(ctx, v)
			require.NoError(t, err)
			require.Equal(t, []int{len(f), len(k[0]), nl, len(recv)}, out.Shape())

			for fi := range f {
				for ki, kn := range k[fi] {
					tf := referenceTransfer(t, d, kind, recv, src, f[fi], kn)
					want := make([]complex128, 0, nl*len(recv))
					for l := 0; l < nl; l++ {
						for ri := range recv {
							var acc complex128
							for si := range src {
								acc += v.At(fi, ki, l, si) * tf[ri*len(src)+si]
							}
							want = append(want, acc)
						}
					}
					got := make([]complex128, 0, nl*len(recv))
					for l := 0; l < nl; l++ {
						for ri := range recv {
							got = append(got, out.At(fi, ki, l, ri))
						}
					}
					testutil.RequireComplexNearlyEqual(t, got, want, 1e-9)
				}
			}
		})
	}
}

func TestSuperpose_NearField(t *testing.T) {
	ctx := context.Background()
	db, d := newTestDatabase(t)

	// At 100 Hz a wavenumber of 15 rad/m lies below the acoustic cutoff.
	require.Equal(t, dispersion.Unattainable, dispersion.F0Shift(15, d.K0, 100))
	require.NoError(t, db.Configure(ctx, []float64{100}, [][]float64{{15, 2.5}}))

	v := testutil.NewRNG(5).ComplexTensor(1, 2, 1, 4)
	out, err := db.Superpose(ctx, v)
	require.NoError(t, err)

	for ri := 0; ri < 4; ri++ {
		assert.Equal(t, complex128(0), out.At(0, 0, 0, ri))
		assert.NotEqual(t, complex128(0), out.At(0, 1, 0, ri))
	}
}

func TestSuperpose_DefaultSourceOrder(t *testing.T) {
	ctx := context.Background()

	// Source node n responds with n+1 at every frequency.
	tfs, err := tensor.FromData([]complex128{1, 1, 2, 2, 3, 3}, 1, 3, 2)
	require.NoError(t, err)
	d := unitData()
	d.TransferFunctions = tfs
	d.SourceNodes = []int{2, 0, 1}

	db, err := New(d)
	require.NoError(t, err)
	require.NoError(t, db.Configure(ctx, []float64{500}, [][]float64{{0}}))

	c, _ := db.Configuration()
	assert.Equal(t, []int{2, 0, 1}, c.Sources)

	scale := Velocity.scale(500)
	for i, want := range []complex128{3, 1, 2} {
		v := tensor.New[complex128](1, 1, 1, 3)
		v.Set(1, 0, 0, 0, i)
		out, err := db.Superpose(ctx, v)
		require.NoError(t, err)
		assert.Equal(t, want*scale, out.At(0, 0, 0, 0), "velocity column %d", i)
	}

	all, err := db.TransferFunctions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []complex128{3 * scale, 1 * scale, 2 * scale}, all.Data())
}

func TestSuperpose_Linearity(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDatabase(t)
	f, k := queryGrid(3)
	require.NoError(t, db.Configure(ctx, f, k))

	rng := testutil.NewRNG(21)
	a := rng.ComplexTensor(3, 5, 1, 4)
	b := rng.ComplexTensor(3, 5, 1, 4)
	sum := tensor.New[complex128](3, 5, 1, 4)
	for i := range sum.Data() {
		sum.Data()[i] = a.Data()[i] + 2*b.Data()[i]
	}

	pa, err := db.Superpose(ctx, a)
	require.NoError(t, err)
	pb, err := db.Superpose(ctx, b)
	require.NoError(t, err)
	ps, err := db.Superpose(ctx, sum)
	require.NoError(t, err)

	want := make([]complex128, len(ps.Data()))
	for i := range want {
		want[i] = pa.Data()[i] + 2*pb.Data()[i]
	}
	testutil.RequireComplexNearlyEqual(t, ps.Data(), want, 1e-9)
}

func TestSuperpose_Errors(t *testing.T) {
	ctx := context.Background()
	f, k := queryGrid(2)

	tests := []struct {
		name  string
		shape []int
	}{
		{"rank", []int{2, 5, 4}},
		{"frequencies", []int{3, 5, 1, 4}},
		{"wavenumbers", []int{2, 4, 1, 4}},
		{"sources", []int{2, 5, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &BasicMetricsCollector{}
			db, _ := newTestDatabase(t, WithMetricsCollector(metrics))
			require.NoError(t, db.Configure(ctx, f, k))

			out, err := db.Superpose(ctx, tensor.New[complex128](tt.shape...))
			assert.Nil(t, out)
			require.ErrorIs(t, err, ErrShape)
			var se *ShapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, []int{2, 5, -1, 4}, se.Expected)
			assert.Equal(t, tt.shape, se.Actual)
			assert.Equal(t, int64(1), metrics.GetStats().SuperposeErrors)
		})
	}

	t.Run("nil", func(t *testing.T) {
		db, _ := newTestDatabase(t)
		require.NoError(t, db.Configure(ctx, f, k))
		_, err := db.Superpose(ctx, nil)
		assert.ErrorIs(t, err, ErrShape)
	})

	t.Run("canceled", func(t *testing.T) {
		db, _ := newTestDatabase(t)
		require.NoError(t, db.Configure(ctx, f, k))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := db.Superpose(cctx, tensor.New[complex128](2, 5, 1, 4))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("memory limit", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 256})
		db, _ := newTestDatabase(t, WithResourceController(rc))
		require.NoError(t, db.Configure(ctx, f, k))

		// 2·5·1·4 cells of 16 bytes exceed the budget.
		_, err := db.Superpose(ctx, tensor.New[complex128](2, 5, 1, 4))
		require.ErrorIs(t, err, ErrMemoryLimit)
		assert.ErrorIs(t, err, resource.ErrMemoryLimit)
		assert.Equal(t, int64(0), rc.MemoryUsage())
	})
}

func TestSuperpose_Metrics(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	db, _ := newTestDatabase(t, WithMetricsCollector(metrics))
	f, k := queryGrid(3)
	require.NoError(t, db.Configure(ctx, f, k))

	_, err := db.Superpose(ctx, tensor.New[complex128](3, 5, 2, 4))
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SuperposeCount)
	assert.Equal(t, int64(0), stats.SuperposeErrors)
	assert.Equal(t, int64(15), stats.SuperposeCells)
	assert.Equal(t, int64(1), stats.ConfigureCount)
}

func TestChunks(t *testing.T) {
	assert.Nil(t, chunks(0, 4))
	assert.Equal(t, [][2]int{{0, 5}}, chunks(5, 1))
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, chunks(5, 3))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, chunks(2, 8))
	assert.Equal(t, [][2]int{{0, 3}}, chunks(3, 0))
}
