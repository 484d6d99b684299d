package railrad

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/railrad/dispersion"
	"github.com/hupe1980/railrad/interp"
	"github.com/hupe1980/railrad/tensor"
	"github.com/hupe1980/railrad/testutil"
	"github.com/stretchr/testify/require"
)

// randomData returns a database with nr receivers, ns tabulated source
// nodes of which sourceNodes are valid, and random transfer functions.
func randomData(rng *testutil.RNG, nr, ns int, sourceNodes []int, freqs []float64) Data {
	return Data{
		TransferFunctions: rng.ComplexTensor(nr, ns, len(freqs)),
		Frequencies:       freqs,
		K0:                2.5,
		SourceNodes:       sourceNodes,
		Geometry: Geometry{
			SourceCoordinates:   tensor.New[float64](ns, 2),
			ReceiverCoordinates: tensor.New[float64](nr, 2),
			NormalVectors:       tensor.New[float64](ns, 2),
		},
	}
}

// unitData is the single-node database with a flat 1+0i response.
func unitData() Data {
	tfs, _ := tensor.FromData([]complex128{1, 1}, 1, 1, 2)
	return Data{
		TransferFunctions: tfs,
		Frequencies:       []float64{0, 1000},
		K0:                0,
		SourceNodes:       []int{0},
		Geometry: Geometry{
			SourceCoordinates:   tensor.New[float64](1, 2),
			ReceiverCoordinates: tensor.New[float64](1, 2),
			NormalVectors:       tensor.New[float64](1, 2),
		},
	}
}

// queryGrid returns frequencies inside [100, 1500] Hz and wavenumber rows
// that mix attainable and near-field pairs.
func queryGrid(nf int) ([]float64, [][]float64) {
	f := testutil.UniformGrid(nf, 100, 1500)
	k := make([][]float64, nf)
	for i := range k {
		k[i] = []float64{0, 2.5, 5, 10, 15}
	}
	return f, k
}

func newTestDatabase(t *testing.T, optFns ...Option) (*Database, Data) {
	t.Helper()
	rng := testutil.NewRNG(7)
	d := randomData(rng, 4, 6, []int{0, 2, 3, 5}, testutil.UniformGrid(32, 0, 2000))
	db, err := New(d, optFns...)
	require.NoError(t, err)
	return db, d
}

// referenceTransfer evaluates one remapped (receiver × source) matrix
// directly, without the database machinery.
func referenceTransfer(t *testing.T, d Data, kind interp.Kind, recv, src []int, f, k float64) []complex128 {
	t.Helper()
	tfs := d.TransferFunctions
	m := tfs.Dim(2)
	sub := tensor.New[complex128](len(recv), len(src), m)
	for i, r := range recv {
		for j, s := range src {
			for q := 0; q < m; q++ {
				sub.Set(tfs.At(r, s, q), i, j, q)
			}
		}
	}
	ip, err := interp.NewComplex(d.Frequencies, sub, func(o *interp.Options) { o.Kind = kind })
	require.NoError(t, err)
	r, err := ip.At(dispersion.F0Shift(k, d.K0, f), nil)
	require.NoError(t, err)

	scale := complex(0, 2*math.Pi*f)
	out := make([]complex128, len(r))
	for i, v := range r {
		out[i] = scale * v
	}
	return out
}

// failingSink fails WriteRow at row failAt and records Abort.
type failingSink struct {
	failAt  int
	written int
	aborted bool
}

var errSinkFull = errors.New("sink full")

func (s *failingSink) Begin(context.Context, []int) error { return nil }

func (s *failingSink) WriteRow(_ context.Context, i int, _ []complex128) error {
	if i == s.failAt {
		return errSinkFull
	}
	s.written++
	return nil
}

func (s *failingSink) Commit(context.Context) error { return nil }

func (s *failingSink) Abort() error {
	s.aborted = true
	return nil
}
