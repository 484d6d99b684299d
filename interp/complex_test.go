package interp

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/hupe1980/railrad/tensor"
	"github.com/hupe1980/railrad/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gonuminterp "gonum.org/v1/gonum/interp"
)

func withKind(k Kind) func(o *Options) {
	return func(o *Options) { o.Kind = k }
}

func TestComplex_PassesThroughSamples(t *testing.T) {
	rng := testutil.NewRNG(42)

	for _, kind := range []Kind{Linear, Cubic, Nearest} {
		for _, dec := range []Decomposition{RealImag, MagnitudePhase} {
			t.Run(kind.String()+"/"+dec.String(), func(t *testing.T) {
				x := rng.IncreasingGrid(17, -3, 2)
				y := rng.ComplexTensor(3, 2, len(x))

				c, err := NewComplex(x, y, withKind(kind), func(o *Options) { o.Decomposition = dec })
				require.NoError(t, err)
				require.Equal(t, 6, c.Series())

				for j, q := range x {
					got, err := c.At(q, nil)
					require.NoError(t, err)
					want := make([]complex128, 6)
					for s := range want {
						want[s] = y.Data()[s*len(x)+j]
					}
					testutil.RequireComplexNearlyEqual(t, got, want, 1e-12)
				}
			})
		}
	}
}

func TestComplex_ZeroFillOutOfRange(t *testing.T) {
	rng := testutil.NewRNG(7)
	x := testutil.UniformGrid(10, 0, 1000)
	y := rng.ComplexTensor(4, len(x))

	for _, kind := range []Kind{Linear, Cubic, Nearest} {
		c, err := NewComplex(x, y, withKind(kind))
		require.NoError(t, err)

		for _, q := range []float64{-1, -1e-9, 1000.0000001, 1e9, math.NaN(), math.Inf(1)} {
			got, err := c.At(q, nil)
			require.NoError(t, err)
			for _, v := range got {
				assert.Equal(t, complex(0, 0), v, "kind=%s q=%v", kind, q)
			}
		}
	}
}

func TestComplex_CustomFillAndBoundsError(t *testing.T) {
	x := []float64{0, 1}
	y, err := tensor.FromData([]complex128{1, 2}, 2)
	require.NoError(t, err)

	c, err := NewComplex(x, y, WithFill(complex(-3, 4)))
	require.NoError(t, err)
	got, err := c.At(2, nil)
	require.NoError(t, err)
	assert.Equal(t, []complex128{complex(-3, 4)}, got)

	c, err = NewComplex(x, y, WithBoundsError())
	require.NoError(t, err)
	_, err = c.At(-0.5, nil)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = c.Eval([]float64{0.5, 3})
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestComplex_LinearMidpoint(t *testing.T) {
	x := []float64{0, 1000}
	y, err := tensor.FromData([]complex128{complex(1, 0), complex(3, -2)}, 2)
	require.NoError(t, err)

	c, err := NewComplex(x, y, func(o *Options) { o.AssumeSorted = true })
	require.NoError(t, err)

	got, err := c.At(250, nil)
	require.NoError(t, err)
	testutil.RequireComplexNearlyEqual(t, got, []complex128{complex(1.5, -0.5)}, 1e-15)
}

func TestComplex_MatchesReferenceSplines(t *testing.T) {
	rng := testutil.NewRNG(1234)
	x := rng.IncreasingGrid(25, 10, 40)
	y := rng.ComplexTensor(5, len(x))

	tests := []struct {
		kind Kind
		ref  func() gonuminterp.FittablePredictor
	}{
		{Linear, func() gonuminterp.FittablePredictor { return &gonuminterp.PiecewiseLinear{} }},
		{Cubic, func() gonuminterp.FittablePredictor { return &gonuminterp.NaturalCubic{} }},
	}

	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			c, err := NewComplex(x, y, withKind(tc.kind))
			require.NoError(t, err)

			re := make([]tensorSeries, 0, 5)
			for s := 0; s < 5; s++ {
				row := y.Row(s).Data()
				rs, is := make([]float64, len(row)), make([]float64, len(row))
				for j, v := range row {
					rs[j], is[j] = real(v), imag(v)
				}
				pr, pi := tc.ref(), tc.ref()
				require.NoError(t, pr.Fit(x, rs))
				require.NoError(t, pi.Fit(x, is))
				re = append(re, tensorSeries{pr, pi})
			}

			for i := 0; i < 200; i++ {
				q := rng.Float64Range(x[0], x[len(x)-1])
				got, err := c.At(q, nil)
				require.NoError(t, err)
				for s, ref := range re {
					assert.InDelta(t, ref.re.Predict(q), real(got[s]), 1e-9)
					assert.InDelta(t, ref.im.Predict(q), imag(got[s]), 1e-9)
				}
			}
		})
	}
}

type tensorSeries struct {
	re, im gonuminterp.Predictor
}

func TestComplex_Nearest(t *testing.T) {
	x := []float64{0, 10, 20}
	y, err := tensor.FromData([]complex128{1, 2, 3}, 3)
	require.NoError(t, err)

	c, err := NewComplex(x, y, withKind(Nearest))
	require.NoError(t, err)

	out, err := c.Eval([]float64{4.9, 5, 5.1, 19, 20})
	require.NoError(t, err)
	assert.Equal(t, []complex128{1, 1, 2, 3, 3}, out.Data())
}

func TestComplex_EvalUnsortedQueries(t *testing.T) {
	rng := testutil.NewRNG(99)
	x := testutil.UniformGrid(8, 0, 7)
	y := rng.ComplexTensor(2, 3, len(x))

	c, err := NewComplex(x, y)
	require.NoError(t, err)

	q := []float64{6.5, 0.25, 6.5, -2, 3}
	out, err := c.Eval(q)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3, len(q)}, out.Shape())

	for i, v := range q {
		single, err := c.At(v, nil)
		require.NoError(t, err)
		for s := range single {
			assert.Equal(t, single[s], out.Data()[s*len(q)+i])
		}
	}
	// Repeated queries agree bit for bit.
	assert.Equal(t, out.At(1, 2, 0), out.At(1, 2, 2))
}

func TestComplex_Axis(t *testing.T) {
	rng := testutil.NewRNG(5)
	x := testutil.UniformGrid(6, 0, 5)
	y := rng.ComplexTensor(len(x), 4) // grid on axis 0

	c, err := NewComplex(x, y, WithAxis(0))
	require.NoError(t, err)
	require.Equal(t, []int{4}, c.LeadShape())

	got, err := c.At(x[3], nil)
	require.NoError(t, err)
	testutil.RequireComplexNearlyEqual(t, got, y.Row(3).Data(), 1e-12)
}

func TestComplex_Errors(t *testing.T) {
	y, err := tensor.FromData([]complex128{1, 2, 3}, 3)
	require.NoError(t, err)

	t.Run("shape", func(t *testing.T) {
		_, err := NewComplex([]float64{0, 1}, y)
		var se *ShapeError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 2, se.Expected)
		assert.Equal(t, 3, se.Actual)
	})

	t.Run("unsorted", func(t *testing.T) {
		_, err := NewComplex([]float64{0, 2, 1}, y)
		require.ErrorIs(t, err, ErrDomain)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := NewComplex([]float64{0, 1, 1}, y)
		require.ErrorIs(t, err, ErrDomain)
	})

	t.Run("nan", func(t *testing.T) {
		_, err := NewComplex([]float64{0, math.NaN(), 1}, y)
		require.ErrorIs(t, err, ErrDomain)
	})

	t.Run("assume sorted skips validation", func(t *testing.T) {
		_, err := NewComplex([]float64{0, 2, 1}, y, func(o *Options) { o.AssumeSorted = true })
		require.NoError(t, err)
	})

	t.Run("too few points", func(t *testing.T) {
		one, err := tensor.FromData([]complex128{1, 2}, 2)
		require.NoError(t, err)
		_, err = NewComplex([]float64{0, 1}, one, withKind(Cubic))
		require.ErrorIs(t, err, ErrDomain)
	})

	t.Run("kind", func(t *testing.T) {
		_, err := NewComplex([]float64{0, 1, 2}, y, withKind(Kind(9)))
		require.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("decomposition", func(t *testing.T) {
		_, err := NewComplex([]float64{0, 1, 2}, y, WithDecomposition(Decomposition(4)))
		require.ErrorIs(t, err, ErrInvalidDecomposition)
	})
}

func TestComplex_MagnitudePhaseKeepsMagnitude(t *testing.T) {
	// Constant magnitude with linearly advancing phase stays on the unit
	// circle between samples in magnitude/phase mode, but not in real/imag.
	x := []float64{0, 1}
	y, err := tensor.FromData([]complex128{cmplx.Rect(1, 0), cmplx.Rect(1, 1.2)}, 2)
	require.NoError(t, err)

	mp, err := NewComplex(x, y, func(o *Options) { o.Decomposition = MagnitudePhase })
	require.NoError(t, err)
	ri, err := NewComplex(x, y)
	require.NoError(t, err)

	a, err := mp.At(0.5, nil)
	require.NoError(t, err)
	b, err := ri.At(0.5, nil)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, cmplx.Abs(a[0]), 1e-12)
	assert.InDelta(t, 0.6, cmplx.Phase(a[0]), 1e-12)
	assert.Less(t, cmplx.Abs(b[0]), 0.99)
}

func TestComplex_MagnitudePhaseClampsUndershoot(t *testing.T) {
	// The natural spline through magnitudes 1, 0, 0, 1 dips to -0.15 at 1.5.
	x := []float64{0, 1, 2, 3}
	y, err := tensor.FromData([]complex128{
		cmplx.Rect(1, 0.3), 0, 0, cmplx.Rect(1, 0.3),
	}, 4)
	require.NoError(t, err)

	c, err := NewComplex(x, y, WithKind(Cubic), WithDecomposition(MagnitudePhase))
	require.NoError(t, err)

	got, err := c.At(1.5, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(got[0]), 1e-12)

	got, err = c.At(0.25, nil)
	require.NoError(t, err)
	assert.Greater(t, cmplx.Abs(got[0]), 0.0)
	assert.InDelta(t, 0.3, cmplx.Phase(got[0]), 0.3)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Linear, Cubic, Nearest} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("quintic")
	require.ErrorIs(t, err, ErrInvalidKind)

	for _, d := range []Decomposition{RealImag, MagnitudePhase} {
		got, err := ParseDecomposition(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err = ParseDecomposition("polar")
	require.ErrorIs(t, err, ErrInvalidDecomposition)
}
