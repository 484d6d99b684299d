package interp

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/cwbudde/algo-vecmath"
	"github.com/hupe1980/railrad/tensor"
)

// Complex interpolates a set of complex series sampled on a common grid.
type Complex struct {
	x      []float64
	lead   []int
	series int
	opts   Options

	// a and b are real/imag or magnitude/phase, depending on Decomposition.
	a, b component
}

// component is one real series set, stored sample-major: y[j*series+s].
type component struct {
	y  []float64
	m2 []float64 // second derivatives, Cubic only
}

// NewComplex builds an interpolant over x for the samples in y.
//
// y may have any number of leading axes; the axis selected by Options.Axis
// must have length len(x). Samples are copied, so y may be reused afterwards.
func NewComplex(x []float64, y *tensor.Dense[complex128], optFns ...func(o *Options)) (*Complex, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Kind < Linear || opts.Kind > Nearest {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, int(opts.Kind))
	}
	if y == nil || y.Dims() == 0 {
		return nil, &ShapeError{Axis: opts.Axis, Expected: len(x), Actual: 0}
	}

	axis := opts.Axis
	if axis < 0 {
		axis += y.Dims()
	}
	if axis < 0 || axis >= y.Dims() {
		return nil, fmt.Errorf("%w: axis %d out of range for %d axes", tensor.ErrShape, opts.Axis, y.Dims())
	}
	if y.Dim(axis) != len(x) {
		return nil, &ShapeError{Axis: axis, Expected: len(x), Actual: y.Dim(axis)}
	}
	if len(x) < opts.Kind.minPoints() {
		return nil, fmt.Errorf("%w: %s needs at least %d points, got %d", ErrDomain, opts.Kind, opts.Kind.minPoints(), len(x))
	}
	if !opts.AssumeSorted {
		if err := validateGrid(x); err != nil {
			return nil, err
		}
	}

	if axis != y.Dims()-1 {
		moved, err := y.MoveAxisToEnd(axis)
		if err != nil {
			return nil, err
		}
		y = moved
	}

	shape := y.Shape()
	m := len(x)
	c := &Complex{
		x:      append([]float64(nil), x...),
		lead:   shape[:len(shape)-1],
		series: y.Len() / m,
		opts:   opts,
	}

	n := c.series
	re := make([]float64, m*n)
	im := make([]float64, m*n)
	data := y.Data()
	for s := 0; s < n; s++ {
		row := data[s*m : (s+1)*m]
		for j, v := range row {
			re[j*n+s] = real(v)
			im[j*n+s] = imag(v)
		}
	}

	switch opts.Decomposition {
	case RealImag:
		c.a.y, c.b.y = re, im
	case MagnitudePhase:
		mag := make([]float64, m*n)
		vecmath.Magnitude(mag, re, im)
		for i := range im {
			// The imaginary plane becomes the phase plane in place.
			im[i] = math.Atan2(im[i], re[i])
		}
		c.a.y, c.b.y = mag, im
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidDecomposition, int(opts.Decomposition))
	}

	if opts.Kind == Cubic {
		c.a.m2 = naturalSpline(c.x, c.a.y, n)
		c.b.m2 = naturalSpline(c.x, c.b.y, n)
	}
	return c, nil
}

func validateGrid(x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: x[%d] = %v is not finite", ErrDomain, i, v)
		}
		if i > 0 && v <= x[i-1] {
			return fmt.Errorf("%w: x[%d] = %v does not exceed x[%d] = %v", ErrDomain, i, v, i-1, x[i-1])
		}
	}
	return nil
}

// Grid returns a copy of the sample coordinates.
func (c *Complex) Grid() []float64 { return append([]float64(nil), c.x...) }

// Series returns the number of interpolated series (the flattened leading shape).
func (c *Complex) Series() int { return c.series }

// LeadShape returns the shape of one evaluation result.
func (c *Complex) LeadShape() []int { return append([]int(nil), c.lead...) }

// Options returns the options the interpolant was built with.
func (c *Complex) Options() Options { return c.opts }

// weights expresses every kind as w0·y[j] + w1·y[j+1] + w2·m2[j] + w3·m2[j+1].
type weights struct {
	j              int
	w0, w1, w2, w3 float64
}

func (c *Complex) inRange(q float64) bool {
	return q >= c.x[0] && q <= c.x[len(c.x)-1]
}

// locate returns the interval j with x[j] <= q <= x[j+1]. q must be in range.
func (c *Complex) locate(q float64) int {
	i := sort.SearchFloat64s(c.x, q)
	last := len(c.x) - 1
	switch {
	case i >= last:
		return last - 1
	case c.x[i] == q:
		return i
	default:
		return i - 1
	}
}

func (c *Complex) weightsAt(q float64) weights {
	j := c.locate(q)
	x0, x1 := c.x[j], c.x[j+1]
	h := x1 - x0
	switch c.opts.Kind {
	case Nearest:
		if q-x0 <= x1-q {
			return weights{j: j, w0: 1}
		}
		return weights{j: j, w1: 1}
	case Cubic:
		a := (x1 - q) / h
		b := 1 - a
		return weights{
			j:  j,
			w0: a,
			w1: b,
			w2: (a*a*a - a) * h * h / 6,
			w3: (b*b*b - b) * h * h / 6,
		}
	default:
		t := (q - x0) / h
		return weights{j: j, w0: 1 - t, w1: t}
	}
}

// At evaluates every series at q and writes the results into dst, which is
// grown to Series() elements when too small. The returned slice aliases dst.
func (c *Complex) At(q float64, dst []complex128) ([]complex128, error) {
	n := c.series
	if cap(dst) < n {
		dst = make([]complex128, n)
	}
	dst = dst[:n]

	if !c.inRange(q) {
		if c.opts.BoundsError {
			return nil, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, q, c.x[0], c.x[len(c.x)-1])
		}
		for s := range dst {
			dst[s] = c.opts.Fill
		}
		return dst, nil
	}

	w := c.weightsAt(q)
	y0a := c.a.y[w.j*n : (w.j+1)*n]
	y1a := c.a.y[(w.j+1)*n : (w.j+2)*n]
	y0b := c.b.y[w.j*n : (w.j+1)*n]
	y1b := c.b.y[(w.j+1)*n : (w.j+2)*n]

	for s := range dst {
		va := w.w0*y0a[s] + w.w1*y1a[s]
		vb := w.w0*y0b[s] + w.w1*y1b[s]
		if c.a.m2 != nil {
			k := w.j*n + s
			va += w.w2*c.a.m2[k] + w.w3*c.a.m2[k+n]
			vb += w.w2*c.b.m2[k] + w.w3*c.b.m2[k+n]
		}
		if c.opts.Decomposition == MagnitudePhase {
			// A spline can overshoot below zero between samples.
			dst[s] = cmplx.Rect(max(va, 0), vb)
		} else {
			dst[s] = complex(va, vb)
		}
	}
	return dst, nil
}

// Eval evaluates the interpolant at every query point. The result has the
// leading shape of the samples followed by one axis of length len(q).
func (c *Complex) Eval(q []float64) (*tensor.Dense[complex128], error) {
	shape := append(c.LeadShape(), len(q))
	out := tensor.New[complex128](shape...)
	data := out.Data()
	nq := len(q)

	buf := make([]complex128, c.series)
	for i, v := range q {
		vals, err := c.At(v, buf)
		if err != nil {
			return nil, err
		}
		for s, z := range vals {
			data[s*nq+i] = z
		}
	}
	return out, nil
}
