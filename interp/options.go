package interp

import "fmt"

// Kind selects the interpolation scheme.
type Kind int

const (
	// Linear is piecewise-linear interpolation.
	Linear Kind = iota
	// Cubic is a natural cubic spline.
	Cubic
	// Nearest picks the closest sample.
	Nearest
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	case Nearest:
		return "nearest"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	case "nearest":
		return Nearest, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

func (k Kind) minPoints() int {
	if k == Cubic {
		return 3
	}
	return 2
}

// Decomposition selects which pair of real series is interpolated.
type Decomposition int

const (
	// RealImag interpolates real and imaginary parts.
	RealImag Decomposition = iota
	// MagnitudePhase interpolates magnitude and wrapped phase.
	MagnitudePhase
)

func (d Decomposition) String() string {
	switch d {
	case RealImag:
		return "real-imag"
	case MagnitudePhase:
		return "magnitude-phase"
	default:
		return fmt.Sprintf("Decomposition(%d)", int(d))
	}
}

// ParseDecomposition is the inverse of Decomposition.String.
func ParseDecomposition(s string) (Decomposition, error) {
	switch s {
	case "real-imag":
		return RealImag, nil
	case "magnitude-phase":
		return MagnitudePhase, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDecomposition, s)
	}
}

// Options configures NewComplex.
type Options struct {
	// Kind is the interpolation scheme. Default: Linear.
	Kind Kind

	// Decomposition selects real/imaginary or magnitude/phase. Default: RealImag.
	Decomposition Decomposition

	// Axis is the interpolation axis of the sample tensor. Negative values
	// count from the end. Default: -1.
	Axis int

	// AssumeSorted skips validation of the grid. The caller guarantees that
	// x is finite and strictly increasing.
	AssumeSorted bool

	// BoundsError makes out-of-range queries fail with ErrOutOfRange instead
	// of returning Fill.
	BoundsError bool

	// Fill is returned for out-of-range queries. Default: 0+0i.
	Fill complex128
}

// DefaultOptions contains the default configuration.
var DefaultOptions = Options{
	Kind:          Linear,
	Decomposition: RealImag,
	Axis:          -1,
}

// WithKind sets the interpolation scheme.
func WithKind(k Kind) func(o *Options) {
	return func(o *Options) { o.Kind = k }
}

// WithDecomposition sets how complex samples are split before interpolation.
func WithDecomposition(d Decomposition) func(o *Options) {
	return func(o *Options) { o.Decomposition = d }
}

// WithAxis sets the interpolation axis of the sample tensor.
func WithAxis(axis int) func(o *Options) {
	return func(o *Options) { o.Axis = axis }
}

// WithFill sets the value returned for out-of-range queries.
func WithFill(v complex128) func(o *Options) {
	return func(o *Options) { o.Fill = v }
}

// WithBoundsError makes out-of-range queries fail with ErrOutOfRange.
func WithBoundsError() func(o *Options) {
	return func(o *Options) { o.BoundsError = true }
}

// WithAssumeSorted skips grid validation.
func WithAssumeSorted(sorted bool) func(o *Options) {
	return func(o *Options) { o.AssumeSorted = sorted }
}
