// Package interp provides the complex-valued one-dimensional interpolant used
// to evaluate tabulated transfer functions between reference frequencies.
//
// Available kinds, from cheapest to smoothest:
//
//   - [Linear]:  piecewise linear (default)
//   - [Nearest]: nearest sample, ties resolve to the lower sample
//   - [Cubic]:   natural cubic spline (zero curvature at both ends)
//
// # Decomposition
//
// A complex sample set is interpolated as two independent real series.
// [RealImag] (the default) splits into real and imaginary parts. It never
// sees a phase wrap, so a response that winds through ±π stays continuous,
// but near a magnitude zero-crossing the interpolated magnitude can dip below
// the true value between samples.
//
// [MagnitudePhase] interpolates magnitude and wrapped phase instead. It is
// smoother for a slowly varying magnitude with linearly varying phase, but
// every ±π wrap between two samples produces a spurious excursion, and a
// magnitude zero-crossing is reflected as a phase jump of π. A [Cubic]
// magnitude spline may undershoot zero between samples; such values are
// clamped to zero rather than flipping the phase.
//
// # Out-of-range queries
//
// Queries outside [x[0], x[m-1]] (and NaN queries) are resolved elementwise by
// the fill policy: a fixed complex fill value (zero by default), or
// [ErrOutOfRange] when BoundsError is set.
//
// An interpolant is immutable after construction. At may be called
// concurrently as long as each caller passes its own destination buffer.
package interp
