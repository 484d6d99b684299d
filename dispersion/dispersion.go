// Package dispersion maps (wavenumber, frequency) pairs between dispersion
// curves that share the same acoustic radiation angle.
//
// A transfer-function database is tabulated for a single reference wavenumber
// k0. A query at wavenumber kn and frequency fn radiates like the reference
// curve at the frequency f0 whose cross-sectional wavenumber projection
// matches:
//
//	f0 = sqrt(fn² − (kn² − k0²)·c²/(2π)²)
//
// When the radicand is negative the query lies in the acoustic near field and
// has no real counterpart on the reference curve; F0Shift then returns
// Unattainable, which sits below any tabulated frequency so that a zero-fill
// interpolant silences it.
package dispersion

import "math"

const (
	// SpeedOfSound is the propagation speed in the surrounding air, in m/s.
	SpeedOfSound = 343.0

	// Unattainable marks a near-field query with no far-field counterpart.
	Unattainable = -1.0
)

// c²/(2π)²
const shiftFactor = SpeedOfSound * SpeedOfSound / (4 * math.Pi * math.Pi)

// F0Shift returns the reference-curve frequency equivalent to the query
// pair (kn, fn), or Unattainable.
func F0Shift(kn, k0, fn float64) float64 {
	r := fn*fn - (kn*kn-k0*k0)*shiftFactor
	if r < 0 || math.IsNaN(r) {
		return Unattainable
	}
	return math.Sqrt(r)
}

// FnShift is the inverse of F0Shift: the frequency at wavenumber kn that
// radiates like f0 on the reference curve. A radicand pushed below zero by
// rounding clamps to zero.
func FnShift(kn, k0, f0 float64) float64 {
	r := (kn*kn-k0*k0)*shiftFactor + f0*f0
	if r < 0 {
		return 0
	}
	return math.Sqrt(r)
}

// F0ShiftRow evaluates F0Shift for every wavenumber of one frequency row.
// dst is reused when it has sufficient capacity.
func F0ShiftRow(dst, kn []float64, k0, fn float64) []float64 {
	dst = grow(dst, len(kn))
	for i, k := range kn {
		dst[i] = F0Shift(k, k0, fn)
	}
	return dst
}

// FnShiftRow evaluates FnShift for every wavenumber of one row.
func FnShiftRow(dst, kn []float64, k0, f0 float64) []float64 {
	dst = grow(dst, len(kn))
	for i, k := range kn {
		dst[i] = FnShift(k, k0, f0)
	}
	return dst
}

func grow(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}
