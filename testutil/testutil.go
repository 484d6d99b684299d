package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/railrad/tensor"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64Range returns a pseudo-random number in [minVal, maxVal).
func (r *RNG) Float64Range(minVal, maxVal float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return minVal + r.rand.Float64()*(maxVal-minVal)
}

// Complex returns a complex number with both parts uniform in [-1, 1).
func (r *RNG) Complex() complex128 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return complex(2*r.rand.Float64()-1, 2*r.rand.Float64()-1)
}

// ComplexTensor returns a tensor of the given shape filled with Complex().
func (r *RNG) ComplexTensor(shape ...int) *tensor.Dense[complex128] {
	t := tensor.New[complex128](shape...)
	data := t.Data()
	for i := range data {
		data[i] = r.Complex()
	}
	return t
}

// IncreasingGrid returns n strictly increasing coordinates starting at start,
// with steps in (0.1·maxStep, maxStep].
func (r *RNG) IncreasingGrid(n int, start, maxStep float64) []float64 {
	x := make([]float64, n)
	v := start
	for i := range x {
		x[i] = v
		v += maxStep * (1 - r.Float64Range(0, 0.9))
	}
	return x
}

// UniformGrid returns n evenly spaced coordinates from start to stop inclusive.
func UniformGrid(n int, start, stop float64) []float64 {
	x := make([]float64, n)
	if n == 1 {
		x[0] = start
		return x
	}
	step := (stop - start) / float64(n-1)
	for i := range x {
		x[i] = start + float64(i)*step
	}
	x[n-1] = stop
	return x
}

// MaxAbsDiff returns the largest |a[i]-b[i]|, or +Inf when lengths differ.
func MaxAbsDiff(a, b []complex128) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	maxDiff := 0.0
	for i := range a {
		d := math.Hypot(real(a[i])-real(b[i]), imag(a[i])-imag(b[i]))
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}
