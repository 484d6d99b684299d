// Package testutil provides testing utilities for railrad.
//
// This package is intended for use in tests only. It provides a seeded RNG
// for complex tensors and sample grids, and tolerance helpers for complex
// slices.
//
//	rng := testutil.NewRNG(42)
//	y := rng.ComplexTensor(4, 3, 50)
//	x := rng.IncreasingGrid(50, 0, 20)
package testutil
