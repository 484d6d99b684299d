package interp

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain is returned for a malformed sample grid: too few points,
	// non-finite coordinates or coordinates that are not strictly increasing.
	ErrDomain = errors.New("interp: invalid sample grid")

	// ErrOutOfRange is returned for a query outside the grid when the
	// interpolant was built with BoundsError.
	ErrOutOfRange = errors.New("interp: query out of range")

	// ErrInvalidKind is returned for an unknown interpolation kind.
	ErrInvalidKind = errors.New("interp: invalid kind")

	// ErrInvalidDecomposition is returned for an unknown decomposition.
	ErrInvalidDecomposition = errors.New("interp: invalid decomposition")
)

// ShapeError indicates that the sample tensor does not line up with the grid.
type ShapeError struct {
	Axis     int
	Expected int
	Actual   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("interp: axis %d has length %d, grid has %d points", e.Axis, e.Actual, e.Expected)
}
