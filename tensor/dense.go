// Package tensor provides the dense row-major n-d arrays that carry transfer
// functions, velocity fields and responses through railrad.
package tensor

import (
	"errors"
	"fmt"
)

// ErrShape is returned when a shape does not match the backing data.
var ErrShape = errors.New("tensor: invalid shape")

// Scalar is the element constraint for Dense.
type Scalar interface {
	~float64 | ~complex128
}

// Dense is a row-major n-dimensional array.
//
// A Dense returned by Row shares its backing slice with the parent.
type Dense[T Scalar] struct {
	shape   []int
	strides []int
	data    []T
}

// New allocates a zeroed array of the given shape.
// It panics if any dimension is negative.
func New[T Scalar](shape ...int) *Dense[T] {
	n, err := volume(shape)
	if err != nil {
		panic(err)
	}
	return &Dense[T]{
		shape:   append([]int(nil), shape...),
		strides: stridesOf(shape),
		data:    make([]T, n),
	}
}

// FromData wraps data without copying.
func FromData[T Scalar](data []T, shape ...int) (*Dense[T], error) {
	n, err := volume(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: shape %v holds %d elements, data has %d", ErrShape, shape, n, len(data))
	}
	return &Dense[T]{
		shape:   append([]int(nil), shape...),
		strides: stridesOf(shape),
		data:    data,
	}, nil
}

func volume(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrShape, shape)
		}
		n *= d
	}
	return n, nil
}

func stridesOf(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}

// Shape returns a copy of the array's shape.
func (d *Dense[T]) Shape() []int {
	return append([]int(nil), d.shape...)
}

// Dims returns the number of axes.
func (d *Dense[T]) Dims() int { return len(d.shape) }

// Dim returns the length of axis i.
func (d *Dense[T]) Dim(i int) int { return d.shape[i] }

// Len returns the number of elements.
func (d *Dense[T]) Len() int { return len(d.data) }

// Data returns the backing slice in row-major order.
func (d *Dense[T]) Data() []T { return d.data }

// Index returns the flat offset of idx. It panics on a bad index.
func (d *Dense[T]) Index(idx ...int) int {
	if len(idx) != len(d.shape) {
		panic(fmt.Sprintf("tensor: %d indices for %d axes", len(idx), len(d.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= d.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range [0,%d) on axis %d", v, d.shape[i], i))
		}
		off += v * d.strides[i]
	}
	return off
}

// At returns the element at idx.
func (d *Dense[T]) At(idx ...int) T { return d.data[d.Index(idx...)] }

// Set stores v at idx.
func (d *Dense[T]) Set(v T, idx ...int) { d.data[d.Index(idx...)] = v }

// Row returns a view of the sub-array at leading index i.
func (d *Dense[T]) Row(i int) *Dense[T] {
	if len(d.shape) == 0 {
		panic("tensor: Row on a scalar")
	}
	if i < 0 || i >= d.shape[0] {
		panic(fmt.Sprintf("tensor: row %d out of range [0,%d)", i, d.shape[0]))
	}
	stride := d.strides[0]
	return &Dense[T]{
		shape:   append([]int(nil), d.shape[1:]...),
		strides: append([]int(nil), d.strides[1:]...),
		data:    d.data[i*stride : (i+1)*stride : (i+1)*stride],
	}
}

// Clone returns a deep copy.
func (d *Dense[T]) Clone() *Dense[T] {
	return &Dense[T]{
		shape:   append([]int(nil), d.shape...),
		strides: append([]int(nil), d.strides...),
		data:    append([]T(nil), d.data...),
	}
}

// MoveAxisToEnd returns a copy with axis moved to the last position.
// Negative axes count from the end.
func (d *Dense[T]) MoveAxisToEnd(axis int) (*Dense[T], error) {
	n := len(d.shape)
	if axis < 0 {
		axis += n
	}
	if axis < 0 || axis >= n {
		return nil, fmt.Errorf("%w: axis out of range for %d axes", ErrShape, n)
	}
	if axis == n-1 {
		return d.Clone(), nil
	}

	shape := make([]int, 0, n)
	shape = append(shape, d.shape[:axis]...)
	shape = append(shape, d.shape[axis+1:]...)
	shape = append(shape, d.shape[axis])
	out := New[T](shape...)

	// outer × axis × inner  ->  outer × inner × axis
	outer := 1
	for _, v := range d.shape[:axis] {
		outer *= v
	}
	m := d.shape[axis]
	inner := d.strides[axis]
	for o := 0; o < outer; o++ {
		src := d.data[o*m*inner : (o+1)*m*inner]
		dst := out.data[o*m*inner : (o+1)*m*inner]
		for j := 0; j < m; j++ {
			for i := 0; i < inner; i++ {
				dst[i*m+j] = src[j*inner+i]
			}
		}
	}
	return out, nil
}
