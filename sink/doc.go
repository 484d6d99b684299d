// Package sink receives transfer functions one frequency row at a time.
//
// A Sink is driven as Begin(shape), then WriteRow once per index of the
// leading axis, then Commit. Memory collects rows into a tensor; Chunked
// streams them to a blob as independently compressed frames, so a result far
// larger than RAM can be produced with O(row) peak memory and read back row
// by row with OpenReader.
//
// Chunked layout:
//
//	[header: "RRSK" version compression shape][row frames...][index][trailer]
//
// Rows may arrive in any order; the index maps each row to its frame.
package sink

import (
	"context"
	"errors"
)

var (
	// ErrShape is returned for an invalid shape, row index or row length.
	ErrShape = errors.New("sink: shape mismatch")
	// ErrRowWritten is returned when a row is written twice.
	ErrRowWritten = errors.New("sink: row already written")
	// ErrIncomplete is returned by Commit when rows are missing.
	ErrIncomplete = errors.New("sink: incomplete")
	// ErrState is returned for calls out of Begin/WriteRow/Commit order.
	ErrState = errors.New("sink: invalid state")
	// ErrCorrupt is returned when a streamed blob cannot be decoded.
	ErrCorrupt = errors.New("sink: corrupt")
)

// Sink consumes a row-chunked complex dataset.
type Sink interface {
	// Begin announces the full shape. Row i covers index i of axis 0.
	Begin(ctx context.Context, shape []int) error
	// WriteRow stores row i. The sink must not retain row after returning.
	WriteRow(ctx context.Context, i int, row []complex128) error
	// Commit finalizes the dataset once every row has been written.
	Commit(ctx context.Context) error
}

// Aborter is implemented by sinks that can discard partial output.
type Aborter interface {
	Abort() error
}

// rowGeometry validates shape and returns the row count and row length.
func rowGeometry(shape []int) (int, int, error) {
	if len(shape) == 0 {
		return 0, 0, ErrShape
	}
	rowLen := 1
	for _, d := range shape {
		if d < 0 {
			return 0, 0, ErrShape
		}
	}
	for _, d := range shape[1:] {
		rowLen *= d
	}
	return shape[0], rowLen, nil
}
