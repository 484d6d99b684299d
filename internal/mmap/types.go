package mmap

import "errors"

// Access tells the kernel how a container will be read.
type Access int

const (
	// Sequential suits loading: every dataset is decoded front to back once.
	Sequential Access = iota
	// Random suits row lookups in streamed sink blobs.
	Random
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrOutOfBounds is returned for a negative offset or a range past the end.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrTooLarge is returned when the file does not fit the address space.
	ErrTooLarge = errors.New("mmap: file too large to map")
)
