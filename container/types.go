package container

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/railrad/internal/compress"
)

var (
	// ErrNotFound is returned when a dataset does not exist.
	ErrNotFound = errors.New("container: dataset not found")
	// ErrCorrupt is returned when a container cannot be decoded. Checksum
	// failures also match *persistence.ChecksumMismatchError.
	ErrCorrupt = errors.New("container: corrupt")
	// ErrType is returned when a dataset is read as the wrong dtype.
	ErrType = errors.New("container: dtype mismatch")
	// ErrExists is returned when a dataset name is written twice.
	ErrExists = errors.New("container: dataset exists")
)

// DType is the element type of a dataset.
type DType uint8

const (
	Float64 DType = iota + 1
	Complex128
	Int64
	Bytes
)

func (d DType) String() string {
	switch d {
	case Float64:
		return "float64"
	case Complex128:
		return "complex128"
	case Int64:
		return "int64"
	case Bytes:
		return "bytes"
	default:
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
}

func (d DType) size() int {
	switch d {
	case Float64, Int64:
		return 8
	case Complex128:
		return 16
	default:
		return 1
	}
}

func (d DType) valid() bool { return d >= Float64 && d <= Bytes }

// Compression selects how dataset frames are stored.
type Compression uint8

const (
	// None stores datasets uncompressed.
	None Compression = Compression(compress.None)
	// LZ4 favours speed.
	LZ4 Compression = Compression(compress.LZ4)
	// ZSTD favours ratio.
	ZSTD Compression = Compression(compress.ZSTD)
)

func (c Compression) String() string { return compress.Type(c).String() }

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	}
	return None, fmt.Errorf("container: unknown compression %q", s)
}

// Entry describes one dataset.
type Entry struct {
	Name        string
	DType       DType
	Shape       []int
	Compression Compression
	Offset      uint64
	Stored      uint64
	Raw         uint64
	Checksum    uint32
}
