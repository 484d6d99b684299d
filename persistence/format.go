package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// ContainerMagic identifies database container blobs (ASCII: "RRDB").
	ContainerMagic uint32 = 0x52524442
	// SinkMagic identifies streamed transfer-function blobs (ASCII: "RRSK").
	SinkMagic uint32 = 0x5252534B

	// Version is the current file format version (v1.0).
	Version uint32 = 0x00010000

	// TrailerSize is the encoded size of a Trailer in bytes.
	TrailerSize = 32
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrTruncated      = errors.New("truncated data")
)

// Trailer is the fixed-size record at the end of every railrad blob.
type Trailer struct {
	Magic       uint32 // ContainerMagic or SinkMagic
	Version     uint32 // File format version
	DirOffset   uint64 // Offset of the directory section
	DirLength   uint64 // Length of the directory section
	DirChecksum uint32 // CRC32 of the directory bytes
	Reserved    uint32
}

// MarshalBinary encodes the trailer into TrailerSize bytes.
func (t Trailer) MarshalBinary() ([]byte, error) {
	b := make([]byte, TrailerSize)
	binary.LittleEndian.PutUint32(b[0:], t.Magic)
	binary.LittleEndian.PutUint32(b[4:], t.Version)
	binary.LittleEndian.PutUint64(b[8:], t.DirOffset)
	binary.LittleEndian.PutUint64(b[16:], t.DirLength)
	binary.LittleEndian.PutUint32(b[24:], t.DirChecksum)
	binary.LittleEndian.PutUint32(b[28:], t.Reserved)
	return b, nil
}

// ParseTrailer decodes and validates a trailer against the expected magic.
// size is the total blob size, used to bounds-check the directory.
func ParseTrailer(b []byte, magic uint32, size int64) (Trailer, error) {
	if len(b) != TrailerSize {
		return Trailer{}, fmt.Errorf("%w: trailer is %d bytes", ErrTruncated, len(b))
	}
	t := Trailer{
		Magic:       binary.LittleEndian.Uint32(b[0:]),
		Version:     binary.LittleEndian.Uint32(b[4:]),
		DirOffset:   binary.LittleEndian.Uint64(b[8:]),
		DirLength:   binary.LittleEndian.Uint64(b[16:]),
		DirChecksum: binary.LittleEndian.Uint32(b[24:]),
		Reserved:    binary.LittleEndian.Uint32(b[28:]),
	}
	if t.Magic != magic {
		return Trailer{}, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, t.Magic)
	}
	if t.Version != Version {
		return Trailer{}, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, t.Version)
	}
	limit := uint64(size - TrailerSize)
	if size < TrailerSize || t.DirOffset > limit || t.DirLength > limit-t.DirOffset {
		return Trailer{}, fmt.Errorf("%w: directory [%d,+%d) outside blob of %d bytes", ErrTruncated, t.DirOffset, t.DirLength, size)
	}
	return t, nil
}
