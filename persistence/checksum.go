package persistence

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// Checksums use CRC32 (IEEE). They detect accidental corruption only and are
// not meant for tamper detection.

// Checksum calculates the CRC32 checksum of data.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// VerifyChecksum returns a *ChecksumMismatchError when data does not hash to expected.
func VerifyChecksum(section string, data []byte, expected uint32) error {
	if actual := Checksum(data); actual != expected {
		return &ChecksumMismatchError{Section: section, Expected: expected, Actual: actual}
	}
	return nil
}

// ChecksumWriter wraps an io.Writer, computes a running CRC32 and counts bytes.
type ChecksumWriter struct {
	w    io.Writer
	hash hash.Hash32
	n    int64
}

// NewChecksumWriter creates a new checksumming writer.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{
		w:    w,
		hash: crc32.NewIEEE(),
	}
}

// Write implements io.Writer.
func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 {
		_, _ = cw.hash.Write(p[:n])
		cw.n += int64(n)
	}
	return n, err
}

// Sum returns the checksum of the bytes written since the last Reset.
func (cw *ChecksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

// Offset returns the total number of bytes written.
func (cw *ChecksumWriter) Offset() int64 {
	return cw.n
}

// Reset restarts the checksum. The byte offset keeps counting.
func (cw *ChecksumWriter) Reset() {
	cw.hash.Reset()
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Section  string
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch in %s: expected 0x%08x, got 0x%08x", e.Section, e.Expected, e.Actual)
}
