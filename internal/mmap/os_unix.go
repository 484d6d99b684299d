//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int, access Access) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}

	advice := unix.MADV_SEQUENTIAL
	if access == Random {
		advice = unix.MADV_RANDOM
	}
	// EINVAL only means the kernel ignored the hint.
	if err := unix.Madvise(data, advice); err != nil && !errors.Is(err, unix.EINVAL) {
		_ = unix.Munmap(data)
		return nil, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
