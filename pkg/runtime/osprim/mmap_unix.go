//go:build unix

package osprim

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Mmap maps n bytes of zeroed anonymous memory outside the Go heap.
func Mmap(n int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "osprim: mmap %d bytes", n)
	}
	return b, nil
}

// Munmap releases a mapping returned by Mmap.
func Munmap(b []byte) error {
	return errors.Wrap(unix.Munmap(b), "osprim: munmap")
}
