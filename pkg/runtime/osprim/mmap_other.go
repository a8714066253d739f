//go:build !unix

package osprim

// Mmap falls back to the Go heap where anonymous mappings are not
// available.
func Mmap(n int) ([]byte, error) { return make([]byte, n), nil }

func Munmap(b []byte) error { return nil }
