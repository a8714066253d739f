//go:build linux

package osprim

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"gocore/pkg/runtime/throw"
)

const (
	futexWait    = 0
	futexWake    = 1
	futexPrivate = 128
)

// 1<<40 would wrap to a near-zero timeout where the kernel reads two
// 32-bit words; 1<<30 seconds is about 34 years.
var longtime = unix.Timespec{Sec: 1 << 30}

type sysFutex struct{}

// Sleep ignores the result: some kernels return internal error codes from
// FUTEX_WAIT, and spurious wakeups are allowed.
func (sysFutex) Sleep(addr *uint32, val uint32) {
	unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), futexWait|futexPrivate,
		uintptr(val), uintptr(unsafe.Pointer(&longtime)), 0, 0)
}

func (sysFutex) Wakeup(addr *uint32, n uint32) {
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), futexWake|futexPrivate,
		uintptr(n), 0, 0, 0)
	if errno != 0 {
		throw.Throw(fmt.Sprintf("futexwakeup addr=%p returned %d", addr, -int64(errno)))
	}
}

func probeFutex() bool {
	var word uint32
	_, _, errno := unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(&word)), futexWake|futexPrivate,
		1, 0, 0, 0)
	return errno != unix.ENOSYS
}
