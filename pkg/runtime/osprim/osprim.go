// Package osprim wraps the kernel primitives the runtime locks are built
// on: an address-keyed wait queue (futex), counting semaphores, anonymous
// memory mappings and thread creation.
package osprim

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Futex blocks and wakes threads on a 32-bit word.
//
// Sleep atomically checks that *addr == val and, if so, sleeps until a
// Wakeup on addr. It may return spuriously. Wakeup wakes at most n
// sleepers.
type Futex interface {
	Sleep(addr *uint32, val uint32)
	Wakeup(addr *uint32, n uint32)
}

// WakeAll is the count passed to Wakeup to release every sleeper.
const WakeAll = 1 << 30

var (
	probeOnce sync.Once
	probed    bool
)

// HasFutex reports whether the kernel provides a futex. The answer is
// probed once.
func HasFutex() bool {
	probeOnce.Do(func() { probed = probeFutex() })
	return probed
}

// KernelFutex returns the kernel futex when there is one and the
// emulation otherwise.
func KernelFutex() Futex {
	if HasFutex() {
		return sysFutex{}
	}
	return Emulated
}

// Emulated is a futex implemented in user space, keyed by address.
var Emulated Futex = &emuFutex{waiters: make(map[*uint32][]chan struct{})}

type emuFutex struct {
	mu      sync.Mutex
	waiters map[*uint32][]chan struct{}
}

func (f *emuFutex) Sleep(addr *uint32, val uint32) {
	f.mu.Lock()
	if atomic.LoadUint32(addr) != val {
		f.mu.Unlock()
		return
	}
	ch := make(chan struct{})
	f.waiters[addr] = append(f.waiters[addr], ch)
	f.mu.Unlock()
	<-ch
}

func (f *emuFutex) Wakeup(addr *uint32, n uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.waiters[addr]
	for n > 0 && len(q) > 0 {
		close(q[0])
		q = q[1:]
		n--
	}
	if len(q) == 0 {
		delete(f.waiters, addr)
	} else {
		f.waiters[addr] = q
	}
}

// NewOSProc runs fn(arg) on a new goroutine locked to its own OS thread
// for its whole life.
func NewOSProc(fn func(arg any), arg any) {
	go func() {
		runtime.LockOSThread()
		fn(arg)
	}()
}

// Osyield gives up the processor.
func Osyield() { runtime.Gosched() }

var spin uint32

// Procyield spins for about n iterations without giving up the
// processor.
func Procyield(n int) {
	for i := 0; i < n; i++ {
		atomic.LoadUint32(&spin)
	}
}

// ProcCount is the number of processors available.
func ProcCount() int { return runtime.NumCPU() }
