package lock

import (
	"sync/atomic"

	"gocore/pkg/runtime/osprim"
	"gocore/pkg/runtime/throw"
)

var kernel = osprim.KernelFutex()

func useFutex() bool { return osprim.HasFutex() }

// FutexMutex is a lock whose key packs a held bit (bit 0) and the number
// of sleeping waiters (counted in steps of 2).
type FutexMutex struct {
	key   uint32
	Futex osprim.Futex // nil means the kernel futex
}

func (l *FutexMutex) futex() osprim.Futex {
	if l.Futex != nil {
		return l.Futex
	}
	return kernel
}

func (l *FutexMutex) Lock(m *M) {
	m.acquired()
	l.lock()
}

// Unlock releases l. The lock word is checked before m's count so that a
// second Unlock reports the lock, not the context.
func (l *FutexMutex) Unlock(m *M) {
	l.unlock()
	m.released()
}

func (l *FutexMutex) lock() {
	for {
		v := atomic.LoadUint32(&l.key)
		if v&1 == 0 {
			if atomic.CompareAndSwapUint32(&l.key, v, v|1) {
				return
			}
			continue
		}
		if !atomic.CompareAndSwapUint32(&l.key, v, v+2) {
			continue
		}

		l.futex().Sleep(&l.key, v+2)

		for {
			v = atomic.LoadUint32(&l.key)
			if v < 2 {
				throw.Throw("bad lock key")
			}
			if atomic.CompareAndSwapUint32(&l.key, v, v-2) {
				break
			}
		}
	}
}

func (l *FutexMutex) unlock() {
	for {
		v := atomic.LoadUint32(&l.key)
		if v&1 == 0 {
			throw.Throw("unlock of unlocked lock")
		}
		if !atomic.CompareAndSwapUint32(&l.key, v, v&^1) {
			continue
		}
		if v&^1 != 0 {
			l.futex().Wakeup(&l.key, 1)
		}
		return
	}
}

// FutexNote is a note over a state word: 0 cleared, 1 signaled. Sleepers
// wait on the word itself rather than on a lock released twice, so one
// Wakeup releases every sleeper and later Sleeps return immediately.
type FutexNote struct {
	state uint32
	Futex osprim.Futex // nil means the kernel futex
}

func (n *FutexNote) futex() osprim.Futex {
	if n.Futex != nil {
		return n.Futex
	}
	return kernel
}

func (n *FutexNote) Clear() { atomic.StoreUint32(&n.state, 0) }

func (n *FutexNote) Wakeup() {
	atomic.SwapUint32(&n.state, 1)
	n.futex().Wakeup(&n.state, osprim.WakeAll)
}

func (n *FutexNote) Sleep() {
	for atomic.LoadUint32(&n.state) == 0 {
		n.futex().Sleep(&n.state, 0)
	}
}
