package lock

import (
	"sync/atomic"

	"gocore/pkg/runtime/osprim"
	"gocore/pkg/runtime/throw"
)

// initsema returns the semaphore in *p, creating it on first use. When
// two threads race, the loser destroys its semaphore.
func initsema(p *atomic.Pointer[osprim.Sema]) *osprim.Sema {
	if s := p.Load(); s != nil {
		return s
	}
	s := osprim.NewSema()
	if !p.CompareAndSwap(nil, s) {
		s.Destroy()
	}
	return p.Load()
}

// SemaMutex counts the threads that want the lock. The one moving the
// count from 0 to 1 holds it; the others wait on the semaphore, and each
// unlock that leaves the count positive wakes one of them.
type SemaMutex struct {
	key  atomic.Int32
	sema atomic.Pointer[osprim.Sema]
}

func (l *SemaMutex) Lock(m *M) {
	m.acquired()
	if l.key.Add(1) > 1 {
		initsema(&l.sema).Acquire()
	}
}

func (l *SemaMutex) Unlock(m *M) {
	v := l.key.Add(-1)
	if v < 0 {
		l.key.Add(1)
		throw.Throw("unlock of unlocked lock")
	}
	if v > 0 {
		initsema(&l.sema).Release()
	}
	m.released()
}

// Destroy frees the kernel semaphore, if any. The lock must be unused.
func (l *SemaMutex) Destroy() {
	if s := l.sema.Swap(nil); s != nil {
		s.Destroy()
	}
}

// Usema is a user-level semaphore: the count lives in u and only
// blocking or waking a blocked thread goes to the kernel semaphore.
type Usema struct {
	u atomic.Int32
	k atomic.Pointer[osprim.Sema]
}

func (s *Usema) Acquire() {
	if s.u.Add(-1) < 0 {
		initsema(&s.k).Acquire()
	}
}

func (s *Usema) Release() {
	if s.u.Add(1) <= 0 {
		initsema(&s.k).Release()
	}
}

// SemaNote is a note built on a Usema. Each woken sleeper passes the
// wakeup on so that all of them return.
type SemaNote struct {
	wakeup atomic.Bool
	sema   Usema
}

func (n *SemaNote) Clear() {
	n.wakeup.Store(false)
	n.sema.u.Store(0)
}

func (n *SemaNote) Sleep() {
	if n.wakeup.Load() {
		return
	}
	for !n.wakeup.Load() {
		n.sema.Acquire()
	}
	n.sema.Release()
}

func (n *SemaNote) Wakeup() {
	n.wakeup.Store(true)
	n.sema.Release()
}
