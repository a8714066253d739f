// Package lock implements the runtime's blocking locks and one-shot
// notifications over the kernel primitives in osprim. Two families exist:
// futex-based, where the lock word itself is the wait queue key, and
// semaphore-based, where contended waiters park on a kernel semaphore
// allocated on first contention.
package lock

import (
	"sync/atomic"

	"gocore/pkg/runtime/throw"
)

// M is the state of one execution context. Every Lock and Unlock is
// charged to an M; the held-lock count must never go negative.
type M struct {
	ID    int64
	locks int32
}

var mcount atomic.Int64

// NewM returns a context with a fresh ID.
func NewM() *M { return &M{ID: mcount.Add(1)} }

// Locks is the number of locks m holds.
func (m *M) Locks() int32 { return m.locks }

func (m *M) acquired() {
	if m.locks < 0 {
		throw.Throw("lock count")
	}
	m.locks++
}

func (m *M) released() {
	m.locks--
	if m.locks < 0 {
		throw.Throw("lock count")
	}
}

// Mutex is a runtime lock. The zero value of each implementation is an
// unlocked mutex.
type Mutex interface {
	Lock(m *M)
	Unlock(m *M)
}

// Note is a one-shot notification. After Clear, Sleep blocks until
// Wakeup; once woken every current and later sleeper returns at once.
// Clear must not race with sleepers of the previous cycle.
type Note interface {
	Clear()
	Wakeup()
	Sleep()
}

// NewMutex returns the mutex suited to the host kernel.
func NewMutex() Mutex {
	if useFutex() {
		return new(FutexMutex)
	}
	return new(SemaMutex)
}

// NewNote returns a cleared note suited to the host kernel.
func NewNote() Note {
	if useFutex() {
		return new(FutexNote)
	}
	return new(SemaNote)
}
