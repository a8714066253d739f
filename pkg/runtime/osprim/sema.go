package osprim

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Sema is a kernel counting semaphore starting at zero.
type Sema struct {
	w *semaphore.Weighted
}

const semaMax = math.MaxInt32

var semaCount atomic.Int64

// NewSema creates a semaphore with no tokens.
func NewSema() *Sema {
	w := semaphore.NewWeighted(semaMax)
	// hold every token; Release hands them back one at a time
	w.TryAcquire(semaMax)
	semaCount.Add(1)
	return &Sema{w: w}
}

// Acquire blocks until a token is available and takes it.
func (s *Sema) Acquire() {
	// cannot fail with a background context
	_ = s.w.Acquire(context.Background(), 1)
}

// Release adds a token, waking one waiter.
func (s *Sema) Release() { s.w.Release(1) }

// Destroy releases the semaphore. It must have no waiters.
func (s *Sema) Destroy() { semaCount.Add(-1) }

// SemaCount is the number of semaphores created and not destroyed.
func SemaCount() int64 { return semaCount.Load() }
