// Package finalizer keeps the table mapping heap objects to the
// functions run when the collector finds them unreachable.
//
// The table is a direct hash with linear probing, at most 3/4 full. Its
// size is a power of 3 so the hash can be key % size. Keys and callbacks
// live in separate arrays: the key array is allocated from the runtime
// heap, where the collector does not follow the addresses it holds, while
// callbacks stay in the Go heap. A slot state array marks deleted slots,
// which do not stop a probe but may be reused by an insert.
package finalizer

import (
	"fmt"

	"gocore/pkg/runtime/heap"
	"gocore/pkg/runtime/lock"
	"gocore/pkg/runtime/throw"
)

// Finalizer is a registered callback. Nret is the size of the results the
// callback returns, reserved when it is called.
type Finalizer struct {
	Fn   func(p uintptr)
	Nret int32

	// Arg is the object being finalized, set when the finalizer is
	// queued.
	Arg uintptr
}

type slotState uint8

const (
	empty slotState = iota
	live
	dead
)

const initialSize = 3 * 3 * 3

type table struct {
	key   []uintptr
	val   []*Finalizer
	state []slotState
	nkey  int // slots ever filled: live and dead
	ndead int
	max   int
}

// Registry is a finalizer table. All operations hold its lock, which is
// distinct from the heap's own: growing the table allocates.
type Registry struct {
	mu   lock.Mutex
	heap *heap.Heap
	tab  table
}

// New returns an empty registry for objects of h.
func New(h *heap.Heap) *Registry {
	return &Registry{mu: lock.NewMutex(), heap: h}
}

func (t *table) add(k uintptr, v *Finalizer) {
	i := int(k % uintptr(t.max))
	for j := 0; j < t.max; j++ {
		switch t.state[i] {
		case empty:
			t.nkey++
			t.set(i, k, v)
			return
		case dead:
			t.ndead--
			t.set(i, k, v)
			return
		}
		if i++; i == t.max {
			i = 0
		}
	}
	// the table is known to be non-full
	throw.Throw("finalizer table inconsistent")
}

func (t *table) set(i int, k uintptr, v *Finalizer) {
	t.key[i] = k
	t.val[i] = v
	t.state[i] = live
}

func (t *table) look(k uintptr, del bool) *Finalizer {
	if t.max == 0 {
		return nil
	}
	i := int(k % uintptr(t.max))
	for j := 0; j < t.max; j++ {
		switch t.state[i] {
		case empty:
			return nil
		case live:
			if t.key[i] == k {
				v := t.val[i]
				if del {
					t.key[i] = 0
					t.val[i] = nil
					t.state[i] = dead
					t.ndead++
				}
				return v
			}
		}
		if i++; i == t.max {
			i = 0
		}
	}
	throw.Throw("finalizer table inconsistent")
	return nil
}

// Add registers fn to run when the object at p is collected. p must be
// the base of a live heap block. A nil fn removes the finalizer of p.
// Registering a second finalizer for p is fatal.
func (r *Registry) Add(m *lock.M, p uintptr, fn func(uintptr), nret int32) {
	var e *Finalizer
	if fn != nil {
		e = &Finalizer{Fn: fn, Nret: nret}
	}

	r.mu.Lock(m)
	if base, _, ok := r.heap.Lookup(m, p); !ok || base != p {
		r.mu.Unlock(m)
		throw.Throw("addfinalizer on invalid pointer")
	}
	if fn == nil {
		r.tab.look(p, true)
		r.mu.Unlock(m)
		return
	}
	if r.tab.look(p, false) != nil {
		r.mu.Unlock(m)
		throw.Throw("double finalizer")
	}
	r.heap.SetSpecial(m, p)

	t := &r.tab
	if t.nkey >= t.max/2+t.max/4 {
		if err := r.grow(m); err != nil {
			r.mu.Unlock(m)
			throw.Throw(fmt.Sprintf("finalizer table: %v", err))
		}
	}
	t.add(p, e)
	r.mu.Unlock(m)
}

// grow rehashes into a table three times larger, or of the same size
// when at least half the filled slots are dead.
func (r *Registry) grow(m *lock.M) error {
	old := r.tab
	n := old.max
	switch {
	case n == 0:
		n = initialSize
	case old.ndead < old.nkey/2:
		n *= 3
	}

	key, err := r.heap.AllocWords(m, n)
	if err != nil {
		return err
	}
	t := table{
		key:   key,
		val:   make([]*Finalizer, n),
		state: make([]slotState, n),
		max:   n,
	}
	for i := 0; i < old.max; i++ {
		if old.state[i] == live {
			t.add(old.key[i], old.val[i])
		}
	}
	if old.key != nil {
		if err := r.heap.FreeWords(m, old.key); err != nil {
			return err
		}
	}
	r.tab = t
	return nil
}

// Get returns the finalizer of p, or nil, deleting it when del is set.
// The caller updates the block's special bit.
func (r *Registry) Get(m *lock.M, p uintptr, del bool) *Finalizer {
	r.mu.Lock(m)
	f := r.tab.look(p, del)
	r.mu.Unlock(m)
	return f
}

// Walk calls fn for every object with a finalizer. fn runs with the
// registry locked and must not call back into it.
func (r *Registry) Walk(m *lock.M, fn func(p uintptr)) {
	r.mu.Lock(m)
	defer r.mu.Unlock(m)
	t := &r.tab
	for i := 0; i < t.max; i++ {
		if t.state[i] == live {
			fn(t.key[i])
		}
	}
}

// Stats describes the table.
type Stats struct {
	Size int // slots
	Live int
	Dead int
}

// Load is the fraction of slots filled, dead ones included.
func (s Stats) Load() float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(s.Live+s.Dead) / float64(s.Size)
}

func (r *Registry) Stats(m *lock.M) Stats {
	r.mu.Lock(m)
	defer r.mu.Unlock(m)
	t := &r.tab
	return Stats{Size: t.max, Live: t.nkey - t.ndead, Dead: t.ndead}
}
