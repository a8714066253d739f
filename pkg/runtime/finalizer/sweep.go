package finalizer

import (
	"unsafe"

	"gocore/pkg/runtime/lock"
)

// Sweep frees every heap block that marked reports unreachable. A block
// with a finalizer is kept for one more cycle: its finalizer is removed
// from the table and returned with Arg set, ready for Run. Nothing else
// may allocate or register finalizers while a sweep runs.
func (r *Registry) Sweep(m *lock.M, marked func(p uintptr) bool) (queue []*Finalizer, freed int, err error) {
	r.mu.Lock(m)
	var table uintptr
	if len(r.tab.key) > 0 {
		table = uintptr(unsafe.Pointer(&r.tab.key[0]))
	}
	r.mu.Unlock(m)

	for _, b := range r.heap.Blocks(m) {
		if b.Base == table || marked(b.Base) {
			continue
		}
		if b.Special {
			if f := r.Get(m, b.Base, true); f != nil {
				f.Arg = b.Base
				queue = append(queue, f)
				continue
			}
		}
		if err := r.heap.Free(m, b.Base); err != nil {
			return queue, freed, err
		}
		freed++
	}
	return queue, freed, nil
}

// Run calls each queued finalizer with its object.
func Run(queue []*Finalizer) {
	for _, f := range queue {
		f.Fn(f.Arg)
		f.Fn = nil
		f.Arg = 0
	}
}
