// Package heap is a small arena allocator over anonymous mappings. Its
// memory is outside the Go heap, so words stored in it are not seen by
// the Go collector. The heap is serialized by its own lock.
package heap

import (
	"sort"
	"unsafe"

	"github.com/pkg/errors"

	"gocore/pkg/runtime/lock"
	"gocore/pkg/runtime/osprim"
)

const (
	wordSize = int(unsafe.Sizeof(uintptr(0)))

	// DefaultArena is the size of each mapping unless a larger block is
	// requested.
	DefaultArena = 1 << 20
)

type arena struct {
	mem  []byte
	base uintptr
}

type span struct {
	base    uintptr
	size    uintptr
	arena   *arena
	free    bool
	special bool
}

// Block describes a live allocation.
type Block struct {
	Base    uintptr
	Size    uintptr
	Special bool
}

// Heap owns a set of arenas carved into spans.
type Heap struct {
	mu        lock.Mutex
	arenaSize int
	arenas    []*arena
	spans     []*span // sorted by base
	inuse     uintptr
}

// New returns an empty heap mapping arenas of arenaSize bytes, or
// DefaultArena if arenaSize is not positive.
func New(arenaSize int) *Heap {
	if arenaSize <= 0 {
		arenaSize = DefaultArena
	}
	return &Heap{mu: lock.NewMutex(), arenaSize: arenaSize}
}

func roundWord(n uintptr) uintptr {
	w := uintptr(wordSize)
	return (n + w - 1) &^ (w - 1)
}

// Alloc returns the base address of a zeroed block of at least size
// bytes.
func (h *Heap) Alloc(m *lock.M, size uintptr) (uintptr, error) {
	h.mu.Lock(m)
	defer h.mu.Unlock(m)
	s, err := h.alloc(size)
	if err != nil {
		return 0, err
	}
	return s.base, nil
}

// AllocWords returns n zeroed words of heap memory. The collector does
// not follow pointers stored in them.
func (h *Heap) AllocWords(m *lock.M, n int) ([]uintptr, error) {
	h.mu.Lock(m)
	defer h.mu.Unlock(m)
	s, err := h.alloc(uintptr(n * wordSize))
	if err != nil {
		return nil, err
	}
	off := s.base - s.arena.base
	return unsafe.Slice((*uintptr)(unsafe.Pointer(&s.arena.mem[off])), n), nil
}

func (h *Heap) alloc(size uintptr) (*span, error) {
	if size == 0 {
		size = uintptr(wordSize)
	}
	size = roundWord(size)

	for i, s := range h.spans {
		if !s.free || s.size < size {
			continue
		}
		if s.size > size {
			rest := &span{base: s.base + size, size: s.size - size, arena: s.arena, free: true}
			s.size = size
			h.spans = append(h.spans, nil)
			copy(h.spans[i+2:], h.spans[i+1:])
			h.spans[i+1] = rest
		}
		s.free = false
		s.special = false
		off := s.base - s.arena.base
		clear(s.arena.mem[off : off+size])
		h.inuse += size
		return s, nil
	}

	n := h.arenaSize
	if int(size) > n {
		n = int(size)
	}
	mem, err := osprim.Mmap(n)
	if err != nil {
		return nil, errors.Wrap(err, "heap: out of memory")
	}
	a := &arena{mem: mem, base: uintptr(unsafe.Pointer(&mem[0]))}
	h.arenas = append(h.arenas, a)
	h.insert(&span{base: a.base, size: uintptr(n), arena: a, free: true})
	return h.alloc(size)
}

func (h *Heap) insert(s *span) {
	i := sort.Search(len(h.spans), func(i int) bool { return h.spans[i].base > s.base })
	h.spans = append(h.spans, nil)
	copy(h.spans[i+1:], h.spans[i:])
	h.spans[i] = s
}

// find returns the index of the span containing p, or -1.
func (h *Heap) find(p uintptr) int {
	i := sort.Search(len(h.spans), func(i int) bool { return h.spans[i].base > p }) - 1
	if i < 0 {
		return -1
	}
	if s := h.spans[i]; p < s.base+s.size {
		return i
	}
	return -1
}

// Lookup returns the block containing p. ok is false when p is not inside
// a live allocation.
func (h *Heap) Lookup(m *lock.M, p uintptr) (base, size uintptr, ok bool) {
	h.mu.Lock(m)
	defer h.mu.Unlock(m)
	i := h.find(p)
	if i < 0 || h.spans[i].free {
		return 0, 0, false
	}
	s := h.spans[i]
	return s.base, s.size, true
}

// SetSpecial marks the block at base as having a finalizer.
func (h *Heap) SetSpecial(m *lock.M, base uintptr) bool {
	h.mu.Lock(m)
	defer h.mu.Unlock(m)
	i := h.find(base)
	if i < 0 || h.spans[i].free || h.spans[i].base != base {
		return false
	}
	h.spans[i].special = true
	return true
}

// Free releases the block at base and merges it with free neighbors in
// the same arena.
func (h *Heap) Free(m *lock.M, base uintptr) error {
	h.mu.Lock(m)
	defer h.mu.Unlock(m)
	i := h.find(base)
	if i < 0 || h.spans[i].free || h.spans[i].base != base {
		return errors.Errorf("heap: free of invalid pointer %#x", base)
	}
	s := h.spans[i]
	s.free = true
	s.special = false
	h.inuse -= s.size

	if i+1 < len(h.spans) {
		if next := h.spans[i+1]; next.free && next.arena == s.arena {
			s.size += next.size
			h.spans = append(h.spans[:i+1], h.spans[i+2:]...)
		}
	}
	if i > 0 {
		if prev := h.spans[i-1]; prev.free && prev.arena == s.arena {
			prev.size += s.size
			h.spans = append(h.spans[:i], h.spans[i+1:]...)
		}
	}
	return nil
}

// FreeWords releases storage returned by AllocWords.
func (h *Heap) FreeWords(m *lock.M, words []uintptr) error {
	if len(words) == 0 {
		return nil
	}
	return h.Free(m, uintptr(unsafe.Pointer(&words[0])))
}

// Blocks returns the live blocks in address order.
func (h *Heap) Blocks(m *lock.M) []Block {
	h.mu.Lock(m)
	defer h.mu.Unlock(m)
	var out []Block
	for _, s := range h.spans {
		if !s.free {
			out = append(out, Block{Base: s.base, Size: s.size, Special: s.special})
		}
	}
	return out
}

// InUse is the number of bytes in live blocks.
func (h *Heap) InUse(m *lock.M) uintptr {
	h.mu.Lock(m)
	defer h.mu.Unlock(m)
	return h.inuse
}

// Release unmaps every arena. The heap must not be used afterwards.
func (h *Heap) Release(m *lock.M) error {
	h.mu.Lock(m)
	defer h.mu.Unlock(m)
	var first error
	for _, a := range h.arenas {
		if err := osprim.Munmap(a.mem); err != nil && first == nil {
			first = err
		}
	}
	h.arenas, h.spans, h.inuse = nil, nil, 0
	return first
}
