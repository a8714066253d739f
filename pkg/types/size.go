package types

// Simtype maps a kind to the machine kind it is represented by: int,
// uint and uintptr become sized integers, and every pointer-shaped kind
// becomes Ptr.
func (u *Universe) Simtype(k Kind) Kind {
	switch k {
	case Int:
		if u.Arch.IntSize == 8 {
			return Int64
		}
		return Int32
	case Uint:
		if u.Arch.IntSize == 8 {
			return Uint64
		}
		return Uint32
	case Uintptr:
		if u.Arch.PtrSize == 8 {
			return Uint64
		}
		return Uint32
	case Ptr, UnsafePointer, Map, Chan, Func:
		return Ptr
	}
	return k
}

// IsFat reports whether values of t do not fit in a register and are
// moved and cleared as memory.
func IsFat(t *Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case Struct, Array, String, Interface:
		return true
	}
	return false
}

// IsNillable reports whether nil is a value of t.
func IsNillable(t *Type) bool {
	switch t.Kind {
	case Ptr, UnsafePointer, Func, Map, Chan, Interface:
		return true
	case Array:
		return t.Bound < 0
	}
	return false
}

// Round rounds o up to a multiple of r, a power of two.
func Round(o, r int64) int64 { return rnd(o, r) }

func rnd(o, r int64) int64 {
	if r < 1 {
		r = 1
	}
	return (o + r - 1) &^ (r - 1)
}

// MaxWidth is the largest size of a value on the target.
func (u *Universe) MaxWidth() int64 {
	if u.Arch.PtrSize == 8 {
		return 1 << 50
	}
	return 1<<31 - 1
}

// Dowidth computes t.Width and t.Align for the target architecture.
func (u *Universe) Dowidth(t *Type) {
	if t == nil || t.sized == 2 {
		return
	}
	if t.sized == 1 {
		u.Diag.Errorf(t.Line, "invalid recursive type %v", t)
		t.sized = 2
		return
	}
	t.sized = 1

	ptr := int64(u.Arch.PtrSize)
	w := int64(0)
	align := int64(0)
	switch t.Kind {
	case Int8, Uint8, Bool:
		w = 1
	case Int16, Uint16:
		w = 2
	case Int32, Uint32, Float32:
		w = 4
	case Int64, Uint64, Float64, Complex64:
		w = 8
		align = int64(u.Arch.RegSize)
	case Complex128:
		w = 16
		align = int64(u.Arch.RegSize)
	case Int, Uint:
		w = int64(u.Arch.IntSize)
	case Uintptr, Ptr, UnsafePointer, Map, Chan, Func:
		// pointer bases are not sized here; they may close a cycle.
		w = ptr
	case String:
		w = ptr + int64(u.Arch.IntSize)
		align = ptr
	case Interface:
		w = 2 * ptr
		align = ptr
	case Forward:
		u.Diag.Errorf(t.Line, "invalid recursive type %v", t)
	case Array:
		if t.Bound < 0 {
			w = ptr + 2*int64(u.Arch.IntSize)
			align = ptr
			break
		}
		u.Dowidth(t.Elem)
		if t.Elem.Width != 0 && t.Bound > u.MaxWidth()/t.Elem.Width {
			u.Diag.Errorf(t.Line, "type %v larger than address space", t)
			break
		}
		w = t.Bound * t.Elem.Width
		align = t.Elem.Align
	case Struct:
		w, align = u.widstruct(t, 0)
	case Nil, Blank:
	default:
		u.Diag.Fatalf(t.Line, "dowidth: unknown type: %v", t.Kind)
	}
	if align == 0 {
		align = w
		if align > int64(u.Arch.RegSize) {
			align = int64(u.Arch.RegSize)
		}
		if align == 0 {
			align = 1
		}
	}
	if w > u.MaxWidth() {
		u.Diag.Errorf(t.Line, "type %v too large", t)
	}
	t.Width = w
	t.Align = align
	t.sized = 2
}

// widstruct lays out the fields of t from offset o and returns the
// rounded size and the largest field alignment.
func (u *Universe) widstruct(t *Type, o int64) (int64, int64) {
	maxalign := int64(1)
	for _, f := range t.Fields {
		u.Dowidth(f.Type)
		a := f.Type.Align
		if a > maxalign {
			maxalign = a
		}
		if t.Funarg && u.Arch.AlignArgsToPtr {
			a = int64(u.Arch.PtrSize)
		}
		o = rnd(o, a)
		f.Offset = o
		o += f.Type.Width
	}
	return rnd(o, maxalign), maxalign
}

// ArgWidth lays out the receiver, parameters and results of the function
// type ft one after the other, each tuple starting pointer aligned, and
// returns the total size of the argument frame.
func (u *Universe) ArgWidth(ft *Type) int64 {
	o := int64(0)
	for _, tup := range []*Type{ft.Recv, ft.Params, ft.Results} {
		if tup == nil {
			continue
		}
		o = rnd(o, u.Arch.PtrSize)
		o, _ = u.widstruct(tup, o)
	}
	return rnd(o, u.Arch.PtrSize)
}
