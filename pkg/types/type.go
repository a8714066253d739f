// Package types implements the compiler's type graph: construction,
// identity, assignability, conversion, interface satisfaction and method
// promotion through embedded fields.
package types

import (
	"sort"

	"gocore/pkg/config"
	"gocore/pkg/diag"
	"gocore/pkg/symtab"
)

type Kind uint8

const (
	Invalid Kind = iota

	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Int
	Uint
	Uintptr

	Complex64
	Complex128

	Float32
	Float64

	Bool

	Ptr
	Func
	Array
	Struct
	Chan
	Map
	Interface
	Forward

	String
	UnsafePointer

	// pseudo-types for literals and the blank identifier
	Nil
	Blank

	nkinds
)

var kindNames = [...]string{
	Invalid:       "invalid",
	Int8:          "int8",
	Uint8:         "uint8",
	Int16:         "int16",
	Uint16:        "uint16",
	Int32:         "int32",
	Uint32:        "uint32",
	Int64:         "int64",
	Uint64:        "uint64",
	Int:           "int",
	Uint:          "uint",
	Uintptr:       "uintptr",
	Complex64:     "complex64",
	Complex128:    "complex128",
	Float32:       "float32",
	Float64:       "float64",
	Bool:          "bool",
	Ptr:           "ptr",
	Func:          "func",
	Array:         "array",
	Struct:        "struct",
	Chan:          "chan",
	Map:           "map",
	Interface:     "interface",
	Forward:       "forward",
	String:        "string",
	UnsafePointer: "unsafe.Pointer",
	Nil:           "nil",
	Blank:         "blank",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "kind?"
}

func (k Kind) IsInteger() bool { return k >= Int8 && k <= Uintptr }
func (k Kind) IsFloat() bool   { return k == Float32 || k == Float64 }
func (k Kind) IsComplex() bool { return k == Complex64 || k == Complex128 }

func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64, Int:
		return true
	}
	return false
}

// ChanDir is the direction of a channel type.
type ChanDir uint8

const (
	Crecv ChanDir = 1 << iota
	Csend
	Cboth = Crecv | Csend
)

// BoundSlice is the Bound of a slice type.
const BoundSlice int64 = -1

// Type is a node of the type graph. Every type lives in a Universe and
// is identified by its ID; named types are only identical to themselves.
type Type struct {
	ID   int32
	Kind Kind
	Sym  *symtab.Sym // defining name, nil for unnamed types

	Elem  *Type // pointer base, array/chan element, map value
	Key   *Type // map key
	Bound int64 // array length or BoundSlice
	Dir   ChanDir

	Fields []*Field // struct fields, interface methods, funarg tuple entries

	// Func types are three funarg tuples.
	Recv    *Type
	Params  *Type
	Results *Type
	Funarg  bool

	Methods []*Field // methods declared on a named type

	// Orig is the underlying type. Nil while a forward declaration is
	// unresolved.
	Orig *Type

	Local bool // declared in the package being compiled
	Line  int

	Width int64
	Align int64
	sized uint8

	u *Universe
}

// Field is a struct field, interface method, method or function parameter.
type Field struct {
	Sym  *symtab.Sym // nil for unnamed parameters
	Type *Type

	// Embedded is 1 for an embedded struct field. On a promoted method it
	// is 1 when reached by value and 2 when the path crossed a pointer.
	Embedded uint8

	Note   *string // struct tag
	IsDDD  bool    // final ...T parameter
	Offset int64
	Line   int
}

// Universe is the arena owning every type of a session.
type Universe struct {
	Arch    config.Arch
	Session *symtab.Session
	Diag    *diag.Sink

	all   []*Type
	basic [nkinds]*Type

	ptrCache   map[*Type]*Type
	methodFunc map[*Type]*Type
	expanded   map[*Type][]*Field
	promoted   map[*Type][]Promotion

	Byte     *Type
	Rune     *Type
	Blank    *Type
	NilType  *Type
	Error    *Type
	fakeThis *Type
}

// NewUniverse creates the predeclared types of a session.
func NewUniverse(arch config.Arch, sess *symtab.Session) *Universe {
	u := &Universe{
		Arch:       arch,
		Session:    sess,
		Diag:       sess.Diag,
		ptrCache:   make(map[*Type]*Type),
		methodFunc: make(map[*Type]*Type),
		expanded:   make(map[*Type][]*Field),
		promoted:   make(map[*Type][]Promotion),
	}
	for k := Int8; k < nkinds; k++ {
		switch k {
		case Ptr, Func, Array, Struct, Chan, Map, Interface, Forward:
			continue
		}
		t := u.newType(k)
		t.Orig = t
		switch k {
		case Nil, Blank:
		case UnsafePointer:
			t.Sym = sess.PkgLookup("Pointer", sess.MkPkg("unsafe"))
			t.Sym.Def = t
		default:
			t.Sym = sess.PkgLookup(k.String(), sess.Builtin)
			t.Sym.Def = t
		}
		u.basic[k] = t
	}
	u.Byte = u.basic[Uint8]
	u.Rune = u.basic[Int32]
	sess.PkgLookup("byte", sess.Builtin).Def = u.Byte
	sess.PkgLookup("rune", sess.Builtin).Def = u.Rune
	u.Blank = u.basic[Blank]
	u.NilType = u.basic[Nil]

	u.fakeThis = u.NewPtr(u.NewStruct(nil))

	errSym := sess.PkgLookup("error", sess.Builtin)
	u.Error = u.NewNamed(errSym, u.NewInterface([]*Field{
		u.NewMethodField(sess.PkgLookup("Error", sess.Builtin), nil, []*Field{{Type: u.basic[String]}}),
	}))
	errSym.Def = u.Error
	return u
}

func (u *Universe) newType(k Kind) *Type {
	t := &Type{ID: int32(len(u.all)), Kind: k, u: u}
	u.all = append(u.all, t)
	return t
}

// Len returns the number of types allocated so far.
func (u *Universe) Len() int { return len(u.all) }

// At returns the type with the given ID.
func (u *Universe) At(id int32) *Type { return u.all[id] }

// Basic returns the predeclared type of kind k.
func (u *Universe) Basic(k Kind) *Type { return u.basic[k] }

func (u *Universe) NewPtr(elem *Type) *Type {
	if p, ok := u.ptrCache[elem]; ok {
		return p
	}
	t := u.newType(Ptr)
	t.Elem = elem
	t.Orig = t
	u.ptrCache[elem] = t
	return t
}

func (u *Universe) NewArray(elem *Type, bound int64) *Type {
	t := u.newType(Array)
	t.Elem = elem
	t.Bound = bound
	t.Orig = t
	return t
}

func (u *Universe) NewSlice(elem *Type) *Type { return u.NewArray(elem, BoundSlice) }

func (u *Universe) NewMap(key, val *Type) *Type {
	t := u.newType(Map)
	t.Key = key
	t.Elem = val
	t.Orig = t
	return t
}

func (u *Universe) NewChan(elem *Type, dir ChanDir) *Type {
	t := u.newType(Chan)
	t.Elem = elem
	t.Dir = dir
	t.Orig = t
	return t
}

func (u *Universe) NewStruct(fields []*Field) *Type {
	t := u.newType(Struct)
	t.Fields = fields
	t.Orig = t
	return t
}

func (u *Universe) newFunarg(fields []*Field) *Type {
	t := u.NewStruct(fields)
	t.Funarg = true
	return t
}

// NewFunc builds a function type from its receiver (nil for plain
// functions), parameters and results.
func (u *Universe) NewFunc(recv *Field, params, results []*Field) *Type {
	t := u.newType(Func)
	var r []*Field
	if recv != nil {
		r = []*Field{recv}
	}
	t.Recv = u.newFunarg(r)
	t.Params = u.newFunarg(params)
	t.Results = u.newFunarg(results)
	t.Orig = t
	return t
}

// NewMethodField returns an interface method with the placeholder
// receiver every interface method carries.
func (u *Universe) NewMethodField(sym *symtab.Sym, params, results []*Field) *Field {
	return &Field{Sym: sym, Type: u.NewFunc(&Field{Type: u.fakeThis}, params, results)}
}

// NewInterface builds an interface type. Methods without a receiver get
// the interface placeholder receiver; methods are kept sorted by name.
func (u *Universe) NewInterface(methods []*Field, embeds ...*Type) *Type {
	var all []*Field
	seen := make(map[*symtab.Sym]bool)
	add := func(f *Field) {
		if seen[f.Sym] {
			u.Diag.Errorf(f.Line, "duplicate method %s", f.Sym)
			return
		}
		seen[f.Sym] = true
		if f.Type.Kind == Func && len(f.Type.Recv.Fields) == 0 {
			f = &Field{Sym: f.Sym, Line: f.Line,
				Type: u.NewFunc(&Field{Type: u.fakeThis}, f.Type.Params.Fields, f.Type.Results.Fields)}
		}
		all = append(all, f)
	}
	for _, m := range methods {
		add(m)
	}
	for _, e := range embeds {
		if e.Kind != Interface {
			u.Diag.Errorf(e.Line, "interface contains embedded non-interface %v", e)
			continue
		}
		for _, m := range e.Fields {
			add(m)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Sym.Name < all[j].Sym.Name })
	t := u.newType(Interface)
	t.Fields = all
	t.Orig = t
	return t
}

// NewForward returns a placeholder for a type declared but not yet defined.
func (u *Universe) NewForward(sym *symtab.Sym) *Type {
	t := u.newType(Forward)
	t.Sym = sym
	t.Local = sym.Pkg == u.Session.Local
	return t
}

// NewNamed declares sym as a new named type with the given underlying type.
func (u *Universe) NewNamed(sym *symtab.Sym, underlying *Type) *Type {
	t := u.NewForward(sym)
	u.SetUnderlying(t, underlying)
	return t
}

// SetUnderlying resolves the forward declaration t to underlying,
// keeping t's identity.
func (u *Universe) SetUnderlying(t, underlying *Type) {
	if t.Kind != Forward {
		u.Diag.Fatalf(t.Line, "SetUnderlying of resolved type %v", t)
		return
	}
	if underlying.Kind == Forward {
		u.Diag.Errorf(t.Line, "invalid recursive type %v", t)
		return
	}
	t.Kind = underlying.Kind
	t.Elem = underlying.Elem
	t.Key = underlying.Key
	t.Bound = underlying.Bound
	t.Dir = underlying.Dir
	t.Fields = underlying.Fields
	t.Recv = underlying.Recv
	t.Params = underlying.Params
	t.Results = underlying.Results
	t.Orig = underlying.Orig
}

// NumRecv is the length of the receiver tuple of a func type.
func (t *Type) NumRecv() int {
	if t.Recv == nil {
		return 0
	}
	return len(t.Recv.Fields)
}

// RecvType returns the receiver type of a method type, or nil.
func (t *Type) RecvType() *Type {
	if t.NumRecv() == 0 {
		return nil
	}
	return t.Recv.Fields[0].Type
}

func (t *Type) NumResults() int {
	if t.Results == nil {
		return 0
	}
	return len(t.Results.Fields)
}

// IsSlice reports whether t is a slice.
func (t *Type) IsSlice() bool { return t != nil && t.Kind == Array && t.Bound < 0 }

// IsFixedArray reports whether t is an array with a length.
func (t *Type) IsFixedArray() bool { return t != nil && t.Kind == Array && t.Bound >= 0 }

// IsPtr reports whether t is a pointer type.
func (t *Type) IsPtr() bool { return t != nil && t.Kind == Ptr }

// IsPtrTo reports whether t is a pointer to a type of kind k.
func (t *Type) IsPtrTo(k Kind) bool {
	return t.IsPtr() && t.Elem != nil && t.Elem.Kind == k
}

func (t *Type) IsInterface() bool { return t != nil && t.Kind == Interface }

// IsEmptyInterface reports whether t is interface{}.
func (t *Type) IsEmptyInterface() bool { return t.IsInterface() && len(t.Fields) == 0 }

// IsNamed reports whether t has a defining symbol.
func (t *Type) IsNamed() bool { return t != nil && t.Sym != nil }
