package types

import (
	"bytes"
	"strings"
	"testing"

	"gocore/pkg/config"
	"gocore/pkg/diag"
	"gocore/pkg/symtab"
)

type fixture struct {
	u   *Universe
	buf *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureArch(t, "amd64")
}

func newFixtureArch(t *testing.T, arch string) *fixture {
	t.Helper()
	a, err := config.LookupArch(arch)
	if err != nil {
		t.Fatalf("LookupArch: %v", err)
	}
	var buf bytes.Buffer
	sink := diag.New(&buf, diag.WithExit(func(code int) { panic(code) }))
	sess := symtab.NewSession(sink, "example.com/main")
	return &fixture{u: NewUniverse(a, sess), buf: &buf}
}

func (f *fixture) output() string {
	f.u.Diag.Flush()
	return f.buf.String()
}

func (f *fixture) sym(name string) *symtab.Sym { return f.u.Session.Lookup(name) }

func (f *fixture) basic(k Kind) *Type { return f.u.Basic(k) }

func (f *fixture) field(name string, t *Type) *Field { return &Field{Sym: f.sym(name), Type: t} }

func param(t *Type) *Field { return &Field{Type: t} }

func embed(t *Type) *Field {
	s := t.Sym
	if t.IsPtr() {
		s = t.Elem.Sym
	}
	return &Field{Sym: s, Type: t, Embedded: 1}
}

func (f *fixture) named(name string, underlying *Type) *Type {
	s := f.sym(name)
	t := f.u.NewNamed(s, underlying)
	s.Def = t
	return t
}

func (f *fixture) method(recv *Type, name string, params, results []*Field) *Field {
	ft := f.u.NewFunc(&Field{Sym: f.sym("r"), Type: recv}, params, results)
	f.u.AddMethod(f.sym(name), ft, true, 1)
	mt := MethType(recv)
	if mt == nil {
		return nil
	}
	for _, m := range mt.Methods {
		if m.Sym.Name == name {
			return m
		}
	}
	return nil
}

func (f *fixture) iface(methods ...*Field) *Type { return f.u.NewInterface(methods) }

func (f *fixture) imethod(name string, params, results []*Field) *Field {
	return f.u.NewMethodField(f.sym(name), params, results)
}

func TestIdenticalReflexiveSymmetric(t *testing.T) {
	f := newFixture(t)
	u := f.u
	i := f.basic(Int)
	s := f.basic(String)
	types := []*Type{
		i,
		s,
		u.NewPtr(i),
		u.NewSlice(i),
		u.NewSlice(i),
		u.NewArray(i, 4),
		u.NewArray(i, 5),
		u.NewMap(s, i),
		u.NewMap(s, i),
		u.NewChan(i, Cboth),
		u.NewChan(i, Crecv),
		u.NewStruct([]*Field{f.field("a", i)}),
		u.NewStruct([]*Field{f.field("a", i)}),
		u.NewStruct([]*Field{f.field("b", i)}),
		u.NewFunc(nil, []*Field{param(i)}, []*Field{param(s)}),
		u.NewFunc(nil, []*Field{f.field("x", i)}, []*Field{param(s)}),
		f.named("N1", u.NewStruct(nil)),
		f.named("N2", u.NewStruct(nil)),
		f.iface(f.imethod("M", nil, nil)),
		f.iface(f.imethod("M", nil, nil)),
	}
	for a, ta := range types {
		if !Identical(ta, ta) {
			t.Errorf("%v not identical to itself", ta)
		}
		for b, tb := range types {
			if Identical(ta, tb) != Identical(tb, ta) {
				t.Errorf("asymmetric: %d %v vs %d %v", a, ta, b, tb)
			}
		}
	}

	pairs := []struct {
		a, b int
		want bool
	}{
		{3, 4, true},   // []int
		{5, 6, false},  // bounds
		{7, 8, true},   // maps
		{9, 10, false}, // directions
		{11, 12, true},
		{11, 13, false}, // field names
		{14, 15, true},  // parameter names ignored
		{16, 17, false}, // distinct named types
		{18, 19, true},
	}
	for _, p := range pairs {
		if got := Identical(types[p.a], types[p.b]); got != p.want {
			t.Errorf("Identical(%v, %v) = %v, want %v", types[p.a], types[p.b], got, p.want)
		}
	}
}

func TestNamedTypesAreDistinct(t *testing.T) {
	f := newFixture(t)
	body := func() *Type { return f.u.NewStruct([]*Field{f.field("x", f.basic(Int))}) }
	a := f.named("A", body())
	b := f.named("B", body())
	if Identical(a, b) {
		t.Errorf("distinct named types with the same structure must differ")
	}
	if !Identical(a.Orig, b.Orig) {
		t.Errorf("underlying types should be identical")
	}
}

func TestTagsAndNames(t *testing.T) {
	f := newFixture(t)
	u := f.u
	i := f.basic(Int)
	tag := func(s string) *string { return &s }

	tagged := func(note string) *Type {
		return u.NewStruct([]*Field{{Sym: f.sym("a"), Type: i, Note: tag(note)}})
	}
	x, y := tagged("json:\"a\""), tagged("json:\"b\"")
	if Identical(x, y) {
		t.Errorf("structs differing in a tag must not be identical")
	}
	if !IdenticalIgnoreNames(x, y) {
		t.Errorf("IdenticalIgnoreNames should ignore tags")
	}

	a := u.NewStruct([]*Field{f.field("a", i)})
	b := u.NewStruct([]*Field{f.field("b", i)})
	c := u.NewStruct([]*Field{f.field("a", f.basic(String))})
	if !IdenticalIgnoreNames(a, b) {
		t.Errorf("IdenticalIgnoreNames should ignore field names")
	}
	if IdenticalIgnoreNames(a, c) {
		t.Errorf("IdenticalIgnoreNames must compare field types")
	}
}

func TestVariadicIdentity(t *testing.T) {
	f := newFixture(t)
	u := f.u
	sl := u.NewSlice(f.basic(Int))
	plain := u.NewFunc(nil, []*Field{param(sl)}, nil)
	ddd := u.NewFunc(nil, []*Field{{Type: sl, IsDDD: true}}, nil)
	if Identical(plain, ddd) {
		t.Errorf("func([]int) and func(...int) must differ")
	}
}

func TestAssignOp(t *testing.T) {
	f := newFixture(t)
	u := f.u
	str := f.basic(String)
	stringer := f.named("Stringer", f.iface(f.imethod("String", nil, []*Field{param(str)})))

	good := f.named("Good", u.NewStruct(nil))
	f.method(good, "String", nil, []*Field{param(str)})

	ptrOnly := f.named("PtrOnly", u.NewStruct(nil))
	f.method(u.NewPtr(ptrOnly), "String", nil, []*Field{param(str)})

	wrong := f.named("Wrong", u.NewStruct(nil))
	f.method(wrong, "String", nil, []*Field{param(f.basic(Int))})

	lower := f.named("Lower", u.NewStruct(nil))
	f.method(lower, "string", nil, []*Field{param(str)})

	myInt := f.named("MyInt", f.basic(Int))
	point := f.named("Point", u.NewStruct([]*Field{f.field("x", f.basic(Int))}))
	pointLit := u.NewStruct([]*Field{f.field("x", f.basic(Int))})

	tests := []struct {
		name     string
		src, dst *Type
		op       Op
		why      string
	}{
		{"Identical", f.basic(Int), f.basic(Int), OpConvNop, ""},
		{"NamedToBasic", myInt, f.basic(Int), OpNone, ""},
		{"UnnamedToNamed", pointLit, point, OpConvNop, ""},
		{"Implements", good, stringer, OpConvIface, ""},
		{"PointerImplements", u.NewPtr(ptrOnly), stringer, OpConvIface, ""},
		{"PointerReceiver", ptrOnly, stringer, OpNone, "(String method requires pointer receiver)"},
		{"WrongType", wrong, stringer, OpNone, "(wrong type for String method)\n\t\thave String() int\n\t\twant String() string"},
		{"MissingCase", lower, stringer, OpNone, "(missing String method)\n\t\thave string() string\n\t\twant String() string"},
		{"Missing", point, stringer, OpNone, "Point does not implement Stringer (missing String method)"},
		{"PtrToIface", u.NewPtr(stringer), stringer, OpNone, "*Stringer is pointer to interface, not interface"},
		{"IfaceToConcrete", stringer, good, OpNone, ": need type assertion"},
		{"IfaceToUnrelated", stringer, point, OpNone, "-"},
		{"ChanNarrowing", u.NewChan(str, Cboth), u.NewChan(str, Crecv), OpConvNop, ""},
		{"ChanWidening", u.NewChan(str, Crecv), u.NewChan(str, Cboth), OpNone, ""},
		{"NilToSlice", u.NilType, u.NewSlice(str), OpConvNop, ""},
		{"NilToIface", u.NilType, stringer, OpConvNop, ""},
		{"NilToArray", u.NilType, u.NewArray(str, 2), OpNone, ""},
		{"NilToInt", u.NilType, f.basic(Int), OpNone, ""},
		{"Blank", point, u.Blank, OpConvNop, ""},
		{"IfaceToBlank", stringer, u.Blank, OpConvNop, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, why := u.AssignOp(tt.src, tt.dst)
			if op != tt.op {
				t.Errorf("AssignOp(%v, %v) = %v, want %v (why %q)", tt.src, tt.dst, op, tt.op, why)
			}
			if tt.why == "-" {
				if why != "" {
					t.Errorf("unexpected explanation %q", why)
				}
				return
			}
			if tt.why != "" && !strings.Contains(why, tt.why) {
				t.Errorf("why = %q, want it to contain %q", why, tt.why)
			}
		})
	}
}

func TestConvertOp(t *testing.T) {
	f := newFixture(t)
	u := f.u
	i := f.basic(Int)
	str := f.basic(String)
	myInt := f.named("MyInt", i)
	body := func() *Type { return u.NewStruct([]*Field{f.field("v", i)}) }
	a := f.named("A", body())
	b := f.named("B", body())
	stringer := f.named("Stringer", f.iface(f.imethod("String", nil, []*Field{param(str)})))

	tests := []struct {
		name     string
		src, dst *Type
		op       Op
	}{
		{"Assignable", i, i, OpConvNop},
		{"SameUnderlying", myInt, i, OpConvNop},
		{"NamedStructs", a, b, OpConvNop},
		{"UnnamedPointers", u.NewPtr(a), u.NewPtr(b), OpConvNop},
		{"IntToFloat", i, f.basic(Float64), OpConv},
		{"IntToInt32", i, f.basic(Int32), OpConvNop},
		{"IntToInt64", i, f.basic(Int64), OpConv},
		{"Complex", f.basic(Complex64), f.basic(Complex128), OpConv},
		{"RuneString", i, str, OpRuneStr},
		{"BytesToString", u.NewSlice(u.Byte), str, OpArrayByteStr},
		{"RunesToString", u.NewSlice(u.Rune), str, OpArrayRuneStr},
		{"StringToBytes", str, u.NewSlice(u.Byte), OpStrArrayByte},
		{"StringToRunes", str, u.NewSlice(u.Rune), OpStrArrayRune},
		{"PtrToUnsafe", u.NewPtr(i), f.basic(UnsafePointer), OpConvNop},
		{"UnsafeToUintptr", f.basic(UnsafePointer), f.basic(Uintptr), OpConvNop},
		{"StringToInt", str, i, OpNone},
		{"StructToIface", a, stringer, OpNone},
		{"ComplexToFloat", f.basic(Complex64), f.basic(Float32), OpNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if op, why := u.ConvertOp(tt.src, tt.dst); op != tt.op {
				t.Errorf("ConvertOp(%v, %v) = %v, want %v (why %q)", tt.src, tt.dst, op, tt.op, why)
			}
		})
	}

	if _, why := u.ConvertOp(a, stringer); !strings.Contains(why, "missing String method") {
		t.Errorf("conversion to an interface should explain the failure, got %q", why)
	}
}

func TestPromotionSpeak(t *testing.T) {
	f := newFixture(t)
	u := f.u
	str := f.basic(String)
	T := f.named("T", u.NewStruct(nil))
	speak := f.method(T, "Speak", nil, []*Field{param(str)})
	U := f.named("U", u.NewStruct([]*Field{embed(T)}))

	if r := DotSearch(f.sym("Speak"), U, 0, false); r.Count != 0 {
		t.Fatalf("Speak is not declared on U, found %d at depth 0", r.Count)
	}
	r := LookupDot(U, f.sym("Speak"))
	if r.Count != 1 || len(r.Path) != 1 || r.Path[0].Type != T || r.Field != speak {
		t.Fatalf("LookupDot: got %+v", r)
	}

	ps := u.ExpandMethods(U)
	if len(ps) != 1 || ps[0].Method != speak || ps[0].FollowPtr {
		t.Fatalf("ExpandMethods: got %+v", ps)
	}
	ms := u.MethodSet(U)
	if len(ms) != 1 || ms[0].Sym.Name != "Speak" || ms[0].Embedded != 1 {
		t.Errorf("MethodSet: got %+v", ms)
	}

	P := f.named("P", u.NewStruct([]*Field{embed(u.NewPtr(T))}))
	ps = u.ExpandMethods(P)
	if len(ps) != 1 || !ps[0].FollowPtr {
		t.Fatalf("promotion through *T should follow a pointer: %+v", ps)
	}
	if ms := u.MethodSet(P); ms[0].Embedded != 2 {
		t.Errorf("Embedded through pointer: got %d, want 2", ms[0].Embedded)
	}
}

func TestPromotionAmbiguity(t *testing.T) {
	f := newFixture(t)
	u := f.u
	A := f.named("A", u.NewStruct(nil))
	f.method(A, "M", nil, nil)
	B := f.named("B", u.NewStruct(nil))
	f.method(B, "M", nil, nil)
	f.method(B, "Only", nil, nil)

	both := f.named("Both", u.NewStruct([]*Field{embed(A), embed(B)}))
	if r := LookupDot(both, f.sym("M")); r.Count != 2 {
		t.Errorf("M should be ambiguous at depth 1, count %d", r.Count)
	}
	names := map[string]bool{}
	for _, p := range u.ExpandMethods(both) {
		names[p.Method.Sym.Name] = true
	}
	if names["M"] || !names["Only"] {
		t.Errorf("ambiguous method promoted or unique method missing: %v", names)
	}

	// B one level deeper is shadowed by A.
	C := f.named("C", u.NewStruct([]*Field{embed(B)}))
	shadow := f.named("Shadow", u.NewStruct([]*Field{embed(A), embed(C)}))
	r := LookupDot(shadow, f.sym("M"))
	if r.Count != 1 || r.Path[0].Type != A {
		t.Errorf("shallower path should win: %+v", r)
	}
	r = LookupDot(shadow, f.sym("Only"))
	if r.Count != 1 || len(r.Path) != 2 {
		t.Errorf("Only should be found at depth 2: %+v", r)
	}
}

func TestImplementsPointerEmbedding(t *testing.T) {
	f := newFixture(t)
	u := f.u
	T := f.named("T", u.NewStruct(nil))
	f.method(u.NewPtr(T), "M", nil, nil)
	I := f.named("I", f.iface(f.imethod("M", nil, nil)))

	if ok, _, _, ptr := u.Implements(T, I); ok || !ptr {
		t.Errorf("T has only a pointer method: ok=%v ptr=%v", ok, ptr)
	}
	if ok, _, _, _ := u.Implements(u.NewPtr(T), I); !ok {
		t.Errorf("*T should implement I")
	}
	byPtr := f.named("ByPtr", u.NewStruct([]*Field{embed(u.NewPtr(T))}))
	if ok, _, _, _ := u.Implements(byPtr, I); !ok {
		t.Errorf("embedding *T should promote the pointer method")
	}
	byVal := f.named("ByVal", u.NewStruct([]*Field{embed(T)}))
	if ok, _, _, ptr := u.Implements(byVal, I); ok || !ptr {
		t.Errorf("embedding T by value must not promote the pointer method")
	}

	// interface methods promoted through an embedded interface
	withIface := f.named("WithIface", u.NewStruct([]*Field{embed(I)}))
	if ok, _, _, _ := u.Implements(withIface, I); !ok {
		t.Errorf("embedded interface methods should satisfy I")
	}
}

func TestImplementsInterfaces(t *testing.T) {
	f := newFixture(t)
	u := f.u
	m := f.imethod("M", nil, nil)
	n := f.imethod("N", nil, nil)
	small := f.iface(m)
	big := f.iface(m, n)
	if ok, _, _, _ := u.Implements(big, small); !ok {
		t.Errorf("larger interface should implement smaller")
	}
	ok, missing, _, _ := u.Implements(small, big)
	if ok || missing.Sym.Name != "N" {
		t.Errorf("smaller interface lacks N: ok=%v missing=%v", ok, missing)
	}
}

func TestAmbiguousMethodReported(t *testing.T) {
	f := newFixture(t)
	u := f.u
	A := f.named("A", u.NewStruct(nil))
	f.method(A, "M", nil, nil)
	B := f.named("B", u.NewStruct(nil))
	f.method(B, "M", nil, nil)
	both := f.named("Both", u.NewStruct([]*Field{embed(A), embed(B)}))
	I := f.named("I", f.iface(f.imethod("M", nil, nil)))

	if ok, _, _, _ := u.Implements(both, I); ok {
		t.Errorf("ambiguous method must not satisfy an interface")
	}
	if out := f.output(); !strings.Contains(out, "Both.M is ambiguous") {
		t.Errorf("expected ambiguity error, got:\n%s", out)
	}
}

func TestFieldNotMethod(t *testing.T) {
	f := newFixture(t)
	u := f.u
	fn := u.NewFunc(nil, nil, nil)
	inner := f.named("Inner", u.NewStruct([]*Field{f.field("M", fn)}))
	outer := f.named("Outer", u.NewStruct([]*Field{embed(inner)}))
	I := f.named("I", f.iface(f.imethod("M", nil, nil)))
	u.Implements(outer, I)
	if out := f.output(); !strings.Contains(out, "Outer.M is a field, not a method") {
		t.Errorf("expected field error, got:\n%s", out)
	}
}

func TestAddMethodErrors(t *testing.T) {
	f := newFixture(t)
	u := f.u
	T := f.named("T", u.NewStruct([]*Field{f.field("x", f.basic(Int))}))
	f.method(T, "M", nil, nil)
	f.method(T, "M", []*Field{param(f.basic(Int))}, nil)
	f.method(T, "M", nil, nil)
	f.method(T, "x", nil, nil)
	f.method(f.basic(Int), "Bad", nil, nil)
	f.method(u.NewStruct(nil), "Anon", nil, nil)
	iface := f.named("Iface", f.iface())
	f.method(iface, "Bad", nil, nil)

	out := f.output()
	for _, want := range []string{
		"method redeclared: T.M",
		"type T has both field and method named x",
		"cannot define new methods on non-local type int",
		"invalid receiver type struct {}",
		"invalid receiver type Iface",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "method redeclared") != 1 {
		t.Errorf("identical redeclaration must not be reported:\n%s", out)
	}
	if len(T.Methods) != 1 {
		t.Errorf("T should have one method, has %d", len(T.Methods))
	}
}

func TestMethodSym(t *testing.T) {
	f := newFixture(t)
	u := f.u
	T := f.named("T", u.NewStruct([]*Field{f.field("a", f.basic(Int64))}))
	small := f.named("Small", f.basic(Uint8))
	m := f.sym("M")

	tests := []struct {
		recv  *Type
		iface bool
		want  string
	}{
		{T, false, "T.M"},
		{u.NewPtr(T), false, "(*T).M"},
		{T, true, "T.M"},
		{small, true, "Small.M·i"},
		{small, false, "Small.M"},
	}
	for _, tt := range tests {
		s := u.MethodSym(m, tt.recv, tt.iface)
		if s == nil || s.Name != tt.want {
			t.Errorf("MethodSym(%v, iface=%v) = %v, want %s", tt.recv, tt.iface, s, tt.want)
		}
	}
	if u.MethodSym(m, u.NewSlice(T), false) != nil {
		t.Errorf("slice receiver should be rejected")
	}
	if !strings.Contains(f.output(), "illegal receiver type: []T") {
		t.Errorf("missing illegal receiver error:\n%s", f.output())
	}
}

func TestHash(t *testing.T) {
	f := newFixture(t)
	u := f.u
	i := f.basic(Int)
	s1 := u.NewStruct([]*Field{f.field("a", i)})
	s2 := u.NewStruct([]*Field{f.field("a", i)})
	if u.Hash(s1) != u.Hash(s2) {
		t.Errorf("identical unnamed types must hash equally")
	}
	a := f.named("A", s1)
	b := f.named("B", s2)
	if u.Hash(a) == u.Hash(b) {
		t.Errorf("distinct named types must hash differently")
	}
	if u.Hash(a).Uint32() == u.Hash(b).Uint32() {
		t.Errorf("dispatch keys collide for A and B")
	}

	byVal := u.NewFunc(&Field{Type: a}, []*Field{param(i)}, nil)
	byPtr := u.NewFunc(&Field{Type: u.NewPtr(b)}, []*Field{param(i)}, nil)
	if u.Hash(byVal) != u.Hash(byPtr) {
		t.Errorf("method hashes must ignore the receiver")
	}

	other := u.Session.MkPkg("example.com/other")
	foreign := u.NewNamed(u.Session.PkgLookup("A", other), u.NewStruct(nil))
	if u.Hash(foreign) == u.Hash(a) {
		t.Errorf("same name in different packages must hash differently")
	}
}

func TestString(t *testing.T) {
	f := newFixture(t)
	u := f.u
	i := f.basic(Int)
	str := f.basic(String)
	tag := "tag"
	other := u.Session.MkPkg("example.com/other")
	foreign := u.NewNamed(u.Session.PkgLookup("T", other), u.NewStruct(nil))
	local := f.named("L", u.NewStruct(nil))

	tests := []struct {
		t    *Type
		want string
	}{
		{u.NewStruct([]*Field{f.field("a", i), {Sym: f.sym("B"), Type: str, Note: &tag}}), `struct { a int; B string "tag" }`},
		{u.NewStruct(nil), "struct {}"},
		{u.NewFunc(nil, []*Field{param(i), {Type: u.NewSlice(str), IsDDD: true}}, []*Field{param(i), param(u.Error)}), "func(int, ...string) (int, error)"},
		{u.NewFunc(nil, nil, []*Field{param(str)}), "func() string"},
		{u.NewMap(str, u.NewSlice(i)), "map[string][]int"},
		{u.NewChan(i, Crecv), "<-chan int"},
		{u.NewChan(i, Csend), "chan<- int"},
		{u.NewChan(u.NewChan(i, Crecv), Cboth), "chan (<-chan int)"},
		{u.NewArray(u.NewPtr(local), 3), "[3]*L"},
		{foreign, "other.T"},
		{f.iface(f.imethod("M", []*Field{param(i)}, nil)), "interface { M(int) }"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if got := u.Long(foreign); got != `"example.com/other".T` {
		t.Errorf("Long = %q", got)
	}
}

func TestDowidth(t *testing.T) {
	tests := []struct {
		arch    string
		offsetB int64
		width   int64
	}{
		{"amd64", 8, 16},
		{"386", 4, 12},
	}
	for _, tt := range tests {
		t.Run(tt.arch, func(t *testing.T) {
			f := newFixtureArch(t, tt.arch)
			u := f.u
			s := u.NewStruct([]*Field{f.field("a", f.basic(Int8)), f.field("b", f.basic(Int64))})
			u.Dowidth(s)
			if s.Fields[1].Offset != tt.offsetB || s.Width != tt.width {
				t.Errorf("offset %d width %d, want %d %d", s.Fields[1].Offset, s.Width, tt.offsetB, tt.width)
			}
			iface := f.iface()
			u.Dowidth(iface)
			if iface.Width != 2*u.Arch.PtrSize {
				t.Errorf("interface width %d", iface.Width)
			}
			arr := u.NewArray(f.basic(Int16), 10)
			u.Dowidth(arr)
			if arr.Width != 20 || arr.Align != 2 {
				t.Errorf("array width %d align %d", arr.Width, arr.Align)
			}
		})
	}
}

func TestDowidthRecursive(t *testing.T) {
	f := newFixture(t)
	u := f.u
	list := u.NewForward(f.sym("List"))
	u.SetUnderlying(list, u.NewStruct([]*Field{f.field("next", u.NewPtr(list)), f.field("v", f.basic(Int))}))
	u.Dowidth(list)
	if u.Diag.Errors() != 0 {
		t.Fatalf("self reference through a pointer is valid:\n%s", f.output())
	}
	if list.Width != 16 {
		t.Errorf("List width %d, want 16", list.Width)
	}

	bad := u.NewForward(f.sym("Bad"))
	u.SetUnderlying(bad, u.NewStruct([]*Field{f.field("self", bad)}))
	u.Dowidth(bad)
	if !strings.Contains(f.output(), "invalid recursive type Bad") {
		t.Errorf("expected recursive type error:\n%s", f.output())
	}
}

func TestSimtype(t *testing.T) {
	f := newFixture(t)
	if got := f.u.Simtype(Int); got != Int32 {
		t.Errorf("amd64 int: got %v", got)
	}
	if got := f.u.Simtype(Uintptr); got != Uint64 {
		t.Errorf("amd64 uintptr: got %v", got)
	}
	if got := f.u.Simtype(Map); got != Ptr {
		t.Errorf("map: got %v", got)
	}
}
