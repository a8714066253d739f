package gen

import (
	"bytes"
	"strings"
	"testing"

	"gocore/pkg/config"
	"gocore/pkg/diag"
	"gocore/pkg/ir"
	"gocore/pkg/symtab"
	"gocore/pkg/types"
)

type fixture struct {
	u    *types.Universe
	sess *symtab.Session
	c    *Compiler
	buf  *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	return newFixtureArch(t, config.Default().Arch)
}

func newFixtureArch(t *testing.T, arch config.Arch) *fixture {
	t.Helper()
	var buf bytes.Buffer
	sink := diag.New(&buf, diag.WithExit(func(code int) { panic(code) }))
	sess := symtab.NewSession(sink, "example.com/main")
	u := types.NewUniverse(arch, sess)
	return &fixture{u: u, sess: sess, c: New(u), buf: &buf}
}

func (f *fixture) output() string {
	f.c.Diag.Flush()
	return f.buf.String()
}

func (f *fixture) name(s string, t *types.Type, class ir.Class) *ir.Name {
	return ir.NewName(f.sess.Lookup(s), t, class)
}

func (f *fixture) lit(v int64) *ir.Literal {
	return ir.NewLiteral(f.u.Basic(types.Int), ir.ConstInt, v)
}

func (f *fixture) fn(body ...ir.Stmt) *ir.Func {
	return &ir.Func{
		Sym:  f.sess.Lookup("main"),
		Type: f.u.NewFunc(nil, nil, nil),
		Body: body,
		Line: 1,
	}
}

func line[S ir.Stmt](n int, s S) S {
	ir.SBase(s).Line = n
	return s
}

// emitted renders the instructions of g after the TEXT header.
func emitted(g *Gen) []string {
	var out []string
	for _, p := range g.Progs()[1:] {
		out = append(out, p.String())
	}
	return out
}

func TestForLayout(t *testing.T) {
	f := newFixture(t)
	i := f.name("i", f.u.Basic(types.Int), ir.ClassExtern)
	text := f.c.Compile(f.fn(&ir.For{
		Cond: &ir.Binary{Op: ir.OpLt, X: i, Y: f.lit(3)},
		Body: []ir.Stmt{&ir.AssignOp{Op: ir.OpAdd, X: i, Y: f.lit(1)}},
	}))
	if text == nil {
		t.Fatalf("compile failed:\n%s", f.output())
	}
	want := `    TEXT main(SB), $0-0
    JMP L3
L2:
    JMP L6
L3:
    JGE i, $3, L2
    ADD i, $1, i
    JMP L3
L6:
    RET
`
	if got := text.String(); got != want {
		t.Errorf("for loop layout:\n%s\nwant:\n%s", got, want)
	}
}

func TestIfElseLayout(t *testing.T) {
	f := newFixture(t)
	a := f.name("a", f.u.Basic(types.Int), ir.ClassExtern)
	text := f.c.Compile(f.fn(&ir.If{
		Cond: &ir.Binary{Op: ir.OpEq, X: a, Y: f.lit(0)},
		Then: []ir.Stmt{&ir.Assign{X: a, Y: f.lit(1)}},
		Else: []ir.Stmt{&ir.Assign{X: a, Y: f.lit(2)}},
	}))
	if text == nil {
		t.Fatalf("compile failed:\n%s", f.output())
	}
	want := `    TEXT main(SB), $0-0
    JMP L3
L2:
    JMP L6
L3:
    JNE a, $0, L2
    MOV $1, a
    JMP L7
L6:
    MOV $2, a
L7:
    RET
`
	if got := text.String(); got != want {
		t.Errorf("if/else layout:\n%s\nwant:\n%s", got, want)
	}
}

func TestShortCircuit(t *testing.T) {
	f := newFixture(t)
	b := f.u.Basic(types.Bool)
	x := f.name("x", b, ir.ClassExtern)
	y := f.name("y", b, ir.ClassExtern)
	g := f.c.Begin(f.fn())

	// if !(x && y) goto 0: either operand false jumps directly
	g.Bgen(&ir.Binary{Op: ir.OpAndAnd, X: x, Y: y}, false, 0)
	want := []string{"JF x, L0", "JF y, L0"}
	if got := emitted(g); strings.Join(got, "; ") != strings.Join(want, "; ") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBreakContinueErrors(t *testing.T) {
	tests := []struct {
		name string
		body func(f *fixture) []ir.Stmt
		want string
	}{
		{"BreakOutsideLoop", func(f *fixture) []ir.Stmt {
			return []ir.Stmt{line(3, &ir.Break{})}
		}, "line 3: break is not in a loop"},
		{"ContinueOutsideLoop", func(f *fixture) []ir.Stmt {
			return []ir.Stmt{line(4, &ir.Continue{})}
		}, "line 4: continue is not in a loop"},
		{"BreakUndefinedLabel", func(f *fixture) []ir.Stmt {
			return []ir.Stmt{&ir.For{Body: []ir.Stmt{line(5, &ir.Break{Label: f.sess.Lookup("L")})}}}
		}, "line 5: break label not defined: L"},
		{"ContinueUndefinedLabel", func(f *fixture) []ir.Stmt {
			return []ir.Stmt{&ir.For{Body: []ir.Stmt{line(5, &ir.Continue{Label: f.sess.Lookup("L")})}}}
		}, "line 5: continue label not defined: L"},
		{"BreakLabelNotEnclosing", func(f *fixture) []ir.Stmt {
			L := f.sess.Lookup("L")
			return []ir.Stmt{
				line(2, &ir.LabelStmt{Label: L}),
				&ir.For{Body: []ir.Stmt{line(6, &ir.Break{Label: L})}},
			}
		}, "line 6: invalid break label L"},
		{"ContinueSwitchLabel", func(f *fixture) []ir.Stmt {
			L := f.sess.Lookup("L")
			sw := &ir.Switch{Cases: []*ir.Case{{Body: []ir.Stmt{line(7, &ir.Continue{Label: L})}}}}
			return []ir.Stmt{line(2, &ir.LabelStmt{Label: L, Defn: sw}), sw}
		}, "line 7: invalid continue label L"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if text := f.c.Compile(f.fn(tt.body(f)...)); text != nil {
				t.Errorf("compile should fail")
			}
			out := f.output()
			if !strings.Contains(out, tt.want) {
				t.Errorf("missing %q in:\n%s", tt.want, out)
			}
			if strings.Contains(out, "defined and not used") {
				t.Errorf("label used by break or continue reported unused:\n%s", out)
			}
		})
	}
}

func TestLabeledBreakContinue(t *testing.T) {
	f := newFixture(t)
	outer := f.sess.Lookup("outer")
	loop := &ir.For{}
	inner := &ir.For{Body: []ir.Stmt{
		&ir.Continue{Label: outer},
		&ir.Break{Label: outer},
	}}
	loop.Body = []ir.Stmt{inner}
	text := f.c.Compile(f.fn(&ir.LabelStmt{Label: outer, Defn: loop}, loop))
	if text == nil {
		t.Fatalf("compile failed:\n%s", f.output())
	}
	p := text.Progs
	// 1 goto test, 2 break, 3 inner goto test, 4 inner break
	if p[5].As != AJMP || p[5].Target != 3 {
		t.Errorf("continue outer should jump to the outer continue point: %v", p[5])
	}
	if p[6].As != AJMP || p[6].Target != 2 {
		t.Errorf("break outer should jump to the outer break point: %v", p[6])
	}
	if p[2].Target != PC(len(p)-1) {
		t.Errorf("outer break should land after the loop: %v", p[2])
	}
	if outer.Label != 0 {
		t.Errorf("labels not cleared after compile")
	}
}

func TestGoto(t *testing.T) {
	tests := []struct {
		name  string
		build func(f *fixture) []ir.Stmt
		want  []string // empty for a legal program
	}{
		{"BackwardSameBlock", func(f *fixture) []ir.Stmt {
			L := f.sess.Lookup("L")
			sc := f.sess.Scope()
			return []ir.Stmt{
				line(2, &ir.LabelStmt{Label: L, Scope: sc}),
				line(3, &ir.Goto{Label: L, Scope: sc}),
			}
		}, nil},
		{"ForwardOverDeclaration", func(f *fixture) []ir.Stmt {
			L := f.sess.Lookup("L")
			from := f.sess.Scope()
			f.sess.Declare(f.sess.Lookup("x"), "x", 3, true)
			to := f.sess.Scope()
			return []ir.Stmt{
				line(2, &ir.Goto{Label: L, Scope: from}),
				line(4, &ir.LabelStmt{Label: L, Scope: to}),
			}
		}, []string{"line 2: goto L jumps over declaration of x at line 3"}},
		{"IntoBlock", func(f *fixture) []ir.Stmt {
			L := f.sess.Lookup("L")
			from := f.sess.Scope()
			f.sess.MarkDcl(3)
			f.sess.Declare(f.sess.Lookup("y"), "y", 4, true)
			to := f.sess.Scope()
			f.sess.PopDcl()
			return []ir.Stmt{
				line(2, &ir.Goto{Label: L, Scope: from}),
				line(5, &ir.LabelStmt{Label: L, Scope: to}),
			}
		}, []string{"line 2: goto L jumps into block starting at line 3"}},
		{"OutOfBlock", func(f *fixture) []ir.Stmt {
			L := f.sess.Lookup("L")
			f.sess.MarkDcl(2)
			f.sess.Declare(f.sess.Lookup("y"), "y", 3, true)
			from := f.sess.Scope()
			f.sess.PopDcl()
			to := f.sess.Scope()
			return []ir.Stmt{
				line(4, &ir.Goto{Label: L, Scope: from}),
				line(6, &ir.LabelStmt{Label: L, Scope: to}),
			}
		}, nil},
		{"Undefined", func(f *fixture) []ir.Stmt {
			M := f.sess.Lookup("M")
			return []ir.Stmt{
				line(2, &ir.Goto{Label: M}),
				line(5, &ir.Goto{Label: M}),
			}
		}, []string{"line 2: label M not defined", "line 5: label M not defined"}},
		{"Unused", func(f *fixture) []ir.Stmt {
			return []ir.Stmt{line(2, &ir.LabelStmt{Label: f.sess.Lookup("L")})}
		}, []string{"line 2: label L defined and not used"}},
		{"Redefined", func(f *fixture) []ir.Stmt {
			L := f.sess.Lookup("L")
			return []ir.Stmt{
				line(2, &ir.LabelStmt{Label: L}),
				line(5, &ir.LabelStmt{Label: L}),
				line(6, &ir.Goto{Label: L}),
			}
		}, []string{"line 5: label L already defined at line 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.sess.MarkDcl(1)
			body := tt.build(f)
			text := f.c.Compile(f.fn(body...))
			out := f.output()
			if len(tt.want) == 0 {
				if text == nil || out != "" {
					t.Fatalf("unexpected errors:\n%s", out)
				}
				return
			}
			if text != nil {
				t.Errorf("compile should fail")
			}
			for _, w := range tt.want {
				if strings.Count(out, w) != 1 {
					t.Errorf("want %q once in:\n%s", w, out)
				}
			}
		})
	}
}

func TestGotoPatching(t *testing.T) {
	f := newFixture(t)
	L := f.sess.Lookup("L")
	a := f.name("a", f.u.Basic(types.Int), ir.ClassExtern)
	text := f.c.Compile(f.fn(
		&ir.Goto{Label: L},
		&ir.Assign{X: a, Y: f.lit(1)},
		&ir.LabelStmt{Label: L},
		&ir.Goto{Label: L},
	))
	if text == nil {
		t.Fatalf("compile failed:\n%s", f.output())
	}
	// forward goto patched when the label is reached, backward goto
	// jumps straight to it
	if text.Progs[1].Target != 3 || text.Progs[3].Target != 3 {
		t.Errorf("goto targets:\n%s", text)
	}
}

func TestSwitch(t *testing.T) {
	f := newFixture(t)
	x := f.name("x", f.u.Basic(types.Int), ir.ClassExtern)
	y := f.name("y", f.u.Basic(types.Int), ir.ClassExtern)
	sw := &ir.Switch{Tag: x, Cases: []*ir.Case{
		{List: []ir.Expr{f.lit(1)}, Body: []ir.Stmt{&ir.Assign{X: y, Y: f.lit(10)}}, Fallthrough: true},
		{List: []ir.Expr{f.lit(2)}, Body: []ir.Stmt{&ir.Assign{X: y, Y: f.lit(20)}}},
		{Body: []ir.Stmt{&ir.Break{}}},
	}}
	text := f.c.Compile(f.fn(sw))
	if text == nil {
		t.Fatalf("compile failed:\n%s", f.output())
	}
	s := text.String()
	for _, want := range []string{"JEQ x, $1,", "JEQ x, $2,", "MOV $10, y", "MOV $20, y"} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q:\n%s", want, s)
		}
	}
	// fallthrough: the first clause ends with a jump to the second body
	var ten, twenty int
	for i, p := range text.Progs {
		switch p.String() {
		case "MOV $10, y":
			ten = i
		case "MOV $20, y":
			twenty = i
		}
	}
	if next := text.Progs[ten+1]; next.As != AJMP || next.Target != PC(twenty) {
		t.Errorf("fallthrough jump: %v\n%s", next, s)
	}
}

func TestSelect(t *testing.T) {
	f := newFixture(t)
	ch := f.name("ch", f.u.NewChan(f.u.Basic(types.Int), types.Cboth), ir.ClassExtern)
	v := f.name("v", f.u.Basic(types.Int), ir.ClassExtern)
	recv := &ir.Unary{Op: ir.OpRecv, X: ch}
	recv.T = f.u.Basic(types.Int)
	sel := &ir.Select{Cases: []*ir.CommCase{
		{Comm: &ir.Assign{X: v, Y: recv}},
		{Body: []ir.Stmt{&ir.Break{}}},
	}}
	text := f.c.Compile(f.fn(sel))
	if text == nil {
		t.Fatalf("compile failed:\n%s", f.output())
	}
	s := text.String()
	for _, want := range []string{"SELECT $2", "CASE v = (<-ch),", "CASE default,", "CALL runtime.chanrecv1"} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q:\n%s", want, s)
		}
	}
}

func TestCgenAs(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *fixture, g *Gen)
		want []string
	}{
		{"ZeroInt", func(f *fixture, g *Gen) {
			g.CgenAs(f.name("a", f.u.Basic(types.Int), ir.ClassAuto), nil)
		}, []string{"MOV $0, a"}},
		{"ZeroFloat", func(f *fixture, g *Gen) {
			g.CgenAs(f.name("x", f.u.Basic(types.Float64), ir.ClassAuto), nil)
		}, []string{"MOV $0, x"}},
		{"ZeroBool", func(f *fixture, g *Gen) {
			g.CgenAs(f.name("b", f.u.Basic(types.Bool), ir.ClassAuto), nil)
		}, []string{"MOV $false, b"}},
		{"ZeroPointer", func(f *fixture, g *Gen) {
			g.CgenAs(f.name("p", f.u.NewPtr(f.u.Basic(types.Int)), ir.ClassAuto), nil)
		}, []string{"MOV $nil, p"}},
		{"ZeroMap", func(f *fixture, g *Gen) {
			g.CgenAs(f.name("m", f.u.NewMap(f.u.Basic(types.Int), f.u.Basic(types.Int)), ir.ClassAuto), nil)
		}, []string{"MOV $nil, m"}},
		{"NilFat", func(f *fixture, g *Gen) {
			arr := f.u.NewArray(f.u.Basic(types.Int32), 4)
			g.CgenAs(f.name("arr", arr, ir.ClassAuto), nil)
		}, []string{"CLEAR $16, arr"}},
		{"NilSlice", func(f *fixture, g *Gen) {
			s := f.u.NewSlice(f.u.Basic(types.Int))
			g.CgenAs(f.name("s", s, ir.ClassAuto), ir.NewLiteral(s, ir.ConstNil, nil))
		}, []string{"CLEAR $16, s"}},
		{"ExternAlreadyZero", func(f *fixture, g *Gen) {
			g.CgenAs(f.name("g", f.u.Basic(types.Int), ir.ClassExtern), nil)
		}, nil},
		{"HeapAlreadyZero", func(f *fixture, g *Gen) {
			h := f.name("h", f.u.Basic(types.Int), ir.ClassAuto)
			h.Heap = true
			g.CgenAs(h, nil)
		}, nil},
		{"DiscardName", func(f *fixture, g *Gen) {
			a := f.name("a", f.u.Basic(types.Int), ir.ClassAuto)
			g.CgenAs(f.name("_", nil, ir.ClassNone), a)
			if !a.Used {
				t.Errorf("discarded name not marked used")
			}
		}, []string{"USED a"}},
		{"DiscardArith", func(f *fixture, g *Gen) {
			a := f.name("a", f.u.Basic(types.Int), ir.ClassAuto)
			b := f.name("b", f.u.Basic(types.Int), ir.ClassAuto)
			g.CgenAs(nil, &ir.Unary{Op: ir.OpNeg, X: &ir.Binary{Op: ir.OpMul, X: a, Y: b}})
		}, []string{"USED a", "USED b"}},
		{"DiscardExtern", func(f *fixture, g *Gen) {
			g.CgenAs(nil, f.name("g", f.u.Basic(types.Int), ir.ClassExtern))
		}, nil},
		{"DiscardDeref", func(f *fixture, g *Gen) {
			p := f.name("p", f.u.NewPtr(f.u.Basic(types.Int)), ir.ClassAuto)
			ind := &ir.Unary{Op: ir.OpInd, X: p}
			ind.T = f.u.Basic(types.Int)
			g.CgenAs(nil, ind)
		}, []string{"CHECKNIL p"}},
		{"DiscardIndex", func(f *fixture, g *Gen) {
			x := f.name("x", f.u.NewSlice(f.u.Basic(types.Int)), ir.ClassAuto)
			i := f.name("i", f.u.Basic(types.Int), ir.ClassAuto)
			idx := &ir.Index{X: x, Index: i}
			idx.T = f.u.Basic(types.Int)
			g.CgenAs(nil, idx)
		}, []string{"MOV x[i], autotmp_0001", "USED autotmp_0001"}},
		{"DiscardVoidCall", func(f *fixture, g *Gen) {
			fn := f.name("f", f.u.NewFunc(nil, nil, nil), ir.ClassFunc)
			g.CgenAs(nil, &ir.Call{Kind: ir.CallFunc, Fun: fn})
		}, []string{"CALL f"}},
		{"DiscardUntyped", func(f *fixture, g *Gen) {
			x := f.name("x", f.u.NewSlice(f.u.Basic(types.Int)), ir.ClassAuto)
			i := f.name("i", f.u.Basic(types.Int), ir.ClassAuto)
			g.CgenAs(nil, &ir.Index{X: x, Index: i})
			if g.stksize != 8 {
				t.Errorf("stack size %d, want one int slot", g.stksize)
			}
		}, []string{"MOV x[i], autotmp_0001", "USED autotmp_0001"}},
		{"Arith", func(f *fixture, g *Gen) {
			a := f.name("a", f.u.Basic(types.Int), ir.ClassAuto)
			b := f.name("b", f.u.Basic(types.Int), ir.ClassAuto)
			sum := &ir.Binary{Op: ir.OpAdd, X: b, Y: f.lit(1)}
			sum.T = f.u.Basic(types.Int)
			g.CgenAs(a, sum)
		}, []string{"ADD b, $1, a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			g := f.c.Begin(f.fn())
			tt.run(f, g)
			got := emitted(g)
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if out := f.output(); out != "" {
				t.Errorf("unexpected diagnostics:\n%s", out)
			}
		})
	}
}

func TestTempName(t *testing.T) {
	f := newFixture(t)
	g := f.c.Begin(f.fn())
	a := g.TempName(f.u.Basic(types.Int32))
	b := g.TempName(f.u.Basic(types.Int64))
	if a.Sym.Name != "autotmp_0001" || b.Sym.Name != "autotmp_0002" {
		t.Errorf("temp names: %s %s", a.Sym.Name, b.Sym.Name)
	}
	if a.Offset != -4 || b.Offset != -16 {
		t.Errorf("amd64 offsets: %d %d, want -4 -16", a.Offset, b.Offset)
	}
	if a.Class != ir.ClassAuto || !a.Used {
		t.Errorf("temp should be a used auto")
	}

	// names stay unique across functions
	g2 := f.c.Begin(f.fn())
	if c := g2.TempName(f.u.Basic(types.Int8)); c.Sym.Name != "autotmp_0003" || c.Offset != -1 {
		t.Errorf("second function temp: %s at %d", c.Sym.Name, c.Offset)
	}
	if n := len(g.fn.Dcl); n != 2 {
		t.Errorf("temps recorded in Dcl: %d", n)
	}

	arm, err := config.LookupArch("arm")
	if err != nil {
		t.Fatal(err)
	}
	f = newFixtureArch(t, arm)
	g = f.c.Begin(f.fn())
	x := g.TempName(f.u.Basic(types.Int8))
	y := g.TempName(f.u.Basic(types.Uint8))
	if x.Offset != -4 || y.Offset != -8 {
		t.Errorf("arm offsets: %d %d, want -4 -8", x.Offset, y.Offset)
	}
}

func TestAllocParams(t *testing.T) {
	f := newFixture(t)
	i := f.u.Basic(types.Int)
	p := f.name("p", i, ir.ClassParam)
	q := f.name("q", f.u.Basic(types.Int64), ir.ClassParam)
	r := f.name("r", i, ir.ClassParamOut)
	loc := f.name("loc", f.u.Basic(types.Int64), ir.ClassAuto)
	fn := f.fn(&ir.Return{Results: []ir.Expr{p}})
	fn.Type = f.u.NewFunc(nil,
		[]*types.Field{{Sym: p.Sym, Type: i}, {Sym: q.Sym, Type: q.T}},
		[]*types.Field{{Sym: r.Sym, Type: i}})
	fn.Params = []*ir.Name{p, q}
	fn.Results = []*ir.Name{r}
	fn.Dcl = []*ir.Name{p, q, r, loc}

	text := f.c.Compile(fn)
	if text == nil {
		t.Fatalf("compile failed:\n%s", f.output())
	}
	if p.Offset != 0 || q.Offset != 8 || r.Offset != 16 {
		t.Errorf("param offsets: p=%d q=%d r=%d", p.Offset, q.Offset, r.Offset)
	}
	if loc.Offset != -8 {
		t.Errorf("local offset: %d", loc.Offset)
	}
	if text.Frame != 8 || text.Args != 24 {
		t.Errorf("frame $%d-%d, want $8-24", text.Frame, text.Args)
	}
	if !strings.Contains(text.String(), "MOV p, r\n    RET") {
		t.Errorf("return should store the named result:\n%s", text)
	}
}

func TestCallMeth(t *testing.T) {
	f := newFixture(t)
	str := f.u.Basic(types.String)
	T := f.u.NewNamed(f.sess.Lookup("T"), f.u.NewStruct(nil))
	f.u.AddMethod(f.sess.Lookup("Speak"),
		f.u.NewFunc(&types.Field{Type: T}, nil, []*types.Field{{Type: str}}), true, 1)
	f.u.AddMethod(f.sess.Lookup("Set"),
		f.u.NewFunc(&types.Field{Type: f.u.NewPtr(T)}, nil, nil), true, 1)

	tests := []struct {
		name   string
		recv   *types.Type
		method string
		fun    string
		op     ir.Op
	}{
		{"ValueOnPointer", f.u.NewPtr(T), "Speak", "T.Speak", ir.OpInd},
		{"PointerOnValue", T, "Set", "(*T).Set", ir.OpAddr},
		{"ValueOnValue", T, "Speak", "T.Speak", ir.OpXxx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := f.c.Begin(f.fn())
			x := f.name("x", tt.recv, ir.ClassAuto)
			sel := ir.AddDot(&ir.Selector{X: x, Sel: f.sess.Lookup(tt.method)}, f.u)
			call := g.CallMeth(&ir.Call{Kind: ir.CallMeth, Fun: sel})
			fun, ok := call.Fun.(*ir.Name)
			if !ok || fun.Sym.Name != tt.fun || fun.Class != ir.ClassFunc {
				t.Fatalf("callee: %v", call.Fun)
			}
			if call.Kind != ir.CallFunc || len(call.Args) != 1 {
				t.Fatalf("rewritten call: %v", call)
			}
			switch arg := call.Args[0].(type) {
			case *ir.Unary:
				if arg.Op != tt.op || arg.X != x {
					t.Errorf("receiver argument: %v", arg)
				}
			default:
				if tt.op != ir.OpXxx || arg != x {
					t.Errorf("receiver argument: %v", arg)
				}
			}
		})
	}
	if out := f.output(); out != "" {
		t.Errorf("unexpected diagnostics:\n%s", out)
	}
}

func TestDumpFlag(t *testing.T) {
	var buf bytes.Buffer
	sink := diag.New(&buf, diag.WithFlags(config.Flags{DumpGen: true}))
	sess := symtab.NewSession(sink, "example.com/main")
	u := types.NewUniverse(config.Default().Arch, sess)
	c := New(u)
	fn := &ir.Func{Sym: sess.Lookup("f"), Type: u.NewFunc(nil, nil, nil)}
	if c.Compile(fn) == nil {
		t.Fatal("compile failed")
	}
	if !strings.Contains(buf.String(), "--- gen f ---\n    TEXT f(SB), $0-0\n    RET\n") {
		t.Errorf("dump:\n%s", buf.String())
	}
	if len(c.Texts) != 1 {
		t.Errorf("Texts: %d", len(c.Texts))
	}
}
