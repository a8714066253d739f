// Package gen lowers function bodies to a linear instruction stream with
// resolved jumps: structured control flow, labels and gotos, assignments
// and calls. Instruction selection is left to a later stage.
package gen

import (
	"fmt"

	"github.com/pkg/errors"

	"gocore/pkg/diag"
	"gocore/pkg/ir"
	"gocore/pkg/symtab"
	"gocore/pkg/types"
)

// Compiler holds the state shared by every function of a session.
type Compiler struct {
	U    *types.Universe
	Sess *symtab.Session
	Diag *diag.Sink

	tmpgen int
	Texts  []*Text
}

func New(u *types.Universe) *Compiler {
	return &Compiler{U: u, Sess: u.Session, Diag: u.Diag}
}

// Gen is the code generator of one function.
type Gen struct {
	c  *Compiler
	u  *types.Universe
	fn *ir.Func

	progs []*Prog

	labels  []*Label
	labeled map[ir.Stmt]*Label

	breakPC  PC
	continPC PC

	stksize   int64
	allocated map[*ir.Name]bool
	nerrors   int
	line      int
}

// Begin starts generating fn.
func (c *Compiler) Begin(fn *ir.Func) *Gen {
	g := &Gen{
		c:         c,
		u:         c.U,
		fn:        fn,
		labeled:   make(map[ir.Stmt]*Label),
		allocated: make(map[*ir.Name]bool),
		breakPC:   NoPC,
		continPC:  NoPC,
		nerrors:   c.Diag.Errors(),
		line:      fn.Line,
	}
	g.emit(&Prog{As: ATEXT, From: fn.Sym.Name})
	return g
}

// Compile generates fn and returns its code, or nil if errors were
// reported.
func (c *Compiler) Compile(fn *ir.Func) *Text {
	g := c.Begin(fn)
	g.AllocParams()
	g.GenList(fn.Body)
	g.CheckLabels()
	g.ClearLabels()
	return g.Finish()
}

// PC returns the address of the next instruction.
func (g *Gen) PC() PC { return PC(len(g.progs)) }

// Progs returns the instructions emitted so far.
func (g *Gen) Progs() []*Prog { return g.progs }

func (g *Gen) emit(p *Prog) *Prog {
	p.Line = g.line
	if p.Target == 0 && !p.IsJump() {
		p.Target = NoPC
	}
	g.progs = append(g.progs, p)
	return p
}

// Gjmp emits a jump to to, which may be NoPC, and returns its address.
func (g *Gen) Gjmp(to PC) PC {
	pc := g.PC()
	g.emit(&Prog{As: AJMP, Target: to})
	return pc
}

// Patch points the jump at pc to to.
func (g *Gen) Patch(pc, to PC) {
	p := g.progs[pc]
	if !p.IsJump() {
		g.c.Diag.Fatalf(p.Line, "patch: %v is not a jump", p)
		return
	}
	p.Target = to
}

// Unpatch clears the target of the jump at pc and returns the old one.
func (g *Gen) Unpatch(pc PC) PC {
	p := g.progs[pc]
	old := p.Target
	p.Target = NoPC
	return old
}

func (g *Gen) errorf(format string, args ...any) {
	g.c.Diag.Errorf(g.line, format, args...)
}

// GenList generates each statement of list in order.
func (g *Gen) GenList(list []ir.Stmt) {
	for _, s := range list {
		g.Gen(s)
	}
}

// Gen generates one statement.
func (g *Gen) Gen(s ir.Stmt) {
	if s == nil {
		return
	}
	lno := g.line
	defer func() { g.line = lno }()

	b := ir.SBase(s)
	if b.Line != 0 {
		g.line = b.Line
	}
	g.GenList(b.Init)
	if b.Line != 0 {
		g.line = b.Line
	}

	switch n := s.(type) {
	case *ir.Empty:

	case *ir.Block:
		g.GenList(n.List)

	case *ir.LabelStmt:
		if n.Label.IsBlank() {
			break
		}
		lab := g.newLabel(n.Label, n, nil)
		// every jump waiting for this label lands here
		for _, p := range lab.GotoPCs {
			if old := g.Unpatch(p); old != NoPC {
				g.c.Diag.Fatalf(g.line, "pending goto %s already patched", n.Label)
			}
			g.Patch(p, g.PC())
		}
		lab.GotoPCs = nil
		if lab.LabelPC == NoPC {
			lab.LabelPC = g.PC()
		}
		switch n.Defn.(type) {
		case *ir.For, *ir.Switch, *ir.Select:
			g.labeled[n.Defn] = lab
		}

	case *ir.Goto:
		lab := g.newLabel(n.Label, nil, n)
		if lab.LabelPC != NoPC {
			g.Gjmp(lab.LabelPC)
		} else {
			lab.GotoPCs = append(lab.GotoPCs, g.Gjmp(NoPC))
		}

	case *ir.Break:
		if n.Label != nil {
			lab := g.lookupLabel(n.Label)
			if lab == nil {
				g.errorf("break label not defined: %s", n.Label)
				break
			}
			lab.Used = true
			if lab.BreakPC == NoPC {
				g.errorf("invalid break label %s", n.Label)
				break
			}
			g.Gjmp(lab.BreakPC)
			break
		}
		if g.breakPC == NoPC {
			g.errorf("break is not in a loop")
			break
		}
		g.Gjmp(g.breakPC)

	case *ir.Continue:
		if n.Label != nil {
			lab := g.lookupLabel(n.Label)
			if lab == nil {
				g.errorf("continue label not defined: %s", n.Label)
				break
			}
			lab.Used = true
			if lab.ContinPC == NoPC {
				g.errorf("invalid continue label %s", n.Label)
				break
			}
			g.Gjmp(lab.ContinPC)
			break
		}
		if g.continPC == NoPC {
			g.errorf("continue is not in a loop")
			break
		}
		g.Gjmp(g.continPC)

	case *ir.For:
		sbreak := g.breakPC
		p1 := g.Gjmp(NoPC)       //		goto test
		g.breakPC = g.Gjmp(NoPC) // break:	goto done
		scontin := g.continPC
		g.continPC = g.PC()
		lab := g.stmtLabel(n)
		if lab != nil {
			lab.BreakPC = g.breakPC
			lab.ContinPC = g.continPC
		}
		g.Gen(n.Post)                    // contin:	post
		g.Patch(p1, g.PC())              // test:
		g.Bgen(n.Cond, false, g.breakPC) //		if !cond goto break
		g.GenList(n.Body)                //		body
		g.Gjmp(g.continPC)
		g.Patch(g.breakPC, g.PC()) // done:
		g.continPC = scontin
		g.breakPC = sbreak
		if lab != nil {
			lab.BreakPC = NoPC
			lab.ContinPC = NoPC
		}

	case *ir.If:
		p1 := g.Gjmp(NoPC)        //		goto test
		p2 := g.Gjmp(NoPC)        // p2:	goto else
		g.Patch(p1, g.PC())       // test:
		g.Bgen(n.Cond, false, p2) //		if !cond goto p2
		g.GenList(n.Then)
		p3 := g.Gjmp(NoPC)  //		goto done
		g.Patch(p2, g.PC()) // else:
		g.GenList(n.Else)
		g.Patch(p3, g.PC()) // done:

	case *ir.Switch:
		sbreak := g.breakPC
		p1 := g.Gjmp(NoPC)       //		goto test
		g.breakPC = g.Gjmp(NoPC) // break:	goto done
		lab := g.stmtLabel(n)
		if lab != nil {
			lab.BreakPC = g.breakPC
		}
		g.Patch(p1, g.PC()) // test:
		g.switchBody(n)
		g.Patch(g.breakPC, g.PC()) // done:
		g.breakPC = sbreak
		if lab != nil {
			lab.BreakPC = NoPC
		}

	case *ir.Select:
		sbreak := g.breakPC
		p1 := g.Gjmp(NoPC)
		g.breakPC = g.Gjmp(NoPC)
		lab := g.stmtLabel(n)
		if lab != nil {
			lab.BreakPC = g.breakPC
		}
		g.Patch(p1, g.PC())
		g.selectBody(n)
		g.Patch(g.breakPC, g.PC())
		g.breakPC = sbreak
		if lab != nil {
			lab.BreakPC = NoPC
		}

	case *ir.AssignOp:
		g.cgenAsOp(n)

	case *ir.Decl:
		g.cgenDcl(n.Name)

	case *ir.Assign:
		g.CgenAs(n.X, n.Y)

	case *ir.ExprStmt:
		if call, ok := n.X.(*ir.Call); ok {
			ir.UllmanCalc(call)
			g.call(call, 0)
			break
		}
		g.cgenDiscard(n.X)

	case *ir.Go:
		g.call(n.Call, 1)

	case *ir.Defer:
		g.call(n.Call, 2)

	case *ir.Return:
		g.ret(n)

	default:
		g.c.Diag.Internal(g.line, errors.Errorf("gen: unknown statement %T", s))
	}
}

// switchBody dispatches on the tag: every case expression is compared in
// order and the first match jumps to its clause. Clauses end with a jump
// to break unless they fall through.
func (g *Gen) switchBody(n *ir.Switch) {
	var tag ir.Expr
	if n.Tag != nil {
		ir.UllmanCalc(n.Tag)
		switch n.Tag.(type) {
		case *ir.Name, *ir.Literal:
			tag = n.Tag
		default:
			tmp := g.TempName(n.Tag.Type())
			g.CgenAs(tmp, n.Tag)
			tag = tmp
		}
	}

	jumps := make([][]PC, len(n.Cases))
	deflt := -1
	for i, c := range n.Cases {
		if len(c.List) == 0 {
			deflt = i
			continue
		}
		for _, e := range c.List {
			cond := e
			if tag != nil {
				cmp := &ir.Binary{Op: ir.OpEq, X: tag, Y: e}
				cmp.T = g.u.Basic(types.Bool)
				cmp.Line = c.Line
				cond = cmp
			}
			jumps[i] = append(jumps[i], g.bgenPC(cond, true))
		}
	}
	if deflt >= 0 {
		jumps[deflt] = append(jumps[deflt], g.Gjmp(NoPC))
	} else {
		g.Gjmp(g.breakPC)
	}

	var fall []PC
	for i, c := range n.Cases {
		for _, p := range jumps[i] {
			g.Patch(p, g.PC())
		}
		for _, p := range fall {
			g.Patch(p, g.PC())
		}
		fall = nil
		g.GenList(c.Body)
		if c.Fallthrough && i+1 < len(n.Cases) {
			fall = append(fall, g.Gjmp(NoPC))
			continue
		}
		g.Gjmp(g.breakPC)
	}
}

// selectBody registers every communication with the runtime and emits a
// dispatch jump per clause. The runtime picks the clause to run.
func (g *Gen) selectBody(n *ir.Select) {
	g.emit(&Prog{As: ASELECT, From: fmt.Sprintf("$%d", len(n.Cases))})
	jumps := make([]PC, len(n.Cases))
	for i, c := range n.Cases {
		comm := "default"
		if c.Comm != nil {
			comm = c.Comm.String()
		}
		jumps[i] = g.PC()
		g.emit(&Prog{As: ACASE, From: comm, Target: NoPC})
	}
	g.Gjmp(g.breakPC)
	for i, c := range n.Cases {
		g.Patch(jumps[i], g.PC())
		if c.Comm != nil {
			g.Gen(c.Comm)
		}
		g.GenList(c.Body)
		g.Gjmp(g.breakPC)
	}
}

// Bgen emits a jump to to taken when cond evaluates to want. A nil cond
// is true.
func (g *Gen) Bgen(cond ir.Expr, want bool, to PC) {
	if cond == nil {
		if want {
			g.Gjmp(to)
		}
		return
	}
	g.GenList(ir.Base(cond).Init)
	ir.UllmanCalc(cond)
	g.bgen(cond, want, to)
}

// bgenPC emits a test of cond and returns a jump, yet to be patched,
// that is reached when cond evaluates to want.
func (g *Gen) bgenPC(cond ir.Expr, want bool) PC {
	p1 := g.Gjmp(NoPC)
	p2 := g.Gjmp(NoPC)
	g.Patch(p1, g.PC())
	g.Bgen(cond, want, p2)
	return p2
}

func (g *Gen) bgen(e ir.Expr, want bool, to PC) {
	switch n := e.(type) {
	case *ir.Literal:
		if v, ok := n.Val.(bool); ok {
			if v == want {
				g.Gjmp(to)
			}
			return
		}

	case *ir.Unary:
		if n.Op == ir.OpNot {
			g.bgen(n.X, !want, to)
			return
		}

	case *ir.Binary:
		switch {
		case n.Op == ir.OpAndAnd && !want, n.Op == ir.OpOrOr && want:
			g.bgen(n.X, want, to)
			g.bgen(n.Y, want, to)
			return
		case n.Op == ir.OpAndAnd, n.Op == ir.OpOrOr:
			// jump when the short-circuit result is want: skip past
			// the jump as soon as one operand decides the opposite.
			p1 := g.Gjmp(NoPC)
			p2 := g.Gjmp(NoPC)
			g.Patch(p1, g.PC())
			g.bgen(n.X, !want, p2)
			g.bgen(n.Y, !want, p2)
			g.Gjmp(to)
			g.Patch(p2, g.PC())
			return
		case n.Op.IsCompare():
			op := n.Op
			if !want {
				op = op.Negate()
			}
			var l, r string
			if ir.Base(n.Y).Ullman > ir.Base(n.X).Ullman {
				r = g.operand(n.Y)
				l = g.operand(n.X)
			} else {
				l = g.operand(n.X)
				r = g.operand(n.Y)
			}
			g.emit(&Prog{As: ABRANCH, Cond: op, From: l, Reg: r, Target: to})
			return
		}
	}

	cond := ir.OpXxx
	if !want {
		cond = ir.OpNot
	}
	g.emit(&Prog{As: ABRANCH, Cond: cond, From: g.operand(e), Target: to})
}

// call generates a call. proc is 0 for a plain call, 1 for go and 2 for
// defer.
func (g *Gen) call(n *ir.Call, proc int) {
	if n.Kind == ir.CallMeth {
		n = g.CallMeth(n)
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		ir.UllmanCalc(a)
		args[i] = g.operand(a)
	}
	var fun string
	if sel, ok := n.Fun.(*ir.Selector); ok && n.Kind == ir.CallInter {
		fun = g.operand(sel.X) + "." + sel.Sel.Name
	} else {
		fun = g.operand(n.Fun)
	}
	for i, a := range args {
		g.emit(&Prog{As: AMOV, From: a, To: fmt.Sprintf("arg%d(SP)", i)})
	}
	if n.DDD {
		g.emit(&Prog{As: ANOP, From: "...", To: fmt.Sprintf("arg%d(SP)", len(args)-1)})
	}
	as := ACALL
	switch {
	case proc == 1:
		as = AGO
	case proc == 2:
		as = ADEFER
	case n.Kind == ir.CallInter:
		as = ACALLINTER
	}
	g.emit(&Prog{As: as, From: fun})
}

// CallMeth rewrites the method call x.M(args) as the function call
// T.M(x, args), taking the address of x or dereferencing it to match
// the receiver.
func (g *Gen) CallMeth(n *ir.Call) *ir.Call {
	sel, ok := n.Fun.(*ir.Selector)
	if !ok || !sel.Method || sel.Field == nil {
		g.c.Diag.Fatalf(n.Line, "callmeth: not a method: %v", n.Fun)
		return n
	}
	ft := sel.Field.Type
	rt := ft.RecvType()
	recv := sel.X
	switch xt := recv.Type(); {
	case rt.IsPtr() && !xt.IsPtr():
		addr := &ir.Unary{Op: ir.OpAddr, X: recv}
		addr.T = g.u.NewPtr(xt)
		recv = addr
	case !rt.IsPtr() && xt.IsPtr():
		ind := &ir.Unary{Op: ir.OpInd, X: recv}
		ind.T = xt.Elem
		recv = ind
	}
	fsym := g.u.MethodSym(sel.Sel, rt, false)
	if fsym == nil {
		return n
	}
	fun := ir.NewName(fsym, ft, ir.ClassFunc)
	call := &ir.Call{Kind: ir.CallFunc, Fun: fun, DDD: n.DDD}
	call.ExprBase = n.ExprBase
	call.Args = append([]ir.Expr{recv}, n.Args...)
	return call
}

func (g *Gen) ret(n *ir.Return) {
	if call, ok := singleCall(n.Results); ok && len(g.fn.Results) > 1 {
		// return f() with f returning several values
		ir.UllmanCalc(call)
		g.call(call, 0)
		for i := range g.fn.Results {
			g.emit(&Prog{As: AMOV, From: fmt.Sprintf("ret%d(SP)", i), To: g.resultSlot(i)})
		}
		g.emit(&Prog{As: ARET})
		return
	}
	for i, e := range n.Results {
		ir.UllmanCalc(e)
		src := g.operand(e)
		g.emit(&Prog{As: AMOV, From: src, To: g.resultSlot(i)})
	}
	g.emit(&Prog{As: ARET})
}

func singleCall(list []ir.Expr) (*ir.Call, bool) {
	if len(list) != 1 {
		return nil, false
	}
	call, ok := list[0].(*ir.Call)
	return call, ok
}

func (g *Gen) resultSlot(i int) string {
	if i < len(g.fn.Results) && g.fn.Results[i] != nil && !g.fn.Results[i].Sym.IsBlank() {
		return g.fn.Results[i].String()
	}
	return fmt.Sprintf("ret%d(FP)", i)
}

// Finish appends the epilogue and checks that every jump was resolved.
// It returns nil when errors were reported for this function.
func (g *Gen) Finish() *Text {
	g.emit(&Prog{As: ARET})
	if g.c.Diag.Errors() > g.nerrors {
		return nil
	}
	for i, p := range g.progs {
		if p.IsJump() && (p.Target == NoPC || int(p.Target) >= len(g.progs)) {
			g.c.Diag.Internal(p.Line, errors.Errorf("gen: unresolved jump at pc %d in %s", i, g.fn.Sym))
			return nil
		}
	}
	t := &Text{
		Name:  g.fn.Sym.Name,
		Progs: g.progs,
		Frame: types.Round(g.stksize, g.u.Arch.RegSize),
		Args:  g.argWidth(),
		Dcl:   g.fn.Dcl,
	}
	g.progs[0].To = fmt.Sprintf("$%d-%d", t.Frame, t.Args)
	if g.c.Diag.Flags().DumpGen {
		fmt.Fprintf(g.c.Diag.Writer(), "--- gen %s ---\n%s", t.Name, t)
	}
	g.c.Texts = append(g.c.Texts, t)
	return t
}
