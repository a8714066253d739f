package gen

import (
	"fmt"

	"gocore/pkg/ir"
	"gocore/pkg/types"
)

func isBlank(e ir.Expr) bool {
	n, ok := e.(*ir.Name)
	return ok && n.Sym.IsBlank()
}

func isNil(e ir.Expr) bool {
	l, ok := e.(*ir.Literal)
	return ok && l.Kind == ir.ConstNil
}

// CgenAs generates nl = nr. A nil nr assigns the zero value of nl's type
// and a nil or blank nl evaluates nr for its side effects only.
func (g *Gen) CgenAs(nl, nr ir.Expr) {
	if nl == nil || isBlank(nl) {
		if nr != nil {
			g.cgenDiscard(nr)
		}
		return
	}

	if nr == nil || isNil(nr) {
		if n, ok := nl.(*ir.Name); ok && nr == nil {
			// externals and heap variables start out zeroed
			if n.Class == ir.ClassExtern || n.Heap {
				return
			}
		}
		tl := nl.Type()
		if tl == nil {
			return
		}
		if types.IsFat(tl) {
			g.ClearFat(nl)
			return
		}
		nr = g.zero(tl)
		if nr == nil {
			return
		}
	}
	if nl.Type() == nil {
		return
	}

	ul := ir.UllmanCalc(nl)
	ur := ir.UllmanCalc(nr)
	if ur > ul && ul > 1 {
		// the right side needs more registers: evaluate it first
		tmp := g.TempName(nr.Type())
		g.cgen(nr, tmp.String())
		g.emit(&Prog{As: AMOV, From: tmp.String(), To: g.lvalue(nl)})
		return
	}
	g.cgen(nr, g.lvalue(nl))
}

// zero returns the zero constant of the non-fat type t.
func (g *Gen) zero(t *types.Type) ir.Expr {
	switch k := g.u.Simtype(t.Kind); {
	case k.IsInteger():
		return ir.NewLiteral(t, ir.ConstInt, int64(0))
	case k.IsFloat():
		return ir.NewLiteral(t, ir.ConstFloat, 0.0)
	case k.IsComplex():
		return ir.NewLiteral(t, ir.ConstComplex, complex(0, 0))
	case k == types.Bool:
		return ir.NewLiteral(t, ir.ConstBool, false)
	case k == types.Ptr:
		return ir.NewLiteral(t, ir.ConstNil, nil)
	}
	g.c.Diag.Fatalf(g.line, "cgen_as: tl %v", t)
	return nil
}

// ClearFat zeroes the memory of the multi-word value nl.
func (g *Gen) ClearFat(nl ir.Expr) {
	t := nl.Type()
	g.u.Dowidth(t)
	g.emit(&Prog{As: ACLEAR, From: fmt.Sprintf("$%d", t.Width), To: g.lvalue(nl)})
}

// cgenDiscard evaluates e only for its side effects and the nil checks
// it implies.
func (g *Gen) cgenDiscard(e ir.Expr) {
	switch n := e.(type) {
	case *ir.Name:
		if !n.Heap && n.Class != ir.ClassExtern && n.Class != ir.ClassFunc {
			n.Used = true
			g.emit(&Prog{As: AUSED, From: n.String()})
		}
		return

	case *ir.Binary:
		if n.Op.IsArith() || n.Op.IsCompare() {
			g.cgenDiscard(n.X)
			g.cgenDiscard(n.Y)
			return
		}

	case *ir.Unary:
		switch n.Op {
		case ir.OpNeg, ir.OpPlus, ir.OpNot, ir.OpCom:
			g.cgenDiscard(n.X)
			return
		case ir.OpInd:
			g.emit(&Prog{As: ACHECKNIL, From: g.operand(n.X)})
			return
		}
	}

	t := e.Type()
	if t == nil {
		if c, ok := e.(*ir.Call); ok {
			g.call(c, 0)
			return
		}
		t = g.u.Basic(types.Int)
	}
	tmp := g.TempName(t)
	g.CgenAs(tmp, e)
	g.emit(&Prog{As: AUSED, From: tmp.String()})
}

// lvalue returns the operand naming the location of e.
func (g *Gen) lvalue(e ir.Expr) string {
	switch n := e.(type) {
	case *ir.Name:
		return n.String()
	case *ir.Selector:
		x := g.lvalue(n.X)
		if n.Ptr {
			g.emit(&Prog{As: ACHECKNIL, From: x})
			return fmt.Sprintf("(%s).%s", x, n.Sel)
		}
		return fmt.Sprintf("%s.%s", x, n.Sel)
	case *ir.Index:
		return fmt.Sprintf("%s[%s]", g.lvalue(n.X), g.operand(n.Index))
	case *ir.Unary:
		if n.Op == ir.OpInd {
			x := g.operand(n.X)
			g.emit(&Prog{As: ACHECKNIL, From: x})
			return "(" + x + ")"
		}
	}
	g.c.Diag.Fatalf(g.line, "not addressable: %v", e)
	return "?"
}

// operand returns an operand holding the value of e, evaluating it into
// a temporary unless it is a name or a constant.
func (g *Gen) operand(e ir.Expr) string {
	switch n := e.(type) {
	case *ir.Name:
		return n.String()
	case *ir.Literal:
		return "$" + n.String()
	}
	t := e.Type()
	if t == nil {
		t = g.u.Basic(types.Int)
	}
	tmp := g.TempName(t)
	g.cgen(e, tmp.String())
	return tmp.String()
}

// cgen evaluates e into the location dst.
func (g *Gen) cgen(e ir.Expr, dst string) {
	g.GenList(ir.Base(e).Init)
	switch n := e.(type) {
	case *ir.Name, *ir.Literal:
		g.emit(&Prog{As: AMOV, From: g.operand(n), To: dst})

	case *ir.Binary:
		if n.Op.IsArith() {
			var l, r string
			if ir.Base(n.Y).Ullman > ir.Base(n.X).Ullman {
				r = g.operand(n.Y)
				l = g.operand(n.X)
			} else {
				l = g.operand(n.X)
				r = g.operand(n.Y)
			}
			g.emit(&Prog{As: AOP, Cond: n.Op, From: l, Reg: r, To: dst})
			return
		}
		g.cgenBool(e, dst)

	case *ir.Unary:
		switch n.Op {
		case ir.OpNot:
			g.cgenBool(e, dst)
		case ir.OpNeg, ir.OpPlus, ir.OpCom:
			g.emit(&Prog{As: AOP, Cond: n.Op, From: g.operand(n.X), To: dst})
		case ir.OpInd:
			x := g.operand(n.X)
			g.emit(&Prog{As: ACHECKNIL, From: x})
			g.emit(&Prog{As: AMOV, From: "(" + x + ")", To: dst})
		case ir.OpAddr:
			g.emit(&Prog{As: AMOV, From: "$" + g.lvalue(n.X), To: dst})
		case ir.OpRecv:
			g.emit(&Prog{As: AMOV, From: g.operand(n.X), To: "arg0(SP)"})
			g.emit(&Prog{As: ACALL, From: "runtime.chanrecv1"})
			g.emit(&Prog{As: AMOV, From: "ret0(SP)", To: dst})
		}

	case *ir.Selector:
		if n.Method {
			g.emit(&Prog{As: AMOV, From: "$" + n.String(), To: dst})
			return
		}
		g.emit(&Prog{As: AMOV, From: g.lvalue(n), To: dst})

	case *ir.Index:
		g.emit(&Prog{As: AMOV, From: g.lvalue(n), To: dst})

	case *ir.Call:
		g.call(n, 0)
		g.emit(&Prog{As: AMOV, From: "ret0(SP)", To: dst})

	case *ir.Conv:
		g.emit(&Prog{As: ACONV, From: g.operand(n.X), Reg: n.Op.String(), To: dst})

	default:
		g.c.Diag.Fatalf(g.line, "cgen: unknown expression %T", e)
	}
}

// cgenBool materializes the boolean e in dst.
func (g *Gen) cgenBool(e ir.Expr, dst string) {
	p1 := g.Gjmp(NoPC)
	p2 := g.Gjmp(NoPC)
	g.Patch(p1, g.PC())
	g.emit(&Prog{As: AMOV, From: "$true", To: dst})
	g.bgen(e, true, p2)
	g.emit(&Prog{As: AMOV, From: "$false", To: dst})
	g.Patch(p2, g.PC())
}

func (g *Gen) cgenAsOp(n *ir.AssignOp) {
	ir.UllmanCalc(n.Y)
	r := g.operand(n.Y)
	l := g.lvalue(n.X)
	g.emit(&Prog{As: AOP, Cond: n.Op, From: l, Reg: r, To: l})
}

// cgenDcl allocates the local n. Variables that escape get a fresh heap
// cell.
func (g *Gen) cgenDcl(n *ir.Name) {
	if n.Class != ir.ClassAuto {
		return
	}
	if !g.allocated[n] {
		g.allocAuto(n)
		g.fn.Dcl = append(g.fn.Dcl, n)
	}
	if n.Heap {
		g.emit(&Prog{As: ANEW, From: n.T.String(), To: n.String()})
	}
}
