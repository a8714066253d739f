package ir

// UINF is the Ullman number of an expression containing a call. Calls
// clobber every register, so such subtrees are evaluated first.
const UINF = 100

const maxUllman = 200

// UllmanCalc computes the Sethi-Ullman number of e and its subtrees: the
// number of registers needed to evaluate it without spilling.
func UllmanCalc(e Expr) int {
	if e == nil {
		return 0
	}
	b := e.base()
	ul := 1
	switch n := e.(type) {
	case *Name:
		if n.Heap {
			ul++
		}
	case *Literal:
	case *Call:
		UllmanCalc(n.Fun)
		for _, a := range n.Args {
			UllmanCalc(a)
		}
		ul = UINF
	default:
		l, r := children(e)
		if l != nil {
			ul = UllmanCalc(l)
		}
		ur := 1
		if r != nil {
			ur = UllmanCalc(r)
		}
		if ul == ur {
			ul++
		}
		if ur > ul {
			ul = ur
		}
	}
	if ul > maxUllman {
		ul = maxUllman
	}
	b.Ullman = ul
	return ul
}

// children returns the operands of e in evaluation order.
func children(e Expr) (l, r Expr) {
	switch n := e.(type) {
	case *Unary:
		return n.X, nil
	case *Binary:
		return n.X, n.Y
	case *Selector:
		return n.X, nil
	case *Index:
		return n.X, n.Index
	case *Conv:
		return n.X, nil
	}
	return nil, nil
}
