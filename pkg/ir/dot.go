package ir

import (
	"gocore/pkg/types"
)

// AddDot resolves sel.Sel in the type of sel.X. When the name is found
// through embedded fields the elided selectors are inserted, so t.M
// becomes t.Inner.M. A name reachable by several paths at the shallowest
// depth is reported as ambiguous; an unknown name is left for the caller.
func AddDot(sel *Selector, u *types.Universe) *Selector {
	t := sel.X.Type()
	if t == nil || sel.Sel == nil {
		return sel
	}
	r := types.LookupDot(t, sel.Sel)
	if r.Count == 0 {
		return sel
	}
	if r.Count > 1 {
		u.Diag.Errorf(sel.Line, "ambiguous DOT reference %v.%s", t, sel.Sel)
		return sel
	}

	x := sel.X
	cur := t
	for _, f := range r.Path {
		inner := &Selector{X: x, Sel: f.Sym, Field: f, Ptr: cur.IsPtr()}
		inner.T = f.Type
		inner.Line = sel.Line
		x = inner
		cur = f.Type
	}
	sel.X = x
	sel.Field = r.Field
	sel.Ptr = cur.IsPtr()
	ft := r.Field.Type
	sel.Method = ft.Kind == types.Func && ft.NumRecv() > 0
	if sel.Method {
		sel.T = u.MethodFunc(ft)
	} else {
		sel.T = ft
	}
	return sel
}
