package gen

import (
	"fmt"

	"gocore/pkg/ir"
	"gocore/pkg/types"
)

// TempName returns a fresh automatic of type t and reserves its stack
// slot. Names are unique across the whole compilation.
func (g *Gen) TempName(t *types.Type) *ir.Name {
	g.c.tmpgen++
	s := g.c.Sess.Lookup(fmt.Sprintf("autotmp_%04d", g.c.tmpgen))
	n := ir.NewName(s, t, ir.ClassAuto)
	n.Used = true
	n.Line = g.line
	g.allocAuto(n)
	g.fn.Dcl = append(g.fn.Dcl, n)
	return n
}

// allocAuto assigns n the next slot below the frame pointer.
func (g *Gen) allocAuto(n *ir.Name) {
	t := n.T
	if n.Heap {
		t = g.u.NewPtr(n.T)
	}
	g.u.Dowidth(t)
	g.stksize += t.Width
	g.stksize = types.Round(g.stksize, t.Align)
	if g.u.Arch.AlignArgsToPtr {
		g.stksize = types.Round(g.stksize, g.u.Arch.PtrSize)
	}
	n.Offset = -g.stksize
	g.allocated[n] = true
}

// AllocParams assigns the receiver, parameters and results their offsets
// in the argument frame and every automatic already declared its stack
// slot.
func (g *Gen) AllocParams() {
	fn := g.fn
	if fn.Type != nil {
		g.u.ArgWidth(fn.Type)
		place := func(names []*ir.Name, tup *types.Type) {
			if tup == nil {
				return
			}
			for i, n := range names {
				if n != nil && i < len(tup.Fields) {
					n.Offset = tup.Fields[i].Offset
				}
			}
		}
		if fn.Recv != nil {
			place([]*ir.Name{fn.Recv}, fn.Type.Recv)
		}
		place(fn.Params, fn.Type.Params)
		place(fn.Results, fn.Type.Results)
	}
	for _, n := range fn.Dcl {
		if n.Class == ir.ClassAuto && !g.allocated[n] {
			g.allocAuto(n)
		}
	}
}

func (g *Gen) argWidth() int64 {
	if g.fn.Type == nil {
		return 0
	}
	return g.u.ArgWidth(g.fn.Type)
}
