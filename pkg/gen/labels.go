package gen

import (
	"gocore/pkg/ir"
	"gocore/pkg/symtab"
)

// Label tracks one label of the function being compiled. Sym.Label holds
// its index in Gen.labels plus one while the function is compiled.
type Label struct {
	Sym  *symtab.Sym
	Def  *ir.LabelStmt
	Uses []*ir.Goto
	Used bool // target of a labeled break or continue

	LabelPC  PC   // address of the definition, NoPC until it is seen
	GotoPCs  []PC // forward gotos waiting for LabelPC
	BreakPC  PC   // while inside the labeled statement
	ContinPC PC
}

func (g *Gen) lookupLabel(s *symtab.Sym) *Label {
	i := s.Label - 1
	if i < 0 || i >= len(g.labels) || g.labels[i].Sym != s {
		return nil
	}
	return g.labels[i]
}

// newLabel returns the label for s, creating it on first sight, and
// records def or use against it.
func (g *Gen) newLabel(s *symtab.Sym, def *ir.LabelStmt, use *ir.Goto) *Label {
	lab := g.lookupLabel(s)
	if lab == nil {
		lab = &Label{Sym: s, LabelPC: NoPC, BreakPC: NoPC, ContinPC: NoPC}
		g.labels = append(g.labels, lab)
		s.Label = len(g.labels)
	}
	if def != nil {
		if lab.Def != nil {
			g.errorf("label %s already defined at %s", s, g.c.Diag.Pos(lab.Def.Line))
		} else {
			lab.Def = def
		}
	} else if use != nil {
		lab.Uses = append(lab.Uses, use)
	}
	return lab
}

// stmtLabel returns the label attached to the for, switch or select n.
func (g *Gen) stmtLabel(n ir.Stmt) *Label {
	lab := g.labeled[n]
	if lab == nil || lab.Def == nil || lab.Def.Defn != n {
		return nil
	}
	return lab
}

// ClearLabels releases the labels of the function.
func (g *Gen) ClearLabels() {
	for _, lab := range g.labels {
		lab.Sym.Label = 0
	}
	g.labels = nil
	g.labeled = make(map[ir.Stmt]*Label)
}

// CheckLabels reports undefined and unused labels and gotos that jump
// into blocks or over declarations.
func (g *Gen) CheckLabels() {
	d := g.c.Diag
	for _, lab := range g.labels {
		if lab.Def == nil {
			for _, use := range lab.Uses {
				d.Errorf(use.Line, "label %s not defined", lab.Sym)
			}
			continue
		}
		if len(lab.Uses) == 0 && !lab.Used {
			d.Errorf(lab.Def.Line, "label %s defined and not used", lab.Sym)
			continue
		}
		if len(lab.GotoPCs) > 0 {
			d.Fatalf(lab.Def.Line, "label %s never resolved", lab.Sym)
			continue
		}
		for _, use := range lab.Uses {
			g.checkGoto(use, lab.Def)
		}
	}
}

// checkGoto reports a goto whose target is in scope of a block or a
// declaration that the goto itself is not.
//
// Both scopes are chains of the declaration stack. The goto is legal
// when the label's chain is a suffix of the goto's.
func (g *Gen) checkGoto(from *ir.Goto, to *ir.LabelStmt) {
	if from.Scope == to.Scope {
		return
	}
	nf := 0
	for fs := from.Scope; fs != nil; fs = fs.Link {
		nf++
	}
	nt := 0
	for ts := to.Scope; ts != nil; ts = ts.Link {
		nt++
	}
	fs := from.Scope
	for ; nf > nt; nf-- {
		fs = fs.Link
	}
	if fs == to.Scope {
		return
	}

	// prefer the outermost block or declaration being entered
	var block, dcl *symtab.Scope
	ts := to.Scope
	for ; nt > nf; nt-- {
		if ts.IsBlock() {
			block = ts
		} else {
			dcl = ts
		}
		ts = ts.Link
	}
	for ts != fs {
		if ts.IsBlock() {
			block = ts
		} else {
			dcl = ts
		}
		ts = ts.Link
		fs = fs.Link
	}

	d := g.c.Diag
	if block != nil {
		d.Errorf(from.Line, "goto %s jumps into block starting at %s", from.Label, d.Pos(block.Line))
		return
	}
	d.Errorf(from.Line, "goto %s jumps over declaration of %s at %s", from.Label, dcl.Name, d.Pos(dcl.Line))
}
