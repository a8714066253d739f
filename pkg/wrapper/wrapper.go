// Package wrapper synthesizes the trampolines that let a method declared
// on an embedded type, or on T for the method table of *T, be called
// with the outer receiver.
//
// A wrapper for method M of T reached from U looks like
//
//	func U.M(.this U, .anon0 int, .anon1 ...string) (~r0 string) {
//		return .this.T.M(.anon0, .anon1...)
//	}
//
// and, when generating (*T).M from T.M, starts with a nil guard calling
// runtime.panicwrap.
package wrapper

import (
	"fmt"

	"gocore/pkg/gen"
	"gocore/pkg/ir"
	"gocore/pkg/symtab"
	"gocore/pkg/types"
)

// Generator builds and compiles wrappers.
type Generator struct {
	u    *types.Universe
	sess *symtab.Session
	c    *gen.Compiler

	// Funcs holds every wrapper generated, in order.
	Funcs []*ir.Func
}

func New(c *gen.Compiler) *Generator {
	return &Generator{u: c.U, sess: c.Sess, c: c}
}

// PanicWrap is the runtime routine a nil-receiver guard calls.
func (w *Generator) PanicWrap() *ir.Name {
	s := w.sess.PkgLookup("panicwrap", w.sess.Runtime)
	str := w.u.Basic(types.String)
	ft := w.u.NewFunc(nil, []*types.Field{{Type: str}, {Type: str}, {Type: str}}, nil)
	return ir.NewName(s, ft, ir.ClassFunc)
}

// structArgs declares a parameter for each field of the tuple. Unnamed
// fields are named .anonN when mustName is set and ~rN otherwise.
func (w *Generator) structArgs(tup *types.Type, class ir.Class, mustName bool, line int) ([]*ir.Name, []*types.Field) {
	var names []*ir.Name
	var fields []*types.Field
	anon := 0
	for i, f := range tup.Fields {
		s := f.Sym
		if s == nil || s.IsBlank() {
			if mustName {
				s = w.sess.Lookup(fmt.Sprintf(".anon%d", anon))
				anon++
			} else {
				s = w.sess.Lookup(fmt.Sprintf("~r%d", i))
			}
		}
		n := ir.NewName(s, f.Type, class)
		n.Line = line
		w.sess.Declare(s, n, line, true)
		names = append(names, n)
		fields = append(fields, &types.Field{Sym: s, Type: f.Type, IsDDD: f.IsDDD, Line: line})
	}
	return names, fields
}

// Gen synthesizes newnam, a function taking rcvr first that calls method
// on it with the remaining arguments. iface marks a method table entry
// called through an interface, whose receiver is passed in a full
// pointer-sized word.
func (w *Generator) Gen(rcvr *types.Type, method *types.Field, newnam *symtab.Sym, iface bool) *ir.Func {
	d := w.c.Diag
	if d.Flags().DumpWrappers {
		fmt.Fprintf(d.Writer(), "genwrapper rcvrtype=%v method=%v newnam=%v\n", rcvr, method.Type, newnam)
	}

	const line = 1 // less confusing than the end of the input

	w.sess.MarkDcl(line)
	defer w.sess.PopDcl()

	thisSym := w.sess.Lookup(".this")
	this := ir.NewName(thisSym, rcvr, ir.ClassParam)
	this.Line = line
	w.sess.Declare(thisSym, this, line, true)

	params := []*ir.Name{this}
	pfields := []*types.Field{{Sym: thisSym, Type: rcvr, Line: line}}
	w.u.Dowidth(rcvr)
	if iface && rcvr.Width < w.u.Arch.PtrSize {
		// the interface call passes a whole word; pad up to it
		padSym := w.sess.Lookup(".pad")
		tpad := w.u.NewArray(w.u.Basic(types.Uint8), w.u.Arch.PtrSize-rcvr.Width)
		pad := ir.NewName(padSym, tpad, ir.ClassParam)
		pad.Line = line
		w.sess.Declare(padSym, pad, line, true)
		params = append(params, pad)
		pfields = append(pfields, &types.Field{Sym: padSym, Type: tpad, Line: line})
	}

	ft := method.Type
	in, infields := w.structArgs(ft.Params, ir.ClassParam, true, line)
	out, outfields := w.structArgs(ft.Results, ir.ClassParamOut, false, line)
	params = append(params, in...)
	pfields = append(pfields, infields...)

	fn := &ir.Func{
		Sym:     newnam,
		Type:    w.u.NewFunc(nil, pfields, outfields),
		Params:  params,
		Results: out,
		Line:    line,
		Wrapper: true,
		DupOK:   true,
	}
	fn.Dcl = append(append([]*ir.Name(nil), params...), out...)

	args := make([]ir.Expr, len(in))
	ddd := false
	for i, n := range in {
		args[i] = n
		ddd = infields[i].IsDDD
	}

	// nil check for a better error when generating *T from T
	if rcvr.IsPtr() && rcvr.Elem == ft.RecvType() {
		elem := rcvr.Elem
		str := w.u.Basic(types.String)
		pkg := ""
		if elem.Sym.Pkg != nil {
			pkg = elem.Sym.Pkg.Name
		}
		call := &ir.Call{Kind: ir.CallFunc, Fun: w.PanicWrap(), Args: []ir.Expr{
			ir.NewLiteral(str, ir.ConstString, pkg),
			ir.NewLiteral(str, ir.ConstString, elem.Sym.Name),
			ir.NewLiteral(str, ir.ConstString, method.Sym.Name),
		}}
		call.Line = line
		test := &ir.Binary{Op: ir.OpEq, X: this, Y: ir.NewLiteral(rcvr, ir.ConstNil, nil)}
		test.T = w.u.Basic(types.Bool)
		test.Line = line
		guard := &ir.If{Cond: test, Then: []ir.Stmt{&ir.ExprStmt{X: call}}}
		guard.Line = line
		fn.Body = append(fn.Body, guard)
	}

	sel := ir.AddDot(&ir.Selector{X: this, Sel: method.Sym}, w.u)
	sel.Line = line
	call := &ir.Call{Kind: ir.CallMeth, Fun: sel, Args: args, DDD: ddd}
	call.Line = line
	if sel.X.Type().IsInterface() {
		call.Kind = ir.CallInter
	}
	if n := ft.NumResults(); n == 1 {
		call.T = ft.Results.Fields[0].Type
	} else if n > 1 {
		call.T = ft.Results
	}
	if ft.NumResults() > 0 {
		ret := &ir.Return{Results: []ir.Expr{call}}
		ret.Line = line
		fn.Body = append(fn.Body, ret)
	} else {
		st := &ir.ExprStmt{X: call}
		st.Line = line
		fn.Body = append(fn.Body, st)
	}

	if d.Flags().DumpWrappers {
		ir.Dump(d.Writer(), fn)
	}
	w.c.Compile(fn)
	w.Funcs = append(w.Funcs, fn)
	return fn
}

// ForType generates the wrappers the method tables of t and *t need.
func (w *Generator) ForType(t *types.Type) []*ir.Func {
	start := len(w.Funcs)
	w.methods(t)
	w.methods(w.u.NewPtr(t))
	return w.Funcs[start:]
}

// methods generates the wrappers of the method table of t: for every
// method in the set of t, one with receiver t unless the method is
// declared on t, and one with receiver it, the type stored in an
// interface word, unless the method already takes it in a full word.
func (w *Generator) methods(t *types.Type) {
	mt := types.MethType(t)
	if mt == nil {
		return
	}
	w.u.Dowidth(t)
	ptrSize := w.u.Arch.PtrSize
	it := t
	if it.Width > ptrSize {
		it = w.u.NewPtr(t)
	}

	for _, f := range w.u.MethodSet(mt) {
		ft := f.Type
		if ft.Kind != types.Func || ft.NumRecv() == 0 {
			continue
		}
		this := ft.RecvType()
		if this.IsPtr() && this.Elem == t {
			continue
		}
		// a pointer method is not in the set of a value unless it is
		// reached through an embedded pointer
		if this.IsPtr() && !t.IsPtr() && f.Embedded != 2 && !types.IsIfaceMethod(ft) {
			continue
		}
		w.u.Dowidth(this)

		if isym := w.u.MethodSym(f.Sym, it, true); isym != nil && isym.Flags&symtab.SymSiggen == 0 {
			isym.Flags |= symtab.SymSiggen
			if !types.Identical(this, it) || this.Width < ptrSize {
				w.Gen(it, f, isym, true)
			}
		}
		if tsym := w.u.MethodSym(f.Sym, t, false); tsym != nil && tsym.Flags&symtab.SymSiggen == 0 {
			tsym.Flags |= symtab.SymSiggen
			if !types.Identical(this, t) {
				w.Gen(t, f, tsym, false)
			}
		}
	}
}
