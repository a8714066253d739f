// Package interp evaluates function bodies directly from the IR. It runs
// synthesized wrappers next to the methods they forward to, so a call
// through a trampoline can be compared with the direct call.
package interp

import (
	"fmt"

	"github.com/pkg/errors"

	"gocore/pkg/ir"
	"gocore/pkg/symtab"
	"gocore/pkg/types"
)

// Value is a run-time value: int64, float64, complex128, bool, string,
// *Struct, *Pointer, *Iface, []Value, or nil for a nil pointer, map,
// channel, function or interface.
type Value = any

// Struct is a struct value. It is copied whenever it is stored.
type Struct struct {
	T      *types.Type
	Fields []Value
}

// Pointer points at a variable or a struct field.
type Pointer struct {
	Elem *Value
}

// Iface is a non-nil interface value.
type Iface struct {
	T *types.Type
	V Value
}

// Builtin implements a function in Go.
type Builtin func(args []Value) ([]Value, error)

// PanicError is a run-time panic raised by the evaluated code.
type PanicError struct {
	Msg string
}

func (e *PanicError) Error() string { return "panic: " + e.Msg }

var ErrNilDeref = errors.New("interp: invalid memory address or nil pointer dereference")

const maxDepth = 1000

type Interp struct {
	u        *types.Universe
	funcs    map[*symtab.Sym]*ir.Func
	builtins map[*symtab.Sym]Builtin
	globals  map[*ir.Name]*Value
	depth    int
}

// New returns an evaluator with runtime.panicwrap installed.
func New(u *types.Universe) *Interp {
	in := &Interp{
		u:        u,
		funcs:    make(map[*symtab.Sym]*ir.Func),
		builtins: make(map[*symtab.Sym]Builtin),
		globals:  make(map[*ir.Name]*Value),
	}
	sess := u.Session
	in.RegisterBuiltin(sess.PkgLookup("panicwrap", sess.Runtime), panicwrap)
	return in
}

func panicwrap(args []Value) ([]Value, error) {
	if len(args) != 3 {
		return nil, errors.Errorf("interp: panicwrap: %d arguments", len(args))
	}
	pkg, typ, meth := args[0], args[1], args[2]
	return nil, &PanicError{Msg: fmt.Sprintf("value method %s.%s.%s called using nil *%s pointer", pkg, typ, meth, typ)}
}

// Register makes fns callable by their symbols.
func (in *Interp) Register(fns ...*ir.Func) {
	for _, fn := range fns {
		in.funcs[fn.Sym] = fn
	}
}

func (in *Interp) RegisterBuiltin(s *symtab.Sym, fn Builtin) {
	in.builtins[s] = fn
}

// Call runs the function named s with args and returns its results.
func (in *Interp) Call(s *symtab.Sym, args ...Value) ([]Value, error) {
	if b, ok := in.builtins[s]; ok {
		return b(args)
	}
	fn, ok := in.funcs[s]
	if !ok {
		return nil, errors.Errorf("interp: undefined function %s", s)
	}
	return in.call(fn, args, false)
}

// Zero returns the zero value of t.
func Zero(t *types.Type) Value {
	if t == nil {
		return nil
	}
	switch k := t.Kind; {
	case k.IsInteger():
		return int64(0)
	case k.IsFloat():
		return float64(0)
	case k.IsComplex():
		return complex128(0)
	case k == types.Bool:
		return false
	case k == types.String:
		return ""
	case k == types.Struct:
		s := &Struct{T: t, Fields: make([]Value, len(t.Fields))}
		for i, f := range t.Fields {
			s.Fields[i] = Zero(f.Type)
		}
		return s
	case t.IsFixedArray():
		a := make([]Value, t.Bound)
		for i := range a {
			a[i] = Zero(t.Elem)
		}
		return a
	}
	return nil
}

// Copy returns v with struct storage duplicated. Arrays share their
// backing []Value.
func Copy(v Value) Value {
	switch v := v.(type) {
	case *Struct:
		c := &Struct{T: v.T, Fields: make([]Value, len(v.Fields))}
		for i, f := range v.Fields {
			c.Fields[i] = Copy(f)
		}
		return c
	}
	return v
}

type frame struct {
	vars map[*ir.Name]*Value
}

type control int

const (
	ctlNext control = iota
	ctlReturn
	ctlBreak
	ctlContinue
)

func paramFields(ft *types.Type) []*types.Field {
	var fs []*types.Field
	if ft.NumRecv() > 0 {
		fs = append(fs, ft.Recv.Fields...)
	}
	return append(fs, ft.Params.Fields...)
}

func (in *Interp) call(fn *ir.Func, args []Value, ddd bool) ([]Value, error) {
	in.depth++
	defer func() { in.depth-- }()
	if in.depth > maxDepth {
		return nil, errors.Errorf("interp: stack overflow in %s", fn.Sym)
	}

	names := fn.Params
	if fn.Recv != nil {
		names = append([]*ir.Name{fn.Recv}, names...)
	}
	fields := paramFields(fn.Type)
	if n := len(fields); n > 0 && fields[n-1].IsDDD && !ddd {
		if len(args) < n-1 {
			return nil, errors.Errorf("interp: %s: not enough arguments", fn.Sym)
		}
		rest := append([]Value(nil), args[n-1:]...)
		args = append(args[:n-1:n-1], Value(rest))
	}
	if len(args) != len(names) {
		return nil, errors.Errorf("interp: %s: %d arguments for %d parameters", fn.Sym, len(args), len(names))
	}

	fr := &frame{vars: make(map[*ir.Name]*Value)}
	for i, n := range names {
		v := Copy(args[i])
		fr.vars[n] = &v
	}
	for _, n := range fn.Results {
		v := Zero(n.T)
		fr.vars[n] = &v
	}

	var results []Value
	ctl, err := in.execList(fr, fn.Body, &results)
	if err != nil {
		return nil, errors.WithMessage(err, fn.Sym.Name)
	}
	if ctl == ctlReturn && results != nil {
		return results, nil
	}
	// bare return or end of body: the named results
	out := make([]Value, len(fn.Results))
	for i, n := range fn.Results {
		out[i] = *fr.vars[n]
	}
	return out, nil
}

func (in *Interp) execList(fr *frame, list []ir.Stmt, results *[]Value) (control, error) {
	for _, s := range list {
		ctl, err := in.exec(fr, s, results)
		if err != nil || ctl != ctlNext {
			return ctl, err
		}
	}
	return ctlNext, nil
}

func (in *Interp) exec(fr *frame, s ir.Stmt, results *[]Value) (control, error) {
	if ctl, err := in.execList(fr, ir.SBase(s).Init, results); err != nil || ctl != ctlNext {
		return ctl, err
	}
	switch n := s.(type) {
	case *ir.Empty:

	case *ir.Block:
		return in.execList(fr, n.List, results)

	case *ir.Decl:
		v := Zero(n.Name.T)
		fr.vars[n.Name] = &v

	case *ir.Assign:
		var v Value
		if n.Y == nil {
			v = Zero(n.X.Type())
		} else {
			var err error
			if v, err = in.eval(fr, n.Y); err != nil {
				return ctlNext, err
			}
		}
		if nm, ok := n.X.(*ir.Name); ok && nm.Sym.IsBlank() {
			break
		}
		if nm, ok := n.X.(*ir.Name); ok && n.Def {
			c := Copy(v)
			fr.vars[nm] = &c
			break
		}
		slot, err := in.addr(fr, n.X)
		if err != nil {
			return ctlNext, err
		}
		*slot = Copy(v)

	case *ir.AssignOp:
		slot, err := in.addr(fr, n.X)
		if err != nil {
			return ctlNext, err
		}
		y, err := in.eval(fr, n.Y)
		if err != nil {
			return ctlNext, err
		}
		v, err := binary(n.Op, *slot, y)
		if err != nil {
			return ctlNext, err
		}
		*slot = v

	case *ir.ExprStmt:
		if call, ok := n.X.(*ir.Call); ok {
			_, err := in.evalCall(fr, call)
			return ctlNext, err
		}
		_, err := in.eval(fr, n.X)
		return ctlNext, err

	case *ir.If:
		c, err := in.evalBool(fr, n.Cond)
		if err != nil {
			return ctlNext, err
		}
		if c {
			return in.execList(fr, n.Then, results)
		}
		return in.execList(fr, n.Else, results)

	case *ir.For:
		for {
			if n.Cond != nil {
				c, err := in.evalBool(fr, n.Cond)
				if err != nil || !c {
					return ctlNext, err
				}
			}
			ctl, err := in.execList(fr, n.Body, results)
			if err != nil || ctl == ctlReturn {
				return ctl, err
			}
			if ctl == ctlBreak {
				return ctlNext, nil
			}
			if n.Post != nil {
				if _, err := in.exec(fr, n.Post, results); err != nil {
					return ctlNext, err
				}
			}
		}

	case *ir.Break:
		if n.Label != nil {
			return ctlNext, errors.Errorf("interp: labeled break not supported")
		}
		return ctlBreak, nil

	case *ir.Continue:
		if n.Label != nil {
			return ctlNext, errors.Errorf("interp: labeled continue not supported")
		}
		return ctlContinue, nil

	case *ir.Return:
		if len(n.Results) == 1 {
			if call, ok := n.Results[0].(*ir.Call); ok {
				vs, err := in.evalCall(fr, call)
				if err != nil {
					return ctlNext, err
				}
				*results = copyAll(vs)
				return ctlReturn, nil
			}
		}
		out := make([]Value, 0, len(n.Results))
		for _, e := range n.Results {
			v, err := in.eval(fr, e)
			if err != nil {
				return ctlNext, err
			}
			out = append(out, Copy(v))
		}
		if len(out) > 0 {
			*results = out
		}
		return ctlReturn, nil

	default:
		return ctlNext, errors.Errorf("interp: unsupported statement %T", s)
	}
	return ctlNext, nil
}

func copyAll(vs []Value) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Copy(v)
	}
	return out
}

func (in *Interp) evalBool(fr *frame, e ir.Expr) (bool, error) {
	v, err := in.eval(fr, e)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("interp: non-boolean condition %v", e)
	}
	return b, nil
}

// slot returns the variable n, creating externals on first use.
func (in *Interp) slot(fr *frame, n *ir.Name) (*Value, error) {
	if p, ok := fr.vars[n]; ok {
		return p, nil
	}
	if n.Class == ir.ClassExtern {
		p, ok := in.globals[n]
		if !ok {
			v := Zero(n.T)
			p = &v
			in.globals[n] = p
		}
		return p, nil
	}
	return nil, errors.Errorf("interp: undefined: %s", n)
}

// addr returns the storage e denotes.
func (in *Interp) addr(fr *frame, e ir.Expr) (*Value, error) {
	switch n := e.(type) {
	case *ir.Name:
		return in.slot(fr, n)

	case *ir.Selector:
		var st *Struct
		if n.Ptr {
			v, err := in.eval(fr, n.X)
			if err != nil {
				return nil, err
			}
			p, ok := v.(*Pointer)
			if !ok || p == nil {
				return nil, ErrNilDeref
			}
			st, _ = (*p.Elem).(*Struct)
		} else {
			base, err := in.addr(fr, n.X)
			if err != nil {
				return nil, err
			}
			st, _ = (*base).(*Struct)
		}
		if st == nil {
			return nil, errors.Errorf("interp: %v is not a struct", n.X)
		}
		i := fieldIndex(st.T, n.Sel)
		if i < 0 {
			return nil, errors.Errorf("interp: %v has no field %s", st.T, n.Sel)
		}
		return &st.Fields[i], nil

	case *ir.Unary:
		if n.Op == ir.OpInd {
			v, err := in.eval(fr, n.X)
			if err != nil {
				return nil, err
			}
			p, ok := v.(*Pointer)
			if !ok || p == nil {
				return nil, ErrNilDeref
			}
			return p.Elem, nil
		}

	case *ir.Index:
		base, err := in.addr(fr, n.X)
		if err != nil {
			return nil, err
		}
		i, err := in.eval(fr, n.Index)
		if err != nil {
			return nil, err
		}
		s, _ := (*base).([]Value)
		idx, _ := i.(int64)
		if idx < 0 || idx >= int64(len(s)) {
			return nil, &PanicError{Msg: fmt.Sprintf("index out of range [%d] with length %d", idx, len(s))}
		}
		return &s[idx], nil
	}
	return nil, errors.Errorf("interp: cannot take the address of %v", e)
}

func fieldIndex(t *types.Type, s *symtab.Sym) int {
	for i, f := range t.Fields {
		if f.Sym == s {
			return i
		}
	}
	return -1
}

func (in *Interp) eval(fr *frame, e ir.Expr) (Value, error) {
	if _, err := in.execList(fr, ir.Base(e).Init, nil); err != nil {
		return nil, err
	}
	switch n := e.(type) {
	case *ir.Name:
		p, err := in.slot(fr, n)
		if err != nil {
			return nil, err
		}
		return *p, nil

	case *ir.Literal:
		return n.Val, nil

	case *ir.Unary:
		switch n.Op {
		case ir.OpAddr:
			p, err := in.addr(fr, n.X)
			if err != nil {
				return nil, err
			}
			return &Pointer{Elem: p}, nil
		case ir.OpInd:
			p, err := in.addr(fr, n)
			if err != nil {
				return nil, err
			}
			return *p, nil
		}
		x, err := in.eval(fr, n.X)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, x)

	case *ir.Binary:
		switch n.Op {
		case ir.OpAndAnd, ir.OpOrOr:
			x, err := in.evalBool(fr, n.X)
			if err != nil {
				return nil, err
			}
			if x == (n.Op == ir.OpOrOr) {
				return x, nil
			}
			return in.evalBool(fr, n.Y)
		}
		x, err := in.eval(fr, n.X)
		if err != nil {
			return nil, err
		}
		y, err := in.eval(fr, n.Y)
		if err != nil {
			return nil, err
		}
		return binary(n.Op, x, y)

	case *ir.Selector:
		if n.Method {
			return nil, errors.Errorf("interp: method value %v not supported", n)
		}
		p, err := in.addr(fr, n)
		if err != nil {
			return nil, err
		}
		return *p, nil

	case *ir.Index:
		p, err := in.addr(fr, n)
		if err != nil {
			return nil, err
		}
		return *p, nil

	case *ir.Call:
		vs, err := in.evalCall(fr, n)
		if err != nil {
			return nil, err
		}
		if len(vs) == 0 {
			return nil, nil
		}
		return vs[0], nil

	case *ir.Conv:
		x, err := in.eval(fr, n.X)
		if err != nil {
			return nil, err
		}
		if n.Op == types.OpConvIface && !n.X.Type().IsInterface() {
			return &Iface{T: n.X.Type(), V: Copy(x)}, nil
		}
		return x, nil
	}
	return nil, errors.Errorf("interp: unsupported expression %T", e)
}

func (in *Interp) evalArgs(fr *frame, list []ir.Expr) ([]Value, error) {
	args := make([]Value, 0, len(list)+1)
	for _, a := range list {
		v, err := in.eval(fr, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (in *Interp) evalCall(fr *frame, n *ir.Call) ([]Value, error) {
	switch n.Kind {
	case ir.CallMeth, ir.CallInter:
		sel, ok := n.Fun.(*ir.Selector)
		if !ok || !sel.Method {
			return nil, errors.Errorf("interp: %v is not a method", n.Fun)
		}
		recv, fsym, err := in.receiver(fr, n.Kind, sel)
		if err != nil {
			return nil, err
		}
		args, err := in.evalArgs(fr, n.Args)
		if err != nil {
			return nil, err
		}
		return in.invoke(fsym, append([]Value{recv}, args...), n.DDD)
	}

	fun, ok := n.Fun.(*ir.Name)
	if !ok || fun.Class != ir.ClassFunc {
		return nil, errors.Errorf("interp: cannot call %v", n.Fun)
	}
	args, err := in.evalArgs(fr, n.Args)
	if err != nil {
		return nil, err
	}
	return in.invoke(fun.Sym, args, n.DDD)
}

func (in *Interp) invoke(s *symtab.Sym, args []Value, ddd bool) ([]Value, error) {
	if b, ok := in.builtins[s]; ok {
		return b(args)
	}
	fn, ok := in.funcs[s]
	if !ok {
		return nil, errors.Errorf("interp: undefined function %s", s)
	}
	return in.call(fn, args, ddd)
}

// receiver evaluates the receiver of the method selector sel, taking its
// address or dereferencing it to match the method, and returns the
// symbol of the function to call.
func (in *Interp) receiver(fr *frame, kind ir.CallKind, sel *ir.Selector) (Value, *symtab.Sym, error) {
	if kind == ir.CallInter {
		v, err := in.eval(fr, sel.X)
		if err != nil {
			return nil, nil, err
		}
		iv, ok := v.(*Iface)
		if !ok || iv == nil {
			return nil, nil, ErrNilDeref
		}
		fsym := in.u.MethodSym(sel.Sel, iv.T, false)
		if fsym == nil {
			return nil, nil, errors.Errorf("interp: no method %s on %v", sel.Sel, iv.T)
		}
		return iv.V, fsym, nil
	}

	rt := sel.Field.Type.RecvType()
	xt := sel.X.Type()
	var recv Value
	switch {
	case rt.IsPtr() && !xt.IsPtr():
		p, err := in.addr(fr, sel.X)
		if err != nil {
			return nil, nil, err
		}
		recv = &Pointer{Elem: p}
	case !rt.IsPtr() && xt.IsPtr():
		v, err := in.eval(fr, sel.X)
		if err != nil {
			return nil, nil, err
		}
		p, ok := v.(*Pointer)
		if !ok || p == nil {
			return nil, nil, ErrNilDeref
		}
		recv = *p.Elem
	default:
		v, err := in.eval(fr, sel.X)
		if err != nil {
			return nil, nil, err
		}
		recv = v
	}
	fsym := in.u.MethodSym(sel.Sel, rt, false)
	if fsym == nil {
		return nil, nil, errors.Errorf("interp: illegal receiver %v", rt)
	}
	return recv, fsym, nil
}
