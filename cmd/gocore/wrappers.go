package main

import (
	"fmt"
	"io"

	"gocore/pkg/config"
	"gocore/pkg/diag"
	"gocore/pkg/gen"
	"gocore/pkg/interp"
	"gocore/pkg/ir"
	"gocore/pkg/symtab"
	"gocore/pkg/types"
	"gocore/pkg/wrapper"
)

type wrapResult struct {
	generated int
	matched   int
}

const depth = 3

// runWrappers declares
//
//	type T struct{ name string }
//	func (t T) Speak() string { return "I am " + t.name }
//	type L1 struct{ T }; type L2 struct{ L1 }; type L3 struct{ L2 }
//
// generates the wrappers of every Lk, and checks that calling Speak
// through each of them matches calling T.Speak directly.
func runWrappers(cfg config.Config, w io.Writer) (wrapResult, error) {
	sink := diag.New(w, diag.WithFlags(cfg.Flags))
	sess := symtab.NewSession(sink, "example.com/main")
	u := types.NewUniverse(cfg.Arch, sess)
	c := gen.New(u)
	wg := wrapper.New(c)
	in := interp.New(u)

	str := u.Basic(types.String)
	name := sess.Lookup("name")
	speak := sess.Lookup("Speak")
	T := u.NewNamed(sess.Lookup("T"), u.NewStruct([]*types.Field{{Sym: name, Type: str}}))
	ft := u.NewFunc(&types.Field{Sym: sess.Lookup("t"), Type: T}, nil, []*types.Field{{Type: str}})
	u.AddMethod(speak, ft, true, 1)

	recv := ir.NewName(sess.Lookup("t"), T, ir.ClassParam)
	sum := &ir.Binary{Op: ir.OpAdd,
		X: ir.NewLiteral(str, ir.ConstString, "I am "),
		Y: ir.AddDot(&ir.Selector{X: recv, Sel: name}, u)}
	sum.T = str
	in.Register(&ir.Func{
		Sym:  u.MethodSym(speak, T, false),
		Type: ft,
		Recv: recv,
		Body: []ir.Stmt{&ir.Return{Results: []ir.Expr{sum}}},
		Line: 1,
	})

	var res wrapResult
	in.Register(wg.ForType(T)...)
	outer := T
	var val interp.Value = &interp.Struct{T: T, Fields: []interp.Value{"gopher"}}
	direct, err := in.Call(u.MethodSym(speak, T, false), val)
	if err != nil {
		return res, err
	}
	for k := 1; k <= depth; k++ {
		outer = u.NewNamed(sess.Lookup(fmt.Sprintf("L%d", k)),
			u.NewStruct([]*types.Field{{Sym: outer.Sym, Type: outer, Embedded: 1}}))
		val = &interp.Struct{T: outer, Fields: []interp.Value{val}}
		in.Register(wg.ForType(outer)...)

		if p := types.LookupDot(outer, speak); p.Count != 1 || len(p.Path) != k {
			return res, fmt.Errorf("Speak on %v: %d paths at depth %d", outer, p.Count, len(p.Path))
		}
		for _, r := range []struct {
			typ *types.Type
			v   interp.Value
		}{
			{outer, val},
			{u.NewPtr(outer), &interp.Pointer{Elem: &val}},
		} {
			got, err := in.Call(u.MethodSym(speak, r.typ, false), r.v)
			if err != nil {
				return res, err
			}
			if got[0] != direct[0] {
				return res, fmt.Errorf("%v.Speak = %v, want %v", r.typ, got[0], direct[0])
			}
			res.matched++
		}
	}

	sink.Flush()
	if n := sink.Errors(); n > 0 {
		return res, fmt.Errorf("%d errors compiling wrappers", n)
	}
	res.generated = len(wg.Funcs)
	return res, nil
}
