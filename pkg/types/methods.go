package types

import (
	"gocore/pkg/symtab"
)

// MethType returns the type whose method set t shares: t itself for a
// named type, the base of an unnamed pointer to a named type, nil when
// t cannot have methods.
func MethType(t *Type) *Type {
	if t == nil {
		return nil
	}
	if t.Sym == nil && t.IsPtr() {
		t = t.Elem
	}
	if t == nil || t.Sym == nil {
		return nil
	}
	switch t.Kind {
	case Ptr, Interface, Forward, Nil, Blank, Invalid:
		return nil
	}
	return t
}

// IsIfaceMethod reports whether the method type ft carries the
// placeholder receiver of an interface method.
func IsIfaceMethod(ft *Type) bool {
	if ft == nil || ft.NumRecv() == 0 {
		return false
	}
	rf := ft.Recv.Fields[0]
	if rf.Sym != nil {
		return false
	}
	r := rf.Type
	if !r.IsPtr() {
		return false
	}
	r = r.Elem
	return r != nil && r.Sym == nil && r.Kind == Struct && !r.Funarg && len(r.Fields) == 0
}

// MethodFunc returns the function type of a method without its receiver.
func (u *Universe) MethodFunc(ft *Type) *Type {
	if ft.NumRecv() == 0 {
		return ft
	}
	if t, ok := u.methodFunc[ft]; ok {
		return t
	}
	t := u.NewFunc(nil, ft.Params.Fields, ft.Results.Fields)
	u.methodFunc[ft] = t
	return t
}

// AddMethod attaches method sf with signature ft, whose receiver tuple
// names the receiver type, to that type.
func (u *Universe) AddMethod(sf *symtab.Sym, ft *Type, local bool, line int) {
	pa := ft.RecvType()
	if pa == nil {
		u.Diag.Fatalf(line, "addmethod: missing receiver")
		return
	}
	f := MethType(pa)
	if f == nil {
		t := pa
		if t.IsPtr() {
			if t.Sym != nil {
				u.Diag.Errorf(line, "invalid receiver type %v (%v is a pointer type)", pa, t)
				return
			}
			t = t.Elem
		}
		switch {
		case t == nil || t.Kind == Forward:
			u.Diag.Errorf(line, "invalid receiver type %v", pa)
		case t.Sym == nil:
			u.Diag.Errorf(line, "invalid receiver type %v (%v is an unnamed type)", pa, t)
		case t.IsPtr():
			u.Diag.Errorf(line, "invalid receiver type %v (%v is a pointer type)", pa, t)
		case t.Kind == Interface:
			u.Diag.Errorf(line, "invalid receiver type %v (%v is an interface type)", pa, t)
		default:
			u.Diag.Errorf(line, "invalid receiver type %v", pa)
		}
		return
	}

	if local && !f.Local {
		u.Diag.Errorf(line, "cannot define new methods on non-local type %v", f)
		return
	}
	if f.Kind == Struct {
		for _, fld := range f.Fields {
			if fld.Sym == sf {
				u.Diag.Errorf(line, "type %v has both field and method named %s", f, sf)
				return
			}
		}
	}
	for _, m := range f.Methods {
		if m.Sym != sf {
			continue
		}
		if !Identical(m.Type, ft) {
			u.Diag.Errorf(line, "method redeclared: %v.%s\n\t%v\n\t%v", f, sf, m.Type, ft)
		}
		return
	}
	f.Methods = append(f.Methods, &Field{Sym: sf, Type: ft, Line: line})

	// promotions computed so far may have changed
	clear(u.promoted)
	clear(u.expanded)
}

// MethodSym returns the symbol of method nsym on receiver type t0: T.M for
// a value receiver, (*T).M for a pointer. iface marks the interface table
// entry of a receiver narrower than a pointer, which gets the ·i suffix.
func (u *Universe) MethodSym(nsym *symtab.Sym, t0 *Type, iface bool) *symtab.Sym {
	t := t0
	s := t.Sym
	if s == nil {
		if !t.IsPtr() || t.Elem == nil || t.Elem.Sym == nil {
			u.Diag.Errorf(t0.Line, "illegal receiver type: %v", t0)
			return nil
		}
		t = t.Elem
		s = t.Sym
	}
	if t != t0 && t0.Sym != nil {
		t0 = u.NewPtr(t)
	}

	suffix := ""
	if iface {
		u.Dowidth(t0)
		if t0.Width < int64(u.Arch.PtrSize) {
			suffix = "·i"
		}
	}
	var name string
	if t0.Sym == nil && t0.IsPtr() {
		name = "(*" + s.Name + ")." + nsym.Name + suffix
	} else {
		name = s.Name + "." + nsym.Name + suffix
	}
	return u.Session.PkgLookup(name, s.Pkg)
}

// Implements reports whether t satisfies iface. On failure it returns the
// first interface method not satisfied, the method of t with that name if
// one exists, and whether the only problem is a pointer receiver.
func (u *Universe) Implements(t, iface *Type) (ok bool, missing, have *Field, ptr bool) {
	if t == nil {
		return false, nil, nil, false
	}
	t0 := t
	if t.Kind == Interface {
		for _, im := range iface.Fields {
			found := false
			for _, tm := range t.Fields {
				if tm.Sym != im.Sym {
					continue
				}
				if !Identical(tm.Type, im.Type) {
					return false, im, tm, false
				}
				found = true
				break
			}
			if !found {
				return false, im, nil, false
			}
		}
		return true, nil, nil, false
	}

	t = MethType(t)
	if t != nil {
		u.ExpandMethods(t)
	}
	for _, im := range iface.Fields {
		imtype := u.MethodFunc(im.Type)
		tm, followptr := u.lookupMethod(im.Sym, t, false, t0.Line)
		if tm == nil || !Identical(u.MethodFunc(tm.Type), imtype) {
			if tm == nil {
				tm, _ = u.lookupMethod(im.Sym, t, true, t0.Line)
			}
			return false, im, tm, false
		}
		// a pointer method is not in the method set of a value unless
		// the value reaches it through an embedded pointer.
		rcvr := tm.Type.RecvType()
		if rcvr.IsPtr() && !t0.IsPtr() && !followptr && !IsIfaceMethod(tm.Type) {
			return false, im, nil, true
		}
	}
	return true, nil, nil, false
}
