package types

import (
	"sort"
	"strings"

	"gocore/pkg/symtab"
)

// MaxDotDepth bounds the embedding depth searched for a selector.
const MaxDotDepth = 10

// DotPath is the result of a selector search at one depth.
type DotPath struct {
	Count int      // number of distinct matches at this depth
	Path  []*Field // embedded fields walked, outermost first
	Field *Field   // the field or method found
}

func symMatch(a, b *symtab.Sym, ignoreCase bool) bool {
	if a == b {
		return true
	}
	return ignoreCase && a != nil && b != nil && a.Pkg == b.Pkg && strings.EqualFold(a.Name, b.Name)
}

// lookdot0 counts the members of t named s declared at depth zero:
// struct fields or interface methods, and methods declared on t.
func lookdot0(s *symtab.Sym, t *Type, ignoreCase bool) (int, *Field) {
	u := t
	if u.IsPtr() {
		u = u.Elem
	}
	c := 0
	var found *Field
	if u.Kind == Struct || u.Kind == Interface {
		for _, f := range u.Fields {
			if symMatch(f.Sym, s, ignoreCase) {
				if c == 0 {
					found = f
				}
				c++
			}
		}
	}
	if mt := MethType(t); mt != nil {
		for _, f := range mt.Methods {
			if f.Embedded == 0 && symMatch(f.Sym, s, ignoreCase) {
				if c == 0 {
					found = f
				}
				c++
			}
		}
	}
	return c, found
}

// DotSearch looks for s exactly depth embedded fields below t.
func DotSearch(s *symtab.Sym, t *Type, depth int, ignoreCase bool) DotPath {
	return dotSearch(s, t, depth, ignoreCase, make(map[int32]bool))
}

func dotSearch(s *symtab.Sym, t *Type, d int, ignoreCase bool, visiting map[int32]bool) DotPath {
	if visiting[t.ID] {
		return DotPath{}
	}
	visiting[t.ID] = true
	defer delete(visiting, t.ID)

	if d == 0 {
		c, f := lookdot0(s, t, ignoreCase)
		return DotPath{Count: c, Field: f}
	}

	var res DotPath
	u := t
	if u.IsPtr() {
		u = u.Elem
	}
	if u.Kind != Struct && u.Kind != Interface {
		return res
	}
	for _, f := range u.Fields {
		if f.Embedded == 0 || f.Sym == nil {
			continue
		}
		sub := dotSearch(s, f.Type, d-1, ignoreCase, visiting)
		if sub.Count != 0 && res.Count == 0 {
			res.Path = append([]*Field{f}, sub.Path...)
			res.Field = sub.Field
		}
		res.Count += sub.Count
	}
	return res
}

// LookupDot finds s in t at the shallowest depth where it occurs. The
// returned Count is 0 when s is not found and more than 1 when the
// reference is ambiguous at that depth.
func LookupDot(t *Type, s *symtab.Sym) DotPath {
	for d := 0; d < MaxDotDepth; d++ {
		r := DotSearch(s, t, d, false)
		if r.Count > 0 {
			return r
		}
	}
	return DotPath{}
}

// lookupMethod finds the method s of t as required by an interface. It
// reports whether the embedding path went through a pointer.
func (u *Universe) lookupMethod(s *symtab.Sym, t *Type, ignoreCase bool, line int) (*Field, bool) {
	if t == nil {
		return nil, false
	}
	for d := 0; d < MaxDotDepth; d++ {
		r := DotSearch(s, t, d, ignoreCase)
		if r.Count > 1 {
			u.Diag.Errorf(line, "%v.%s is ambiguous", t, s)
			return nil, false
		}
		if r.Count == 1 {
			followptr := false
			for _, f := range r.Path {
				if f.Type.IsPtr() {
					followptr = true
					break
				}
			}
			m := r.Field
			if m.Type.Kind != Func || m.Type.NumRecv() == 0 {
				u.Diag.Errorf(line, "%v.%s is a field, not a method", t, s)
				return nil, followptr
			}
			return m, followptr
		}
	}
	return nil, false
}

func crossesPtr(path []*Field) bool {
	for _, f := range path {
		if f.Type.IsPtr() {
			return true
		}
	}
	return false
}

// Promotion is a method reachable from a type through embedded fields.
type Promotion struct {
	Method    *Field   // the method as declared on the embedded type
	Path      []*Field // embedded fields from the outer type to the receiver
	FollowPtr bool     // Path crosses a pointer
}

type candidate struct {
	sym       *symtab.Sym
	followptr bool
}

// expand0 collects the methods of t not yet seen.
func (u *Universe) expand0(t *Type, followptr bool, uniq map[*symtab.Sym]bool, out *[]candidate) {
	if t.IsPtr() {
		t = t.Elem
		followptr = true
	}
	var ms []*Field
	if t.Kind == Interface {
		ms = t.Fields
	} else if mt := MethType(t); mt != nil {
		ms = mt.Methods
	}
	for _, f := range ms {
		if !symtab.Exported(f.Sym.Name) && f.Sym.Pkg != u.Session.Local {
			continue
		}
		if uniq[f.Sym] {
			continue
		}
		uniq[f.Sym] = true
		*out = append(*out, candidate{f.Sym, followptr})
	}
}

func (u *Universe) expand1(t *Type, d int, top, followptr bool, visiting map[int32]bool, uniq map[*symtab.Sym]bool, out *[]candidate) {
	if visiting[t.ID] || d == 0 {
		return
	}
	visiting[t.ID] = true
	defer delete(visiting, t.ID)

	if !top {
		u.expand0(t, followptr, uniq, out)
	}
	v := t
	if v.IsPtr() {
		followptr = true
		v = v.Elem
	}
	if v.Kind != Struct && v.Kind != Interface {
		return
	}
	for _, f := range v.Fields {
		if f.Embedded == 0 || f.Sym == nil {
			continue
		}
		u.expand1(f.Type, d-1, false, followptr, visiting, uniq, out)
	}
}

// ExpandMethods computes the methods promoted to the named type t
// through its embedded fields. A method is promoted only when it is
// reachable by exactly one path at the shallowest depth where it occurs.
func (u *Universe) ExpandMethods(t *Type) []Promotion {
	if t == nil || t.Sym == nil {
		return nil
	}
	if ps, ok := u.promoted[t]; ok {
		return ps
	}
	uniq := make(map[*symtab.Sym]bool)
	for _, f := range t.Methods {
		uniq[f.Sym] = true
	}
	var cands []candidate
	u.expand1(t, MaxDotDepth-1, true, false, make(map[int32]bool), uniq, &cands)

	var ps []Promotion
	var xmethod []*Field
	for _, c := range cands {
		for d := 0; d < MaxDotDepth; d++ {
			r := DotSearch(c.sym, t, d, false)
			if r.Count == 0 {
				continue
			}
			if r.Count == 1 && r.Field.Type.Kind == Func && r.Field.Type.NumRecv() > 0 {
				fp := c.followptr || crossesPtr(r.Path)
				emb := uint8(1)
				if fp {
					emb = 2
				}
				ps = append(ps, Promotion{Method: r.Field, Path: r.Path, FollowPtr: fp})
				xmethod = append(xmethod, &Field{
					Sym:      r.Field.Sym,
					Type:     r.Field.Type,
					Embedded: emb,
					Line:     r.Field.Line,
				})
			}
			break
		}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Method.Sym.Name < ps[j].Method.Sym.Name })
	sort.SliceStable(xmethod, func(i, j int) bool { return xmethod[i].Sym.Name < xmethod[j].Sym.Name })
	u.promoted[t] = ps
	u.expanded[t] = append(append([]*Field(nil), t.Methods...), xmethod...)
	return ps
}

// MethodSet returns the declared and promoted methods of the named
// type t. Promoted entries carry Embedded 1 or 2.
func (u *Universe) MethodSet(t *Type) []*Field {
	if t == nil || t.Sym == nil {
		return nil
	}
	u.ExpandMethods(t)
	return u.expanded[t]
}
