package types

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

type printMode uint8

const (
	modeShort printMode = iota // names qualified by package name, local package bare
	modeLong                   // names qualified by full import path
)

type printer struct {
	sb       strings.Builder
	mode     printMode
	hideRecv bool
	u        *Universe
}

func (t *Type) String() string {
	if t == nil {
		return "<T>"
	}
	p := &printer{mode: modeShort, u: t.u}
	p.typ(t)
	return p.sb.String()
}

// Long returns the fully qualified form of t.
func (u *Universe) Long(t *Type) string {
	p := &printer{mode: modeLong, u: u}
	p.typ(t)
	return p.sb.String()
}

// Signature returns the parameter and result lists of a func type, as
// printed after a method name.
func Signature(t *Type) string {
	p := &printer{mode: modeShort, u: t.u}
	p.signature(t)
	return p.sb.String()
}

func (p *printer) symName(t *Type) {
	s := t.Sym
	if s.Pkg == nil || s.Pkg.Name == "" {
		p.sb.WriteString(s.Name)
		return
	}
	switch p.mode {
	case modeLong:
		p.sb.WriteString(strconv.Quote(s.Pkg.Path))
		p.sb.WriteByte('.')
	default:
		if p.u == nil || s.Pkg != p.u.Session.Local {
			p.sb.WriteString(s.Pkg.Name)
			p.sb.WriteByte('.')
		}
	}
	p.sb.WriteString(s.Name)
}

// typ prints t. Named types print by name, which ends any cycle.
func (p *printer) typ(t *Type) {
	if t == nil {
		p.sb.WriteString("<T>")
		return
	}
	if t.Sym != nil {
		p.symName(t)
		return
	}
	switch t.Kind {
	case Ptr:
		p.sb.WriteByte('*')
		p.typ(t.Elem)
	case Array:
		if t.Bound >= 0 {
			fmt.Fprintf(&p.sb, "[%d]", t.Bound)
		} else {
			p.sb.WriteString("[]")
		}
		p.typ(t.Elem)
	case Chan:
		switch t.Dir {
		case Crecv:
			p.sb.WriteString("<-chan ")
		case Csend:
			p.sb.WriteString("chan<- ")
		default:
			p.sb.WriteString("chan ")
			if t.Elem != nil && t.Elem.Sym == nil && t.Elem.Kind == Chan && t.Elem.Dir == Crecv {
				p.sb.WriteByte('(')
				p.typ(t.Elem)
				p.sb.WriteByte(')')
				return
			}
		}
		p.typ(t.Elem)
	case Map:
		p.sb.WriteString("map[")
		p.typ(t.Key)
		p.sb.WriteByte(']')
		p.typ(t.Elem)
	case Func:
		p.sb.WriteString("func")
		if !p.hideRecv && t.NumRecv() > 0 && !IsIfaceMethod(t) {
			p.sb.WriteByte('(')
			p.typ(t.RecvType())
			p.sb.WriteString(") ")
		}
		p.signature(t)
	case Struct:
		if t.Funarg {
			p.tuple(t)
			return
		}
		p.sb.WriteString("struct {")
		for i, f := range t.Fields {
			if i > 0 {
				p.sb.WriteByte(';')
			}
			p.sb.WriteByte(' ')
			if f.Sym != nil && f.Embedded == 0 {
				p.sb.WriteString(f.Sym.Name)
				p.sb.WriteByte(' ')
			}
			p.typ(f.Type)
			if f.Note != nil {
				p.sb.WriteByte(' ')
				p.sb.WriteString(strconv.Quote(*f.Note))
			}
		}
		if len(t.Fields) > 0 {
			p.sb.WriteByte(' ')
		}
		p.sb.WriteByte('}')
	case Interface:
		p.sb.WriteString("interface {")
		for i, f := range t.Fields {
			if i > 0 {
				p.sb.WriteByte(';')
			}
			p.sb.WriteByte(' ')
			p.sb.WriteString(f.Sym.Name)
			p.signature(f.Type)
		}
		if len(t.Fields) > 0 {
			p.sb.WriteByte(' ')
		}
		p.sb.WriteByte('}')
	case Nil:
		p.sb.WriteString("nil")
	case Blank:
		p.sb.WriteString("_")
	default:
		p.sb.WriteString(t.Kind.String())
	}
}

func (p *printer) signature(t *Type) {
	p.tuple(t.Params)
	switch n := t.NumResults(); {
	case n == 0:
	case n == 1 && t.Results.Fields[0].Sym == nil:
		p.sb.WriteByte(' ')
		p.typ(t.Results.Fields[0].Type)
	default:
		p.sb.WriteByte(' ')
		p.tuple(t.Results)
	}
}

func (p *printer) tuple(t *Type) {
	p.sb.WriteByte('(')
	if t != nil {
		for i, f := range t.Fields {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			if f.Sym != nil && p.mode == modeShort {
				p.sb.WriteString(f.Sym.Name)
				p.sb.WriteByte(' ')
			}
			if f.IsDDD {
				p.sb.WriteString("...")
				p.typ(f.Type.Elem)
				continue
			}
			p.typ(f.Type)
		}
	}
	p.sb.WriteByte(')')
}

// Fingerprint identifies a type by the digest of its long printed form.
type Fingerprint [sha256.Size]byte

// Uint32 returns the first four bytes of the digest, the key stored in
// interface tables.
func (f Fingerprint) Uint32() uint32 { return binary.LittleEndian.Uint32(f[:4]) }

func (f Fingerprint) String() string { return fmt.Sprintf("%x", f[:8]) }

// Hash fingerprints t. Method types hash without their receiver so a
// method and the interface entry it satisfies agree.
func (u *Universe) Hash(t *Type) Fingerprint {
	p := &printer{mode: modeLong, hideRecv: true, u: u}
	p.typ(t)
	return sha256.Sum256([]byte(p.sb.String()))
}
