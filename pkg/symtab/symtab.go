package symtab

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gocore/pkg/diag"
)

// Pkg is an imported or local package.
type Pkg struct {
	Name     string
	Path     string
	Prefix   string // escaped path used in mangled names
	Direct   bool   // imported directly by the local package
	Exported bool   // already written to the export data
}

func (p *Pkg) String() string { return p.Name }

type SymFlags uint8

const (
	SymExport SymFlags = 1 << iota
	SymPackage
	SymUniq
	SymSiggen // method wrapper already generated
)

// Sym is an interned (name, package) pair.
type Sym struct {
	Name     string
	Pkg      *Pkg
	Def      any   // current definition in scope
	Block    int32 // block number of Def
	LastLine int   // line of Def
	Label    int   // label handle in the function being compiled, 0 for none
	Flags    SymFlags
}

func (s *Sym) String() string {
	if s == nil {
		return "<S>"
	}
	return s.Name
}

// Qualified returns pkg.name for symbols outside local.
func (s *Sym) Qualified(local *Pkg) string {
	if s.Pkg == nil || s.Pkg == local || s.Pkg.Name == "" {
		return s.Name
	}
	return s.Pkg.Name + "." + s.Name
}

// IsBlank reports whether s is the blank identifier.
func (s *Sym) IsBlank() bool { return s != nil && s.Name == "_" }

// Scope is one entry of the declaration stack. A block mark has an empty
// Name; any other entry records a declaration and the binding it hid.
type Scope struct {
	Name  string
	Pkg   *Pkg
	Line  int   // block start for marks, declaration line otherwise
	Block int32 // enclosing block number (marks) or block of the declaration
	Link  *Scope

	prevDef   any
	prevBlock int32
	prevLine  int
}

// IsBlock reports whether the entry marks the start of a block.
func (sc *Scope) IsBlock() bool { return sc.Name == "" }

func (sc *Scope) String() string {
	if sc.IsBlock() {
		return fmt.Sprintf("block@%d", sc.Line)
	}
	return fmt.Sprintf("%s@%d", sc.Name, sc.Line)
}

type symKey struct {
	name string
	pkg  *Pkg
}

// Session owns the interning table and declaration stack of one
// compilation.
type Session struct {
	syms  map[symKey]*Sym
	pkgs  map[string]*Pkg
	Local *Pkg

	// Builtin holds predeclared names; Runtime holds compiler helpers.
	Builtin *Pkg
	Runtime *Pkg

	dclstack *Scope
	block    int32
	blockgen int32

	Diag *diag.Sink
}

// NewSession returns a session compiling the package at localPath.
func NewSession(sink *diag.Sink, localPath string) *Session {
	s := &Session{
		syms: make(map[symKey]*Sym),
		pkgs: make(map[string]*Pkg),
		Diag: sink,
	}
	s.Local = s.MkPkg(localPath)
	s.Builtin = s.MkPkg("go.builtin")
	s.Builtin.Name = ""
	s.Runtime = s.MkPkg("runtime")
	s.blockgen = 1
	s.block = 1
	return s
}

// MkPkg returns the unique package for path.
func (s *Session) MkPkg(path string) *Pkg {
	if p, ok := s.pkgs[path]; ok {
		return p
	}
	name := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		name = path[i+1:]
	}
	p := &Pkg{Name: name, Path: path, Prefix: pathToPrefix(path)}
	s.pkgs[path] = p
	return p
}

// pathToPrefix escapes characters that cannot appear in a symbol name.
func pathToPrefix(path string) string {
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c <= ' ' || c == '.' || c == '%' || c == '"' || c >= 0x7f {
			fmt.Fprintf(&b, "%%%02x", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Lookup interns name in the local package.
func (s *Session) Lookup(name string) *Sym {
	return s.PkgLookup(name, s.Local)
}

// PkgLookup interns (name, pkg), creating the symbol on first use.
func (s *Session) PkgLookup(name string, pkg *Pkg) *Sym {
	k := symKey{name, pkg}
	if sym, ok := s.syms[k]; ok {
		return sym
	}
	sym := &Sym{Name: name, Pkg: pkg}
	s.syms[k] = sym
	return sym
}

// RestrictLookup is PkgLookup for a qualified reference pkg.name.
func (s *Session) RestrictLookup(name string, pkg *Pkg, line int) *Sym {
	if !Exported(name) && pkg != s.Local {
		s.Diag.Errorf(line, "cannot refer to unexported name %s.%s", pkg.Name, name)
	}
	return s.PkgLookup(name, pkg)
}

// Exported reports whether name starts with an upper-case letter.
func Exported(name string) bool {
	if name == "" {
		return false
	}
	if name[0] < utf8.RuneSelf {
		return 'A' <= name[0] && name[0] <= 'Z'
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// symsOf returns the symbols of pkg sorted by name.
func (s *Session) symsOf(pkg *Pkg) []*Sym {
	var out []*Sym
	for k, sym := range s.syms {
		if k.pkg == pkg {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ImportDot makes every exported definition of opkg visible in the local
// package, as for import . "path".
func (s *Session) ImportDot(opkg *Pkg, line int) int {
	n := 0
	for _, sym := range s.symsOf(opkg) {
		if sym.Def == nil {
			continue
		}
		if !Exported(sym.Name) || strings.ContainsRune(sym.Name, '·') {
			continue
		}
		s1 := s.Lookup(sym.Name)
		if s1.Def != nil {
			s.Redeclare(s1, fmt.Sprintf("during import %q", opkg.Path), line)
			continue
		}
		s1.Def = sym.Def
		s1.Block = sym.Block
		n++
	}
	if n == 0 {
		s.Diag.Errorf(line, "imported and not used: %q", opkg.Path)
	}
	return n
}

// Redeclare reports a duplicate declaration of sym.
func (s *Session) Redeclare(sym *Sym, where string, line int) {
	if sym.LastLine == 0 {
		s.Diag.Errorf(line, "%s redeclared %s\n\tprevious declaration during import", sym, where)
		return
	}
	s.Diag.Errorf(line, "%s redeclared %s\n\tprevious declaration at %s", sym, where, s.Diag.Pos(sym.LastLine))
}

// Block returns the current block number.
func (s *Session) Block() int32 { return s.block }

// Scope returns the current declaration stack.
func (s *Session) Scope() *Scope { return s.dclstack }

// MarkDcl opens a new block at line.
func (s *Session) MarkDcl(line int) {
	s.dclstack = &Scope{Line: line, Block: s.block, Link: s.dclstack}
	s.blockgen++
	s.block = s.blockgen
}

// Declare binds def to sym. Function-local declarations are pushed so
// PopDcl can restore the binding they hide.
func (s *Session) Declare(sym *Sym, def any, line int, local bool) {
	if sym.IsBlank() {
		return
	}
	if local {
		s.dclstack = &Scope{
			Name:      sym.Name,
			Pkg:       sym.Pkg,
			Line:      line,
			Block:     s.block,
			Link:      s.dclstack,
			prevDef:   sym.Def,
			prevBlock: sym.Block,
			prevLine:  sym.LastLine,
		}
	}
	if sym.Def != nil && sym.Block == s.block {
		s.Redeclare(sym, "in this block", line)
	}
	sym.Block = s.block
	sym.LastLine = line
	sym.Def = def
}

// PopDcl restores every binding made since the last MarkDcl.
func (s *Session) PopDcl() {
	d := s.dclstack
	for ; d != nil && !d.IsBlock(); d = d.Link {
		sym := s.PkgLookup(d.Name, d.Pkg)
		sym.Def = d.prevDef
		sym.Block = d.prevBlock
		sym.LastLine = d.prevLine
	}
	if d == nil {
		s.Diag.Fatalf(0, "popdcl: no mark")
		return
	}
	s.dclstack = d.Link
	s.block = d.Block
}

// PopToDcl pops the current block and opens a fresh one. Marks are never
// reused because goto checks identify blocks by their mark.
func (s *Session) PopToDcl(line int) {
	s.PopDcl()
	s.MarkDcl(line)
}

// TestDclStack reports marks left on the stack at the end of a file.
func (s *Session) TestDclStack() {
	for d := s.dclstack; d != nil; d = d.Link {
		if d.IsBlock() {
			s.Diag.Errorf(d.Line, "mark left on the stack")
		}
	}
}

// String returns a deterministically ordered dump of the table.
func (s *Session) String() string {
	var sb strings.Builder
	paths := make([]string, 0, len(s.pkgs))
	for p := range s.pkgs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, path := range paths {
		pkg := s.pkgs[path]
		syms := s.symsOf(pkg)
		if len(syms) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "Package %q:\n", path)
		for _, sym := range syms {
			def := "-"
			if sym.Def != nil {
				def = fmt.Sprintf("%v", sym.Def)
			}
			fmt.Fprintf(&sb, "  %-20s  Block: %d Line: %d Def: %s\n", sym.Name, sym.Block, sym.LastLine, def)
		}
	}
	if s.dclstack != nil {
		sb.WriteString("Declaration stack:\n")
		for d := s.dclstack; d != nil; d = d.Link {
			fmt.Fprintf(&sb, "  %s\n", d)
		}
	}
	return sb.String()
}
