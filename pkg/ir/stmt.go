package ir

import (
	"fmt"
	"strings"

	"gocore/pkg/symtab"
	"gocore/pkg/types"
)

//  Statement nodes

// StmtBase is embedded by every statement.
type StmtBase struct {
	Line int
	Init []Stmt
}

func (b *StmtBase) stmtBase() *StmtBase { return b }

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
	stmtBase() *StmtBase
	String() string
}

// SBase returns the common fields of s.
func SBase(s Stmt) *StmtBase { return s.stmtBase() }

// Block is a braced statement list.
type Block struct {
	StmtBase
	List []Stmt
}

func (*Block) stmtNode()        {}
func (b *Block) String() string { return fmt.Sprintf("{ %d stmts }", len(b.List)) }

// LabelStmt defines Label. Defn is the for, switch or select statement
// that follows it, if any, so labeled break and continue can find it.
// Scope is the declaration stack where the label appears.
type LabelStmt struct {
	StmtBase
	Label *symtab.Sym
	Defn  Stmt
	Scope *symtab.Scope
}

func (*LabelStmt) stmtNode()        {}
func (l *LabelStmt) String() string { return l.Label.String() + ":" }

// Goto jumps to Label. Scope is the declaration stack at the goto.
type Goto struct {
	StmtBase
	Label *symtab.Sym
	Scope *symtab.Scope
}

func (*Goto) stmtNode()        {}
func (g *Goto) String() string { return "goto " + g.Label.String() }

// Break leaves the innermost or the labeled for, switch or select.
type Break struct {
	StmtBase
	Label *symtab.Sym
}

func (*Break) stmtNode() {}
func (b *Break) String() string {
	if b.Label != nil {
		return "break " + b.Label.String()
	}
	return "break"
}

// Continue starts the next iteration of the innermost or labeled loop.
type Continue struct {
	StmtBase
	Label *symtab.Sym
}

func (*Continue) stmtNode() {}
func (c *Continue) String() string {
	if c.Label != nil {
		return "continue " + c.Label.String()
	}
	return "continue"
}

// For is a loop. Init runs once, Cond is tested before every iteration
// and Post runs after every iteration.
//
//	for i := 0; i < n; i++ { ... }
//	    ^^^^^^  ^^^^^  ^^^
//	    Init    Cond   Post
type For struct {
	StmtBase
	Cond Expr
	Post Stmt
	Body []Stmt
}

func (*For) stmtNode() {}
func (f *For) String() string {
	cond := ""
	if f.Cond != nil {
		cond = f.Cond.String()
	}
	return fmt.Sprintf("for %s { %d stmts }", cond, len(f.Body))
}

// If is if Cond { Then } else { Else }.
type If struct {
	StmtBase
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (*If) stmtNode()        {}
func (i *If) String() string { return fmt.Sprintf("if %s", i.Cond) }

// Case is one clause of a switch. An empty List is the default clause.
type Case struct {
	Line        int
	List        []Expr
	Body        []Stmt
	Fallthrough bool
}

// Switch is an expression switch. A nil Tag switches on true.
type Switch struct {
	StmtBase
	Tag   Expr
	Cases []*Case
}

func (*Switch) stmtNode() {}
func (s *Switch) String() string {
	if s.Tag == nil {
		return "switch"
	}
	return "switch " + s.Tag.String()
}

// CommCase is one clause of a select. A nil Comm is the default clause.
type CommCase struct {
	Line int
	Comm Stmt
	Body []Stmt
}

// Select waits on a set of channel operations.
type Select struct {
	StmtBase
	Cases []*CommCase
}

func (*Select) stmtNode()        {}
func (s *Select) String() string { return fmt.Sprintf("select { %d cases }", len(s.Cases)) }

// Assign is X = Y. A nil Y assigns the zero value. Def marks :=.
type Assign struct {
	StmtBase
	X, Y Expr
	Def  bool
}

func (*Assign) stmtNode() {}
func (a *Assign) String() string {
	if a.Y == nil {
		return fmt.Sprintf("%s = <zero>", a.X)
	}
	return fmt.Sprintf("%s = %s", a.X, a.Y)
}

// AssignOp is X Op= Y.
type AssignOp struct {
	StmtBase
	Op   Op
	X, Y Expr
}

func (*AssignOp) stmtNode()        {}
func (a *AssignOp) String() string { return fmt.Sprintf("%s %s= %s", a.X, a.Op, a.Y) }

// Decl declares the local variable Name.
type Decl struct {
	StmtBase
	Name *Name
}

func (*Decl) stmtNode()        {}
func (d *Decl) String() string { return fmt.Sprintf("var %s %v", d.Name, d.Name.T) }

// ExprStmt evaluates X for its side effects.
type ExprStmt struct {
	StmtBase
	X Expr
}

func (*ExprStmt) stmtNode()        {}
func (e *ExprStmt) String() string { return e.X.String() }

// Return returns Results, or the named results when Results is empty.
type Return struct {
	StmtBase
	Results []Expr
}

func (*Return) stmtNode() {}
func (r *Return) String() string {
	parts := make([]string, len(r.Results))
	for i, e := range r.Results {
		parts[i] = e.String()
	}
	return strings.TrimSpace("return " + strings.Join(parts, ", "))
}

// Go starts Call in a new goroutine.
type Go struct {
	StmtBase
	Call *Call
}

func (*Go) stmtNode()        {}
func (g *Go) String() string { return "go " + g.Call.String() }

// Defer runs Call when the function returns.
type Defer struct {
	StmtBase
	Call *Call
}

func (*Defer) stmtNode()        {}
func (d *Defer) String() string { return "defer " + d.Call.String() }

// Empty is a statement that does nothing.
type Empty struct {
	StmtBase
}

func (*Empty) stmtNode()      {}
func (*Empty) String() string { return ";" }

// Func is a function or method declaration.
type Func struct {
	Sym     *symtab.Sym
	Type    *types.Type
	Recv    *Name
	Params  []*Name
	Results []*Name
	Body    []Stmt
	Dcl     []*Name // params, results and automatics
	Line    int

	Wrapper bool // synthesized, not written by the user
	DupOK   bool // may be defined in several objects
}

func (f *Func) String() string { return fmt.Sprintf("func %s %v", f.Sym, f.Type) }
