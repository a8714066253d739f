// Package ir defines the typed syntax trees the statement generator and
// the wrapper generator work on.
package ir

import (
	"fmt"
	"strconv"
	"strings"

	"gocore/pkg/symtab"
	"gocore/pkg/types"
)

//  Expression nodes

// ExprBase is embedded by every expression.
type ExprBase struct {
	T      *types.Type
	Line   int
	Init   []Stmt // statements run before the expression is evaluated
	Ullman int    // registers needed, see UllmanCalc
	Orig   Expr   // the expression as written, for messages
}

func (b *ExprBase) base() *ExprBase { return b }

// Type returns the expression's type.
func (b *ExprBase) Type() *types.Type { return b.T }

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	base() *ExprBase
	Type() *types.Type
	String() string
}

// Base returns the common fields of e.
func Base(e Expr) *ExprBase { return e.base() }

// Class is the storage class of a name.
type Class uint8

const (
	ClassNone Class = iota
	ClassExtern
	ClassAuto
	ClassParam
	ClassParamOut
	ClassFunc
)

var classNames = [...]string{"none", "extern", "auto", "param", "paramout", "func"}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "class?"
}

// Name is a reference to a variable or function.
//
//	x = 1
//	^  Name{Sym: x, Class: ClassAuto}
type Name struct {
	ExprBase
	Sym    *symtab.Sym
	Class  Class
	Heap   bool  // escapes; accessed through a heap pointer
	Offset int64 // frame offset of autos and params
	Used   bool
}

func (*Name) exprNode()        {}
func (n *Name) String() string { return n.Sym.String() }

// NewName returns a name of the given class.
func NewName(sym *symtab.Sym, t *types.Type, class Class) *Name {
	n := &Name{Sym: sym, Class: class}
	n.T = t
	n.Line = sym.LastLine
	return n
}

type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstComplex
	ConstBool
	ConstString
	ConstNil
)

// Literal is a constant. Val holds an int64, float64, complex128, bool,
// string or nil according to Kind.
type Literal struct {
	ExprBase
	Kind ConstKind
	Val  any
}

func (*Literal) exprNode() {}
func (l *Literal) String() string {
	switch l.Kind {
	case ConstString:
		return strconv.Quote(l.Val.(string))
	case ConstNil:
		return "nil"
	}
	return fmt.Sprint(l.Val)
}

// NewLiteral returns a constant of type t.
func NewLiteral(t *types.Type, kind ConstKind, val any) *Literal {
	l := &Literal{Kind: kind, Val: val}
	l.T = t
	return l
}

// Op is an operator of a Unary or Binary expression.
type Op uint8

const (
	OpXxx Op = iota

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpAndNot
	OpLsh
	OpRsh

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpAndAnd
	OpOrOr

	OpNeg
	OpPlus
	OpNot
	OpCom
	OpInd  // *x
	OpAddr // &x
	OpRecv // <-x
)

var opNames = [...]string{
	OpXxx:    "?",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpAnd:    "&",
	OpOr:     "|",
	OpXor:    "^",
	OpAndNot: "&^",
	OpLsh:    "<<",
	OpRsh:    ">>",
	OpEq:     "==",
	OpNe:     "!=",
	OpLt:     "<",
	OpLe:     "<=",
	OpGt:     ">",
	OpGe:     ">=",
	OpAndAnd: "&&",
	OpOrOr:   "||",
	OpNeg:    "-",
	OpPlus:   "+",
	OpNot:    "!",
	OpCom:    "^",
	OpInd:    "*",
	OpAddr:   "&",
	OpRecv:   "<-",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "op?"
}

// IsArith reports whether op is a pure arithmetic operator.
func (op Op) IsArith() bool { return op >= OpAdd && op <= OpRsh }

// IsCompare reports whether op is a comparison.
func (op Op) IsCompare() bool { return op >= OpEq && op <= OpGe }

// Negate returns the comparison with the opposite result.
func (op Op) Negate() Op {
	switch op {
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	case OpLt:
		return OpGe
	case OpGe:
		return OpLt
	case OpGt:
		return OpLe
	case OpLe:
		return OpGt
	}
	return OpXxx
}

// Unary is Op X.
type Unary struct {
	ExprBase
	Op Op
	X  Expr
}

func (*Unary) exprNode()        {}
func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.X) }

// Binary is X Op Y.
//
//	x + 1
//	^ ^ ^
//	| | Y
//	| Op
//	X
type Binary struct {
	ExprBase
	Op   Op
	X, Y Expr
}

func (*Binary) exprNode() {}
func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.X, b.Op, b.Y)
}

// Selector is X.Sel, a field or a method value. Ptr is set when X is a
// pointer dereferenced implicitly.
type Selector struct {
	ExprBase
	X      Expr
	Sel    *symtab.Sym
	Field  *types.Field
	Ptr    bool
	Method bool
}

func (*Selector) exprNode()        {}
func (s *Selector) String() string { return fmt.Sprintf("%s.%s", s.X, s.Sel) }

type CallKind uint8

const (
	CallFunc  CallKind = iota // f(args)
	CallMeth                  // x.M(args) on a concrete receiver
	CallInter                 // x.M(args) on an interface
)

// Call is Fun(Args). DDD marks a final argument spread with ...
type Call struct {
	ExprBase
	Kind CallKind
	Fun  Expr
	Args []Expr
	DDD  bool
}

func (*Call) exprNode() {}
func (c *Call) String() string {
	var sb strings.Builder
	sb.WriteString(c.Fun.String())
	sb.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	if c.DDD {
		sb.WriteString("...")
	}
	sb.WriteByte(')')
	return sb.String()
}

// Index is X[Index].
type Index struct {
	ExprBase
	X     Expr
	Index Expr
}

func (*Index) exprNode()        {}
func (i *Index) String() string { return fmt.Sprintf("%s[%s]", i.X, i.Index) }

// Conv is T(X), recording the conversion the types package chose.
type Conv struct {
	ExprBase
	Op types.Op
	X  Expr
}

func (*Conv) exprNode()        {}
func (c *Conv) String() string { return fmt.Sprintf("%v(%s)", c.T, c.X) }
