package gen

import (
	"fmt"
	"strings"

	"gocore/pkg/ir"
)

// PC indexes an instruction in a function's Prog list. Jump targets are
// PCs; NoPC marks a jump not patched yet.
type PC int

const NoPC PC = -1

// As is an instruction opcode.
type As uint8

const (
	ANOP As = iota
	ATEXT
	AJMP
	ABRANCH // conditional jump, see Prog.Cond
	AMOV
	AOP // arithmetic, see Prog.Cond
	ACONV
	ACLEAR
	ACALL
	ACALLINTER
	AGO
	ADEFER
	ARET
	ANEW
	AUSED
	ACHECKNIL
	ASELECT
	ACASE
)

var asNames = [...]string{
	ANOP:       "NOP",
	ATEXT:      "TEXT",
	AJMP:       "JMP",
	ABRANCH:    "B",
	AMOV:       "MOV",
	AOP:        "OP",
	ACONV:      "CONV",
	ACLEAR:     "CLEAR",
	ACALL:      "CALL",
	ACALLINTER: "CALLINTER",
	AGO:        "GO",
	ADEFER:     "DEFER",
	ARET:       "RET",
	ANEW:       "NEW",
	AUSED:      "USED",
	ACHECKNIL:  "CHECKNIL",
	ASELECT:    "SELECT",
	ACASE:      "CASE",
}

func (a As) String() string {
	if int(a) < len(asNames) {
		return asNames[a]
	}
	return fmt.Sprintf("As(%d)", uint8(a))
}

// Prog is one instruction.
//
//	ABRANCH with Cond a comparison jumps when From Cond Reg holds,
//	with Cond OpXxx when From is true and with OpNot when it is false.
//	AOP computes To = From Cond Reg, or To = Cond From for unary Cond.
type Prog struct {
	As     As
	Line   int
	Cond   ir.Op
	From   string
	Reg    string
	To     string
	Target PC
}

func (p *Prog) IsJump() bool {
	return p.As == AJMP || p.As == ABRANCH || p.As == ACASE
}

var opMnemonic = map[ir.Op]string{
	ir.OpAdd:    "ADD",
	ir.OpSub:    "SUB",
	ir.OpMul:    "MUL",
	ir.OpDiv:    "DIV",
	ir.OpMod:    "MOD",
	ir.OpAnd:    "AND",
	ir.OpOr:     "OR",
	ir.OpXor:    "XOR",
	ir.OpAndNot: "ANDNOT",
	ir.OpLsh:    "LSH",
	ir.OpRsh:    "RSH",
	ir.OpEq:     "EQ",
	ir.OpNe:     "NE",
	ir.OpLt:     "LT",
	ir.OpLe:     "LE",
	ir.OpGt:     "GT",
	ir.OpGe:     "GE",
	ir.OpNeg:    "NEG",
	ir.OpNot:    "NOT",
	ir.OpCom:    "COM",
	ir.OpPlus:   "PLUS",
}

func (p *Prog) String() string {
	target := func() string {
		if p.Target == NoPC {
			return "L?"
		}
		return fmt.Sprintf("L%d", p.Target)
	}
	switch p.As {
	case ATEXT:
		return fmt.Sprintf("TEXT %s(SB), %s", p.From, p.To)
	case AJMP:
		return "JMP " + target()
	case ABRANCH:
		switch p.Cond {
		case ir.OpXxx:
			return fmt.Sprintf("JT %s, %s", p.From, target())
		case ir.OpNot:
			return fmt.Sprintf("JF %s, %s", p.From, target())
		}
		return fmt.Sprintf("J%s %s, %s, %s", opMnemonic[p.Cond], p.From, p.Reg, target())
	case ACASE:
		return fmt.Sprintf("CASE %s, %s", p.From, target())
	case AOP:
		if p.Reg == "" {
			return fmt.Sprintf("%s %s, %s", opMnemonic[p.Cond], p.From, p.To)
		}
		return fmt.Sprintf("%s %s, %s, %s", opMnemonic[p.Cond], p.From, p.Reg, p.To)
	}
	var sb strings.Builder
	sb.WriteString(p.As.String())
	ops := make([]string, 0, 2)
	for _, s := range []string{p.From, p.To} {
		if s != "" {
			ops = append(ops, s)
		}
	}
	if len(ops) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(ops, ", "))
	}
	return sb.String()
}

// Text is the generated code of one function.
type Text struct {
	Name  string
	Progs []*Prog
	Frame int64 // bytes of automatics below the frame pointer
	Args  int64 // bytes of arguments and results
	Dcl   []*ir.Name
}

// String renders the instructions as assembly, one per line, with a
// label before every jump target.
func (t *Text) String() string {
	targets := make(map[PC]bool)
	for _, p := range t.Progs {
		if p.IsJump() && p.Target != NoPC {
			targets[p.Target] = true
		}
	}
	var sb strings.Builder
	for i, p := range t.Progs {
		if targets[PC(i)] {
			fmt.Fprintf(&sb, "L%d:\n", i)
		}
		fmt.Fprintf(&sb, "    %s\n", p)
	}
	return sb.String()
}
