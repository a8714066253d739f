package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented listing of fn to w.
func Dump(w io.Writer, fn *Func) {
	fmt.Fprintf(w, "%s\n", fn)
	if fn.Recv != nil {
		fmt.Fprintf(w, "  recv %s %v\n", fn.Recv, fn.Recv.T)
	}
	for _, p := range fn.Params {
		fmt.Fprintf(w, "  param %s %v\n", p, p.T)
	}
	for _, p := range fn.Results {
		fmt.Fprintf(w, "  result %s %v\n", p, p.T)
	}
	dumpList(w, fn.Body, 1)
}

// DumpStmt writes an indented listing of s to w.
func DumpStmt(w io.Writer, s Stmt) { dumpStmt(w, s, 0) }

func dumpList(w io.Writer, list []Stmt, depth int) {
	for _, s := range list {
		dumpStmt(w, s, depth)
	}
}

func dumpStmt(w io.Writer, s Stmt, depth int) {
	ind := strings.Repeat("  ", depth)
	b := s.stmtBase()
	if len(b.Init) > 0 {
		fmt.Fprintf(w, "%sinit:\n", ind)
		dumpList(w, b.Init, depth+1)
	}
	fmt.Fprintf(w, "%s%s (line %d)\n", ind, s, b.Line)
	switch n := s.(type) {
	case *Block:
		dumpList(w, n.List, depth+1)
	case *For:
		if n.Post != nil {
			fmt.Fprintf(w, "%s  post: %s\n", ind, n.Post)
		}
		dumpList(w, n.Body, depth+1)
	case *If:
		dumpList(w, n.Then, depth+1)
		if len(n.Else) > 0 {
			fmt.Fprintf(w, "%selse\n", ind)
			dumpList(w, n.Else, depth+1)
		}
	case *Switch:
		for _, c := range n.Cases {
			if len(c.List) == 0 {
				fmt.Fprintf(w, "%sdefault:\n", ind)
			} else {
				parts := make([]string, len(c.List))
				for i, e := range c.List {
					parts[i] = e.String()
				}
				fmt.Fprintf(w, "%scase %s:\n", ind, strings.Join(parts, ", "))
			}
			dumpList(w, c.Body, depth+1)
		}
	case *Select:
		for _, c := range n.Cases {
			if c.Comm == nil {
				fmt.Fprintf(w, "%sdefault:\n", ind)
			} else {
				fmt.Fprintf(w, "%scase %s:\n", ind, c.Comm)
			}
			dumpList(w, c.Body, depth+1)
		}
	}
}
