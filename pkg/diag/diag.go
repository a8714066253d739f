// Package diag collects compiler diagnostics and prints them sorted by
// line, dropping exact duplicates.
package diag

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"gocore/pkg/config"
)

// MaxErrors is the number of errors after which compilation stops.
const MaxErrors = 10

type entry struct {
	line int
	seq  int
	msg  string
}

// PosFunc formats a line number for a message prefix.
type PosFunc func(line int) string

func defaultPos(line int) string { return fmt.Sprintf("line %d", line) }

// Sink is the process-wide error buffer of one compilation session.
type Sink struct {
	out     io.Writer
	flags   config.Flags
	pos     PosFunc
	exit    func(code int)
	errs    []entry
	nerrors int
}

type Option func(*Sink)

// WithExit replaces os.Exit. The function must not return normally.
func WithExit(fn func(code int)) Option { return func(s *Sink) { s.exit = fn } }

func WithPos(fn PosFunc) Option { return func(s *Sink) { s.pos = fn } }

func WithFlags(f config.Flags) Option { return func(s *Sink) { s.flags = f } }

// New returns a sink writing to w (os.Stderr when nil).
func New(w io.Writer, opts ...Option) *Sink {
	if w == nil {
		w = os.Stderr
	}
	s := &Sink{out: w, pos: defaultPos, exit: os.Exit}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Writer is where flushed messages and debug dumps go.
func (s *Sink) Writer() io.Writer { return s.out }

func (s *Sink) Flags() config.Flags { return s.flags }

// Errors returns the number of errors reported so far.
func (s *Sink) Errors() int { return s.nerrors }

// Pos formats line the way message prefixes do.
func (s *Sink) Pos(line int) string { return s.pos(line) }

func (s *Sink) add(line int, format string, args []any) {
	msg := fmt.Sprintf("%s: %s\n", s.pos(line), fmt.Sprintf(format, args...))
	s.errs = append(s.errs, entry{line: line, seq: len(s.errs), msg: msg})
}

// Flush prints every buffered message in line order, first occurrence
// first, skipping a message identical to the one before it.
func (s *Sink) Flush() {
	if len(s.errs) == 0 {
		return
	}
	sort.SliceStable(s.errs, func(i, j int) bool {
		a, b := s.errs[i], s.errs[j]
		if a.line != b.line {
			return a.line < b.line
		}
		if a.seq != b.seq {
			return a.seq < b.seq
		}
		return a.msg < b.msg
	})
	for i, e := range s.errs {
		if i == 0 || e.msg != s.errs[i-1].msg {
			fmt.Fprint(s.out, e.msg)
		}
	}
	s.errs = s.errs[:0]
}

func (s *Sink) crash() {
	if s.flags.CrashOnError {
		s.Flush()
		panic(errors.New("diag: crash on error"))
	}
}

// Errorf records a user-facing error at line. Once MaxErrors have been
// reported the sink flushes and exits unless the e flag is set.
func (s *Sink) Errorf(line int, format string, args ...any) {
	s.add(line, format, args)
	s.crash()
	s.nerrors++
	if s.nerrors >= MaxErrors && !s.flags.NoErrorLimit {
		s.Flush()
		fmt.Fprintf(s.out, "%s: too many errors\n", s.pos(line))
		s.Exit()
	}
}

// Warnf records a message that does not count as an error.
func (s *Sink) Warnf(line int, format string, args ...any) {
	s.add(line, format, args)
	s.crash()
}

// Fatalf reports an internal compiler error and terminates.
func (s *Sink) Fatalf(line int, format string, args ...any) {
	s.Internal(line, errors.Errorf(format, args...))
}

// Internal reports err as an internal compiler error and terminates.
// With the h flag the error's stack is printed too.
func (s *Sink) Internal(line int, err error) {
	s.Flush()
	if s.flags.CrashOnError {
		fmt.Fprintf(s.out, "%s: internal compiler error: %+v\n", s.pos(line), err)
	} else {
		fmt.Fprintf(s.out, "%s: internal compiler error: %v\n", s.pos(line), err)
	}
	s.Exit()
}

// Exit flushes and terminates with status 1.
func (s *Sink) Exit() {
	s.Flush()
	s.exit(1)
}
