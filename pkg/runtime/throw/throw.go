// Package throw reports violated runtime invariants. A throw never
// returns.
package throw

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Handler is called with the message of a fatal error.
type Handler func(msg string)

var handler atomic.Pointer[Handler]

func init() {
	h := Handler(Exit)
	handler.Store(&h)
}

// Exit prints "fatal error: msg" to stderr and exits with status 2.
func Exit(msg string) {
	fmt.Fprintf(os.Stderr, "fatal error: %s\n", msg)
	os.Exit(2)
}

// Throw reports msg through the installed handler.
func Throw(msg string) {
	(*handler.Load())(msg)
	// handlers are not supposed to return
	panic("fatal error: " + msg)
}

// SetHandler installs h and returns a function restoring the previous
// handler.
func SetHandler(h Handler) (restore func()) {
	old := handler.Swap(&h)
	return func() { handler.Store(old) }
}

// Fatal is the panic value raised inside Catch.
type Fatal struct {
	Msg string
}

func (f Fatal) Error() string { return "fatal error: " + f.Msg }

// Catch runs fn with a handler that unwinds instead of exiting and
// returns the message of the first throw, or "" if fn returned normally.
func Catch(fn func()) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(Fatal)
			if !ok {
				panic(r)
			}
			msg = f.Msg
		}
	}()
	restore := SetHandler(func(m string) { panic(Fatal{Msg: m}) })
	defer restore()
	fn()
	return ""
}
