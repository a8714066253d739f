package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Flags are the single-letter debug switches understood by the compiler
// and runtime packages.
type Flags struct {
	NoErrorLimit bool // e: keep going after 10 errors
	CrashOnError bool // h: panic with a stack on the first error
	DumpGen      bool // g: dump statements as they are lowered
	DumpWrappers bool // r: trace wrapper generation
	WarnLineZero bool // K: warn when a node has no line
}

var letters = map[byte]func(*Flags){
	'e': func(f *Flags) { f.NoErrorLimit = true },
	'h': func(f *Flags) { f.CrashOnError = true },
	'g': func(f *Flags) { f.DumpGen = true },
	'r': func(f *Flags) { f.DumpWrappers = true },
	'K': func(f *Flags) { f.WarnLineZero = true },
}

// Parse reads a debug string such as "eg", "e,g" or "-e -g".
func Parse(debug string) (Flags, error) {
	var f Flags
	for i := 0; i < len(debug); i++ {
		c := debug[i]
		switch c {
		case ',', ' ', '-', '\t':
			continue
		}
		set, ok := letters[c]
		if !ok {
			return Flags{}, fmt.Errorf("config: unknown debug flag %q", string(c))
		}
		set(&f)
	}
	return f, nil
}

// String renders the enabled letters in a stable order.
func (f Flags) String() string {
	var b []string
	if f.NoErrorLimit {
		b = append(b, "e")
	}
	if f.CrashOnError {
		b = append(b, "h")
	}
	if f.DumpGen {
		b = append(b, "g")
	}
	if f.DumpWrappers {
		b = append(b, "r")
	}
	if f.WarnLineZero {
		b = append(b, "K")
	}
	return strings.Join(b, "")
}

// Arch describes the widths of the code generation target.
type Arch struct {
	Name    string
	PtrSize int64
	RegSize int64
	IntSize int64

	// AlignArgsToPtr rounds every stack slot up to PtrSize (ARM).
	AlignArgsToPtr bool
}

var arches = map[string]Arch{
	"amd64": {Name: "amd64", PtrSize: 8, RegSize: 8, IntSize: 4},
	"386":   {Name: "386", PtrSize: 4, RegSize: 4, IntSize: 4},
	"arm":   {Name: "arm", PtrSize: 4, RegSize: 4, IntSize: 4, AlignArgsToPtr: true},
}

// LookupArch returns the built-in description of name.
func LookupArch(name string) (Arch, error) {
	a, ok := arches[name]
	if !ok {
		names := make([]string, 0, len(arches))
		for n := range arches {
			names = append(names, n)
		}
		sort.Strings(names)
		return Arch{}, fmt.Errorf("config: unknown arch %q (have %s)", name, strings.Join(names, ", "))
	}
	return a, nil
}

// Config is passed explicitly into every compiler session.
type Config struct {
	Flags Flags
	Arch  Arch
}

// Default targets amd64 with no debug flags.
func Default() Config {
	return Config{Arch: arches["amd64"]}
}

// FromEnv builds a Config from GOCORE_DEBUG and GOCORE_ARCH.
func FromEnv() (Config, error) {
	c := Default()
	if v := os.Getenv("GOCORE_DEBUG"); v != "" {
		f, err := Parse(v)
		if err != nil {
			return Config{}, err
		}
		c.Flags = f
	}
	if v := os.Getenv("GOCORE_ARCH"); v != "" {
		a, err := LookupArch(v)
		if err != nil {
			return Config{}, err
		}
		c.Arch = a
	}
	return c, nil
}
