// Package value implements Sei's runtime value representation: the tagged
// variant described in spec.md §3 (Number, Boolean, String, List, Map,
// Tuple, Regex, Function, Stream, Module, Nil) plus the MapKey wrapper that
// restricts which kinds may key a Map.
//
// Grounded on the teacher's objects package (a GoMixObject interface with
// GetType/ToString/ToObject implemented by concrete structs per kind),
// generalized to the richer value set this spec requires — in particular
// an insertion-ordered Map (github.com/wk8/go-ordered-map/v2, pulled in
// from the pack rather than the teacher's plain map[string]GoMixObject,
// which cannot satisfy the ordering invariant) and first-class closures
// capturing an Env.
package value

import (
	"fmt"
	"regexp"

	"github.com/go-sei/sei/ast"
)

// Kind names a Value's runtime type, mirroring the teacher's GoMixType.
type Kind string

const (
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindString   Kind = "string"
	KindList     Kind = "list"
	KindMap      Kind = "map"
	KindTuple    Kind = "tuple"
	KindRegex    Kind = "regex"
	KindFunction Kind = "function"
	KindStream   Kind = "stream"
	KindModule   Kind = "module"
	KindNil      Kind = "nil"
)

// Value is implemented by every runtime value kind.
type Value interface {
	Kind() Kind
	String() string
}

// Env is the minimal contract a closure needs from its captured scope.
// Declared here (rather than imported from the environ package) to avoid
// a cycle: environ stores Values, and a Function Value captures an Env.
// *environ.Environment satisfies this interface.
type Env interface {
	Lookup(name string) (Value, bool)
	Rebind(name string, v Value) bool
	DefineLocal(name string, v Value)
	NewChild() Env
}

// ---- scalars ----

type Number float64

func (Number) Kind() Kind          { return KindNumber }
func (n Number) String() string    { return formatNumber(float64(n)) }

func formatNumber(f float64) string {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

type Boolean bool

func (Boolean) Kind() Kind       { return KindBoolean }
func (b Boolean) String() string { return fmt.Sprintf("%t", bool(b)) }

type String string

func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

type Nil struct{}

func (Nil) Kind() Kind     { return KindNil }
func (Nil) String() string { return "nil" }

// NilValue is the single shared nil instance; Nil carries no data so any
// value is fine, but sharing one avoids needless allocation.
var NilValue = Nil{}

// ---- compounds ----

// List is a mutable, heterogeneous sequence. It is always held behind a
// pointer so Copy (see copy.go) can produce a genuinely independent clone
// on every read-like operation, realizing the spec's pass-by-value
// semantics without requiring persistent data structures.
type List struct {
	Elements []Value
}

func NewList(elems []Value) *List { return &List{Elements: elems} }

func (*List) Kind() Kind { return KindList }
func (l *List) String() string {
	s := "["
	for i, e := range l.Elements {
		if i > 0 {
			s += ", "
		}
		s += stringLiteralForCollection(e)
	}
	return s + "]"
}

// Tuple is an immutable, heterogeneous fixed-length sequence.
type Tuple struct {
	Elements []Value
}

func NewTuple(elems []Value) *Tuple { return &Tuple{Elements: elems} }

func (*Tuple) Kind() Kind { return KindTuple }
func (t *Tuple) String() string {
	s := "("
	for i, e := range t.Elements {
		if i > 0 {
			s += ", "
		}
		s += stringLiteralForCollection(e)
	}
	if len(t.Elements) == 1 {
		s += ","
	}
	return s + ")"
}

func stringLiteralForCollection(v Value) string {
	if s, ok := v.(String); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}

// Regex is a compiled regular expression, opaque beyond its source
// pattern. Built on the standard library's regexp package: no third-party
// regex engine appears anywhere in the retrieved examples, and RE2
// semantics (linear-time, no catastrophic backtracking) are exactly what
// an embedded scripting language wants from its regex literals.
type Regex struct {
	Source   string
	Compiled *regexp.Regexp
}

func (*Regex) Kind() Kind     { return KindRegex }
func (r *Regex) String() string { return "/" + r.Source + "/" }

// Function is a closure: parameters (with optional default expressions),
// a body, and the environment captured at definition time. Builtins are
// represented as a Function whose single parameter is named with the
// sentinel convention from the builtin package (see builtin.MarkerName),
// so the call machinery treats them as an ordinary Function subtype.
type Function struct {
	Params []ast.Param
	Body   ast.Statement
	Env    Env
}

func (*Function) Kind() Kind { return KindFunction }
func (f *Function) String() string {
	s := "|"
	for i, p := range f.Params {
		if i > 0 {
			s += ", "
		}
		s += p.Name
	}
	return s + "| { ... }"
}

// Stream is an opaque handle to a host byte source/sink (stdin, stdout,
// stderr, an in-memory pipeline buffer, a file). The core never inspects
// a Stream's contents directly; it delegates to io.Reader/io.Writer.
type Stream struct {
	Name   string
	Reader ReadCloser
	Writer WriteCloser
}

// ReadCloser/WriteCloser mirror io.ReadCloser/io.WriteCloser without
// importing io here, keeping this package's surface minimal; concrete
// Streams in the stdlib/shell packages wrap *os.File, bytes.Buffer, etc.
type ReadCloser interface {
	Read(p []byte) (n int, err error)
}

type WriteCloser interface {
	Write(p []byte) (n int, err error)
}

func (*Stream) Kind() Kind     { return KindStream }
func (s *Stream) String() string { return fmt.Sprintf("<stream %s>", s.Name) }

// Module is a lazy handle to an imported module's exported map (see the
// module package for resolution/caching; ModuleHandle.Force is set up
// there to avoid an import cycle).
type ModuleHandle struct {
	DisplayPath string
	Segments    []string
	Source      *string

	resolve func() (Value, error)
	forced  bool
	result  Value
	err     error
}

func NewModuleHandle(displayPath string, segments []string, source *string, resolve func() (Value, error)) *ModuleHandle {
	return &ModuleHandle{DisplayPath: displayPath, Segments: segments, Source: source, resolve: resolve}
}

// Force evaluates the module on first use and memoizes the result
// (spec.md §4.4 "forcing a lazy module handle is idempotent").
func (m *ModuleHandle) Force() (Value, error) {
	if !m.forced {
		m.result, m.err = m.resolve()
		m.forced = true
	}
	return m.result, m.err
}

func (*ModuleHandle) Kind() Kind { return KindModule }
func (m *ModuleHandle) String() string {
	return fmt.Sprintf("<module %s>", m.DisplayPath)
}
