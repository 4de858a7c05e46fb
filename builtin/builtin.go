// Package builtin implements the sentinel-parameter convention spec.md
// §4.3 uses to make host-implemented functions a subtype of ordinary
// value.Function values rather than a second kind the evaluator has to
// special-case everywhere a Function is accepted: a builtin is a
// *value.Function whose single parameter is named
// "__builtin_<name>__", carrying no body and no captured environment.
// The call machinery in package eval checks for that marker before
// running the ordinary closure-call procedure, and dispatches to the
// Go function registered under <name> instead.
//
// Grounded on the teacher's builtin.go (a plain
// map[string]*object.Builtin dispatched by name in evalIdentifier),
// generalized to the marker-as-Function-subtype shape spec.md requires
// so that e.g. passing `len` around as a value and calling it later
// works identically to a user-defined function value.
package builtin

import (
	"fmt"
	"strings"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/value"
)

const (
	markerPrefix = "__builtin_"
	markerSuffix = "__"
)

// HostFunc is a builtin's actual Go implementation. It receives already
// pass-by-value-copied arguments (see package eval's call path) and
// returns the result or a runtime error.
type HostFunc func(args []value.Value) (value.Value, error)

var registry = map[string]HostFunc{}

func markerName(name string) string { return markerPrefix + name + markerSuffix }

// Register installs fn under name and returns the *value.Function handle
// that represents it in Sei source — the value a `std` module binds the
// name to.
func Register(name string, fn HostFunc) *value.Function {
	registry[name] = fn
	return &value.Function{Params: []ast.Param{{Name: markerName(name)}}}
}

// Name reports the builtin name fn represents and whether fn is a
// builtin at all (as opposed to an ordinary user-defined closure).
func Name(fn *value.Function) (string, bool) {
	if len(fn.Params) != 1 {
		return "", false
	}
	n := fn.Params[0].Name
	if !strings.HasPrefix(n, markerPrefix) || !strings.HasSuffix(n, markerSuffix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(n, markerPrefix), markerSuffix), true
}

// Call invokes the host implementation behind fn. ok is false when fn is
// not a builtin at all, letting the caller fall through to the ordinary
// closure-call procedure.
func Call(fn *value.Function, args []value.Value) (result value.Value, err error, ok bool) {
	name, isBuiltin := Name(fn)
	if !isBuiltin {
		return nil, nil, false
	}
	host, registered := registry[name]
	if !registered {
		return nil, fmt.Errorf("builtin %q has no registered implementation", name), true
	}
	v, err := host(args)
	return v, err, true
}

// methodKey derives the registry name a :: method is filed under. The
// "::" separator can never collide with a plain builtin's name, since
// builtin names are single identifiers.
func methodKey(kind value.Kind, name string) string {
	return string(kind) + "::" + name
}

// RegisterMethod installs fn as the host implementation of the method
// `name` on receivers of the given kind, reachable through the ::
// call operator. It reuses the same registry and marker convention as
// Register — a method is just a builtin whose name carries its
// receiver kind — so the call machinery in package eval dispatches it
// through the ordinary Call path, with the receiver prepended to the
// argument list. The method tables themselves live outside the core
// (the stdlib package installs the string/list/tuple/map/stream
// tables); eval only looks up and invokes.
func RegisterMethod(kind value.Kind, name string, fn HostFunc) *value.Function {
	return Register(methodKey(kind, name), fn)
}

// LookupMethod reports the marker Function handle for kind's method
// name, or ok=false when no host implementation is registered for that
// (kind, name) pair.
func LookupMethod(kind value.Kind, name string) (*value.Function, bool) {
	key := methodKey(kind, name)
	if _, ok := registry[key]; !ok {
		return nil, false
	}
	return &value.Function{Params: []ast.Param{{Name: markerName(key)}}}, true
}
