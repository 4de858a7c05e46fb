// Package environ implements Sei's lexical scope chain: a map from name to
// value.Value with a parent pointer, distinguishing "shadow" (a brand new
// binding) from "rebind" (mutating an existing one in the nearest
// enclosing scope that defines it).
//
// Grounded on the teacher's scope/scope.go (Scope with Variables map and
// Parent pointer, LookUp/Bind/Assign methods); generalized to drop the
// teacher's var/let/const tracking (Sei has one binding form) and to
// implement the spec's "no accidental shadowing" rule precisely —
// spec.md §9 flags that the source this was distilled from has an
// Env::set_existing that some call sites bypass in favor of
// define_or_set, and warns implementers to audit every plain assignment.
// Environment exposes exactly the two operations spec.md requires
// (Rebind and DefineLocal) as distinct methods so that mistake cannot
// recur here.
package environ

import "github.com/go-sei/sei/value"

// Environment is one lexical scope. It satisfies value.Env so that
// Function closures can capture one without environ depending on value's
// Function type (and value depending on environ, which would cycle).
type Environment struct {
	vars   map[string]value.Value
	parent *Environment
}

// New creates a root environment with no parent.
func New() *Environment {
	return &Environment{vars: make(map[string]value.Value)}
}

// NewChild creates a scope nested inside e.
func (e *Environment) NewChild() value.Env {
	return &Environment{vars: make(map[string]value.Value), parent: e}
}

// Lookup searches e and its ancestors, innermost first.
func (e *Environment) Lookup(name string) (value.Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// DefineLocal creates or overwrites a binding in e itself, never
// consulting ancestors. This is how function parameters, loop-binding
// variables, and a rebind that finds no existing ancestor binding create
// bindings.
func (e *Environment) DefineLocal(name string, v value.Value) {
	e.vars[name] = v
}

// Rebind implements the spec's "no accidental shadowing" rule: a plain
// `x = expr` mutates x in the nearest enclosing scope that already
// defines it. It reports whether such a scope was found; the caller
// (eval) is responsible for falling back to DefineLocal in the current
// scope when Rebind returns false, per spec.md §3's Environment
// invariant.
func (e *Environment) Rebind(name string, v value.Value) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return true
		}
	}
	return false
}

// Parent exposes the enclosing scope, or nil at the root. The evaluator
// and the REPL do not call it: they go through Lookup/Rebind and Names.
func (e *Environment) Parent() *Environment { return e.parent }

// Names returns the bindings defined directly in e (not ancestors), for
// REPL /scope introspection.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for n := range e.vars {
		names = append(names, n)
	}
	return names
}
