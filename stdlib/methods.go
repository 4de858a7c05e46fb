package stdlib

import (
	"github.com/go-sei/sei/builtin"
	"github.com/go-sei/sei/value"
)

// methodEntry pairs a :: method name with its host implementation. Each
// concern file in this package (strings.go, list.go, maps.go,
// streams.go) declares one table of these and registers it in init(),
// so importing stdlib is all an embedder does to make the method set
// available — the evaluator itself only dispatches by (kind, name) and
// never carries a method body.
type methodEntry struct {
	Name string
	Fn   builtin.HostFunc
}

func registerMethods(kind value.Kind, entries []methodEntry) {
	for _, m := range entries {
		builtin.RegisterMethod(kind, m.Name, m.Fn)
	}
}
