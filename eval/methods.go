package eval

import (
	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/builtin"
	"github.com/go-sei/sei/value"
)

// evalMethodCall implements target::name(args). The evaluator owns only
// the dispatch protocol: the receiver's kind plus the method name
// select a host implementation registered through
// builtin.RegisterMethod, and the receiver is prepended to the
// already-evaluated argument list before the ordinary builtin call
// path runs it. The concrete method tables (string/list/tuple/map/
// stream) are installed from the stdlib package, never here. A
// (kind, name) pair with no registered implementation is a
// MethodError, as is any failure the host implementation reports.
func (e *Evaluator) evalMethodCall(x *ast.MethodCall, env value.Env) (value.Value, error) {
	target, err := e.evalExpr(x.Target, env)
	if err != nil {
		return nil, err
	}
	fn, ok := builtin.LookupMethod(target.Kind(), x.Name)
	if !ok {
		return nil, rtErr(ErrMethodError, x.Span(), "%s has no method %q", target.Kind(), x.Name)
	}
	// The receiver is passed live (so a mutating method like list push
	// updates the binding it was called on); the call arguments are
	// copied like any other call's.
	args := make([]value.Value, 0, len(x.Args)+1)
	args = append(args, target)
	for _, a := range x.Args {
		v, err := e.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, value.Copy(v))
	}
	result, callErr, _ := builtin.Call(fn, args)
	if callErr != nil {
		return nil, rtErr(ErrMethodError, x.Span(), "%s", callErr.Error())
	}
	return result, nil
}
