package eval

import (
	"github.com/go-sei/sei/token"
	"github.com/go-sei/sei/value"
)

// callClosure runs fn's body against a fresh child of its captured
// environment, binding positional args then falling back to each
// parameter's default expression and finally to Nil. Per spec.md
// §4.3 step 2, a default expression is evaluated in the caller's
// environment, and only falls back to fn's own closure environment
// when callerEnv is nil. A return statement inside the body
// supplies the call's result; falling off the end yields whatever the
// body's last statement evaluated to (spec.md §4.3's implicit-return
// rule).
func (e *Evaluator) callClosure(fn *value.Function, args []value.Value, callerEnv value.Env, callSpan token.Span) (value.Value, error) {
	if len(args) > len(fn.Params) {
		return nil, rtErr(ErrArityMismatch, callSpan, "too many arguments: got %d, want at most %d", len(args), len(fn.Params))
	}
	defaultEnv := callerEnv
	if defaultEnv == nil {
		defaultEnv = fn.Env
	}
	child := fn.Env.NewChild()
	for i, p := range fn.Params {
		switch {
		case i < len(args):
			child.DefineLocal(p.Name, args[i])
		case p.Default != nil:
			dv, err := e.evalExpr(p.Default, defaultEnv)
			if err != nil {
				return nil, err
			}
			child.DefineLocal(p.Name, value.Copy(dv))
		default:
			child.DefineLocal(p.Name, value.NilValue)
		}
	}
	// A fresh call starts outside every loop of its caller: a labeled
	// break inside the body must not see the caller's loop labels as
	// valid targets.
	savedLoops := e.loopStack
	e.loopStack = nil
	defer func() { e.loopStack = savedLoops }()

	v, err := e.execStmt(fn.Body, child)
	if err != nil {
		if sig, ok := asSignal(err); ok {
			if sig.kind == ctrlReturn {
				return sig.value, nil
			}
			return nil, rtErr(ErrMisplacedControlFlow, callSpan, "break/continue escaped a function body")
		}
		return nil, err
	}
	return v, nil
}
