// Package eval walks a parsed ast.Program against an environ.Environment,
// producing value.Values. It is Sei's tree-walking interpreter core.
//
// Grounded on the teacher's eval/evaluator.go (a single Eval(node Node,
// env *Scope) Object method switching on node type), generalized to
// Sei's richer expression grammar and to control flow modeled as a
// distinguished sentinel error (*signal) rather than the teacher's
// "ReturnValue wrapper object" trick, since Sei also needs break/continue
// with labels, which don't fit that wrapper cleanly.
package eval

import (
	"fmt"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/module"
	"github.com/go-sei/sei/parser"
	"github.com/go-sei/sei/shell"
	"github.com/go-sei/sei/token"
	"github.com/go-sei/sei/value"
)

// ErrorKind identifies a runtime failure. Every RuntimeError carries the
// span of the expression or statement that triggered it.
type ErrorKind string

const (
	ErrUndefinedVariable    ErrorKind = "UndefinedVariable"
	ErrTypeError            ErrorKind = "TypeError"
	ErrInvalidOperation     ErrorKind = "InvalidOperation"
	ErrIndexOutOfBounds     ErrorKind = "IndexOutOfBounds"
	ErrKeyNotFound          ErrorKind = "KeyNotFound"
	ErrInvalidKeyType       ErrorKind = "InvalidKeyType"
	ErrArityMismatch        ErrorKind = "ArityMismatch"
	ErrShellError           ErrorKind = "ShellError"
	ErrRegexError           ErrorKind = "RegexError"
	ErrMethodError          ErrorKind = "MethodError"
	ErrConditionalMatch     ErrorKind = "ConditionalMatchError"
	ErrMisplacedControlFlow ErrorKind = "MisplacedControlFlow"
	ErrUnknownLabel         ErrorKind = "UnknownLabel"
	ErrPipeStageType        ErrorKind = "PipeStageTypeError"
	ErrEmptyPipeline        ErrorKind = "EmptyPipeExpression"
	ErrPipeExecution        ErrorKind = "PipeExecutionError"
)

// RuntimeError is any failure raised while evaluating a program.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Span    token.Span
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Span)
}

func rtErr(kind ErrorKind, span token.Span, format string, args ...interface{}) error {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// ---- control flow signals ----

type ctrlKind int

const (
	ctrlReturn ctrlKind = iota
	ctrlBreak
	ctrlContinue
)

// signal is how return/break/continue unwind the call stack: an error
// value the loop/function-call machinery specifically recognizes and
// consumes, letting every ordinary statement execution path stay a
// plain (value.Value, error) pair.
type signal struct {
	kind  ctrlKind
	value value.Value
	label string
}

func (s *signal) Error() string { return "uncaught control-flow signal" }

// asSignal reports whether err is a control-flow signal, letting
// callers tell it apart from a genuine RuntimeError/parser/lexer error.
func asSignal(err error) (*signal, bool) {
	s, ok := err.(*signal)
	return s, ok
}

// Evaluator ties together the pieces a running program needs beyond its
// own AST and environment: the module registry for imports and the
// shell bridge for backtick/pipe stages.
type Evaluator struct {
	Registry *module.Registry
	Shell    shell.Bridge

	// loopStack holds the labels of every loop currently executing,
	// innermost last, so a labeled break/continue can be rejected at its
	// own site when no enclosing loop carries that label. Unlabeled
	// loops push "" to keep the stack's depth honest. A function call
	// starts from an empty stack (see callClosure): a closure body
	// cannot break a loop in its caller.
	loopStack []string
}

// New creates an Evaluator. registry may be nil for scripts that never
// import anything (e.g. one-off REPL expressions evaluated before any
// import statement is typed); it is consulted lazily, only when an
// ImportStmt is actually reached.
func New(registry *module.Registry, sh shell.Bridge) *Evaluator {
	return &Evaluator{Registry: registry, Shell: sh}
}

// Run executes every top-level statement of prog in env and returns the
// value of the last one (value.NilValue if prog is empty), ignoring any
// export — this is what the REPL and a plain script invocation want.
func (e *Evaluator) Run(prog *ast.Program, env value.Env) (value.Value, error) {
	return e.runStatements(prog.Stmts, env)
}

// RunModule executes prog and returns the Value its export statement
// produces (an insertion-ordered Map of name -> value), or value.NilValue
// if prog has no export statement. It satisfies module.EvalFunc's
// signature modulo the extra parse step, see ModuleEvalFunc.
func (e *Evaluator) RunModule(prog *ast.Program, env value.Env) (value.Value, error) {
	if _, err := e.runStatements(prog.Stmts, env); err != nil {
		return nil, err
	}
	if prog.Export == nil {
		return value.NilValue, nil
	}
	m := value.NewMap()
	for _, entry := range prog.Export.Entries {
		v, err := e.evalExpr(entry.Value, env)
		if err != nil {
			return nil, err
		}
		if err := m.Set(value.String(entry.Name), value.Copy(v)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ModuleEvalFunc adapts Evaluator to module.EvalFunc: parse source, then
// run it as a module body. filename is only used to surface parse
// errors with a useful message, since ast.Span carries byte offsets
// rather than file identity. The module.Registry that calls this is the
// same one this Evaluator holds in e.Registry, so a module's own nested
// imports resolve against it exactly as the top-level program's do.
func (e *Evaluator) ModuleEvalFunc(source, filename string, env value.Env, reg *module.Registry) (value.Value, error) {
	p := parser.New(source)
	prog, err := p.ParseProgram()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return e.RunModule(prog, env)
}

func (e *Evaluator) runStatements(stmts []ast.Statement, env value.Env) (value.Value, error) {
	result := value.Value(value.NilValue)
	for _, s := range stmts {
		v, err := e.execStmt(s, env)
		if err != nil {
			if sig, ok := asSignal(err); ok {
				// A bare top-level return/break/continue outside any
				// function or loop: the REPL treats `return expr` typed
				// at its prompt as "produce this value", everything else
				// is a misuse.
				if sig.kind == ctrlReturn {
					return sig.value, nil
				}
				return nil, rtErr(ErrMisplacedControlFlow, token.Span{}, "break/continue outside a loop")
			}
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) execStmt(stmt ast.Statement, env value.Env) (value.Value, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		return e.evalExpr(s.Expr, env)
	case *ast.BlockStmt:
		return e.execBlock(s, env)
	case *ast.ReturnStmt:
		var v value.Value = value.NilValue
		if s.Value != nil {
			rv, err := e.evalExpr(s.Value, env)
			if err != nil {
				return nil, err
			}
			v = value.Copy(rv)
		}
		return nil, &signal{kind: ctrlReturn, value: v}
	case *ast.BreakStmt:
		if s.Label != "" && !e.labelActive(s.Label) {
			return nil, rtErr(ErrUnknownLabel, s.Span(), "no enclosing loop labeled %q", s.Label)
		}
		return nil, &signal{kind: ctrlBreak, label: s.Label}
	case *ast.ContinueStmt:
		if s.Label != "" && !e.labelActive(s.Label) {
			return nil, rtErr(ErrUnknownLabel, s.Span(), "no enclosing loop labeled %q", s.Label)
		}
		return nil, &signal{kind: ctrlContinue, label: s.Label}
	case *ast.LoopStmt:
		return e.execLoop(s, env)
	case *ast.LoopThroughStmt:
		return e.execLoopThrough(s, env)
	case *ast.ImportStmt:
		return e.execImport(s, env)
	default:
		return nil, rtErr(ErrTypeError, stmt.Span(), "unsupported statement %T", stmt)
	}
}

func (e *Evaluator) execBlock(blk *ast.BlockStmt, env value.Env) (value.Value, error) {
	child := env.NewChild()
	result := value.Value(value.NilValue)
	for _, s := range blk.Stmts {
		v, err := e.execStmt(s, child)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (e *Evaluator) labelActive(label string) bool {
	for _, l := range e.loopStack {
		if l == label {
			return true
		}
	}
	return false
}

func (e *Evaluator) pushLoop(label string) {
	e.loopStack = append(e.loopStack, label)
}

func (e *Evaluator) popLoop() {
	e.loopStack = e.loopStack[:len(e.loopStack)-1]
}

// execLoop runs an infinite `loop { ... }` until a matching break (or an
// escaping return/error) ends it.
func (e *Evaluator) execLoop(s *ast.LoopStmt, env value.Env) (value.Value, error) {
	e.pushLoop(s.Label)
	defer e.popLoop()
	for {
		_, err := e.execStmt(s.Body, env)
		if err == nil {
			continue
		}
		sig, ok := asSignal(err)
		if !ok {
			return nil, err
		}
		switch sig.kind {
		case ctrlBreak:
			if sig.label == "" || sig.label == s.Label {
				return value.NilValue, nil
			}
			return nil, err
		case ctrlContinue:
			if sig.label == "" || sig.label == s.Label {
				continue
			}
			return nil, err
		default: // ctrlReturn
			return nil, err
		}
	}
}

// execLoopThrough iterates a List, Tuple, or Map, binding each element
// per s.Bindings before running the body.
func (e *Evaluator) execLoopThrough(s *ast.LoopThroughStmt, env value.Env) (value.Value, error) {
	iterVal, err := e.evalExpr(s.Iterable, env)
	if err != nil {
		return nil, err
	}
	items, err := iterationItems(iterVal, s.Bindings, s.Iterable.Span())
	if err != nil {
		return nil, err
	}
	e.pushLoop(s.Label)
	defer e.popLoop()
	for _, it := range items {
		iterEnv := env.NewChild()
		bindLoopItem(iterEnv, s.Bindings, it)
		_, err := e.execStmt(s.Body, iterEnv)
		if err == nil {
			continue
		}
		sig, ok := asSignal(err)
		if !ok {
			return nil, err
		}
		switch sig.kind {
		case ctrlBreak:
			if sig.label == "" || sig.label == s.Label {
				return value.NilValue, nil
			}
			return nil, err
		case ctrlContinue:
			if sig.label == "" || sig.label == s.Label {
				continue
			}
			return nil, err
		default:
			return nil, err
		}
	}
	return value.NilValue, nil
}

// loopItem is one step of a `loop through` iteration: a first/only
// value, plus an optional second (the map value when first holds the
// key).
type loopItem struct {
	first, second value.Value
	hasSecond     bool
}

// iterationItems materializes the iteration sequence, rejecting binding
// forms the iterable's arity cannot satisfy: a list or tuple yields one
// value per step, a map one (key) or two (key, value).
func iterationItems(v value.Value, b ast.LoopBindings, span token.Span) ([]loopItem, error) {
	switch x := v.(type) {
	case *value.List:
		if b.Kind == ast.LoopBindingTwo {
			return nil, rtErr(ErrTypeError, span, "list iteration binds at most one variable")
		}
		items := make([]loopItem, len(x.Elements))
		for i, el := range x.Elements {
			items[i] = loopItem{first: value.Copy(el)}
		}
		return items, nil
	case *value.Tuple:
		if b.Kind == ast.LoopBindingTwo {
			return nil, rtErr(ErrTypeError, span, "tuple iteration binds at most one variable")
		}
		items := make([]loopItem, len(x.Elements))
		for i, el := range x.Elements {
			items[i] = loopItem{first: value.Copy(el)}
		}
		return items, nil
	case *value.Map:
		var items []loopItem
		x.Each(func(p value.Pair) bool {
			items = append(items, loopItem{first: value.Copy(p.Key), second: value.Copy(p.Val), hasSecond: true})
			return true
		})
		return items, nil
	default:
		return nil, rtErr(ErrTypeError, span, "cannot iterate a %s", v.Kind())
	}
}

func bindLoopItem(env value.Env, b ast.LoopBindings, it loopItem) {
	switch b.Kind {
	case ast.LoopBindingNone:
	case ast.LoopBindingOne:
		env.DefineLocal(b.First, it.first)
	case ast.LoopBindingTwo:
		env.DefineLocal(b.First, it.first)
		if it.hasSecond {
			env.DefineLocal(b.Second, it.second)
		} else {
			env.DefineLocal(b.Second, value.NilValue)
		}
	}
}

func (e *Evaluator) execImport(s *ast.ImportStmt, env value.Env) (value.Value, error) {
	if e.Registry == nil {
		return nil, rtErr(ErrTypeError, s.Span(), "no module registry configured for imports")
	}
	handle, err := e.Registry.Resolve(s.Segments, env)
	if err != nil {
		return nil, rtErr(ErrTypeError, s.Span(), "%s", err.Error())
	}
	v, err := handle.Force()
	if err != nil {
		return nil, rtErr(ErrTypeError, s.Span(), "%s", err.Error())
	}
	env.DefineLocal(s.BindingName(), v)
	return value.NilValue, nil
}
