package eval

import (
	"bytes"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/builtin"
	"github.com/go-sei/sei/strtemplate"
	"github.com/go-sei/sei/token"
	"github.com/go-sei/sei/value"
)

// evalPipeline runs a `stage1 | stage2 | ...` byte-stream pipeline.
// Shell-command stages (backtick literals) are run through the shell
// bridge with the previous stage's stdout feeding their stdin, exactly
// like a POSIX shell pipe. Every other stage must be an invocation form
// evaluating to a *value.Function; that function is invoked with no
// arguments against a copy of its environment with io_stdin/io_stdout
// substituted for the stream chain — data moves stage to stage through
// those streams, not through call arguments, grounded on
// original_source/src/runtime/eval/expressions/pipe.rs's
// eval_pipe_expression.
func (e *Evaluator) evalPipeline(x *ast.PipelineExpr, env value.Env) (value.Value, error) {
	if len(x.Stages) == 0 {
		return nil, rtErr(ErrEmptyPipeline, x.Span(), "pipeline has no stages")
	}
	var stdin []byte
	var result value.Value
	for i, stage := range x.Stages {
		last := i == len(x.Stages)-1
		v, out, err := e.runPipelineStage(stage, env, stdin, last)
		if err != nil {
			return nil, err
		}
		result = v
		stdin = out
	}
	return result, nil
}

// runPipelineStage evaluates one stage and reports both its result
// value and the raw bytes the next stage's stdin should see.
func (e *Evaluator) runPipelineStage(stage ast.Expression, env value.Env, stdin []byte, last bool) (value.Value, []byte, error) {
	if shellLit, ok := stage.(*ast.ShellLit); ok {
		return e.runShellStage(shellLit, env, stdin)
	}
	if !isInvocationExpr(stage) {
		return nil, nil, rtErr(ErrPipeStageType, stage.Span(), "pipeline stage must call a function, got %T", stage)
	}
	staged, err := e.evalExpr(stage, env)
	if err != nil {
		return nil, nil, err
	}
	fn, ok := staged.(*value.Function)
	if !ok {
		return nil, nil, rtErr(ErrPipeStageType, stage.Span(), "pipeline stage must evaluate to a function, got %s", staged.Kind())
	}
	return e.runFunctionStage(fn, env, stdin, last, stage.Span())
}

// isInvocationExpr reports whether expr is a call form: a plain Call, a
// MethodCall, or a Grouping wrapping one of those. A bare identifier or
// literal in a pipeline stage isn't a mistake the evaluator should paper
// over — it's rejected as PipeStageTypeError before ever being run.
func isInvocationExpr(expr ast.Expression) bool {
	switch x := expr.(type) {
	case *ast.Call, *ast.MethodCall:
		return true
	case *ast.Grouping:
		return isInvocationExpr(x.Inner)
	default:
		return false
	}
}

// runShellStage runs a backtick-literal stage through the shell bridge,
// chaining stdin/stdout as raw bytes so no intermediate stage re-frames
// the data it passes along (spec.md §8's byte-preservation property).
func (e *Evaluator) runShellStage(lit *ast.ShellLit, env value.Env, stdin []byte) (value.Value, []byte, error) {
	cmd, err := strtemplate.Render(lit.Parts, func(p ast.Expression) (value.Value, error) { return e.evalExpr(p, env) })
	if err != nil {
		return nil, nil, err
	}
	if e.Shell == nil {
		return nil, nil, rtErr(ErrTypeError, lit.Span(), "no shell bridge configured")
	}
	out, err := e.Shell.Run(cmd, stdin)
	if err != nil {
		return nil, nil, rtErr(ErrPipeExecution, lit.Span(), "command stage: %s", err.Error())
	}
	// A trailing shell stage's value is the UTF-8 decoding of its stdout,
	// byte for byte — no newline trimming, unlike a bare backtick literal
	// outside a pipeline.
	return value.String(string(out)), out, nil
}

// runFunctionStage invokes fn with no arguments, substituting io_stdin
// (a reader over stdin) and, for every non-last stage, io_stdout (an
// in-memory sink whose captured bytes become the next stage's stdin) in
// a child of fn's own closure environment. The pipeline's surrounding
// env is threaded through as the caller environment so the stage's own
// parameter defaults, if any, resolve the same way an ordinary call's
// would.
func (e *Evaluator) runFunctionStage(fn *value.Function, env value.Env, stdin []byte, last bool, span token.Span) (value.Value, []byte, error) {
	if _, isBuiltin := builtin.Name(fn); isBuiltin {
		v, err, _ := builtin.Call(fn, nil)
		if err != nil {
			return nil, nil, rtErr(ErrPipeExecution, span, "closure stage: %s", err.Error())
		}
		return v, nil, nil
	}
	overrideEnv := fn.Env.NewChild()
	overrideEnv.DefineLocal("io_stdin", &value.Stream{Name: "stdin", Reader: bytes.NewReader(stdin)})
	var out *bytes.Buffer
	if !last {
		out = &bytes.Buffer{}
		overrideEnv.DefineLocal("io_stdout", &value.Stream{Name: "stdout", Writer: out})
	}
	staged := &value.Function{Params: fn.Params, Body: fn.Body, Env: overrideEnv}
	v, err := e.callClosure(staged, nil, env, span)
	if err != nil {
		return nil, nil, rtErr(ErrPipeExecution, span, "closure stage: %s", err.Error())
	}
	if out != nil {
		return v, out.Bytes(), nil
	}
	return v, nil, nil
}
