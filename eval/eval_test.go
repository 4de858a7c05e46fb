package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/environ"
	"github.com/go-sei/sei/module"
	"github.com/go-sei/sei/parser"
	"github.com/go-sei/sei/value"

	// Installs the :: method tables evalMethodCall dispatches into;
	// the evaluator itself registers none.
	_ "github.com/go-sei/sei/stdlib"
)

// fakeShell is a Bridge stand-in so pipeline/shell-literal tests never
// actually touch /bin/sh.
type fakeShell struct {
	output map[string]string
}

func (f *fakeShell) Run(command string, stdin []byte) ([]byte, error) {
	if out, ok := f.output[command]; ok {
		return []byte(out), nil
	}
	return stdin, nil
}

func run(t *testing.T, ev *Evaluator, src string) (value.Value, error) {
	t.Helper()
	p := parser.New(src)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	env := environ.New()
	return ev.Run(prog, env)
}

func mustRun(t *testing.T, ev *Evaluator, src string) value.Value {
	t.Helper()
	v, err := run(t, ev, src)
	require.NoError(t, err)
	return v
}

func newEval() *Evaluator {
	return New(nil, &fakeShell{output: map[string]string{}})
}

func TestEval_ExponentiationIsRightAssociative(t *testing.T) {
	// 2 ^ 3 ^ 2 == 2 ^ (3 ^ 2) == 2 ^ 9 == 512, not (2^3)^2 == 64.
	v := mustRun(t, newEval(), "2 ^ 3 ^ 2")
	assert.Equal(t, value.Number(512), v)
}

func TestEval_UnaryMinusAppliesAfterExponentiation(t *testing.T) {
	v := mustRun(t, newEval(), "-2 ^ 2")
	assert.Equal(t, value.Number(-4), v)
}

func TestEval_RangeMaterializesInclusiveAndExclusive(t *testing.T) {
	v := mustRun(t, newEval(), "0..5")
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number(0), value.Number(1), value.Number(2), value.Number(3), value.Number(4)}, list.Elements)

	v = mustRun(t, newEval(), "0..=5")
	list = v.(*value.List)
	assert.Len(t, list.Elements, 6)
}

func TestEval_RangeBindsLooserThanAdditive(t *testing.T) {
	// 0..2+3 means 0..(2+3), producing [0,1,2,3,4].
	v := mustRun(t, newEval(), "0..2+3")
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number(0), value.Number(1), value.Number(2), value.Number(3), value.Number(4)}, list.Elements)
}

func TestEval_DivisionByZeroIsInvalidOperation(t *testing.T) {
	_, err := run(t, newEval(), "1 / 0")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidOperation, rerr.Kind)

	_, err = run(t, newEval(), "1 % 0")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidOperation, err.(*RuntimeError).Kind)
}

func TestEval_LogicalOperatorsShortCircuit(t *testing.T) {
	// The right side of `false && <expr>` must never run, so a bogus
	// right operand (an undefined variable) must not surface an error.
	v := mustRun(t, newEval(), "false && undefined_name")
	assert.Equal(t, value.Boolean(false), v)

	v = mustRun(t, newEval(), "true || undefined_name")
	assert.Equal(t, value.Boolean(true), v)
}

func TestEval_ClosureCapturesEnclosingBinding(t *testing.T) {
	// make = |b| { |x| { b + x } }; add5 = make(5); add5(3) == 8
	src := `
make = |b| { |x| { b + x } }
add5 = make(5)
add5(3)
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(8), v)
}

func TestEval_FunctionArgumentsArePassedByValue(t *testing.T) {
	src := `
mutate = |lst| { lst::push(99) }
original = [1, 2, 3]
mutate(original)
original
`
	v := mustRun(t, newEval(), src)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number(1), value.Number(2), value.Number(3)}, list.Elements,
		"mutating the parameter's copy must not be visible through the caller's own binding")
}

func TestEval_DefaultParameterEvaluatesAgainstCallerEnvironment(t *testing.T) {
	// f is defined at top level, where y = 1. g's own parameter is also
	// named y and shadows the top-level one; calling f() from inside g's
	// body must resolve f's default (x = y) against g's call-site y (99),
	// not the y captured in f's own closure environment, per spec.md
	// §4.3 step 2.
	src := `
y = 1
f = |x = y| { x }
g = |y| { f() }
g(99)
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(99), v)
}

func TestEval_DefaultParameterResolvesNormallyWhenNotShadowed(t *testing.T) {
	src := `
y = 7
f = |x = y| { x }
f()
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(7), v)
}

func TestEval_ImplicitReturnIsLastStatementValue(t *testing.T) {
	src := `
f = |x| { y = x * 2; y + 1 }
f(3)
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(7), v)
}

func TestEval_ExplicitReturnShortCircuitsFunctionBody(t *testing.T) {
	src := `
f = |x| { return x; x + 1000 }
f(3)
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(3), v)
}

func TestEval_LabeledBreakEscapesOnlyNamedLoop(t *testing.T) {
	src := `
total = 0
loop as outer {
	loop {
		total = total + 1
		break outer
	}
	total = total + 1000
}
total
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(1), v, "break outer must unwind past the inner loop without running the outer loop's tail")
}

func TestEval_UnlabeledBreakOnlyEscapesInnermostLoop(t *testing.T) {
	src := `
total = 0
loop as outer {
	loop {
		total = total + 1
		break
	}
	total = total + 10
	break outer
}
total
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(11), v)
}

func TestEval_LoopThroughListBindsElement(t *testing.T) {
	src := `
out = []
loop through [10, 20, 30] with v {
	out::push(v + 1)
}
out
`
	v := mustRun(t, newEval(), src)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number(11), value.Number(21), value.Number(31)}, list.Elements)
}

func TestEval_LoopThroughListWithTwoBindingsIsTypeError(t *testing.T) {
	_, err := run(t, newEval(), "loop through [1, 2] with v, i { v }")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrTypeError, rerr.Kind)
}

func TestEval_LoopThroughMapBindsKeyAndValueInInsertionOrder(t *testing.T) {
	src := `
out = []
loop through { "z": 1, "a": 2 } with k, v {
	out::push(k)
	out::push(v)
}
out
`
	v := mustRun(t, newEval(), src)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.String("z"), value.Number(1), value.String("a"), value.Number(2)}, list.Elements)
}

func TestEval_LoopThroughContinueSkipsRemainderOfBody(t *testing.T) {
	src := `
out = []
loop through [1, 2, 3, 4] with v {
	match { v % 2 == 0: continue, true: nil }
	out::push(v)
}
out
`
	v := mustRun(t, newEval(), src)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number(1), value.Number(3)}, list.Elements)
}

func TestEval_MatchScrutineeSelectsFirstPatternMatch(t *testing.T) {
	src := `
describe = |n| {
	match n {
		0: "zero",
		1: "one",
		_: "many",
	}
}
(describe(0), describe(1), describe(5))
`
	v := mustRun(t, newEval(), src)
	tup, ok := v.(*value.Tuple)
	require.True(t, ok)
	assert.Equal(t, value.String("zero"), tup.Elements[0])
	assert.Equal(t, value.String("one"), tup.Elements[1])
	assert.Equal(t, value.String("many"), tup.Elements[2])
}

func TestEval_MatchTuplePatternComparesElementWise(t *testing.T) {
	src := `
match (1, 2) {
	(1, 3): -1,
	(1, _): 3,
	_: -1,
}
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(3), v)
}

func TestEval_MatchRegexPattern(t *testing.T) {
	src := `
match "hello" {
	/^h/: "starts with h",
	_: "other",
}
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.String("starts with h"), v)
}

func TestEval_ConditionalMatchRequiresBooleanArms(t *testing.T) {
	src := `
n = 7
match { n < 5: "small", n < 10: "medium", true: "large" }
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.String("medium"), v)
}

func TestEval_PipeForwardAppendsArgumentAndIsLeftAssociative(t *testing.T) {
	src := `
double = |x| { x * 2 }
inc = |x| { x + 1 }
1 |> double |> inc
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(3), v)
}

func TestEval_CompositionForward(t *testing.T) {
	src := `
double = |x| { x * 2 }
inc = |x| { x + 1 }
pipeline = double >> inc
pipeline(5)
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(11), v)
}

func TestEval_CompositionBackward(t *testing.T) {
	src := `
double = |x| { x * 2 }
inc = |x| { x + 1 }
pipeline = double << inc
pipeline(5)
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(12), v)
}

func TestEval_StreamPipeRunsShellStagesWithChainedStdinStdout(t *testing.T) {
	sh := &fakeShell{output: map[string]string{
		"echo hi": "HI\n",
		"rev":     "reversed\n",
	}}
	ev := New(nil, sh)
	// The pipeline's value is the trailing shell stage's stdout decoded
	// as UTF-8, trailing newline and all (unlike a bare backtick
	// literal, which trims it).
	v := mustRun(t, ev, "`echo hi` | `rev`")
	assert.Equal(t, value.String("reversed\n"), v)
}

func TestEval_PipelineFunctionStageStdoutFeedsNextShellStage(t *testing.T) {
	sh := &fakeShell{output: map[string]string{}}
	ev := New(nil, sh)
	// A function stage is written factory-style: the invocation
	// `producer()` evaluates to the closure the pipeline then runs with
	// io_stdout substituted. That closure writes directly to the
	// substituted stream (rather than returning a value), proving
	// runFunctionStage actually captures what it wrote.
	src := "producer = || { || { io_stdout::write(\"hello-from-closure\") } }\nproducer() | `cat`"
	v := mustRun(t, ev, src)
	assert.Equal(t, value.String("hello-from-closure"), v)
}

func TestEval_PipelineClosureStageReadsPriorStageCapturedStdout(t *testing.T) {
	ev := newEval()
	src := `
producer = || { || { io_stdout::write("piped-bytes") } }
consumer = || { || { io_stdin::read() } }
producer() | consumer()
`
	v := mustRun(t, ev, src)
	assert.Equal(t, value.String("piped-bytes"), v)
}

func TestEval_PipelineStageThatIsNotAnInvocationIsRuntimeError(t *testing.T) {
	_, err := run(t, newEval(), "5 | `cat`")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrPipeStageType, rerr.Kind)
}

func TestEval_PipelineStageThatDoesNotReturnAFunctionIsRuntimeError(t *testing.T) {
	_, err := run(t, newEval(), "identity = |x| { x }\nidentity(5) | `cat`")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrPipeStageType, rerr.Kind)
}

func TestEval_CompoundAssignmentReadsThenMutates(t *testing.T) {
	src := `
x = 10
x += 5
x
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(15), v)
}

func TestEval_PostfixIncrementReturnsUpdatedValue(t *testing.T) {
	// i++ both rebinds i and evaluates to the incremented value.
	src := `
i = 1
j = i++
(i, j)
`
	v := mustRun(t, newEval(), src)
	tup, ok := v.(*value.Tuple)
	require.True(t, ok)
	assert.Equal(t, value.Number(2), tup.Elements[0])
	assert.Equal(t, value.Number(2), tup.Elements[1])
}

func TestEval_AssignmentRebindsEnclosingScopeRatherThanShadowing(t *testing.T) {
	src := `
x = 1
f = || { x = 2 }
f()
x
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(2), v, "assigning inside a closure must rebind the captured x, not shadow it locally")
}

func TestEval_IndexAssignmentMutatesInPlace(t *testing.T) {
	src := `
lst = [1, 2, 3]
lst[1] = 99
lst
`
	v := mustRun(t, newEval(), src)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number(1), value.Number(99), value.Number(3)}, list.Elements)
}

func TestEval_NestedIndexAssignmentWritesThroughToTheRootBinding(t *testing.T) {
	src := `
grid = [[1, 2], [3, 4]]
grid[1][0] = 99
grid
`
	v := mustRun(t, newEval(), src)
	list, ok := v.(*value.List)
	require.True(t, ok)
	inner := list.Elements[1].(*value.List)
	assert.Equal(t, value.Number(99), inner.Elements[0])
}

func TestEval_NestedMapKeyAssignmentWritesThroughToTheRootBinding(t *testing.T) {
	src := `
cfg = { "server": { "port": 80 } }
cfg:server:port = 8080
cfg:server:port
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.Number(8080), v)
}

func TestEval_AssignmentThroughNonIdentifierRootIsInvalidOperation(t *testing.T) {
	_, err := run(t, newEval(), "f = || { [1, 2] }; f()[0] = 9")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidOperation, rerr.Kind)
}

func TestEval_NegativeIndexWrapsFromEnd(t *testing.T) {
	v := mustRun(t, newEval(), `[10, 20, 30][-1]`)
	assert.Equal(t, value.Number(30), v)
}

func TestEval_DestructuringAssignmentRequiresMatchingArity(t *testing.T) {
	_, err := run(t, newEval(), "(a, b) = (1, 2, 3)")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrArityMismatch, rerr.Kind)
}

func TestEval_MapAccessAndMethodCalls(t *testing.T) {
	src := `
m = { "name": "sei", "count": 3 }
m:name
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.String("sei"), v)

	v = mustRun(t, newEval(), `"Hello"::lower()`)
	assert.Equal(t, value.String("hello"), v)

	v = mustRun(t, newEval(), `[3, 1, 2]::len()`)
	assert.Equal(t, value.Number(3), v)
}

func TestEval_MapKeysPreserveInsertionOrder(t *testing.T) {
	src := `
m = { "z": 1, "a": 2 }
m::keys()
`
	v := mustRun(t, newEval(), src)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.String("z"), value.String("a")}, list.Elements)
}

func TestEval_StringInterpolation(t *testing.T) {
	src := `
name = "world"
"hello ${name}!"
`
	v := mustRun(t, newEval(), src)
	assert.Equal(t, value.String("hello world!"), v)
}

func TestEval_ListConcatenationProducesIndependentCopy(t *testing.T) {
	src := `
a = [1, 2]
b = a + [3]
a::push(999)
b
`
	v := mustRun(t, newEval(), src)
	list, ok := v.(*value.List)
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Number(1), value.Number(2), value.Number(3)}, list.Elements)
}

func TestEval_ExportProducesOrderedMapOfBindings(t *testing.T) {
	p := parserProgram(t, `
x = 1
y = 2
export { x: x, y: y }
`)
	ev := newEval()
	env := environ.New()
	v, err := ev.RunModule(p, env)
	require.NoError(t, err)
	m, ok := v.(*value.Map)
	require.True(t, ok)
	xv, _ := m.Get(value.String("x"))
	assert.Equal(t, value.Number(1), xv)
}

func TestEval_ModuleWithoutExportYieldsNil(t *testing.T) {
	p := parserProgram(t, `x = 1`)
	ev := newEval()
	v, err := ev.RunModule(p, environ.New())
	require.NoError(t, err)
	assert.Equal(t, value.NilValue, v)
}

func TestEval_CircularFilesystemImportIsDetected(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.si")
	bPath := filepath.Join(dir, "b.si")
	require.NoError(t, os.WriteFile(aPath, []byte(`import b`), 0o644))
	require.NoError(t, os.WriteFile(bPath, []byte(`import a`), 0o644))

	ev := newEval()
	newEnv := func() value.Env { return environ.New() }
	reg := module.NewRegistry(ev.ModuleEvalFunc, newEnv, dir, nil)
	ev.Registry = reg

	src, err := os.ReadFile(aPath)
	require.NoError(t, err)
	p := parser.New(string(src))
	prog, err := p.ParseProgram()
	require.NoError(t, err)

	env := environ.New()
	_, err = ev.RunModule(prog, env)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok, "expected the circular-import failure to surface as a RuntimeError, got %T: %v", err, err)
	assert.Equal(t, ErrTypeError, rerr.Kind)
	assert.Contains(t, rerr.Message, "CircularModuleDependency")
}

func TestEval_UndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, newEval(), "doesnotexist")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrUndefinedVariable, rerr.Kind)
}

func TestEval_CallingANonFunctionIsRuntimeError(t *testing.T) {
	_, err := run(t, newEval(), "x = 1; x()")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrTypeError, rerr.Kind)
}

func TestEval_TooManyArgumentsIsArityMismatch(t *testing.T) {
	_, err := run(t, newEval(), "f = |a| { a }; f(1, 2)")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrArityMismatch, rerr.Kind)
}

func TestEval_MatchWithNoMatchingArmProducesNil(t *testing.T) {
	v := mustRun(t, newEval(), `match 99 { 1: "one", 2: "two" }`)
	assert.Equal(t, value.NilValue, v)

	v = mustRun(t, newEval(), `match { false: "never" }`)
	assert.Equal(t, value.NilValue, v)
}

func TestEval_ConditionalMatchWithNonBooleanConditionFails(t *testing.T) {
	_, err := run(t, newEval(), `match { 1: "arm" }`)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrConditionalMatch, rerr.Kind)
}

func TestEval_BreakWithUnknownLabelFailsAtItsOwnSite(t *testing.T) {
	_, err := run(t, newEval(), `loop as a { break nosuch }`)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrUnknownLabel, rerr.Kind)
}

func TestEval_UnknownMethodIsMethodError(t *testing.T) {
	_, err := run(t, newEval(), `"abc"::bogus()`)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrMethodError, rerr.Kind)
}

func TestEval_InvalidKeyTypeDistinctFromMissingKey(t *testing.T) {
	_, err := run(t, newEval(), `m = { "a": 1 }; m[[1, 2]]`)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidKeyType, err.(*RuntimeError).Kind)

	_, err = run(t, newEval(), `m = { "a": 1 }; m["b"]`)
	require.Error(t, err)
	assert.Equal(t, ErrKeyNotFound, err.(*RuntimeError).Kind)
}

func parserProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(src)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	return prog
}
