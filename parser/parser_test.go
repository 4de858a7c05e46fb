package parser

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-sei/sei/ast"
)

func parseExpr(t *testing.T, src string) ast.Expression {
	t.Helper()
	p := New(src)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 1)
	es, ok := prog.Stmts[0].(*ast.ExprStmt)
	require.True(t, ok, "expected a single expression statement, got %T", prog.Stmts[0])
	return es.Expr
}

func TestParser_ExponentiationIsRightAssociative(t *testing.T) {
	// 2 ^ 3 ^ 2 parses as 2 ^ (3 ^ 2).
	expr := parseExpr(t, "2 ^ 3 ^ 2")
	bin, ok := expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, float64(2), bin.Left.(*ast.NumberLit).Value)
	rightBin, ok := bin.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, float64(3), rightBin.Left.(*ast.NumberLit).Value)
	assert.Equal(t, float64(2), rightBin.Right.(*ast.NumberLit).Value)
}

func TestParser_RangeBindsLooserThanAdditive(t *testing.T) {
	// 0..a+b means 0..(a+b).
	expr := parseExpr(t, "0..a+b")
	bin, ok := expr.(*ast.Binary)
	require.True(t, ok)
	_, isNum := bin.Left.(*ast.NumberLit)
	assert.True(t, isNum)
	_, isAdd := bin.Right.(*ast.Binary)
	assert.True(t, isAdd, "expected right side of .. to be the additive expression")
}

func TestParser_UnaryMinusBindsLooserThanExponent(t *testing.T) {
	// -2 ^ 2 parses as -(2 ^ 2): exponentiation binds tighter than unary
	// minus, so the unary node wraps the whole power expression and the
	// program evaluates to -4, not 4.
	expr := parseExpr(t, "-2 ^ 2")
	un, ok := expr.(*ast.Unary)
	require.True(t, ok, "expected top node to be the unary minus, got %T", expr)
	pow, ok := un.Operand.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, float64(2), pow.Left.(*ast.NumberLit).Value)
	assert.Equal(t, float64(2), pow.Right.(*ast.NumberLit).Value)
}

func TestParser_PipelineOperators(t *testing.T) {
	// x |> f is left-associative; f <| x is right-associative; both
	// desugar to a Call.
	fwd := parseExpr(t, "x |> f")
	call, ok := fwd.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "f", call.Callee.(*ast.Identifier).Name)
	require.Len(t, call.Args, 1)
	assert.Equal(t, "x", call.Args[0].(*ast.Identifier).Name)

	back := parseExpr(t, "f <| x")
	call, ok = back.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "f", call.Callee.(*ast.Identifier).Name)
	require.Len(t, call.Args, 1)
	assert.Equal(t, "x", call.Args[0].(*ast.Identifier).Name)
}

func TestParser_ForwardApplyAppendsTrailingArg(t *testing.T) {
	// x |> f(a) == f(a, x): the piped value is appended as the last arg.
	expr := parseExpr(t, "x |> f(a)")
	call, ok := expr.(*ast.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	assert.Equal(t, "a", call.Args[0].(*ast.Identifier).Name)
	assert.Equal(t, "x", call.Args[1].(*ast.Identifier).Name)
}

func TestParser_StreamPipeCollectsStages(t *testing.T) {
	expr := parseExpr(t, "f(1) | g(2) | h(3)")
	pipe, ok := expr.(*ast.PipelineExpr)
	require.True(t, ok)
	assert.Len(t, pipe.Stages, 3)
}

func TestParser_DestructuringAssignment(t *testing.T) {
	expr := parseExpr(t, "(a, b) = pair")
	assign, ok := expr.(*ast.Assign)
	require.True(t, ok)
	tup, ok := assign.Target.(*ast.TupleLit)
	require.True(t, ok)
	assert.Len(t, tup.Elements, 2)
}

func TestParser_TrailingCommaMakesSingleElementTuple(t *testing.T) {
	expr := parseExpr(t, "(a,)")
	tup, ok := expr.(*ast.TupleLit)
	require.True(t, ok)
	assert.Len(t, tup.Elements, 1)
}

func TestParser_MatchArmBracesDisambiguateMapVsBlock(t *testing.T) {
	// A brace body starting with a literal immediately followed by ':' is
	// a map; otherwise it's a block.
	expr := parseExpr(t, `match x { 1: { "a": 1 }, 2: { y = 1; y } }`)
	m, ok := expr.(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Arms, 2)
	assert.NotNil(t, m.Arms[0].Body.Expr, "arm 1's braces should parse as a map literal expr")
	_, isMapLit := m.Arms[0].Body.Expr.(*ast.MapLit)
	assert.True(t, isMapLit)
	assert.NotNil(t, m.Arms[1].Body.Block, "arm 2's braces should parse as a statement block")
}

func TestParser_ConditionalMatch(t *testing.T) {
	expr := parseExpr(t, `match { a > b: 1, true: 2 }`)
	m, ok := expr.(*ast.MatchExpr)
	require.True(t, ok)
	assert.Nil(t, m.Scrutinee)
	require.Len(t, m.Arms, 2)
	assert.Nil(t, m.Arms[0].Pattern)
	assert.NotNil(t, m.Arms[0].Cond)
}

func TestParser_Imports(t *testing.T) {
	p := New("import std:io:stdout")
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 1)
	imp, ok := prog.Stmts[0].(*ast.ImportStmt)
	require.True(t, ok)
	assert.Equal(t, []string{"std", "io", "stdout"}, imp.Segments)
	assert.Equal(t, "stdout", imp.BindingName())

	p = New("import std:io:stdout as out")
	prog, err = p.ParseProgram()
	require.NoError(t, err)
	imp = prog.Stmts[0].(*ast.ImportStmt)
	assert.Equal(t, "out", imp.BindingName())
}

func TestParser_InvalidImportPath(t *testing.T) {
	p := New(`import 5`)
	_, err := p.ParseProgram()
	require.Error(t, err)
	perr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidImportPath, perr.Kind)

	p = New(`import a:5`)
	_, err = p.ParseProgram()
	require.Error(t, err)
	assert.Equal(t, ErrInvalidImportPath, err.(*Error).Kind)
}

func TestParser_SingleExportEnforced(t *testing.T) {
	p := New(`export { a: 1 }`)
	_, err := p.ParseProgram()
	require.NoError(t, err)

	p = New(`export { a: 1 } export { b: 2 }`)
	_, err = p.ParseProgram()
	require.Error(t, err)
	perr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrMultipleExports, perr.Kind)
}

func TestParser_LabeledLoopAndLoopThrough(t *testing.T) {
	p := New(`loop as outer { break outer }`)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	loop, ok := prog.Stmts[0].(*ast.LoopStmt)
	require.True(t, ok)
	assert.Equal(t, "outer", loop.Label)

	p = New(`loop through xs with k, v as L { continue L }`)
	prog, err = p.ParseProgram()
	require.NoError(t, err)
	lt, ok := prog.Stmts[0].(*ast.LoopThroughStmt)
	require.True(t, ok)
	assert.Equal(t, "L", lt.Label)
	assert.Equal(t, ast.LoopBindingTwo, lt.Bindings.Kind)
	assert.Equal(t, "k", lt.Bindings.First)
	assert.Equal(t, "v", lt.Bindings.Second)
}

func TestParser_BreakAndContinueTakeBareIdentifierLabels(t *testing.T) {
	p := New(`loop as outer { break outer }`)
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	loop := prog.Stmts[0].(*ast.LoopStmt)
	require.Len(t, loop.Body.Stmts, 1)
	br, ok := loop.Body.Stmts[0].(*ast.BreakStmt)
	require.True(t, ok)
	assert.Equal(t, "outer", br.Label)

	p = New(`loop as outer {
	break
	continue outer
}`)
	prog, err = p.ParseProgram()
	require.NoError(t, err)
	loop = prog.Stmts[0].(*ast.LoopStmt)
	require.Len(t, loop.Body.Stmts, 2)
	assert.Equal(t, "", loop.Body.Stmts[0].(*ast.BreakStmt).Label)
	assert.Equal(t, "outer", loop.Body.Stmts[1].(*ast.ContinueStmt).Label)
}

func TestParser_ZeroParameterFunctionLiteral(t *testing.T) {
	// `||` lexes as a single OrOr token; the parser must still recognize
	// it as an empty parameter list in expression-head position.
	expr := parseExpr(t, `|| { 42 }`)
	fn, ok := expr.(*ast.FuncLit)
	require.True(t, ok)
	assert.Empty(t, fn.Params)
}

func TestParser_MethodCallRequiresParens(t *testing.T) {
	p := New(`x::name`)
	_, err := p.ParseProgram()
	require.Error(t, err)
}

func TestParser_FunctionLiteralWithDefault(t *testing.T) {
	expr := parseExpr(t, `|a, b = 2| { a + b }`)
	fn, ok := expr.(*ast.FuncLit)
	require.True(t, ok)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Nil(t, fn.Params[0].Default)
	assert.Equal(t, "b", fn.Params[1].Name)
	assert.NotNil(t, fn.Params[1].Default)
}

func TestParser_TwoPassesOverTheSameSourceAgreeStructurally(t *testing.T) {
	// Parsing is deterministic: two independent lex+parse passes of the
	// same input produce structurally equal trees, spans included (the
	// input bytes are identical, so the spans are too).
	srcs := []string{
		`x = 1; y = x ^ 2 ^ 3`,
		`make = |b| { |x| { b + x } }
result = make(10)(7)`,
		"loop through { \"a\": 1 } with k, v as L { continue L }",
		"`cmd ${x}` | f() | g()",
		`match n { (1, 2): "pair", /re/: "regex", _: { 1: 2 } }`,
	}
	for _, src := range srcs {
		first, err := New(src).ParseProgram()
		require.NoError(t, err, "source: %s", src)
		second, err := New(src).ParseProgram()
		require.NoError(t, err)
		assert.True(t, reflect.DeepEqual(first, second), "two parses of %q must agree", src)
	}
}

func TestParser_IndexSliceMapAccessMethodCall(t *testing.T) {
	idx := parseExpr(t, "a[0]")
	_, ok := idx.(*ast.Index)
	assert.True(t, ok)

	sl := parseExpr(t, "a[1:2]")
	_, ok = sl.(*ast.Slice)
	assert.True(t, ok)

	ma := parseExpr(t, "a:name")
	_, ok = ma.(*ast.MapAccess)
	assert.True(t, ok)

	mc := parseExpr(t, "a::upper()")
	_, ok = mc.(*ast.MethodCall)
	assert.True(t, ok)
}
