// Package ast defines Sei's abstract syntax tree: tagged-variant expression
// and statement nodes, all carrying a source span. The parser builds these;
// the evaluator walks them. Grounded on the teacher's parser/node.go (a
// Node/ExpressionNode/StatementNode interface family), split into its own
// package per the spec's component boundary and generalized to Sei's
// richer expression grammar (pipelines, match, interpolated templates).
package ast

import "github.com/go-sei/sei/token"

// Node is implemented by every AST node.
type Node interface {
	Span() token.Span
}

// Expression is any AST node that produces a Value when evaluated.
type Expression interface {
	Node
	exprNode()
}

// Statement is any AST node executed for effect.
type Statement interface {
	Node
	stmtNode()
}

// Pattern is a match-arm pattern (see pattern.go).
type Pattern interface {
	Node
	patternNode()
}

// Base embeds a span into every concrete node so each only has to declare
// it once.
type Base struct{ Sp token.Span }

func (b Base) Span() token.Span { return b.Sp }

// ---- Literals ----

type NumberLit struct {
	Base
	Value float64
}

type BoolLit struct {
	Base
	Value bool
}

type NilLit struct{ Base }

type Identifier struct {
	Base
	Name string
}

// TemplatePart is one piece of an interpolated string or shell-command
// template: either literal text or an embedded expression.
type TemplatePart struct {
	Text string     // set when Expr == nil
	Expr Expression // set when this part is an interpolation
}

// StringLit is a (possibly interpolated) string literal.
type StringLit struct {
	Base
	Parts []TemplatePart
}

// ShellLit is a (possibly interpolated) backtick shell-command literal.
type ShellLit struct {
	Base
	Parts []TemplatePart
}

type ListLit struct {
	Base
	Elements []Expression
}

type MapPair struct {
	Key   Expression
	Value Expression
}

type MapLit struct {
	Base
	Pairs []MapPair
}

type TupleLit struct {
	Base
	Elements []Expression
}

type RegexLit struct {
	Base
	Pattern string
}

// PipelineExpr is a `|`-joined byte-stream pipeline: `stage1 | stage2 |
// stage3`. Every stage after the first receives the previous stage's
// output as its input: a shell stage on its stdin, a function stage
// through an io_stdin binding defined in a child of its closure scope.
type PipelineExpr struct {
	Base
	Stages []Expression
}

// ---- Operators ----

type Unary struct {
	Base
	Op      token.Kind
	Operand Expression
}

type Binary struct {
	Base
	Op    token.Kind
	Left  Expression
	Right Expression
}

type Grouping struct {
	Base
	Inner Expression
}

// PostfixIncDec is target++ / target--. The target must be an identifier at
// evaluation time (spec.md §4.3).
type PostfixIncDec struct {
	Base
	Op     token.Kind
	Target Expression
}

type Call struct {
	Base
	Callee Expression
	Args   []Expression
}

type Index struct {
	Base
	Target Expression
	Index  Expression
}

// Slice is target[start:end]; Start/End are nil when omitted.
type Slice struct {
	Base
	Target Expression
	Start  Expression
	End    Expression
}

// MapAccess is target:ident, equivalent to indexing by the string literal
// "ident".
type MapAccess struct {
	Base
	Target Expression
	Name   string
}

// MethodCall is target::name(args).
type MethodCall struct {
	Base
	Target Expression
	Name   string
	Args   []Expression
}

type Assign struct {
	Base
	Target Expression
	Value  Expression
}

// CompoundAssign is target op= value, desugared at evaluation time into
// target = target op value.
type CompoundAssign struct {
	Base
	Op     token.Kind // the underlying binary op, e.g. Plus for PlusEq
	Target Expression
	Value  Expression
}

type Param struct {
	Name    string
	Default Expression // nil if no default
}

type FuncLit struct {
	Base
	Params []Param
	Body   Statement // *BlockStmt for braced bodies, any Statement for bare-expr bodies
}

// MatchArm is one `pattern : body` clause. For a conditional match (no
// scrutinee), Pattern is nil and Cond holds the boolean condition
// expression instead.
type MatchArm struct {
	Pattern Pattern
	Cond    Expression
	Body    MatchBody
}

// MatchBody models the three shapes a match-arm body can take: a bare
// expression (Expr, which also covers a brace-disambiguated map literal),
// a control-flow statement (Stmt: return/break/continue), or a block of
// statements (Block).
type MatchBody struct {
	Expr  Expression
	Stmt  Statement
	Block *BlockStmt
}

// MatchExpr is `match scrutinee? { arm, ... }`. Scrutinee is nil for a
// conditional match.
type MatchExpr struct {
	Base
	Scrutinee Expression
	Arms      []MatchArm
}

func (NumberLit) exprNode()      {}
func (BoolLit) exprNode()        {}
func (NilLit) exprNode()         {}
func (Identifier) exprNode()     {}
func (StringLit) exprNode()      {}
func (ShellLit) exprNode()       {}
func (ListLit) exprNode()        {}
func (MapLit) exprNode()         {}
func (TupleLit) exprNode()       {}
func (RegexLit) exprNode()       {}
func (PipelineExpr) exprNode()   {}
func (Unary) exprNode()          {}
func (Binary) exprNode()         {}
func (Grouping) exprNode()       {}
func (PostfixIncDec) exprNode()  {}
func (Call) exprNode()           {}
func (Index) exprNode()          {}
func (Slice) exprNode()          {}
func (MapAccess) exprNode()      {}
func (MethodCall) exprNode()     {}
func (Assign) exprNode()         {}
func (CompoundAssign) exprNode() {}
func (FuncLit) exprNode()        {}
func (MatchExpr) exprNode()      {}
