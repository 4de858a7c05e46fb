package eval

import (
	"regexp"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/value"
)

func (e *Evaluator) evalMatch(x *ast.MatchExpr, env value.Env) (value.Value, error) {
	if x.Scrutinee != nil {
		sv, err := e.evalExpr(x.Scrutinee, env)
		if err != nil {
			return nil, err
		}
		for _, arm := range x.Arms {
			ok, err := matchPattern(arm.Pattern, sv)
			if err != nil {
				return nil, err
			}
			if ok {
				return e.evalMatchBody(arm.Body, env)
			}
		}
		return value.NilValue, nil
	}
	for _, arm := range x.Arms {
		cv, err := e.evalExpr(arm.Cond, env)
		if err != nil {
			return nil, err
		}
		cb, ok := cv.(value.Boolean)
		if !ok {
			return nil, rtErr(ErrConditionalMatch, arm.Cond.Span(), "match condition must be a boolean, got %s", cv.Kind())
		}
		if bool(cb) {
			return e.evalMatchBody(arm.Body, env)
		}
	}
	return value.NilValue, nil
}

func (e *Evaluator) evalMatchBody(body ast.MatchBody, env value.Env) (value.Value, error) {
	switch {
	case body.Stmt != nil:
		return e.execStmt(body.Stmt, env)
	case body.Block != nil:
		return e.execStmt(body.Block, env)
	case body.Expr != nil:
		return e.evalExpr(body.Expr, env)
	default:
		return value.NilValue, nil
	}
}

// matchPattern never binds names: every pattern shape the grammar allows
// (wildcard, literal, tuple, regex) is purely a shape/value test, so no
// environment is needed to evaluate it — only to evaluate a literal
// pattern's own constant sub-expression, which by construction
// (parser.parsePatternLiteral) never references an identifier.
func matchPattern(pat ast.Pattern, v value.Value) (bool, error) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return true, nil
	case *ast.LiteralPattern:
		lv, err := literalPatternValue(p.Value)
		if err != nil {
			return false, err
		}
		return value.Equal(lv, v), nil
	case *ast.TuplePattern:
		tv, ok := v.(*value.Tuple)
		if !ok || len(tv.Elements) != len(p.Elements) {
			return false, nil
		}
		for i, sub := range p.Elements {
			ok, err := matchPattern(sub, tv.Elements[i])
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	case *ast.RegexPattern:
		s, ok := v.(value.String)
		if !ok {
			return false, nil
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return false, rtErr(ErrRegexError, p.Span(), "invalid regex /%s/: %s", p.Pattern, err.Error())
		}
		return re.MatchString(string(s)), nil
	default:
		return false, rtErr(ErrTypeError, pat.Span(), "unsupported pattern %T", pat)
	}
}

// literalPatternValue evaluates the constant expression behind a
// LiteralPattern: a number, boolean, nil, string literal, or a unary
// minus applied to a number literal (the only form
// parser.parsePatternLiteral accepts for negative numbers).
func literalPatternValue(expr ast.Expression) (value.Value, error) {
	switch x := expr.(type) {
	case *ast.NumberLit:
		return value.Number(x.Value), nil
	case *ast.BoolLit:
		return value.Boolean(x.Value), nil
	case *ast.NilLit:
		return value.NilValue, nil
	case *ast.StringLit:
		if len(x.Parts) == 0 {
			return value.String(""), nil
		}
		if len(x.Parts) == 1 && x.Parts[0].Expr == nil {
			return value.String(x.Parts[0].Text), nil
		}
		return nil, rtErr(ErrTypeError, expr.Span(), "pattern string literals cannot interpolate")
	case *ast.Unary:
		inner, err := literalPatternValue(x.Operand)
		if err != nil {
			return nil, err
		}
		n, ok := inner.(value.Number)
		if !ok {
			return nil, rtErr(ErrTypeError, expr.Span(), "invalid literal pattern")
		}
		return -n, nil
	default:
		return nil, rtErr(ErrTypeError, expr.Span(), "invalid literal pattern")
	}
}
