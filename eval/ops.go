package eval

import (
	"math"
	"regexp"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/environ"
	"github.com/go-sei/sei/token"
	"github.com/go-sei/sei/value"
)

func (e *Evaluator) evalUnary(x *ast.Unary, env value.Env) (value.Value, error) {
	v, err := e.evalExpr(x.Operand, env)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case token.Minus:
		n, ok := v.(value.Number)
		if !ok {
			return nil, rtErr(ErrTypeError, x.Span(), "unary - requires a number, got %s", v.Kind())
		}
		return -n, nil
	case token.Bang:
		b, ok := v.(value.Boolean)
		if !ok {
			return nil, rtErr(ErrTypeError, x.Span(), "unary ! requires a boolean, got %s", v.Kind())
		}
		return !b, nil
	default:
		return nil, rtErr(ErrTypeError, x.Span(), "unsupported unary operator %s", x.Op)
	}
}

func (e *Evaluator) evalBinary(x *ast.Binary, env value.Env) (value.Value, error) {
	// && and || short-circuit: the right operand is only evaluated when
	// the left doesn't already decide the result.
	if x.Op == token.AndAnd || x.Op == token.OrOr {
		lv, err := e.evalExpr(x.Left, env)
		if err != nil {
			return nil, err
		}
		lb, ok := lv.(value.Boolean)
		if !ok {
			return nil, rtErr(ErrTypeError, x.Left.Span(), "%s requires booleans, got %s", x.Op, lv.Kind())
		}
		if x.Op == token.AndAnd && !bool(lb) {
			return value.Boolean(false), nil
		}
		if x.Op == token.OrOr && bool(lb) {
			return value.Boolean(true), nil
		}
		rv, err := e.evalExpr(x.Right, env)
		if err != nil {
			return nil, err
		}
		rb, ok := rv.(value.Boolean)
		if !ok {
			return nil, rtErr(ErrTypeError, x.Right.Span(), "%s requires booleans, got %s", x.Op, rv.Kind())
		}
		return rb, nil
	}

	lv, err := e.evalExpr(x.Left, env)
	if err != nil {
		return nil, err
	}
	rv, err := e.evalExpr(x.Right, env)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case token.Plus:
		return evalPlus(lv, rv, x.Span())
	case token.Minus, token.Star, token.Slash, token.Percent, token.Caret:
		return evalArith(x.Op, lv, rv, x.Span())
	case token.EqEq:
		return value.Boolean(value.Equal(lv, rv)), nil
	case token.NotEq:
		return value.Boolean(!value.Equal(lv, rv)), nil
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return evalCompare(x.Op, lv, rv, x.Span())
	case token.DotDot, token.DotDotEq:
		return evalRange(x.Op, lv, rv, x.Span())
	case token.Tilde, token.NotTilde:
		return evalRegexMatch(x.Op, lv, rv, x.Span())
	case token.ComposeFwd:
		return composeFunctions(lv, rv, true, x.Span())
	case token.ComposeBack:
		return composeFunctions(lv, rv, false, x.Span())
	default:
		return nil, rtErr(ErrTypeError, x.Span(), "unsupported binary operator %s", x.Op)
	}
}

func evalPlus(lv, rv value.Value, span token.Span) (value.Value, error) {
	switch l := lv.(type) {
	case value.Number:
		r, ok := rv.(value.Number)
		if !ok {
			return nil, rtErr(ErrTypeError, span, "cannot add %s and %s", lv.Kind(), rv.Kind())
		}
		return l + r, nil
	case value.String:
		r, ok := rv.(value.String)
		if !ok {
			return nil, rtErr(ErrTypeError, span, "cannot add %s and %s", lv.Kind(), rv.Kind())
		}
		return l + r, nil
	case *value.List:
		r, ok := rv.(*value.List)
		if !ok {
			return nil, rtErr(ErrTypeError, span, "cannot add %s and %s", lv.Kind(), rv.Kind())
		}
		out := make([]value.Value, 0, len(l.Elements)+len(r.Elements))
		for _, e := range l.Elements {
			out = append(out, value.Copy(e))
		}
		for _, e := range r.Elements {
			out = append(out, value.Copy(e))
		}
		return value.NewList(out), nil
	default:
		return nil, rtErr(ErrTypeError, span, "cannot add %s and %s", lv.Kind(), rv.Kind())
	}
}

func evalArith(op token.Kind, lv, rv value.Value, span token.Span) (value.Value, error) {
	l, ok := lv.(value.Number)
	if !ok {
		return nil, rtErr(ErrTypeError, span, "%s requires numbers, got %s", op, lv.Kind())
	}
	r, ok := rv.(value.Number)
	if !ok {
		return nil, rtErr(ErrTypeError, span, "%s requires numbers, got %s", op, rv.Kind())
	}
	switch op {
	case token.Minus:
		return l - r, nil
	case token.Star:
		return l * r, nil
	case token.Slash:
		if r == 0 {
			return nil, rtErr(ErrInvalidOperation, span, "division by zero")
		}
		return l / r, nil
	case token.Percent:
		if r == 0 {
			return nil, rtErr(ErrInvalidOperation, span, "division by zero")
		}
		return value.Number(math.Mod(float64(l), float64(r))), nil
	case token.Caret:
		return value.Number(math.Pow(float64(l), float64(r))), nil
	}
	panic("unreachable")
}

func evalCompare(op token.Kind, lv, rv value.Value, span token.Span) (value.Value, error) {
	c, err := value.Compare(lv, rv)
	if err != nil {
		return nil, rtErr(ErrTypeError, span, "%s", err.Error())
	}
	switch op {
	case token.Lt:
		return value.Boolean(c < 0), nil
	case token.LtEq:
		return value.Boolean(c <= 0), nil
	case token.Gt:
		return value.Boolean(c > 0), nil
	case token.GtEq:
		return value.Boolean(c >= 0), nil
	}
	panic("unreachable")
}

// evalRange materializes a..b / a..=b into a List of integer Numbers. A
// non-chaining operator (spec.md §4.2): the result is always a concrete
// List, never a lazy range object, so `0..2+3` parses as `0..(2+3)` and
// evaluates to [0,1,2,3,4] rather than re-entering range parsing.
func evalRange(op token.Kind, lv, rv value.Value, span token.Span) (value.Value, error) {
	l, ok := lv.(value.Number)
	if !ok {
		return nil, rtErr(ErrTypeError, span, "range bounds must be numbers, got %s", lv.Kind())
	}
	r, ok := rv.(value.Number)
	if !ok {
		return nil, rtErr(ErrTypeError, span, "range bounds must be numbers, got %s", rv.Kind())
	}
	start, end := int(l), int(r)
	if op == token.DotDotEq {
		end++
	}
	if end < start {
		return value.NewList(nil), nil
	}
	out := make([]value.Value, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, value.Number(i))
	}
	return value.NewList(out), nil
}

func evalRegexMatch(op token.Kind, lv, rv value.Value, span token.Span) (value.Value, error) {
	s, ok := lv.(value.String)
	if !ok {
		return nil, rtErr(ErrTypeError, span, "~ requires a string on the left, got %s", lv.Kind())
	}
	re, ok := rv.(*value.Regex)
	if !ok {
		return nil, rtErr(ErrTypeError, span, "~ requires a regex on the right, got %s", rv.Kind())
	}
	matched := re.Compiled.MatchString(string(s))
	if op == token.NotTilde {
		matched = !matched
	}
	return value.Boolean(matched), nil
}

func compileRegex(pattern string, span token.Span) (value.Value, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, rtErr(ErrRegexError, span, "invalid regex /%s/: %s", pattern, err.Error())
	}
	return &value.Regex{Source: pattern, Compiled: re}, nil
}

// composeFunctions builds a new closure computing g(f(x)) (forward,
// f >> g) or f(g(x)) (backward, f << g) without needing any new Function
// representation: the composed body is an ordinary two-call AST
// evaluated against a tiny env that captures f and g under reserved
// names no surface syntax can spell.
func composeFunctions(lv, rv value.Value, forward bool, span token.Span) (value.Value, error) {
	f, ok := lv.(*value.Function)
	if !ok {
		return nil, rtErr(ErrTypeError, span, "composition requires functions, got %s", lv.Kind())
	}
	g, ok := rv.(*value.Function)
	if !ok {
		return nil, rtErr(ErrTypeError, span, "composition requires functions, got %s", rv.Kind())
	}
	outer, inner := g, f
	if !forward {
		outer, inner = f, g
	}
	env := environ.New()
	env.DefineLocal("__compose_outer__", outer)
	env.DefineLocal("__compose_inner__", inner)
	body := &ast.ExprStmt{
		Expr: &ast.Call{
			Callee: &ast.Identifier{Name: "__compose_outer__"},
			Args: []ast.Expression{
				&ast.Call{
					Callee: &ast.Identifier{Name: "__compose_inner__"},
					Args:   []ast.Expression{&ast.Identifier{Name: "__compose_arg__"}},
				},
			},
		},
	}
	return &value.Function{
		Params: []ast.Param{{Name: "__compose_arg__"}},
		Body:   body,
		Env:    env,
	}, nil
}

