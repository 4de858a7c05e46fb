package eval

import (
	"strings"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/builtin"
	"github.com/go-sei/sei/strtemplate"
	"github.com/go-sei/sei/token"
	"github.com/go-sei/sei/value"
)

func (e *Evaluator) evalExpr(expr ast.Expression, env value.Env) (value.Value, error) {
	switch x := expr.(type) {
	case *ast.NumberLit:
		return value.Number(x.Value), nil
	case *ast.BoolLit:
		return value.Boolean(x.Value), nil
	case *ast.NilLit:
		return value.NilValue, nil
	case *ast.Identifier:
		v, ok := env.Lookup(x.Name)
		if !ok {
			return nil, rtErr(ErrUndefinedVariable, x.Span(), "undefined variable %q", x.Name)
		}
		return v, nil
	case *ast.StringLit:
		s, err := strtemplate.Render(x.Parts, func(p ast.Expression) (value.Value, error) { return e.evalExpr(p, env) })
		if err != nil {
			return nil, err
		}
		return value.String(s), nil
	case *ast.ShellLit:
		return e.evalShellLit(x, env)
	case *ast.ListLit:
		elems := make([]value.Value, len(x.Elements))
		for i, el := range x.Elements {
			v, err := e.evalExpr(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = value.Copy(v)
		}
		return value.NewList(elems), nil
	case *ast.TupleLit:
		elems := make([]value.Value, len(x.Elements))
		for i, el := range x.Elements {
			v, err := e.evalExpr(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = value.Copy(v)
		}
		return value.NewTuple(elems), nil
	case *ast.MapLit:
		m := value.NewMap()
		for _, pair := range x.Pairs {
			kv, err := e.evalExpr(pair.Key, env)
			if err != nil {
				return nil, err
			}
			vv, err := e.evalExpr(pair.Value, env)
			if err != nil {
				return nil, err
			}
			if err := m.Set(value.Copy(kv), value.Copy(vv)); err != nil {
				return nil, rtErr(ErrInvalidKeyType, pair.Key.Span(), "%s", err.Error())
			}
		}
		return m, nil
	case *ast.RegexLit:
		return compileRegex(x.Pattern, x.Span())
	case *ast.Grouping:
		return e.evalExpr(x.Inner, env)
	case *ast.Unary:
		return e.evalUnary(x, env)
	case *ast.Binary:
		return e.evalBinary(x, env)
	case *ast.PostfixIncDec:
		return e.evalPostfixIncDec(x, env)
	case *ast.Call:
		return e.evalCall(x, env)
	case *ast.Index:
		return e.evalIndex(x, env)
	case *ast.Slice:
		return e.evalSlice(x, env)
	case *ast.MapAccess:
		return e.evalMapAccess(x, env)
	case *ast.MethodCall:
		return e.evalMethodCall(x, env)
	case *ast.Assign:
		return e.evalAssign(x, env)
	case *ast.CompoundAssign:
		return e.evalCompoundAssign(x, env)
	case *ast.FuncLit:
		return &value.Function{Params: x.Params, Body: x.Body, Env: env}, nil
	case *ast.MatchExpr:
		return e.evalMatch(x, env)
	case *ast.PipelineExpr:
		return e.evalPipeline(x, env)
	default:
		return nil, rtErr(ErrTypeError, expr.Span(), "unsupported expression %T", expr)
	}
}

func (e *Evaluator) evalShellLit(x *ast.ShellLit, env value.Env) (value.Value, error) {
	cmd, err := strtemplate.Render(x.Parts, func(p ast.Expression) (value.Value, error) { return e.evalExpr(p, env) })
	if err != nil {
		return nil, err
	}
	if e.Shell == nil {
		return nil, rtErr(ErrTypeError, x.Span(), "no shell bridge configured")
	}
	out, err := e.Shell.Run(cmd, nil)
	if err != nil {
		return nil, rtErr(ErrShellError, x.Span(), "%s", err.Error())
	}
	return value.String(strings.TrimRight(string(out), "\n")), nil
}

// ---- index / slice / map access ----

func (e *Evaluator) evalIndex(x *ast.Index, env value.Env) (value.Value, error) {
	tv, err := e.evalExpr(x.Target, env)
	if err != nil {
		return nil, err
	}
	iv, err := e.evalExpr(x.Index, env)
	if err != nil {
		return nil, err
	}
	return indexInto(tv, iv, x.Span())
}

func indexInto(tv, iv value.Value, span token.Span) (value.Value, error) {
	switch t := tv.(type) {
	case *value.List:
		i, err := normalizeIndex(iv, len(t.Elements), span)
		if err != nil {
			return nil, err
		}
		return value.Copy(t.Elements[i]), nil
	case *value.Tuple:
		i, err := normalizeIndex(iv, len(t.Elements), span)
		if err != nil {
			return nil, err
		}
		return value.Copy(t.Elements[i]), nil
	case value.String:
		i, err := normalizeIndex(iv, len([]rune(string(t))), span)
		if err != nil {
			return nil, err
		}
		return value.String([]rune(string(t))[i]), nil
	case *value.Map:
		if _, err := value.NewMapKey(iv); err != nil {
			return nil, rtErr(ErrInvalidKeyType, span, "%s", err.Error())
		}
		v, ok := t.Get(iv)
		if !ok {
			return nil, rtErr(ErrKeyNotFound, span, "key not found: %s", iv.String())
		}
		return value.Copy(v), nil
	default:
		return nil, rtErr(ErrTypeError, span, "cannot index a %s", tv.Kind())
	}
}

func normalizeIndex(iv value.Value, length int, span token.Span) (int, error) {
	n, ok := iv.(value.Number)
	if !ok {
		return 0, rtErr(ErrTypeError, span, "index must be a number, got %s", iv.Kind())
	}
	i := int(n)
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, rtErr(ErrIndexOutOfBounds, span, "index %d out of bounds (length %d)", int(n), length)
	}
	return i, nil
}

func (e *Evaluator) evalSlice(x *ast.Slice, env value.Env) (value.Value, error) {
	tv, err := e.evalExpr(x.Target, env)
	if err != nil {
		return nil, err
	}
	length, err := sliceableLength(tv, x.Span())
	if err != nil {
		return nil, err
	}
	start, err := sliceBound(x.Start, 0, length, env, e)
	if err != nil {
		return nil, err
	}
	end, err := sliceBound(x.End, length, length, env, e)
	if err != nil {
		return nil, err
	}
	if start > end {
		start = end
	}
	switch t := tv.(type) {
	case *value.List:
		out := make([]value.Value, end-start)
		for i := start; i < end; i++ {
			out[i-start] = value.Copy(t.Elements[i])
		}
		return value.NewList(out), nil
	case value.String:
		runes := []rune(string(t))
		return value.String(string(runes[start:end])), nil
	default:
		return nil, rtErr(ErrTypeError, x.Span(), "cannot slice a %s", tv.Kind())
	}
}

func sliceableLength(v value.Value, span token.Span) (int, error) {
	switch t := v.(type) {
	case *value.List:
		return len(t.Elements), nil
	case value.String:
		return len([]rune(string(t))), nil
	default:
		return 0, rtErr(ErrTypeError, span, "cannot slice a %s", v.Kind())
	}
}

func sliceBound(expr ast.Expression, dflt, length int, env value.Env, e *Evaluator) (int, error) {
	if expr == nil {
		return clampBound(dflt, length), nil
	}
	v, err := e.evalExpr(expr, env)
	if err != nil {
		return 0, err
	}
	n, ok := v.(value.Number)
	if !ok {
		return 0, rtErr(ErrTypeError, expr.Span(), "slice bound must be a number, got %s", v.Kind())
	}
	i := int(n)
	if i < 0 {
		i += length
	}
	return clampBound(i, length), nil
}

func clampBound(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func (e *Evaluator) evalMapAccess(x *ast.MapAccess, env value.Env) (value.Value, error) {
	tv, err := e.evalExpr(x.Target, env)
	if err != nil {
		return nil, err
	}
	m, ok := tv.(*value.Map)
	if !ok {
		return nil, rtErr(ErrTypeError, x.Span(), "cannot access :%s on a %s", x.Name, tv.Kind())
	}
	v, ok := m.Get(value.String(x.Name))
	if !ok {
		return nil, rtErr(ErrKeyNotFound, x.Span(), "key not found: %q", x.Name)
	}
	return value.Copy(v), nil
}

// ---- builtin-call plumbing ----

func (e *Evaluator) evalCall(x *ast.Call, env value.Env) (value.Value, error) {
	calleeVal, err := e.evalExpr(x.Callee, env)
	if err != nil {
		return nil, err
	}
	fn, ok := calleeVal.(*value.Function)
	if !ok {
		return nil, rtErr(ErrTypeError, x.Span(), "cannot call a %s", calleeVal.Kind())
	}
	args := make([]value.Value, len(x.Args))
	for i, a := range x.Args {
		v, err := e.evalExpr(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = value.Copy(v)
	}
	if v, err, isBuiltin := builtin.Call(fn, args); isBuiltin {
		if err != nil {
			return nil, rtErr(ErrTypeError, x.Span(), "%s", err.Error())
		}
		return v, nil
	}
	return e.callClosure(fn, args, env, x.Span())
}
