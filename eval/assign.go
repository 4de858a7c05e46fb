package eval

import (
	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/token"
	"github.com/go-sei/sei/value"
)

func (e *Evaluator) evalAssign(x *ast.Assign, env value.Env) (value.Value, error) {
	v, err := e.evalExpr(x.Value, env)
	if err != nil {
		return nil, err
	}
	v = value.Copy(v)
	if err := e.assignTo(x.Target, v, env); err != nil {
		return nil, err
	}
	return v, nil
}

// assignTo implements the "rebind, not shadow" rule for a bare
// identifier target, read-modify-write for Index/MapAccess targets
// (the container is resolved live via resolveMutable rather than
// through the copying expression path, so a nested `a[i][j] = v` or
// `a:k:m = v` lands in the value the root identifier actually holds),
// and element-wise recursive destructuring for a tuple target.
func (e *Evaluator) assignTo(target ast.Expression, v value.Value, env value.Env) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if !env.Rebind(t.Name, v) {
			env.DefineLocal(t.Name, v)
		}
		return nil
	case *ast.Index:
		containerVal, err := e.resolveMutable(t.Target, env)
		if err != nil {
			return err
		}
		idxVal, err := e.evalExpr(t.Index, env)
		if err != nil {
			return err
		}
		switch c := containerVal.(type) {
		case *value.List:
			i, err := normalizeIndex(idxVal, len(c.Elements), t.Span())
			if err != nil {
				return err
			}
			c.Elements[i] = v
			return nil
		case *value.Map:
			if err := c.Set(value.Copy(idxVal), v); err != nil {
				return rtErr(ErrInvalidKeyType, t.Span(), "%s", err.Error())
			}
			return nil
		default:
			return rtErr(ErrInvalidOperation, t.Span(), "cannot assign into a %s", containerVal.Kind())
		}
	case *ast.MapAccess:
		containerVal, err := e.resolveMutable(t.Target, env)
		if err != nil {
			return err
		}
		m, ok := containerVal.(*value.Map)
		if !ok {
			return rtErr(ErrInvalidOperation, t.Span(), "cannot assign :%s into a %s", t.Name, containerVal.Kind())
		}
		if err := m.Set(value.String(t.Name), v); err != nil {
			return rtErr(ErrInvalidKeyType, t.Span(), "%s", err.Error())
		}
		return nil
	case *ast.TupleLit:
		elems, err := destructureElements(v, len(t.Elements), t.Span())
		if err != nil {
			return err
		}
		for i, sub := range t.Elements {
			if err := e.assignTo(sub, elems[i], env); err != nil {
				return err
			}
		}
		return nil
	default:
		return rtErr(ErrInvalidOperation, target.Span(), "invalid assignment target")
	}
}

// resolveMutable walks an assignment target's container chain without
// the copy every ordinary read takes, so a nested write (`a[i][j] = v`,
// `a:k:m = v`, `a[i]:k = v`) reaches the value the root identifier
// actually holds — the read-modify-write the copying expression path
// cannot express. Only chains rooted at an identifier and built from
// Index/MapAccess steps (grouping aside) are writable; any other root
// is rejected with InvalidOperation. Intermediate map keys must already
// exist (KeyNotFound otherwise); only the final accessor, handled by
// assignTo, may create one.
func (e *Evaluator) resolveMutable(expr ast.Expression, env value.Env) (value.Value, error) {
	switch t := expr.(type) {
	case *ast.Identifier:
		v, ok := env.Lookup(t.Name)
		if !ok {
			return nil, rtErr(ErrUndefinedVariable, t.Span(), "undefined variable %q", t.Name)
		}
		return v, nil
	case *ast.Grouping:
		return e.resolveMutable(t.Inner, env)
	case *ast.Index:
		parent, err := e.resolveMutable(t.Target, env)
		if err != nil {
			return nil, err
		}
		idxVal, err := e.evalExpr(t.Index, env)
		if err != nil {
			return nil, err
		}
		switch c := parent.(type) {
		case *value.List:
			i, err := normalizeIndex(idxVal, len(c.Elements), t.Span())
			if err != nil {
				return nil, err
			}
			return c.Elements[i], nil
		case *value.Map:
			if _, err := value.NewMapKey(idxVal); err != nil {
				return nil, rtErr(ErrInvalidKeyType, t.Span(), "%s", err.Error())
			}
			v, ok := c.Get(idxVal)
			if !ok {
				return nil, rtErr(ErrKeyNotFound, t.Span(), "key not found: %s", idxVal.String())
			}
			return v, nil
		default:
			return nil, rtErr(ErrInvalidOperation, t.Span(), "cannot assign through a %s", parent.Kind())
		}
	case *ast.MapAccess:
		parent, err := e.resolveMutable(t.Target, env)
		if err != nil {
			return nil, err
		}
		m, ok := parent.(*value.Map)
		if !ok {
			return nil, rtErr(ErrInvalidOperation, t.Span(), "cannot assign through a %s", parent.Kind())
		}
		v, ok := m.Get(value.String(t.Name))
		if !ok {
			return nil, rtErr(ErrKeyNotFound, t.Span(), "key not found: %q", t.Name)
		}
		return v, nil
	default:
		return nil, rtErr(ErrInvalidOperation, expr.Span(), "invalid assignment target")
	}
}

func destructureElements(v value.Value, want int, span token.Span) ([]value.Value, error) {
	var elems []value.Value
	switch x := v.(type) {
	case *value.Tuple:
		elems = x.Elements
	case *value.List:
		elems = x.Elements
	default:
		return nil, rtErr(ErrTypeError, span, "cannot destructure a %s", v.Kind())
	}
	if len(elems) != want {
		return nil, rtErr(ErrArityMismatch, span, "destructuring assignment expects %d elements, got %d", want, len(elems))
	}
	out := make([]value.Value, want)
	for i, el := range elems {
		out[i] = value.Copy(el)
	}
	return out, nil
}

func (e *Evaluator) evalCompoundAssign(x *ast.CompoundAssign, env value.Env) (value.Value, error) {
	cur, err := e.evalExpr(x.Target, env)
	if err != nil {
		return nil, err
	}
	rv, err := e.evalExpr(x.Value, env)
	if err != nil {
		return nil, err
	}
	var newVal value.Value
	if x.Op == token.Plus {
		newVal, err = evalPlus(cur, rv, x.Span())
	} else {
		newVal, err = evalArith(x.Op, cur, rv, x.Span())
	}
	if err != nil {
		return nil, err
	}
	if err := e.assignTo(x.Target, newVal, env); err != nil {
		return nil, err
	}
	return newVal, nil
}

func (e *Evaluator) evalPostfixIncDec(x *ast.PostfixIncDec, env value.Env) (value.Value, error) {
	ident, ok := x.Target.(*ast.Identifier)
	if !ok {
		return nil, rtErr(ErrInvalidOperation, x.Span(), "++/-- requires an identifier target")
	}
	cur, ok := env.Lookup(ident.Name)
	if !ok {
		return nil, rtErr(ErrUndefinedVariable, x.Span(), "undefined variable %q", ident.Name)
	}
	n, ok := cur.(value.Number)
	if !ok {
		return nil, rtErr(ErrTypeError, x.Span(), "++/-- requires a number, got %s", cur.Kind())
	}
	delta := value.Number(1)
	if x.Op == token.MinusMinus {
		delta = -1
	}
	updated := n + delta
	if !env.Rebind(ident.Name, updated) {
		env.DefineLocal(ident.Name, updated)
	}
	return updated, nil
}
