package parser

import (
	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/token"
)

// parseExpression is the grammar's single entry point, cascading down
// through every precedence level per spec.md §4.2 (tightest binds at the
// bottom of this file, loosest at the top of the cascade below).
func (p *Parser) parseExpression(ctx Context) (ast.Expression, error) {
	return p.parseAssignment(ctx)
}

// parseAssignment is the loosest (rightmost) level: `=` and the compound
// `op=` forms, right-associative.
func (p *Parser) parseAssignment(ctx Context) (ast.Expression, error) {
	left, err := p.parseBackwardApply(ctx)
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case token.Assign:
		p.advance()
		right, err := p.parseAssignment(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Base: ast.Base{Sp: token.Merge(left.Span(), right.Span())}, Target: left, Value: right}, nil
	case token.PlusEq, token.MinusEq, token.StarEq, token.SlashEq, token.PercentEq:
		op := underlyingOp(p.cur().Kind)
		p.advance()
		right, err := p.parseAssignment(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.CompoundAssign{Base: ast.Base{Sp: token.Merge(left.Span(), right.Span())}, Op: op, Target: left, Value: right}, nil
	}
	return left, nil
}

func underlyingOp(k token.Kind) token.Kind {
	switch k {
	case token.PlusEq:
		return token.Plus
	case token.MinusEq:
		return token.Minus
	case token.StarEq:
		return token.Star
	case token.SlashEq:
		return token.Slash
	case token.PercentEq:
		return token.Percent
	}
	return k
}

// parseBackwardApply handles `<|`, right-associative: `f <| g <| x` is
// `f(g(x))`.
func (p *Parser) parseBackwardApply(ctx Context) (ast.Expression, error) {
	left, err := p.parseForwardApply(ctx)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.PipeBackward {
		p.advance()
		right, err := p.parseBackwardApply(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Base: ast.Base{Sp: token.Merge(left.Span(), right.Span())}, Callee: left, Args: []ast.Expression{right}}, nil
	}
	return left, nil
}

// parseForwardApply handles `|>`, left-associative: `x |> f` is `f(x)`;
// `x |> f(a)` is `f(a, x)` (the piped value becomes the stage's trailing
// argument).
func (p *Parser) parseForwardApply(ctx Context) (ast.Expression, error) {
	left, err := p.parseStreamPipe(ctx)
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.PipeForward {
		p.advance()
		stage, err := p.parseStreamPipe(ctx)
		if err != nil {
			return nil, err
		}
		left = desugarForwardApply(left, stage)
	}
	return left, nil
}

func desugarForwardApply(piped, stage ast.Expression) ast.Expression {
	sp := token.Merge(piped.Span(), stage.Span())
	if call, ok := stage.(*ast.Call); ok {
		args := append(append([]ast.Expression{}, call.Args...), piped)
		return &ast.Call{Base: ast.Base{Sp: sp}, Callee: call.Callee, Args: args}
	}
	return &ast.Call{Base: ast.Base{Sp: sp}, Callee: stage, Args: []ast.Expression{piped}}
}

// parseStreamPipe handles `|`, Sei's byte-stream pipeline operator. Every
// `|`-joined expression is collected into a single PipelineExpr so the
// evaluator can feed each stage's output to the next across the whole
// chain at once rather than pairwise.
func (p *Parser) parseStreamPipe(ctx Context) (ast.Expression, error) {
	first, err := p.parseComposition(ctx)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.Pipe {
		return first, nil
	}
	stages := []ast.Expression{first}
	for p.cur().Kind == token.Pipe {
		p.advance()
		stage, err := p.parseComposition(ctx)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	sp := token.Merge(stages[0].Span(), stages[len(stages)-1].Span())
	return &ast.PipelineExpr{Base: ast.Base{Sp: sp}, Stages: stages}, nil
}

// parseComposition handles `>>`/`<<`, producing Binary nodes the
// evaluator turns into a new composed Function value.
func (p *Parser) parseComposition(ctx Context) (ast.Expression, error) {
	left, err := p.parseOr(ctx)
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.ComposeFwd || p.cur().Kind == token.ComposeBack {
		op := p.cur().Kind
		p.advance()
		right, err := p.parseOr(ctx)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Base: ast.Base{Sp: token.Merge(left.Span(), right.Span())}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseOr(ctx Context) (ast.Expression, error) {
	return p.parseLeftAssocBinary(ctx, p.parseAnd, token.OrOr)
}

func (p *Parser) parseAnd(ctx Context) (ast.Expression, error) {
	return p.parseLeftAssocBinary(ctx, p.parseRegexMatch, token.AndAnd)
}

func (p *Parser) parseRegexMatch(ctx Context) (ast.Expression, error) {
	return p.parseLeftAssocBinary(ctx, p.parseEquality, token.Tilde, token.NotTilde)
}

func (p *Parser) parseEquality(ctx Context) (ast.Expression, error) {
	return p.parseLeftAssocBinary(ctx, p.parseRelational, token.EqEq, token.NotEq)
}

func (p *Parser) parseRelational(ctx Context) (ast.Expression, error) {
	return p.parseLeftAssocBinary(ctx, p.parseRange, token.Lt, token.LtEq, token.Gt, token.GtEq)
}

// parseRange handles `..`/`..=`. Ranges don't chain, so only one operator
// application is consumed at this level.
func (p *Parser) parseRange(ctx Context) (ast.Expression, error) {
	left, err := p.parseAdditive(ctx)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.DotDot || p.cur().Kind == token.DotDotEq {
		op := p.cur().Kind
		p.advance()
		right, err := p.parseAdditive(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Base: ast.Base{Sp: token.Merge(left.Span(), right.Span())}, Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseAdditive(ctx Context) (ast.Expression, error) {
	return p.parseLeftAssocBinary(ctx, p.parseMultiplicative, token.Plus, token.Minus)
}

func (p *Parser) parseMultiplicative(ctx Context) (ast.Expression, error) {
	return p.parseLeftAssocBinary(ctx, p.parseUnary, token.Star, token.Slash, token.Percent)
}

// parseLeftAssocBinary is the shared shape for every strictly left-
// associative binary level: parse one operand at the next tighter level,
// then loop consuming same-level operators.
func (p *Parser) parseLeftAssocBinary(ctx Context, next func(Context) (ast.Expression, error), ops ...token.Kind) (ast.Expression, error) {
	left, err := next(ctx)
	if err != nil {
		return nil, err
	}
	for matchesAny(p.cur().Kind, ops) {
		op := p.cur().Kind
		p.advance()
		right, err := next(ctx)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Base: ast.Base{Sp: token.Merge(left.Span(), right.Span())}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func matchesAny(k token.Kind, ops []token.Kind) bool {
	for _, o := range ops {
		if k == o {
			return true
		}
	}
	return false
}

// parseUnary handles prefix `-`/`!`, recursing so `!!x` and `--x` (as two
// unary minuses, distinct from the postfix decrement token) parse.
func (p *Parser) parseUnary(ctx Context) (ast.Expression, error) {
	if p.cur().Kind == token.Minus || p.cur().Kind == token.Bang {
		op := p.cur().Kind
		start := p.cur().Span
		p.advance()
		operand, err := p.parseUnary(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.Base{Sp: token.Merge(start, operand.Span())}, Op: op, Operand: operand}, nil
	}
	return p.parsePower(ctx)
}

// parsePower handles `^`, right-associative. It and parsePostfix are the
// only two levels that consult ctx, per spec.md §4.2.
func (p *Parser) parsePower(ctx Context) (ast.Expression, error) {
	base, err := p.parsePostfix(ctx)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.Caret {
		p.advance()
		exp, err := p.parsePower(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Base: ast.Base{Sp: token.Merge(base.Span(), exp.Span())}, Op: token.Caret, Left: base, Right: exp}, nil
	}
	return base, nil
}

// parsePostfix parses a primary expression, then loops consuming postfix
// forms: call, index/slice, `::method(args)`, `:name` map-access (only in
// ContextDefault), and `++`/`--`.
func (p *Parser) parsePostfix(ctx Context) (ast.Expression, error) {
	expr, err := p.parsePrimary(ctx)
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.LParen:
			expr, err = p.finishCall(expr)
		case token.LBracket:
			expr, err = p.finishIndexOrSlice(expr)
		case token.ColonColon:
			expr, err = p.finishMethodCall(expr)
		case token.Colon:
			if ctx != ContextDefault {
				return expr, nil
			}
			expr, err = p.finishMapAccess(expr)
		case token.PlusPlus, token.MinusMinus:
			op := p.cur().Kind
			sp := token.Merge(expr.Span(), p.cur().Span)
			p.advance()
			expr = &ast.PostfixIncDec{Base: ast.Base{Sp: sp}, Op: op, Target: expr}
		default:
			return expr, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) finishCall(callee ast.Expression) (ast.Expression, error) {
	p.advance() // (
	p.skipNewlines()
	var args []ast.Expression
	for p.cur().Kind != token.RParen {
		arg, err := p.parseExpression(ContextDefault)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipNewlines()
		if p.cur().Kind == token.Comma {
			p.advance()
			p.skipNewlines()
		} else {
			break
		}
	}
	p.skipNewlines()
	end, err := p.expect(token.RParen)
	if err != nil {
		return nil, err
	}
	return &ast.Call{Base: ast.Base{Sp: token.Merge(callee.Span(), end.Span)}, Callee: callee, Args: args}, nil
}

// finishIndexOrSlice parses `target[expr]` or `target[start?:end?]`. The
// bounds expressions use ContextNoColonAccess so a bare `:` is never
// mistaken for a postfix map-access.
func (p *Parser) finishIndexOrSlice(target ast.Expression) (ast.Expression, error) {
	p.advance() // [
	var start ast.Expression
	if p.cur().Kind != token.Colon {
		e, err := p.parseExpression(ContextNoColonAccess)
		if err != nil {
			return nil, err
		}
		start = e
	}
	if p.cur().Kind == token.Colon {
		p.advance()
		var end ast.Expression
		if p.cur().Kind != token.RBracket {
			e, err := p.parseExpression(ContextNoColonAccess)
			if err != nil {
				return nil, err
			}
			end = e
		}
		closeTok, err := p.expect(token.RBracket)
		if err != nil {
			return nil, err
		}
		return &ast.Slice{Base: ast.Base{Sp: token.Merge(target.Span(), closeTok.Span)}, Target: target, Start: start, End: end}, nil
	}
	closeTok, err := p.expect(token.RBracket)
	if err != nil {
		return nil, err
	}
	return &ast.Index{Base: ast.Base{Sp: token.Merge(target.Span(), closeTok.Span)}, Target: target, Index: start}, nil
}

// finishMethodCall parses `target::name(args)`. The argument list is
// mandatory — `::` is strictly a call operator, so a bare `x::name` is a
// syntax error at the missing '('.
func (p *Parser) finishMethodCall(target ast.Expression) (ast.Expression, error) {
	p.advance() // ::
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	p.skipNewlines()
	var args []ast.Expression
	for p.cur().Kind != token.RParen {
		arg, err := p.parseExpression(ContextDefault)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipNewlines()
		if p.cur().Kind == token.Comma {
			p.advance()
			p.skipNewlines()
		} else {
			break
		}
	}
	p.skipNewlines()
	end, err := p.expect(token.RParen)
	if err != nil {
		return nil, err
	}
	return &ast.MethodCall{Base: ast.Base{Sp: token.Merge(target.Span(), end.Span)}, Target: target, Name: nameTok.Literal, Args: args}, nil
}

func (p *Parser) finishMapAccess(target ast.Expression) (ast.Expression, error) {
	p.advance() // :
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	return &ast.MapAccess{Base: ast.Base{Sp: token.Merge(target.Span(), nameTok.Span)}, Target: target, Name: nameTok.Literal}, nil
}

// parsePrimary parses a literal, identifier, grouped/tuple expression,
// list, map, function literal, or match expression.
func (p *Parser) parsePrimary(ctx Context) (ast.Expression, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.Number:
		p.advance()
		return &ast.NumberLit{Base: ast.Base{Sp: tok.Span}, Value: tok.NumberValue}, nil
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.BoolLit{Base: ast.Base{Sp: tok.Span}, Value: tok.Kind == token.KwTrue}, nil
	case token.KwNil:
		p.advance()
		return &ast.NilLit{Base: ast.Base{Sp: tok.Span}}, nil
	case token.Identifier:
		p.advance()
		return &ast.Identifier{Base: ast.Base{Sp: tok.Span}, Name: tok.Literal}, nil
	case token.Underscore:
		p.advance()
		return &ast.Identifier{Base: ast.Base{Sp: tok.Span}, Name: "_"}, nil
	case token.StringStart:
		return p.parseStringLit()
	case token.ShellStart:
		return p.parseShellLit()
	case token.RegexStart:
		return p.parseRegexLit()
	case token.LBracket:
		return p.parseListLit()
	case token.LBrace:
		return p.parseMapLit()
	case token.Pipe:
		return p.parseFuncLit()
	case token.OrOr:
		// `||` here is an empty parameter list, not logical or: a
		// zero-parameter function literal's two pipes lex as one OrOr
		// token, so the literal is recognized directly.
		start := p.advance()
		body, err := p.parseFuncBody()
		if err != nil {
			return nil, err
		}
		return &ast.FuncLit{Base: ast.Base{Sp: token.Merge(start.Span, body.Span())}, Body: body}, nil
	case token.LParen:
		return p.parseParenOrTuple()
	case token.KwMatch:
		return p.parseMatchExpr()
	}
	return nil, p.errorf(tok.Span, "unexpected token %s %q", tok.Kind, tok.Literal)
}

func (p *Parser) parseTemplateParts(endKind token.Kind) ([]ast.TemplatePart, token.Span, error) {
	var parts []ast.TemplatePart
	for {
		switch p.cur().Kind {
		case token.StringText:
			t := p.advance()
			if t.Literal != "" {
				parts = append(parts, ast.TemplatePart{Text: t.Literal})
			}
		case token.InterpStart:
			p.advance()
			e, err := p.parseExpression(ContextDefault)
			if err != nil {
				return nil, token.Span{}, err
			}
			if _, err := p.expect(token.InterpEnd); err != nil {
				return nil, token.Span{}, err
			}
			parts = append(parts, ast.TemplatePart{Expr: e})
		case endKind:
			end := p.advance()
			return parts, end.Span, nil
		default:
			return nil, token.Span{}, p.errorf(p.cur().Span, "unterminated template literal")
		}
	}
}

func (p *Parser) parseStringLit() (ast.Expression, error) {
	start, err := p.expect(token.StringStart)
	if err != nil {
		return nil, err
	}
	parts, end, err := p.parseTemplateParts(token.StringEnd)
	if err != nil {
		return nil, err
	}
	return &ast.StringLit{Base: ast.Base{Sp: token.Merge(start.Span, end)}, Parts: parts}, nil
}

func (p *Parser) parseShellLit() (ast.Expression, error) {
	start, err := p.expect(token.ShellStart)
	if err != nil {
		return nil, err
	}
	parts, end, err := p.parseTemplateParts(token.ShellEnd)
	if err != nil {
		return nil, err
	}
	return &ast.ShellLit{Base: ast.Base{Sp: token.Merge(start.Span, end)}, Parts: parts}, nil
}

func (p *Parser) parseRegexLit() (ast.Expression, error) {
	start, err := p.expect(token.RegexStart)
	if err != nil {
		return nil, err
	}
	body, err := p.expect(token.RegexBody)
	if err != nil {
		return nil, err
	}
	end, err := p.expect(token.RegexEnd)
	if err != nil {
		return nil, err
	}
	return &ast.RegexLit{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Pattern: body.Literal}, nil
}

func (p *Parser) parseListLit() (ast.Expression, error) {
	start, err := p.expect(token.LBracket)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	var elems []ast.Expression
	for p.cur().Kind != token.RBracket {
		e, err := p.parseExpression(ContextDefault)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		p.skipNewlines()
		if p.cur().Kind == token.Comma {
			p.advance()
			p.skipNewlines()
		} else {
			break
		}
	}
	p.skipNewlines()
	end, err := p.expect(token.RBracket)
	if err != nil {
		return nil, err
	}
	return &ast.ListLit{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Elements: elems}, nil
}

func (p *Parser) parseMapLit() (ast.Expression, error) {
	start, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	var pairs []ast.MapPair
	for p.cur().Kind != token.RBrace {
		key, err := p.parseExpression(ContextNoPostfix)
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		p.skipNewlines()
		val, err := p.parseExpression(ContextDefault)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.MapPair{Key: key, Value: val})
		p.skipNewlines()
		if p.cur().Kind == token.Comma {
			p.advance()
			p.skipNewlines()
		} else {
			break
		}
	}
	p.skipNewlines()
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	return &ast.MapLit{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Pairs: pairs}, nil
}

// parseParenOrTuple parses `(expr)` (a Grouping), `()` (an empty tuple),
// and `(e, ...)`/`(e,)` (a tuple literal — a trailing comma after a
// single element still produces a one-element tuple).
func (p *Parser) parseParenOrTuple() (ast.Expression, error) {
	start, err := p.expect(token.LParen)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if p.cur().Kind == token.RParen {
		end := p.advance()
		return &ast.TupleLit{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}}, nil
	}
	first, err := p.parseExpression(ContextDefault)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if p.cur().Kind == token.Comma {
		elems := []ast.Expression{first}
		for p.cur().Kind == token.Comma {
			p.advance()
			p.skipNewlines()
			if p.cur().Kind == token.RParen {
				break
			}
			e, err := p.parseExpression(ContextDefault)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			p.skipNewlines()
		}
		end, err := p.expect(token.RParen)
		if err != nil {
			return nil, err
		}
		return &ast.TupleLit{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Elements: elems}, nil
	}
	end, err := p.expect(token.RParen)
	if err != nil {
		return nil, err
	}
	return &ast.Grouping{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Inner: first}, nil
}

func (p *Parser) parseFuncLit() (ast.Expression, error) {
	start, err := p.expect(token.Pipe)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Pipe); err != nil {
		return nil, err
	}
	body, err := p.parseFuncBody()
	if err != nil {
		return nil, err
	}
	return &ast.FuncLit{Base: ast.Base{Sp: token.Merge(start.Span, body.Span())}, Params: params, Body: body}, nil
}

func (p *Parser) parseParamList() ([]ast.Param, error) {
	var params []ast.Param
	p.skipNewlines()
	for p.cur().Kind != token.Pipe {
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		var def ast.Expression
		if p.cur().Kind == token.Assign {
			p.advance()
			// Parsed below the `|` level so the parameter list's closing
			// `|` is not read as a stream pipe.
			d, err := p.parseComposition(ContextDefault)
			if err != nil {
				return nil, err
			}
			def = d
		}
		params = append(params, ast.Param{Name: nameTok.Literal, Default: def})
		p.skipNewlines()
		if p.cur().Kind == token.Comma {
			p.advance()
			p.skipNewlines()
		} else {
			break
		}
	}
	return params, nil
}

func (p *Parser) parseFuncBody() (ast.Statement, error) {
	if p.cur().Kind == token.LBrace {
		return p.parseBlock()
	}
	e, err := p.parseExpression(ContextDefault)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Base: ast.Base{Sp: e.Span()}, Expr: e}, nil
}
