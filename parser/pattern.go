package parser

import (
	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/token"
)

// parsePattern parses one match-arm pattern: wildcard, literal, tuple, or
// regex. src/patterns.rs in the original this was distilled from rejects
// list-literal patterns outright; this grammar has no case for LBracket
// here at all, so such a pattern falls through to the default branch and
// reports a plain syntax error, matching that behavior.
func (p *Parser) parsePattern() (ast.Pattern, error) {
	switch p.cur().Kind {
	case token.Underscore:
		tok := p.advance()
		return &ast.WildcardPattern{Base: ast.Base{Sp: tok.Span}}, nil
	case token.RegexStart:
		lit, err := p.parseRegexLit()
		if err != nil {
			return nil, err
		}
		rl := lit.(*ast.RegexLit)
		return &ast.RegexPattern{Base: ast.Base{Sp: rl.Span()}, Pattern: rl.Pattern}, nil
	case token.LParen:
		return p.parseTuplePattern()
	default:
		val, err := p.parsePatternLiteral()
		if err != nil {
			return nil, err
		}
		return &ast.LiteralPattern{Base: ast.Base{Sp: val.Span()}, Value: val}, nil
	}
}

func (p *Parser) parseTuplePattern() (ast.Pattern, error) {
	start, err := p.expect(token.LParen)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	var elems []ast.Pattern
	for p.cur().Kind != token.RParen {
		el, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
		p.skipNewlines()
		if p.cur().Kind == token.Comma {
			p.advance()
			p.skipNewlines()
		} else {
			break
		}
	}
	end, err := p.expect(token.RParen)
	if err != nil {
		return nil, err
	}
	return &ast.TuplePattern{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Elements: elems}, nil
}

// parsePatternLiteral parses the scalar value-like expressions a literal
// pattern may hold: number, (optionally negated) number, boolean,
// string, or nil. It deliberately does not call the general expression
// grammar, since a pattern position never allows arithmetic or variable
// references.
func (p *Parser) parsePatternLiteral() (ast.Expression, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.Number:
		p.advance()
		return &ast.NumberLit{Base: ast.Base{Sp: tok.Span}, Value: tok.NumberValue}, nil
	case token.Minus:
		p.advance()
		numTok, err := p.expect(token.Number)
		if err != nil {
			return nil, err
		}
		sp := token.Merge(tok.Span, numTok.Span)
		return &ast.Unary{Base: ast.Base{Sp: sp}, Op: token.Minus, Operand: &ast.NumberLit{Base: ast.Base{Sp: numTok.Span}, Value: numTok.NumberValue}}, nil
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.BoolLit{Base: ast.Base{Sp: tok.Span}, Value: tok.Kind == token.KwTrue}, nil
	case token.KwNil:
		p.advance()
		return &ast.NilLit{Base: ast.Base{Sp: tok.Span}}, nil
	case token.StringStart:
		return p.parseStringLit()
	default:
		return nil, p.errorf(tok.Span, "invalid pattern: expected a literal, wildcard, tuple, or regex, found %s", tok.Kind)
	}
}
