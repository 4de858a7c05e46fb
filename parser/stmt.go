package parser

import (
	"fmt"

	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/token"
)

// parseStatement dispatches on the current token to one of the
// statement forms. A bare expression (including assignment, which is
// itself just the loosest expression precedence level) falls through to
// ExprStmt.
func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Kind {
	case token.KwReturn:
		return p.parseReturnStmt()
	case token.KwBreak:
		return p.parseBreakStmt()
	case token.KwContinue:
		return p.parseContinueStmt()
	case token.KwLoop:
		return p.parseLoopStmt()
	case token.KwImport:
		return p.parseImportStmt()
	case token.LBrace:
		return p.parseBlock()
	default:
		e, err := p.parseExpression(ContextDefault)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Base: ast.Base{Sp: e.Span()}, Expr: e}, nil
	}
}

func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	start, err := p.expect(token.LBrace)
	if err != nil {
		return nil, err
	}
	p.skipStatementSeparators()
	var stmts []ast.Statement
	for p.cur().Kind != token.RBrace && p.cur().Kind != token.EOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		p.skipStatementSeparators()
	}
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Stmts: stmts}, nil
}

func (p *Parser) parseReturnStmt() (ast.Statement, error) {
	start, err := p.expect(token.KwReturn)
	if err != nil {
		return nil, err
	}
	if atStatementEnd(p.cur().Kind) {
		return &ast.ReturnStmt{Base: ast.Base{Sp: start.Span}}, nil
	}
	val, err := p.parseExpression(ContextDefault)
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Base: ast.Base{Sp: token.Merge(start.Span, val.Span())}, Value: val}, nil
}

func (p *Parser) parseBreakStmt() (ast.Statement, error) {
	start, err := p.expect(token.KwBreak)
	if err != nil {
		return nil, err
	}
	label, end := "", start.Span
	if p.cur().Kind == token.Identifier {
		nameTok := p.advance()
		label = nameTok.Literal
		end = nameTok.Span
	}
	return &ast.BreakStmt{Base: ast.Base{Sp: token.Merge(start.Span, end)}, Label: label}, nil
}

func (p *Parser) parseContinueStmt() (ast.Statement, error) {
	start, err := p.expect(token.KwContinue)
	if err != nil {
		return nil, err
	}
	label, end := "", start.Span
	if p.cur().Kind == token.Identifier {
		nameTok := p.advance()
		label = nameTok.Literal
		end = nameTok.Span
	}
	return &ast.ContinueStmt{Base: ast.Base{Sp: token.Merge(start.Span, end)}, Label: label}, nil
}

// atStatementEnd reports whether tok can legally follow a bare `return`
// with no value: end of block, end of file, or a statement separator.
func atStatementEnd(k token.Kind) bool {
	switch k {
	case token.RBrace, token.EOF, token.Newline, token.Semi, token.Comma:
		return true
	}
	return false
}

// parseLoopStmt parses both `loop as? L { ... }` (infinite) and
// `loop through iter with? bindings as? L { ... }` (iterator), since
// both share the `loop` keyword and only diverge on whether `through`
// follows.
func (p *Parser) parseLoopStmt() (ast.Statement, error) {
	start, err := p.expect(token.KwLoop)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.KwThrough {
		return p.parseLoopThroughStmt(start.Span)
	}

	label := ""
	if p.cur().Kind == token.KwAs {
		p.advance()
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		label = nameTok.Literal
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.LoopStmt{Base: ast.Base{Sp: token.Merge(start.Span, body.Span())}, Label: label, Body: body}, nil
}

func (p *Parser) parseLoopThroughStmt(start token.Span) (ast.Statement, error) {
	if _, err := p.expect(token.KwThrough); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression(ContextDefault)
	if err != nil {
		return nil, err
	}
	var bindings ast.LoopBindings
	if p.cur().Kind == token.KwWith {
		p.advance()
		first, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		bindings.Kind = ast.LoopBindingOne
		bindings.First = first.Literal
		if p.cur().Kind == token.Comma {
			p.advance()
			second, err := p.expect(token.Identifier)
			if err != nil {
				return nil, err
			}
			bindings.Kind = ast.LoopBindingTwo
			bindings.Second = second.Literal
		}
	}
	label := ""
	if p.cur().Kind == token.KwAs {
		p.advance()
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		label = nameTok.Literal
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.LoopThroughStmt{
		Base:     ast.Base{Sp: token.Merge(start, body.Span())},
		Iterable: iterable,
		Bindings: bindings,
		Label:    label,
		Body:     body,
	}, nil
}

// parseImportStmt parses `import a:b:c` with an optional `as name`
// alias. Segment separators reuse the `::` token's spelling is wrong for
// this grammar position (a single colon separates path segments here,
// matching module path syntax rather than the method-call operator), so
// segments are read as Identifier tokens joined by single Colon tokens.
func (p *Parser) parseImportStmt() (ast.Statement, error) {
	start, err := p.expect(token.KwImport)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.Identifier {
		return nil, &Error{Kind: ErrInvalidImportPath, Message: fmt.Sprintf("import path must start with an identifier, found %s", p.cur().Kind), Span: p.cur().Span}
	}
	firstSeg := p.advance()
	segments := []string{firstSeg.Literal}
	end := firstSeg.Span
	for p.cur().Kind == token.Colon {
		p.advance()
		if p.cur().Kind != token.Identifier {
			return nil, &Error{Kind: ErrInvalidImportPath, Message: fmt.Sprintf("import path segment must be an identifier, found %s", p.cur().Kind), Span: p.cur().Span}
		}
		seg := p.advance()
		segments = append(segments, seg.Literal)
		end = seg.Span
	}
	alias := ""
	if p.cur().Kind == token.KwAs {
		p.advance()
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		alias = nameTok.Literal
		end = nameTok.Span
	}
	return &ast.ImportStmt{Base: ast.Base{Sp: token.Merge(start.Span, end)}, Segments: segments, Alias: alias}, nil
}

// parseExportStmt parses `export { name: expr, ... }`. Called only from
// parseProgram, which enforces the at-most-once rule.
func (p *Parser) parseExportStmt() (*ast.ExportStmt, error) {
	start, err := p.expect(token.KwExport)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	p.skipNewlines()
	var entries []ast.ExportEntry
	for p.cur().Kind != token.RBrace {
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		p.skipNewlines()
		val, err := p.parseExpression(ContextDefault)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.ExportEntry{Name: nameTok.Literal, Value: val})
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
	return &ast.ExportStmt{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Entries: entries}, nil
}

// ---- match ----

func (p *Parser) parseMatchExpr() (ast.Expression, error) {
	start, err := p.expect(token.KwMatch)
	if err != nil {
		return nil, err
	}
	var scrutinee ast.Expression
	if p.cur().Kind != token.LBrace {
		// The scrutinee is followed by '{', not ':', so postfix map-access
		// is unambiguous here — unlike a match arm's own pattern/condition,
		// which butts right up against its ':' separator.
		s, err := p.parseExpression(ContextDefault)
		if err != nil {
			return nil, err
		}
		scrutinee = s
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	p.skipNewlines()
	var arms []ast.MatchArm
	for p.cur().Kind != token.RBrace {
		arm, err := p.parseMatchArm(scrutinee != nil)
		if err != nil {
			return nil, err
		}
		arms = append(arms, arm)
		p.skipNewlines()
		if p.cur().Kind == token.Comma {
			p.advance()
			p.skipNewlines()
		}
	}
	end, err := p.expect(token.RBrace)
	if err != nil {
		return nil, err
	}
	return &ast.MatchExpr{Base: ast.Base{Sp: token.Merge(start.Span, end.Span)}, Scrutinee: scrutinee, Arms: arms}, nil
}

func (p *Parser) parseMatchArm(hasScrutinee bool) (ast.MatchArm, error) {
	var pat ast.Pattern
	var cond ast.Expression
	var err error
	if hasScrutinee {
		pat, err = p.parsePattern()
	} else {
		cond, err = p.parseExpression(ContextNoPostfix)
	}
	if err != nil {
		return ast.MatchArm{}, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return ast.MatchArm{}, err
	}
	p.skipNewlines()
	body, err := p.parseMatchBody()
	if err != nil {
		return ast.MatchArm{}, err
	}
	return ast.MatchArm{Pattern: pat, Cond: cond, Body: body}, nil
}

// parseMatchBody implements the grammar's one genuinely lookahead-heavy
// rule: a `{` immediately followed by a number literal and then a colon,
// by any string literal, or by `}` opens a map literal (the colon after a
// leading string is not checked, so a block whose first statement is a
// string literal is parsed as a map); any other `{` opens a statement
// block. return/break/continue are also valid bare bodies.
func (p *Parser) parseMatchBody() (ast.MatchBody, error) {
	switch p.cur().Kind {
	case token.KwReturn:
		s, err := p.parseReturnStmt()
		return ast.MatchBody{Stmt: s}, err
	case token.KwBreak:
		s, err := p.parseBreakStmt()
		return ast.MatchBody{Stmt: s}, err
	case token.KwContinue:
		s, err := p.parseContinueStmt()
		return ast.MatchBody{Stmt: s}, err
	case token.LBrace:
		if p.looksLikeMapLiteral() {
			m, err := p.parseMapLit()
			return ast.MatchBody{Expr: m}, err
		}
		blk, err := p.parseBlock()
		return ast.MatchBody{Block: blk}, err
	default:
		e, err := p.parseExpression(ContextDefault)
		return ast.MatchBody{Expr: e}, err
	}
}

// looksLikeMapLiteral peeks two tokens past the current '{' without
// consuming anything: index 1 is the token right after '{', index 2 the
// one after that. This is the only place in the grammar that needs more
// than one token of lookahead.
func (p *Parser) looksLikeMapLiteral() bool {
	first := p.at(1)
	if first.Kind != token.Number && first.Kind != token.StringStart {
		return first.Kind == token.RBrace // `{}` is the empty map literal
	}
	if first.Kind == token.StringStart {
		// A string key spans a whole StringStart..StringEnd run before its
		// colon, too long to confirm with a fixed two-token peek; a
		// leading string literal is treated as a map key rather than
		// threading a full nested scan through this one lookahead check.
		return true
	}
	return p.at(2).Kind == token.Colon
}
