package parser

import (
	"github.com/go-sei/sei/ast"
	"github.com/go-sei/sei/token"
)

// ParseProgram parses a full source file into an *ast.Program. Top-level
// import statements, plain statements, and at most one export statement
// may appear in any order; a second `export` is a MultipleExports error
// rather than silently overwriting the first (spec.md §3 invariant).
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog, err := p.parseProgramBody()
	// A lexical failure is the root cause of any syntax error it
	// triggered downstream (e.g. "expected X, found EOF" once fill()
	// starts padding the buffer), so it always takes priority.
	if p.lexErr != nil {
		return nil, p.lexErr
	}
	return prog, err
}

func (p *Parser) parseProgramBody() (*ast.Program, error) {
	prog := &ast.Program{}
	started := false
	p.skipStatementSeparators()
	for p.cur().Kind != token.EOF {
		var span token.Span
		if p.cur().Kind == token.KwExport {
			exp, err := p.parseExportStmt()
			if err != nil {
				return nil, err
			}
			if p.sawExport {
				return nil, &Error{Kind: ErrMultipleExports, Message: "a file may export at most once", Span: exp.Span()}
			}
			p.sawExport = true
			prog.Export = exp
			span = exp.Span()
		} else {
			stmt, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			prog.Stmts = append(prog.Stmts, stmt)
			span = stmt.Span()
		}
		if !started {
			prog.Base.Sp = span
			started = true
		} else {
			prog.Base.Sp = token.Merge(prog.Base.Sp, span)
		}
		p.skipStatementSeparators()
	}
	return prog, nil
}
