// Package parser implements Sei's recursive-descent, precedence-climbing
// parser. It turns a lexer.Lexer's token stream into an *ast.Program,
// enforcing the single-export-per-file rule and disambiguating the
// `{...}` block-vs-map-literal ambiguity inside match arms via one
// explicit two-token lookahead (the only place the grammar needs more
// than one token of lookahead).
//
// Grounded on the teacher's parser package (Pratt parser with
// UnaryFuncs/BinaryFuncs precedence tables over a Parser holding
// Lex/CurrToken/NextToken); generalized into an explicit cascading-levels
// precedence climb because Sei's operator table (pipelines, composition,
// range, regex-match) doesn't fit a single uniform binding-power table as
// cleanly as the teacher's smaller C-like grammar does, and reworked to
// buffer an arbitrary lookahead queue (the teacher only ever buffers one
// token ahead) so the match-arm disambiguation can peek two tokens past
// '{' without mutating lexer state.
package parser

import (
	"fmt"

	"github.com/go-sei/sei/lexer"
	"github.com/go-sei/sei/token"
)

// Error is a parse failure: either a lexical error surfaced through the
// parser, or a genuine syntax error at a given token/span.
type ErrorKind string

const (
	ErrUnexpectedToken  ErrorKind = "UnexpectedToken"
	ErrUnexpectedEOF    ErrorKind = "UnexpectedEof"
	ErrMultipleExports  ErrorKind = "MultipleExports"
	ErrInvalidImportPath ErrorKind = "InvalidImportPath"
	ErrGeneric          ErrorKind = "Generic"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Span    token.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Span)
}

// Context selects which of the three expression grammars the parser is
// currently in, per spec.md §4.2. Only the exponentiation/postfix layers
// consult it.
type Context int

const (
	// ContextDefault is the ordinary expression grammar: postfix `:ident`
	// map-access is active.
	ContextDefault Context = iota
	// ContextNoColonAccess suppresses postfix `:ident` so `[a:b]` slice
	// bounds parse correctly.
	ContextNoColonAccess
	// ContextNoPostfix suppresses postfix `:ident` so a map literal's
	// `key : value` separator, or a conditional match arm's `cond : body`
	// separator, isn't swallowed as a map-access.
	ContextNoPostfix
)

// Parser builds an *ast.Program from source text.
type Parser struct {
	lex *lexer.Lexer
	buf []token.Token

	// lexErr is sticky: once the lexer fails, fill() stops calling it
	// again and pads the buffer with synthetic EOF tokens instead, so the
	// parser unwinds cleanly instead of re-deriving further errors from
	// whatever byte position the lexer was left at.
	lexErr error

	sawExport  bool
	exportSpan token.Span
}

// New creates a Parser over src.
func New(src string) *Parser {
	return &Parser{lex: lexer.New(src)}
}

// fill ensures the lookahead buffer holds at least n+1 tokens (so at(n)
// is valid), skipping Comment tokens (never semantically meaningful).
func (p *Parser) fill(n int) error {
	if p.lexErr != nil {
		p.padWithEOF(n)
		return p.lexErr
	}
	for len(p.buf) <= n {
		tok, err := p.lex.NextToken()
		if err != nil {
			p.lexErr = &Error{Kind: ErrGeneric, Message: err.Error(), Span: lexErrSpan(err)}
			p.padWithEOF(n)
			return p.lexErr
		}
		if tok.Kind == token.Comment {
			continue
		}
		p.buf = append(p.buf, tok)
		if tok.Kind == token.EOF {
			// Pad so at() never needs to re-invoke the lexer past EOF.
			for len(p.buf) <= n {
				p.buf = append(p.buf, tok)
			}
		}
	}
	return nil
}

func (p *Parser) padWithEOF(n int) {
	eof := token.Token{Kind: token.EOF}
	if len(p.buf) > 0 {
		eof.Span = p.buf[len(p.buf)-1].Span
	}
	for len(p.buf) <= n {
		p.buf = append(p.buf, eof)
	}
}

func lexErrSpan(err error) token.Span {
	if le, ok := err.(*lexer.Error); ok {
		return le.Span
	}
	return token.Span{}
}

// at returns the token n positions ahead of the current one (at(0) is
// "current").
func (p *Parser) at(n int) token.Token {
	if err := p.fill(n); err != nil {
		return token.Token{Kind: token.Invalid}
	}
	return p.buf[n]
}

func (p *Parser) cur() token.Token { return p.at(0) }

// advance consumes the current token and returns it.
func (p *Parser) advance() token.Token {
	if err := p.fill(0); err != nil {
		return token.Token{Kind: token.Invalid}
	}
	t := p.buf[0]
	if t.Kind != token.EOF {
		p.buf = p.buf[1:]
	}
	return t
}

func (p *Parser) errorf(span token.Span, format string, args ...interface{}) error {
	return &Error{Kind: ErrUnexpectedToken, Message: fmt.Sprintf(format, args...), Span: span}
}

// expect consumes the current token if it matches kind, else returns a
// syntax error.
func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if err := p.fill(0); err != nil {
		return token.Token{}, err
	}
	if p.buf[0].Kind == token.EOF && kind != token.EOF {
		return token.Token{}, &Error{Kind: ErrUnexpectedEOF, Message: fmt.Sprintf("expected %s, found end of file", kind), Span: p.buf[0].Span}
	}
	if p.buf[0].Kind != kind {
		return token.Token{}, p.errorf(p.buf[0].Span, "expected %s, found %s %q", kind, p.buf[0].Kind, p.buf[0].Literal)
	}
	return p.advance(), nil
}

// skipNewlines absorbs a run of Newline/Semi tokens, used between elements
// of a bracketed list and before statement starts where blank lines are
// legal filler.
func (p *Parser) skipNewlines() {
	for p.cur().Kind == token.Newline || p.cur().Kind == token.Semi {
		p.advance()
	}
}

// skipStatementSeparators absorbs the run of Newline/Semi tokens between
// two statements (spec.md §4.2: "Statement separators are semicolons or
// newlines").
func (p *Parser) skipStatementSeparators() {
	p.skipNewlines()
}
