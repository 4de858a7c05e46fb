package lexer

import (
	"unicode/utf8"

	"github.com/go-sei/sei/token"
)

// beginString is entered from scanNormal on seeing a quote character. Three
// contiguous quotes of the same kind open a multiline string that permits
// unescaped newlines; otherwise it's an ordinary single-line string.
func (l *Lexer) beginString(start token.Span) (token.Token, error) {
	q := l.peekByte()
	l.advanceByte()
	multiline := false
	if l.peekByte() == q && l.peekByteAt(1) == q {
		l.advanceByte()
		l.advanceByte()
		multiline = true
	}
	l.quote = q
	l.multiline = multiline
	l.mode = modeInString
	return l.emit(token.StringStart, "", start), nil
}

// beginShell is entered from scanNormal on seeing a backtick.
func (l *Lexer) beginShell(start token.Span) (token.Token, error) {
	l.advanceByte() // consume '`'
	l.mode = modeInShellCommand
	return l.emit(token.ShellStart, "", start), nil
}

// closingQuoteWidth reports how many bytes of closing delimiter are present
// at the current position (0 if none), given the active quote/multiline
// state.
func (l *Lexer) closingQuoteWidth() int {
	if l.peekByte() != l.quote {
		return 0
	}
	if l.multiline {
		if l.peekByteAt(1) == l.quote && l.peekByteAt(2) == l.quote {
			return 3
		}
		return 0
	}
	return 1
}

func (l *Lexer) consumeRuneBytes() []byte {
	r, size := utf8.DecodeRune(l.src[l.pos:])
	if r == utf8.RuneError && size <= 1 {
		b := l.src[l.pos]
		l.advanceByte()
		return []byte{b}
	}
	buf := make([]byte, size)
	copy(buf, l.src[l.pos:l.pos+size])
	for i := 0; i < size; i++ {
		l.advanceByte()
	}
	return buf
}

// decodeStringEscape consumes a backslash escape inside a string body.
// Recognized: n t r " ' \ $. Any other character is InvalidEscape.
func (l *Lexer) decodeStringEscape(start token.Span) (byte, error) {
	l.advanceByte() // consume '\'
	if l.atEnd() {
		return 0, &Error{Kind: ErrUnterminatedString, Span: l.span(start)}
	}
	c := l.peekByte()
	switch c {
	case 'n':
		l.advanceByte()
		return '\n', nil
	case 't':
		l.advanceByte()
		return '\t', nil
	case 'r':
		l.advanceByte()
		return '\r', nil
	case '"', '\'', '\\', '$':
		l.advanceByte()
		return c, nil
	default:
		errSpan := l.here()
		l.advanceByte()
		return 0, &Error{Kind: ErrInvalidEscape, Detail: string(c), Span: l.span(errSpan)}
	}
}

// decodeShellEscape consumes a backslash escape inside a shell body.
// Recognized: n t r ` \ $.
func (l *Lexer) decodeShellEscape(start token.Span) (byte, error) {
	l.advanceByte() // consume '\'
	if l.atEnd() {
		return 0, &Error{Kind: ErrUnterminatedShell, Span: l.span(start)}
	}
	c := l.peekByte()
	switch c {
	case 'n':
		l.advanceByte()
		return '\n', nil
	case 't':
		l.advanceByte()
		return '\t', nil
	case 'r':
		l.advanceByte()
		return '\r', nil
	case '`', '\\', '$':
		l.advanceByte()
		return c, nil
	default:
		errSpan := l.here()
		l.advanceByte()
		return 0, &Error{Kind: ErrInvalidEscape, Detail: string(c), Span: l.span(errSpan)}
	}
}

// scanStringContent consumes string body text up to the next interpolation
// marker or the closing quote, always emitting exactly one StringText token
// (possibly empty) per call before deferring the structural token that
// follows it.
func (l *Lexer) scanStringContent() (token.Token, error) {
	start := l.here()
	var text []byte
	for {
		if l.atEnd() {
			return token.Token{}, &Error{Kind: ErrUnterminatedString, Span: l.span(start)}
		}
		if w := l.closingQuoteWidth(); w > 0 {
			contentTok := l.emit(token.StringText, string(text), start)
			closeStart := l.here()
			for i := 0; i < w; i++ {
				l.advanceByte()
			}
			l.mode = modeNormal
			closeTok := l.emit(token.StringEnd, "", closeStart)
			l.deferred = &closeTok
			return contentTok, nil
		}
		b := l.peekByte()
		if !l.multiline && b == '\n' {
			return token.Token{}, &Error{Kind: ErrUnterminatedString, Span: l.span(start)}
		}
		if b == '$' && l.peekByteAt(1) == '{' {
			contentTok := l.emit(token.StringText, string(text), start)
			interpStart := l.here()
			l.advanceByte()
			l.advanceByte()
			l.interpStack = append(l.interpStack, interpFrame{
				resumeQuote:     l.quote,
				resumeMultiline: l.multiline,
				resumeShell:     false,
			})
			l.mode = modeNormal
			openTok := l.emit(token.InterpStart, "${", interpStart)
			l.deferred = &openTok
			return contentTok, nil
		}
		if b == '\\' {
			escByte, err := l.decodeStringEscape(start)
			if err != nil {
				return token.Token{}, err
			}
			text = append(text, escByte)
			continue
		}
		text = append(text, l.consumeRuneBytes()...)
	}
}

// scanShellContent mirrors scanStringContent for backtick-delimited shell
// command bodies; shell bodies have no multiline form.
func (l *Lexer) scanShellContent() (token.Token, error) {
	start := l.here()
	var text []byte
	for {
		if l.atEnd() {
			return token.Token{}, &Error{Kind: ErrUnterminatedShell, Span: l.span(start)}
		}
		b := l.peekByte()
		if b == '`' {
			contentTok := l.emit(token.StringText, string(text), start)
			closeStart := l.here()
			l.advanceByte()
			l.mode = modeNormal
			closeTok := l.emit(token.ShellEnd, "", closeStart)
			l.deferred = &closeTok
			return contentTok, nil
		}
		if b == '$' && l.peekByteAt(1) == '{' {
			contentTok := l.emit(token.StringText, string(text), start)
			interpStart := l.here()
			l.advanceByte()
			l.advanceByte()
			l.interpStack = append(l.interpStack, interpFrame{resumeShell: true})
			l.mode = modeNormal
			openTok := l.emit(token.InterpStart, "${", interpStart)
			l.deferred = &openTok
			return contentTok, nil
		}
		if b == '\\' {
			escByte, err := l.decodeShellEscape(start)
			if err != nil {
				return token.Token{}, err
			}
			text = append(text, escByte)
			continue
		}
		text = append(text, l.consumeRuneBytes()...)
	}
}

// scanRegexContent consumes a regex body up to the first unescaped '/'.
// "\X" is treated as a two-character escape preserved literally in the
// pattern text (the lexer never interprets regex escapes; the regex engine
// does). Regex bodies do not support interpolation.
func (l *Lexer) scanRegexContent() (token.Token, error) {
	start := l.here()
	var text []byte
	for {
		if l.atEnd() {
			return token.Token{}, &Error{Kind: ErrUnterminatedRegex, Span: l.span(start)}
		}
		b := l.peekByte()
		if b == '/' {
			contentTok := l.emit(token.RegexBody, string(text), start)
			closeStart := l.here()
			l.advanceByte()
			l.mode = modeNormal
			closeTok := l.emit(token.RegexEnd, "/", closeStart)
			l.deferred = &closeTok
			return contentTok, nil
		}
		if b == '\\' {
			text = append(text, b)
			l.advanceByte()
			if l.atEnd() {
				return token.Token{}, &Error{Kind: ErrUnterminatedRegex, Span: l.span(start)}
			}
			text = append(text, l.consumeRuneBytes()...)
			continue
		}
		text = append(text, l.consumeRuneBytes()...)
	}
}
