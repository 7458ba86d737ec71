// Package parser turns CPL statement-sequence source into pkg/ast trees. The
// grammar is parsed with an explicit tokenizer and a small recursive-descent
// parser so that quoting, nested braces, and operator precedence are handled
// exactly, and parse failures carry a source offset.
package parser

import "fmt"

type tokenKind uint8

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenOperator
	tokenPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Error is a positional parse failure.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

func errorf(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// next scans one token. EOF is returned as a zero-text token.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	c, ok := l.peekByte()
	if !ok {
		return token{kind: tokenEOF, pos: start}, nil
	}

	switch {
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokenIdent, text: l.src[start:l.pos], pos: start}, nil

	case isDigit(c):
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
		if l.pos < len(l.src) && l.src[l.pos] == '.' {
			l.pos++
			if l.pos >= len(l.src) || !isDigit(l.src[l.pos]) {
				return token{}, errorf(l.pos, "malformed number")
			}
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
		return token{kind: tokenNumber, text: l.src[start:l.pos], pos: start}, nil

	case c == '"' || c == '\'':
		return l.scanString(c)
	}

	// Two-character operators first.
	if l.pos+1 < len(l.src) {
		two := l.src[l.pos : l.pos+2]
		switch two {
		case "==", "!=", "<=", ">=", "&&", "||":
			l.pos += 2
			return token{kind: tokenOperator, text: two, pos: start}, nil
		}
	}

	switch c {
	case '+', '-', '*', '/', '%', '<', '>', '!', '=':
		l.pos++
		return token{kind: tokenOperator, text: string(c), pos: start}, nil
	case '(', ')', '{', '}', ';', ',', '.':
		l.pos++
		return token{kind: tokenPunct, text: string(c), pos: start}, nil
	}

	return token{}, errorf(start, "unexpected character %q", string(c))
}

// scanString consumes a quoted literal, returning its unquoted text. A
// backslash escapes the quote character and itself; other bytes pass through.
func (l *lexer) scanString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var out []byte
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{kind: tokenString, text: string(out), pos: start}, nil
		case '\\':
			if l.pos+1 < len(l.src) && (l.src[l.pos+1] == quote || l.src[l.pos+1] == '\\') {
				out = append(out, l.src[l.pos+1])
				l.pos += 2
				continue
			}
			out = append(out, c)
			l.pos++
		default:
			out = append(out, c)
			l.pos++
		}
	}
	return token{}, errorf(start, "unterminated string literal")
}

// tokenize scans the whole source up front.
func tokenize(src string) ([]token, error) {
	l := &lexer{src: src}
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}
