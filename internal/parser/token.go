package parser

import (
	"fmt"
	"strconv"
)

// tokenType identifies the type of a scanned token.
type tokenType int

const (
	tokNumber tokenType = iota
	tokIdent

	// Punctuation
	tokLParen   // (
	tokRParen   // )
	tokComma    // ,
	tokQuestion // ?
	tokColon    // :

	// Arithmetic operators
	tokPlus    // +
	tokMinus   // -
	tokStar    // *
	tokSlash   // /
	tokPercent // %

	// Comparison operators
	tokEqEq   // ==
	tokBangEq // !=
	tokLt     // <
	tokLtEq   // <=
	tokGt     // >
	tokGtEq   // >=

	// Logical operators (symbol forms; AND/OR/NOT word forms scan as
	// tokIdent and are promoted by the scanner)
	tokAnd // && or AND
	tokOr  // || or OR
	tokNot // ! or NOT

	tokEOF
)

// token is a single scanned token. Value holds the source text for numbers
// and identifiers. Pos is the byte offset of the token's first character,
// used in ParseError messages.
type token struct {
	Type  tokenType
	Value string
	Pos   int
}

// wordOps maps word-form logical operators to their token types. Formula
// authors write these uppercase; lowercase spellings stay plain identifiers
// so variable names like "and_total" or "not_applicable" are unaffected.
var wordOps = map[string]tokenType{
	"AND": tokAnd,
	"OR":  tokOr,
	"NOT": tokNot,
}

type scanner struct {
	source string
	pos    int
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) skipWhitespace() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\t', '\r', '\n':
			s.pos++
		default:
			return
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

// scanNumber scans a numeric literal: integer part, optional fraction,
// optional exponent. The text is validated with strconv here so a malformed
// literal fails at scan time rather than producing a surprise NaN later.
func (s *scanner) scanNumber() (token, error) {
	start := s.pos

	for !s.atEnd() && isDigit(s.peek()) {
		s.pos++
	}
	if !s.atEnd() && s.peek() == '.' {
		if !isDigit(s.peekAt(1)) {
			return token{}, newParseError(start, "malformed numeric literal %q", s.source[start:s.pos+1])
		}
		s.pos++
		for !s.atEnd() && isDigit(s.peek()) {
			s.pos++
		}
	}
	if !s.atEnd() && (s.peek() == 'e' || s.peek() == 'E') {
		s.pos++
		if !s.atEnd() && (s.peek() == '+' || s.peek() == '-') {
			s.pos++
		}
		if s.atEnd() || !isDigit(s.peek()) {
			return token{}, newParseError(start, "malformed numeric literal %q", s.source[start:s.pos])
		}
		for !s.atEnd() && isDigit(s.peek()) {
			s.pos++
		}
	}

	text := s.source[start:s.pos]
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return token{}, newParseError(start, "malformed numeric literal %q", text)
	}
	return token{Type: tokNumber, Value: text, Pos: start}, nil
}

func (s *scanner) scanIdent() token {
	start := s.pos
	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.pos++
	}
	text := s.source[start:s.pos]
	if typ, ok := wordOps[text]; ok {
		return token{Type: typ, Value: text, Pos: start}
	}
	return token{Type: tokIdent, Value: text, Pos: start}
}

func (s *scanner) next() (token, error) {
	s.skipWhitespace()

	start := s.pos
	if s.atEnd() {
		return token{Type: tokEOF, Pos: start}, nil
	}

	ch := s.peek()

	// Single-character tokens
	switch ch {
	case '(':
		s.pos++
		return token{Type: tokLParen, Pos: start}, nil
	case ')':
		s.pos++
		return token{Type: tokRParen, Pos: start}, nil
	case ',':
		s.pos++
		return token{Type: tokComma, Pos: start}, nil
	case '?':
		s.pos++
		return token{Type: tokQuestion, Pos: start}, nil
	case ':':
		s.pos++
		return token{Type: tokColon, Pos: start}, nil
	case '+':
		s.pos++
		return token{Type: tokPlus, Pos: start}, nil
	case '-':
		s.pos++
		return token{Type: tokMinus, Pos: start}, nil
	case '*':
		s.pos++
		return token{Type: tokStar, Pos: start}, nil
	case '/':
		s.pos++
		return token{Type: tokSlash, Pos: start}, nil
	case '%':
		s.pos++
		return token{Type: tokPercent, Pos: start}, nil
	}

	// One- or two-character tokens
	switch ch {
	case '=':
		if s.peekAt(1) == '=' {
			s.pos += 2
			return token{Type: tokEqEq, Pos: start}, nil
		}
		return token{}, newParseError(start, "unexpected character '=' (did you mean '=='?)")
	case '!':
		if s.peekAt(1) == '=' {
			s.pos += 2
			return token{Type: tokBangEq, Pos: start}, nil
		}
		s.pos++
		return token{Type: tokNot, Pos: start}, nil
	case '<':
		if s.peekAt(1) == '=' {
			s.pos += 2
			return token{Type: tokLtEq, Pos: start}, nil
		}
		s.pos++
		return token{Type: tokLt, Pos: start}, nil
	case '>':
		if s.peekAt(1) == '=' {
			s.pos += 2
			return token{Type: tokGtEq, Pos: start}, nil
		}
		s.pos++
		return token{Type: tokGt, Pos: start}, nil
	case '&':
		if s.peekAt(1) == '&' {
			s.pos += 2
			return token{Type: tokAnd, Pos: start}, nil
		}
		return token{}, newParseError(start, "unexpected character '&' (did you mean '&&'?)")
	case '|':
		if s.peekAt(1) == '|' {
			s.pos += 2
			return token{Type: tokOr, Pos: start}, nil
		}
		return token{}, newParseError(start, "unexpected character '|' (did you mean '||'?)")
	}

	if isDigit(ch) {
		return s.scanNumber()
	}
	if isAlpha(ch) {
		return s.scanIdent(), nil
	}

	return token{}, newParseError(start, "unexpected character %q", string(ch))
}

// tokenize scans the whole formula into a token slice ending with tokEOF.
func tokenize(source string) ([]token, error) {
	s := &scanner{source: source}
	var tokens []token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == tokEOF {
			return tokens, nil
		}
	}
}

// tokenName returns a human-readable name for error messages.
func tokenName(t token) string {
	switch t.Type {
	case tokNumber:
		return fmt.Sprintf("number %s", t.Value)
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.Value)
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokQuestion:
		return "'?'"
	case tokColon:
		return "':'"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokPercent:
		return "'%'"
	case tokEqEq:
		return "'=='"
	case tokBangEq:
		return "'!='"
	case tokLt:
		return "'<'"
	case tokLtEq:
		return "'<='"
	case tokGt:
		return "'>'"
	case tokGtEq:
		return "'>='"
	case tokAnd:
		return "'AND'"
	case tokOr:
		return "'OR'"
	case tokNot:
		return "'NOT'"
	case tokEOF:
		return "end of formula"
	default:
		return fmt.Sprintf("token(%d)", t.Type)
	}
}
