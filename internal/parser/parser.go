package parser

import (
	"fmt"
	"strconv"

	"github.com/tallyops/formula/internal/ast"
)

// MaxDepth is the maximum expression nesting depth the parser accepts.
// The executor walks trees recursively, so depth is bounded here at
// authoring time instead of trusting the platform stack limit during a
// payroll run.
const MaxDepth = 64

// ParseError reports a syntax fault in a formula. It carries the byte
// offset of the offending token so an authoring UI can point at it.
type ParseError struct {
	// Pos is the byte offset into the formula text.
	Pos int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Message)
}

func newParseError(pos int, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Parse converts formula text into an immutable AST.
//
// Parse is a pure function of its input: no semantic checks are performed,
// so a formula referencing variables or functions that will not exist at
// evaluation time still parses. Returns *ParseError on empty input,
// unexpected or leftover tokens, unmatched parentheses, malformed numeric
// literals, unknown characters, or nesting beyond MaxDepth.
func Parse(source string) (ast.Node, error) {
	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}
	if tokens[0].Type == tokEOF {
		return nil, newParseError(0, "empty formula")
	}

	p := &parser{tokens: tokens}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != tokEOF {
		return nil, newParseError(tok.Pos, "unexpected %s after expression", tokenName(tok))
	}
	return node, nil
}

type parser struct {
	tokens []token
	pos    int
	depth  int
}

func (p *parser) current() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ tokenType, context string) (token, error) {
	tok := p.current()
	if tok.Type != typ {
		return tok, newParseError(tok.Pos, "expected %s %s, got %s", tokenName(token{Type: typ}), context, tokenName(tok))
	}
	return p.advance(), nil
}

// parseExpression is the recursion entry for every nested expression:
// the top level, parenthesized groups, ternary branches, and call
// arguments all come through here, so the depth guard lives here.
func (p *parser) parseExpression() (ast.Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxDepth {
		return nil, newParseError(p.current().Pos, "formula nesting exceeds maximum depth %d", MaxDepth)
	}
	return p.parseTernary()
}

// parseTernary handles cond ? then : else, right-associative.
func (p *parser) parseTernary() (ast.Node, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.current().Type != tokQuestion {
		return cond, nil
	}
	p.advance() // consume '?'

	thenBranch, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "in ternary expression"); err != nil {
		return nil, err
	}
	elseBranch, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.Ternary{Cond: cond, Then: thenBranch, Else: elseBranch}, nil
}

func (p *parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Type == tokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current().Type == tokAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (ast.Node, error) {
	if p.current().Type == tokNot {
		tok := p.advance()
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > MaxDepth {
			return nil, newParseError(tok.Pos, "formula nesting exceeds maximum depth %d", MaxDepth)
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[tokenType]ast.BinaryOp{
	tokEqEq:   ast.OpEq,
	tokBangEq: ast.OpNeq,
	tokLt:     ast.OpLt,
	tokLtEq:   ast.OpLte,
	tokGt:     ast.OpGt,
	tokGtEq:   ast.OpGte,
}

func (p *parser) parseComparison() (ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.current().Type]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseAdditive() (ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.current().Type {
		case tokPlus:
			op = ast.OpAdd
		case tokMinus:
			op = ast.OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.current().Type {
		case tokStar:
			op = ast.OpMul
		case tokSlash:
			op = ast.OpDiv
		case tokPercent:
			op = ast.OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (ast.Node, error) {
	if p.current().Type == tokMinus {
		tok := p.advance()
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > MaxDepth {
			return nil, newParseError(tok.Pos, "formula nesting exceeds maximum depth %d", MaxDepth)
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.OpNeg, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Node, error) {
	tok := p.current()

	switch tok.Type {
	case tokNumber:
		p.advance()
		// Scanner already validated the literal; ParseFloat cannot fail here.
		value, _ := strconv.ParseFloat(tok.Value, 64)
		return ast.Literal{Value: value}, nil

	case tokIdent:
		p.advance()
		if p.current().Type == tokLParen {
			return p.parseCallArgs(tok)
		}
		return ast.Variable{Name: tok.Value}, nil

	case tokLParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "to close '('"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokEOF:
		return nil, newParseError(tok.Pos, "unexpected end of formula")

	default:
		return nil, newParseError(tok.Pos, "unexpected %s", tokenName(tok))
	}
}

// parseCallArgs parses the parenthesized argument list of a function call.
// The name token has already been consumed; the current token is '('.
// Zero-argument calls are rejected here - no builtin takes zero args, and
// "F()" is more likely a typo than intent.
func (p *parser) parseCallArgs(name token) (ast.Node, error) {
	p.advance() // consume '('

	if p.current().Type == tokRParen {
		return nil, newParseError(p.current().Pos, "function %s called with no arguments", name.Value)
	}

	var args []ast.Node
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.current().Type {
		case tokComma:
			p.advance()
		case tokRParen:
			p.advance()
			return ast.Call{Name: name.Value, Args: args}, nil
		default:
			tok := p.current()
			return nil, newParseError(tok.Pos, "expected ',' or ')' in arguments of %s, got %s", name.Value, tokenName(tok))
		}
	}
}
