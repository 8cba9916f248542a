package parser

import (
	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/errors"
	"github.com/pontaoski/kaleido/lexer"
)

// precedence binds higher values tighter; -1 means op is not a binary
// operator.
func precedence(op rune) int {
	switch op {
	case '=':
		return 2
	case '<':
		return 10
	case '+', '-':
		return 20
	case '*':
		return 40
	}
	return -1
}

type Parser struct {
	l   *lexer.Lexer
	cur lexer.Token
}

// New returns a parser over l. Call Next once to prime the lookahead
// before the first production.
func New(l *lexer.Lexer) *Parser {
	return &Parser{l: l}
}

// Next advances the lookahead and returns the new current token.
func (p *Parser) Next() lexer.Token {
	p.cur = p.l.Next()
	return p.cur
}

func (p *Parser) Current() lexer.Token {
	return p.cur
}

func (p *Parser) fail(expected string) error {
	return errors.UnexpectedToken{Expected: expected, Got: p.cur}
}

func (p *Parser) tokPrecedence() int {
	if p.cur.Kind != lexer.CHAR {
		return -1
	}
	return precedence(p.cur.Char)
}

// numberexpr ::= number
func (p *Parser) parseNumberExpr() (ast.Expr, error) {
	result := &ast.Number{Value: p.cur.Num}
	p.Next()
	return result, nil
}

// parenexpr ::= '(' expression ')'
func (p *Parser) parseParenExpr() (ast.Expr, error) {
	p.Next() // eat (
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if !p.cur.Is(')') {
		return nil, p.fail("')'")
	}
	p.Next() // eat )
	return expr, nil
}

// identifierexpr
//   ::= identifier
//   ::= identifier '(' expression* ')'
func (p *Parser) parseIdentifierExpr() (ast.Expr, error) {
	name := p.cur.Ident
	p.Next() // eat identifier

	if !p.cur.Is('(') {
		return &ast.Variable{Name: name}, nil
	}

	p.Next() // eat (
	var args []ast.Expr
	if !p.cur.Is(')') {
		for {
			arg, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.cur.Is(')') {
				break
			}
			if !p.cur.Is(',') {
				return nil, p.fail("')' or ',' in argument list")
			}
			p.Next()
		}
	}
	p.Next() // eat )

	return &ast.Call{Callee: name, Args: args}, nil
}

// ParsePrimary parses a single operand of a binary expression.
func (p *Parser) ParsePrimary() (ast.Expr, error) {
	switch {
	case p.cur.Kind == lexer.IDENT:
		return p.parseIdentifierExpr()
	case p.cur.Kind == lexer.NUMBER:
		return p.parseNumberExpr()
	case p.cur.Is('('):
		return p.parseParenExpr()
	case p.cur.Kind == lexer.IF:
		return p.parseIfExpr()
	case p.cur.Kind == lexer.FOR:
		return p.parseForExpr()
	case p.cur.Kind == lexer.VAR:
		return p.parseVarExpr()
	}
	return nil, p.fail("an expression")
}

// expression ::= primary binoprhs
func (p *Parser) ParseExpression() (ast.Expr, error) {
	lhs, err := p.ParsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseBinOpRHS(0, lhs)
}

// binoprhs ::= (binop primary)*
//
// Only operators binding at least as tight as minPrec are consumed.
func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Expr) (ast.Expr, error) {
	for {
		tokPrec := p.tokPrecedence()
		if tokPrec < minPrec {
			return lhs, nil
		}

		op := p.cur.Char
		p.Next() // eat binop

		rhs, err := p.ParsePrimary()
		if err != nil {
			return nil, err
		}

		if tokPrec < p.tokPrecedence() {
			rhs, err = p.parseBinOpRHS(tokPrec+1, rhs)
			if err != nil {
				return nil, err
			}
		}

		lhs = &ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
}
