package parser

import (
	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/lexer"
)

// ifexpr ::= 'if' expression 'then' expression 'else' expression
func (p *Parser) parseIfExpr() (ast.Expr, error) {
	p.Next() // eat if

	cond, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind != lexer.THEN {
		return nil, p.fail("then")
	}
	p.Next()

	then, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind != lexer.ELSE {
		return nil, p.fail("else")
	}
	p.Next()

	elseExpr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.If{Cond: cond, Then: then, Else: elseExpr}, nil
}

// forexpr ::= 'for' identifier '=' expr ',' expr (',' expr)? 'in' expression
func (p *Parser) parseForExpr() (ast.Expr, error) {
	p.Next() // eat for

	if p.cur.Kind != lexer.IDENT {
		return nil, p.fail("identifier after for")
	}
	name := p.cur.Ident
	p.Next()

	if !p.cur.Is('=') {
		return nil, p.fail("'=' after for")
	}
	p.Next()

	start, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if !p.cur.Is(',') {
		return nil, p.fail("',' after for start value")
	}
	p.Next()

	end, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	var step ast.Expr
	if p.cur.Is(',') {
		p.Next()
		step, err = p.ParseExpression()
		if err != nil {
			return nil, err
		}
	}

	if p.cur.Kind != lexer.IN {
		return nil, p.fail("'in' after for")
	}
	p.Next()

	body, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.For{Var: name, Start: start, End: end, Step: step, Body: body}, nil
}

// varexpr ::= 'var' identifier ('=' expression)?
//                   (',' identifier ('=' expression)?)* 'in' expression
func (p *Parser) parseVarExpr() (ast.Expr, error) {
	p.Next() // eat var

	if p.cur.Kind != lexer.IDENT {
		return nil, p.fail("identifier after var")
	}

	var bindings []ast.Binding
	for {
		b := ast.Binding{Name: p.cur.Ident}
		p.Next()

		if p.cur.Is('=') {
			p.Next()

			init, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			b.Init = init
		}
		bindings = append(bindings, b)

		if !p.cur.Is(',') {
			break
		}
		p.Next()

		if p.cur.Kind != lexer.IDENT {
			return nil, p.fail("identifier after var")
		}
	}

	if p.cur.Kind != lexer.IN {
		return nil, p.fail("'in' keyword after 'var'")
	}
	p.Next()

	body, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	return &ast.VarBinding{Bindings: bindings, Body: body}, nil
}
