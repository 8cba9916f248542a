package parser

import (
	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/lexer"
)

// prototype ::= identifier '(' identifier* ')'
func (p *Parser) ParsePrototype() (*ast.Prototype, error) {
	if p.cur.Kind != lexer.IDENT {
		return nil, p.fail("function name in prototype")
	}
	name := p.cur.Ident
	p.Next()

	if !p.cur.Is('(') {
		return nil, p.fail("'(' in prototype")
	}

	var params []string
	for p.Next().Kind == lexer.IDENT {
		params = append(params, p.cur.Ident)
	}
	if !p.cur.Is(')') {
		return nil, p.fail("')' in prototype")
	}
	p.Next() // eat )

	return &ast.Prototype{Name: name, Params: params}, nil
}

// definition ::= 'def' prototype expression
func (p *Parser) ParseDefinition() (*ast.Function, error) {
	p.Next() // eat def

	proto, err := p.ParsePrototype()
	if err != nil {
		return nil, err
	}

	body, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Proto: proto, Body: body}, nil
}

// external ::= 'extern' prototype
func (p *Parser) ParseExtern() (*ast.Prototype, error) {
	p.Next() // eat extern
	return p.ParsePrototype()
}

// toplevelexpr ::= expression
//
// The expression is wrapped in an anonymous zero-parameter function.
func (p *Parser) ParseTopLevelExpr() (*ast.Function, error) {
	body, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Proto: &ast.Prototype{}, Body: body}, nil
}
