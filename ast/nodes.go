// Package ast holds the closed set of syntax tree nodes.
//
// Kind constants, Kind methods, markers and the dispatch hierarchy live in
// nodes_gen.go, generated from nodes.adt.
package ast

//go:generate sh -c "cd ../tool && go run . ../ast/nodes.adt ../ast/nodes_gen.go ast"

type Node interface {
	Kind() Kind
}

type Number struct {
	Value float64
}

type Variable struct {
	Name string
}

type Binary struct {
	Op  rune
	LHS Expr
	RHS Expr
}

type Call struct {
	Callee string
	Args   []Expr
}

type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

type For struct {
	Var   string
	Start Expr
	End   Expr
	// Step is nil when the loop has no step clause.
	Step Expr
	Body Expr
}

type Binding struct {
	Name string
	// Init is nil when the binding has no initializer.
	Init Expr
}

type VarBinding struct {
	Bindings []Binding
	Body     Expr
}

type Prototype struct {
	Name   string
	Params []string
}

// Anonymous reports whether p is the prototype of a top-level expression.
func (p *Prototype) Anonymous() bool {
	return p.Name == ""
}

type Function struct {
	Proto *Prototype
	Body  Expr
}
