// Package printer writes syntax trees as an indented outline, one node per
// line and two spaces per level.
package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/dispatch"
)

type none struct{}

type printer struct {
	w     io.Writer
	level int
	op    *dispatch.Operation[ast.Kind, ast.Node, none]
}

// Fprint writes the outline of n to w.
func Fprint(w io.Writer, n ast.Node) error {
	p := &printer{w: w}

	op := dispatch.NewOperation[ast.Kind, ast.Node, none](ast.Hierarchy)
	op.Handle(ast.KindExpr, p.expr)
	dispatch.HandleAs(op, ast.KindNumber, p.number)
	dispatch.HandleAs(op, ast.KindVariable, p.variable)
	dispatch.HandleAs(op, ast.KindBinary, p.binary)
	dispatch.HandleAs(op, ast.KindCall, p.call)
	dispatch.HandleAs(op, ast.KindIf, p.ifExpr)
	dispatch.HandleAs(op, ast.KindFor, p.forExpr)
	dispatch.HandleAs(op, ast.KindVarBinding, p.varExpr)
	dispatch.HandleAs(op, ast.KindPrototype, p.prototype)
	dispatch.HandleAs(op, ast.KindFunction, p.function)
	p.op = op

	_, err := p.visit(n)
	return err
}

// Sprint is Fprint into a string.
func Sprint(n ast.Node) (string, error) {
	var sb strings.Builder
	err := Fprint(&sb, n)
	return sb.String(), err
}

func (p *printer) visit(n ast.Node) (none, error) {
	return p.op.Dispatch(n)
}

func (p *printer) line(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.level), fmt.Sprintf(format, args...))
	return err
}

// nested prints a heading line and the nodes below it one level deeper.
func (p *printer) nested(heading string, children ...ast.Node) (none, error) {
	if err := p.line("%s", heading); err != nil {
		return none{}, err
	}
	p.level++
	defer func() { p.level-- }()

	for _, c := range children {
		if _, err := p.visit(c); err != nil {
			return none{}, err
		}
	}
	return none{}, nil
}

func (p *printer) expr(n ast.Node) (none, error) {
	return none{}, p.line("%s", n.Kind())
}

func (p *printer) number(n *ast.Number) (none, error) {
	return none{}, p.line("%s", strconv.FormatFloat(n.Value, 'g', -1, 64))
}

func (p *printer) variable(n *ast.Variable) (none, error) {
	return none{}, p.line("%s", n.Name)
}

func (p *printer) binary(n *ast.Binary) (none, error) {
	return p.nested(string(n.Op), n.LHS, n.RHS)
}

func (p *printer) call(n *ast.Call) (none, error) {
	args := make([]ast.Node, len(n.Args))
	for i, a := range n.Args {
		args[i] = a
	}
	return p.nested("call "+n.Callee, args...)
}

func (p *printer) ifExpr(n *ast.If) (none, error) {
	if _, err := p.nested("if", n.Cond); err != nil {
		return none{}, err
	}
	if _, err := p.nested("then", n.Then); err != nil {
		return none{}, err
	}
	return p.nested("else", n.Else)
}

func (p *printer) forExpr(n *ast.For) (none, error) {
	if err := p.line("for %s", n.Var); err != nil {
		return none{}, err
	}
	p.level++
	defer func() { p.level-- }()

	if _, err := p.nested("start", n.Start); err != nil {
		return none{}, err
	}
	if _, err := p.nested("end", n.End); err != nil {
		return none{}, err
	}
	if n.Step != nil {
		if _, err := p.nested("step", n.Step); err != nil {
			return none{}, err
		}
	}
	return p.nested("in", n.Body)
}

func (p *printer) varExpr(n *ast.VarBinding) (none, error) {
	if err := p.line("var"); err != nil {
		return none{}, err
	}
	p.level++
	defer func() { p.level-- }()

	for _, b := range n.Bindings {
		var init []ast.Node
		if b.Init != nil {
			init = append(init, b.Init)
		}
		if _, err := p.nested(b.Name, init...); err != nil {
			return none{}, err
		}
	}
	return p.nested("in", n.Body)
}

func (p *printer) prototype(n *ast.Prototype) (none, error) {
	if n.Anonymous() {
		return none{}, p.line("expr")
	}
	return none{}, p.line("def %s ( %s)", n.Name, params(n.Params))
}

func params(ps []string) string {
	var sb strings.Builder
	for _, p := range ps {
		sb.WriteString(p)
		sb.WriteByte(' ')
	}
	return sb.String()
}

func (p *printer) function(n *ast.Function) (none, error) {
	if _, err := p.visit(n.Proto); err != nil {
		return none{}, err
	}
	p.level++
	defer func() { p.level-- }()

	_, err := p.visit(n.Body)
	return none{}, err
}
