package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/errors"
	"github.com/pontaoski/kaleido/passes"
)

// declare returns the module function for proto, adding it when missing.
// created reports whether it was added by this call.
func (g *Generator) declare(proto *ast.Prototype) (f *ir.Func, created bool, err error) {
	name := proto.Name
	if proto.Anonymous() {
		name = g.anonymousName()
	}

	if f := g.Lookup(name); f != nil {
		if len(f.Params) != len(proto.Params) {
			return nil, false, errors.Redeclaration{Function: name, Expected: len(f.Params), Got: len(proto.Params)}
		}
		return f, false, nil
	}

	params := make([]*ir.Param, 0, len(proto.Params))
	for _, p := range paramNames(proto.Params) {
		params = append(params, ir.NewParam(p, types.Double))
	}
	return g.module.NewFunc(name, types.Double, params...), true, nil
}

func (g *Generator) prototype(proto *ast.Prototype) (value.Value, error) {
	f, _, err := g.declare(proto)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (g *Generator) function(fn *ast.Function) (value.Value, error) {
	f, created, err := g.declare(fn.Proto)
	if err != nil {
		return nil, err
	}
	if len(f.Blocks) != 0 {
		return nil, errors.Redefinition{Function: f.Name()}
	}
	if err := g.body(f, fn.Proto.Params, fn.Body); err != nil {
		if created {
			g.Remove(f)
		} else {
			f.Blocks = nil
		}
		return nil, err
	}
	return f, nil
}

// body lowers the definition of f. params are the source names of its
// parameters; the last of a repeated name wins.
func (g *Generator) body(f *ir.Func, params []string, body ast.Expr) error {
	g.fn = f
	g.locals = map[string]*ir.InstAlloca{}
	g.names = map[string]int{}
	g.allocas = 0
	defer func() {
		g.fn, g.entry, g.block, g.locals = nil, nil, nil, nil
	}()

	for i, p := range f.Params {
		p.SetName(g.name(params[i]))
	}

	g.entry = g.newBlock("entry")
	g.appendBlock(g.entry)
	g.block = g.entry

	for i, p := range f.Params {
		slot := g.entryAlloca(params[i])
		g.block.NewStore(p, slot)
		g.locals[params[i]] = slot
	}

	ret, err := g.expr(body)
	if err != nil {
		return err
	}
	g.block.NewRet(ret)

	if g.passes == nil {
		return passes.Verify(f)
	}
	return g.passes.Run(f)
}
