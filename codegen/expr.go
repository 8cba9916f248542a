package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/errors"
)

func (g *Generator) unsupported(n ast.Node) (value.Value, error) {
	return nil, fmt.Errorf("cannot generate code for %s", n.Kind())
}

func (g *Generator) number(n *ast.Number) (value.Value, error) {
	return float(n.Value), nil
}

func (g *Generator) variable(n *ast.Variable) (value.Value, error) {
	slot, ok := g.locals[n.Name]
	if !ok {
		return nil, errors.UnknownVariable{Name: n.Name}
	}
	load := g.block.NewLoad(types.Double, slot)
	load.SetName(g.name(n.Name))
	return load, nil
}

func (g *Generator) assign(n *ast.Binary) (value.Value, error) {
	dst, ok := n.LHS.(*ast.Variable)
	if !ok {
		return nil, errors.InvalidAssignment{}
	}
	val, err := g.expr(n.RHS)
	if err != nil {
		return nil, err
	}
	slot, ok := g.locals[dst.Name]
	if !ok {
		return nil, errors.UnknownVariable{Name: dst.Name}
	}
	g.block.NewStore(val, slot)
	return val, nil
}

func (g *Generator) binary(n *ast.Binary) (value.Value, error) {
	if n.Op == '=' {
		return g.assign(n)
	}

	lhs, err := g.expr(n.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := g.expr(n.RHS)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case '+':
		v := g.block.NewFAdd(lhs, rhs)
		v.SetName(g.name("addtmp"))
		return v, nil
	case '-':
		v := g.block.NewFSub(lhs, rhs)
		v.SetName(g.name("subtmp"))
		return v, nil
	case '*':
		v := g.block.NewFMul(lhs, rhs)
		v.SetName(g.name("multmp"))
		return v, nil
	case '<':
		cmp := g.block.NewFCmp(enum.FPredULT, lhs, rhs)
		cmp.SetName(g.name("cmptmp"))
		v := g.block.NewUIToFP(cmp, types.Double)
		v.SetName(g.name("booltmp"))
		return v, nil
	}
	return nil, errors.UnknownOperator{Op: n.Op}
}

func (g *Generator) call(n *ast.Call) (value.Value, error) {
	callee := g.Lookup(n.Callee)
	if callee == nil {
		return nil, errors.UnknownFunction{Name: n.Callee}
	}
	if len(callee.Params) != len(n.Args) {
		return nil, errors.ArityMismatch{Function: n.Callee, Expected: len(callee.Params), Got: len(n.Args)}
	}

	args := make([]value.Value, 0, len(n.Args))
	for _, arg := range n.Args {
		v, err := g.expr(arg)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	v := g.block.NewCall(callee, args...)
	v.SetName(g.name("calltmp"))
	return v, nil
}

// truth compares a double against zero, the way conditions are tested.
func (g *Generator) truth(v value.Value, name string) *ir.InstFCmp {
	cmp := g.block.NewFCmp(enum.FPredONE, v, float(0))
	cmp.SetName(g.name(name))
	return cmp
}

func (g *Generator) ifExpr(n *ast.If) (value.Value, error) {
	c, err := g.expr(n.Cond)
	if err != nil {
		return nil, err
	}
	cond := g.truth(c, "ifcond")

	then := g.newBlock("then")
	els := g.newBlock("else")
	merge := g.newBlock("ifcont")
	g.appendBlock(then)
	g.block.NewCondBr(cond, then, els)

	g.block = then
	thenV, err := g.expr(n.Then)
	if err != nil {
		return nil, err
	}
	g.block.NewBr(merge)
	thenEnd := g.block

	g.appendBlock(els)
	g.block = els
	elseV, err := g.expr(n.Else)
	if err != nil {
		return nil, err
	}
	g.block.NewBr(merge)
	elseEnd := g.block

	g.appendBlock(merge)
	g.block = merge
	phi := merge.NewPhi(ir.NewIncoming(thenV, thenEnd), ir.NewIncoming(elseV, elseEnd))
	phi.SetName(g.name("iftmp"))
	return phi, nil
}

// forExpr runs body, then step, then end, then increments, and branches back
// while end was nonzero. The loop always runs at least once.
func (g *Generator) forExpr(n *ast.For) (value.Value, error) {
	slot := g.entryAlloca(n.Var)

	start, err := g.expr(n.Start)
	if err != nil {
		return nil, err
	}
	g.block.NewStore(start, slot)

	preheader := g.block
	loop := g.newBlock("loop")
	g.appendBlock(loop)
	preheader.NewBr(loop)
	g.block = loop

	induction := loop.NewPhi(ir.NewIncoming(start, preheader))
	induction.SetName(g.name(n.Var))

	defer g.unbind(g.bind(n.Var, slot))

	if _, err := g.expr(n.Body); err != nil {
		return nil, err
	}

	var step value.Value = float(1)
	if n.Step != nil {
		step, err = g.expr(n.Step)
		if err != nil {
			return nil, err
		}
	}

	end, err := g.expr(n.End)
	if err != nil {
		return nil, err
	}

	cur := g.block.NewLoad(types.Double, slot)
	cur.SetName(g.name(n.Var))
	next := g.block.NewFAdd(cur, step)
	next.SetName(g.name("nextvar"))
	g.block.NewStore(next, slot)

	cond := g.truth(end, "loopcond")

	loopEnd := g.block
	after := g.newBlock("afterloop")
	g.appendBlock(after)
	loopEnd.NewCondBr(cond, loop, after)
	g.block = after

	induction.Incs = append(induction.Incs, ir.NewIncoming(next, loopEnd))

	return constant.NewFloat(types.Double, 0), nil
}

func (g *Generator) varExpr(n *ast.VarBinding) (value.Value, error) {
	var hidden []shadowed
	defer func() {
		for i := len(hidden) - 1; i >= 0; i-- {
			g.unbind(hidden[i])
		}
	}()

	for _, b := range n.Bindings {
		var init value.Value = float(0)
		if b.Init != nil {
			v, err := g.expr(b.Init)
			if err != nil {
				return nil, err
			}
			init = v
		}

		slot := g.entryAlloca(b.Name)
		g.block.NewStore(init, slot)
		hidden = append(hidden, g.bind(b.Name, slot))
	}

	return g.expr(n.Body)
}
