// Package codegen lowers syntax trees into LLVM IR.
//
// Every local (parameter, var binding, loop variable) lives in a stack
// slot allocated in the entry block; reads load it and '=' stores to it.
// The pass sequence run after each function promotes the slots to SSA
// registers, so phis are only placed by hand where control flow merges.
package codegen

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/dispatch"
	"github.com/pontaoski/kaleido/passes"
)

const anonName = "__anon_expr"

type Option func(*Generator)

// WithModuleName sets the source filename recorded in the module.
func WithModuleName(name string) Option {
	return func(g *Generator) {
		g.module.SourceFilename = name
	}
}

// WithPasses replaces the default pass sequence. A nil manager only
// verifies each function.
func WithPasses(m *passes.Manager) Option {
	return func(g *Generator) {
		g.passes = m
	}
}

// WithoutOptimization skips the pass sequence. Functions are still verified.
func WithoutOptimization() Option {
	return WithPasses(nil)
}

type Generator struct {
	module *ir.Module
	passes *passes.Manager
	op     *dispatch.Operation[ast.Kind, ast.Node, value.Value]

	// state of the function being generated
	fn      *ir.Func
	entry   *ir.Block
	block   *ir.Block
	allocas int
	locals  map[string]*ir.InstAlloca
	names   map[string]int
}

func New(opts ...Option) *Generator {
	g := &Generator{
		module: ir.NewModule(),
		passes: passes.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	op := dispatch.NewOperation[ast.Kind, ast.Node, value.Value](ast.Hierarchy)
	op.Handle(ast.KindExpr, g.unsupported)
	dispatch.HandleAs(op, ast.KindNumber, g.number)
	dispatch.HandleAs(op, ast.KindVariable, g.variable)
	dispatch.HandleAs(op, ast.KindBinary, g.binary)
	dispatch.HandleAs(op, ast.KindCall, g.call)
	dispatch.HandleAs(op, ast.KindIf, g.ifExpr)
	dispatch.HandleAs(op, ast.KindFor, g.forExpr)
	dispatch.HandleAs(op, ast.KindVarBinding, g.varExpr)
	dispatch.HandleAs(op, ast.KindPrototype, g.prototype)
	dispatch.HandleAs(op, ast.KindFunction, g.function)
	g.op = op

	return g
}

func (g *Generator) Module() *ir.Module {
	return g.module
}

// Passes returns the pass manager run after each function, or nil.
func (g *Generator) Passes() *passes.Manager {
	return g.passes
}

// Functions returns the declarations and definitions of the module, in
// the order they were added.
func (g *Generator) Functions() []*ir.Func {
	return append([]*ir.Func(nil), g.module.Funcs...)
}

// Lookup finds a function of the module by name.
func (g *Generator) Lookup(name string) *ir.Func {
	for _, f := range g.module.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// Remove deletes f from the module.
func (g *Generator) Remove(f *ir.Func) {
	for i, cur := range g.module.Funcs {
		if cur == f {
			g.module.Funcs = append(g.module.Funcs[:i], g.module.Funcs[i+1:]...)
			return
		}
	}
}

// Lower generates the IR function for a definition or top-level expression.
// On failure the module is left as it was, save that a function previously
// declared by an extern keeps the parameter names of this definition.
func (g *Generator) Lower(fn *ast.Function) (*ir.Func, error) {
	v, err := g.op.Dispatch(fn)
	if err != nil {
		return nil, err
	}
	return v.(*ir.Func), nil
}

// Declare adds the signature of an extern to the module.
func (g *Generator) Declare(proto *ast.Prototype) (*ir.Func, error) {
	v, err := g.op.Dispatch(proto)
	if err != nil {
		return nil, err
	}
	return v.(*ir.Func), nil
}

// Dump returns the textual IR of f.
func Dump(f *ir.Func) string {
	return f.LLString()
}

func (g *Generator) expr(e ast.Expr) (value.Value, error) {
	return g.op.Dispatch(e)
}

func (g *Generator) name(base string) string {
	return uniqueName(g.names, base)
}

// uniqueName returns base, or base with the first free numeric suffix, and
// records the result in names.
func uniqueName(names map[string]int, base string) string {
	n, used := names[base]
	names[base] = n + 1
	if !used {
		return base
	}

	name := base + strconv.Itoa(n)
	for {
		if _, taken := names[name]; !taken {
			names[name] = 1
			return name
		}
		n++
		names[base] = n + 1
		name = base + strconv.Itoa(n)
	}
}

// paramNames suffixes repeated parameter names so the textual IR stays
// valid. Lookups still go through the source names.
func paramNames(params []string) []string {
	names := map[string]int{}
	ret := make([]string, len(params))
	for i, p := range params {
		ret[i] = uniqueName(names, p)
	}
	return ret
}

func (g *Generator) anonymousName() string {
	name := anonName
	for i := 1; g.Lookup(name) != nil; i++ {
		name = anonName + strconv.Itoa(i)
	}
	return name
}

func float(x float64) *constant.Float {
	return constant.NewFloat(types.Double, x)
}

func (g *Generator) newBlock(name string) *ir.Block {
	return ir.NewBlock(g.name(name))
}

func (g *Generator) appendBlock(b *ir.Block) {
	b.Parent = g.fn
	g.fn.Blocks = append(g.fn.Blocks, b)
}

// entryAlloca allocates a slot at the top of the entry block, ahead of any
// code already generated there.
func (g *Generator) entryAlloca(name string) *ir.InstAlloca {
	a := ir.NewAlloca(types.Double)
	a.SetName(g.name(name))

	insts := append(g.entry.Insts, nil)
	copy(insts[g.allocas+1:], insts[g.allocas:])
	insts[g.allocas] = a
	g.entry.Insts = insts
	g.allocas++

	return a
}

type shadowed struct {
	name string
	slot *ir.InstAlloca
	had  bool
}

// bind points name at slot and returns what it hid.
func (g *Generator) bind(name string, slot *ir.InstAlloca) shadowed {
	old, had := g.locals[name]
	g.locals[name] = slot
	return shadowed{name: name, slot: old, had: had}
}

func (g *Generator) unbind(s shadowed) {
	if s.had {
		g.locals[s.name] = s.slot
	} else {
		delete(g.locals, s.name)
	}
}
