package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

type builtin struct {
	name   string
	params []string
}

// builtins are the runtime functions every execution environment provides.
var builtins = []builtin{
	{"putchard", []string{"c"}},
	{"printd", []string{"x"}},
	{"sin", []string{"x"}},
	{"cos", []string{"x"}},
	{"sqrt", []string{"x"}},
	{"exp", []string{"x"}},
	{"log", []string{"x"}},
	{"fabs", []string{"x"}},
}

// WithBuiltins declares the runtime functions up front, so programs can
// call them without an extern.
func WithBuiltins() Option {
	return func(g *Generator) {
		for _, b := range builtins {
			if g.Lookup(b.name) != nil {
				continue
			}
			params := make([]*ir.Param, len(b.params))
			for i, p := range b.params {
				params[i] = ir.NewParam(p, types.Double)
			}
			g.module.NewFunc(b.name, types.Double, params...)
		}
	}
}

// Builtins lists the names WithBuiltins declares.
func Builtins() []string {
	names := make([]string, len(builtins))
	for i, b := range builtins {
		names[i] = b.name
	}
	return names
}
