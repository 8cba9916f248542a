package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/errors"
	"github.com/pontaoski/kaleido/interp"
	"github.com/pontaoski/kaleido/irutil"
	"github.com/pontaoski/kaleido/lexer"
	"github.com/pontaoski/kaleido/parser"
)

// compile feeds every top-level item of src to g and returns the function
// produced by the last one. It stops at the first error.
func compile(t *testing.T, g *Generator, src string) (*ir.Func, error) {
	t.Helper()

	p := parser.New(lexer.New(strings.NewReader(src)))
	p.Next()

	var last *ir.Func
	for {
		var err error
		switch tok := p.Current(); {
		case tok.Kind == lexer.EOF:
			return last, nil
		case tok.Is(';'):
			p.Next()
			continue
		case tok.Kind == lexer.DEF:
			fn, perr := p.ParseDefinition()
			require.NoError(t, perr, src)
			last, err = g.Lower(fn)
		case tok.Kind == lexer.EXTERN:
			proto, perr := p.ParseExtern()
			require.NoError(t, perr, src)
			last, err = g.Declare(proto)
		default:
			fn, perr := p.ParseTopLevelExpr()
			require.NoError(t, perr, src)
			last, err = g.Lower(fn)
		}
		if err != nil {
			return nil, err
		}
	}
}

func mustCompile(t *testing.T, g *Generator, src string) *ir.Func {
	t.Helper()
	f, err := compile(t, g, src)
	require.NoError(t, err, src)
	return f
}

func eval(t *testing.T, g *Generator, src string) float64 {
	t.Helper()
	f := mustCompile(t, g, src)
	x, err := interp.New().Call(f)
	require.NoError(t, err)
	return x
}

func names(fs []*ir.Func) []string {
	var ret []string
	for _, f := range fs {
		ret = append(ret, f.Name())
	}
	return ret
}

func isMemory(inst ir.Instruction) bool {
	switch inst.(type) {
	case *ir.InstAlloca, *ir.InstLoad, *ir.InstStore:
		return true
	}
	return false
}

func countInsts(f *ir.Func, match func(ir.Instruction) bool) int {
	n := 0
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if match(inst) {
				n++
			}
		}
	}
	return n
}

func TestConstantExpression(t *testing.T) {
	g := New()
	f := mustCompile(t, g, "4 + 5 * 2")

	assert.Equal(t, "__anon_expr", f.Name())
	require.Len(t, f.Blocks, 1)
	assert.Empty(t, f.Blocks[0].Insts)
	x, ok := irutil.Float(f.Blocks[0].Term.(*ir.TermRet).X)
	require.True(t, ok)
	assert.Equal(t, 14.0, x)
}

func TestAnonymousNames(t *testing.T) {
	g := New()
	mustCompile(t, g, "1; 2; 3")

	assert.Equal(t, []string{"__anon_expr", "__anon_expr1", "__anon_expr2"}, names(g.Functions()))

	g.Remove(g.Lookup("__anon_expr"))
	f := mustCompile(t, g, "4")
	assert.Equal(t, "__anon_expr", f.Name())
}

func TestSlotsArePromoted(t *testing.T) {
	g := New()
	f := mustCompile(t, g, "def fib(x) if x < 3 then 1 else fib(x-1)+fib(x-2)")

	assert.Zero(t, countInsts(f, isMemory))
	assert.Equal(t, 55.0, eval(t, g, "fib(10)"))
}

func TestWithoutOptimizationKeepsSlots(t *testing.T) {
	g := New(WithoutOptimization())
	f := mustCompile(t, g, "def id(x) x")

	assert.Nil(t, g.Passes())
	require.Len(t, f.Blocks, 1)
	entry := f.Blocks[0]
	require.Len(t, entry.Insts, 3)

	slot, ok := entry.Insts[0].(*ir.InstAlloca)
	require.True(t, ok)
	assert.Equal(t, "x1", slot.Name())
	store, ok := entry.Insts[1].(*ir.InstStore)
	require.True(t, ok)
	assert.Equal(t, f.Params[0], store.Src)
	load, ok := entry.Insts[2].(*ir.InstLoad)
	require.True(t, ok)
	assert.Equal(t, slot, load.Src)
	assert.Equal(t, load, entry.Term.(*ir.TermRet).X)
}

func TestIfUsesPhi(t *testing.T) {
	g := New(WithoutOptimization())
	f := mustCompile(t, g, "def f(x) if x then 1 else 2")

	assert.Equal(t, []string{"entry", "then", "else", "ifcont"}, blockNames(f))

	merge := f.Blocks[3]
	phis := irutil.Phis(merge)
	require.Len(t, phis, 1)
	assert.Equal(t, "iftmp", phis[0].Name())
	require.Len(t, phis[0].Incs, 2)
	assert.Equal(t, f.Blocks[1], phis[0].Incs[0].Pred)
	assert.Equal(t, f.Blocks[2], phis[0].Incs[1].Pred)
	assert.Equal(t, phis[0], merge.Term.(*ir.TermRet).X)
}

func blockNames(f *ir.Func) []string {
	var ret []string
	for _, b := range f.Blocks {
		ret = append(ret, b.Name())
	}
	return ret
}

func TestForRunsBodyBeforeTest(t *testing.T) {
	var out bytes.Buffer
	m := interp.New(interp.WithOutput(&out))

	g := New()
	mustCompile(t, g, "extern putchard(c); def stars(n) for i = 0, i < n in putchard(42)")

	stars := g.Lookup("stars")
	_, err := m.Call(stars, 3)
	require.NoError(t, err)
	assert.Equal(t, "****", out.String())

	out.Reset()
	_, err = m.Call(stars, 0)
	require.NoError(t, err)
	assert.Equal(t, "*", out.String())
}

func TestForValueIsZero(t *testing.T) {
	g := New()
	assert.Equal(t, 0.0, eval(t, g, "for i = 1, i < 10, 2 in i"))
}

func TestDefaultStepMatchesExplicitStep(t *testing.T) {
	g := New(WithoutOptimization())
	implicit := mustCompile(t, g, "def a(n) for i = 0, i < n in n")
	explicit := mustCompile(t, g, "def b(n) for i = 0, i < n, 1.0 in n")

	assert.Equal(t,
		strings.Replace(Dump(implicit), "@a(", "@b(", 1),
		Dump(explicit))
}

func TestShadowing(t *testing.T) {
	g := New()
	mustCompile(t, g, `
def viaVar(x) (var x = 2 in x) + x;
def viaFor(i) (for i = 0, i < 3 in i) + i;
def nested(a) var a = a + 1, b = a * 10 in a + b;
def twice(a) var a = 1, a = 2 in a;
`)

	m := interp.New()
	call := func(name string, arg float64) float64 {
		x, err := m.Call(g.Lookup(name), arg)
		require.NoError(t, err, name)
		return x
	}

	assert.Equal(t, 3.0, call("viaVar", 1))
	assert.Equal(t, 5.0, call("viaFor", 5))
	// b sees the new a
	assert.Equal(t, 44.0, call("nested", 3))
	assert.Equal(t, 2.0, call("twice", 7))
}

func TestAssignment(t *testing.T) {
	g := New()
	mustCompile(t, g, "def h(a) var b = a, c in (c = b * 2) + c")

	x, err := interp.New().Call(g.Lookup("h"), 3)
	require.NoError(t, err)
	assert.Equal(t, 12.0, x)
}

func TestExternThenDefinition(t *testing.T) {
	g := New()
	mustCompile(t, g, "extern twice(a); def user(x) twice(x) + 1; def twice(b) b * 2")

	f := g.Lookup("twice")
	require.NotNil(t, f)
	assert.Equal(t, "b", f.Params[0].Name())
	assert.Equal(t, []string{"twice", "user"}, names(g.Functions()))

	x, err := interp.New().Call(g.Lookup("user"), 4)
	require.NoError(t, err)
	assert.Equal(t, 9.0, x)
}

func TestRepeatedParameters(t *testing.T) {
	g := New()
	f := mustCompile(t, g, "extern e(y y); def d(x x) x")
	assert.Equal(t, []string{"x", "x1"}, []string{f.Params[0].Name(), f.Params[1].Name()})

	x, err := interp.New().Call(f, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, x)

	m, err := asm.ParseString("kaleido.ll", g.Module().String())
	require.NoError(t, err)
	require.Len(t, m.Funcs, 2)
	assert.Equal(t, "y1", m.Funcs[0].Params[1].Name())
}

func TestErrors(t *testing.T) {
	cases := []struct {
		src  string
		want error
	}{
		{"def f(x) y", errors.UnknownVariable{Name: "y"}},
		{"def f(x) x = 1; def g() y = 1", errors.UnknownVariable{Name: "y"}},
		{"nope(1)", errors.UnknownFunction{Name: "nope"}},
		{"def f(a b) a; f(1)", errors.ArityMismatch{Function: "f", Expected: 2, Got: 1}},
		{"1 = 2", errors.InvalidAssignment{}},
		{"def f(x) x; def f(y) y", errors.Redefinition{Function: "f"}},
		{"extern f(a); def f(a b) a", errors.Redeclaration{Function: "f", Expected: 1, Got: 2}},
		{"extern f(a); extern f()", errors.Redeclaration{Function: "f", Expected: 1, Got: 0}},
	}

	for _, tc := range cases {
		_, err := compile(t, New(), tc.src)
		assert.Equal(t, tc.want, err, tc.src)
	}
}

func TestUnknownOperator(t *testing.T) {
	g := New()
	_, err := g.Lower(&ast.Function{
		Proto: &ast.Prototype{},
		Body:  &ast.Binary{Op: '/', LHS: &ast.Number{Value: 1}, RHS: &ast.Number{Value: 2}},
	})
	assert.Equal(t, errors.UnknownOperator{Op: '/'}, err)
	assert.Empty(t, g.Functions())
}

func TestFailureLeavesModuleUnchanged(t *testing.T) {
	g := New()
	mustCompile(t, g, "def ok(x) x")

	_, err := compile(t, g, "def bad(x) missing(x)")
	require.Error(t, err)
	_, err = compile(t, g, "missing(1)")
	require.Error(t, err)
	assert.Equal(t, []string{"ok"}, names(g.Functions()))

	// the anonymous name is free again
	f := mustCompile(t, g, "ok(1)")
	assert.Equal(t, "__anon_expr", f.Name())
}

func TestFailureKeepsExternDeclaration(t *testing.T) {
	g := New()
	mustCompile(t, g, "extern later(a)")

	_, err := compile(t, g, "def later(a) if a then zz else 1")
	require.Error(t, err)

	f := g.Lookup("later")
	require.NotNil(t, f)
	assert.Empty(t, f.Blocks)

	// the declaration can still be defined
	mustCompile(t, g, "def later(a) a")
	assert.Len(t, g.Functions(), 1)
}

func TestModuleName(t *testing.T) {
	g := New(WithModuleName("kaleido"))
	assert.Equal(t, "kaleido", g.Module().SourceFilename)
}

func TestBuiltins(t *testing.T) {
	g := New(WithBuiltins())
	assert.Equal(t, Builtins(), names(g.Functions()))

	assert.Equal(t, 3.0, eval(t, g, "sqrt(9)"))

	// an extern of a builtin with the same arity is a no-op
	_, err := compile(t, g, "extern sin(y)")
	require.NoError(t, err)
	_, err = compile(t, g, "extern sin(a b)")
	assert.Equal(t, errors.Redeclaration{Function: "sin", Expected: 1, Got: 2}, err)
}
