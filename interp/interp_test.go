package interp_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontaoski/kaleido/codegen"
	"github.com/pontaoski/kaleido/interp"
	"github.com/pontaoski/kaleido/lexer"
	"github.com/pontaoski/kaleido/parser"
)

func define(t *testing.T, g *codegen.Generator, src string) {
	t.Helper()

	p := parser.New(lexer.New(strings.NewReader(src)))
	p.Next()
	for p.Current().Kind != lexer.EOF {
		switch tok := p.Current(); {
		case tok.Is(';'):
			p.Next()
		case tok.Kind == lexer.EXTERN:
			proto, err := p.ParseExtern()
			require.NoError(t, err)
			_, err = g.Declare(proto)
			require.NoError(t, err)
		default:
			fn, err := p.ParseDefinition()
			require.NoError(t, err)
			_, err = g.Lower(fn)
			require.NoError(t, err)
		}
	}
}

func TestFib(t *testing.T) {
	g := codegen.New()
	define(t, g, "def fib(x) if x < 3 then 1 else fib(x-1)+fib(x-2)")

	m := interp.New()
	for n, want := range map[float64]float64{1: 1, 2: 1, 3: 2, 10: 55, 20: 6765} {
		got, err := m.Call(g.Lookup("fib"), n)
		require.NoError(t, err)
		assert.Equal(t, want, got, "fib(%v)", n)
	}
}

func TestUnoptimizedMatchesOptimized(t *testing.T) {
	src := `
def seq(x y) y;
def fibi(x)
  var a = 1, b = 1, c in
  (for i = 3, i < x in seq(c = a + b, seq(a = b, b = c))) + b;
`
	for _, opts := range [][]codegen.Option{nil, {codegen.WithoutOptimization()}} {
		g := codegen.New(opts...)
		define(t, g, src)

		got, err := interp.New().Call(g.Lookup("fibi"), 10)
		require.NoError(t, err)
		assert.Equal(t, 55.0, got)
	}
}

func TestExterns(t *testing.T) {
	var out bytes.Buffer
	m := interp.New(interp.WithOutput(&out))

	g := codegen.New()
	define(t, g, `
extern putchard(c);
extern printd(x);
extern sqrt(x);
def hello(x) putchard(72) + putchard(105) + printd(x);
def root(x) sqrt(x);
`)

	got, err := m.Call(g.Lookup("hello"), 2.5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
	assert.Equal(t, "Hi2.500000\n", out.String())

	got, err = m.Call(g.Lookup("root"), 16)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)
}

func TestRegister(t *testing.T) {
	m := interp.New()
	m.Register("hypot", func(_ *interp.Machine, args []float64) float64 {
		return math.Hypot(args[0], args[1])
	})

	g := codegen.New()
	define(t, g, "extern hypot(a b); def h() hypot(3, 4)")

	got, err := m.Call(g.Lookup("h"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)
}

func TestMissingExtern(t *testing.T) {
	g := codegen.New()
	define(t, g, "extern nowhere(x); def f(x) nowhere(x)")

	_, err := interp.New().Call(g.Lookup("f"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestStepLimit(t *testing.T) {
	g := codegen.New()
	define(t, g, "def spin(x) for i = 0, 1 in x")

	_, err := interp.New(interp.WithMaxSteps(1000)).Call(g.Lookup("spin"), 1)
	assert.ErrorIs(t, err, interp.ErrStepLimit)
}

func TestStepLimitCountsBranches(t *testing.T) {
	g := codegen.New()
	// folds down to a block that only branches to itself
	define(t, g, "def f() for i = 0, i < 3 in i = 1")

	_, err := interp.New(interp.WithMaxSteps(1000)).Call(g.Lookup("f"))
	assert.ErrorIs(t, err, interp.ErrStepLimit)
}

func TestDepthLimit(t *testing.T) {
	g := codegen.New()
	define(t, g, "def forever(x) forever(x + 1)")

	_, err := interp.New().Call(g.Lookup("forever"), 0)
	assert.ErrorIs(t, err, interp.ErrDepthLimit)
}

func TestArgumentCount(t *testing.T) {
	g := codegen.New()
	define(t, g, "def add(a b) a + b")

	_, err := interp.New().Call(g.Lookup("add"), 1)
	assert.Error(t, err)
}

func TestUnsupportedInstruction(t *testing.T) {
	f := ir.NewModule().NewFunc("f", types.Double)
	entry := f.NewBlock("entry")
	v := entry.NewFDiv(constant.NewFloat(types.Double, 1), constant.NewFloat(types.Double, 2))
	v.SetName("v")
	entry.NewRet(v)

	_, err := interp.New().Call(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestEveryBuiltinIsImplemented(t *testing.T) {
	g := codegen.New(codegen.WithBuiltins())

	var out bytes.Buffer
	m := interp.New(interp.WithOutput(&out))
	for _, name := range codegen.Builtins() {
		_, err := m.Call(g.Lookup(name), 1)
		assert.NoError(t, err, name)
	}
}
