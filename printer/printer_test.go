package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/lexer"
	"github.com/pontaoski/kaleido/parser"
)

func outline(t *testing.T, src string) string {
	t.Helper()

	p := parser.New(lexer.New(strings.NewReader(src)))
	p.Next()

	var fn *ast.Function
	var err error
	if p.Current().Kind == lexer.DEF {
		fn, err = p.ParseDefinition()
	} else {
		fn, err = p.ParseTopLevelExpr()
	}
	require.NoError(t, err)

	out, err := Sprint(fn)
	require.NoError(t, err)
	return out
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestDefinition(t *testing.T) {
	got := outline(t, "def test(x y) x+y*5.5")

	assert.Equal(t, lines(
		"def test ( x y )",
		"  +",
		"    x",
		"    *",
		"      y",
		"      5.5",
	), got)
}

func TestControlFlow(t *testing.T) {
	got := outline(t, "if f(1, x) then 2 else for i = 0, i < 3, 1 in i")

	assert.Equal(t, lines(
		"expr",
		"  if",
		"    call f",
		"      1",
		"      x",
		"  then",
		"    2",
		"  else",
		"    for i",
		"      start",
		"        0",
		"      end",
		"        <",
		"          i",
		"          3",
		"      step",
		"        1",
		"      in",
		"        i",
	), got)
}

func TestVar(t *testing.T) {
	got := outline(t, "def test(n) var x=5, y in x*n")

	assert.Equal(t, lines(
		"def test ( n )",
		"  var",
		"    x",
		"      5",
		"    y",
		"    in",
		"      *",
		"        x",
		"        n",
	), got)
}

func TestForWithoutStep(t *testing.T) {
	got := outline(t, "for i = 0, 1 in 2")

	assert.NotContains(t, got, "step")
}

type failWriter struct{ n int }

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, assert.AnError
	}
	w.n--
	return len(p), nil
}

func TestWriteError(t *testing.T) {
	node := &ast.Binary{Op: '+', LHS: &ast.Number{Value: 1}, RHS: &ast.Number{Value: 2}}

	err := Fprint(&failWriter{n: 1}, node)
	assert.ErrorIs(t, err, assert.AnError)

	var buf bytes.Buffer
	require.NoError(t, Fprint(&buf, node))
	assert.Equal(t, lines("+", "  1", "  2"), buf.String())
}
