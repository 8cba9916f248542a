package lexer

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lex(src string) []Token {
	return New(strings.NewReader(src)).All()
}

func TestLexer(t *testing.T) {
	tokens := lex("def foo(x y) x+y*2.5;")

	assert.Equal(t, []Token{
		{Kind: DEF},
		{Kind: IDENT, Ident: "foo"},
		{Kind: CHAR, Char: '('},
		{Kind: IDENT, Ident: "x"},
		{Kind: IDENT, Ident: "y"},
		{Kind: CHAR, Char: ')'},
		{Kind: IDENT, Ident: "x"},
		{Kind: CHAR, Char: '+'},
		{Kind: IDENT, Ident: "y"},
		{Kind: CHAR, Char: '*'},
		{Kind: NUMBER, Num: 2.5},
		{Kind: CHAR, Char: ';'},
	}, tokens)
}

func TestKeywords(t *testing.T) {
	tokens := lex("def extern if then else for in var define x1")

	var kinds []TokenKind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []TokenKind{DEF, EXTERN, IF, THEN, ELSE, FOR, IN, VAR, IDENT, IDENT}, kinds)
	assert.Equal(t, "define", tokens[8].Ident)
	assert.Equal(t, "x1", tokens[9].Ident)
}

func TestNumbers(t *testing.T) {
	cases := map[string]float64{
		"42":    42,
		"3.25":  3.25,
		".5":    0.5,
		"1.2.3": 1.2,
		".":     0,
		"7.":    7,
	}

	for src, want := range cases {
		tokens := lex(src)
		require.Len(t, tokens, 1, src)
		assert.Equal(t, NUMBER, tokens[0].Kind, src)
		assert.Equal(t, want, tokens[0].Num, src)
	}
}

func TestLongNumbers(t *testing.T) {
	tokens := lex(strings.Repeat("1.", 200000))
	require.Len(t, tokens, 1)
	assert.Equal(t, 1.1, tokens[0].Num)

	tokens = lex("1" + strings.Repeat("0", 400))
	require.Len(t, tokens, 1)
	assert.True(t, math.IsInf(tokens[0].Num, 1))
}

func TestNonASCII(t *testing.T) {
	tokens := lex("٣ é")

	assert.Equal(t, []Token{{Kind: CHAR, Char: '٣'}, {Kind: CHAR, Char: 'é'}}, tokens)
}

func TestComments(t *testing.T) {
	tokens := lex("# leading comment\n1 # trailing\r\n2 # runs to the end")

	assert.Equal(t, []Token{{Kind: NUMBER, Num: 1}, {Kind: NUMBER, Num: 2}}, tokens)
}

func TestEOFIsSticky(t *testing.T) {
	l := New(strings.NewReader("x"))

	assert.Equal(t, IDENT, l.Next().Kind)
	assert.Equal(t, EOF, l.Next().Kind)
	assert.Equal(t, EOF, l.Next().Kind)
	assert.NoError(t, l.Err())
}

func TestUnknownCharacters(t *testing.T) {
	tokens := lex("@ $ ;")

	assert.Equal(t, []Token{{Kind: CHAR, Char: '@'}, {Kind: CHAR, Char: '$'}, {Kind: CHAR, Char: ';'}}, tokens)
	assert.True(t, tokens[2].Is(';'))
	assert.False(t, tokens[2].Is(','))
}
