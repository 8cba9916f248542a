package lexer

import (
	"fmt"
	"strconv"
)

type TokenKind int

const (
	EOF TokenKind = iota

	DEF
	EXTERN
	IF
	THEN
	ELSE
	FOR
	IN
	VAR

	IDENT
	NUMBER

	// CHAR is any other single character, carried verbatim in Token.Char.
	CHAR
)

func (t TokenKind) String() string {
	data := map[TokenKind]string{
		EOF:    "EOF",
		DEF:    "DEF",
		EXTERN: "EXTERN",
		IF:     "IF",
		THEN:   "THEN",
		ELSE:   "ELSE",
		FOR:    "FOR",
		IN:     "IN",
		VAR:    "VAR",
		IDENT:  "IDENT",
		NUMBER: "NUMBER",
		CHAR:   "CHAR",
	}
	if s, ok := data[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(t))
}

var keywords = map[string]TokenKind{
	"def":    DEF,
	"extern": EXTERN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
	"var":    VAR,
}

type Token struct {
	Kind  TokenKind
	Ident string
	Num   float64
	Char  rune
}

// Is reports whether t is the punctuation character r.
func (t Token) Is(r rune) bool {
	return t.Kind == CHAR && t.Char == r
}

func (t Token) String() string {
	switch t.Kind {
	case IDENT:
		return fmt.Sprintf("identifier %q", t.Ident)
	case NUMBER:
		return "number " + strconv.FormatFloat(t.Num, 'g', -1, 64)
	case CHAR:
		return fmt.Sprintf("'%c'", t.Char)
	case EOF:
		return "end of input"
	}
	for word, kind := range keywords {
		if kind == t.Kind {
			return "'" + word + "'"
		}
	}
	return t.Kind.String()
}
