package lexer

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

const eof rune = -1

type Lexer struct {
	reader   *bufio.Reader
	lastChar rune
	err      error
}

func New(reader io.Reader) *Lexer {
	return &Lexer{
		reader:   bufio.NewReader(reader),
		lastChar: ' ',
	}
}

// Err returns the first read error other than io.EOF, if any.
func (l *Lexer) Err() error {
	return l.err
}

func (l *Lexer) advance() {
	if l.lastChar == eof {
		return
	}

	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err != io.EOF {
			l.err = err
		}
		l.lastChar = eof
		return
	}

	l.lastChar = r
}

// Letters and digits are ASCII only.
func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNumberChar(r rune) bool {
	return isDigit(r) || r == '.'
}

func (l *Lexer) Next() Token {
	for l.lastChar != eof && unicode.IsSpace(l.lastChar) {
		l.advance()
	}

	switch {
	case l.lastChar == eof:
		return Token{Kind: EOF}
	case isLetter(l.lastChar):
		var sb strings.Builder
		for isLetter(l.lastChar) || isDigit(l.lastChar) {
			sb.WriteRune(l.lastChar)
			l.advance()
		}

		lit := sb.String()
		if kind, ok := keywords[lit]; ok {
			return Token{Kind: kind}
		}
		return Token{Kind: IDENT, Ident: lit}
	case isNumberChar(l.lastChar):
		var sb strings.Builder
		for isNumberChar(l.lastChar) {
			sb.WriteRune(l.lastChar)
			l.advance()
		}
		return Token{Kind: NUMBER, Num: parseNumber(sb.String())}
	case l.lastChar == '#':
		for l.lastChar != eof && l.lastChar != '\n' && l.lastChar != '\r' {
			l.advance()
		}
		return l.Next()
	}

	r := l.lastChar
	l.advance()
	return Token{Kind: CHAR, Char: r}
}

// parseNumber parses the longest prefix of lit that is a valid float, so
// "1.2.3" reads as 1.2 and a lone "." as 0. lit holds only digits and dots.
func parseNumber(lit string) float64 {
	if i := strings.IndexByte(lit, '.'); i >= 0 {
		if j := strings.IndexByte(lit[i+1:], '.'); j >= 0 {
			lit = lit[:i+1+j]
		}
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return v
}

// All lexes until EOF, excluding the EOF token.
func (l *Lexer) All() (ret []Token) {
	for t := l.Next(); t.Kind != EOF; t = l.Next() {
		ret = append(ret, t)
	}
	return
}
