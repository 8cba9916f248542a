package errors

import (
	"fmt"

	"github.com/pontaoski/kaleido/lexer"
)

type UnexpectedToken struct {
	Expected string
	Got      lexer.Token
}

func (e UnexpectedToken) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
}

type UnknownVariable struct {
	Name string
}

func (e UnknownVariable) Error() string {
	return fmt.Sprintf("unknown variable name %s", e.Name)
}

type UnknownFunction struct {
	Name string
}

func (e UnknownFunction) Error() string {
	return fmt.Sprintf("unknown function %s referenced", e.Name)
}

type ArityMismatch struct {
	Function string
	Expected int
	Got      int
}

func (e ArityMismatch) Error() string {
	return fmt.Sprintf("incorrect number of arguments passed to %s: expected %d, got %d", e.Function, e.Expected, e.Got)
}

type InvalidAssignment struct{}

func (e InvalidAssignment) Error() string {
	return "destination of '=' must be a variable"
}

type UnknownOperator struct {
	Op rune
}

func (e UnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator '%c'", e.Op)
}

type Redefinition struct {
	Function string
}

func (e Redefinition) Error() string {
	return fmt.Sprintf("function %s cannot be redefined", e.Function)
}

type Redeclaration struct {
	Function string
	Expected int
	Got      int
}

func (e Redeclaration) Error() string {
	return fmt.Sprintf("function %s redeclared with %d parameters, previously %d", e.Function, e.Got, e.Expected)
}

type VerifyError struct {
	Function string
	Block    string
	Msg      string
}

func (e VerifyError) Error() string {
	if e.Block == "" {
		return fmt.Sprintf("invalid function %s: %s", e.Function, e.Msg)
	}
	return fmt.Sprintf("invalid function %s, block %s: %s", e.Function, e.Block, e.Msg)
}
