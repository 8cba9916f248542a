// Package driver runs the read loop: it pulls top-level items from a source,
// compiles each one, evaluates expressions and reports what happened.
//
//	top ::= definition | external | expression | ';'
//
// A syntax error is reported and recovered from by skipping one token. A
// code generation error is reported and the item is dropped.
package driver

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ztrue/tracerr"

	"github.com/pontaoski/kaleido/ast"
	"github.com/pontaoski/kaleido/codegen"
	"github.com/pontaoski/kaleido/interp"
	"github.com/pontaoski/kaleido/lexer"
	"github.com/pontaoski/kaleido/parser"
)

type Option func(*Driver)

func WithGenerator(g *codegen.Generator) Option {
	return func(d *Driver) {
		d.gen = g
	}
}

func WithMachine(m *interp.Machine) Option {
	return func(d *Driver) {
		d.machine = m
	}
}

// WithPrompt sets a hook called before each top-level item is read.
func WithPrompt(fn func()) Option {
	return func(d *Driver) {
		d.prompt = fn
	}
}

// WithParsed sets a hook called with every item that parses.
func WithParsed(fn func(ast.Node)) Option {
	return func(d *Driver) {
		d.parsed = fn
	}
}

// ParseOnly stops after parsing. Nothing is compiled or evaluated.
func ParseOnly() Option {
	return func(d *Driver) {
		d.parseOnly = true
	}
}

func WithoutEvaluation() Option {
	return func(d *Driver) {
		d.evaluate = false
	}
}

func WithoutIR() Option {
	return func(d *Driver) {
		d.printIR = false
	}
}

// KeepTopLevel leaves the functions of top-level expressions in the module
// instead of removing them once they are evaluated.
func KeepTopLevel() Option {
	return func(d *Driver) {
		d.keepTopLevel = true
	}
}

// WithColor turns colored diagnostics on or off.
func WithColor(enabled bool) Option {
	return func(d *Driver) {
		if enabled {
			d.errColor.EnableColor()
		} else {
			d.errColor.DisableColor()
		}
	}
}

type Driver struct {
	l *lexer.Lexer
	p *parser.Parser

	out  io.Writer
	diag io.Writer

	gen     *codegen.Generator
	machine *interp.Machine

	prompt       func()
	parsed       func(ast.Node)
	parseOnly    bool
	evaluate     bool
	printIR      bool
	keepTopLevel bool
	errColor     *color.Color

	errors int
}

// New creates a driver reading source from r. Results go to out and
// diagnostics to diag.
func New(r io.Reader, out, diag io.Writer, opts ...Option) *Driver {
	l := lexer.New(r)
	d := &Driver{
		l:        l,
		p:        parser.New(l),
		out:      out,
		diag:     diag,
		evaluate: true,
		printIR:  true,
		errColor: color.New(color.FgRed, color.Bold),
	}
	d.errColor.DisableColor()
	for _, opt := range opts {
		opt(d)
	}
	if d.gen == nil {
		d.gen = codegen.New()
	}
	if d.machine == nil {
		d.machine = interp.New(interp.WithOutput(out))
	}
	return d
}

func (d *Driver) Generator() *codegen.Generator {
	return d.gen
}

// Errors is the number of diagnostics reported so far.
func (d *Driver) Errors() int {
	return d.errors
}

// Run processes items until the source is exhausted. The returned error is
// only set when reading the source fails.
func (d *Driver) Run() error {
	d.p.Next()
	for {
		if d.prompt != nil {
			d.prompt()
		}

		switch tok := d.p.Current(); {
		case tok.Kind == lexer.EOF:
			if err := d.l.Err(); err != nil {
				return tracerr.Wrap(err)
			}
			return nil
		case tok.Is(';'):
			d.p.Next()
		case tok.Kind == lexer.DEF:
			d.definition()
		case tok.Kind == lexer.EXTERN:
			d.extern()
		default:
			d.topLevel()
		}
	}
}

func (d *Driver) report(err error) {
	d.errors++
	d.errColor.Fprint(d.diag, "Error: ")
	fmt.Fprintln(d.diag, err)
}

// syntaxError reports err and skips the offending token.
func (d *Driver) syntaxError(err error) {
	d.report(err)
	d.p.Next()
}

// accept hands a parsed item to the hook and reports whether it should be
// compiled.
func (d *Driver) accept(n ast.Node) bool {
	if d.parsed != nil {
		d.parsed(n)
	}
	return !d.parseOnly
}

func (d *Driver) definition() {
	fn, err := d.p.ParseDefinition()
	if err != nil {
		d.syntaxError(err)
		return
	}
	if !d.accept(fn) {
		return
	}

	f, err := d.gen.Lower(fn)
	if err != nil {
		d.report(err)
		return
	}
	if d.printIR {
		fmt.Fprintf(d.out, "Read function definition:\n%s\n", codegen.Dump(f))
	}
}

func (d *Driver) extern() {
	proto, err := d.p.ParseExtern()
	if err != nil {
		d.syntaxError(err)
		return
	}
	if !d.accept(proto) {
		return
	}

	f, err := d.gen.Declare(proto)
	if err != nil {
		d.report(err)
		return
	}
	if d.printIR {
		fmt.Fprintf(d.out, "Read extern:\n%s\n", codegen.Dump(f))
	}
}

func (d *Driver) topLevel() {
	fn, err := d.p.ParseTopLevelExpr()
	if err != nil {
		d.syntaxError(err)
		return
	}
	if !d.accept(fn) {
		return
	}

	f, err := d.gen.Lower(fn)
	if err != nil {
		d.report(err)
		return
	}
	if !d.keepTopLevel {
		defer d.gen.Remove(f)
	}
	if d.printIR {
		fmt.Fprintf(d.out, "Read top-level expression:\n%s\n", codegen.Dump(f))
	}
	if !d.evaluate {
		return
	}

	x, err := d.machine.Call(f)
	if err != nil {
		d.report(err)
		return
	}
	fmt.Fprintf(d.out, "Evaluated to %f\n", x)
}
