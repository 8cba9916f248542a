// Package interp executes generated IR functions directly, so top-level
// expressions can be evaluated without a native backend.
//
// Only the instruction set the code generator and passes produce is
// supported: stack slots, loads and stores, float arithmetic and
// comparison, uitofp, calls, phis, branches and returns. Every value is
// held as a float64; i1 values are 0 or 1.
package interp

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/kaleido/irutil"
)

// DefaultMaxSteps bounds the instructions a single Call may execute.
const DefaultMaxSteps = 10_000_000

// MaxDepth bounds the nesting of calls.
const MaxDepth = 10_000

var (
	ErrStepLimit  = errors.New("step limit exceeded")
	ErrDepthLimit = errors.New("call depth exceeded")
)

// An Extern implements a function that is declared but not defined in IR.
type Extern func(m *Machine, args []float64) float64

type Option func(*Machine)

func WithOutput(w io.Writer) Option {
	return func(m *Machine) {
		m.out = w
	}
}

// WithMaxSteps sets the instruction budget of a Call. Zero or less means no limit.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		m.MaxSteps = n
	}
}

type Machine struct {
	MaxSteps int

	out     io.Writer
	externs map[string]Extern
	steps   int
	depth   int
}

func New(opts ...Option) *Machine {
	m := &Machine{
		MaxSteps: DefaultMaxSteps,
		out:      os.Stdout,
		externs:  map[string]Extern{},
	}
	for name, fn := range builtins {
		m.externs[name] = fn
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Output is where externs such as putchard and printd write.
func (m *Machine) Output() io.Writer {
	return m.out
}

// Register makes fn the implementation of declared functions named name.
func (m *Machine) Register(name string, fn Extern) {
	m.externs[name] = fn
}

// Call runs fn with the given arguments and returns its result.
func (m *Machine) Call(fn *ir.Func, args ...float64) (float64, error) {
	m.steps, m.depth = 0, 0
	return m.call(fn, args)
}

type frame struct {
	fn     *ir.Func
	values map[value.Value]float64
	slots  map[*ir.InstAlloca]float64
}

func (fr *frame) eval(v value.Value) (float64, error) {
	switch v := v.(type) {
	case *constant.Float:
		x, _ := irutil.Float(v)
		return x, nil
	case *constant.Int:
		if b, _ := irutil.Bool(v); b {
			return 1, nil
		}
		return 0, nil
	case *constant.Undef:
		return 0, nil
	}
	x, ok := fr.values[v]
	if !ok {
		return 0, fmt.Errorf("%s: use of %s before it is computed", fr.fn.Name(), v.Ident())
	}
	return x, nil
}

func (m *Machine) call(fn *ir.Func, args []float64) (float64, error) {
	if len(args) != len(fn.Params) {
		return 0, fmt.Errorf("%s takes %d arguments, got %d", fn.Name(), len(fn.Params), len(args))
	}
	if len(fn.Blocks) == 0 {
		ext, ok := m.externs[fn.Name()]
		if !ok {
			return 0, fmt.Errorf("no definition for external function %s", fn.Name())
		}
		return ext(m, args), nil
	}

	if m.depth >= MaxDepth {
		return 0, ErrDepthLimit
	}
	m.depth++
	defer func() { m.depth-- }()

	fr := &frame{
		fn:     fn,
		values: map[value.Value]float64{},
		slots:  map[*ir.InstAlloca]float64{},
	}
	for i, p := range fn.Params {
		fr.values[p] = args[i]
	}

	var pred *ir.Block
	b := fn.Blocks[0]
	for {
		if err := m.enter(fr, b, pred); err != nil {
			return 0, err
		}

		for _, inst := range b.Insts {
			if err := m.step(); err != nil {
				return 0, err
			}
			if _, ok := inst.(*ir.InstPhi); ok {
				continue
			}
			if err := m.exec(fr, inst); err != nil {
				return 0, err
			}
		}

		// terminators count too, so an empty self-loop still runs out
		if err := m.step(); err != nil {
			return 0, err
		}
		next, ret, done, err := m.term(fr, b)
		if err != nil {
			return 0, err
		}
		if done {
			return ret, nil
		}
		pred, b = b, next
	}
}

func (m *Machine) step() error {
	if m.MaxSteps <= 0 {
		return nil
	}
	m.steps++
	if m.steps > m.MaxSteps {
		return ErrStepLimit
	}
	return nil
}

// enter evaluates the phis of b for the edge from pred, all at once.
func (m *Machine) enter(fr *frame, b, pred *ir.Block) error {
	phis := irutil.Phis(b)
	if len(phis) == 0 {
		return nil
	}
	vals := make([]float64, len(phis))
	for i, phi := range phis {
		found := false
		for _, inc := range phi.Incs {
			if irutil.AsBlock(inc.Pred) != pred {
				continue
			}
			x, err := fr.eval(inc.X)
			if err != nil {
				return err
			}
			vals[i], found = x, true
			break
		}
		if !found {
			return fmt.Errorf("%s: phi %s has no value for the incoming edge", fr.fn.Name(), phi.Ident())
		}
	}
	for i, phi := range phis {
		fr.values[phi] = vals[i]
	}
	return nil
}

func (m *Machine) exec(fr *frame, inst ir.Instruction) error {
	ops := irutil.Operands(inst)
	arg := func(i int) (float64, error) {
		return fr.eval(*ops[i])
	}
	binary := func(dst value.Value, f func(x, y float64) float64) error {
		x, err := arg(0)
		if err != nil {
			return err
		}
		y, err := arg(1)
		if err != nil {
			return err
		}
		fr.values[dst] = f(x, y)
		return nil
	}

	switch inst := inst.(type) {
	case *ir.InstAlloca:
		fr.slots[inst] = 0
	case *ir.InstLoad:
		slot, ok := inst.Src.(*ir.InstAlloca)
		if !ok {
			return fmt.Errorf("%s: load from %s is not supported", fr.fn.Name(), inst.Src.Ident())
		}
		fr.values[inst] = fr.slots[slot]
	case *ir.InstStore:
		slot, ok := inst.Dst.(*ir.InstAlloca)
		if !ok {
			return fmt.Errorf("%s: store to %s is not supported", fr.fn.Name(), inst.Dst.Ident())
		}
		x, err := fr.eval(inst.Src)
		if err != nil {
			return err
		}
		fr.slots[slot] = x
	case *ir.InstFAdd:
		return binary(inst, func(x, y float64) float64 { return x + y })
	case *ir.InstFSub:
		return binary(inst, func(x, y float64) float64 { return x - y })
	case *ir.InstFMul:
		return binary(inst, func(x, y float64) float64 { return x * y })
	case *ir.InstFCmp:
		return binary(inst, func(x, y float64) float64 {
			if irutil.EvalFPred(inst.Pred, x, y) {
				return 1
			}
			return 0
		})
	case *ir.InstUIToFP:
		x, err := arg(0)
		if err != nil {
			return err
		}
		fr.values[inst] = x
	case *ir.InstCall:
		callee, ok := inst.Callee.(*ir.Func)
		if !ok {
			return fmt.Errorf("%s: indirect calls are not supported", fr.fn.Name())
		}
		args := make([]float64, len(inst.Args))
		for i, a := range inst.Args {
			x, err := fr.eval(a)
			if err != nil {
				return err
			}
			args[i] = x
		}
		x, err := m.call(callee, args)
		if err != nil {
			return err
		}
		fr.values[inst] = x
	default:
		return fmt.Errorf("%s: unsupported instruction %s", fr.fn.Name(), inst.LLString())
	}
	return nil
}

func (m *Machine) term(fr *frame, b *ir.Block) (next *ir.Block, ret float64, done bool, err error) {
	switch t := b.Term.(type) {
	case *ir.TermRet:
		if t.X == nil {
			return nil, 0, true, nil
		}
		x, err := fr.eval(t.X)
		return nil, x, true, err
	case *ir.TermBr:
		return irutil.AsBlock(t.Target), 0, false, nil
	case *ir.TermCondBr:
		c, err := fr.eval(t.Cond)
		if err != nil {
			return nil, 0, false, err
		}
		if c != 0 {
			return irutil.AsBlock(t.TargetTrue), 0, false, nil
		}
		return irutil.AsBlock(t.TargetFalse), 0, false, nil
	}
	return nil, 0, false, fmt.Errorf("%s: block %s has an unsupported terminator", fr.fn.Name(), b.Name())
}
