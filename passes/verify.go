package passes

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/kaleido/errors"
	"github.com/pontaoski/kaleido/irutil"
)

// Verify checks that f is structurally valid SSA: every block terminated,
// phis first and matching the predecessors, every branch inside f, every
// operand defined in f before its use, and returns of the declared type.
// Declarations verify trivially.
func Verify(f *ir.Func) error {
	if len(f.Blocks) == 0 {
		return nil
	}

	fail := func(b *ir.Block, msg string, args ...interface{}) error {
		e := errors.VerifyError{Function: f.Name(), Msg: fmt.Sprintf(msg, args...)}
		if b != nil {
			e.Block = b.Name()
		}
		return e
	}

	inFunc := map[*ir.Block]bool{}
	for _, b := range f.Blocks {
		inFunc[b] = true
	}
	params := map[value.Value]bool{}
	for _, p := range f.Params {
		params[p] = true
	}

	defBlock := map[value.Value]*ir.Block{}
	defIndex := map[value.Value]int{}
	for _, b := range f.Blocks {
		if b.Term == nil {
			return fail(b, "missing terminator")
		}
		for _, s := range irutil.Succs(b) {
			if !inFunc[s] {
				return fail(b, "branch to a block outside the function")
			}
		}
		for i, inst := range b.Insts {
			if v, ok := inst.(value.Value); ok {
				defBlock[v] = b
				defIndex[v] = i
			}
		}
	}

	preds := irutil.Preds(f)
	if len(preds[f.Blocks[0]]) > 0 {
		return fail(f.Blocks[0], "entry block has predecessors")
	}

	dt := dominators(f)
	reachable := func(b *ir.Block) bool {
		_, ok := dt.index[b]
		return ok
	}

	// available reports whether v may be used at position i of block at.
	available := func(v value.Value, at *ir.Block, i int) error {
		if params[v] {
			return nil
		}
		if _, ok := v.(*ir.Param); ok {
			return fail(at, "use of a parameter of another function")
		}
		if _, ok := v.(ir.Instruction); !ok {
			return nil
		}
		def, ok := defBlock[v]
		if !ok {
			return fail(at, "use of %s, which is not defined in the function", v.Ident())
		}
		if !reachable(at) {
			return nil
		}
		if def == at && defIndex[v] >= i {
			return fail(at, "use of %s before its definition", v.Ident())
		}
		if def != at && !dt.dominates(def, at) {
			return fail(at, "definition of %s does not dominate its use", v.Ident())
		}
		return nil
	}

	for _, b := range f.Blocks {
		seenOther := false
		for i, inst := range b.Insts {
			phi, isPhi := inst.(*ir.InstPhi)
			if !isPhi {
				seenOther = true
				for _, op := range irutil.Operands(inst) {
					if err := available(*op, b, i); err != nil {
						return err
					}
				}
				continue
			}

			if seenOther {
				return fail(b, "phi %s is not at the start of the block", phi.Ident())
			}
			if len(phi.Incs) != len(preds[b]) {
				return fail(b, "phi %s has %d incoming values for %d predecessors", phi.Ident(), len(phi.Incs), len(preds[b]))
			}
			seen := map[*ir.Block]bool{}
			for _, inc := range phi.Incs {
				pred := irutil.AsBlock(inc.Pred)
				if !containsBlock(preds[b], pred) || seen[pred] {
					return fail(b, "phi %s has a bad incoming block", phi.Ident())
				}
				seen[pred] = true
				if err := available(inc.X, pred, len(pred.Insts)); err != nil {
					return err
				}
			}
		}

		for _, op := range irutil.TermOperands(b.Term) {
			if err := available(*op, b, len(b.Insts)); err != nil {
				return err
			}
		}
		if ret, ok := b.Term.(*ir.TermRet); ok {
			if ret.X == nil || !ret.X.Type().Equal(f.Sig.RetType) {
				return fail(b, "returned value does not match the return type %s", f.Sig.RetType)
			}
		}
	}

	return nil
}
