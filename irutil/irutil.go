// Package irutil has the llir/llvm helpers shared by the passes and the
// interpreter: control-flow edges, operand access and constant reading for
// the instruction subset the code generator emits.
package irutil

import (
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"
)

func AsBlock(v value.Value) *ir.Block {
	b, _ := v.(*ir.Block)
	return b
}

// Succs returns the distinct successors of b in branch order.
func Succs(b *ir.Block) []*ir.Block {
	switch t := b.Term.(type) {
	case *ir.TermBr:
		return []*ir.Block{AsBlock(t.Target)}
	case *ir.TermCondBr:
		then, els := AsBlock(t.TargetTrue), AsBlock(t.TargetFalse)
		if then == els {
			return []*ir.Block{then}
		}
		return []*ir.Block{then, els}
	}
	return nil
}

// Preds maps every block of f to its distinct predecessors, in block order.
func Preds(f *ir.Func) map[*ir.Block][]*ir.Block {
	preds := make(map[*ir.Block][]*ir.Block, len(f.Blocks))
	for _, b := range f.Blocks {
		preds[b] = preds[b]
	}
	for _, b := range f.Blocks {
		for _, s := range Succs(b) {
			preds[s] = append(preds[s], b)
		}
	}
	return preds
}

// Phis returns the phi instructions at the start of b.
func Phis(b *ir.Block) (ret []*ir.InstPhi) {
	for _, inst := range b.Insts {
		phi, ok := inst.(*ir.InstPhi)
		if !ok {
			break
		}
		ret = append(ret, phi)
	}
	return
}

// RemoveIncoming drops the phi edges from pred in b.
func RemoveIncoming(b, pred *ir.Block) {
	for _, phi := range Phis(b) {
		var kept []*ir.Incoming
		for _, inc := range phi.Incs {
			if AsBlock(inc.Pred) != pred {
				kept = append(kept, inc)
			}
		}
		phi.Incs = kept
	}
}

// Operands returns pointers to the value operands of inst, so callers can
// rewrite them in place.
func Operands(inst ir.Instruction) []*value.Value {
	switch inst := inst.(type) {
	case *ir.InstLoad:
		return []*value.Value{&inst.Src}
	case *ir.InstStore:
		return []*value.Value{&inst.Src, &inst.Dst}
	case *ir.InstFAdd:
		return []*value.Value{&inst.X, &inst.Y}
	case *ir.InstFSub:
		return []*value.Value{&inst.X, &inst.Y}
	case *ir.InstFMul:
		return []*value.Value{&inst.X, &inst.Y}
	case *ir.InstFCmp:
		return []*value.Value{&inst.X, &inst.Y}
	case *ir.InstUIToFP:
		return []*value.Value{&inst.From}
	case *ir.InstCall:
		ops := []*value.Value{&inst.Callee}
		for i := range inst.Args {
			ops = append(ops, &inst.Args[i])
		}
		return ops
	case *ir.InstPhi:
		var ops []*value.Value
		for _, inc := range inst.Incs {
			ops = append(ops, &inc.X)
		}
		return ops
	}
	return nil
}

// TermOperands is Operands for terminators. Branch targets are not included.
func TermOperands(term ir.Terminator) []*value.Value {
	switch t := term.(type) {
	case *ir.TermRet:
		if t.X == nil {
			return nil
		}
		return []*value.Value{&t.X}
	case *ir.TermCondBr:
		return []*value.Value{&t.Cond}
	}
	return nil
}

// ReplaceAll rewrites every use of old in f to new.
func ReplaceAll(f *ir.Func, old, new value.Value) {
	rewrite := func(ops []*value.Value) {
		for _, op := range ops {
			if *op == old {
				*op = new
			}
		}
	}

	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			rewrite(Operands(inst))
		}
		if b.Term != nil {
			rewrite(TermOperands(b.Term))
		}
	}
}

// UseCounts counts the uses of every value referenced in f.
func UseCounts(f *ir.Func) map[value.Value]int {
	uses := map[value.Value]int{}
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			for _, op := range Operands(inst) {
				uses[*op]++
			}
		}
		if b.Term != nil {
			for _, op := range TermOperands(b.Term) {
				uses[*op]++
			}
		}
	}
	return uses
}

// HasSideEffects reports whether inst must be kept even when unused.
func HasSideEffects(inst ir.Instruction) bool {
	switch inst.(type) {
	case *ir.InstStore, *ir.InstCall:
		return true
	}
	return false
}

func RemoveInst(b *ir.Block, inst ir.Instruction) {
	for i, cur := range b.Insts {
		if cur == inst {
			b.Insts = append(b.Insts[:i], b.Insts[i+1:]...)
			return
		}
	}
}

// Float reads v as a floating-point constant.
func Float(v value.Value) (float64, bool) {
	c, ok := v.(*constant.Float)
	if !ok || c.X == nil {
		return 0, false
	}
	x, _ := c.X.Float64()
	return x, true
}

// Bool reads v as an integer constant, nonzero meaning true.
func Bool(v value.Value) (bool, bool) {
	c, ok := v.(*constant.Int)
	if !ok || c.X == nil {
		return false, false
	}
	return c.X.Sign() != 0, true
}

// EvalFPred evaluates a floating-point comparison the way LLVM's fcmp does:
// ordered predicates are false if either operand is NaN, unordered ones true.
func EvalFPred(pred enum.FPred, x, y float64) bool {
	uno := math.IsNaN(x) || math.IsNaN(y)

	switch pred {
	case enum.FPredFalse:
		return false
	case enum.FPredTrue:
		return true
	case enum.FPredOEQ:
		return !uno && x == y
	case enum.FPredOGT:
		return !uno && x > y
	case enum.FPredOGE:
		return !uno && x >= y
	case enum.FPredOLT:
		return !uno && x < y
	case enum.FPredOLE:
		return !uno && x <= y
	case enum.FPredONE:
		return !uno && x != y
	case enum.FPredORD:
		return !uno
	case enum.FPredUEQ:
		return uno || x == y
	case enum.FPredUGT:
		return uno || x > y
	case enum.FPredUGE:
		return uno || x >= y
	case enum.FPredULT:
		return uno || x < y
	case enum.FPredULE:
		return uno || x <= y
	case enum.FPredUNE:
		return uno || x != y
	case enum.FPredUNO:
		return uno
	}
	return false
}
