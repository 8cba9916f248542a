package passes

import (
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/kaleido/irutil"
)

// InstCombine folds constants, applies the float identities that are exact
// under IEEE semantics, collapses trivial phis and deletes dead
// instructions, until nothing changes.
type InstCombine struct{}

func (InstCombine) Name() string { return "instcombine" }

func isFloat(v value.Value, want float64) bool {
	x, ok := irutil.Float(v)
	return ok && x == want && math.Signbit(x) == math.Signbit(want)
}

func fold(typ types.Type, x float64) value.Value {
	ft, ok := typ.(*types.FloatType)
	if !ok {
		ft = types.Double
	}
	return constant.NewFloat(ft, x)
}

func simplify(inst ir.Instruction) value.Value {
	switch inst := inst.(type) {
	case *ir.InstFAdd:
		x, xok := irutil.Float(inst.X)
		y, yok := irutil.Float(inst.Y)
		switch {
		case xok && yok:
			return fold(inst.Type(), x+y)
		case isFloat(inst.X, math.Copysign(0, -1)):
			return inst.Y
		case isFloat(inst.Y, math.Copysign(0, -1)):
			return inst.X
		}
	case *ir.InstFSub:
		x, xok := irutil.Float(inst.X)
		y, yok := irutil.Float(inst.Y)
		switch {
		case xok && yok:
			return fold(inst.Type(), x-y)
		case isFloat(inst.Y, 0):
			return inst.X
		}
	case *ir.InstFMul:
		x, xok := irutil.Float(inst.X)
		y, yok := irutil.Float(inst.Y)
		switch {
		case xok && yok:
			return fold(inst.Type(), x*y)
		case isFloat(inst.X, 1):
			return inst.Y
		case isFloat(inst.Y, 1):
			return inst.X
		}
	case *ir.InstFCmp:
		x, xok := irutil.Float(inst.X)
		y, yok := irutil.Float(inst.Y)
		if xok && yok {
			return constant.NewBool(irutil.EvalFPred(inst.Pred, x, y))
		}
	case *ir.InstUIToFP:
		if b, ok := irutil.Bool(inst.From); ok {
			if b {
				return fold(inst.To, 1)
			}
			return fold(inst.To, 0)
		}
	case *ir.InstPhi:
		return trivialPhi(inst)
	}
	return nil
}

// trivialPhi returns the single value a phi merges, ignoring self edges.
func trivialPhi(phi *ir.InstPhi) value.Value {
	var same value.Value
	for _, inc := range phi.Incs {
		if inc.X == value.Value(phi) || inc.X == same {
			continue
		}
		if same != nil {
			return nil
		}
		same = inc.X
	}
	return same
}

// removeDead deletes unused instructions without side effects.
func removeDead(f *ir.Func) bool {
	changed := false
	for {
		uses := irutil.UseCounts(f)
		progress := false
		for _, b := range f.Blocks {
			var kept []ir.Instruction
			for _, inst := range b.Insts {
				v, isValue := inst.(value.Value)
				if isValue && uses[v] == 0 && !irutil.HasSideEffects(inst) {
					progress = true
					continue
				}
				kept = append(kept, inst)
			}
			b.Insts = kept
		}
		if !progress {
			return changed
		}
		changed = true
	}
}

func (InstCombine) Run(f *ir.Func) bool {
	changed := false
	for {
		progress := false
		for _, b := range f.Blocks {
			for _, inst := range b.Insts {
				v := simplify(inst)
				if v == nil {
					continue
				}
				if old, ok := inst.(value.Value); ok && old != v {
					irutil.ReplaceAll(f, old, v)
					progress = true
				}
			}
		}
		if removeDead(f) {
			progress = true
		}
		if !progress {
			return changed
		}
		changed = true
	}
}
