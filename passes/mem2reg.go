package passes

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/kaleido/irutil"
)

// Mem2Reg promotes entry-block stack slots that are only loaded and stored
// into SSA registers, placing phis on the iterated dominance frontier of
// the stores.
type Mem2Reg struct{}

func (Mem2Reg) Name() string { return "mem2reg" }

func promotable(f *ir.Func) []*ir.InstAlloca {
	var candidates []*ir.InstAlloca
	ok := map[*ir.InstAlloca]bool{}
	for _, inst := range f.Blocks[0].Insts {
		if a, isAlloca := inst.(*ir.InstAlloca); isAlloca && a.NElems == nil {
			candidates = append(candidates, a)
			ok[a] = true
		}
	}

	reject := func(v value.Value) {
		if a, isAlloca := v.(*ir.InstAlloca); isAlloca {
			delete(ok, a)
		}
	}

	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			switch inst := inst.(type) {
			case *ir.InstLoad:
				// loading from the slot is fine
			case *ir.InstStore:
				// storing the slot's address somewhere is not
				reject(inst.Src)
			default:
				for _, op := range irutil.Operands(inst) {
					reject(*op)
				}
			}
		}
		if b.Term != nil {
			for _, op := range irutil.TermOperands(b.Term) {
				reject(*op)
			}
		}
	}

	var ret []*ir.InstAlloca
	for _, a := range candidates {
		if ok[a] {
			ret = append(ret, a)
		}
	}
	return ret
}

func slotOf(v value.Value, promoted map[*ir.InstAlloca]bool) (*ir.InstAlloca, bool) {
	a, ok := v.(*ir.InstAlloca)
	if !ok || !promoted[a] {
		return nil, false
	}
	return a, true
}

func (Mem2Reg) Run(f *ir.Func) bool {
	if len(f.Blocks) == 0 {
		return false
	}
	removeUnreachable(f)

	allocas := promotable(f)
	if len(allocas) == 0 {
		return false
	}

	promoted := map[*ir.InstAlloca]bool{}
	for _, a := range allocas {
		promoted[a] = true
	}

	dt := dominators(f)
	names := localNames(f)
	phis := map[*ir.InstPhi]*ir.InstAlloca{}

	for _, a := range allocas {
		defs := map[*ir.Block]bool{}
		var work []*ir.Block
		for _, b := range f.Blocks {
			for _, inst := range b.Insts {
				if st, ok := inst.(*ir.InstStore); ok && st.Dst == value.Value(a) && !defs[b] {
					defs[b] = true
					work = append(work, b)
				}
			}
		}

		placed := map[*ir.Block]bool{}
		for len(work) > 0 {
			b := work[len(work)-1]
			work = work[:len(work)-1]

			for _, d := range dt.frontier[b] {
				if placed[d] {
					continue
				}
				placed[d] = true

				phi := &ir.InstPhi{Typ: a.ElemType}
				phi.SetName(names.unique(a.Name()))
				d.Insts = append([]ir.Instruction{phi}, d.Insts...)
				phis[phi] = a

				if !defs[d] {
					work = append(work, d)
				}
			}
		}
	}

	stacks := map[*ir.InstAlloca][]value.Value{}
	current := func(a *ir.InstAlloca) value.Value {
		s := stacks[a]
		if len(s) == 0 {
			return constant.NewUndef(a.ElemType)
		}
		return s[len(s)-1]
	}

	var rename func(b *ir.Block)
	rename = func(b *ir.Block) {
		pushed := map[*ir.InstAlloca]int{}
		push := func(a *ir.InstAlloca, v value.Value) {
			stacks[a] = append(stacks[a], v)
			pushed[a]++
		}

		var kept []ir.Instruction
		for _, inst := range b.Insts {
			switch inst := inst.(type) {
			case *ir.InstPhi:
				if a, ok := phis[inst]; ok {
					push(a, inst)
				}
			case *ir.InstAlloca:
				if promoted[inst] {
					continue
				}
			case *ir.InstLoad:
				if a, ok := slotOf(inst.Src, promoted); ok {
					irutil.ReplaceAll(f, inst, current(a))
					continue
				}
			case *ir.InstStore:
				if a, ok := slotOf(inst.Dst, promoted); ok {
					push(a, inst.Src)
					continue
				}
			}
			kept = append(kept, inst)
		}
		b.Insts = kept

		for _, s := range irutil.Succs(b) {
			for _, phi := range irutil.Phis(s) {
				if a, ok := phis[phi]; ok {
					phi.Incs = append(phi.Incs, ir.NewIncoming(current(a), b))
				}
			}
		}

		for _, c := range dt.children[b] {
			rename(c)
		}

		for a, n := range pushed {
			stacks[a] = stacks[a][:len(stacks[a])-n]
		}
	}
	rename(f.Blocks[0])

	return true
}

type nameSet map[string]bool

func localNames(f *ir.Func) nameSet {
	names := nameSet{}
	for _, p := range f.Params {
		names[p.Name()] = true
	}
	for _, b := range f.Blocks {
		names[b.Name()] = true
		for _, inst := range b.Insts {
			if n, ok := inst.(value.Named); ok {
				names[n.Name()] = true
			}
		}
	}
	return names
}

func (s nameSet) unique(base string) string {
	name := base
	for i := 1; s[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	s[name] = true
	return name
}
