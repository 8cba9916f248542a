package passes

import (
	"github.com/llir/llvm/ir"

	"github.com/pontaoski/kaleido/irutil"
)

// SimplifyCFG folds constant and degenerate branches, deletes unreachable
// blocks, merges a block into its only predecessor and bypasses empty
// forwarding blocks.
type SimplifyCFG struct{}

func (SimplifyCFG) Name() string { return "simplifycfg" }

func (SimplifyCFG) Run(f *ir.Func) bool {
	if len(f.Blocks) == 0 {
		return false
	}

	changed := false
	for {
		progress := foldBranches(f)
		progress = removeUnreachable(f) || progress
		progress = mergeIntoPredecessor(f) || progress
		progress = bypassEmpty(f) || progress
		if !progress {
			return changed
		}
		changed = true
	}
}

func foldBranches(f *ir.Func) bool {
	changed := false
	for _, b := range f.Blocks {
		br, ok := b.Term.(*ir.TermCondBr)
		if !ok {
			continue
		}

		then, els := irutil.AsBlock(br.TargetTrue), irutil.AsBlock(br.TargetFalse)
		if then == els {
			b.NewBr(then)
			changed = true
			continue
		}

		cond, ok := irutil.Bool(br.Cond)
		if !ok {
			continue
		}
		taken, dropped := then, els
		if !cond {
			taken, dropped = els, then
		}
		irutil.RemoveIncoming(dropped, b)
		b.NewBr(taken)
		changed = true
	}
	return changed
}

func removeUnreachable(f *ir.Func) bool {
	reachable := map[*ir.Block]bool{}
	for _, b := range reversePostorder(f) {
		reachable[b] = true
	}
	if len(reachable) == len(f.Blocks) {
		return false
	}

	var kept []*ir.Block
	for _, b := range f.Blocks {
		if reachable[b] {
			kept = append(kept, b)
			continue
		}
		for _, s := range irutil.Succs(b) {
			irutil.RemoveIncoming(s, b)
		}
	}
	f.Blocks = kept
	return true
}

func removeBlock(f *ir.Func, b *ir.Block) {
	for i, cur := range f.Blocks {
		if cur == b {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			return
		}
	}
}

// retarget points every phi edge in the successors of from at to instead.
func retarget(from, to *ir.Block) {
	for _, s := range irutil.Succs(from) {
		for _, phi := range irutil.Phis(s) {
			for _, inc := range phi.Incs {
				if irutil.AsBlock(inc.Pred) == from {
					inc.Pred = to
				}
			}
		}
	}
}

func mergeIntoPredecessor(f *ir.Func) bool {
	preds := irutil.Preds(f)
	for _, b := range f.Blocks[1:] {
		if len(preds[b]) != 1 {
			continue
		}
		p := preds[b][0]
		br, ok := p.Term.(*ir.TermBr)
		if !ok || p == b || irutil.AsBlock(br.Target) != b {
			continue
		}

		var body []ir.Instruction
		for _, inst := range b.Insts {
			if phi, ok := inst.(*ir.InstPhi); ok {
				irutil.ReplaceAll(f, phi, phi.Incs[0].X)
				continue
			}
			body = append(body, inst)
		}

		retarget(b, p)
		p.Insts = append(p.Insts, body...)
		p.Term = b.Term
		removeBlock(f, b)
		return true
	}
	return false
}

func redirect(p, from, to *ir.Block) {
	switch t := p.Term.(type) {
	case *ir.TermBr:
		p.NewBr(to)
	case *ir.TermCondBr:
		then, els := irutil.AsBlock(t.TargetTrue), irutil.AsBlock(t.TargetFalse)
		if then == from {
			then = to
		}
		if els == from {
			els = to
		}
		p.NewCondBr(t.Cond, then, els)
	}
}

func bypassEmpty(f *ir.Func) bool {
	preds := irutil.Preds(f)
	for _, b := range f.Blocks[1:] {
		br, ok := b.Term.(*ir.TermBr)
		if !ok || len(b.Insts) != 0 || len(preds[b]) == 0 {
			continue
		}
		s := irutil.AsBlock(br.Target)
		if s == b {
			continue
		}

		phis := irutil.Phis(s)
		conflict := false
		for _, p := range preds[b] {
			if len(phis) > 0 && containsBlock(preds[s], p) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		for _, phi := range phis {
			var incs []*ir.Incoming
			for _, inc := range phi.Incs {
				if irutil.AsBlock(inc.Pred) != b {
					incs = append(incs, inc)
					continue
				}
				for _, p := range preds[b] {
					incs = append(incs, ir.NewIncoming(inc.X, p))
				}
			}
			phi.Incs = incs
		}

		for _, p := range preds[b] {
			redirect(p, b, s)
		}
		removeBlock(f, b)
		return true
	}
	return false
}
