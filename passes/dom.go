package passes

import (
	"github.com/llir/llvm/ir"

	"github.com/pontaoski/kaleido/irutil"
)

// domTree is the dominator tree of the blocks reachable from the entry,
// computed with the Cooper-Harvey-Kennedy iteration.
type domTree struct {
	rpo      []*ir.Block
	index    map[*ir.Block]int
	idom     map[*ir.Block]*ir.Block
	children map[*ir.Block][]*ir.Block
	frontier map[*ir.Block][]*ir.Block
}

func reversePostorder(f *ir.Func) []*ir.Block {
	var post []*ir.Block
	seen := map[*ir.Block]bool{}

	var visit func(b *ir.Block)
	visit = func(b *ir.Block) {
		seen[b] = true
		for _, s := range irutil.Succs(b) {
			if !seen[s] {
				visit(s)
			}
		}
		post = append(post, b)
	}
	visit(f.Blocks[0])

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

func dominators(f *ir.Func) *domTree {
	t := &domTree{
		rpo:      reversePostorder(f),
		index:    map[*ir.Block]int{},
		idom:     map[*ir.Block]*ir.Block{},
		children: map[*ir.Block][]*ir.Block{},
		frontier: map[*ir.Block][]*ir.Block{},
	}
	for i, b := range t.rpo {
		t.index[b] = i
	}

	preds := map[*ir.Block][]*ir.Block{}
	for _, b := range t.rpo {
		for _, s := range irutil.Succs(b) {
			preds[s] = append(preds[s], b)
		}
	}

	entry := t.rpo[0]
	t.idom[entry] = entry

	intersect := func(a, b *ir.Block) *ir.Block {
		for a != b {
			for t.index[a] > t.index[b] {
				a = t.idom[a]
			}
			for t.index[b] > t.index[a] {
				b = t.idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for _, b := range t.rpo[1:] {
			var idom *ir.Block
			for _, p := range preds[b] {
				if t.idom[p] == nil {
					continue
				}
				if idom == nil {
					idom = p
				} else {
					idom = intersect(p, idom)
				}
			}
			if t.idom[b] != idom {
				t.idom[b] = idom
				changed = true
			}
		}
	}

	for _, b := range t.rpo[1:] {
		t.children[t.idom[b]] = append(t.children[t.idom[b]], b)
	}

	for _, b := range t.rpo {
		if len(preds[b]) < 2 {
			continue
		}
		for _, p := range preds[b] {
			for runner := p; runner != t.idom[b]; runner = t.idom[runner] {
				if !containsBlock(t.frontier[runner], b) {
					t.frontier[runner] = append(t.frontier[runner], b)
				}
			}
		}
	}

	return t
}

func (t *domTree) dominates(a, b *ir.Block) bool {
	for {
		if a == b {
			return true
		}
		next, ok := t.idom[b]
		if !ok || next == b {
			return false
		}
		b = next
	}
}

func containsBlock(list []*ir.Block, b *ir.Block) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}
