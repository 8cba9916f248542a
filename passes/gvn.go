package passes

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/pontaoski/kaleido/irutil"
)

// GVN removes redundant pure computations: an instruction with the same
// opcode and operands as one in a dominating position is replaced by it.
type GVN struct{}

func (GVN) Name() string { return "gvn" }

type numbering struct {
	ids map[value.Value]int
}

func (n *numbering) operand(v value.Value) string {
	if x, ok := irutil.Float(v); ok {
		return "f" + strconv.FormatFloat(x, 'g', -1, 64)
	}
	if b, ok := irutil.Bool(v); ok {
		return "b" + strconv.FormatBool(b)
	}
	id, ok := n.ids[v]
	if !ok {
		id = len(n.ids)
		n.ids[v] = id
	}
	return "v" + strconv.Itoa(id)
}

func (n *numbering) key(inst ir.Instruction) (string, bool) {
	var op string
	commutative := false
	switch inst := inst.(type) {
	case *ir.InstFAdd:
		op, commutative = "fadd", true
	case *ir.InstFMul:
		op, commutative = "fmul", true
	case *ir.InstFSub:
		op = "fsub"
	case *ir.InstFCmp:
		op = "fcmp " + inst.Pred.String()
	case *ir.InstUIToFP:
		op = "uitofp " + inst.To.String()
	default:
		return "", false
	}

	var args []string
	for _, o := range irutil.Operands(inst) {
		args = append(args, n.operand(*o))
	}
	if commutative {
		sort.Strings(args)
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(args, ",")), true
}

func (GVN) Run(f *ir.Func) bool {
	if len(f.Blocks) == 0 {
		return false
	}

	dt := dominators(f)
	n := &numbering{ids: map[value.Value]int{}}
	changed := false

	var walk func(b *ir.Block, avail map[string]value.Value)
	walk = func(b *ir.Block, avail map[string]value.Value) {
		scope := make(map[string]value.Value, len(avail))
		for k, v := range avail {
			scope[k] = v
		}

		for _, inst := range b.Insts {
			key, ok := n.key(inst)
			if !ok {
				continue
			}
			v := inst.(value.Value)
			if prev, ok := scope[key]; ok {
				irutil.ReplaceAll(f, v, prev)
				changed = true
				continue
			}
			scope[key] = v
		}

		for _, c := range dt.children[b] {
			walk(c, scope)
		}
	}
	walk(dt.rpo[0], nil)

	if changed {
		removeDead(f)
	}
	return changed
}
