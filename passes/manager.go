// Package passes holds the fixed per-function optimization sequence run
// over generated IR, and the verifier that guards it.
package passes

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// A Pass rewrites one function in place and reports whether it changed it.
type Pass interface {
	Name() string
	Run(f *ir.Func) bool
}

var registry = map[string]func() Pass{
	"mem2reg":     func() Pass { return Mem2Reg{} },
	"instcombine": func() Pass { return InstCombine{} },
	"gvn":         func() Pass { return GVN{} },
	"simplifycfg": func() Pass { return SimplifyCFG{} },
}

// DefaultSequence is the pass order applied to every generated function.
var DefaultSequence = []string{"mem2reg", "instcombine", "gvn", "simplifycfg"}

type Stat struct {
	Pass    string
	Runs    int
	Changed int
}

type Manager struct {
	passes []Pass
	stats  map[string]*Stat
}

func NewManager(passes ...Pass) *Manager {
	m := &Manager{passes: passes, stats: map[string]*Stat{}}
	for _, p := range passes {
		m.stats[p.Name()] = &Stat{Pass: p.Name()}
	}
	return m
}

func Default() *Manager {
	m, err := ByName(DefaultSequence...)
	if err != nil {
		panic(err)
	}
	return m
}

// ByName builds a manager running the named passes in order.
func ByName(names ...string) (*Manager, error) {
	var ps []Pass
	for _, name := range names {
		mk, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown pass %q", name)
		}
		ps = append(ps, mk())
	}
	return NewManager(ps...), nil
}

// Run verifies f, runs every pass once in order, and verifies the result.
func (m *Manager) Run(f *ir.Func) error {
	if err := Verify(f); err != nil {
		return err
	}

	for _, p := range m.passes {
		st := m.stats[p.Name()]
		st.Runs++
		if p.Run(f) {
			st.Changed++
		}
	}

	if err := Verify(f); err != nil {
		return fmt.Errorf("after optimization: %w", err)
	}
	return nil
}

func (m *Manager) Passes() []string {
	var names []string
	for _, p := range m.passes {
		names = append(names, p.Name())
	}
	return names
}

// Stats reports how often each pass ran and how often it changed something.
func (m *Manager) Stats() []Stat {
	var ret []Stat
	seen := map[string]bool{}
	for _, p := range m.passes {
		if seen[p.Name()] {
			continue
		}
		seen[p.Name()] = true
		ret = append(ret, *m.stats[p.Name()])
	}
	return ret
}
