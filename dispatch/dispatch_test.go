package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kind string

type node struct{ k kind }

func (n node) Kind() kind { return n.k }

const (
	leaf   kind = "leaf"
	branch kind = "branch"
	inner  kind = "inner"
	base   kind = "base"
	other  kind = "other"
)

// leaf -> inner -> base, branch -> base, other stands alone
func hierarchy(t *testing.T) *Hierarchy[kind] {
	h, err := NewHierarchy(
		Is(leaf, inner),
		Is(branch, base),
		Is(inner, base),
		Is(base),
		Is(other),
	)
	require.NoError(t, err)
	return h
}

func TestAncestry(t *testing.T) {
	h := hierarchy(t)

	assert.True(t, h.IsA(leaf, leaf))
	assert.True(t, h.IsA(leaf, inner))
	assert.True(t, h.IsA(leaf, base))
	assert.False(t, h.IsA(branch, inner))
	assert.False(t, h.IsA(other, base))
	assert.Equal(t, []kind{leaf, branch, inner, base, other}, h.Order())
}

func TestBadHierarchies(t *testing.T) {
	_, err := NewHierarchy(Is(base), Is(leaf, base))
	assert.True(t, errors.Is(err, ErrBadHierarchy), "base declared before derived")

	_, err = NewHierarchy(Is(leaf, base))
	assert.True(t, errors.Is(err, ErrBadHierarchy), "undeclared base")

	_, err = NewHierarchy(Is(leaf), Is(leaf))
	assert.True(t, errors.Is(err, ErrBadHierarchy), "duplicate kind")

	assert.Panics(t, func() { MustHierarchy(Is(leaf, leaf)) })
}

func TestFallbackToBase(t *testing.T) {
	op := NewOperation[kind, node, string](hierarchy(t)).
		Handle(base, func(n node) (string, error) { return "base:" + string(n.k), nil })

	for _, k := range []kind{leaf, branch, inner, base} {
		got, err := op.Dispatch(node{k})
		require.NoError(t, err)
		assert.Equal(t, "base:"+string(k), got)
	}
}

func TestNearestAncestorWins(t *testing.T) {
	op := NewOperation[kind, node, string](hierarchy(t)).
		Handle(base, func(node) (string, error) { return "base", nil }).
		Handle(inner, func(node) (string, error) { return "inner", nil })

	got, err := op.Dispatch(node{leaf})
	require.NoError(t, err)
	assert.Equal(t, "inner", got)

	got, err = op.Dispatch(node{branch})
	require.NoError(t, err)
	assert.Equal(t, "base", got)
}

func TestOverride(t *testing.T) {
	op := NewOperation[kind, node, string](hierarchy(t)).
		Handle(base, func(node) (string, error) { return "base", nil }).
		Handle(leaf, func(node) (string, error) { return "leaf", nil })

	got, _ := op.Dispatch(node{leaf})
	assert.Equal(t, "leaf", got)

	// re-registering invalidates the resolved table
	op.Handle(leaf, func(node) (string, error) { return "leaf2", nil })
	got, _ = op.Dispatch(node{leaf})
	assert.Equal(t, "leaf2", got)
}

func TestUnhandled(t *testing.T) {
	op := NewOperation[kind, node, string](hierarchy(t)).
		Handle(base, func(node) (string, error) { return "base", nil })

	_, err := op.Dispatch(node{other})
	assert.True(t, errors.Is(err, ErrUnhandled))

	_, err = op.Dispatch(node{"nope"})
	assert.True(t, errors.Is(err, ErrUnknownKind))

	assert.Panics(t, func() {
		op.Handle("nope", func(node) (string, error) { return "", nil })
	})
}

func TestOneInvocationPerDispatch(t *testing.T) {
	calls := 0
	op := NewOperation[kind, node, int](hierarchy(t)).
		Handle(base, func(node) (int, error) { calls++; return calls, nil }).
		Handle(inner, func(node) (int, error) { calls++; return calls, nil })

	_, err := op.Dispatch(node{leaf})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type leafNode struct{ node }

func TestHandleAs(t *testing.T) {
	op := NewOperation[kind, Node[kind], string](hierarchy(t))
	HandleAs(op, leaf, func(n leafNode) (string, error) { return "typed", nil })

	got, err := op.Dispatch(leafNode{node{leaf}})
	require.NoError(t, err)
	assert.Equal(t, "typed", got)

	_, err = op.Dispatch(node{leaf})
	assert.Error(t, err)
}
