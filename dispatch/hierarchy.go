// Package dispatch attaches operations to a closed node hierarchy without
// touching the node definitions.
//
// A hierarchy is declared once, most-derived kind first. An operation maps
// kinds to handlers; a kind without its own handler falls back to the first
// kind declared after it that is one of its ancestors and has a handler.
// The fallback is resolved into a lookup table once per operation, so a
// dispatch costs a single map lookup.
package dispatch

import (
	"errors"
	"fmt"
)

// Decl declares a kind and its direct bases.
type Decl[K comparable] struct {
	Kind  K
	Bases []K
}

// Is declares kind as deriving from bases.
func Is[K comparable](kind K, bases ...K) Decl[K] {
	return Decl[K]{Kind: kind, Bases: bases}
}

var ErrBadHierarchy = errors.New("bad hierarchy declaration")

type Hierarchy[K comparable] struct {
	order     []K
	index     map[K]int
	ancestors map[K]map[K]bool
}

// NewHierarchy validates decls, which must be listed from most-derived to
// most-base: every base is declared after each kind that derives from it.
func NewHierarchy[K comparable](decls ...Decl[K]) (*Hierarchy[K], error) {
	h := &Hierarchy[K]{
		index:     make(map[K]int, len(decls)),
		ancestors: make(map[K]map[K]bool, len(decls)),
	}

	for i, d := range decls {
		if _, ok := h.index[d.Kind]; ok {
			return nil, fmt.Errorf("%w: %v declared twice", ErrBadHierarchy, d.Kind)
		}
		h.index[d.Kind] = i
		h.order = append(h.order, d.Kind)
	}

	// walk from the base end so every base's closure is complete before
	// any kind deriving from it is visited
	for i := len(decls) - 1; i >= 0; i-- {
		d := decls[i]
		set := map[K]bool{d.Kind: true}
		for _, base := range d.Bases {
			j, ok := h.index[base]
			if !ok {
				return nil, fmt.Errorf("%w: base %v of %v is not declared", ErrBadHierarchy, base, d.Kind)
			}
			if j <= i {
				return nil, fmt.Errorf("%w: base %v must be declared after %v", ErrBadHierarchy, base, d.Kind)
			}
			for anc := range h.ancestors[base] {
				set[anc] = true
			}
		}
		h.ancestors[d.Kind] = set
	}

	return h, nil
}

// MustHierarchy is like NewHierarchy but panics on an invalid declaration.
func MustHierarchy[K comparable](decls ...Decl[K]) *Hierarchy[K] {
	h, err := NewHierarchy(decls...)
	if err != nil {
		panic(err)
	}
	return h
}

// Order returns the declared linearization.
func (h *Hierarchy[K]) Order() []K {
	return append([]K(nil), h.order...)
}

// IsA reports whether base is kind itself or one of its ancestors.
func (h *Hierarchy[K]) IsA(kind, base K) bool {
	return h.ancestors[kind][base]
}

func (h *Hierarchy[K]) Declared(kind K) bool {
	_, ok := h.index[kind]
	return ok
}
