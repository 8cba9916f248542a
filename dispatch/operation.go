package dispatch

import (
	"errors"
	"fmt"
)

var (
	ErrUnhandled   = errors.New("no handler")
	ErrUnknownKind = errors.New("kind not in hierarchy")
)

// Node is anything that reports its kind.
type Node[K comparable] interface {
	Kind() K
}

type Handler[N any, R any] func(N) (R, error)

// Operation is a set of handlers over one hierarchy, keyed by kind.
type Operation[K comparable, N Node[K], R any] struct {
	h        *Hierarchy[K]
	handlers map[K]Handler[N, R]
	table    map[K]Handler[N, R]
}

func NewOperation[K comparable, N Node[K], R any](h *Hierarchy[K]) *Operation[K, N, R] {
	return &Operation[K, N, R]{
		h:        h,
		handlers: map[K]Handler[N, R]{},
	}
}

// Handle registers fn for kind, replacing any earlier handler.
func (o *Operation[K, N, R]) Handle(kind K, fn Handler[N, R]) *Operation[K, N, R] {
	if !o.h.Declared(kind) {
		panic(fmt.Sprintf("dispatch: %v: %v", ErrUnknownKind, kind))
	}
	o.handlers[kind] = fn
	o.table = nil
	return o
}

// HandleAs registers fn for kind, asserting the node to T before the call.
// T is normally the concrete node type behind kind.
func HandleAs[T any, K comparable, N Node[K], R any](o *Operation[K, N, R], kind K, fn func(T) (R, error)) *Operation[K, N, R] {
	return o.Handle(kind, func(n N) (R, error) {
		t, ok := any(n).(T)
		if !ok {
			var zero R
			return zero, fmt.Errorf("dispatch: %v node is %T, not %T", kind, n, t)
		}
		return fn(t)
	})
}

func (o *Operation[K, N, R]) build() {
	o.table = make(map[K]Handler[N, R], len(o.h.order))

	for i, kind := range o.h.order {
		if fn, ok := o.handlers[kind]; ok {
			o.table[kind] = fn
			continue
		}
		for _, later := range o.h.order[i+1:] {
			fn, ok := o.handlers[later]
			if ok && o.h.IsA(kind, later) {
				o.table[kind] = fn
				break
			}
		}
	}
}

// Resolve returns the handler a node of the given kind dispatches to.
func (o *Operation[K, N, R]) Resolve(kind K) (Handler[N, R], bool) {
	if o.table == nil {
		o.build()
	}
	fn, ok := o.table[kind]
	return fn, ok
}

// Dispatch invokes exactly one handler for n. Handlers recurse into
// children themselves.
func (o *Operation[K, N, R]) Dispatch(n N) (R, error) {
	kind := n.Kind()
	fn, ok := o.Resolve(kind)
	if !ok {
		var zero R
		if !o.h.Declared(kind) {
			return zero, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
		}
		return zero, fmt.Errorf("%w for %v", ErrUnhandled, kind)
	}
	return fn(n)
}
