package dfr

// Counted is one of possibly many handles sharing a slot. Every handle holds a
// reference: Clone adds one and Reset drops one. The slot becomes ready for
// Collect once the last reference is dropped. Flush removes it regardless.
type Counted[T any] struct {
	_ noCopy
	s *slot[T]
}

// DeferCounted stores v in a new slot at the end of r and returns the first
// Counted handle to it, holding the only reference. It fails only if r is full.
func DeferCounted[T any](r *Registry, v T) (*Counted[T], error) {
	s := newSlot(KindCounted, v)
	if err := r.insert(s); err != nil {
		return nil, err
	}
	return &Counted[T]{s: s}, nil
}

// Clone returns a new handle to the same slot, adding a reference. Cloning an
// empty or dangling handle returns an empty handle.
func (h *Counted[T]) Clone() *Counted[T] {
	if !h.Owns() {
		return &Counted[T]{}
	}
	h.s.refs.Acquire()
	return &Counted[T]{s: h.s}
}

// Reset drops the handle's reference and leaves it empty.
func (h *Counted[T]) Reset() {
	if h == nil || h.s == nil {
		return
	}
	h.s.refs.Release()
	h.s = nil
}

// Owns reports if the handle refers to a slot still held by its Registry.
func (h *Counted[T]) Owns() bool { return h != nil && h.s.live() }

// Deref returns the address of the owned value.
func (h *Counted[T]) Deref() *T { return h.s.deref() }

// RefCount returns the number of handles sharing the slot, or zero if h is
// empty.
func (h *Counted[T]) RefCount() int {
	if h == nil || h.s == nil {
		return 0
	}
	return h.s.refs.Load()
}
