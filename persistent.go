package dfr

// Persistent is a handle to a value that outlives every Collect. Its slot is
// only removed by the next Flush of the Registry, so values deferred within one
// Gen are reclaimed together. Reset only empties the handle.
type Persistent[T any] struct {
	_ noCopy
	s *slot[T]
}

// DeferPersistent stores v in a new slot at the end of r and returns the
// Persistent handle to it. It fails only if r is full.
func DeferPersistent[T any](r *Registry, v T) (*Persistent[T], error) {
	s := newSlot(KindPersistent, v)
	if err := r.insert(s); err != nil {
		return nil, err
	}
	return &Persistent[T]{s: s}, nil
}

// Reset leaves the handle empty. The slot stays in the Registry until Flush.
func (h *Persistent[T]) Reset() {
	if h == nil {
		return
	}
	h.s = nil
}

// Owns reports if the handle refers to a slot still held by its Registry.
func (h *Persistent[T]) Owns() bool { return h != nil && h.s.live() }

// Deref returns the address of the owned value.
func (h *Persistent[T]) Deref() *T { return h.s.deref() }

// Move returns a new handle owning h's slot and leaves h empty. The slot is
// not touched. Moving a nil handle returns an empty handle.
func (h *Persistent[T]) Move() *Persistent[T] {
	if h == nil {
		return &Persistent[T]{}
	}
	s := h.s
	h.s = nil
	return &Persistent[T]{s: s}
}

// Take moves src's slot into h, leaving src empty. A nil src is treated as
// an empty handle. h must not be nil.
func (h *Persistent[T]) Take(src *Persistent[T]) {
	if h == nil {
		panic("dfr: Take into a nil handle")
	}
	if h == src {
		return
	}
	var s *slot[T]
	if src != nil {
		s, src.s = src.s, nil
	}
	h.s = s
}
