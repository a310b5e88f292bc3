package dfr

// Unique is the only handle to its slot. It must not be copied: transfer it
// with Move or Take. Releasing it, by Reset, makes the slot ready for the next
// Collect. The usual way to release at scope end is
//
//	h, err := dfr.DeferUnique(r, v)
//	if err != nil {
//		return err
//	}
//	defer h.Reset()
type Unique[T any] struct {
	_ noCopy
	s *slot[T]
}

// DeferUnique stores v in a new slot at the end of r and returns the Unique
// handle to it. It fails only if r is full.
func DeferUnique[T any](r *Registry, v T) (*Unique[T], error) {
	s := newSlot(KindUnique, v)
	if err := r.insert(s); err != nil {
		return nil, err
	}
	return &Unique[T]{s: s}, nil
}

// Reset releases the slot to the Registry and leaves the handle empty.
func (h *Unique[T]) Reset() {
	if h == nil || h.s == nil {
		return
	}
	h.s.released = true
	h.s = nil
}

// Owns reports if the handle refers to a slot still held by its Registry.
func (h *Unique[T]) Owns() bool { return h != nil && h.s.live() }

// Deref returns the address of the owned value.
func (h *Unique[T]) Deref() *T { return h.s.deref() }

// Move returns a new handle owning h's slot and leaves h empty. The slot is
// not touched. Moving a nil handle returns an empty handle.
func (h *Unique[T]) Move() *Unique[T] {
	if h == nil {
		return &Unique[T]{}
	}
	s := h.s
	h.s = nil
	return &Unique[T]{s: s}
}

// Take releases h's current slot, if any, then moves src's slot into h,
// leaving src empty. A nil src is treated as an empty handle. h must not be
// nil.
func (h *Unique[T]) Take(src *Unique[T]) {
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
	h.Reset()
	h.s = s
}
