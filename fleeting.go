package dfr

// Fleeting is a handle to a short lived value that may be reclaimed at the
// first opportunity. It behaves exactly like Unique: Reset makes the slot ready
// for the next Collect, and Flush removes it whether or not it was Reset.
type Fleeting[T any] struct {
	_ noCopy
	s *slot[T]
}

// DeferFleeting stores v in a new slot at the end of r and returns the Fleeting
// handle to it. It fails only if r is full.
func DeferFleeting[T any](r *Registry, v T) (*Fleeting[T], error) {
	s := newSlot(KindFleeting, v)
	if err := r.insert(s); err != nil {
		return nil, err
	}
	return &Fleeting[T]{s: s}, nil
}

// Reset makes the slot ready for the next Collect and leaves the handle empty.
func (h *Fleeting[T]) Reset() {
	if h == nil || h.s == nil {
		return
	}
	h.s.released = true
	h.s = nil
}

// Owns reports if the handle refers to a slot still held by its Registry.
func (h *Fleeting[T]) Owns() bool { return h != nil && h.s.live() }

// Deref returns the address of the owned value.
func (h *Fleeting[T]) Deref() *T { return h.s.deref() }

// Move returns a new handle owning h's slot and leaves h empty. The slot is
// not touched. Moving a nil handle returns an empty handle.
func (h *Fleeting[T]) Move() *Fleeting[T] {
	if h == nil {
		return &Fleeting[T]{}
	}
	s := h.s
	h.s = nil
	return &Fleeting[T]{s: s}
}

// Take releases h's current slot, if any, then moves src's slot into h,
// leaving src empty. A nil src is treated as an empty handle. h must not be
// nil.
func (h *Fleeting[T]) Take(src *Fleeting[T]) {
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
