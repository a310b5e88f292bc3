package dfr

// Kind identifies the ownership policy a slot was deferred under. It decides
// when Collect may remove the slot.
type Kind uint8

const (
	KindUnique Kind = iota
	KindFleeting
	KindPersistent
	KindCounted

	numKinds
)

// String returns the lower case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnique:
		return "unique"
	case KindFleeting:
		return "fleeting"
	case KindPersistent:
		return "persistent"
	case KindCounted:
		return "counted"
	default:
		return "unknown"
	}
}

// Reclaimer is implemented by deferred values that need to release resources
// when their slot is removed from a Registry. Reclaim is called at most once,
// during the Collect or Flush that removes the slot. It must not call back into
// the same Registry.
type Reclaimer interface {
	Reclaim()
}

// entry is the type erased view of a slot that the Registry stores.
type entry interface {
	header() *slotHeader
	reclaim()
	drop()
}

// slotHeader is the reclamation metadata shared by every slot regardless of the
// value type it holds.
type slotHeader struct {
	kind Kind
	// set by the owning Unique or Fleeting handle on Reset.
	released bool
	// set once the Registry has removed the slot. handles still pointing at it
	// are dangling.
	reclaimed bool
	// number of live Counted handles. unused for the other kinds.
	refs counter
}

// ready reports if Collect is allowed to remove the slot.
func (h *slotHeader) ready() bool {
	switch h.kind {
	case KindPersistent:
		return false
	case KindCounted:
		return h.refs.Zero()
	default:
		return h.released
	}
}

// slot holds one deferred value.
type slot[T any] struct {
	slotHeader
	val T
}

// newSlot allocates a slot holding v. Counted slots start with one reference,
// owned by the handle returned from DeferCounted.
func newSlot[T any](kind Kind, v T) *slot[T] {
	s := &slot[T]{slotHeader: slotHeader{kind: kind}, val: v}
	if kind == KindCounted {
		s.refs.Acquire()
	}
	return s
}

func (s *slot[T]) header() *slotHeader { return &s.slotHeader }

// reclaim runs the value's Reclaimer, if any, and drops the value so that the
// garbage collector can free whatever it references even while dangling
// handles still point at the slot.
func (s *slot[T]) reclaim() {
	s.reclaimed = true
	if r, ok := any(&s.val).(Reclaimer); ok {
		r.Reclaim()
	} else if r, ok := any(s.val).(Reclaimer); ok {
		r.Reclaim()
	}
	s.drop()
}

// drop marks the slot reclaimed and zeroes the value without running its
// Reclaimer.
func (s *slot[T]) drop() {
	s.reclaimed = true
	var zero T
	s.val = zero
}

// live reports if the slot is still held by its Registry.
func (s *slot[T]) live() bool { return s != nil && !s.reclaimed }

// deref returns the address of the value. It panics if the slot is nil or has
// been reclaimed.
func (s *slot[T]) deref() *T {
	if s == nil {
		panic("dfr: Deref of an empty handle")
	}
	if s.reclaimed {
		panic("dfr: Deref of a handle whose slot was reclaimed")
	}
	return &s.val
}
