package dfr

// noCopy may be embedded into structs which must not be copied after first
// use. go vet's copylocks check reports copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Options configures a Registry.
type Options struct {
	// MaxSlots bounds how many slots the Registry holds at once. Defer calls
	// past the bound fail with ErrRegistryFull. Zero means unbounded.
	MaxSlots int
}

// Registry owns deferred values in the order they were deferred. Values leave
// the Registry only through Collect or Flush.
//
// A Registry belongs to a single goroutine: it, and every handle created from
// it, must only be used by that goroutine. Nothing is synchronized. The zero
// value is ready to use and unbounded.
type Registry struct {
	_ noCopy

	opts     Options
	slots    []entry
	removed  []entry // scratch space for Collect
	gen      uint64 // number of completed Flush calls
	sweeping bool   // set while Reclaim callbacks may run

	deferred  uint64
	collected uint64
	flushed   uint64
}

// NewRegistry returns a Registry configured by opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts}
}

// insert appends e to the Registry.
func (r *Registry) insert(e entry) error {
	r.checkSweep("Defer")
	if r.opts.MaxSlots > 0 && len(r.slots) >= r.opts.MaxSlots {
		return Error.Wrap(ErrRegistryFull)
	}
	r.slots = append(r.slots, e)
	r.deferred++
	return nil
}

// Collect removes every slot that is ready for collection and returns how many
// were removed. Slots that survive keep their relative order. A slot is ready
// once its Unique or Fleeting handle is Reset, or once every Counted handle to
// it is Reset. Persistent slots are never ready.
//
// Collect never disturbs a value that a live handle can still reach, so it is
// safe to call at any point.
func (r *Registry) Collect() int {
	r.checkSweep("Collect")
	r.sweeping = true
	defer func() { r.sweeping = false }()

	// the Registry is compacted before any Reclaim runs so that a panicking
	// Reclaim cannot leave it half swept.
	keep := 0
	removed := r.removed[:0]
	for _, e := range r.slots {
		if e.header().ready() {
			removed = append(removed, e)
			continue
		}
		r.slots[keep] = e
		keep++
	}
	clear(r.slots[keep:])
	r.slots = r.slots[:keep]
	r.removed = removed
	r.collected += uint64(len(removed))

	defer clear(removed)
	reclaimAll(removed)
	return len(removed)
}

// Flush removes every slot regardless of readiness, including Persistent slots
// and Counted slots with outstanding references, and returns how many were
// removed. Handles to flushed slots are left dangling: they report that they
// own nothing and panic on Deref.
//
// Flush must only be called once no reader can still be observing deferred
// values.
func (r *Registry) Flush() int {
	r.checkSweep("Flush")
	r.sweeping = true
	defer func() { r.sweeping = false }()

	old := r.slots
	r.slots = nil
	r.flushed += uint64(len(old))
	r.gen++

	reclaimAll(old)
	return len(old)
}

// reclaimAll reclaims every entry in es. If a Reclaim panics, the entries not
// yet reclaimed are dropped without running their Reclaim before the panic
// continues, so every entry ends up reclaimed exactly once.
func reclaimAll(es []entry) {
	i := 0
	defer func() {
		for ; i < len(es); i++ {
			es[i].drop()
		}
	}()
	for ; i < len(es); i++ {
		es[i].reclaim()
	}
}

// Len returns the number of slots held by the Registry.
func (r *Registry) Len() int { return len(r.slots) }

// Gen returns the number of times the Registry has been Flushed. Persistent
// values deferred at the same Gen live and die together.
func (r *Registry) Gen() uint64 { return r.gen }

// checkSweep panics if called from a Reclaim callback run by Collect or Flush.
func (r *Registry) checkSweep(op string) {
	if r.sweeping {
		panic("dfr: " + op + " called while the Registry is being swept")
	}
}
