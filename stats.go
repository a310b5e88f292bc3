package dfr

import "fmt"

// Stats is a point in time summary of a Registry.
type Stats struct {
	Live   int           // slots currently held
	Ready  int           // held slots the next Collect would remove
	ByKind [numKinds]int // held slots per Kind

	Gen       uint64 // completed Flush calls
	Deferred  uint64 // slots ever inserted
	Collected uint64 // slots removed by Collect
	Flushed   uint64 // slots removed by Flush
}

// Kind returns the number of held slots of kind k.
func (s Stats) Kind(k Kind) int {
	if k >= numKinds {
		return 0
	}
	return s.ByKind[k]
}

// String formats the stats on a single line.
func (s Stats) String() string {
	return fmt.Sprintf("live=%d ready=%d unique=%d fleeting=%d persistent=%d counted=%d gen=%d deferred=%d collected=%d flushed=%d",
		s.Live, s.Ready,
		s.ByKind[KindUnique], s.ByKind[KindFleeting], s.ByKind[KindPersistent], s.ByKind[KindCounted],
		s.Gen, s.Deferred, s.Collected, s.Flushed)
}

// Stats walks the Registry and reports its current state. It is O(n) in the
// number of held slots.
func (r *Registry) Stats() Stats {
	st := Stats{
		Live:      len(r.slots),
		Gen:       r.gen,
		Deferred:  r.deferred,
		Collected: r.collected,
		Flushed:   r.flushed,
	}
	for _, e := range r.slots {
		h := e.header()
		if h.kind < numKinds {
			st.ByKind[h.kind]++
		}
		if h.ready() {
			st.Ready++
		}
	}
	return st
}
