package dfr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zeebo/assert"
	"github.com/zeebo/pcg"
)

// values returns the int values held by r in Registry order.
func values(t testing.TB, r *Registry) []int {
	t.Helper()
	out := []int{}
	for _, e := range r.slots {
		s, ok := e.(*slot[int])
		if !ok {
			t.Fatalf("unexpected slot type %T", e)
		}
		out = append(out, s.val)
	}
	return out
}

func TestRegistryCollect(t *testing.T) {
	var r Registry

	hs := make([]*Unique[int], 10)
	for i := range hs {
		h, err := DeferUnique(&r, i)
		assert.NoError(t, err)
		hs[i] = h
	}
	assert.Equal(t, r.Len(), 10)

	for i := 0; i < len(hs); i += 2 {
		hs[i].Reset()
	}
	assert.Equal(t, r.Collect(), 5)

	if diff := cmp.Diff([]int{1, 3, 5, 7, 9}, values(t, &r)); diff != "" {
		t.Fatalf("survivors (-want +got):\n%s", diff)
	}

	// nothing new became ready so a second pass is a no-op.
	assert.Equal(t, r.Collect(), 0)
	assert.Equal(t, r.Len(), 5)

	for i := 1; i < len(hs); i += 2 {
		assert.Equal(t, *hs[i].Deref(), i)
	}
}

func TestRegistryCollectKeepsUnready(t *testing.T) {
	var r Registry

	p, err := DeferPersistent(&r, 1)
	assert.NoError(t, err)
	c, err := DeferCounted(&r, 2)
	assert.NoError(t, err)
	u, err := DeferUnique(&r, 3)
	assert.NoError(t, err)

	p.Reset()
	clone := c.Clone()
	c.Reset()
	assert.Equal(t, r.Collect(), 0)
	if diff := cmp.Diff([]int{1, 2, 3}, values(t, &r)); diff != "" {
		t.Fatalf("registry (-want +got):\n%s", diff)
	}

	clone.Reset()
	u.Reset()
	assert.Equal(t, r.Collect(), 2)
	if diff := cmp.Diff([]int{1}, values(t, &r)); diff != "" {
		t.Fatalf("registry (-want +got):\n%s", diff)
	}
}

func TestRegistryFlush(t *testing.T) {
	var r Registry

	u, _ := DeferUnique(&r, 1)
	f, _ := DeferFleeting(&r, 2)
	p, _ := DeferPersistent(&r, 3)
	c, _ := DeferCounted(&r, 4)
	c2 := c.Clone()
	f.Reset()

	assert.Equal(t, r.Gen(), uint64(0))
	assert.Equal(t, r.Flush(), 4)
	assert.Equal(t, r.Len(), 0)
	assert.Equal(t, r.Gen(), uint64(1))

	for _, h := range []interface{ Owns() bool }{u, f, p, c, c2} {
		assert.That(t, !h.Owns())
	}
	assert.That(t, panics(func() { u.Deref() }))
	assert.That(t, panics(func() { c2.Deref() }))

	// resetting dangling handles is harmless.
	u.Reset()
	c.Reset()
	c2.Reset()
	assert.Equal(t, r.Flush(), 0)
	assert.Equal(t, r.Gen(), uint64(2))
}

func TestRegistryFull(t *testing.T) {
	r := NewRegistry(Options{MaxSlots: 2})

	a, err := DeferUnique(r, "a")
	assert.NoError(t, err)
	_, err = DeferCounted(r, "b")
	assert.NoError(t, err)

	h, err := DeferFleeting(r, "c")
	assert.Error(t, err)
	assert.Nil(t, h)
	assert.That(t, errors.Is(err, ErrRegistryFull))
	assert.That(t, Error.Has(err))
	assert.Equal(t, err.Error(), "dfr: registry full")
	assert.Equal(t, r.Len(), 2)

	a.Reset()
	r.Collect()
	_, err = DeferPersistent(r, "c")
	assert.NoError(t, err)
}

type reclaimCount struct{ n *int }

func (r reclaimCount) Reclaim() { *r.n++ }

type reclaimPtr struct{ n int }

func (r *reclaimPtr) Reclaim() { r.n++ }

func TestRegistryReclaim(t *testing.T) {
	var r Registry
	var n int

	u, _ := DeferUnique(&r, reclaimCount{&n})
	_, _ = DeferPersistent(&r, reclaimCount{&n})

	u.Reset()
	r.Collect()
	assert.Equal(t, n, 1)
	r.Collect()
	assert.Equal(t, n, 1)
	r.Flush()
	assert.Equal(t, n, 2)

	// pointer receivers are found through the slot's storage.
	rp := &reclaimPtr{}
	p, _ := DeferUnique(&r, rp)
	p.Reset()
	r.Collect()
	assert.Equal(t, rp.n, 1)
}

type reentrant struct {
	r  *Registry
	fn func(r *Registry)
}

func (e reentrant) Reclaim() { e.fn(e.r) }

func TestRegistryReentrant(t *testing.T) {
	ops := map[string]func(r *Registry){
		"collect": func(r *Registry) { r.Collect() },
		"flush":   func(r *Registry) { r.Flush() },
		"defer":   func(r *Registry) { _, _ = DeferUnique(r, 0) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			var r Registry
			_, _ = DeferPersistent(&r, reentrant{r: &r, fn: op})
			assert.That(t, panics(func() { r.Flush() }))
			assert.Equal(t, r.Len(), 0)

			// the Registry is usable again afterwards.
			_, err := DeferUnique(&r, reentrant{})
			assert.NoError(t, err)
			assert.Equal(t, r.Flush(), 1)
			assert.Equal(t, r.Len(), 0)
		})
	}
}

// reclaimLog records the order of Reclaim calls and optionally panics.
type reclaimLog struct {
	id   int
	log  *[]int
	boom bool
}

func (r reclaimLog) Reclaim() {
	*r.log = append(*r.log, r.id)
	if r.boom {
		panic("boom")
	}
}

func TestRegistryCollectPanic(t *testing.T) {
	var r Registry
	var log []int

	u1, _ := DeferUnique(&r, reclaimLog{id: 1, log: &log})
	p2, _ := DeferPersistent(&r, reclaimLog{id: 2, log: &log})
	u3, _ := DeferUnique(&r, reclaimLog{id: 3, log: &log, boom: true})
	u4, _ := DeferUnique(&r, reclaimLog{id: 4, log: &log})
	p5, _ := DeferPersistent(&r, reclaimLog{id: 5, log: &log})
	u1.Reset()
	u3.Reset()
	u4.Reset()

	assert.That(t, panics(func() { r.Collect() }))
	assert.DeepEqual(t, log, []int{1, 3})

	// ready slots left the Registry even though one Reclaim panicked, and the
	// survivors are held once each, in order.
	assert.Equal(t, r.Len(), 2)
	st := r.Stats()
	assert.Equal(t, st.Kind(KindPersistent), 2)
	assert.Equal(t, st.Kind(KindUnique), 0)
	assert.Equal(t, st.Collected, uint64(3))
	assert.Equal(t, r.slots[0].(*slot[reclaimLog]).val.id, 2)
	assert.Equal(t, r.slots[1].(*slot[reclaimLog]).val.id, 5)
	assert.That(t, p2.Owns())
	assert.That(t, p5.Owns())

	assert.Equal(t, r.Collect(), 0)
	assert.Equal(t, r.Flush(), 2)
	assert.DeepEqual(t, log, []int{1, 3, 2, 5})
	assert.Equal(t, r.Len(), 0)
}

func TestRegistryFlushPanic(t *testing.T) {
	var r Registry
	var log []int

	a, _ := DeferPersistent(&r, reclaimLog{id: 1, log: &log})
	b, _ := DeferPersistent(&r, reclaimLog{id: 2, log: &log, boom: true})
	c, _ := DeferCounted(&r, reclaimLog{id: 3, log: &log})

	assert.That(t, panics(func() { r.Flush() }))
	assert.DeepEqual(t, log, []int{1, 2})
	assert.Equal(t, r.Len(), 0)
	assert.Equal(t, r.Gen(), uint64(1))

	// slots after the panic are dropped without their Reclaim.
	for _, h := range []interface{ Owns() bool }{a, b, c} {
		assert.That(t, !h.Owns())
	}

	assert.Equal(t, r.Flush(), 0)
	assert.DeepEqual(t, log, []int{1, 2})
}

func TestRegistryStats(t *testing.T) {
	var r Registry

	u, _ := DeferUnique(&r, 1)
	_, _ = DeferFleeting(&r, 2)
	_, _ = DeferPersistent(&r, 3)
	c, _ := DeferCounted(&r, 4)
	u.Reset()
	c.Reset()

	st := r.Stats()
	assert.Equal(t, st.Live, 4)
	assert.Equal(t, st.Ready, 2)
	for k := Kind(0); k < numKinds; k++ {
		assert.Equal(t, st.Kind(k), 1)
	}

	r.Collect()
	r.Flush()

	st = r.Stats()
	if diff := cmp.Diff(Stats{Gen: 1, Deferred: 4, Collected: 2, Flushed: 2}, st); diff != "" {
		t.Fatalf("stats (-want +got):\n%s", diff)
	}
	assert.Equal(t, st.String(),
		"live=0 ready=0 unique=0 fleeting=0 persistent=0 counted=0 gen=1 deferred=4 collected=2 flushed=2")
}

func BenchmarkRegistry(b *testing.B) {
	b.Run("DeferCollect", func(b *testing.B) {
		var r Registry
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			h, _ := DeferUnique(&r, i)
			h.Reset()
			if i%64 == 63 {
				r.Collect()
			}
		}
	})

	b.Run("Flush", func(b *testing.B) {
		var r Registry
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			_, _ = DeferPersistent(&r, i)
			if i%64 == 63 {
				r.Flush()
			}
		}
	})

	b.Run("CollectMixed", func(b *testing.B) {
		var r Registry
		rng := pcg.New(1)
		live := make([]*Fleeting[int], 0, 1024)
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			h, _ := DeferFleeting(&r, i)
			live = append(live, h)
			if len(live) == cap(live) {
				for _, h := range live {
					if rng.Uint32n(2) == 0 {
						h.Reset()
					}
				}
				r.Collect()
				live = live[:0]
			}
		}
	})
}
