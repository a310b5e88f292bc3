// package dfr provides deferred reclamation of values owned by a single goroutine.
//
// Consider a structure whose nodes are unlinked by a writer while some in-flight
// work may still hold a pointer to them: a pending callback, an iterator that
// captured a node, a reader that has not yet reached its next synchronization
// point. The writer knows when it is done with a node, but not when the node is
// safe to reuse. Using the types in this package, releasing a value and
// reclaiming it become two separate steps:
//
//	var r dfr.Registry
//
//	func Remove(n *node) error {
//		h, err := dfr.DeferUnique(&r, n.payload)
//		if err != nil {
//			return err
//		}
//		publish(h.Deref())
//		h.Reset() // done with it, but readers may still look
//		return nil
//	}
//
//	func EndOfWorkUnit() {
//		r.Collect() // reclaims every released value
//	}
//
// Each value lives in a slot owned by a Registry, and callers hold handles to
// slots. The kind of handle decides when Collect may reclaim the slot:
//
//   - Unique: the single handle was Reset.
//   - Fleeting: like Unique, for values meant to be reclaimed at the first chance.
//   - Counted: every clone of the handle was Reset.
//   - Persistent: never. Only Flush reclaims it.
//
// Flush reclaims every slot regardless of its handles, and should only be used at
// a barrier where no reader can still observe deferred values. Handles to flushed
// slots report that they own nothing and panic on Deref.
//
// A Registry and its handles are not safe for concurrent use. Give each goroutine
// its own Registry; deciding when a Collect or Flush is safe remains the caller's
// job.
package dfr
