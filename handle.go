package dfr

// Handle is the contract shared by every handle kind.
//
// A handle either owns a slot or is empty. Reset empties it and performs the
// kind specific release: a Unique or Fleeting slot becomes ready for Collect, a
// Counted slot loses one reference, and a Persistent slot is unaffected. Reset
// on an empty handle does nothing.
//
// Deref returns the address of the owned value. It panics if the handle is
// empty or its slot has been reclaimed by a Flush. The address must not be
// used after the slot is collected.
type Handle[T any] interface {
	Reset()
	Owns() bool
	Deref() *T
}

var (
	_ Handle[int] = (*Unique[int])(nil)
	_ Handle[int] = (*Fleeting[int])(nil)
	_ Handle[int] = (*Persistent[int])(nil)
	_ Handle[int] = (*Counted[int])(nil)
)
