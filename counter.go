package dfr

// counter tracks how many Counted handles refer to a slot. It is not safe for
// concurrent use: it is only ever touched by the goroutine owning the Registry.
type counter struct {
	count int32
}

// Acquire increments the counter.
func (c *counter) Acquire() { c.count++ }

// Release decrements the counter. Releasing a zero counter is a bug in the
// caller and panics rather than wrapping around.
func (c *counter) Release() {
	if c.count <= 0 {
		panic("dfr: counter released below zero")
	}
	c.count--
}

// Zero returns if the counter is not Acquired.
func (c *counter) Zero() bool { return c.count == 0 }

// Load returns the current count.
func (c *counter) Load() int { return int(c.count) }
