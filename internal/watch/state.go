package watch

import "sync"

// CountState remembers the last record count a controller rendered.
type CountState struct {
	mu   sync.Mutex
	last int
	seen bool
}

// Observation is the outcome of comparing a fresh count with the last one.
type Observation struct {
	Count    int
	Previous int
	// First is set on the very first observation; nothing counts as growth then.
	First   bool
	Changed bool
	Grew    bool
}

// Observe records count and compares it with the previous observation.
func (c *CountState) Observe(count int) Observation {
	c.mu.Lock()
	defer c.mu.Unlock()
	obs := Observation{Count: count, Previous: c.last, First: !c.seen}
	if c.seen {
		obs.Changed = count != c.last
		obs.Grew = count > c.last
	}
	c.last = count
	c.seen = true
	return obs
}

// Last returns the last observed count and whether one was recorded.
func (c *CountState) Last() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.seen
}
