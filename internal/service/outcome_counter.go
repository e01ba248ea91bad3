package service

import "sync"

// outcomeCounter keeps per-label totals for snapshots.
type outcomeCounter struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func (c *outcomeCounter) add(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]uint64)
	}
	c.counts[label]++
}

func (c *outcomeCounter) snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}
