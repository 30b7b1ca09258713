package counter

import "sync"

// inMemory tracks redelivery counts in a process-local map. It is lost
// on restart and not shared across instances — the "clustered" variant
// a real deployment would register via Register is out of scope here.
type inMemory struct {
	mu     sync.Mutex
	counts map[string]int
}

func newInMemory(map[string]interface{}) (Counter, error) {
	return &inMemory{counts: map[string]int{}}, nil
}

func (c *inMemory) Count(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[id]++
	return c.counts[id]
}

func (c *inMemory) Reset(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, id)
}
