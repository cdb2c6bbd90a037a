package engine

import "github.com/openziti/fabstatus/kernel/model"

// StateCache holds the latest snapshot observed for each resource. It is owned by the watch loop's
// consumer goroutine and is not safe for concurrent use.
type StateCache struct {
	entries map[string]model.Snapshot
}

func NewStateCache() *StateCache {
	return &StateCache{entries: make(map[string]model.Snapshot)}
}

// Record overwrites any previous snapshot for id.
func (c *StateCache) Record(id model.Identity, snapshot model.Snapshot) {
	c.entries[id.Key()] = snapshot
}

func (c *StateCache) Lookup(id model.Identity) (model.Snapshot, bool) {
	s, ok := c.entries[id.Key()]
	return s, ok
}

func (c *StateCache) Len() int {
	return len(c.entries)
}
