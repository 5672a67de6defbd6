package runtime

import (
	"sync"
	"time"
)

// DedupSet remembers reminder targets that were already notified.
// Each id keeps the scheduled time of its target so it can be evicted once
// the target can no longer be returned by a due-items query.
type DedupSet struct {
	mu       sync.Mutex
	notified map[string]time.Time
}

func NewDedupSet() *DedupSet {
	return &DedupSet{notified: make(map[string]time.Time)}
}

// MarkOnce records id and reports whether it was absent.
// Only the first caller for a given id gets true.
func (d *DedupSet) MarkOnce(id string, scheduledAt time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.notified[id]; ok {
		return false
	}
	d.notified[id] = scheduledAt
	return true
}

func (d *DedupSet) Contains(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.notified[id]
	return ok
}

// Evict drops every id whose scheduled time is before cutoff and returns how many were removed.
func (d *DedupSet) Evict(cutoff time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	evicted := 0
	for id, at := range d.notified {
		if at.Before(cutoff) {
			delete(d.notified, id)
			evicted++
		}
	}
	return evicted
}

func (d *DedupSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.notified)
}
