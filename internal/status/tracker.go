// Package status holds the last known UP/DOWN state of every target.
package status

import "sync"

// Tracker is the single owner of the last-status map. Names it has never
// seen are assumed UP.
type Tracker struct {
	mu   sync.Mutex
	last map[string]bool
}

func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]bool)}
}

// Seed marks every name UP, overwriting nothing already recorded.
func (t *Tracker) Seed(names ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, n := range names {
		if _, ok := t.last[n]; !ok {
			t.last[n] = true
		}
	}
}

// Record stores up for name and reports whether it differs from the
// previous status.
func (t *Tracker) Record(name string, up bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.last[name]
	if !ok {
		prev = true
	}
	t.last[name] = up
	return prev != up
}

// Status returns the recorded status and whether name has an entry.
func (t *Tracker) Status(name string) (up bool, known bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	up, known = t.last[name]
	if !known {
		return true, false
	}
	return up, true
}

func (t *Tracker) Snapshot() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.last))
	for k, v := range t.last {
		out[k] = v
	}
	return out
}
