package quota

import (
	"sync"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

type entry struct {
	remaining   int
	windowStart time.Time
}

// Tracker enforces a fixed-window request quota per client key. The window
// resets exactly at windowStart+window, so bursts straddling the boundary can
// see up to 2x capacity back to back; that is the documented trade for O(1)
// stateless admission. Entries are never deleted, so memory grows with the
// number of distinct keys (fine for a local single-tenant deployment).
type Tracker struct {
	mu       sync.Mutex
	entries  map[string]*entry
	capacity int
	window   time.Duration
	now      func() time.Time
}

func NewTracker(capacity int, window time.Duration) *Tracker {
	if capacity <= 0 {
		capacity = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Tracker{
		entries:  make(map[string]*entry),
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
}

// Consume atomically takes one admission point for key. The first call for a
// key, or the first after its window has fully elapsed, starts a fresh window
// with capacity-1 remaining; later calls inside the window decrement while
// points remain, then reject.
func (t *Tracker) Consume(key string) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.entries[key]
	if !ok || now.Sub(e.windowStart) >= t.window {
		e = &entry{remaining: t.capacity - 1, windowStart: now}
		t.entries[key] = e
		return t.decision(true, e)
	}

	if e.remaining <= 0 {
		return t.decision(false, e)
	}
	e.remaining--
	return t.decision(true, e)
}

// Remaining reports the points left for key without consuming one.
func (t *Tracker) Remaining(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok || t.now().Sub(e.windowStart) >= t.window {
		return t.capacity
	}
	return e.remaining
}

// TrackedKeys reports how many distinct client keys the table holds.
func (t *Tracker) TrackedKeys() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Tracker) decision(allowed bool, e *entry) Decision {
	return Decision{
		Allowed:   allowed,
		Limit:     t.capacity,
		Remaining: e.remaining,
		Reset:     e.windowStart.Add(t.window),
	}
}
