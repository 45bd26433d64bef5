package quota

import (
	"sync"
	"testing"
	"time"
)

func newTestTracker(capacity int, window time.Duration) (*Tracker, *time.Time) {
	t := NewTracker(capacity, window)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t.now = func() time.Time { return now }
	return t, &now
}

func TestConsumeWithinWindow(t *testing.T) {
	tr, _ := newTestTracker(10, time.Minute)

	for i := 0; i < 10; i++ {
		d := tr.Consume("X")
		if !d.Allowed {
			t.Fatalf("consume %d rejected, want admitted", i+1)
		}
		if d.Remaining != 10-1-i {
			t.Fatalf("consume %d remaining = %d, want %d", i+1, d.Remaining, 10-1-i)
		}
	}

	d := tr.Consume("X")
	if d.Allowed {
		t.Fatalf("11th consume admitted, want rejected")
	}
	if d.Remaining != 0 {
		t.Fatalf("rejected remaining = %d, want 0", d.Remaining)
	}
}

func TestWindowRollover(t *testing.T) {
	tr, now := newTestTracker(10, time.Minute)

	for i := 0; i < 11; i++ {
		tr.Consume("X")
	}

	// One nanosecond short of the boundary: still the old window.
	*now = now.Add(time.Minute - time.Nanosecond)
	if d := tr.Consume("X"); d.Allowed {
		t.Fatalf("consume just before rollover admitted, want rejected")
	}

	*now = now.Add(time.Nanosecond)
	d := tr.Consume("X")
	if !d.Allowed {
		t.Fatalf("consume after rollover rejected, want admitted")
	}
	if d.Remaining != 9 {
		t.Fatalf("remaining after rollover = %d, want 9", d.Remaining)
	}
	if !d.Reset.Equal(now.Add(time.Minute)) {
		t.Fatalf("reset = %v, want %v", d.Reset, now.Add(time.Minute))
	}
}

func TestKeysIndependent(t *testing.T) {
	tr, _ := newTestTracker(2, time.Minute)

	tr.Consume("A")
	tr.Consume("A")
	if d := tr.Consume("A"); d.Allowed {
		t.Fatalf("A over capacity admitted")
	}
	if d := tr.Consume("B"); !d.Allowed {
		t.Fatalf("B rejected, want admitted despite A being exhausted")
	}
	if got := tr.TrackedKeys(); got != 2 {
		t.Fatalf("TrackedKeys() = %d, want 2", got)
	}
}

func TestRemainingDoesNotConsume(t *testing.T) {
	tr, _ := newTestTracker(5, time.Minute)
	if got := tr.Remaining("X"); got != 5 {
		t.Fatalf("Remaining(fresh) = %d, want 5", got)
	}
	tr.Consume("X")
	if got := tr.Remaining("X"); got != 4 {
		t.Fatalf("Remaining = %d, want 4", got)
	}
	if got := tr.Remaining("X"); got != 4 {
		t.Fatalf("Remaining consumed a point: %d, want 4", got)
	}
}

func TestConcurrentConsumeCapped(t *testing.T) {
	tr := NewTracker(10, time.Minute)

	const workers = 64
	var wg sync.WaitGroup
	admitted := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Consume("X").Allowed {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for range admitted {
		count++
	}
	if count != 10 {
		t.Fatalf("admitted %d concurrent consumes, want exactly 10", count)
	}
}
