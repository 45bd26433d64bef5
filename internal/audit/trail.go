package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Trail is the single sink for audit events. It persists each record, fans it
// out to live subscribers, and writes a log line. Everything flowing through
// it is content-free: fingerprints, outcomes, status codes, timestamps.
type Trail struct {
	store Store

	mu   sync.Mutex
	subs map[string]chan Record
}

func NewTrail(store Store) *Trail {
	return &Trail{
		store: store,
		subs:  make(map[string]chan Record),
	}
}

// Record registers one audit event and returns it. Persistence failures are
// logged and swallowed: the audit trail is an observability aid, and losing a
// record must never fail the request it describes.
func (t *Trail) Record(ctx context.Context, fingerprint string, outcome Outcome, statusCode int, latency time.Duration) Record {
	rec := Record{
		ID:          uuid.NewString(),
		Fingerprint: fingerprint,
		Outcome:     outcome,
		StatusCode:  statusCode,
		LatencyMs:   latency.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}

	if err := t.store.Save(ctx, rec); err != nil {
		log.Printf("audit: save failed for %s: %v", rec.Fingerprint, err)
	}
	t.publish(rec)
	log.Printf("audit: %s outcome=%s status=%d latency_ms=%d", rec.Fingerprint, rec.Outcome, rec.StatusCode, rec.LatencyMs)
	return rec
}

// Recent returns the latest records, newest first.
func (t *Trail) Recent(ctx context.Context, limit int) ([]Record, error) {
	return t.store.Recent(ctx, limit)
}

// Subscribe registers a live feed of future records. The returned cancel
// function must be called when the subscriber goes away.
func (t *Trail) Subscribe() (<-chan Record, func()) {
	id := uuid.NewString()
	ch := make(chan Record, 64)

	t.mu.Lock()
	t.subs[id] = ch
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		if existing, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(existing)
		}
		t.mu.Unlock()
	}
	return ch, cancel
}

func (t *Trail) publish(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- rec:
		default:
			// Slow subscriber; drop rather than block request handling.
		}
	}
}
