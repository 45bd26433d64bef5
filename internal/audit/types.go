package audit

import (
	"context"
	"time"
)

// Outcome marks where in its lifecycle a proxied request is.
type Outcome string

const (
	OutcomeStarted   Outcome = "started"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Record is one content-free audit event. It is derived only from sanitized
// bytes (the fingerprint) plus status metadata, so persisting or streaming it
// can never leak request content.
type Record struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Outcome     Outcome   `json:"outcome"`
	StatusCode  int       `json:"status_code,omitempty"`
	LatencyMs   int64     `json:"latency_ms,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists audit records.
type Store interface {
	Save(ctx context.Context, record Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
