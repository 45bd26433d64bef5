package gateway

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/antoniostano/veil/internal/audit"
	"github.com/antoniostano/veil/internal/protocol"
)

// handleCompletions runs the proxy pipeline for one request: validate, admit,
// mask inbound, clamp, fingerprint, forward, mask outbound. The order is a
// hard invariant; in particular the fingerprint is only ever computed from
// masked content, and the outbound body is masked before the client sees it.
func (s *Server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	s.metrics.InflightRequests.Inc()
	defer s.metrics.InflightRequests.Dec()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.metrics.RequestsTotal.WithLabelValues("malformed").Inc()
		respondError(w, http.StatusBadRequest, "malformed_request", "unreadable request body")
		return
	}
	req, err := protocol.ParseChatRequest(raw)
	if err != nil {
		s.metrics.RequestsTotal.WithLabelValues("malformed").Inc()
		respondError(w, http.StatusBadRequest, "malformed_request", err.Error())
		return
	}

	decision := s.quota.Consume(clientKey(r))
	writeQuotaHeaders(w, decision)
	if !decision.Allowed {
		s.metrics.QuotaRejections.Inc()
		s.metrics.RequestsTotal.WithLabelValues("quota_rejected").Inc()
		respondError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "request quota exhausted for this window")
		return
	}

	body := req.Body()
	maskedMessages, inboundChanged, err := s.masker.Mask(body["messages"])
	if err != nil {
		s.metrics.RequestsTotal.WithLabelValues("malformed").Inc()
		respondError(w, http.StatusBadRequest, "malformed_request", "messages structure not maskable")
		return
	}
	body["messages"] = maskedMessages
	if inboundChanged {
		s.metrics.RedactedPayloads.WithLabelValues("inbound").Inc()
	}

	req.ClampTemperature(s.cfg.TemperatureCeiling)

	fingerprint, err := audit.Fingerprint(body)
	if err != nil {
		s.metrics.RequestsTotal.WithLabelValues("internal_error").Inc()
		respondError(w, http.StatusInternalServerError, "internal_error", "request could not be processed")
		return
	}
	s.trail.Record(r.Context(), fingerprint, audit.OutcomeStarted, 0, 0)
	s.metrics.AuditEvents.WithLabelValues(string(audit.OutcomeStarted)).Inc()

	start := time.Now()
	resp, err := s.backend.Complete(r.Context(), body)
	elapsed := time.Since(start)
	s.metrics.ObserveBackendLatency(elapsed)
	if err != nil {
		s.failUpstream(w, r, fingerprint, elapsed)
		return
	}

	outboundChanged, err := s.maskResponse(resp)
	if err != nil {
		// A response we cannot mask is a response we must not return.
		s.failUpstream(w, r, fingerprint, elapsed)
		return
	}
	if outboundChanged {
		s.metrics.RedactedPayloads.WithLabelValues("outbound").Inc()
	}

	s.trail.Record(r.Context(), fingerprint, audit.OutcomeCompleted, http.StatusOK, elapsed)
	s.metrics.AuditEvents.WithLabelValues(string(audit.OutcomeCompleted)).Inc()
	s.metrics.RequestsTotal.WithLabelValues("completed").Inc()
	respondJSON(w, http.StatusOK, resp)
}

// failUpstream reports a backend failure: only the pre-computed fingerprint is
// logged, and the client gets a generic error, never the upstream body.
func (s *Server) failUpstream(w http.ResponseWriter, r *http.Request, fingerprint string, elapsed time.Duration) {
	s.trail.Record(r.Context(), fingerprint, audit.OutcomeFailed, http.StatusBadGateway, elapsed)
	s.metrics.AuditEvents.WithLabelValues(string(audit.OutcomeFailed)).Inc()
	s.metrics.RequestsTotal.WithLabelValues("upstream_failure").Inc()
	respondError(w, http.StatusBadGateway, "upstream_failure", "backend unavailable")
}

// maskResponse sanitizes every choice's message in place. Backend-defined
// fields outside the messages pass through untouched.
func (s *Server) maskResponse(resp map[string]any) (bool, error) {
	choices, ok := resp["choices"].([]any)
	if !ok {
		return false, errors.New("response missing choices")
	}

	var changed bool
	for _, c := range choices {
		choice, ok := c.(map[string]any)
		if !ok {
			continue
		}
		message, present := choice["message"]
		if !present {
			continue
		}
		masked, ch, err := s.masker.Mask(message)
		if err != nil {
			return false, err
		}
		choice["message"] = masked
		changed = changed || ch
	}
	return changed, nil
}
