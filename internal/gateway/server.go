package gateway

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/veil/internal/audit"
	"github.com/antoniostano/veil/internal/backend"
	"github.com/antoniostano/veil/internal/config"
	"github.com/antoniostano/veil/internal/observability"
	"github.com/antoniostano/veil/internal/quota"
	"github.com/antoniostano/veil/internal/redact"
)

// clientKeyHeader identifies the caller for quota accounting. Without it the
// remote host is used, which is good enough for a local deployment.
const clientKeyHeader = "X-Client-Key"

const maxBodyBytes = 2 << 20

type Server struct {
	cfg      config.Config
	quota    *quota.Tracker
	masker   *redact.Masker
	backend  backend.Client
	trail    *audit.Trail
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, tracker *quota.Tracker, masker *redact.Masker, client backend.Client, trail *audit.Trail, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		quota:   tracker,
		masker:  masker,
		backend: client,
		trail:   trail,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections may watch the audit
				// feed unless explicitly opened up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/chat/completions", s.handleCompletions)

	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/audit/recent", s.handleAuditRecent)
	r.Get("/v1/audit/stream", s.handleAuditStream)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.trail.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "audit_unavailable", "audit store query failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleAuditStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	records, cancel := s.trail.Subscribe()
	defer cancel()

	// Reader pump: the client never sends data frames, but reading is what
	// surfaces close frames and dead peers.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(rec); err != nil {
				return
			}
		}
	}
}

func clientKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(clientKeyHeader)); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeQuotaHeaders(w http.ResponseWriter, d quota.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
