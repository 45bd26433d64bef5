package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the gateway.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RedactedPayloads *prometheus.CounterVec
	QuotaRejections  prometheus.Counter
	InflightRequests prometheus.Gauge
	BackendLatency   prometheus.Histogram
	AuditEvents      *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Completion requests by outcome.",
		}, []string{"outcome"}),
		RedactedPayloads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redacted_payloads_total",
			Help:      "Payloads that required redaction, by direction.",
		}, []string{"direction"}),
		QuotaRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Requests rejected by the fixed-window quota.",
		}),
		InflightRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_requests",
			Help:      "Completion requests currently in the pipeline.",
		}),
		BackendLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_latency_ms",
			Help:      "Backend completion call latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		AuditEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_events_total",
			Help:      "Audit trail events by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveBackendLatency(d time.Duration) {
	m.BackendLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
