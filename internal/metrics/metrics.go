// Package metrics defines the Prometheus collectors of the enrichment service.
//
// All recording helpers are safe on a nil *Metrics so components can be
// built without instrumentation in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lacarte"

// Metrics groups every collector the service exports.
type Metrics struct {
	ModelCalls        *prometheus.CounterVec
	ModelRetries      *prometheus.CounterVec
	ParseStrategies   *prometheus.CounterVec
	EmbeddingFailures prometheus.Counter
	CacheDecisions    *prometheus.CounterVec
	EnrichDuration    *prometheus.HistogramVec
	SourceRequests    *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ModelCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "calls_total",
				Help:      "Chat model invocations by call kind and outcome",
			},
			[]string{"call", "outcome"},
		),
		ModelRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "retries_total",
				Help:      "Retried chat model invocations by call kind",
			},
			[]string{"call"},
		),
		ParseStrategies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "parse_total",
				Help:      "Model responses by call kind and the parse strategy that succeeded",
			},
			[]string{"call", "strategy"},
		),
		EmbeddingFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "embedding",
				Name:      "item_failures_total",
				Help:      "Tag lists that fell back to the neutral projection",
			},
		),
		CacheDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "decisions_total",
				Help:      "Staleness gate decisions by tier and state",
			},
			[]string{"tier", "state"},
		),
		EnrichDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "enrichment",
				Name:      "duration_seconds",
				Help:      "Duration of enrichment runs",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		SourceRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "requests_total",
				Help:      "Requests to the post source by endpoint and status class",
			},
			[]string{"endpoint", "status"},
		),
	}
}

func (m *Metrics) ModelCall(call, outcome string) {
	if m == nil {
		return
	}
	m.ModelCalls.WithLabelValues(call, outcome).Inc()
}

func (m *Metrics) ModelRetry(call string) {
	if m == nil {
		return
	}
	m.ModelRetries.WithLabelValues(call).Inc()
}

func (m *Metrics) Parsed(call, strategy string) {
	if m == nil {
		return
	}
	m.ParseStrategies.WithLabelValues(call, strategy).Inc()
}

func (m *Metrics) EmbeddingFailed() {
	if m == nil {
		return
	}
	m.EmbeddingFailures.Inc()
}

func (m *Metrics) CacheDecision(tier, state string) {
	if m == nil {
		return
	}
	m.CacheDecisions.WithLabelValues(tier, state).Inc()
}

func (m *Metrics) EnrichRun(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.EnrichDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *Metrics) SourceRequest(endpoint, status string) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(endpoint, status).Inc()
}
