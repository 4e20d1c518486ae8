package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sentinel"

// Metrics holds the evaluation counters and histograms on a private registry
type Metrics struct {
	registry            *prometheus.Registry
	decisions           *prometheus.CounterVec
	investigations      prometheus.Counter
	oracleFailures      *prometheus.CounterVec
	enforcementFailures prometheus.Counter
	runDuration         *prometheus.HistogramVec
	frozenShortCircuits prometheus.Counter
	httpRequests        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with a new registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Terminal decisions reached by evaluation runs",
		}, []string{"decision"}),
		investigations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "investigations_total",
			Help:      "History investigations triggered by suspicious classifications",
		}),
		oracleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_failures_total",
			Help:      "Classification failures resolved through the failure policy",
		}, []string{"kind"}),
		enforcementFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enforcement_failures_total",
			Help:      "Enforcement units of work that were rolled back",
		}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of an evaluation run including enforcement",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"decision"}),
		frozenShortCircuits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frozen_card_rejections_total",
			Help:      "Submissions rejected because the card was already frozen",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "code"}),
	}
}

// RecordDecision counts a terminal decision and observes the run duration
func (m *Metrics) RecordDecision(decision string, duration time.Duration) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision).Inc()
	m.runDuration.WithLabelValues(decision).Observe(duration.Seconds())
}

// RecordInvestigation counts a history investigation
func (m *Metrics) RecordInvestigation() {
	if m == nil {
		return
	}
	m.investigations.Inc()
}

// RecordOracleFailure counts a classification failure by kind
func (m *Metrics) RecordOracleFailure(kind string) {
	if m == nil {
		return
	}
	m.oracleFailures.WithLabelValues(kind).Inc()
}

// RecordEnforcementFailure counts a rolled back enforcement
func (m *Metrics) RecordEnforcementFailure() {
	if m == nil {
		return
	}
	m.enforcementFailures.Inc()
}

// RecordFrozenRejection counts a submission against a frozen card
func (m *Metrics) RecordFrozenRejection() {
	if m == nil {
		return
	}
	m.frozenShortCircuits.Inc()
}

// InstrumentHandler counts requests served by next
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerCounter(m.httpRequests, next)
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
