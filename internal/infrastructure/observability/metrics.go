// Package observability holds the bridge's Prometheus metrics, the
// OpenTelemetry tracer provider and the shutdown coordinator that tears
// them down.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metricsNamespace prefixes every metric name.
const metricsNamespace = "alexabridge"

// Metrics holds the Prometheus registry and the bridge's meters.
type Metrics struct {
	Registry          *prometheus.Registry
	DirectivesTotal   *prometheus.CounterVec
	DirectiveDuration *prometheus.HistogramVec
	DirectiveErrors   *prometheus.CounterVec
	EventsDropped     prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
}

// NewMetrics creates a private registry with the bridge metrics plus the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		DirectivesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "directives_total",
			Help:      "Directives handled, by interface, name and outcome.",
		}, []string{"namespace", "name", "outcome"}),
		DirectiveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "directive_duration_seconds",
			Help:      "Time to handle a directive, including openHAB round trips.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 8},
		}, []string{"namespace", "name"}),
		DirectiveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "directive_errors_total",
			Help:      "Error responses sent to Alexa, by error type.",
		}, []string{"type"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "audit_events_dropped_total",
			Help:      "Directive records dropped because the audit buffer was full.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"method", "route", "code"}),
	}

	reg.MustRegister(
		m.DirectivesTotal,
		m.DirectiveDuration,
		m.DirectiveErrors,
		m.EventsDropped,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDirective records one handled directive.
func (m *Metrics) ObserveDirective(namespace, name, outcome, errorType string, d time.Duration) {
	m.DirectivesTotal.WithLabelValues(namespace, name, outcome).Inc()
	m.DirectiveDuration.WithLabelValues(namespace, name).Observe(d.Seconds())
	if errorType != "" {
		m.DirectiveErrors.WithLabelValues(errorType).Inc()
	}
}

// DroppedEvent counts a directive record that could not be queued.
func (m *Metrics) DroppedEvent() {
	m.EventsDropped.Inc()
}
