// Package metrics holds the Prometheus instruments of the shipping service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shipping"

// Reconcile outcome labels.
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped_terminal"
	OutcomeFailed    = "failed"
)

// Metrics groups every instrument. Build one per process with New and pass
// it to the components that record.
type Metrics struct {
	registry *prometheus.Registry

	DeliveriesCreated   *prometheus.CounterVec
	LabelFailures       *prometheus.CounterVec
	StatusTransitions   *prometheus.CounterVec
	WebhookEvents       *prometheus.CounterVec
	ReconcileRuns       *prometheus.CounterVec
	ReconcileDeliveries *prometheus.CounterVec
	ReconcileDuration   *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		DeliveriesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_created_total",
			Help:      "Deliveries created, by provider",
		}, []string{"provider"}),

		LabelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_failures_total",
			Help:      "Label generation failures, by provider",
		}, []string{"provider"}),

		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Accepted status changes, by provider, source and target status",
		}, []string{"provider", "source", "status"}),

		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Inbound provider callbacks, by provider and HTTP status code",
		}, []string{"provider", "code"}),

		ReconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation ticks, by provider and result",
		}, []string{"provider", "result"}),

		ReconcileDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_deliveries_total",
			Help:      "Deliveries visited by reconciliation, by provider and outcome",
		}, []string{"provider", "outcome"}),

		ReconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of one reconciliation tick",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"handler", "method", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DeliveriesCreated,
		m.LabelFailures,
		m.StatusTransitions,
		m.WebhookEvents,
		m.ReconcileRuns,
		m.ReconcileDeliveries,
		m.ReconcileDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(handler, method string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(handler, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(handler, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveWebhook(provider string, status int) {
	m.WebhookEvents.WithLabelValues(provider, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveTransition(provider, source, status string) {
	m.StatusTransitions.WithLabelValues(provider, source, status).Inc()
}

// ObserveReconcile records one finished tick.
func (m *Metrics) ObserveReconcile(provider string, err error, elapsed time.Duration, outcomes map[string]int) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ReconcileRuns.WithLabelValues(provider, result).Inc()
	m.ReconcileDuration.WithLabelValues(provider).Observe(elapsed.Seconds())

	for outcome, n := range outcomes {
		if n > 0 {
			m.ReconcileDeliveries.WithLabelValues(provider, outcome).Add(float64(n))
		}
	}
}
