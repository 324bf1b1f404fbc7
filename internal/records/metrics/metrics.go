// Package metrics provides observability for the records service. All
// collectors register on the default Prometheus registry via promauto; the
// helper methods are nil-safe so callers never have to guard the hot path.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector of the records service.
type Metrics struct {
	// HTTP request counts and latencies by route pattern
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Lifecycle transitions by record kind and transition name
	Transitions *prometheus.CounterVec

	// Login attempts by outcome
	LoginAttempts *prometheus.CounterVec

	// Records purged by the retention sweep, by kind
	RetentionPurged *prometheus.CounterVec
}

// New creates a Metrics instance with all records service metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_records_http_requests_total",
			Help: "Total HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "folio_records_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and method",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_records_lifecycle_transitions_total",
			Help: "Total lifecycle transitions by record kind and transition",
		}, []string{"kind", "transition"}), // transition: "soft_delete", "restore", "purge"

		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_records_login_attempts_total",
			Help: "Total login attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure"

		RetentionPurged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_records_retention_purged_total",
			Help: "Total records purged by the retention sweep, by kind",
		}, []string{"kind"}),
	}
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m != nil {
		m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
	}
}

// IncrementTransition records n lifecycle transitions of the given kind.
func (m *Metrics) IncrementTransition(kind, transition string, n int) {
	if m != nil && n > 0 {
		m.Transitions.WithLabelValues(kind, transition).Add(float64(n))
	}
}

// IncrementLogin records a login attempt outcome.
func (m *Metrics) IncrementLogin(outcome string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

// AddRetentionPurged records how many records one retention sweep removed.
func (m *Metrics) AddRetentionPurged(kind string, n int) {
	if m != nil && n > 0 {
		m.RetentionPurged.WithLabelValues(kind).Add(float64(n))
	}
}
