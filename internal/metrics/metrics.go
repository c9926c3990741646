// Package metrics exposes Prometheus collectors for catalog loads and
// recommendation requests, and an optional HTTP listener that serves them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "dram"

// Request outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
	OutcomeCanceled  = "canceled"
)

// Metrics groups the collectors. Build it with New so tests can use a private
// registry.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	StaleResponses  prometheus.Counter
	CatalogRecords  prometheus.Gauge
	CatalogLoads    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_requests_total",
			Help:      "Recommendation requests by outcome",
		}, []string{"outcome"}),

		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_request_duration_seconds",
			Help:      "Recommendation request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_stale_responses_total",
			Help:      "Responses discarded because a newer selection was dispatched",
		}),

		CatalogRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_records",
			Help:      "Number of records in the loaded catalog",
		}),

		CatalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      "Catalog load attempts by result",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestsTotal, m.RequestDuration, m.StaleResponses,
			m.CatalogRecords, m.CatalogLoads,
		)
	}
	return m
}

// ObserveCatalog records a catalog load attempt.
func (m *Metrics) ObserveCatalog(records int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.CatalogLoads.WithLabelValues(OutcomeFailed).Inc()
		m.CatalogRecords.Set(0)
		return
	}
	m.CatalogLoads.WithLabelValues(OutcomeOK).Inc()
	m.CatalogRecords.Set(float64(records))
}

// ObserveStale counts a discarded out-of-date response.
func (m *Metrics) ObserveStale() {
	if m == nil {
		return
	}
	m.StaleResponses.Inc()
}
