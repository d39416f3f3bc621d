package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the portal's counters on a private registry
type Metrics struct {
	registry      *prometheus.Registry
	fetches       *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	enrollments   *prometheus.CounterVec
}

// NewMetrics creates and registers every portal metric. activeVisits is
// sampled at scrape time; nil leaves the gauge unregistered.
func NewMetrics(activeVisits func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_listing_fetches_total",
			Help: "Listing collections fetched from the data source.",
		}, []string{"entity"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_listing_fetch_failures_total",
			Help: "Listing fetches that failed and rendered an empty page.",
		}, []string{"entity"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_enrollment_attempts_total",
			Help: "Workshop enrollment attempts by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.fetches,
		m.fetchFailures,
		m.enrollments,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if activeVisits != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "portal_active_visits",
			Help: "Page visits currently held in memory.",
		}, activeVisits))
	}
	return m
}

// RecordFetch counts one listing fetch and whether it failed
func (m *Metrics) RecordFetch(entity string, err error) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(entity).Inc()
	if err != nil {
		m.fetchFailures.WithLabelValues(entity).Inc()
	}
}

// RecordEnrollment counts one enrollment attempt
func (m *Metrics) RecordEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.enrollments.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
