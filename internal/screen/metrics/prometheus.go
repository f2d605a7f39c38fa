// Package metrics owns the prometheus collectors for the screening daemon.
// Collectors live on a dedicated registry so that several instances can
// coexist in one process (tests, embedded use).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/ringguard/internal/screen/domain"
)

const namespace = "ringguard"

// Metrics bundles every collector and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	ScreenDecisions        *prometheus.CounterVec
	RejectionLogSize       prometheus.Gauge
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRateLimitRejection prometheus.Counter
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScreenDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "screen_decisions_total",
				Help:      "Total number of screening decisions by action and reason",
			},
			[]string{"action", "reason"},
		),
		RejectionLogSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "rejection_log_entries",
				Help:      "Number of entries currently held in the rejection log",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests received",
			},
			[]string{"route", "status", "method"},
		),
		HTTPRateLimitRejection: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_rate_limit_rejections_total",
				Help:      "Total number of HTTP requests rejected due to rate limiting",
			},
		),
	}
	m.registry.MustRegister(
		m.ScreenDecisions,
		m.RejectionLogSize,
		m.HTTPRequestsTotal,
		m.HTTPRateLimitRejection,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing this instance.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordDecision counts one screening decision.
func (m *Metrics) RecordDecision(d domain.ScreenDecision) {
	m.ScreenDecisions.WithLabelValues(d.Action(), string(d.Reason)).Inc()
}

// SetRejectionLogSize publishes the current rejection log cardinality.
func (m *Metrics) SetRejectionLogSize(n uint64) {
	m.RejectionLogSize.Set(float64(n))
}

// RecordHTTPRequest counts one served request.
func (m *Metrics) RecordHTTPRequest(route, method, status string) {
	m.HTTPRequestsTotal.WithLabelValues(route, status, method).Inc()
}

// RecordRateLimited counts one request refused by the rate limiter.
func (m *Metrics) RecordRateLimited() { m.HTTPRateLimitRejection.Inc() }

// CacheStats is a point-in-time view of a lookup cache.
type CacheStats struct {
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// ObserveContactCache exports the counters of a contact lookup cache. stats
// is read on every scrape.
func (m *Metrics) ObserveContactCache(stats func() CacheStats) error {
	cs := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "contact_cache_entries",
			Help:      "Number of cached contact lookup results",
		}, func() float64 { return float64(stats().Size) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_cache_hits_total",
			Help:      "Contact lookups answered from the cache",
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_cache_misses_total",
			Help:      "Contact lookups forwarded to the directory",
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_cache_evictions_total",
			Help:      "Cached contact lookup results evicted or purged",
		}, func() float64 { return float64(stats().Evictions) }),
	}
	return m.register(cs...)
}

// ObserveContactDirectory exports the number of indexed contact numbers.
func (m *Metrics) ObserveContactDirectory(size func() int) error {
	return m.register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "contact_numbers",
		Help:      "Number of distinct phone numbers in the contact directory",
	}, func() float64 { return float64(size()) }))
}

// ObserveAllowList exports the allow-list size.
func (m *Metrics) ObserveAllowList(size func() uint64) error {
	return m.register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "allowlist_entries",
		Help:      "Number of numbers on the allow-list",
	}, func() float64 { return float64(size()) }))
}

func (m *Metrics) register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
