package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "radiometa"

// Metrics holds the service's Prometheus collectors. It implements
// core.MetricsRecorder.
type Metrics struct {
	PollsTotal          *prometheus.CounterVec
	LookupsTotal        *prometheus.CounterVec
	LookupDuration      prometheus.Histogram
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	ProviderErrorsTotal *prometheus.CounterVec
	RefreshesTotal      *prometheus.CounterVec
	CacheSize           prometheus.Gauge
	HistorySize         prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "polls_total",
				Help:      "Total number of station metadata polls",
			},
			[]string{"status"},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "lookups_total",
				Help:      "Total number of artwork cascade runs by winning source",
			},
			[]string{"source"},
		),
		LookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "lookup_duration_seconds",
				Help:      "Time spent resolving artwork through the provider cascade",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cache_hits_total",
				Help:      "Total number of lookups answered from the cache",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cache_misses_total",
				Help:      "Total number of lookups that missed the cache",
			},
		),
		ProviderErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "provider_errors_total",
				Help:      "Total number of failed provider requests",
			},
			[]string{"provider"},
		),
		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "refreshes_total",
				Help:      "Total number of manual refresh requests by outcome",
			},
			[]string{"outcome"},
		),
		CacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "cache_size",
				Help:      "Number of cached lookup results",
			},
		),
		HistorySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "history_size",
				Help:      "Number of tracks in the play history",
			},
		),
	}

	reg.MustRegister(
		m.PollsTotal,
		m.LookupsTotal,
		m.LookupDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.ProviderErrorsTotal,
		m.RefreshesTotal,
		m.CacheSize,
		m.HistorySize,
	)

	return m
}

func (m *Metrics) RecordPoll(status string) {
	m.PollsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordLookup(source string, duration time.Duration) {
	m.LookupsTotal.WithLabelValues(source).Inc()
	m.LookupDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordProviderError(provider string) {
	m.ProviderErrorsTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) RecordRefresh(outcome string) {
	m.RefreshesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetCacheSize(size int) {
	m.CacheSize.Set(float64(size))
}

func (m *Metrics) SetHistorySize(size int) {
	m.HistorySize.Set(float64(size))
}
