package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// enrichment and distribution core.
type Metrics struct {
	// Cache metrics.
	CacheLookups    *prometheus.CounterVec // labels: result={hit,miss,expired,error}
	CacheWriteFails prometheus.Counter
	CacheSwept      prometheus.Counter
	CacheSweepFails prometheus.Counter

	// Provider fallback metrics.
	ProviderCalls    *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	ChainExhausted   *prometheus.CounterVec   // labels: service

	// Enrichment service metrics.
	Enrichments *prometheus.CounterVec // labels: service, source={cache,provider,failed}

	// Broadcast metrics.
	BroadcastDeliveries *prometheus.CounterVec // labels: outcome={ok,failed}
	ObserversConnected  prometheus.Gauge

	// Kafka relay metrics.
	RelayPublishes *prometheus.CounterVec // labels: outcome={ok,failed}
}

// NewMetrics creates and registers all core metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CacheLookups,
		m.CacheWriteFails,
		m.CacheSwept,
		m.CacheSweepFails,
		m.ProviderCalls,
		m.ProviderDuration,
		m.ChainExhausted,
		m.Enrichments,
		m.BroadcastDeliveries,
		m.ObserversConnected,
		m.RelayPublishes,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		CacheWriteFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "cache_write_failures_total",
			Help:      "Cache upserts that failed at the backend.",
		}),
		CacheSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "cache_swept_entries_total",
			Help:      "Expired entries removed by the background sweeper.",
		}),
		CacheSweepFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "cache_sweep_failures_total",
			Help:      "Sweep cycles that failed at the backend.",
		}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "provider_calls_total",
			Help:      "External provider invocations by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "disaster_core",
			Name:      "provider_call_duration_seconds",
			Help:      "External provider call duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		ChainExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "chain_exhausted_total",
			Help:      "Resolve calls where every provider in the chain failed.",
		}, []string{"service"}),
		Enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "enrichments_total",
			Help:      "Enrichment requests by service and result source.",
		}, []string{"service", "source"}),
		BroadcastDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "broadcast_deliveries_total",
			Help:      "Per-observer event deliveries by outcome.",
		}, []string{"outcome"}),
		ObserversConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_core",
			Name:      "observers_connected",
			Help:      "Currently connected real-time observers.",
		}),
		RelayPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_core",
			Name:      "relay_publishes_total",
			Help:      "Mutation events relayed to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
