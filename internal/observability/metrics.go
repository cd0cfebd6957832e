package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// time-series engine.
type Metrics struct {
	FetchRequests *prometheus.CounterVec // labels: outcome={success,no_data,server_error,network_error,decode_error}
	FetchDuration prometheus.Histogram

	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss}
	CacheWriteErrors prometheus.Counter

	MeasurementsReshaped prometheus.Counter
	CohortsGrouped       prometheus.Histogram

	StatisticsRequests *prometheus.CounterVec // labels: outcome={success,error}

	SelectionsActive prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.CacheLookups,
		m.CacheWriteErrors,
		m.MeasurementsReshaped,
		m.CohortsGrouped,
		m.StatisticsRequests,
		m.SelectionsActive,
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
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swotvis",
			Name:      "fetch_requests_total",
			Help:      "Time-series API requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swotvis",
			Name:      "fetch_duration_seconds",
			Help:      "Time-series API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swotvis",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swotvis",
			Name:      "cache_write_errors_total",
			Help:      "Cache writes that failed even after eviction and retry.",
		}),
		MeasurementsReshaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swotvis",
			Name:      "measurements_reshaped_total",
			Help:      "Valid measurement rows produced from API responses.",
		}),
		CohortsGrouped: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swotvis",
			Name:      "cohorts_per_profile",
			Help:      "Number of timestamp cohorts per long-profile build.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		StatisticsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swotvis",
			Name:      "statistics_requests_total",
			Help:      "Statistics overlay computations by outcome.",
		}, []string{"outcome"}),
		SelectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "swotvis",
			Name:      "selections_active",
			Help:      "Number of features currently selected across sessions.",
		}),
	}
}
