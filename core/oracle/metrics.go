package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments oracle cache behavior.
type Metrics struct {
	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	entries        prometheus.Gauge
}

// NewMetrics creates oracle metrics registered with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rhymer",
			Subsystem: "oracle",
			Name:      "lookups_total",
			Help:      "External rhyme lookups by result.",
		}, []string{"result"}),
		lookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rhymer",
			Subsystem: "oracle",
			Name:      "lookup_duration_seconds",
			Help:      "Duration of external rhyme lookups.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rhymer",
			Subsystem: "oracle",
			Name:      "cache_hits_total",
			Help:      "Words found in the rhyme cache by EnsureLoaded.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "rhymer",
			Subsystem: "oracle",
			Name:      "cache_misses_total",
			Help:      "Words missing from the rhyme cache by EnsureLoaded.",
		}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "rhymer",
			Subsystem: "oracle",
			Name:      "cache_entries",
			Help:      "Headwords held in the rhyme cache.",
		}),
	}
}
