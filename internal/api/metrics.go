package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics instruments the labeling endpoints.
type metrics struct {
	labels        *prometheus.CounterVec
	labelDuration *prometheus.HistogramVec
	streams       prometheus.Gauge
	jobs          *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		labels: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rhymer",
			Subsystem: "api",
			Name:      "labels_total",
			Help:      "Label requests by transport, mode and outcome code.",
		}, []string{"transport", "mode", "code"}),
		labelDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rhymer",
			Subsystem: "api",
			Name:      "label_duration_seconds",
			Help:      "Time to label one poem, oracle lookups included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 9),
		}, []string{"mode"}),
		streams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rhymer",
			Subsystem: "api",
			Name:      "label_streams",
			Help:      "Open websocket label streams.",
		}),
		jobs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rhymer",
			Subsystem: "api",
			Name:      "jobs_total",
			Help:      "Batch jobs by final status.",
		}, []string{"status"}),
	}
}
