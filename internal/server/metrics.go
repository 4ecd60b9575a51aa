package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "plangraph"

type metrics struct {
	analyses  *prometheus.CounterVec
	duration  prometheus.Histogram
	planNodes prometheus.Histogram
}

// newMetrics registers the analysis collectors plus the Go runtime and
// process collectors on reg.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Plan analyses by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent ingesting, flattening and laying out one plan.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		planNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_nodes",
			Help:      "Operator count of successfully analyzed plans.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
	}

	reg.MustRegister(
		m.analyses,
		m.duration,
		m.planNodes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
