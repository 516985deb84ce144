package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ankouyang/apiprobe/internal/probe"
)

type metrics struct {
	registry *prometheus.Registry
	results  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apiprobe",
			Name:      "results_total",
			Help:      "Probe results by check name and outcome kind.",
		}, []string{"name", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "apiprobe",
			Name:      "latency_seconds",
			Help:      "Probe latency by check name.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"name"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.results,
		m.latency,
	)
	return m
}

func (m *metrics) observe(res probe.Result) {
	m.results.WithLabelValues(res.Name, res.Kind.String()).Inc()
	m.latency.WithLabelValues(res.Name).Observe(res.LatencyMS / 1000)
}
