package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	readingsIngested  prometheus.Counter
	readingsRejected  *prometheus.CounterVec
	decisions         *prometheus.CounterVec
	commands          *prometheus.CounterVec
	evaluationErrors  prometheus.Counter
	evaluationSeconds prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		readingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "readings_ingested_total",
			Help:      "Sensor readings stored from MQTT.",
		}),
		readingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "readings_rejected_total",
			Help:      "Sensor messages that were not stored, by reason.",
		}, []string{"reason"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "decisions_total",
			Help:      "Watering decisions made, by status label.",
		}, []string{"status"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "pump_commands_total",
			Help:      "Pump commands published, by trigger kind and result.",
		}, []string{"trigger", "result"}),
		evaluationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "irrigation",
			Name:      "evaluation_errors_total",
			Help:      "Inference runs rejected as invalid input.",
		}),
		evaluationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "irrigation",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent in fuzzy inference.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.readingsIngested,
		m.readingsRejected,
		m.decisions,
		m.commands,
		m.evaluationErrors,
		m.evaluationSeconds,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
