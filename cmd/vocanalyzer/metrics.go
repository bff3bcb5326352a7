package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exposed on /metrics. Each server gets its
// own registry.
type Metrics struct {
	registry *prometheus.Registry

	loads       *prometheus.CounterVec // result: ok or error
	loadSeconds prometheus.Histogram
	selections  prometheus.Counter
	extractions *prometheus.CounterVec // result: written, empty or error
	segments    prometheus.Counter
	samples     prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		loads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vocanalyzer_dataset_loads_total",
				Help: "Datasets loaded, by result",
			},
			[]string{"result"},
		),
		loadSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vocanalyzer_dataset_load_seconds",
				Help:    "Time to load and synchronize the three channels of a dataset",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		selections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vocanalyzer_selections_total",
				Help: "Completed analysis windows",
			},
		),
		extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vocanalyzer_extractions_total",
				Help: "Extraction requests, by result",
			},
			[]string{"result"},
		),
		segments: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "vocanalyzer_segments_written_total",
				Help: "Per-sensor cycle segments written",
			},
		),
		samples: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "vocanalyzer_loaded_samples",
				Help: "Timestamps in the loaded dataset",
			},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordLoad(started time.Time, samples int, err error) {
	if m == nil {
		return
	}

	m.loadSeconds.Observe(time.Since(started).Seconds())
	if err != nil {
		m.loads.WithLabelValues("error").Inc()
		return
	}
	m.loads.WithLabelValues("ok").Inc()
	m.samples.Set(float64(samples))
}

func (m *Metrics) RecordSelection() {
	if m == nil {
		return
	}
	m.selections.Inc()
}

func (m *Metrics) RecordExtraction(segments int, err error) {
	if m == nil {
		return
	}

	switch {
	case err != nil:
		m.extractions.WithLabelValues("error").Inc()
	case segments == 0:
		m.extractions.WithLabelValues("empty").Inc()
	default:
		m.extractions.WithLabelValues("written").Inc()
		m.segments.Add(float64(segments))
	}
}
