// Package metrics defines the Prometheus metric collectors used by the
// ingestion pipeline, lookups and exporters, and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the process.
type Metrics struct {
	LinesReadTotal     prometheus.Counter
	LinesSkippedTotal  prometheus.Counter
	WordsSentTotal     prometheus.Counter
	WordsRecordedTotal prometheus.Counter
	DistinctWords      prometheus.Gauge
	HandoffWait        prometheus.Histogram
	IngestionDuration  prometheus.Histogram
	LookupsTotal       *prometheus.CounterVec
	ExportsTotal       *prometheus.CounterVec
	ExportDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates all collectors and registers them on reg. A nil reg uses a
// fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		LinesReadTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordfreq_lines_read_total",
				Help: "Total lines read from the input source.",
			},
		),
		LinesSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordfreq_lines_skipped_total",
				Help: "Lines rejected by the word validator.",
			},
		),
		WordsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordfreq_words_sent_total",
				Help: "Words handed to the indexing worker, sentinel excluded.",
			},
		),
		WordsRecordedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wordfreq_words_recorded_total",
				Help: "Words recorded into the frequency table.",
			},
		),
		DistinctWords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wordfreq_distinct_words",
				Help: "Distinct words in the frequency table after ingestion.",
			},
		),
		HandoffWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wordfreq_handoff_wait_seconds",
				Help:    "Time the producer spent blocked handing a word to the worker.",
				Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
			},
		),
		IngestionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wordfreq_ingestion_duration_seconds",
				Help:    "Wall time from pipeline start until the worker exits.",
				Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
			},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordfreq_lookups_total",
				Help: "Lookups by result (found, not_found).",
			},
			[]string{"result"},
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wordfreq_exports_total",
				Help: "Table exports by sink and status.",
			},
			[]string{"sink", "status"},
		),
		ExportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wordfreq_export_duration_seconds",
				Help:    "Export latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"sink"},
		),
	}

	reg.MustRegister(
		m.LinesReadTotal,
		m.LinesSkippedTotal,
		m.WordsSentTotal,
		m.WordsRecordedTotal,
		m.DistinctWords,
		m.HandoffWait,
		m.IngestionDuration,
		m.LookupsTotal,
		m.ExportsTotal,
		m.ExportDuration,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	return m
}

// Handler returns the Prometheus scrape HTTP handler for the registry the
// collectors were registered on.
func (m *Metrics) Handler() http.Handler {
	if m.gatherer == nil || m.gatherer == prometheus.DefaultGatherer {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
