package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of the advisor.
type Metrics struct {
	AnalysesTotal  *prometheus.CounterVec // labels: signal
	FailuresTotal  *prometheus.CounterVec // labels: kind
	WarningsTotal  *prometheus.CounterVec // labels: indicator
	FetchDur       prometheus.Histogram
	PipelineDur    prometheus.Histogram
	SeriesBarCount prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_analyses_total",
			Help: "Completed analyses by resulting signal",
		}, []string{"signal"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_failures_total",
			Help: "Failed analyses by error kind",
		}, []string{"kind"}),
		WarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_insufficient_history_total",
			Help: "Indicators left undefined because the series was too short",
		}, []string{"indicator"}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_fetch_duration_seconds",
			Help:    "Data provider fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		PipelineDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_pipeline_duration_seconds",
			Help:    "Indicator pipeline compute latency",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		SeriesBarCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "advisor_series_bars",
			Help:    "Number of bars per fetched series",
			Buckets: []float64{10, 30, 100, 250, 500, 750, 1000, 1500},
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.AnalysesTotal, m.FailuresTotal, m.WarningsTotal,
		m.FetchDur, m.PipelineDur, m.SeriesBarCount,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// The Observe helpers are no-ops on a nil *Metrics.

func (m *Metrics) ObserveFetch(d time.Duration, bars int) {
	if m == nil {
		return
	}
	m.FetchDur.Observe(d.Seconds())
	m.SeriesBarCount.Observe(float64(bars))
}

func (m *Metrics) ObservePipeline(d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDur.Observe(d.Seconds())
}

func (m *Metrics) ObserveSignal(signal string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(signal).Inc()
}

func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.FailuresTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveWarning(indicator string) {
	if m == nil {
		return
	}
	m.WarningsTotal.WithLabelValues(indicator).Inc()
}
