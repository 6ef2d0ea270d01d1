// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "baptism_gallery"

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing, so services can be built without a registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	aiRequests     *prometheus.CounterVec
	aiDuration     *prometheus.HistogramVec
	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	searchResults  prometheus.Histogram
	uploads        *prometheus.CounterVec
	uploadBytes    *prometheus.CounterVec
	jobsRunning    prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry
// together with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Metadata generation requests by media kind and outcome",
		}, []string{"kind", "outcome"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Metadata generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"kind"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_searches_total",
			Help:      "Search-by-image requests by outcome",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_search_duration_seconds",
			Help:      "Search-by-image duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6},
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by media kind and final status",
		}, []string{"kind", "status"}),
		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes stored by media kind",
		}, []string{"kind"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upload_jobs_running",
			Help:      "Upload jobs currently running",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.aiRequests, m.aiDuration,
		m.searches, m.searchDuration, m.searchResults,
		m.uploads, m.uploadBytes, m.jobsRunning,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
}

// ObserveAI records one metadata generation call.
func (m *Metrics) ObserveAI(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(kind, outcome).Inc()
	m.aiDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveSearch records one search-by-image request.
func (m *Metrics) ObserveSearch(outcome string, results int, d time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.searchDuration.Observe(d.Seconds())
	if outcome == OutcomeSuccess {
		m.searchResults.Observe(float64(results))
	}
}

// ObserveUpload records the final status of one uploaded file.
func (m *Metrics) ObserveUpload(kind, status string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(kind, status).Inc()
	if status == OutcomeSuccess {
		m.uploadBytes.WithLabelValues(kind).Add(float64(size))
	}
}

// JobStarted and JobFinished track running upload jobs.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsRunning.Inc()
}

func (m *Metrics) JobFinished() {
	if m == nil {
		return
	}
	m.jobsRunning.Dec()
}
