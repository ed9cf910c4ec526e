// Package metrics defines the Prometheus metrics of the extraction pipeline.
//
// Metrics:
//   - symptom_catalog_extractions_total{result} - extraction calls by outcome
//   - symptom_catalog_validated_total - validated symptoms returned
//   - symptom_catalog_unknown_total - unknown mentions returned
//   - symptom_catalog_extract_duration_seconds - extraction latency
//   - symptom_catalog_approvals_total{result} - approvals by outcome
//   - symptom_catalog_reloads_total{result} - catalog reloads by outcome
//   - symptom_catalog_entries - current catalog size
//   - symptom_catalog_http_requests_total{method,route,status} - HTTP requests
//   - symptom_catalog_http_request_duration_seconds{method,route} - HTTP latency
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "symptom_catalog"

// Metrics holds the pipeline collectors.
type Metrics struct {
	Extractions     *prometheus.CounterVec
	Validated       prometheus.Counter
	Unknown         prometheus.Counter
	ExtractDuration prometheus.Histogram
	Approvals       *prometheus.CounterVec
	Reloads         *prometheus.CounterVec
	CatalogEntries  prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New registers the collectors with reg. Passing a fresh registry per test
// avoids duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Extractions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Total number of extraction calls by result.",
		}, []string{"result"}), // "ok", "empty_input", "error"
		Validated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validated_total",
			Help:      "Total number of validated symptoms returned.",
		}),
		Unknown: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_total",
			Help:      "Total number of unknown mentions returned.",
		}),
		ExtractDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extract_duration_seconds",
			Help:      "Duration of extraction calls in seconds.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		Approvals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_total",
			Help:      "Total number of approvals by result.",
		}, []string{"result"}), // "ok", "invalid_input", "duplicate_alias", "persistence_error", "error"
		Reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Total number of catalog reloads by result.",
		}, []string{"result"}),
		CatalogEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Current number of catalog entries.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by method and route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method", "route"}),
	}
}

// ObserveExtraction records one extraction call.
func (m *Metrics) ObserveExtraction(result string, validated, unknown int, d time.Duration) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(result).Inc()
	m.Validated.Add(float64(validated))
	m.Unknown.Add(float64(unknown))
	m.ExtractDuration.Observe(d.Seconds())
}

// ObserveApproval records one approval outcome.
func (m *Metrics) ObserveApproval(result string) {
	if m == nil {
		return
	}
	m.Approvals.WithLabelValues(result).Inc()
}

// ObserveReload records one catalog reload.
func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	m.Reloads.WithLabelValues(resultOf(err)).Inc()
}

// SetCatalogSize sets the catalog size gauge.
func (m *Metrics) SetCatalogSize(n int) {
	if m == nil {
		return
	}
	m.CatalogEntries.Set(float64(n))
}

// ObserveHTTP records one HTTP request. route is the registered path
// pattern, not the raw URI, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ResultLabel maps err to the first matching label in labels, "ok" for nil
// and "error" when nothing matches.
func ResultLabel(err error, labels map[error]string) string {
	if err == nil {
		return "ok"
	}
	for target, label := range labels {
		if errors.Is(err, target) {
			return label
		}
	}
	return "error"
}

func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
