// Package metrics exposes the application's Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the counters and histograms the service records. A nil
// *Metrics is valid and records nothing, so callers never need guards.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal    *prometheus.CounterVec
	analysesTotal   prometheus.Counter
	chartsTotal     *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the instruments on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		uploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunburst",
			Name:      "uploads_total",
			Help:      "Uploaded files by outcome.",
		}, []string{"status"}),
		analysesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sunburst",
			Name:      "analyses_total",
			Help:      "File structure analyses performed.",
		}),
		chartsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunburst",
			Name:      "charts_built_total",
			Help:      "Chart builds by mode and outcome.",
		}, []string{"mode", "status"}),
		processDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sunburst",
			Name:      "process_duration_seconds",
			Help:      "Wall time of chart builds by mode.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"mode"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sunburst",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sunburst",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordUpload counts one upload attempt.
func (m *Metrics) RecordUpload(ok bool) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(statusLabel(ok)).Inc()
}

// RecordAnalysis counts one file analysis.
func (m *Metrics) RecordAnalysis() {
	if m == nil {
		return
	}
	m.analysesTotal.Inc()
}

// RecordChart counts one chart build and its duration. mode is "generic"
// or "legacy".
func (m *Metrics) RecordChart(mode string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.chartsTotal.WithLabelValues(mode, statusLabel(ok)).Inc()
	m.processDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// RecordRequest counts one HTTP request against its route pattern.
func (m *Metrics) RecordRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
