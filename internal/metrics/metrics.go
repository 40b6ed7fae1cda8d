// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pharmainsight"

// Metrics groups the collectors of one server on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	forecasts       *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	sessions        prometheus.Gauge
	jobs            *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route and status.",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		forecasts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecasts_total",
				Help:      "Forecasts produced by method.",
			},
			[]string{"method"},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecasts_skipped_total",
				Help:      "Products left out of forecast rankings by reason.",
			},
			[]string{"reason"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Uploaded files by outcome.",
			},
			[]string{"outcome"},
		),
		sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions",
				Help:      "Sessions held in memory.",
			},
		),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Background jobs by type and final status.",
			},
			[]string{"type", "status"},
		),
	}

	m.Registry.MustRegister(
		m.requestsTotal, m.requestDuration, m.forecasts, m.skipped, m.uploads, m.sessions, m.jobs,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// ForecastServed counts a forecast by method display name.
func (m *Metrics) ForecastServed(method string) {
	m.forecasts.WithLabelValues(method).Inc()
}

// ForecastSkipped counts a product left out of a ranking.
func (m *Metrics) ForecastSkipped(reason string) {
	m.skipped.WithLabelValues(reason).Inc()
}

// UploadReceived counts an upload attempt; ok reports whether it was accepted.
func (m *Metrics) UploadReceived(ok bool) {
	outcome := "accepted"
	if !ok {
		outcome = "rejected"
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

// SetSessions records the number of sessions held.
func (m *Metrics) SetSessions(n int) {
	m.sessions.Set(float64(n))
}

// JobFinished counts a background job reaching a terminal status.
func (m *Metrics) JobFinished(jobType, status string) {
	m.jobs.WithLabelValues(jobType, status).Inc()
}
