package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cvereporter"

// Metrics represents the collection of all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Standard metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Polling cycle metrics
	CyclesTotal        *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	RecordsFetched     *prometheus.CounterVec
	RecordsDropped     *prometheus.CounterVec
	EventsQualified    *prometheus.CounterVec
	DispatchFailures   *prometheus.CounterVec
	PersistFailures    prometheus.Counter
	WatermarkTimestamp *prometheus.GaugeVec
}

// NewMetrics creates all metrics and registers them on a fresh registry
// together with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of polling cycles by outcome",
		},
		[]string{"status"},
	)

	m.CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of polling cycles in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.RecordsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Total number of feed records fetched per pass",
		},
		[]string{"pass"},
	)

	m.RecordsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Total number of feed records dropped before classification",
		},
		[]string{"pass", "reason"},
	)

	m.EventsQualified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_qualified_total",
			Help:      "Total number of qualifying events per category",
		},
		[]string{"category"},
	)

	m.DispatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_failures_total",
			Help:      "Total number of failed notification deliveries per channel",
		},
		[]string{"channel"},
	)

	m.PersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watermark_persist_failures_total",
			Help:      "Total number of failed watermark saves",
		},
	)

	m.WatermarkTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watermark_timestamp_seconds",
			Help:      "Committed watermark per time field as a unix timestamp",
		},
		[]string{"field"},
	)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CyclesTotal,
		m.CycleDuration,
		m.RecordsFetched,
		m.RecordsDropped,
		m.EventsQualified,
		m.DispatchFailures,
		m.PersistFailures,
		m.WatermarkTimestamp,
	)

	return m
}

// Registry returns the registry all metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCycle records the outcome and duration of one polling cycle.
func (m *Metrics) ObserveCycle(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(status).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// AddFetched counts records returned by the feed for a pass.
func (m *Metrics) AddFetched(pass string, n int) {
	if m == nil {
		return
	}
	m.RecordsFetched.WithLabelValues(pass).Add(float64(n))
}

// RecordDropped counts a record discarded before classification.
func (m *Metrics) RecordDropped(pass, reason string) {
	if m == nil {
		return
	}
	m.RecordsDropped.WithLabelValues(pass, reason).Inc()
}

// AddQualified counts qualifying events for a category.
func (m *Metrics) AddQualified(category string, n int) {
	if m == nil {
		return
	}
	m.EventsQualified.WithLabelValues(category).Add(float64(n))
}

// RecordDispatchFailure counts a failed delivery on a channel.
func (m *Metrics) RecordDispatchFailure(channel string) {
	if m == nil {
		return
	}
	m.DispatchFailures.WithLabelValues(channel).Inc()
}

// RecordPersistFailure counts a failed watermark save.
func (m *Metrics) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// SetWatermark exposes the committed watermark for one time field.
func (m *Metrics) SetWatermark(field string, t time.Time) {
	if m == nil {
		return
	}
	m.WatermarkTimestamp.WithLabelValues(field).Set(float64(t.Unix()))
}

// Middleware for tracking HTTP requests
func (m *Metrics) RequestTrackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// responseWriter is a wrapper to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Handler returns the Prometheus HTTP handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
