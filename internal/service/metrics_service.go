package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youthmultiply/welcoming-college/internal/models"
)

// MetricsService owns the Prometheus registry and keeps a few atomic
// counters for the admin snapshot.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	cacheWrite      prometheus.Histogram
	registrations   *prometheus.CounterVec
	exports         *prometheus.CounterVec
	exportRows      prometheus.Histogram
	streamClients   prometheus.Gauge

	requestCount         atomic.Uint64
	requestDurationTotal atomic.Uint64
	backendCount         atomic.Uint64
	backendFailures      atomic.Uint64
	cacheHitCount        atomic.Uint64
	cacheMissCount       atomic.Uint64
	registrationCount    atomic.Uint64
	exportCount          atomic.Uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Duration of participant backend calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Participant listing cache lookups",
		}, []string{"result"}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Registration submissions by outcome",
		}, []string{"outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "participant_exports_total",
			Help: "Participant exports by format, mode and outcome",
		}, []string{"format", "mode", "outcome"}),
		exportRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "participant_export_rows",
			Help:    "Rows written per participant export",
			Buckets: prometheus.ExponentialBuckets(10, 4, 6),
		}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "admin_event_stream_clients",
			Help: "Connected admin event stream clients",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.backendDuration, m.cacheLookups, m.cacheWrite,
		m.registrations, m.exports, m.exportRows, m.streamClients, goroutines)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	m.requestCount.Add(1)
	m.requestDurationTotal.Add(uint64(duration.Nanoseconds()))
}

// ObserveBackendRequest records one participant backend call.
func (m *MetricsService) ObserveBackendRequest(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.backendDuration.WithLabelValues(operation, strconv.Itoa(status)).Observe(duration.Seconds())
	m.backendCount.Add(1)
	if status < 200 || status > 299 {
		m.backendFailures.Add(1)
	}
}

// RecordCacheOperation counts a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, _ time.Duration) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.cacheHitCount.Add(1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	m.cacheMissCount.Add(1)
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordRegistration counts a finished submission: success, rejected or error.
func (m *MetricsService) RecordRegistration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.registrationCount.Add(1)
	}
}

// RecordExport counts an export run. Rows are observed only on success.
func (m *MetricsService) RecordExport(format models.ExportFormat, mode string, rows int, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.exports.WithLabelValues(string(format), mode, outcome).Inc()
	if err == nil {
		m.exportRows.Observe(float64(rows))
		m.exportCount.Add(1)
	}
}

// StreamClientConnected adjusts the connected event stream gauge.
func (m *MetricsService) StreamClientConnected(delta int) {
	if m == nil {
		return
	}
	m.streamClients.Add(float64(delta))
}

// Snapshot aggregates the atomic counters.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := m.requestCount.Load()
	hits := m.cacheHitCount.Load()
	misses := m.cacheMissCount.Load()

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(m.requestDurationTotal.Load()) / float64(requests) / float64(time.Millisecond)
	}
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		BackendRequests:          m.backendCount.Load(),
		BackendFailures:          m.backendFailures.Load(),
		CacheHitRatio:            ratio,
		Registrations:            m.registrationCount.Load(),
		Exports:                  m.exportCount.Load(),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
