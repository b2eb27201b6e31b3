package metrics

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

// Datum names understood by PublishSingle; they mirror the CloudWatch metric names.
const (
	datumPhotoUploaded     = "PhotoUploaded"
	datumPhotoUploadFailed = "PhotoUploadFailed"
	datumPhotoUploadBytes  = "PhotoUploadBytes"
	datumPhotoListServed   = "PhotoListServed"
)

// Metrics bundles prometheus collectors used by the gallery API.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	UploadsTotal       *prometheus.CounterVec
	UploadBytesTotal   prometheus.Counter
	ListingsServed     prometheus.Counter
	StoreOperations    *prometheus.CounterVec
	StoreDurationSec   *prometheus.HistogramVec
	RateLimitDropped   prometheus.Counter
}

// New registers gallery collectors plus Go and process collectors on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of gallery HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "Gallery HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_uploads_total",
			Help: "Total number of photo uploads by outcome.",
		}, []string{"status"}),
		UploadBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_upload_bytes_total",
			Help: "Total decoded bytes of uploaded photos.",
		}),
		ListingsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_listings_served_total",
			Help: "Total number of listing pages served.",
		}),
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_store_operations_total",
			Help: "Total number of media store operations.",
		}, []string{"backend", "operation", "status"}),
		StoreDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gallery_store_operation_duration_seconds",
			Help:    "Media store operation duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"backend", "operation"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gallery_ratelimit_dropped_total",
			Help: "Total number of uploads rejected by the rate limiter.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.UploadsTotal,
		m.UploadBytesTotal,
		m.ListingsServed,
		m.StoreOperations,
		m.StoreDurationSec,
		m.RateLimitDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// PublishSingle maps an application datum onto the matching collector.
// Реализует port.MetricsPublisher, неизвестные имена игнорируются.
func (m *Metrics) PublishSingle(_ context.Context, datum port.MetricDatum) error {
	switch datum.Name {
	case datumPhotoUploaded:
		m.UploadsTotal.WithLabelValues("success").Add(datum.Value)
	case datumPhotoUploadFailed:
		m.UploadsTotal.WithLabelValues("failure").Add(datum.Value)
	case datumPhotoUploadBytes:
		m.UploadBytesTotal.Add(datum.Value)
	case datumPhotoListServed:
		m.ListingsServed.Add(datum.Value)
	}
	return nil
}

func (m *Metrics) PublishBatch(ctx context.Context, data []port.MetricDatum) error {
	for _, datum := range data {
		if err := m.PublishSingle(ctx, datum); err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op: prometheus is scraped.
func (m *Metrics) Flush(context.Context) error {
	return nil
}

// ObserveStore records one media store call.
func (m *Metrics) ObserveStore(backend, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.StoreOperations.WithLabelValues(backend, operation, status).Inc()
	m.StoreDurationSec.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

func normalizeRoute(path string) string {
	switch {
	case path == "/":
		return "/"
	case path == "/api/upload", path == "/api/get-photos", path == "/ws",
		path == "/metrics", path == "/healthz", path == "/readyz":
		return path
	case strings.HasPrefix(path, "/static/"):
		return "/static/*"
	case strings.HasPrefix(path, "/media/"):
		return "/media/*"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
