// Package metrics exposes Prometheus instrumentation for the API and imports.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import sources
const (
	SourceUpload = "upload"
	SourceURL    = "url"
	SourceCLI    = "cli"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
	importsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricelist_imports_total",
			Help: "Price list reconciliations by source and outcome.",
		},
		[]string{"source", "outcome"},
	)
	importDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricelist_import_duration_seconds",
			Help:    "Duration of successful price list reconciliations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"source"},
	)
	listingsUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricelist_listings_upserted_total",
			Help: "Listings inserted or updated by price list reconciliations.",
		},
	)
	archiveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricelist_archive_failures_total",
			Help: "Accepted price lists that could not be archived.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(importsTotal)
	prometheus.MustRegister(importDuration)
	prometheus.MustRegister(listingsUpserted)
	prometheus.MustRegister(archiveFailures)
}

// RecordRequest records metrics for one HTTP request
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordImport records the outcome of one reconciliation
func RecordImport(source string, listings int, duration time.Duration, err error) {
	if err != nil {
		importsTotal.WithLabelValues(source, "failed").Inc()
		return
	}
	importsTotal.WithLabelValues(source, "ok").Inc()
	importDuration.WithLabelValues(source).Observe(duration.Seconds())
	listingsUpserted.Add(float64(listings))
}

// RecordArchiveFailure counts a price list that was imported but not archived
func RecordArchiveFailure() {
	archiveFailures.Inc()
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// Middleware records request metrics labelled by the matched chi route pattern
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}

