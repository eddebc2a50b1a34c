// Package telemetry holds the Prometheus collectors for the ingestion service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pdfProcessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_process_total",
			Help: "Total number of PDF ingestion runs, labeled by result and failure kind.",
		},
		[]string{"result", "kind"},
	)

	pdfStepDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdf_step_duration_seconds",
			Help:    "Histogram of pipeline step latencies, labeled by step.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"step"},
	)

	pdfElementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf_elements_total",
			Help: "Total number of elements produced by the partitioner.",
		},
	)

	pdfBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf_bytes_total",
			Help: "Total number of PDF bytes fetched from object storage.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, routePattern, rec.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveStep records how long a pipeline step took.
func ObserveStep(step string, duration time.Duration) {
	pdfStepDurationSeconds.WithLabelValues(step).Observe(duration.Seconds())
}

// ObserveProcess records the outcome of one ingestion run. kind is empty on success.
func ObserveProcess(kind string, elements int) {
	if kind == "" {
		pdfProcessTotal.WithLabelValues("success", "none").Inc()
		pdfElementsTotal.Add(float64(elements))
		return
	}
	pdfProcessTotal.WithLabelValues("failure", kind).Inc()
}

// ObserveFetchedBytes adds to the fetched-bytes counter.
func ObserveFetchedBytes(n int) {
	if n > 0 {
		pdfBytesTotal.Add(float64(n))
	}
}
