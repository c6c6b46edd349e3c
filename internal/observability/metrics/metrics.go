package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhunter_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leadhunter_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	leadWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhunter_lead_writes_total",
		Help: "Leads written by operation",
	}, []string{"operation"})

	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhunter_import_rows_total",
		Help: "CSV import rows by outcome",
	}, []string{"outcome"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLeadWrite counts n leads touched by operation (create, bulk_create, update, delete).
func ObserveLeadWrite(operation string, n int) {
	if n <= 0 {
		return
	}
	leadWrites.WithLabelValues(operation).Add(float64(n))
}

func ObserveImport(imported, skipped int) {
	importRows.WithLabelValues("imported").Add(float64(imported))
	importRows.WithLabelValues("skipped").Add(float64(skipped))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware records every request under its chi route pattern so ids in the
// path do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		ObserveHTTPRequest(r.Method, path, strconv.Itoa(rec.status), time.Since(start))
	})
}
