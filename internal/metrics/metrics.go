// Package metrics exposes Prometheus collectors for the dealstats service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncsTotal                 *prometheus.CounterVec
	dealsIngestedTotal         *prometheus.CounterVec
	prunedSyncGroupsTotal      prometheus.Counter
	syncRevenue                prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		syncsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealstats_syncs_total",
				Help: "Total number of orchestration runs, labeled by outcome.",
			},
			[]string{"status"},
		)

		dealsIngestedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealstats_deals_ingested_total",
				Help: "Total number of deals ingested, labeled by division.",
			},
			[]string{"division"},
		)

		prunedSyncGroupsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "dealstats_pruned_sync_groups_total",
				Help: "Total number of sync groups deleted by the retention pruner.",
			},
		)

		syncRevenue = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "dealstats_last_sync_revenue",
				Help: "Normalized total revenue of the most recent successful sync.",
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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// ObserveSync counts one orchestration run outcome ("succeeded" or "failed").
func ObserveSync(status string) {
	if syncsTotal != nil {
		syncsTotal.WithLabelValues(status).Inc()
	}
}

// AddDealsIngested counts deals ingested for a division.
func AddDealsIngested(division string, n int) {
	if dealsIngestedTotal != nil {
		dealsIngestedTotal.WithLabelValues(division).Add(float64(n))
	}
}

// AddPrunedSyncGroups counts sync groups removed by the pruner.
func AddPrunedSyncGroups(n int) {
	if prunedSyncGroupsTotal != nil {
		prunedSyncGroupsTotal.Add(float64(n))
	}
}

// SetLastSyncRevenue records the most recent run total.
func SetLastSyncRevenue(total float64) {
	if syncRevenue != nil {
		syncRevenue.Set(total)
	}
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
	if httpRequestDurationSeconds != nil {
		httpRequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
