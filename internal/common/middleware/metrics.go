package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diligence_http_requests_total",
			Help: "Total HTTP requests handled, by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diligence_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	entriesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diligence_entries_recorded_total",
			Help: "Total habit entries accepted.",
		},
	)
)

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// FullPath is the registered route pattern, keeping cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		requestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// CountEntryRecorded bumps the accepted-entries counter.
func CountEntryRecorded() {
	entriesRecorded.Inc()
}

// MetricsHandler exposes the Prometheus scrape endpoint.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
