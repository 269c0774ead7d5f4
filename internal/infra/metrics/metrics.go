package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	reviewOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_review_operations_total",
			Help: "Total number of review operations",
		},
		[]string{"operation", "status"},
	)

	analyticsCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_analytics_cache_lookups_total",
			Help: "Analytics cache lookups by rollup and result",
		},
		[]string{"rollup", "result"},
	)
)

// GinMiddleware counts requests and observes latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordOrderOperation(operation string, success bool) {
	orderOperations.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordReviewOperation(operation string, success bool) {
	reviewOperations.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordCacheLookup(rollup string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	analyticsCacheLookups.WithLabelValues(rollup, result).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
