package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groc_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "groc_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// MongoConnectionState mirrors the database connector state (0 disconnected,
	// 1 connecting, 2 connected, 3 failed).
	MongoConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "groc_mongo_connection_state",
		Help: "Current database connector state.",
	})

	// SessionEvents counts session lifecycle events (created, loaded, destroyed, store_error).
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groc_session_events_total",
		Help: "Session lifecycle events.",
	}, []string{"event"})
)

// PrometheusMiddleware records request counts and latencies. Unmatched routes
// are grouped under a single label to keep cardinality bounded.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
