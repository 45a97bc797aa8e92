package observ

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the service's Prometheus metrics.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	messagesSent   prometheus.Counter
	accessChecks   *prometheus.CounterVec
	accessMutation *prometheus.CounterVec
}

// NewMetrics registers all collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadgate_http_requests_total",
			Help: "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "threadgate_http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "threadgate_messages_sent_total",
			Help: "Messages appended to threads.",
		}),
		accessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadgate_access_checks_total",
			Help: "hasAccess evaluations by outcome.",
		}, []string{"authorized"}),
		accessMutation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "threadgate_entitlement_mutations_total",
			Help: "Entitlement mutations by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpLatency,
		m.messagesSent,
		m.accessChecks,
		m.accessMutation,
	)
	return m
}

func (m *Metrics) RecordMessageSent() {
	m.messagesSent.Inc()
}

func (m *Metrics) RecordAccessCheck(authorized bool) {
	m.accessChecks.WithLabelValues(strconv.FormatBool(authorized)).Inc()
}

func (m *Metrics) RecordEntitlementMutation(op string) {
	m.accessMutation.WithLabelValues(op).Inc()
}

// Middleware observes every request. Uses the route template
// (/v1/threads/:id), not the raw path, to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.httpLatency.Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry for the /metrics endpoint.
func Handler(reg *prometheus.Registry) gin.HandlerFunc {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
