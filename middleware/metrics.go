package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics holds the service's prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	capacityRejections *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Collectors that are
// already registered are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forum",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forum",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forum",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"policy"}),
		capacityRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forum",
			Subsystem: "api",
			Name:      "row_limit_rejections_total",
			Help:      "Number of creations refused because a table reached its row limit",
		}, []string{"kind"}),
	}

	m.requestTotal = registerCounterVec(reg, m.requestTotal)
	m.rateLimitHits = registerCounterVec(reg, m.rateLimitHits)
	m.capacityRejections = registerCounterVec(reg, m.capacityRejections)
	if err := reg.Register(m.requestLatency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				m.requestLatency = existing
			}
		}
	}
	return m
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

// Middleware records count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		if m == nil {
			return
		}
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": ctx.Request.Method,
			"route":  route,
			"status": strconv.Itoa(ctx.Writer.Status()),
		}
		m.requestTotal.With(labels).Inc()
		m.requestLatency.With(labels).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) rateLimited(policy string) {
	if m == nil {
		return
	}
	m.rateLimitHits.With(prometheus.Labels{"policy": policy}).Inc()
}

func (m *Metrics) capacityRejected(kind string) {
	if m == nil {
		return
	}
	m.capacityRejections.With(prometheus.Labels{"kind": kind}).Inc()
}
