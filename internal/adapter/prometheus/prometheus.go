package prometheus

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusAdapter struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewPrometheusAdapter() *PrometheusAdapter {
	return &PrometheusAdapter{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// RecordMetrics is deferred at the top of every handler.
func (p *PrometheusAdapter) RecordMetrics(c *gin.Context, start time.Time) {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	status := strconv.Itoa(c.Writer.Status())

	p.requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	p.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
}
