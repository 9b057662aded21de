// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	CommentsCreated prometheus.Counter
	CommentsDeleted prometheus.Counter
	PostLikes       *prometheus.CounterVec
	requests        *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CommentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "comments_created_total",
			Help:      "Comments created, top-level and replies.",
		}),
		CommentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "comments_deleted_total",
			Help:      "Comments removed, including cascaded replies.",
		}),
		PostLikes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blog",
			Name:      "post_like_changes_total",
			Help:      "Successful like and unlike operations.",
		}, []string{"action"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blog",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.CommentsCreated,
		m.CommentsDeleted,
		m.PostLikes,
		m.requests,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware observes the latency of every request by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
