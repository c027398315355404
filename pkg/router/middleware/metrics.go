package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/toyz/annoroute/pkg/router"
)

// MetricsConfig configures the Prometheus metrics middleware
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "annoroute")
	Namespace string
	// Subsystem is the metrics subsystem (default: "http")
	Subsystem string
	// Buckets are the request duration histogram buckets (default: prometheus.DefBuckets)
	Buckets []float64
	// Registry receives the collectors (default: prometheus.DefaultRegisterer)
	Registry prometheus.Registerer
}

// Metrics holds the request collectors. Build it once per registry.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the request collectors with config.Registry
func NewMetrics(config MetricsConfig) *Metrics {
	if config.Namespace == "" {
		config.Namespace = "annoroute"
	}
	if config.Subsystem == "" {
		config.Subsystem = "http"
	}
	if len(config.Buckets) == 0 {
		config.Buckets = prometheus.DefBuckets
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(config.Registry)
	labels := []string{"method", "route", "status"}

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of routed requests",
		}, labels),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Request handling duration in seconds",
			Buckets:   config.Buckets,
		}, labels),
	}
}

// Middleware records a count and a duration per request, labelled by verb,
// matched route and final status. Unmatched requests use the "unmatched"
// route label so arbitrary paths never become label values.
func (m *Metrics) Middleware() router.HandlerFunc {
	return func(c *router.Context, next router.Next) error {
		start := time.Now()
		err := next()

		status := c.ResponseStatus()
		if err != nil {
			status = router.StatusOf(err)
		}

		labels := prometheus.Labels{
			"method": c.Method,
			"route":  routeLabel(c),
			"status": strconv.Itoa(status),
		}
		m.requests.With(labels).Inc()
		m.duration.With(labels).Observe(time.Since(start).Seconds())
		return err
	}
}
