// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/travel-support/internal/domain/workflow"
)

const namespace = "travel_support"

// Metrics holds every collector on its own registry
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	submissions  *prometheus.CounterVec
	pipelineTime *prometheus.HistogramVec
	lookups      *prometheus.CounterVec
	sweeps       prometheus.Counter
	sessions     prometheus.Gauge
}

// New creates the collectors. Go runtime and process collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "latency_seconds",
			Help:      "HTTP request latency by route.",
			Buckets: []float64{
				0.005, 0.01, 0.025, 0.05,
				0.1, 0.25, 0.5,
				1, 2.5, 5, 10,
			},
		}, []string{"route"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "submissions_total",
			Help:      "Submission attempts by form and terminal state.",
		}, []string{"form", "state"}),
		pipelineTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Time from submit to terminal state.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form"}),
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "directory",
			Name:      "lookups_total",
			Help:      "Employee lookups by target and result (found, not_found, stale, error).",
		}, []string{"target", "result"}),
		sweeps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "swept_total",
			Help:      "Form sessions released for inactivity.",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "open",
			Help:      "Form sessions currently open.",
		}),
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSubmission implements pipeline.Observer
func (m *Metrics) ObserveSubmission(formKey string, state workflow.State, elapsed time.Duration) {
	m.submissions.WithLabelValues(formKey, state.String()).Inc()
	m.pipelineTime.WithLabelValues(formKey).Observe(elapsed.Seconds())
}

// ObserveLookup implements service.LookupObserver
func (m *Metrics) ObserveLookup(target, result string) {
	m.lookups.WithLabelValues(target, result).Inc()
}

// ObserveSweep implements worker.SweepObserver
func (m *Metrics) ObserveSweep(released, remaining int) {
	m.sweeps.Add(float64(released))
	m.sessions.Set(float64(remaining))
}

// GinMiddleware records every request under its route pattern, so /api/requests/:id
// stays one series whatever the id.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
