// Package metrics provides Prometheus instrumentation for the onboarding
// backend. This is part of the platform layer and contains no business logic.
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
)

const defaultNamespace = "onboarding"

var driverLatencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Manager owns a private registry and every collector registered on it.
type Manager struct {
	registry *prometheus.Registry

	jobsSubmitted   *prometheus.CounterVec
	jobsFinished    *prometheus.CounterVec
	jobsRunning     prometheus.Gauge
	driversDone     *prometheus.CounterVec
	driverLatency   prometheus.Histogram
	matchOutcomes   *prometheus.CounterVec
	paymentsCreated prometheus.Counter
	paidCents       prometheus.Counter
	domainEvents    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// Option customizes a Manager.
type Option func(*options)

type options struct {
	namespace string
	runtime   bool
}

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithRuntimeCollectors adds Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(o *options) { o.runtime = true }
}

// NewManager builds a Manager on a fresh registry.
func NewManager(opts ...Option) *Manager {
	o := options{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	if o.runtime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)

	return &Manager{
		registry: reg,
		jobsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "jobs", Name: "submitted_total",
			Help: "Milestone jobs submitted, by window.",
		}, []string{"window_days"}),
		jobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "jobs", Name: "finished_total",
			Help: "Milestone jobs finished, by final status.",
		}, []string{"status"}),
		jobsRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: o.namespace, Subsystem: "jobs", Name: "running",
			Help: "Milestone jobs currently running.",
		}),
		driversDone: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "jobs", Name: "drivers_processed_total",
			Help: "Drivers processed by milestone jobs, by outcome.",
		}, []string{"outcome"}),
		driverLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.namespace, Subsystem: "jobs", Name: "driver_duration_seconds",
			Help:    "Time spent computing milestones for one driver.",
			Buckets: driverLatencyBuckets,
		}),
		matchOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "matching", Name: "outcomes_total",
			Help: "Reconciliation outcomes per record, by source and outcome.",
		}, []string{"source", "outcome"}),
		paymentsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "scouts", Name: "payments_total",
			Help: "Scout payments created.",
		}),
		paidCents: f.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "scouts", Name: "paid_cents_total",
			Help: "Sum of scout payment amounts in cents.",
		}),
		domainEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "events", Name: "published_total",
			Help: "Domain events observed on the bus, by name.",
		}, []string{"event"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests, by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// JobSubmitted counts a new job for the given window.
func (m *Manager) JobSubmitted(windowDays int) {
	m.jobsSubmitted.WithLabelValues(strconv.Itoa(windowDays)).Inc()
	m.jobsRunning.Inc()
}

// JobFinished counts a job reaching a terminal status.
func (m *Manager) JobFinished(status string) {
	m.jobsFinished.WithLabelValues(status).Inc()
	m.jobsRunning.Dec()
}

// DriverProcessed records one driver outcome and its duration.
func (m *Manager) DriverProcessed(ok bool, elapsed time.Duration) {
	outcome := "succeeded"
	if !ok {
		outcome = "failed"
	}
	m.driversDone.WithLabelValues(outcome).Inc()
	m.driverLatency.Observe(elapsed.Seconds())
}

// MatchOutcome counts a reconciliation outcome for a record source.
func (m *Manager) MatchOutcome(source, outcome string, n int) {
	if n <= 0 {
		return
	}
	m.matchOutcomes.WithLabelValues(source, outcome).Add(float64(n))
}

// PaymentCreated counts a scout payment and its amount.
func (m *Manager) PaymentCreated(totalCents int64) {
	m.paymentsCreated.Inc()
	if totalCents > 0 {
		m.paidCents.Add(float64(totalCents))
	}
}

// DomainEvent counts an event by name.
func (m *Manager) DomainEvent(name string) {
	m.domainEvents.WithLabelValues(name).Inc()
}

// GinMiddleware records request counts and latency keyed by the route
// template, so path parameters do not explode cardinality.
func (m *Manager) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
