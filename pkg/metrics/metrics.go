// Package metrics exports render, reconciliation, routing and session
// counters to Prometheus.
//
// A Collector implements reactive.Observer and events.Observer, so one value
// can be handed to both:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(metrics.WithRegistry(reg))
//	g := reactive.NewGraph(reactive.WithObserver(m))
//	r := events.NewRouter(doc, g, events.WithObserver(m))
//
// Metrics collected (namespace "bind" by default):
//   - renders_total{changed}: render function runs
//   - render_duration_seconds: render latency
//   - slow_renders_total: renders above the slow render threshold
//   - headless_bubbles_total: invalidations propagated without rendering
//   - anchor_writes_total: outputs written to anchors
//   - dom_mutations_total: document mutations flushed to clients
//   - events_dispatched_total{type,outcome}: routed events
//   - registry_swept_total: identity registry entries swept
//   - active_sessions: live sessions
//   - websocket_errors_total{type}: WebSocket errors
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "bind").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: buckets from 100µs to ~1.6s.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "bind",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records bind metrics.
type Collector struct {
	rendersTotal    *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	slowRenders     prometheus.Counter
	headlessBubbles prometheus.Counter
	anchorWrites    prometheus.Counter
	domMutations    prometheus.Counter
	eventsTotal     *prometheus.CounterVec
	registrySwept   prometheus.Counter
	activeSessions  prometheus.Gauge
	wsErrors        *prometheus.CounterVec
}

// New creates a Collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Collector{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of render function runs",
			ConstLabels: config.ConstLabels,
		}, []string{"changed"}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		slowRenders:     counter("slow_renders_total", "Renders slower than the slow render threshold"),
		headlessBubbles: counter("headless_bubbles_total", "Invalidations propagated without rendering"),
		anchorWrites:    counter("anchor_writes_total", "Outputs written to anchors"),
		domMutations:    counter("dom_mutations_total", "Document mutations flushed to clients"),
		registrySwept:   counter("registry_swept_total", "Identity registry entries removed by sweeps"),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_dispatched_total",
			Help:        "Total number of routed events by type and outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "outcome"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Rendered implements reactive.Observer.
func (c *Collector) Rendered(d time.Duration, changed bool) {
	c.rendersTotal.WithLabelValues(strconv.FormatBool(changed)).Inc()
	c.renderDuration.Observe(d.Seconds())
}

// SlowRender implements reactive.Observer.
func (c *Collector) SlowRender(time.Duration) {
	c.slowRenders.Inc()
}

// HeadlessBubble implements reactive.Observer.
func (c *Collector) HeadlessBubble() {
	c.headlessBubbles.Inc()
}

// AnchorsWritten implements reactive.Observer.
func (c *Collector) AnchorsWritten(n int) {
	c.anchorWrites.Add(float64(n))
}

// Dispatched implements events.Observer.
func (c *Collector) Dispatched(eventType, outcome string) {
	c.eventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// Swept implements events.Observer.
func (c *Collector) Swept(n int) {
	c.registrySwept.Add(float64(n))
}

// RecordMutations records document mutations sent to a client.
func (c *Collector) RecordMutations(n int) {
	c.domMutations.Add(float64(n))
}

// RecordSessionOpen records a new session.
func (c *Collector) RecordSessionOpen() {
	c.activeSessions.Inc()
}

// RecordSessionClose records a session ending.
func (c *Collector) RecordSessionClose() {
	c.activeSessions.Dec()
}

// RecordWebSocketError records a WebSocket error.
func (c *Collector) RecordWebSocketError(errorType string) {
	c.wsErrors.WithLabelValues(errorType).Inc()
}
