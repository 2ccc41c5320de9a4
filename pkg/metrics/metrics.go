// Package metrics exposes Prometheus instrumentation for the update
// engine: cycle counts and durations, effect and binding activity, and
// the diff/reconcile work each cycle produced.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures metric registration.
type Config struct {
	// Namespace is the metrics namespace (default: "tessera").
	Namespace string

	// Subsystem is the metrics subsystem (default: "engine").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for cycle duration.
	// Default: sub-frame buckets from 50µs to 100ms.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures metric registration.
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

// WithBuckets sets the cycle duration histogram buckets.
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
		Namespace: "tessera",
		Subsystem: "engine",
		// Update cycles are expected well under one frame.
		Buckets:  []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics holds the engine's Prometheus collectors. One instance per
// registry; pass it to the engine and inspector.
type Metrics struct {
	cyclesTotal     prometheus.Counter
	cycleDuration   prometheus.Histogram
	cycleErrors     prometheus.Counter
	bindingRuns     prometheus.Counter
	bindingFailures prometheus.Counter
	diffsTotal      *prometheus.CounterVec
	propUpdates     prometheus.Counter
	subtreeRebuilds prometheus.Counter
	layoutPasses    prometheus.Counter
	fsmTransitions  prometheus.Counter
}

// New registers the engine collectors and returns them.
//
// Metrics registered:
//   - tessera_engine_cycles_total: Counter of completed update cycles
//   - tessera_engine_cycle_duration_seconds: Histogram of cycle duration
//   - tessera_engine_cycle_errors_total: Counter of reported cycle errors
//   - tessera_engine_binding_runs_total: Counter of binding re-evaluations
//   - tessera_engine_binding_failures_total: Counter of failed evaluations
//   - tessera_engine_diffs_total: Counter of diffs by category
//   - tessera_engine_prop_updates_total: Counter of applied prop updates
//   - tessera_engine_subtree_rebuilds_total: Counter of applied rebuilds
//   - tessera_engine_layout_passes_total: Counter of layout passes
//   - tessera_engine_fsm_transitions_total: Counter of fired transitions
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		cyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycles_total",
			Help:        "Total number of completed update cycles",
			ConstLabels: config.ConstLabels,
		}),

		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_duration_seconds",
			Help:        "Update cycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		cycleErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cycle_errors_total",
			Help:        "Total number of errors reported inside update cycles",
			ConstLabels: config.ConstLabels,
		}),

		bindingRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "binding_runs_total",
			Help:        "Total number of stateful binding re-evaluations",
			ConstLabels: config.ConstLabels,
		}),

		bindingFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "binding_failures_total",
			Help:        "Total number of failed binding evaluations",
			ConstLabels: config.ConstLabels,
		}),

		diffsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diffs_total",
			Help:        "Total number of element diffs by resulting category",
			ConstLabels: config.ConstLabels,
		}, []string{"category"}),

		propUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "prop_updates_total",
			Help:        "Total number of applied property updates",
			ConstLabels: config.ConstLabels,
		}),

		subtreeRebuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subtree_rebuilds_total",
			Help:        "Total number of applied subtree rebuilds",
			ConstLabels: config.ConstLabels,
		}),

		layoutPasses: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "layout_passes_total",
			Help:        "Total number of coalesced layout passes",
			ConstLabels: config.ConstLabels,
		}),

		fsmTransitions: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fsm_transitions_total",
			Help:        "Total number of fired state machine transitions",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// RecordCycle records one completed update cycle.
func (m *Metrics) RecordCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
	m.cycleDuration.Observe(d.Seconds())
}

// RecordCycleError records one reported cycle error.
func (m *Metrics) RecordCycleError() {
	if m == nil {
		return
	}
	m.cycleErrors.Inc()
}

// RecordBindingRuns records binding re-evaluations.
func (m *Metrics) RecordBindingRuns(count int) {
	if m == nil || count == 0 {
		return
	}
	m.bindingRuns.Add(float64(count))
}

// RecordBindingFailure records one failed binding evaluation.
func (m *Metrics) RecordBindingFailure() {
	if m == nil {
		return
	}
	m.bindingFailures.Inc()
}

// RecordDiff records one diff outcome under its category label:
// none, visual, layout, children or handlers (the dominant flag).
func (m *Metrics) RecordDiff(category string) {
	if m == nil {
		return
	}
	m.diffsTotal.WithLabelValues(category).Inc()
}

// RecordApply records the work applied in one cycle.
func (m *Metrics) RecordApply(propUpdates, rebuilds int, layoutPass bool) {
	if m == nil {
		return
	}
	m.propUpdates.Add(float64(propUpdates))
	m.subtreeRebuilds.Add(float64(rebuilds))
	if layoutPass {
		m.layoutPasses.Inc()
	}
}

// RecordTransition records one fired state machine transition.
func (m *Metrics) RecordTransition() {
	if m == nil {
		return
	}
	m.fsmTransitions.Inc()
}
