package runtime

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tessera-ui/tessera/pkg/binding"
	"github.com/tessera-ui/tessera/pkg/diff"
	"github.com/tessera-ui/tessera/pkg/element"
	"github.com/tessera-ui/tessera/pkg/fsm"
	"github.com/tessera-ui/tessera/pkg/metrics"
	"github.com/tessera-ui/tessera/pkg/reactive"
	"github.com/tessera-ui/tessera/pkg/reconcile"
)

// DebugMode enables verbose cycle logging.
var DebugMode = false

const defaultTracerName = "tessera"

// Config configures an Engine.
type Config struct {
	// Layout is the layout subsystem to notify. Default: NopLayout.
	Layout reconcile.Layout

	// Metrics receives engine instrumentation. Nil disables it.
	Metrics *metrics.Metrics

	// TracerName names the OpenTelemetry tracer (default: "tessera").
	TracerName string

	// Diagnostic receives recoverable errors. Default logs when
	// DebugMode is set.
	Diagnostic func(error)

	// CycleObserver is called after every completed cycle. Used by the
	// recorder and inspector.
	CycleObserver func(CycleInfo)
}

// Option configures an Engine.
type Option func(*Config)

// WithLayout sets the layout subsystem.
func WithLayout(l reconcile.Layout) Option {
	return func(c *Config) { c.Layout = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) { c.TracerName = name }
}

// WithDiagnostic sets the recoverable-error handler.
func WithDiagnostic(fn func(error)) Option {
	return func(c *Config) { c.Diagnostic = fn }
}

// WithCycleObserver sets the per-cycle observer.
func WithCycleObserver(fn func(CycleInfo)) Option {
	return func(c *Config) { c.CycleObserver = fn }
}

// CycleInfo summarizes one completed update cycle.
type CycleInfo struct {
	Seq         uint64
	Trigger     string
	BindingRuns int
	PropUpdates int
	Rebuilds    int
	LayoutPass  bool
	Duration    time.Duration
	Errors      int
}

// Engine owns the reactive store, binding registry, render tree and
// reconciler, and serializes update cycles.
type Engine struct {
	store    *reactive.Store
	bindings *binding.Registry
	tree     *reconcile.Tree
	sink     *reconcile.UpdateSink
	rec      *reconcile.Reconciler
	tracer   trace.Tracer
	metrics  *metrics.Metrics
	diag     func(error)
	observer func(CycleInfo)

	mu        sync.Mutex
	cycleSeq  uint64
	cycleErrs int

	// Batches Apply consumed, accumulated for the engine-level drains.
	appliedMu       sync.Mutex
	appliedProps    []reconcile.PropUpdate
	appliedRebuilds []reconcile.SubtreeRebuild

	defsMu   sync.Mutex
	machines map[string]*fsm.Definition
}

// NewEngine creates an engine with an empty tree.
func NewEngine(opts ...Option) *Engine {
	config := Config{
		Layout:     reconcile.NopLayout{},
		TracerName: defaultTracerName,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Diagnostic == nil {
		config.Diagnostic = func(err error) {
			if DebugMode {
				log.Printf("runtime: %v", err)
			}
		}
	}

	e := &Engine{
		tracer:   otel.Tracer(config.TracerName),
		metrics:  config.Metrics,
		diag:     config.Diagnostic,
		observer: config.CycleObserver,
		machines: make(map[string]*fsm.Definition),
	}
	e.store = reactive.NewStore(reactive.WithDiagnostic(e.reportError))
	e.bindings = binding.NewRegistry(e.store)
	e.tree = reconcile.NewTree()
	e.sink = reconcile.NewUpdateSink()
	e.rec = reconcile.NewReconciler(e.tree, e.sink,
		reconcile.WithLayout(config.Layout),
		reconcile.WithDiagnostic(e.reportError),
		reconcile.WithSubtreeHook(e.onSubtreeBuilt),
	)
	return e
}

// reportError counts and forwards a recoverable error.
func (e *Engine) reportError(err error) {
	if err == nil {
		return
	}
	e.cycleErrs++
	e.metrics.RecordCycleError()
	e.diag(err)
}

// onSubtreeBuilt re-registers interaction machines for nodes created
// during a rebuild. A node keyed like an existing binding keeps that
// binding; the tree position is re-resolved on the next evaluation.
func (e *Engine) onSubtreeBuilt(id reconcile.NodeID, def *element.Def) {
	if DebugMode && def.Key != "" {
		log.Printf("runtime: subtree %d rebuilt for key %q", id, def.Key)
	}
}

// Store returns the engine's signal store. Use it with
// reactive.CreateSignal and friends.
func (e *Engine) Store() *reactive.Store { return e.store }

// Bindings returns the engine's binding registry.
func (e *Engine) Bindings() *binding.Registry { return e.bindings }

// Tree returns the persistent render tree.
func (e *Engine) Tree() *reconcile.Tree { return e.tree }

// Sink returns the update sink handed to the presentation layer.
func (e *Engine) Sink() *reconcile.UpdateSink { return e.sink }

// Mount builds the initial tree from a root definition.
func (e *Engine) Mount(def element.Def) reconcile.NodeID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tree.Mount(&def)
}

// DefineFSM compiles and caches a machine definition under its config
// id. Redefining an id replaces the cached definition for future
// bindings only.
func (e *Engine) DefineFSM(cfg fsm.Config) (*fsm.Definition, error) {
	def, err := fsm.New(cfg)
	if err != nil {
		return nil, err
	}
	e.defsMu.Lock()
	e.machines[cfg.ID] = def
	e.defsMu.Unlock()
	return def, nil
}

// Machine returns a previously defined machine.
func (e *Engine) Machine(id string) (*fsm.Definition, bool) {
	e.defsMu.Lock()
	defer e.defsMu.Unlock()
	def, ok := e.machines[id]
	return def, ok
}

// BindStateful registers a stateful binding: a node key, a machine
// instance started from the named definition, explicit signal
// dependencies and an evaluator. The binding's first evaluation runs
// on the next cycle.
func (e *Engine) BindStateful(key, machineID string, deps []reactive.SignalID, eval binding.Evaluator) (*binding.Binding, error) {
	def, ok := e.Machine(machineID)
	if !ok {
		return nil, fmt.Errorf("runtime: machine %q not defined: %w", machineID, fsm.ErrUnknownState)
	}
	return e.bindings.Bind(key, fsm.NewInstance(def), deps, eval)
}

// Dispatch delivers an interaction event to one binding's machine and
// runs a full update cycle. Reports whether a transition fired.
func (e *Engine) Dispatch(ctx context.Context, key string, ev fsm.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	fired := e.bindings.Dispatch(key, ev)
	if fired {
		e.metrics.RecordTransition()
	}
	e.runCycle(ctx, "dispatch:"+ev.Type)
	return fired
}

// Cycle runs arbitrary signal writes as one batched update cycle.
// Writes inside fn coalesce; affected bindings re-run once, and all
// queued repairs are applied before Cycle returns.
func (e *Engine) Cycle(ctx context.Context, fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Batch(fn)
	e.runCycle(ctx, "cycle")
}

// Flush runs an update cycle without new writes, settling anything
// already pending (e.g. writes made directly on the store).
func (e *Engine) Flush(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runCycle(ctx, "flush")
}

// runCycle settles bindings and applies repairs. Caller holds e.mu.
func (e *Engine) runCycle(ctx context.Context, trigger string) {
	start := time.Now()
	e.cycleSeq++
	e.cycleErrs = 0

	_, span := e.tracer.Start(ctx, "tessera.update_cycle",
		trace.WithAttributes(
			attribute.Int64("tessera.cycle_seq", int64(e.cycleSeq)),
			attribute.String("tessera.trigger", trigger),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.reportError(fmt.Errorf("runtime: cycle %d panicked: %v", e.cycleSeq, r))
		}
	}()

	results := e.bindings.RunDirty()
	e.metrics.RecordBindingRuns(len(results))

	for _, res := range results {
		nodeID, ok := e.tree.FindByKey(res.Key)
		if !ok {
			// No mounted node yet; the definition reaches the tree
			// through Mount or a parent rebuild.
			continue
		}
		old := res.Old
		if old == nil {
			// First evaluation diffs against the mounted definition.
			node, err := e.tree.Get(nodeID)
			if err != nil {
				e.reportError(err)
				continue
			}
			old = &node.Def
		}
		cat := diff.Diff(old, &res.New)
		e.metrics.RecordDiff(categoryLabel(cat))
		if cat.None() {
			continue
		}
		e.rec.Reconcile(old, &res.New, nodeID)
	}

	stats := e.rec.Apply()
	props, rebuilds := len(stats.AppliedProps), len(stats.AppliedRebuilds)
	e.appliedMu.Lock()
	e.appliedProps = append(e.appliedProps, stats.AppliedProps...)
	e.appliedRebuilds = append(e.appliedRebuilds, stats.AppliedRebuilds...)
	e.appliedMu.Unlock()
	e.metrics.RecordApply(props, rebuilds, stats.LayoutPass)

	duration := time.Since(start)
	e.metrics.RecordCycle(duration)

	span.SetAttributes(
		attribute.Int("tessera.binding_runs", len(results)),
		attribute.Int("tessera.prop_updates", props),
		attribute.Int("tessera.rebuilds", rebuilds),
		attribute.Bool("tessera.layout_pass", stats.LayoutPass),
	)

	if DebugMode {
		log.Printf("runtime: cycle %d (%s) bindings=%d props=%d rebuilds=%d layout=%v in %s",
			e.cycleSeq, trigger, len(results), props, rebuilds, stats.LayoutPass, duration)
	}

	if e.observer != nil {
		e.observer(CycleInfo{
			Seq:         e.cycleSeq,
			Trigger:     trigger,
			BindingRuns: len(results),
			PropUpdates: props,
			Rebuilds:    rebuilds,
			LayoutPass:  stats.LayoutPass,
			Duration:    duration,
			Errors:      e.cycleErrs,
		})
	}
}

// categoryLabel reduces a change category to its dominant label.
func categoryLabel(cat diff.ChangeCategory) string {
	switch {
	case cat.None():
		return "none"
	case cat.Children:
		return "children"
	case cat.Layout:
		return "layout"
	case cat.Visual:
		return "visual"
	default:
		return "handlers"
	}
}

// DrainPropUpdates returns the property updates applied since the last
// drain, in application order, clearing the batch in one step. Engine
// cycles consume the sink queues through the Layout interface; this is
// the polling surface for a presentation layer watching
// TakeContentChanged.
func (e *Engine) DrainPropUpdates() []reconcile.PropUpdate {
	e.appliedMu.Lock()
	defer e.appliedMu.Unlock()
	out := e.appliedProps
	e.appliedProps = nil
	return out
}

// DrainSubtreeRebuilds returns the subtree rebuilds applied since the
// last drain, clearing the batch in one step.
func (e *Engine) DrainSubtreeRebuilds() []reconcile.SubtreeRebuild {
	e.appliedMu.Lock()
	defer e.appliedMu.Unlock()
	out := e.appliedRebuilds
	e.appliedRebuilds = nil
	return out
}

// HasPendingWork reports whether the sink holds undrained work.
func (e *Engine) HasPendingWork() bool {
	return e.sink.HasPendingWork()
}

// TakeContentChanged returns and clears the redraw latch.
func (e *Engine) TakeContentChanged() bool {
	return e.sink.TakeContentChanged()
}

// CycleCount returns the number of completed cycles.
func (e *Engine) CycleCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cycleSeq
}
