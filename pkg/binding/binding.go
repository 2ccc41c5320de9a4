// Package binding couples interaction state machines and signal
// dependencies to element definitions.
//
// A Binding joins one node key, one state machine instance, an explicit
// list of signal dependencies and an Evaluator producing that node's
// element definition. Each binding registers a synthetic effect over
// its machine's configuration and its dependencies; any change marks
// the binding dirty at most once per cycle. Dirty bindings are
// re-evaluated in registration order and their fresh definitions feed
// the diff layer. Bindings never touch render or layout state.
package binding

import (
	"fmt"
	"sync"

	"github.com/tessera-ui/tessera/pkg/element"
	"github.com/tessera-ui/tessera/pkg/fsm"
	"github.com/tessera-ui/tessera/pkg/reactive"
)

// Evaluator produces an element definition from the current machine
// configuration and dependency values. Deps arrive in the order the
// binding declared them.
type Evaluator interface {
	Evaluate(config []fsm.StateID, deps []any) (element.Def, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(config []fsm.StateID, deps []any) (element.Def, error)

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(config []fsm.StateID, deps []any) (element.Def, error) {
	return f(config, deps)
}

// Result is one re-evaluated binding's output, paired with the previous
// definition for diffing. Old is nil on the binding's first evaluation.
type Result struct {
	Key string
	Old *element.Def
	New element.Def
}

// Binding ties one node to its machine instance and dependencies.
type Binding struct {
	key      string
	instance *fsm.Instance
	deps     []reactive.SignalID
	eval     Evaluator

	// configVersion advances on every fired transition so the
	// synthetic effect observes machine changes like any signal.
	configVersion reactive.Signal[uint64]
	effect        reactive.Effect

	lastGood *element.Def
	dirty    bool
	removed  bool
}

// Key returns the binding's stable node key.
func (b *Binding) Key() string { return b.key }

// Instance returns the bound machine instance.
func (b *Binding) Instance() *fsm.Instance { return b.instance }

// Registry holds all bindings in registration order and tracks which
// ones need re-evaluation.
//
// Registry is safe for concurrent use; evaluation itself is serialized
// by the caller's update cycle.
type Registry struct {
	store *reactive.Store

	mu       sync.Mutex
	ordered  []*Binding
	byKey    map[string]*Binding
	dirtyCnt int
}

// NewRegistry creates an empty registry over the given store.
func NewRegistry(store *reactive.Store) *Registry {
	return &Registry{
		store: store,
		byKey: make(map[string]*Binding),
	}
}

// Bind registers a binding under a unique node key. The binding is
// marked dirty immediately so the first RunDirty produces its initial
// definition.
func (r *Registry) Bind(key string, instance *fsm.Instance, deps []reactive.SignalID, eval Evaluator) (*Binding, error) {
	b := &Binding{
		key:      key,
		instance: instance,
		deps:     deps,
		eval:     eval,
	}

	r.mu.Lock()
	if _, exists := r.byKey[key]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("binding: duplicate key %q", key)
	}
	r.ordered = append(r.ordered, b)
	r.byKey[key] = b
	r.mu.Unlock()

	// CreateEffect runs the body once to establish its dependency set,
	// and the body re-enters the registry mutex through markDirty, so
	// the effect must be wired up outside the lock. That first run
	// marks the binding dirty for the initial RunDirty. The body only
	// records reads; evaluation happens later in registration order,
	// outside any tracking scope.
	b.configVersion = reactive.CreateSignal(r.store, uint64(0))
	b.effect = reactive.CreateEffect(r.store, func() error {
		b.configVersion.Get()
		var stale error
		for _, dep := range deps {
			if err := r.store.Touch(dep); err != nil {
				stale = err
			}
		}
		r.markDirty(b)
		return stale
	})

	r.mu.Lock()
	if b.removed {
		// Removed while the effect was being wired up.
		r.mu.Unlock()
		b.effect.Dispose()
		b.configVersion.Destroy()
		return nil, fmt.Errorf("binding: key %q removed during registration", key)
	}
	r.mu.Unlock()
	return b, nil
}

// Remove unregisters a binding and disposes its effect. Removing an
// unknown key is a no-op.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.byKey[key]
	if !ok {
		return
	}
	delete(r.byKey, key)
	b.removed = true
	if b.dirty {
		b.dirty = false
		r.dirtyCnt--
	}
	// Zero handles mean a concurrent Bind has not finished wiring the
	// effect yet; Bind disposes them itself when it sees removed.
	if b.effect != (reactive.Effect{}) {
		b.effect.Dispose()
	}
	if b.configVersion != (reactive.Signal[uint64]{}) {
		b.configVersion.Destroy()
	}

	for i, cur := range r.ordered {
		if cur == b {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
}

// Keys returns the binding keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.ordered))
	for i, b := range r.ordered {
		keys[i] = b.key
	}
	return keys
}

// Lookup returns the binding registered under key.
func (r *Registry) Lookup(key string) (*Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byKey[key]
	return b, ok
}

// Dispatch delivers an event to one binding's machine. A fired
// transition advances the binding's configuration version, which
// queues its synthetic effect through the store's batching.
func (r *Registry) Dispatch(key string, ev fsm.Event) bool {
	r.mu.Lock()
	b, ok := r.byKey[key]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if !b.instance.Dispatch(ev) {
		return false
	}
	b.configVersion.Update(func(v uint64) uint64 { return v + 1 })
	return true
}

// HasDirty reports whether any binding awaits re-evaluation.
func (r *Registry) HasDirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirtyCnt > 0
}

// RunDirty re-evaluates every dirty binding once, in registration
// order, and returns the results for diffing. A failed evaluation is
// reported through the store's diagnostic hook; the binding keeps its
// previous definition and re-runs on its next triggering change.
func (r *Registry) RunDirty() []Result {
	r.mu.Lock()
	var dirty []*Binding
	for _, b := range r.ordered {
		if b.dirty {
			b.dirty = false
			dirty = append(dirty, b)
		}
	}
	r.dirtyCnt = 0
	r.mu.Unlock()

	var results []Result
	for _, b := range dirty {
		config := b.instance.Configuration()
		deps := make([]any, len(b.deps))
		readFailed := false
		for i, dep := range b.deps {
			v, err := r.store.Read(dep)
			if err != nil {
				r.store.Report(fmt.Errorf("binding %q: %w", b.key, err))
				readFailed = true
				break
			}
			deps[i] = v
		}
		if readFailed {
			continue
		}

		def, err := b.eval.Evaluate(config, deps)
		if err != nil {
			r.store.Report(fmt.Errorf("binding %q: %w", b.key, err))
			continue
		}

		results = append(results, Result{Key: b.key, Old: b.lastGood, New: def})
		saved := def
		b.lastGood = &saved
	}
	return results
}

func (r *Registry) markDirty(b *Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.removed || b.dirty {
		return
	}
	b.dirty = true
	r.dirtyCnt++
}
