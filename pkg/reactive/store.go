package reactive

import (
	"log"
	"sync"
)

// DebugMode enables debug logging throughout the reactive package.
// This should be set at startup and not changed during runtime.
var DebugMode bool

// sourceRef identifies a node that can be read (and therefore depended on).
type sourceRef struct {
	signal  SignalID  // non-zero for signal sources
	derived DerivedID // non-zero for derived sources
}

// subscriberRef identifies a node that reacts to a source changing.
type subscriberRef struct {
	derived DerivedID // non-zero for derived subscribers
	effect  EffectID  // non-zero for effect subscribers
}

type signalNode struct {
	value   any
	version uint64
	subs    []subscriberRef
	equals  func(a, b any) bool
}

type derivedNode struct {
	value     any
	dirty     bool
	computing bool
	compute   func() (any, error)
	sources   []sourceRef
	subs      []subscriberRef
}

type effectNode struct {
	fn       func() error
	pending  bool
	disposed bool
	sources  []sourceRef
}

// Store owns all signal, derived, and effect nodes and their values.
//
// Mutation (Set, batch drains, effect creation) must be serialized by the
// caller: only one goroutine mutates at a time. Pure value reads are safe
// concurrently; the internal lock only protects readers from torn state.
type Store struct {
	mu sync.RWMutex

	signals map[SignalID]*signalNode
	derived map[DerivedID]*derivedNode
	effects map[EffectID]*effectNode

	// pending effects, deduplicated, drained when batch depth returns to 0.
	pending    []EffectID
	pendingSet map[EffectID]struct{}

	batchDepth int
	draining   bool

	globalVersion uint64

	// scopeMu guards the tracking scope stack.
	scopeMu sync.Mutex
	scopes  []*trackScope

	// onDiagnostic receives recoverable errors (stale lookups, failed
	// effect runs). Defaults to a debug-gated log line.
	onDiagnostic func(error)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDiagnostic sets the handler for recoverable errors. The handler must
// not mutate the store.
func WithDiagnostic(fn func(error)) StoreOption {
	return func(s *Store) {
		s.onDiagnostic = fn
	}
}

// NewStore creates an empty reactive store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		signals:    make(map[SignalID]*signalNode),
		derived:    make(map[DerivedID]*derivedNode),
		effects:    make(map[EffectID]*effectNode),
		pendingSet: make(map[EffectID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onDiagnostic == nil {
		s.onDiagnostic = func(err error) {
			if DebugMode {
				log.Printf("reactive: %v", err)
			}
		}
	}
	return s
}

// report sends a recoverable error to the diagnostic hook.
func (s *Store) report(err error) {
	if err != nil {
		s.onDiagnostic(err)
	}
}

// Report routes a recoverable error from a collaborating layer through
// the store's diagnostic hook. Nil errors are ignored.
func (s *Store) Report(err error) {
	s.report(err)
}

// GlobalVersion returns the store-wide write counter. It advances on every
// signal write that actually changed a value.
func (s *Store) GlobalVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalVersion
}

// SignalVersion returns the version counter of one signal.
func (s *Store) SignalVersion(id SignalID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.signals[id]
	if !ok {
		return 0, lookupError("signal", uint64(id))
	}
	return node.version, nil
}

// Read returns the current value of a signal by id without tracking.
func (s *Store) Read(id SignalID) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.signals[id]
	if !ok {
		return nil, lookupError("signal", uint64(id))
	}
	return node.value, nil
}

// Touch records a read of the signal in the current tracking scope without
// returning its value. Used by synthetic effects that subscribe to explicit
// dependency lists.
func (s *Store) Touch(id SignalID) error {
	s.mu.RLock()
	_, ok := s.signals[id]
	s.mu.RUnlock()
	if !ok {
		return lookupError("signal", uint64(id))
	}
	s.recordRead(sourceRef{signal: id})
	return nil
}

// DestroySignal removes a signal from the store. Subsequent reads through
// its id fail with ErrLookup. Subscribers are left to re-resolve on their
// next run; their replaced dependency sets drop the dead id naturally.
func (s *Store) DestroySignal(id SignalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.signals[id]; !ok {
		return lookupError("signal", uint64(id))
	}
	delete(s.signals, id)
	return nil
}

// setSignal writes a value by id, bumping the version and notifying
// subscribers unless the value compares equal to the current one.
func (s *Store) setSignal(id SignalID, v any) error {
	s.mu.Lock()
	node, ok := s.signals[id]
	if !ok {
		s.mu.Unlock()
		return lookupError("signal", uint64(id))
	}

	eq := node.equals
	if eq == nil {
		eq = defaultEquals
	}
	if eq(node.value, v) {
		s.mu.Unlock()
		return nil
	}

	node.value = v
	node.version++
	s.globalVersion++

	for _, sub := range node.subs {
		s.markDirtyLocked(sub)
	}

	flush := s.batchDepth == 0 && !s.draining
	s.mu.Unlock()

	// Implicit one-write batch outside any explicit batch scope.
	if flush {
		s.flushEffects()
	}
	return nil
}

// markDirtyLocked propagates a change notification to one subscriber.
// Derived subscribers are marked dirty transitively; effect subscribers are
// appended to the pending queue, deduplicated by id.
func (s *Store) markDirtyLocked(sub subscriberRef) {
	switch {
	case sub.derived != 0:
		node, ok := s.derived[sub.derived]
		if !ok || node.dirty {
			return
		}
		node.dirty = true
		for _, downstream := range node.subs {
			s.markDirtyLocked(downstream)
		}
	case sub.effect != 0:
		node, ok := s.effects[sub.effect]
		if !ok || node.disposed || node.pending {
			return
		}
		node.pending = true
		if _, queued := s.pendingSet[sub.effect]; !queued {
			s.pendingSet[sub.effect] = struct{}{}
			s.pending = append(s.pending, sub.effect)
		}
	}
}

// subscribeLocked registers sub on the source node, deduplicated.
func (s *Store) subscribeLocked(src sourceRef, sub subscriberRef) {
	switch {
	case src.signal != 0:
		node, ok := s.signals[src.signal]
		if !ok {
			return
		}
		for _, existing := range node.subs {
			if existing == sub {
				return
			}
		}
		node.subs = append(node.subs, sub)
	case src.derived != 0:
		node, ok := s.derived[src.derived]
		if !ok {
			return
		}
		for _, existing := range node.subs {
			if existing == sub {
				return
			}
		}
		node.subs = append(node.subs, sub)
	}
}

// unsubscribeLocked removes sub from the source node's subscriber list.
func (s *Store) unsubscribeLocked(src sourceRef, sub subscriberRef) {
	remove := func(subs []subscriberRef) []subscriberRef {
		for i, existing := range subs {
			if existing == sub {
				subs[i] = subs[len(subs)-1]
				return subs[:len(subs)-1]
			}
		}
		return subs
	}
	switch {
	case src.signal != 0:
		if node, ok := s.signals[src.signal]; ok {
			node.subs = remove(node.subs)
		}
	case src.derived != 0:
		if node, ok := s.derived[src.derived]; ok {
			node.subs = remove(node.subs)
		}
	}
}

// Stats is a point-in-time snapshot of the reactive graph.
type Stats struct {
	Signals        int
	Derived        int
	Effects        int
	PendingEffects int
	GlobalVersion  uint64
}

// Stats returns counts of live nodes and pending work.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Signals:        len(s.signals),
		Derived:        len(s.derived),
		Effects:        len(s.effects),
		PendingEffects: len(s.pending),
		GlobalVersion:  s.globalVersion,
	}
}
