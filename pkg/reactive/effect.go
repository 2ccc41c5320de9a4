package reactive

import "fmt"

// Effect is a handle to a side-effecting computation that re-runs when any
// signal or derived value it read during its last run changes.
//
// Effects queued while a batch is open run once when the outermost batch
// ends. An effect that triggers itself while the queue is draining is
// deferred to the next drain, never the current one.
type Effect struct {
	id    EffectID
	store *Store
}

// CreateEffect registers fn as an effect and runs it immediately to
// establish its initial dependency set. An error returned by fn is reported
// through the store's diagnostic hook; the effect stays registered and
// retries on its next triggering change.
func CreateEffect(s *Store, fn func() error) Effect {
	id := EffectID(nextID())
	s.mu.Lock()
	s.effects[id] = &effectNode{fn: fn}
	s.mu.Unlock()

	s.runEffect(id)
	return Effect{id: id, store: s}
}

// ID returns the effect's stable id.
func (e Effect) ID() EffectID {
	return e.id
}

// Dispose removes the effect. A disposed effect never runs again, even if
// it is already queued.
func (e Effect) Dispose() {
	s := e.store
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.effects[e.id]
	if !ok {
		return
	}
	node.disposed = true
	sub := subscriberRef{effect: e.id}
	for _, src := range node.sources {
		s.unsubscribeLocked(src, sub)
	}
	delete(s.effects, e.id)
	delete(s.pendingSet, e.id)
}

// runEffect executes one effect with dependency tracking, replacing its
// dependency set with the reads of this run.
func (s *Store) runEffect(id EffectID) {
	sub := subscriberRef{effect: id}

	s.mu.Lock()
	node, ok := s.effects[id]
	if !ok || node.disposed {
		s.mu.Unlock()
		return
	}
	// Clear the pending flag before running so a write inside the body
	// queues this effect for the next cycle instead of looping forever.
	node.pending = false
	for _, src := range node.sources {
		s.unsubscribeLocked(src, sub)
	}
	node.sources = nil
	fn := node.fn
	s.mu.Unlock()

	s.pushScope()
	err := fn()
	reads := s.popScope()

	s.mu.Lock()
	node, ok = s.effects[id]
	if ok && !node.disposed {
		node.sources = reads
		for _, src := range reads {
			s.subscribeLocked(src, sub)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.report(fmt.Errorf("effect %d: %w", id, err))
	}
}
