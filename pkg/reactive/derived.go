package reactive

import "fmt"

// Derived is a typed handle to a memoized computation over signals.
//
// Derived values are lazy: the computation only runs when Get is called on
// a dirty node. If several dependencies change before the next read, the
// value recomputes once. Derived values can depend on other derived values;
// dirtiness propagates transitively through the chain.
type Derived[T any] struct {
	id    DerivedID
	store *Store
}

// CreateDerived allocates a derived node with the given computation.
// The computation does not run until the first Get.
func CreateDerived[T any](s *Store, compute func() (T, error)) Derived[T] {
	id := DerivedID(nextID())
	node := &derivedNode{
		dirty: true,
		compute: func() (any, error) {
			return compute()
		},
	}
	s.mu.Lock()
	s.derived[id] = node
	s.mu.Unlock()
	return Derived[T]{id: id, store: s}
}

// ID returns the derived node's stable id.
func (d Derived[T]) ID() DerivedID {
	return d.id
}

// Get returns the derived value, recomputing if any dependency changed
// since the last read. The read is recorded in the active tracking scope,
// so derived values compose.
//
// A cyclic read chain aborts this one evaluation with ErrReactiveCycle;
// the node stays dirty and the rest of the graph is untouched.
func (d Derived[T]) Get() (T, error) {
	d.store.recordRead(sourceRef{derived: d.id})
	return d.Peek()
}

// Peek returns the derived value without creating a dependency on it.
// Still recomputes if the cached value is stale.
func (d Derived[T]) Peek() (T, error) {
	var zero T
	v, err := d.store.getDerived(d.id)
	if err != nil {
		return zero, err
	}
	value, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("derived %d: unexpected value type %T", d.id, v)
	}
	return value, nil
}

// Destroy removes the derived node from the store.
func (d Derived[T]) Destroy() {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	node, ok := d.store.derived[d.id]
	if !ok {
		return
	}
	sub := subscriberRef{derived: d.id}
	for _, src := range node.sources {
		d.store.unsubscribeLocked(src, sub)
	}
	delete(d.store.derived, d.id)
}

// getDerived resolves a derived value by id, recomputing when dirty.
func (s *Store) getDerived(id DerivedID) (any, error) {
	s.mu.RLock()
	node, ok := s.derived[id]
	if !ok {
		s.mu.RUnlock()
		return nil, lookupError("derived", uint64(id))
	}
	if !node.dirty {
		v := node.value
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	return s.recomputeDerived(id)
}

// recomputeDerived runs the computation with a fresh tracking scope and
// replaces the node's dependency set with what was actually read.
func (s *Store) recomputeDerived(id DerivedID) (any, error) {
	sub := subscriberRef{derived: id}

	s.mu.Lock()
	node, ok := s.derived[id]
	if !ok {
		s.mu.Unlock()
		return nil, lookupError("derived", uint64(id))
	}
	if node.computing {
		// This node is already on the evaluation stack: the compute
		// function read back into itself. Fail this evaluation only.
		s.mu.Unlock()
		return nil, fmt.Errorf("derived %d: %w", id, ErrReactiveCycle)
	}
	node.computing = true
	for _, src := range node.sources {
		s.unsubscribeLocked(src, sub)
	}
	node.sources = nil
	compute := node.compute
	s.mu.Unlock()

	s.pushScope()
	value, err := compute()
	reads := s.popScope()

	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok = s.derived[id]
	if !ok {
		return nil, lookupError("derived", uint64(id))
	}
	node.computing = false
	if err != nil {
		// Stay dirty so a later read retries; keep the old cached value.
		return nil, err
	}
	node.value = value
	node.dirty = false
	node.sources = reads
	for _, src := range reads {
		s.subscribeLocked(src, sub)
	}
	return value, nil
}
