package reactive

import "reflect"

// Signal is a typed handle to a reactive value cell inside a Store.
// Handles are cheap to copy; all state lives in the store arena.
//
// Reading a Signal during a tracked evaluation (a derived computation or an
// effect body) records it as a dependency of that evaluation.
type Signal[T any] struct {
	id    SignalID
	store *Store
}

// CreateSignal allocates a new signal holding initial and returns its handle.
func CreateSignal[T any](s *Store, initial T) Signal[T] {
	id := SignalID(nextID())
	s.mu.Lock()
	s.signals[id] = &signalNode{value: initial}
	s.mu.Unlock()
	return Signal[T]{id: id, store: s}
}

// WithEquals configures a custom equality function for change detection.
// Writes that compare equal to the current value do not bump the version
// or notify subscribers.
func (sig Signal[T]) WithEquals(fn func(a, b T) bool) Signal[T] {
	sig.store.mu.Lock()
	if node, ok := sig.store.signals[sig.id]; ok {
		node.equals = func(a, b any) bool {
			av, aok := a.(T)
			bv, bok := b.(T)
			return aok && bok && fn(av, bv)
		}
	}
	sig.store.mu.Unlock()
	return sig
}

// ID returns the signal's stable id.
func (sig Signal[T]) ID() SignalID {
	return sig.id
}

// Get returns the current value and records the read in the active tracking
// scope. A read through a destroyed handle reports a diagnostic and returns
// the zero value.
func (sig Signal[T]) Get() T {
	sig.store.recordRead(sourceRef{signal: sig.id})
	return sig.Peek()
}

// Peek returns the current value without creating a dependency.
func (sig Signal[T]) Peek() T {
	v, err := sig.store.Read(sig.id)
	if err != nil {
		sig.store.report(err)
		var zero T
		return zero
	}
	value, ok := v.(T)
	if !ok {
		var zero T
		return zero
	}
	return value
}

// Set writes a new value, bumping the version and notifying subscribers if
// the value changed. Outside a batch this drains pending effects immediately.
func (sig Signal[T]) Set(v T) {
	if err := sig.store.setSignal(sig.id, v); err != nil {
		sig.store.report(err)
	}
}

// Update atomically applies fn to the current value and writes the result.
func (sig Signal[T]) Update(fn func(T) T) {
	sig.Set(fn(sig.Peek()))
}

// Version returns the signal's write counter, or 0 for a destroyed handle.
func (sig Signal[T]) Version() uint64 {
	v, err := sig.store.SignalVersion(sig.id)
	if err != nil {
		sig.store.report(err)
		return 0
	}
	return v
}

// Destroy removes the signal from the store. Later reads through this
// handle report ErrLookup and return the zero value.
func (sig Signal[T]) Destroy() {
	if err := sig.store.DestroySignal(sig.id); err != nil {
		sig.store.report(err)
	}
}

// defaultEquals provides type-appropriate equality for untyped values.
// Uses == for common comparable types and reflect.DeepEqual for the rest.
func defaultEquals(a, b any) bool {
	switch av := a.(type) {
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case uint64:
		bv, ok := b.(uint64)
		return ok && av == bv
	case float32:
		bv, ok := b.(float32)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return reflect.DeepEqual(a, b)
	}
}
