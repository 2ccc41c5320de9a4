package reactive

import (
	"errors"
	"fmt"
)

// ErrReactiveCycle is returned when a derived value ends up reading itself,
// directly or through a chain of other derived values. The failing
// evaluation is aborted; the rest of the graph is unaffected and the
// derived stays dirty so a later read retries.
var ErrReactiveCycle = errors.New("reactive: cycle detected in derived evaluation")

// ErrLookup is returned when an operation references a signal, derived, or
// effect id that was never created or has been destroyed. Stale references
// can legitimately arise across deferred callbacks, so callers should treat
// this as recoverable.
var ErrLookup = errors.New("reactive: unknown or destroyed node id")

// lookupError wraps ErrLookup with the offending node kind and id.
func lookupError(kind string, id uint64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrLookup)
}
