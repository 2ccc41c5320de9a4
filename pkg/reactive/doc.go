// Package reactive implements the fine-grained reactive core: signals,
// lazily recomputed derived values, and batched effects.
//
// All nodes live in a Store, an arena indexed by stable integer ids.
// Cross-links between nodes are id lists resolved through the arena at use
// time, so the graph has no ownership cycles. Typed handles (Signal[T],
// Derived[T]) wrap the raw ids with a convenient generic API.
//
// # Dependency Tracking
//
// While a derived value or effect body runs, every signal read is recorded
// by a tracking scope. When the body completes, the node's dependency set
// is replaced wholesale, so a branch that stops reading a signal drops
// that dependency on its next run.
//
// # Batching
//
// Batch groups multiple writes into a single notification phase. Effects
// queued during a batch are deduplicated and run once when the outermost
// batch completes, observing the last written values. A single Set outside
// any batch behaves as an implicit one-write batch.
//
// # Errors
//
// A self-referential derived chain fails that one evaluation with
// ErrReactiveCycle and leaves the rest of the graph intact. Reads through
// stale ids are reported through the store's diagnostic hook and otherwise
// treated as no-ops.
package reactive
