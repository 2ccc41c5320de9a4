// Package runtime drives the update loop: it owns the signal store,
// the binding registry, the render tree and the reconciler, and runs
// one logical update cycle per external event to completion under a
// single mutex.
//
// A cycle settles reactive writes through the store's batching,
// re-evaluates dirty bindings in registration order, diffs each
// binding's fresh definition against its previous one and applies the
// queued repairs. Errors inside a cycle are reported and never halt
// the loop; a failing binding keeps its last good output.
package runtime
