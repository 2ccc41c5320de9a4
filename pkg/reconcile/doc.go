// Package reconcile turns element diffs into concrete mutations on the
// persistent render tree.
//
// Reconcile classifies each changed definition and queues the cheapest
// repair: a prop update for paint-only changes, a layout invalidation
// up to the nearest layout boundary for sizing changes, a subtree
// rebuild for structural changes. Queued work is applied once per
// cycle in a fixed order: prop updates, then rebuilds, then a single
// coalesced layout pass, then one content-changed notification. The
// UpdateSink is the only hand-off surface to the presentation layer
// and is drained by atomic swap-and-clear, never incrementally.
package reconcile
