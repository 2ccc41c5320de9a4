package reconcile

import "github.com/tessera-ui/tessera/pkg/element"

// Layout is the consumed side of the layout/render subsystem. Node ids
// are the tree's own; the subsystem keeps whatever per-node state it
// needs keyed by them.
type Layout interface {
	// ApplyProps pushes changed properties for a node whose shape did
	// not change. Must not run a layout pass.
	ApplyProps(id NodeID, def *element.Def) error

	// RebuildSubtree notifies that the subtree rooted at id was
	// reconstructed from def under the given parent.
	RebuildSubtree(parent, id NodeID, def *element.Def) error

	// InvalidateLayout marks one node's layout scope dirty.
	InvalidateLayout(id NodeID)

	// ComputeLayout runs one coalesced layout pass over everything
	// invalidated since the last call.
	ComputeLayout()
}

// NopLayout discards all notifications. Useful for tests and headless
// operation.
type NopLayout struct{}

func (NopLayout) ApplyProps(NodeID, *element.Def) error             { return nil }
func (NopLayout) RebuildSubtree(NodeID, NodeID, *element.Def) error { return nil }
func (NopLayout) InvalidateLayout(NodeID)                           {}
func (NopLayout) ComputeLayout()                                    {}
