package reconcile

import (
	"fmt"

	"github.com/tessera-ui/tessera/pkg/diff"
	"github.com/tessera-ui/tessera/pkg/element"
)

// SubtreeHook is called for every newly constructed subtree root after
// a rebuild, so callers can re-register stateful bindings found within.
type SubtreeHook func(id NodeID, def *element.Def)

// Reconciler classifies definition changes and applies the queued
// repairs to the tree once per cycle.
type Reconciler struct {
	tree   *Tree
	sink   *UpdateSink
	layout Layout
	hook   SubtreeHook
	diag   func(error)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLayout sets the layout subsystem to notify. Defaults to NopLayout.
func WithLayout(l Layout) Option {
	return func(r *Reconciler) { r.layout = l }
}

// WithSubtreeHook sets the new-subtree callback.
func WithSubtreeHook(h SubtreeHook) Option {
	return func(r *Reconciler) { r.hook = h }
}

// WithDiagnostic sets the handler for recoverable errors (stale node
// ids). Defaults to discarding them.
func WithDiagnostic(fn func(error)) Option {
	return func(r *Reconciler) { r.diag = fn }
}

// NewReconciler creates a reconciler over a tree and sink.
func NewReconciler(tree *Tree, sink *UpdateSink, opts ...Option) *Reconciler {
	r := &Reconciler{
		tree:   tree,
		sink:   sink,
		layout: NopLayout{},
		diag:   func(error) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tree returns the reconciler's tree.
func (r *Reconciler) Tree() *Tree { return r.tree }

// Sink returns the reconciler's update sink.
func (r *Reconciler) Sink() *UpdateSink { return r.sink }

// Reconcile classifies the change from old to new for the given node
// and queues the cheapest repair. Identical definitions queue nothing,
// so reconciling twice with the same definition is free.
//
// A structural child change queues a subtree rebuild, which subsumes
// any property change on the node itself. Property changes queue a
// prop update; layout-affecting ones additionally invalidate the
// ancestor chain up to the nearest layout boundary.
func (r *Reconciler) Reconcile(old, new *element.Def, id NodeID) {
	cat := diff.Diff(old, new)
	if cat.None() {
		return
	}

	if cat.Children {
		r.sink.QueueRebuild(SubtreeRebuild{Node: id, Def: *new})
		r.sink.MarkLayoutNeeded()
		return
	}

	r.sink.QueuePropUpdate(PropUpdate{
		Node:           id,
		Layout:         new.Layout,
		Visual:         new.Visual,
		Handlers:       new.Handlers,
		LayoutBoundary: new.LayoutBoundary,
	})
	if cat.Layout {
		r.invalidateTo(id)
	}
}

// invalidateTo marks the chain from a node up to its layout scope.
func (r *Reconciler) invalidateTo(id NodeID) {
	scope := r.tree.LayoutScope(id)
	r.layout.InvalidateLayout(id)
	for _, anc := range r.tree.Ancestors(id) {
		r.layout.InvalidateLayout(anc)
		if anc == scope {
			break
		}
	}
	r.sink.MarkLayoutNeeded()
}

// ApplyStats holds the work one Apply performed: the prop updates and
// rebuilds that reached the tree, stale entries removed, so a caller
// forwarding work to a presentation layer gets exactly what was
// applied.
type ApplyStats struct {
	AppliedProps    []PropUpdate
	AppliedRebuilds []SubtreeRebuild
	LayoutPass      bool
}

// Apply drains the queues and applies them in the fixed cycle order:
// prop updates first, then subtree rebuilds, then a single layout pass
// if anything required one, then the content-changed latch if any work
// was done. Stale node ids are reported and skipped.
func (r *Reconciler) Apply() ApplyStats {
	var stats ApplyStats

	for _, u := range r.sink.DrainPropUpdates() {
		if err := r.applyProps(u); err != nil {
			r.diag(err)
			continue
		}
		stats.AppliedProps = append(stats.AppliedProps, u)
	}

	for _, b := range r.sink.DrainRebuilds() {
		if err := r.applyRebuild(b); err != nil {
			r.diag(err)
			continue
		}
		stats.AppliedRebuilds = append(stats.AppliedRebuilds, b)
	}

	if r.sink.TakeLayoutNeeded() || len(stats.AppliedRebuilds) > 0 {
		r.layout.ComputeLayout()
		stats.LayoutPass = true
	}
	if len(stats.AppliedProps) > 0 || len(stats.AppliedRebuilds) > 0 {
		r.sink.SetContentChanged()
	}
	return stats
}

func (r *Reconciler) applyProps(u PropUpdate) error {
	if err := r.tree.SetProps(u.Node, u.Layout, u.Visual, u.Handlers, u.LayoutBoundary); err != nil {
		return fmt.Errorf("prop update: %w", err)
	}
	node, err := r.tree.Get(u.Node)
	if err != nil {
		return fmt.Errorf("prop update: %w", err)
	}
	if err := r.layout.ApplyProps(u.Node, &node.Def); err != nil {
		return fmt.Errorf("prop update node %d: %w", u.Node, err)
	}
	return nil
}

func (r *Reconciler) applyRebuild(b SubtreeRebuild) error {
	node, err := r.tree.Get(b.Node)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	parent := node.Parent

	created, err := r.tree.Rebuild(b.Node, &b.Def)
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}
	if err := r.layout.RebuildSubtree(parent, b.Node, &b.Def); err != nil {
		return fmt.Errorf("rebuild node %d: %w", b.Node, err)
	}
	if r.hook != nil {
		for _, id := range created {
			if n, err := r.tree.Get(id); err == nil {
				r.hook(id, &n.Def)
			}
		}
	}
	return nil
}
