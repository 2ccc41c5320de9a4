package reconcile

import (
	"sync"

	"github.com/tessera-ui/tessera/pkg/element"
)

// PropUpdate is one queued property change for a node that keeps its
// shape. Applying it never triggers a layout pass by itself. It carries
// the boundary flag because flipping it alone travels this path, and
// LayoutScope reads the stored flag on later invalidations.
type PropUpdate struct {
	Node           NodeID
	Layout         element.LayoutProps
	Visual         element.VisualProps
	Handlers       []element.Handler
	LayoutBoundary bool
}

// SubtreeRebuild is one queued structural replacement of a node's
// subtree.
type SubtreeRebuild struct {
	Node NodeID
	Def  element.Def
}

// UpdateSink owns the pending update queues handed to the presentation
// layer. It is an explicit handle: whoever holds it drains it, exactly
// once per render cycle, via swap-and-clear. The content-changed latch
// is set once per cycle that queued any work and cleared by Take.
type UpdateSink struct {
	mu             sync.Mutex
	propUpdates    []PropUpdate
	rebuilds       []SubtreeRebuild
	layoutNeeded   bool
	contentChanged bool
}

// NewUpdateSink creates an empty sink.
func NewUpdateSink() *UpdateSink {
	return &UpdateSink{}
}

// QueuePropUpdate appends one prop update.
func (s *UpdateSink) QueuePropUpdate(u PropUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.propUpdates = append(s.propUpdates, u)
}

// QueueRebuild appends one subtree rebuild.
func (s *UpdateSink) QueueRebuild(r SubtreeRebuild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuilds = append(s.rebuilds, r)
}

// MarkLayoutNeeded records that at least one layout invalidation
// occurred this cycle.
func (s *UpdateSink) MarkLayoutNeeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layoutNeeded = true
}

// DrainPropUpdates returns all queued prop updates and clears the
// queue in one step.
func (s *UpdateSink) DrainPropUpdates() []PropUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.propUpdates
	s.propUpdates = nil
	return out
}

// DrainRebuilds returns all queued subtree rebuilds and clears the
// queue in one step.
func (s *UpdateSink) DrainRebuilds() []SubtreeRebuild {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.rebuilds
	s.rebuilds = nil
	return out
}

// TakeLayoutNeeded returns and clears the layout flag.
func (s *UpdateSink) TakeLayoutNeeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	needed := s.layoutNeeded
	s.layoutNeeded = false
	return needed
}

// HasPendingWork reports whether any queue or flag is set.
func (s *UpdateSink) HasPendingWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.propUpdates) > 0 || len(s.rebuilds) > 0 || s.layoutNeeded
}

// SetContentChanged latches the redraw request.
func (s *UpdateSink) SetContentChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentChanged = true
}

// TakeContentChanged returns and clears the redraw latch.
func (s *UpdateSink) TakeContentChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.contentChanged
	s.contentChanged = false
	return changed
}

// PeekContentChanged returns the redraw latch without clearing it.
func (s *UpdateSink) PeekContentChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contentChanged
}
