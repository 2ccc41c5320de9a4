package fsm

import "errors"

// ErrUnknownState is returned at build time when a transition, an initial
// designation, or the machine config references a state id that was never
// defined.
var ErrUnknownState = errors.New("fsm: transition references unknown state")

// ErrAmbiguousRegion is returned at build time when a transition crosses a
// parallel region boundary. Firing such a transition would activate a leaf
// in a sibling region while only exiting its own, leaving the same leaf
// reachable via two regions at once.
var ErrAmbiguousRegion = errors.New("fsm: transition crosses parallel region boundary")

// ErrDuplicateState is returned at build time when two states share an id.
var ErrDuplicateState = errors.New("fsm: duplicate state id")
