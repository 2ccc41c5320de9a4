// Package fsm provides a hierarchical, parallel finite-state-machine
// runtime for interaction state.
//
// A Definition is an immutable, validated description of states and
// transitions. States are Simple (leaves), Composite (nested sub-machine
// with its own initial state), or Parallel (concurrent orthogonal regions).
// Transitions are keyed by (state, event type) with an optional guard and
// optional entry/exit actions on the states they cross.
//
// An Instance tracks the active configuration: the set of leaf state ids,
// one per active branch. Dispatch resolves transitions innermost first,
// runs exit actions up to the least common ancestor with the target and
// entry actions back down, and updates the configuration atomically. An
// event with no matching transition is a no-op, never an error.
//
// Definitions fail at build time, not dispatch time: a transition that
// references an undefined state is ErrUnknownState, and a transition that
// crosses a parallel region boundary is ErrAmbiguousRegion.
package fsm
