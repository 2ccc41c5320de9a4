package fsm

import (
	"sort"
	"sync"
)

// Instance is one running occurrence of a Definition. The active
// configuration is the set of leaf states currently entered; a Simple
// machine has exactly one, a machine inside a Parallel state has one
// leaf per region.
//
// Instance is safe for concurrent use.
type Instance struct {
	def *Definition

	mu     sync.Mutex
	active map[*state]struct{} // active leaves
}

// NewInstance starts an instance in the definition's initial
// configuration, running entry actions outermost first.
func NewInstance(def *Definition) *Instance {
	inst := &Instance{
		def:    def,
		active: make(map[*state]struct{}),
	}
	inst.enter(def.root.initial, Event{})
	return inst
}

// Configuration returns the ids of the active leaf states, sorted for
// deterministic inspection.
func (in *Instance) Configuration() []StateID {
	in.mu.Lock()
	defer in.mu.Unlock()
	ids := make([]StateID, 0, len(in.active))
	for st := range in.active {
		ids = append(ids, st.id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// In reports whether the given state is active, either as a leaf or as
// an ancestor of an active leaf.
func (in *Instance) In(id StateID) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	target, ok := in.def.states[id]
	if !ok {
		return false
	}
	for leaf := range in.active {
		for st := leaf; st != nil; st = st.parent {
			if st == target {
				return true
			}
		}
	}
	return false
}

// Dispatch delivers one event. For each active leaf the ancestor chain is
// searched innermost first for a transition matching the event type whose
// guard passes; the first match per leaf fires. Leaves consumed by a
// firing are skipped for the remainder of the dispatch, so orthogonal
// regions may each react to the same event independently.
//
// Dispatch reports whether any transition fired. An event matching no
// transition is a no-op.
func (in *Instance) Dispatch(ev Event) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	leaves := make([]*state, 0, len(in.active))
	for st := range in.active {
		leaves = append(leaves, st)
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].id < leaves[j].id })

	fired := false
	for _, leaf := range leaves {
		if _, still := in.active[leaf]; !still {
			continue
		}
		tr, source := in.match(leaf, ev)
		if tr == nil {
			continue
		}
		in.fire(source, in.def.states[tr.Target], ev)
		fired = true
	}
	return fired
}

// match walks from a leaf toward the root looking for the innermost
// enabled transition for the event.
func (in *Instance) match(leaf *state, ev Event) (*TransitionSpec, *state) {
	for st := leaf; st != nil && st.depth > 0; st = st.parent {
		for _, tr := range in.def.transitions[transitionKey{from: st.id, event: ev.Type}] {
			if tr.Guard == nil || tr.Guard(ev) {
				return tr, st
			}
		}
	}
	return nil, nil
}

// fire performs one transition: exit up to the least common ancestor,
// then enter down to the target's initial configuration. A transition
// whose LCA is the source or target itself is external: that state is
// exited and re-entered.
func (in *Instance) fire(source, target *state, ev Event) {
	lca := lowestCommonAncestor(source, target)
	if lca == source || lca == target {
		if lca.parent != nil && lca.parent.depth > 0 {
			lca = lca.parent
		} else {
			lca = nil
		}
	}

	// The exit scope is the child of the LCA on the source side; exiting
	// it tears down every active leaf beneath it, innermost first.
	exitScope := source
	parentOf := func(s *state) *state {
		if s.parent == in.def.root {
			return nil
		}
		return s.parent
	}
	for parentOf(exitScope) != lca {
		exitScope = exitScope.parent
	}
	in.exit(exitScope, ev)

	// Enter from just below the LCA down to the target, then descend
	// into the target's initial configuration.
	var path []*state
	for st := target; st != lca && st != nil && st.depth > 0; st = st.parent {
		path = append(path, st)
	}
	for i := len(path) - 1; i > 0; i-- {
		if path[i].onEntry != nil {
			path[i].onEntry(ev)
		}
	}
	in.enter(target, ev)
}

// enter runs the entry action for a state and descends into its initial
// configuration, activating the resulting leaves.
func (in *Instance) enter(st *state, ev Event) {
	if st.onEntry != nil {
		st.onEntry(ev)
	}
	switch st.kind {
	case KindSimple:
		in.active[st] = struct{}{}
	case KindComposite:
		next := st.initial
		if next == nil {
			next = st.children[0]
		}
		in.enter(next, ev)
	case KindParallel:
		for _, region := range st.children {
			in.enter(region, ev)
		}
	}
}

// exit deactivates every active leaf under scope, running each exited
// state's exit action exactly once, deepest states first.
func (in *Instance) exit(scope *state, ev Event) {
	exited := make(map[*state]struct{})
	var order []*state
	for leaf := range in.active {
		if !descendantOf(leaf, scope) {
			continue
		}
		delete(in.active, leaf)
		for st := leaf; ; st = st.parent {
			if _, seen := exited[st]; !seen {
				exited[st] = struct{}{}
				order = append(order, st)
			}
			if st == scope {
				break
			}
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].depth > order[j].depth })
	for _, st := range order {
		if st.onExit != nil {
			st.onExit(ev)
		}
	}
}

// descendantOf reports whether st is scope or lies beneath it.
func descendantOf(st, scope *state) bool {
	for s := st; s != nil; s = s.parent {
		if s == scope {
			return true
		}
	}
	return false
}
