package fsm

import "fmt"

// StateID uniquely identifies a state within a machine.
type StateID string

// Event is a discrete input delivered to a machine instance. Type selects
// transitions; Data is an opaque payload passed through to guards and
// actions.
type Event struct {
	Type string
	Data any
}

// NewEvent creates an event with an optional payload.
func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, Data: data}
}

// Guard is a predicate deciding whether a matched transition may fire.
type Guard func(ev Event) bool

// Action is a side effect run when a state is entered or exited.
type Action func(ev Event)

// Kind discriminates the three state node types.
type Kind uint8

const (
	KindSimple    Kind = iota // a leaf state
	KindComposite             // nested sub-machine with an initial child
	KindParallel              // concurrent orthogonal regions
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "Simple"
	case KindComposite:
		return "Composite"
	case KindParallel:
		return "Parallel"
	default:
		return "Unknown"
	}
}

// StateSpec declares one state in a Config. Children turns the state into
// a Composite (Initial selects the entry child) or, with KindParallel, a
// set of orthogonal regions entered together.
type StateSpec struct {
	ID       StateID
	Kind     Kind
	Initial  StateID // entry child for Composite states
	Children []StateSpec
	OnEntry  Action
	OnExit   Action
}

// TransitionSpec declares one transition keyed by (source state, event type).
type TransitionSpec struct {
	From   StateID
	Event  string
	Target StateID
	Guard  Guard
}

// Config is the buildable description of a machine.
type Config struct {
	ID          string
	Initial     StateID // entry state among the top-level states
	States      []StateSpec
	Transitions []TransitionSpec
}

// transitionKey indexes compiled transitions.
type transitionKey struct {
	from  StateID
	event string
}

// state is the compiled, linked form of a StateSpec.
type state struct {
	id       StateID
	kind     Kind
	parent   *state
	children []*state
	initial  *state // resolved entry child for Composite
	depth    int
	onEntry  Action
	onExit   Action
}

// Definition is a validated, immutable machine description. One Definition
// can back any number of Instances.
type Definition struct {
	id          string
	root        *state // implicit composite over the top-level states
	states      map[StateID]*state
	transitions map[transitionKey][]*TransitionSpec
}

// New compiles and validates a machine config.
func New(cfg Config) (*Definition, error) {
	if len(cfg.States) == 0 {
		return nil, fmt.Errorf("machine %q: no states: %w", cfg.ID, ErrUnknownState)
	}

	def := &Definition{
		id:          cfg.ID,
		states:      make(map[StateID]*state),
		transitions: make(map[transitionKey][]*TransitionSpec),
	}

	def.root = &state{kind: KindComposite, depth: 0}
	for _, spec := range cfg.States {
		child, err := def.compile(spec, def.root)
		if err != nil {
			return nil, err
		}
		def.root.children = append(def.root.children, child)
	}

	initial, ok := def.states[cfg.Initial]
	if !ok || initial.parent != def.root {
		return nil, fmt.Errorf("machine %q: initial state %q: %w", cfg.ID, cfg.Initial, ErrUnknownState)
	}
	def.root.initial = initial

	// Resolve composite initial children now that all ids are known.
	for id, st := range def.states {
		if st.kind != KindComposite {
			continue
		}
		spec := findSpec(cfg.States, id)
		if spec.Initial == "" {
			st.initial = st.children[0]
			continue
		}
		child, ok := def.states[spec.Initial]
		if !ok || child.parent != st {
			return nil, fmt.Errorf("machine %q: state %q initial %q: %w", cfg.ID, id, spec.Initial, ErrUnknownState)
		}
		st.initial = child
	}

	for i := range cfg.Transitions {
		tr := &cfg.Transitions[i]
		from, ok := def.states[tr.From]
		if !ok {
			return nil, fmt.Errorf("machine %q: transition from %q: %w", cfg.ID, tr.From, ErrUnknownState)
		}
		target, ok := def.states[tr.Target]
		if !ok {
			return nil, fmt.Errorf("machine %q: transition %q--%s-->%q: %w", cfg.ID, tr.From, tr.Event, tr.Target, ErrUnknownState)
		}
		if lca := lowestCommonAncestor(from, target); from != target && lca != nil && lca.kind == KindParallel {
			return nil, fmt.Errorf("machine %q: transition %q--%s-->%q: %w", cfg.ID, tr.From, tr.Event, tr.Target, ErrAmbiguousRegion)
		}
		key := transitionKey{from: tr.From, event: tr.Event}
		def.transitions[key] = append(def.transitions[key], tr)
	}

	return def, nil
}

// MustNew is New that panics on a build error. Use for statically known
// machine definitions.
func MustNew(cfg Config) *Definition {
	def, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return def
}

// ID returns the machine's config id.
func (d *Definition) ID() string {
	return d.id
}

// StateIDs returns all defined state ids. Order is unspecified.
func (d *Definition) StateIDs() []StateID {
	ids := make([]StateID, 0, len(d.states))
	for id := range d.states {
		ids = append(ids, id)
	}
	return ids
}

// compile links one StateSpec subtree into the definition.
func (d *Definition) compile(spec StateSpec, parent *state) (*state, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("machine %q: empty state id: %w", d.id, ErrUnknownState)
	}
	if _, exists := d.states[spec.ID]; exists {
		return nil, fmt.Errorf("machine %q: state %q: %w", d.id, spec.ID, ErrDuplicateState)
	}

	kind := spec.Kind
	if kind == KindSimple && len(spec.Children) > 0 {
		kind = KindComposite
	}

	st := &state{
		id:      spec.ID,
		kind:    kind,
		parent:  parent,
		depth:   parent.depth + 1,
		onEntry: spec.OnEntry,
		onExit:  spec.OnExit,
	}
	d.states[spec.ID] = st

	for _, childSpec := range spec.Children {
		child, err := d.compile(childSpec, st)
		if err != nil {
			return nil, err
		}
		st.children = append(st.children, child)
	}

	switch kind {
	case KindComposite:
		if len(st.children) == 0 {
			return nil, fmt.Errorf("machine %q: composite %q has no children: %w", d.id, spec.ID, ErrUnknownState)
		}
	case KindParallel:
		if len(st.children) < 2 {
			return nil, fmt.Errorf("machine %q: parallel %q needs at least two regions: %w", d.id, spec.ID, ErrUnknownState)
		}
	}

	return st, nil
}

// findSpec locates a StateSpec by id in a spec tree.
func findSpec(specs []StateSpec, id StateID) *StateSpec {
	for i := range specs {
		if specs[i].ID == id {
			return &specs[i]
		}
		if found := findSpec(specs[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

// lowestCommonAncestor walks both ancestor chains to the shared node.
// Returns nil when the only shared ancestor is the implicit root.
func lowestCommonAncestor(a, b *state) *state {
	for a.depth > b.depth {
		a = a.parent
	}
	for b.depth > a.depth {
		b = b.parent
	}
	for a != b {
		a = a.parent
		b = b.parent
	}
	if a == nil || a.depth == 0 {
		return nil
	}
	return a
}
