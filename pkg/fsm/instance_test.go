package fsm

import (
	"reflect"
	"testing"
)

func TestButtonPointerSequence(t *testing.T) {
	inst := NewInstance(MustNew(ButtonConfig("button")))

	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{StateIdle}) {
		t.Fatalf("expected [idle], got %v", got)
	}

	for _, ev := range []string{EventPointerEnter, EventPointerDown, EventPointerUp} {
		if !inst.Dispatch(Event{Type: ev}) {
			t.Fatalf("event %q did not fire", ev)
		}
	}
	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{StateHovered}) {
		t.Errorf("expected [hovered] after enter/down/up, got %v", got)
	}
}

func TestUnmatchedEventIsNoOp(t *testing.T) {
	inst := NewInstance(MustNew(ButtonConfig("button")))
	if inst.Dispatch(Event{Type: EventPointerUp}) {
		t.Error("pointer_up in idle should not fire")
	}
	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{StateIdle}) {
		t.Errorf("configuration changed on unmatched event: %v", got)
	}
}

func TestGuardBlocksTransition(t *testing.T) {
	allow := false
	inst := NewInstance(MustNew(Config{
		ID:      "guarded",
		Initial: "a",
		States:  []StateSpec{{ID: "a"}, {ID: "b"}},
		Transitions: []TransitionSpec{
			{From: "a", Event: "go", Target: "b", Guard: func(Event) bool { return allow }},
		},
	}))

	if inst.Dispatch(Event{Type: "go"}) {
		t.Error("guard returning false should block the transition")
	}
	allow = true
	if !inst.Dispatch(Event{Type: "go"}) {
		t.Error("guard returning true should allow the transition")
	}
	if !inst.In("b") {
		t.Errorf("expected state b, got %v", inst.Configuration())
	}
}

func TestGuardReceivesEventData(t *testing.T) {
	inst := NewInstance(MustNew(Config{
		ID:      "payload",
		Initial: "a",
		States:  []StateSpec{{ID: "a"}, {ID: "b"}},
		Transitions: []TransitionSpec{
			{From: "a", Event: "go", Target: "b", Guard: func(ev Event) bool {
				n, ok := ev.Data.(int)
				return ok && n > 10
			}},
		},
	}))

	if inst.Dispatch(NewEvent("go", 5)) {
		t.Error("payload 5 should not pass the guard")
	}
	if !inst.Dispatch(NewEvent("go", 11)) {
		t.Error("payload 11 should pass the guard")
	}
}

func TestEntryExitOrdering(t *testing.T) {
	var log []string
	record := func(name string) Action {
		return func(Event) { log = append(log, name) }
	}

	inst := NewInstance(MustNew(Config{
		ID:      "ordered",
		Initial: "outer",
		States: []StateSpec{
			{ID: "outer", Initial: "inner", OnEntry: record("enter outer"), OnExit: record("exit outer"),
				Children: []StateSpec{
					{ID: "inner", OnEntry: record("enter inner"), OnExit: record("exit inner")},
				}},
			{ID: "other", OnEntry: record("enter other")},
		},
		Transitions: []TransitionSpec{
			{From: "inner", Event: "leave", Target: "other"},
		},
	}))

	want := []string{"enter outer", "enter inner"}
	if !reflect.DeepEqual(log, want) {
		t.Fatalf("initial entry order: got %v, want %v", log, want)
	}

	log = nil
	inst.Dispatch(Event{Type: "leave"})
	want = []string{"exit inner", "exit outer", "enter other"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("transition order: got %v, want %v", log, want)
	}
}

func TestInnermostTransitionWins(t *testing.T) {
	inst := NewInstance(MustNew(Config{
		ID:      "shadow",
		Initial: "outer",
		States: []StateSpec{
			{ID: "outer", Children: []StateSpec{{ID: "inner"}, {ID: "sibling"}}},
			{ID: "elsewhere"},
		},
		Transitions: []TransitionSpec{
			{From: "outer", Event: "go", Target: "elsewhere"},
			{From: "inner", Event: "go", Target: "sibling"},
		},
	}))

	inst.Dispatch(Event{Type: "go"})
	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{"sibling"}) {
		t.Errorf("inner transition should shadow outer: got %v", got)
	}
}

func TestAncestorTransitionFiresFromLeaf(t *testing.T) {
	inst := NewInstance(MustNew(Config{
		ID:      "bubble",
		Initial: "outer",
		States: []StateSpec{
			{ID: "outer", Children: []StateSpec{{ID: "inner"}}},
			{ID: "elsewhere"},
		},
		Transitions: []TransitionSpec{
			{From: "outer", Event: "go", Target: "elsewhere"},
		},
	}))

	if !inst.Dispatch(Event{Type: "go"}) {
		t.Fatal("ancestor transition should fire from active leaf")
	}
	if !inst.In("elsewhere") {
		t.Errorf("expected elsewhere, got %v", inst.Configuration())
	}
}

func TestParallelRegionsAreIndependent(t *testing.T) {
	cfg := Config{
		ID:      "para",
		Initial: "p",
		States: []StateSpec{
			{ID: "p", Kind: KindParallel, Children: []StateSpec{
				{ID: "r1", Children: []StateSpec{{ID: "a1"}, {ID: "a2"}}},
				{ID: "r2", Children: []StateSpec{{ID: "b1"}, {ID: "b2"}}},
			}},
		},
		Transitions: []TransitionSpec{
			{From: "a1", Event: "advance_a", Target: "a2"},
			{From: "b1", Event: "advance_b", Target: "b2"},
		},
	}
	inst := NewInstance(MustNew(cfg))

	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{"a1", "b1"}) {
		t.Fatalf("expected [a1 b1], got %v", got)
	}

	inst.Dispatch(Event{Type: "advance_a"})
	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{"a2", "b1"}) {
		t.Errorf("advancing region 1 must not disturb region 2: got %v", got)
	}

	inst.Dispatch(Event{Type: "advance_b"})
	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{"a2", "b2"}) {
		t.Errorf("expected [a2 b2], got %v", got)
	}
}

func TestParallelRegionsShareEvent(t *testing.T) {
	inst := NewInstance(MustNew(Config{
		ID:      "shared",
		Initial: "p",
		States: []StateSpec{
			{ID: "p", Kind: KindParallel, Children: []StateSpec{
				{ID: "r1", Children: []StateSpec{{ID: "a1"}, {ID: "a2"}}},
				{ID: "r2", Children: []StateSpec{{ID: "b1"}, {ID: "b2"}}},
			}},
		},
		Transitions: []TransitionSpec{
			{From: "a1", Event: "tick", Target: "a2"},
			{From: "b1", Event: "tick", Target: "b2"},
		},
	}))

	inst.Dispatch(Event{Type: "tick"})
	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{"a2", "b2"}) {
		t.Errorf("both regions should react to the same event: got %v", got)
	}
}

func TestExitingParallelStateClearsAllRegions(t *testing.T) {
	inst := NewInstance(MustNew(Config{
		ID:      "teardown",
		Initial: "p",
		States: []StateSpec{
			{ID: "p", Kind: KindParallel, Children: []StateSpec{
				{ID: "r1", Children: []StateSpec{{ID: "a1"}}},
				{ID: "r2", Children: []StateSpec{{ID: "b1"}}},
			}},
			{ID: "done"},
		},
		Transitions: []TransitionSpec{
			{From: "p", Event: "stop", Target: "done"},
		},
	}))

	inst.Dispatch(Event{Type: "stop"})
	if got := inst.Configuration(); !reflect.DeepEqual(got, []StateID{"done"}) {
		t.Errorf("expected [done], got %v", got)
	}
}

func TestInReportsAncestors(t *testing.T) {
	inst := NewInstance(MustNew(Config{
		ID:      "m",
		Initial: "outer",
		States: []StateSpec{
			{ID: "outer", Children: []StateSpec{{ID: "inner"}}},
		},
	}))

	if !inst.In("inner") {
		t.Error("leaf state should be active")
	}
	if !inst.In("outer") {
		t.Error("ancestor of active leaf should be active")
	}
	if inst.In("missing") {
		t.Error("unknown state must not report active")
	}
}

func TestToggleRoundTrip(t *testing.T) {
	inst := NewInstance(MustNew(ToggleConfig("toggle")))
	inst.Dispatch(NewEvent(EventToggle, nil))
	if !inst.In(StateOn) {
		t.Errorf("expected on, got %v", inst.Configuration())
	}
	inst.Dispatch(NewEvent(EventToggle, nil))
	if !inst.In(StateOff) {
		t.Errorf("expected off, got %v", inst.Configuration())
	}
}

func TestCheckboxMixedResolvesToChecked(t *testing.T) {
	inst := NewInstance(MustNew(CheckboxConfig("checkbox")))
	inst.Dispatch(NewEvent(EventSetMixed, nil))
	if !inst.In(StateMixed) {
		t.Fatalf("expected mixed, got %v", inst.Configuration())
	}
	inst.Dispatch(NewEvent(EventToggle, nil))
	if !inst.In(StateChecked) {
		t.Errorf("toggling from mixed should check: got %v", inst.Configuration())
	}
}
