package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/tessera-ui/tessera/pkg/binding"
	"github.com/tessera-ui/tessera/pkg/element"
	"github.com/tessera-ui/tessera/pkg/fsm"
	"github.com/tessera-ui/tessera/pkg/reactive"
	"github.com/tessera-ui/tessera/pkg/reconcile"
)

type countingLayout struct {
	applies  int
	rebuilds int
	passes   int
}

func (l *countingLayout) ApplyProps(reconcile.NodeID, *element.Def) error { l.applies++; return nil }
func (l *countingLayout) RebuildSubtree(reconcile.NodeID, reconcile.NodeID, *element.Def) error {
	l.rebuilds++
	return nil
}
func (l *countingLayout) InvalidateLayout(reconcile.NodeID) {}
func (l *countingLayout) ComputeLayout()                    { l.passes++ }

// buttonDef renders a keyed box whose background follows the machine
// state and whose width follows the first dependency.
func buttonDef(key string, config []fsm.StateID, deps []any) element.Def {
	d := element.New()
	d.Key = key
	if len(deps) > 0 {
		if w, ok := deps[0].(float32); ok {
			d.Layout.Width = element.Px(w)
		}
	}
	for _, st := range config {
		if st == fsm.StateHovered {
			d.Visual.Background = element.RGB(0.9, 0.9, 1)
		}
	}
	return d
}

func newTestEngine(t *testing.T) (*Engine, *countingLayout) {
	t.Helper()
	layout := &countingLayout{}
	e := NewEngine(WithLayout(layout))
	if _, err := e.DefineFSM(fsm.ButtonConfig("button")); err != nil {
		t.Fatalf("DefineFSM failed: %v", err)
	}
	return e, layout
}

func mountButton(t *testing.T, e *Engine, key string, deps []reactive.SignalID) {
	t.Helper()
	root := element.New()
	root.Children = []element.Def{buttonDef(key, []fsm.StateID{fsm.StateIdle}, nil)}
	e.Mount(root)

	eval := binding.EvaluatorFunc(func(config []fsm.StateID, depVals []any) (element.Def, error) {
		return buttonDef(key, config, depVals), nil
	})
	if _, err := e.BindStateful(key, "button", deps, eval); err != nil {
		t.Fatalf("BindStateful failed: %v", err)
	}
}

func TestDispatchUpdatesVisualProps(t *testing.T) {
	e, layout := newTestEngine(t)
	mountButton(t, e, "btn", nil)
	e.Flush(context.Background())

	fired := e.Dispatch(context.Background(), "btn", fsm.NewEvent(fsm.EventPointerEnter, nil))
	if !fired {
		t.Fatal("pointer_enter should fire from idle")
	}
	if layout.applies != 1 {
		t.Errorf("hover should apply props once, got %d", layout.applies)
	}
	if layout.passes != 0 {
		t.Error("hover is visual-only, no layout pass expected")
	}
	if !e.TakeContentChanged() {
		t.Error("content-changed latch should be set")
	}

	nodeID, ok := e.Tree().FindByKey("btn")
	if !ok {
		t.Fatal("bound node missing from tree")
	}
	node, _ := e.Tree().Get(nodeID)
	if node.Def.Visual.Background != element.RGB(0.9, 0.9, 1) {
		t.Error("stored props should reflect the hovered state")
	}
}

func TestUnmatchedDispatchIsQuiet(t *testing.T) {
	e, layout := newTestEngine(t)
	mountButton(t, e, "btn", nil)
	e.Flush(context.Background())

	if e.Dispatch(context.Background(), "btn", fsm.NewEvent(fsm.EventPointerUp, nil)) {
		t.Error("pointer_up in idle should not fire")
	}
	if layout.applies != 0 {
		t.Error("no-op dispatch must not apply props")
	}
	if e.TakeContentChanged() {
		t.Error("no-op dispatch must not set the latch")
	}
}

func TestCycleCoalescesWrites(t *testing.T) {
	e, layout := newTestEngine(t)
	width := reactive.CreateSignal(e.Store(), float32(100))
	mountButton(t, e, "btn", []reactive.SignalID{width.ID()})
	e.Flush(context.Background())
	appliesBefore := layout.applies

	e.Cycle(context.Background(), func() {
		width.Set(120)
		width.Set(140)
		width.Set(160)
	})

	if layout.applies != appliesBefore+1 {
		t.Errorf("three writes should coalesce to one apply, got %d extra", layout.applies-appliesBefore)
	}
	if layout.passes == 0 {
		t.Error("width change should trigger a layout pass")
	}
	nodeID, _ := e.Tree().FindByKey("btn")
	node, _ := e.Tree().Get(nodeID)
	if node.Def.Layout.Width != element.Px(160) {
		t.Errorf("node should observe the last write, got %+v", node.Def.Layout.Width)
	}
}

func TestInitialEvaluationSettlesAgainstMountedDef(t *testing.T) {
	e, _ := newTestEngine(t)
	width := reactive.CreateSignal(e.Store(), float32(100))
	mountButton(t, e, "btn", []reactive.SignalID{width.ID()})

	// The mounted def has no width; the first evaluation supplies it.
	e.Flush(context.Background())
	nodeID, _ := e.Tree().FindByKey("btn")
	node, _ := e.Tree().Get(nodeID)
	if node.Def.Layout.Width != element.Px(100) {
		t.Errorf("first evaluation should reconcile into the tree, got %+v", node.Def.Layout.Width)
	}
}

func TestFailingBindingDoesNotHaltOthers(t *testing.T) {
	var diags []error
	layout := &countingLayout{}
	e := NewEngine(WithLayout(layout), WithDiagnostic(func(err error) { diags = append(diags, err) }))
	if _, err := e.DefineFSM(fsm.ButtonConfig("button")); err != nil {
		t.Fatalf("DefineFSM failed: %v", err)
	}

	root := element.New()
	root.Children = []element.Def{
		buttonDef("bad", []fsm.StateID{fsm.StateIdle}, nil),
		buttonDef("good", []fsm.StateID{fsm.StateIdle}, nil),
	}
	e.Mount(root)

	width := reactive.CreateSignal(e.Store(), float32(10))
	deps := []reactive.SignalID{width.ID()}

	failing := binding.EvaluatorFunc(func([]fsm.StateID, []any) (element.Def, error) {
		return element.Def{}, errors.New("broken evaluator")
	})
	good := binding.EvaluatorFunc(func(config []fsm.StateID, depVals []any) (element.Def, error) {
		return buttonDef("good", config, depVals), nil
	})
	if _, err := e.BindStateful("bad", "button", deps, failing); err != nil {
		t.Fatalf("BindStateful failed: %v", err)
	}
	if _, err := e.BindStateful("good", "button", deps, good); err != nil {
		t.Fatalf("BindStateful failed: %v", err)
	}

	e.Flush(context.Background())
	if len(diags) == 0 {
		t.Error("failing binding should be reported")
	}

	e.Cycle(context.Background(), func() { width.Set(50) })
	nodeID, _ := e.Tree().FindByKey("good")
	node, _ := e.Tree().Get(nodeID)
	if node.Def.Layout.Width != element.Px(50) {
		t.Error("healthy binding should keep updating despite a failing sibling")
	}
}

func TestPanickingCycleIsContained(t *testing.T) {
	var diags []error
	e := NewEngine(WithDiagnostic(func(err error) { diags = append(diags, err) }))
	if _, err := e.DefineFSM(fsm.ButtonConfig("button")); err != nil {
		t.Fatalf("DefineFSM failed: %v", err)
	}
	root := element.New()
	root.Children = []element.Def{buttonDef("btn", []fsm.StateID{fsm.StateIdle}, nil)}
	e.Mount(root)

	boom := binding.EvaluatorFunc(func([]fsm.StateID, []any) (element.Def, error) {
		panic("evaluator exploded")
	})
	if _, err := e.BindStateful("btn", "button", nil, boom); err != nil {
		t.Fatalf("BindStateful failed: %v", err)
	}

	e.Flush(context.Background())
	if len(diags) == 0 {
		t.Error("panic should be caught and reported at the cycle boundary")
	}

	// The engine keeps serving cycles afterwards.
	e.Flush(context.Background())
}

func TestUndefinedMachineRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.BindStateful("x", "nope", nil, binding.EvaluatorFunc(
		func([]fsm.StateID, []any) (element.Def, error) { return element.New(), nil },
	))
	if err == nil {
		t.Error("binding to an undefined machine should fail")
	}
}

func TestDrainsReturnAppliedWork(t *testing.T) {
	e, _ := newTestEngine(t)
	mountButton(t, e, "btn", nil)
	e.Flush(context.Background())
	e.DrainPropUpdates()
	e.DrainSubtreeRebuilds()

	if !e.Dispatch(context.Background(), "btn", fsm.NewEvent(fsm.EventPointerEnter, nil)) {
		t.Fatal("pointer_enter should fire from idle")
	}

	nodeID, _ := e.Tree().FindByKey("btn")
	updates := e.DrainPropUpdates()
	if len(updates) != 1 {
		t.Fatalf("hover cycle should hand off one prop update, got %d", len(updates))
	}
	if updates[0].Node != nodeID {
		t.Errorf("update targets node %d, want %d", updates[0].Node, nodeID)
	}
	if updates[0].Visual.Background != element.RGB(0.9, 0.9, 1) {
		t.Error("update should carry the hovered background")
	}
	if again := e.DrainPropUpdates(); len(again) != 0 {
		t.Errorf("second drain must be empty, got %d", len(again))
	}
	if rebuilds := e.DrainSubtreeRebuilds(); len(rebuilds) != 0 {
		t.Errorf("visual change should not hand off rebuilds, got %d", len(rebuilds))
	}
}

func TestCycleObserver(t *testing.T) {
	var infos []CycleInfo
	e := NewEngine(WithCycleObserver(func(info CycleInfo) { infos = append(infos, info) }))
	e.Flush(context.Background())
	e.Flush(context.Background())

	if len(infos) != 2 {
		t.Fatalf("expected 2 cycle infos, got %d", len(infos))
	}
	if infos[0].Seq != 1 || infos[1].Seq != 2 {
		t.Errorf("cycle sequence should advance: %+v", infos)
	}
	if e.CycleCount() != 2 {
		t.Errorf("expected 2 cycles, got %d", e.CycleCount())
	}
}
