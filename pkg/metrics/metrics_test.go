package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func gatherCount(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	m.RecordCycle(250 * time.Microsecond)
	m.RecordBindingRuns(3)
	m.RecordDiff("visual")
	m.RecordApply(2, 1, true)
	m.RecordTransition()
	m.RecordCycleError()
	m.RecordBindingFailure()

	names := gatherCount(t, reg)
	want := []string{
		"tessera_engine_cycles_total",
		"tessera_engine_cycle_duration_seconds",
		"tessera_engine_cycle_errors_total",
		"tessera_engine_binding_runs_total",
		"tessera_engine_binding_failures_total",
		"tessera_engine_diffs_total",
		"tessera_engine_prop_updates_total",
		"tessera_engine_subtree_rebuilds_total",
		"tessera_engine_layout_passes_total",
		"tessera_engine_fsm_transitions_total",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestCustomNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("myapp"), WithSubsystem("ui"))
	m.RecordCycle(time.Millisecond)

	names := gatherCount(t, reg)
	if !names["myapp_ui_cycles_total"] {
		t.Errorf("expected myapp_ui_cycles_total to be registered, got %v", names)
	}
}

func TestNilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordCycle(time.Millisecond)
	m.RecordCycleError()
	m.RecordBindingRuns(5)
	m.RecordBindingFailure()
	m.RecordDiff("layout")
	m.RecordApply(1, 1, true)
	m.RecordTransition()
}
