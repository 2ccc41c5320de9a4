package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessera-ui/tessera/pkg/binding"
	"github.com/tessera-ui/tessera/pkg/diff"
	"github.com/tessera-ui/tessera/pkg/element"
	"github.com/tessera-ui/tessera/pkg/fsm"
	"github.com/tessera-ui/tessera/pkg/reactive"
	"github.com/tessera-ui/tessera/pkg/recorder"
	"github.com/tessera-ui/tessera/pkg/runtime"
)

// profile shapes one synthetic workload.
type profile struct {
	Name     string
	Signals  int
	Bindings int
	Children int
	Cycles   int
}

var profiles = map[string]profile{
	"fast": {
		Name:     "fast",
		Signals:  100,
		Bindings: 20,
		Children: 20,
		Cycles:   1_000,
	},
	"standard": {
		Name:     "standard",
		Signals:  1_000,
		Bindings: 100,
		Children: 50,
		Cycles:   10_000,
	},
	"stress": {
		Name:     "stress",
		Signals:  10_000,
		Bindings: 500,
		Children: 200,
		Cycles:   50_000,
	},
}

func runCmd() *cobra.Command {
	var (
		profileName string
		workload    string
		recordDir   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one benchmark workload",
		Long: `Run one synthetic workload against a fresh engine.

Workloads:
  signals   batched signal writes through subscribed effects
  fsm       pointer event storms through button machines
  diff      child-list diffing with rotations, churn and moves
  full      end-to-end cycles: dispatch, bindings, diff, reconcile`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := profiles[profileName]
			if !ok {
				return fmt.Errorf("unknown profile %q (have: fast, standard, stress)", profileName)
			}
			switch workload {
			case "signals":
				return benchSignals(p)
			case "fsm":
				return benchFSM(p)
			case "diff":
				return benchDiff(p)
			case "full":
				return benchFull(p, recordDir)
			default:
				return fmt.Errorf("unknown workload %q (have: signals, fsm, diff, full)", workload)
			}
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "standard", "workload profile: fast, standard, stress")
	cmd.Flags().StringVarP(&workload, "workload", "w", "full", "workload: signals, fsm, diff, full")
	cmd.Flags().StringVar(&recordDir, "record", "", "export a session recording to this directory (full workload only)")
	return cmd
}

// benchSignals measures batched writes fanning out to effects.
func benchSignals(p profile) error {
	store := reactive.NewStore()

	signals := make([]reactive.Signal[int], p.Signals)
	for i := range signals {
		signals[i] = reactive.CreateSignal(store, 0)
	}

	var effectRuns int
	for _, sig := range signals {
		s := sig
		reactive.CreateEffect(store, func() error {
			s.Get()
			effectRuns++
			return nil
		})
	}
	effectRuns = 0

	start := time.Now()
	for cycle := 0; cycle < p.Cycles; cycle++ {
		store.Batch(func() {
			for _, sig := range signals {
				sig.Set(cycle)
			}
		})
	}
	elapsed := time.Since(start)

	writes := p.Cycles * p.Signals
	fmt.Printf("signals/%s: %d writes, %d effect runs in %s (%.0f writes/s)\n",
		p.Name, writes, effectRuns, elapsed.Round(time.Millisecond),
		float64(writes)/elapsed.Seconds())
	return nil
}

// benchFSM measures dispatch through a population of button machines.
func benchFSM(p profile) error {
	def, err := fsm.New(fsm.ButtonConfig("bench-button"))
	if err != nil {
		return err
	}

	instances := make([]*fsm.Instance, p.Bindings)
	for i := range instances {
		instances[i] = fsm.NewInstance(def)
	}

	storm := []string{
		fsm.EventPointerEnter,
		fsm.EventPointerDown,
		fsm.EventPointerUp,
		fsm.EventPointerLeave,
	}

	start := time.Now()
	fired := 0
	for cycle := 0; cycle < p.Cycles; cycle++ {
		ev := fsm.NewEvent(storm[cycle%len(storm)], nil)
		for _, inst := range instances {
			if inst.Dispatch(ev) {
				fired++
			}
		}
	}
	elapsed := time.Since(start)

	dispatches := p.Cycles * p.Bindings
	fmt.Printf("fsm/%s: %d dispatches, %d fired in %s (%.0f dispatches/s)\n",
		p.Name, dispatches, fired, elapsed.Round(time.Millisecond),
		float64(dispatches)/elapsed.Seconds())
	return nil
}

// benchDiff measures child-list diffing under rotation and churn.
func benchDiff(p profile) error {
	children := make([]element.Def, p.Children)
	for i := range children {
		d := element.New()
		d.Layout.Width = element.Px(float32(i + 1))
		children[i] = d
	}

	start := time.Now()
	var moved, added, removed int
	for cycle := 0; cycle < p.Cycles; cycle++ {
		// Rotate by one and replace one child per cycle.
		next := make([]element.Def, len(children))
		copy(next, children[1:])
		next[len(next)-1] = children[0]
		mutant := element.New()
		mutant.Layout.Width = element.Px(float32(p.Children + cycle))
		next[cycle%len(next)] = mutant

		for _, d := range diff.DiffChildren(children, next) {
			switch d.Op {
			case diff.ChildMoved:
				moved++
			case diff.ChildAdded:
				added++
			case diff.ChildRemoved:
				removed++
			}
		}
		children = next
	}
	elapsed := time.Since(start)

	comparisons := p.Cycles * p.Children
	fmt.Printf("diff/%s: %d children compared, moved=%d added=%d removed=%d in %s (%.0f children/s)\n",
		p.Name, comparisons, moved, added, removed, elapsed.Round(time.Millisecond),
		float64(comparisons)/elapsed.Seconds())
	return nil
}

// benchFull measures complete update cycles through a live engine.
func benchFull(p profile, recordDir string) error {
	ctx := context.Background()

	rec := recorder.New(recorder.WithCapacity(p.Cycles))
	engine := runtime.NewEngine(runtime.WithCycleObserver(rec.Observe))
	if _, err := engine.DefineFSM(fsm.ButtonConfig("button")); err != nil {
		return err
	}

	root := element.New()
	widths := make([]reactive.Signal[float32], p.Bindings)
	for i := 0; i < p.Bindings; i++ {
		widths[i] = reactive.CreateSignal(engine.Store(), float32(10))
		child := element.New()
		child.Key = fmt.Sprintf("node-%d", i)
		root.Children = append(root.Children, child)
	}
	engine.Mount(root)

	for i := 0; i < p.Bindings; i++ {
		key := fmt.Sprintf("node-%d", i)
		width := widths[i]
		eval := binding.EvaluatorFunc(func(config []fsm.StateID, deps []any) (element.Def, error) {
			d := element.New()
			d.Key = key
			d.Layout.Width = element.Px(deps[0].(float32))
			for _, st := range config {
				if st == fsm.StateHovered {
					d.Visual.Opacity = 0.8
				}
			}
			return d, nil
		})
		if _, err := engine.BindStateful(key, "button", []reactive.SignalID{width.ID()}, eval); err != nil {
			return err
		}
	}
	engine.Flush(ctx)

	if err := rec.Start(); err != nil {
		return err
	}

	start := time.Now()
	for cycle := 0; cycle < p.Cycles; cycle++ {
		target := fmt.Sprintf("node-%d", cycle%p.Bindings)
		switch cycle % 3 {
		case 0:
			engine.Dispatch(ctx, target, fsm.NewEvent(fsm.EventPointerEnter, nil))
		case 1:
			engine.Dispatch(ctx, target, fsm.NewEvent(fsm.EventPointerLeave, nil))
		default:
			c := cycle
			engine.Cycle(ctx, func() {
				widths[c%p.Bindings].Set(float32(10 + c%90))
			})
		}
		engine.TakeContentChanged()
	}
	elapsed := time.Since(start)

	session, err := rec.Stop()
	if err != nil {
		return err
	}

	fmt.Printf("full/%s: %d cycles over %d bindings in %s (%.0f cycles/s)\n",
		p.Name, p.Cycles, p.Bindings, elapsed.Round(time.Millisecond),
		float64(p.Cycles)/elapsed.Seconds())

	if recordDir != "" {
		store, err := recorder.NewDiskStore(recordDir)
		if err != nil {
			return err
		}
		path, err := store.Save(ctx, session)
		if err != nil {
			return err
		}
		fmt.Printf("session recording: %s (%d events)\n", path, len(session.Events))
	}
	return nil
}
