package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessera-ui/tessera/pkg/binding"
	"github.com/tessera-ui/tessera/pkg/element"
	"github.com/tessera-ui/tessera/pkg/fsm"
	"github.com/tessera-ui/tessera/pkg/inspector"
	"github.com/tessera-ui/tessera/pkg/metrics"
	"github.com/tessera-ui/tessera/pkg/reactive"
	"github.com/tessera-ui/tessera/pkg/runtime"
)

func serveCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a self-ticking engine with the inspector attached",
		Long: `Run an engine driven by a synthetic clock and expose the debug
inspector: /healthz, /stats, /fsm, /metrics and the /live WebSocket
feed of cycle summaries. Useful for poking at a live engine with curl
or a debugger UI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), addr, interval)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:6060", "listen address for the inspector")
	cmd.Flags().DurationVar(&interval, "interval", 16*time.Millisecond, "synthetic clock interval")
	return cmd
}

func serve(ctx context.Context, addr string, interval time.Duration) error {
	m := metrics.New()

	// The inspector needs the engine and the engine's observer needs
	// the inspector; forward through the pointer.
	var insp *inspector.Inspector
	engine := runtime.NewEngine(
		runtime.WithMetrics(m),
		runtime.WithCycleObserver(func(info runtime.CycleInfo) {
			if insp != nil {
				insp.Observe(info)
			}
		}),
	)
	insp = inspector.New(engine)

	if _, err := engine.DefineFSM(fsm.ButtonConfig("button")); err != nil {
		return err
	}

	tick := reactive.CreateSignal(engine.Store(), float32(0))
	root := element.New()
	child := element.New()
	child.Key = "clock"
	root.Children = []element.Def{child}
	engine.Mount(root)

	eval := binding.EvaluatorFunc(func(config []fsm.StateID, deps []any) (element.Def, error) {
		d := element.New()
		d.Key = "clock"
		d.Layout.Width = element.Px(100 + deps[0].(float32))
		return d, nil
	})
	if _, err := engine.BindStateful("clock", "button", []reactive.SignalID{tick.ID()}, eval); err != nil {
		return err
	}
	engine.Flush(ctx)

	// Synthetic animation source: one write per tick, like a clock
	// sampling spring values into a signal.
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		phase := float32(0)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				phase += 1
				if phase > 100 {
					phase = 0
				}
				engine.Cycle(ctx, func() { tick.Set(phase) })
			}
		}
	}()

	fmt.Printf("inspector listening on http://%s\n", addr)
	srv := &http.Server{Addr: addr, Handler: insp.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
