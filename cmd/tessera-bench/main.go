// Command tessera-bench exercises the update engine with synthetic
// workloads and reports throughput, queue and latency figures.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tessera-bench",
		Short: "Benchmark harness for the tessera update engine",
		Long: `tessera-bench drives the reactive update engine with synthetic
workloads: raw signal writes, state machine dispatch storms, child
diffing over large lists and full end-to-end update cycles. Each
workload reports throughput and per-cycle work so regressions in the
hot paths show up as numbers, not vibes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tessera-bench %s (%s)\n", version, commit)
		},
	}
}
