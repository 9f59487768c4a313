package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polymarket-arb",
	Short: "Polymarket cross-market opportunity scanner",
	Long: `A scanner that discovers risk-free opportunities across logically
related Polymarket markets: price-monotonicity violations, interval
partitions, exhaustive outcome sets, implications, equivalences, and
temporal reasoning, verified against venue order books before they are
reported.

The scanner fetches the current market catalog, parses numeric structure
out of market questions, clusters semantically related markets, consults
an LLM to classify logical relations between pairs, runs six opportunity
strategies over the result, and validates every candidate through a
six-layer pipeline before it is accepted into a scan report.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
