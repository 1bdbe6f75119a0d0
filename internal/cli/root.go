// Package cli implements the attest command-line interface using Cobra.
// Each subcommand maps to a node capability (serve, status, review).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attest",
	Short: "attest — Verifiable AI execution protocol node",
	Long: `attest runs the verifiable-execution protocol core:
commit-reveal commitments for off-chain AI jobs, failure tracking with
agent suspension, and the fallback decision engine that degrades
gracefully when proofs cannot be produced.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
