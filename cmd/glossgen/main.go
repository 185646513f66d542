// Package main implements the glossgen CLI: enrichment runs, QA gate
// runs and the long-running serve mode.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexcraftlabs/glossgen/internal/telemetry"
)

// Build information, set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

func main() {
	telemetry.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "glossgen",
	Short: "Validation and retry engine for generated language-learning content",
	Long: `glossgen turns raw seed items into validated learning items and gates
generated content batches before publication.

The enrich command drives per-item generation with self-correcting
retries; the gate command runs batch-wide consistency checks and writes
a validation report; serve watches a seed drop directory and exposes
reports over HTTP.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print detailed version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("glossgen %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
