// Package cmd is trunkline's thin Cobra CLI over pkg/orchestrator
// (SPEC_FULL.md §2 expansion: "the ambient runnable entry point every
// teacher-style repo has"). It contains no orchestration logic of its
// own — every command loads config, constructs the port/store
// collaborators, calls one Orchestrator method, and prints the
// resulting ToolResult — grounded on the teacher's cmd/root.go +
// one-file-per-command layout.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgStateDir string
	verbose     bool
	jsonOutput  bool
)

// rootCmd is the base command when trunkline is called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "trunkline",
	Short: "Trunkline - Git workflow automation enforcing linear history",
	Long: `Trunkline drives a feature branch through its full lifecycle —
branch creation, commit, push, pull request, CI wait, squash-merge, and
cleanup — as a deterministic per-branch state machine, guaranteeing at
most one active workflow per branch and no reuse of a merged branch
name.`,
}

// Execute adds all child commands to rootCmd and runs it. Called once
// from main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgStateDir, "state-dir", "", "project-local state directory (default .trunkline under the repo root)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine-readable JSON results")
}

// initConfig wires TRUNKLINE_* environment overrides into viper ahead
// of each command's own config.Load call, mirroring the teacher's
// initConfig environment-prefix setup.
func initConfig() {
	viper.SetEnvPrefix("TRUNKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func printVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
