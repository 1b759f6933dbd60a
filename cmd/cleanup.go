package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/orchestrator"
)

var cleanupParams orchestrator.CleanupParams

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove orphaned branches, expired sessions, and stale locks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.Cleanup(cmd.Context(), cleanupParams)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printResult(res, summary{Success: res.Success, Errors: res.Errors, Warnings: res.Warnings})
		}
		printHuman(summary{Success: res.Success, Errors: res.Errors, Warnings: res.Warnings})
		if report, ok := res.Data.(orchestrator.CleanupReport); ok {
			fmt.Printf("  orphaned branches: %d\n", len(report.OrphanedBranches))
			fmt.Printf("  deleted branches:  %d\n", len(report.DeletedBranches))
			fmt.Printf("  expired sessions:  %d\n", len(report.ExpiredSessions))
			fmt.Printf("  deleted sessions:  %d\n", len(report.DeletedSessions))
			fmt.Printf("  reclaimed locks:   %d\n", report.ReclaimedLocks)
		}
		if !res.Success {
			return fmt.Errorf("cleanup failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanupParams.DryRun, "dry-run", false, "report what would be removed without removing it")
	cleanupCmd.Flags().BoolVar(&cleanupParams.Yes, "yes", false, "skip confirmation prompts")
	cleanupCmd.Flags().IntVar(&cleanupParams.Days, "days", 30, "minimum age in days for a terminal session to be eligible")
}
