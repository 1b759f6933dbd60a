package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/orchestrator"
)

var statusParams orchestrator.StatusParams

var statusCmd = &cobra.Command{
	Use:   "status [branch-name]",
	Short: "Report the full state of one session (read-only)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			statusParams.BranchName = args[0]
		}
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.Status(cmd.Context(), statusParams)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printResult(res, summary{Success: res.Success, Errors: res.Errors, Warnings: res.Warnings})
		}
		if report, ok := res.Data.(orchestrator.StatusReport); ok && report.Session != nil {
			fmt.Printf("branch: %s\n", report.Session.BranchName)
			fmt.Printf("type:   %s\n", report.Session.WorkflowType)
			fmt.Printf("state:  %s\n", report.Session.CurrentState)
			fmt.Printf("events: %d\n", len(report.History))
		} else if res.Message != "" {
			fmt.Println(res.Message)
		}
		if !res.Success {
			return fmt.Errorf("status failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
