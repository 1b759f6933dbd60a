package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/orchestrator"
	"trunkline.dev/trunkline/pkg/session"
)

var sessionsParams orchestrator.SessionsParams

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List every known workflow session (read-only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.ListSessions(cmd.Context(), sessionsParams)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printResult(res, summary{Success: res.Success, Errors: res.Errors})
		}
		if list, ok := res.Data.([]*session.WorkflowSession); ok {
			for _, s := range list {
				fmt.Printf("%-10s  %-24s  %s\n", s.WorkflowType, s.BranchName, s.CurrentState)
			}
			if len(list) == 0 {
				fmt.Println("no sessions")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.Flags().BoolVar(&sessionsParams.IncludeTerminal, "all", false, "include terminal (completed/aborted) sessions")
}
