package cmd

import (
	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/orchestrator"
)

var commitParams orchestrator.CommitParams

var commitCmd = &cobra.Command{
	Use:   "commit [message]",
	Short: "Stage and commit the working tree onto the session's branch",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			commitParams.Message = args[0]
		}
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.Commit(cmd.Context(), commitParams)
		if err != nil {
			return err
		}
		return printResult(res, summary{
			Success: res.Success, BranchName: res.BranchName, State: res.State,
			Errors: res.Errors, Warnings: res.Warnings,
		})
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().BoolVar(&commitParams.StagedOnly, "staged-only", false, "commit only already-staged changes")
}
