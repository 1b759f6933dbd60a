package cmd

import (
	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/orchestrator"
)

var abortParams orchestrator.AbortParams

var abortCmd = &cobra.Command{
	Use:   "abort [branch-name]",
	Short: "Terminate a session's workflow without merging",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			abortParams.BranchName = args[0]
		}
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.Abort(cmd.Context(), abortParams)
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
	rootCmd.AddCommand(abortCmd)
	abortCmd.Flags().BoolVar(&abortParams.DeleteBranch, "delete-branch", false, "delete the branch locally and remotely")
	abortCmd.Flags().BoolVar(&abortParams.Force, "force", false, "leave uncommitted changes in the working tree instead of stashing them")
	abortCmd.Flags().BoolVar(&abortParams.Yes, "yes", false, "skip confirmation prompts")
}
