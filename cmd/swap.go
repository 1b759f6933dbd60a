package cmd

import (
	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/orchestrator"
)

var swapParams orchestrator.SwapParams

var swapCmd = &cobra.Command{
	Use:   "swap <branch-name>",
	Short: "Switch the working tree to another session's branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		swapParams.BranchName = args[0]
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.Swap(cmd.Context(), swapParams)
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
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().BoolVar(&swapParams.Force, "force", false, "proceed past failing pre-flight checks and swap with uncommitted changes left unstashed")
	swapCmd.Flags().BoolVar(&swapParams.Stash, "stash", false, "stash uncommitted changes before swapping")
}
