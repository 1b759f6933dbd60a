package cmd

import (
	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/orchestrator"
)

var launchParams orchestrator.LaunchParams

var launchCmd = &cobra.Command{
	Use:   "launch [branch-name]",
	Short: "Create a feature branch and its backing session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			launchParams.BranchName = args[0]
		}
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.Launch(cmd.Context(), launchParams)
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
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().StringVar(&launchParams.Description, "description", "", "description used to slugify a branch name when none is given")
	launchCmd.Flags().BoolVar(&launchParams.Force, "force", false, "launch past a dirty working tree")
	launchCmd.Flags().StringVar(&launchParams.StashRef, "stash-ref", "", "stash reference to reapply onto the new branch")
}
