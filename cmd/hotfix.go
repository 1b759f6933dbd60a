package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/orchestrator"
)

var hotfixParams orchestrator.HotfixParams

var hotfixCmd = &cobra.Command{
	Use:   "hotfix [branch-name]",
	Short: "Drive a hotfix branch from creation through HOTFIX_COMPLETE",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			hotfixParams.BranchName = args[0]
		}
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.Hotfix(cmd.Context(), hotfixParams)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printResult(res, summary{
				Success: res.Success, BranchName: res.BranchName, State: res.State,
				Errors: res.Errors, Warnings: res.Warnings,
			})
		}
		printHuman(summary{
			Success: res.Success, BranchName: res.BranchName, State: res.State,
			Errors: res.Errors, Warnings: res.Warnings,
		})
		if res.PRURL != "" {
			fmt.Printf("  pr:     #%d %s\n", res.PRNumber, res.PRURL)
		}
		if !res.Success {
			return fmt.Errorf("hotfix failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hotfixCmd)
	hotfixCmd.Flags().StringVar(&hotfixParams.Description, "description", "", "description used to slugify a branch name when none is given")
	hotfixCmd.Flags().BoolVar(&hotfixParams.Force, "force", false, "launch past a dirty working tree")
	hotfixCmd.Flags().StringVar(&hotfixParams.PRDescription, "pr-description", "", "pull request body")
}
