package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trunkline.dev/trunkline/pkg/forgeport"
	"trunkline.dev/trunkline/pkg/orchestrator"
	"trunkline.dev/trunkline/pkg/tlerrors"
)

var shipParams orchestrator.ShipParams

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Commit, push, open a PR, wait for CI, squash-merge, and clean up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shipParams.OnProgress = func(status forgeport.CheckStatus) {
			if verbose {
				fmt.Fprintf(os.Stderr, "ci: passed=%v pending=%d failed=%d\n",
					status.Passed, status.Pending, status.Failed)
			}
		}
		h, err := buildHarness(cmd.Context())
		if err != nil {
			return err
		}
		res, err := h.Orch.Ship(cmd.Context(), shipParams)
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
		if res.Merged {
			fmt.Println("  merged: yes")
		}
		if !res.Success {
			if len(res.Errors) > 0 {
				return tlerrors.New(res.Errors[0])
			}
			return tlerrors.New("ship failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shipCmd)
	shipCmd.Flags().StringVar(&shipParams.PRDescription, "description", "", "pull request body (AI-drafted when omitted and configured)")
	shipCmd.Flags().BoolVar(&shipParams.Force, "force", false, "proceed past failing pre-flight checks, reporting them as warnings")
	shipCmd.Flags().BoolVar(&shipParams.Yes, "yes", false, "skip confirmation prompts")
}
