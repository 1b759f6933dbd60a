package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"trunkline.dev/trunkline/pkg/config"
)

var (
	initOwner  string
	initRepo   string
	initRemote string
)

// initCmd writes config.yaml under the project-local state directory,
// the gate config.Load checks before any other command can run
// (spec.md §6/§7: ErrNotInitialized).
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config.yaml for this repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if initOwner == "" || initRepo == "" {
			return fmt.Errorf("--owner and --repo are required")
		}
		repoRoot, err := findRepoRoot()
		if err != nil {
			return err
		}
		stateDir, err := resolveStateDir(repoRoot)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(stateDir, 0700); err != nil {
			return err
		}

		doc := map[string]any{
			"git": map[string]any{
				"main_branch": "main",
				"remote":      initRemote,
			},
			"forge": map[string]any{
				"kind":                   string(config.ForgeGitHub),
				"owner":                  initOwner,
				"repo":                   initRepo,
				"auth_method":            "token",
				"default_merge_method":   "squash",
				"delete_branch_on_merge": true,
			},
		}
		data, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		path := filepath.Join(stateDir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initOwner, "owner", "", "forge organization/user that owns the repository")
	initCmd.Flags().StringVar(&initRepo, "repo", "", "repository name")
	initCmd.Flags().StringVar(&initRemote, "remote", "origin", "git remote name")
}
