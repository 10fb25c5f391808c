package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeport/sf2github/internal/config"
	"github.com/forgeport/sf2github/internal/github"
	"github.com/forgeport/sf2github/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify GitHub credentials and repository access",
	Long: `Check loads the configuration, authenticates against the GitHub API,
and fetches the destination repository. Run it before a migration to catch
bad tokens or repository names without touching any issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo)
		repo, err := client.CheckAuth(cmd.Context())
		if err != nil {
			return fmt.Errorf("authentication check failed: %w", err)
		}

		fmt.Println(ui.RenderOK(fmt.Sprintf("authenticated; repository %s is reachable", repo.FullName)))
		if repo.Permissions != nil && !repo.Permissions.Push {
			fmt.Println(ui.RenderFail("warning: token has no push access; issue writes will fail"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
