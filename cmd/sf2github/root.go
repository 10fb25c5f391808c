package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeport/sf2github/internal/config"
	"github.com/forgeport/sf2github/internal/github"
	"github.com/forgeport/sf2github/internal/migrate"
	"github.com/forgeport/sf2github/internal/sourceforge"
	"github.com/forgeport/sf2github/internal/ui"
)

var (
	configPath string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "sf2github <dump.json>",
	Short: "Migrate a Sourceforge tracker export into GitHub issues",
	Long: `sf2github reads a Sourceforge project export (JSON dump of tickets,
comments, and attachments) and reconciles it against a GitHub repository's
issue tracker: missing issues and comments are created, and state, labels,
milestone, and assignee are updated to match the source data.

Runs are idempotent. Every issue the tool creates carries a header
blockquote embedding the Sourceforge ticket ID; on later runs that header
is how its own issues are recognized, so re-running after a failure (or
with a fresh export) only applies what is missing. Issues without the
header are never touched.

Configuration lives in sf2github.yaml (see --config); the GitHub token can
also come from the SF2GITHUB_GITHUB_TOKEN environment variable.

Examples:
  sf2github export.json                 # migrate
  sf2github --dry-run export.json       # show what would change
  sf2github check                       # verify credentials and access`,
	Args:          cobra.ExactArgs(1),
	RunE:          runMigrate,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: sf2github.yaml in the working directory)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log planned changes without calling mutating GitHub endpoints")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	// Arguments validated; from here on failures are runtime errors and
	// repeating the usage text would only bury them.
	cmd.SilenceUsage = true

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tickets, err := sourceforge.LoadDump(args[0])
	if err != nil {
		return err
	}
	fmt.Println(ui.RenderMuted(fmt.Sprintf("loaded %d tickets from %s", len(tickets), args[0])))

	client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo).
		WithMutationDelay(cfg.MutationDelay)

	engine := &migrate.Engine{
		Gateway: client,
		Config:  cfg,
		DryRun:  dryRun,
		OnMessage: func(msg string) {
			fmt.Println(ui.RenderAction(msg))
		},
	}

	result, err := engine.Run(cmd.Context(), tickets)
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

func printSummary(result *migrate.Result) {
	verb := "applied"
	if dryRun {
		verb = "planned"
	}

	fmt.Println(ui.HeaderStyle.Render("Migration summary"))
	fmt.Printf("  issues created:     %d\n", result.IssuesCreated)
	fmt.Printf("  comments created:   %d\n", result.CommentsCreated)
	fmt.Printf("  milestones created: %d\n", result.MilestonesCreated)
	fmt.Printf("  state updates:      %d\n", result.StateUpdates)
	fmt.Printf("  label updates:      %d\n", result.LabelUpdates)
	fmt.Printf("  milestone updates:  %d\n", result.MilestoneUpdates)
	fmt.Printf("  assignee updates:   %d\n", result.AssigneeUpdates)
	if result.Unmanaged > 0 {
		fmt.Println(ui.RenderMuted(fmt.Sprintf("  skipped %d issues without a migration header", result.Unmanaged)))
	}
	if result.Mutations() == 0 {
		fmt.Println(ui.RenderOK("  already converged, nothing to do"))
	} else {
		fmt.Println(ui.RenderOK(fmt.Sprintf("  %s %d changes", verb, result.Mutations())))
	}
}
