package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasksync/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

var eventPath string

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Mirror the issue from a GitHub issues event into Notion",
	Long: `Reads the GitHub issues event payload named by GITHUB_EVENT_PATH (or --event-path)
and creates or updates the paired Notion task. Events without an issue are a no-op.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rc, err := prepare(ctx, cmd, true)
		if err != nil {
			return err
		}

		event, err := webhook.ReadEventFile(rc.cfg.EventPath)
		if err != nil && !errors.Is(err, tracking.ErrNothingToSync) {
			return err
		}
		if err != nil {
			event = nil
		}

		report, err := rc.services.Sync.RunEvent(ctx, event)
		return rc.finish(cmd, report, err)
	},
}

func init() {
	eventCmd.Flags().StringVar(&eventPath, "event-path", "", "path to the event payload (overrides GITHUB_EVENT_PATH)")
	RootCmd.AddCommand(eventCmd)
}
