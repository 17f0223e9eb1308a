package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasksync/pkg/application"
)

var (
	pushLimit  int
	closeLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Open issues for new tasks, then close issues of finished tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, application.BatchOptions{})
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Open a GitHub issue for each Notion task that has none",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, application.BatchOptions{SkipClose: true})
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the GitHub issues of tasks that are Done or Archived",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, application.BatchOptions{SkipPush: true})
	},
}

func runBatch(cmd *cobra.Command, opts application.BatchOptions) error {
	ctx := cmd.Context()
	rc, err := prepare(ctx, cmd, false)
	if err != nil {
		return err
	}

	opts.PushLimit = rc.cfg.PushLimit
	if cmd.Flags().Changed("push-limit") {
		opts.PushLimit = pushLimit
	}
	opts.CloseLimit = rc.cfg.CloseLimit
	if cmd.Flags().Changed("close-limit") {
		opts.CloseLimit = closeLimit
	}
	if opts.PushLimit <= 0 || opts.CloseLimit <= 0 {
		return NewCLIError("limits must be positive", "Pass --push-limit/--close-limit values above zero", nil)
	}

	report, err := rc.services.Sync.RunBatch(ctx, opts)
	return rc.finish(cmd, report, err)
}

func init() {
	batchCmd.Flags().IntVar(&pushLimit, "push-limit", application.DefaultPushLimit, "maximum tasks to open issues for")
	batchCmd.Flags().IntVar(&closeLimit, "close-limit", application.DefaultCloseLimit, "maximum issues to close")
	pushCmd.Flags().IntVar(&pushLimit, "push-limit", application.DefaultPushLimit, "maximum tasks to open issues for")
	closeCmd.Flags().IntVar(&closeLimit, "close-limit", application.DefaultCloseLimit, "maximum issues to close")

	RootCmd.AddCommand(batchCmd)
	RootCmd.AddCommand(pushCmd)
	RootCmd.AddCommand(closeCmd)
}
