package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasksync/internal/infrastructure/config"
	"github.com/felixgeelhaar/tasksync/internal/infrastructure/deadletter"
	"github.com/felixgeelhaar/tasksync/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/tasksync/pkg/application"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Global flags.
var (
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	outputFmt  string
	dryRun     bool
	failFast   bool
	retries    int
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "tasksync",
	Version: Version,
	Short:   "Keep Notion dev tasks and GitHub issues in step",
	Long: `tasksync reconciles a Notion task database with the issues of a GitHub repository.

Run 'tasksync event' from an issues workflow to mirror an issue into Notion,
and 'tasksync batch' on a schedule to open issues for new tasks and close
issues whose tasks are finished.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err == nil {
		return nil
	}
	mapped := MapError(err)
	fmt.Fprintln(os.Stderr, "Error:", mapped)
	if cliErr, ok := mapped.(*CLIError); ok && cliErr.Hint != "" {
		fmt.Fprintln(os.Stderr, "Hint:", cliErr.Hint)
	}
	return mapped
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (yaml, json or toml) with the same keys as the environment")
	flags.StringVar(&envFile, "env-file", "", "dotenv file to load (default .env when present)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	flags.StringVarP(&outputFmt, "output", "o", "text", "report format: text, json or yaml")
	flags.BoolVar(&dryRun, "dry-run", false, "read only; report the writes that would be made")
	flags.BoolVar(&failFast, "fail-fast", false, "stop a batch at the first failed item")
	flags.IntVar(&retries, "retries", 0, "extra attempts per external call (overrides TASKSYNC_RETRIES)")
}

// runContext is what every sync command needs before it touches the network.
type runContext struct {
	cfg      config.Config
	logger   *slog.Logger
	services *wiring.AppServices
}

// prepare loads configuration, applies flag overrides and wires the services.
// Configuration problems surface here, before any I/O against the stores.
func prepare(ctx context.Context, cmd *cobra.Command, event bool) (*runContext, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), logLevel, logFormat)
	if err != nil {
		return nil, err
	}
	if _, err := reportEncoder(outputFmt); err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if cmd.Flags().Changed("fail-fast") {
		cfg.FailFast = failFast
	}
	if cmd.Flags().Changed("retries") {
		if retries < 0 {
			return nil, NewCLIError("--retries must not be negative", "", nil)
		}
		cfg.Retries = retries
	}
	if event && eventPath != "" {
		cfg.EventPath = eventPath
	}
	if err := cfg.Require(event); err != nil {
		return nil, err
	}

	services, err := wiring.BuildAppServices(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &runContext{cfg: cfg, logger: logger, services: services}, nil
}

// finish renders the report and journals failed items. The run error, if any,
// takes precedence over rendering problems.
func (rc *runContext) finish(cmd *cobra.Command, report *application.Report, runErr error) error {
	if err := renderReport(cmd.OutOrStdout(), outputFmt, report); err != nil && runErr == nil {
		runErr = err
	}

	if rc.cfg.DeadLetterPath != "" {
		entries := deadletter.FromReport(report)
		if err := deadletter.NewStore(rc.cfg.DeadLetterPath).Append(entries...); err != nil {
			rc.logger.Warn("could not write dead letters", "path", rc.cfg.DeadLetterPath, "error", err)
		} else if len(entries) > 0 {
			rc.logger.Info("failed items journaled", "path", rc.cfg.DeadLetterPath, "count", len(entries))
		}
	}
	return runErr
}
