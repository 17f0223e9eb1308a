package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/spf13/pflag"
)

// withTempDir runs the test from an empty directory so no stray .env is read.
func withTempDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

// resetFlags restores global flag state shared by RootCmd between tests.
func resetFlags(t *testing.T) {
	t.Helper()

	configFile, envFile = "", ""
	logLevel, logFormat, outputFmt = "info", "text", "text"
	dryRun, failFast, retries = false, false, 0
	eventPath = ""
	pushLimit, closeLimit = 10, 20

	for _, cmd := range RootCmd.Commands() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
	RootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
}

// runCommand executes RootCmd with args and returns stdout and stderr.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// setRequiredEnv sets the variables every run needs.
func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("NOTION_TOKEN", "secret_notion")
	t.Setenv("NOTION_DEV_TASKS_DB_ID", "db-123")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPOSITORY", "octo/site")
}
