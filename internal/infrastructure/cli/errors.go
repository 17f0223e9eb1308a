package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var cfgErr *tracking.ConfigError
	if errors.As(err, &cfgErr) {
		return NewCLIError("invalid configuration",
			fmt.Sprintf("Set %s in the environment, a .env file or --config", cfgErr.Key), err)
	}

	var payloadErr *tracking.PayloadError
	if errors.As(err, &payloadErr) {
		return NewCLIError("cannot read event payload",
			"Point GITHUB_EVENT_PATH or --event-path at a GitHub issues event JSON file", err)
	}

	var batchErr *tracking.BatchError
	if errors.As(err, &batchErr) {
		return NewCLIError("batch sync incomplete",
			"Re-run the batch; finished items are skipped on the next pass", err)
	}

	var apiErr *tracking.ExternalAPIError
	if errors.As(err, &apiErr) {
		return NewCLIError(fmt.Sprintf("%s request failed", apiErr.System), apiHint(apiErr), err)
	}

	return err
}

func apiHint(e *tracking.ExternalAPIError) string {
	switch e.StatusCode {
	case 401:
		return "Check that the API token is valid"
	case 403:
		if e.System == tracking.SystemIssueStore {
			return "The GitHub token needs issues: write on the repository, or the rate limit was hit"
		}
		return "Share the Notion database with the integration"
	case 404:
		if e.System == tracking.SystemTracker {
			return "Check NOTION_DEV_TASKS_DB_ID and that the database is shared with the integration"
		}
		return "Check GITHUB_REPOSITORY"
	case 429:
		return "Rate limited; retry later or raise --retries"
	}
	return ""
}
