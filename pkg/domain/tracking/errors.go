package tracking

import (
	"errors"
	"fmt"
)

// ErrNothingToSync indicates the trigger carried no work. Callers treat it as
// success.
var ErrNothingToSync = errors.New("nothing to sync")

// ConfigError reports missing or invalid configuration. It is raised before
// any network call.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return "config " + e.Key + ": " + e.Reason
}

// PayloadError reports an unreadable or malformed event payload.
type PayloadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	msg := "event payload"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// ExternalAPIError is a non-success response from the Tracker or IssueStore.
// Body holds the raw response for diagnostics.
type ExternalAPIError struct {
	System     string
	StatusCode int
	Body       string
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.System, e.StatusCode, e.Body)
}

// BatchError summarizes a batch in which one or more items failed.
type BatchError struct {
	Operation string
	Failed    int
	Total     int
	First     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %d of %d items failed: %v", e.Operation, e.Failed, e.Total, e.First)
}

func (e *BatchError) Unwrap() error {
	return e.First
}

// System names used in ExternalAPIError.
const (
	SystemTracker    = "notion"
	SystemIssueStore = "github"
)
