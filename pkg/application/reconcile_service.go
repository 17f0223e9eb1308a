package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// Action records what a reconciliation step did for one item.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionClosed  Action = "closed"
	ActionSkipped Action = "skipped"
	ActionPlanned Action = "planned"
	ActionFailed  Action = "failed"
)

// ItemResult is the outcome of reconciling a single task/issue pair.
type ItemResult struct {
	TaskID      string `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	IssueNumber int    `json:"issue_number,omitempty" yaml:"issue_number,omitempty"`
	Action      Action `json:"action" yaml:"action"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Err         error  `json:"-" yaml:"-"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r *ItemResult) fail(err error) {
	r.Action = ActionFailed
	r.Err = err
	r.Error = err.Error()
}

// BatchResult collects per-item outcomes of one batch operation.
type BatchResult struct {
	Operation string       `json:"operation" yaml:"operation"`
	Total     int          `json:"total" yaml:"total"`
	Items     []ItemResult `json:"items" yaml:"items"`
}

// Count returns how many items ended with action a.
func (b *BatchResult) Count(a Action) int {
	n := 0
	for _, it := range b.Items {
		if it.Action == a {
			n++
		}
	}
	return n
}

// Err returns a *tracking.BatchError when any item failed.
func (b *BatchResult) Err() error {
	var first error
	failed := 0
	for _, it := range b.Items {
		if it.Action == ActionFailed {
			failed++
			if first == nil {
				first = it.Err
			}
		}
	}
	if failed == 0 {
		return nil
	}
	return &tracking.BatchError{Operation: b.Operation, Failed: failed, Total: b.Total, First: first}
}

// ReconcileOptions tunes the executor.
type ReconcileOptions struct {
	// FailFast stops a batch at the first failed item instead of carrying on.
	FailFast bool
	// Retries is the number of extra attempts for each external call.
	Retries int
	// RetryDelay is the initial backoff between attempts.
	RetryDelay time.Duration
	// DryRun performs reads only and reports the writes it would make.
	DryRun bool
}

// ReconcileService decides between create, update, close and skip for each
// task/issue pair and performs the writes one call at a time.
type ReconcileService struct {
	tasks    tracking.TaskStore
	issues   tracking.IssueStore
	resolver *Resolver
	opts     ReconcileOptions
	logger   *slog.Logger
	now      func() time.Time
}

// NewReconcileService creates a ReconcileService.
func NewReconcileService(tasks tracking.TaskStore, issues tracking.IssueStore, opts ReconcileOptions, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &ReconcileService{
		tasks:    tasks,
		issues:   issues,
		resolver: NewResolver(tasks),
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolver returns the correlation resolver the service uses.
func (s *ReconcileService) Resolver() *Resolver {
	return s.resolver
}

// call runs fn, retrying with exponential backoff when retries are enabled.
// Client errors other than 408 and 429 are returned at once; repeating them
// cannot succeed. Only idempotent calls go through call.
func call[T any](ctx context.Context, opts ReconcileOptions, fn func(context.Context) (T, error)) (T, error) {
	if opts.Retries <= 0 {
		return fn(ctx)
	}
	r := retry.New[T](retry.Config{
		MaxAttempts:   opts.Retries + 1,
		InitialDelay:  opts.RetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})

	var permanent error
	v, err := r.Do(ctx, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if err != nil && !retryable(err) {
			permanent = err
			return v, nil
		}
		return v, err
	})
	if permanent != nil {
		return v, permanent
	}
	return v, err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *tracking.ExternalAPIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// IssueBody is the description given to issues opened for a task.
func IssueBody(task tracking.Task) string {
	return fmt.Sprintf("Synced from Notion Dev Tasks.\n\nNotion task: %s\nTask ID: %s\nStatus: %s",
		task.URL, task.ID, task.Status)
}

// UpsertFromIssue mirrors an issue into the Tracker. The issue is
// authoritative for title, status and types. Exactly one Tracker write is made.
func (s *ReconcileService) UpsertFromIssue(ctx context.Context, issue tracking.Issue) (ItemResult, error) {
	existing, err := s.resolver.FindTaskByIssueNumber(ctx, issue.Number)
	if err != nil {
		result := ItemResult{IssueNumber: issue.Number, Title: issue.Title}
		result.fail(err)
		return result, err
	}
	return s.upsert(ctx, issue, existing)
}

// upsert writes issue into existing, or into a new task when existing is nil.
func (s *ReconcileService) upsert(ctx context.Context, issue tracking.Issue, existing *tracking.Task) (ItemResult, error) {
	result := ItemResult{IssueNumber: issue.Number, Title: issue.Title}
	status := tracking.IssueToStatus(issue.State, issue.Labels)
	now := s.now()
	fields := tracking.TaskFields{
		Title:        &issue.Title,
		Status:       &status,
		Types:        tracking.ExtractTypes(issue.Labels),
		SetTypes:     true,
		IssueURL:     &issue.HTMLURL,
		LastSyncedAt: &now,
	}

	if existing != nil {
		result.TaskID = existing.ID
		if !tracking.IsAdvisedTransition(existing.Status, status) {
			s.logger.Debug("out-of-order status change accepted",
				"task_id", existing.ID,
				"issue", issue.Number,
				"from", existing.Status,
				"to", status)
		}
		if s.opts.DryRun {
			result.Action = ActionPlanned
			result.Reason = "update task"
			return result, nil
		}
		if _, err := call(ctx, s.opts, func(ctx context.Context) (tracking.Task, error) {
			return s.tasks.Update(ctx, existing.ID, fields)
		}); err != nil {
			err = fmt.Errorf("update task %s for issue #%d: %w", existing.ID, issue.Number, err)
			result.fail(err)
			return result, err
		}
		result.Action = ActionUpdated
		s.logger.Info("task updated from issue", "task_id", existing.ID, "issue", issue.Number, "status", status)
		return result, nil
	}

	fields.IssueNumber = &issue.Number
	fields.Source = tracking.StringPtr(tracking.SourceGitHub)
	if s.opts.DryRun {
		result.Action = ActionPlanned
		result.Reason = "create task"
		return result, nil
	}
	// Creates are not idempotent and are never retried.
	created, err := s.tasks.Create(ctx, fields)
	if err != nil {
		err = fmt.Errorf("create task for issue #%d: %w", issue.Number, err)
		result.fail(err)
		return result, err
	}
	result.TaskID = created.ID
	result.Action = ActionCreated
	s.logger.Info("task created from issue", "task_id", created.ID, "issue", issue.Number, "status", status)
	return result, nil
}

// PushNewIssues opens an issue for each task that has none yet, then records
// the issue number on the task.
func (s *ReconcileService) PushNewIssues(ctx context.Context, limit int) (*BatchResult, error) {
	batch := &BatchResult{Operation: "push"}

	tasks, err := s.resolver.FindTasksMissingIssue(ctx, limit)
	if err != nil {
		return batch, err
	}
	batch.Total = len(tasks)
	if len(tasks) == 0 {
		s.logger.Info("no tasks need issues")
		return batch, nil
	}
	s.logger.Info("tasks need issues", "count", len(tasks))

	for _, task := range tasks {
		item := s.pushOne(ctx, task)
		batch.Items = append(batch.Items, item)
		if item.Action == ActionFailed && s.opts.FailFast {
			break
		}
	}

	return batch, batch.Err()
}

func (s *ReconcileService) pushOne(ctx context.Context, task tracking.Task) ItemResult {
	item := ItemResult{TaskID: task.ID, Title: task.Title}
	state, label := tracking.StatusToIssueMeta(task.Status)

	if s.opts.DryRun {
		item.Action = ActionPlanned
		item.Reason = fmt.Sprintf("create %s issue with %s", state, label)
		return item
	}

	// Creates are not idempotent and are never retried. A closed target is
	// applied after the create; when that step fails the issue already exists
	// and must still be recorded on the task.
	issue, err := s.issues.CreateIssue(ctx, task.Title, IssueBody(task), state, []string{label})
	if err != nil && issue.Number == 0 {
		item.fail(fmt.Errorf("create issue for task %s: %w", task.ID, err))
		s.logger.Error("failed to create issue", "task_id", task.ID, "error", err)
		return item
	}
	item.IssueNumber = issue.Number

	closeErr := err
	if closeErr != nil && s.opts.Retries > 0 {
		again := s.opts
		again.Retries--
		_, closeErr = call(ctx, again, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.issues.PatchIssue(ctx, issue.Number, &state, nil)
		})
	}

	now := s.now()
	fields := tracking.TaskFields{
		IssueNumber:  &issue.Number,
		IssueURL:     &issue.HTMLURL,
		LastSyncedAt: &now,
	}
	if _, err := call(ctx, s.opts, func(ctx context.Context) (tracking.Task, error) {
		return s.tasks.Update(ctx, task.ID, fields)
	}); err != nil {
		// The issue exists but the task does not know it; the next run would
		// open a second one unless the number is recorded by hand.
		item.fail(fmt.Errorf("record issue #%d on task %s: %w", issue.Number, task.ID, err))
		s.logger.Error("issue created but task not updated",
			"task_id", task.ID,
			"issue", issue.Number,
			"url", issue.HTMLURL,
			"error", err)
		return item
	}

	if closeErr != nil {
		// The task is paired and terminal, so the close pass picks it up.
		item.fail(fmt.Errorf("close new issue #%d for task %s: %w", issue.Number, task.ID, closeErr))
		s.logger.Error("issue created and recorded but left open",
			"task_id", task.ID,
			"issue", issue.Number,
			"error", closeErr)
		return item
	}

	item.Action = ActionCreated
	s.logger.Info("issue created for task", "task_id", task.ID, "issue", issue.Number, "label", label)
	return item
}

// CloseCompletedIssues closes the issue of every Done or Archived task and
// sets its status label. Issues that already match are left alone.
func (s *ReconcileService) CloseCompletedIssues(ctx context.Context, limit int) (*BatchResult, error) {
	batch := &BatchResult{Operation: "close"}

	tasks, err := s.resolver.FindTasksReadyToClose(ctx, limit)
	if err != nil {
		return batch, err
	}
	batch.Total = len(tasks)
	if len(tasks) == 0 {
		s.logger.Info("no issues to close")
		return batch, nil
	}
	s.logger.Info("tasks ready to close", "count", len(tasks))

	for _, task := range tasks {
		item := s.closeOne(ctx, task)
		batch.Items = append(batch.Items, item)
		if item.Action == ActionFailed && s.opts.FailFast {
			break
		}
	}

	return batch, batch.Err()
}

func (s *ReconcileService) closeOne(ctx context.Context, task tracking.Task) ItemResult {
	if !task.HasIssue() {
		return ItemResult{TaskID: task.ID, Title: task.Title, Action: ActionSkipped, Reason: "no paired issue"}
	}
	number := *task.IssueNumber
	item := ItemResult{TaskID: task.ID, Title: task.Title, IssueNumber: number}
	state, label := tracking.StatusToIssueMeta(task.Status)
	target := tracking.ParseTaskStatus(string(task.Status))

	current, err := call(ctx, s.opts, func(ctx context.Context) (tracking.Issue, error) {
		return s.issues.GetIssue(ctx, number)
	})
	if err != nil {
		if isMissing(err) {
			item.Action = ActionSkipped
			item.Reason = "issue no longer exists"
			s.logger.Warn("paired issue is missing", "task_id", task.ID, "issue", number)
			return item
		}
		item.fail(fmt.Errorf("read issue #%d: %w", number, err))
		s.logger.Error("failed to read issue", "task_id", task.ID, "issue", number, "error", err)
		return item
	}

	if current.State == state && onlyStatus(current.Labels, target) {
		item.Action = ActionSkipped
		item.Reason = "already closed"
		s.logger.Debug("issue already closed", "task_id", task.ID, "issue", number)
		return item
	}

	labels := append(tracking.NonStatusLabels(current.Labels), label)
	if s.opts.DryRun {
		item.Action = ActionPlanned
		item.Reason = fmt.Sprintf("close with %s", label)
		return item
	}

	if _, err := call(ctx, s.opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.issues.PatchIssue(ctx, number, &state, labels)
	}); err != nil {
		item.fail(fmt.Errorf("close issue #%d: %w", number, err))
		s.logger.Error("failed to close issue", "task_id", task.ID, "issue", number, "error", err)
		return item
	}

	now := s.now()
	if _, err := call(ctx, s.opts, func(ctx context.Context) (tracking.Task, error) {
		return s.tasks.Update(ctx, task.ID, tracking.TaskFields{LastSyncedAt: &now})
	}); err != nil {
		item.fail(fmt.Errorf("refresh task %s: %w", task.ID, err))
		s.logger.Error("issue closed but task not refreshed", "task_id", task.ID, "issue", number, "error", err)
		return item
	}

	item.Action = ActionClosed
	s.logger.Info("issue closed for task", "task_id", task.ID, "issue", number, "label", label)
	return item
}

// onlyStatus reports whether labels carry exactly one status label, in any
// form or case, and it names target.
func onlyStatus(labels []string, target tracking.TaskStatus) bool {
	found := 0
	for _, l := range labels {
		s, ok := tracking.ParseStatusLabel(l)
		if !ok {
			continue
		}
		if s != target {
			return false
		}
		found++
	}
	return found == 1
}

// isMissing reports a 404 or 410 from the IssueStore.
func isMissing(err error) bool {
	var apiErr *tracking.ExternalAPIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusNotFound || apiErr.StatusCode == http.StatusGone
}
