package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// Per-run safety caps on batch work.
const (
	DefaultPushLimit  = 10
	DefaultCloseLimit = 20
)

// Resolver finds the Task paired with an issue, or the tasks a batch run has
// to act on. It always asks the Tracker; nothing is cached between calls.
type Resolver struct {
	tasks tracking.TaskStore
}

// NewResolver creates a Resolver over the Tracker.
func NewResolver(tasks tracking.TaskStore) *Resolver {
	return &Resolver{tasks: tasks}
}

// FindTaskByIssueNumber returns the task holding number, or nil.
func (r *Resolver) FindTaskByIssueNumber(ctx context.Context, number int) (*tracking.Task, error) {
	tasks, err := r.tasks.Query(ctx, tracking.Equals(tracking.PropIssueNumber, number), 1)
	if err != nil {
		return nil, fmt.Errorf("find task for issue #%d: %w", number, err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// FindTasksMissingIssue returns up to limit tasks with no paired issue.
func (r *Resolver) FindTasksMissingIssue(ctx context.Context, limit int) ([]tracking.Task, error) {
	if limit <= 0 {
		limit = DefaultPushLimit
	}
	tasks, err := r.tasks.Query(ctx, tracking.IsEmpty(tracking.PropIssueNumber), limit)
	if err != nil {
		return nil, fmt.Errorf("find tasks missing an issue: %w", err)
	}
	return tasks, nil
}

// FindTasksReadyToClose returns up to limit paired tasks that are Done or
// Archived.
func (r *Resolver) FindTasksReadyToClose(ctx context.Context, limit int) ([]tracking.Task, error) {
	if limit <= 0 {
		limit = DefaultCloseLimit
	}
	filter := tracking.And(
		tracking.IsNotEmpty(tracking.PropIssueNumber),
		tracking.Or(
			tracking.Equals(tracking.PropStatus, tracking.StatusDone),
			tracking.Equals(tracking.PropStatus, tracking.StatusArchived),
		),
	)
	tasks, err := r.tasks.Query(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("find tasks ready to close: %w", err)
	}
	return tasks, nil
}
