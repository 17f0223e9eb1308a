package tracking

import "context"

// TaskStore is the Tracker side of the sync.
type TaskStore interface {
	// Query returns at most pageSize tasks matching filter.
	Query(ctx context.Context, filter Filter, pageSize int) ([]Task, error)

	// Create adds a task and returns it as stored.
	Create(ctx context.Context, fields TaskFields) (Task, error)

	// Update changes the given fields of task id and returns it as stored.
	Update(ctx context.Context, id string, fields TaskFields) (Task, error)
}

// IssueStore is the issue tracker side of the sync.
type IssueStore interface {
	// CreateIssue opens an issue; a closed state is applied after creation.
	// When only that step fails, the opened issue is returned with the error.
	CreateIssue(ctx context.Context, title, body string, state IssueState, labels []string) (Issue, error)

	// PatchIssue changes state and/or labels. Nil arguments are left untouched.
	PatchIssue(ctx context.Context, number int, state *IssueState, labels []string) error

	// GetIssue reads the current remote issue.
	GetIssue(ctx context.Context, number int) (Issue, error)
}
