package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// Run modes.
const (
	ModeEvent = "event"
	ModeBatch = "batch"
)

// Report summarizes one sync run.
type Report struct {
	RunID      string         `json:"run_id" yaml:"run_id"`
	Mode       string         `json:"mode" yaml:"mode"`
	DryRun     bool           `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
	Note       string         `json:"note,omitempty" yaml:"note,omitempty"`
	Event      *ItemResult    `json:"event,omitempty" yaml:"event,omitempty"`
	Batches    []*BatchResult `json:"batches,omitempty" yaml:"batches,omitempty"`
}

// Writes returns the number of items that changed a remote system.
func (r *Report) Writes() int {
	n := 0
	if r.Event != nil && (r.Event.Action == ActionCreated || r.Event.Action == ActionUpdated) {
		n++
	}
	for _, b := range r.Batches {
		n += b.Count(ActionCreated) + b.Count(ActionClosed)
	}
	return n
}

// BatchOptions selects the batch phases and their caps.
type BatchOptions struct {
	PushLimit  int
	CloseLimit int
	SkipPush   bool
	SkipClose  bool
}

// SyncService is the entry point for both sync directions. Each run is
// independent; the service holds no state between runs.
type SyncService struct {
	reconciler *ReconcileService
	logger     *slog.Logger
	now        func() time.Time
}

// NewSyncService creates a SyncService.
func NewSyncService(reconciler *ReconcileService, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{reconciler: reconciler, logger: logger, now: time.Now}
}

func (s *SyncService) newReport(mode string) *Report {
	return &Report{
		RunID:     uuid.New().String(),
		Mode:      mode,
		DryRun:    s.reconciler.opts.DryRun,
		StartedAt: s.now(),
	}
}

// RunEvent syncs a single inbound issue event into the Tracker. A nil event
// means the trigger carried no issue and there is nothing to do.
func (s *SyncService) RunEvent(ctx context.Context, event *tracking.IssueEvent) (*Report, error) {
	report := s.newReport(ModeEvent)
	defer func() { report.FinishedAt = s.now() }()
	logger := s.logger.With("run_id", report.RunID, "mode", ModeEvent)

	if event == nil {
		report.Note = tracking.ErrNothingToSync.Error()
		logger.Info("event has no issue; nothing to sync")
		return report, nil
	}

	logger = logger.With("issue", event.Issue.Number, "action", event.Action)

	task, err := s.reconciler.Resolver().FindTaskByIssueNumber(ctx, event.Issue.Number)
	if err != nil {
		result := ItemResult{IssueNumber: event.Issue.Number, Title: event.Issue.Title}
		result.fail(err)
		report.Event = &result
		logger.Error("event sync failed", "error", err)
		return report, err
	}
	if task == nil && event.Action == tracking.ActionDeleted {
		report.Note = "issue deleted and no paired task; nothing to do"
		logger.Info("issue deleted and no paired task")
		return report, nil
	}

	result, err := s.reconciler.upsert(ctx, event.Issue, task)
	report.Event = &result
	if err != nil {
		logger.Error("event sync failed", "error", err)
		return report, err
	}
	logger.Info("event sync complete", "task_id", result.TaskID, "result", result.Action)
	return report, nil
}

// RunBatch pushes new issues for unpaired tasks, then closes issues of
// finished tasks. Item failures are recorded and the run carries on unless
// FailFast is set; query failures abort the run.
func (s *SyncService) RunBatch(ctx context.Context, opts BatchOptions) (*Report, error) {
	report := s.newReport(ModeBatch)
	defer func() { report.FinishedAt = s.now() }()
	logger := s.logger.With("run_id", report.RunID, "mode", ModeBatch)

	var errs []error

	if !opts.SkipPush {
		batch, err := s.reconciler.PushNewIssues(ctx, opts.PushLimit)
		report.Batches = append(report.Batches, batch)
		if err != nil {
			errs = append(errs, err)
			if s.reconciler.opts.FailFast || !isBatchError(err) {
				logger.Error("push phase aborted the run", "error", err)
				return report, errors.Join(errs...)
			}
		}
	}

	if !opts.SkipClose {
		batch, err := s.reconciler.CloseCompletedIssues(ctx, opts.CloseLimit)
		report.Batches = append(report.Batches, batch)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		logger.Error("batch sync finished with failures", "writes", report.Writes(), "error", errors.Join(errs...))
		return report, errors.Join(errs...)
	}
	logger.Info("batch sync complete", "writes", report.Writes())
	return report, nil
}

func isBatchError(err error) bool {
	var be *tracking.BatchError
	return errors.As(err, &be)
}
