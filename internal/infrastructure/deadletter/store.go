// Package deadletter keeps a JSONL journal of items a sync run could not
// reconcile, so operators can see what the next run will retry.
package deadletter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/felixgeelhaar/tasksync/pkg/application"
)

// Entry is one failed item.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id"`
	Mode        string    `json:"mode"`
	Operation   string    `json:"operation,omitempty"`
	TaskID      string    `json:"task_id,omitempty"`
	IssueNumber int       `json:"issue_number,omitempty"`
	Title       string    `json:"title,omitempty"`
	Error       string    `json:"error"`
}

// Store appends entries to a JSONL file.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store at path. The file is created on first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Append writes entries to the journal.
func (s *Store) Append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal dead letter: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open dead letter file: %w", err)
	}
	defer f.Close()

	_, err = f.Write(buf.Bytes())
	return err
}

// ReadAll returns all entries in the journal. Unparseable lines are skipped.
func (s *Store) ReadAll() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FromReport collects the failed items of a run.
func FromReport(report *application.Report) []Entry {
	if report == nil {
		return nil
	}

	ts := report.FinishedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	entry := func(op string, item application.ItemResult) Entry {
		return Entry{
			Timestamp:   ts,
			RunID:       report.RunID,
			Mode:        report.Mode,
			Operation:   op,
			TaskID:      item.TaskID,
			IssueNumber: item.IssueNumber,
			Title:       item.Title,
			Error:       item.Error,
		}
	}

	var out []Entry
	if report.Event != nil && report.Event.Action == application.ActionFailed {
		out = append(out, entry("upsert", *report.Event))
	}
	for _, batch := range report.Batches {
		if batch == nil {
			continue
		}
		for _, item := range batch.Items {
			if item.Action == application.ActionFailed {
				out = append(out, entry(batch.Operation, item))
			}
		}
	}
	return out
}
