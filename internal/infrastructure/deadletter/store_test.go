package deadletter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/tasksync/pkg/application"
)

func TestStore_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadletters.jsonl")
	store := NewStore(path)

	e := Entry{
		Timestamp: time.Now(),
		RunID:     "run-1",
		Mode:      application.ModeBatch,
		Operation: "push",
		TaskID:    "task-1",
		Title:     "Add login",
		Error:     "github API error (422): validation failed",
	}

	if err := store.Append(e); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(e); err != nil {
		t.Fatal(err)
	}

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].TaskID != "task-1" {
		t.Errorf("expected task id task-1, got %s", entries[0].TaskID)
	}
}

func TestStore_AppendNothingCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deadletters.jsonl")
	if err := NewStore(path).Append(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file, stat err = %v", err)
	}
}

func TestStore_ReadAll_MissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nonexistent.jsonl"))

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Errorf("expected nil entries for missing file, got %v", entries)
	}
}

func TestFromReport(t *testing.T) {
	report := &application.Report{
		RunID: "run-2",
		Mode:  application.ModeBatch,
		Batches: []*application.BatchResult{
			{Operation: "push", Total: 2, Items: []application.ItemResult{
				{TaskID: "a", Action: application.ActionCreated, IssueNumber: 5},
				{TaskID: "b", Action: application.ActionFailed, Err: errors.New("boom"), Error: "boom"},
			}},
			{Operation: "close", Total: 1, Items: []application.ItemResult{
				{TaskID: "c", IssueNumber: 9, Action: application.ActionSkipped},
			}},
		},
	}

	entries := FromReport(report)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].TaskID != "b" || entries[0].Operation != "push" || entries[0].Error != "boom" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}

	if FromReport(nil) != nil {
		t.Error("nil report should yield no entries")
	}
}
