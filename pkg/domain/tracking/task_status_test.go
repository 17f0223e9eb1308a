package tracking

import (
	"encoding/json"
	"testing"
)

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		in   string
		want TaskStatus
	}{
		{"Backlog", StatusBacklog},
		{"Ready", StatusReady},
		{"In Progress", StatusInProgress},
		{"InProgress", StatusInProgress},
		{"in_progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"blocked", StatusBlocked},
		{"REVIEW", StatusReview},
		{"Done", StatusDone},
		{"Archived", StatusArchived},
		{"", StatusBacklog},
		{"Shipped", StatusBacklog},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseTaskStatus(tt.in); got != tt.want {
				t.Errorf("ParseTaskStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTaskStatus_IsValid(t *testing.T) {
	for _, s := range AllTaskStatuses() {
		if !s.IsValid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []TaskStatus{"", "InProgress", "done", "Shipped"} {
		if s.IsValid() {
			t.Errorf("%q should not be valid", s)
		}
	}
}

func TestTaskStatus_Kebab(t *testing.T) {
	if got := StatusInProgress.Kebab(); got != "in-progress" {
		t.Errorf("Kebab() = %q, want in-progress", got)
	}
	if got := StatusDone.Kebab(); got != "done" {
		t.Errorf("Kebab() = %q, want done", got)
	}
}

func TestTaskStatus_JSON(t *testing.T) {
	var s TaskStatus
	if err := json.Unmarshal([]byte(`"in_progress"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != StatusInProgress {
		t.Errorf("got %q, want %q", s, StatusInProgress)
	}

	if err := json.Unmarshal([]byte(`"nonsense"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != StatusBacklog {
		t.Errorf("unknown status decoded as %q, want Backlog", s)
	}

	data, err := json.Marshal(StatusReview)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"Review"` {
		t.Errorf("marshal = %s", data)
	}
}

func TestNormalizeTypes(t *testing.T) {
	got := NormalizeTypes([]TypeName{TypeSpike, TypeBug, TypeSpike, TypeBug})
	if len(got) != 2 || got[0] != TypeBug || got[1] != TypeSpike {
		t.Errorf("NormalizeTypes = %v, want [Bug Spike]", got)
	}
}
