// Package tracking holds the task and issue model shared by both sides of the
// sync, and the pure taxonomy that translates between them.
package tracking

import (
	"sort"
	"time"
)

// TypeName is a value from the Tracker's controlled type vocabulary.
type TypeName string

const (
	TypeBug           TypeName = "Bug"
	TypeEnhancement   TypeName = "Enhancement"
	TypeDocumentation TypeName = "Documentation"
	TypeQuestion      TypeName = "Question"
	TypeHelpWanted    TypeName = "HelpWanted"
	TypeFeature       TypeName = "Feature"
	TypeResearch      TypeName = "Research"
	TypeImprovement   TypeName = "Improvement"
	TypeSpike         TypeName = "Spike"
)

// SourceGitHub marks tasks that were created to host an inbound issue.
const SourceGitHub = "GitHub"

// Task is a record in the Tracker database.
type Task struct {
	ID           string     `json:"id"`
	URL          string     `json:"url,omitempty"`
	Title        string     `json:"title"`
	Status       TaskStatus `json:"status"`
	Types        []TypeName `json:"types,omitempty"`
	IssueNumber  *int       `json:"issue_number,omitempty"`
	IssueURL     string     `json:"issue_url,omitempty"`
	Source       string     `json:"source,omitempty"`
	LastSyncedAt time.Time  `json:"last_synced_at,omitempty"`
}

// HasIssue reports whether the task is paired with an issue.
func (t Task) HasIssue() bool {
	return t.IssueNumber != nil
}

// TaskFields is a partial task used for create and update calls.
// Nil fields are left untouched.
type TaskFields struct {
	Title        *string
	Status       *TaskStatus
	Types        []TypeName
	SetTypes     bool
	IssueNumber  *int
	IssueURL     *string
	Source       *string
	LastSyncedAt *time.Time
}

// NormalizeTypes collapses duplicates and sorts the set so equal sets compare
// equal regardless of input order.
func NormalizeTypes(types []TypeName) []TypeName {
	seen := make(map[TypeName]struct{}, len(types))
	out := make([]TypeName, 0, len(types))
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
