package tracking

import (
	"encoding/json"
	"strings"
)

// TaskStatus is the Tracker's status vocabulary. Values are the select option
// names stored in the Tracker database.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "Backlog"
	StatusReady      TaskStatus = "Ready"
	StatusInProgress TaskStatus = "In Progress"
	StatusBlocked    TaskStatus = "Blocked"
	StatusReview     TaskStatus = "Review"
	StatusDone       TaskStatus = "Done"
	StatusArchived   TaskStatus = "Archived"
)

// AllTaskStatuses returns all valid task statuses in lifecycle order.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		StatusBacklog,
		StatusReady,
		StatusInProgress,
		StatusBlocked,
		StatusReview,
		StatusDone,
		StatusArchived,
	}
}

// statusKey folds case and separators so "InProgress", "in_progress" and
// "In Progress" compare equal.
func statusKey(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

var statusByKey = func() map[string]TaskStatus {
	m := make(map[string]TaskStatus, 7)
	for _, s := range AllTaskStatuses() {
		m[statusKey(string(s))] = s
	}
	return m
}()

// LookupTaskStatus returns the status named by s, if any.
func LookupTaskStatus(s string) (TaskStatus, bool) {
	status, ok := statusByKey[statusKey(s)]
	return status, ok
}

// ParseTaskStatus normalizes s into a TaskStatus. Absent or unrecognized
// values become Backlog.
func ParseTaskStatus(s string) TaskStatus {
	if status, ok := LookupTaskStatus(s); ok {
		return status
	}
	return StatusBacklog
}

// IsValid returns true if the status is one of the seven known values.
func (s TaskStatus) IsValid() bool {
	status, ok := statusByKey[statusKey(string(s))]
	return ok && status == s
}

// String returns the string representation of the status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal returns true for Done and Archived.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusArchived
}

// Kebab returns the lower-case, dash separated form used in issue labels.
func (s TaskStatus) Kebab() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
}

// MarshalJSON implements json.Marshaler interface.
func (s TaskStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler interface.
// Unknown values decode as Backlog.
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseTaskStatus(str)
	return nil
}
