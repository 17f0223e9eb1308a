package tracking

import "strings"

// StatusLabelPrefix prefixes the status labels written to issues.
const StatusLabelPrefix = "status/"

// typeLabels maps lower-cased issue labels onto the Tracker type vocabulary.
var typeLabels = map[string]TypeName{
	"bug":           TypeBug,
	"enhancement":   TypeEnhancement,
	"documentation": TypeDocumentation,
	"docs":          TypeDocumentation,
	"question":      TypeQuestion,
	"help wanted":   TypeHelpWanted,
	"feature":       TypeFeature,
	"research":      TypeResearch,
	"improvement":   TypeImprovement,
	"spike":         TypeSpike,
}

// StatusLabel returns the issue label for a status, e.g. "status/in-progress".
func StatusLabel(s TaskStatus) string {
	return StatusLabelPrefix + s.Kebab()
}

// StatusToIssueMeta maps a Tracker status to the issue state and status label
// it implies. Unknown statuses map like Backlog.
func StatusToIssueMeta(s TaskStatus) (IssueState, string) {
	if !s.IsValid() {
		s = ParseTaskStatus(string(s))
	}
	switch s {
	case StatusDone, StatusArchived:
		return IssueClosed, StatusLabel(s)
	default:
		return IssueOpen, StatusLabel(s)
	}
}

// statusFromLabel recognizes a status display name ("In Progress").
func statusFromLabel(label string) (TaskStatus, bool) {
	return LookupTaskStatus(label)
}

// statusFromPrefixedLabel recognizes the "status/<kebab>" form.
func statusFromPrefixedLabel(label string) (TaskStatus, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if !strings.HasPrefix(l, StatusLabelPrefix) {
		return "", false
	}
	return LookupTaskStatus(strings.TrimPrefix(l, StatusLabelPrefix))
}

// IsStatusLabel reports whether label belongs to the status vocabulary in
// either form.
func IsStatusLabel(label string) bool {
	_, ok := ParseStatusLabel(label)
	return ok
}

// matchStatusLabel returns the first display-name status label, falling back
// to the first prefixed one.
func matchStatusLabel(labels []string) (TaskStatus, bool) {
	for _, l := range labels {
		if s, ok := statusFromLabel(l); ok {
			return s, true
		}
	}
	for _, l := range labels {
		if s, ok := statusFromPrefixedLabel(l); ok {
			return s, true
		}
	}
	return "", false
}

// ParseStatusLabel returns the status a label names, in either form.
func ParseStatusLabel(label string) (TaskStatus, bool) {
	if s, ok := statusFromLabel(label); ok {
		return s, true
	}
	return statusFromPrefixedLabel(label)
}

// hasStatusLabel reports whether any label, in either form, names s.
func hasStatusLabel(labels []string, s TaskStatus) bool {
	for _, l := range labels {
		if got, ok := ParseStatusLabel(l); ok && got == s {
			return true
		}
	}
	return false
}

// IssueToStatus derives a Tracker status from an issue's state and labels.
// A closed issue is Archived when any label says so, otherwise Done. An open
// issue takes its first status label.
func IssueToStatus(state IssueState, labels []string) TaskStatus {
	if state == IssueClosed {
		if hasStatusLabel(labels, StatusArchived) {
			return StatusArchived
		}
		return StatusDone
	}
	if matched, ok := matchStatusLabel(labels); ok {
		return matched
	}
	return StatusBacklog
}

// ExtractTypes collects the Tracker types named by an issue's labels.
// Status labels and unmapped labels are ignored.
func ExtractTypes(labels []string) []TypeName {
	var types []TypeName
	for _, l := range labels {
		if IsStatusLabel(l) {
			continue
		}
		if t, ok := typeLabels[strings.ToLower(strings.TrimSpace(l))]; ok {
			types = append(types, t)
		}
	}
	return NormalizeTypes(types)
}

// NonStatusLabels returns labels with every status label removed.
func NonStatusLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if !IsStatusLabel(l) {
			out = append(out, l)
		}
	}
	return out
}
