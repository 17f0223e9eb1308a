package tracking

// IssueState is the open/closed state of an issue.
type IssueState string

const (
	IssueOpen   IssueState = "open"
	IssueClosed IssueState = "closed"
)

// Issue is a record in the IssueStore.
type Issue struct {
	Number  int        `json:"number"`
	Title   string     `json:"title"`
	Body    string     `json:"body,omitempty"`
	State   IssueState `json:"state"`
	Labels  []string   `json:"labels,omitempty"`
	HTMLURL string     `json:"html_url,omitempty"`
}

// HasLabel reports whether the issue carries the named label.
func (i Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// IssueEvent is an inbound issues event from the IssueStore.
type IssueEvent struct {
	Action     string `json:"action"`
	Repository string `json:"repository,omitempty"`
	Issue      Issue  `json:"issue"`
}

// ActionDeleted is the event action for a deleted issue.
const ActionDeleted = "deleted"
