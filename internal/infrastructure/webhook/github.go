// Package webhook reads the GitHub "issues" event payload that triggers an
// event-driven sync run.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// issueEventSchema describes the parts of the payload the sync relies on.
// Everything else in the event is ignored.
const issueEventSchema = `{
  "type": "object",
  "properties": {
    "action": {"type": "string"},
    "issue": {
      "type": ["object", "null"],
      "required": ["number", "title", "state"],
      "properties": {
        "number": {"type": "integer", "minimum": 1},
        "title": {"type": "string"},
        "body": {"type": ["string", "null"]},
        "state": {"enum": ["open", "closed"]},
        "html_url": {"type": "string"},
        "labels": {
          "type": "array",
          "items": {
            "oneOf": [
              {"type": "string"},
              {"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}
            ]
          }
        }
      }
    },
    "repository": {
      "type": "object",
      "properties": {"full_name": {"type": "string"}}
    }
  }
}`

var issueEventSchemaLoader = gojsonschema.NewStringLoader(issueEventSchema)

// GitHubIssuePayload represents a GitHub issue webhook payload.
type GitHubIssuePayload struct {
	Action string `json:"action"`
	Issue  *struct {
		Number  int     `json:"number"`
		Title   string  `json:"title"`
		Body    *string `json:"body"`
		State   string  `json:"state"`
		HTMLURL string  `json:"html_url"`
		Labels  []label `json:"labels"`
	} `json:"issue"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// label accepts both the webhook object form and a bare name.
type label struct {
	Name string
}

func (l *label) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		l.Name = name
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	l.Name = obj.Name
	return nil
}

// ReadEventFile loads and parses the event payload at path.
func ReadEventFile(path string) (*tracking.IssueEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &tracking.PayloadError{Path: path, Reason: "cannot read event file", Err: err}
	}
	event, err := ParseIssueEvent(data)
	if err != nil {
		var pe *tracking.PayloadError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = path
		}
		return nil, err
	}
	return event, nil
}

// ParseIssueEvent parses an issues event. A payload without an issue returns
// tracking.ErrNothingToSync.
func ParseIssueEvent(data []byte) (*tracking.IssueEvent, error) {
	if !json.Valid(data) {
		return nil, &tracking.PayloadError{Reason: "not valid JSON"}
	}

	result, err := gojsonschema.Validate(issueEventSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &tracking.PayloadError{Reason: "schema validation failed", Err: err}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, &tracking.PayloadError{Reason: "unexpected shape: " + strings.Join(problems, "; ")}
	}

	var payload GitHubIssuePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &tracking.PayloadError{Reason: "parse issues payload", Err: err}
	}
	if payload.Issue == nil {
		return nil, fmt.Errorf("event has no issue field: %w", tracking.ErrNothingToSync)
	}

	issue := tracking.Issue{
		Number:  payload.Issue.Number,
		Title:   payload.Issue.Title,
		State:   tracking.IssueState(payload.Issue.State),
		HTMLURL: payload.Issue.HTMLURL,
	}
	if payload.Issue.Body != nil {
		issue.Body = *payload.Issue.Body
	}
	for _, l := range payload.Issue.Labels {
		issue.Labels = append(issue.Labels, l.Name)
	}

	return &tracking.IssueEvent{
		Action:     payload.Action,
		Repository: payload.Repository.FullName,
		Issue:      issue,
	}, nil
}
