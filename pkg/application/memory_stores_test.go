package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// memoryTasks is an in-memory Tracker that evaluates filters locally.
type memoryTasks struct {
	tasks   []tracking.Task
	nextID  int
	queries []tracking.Filter
	creates int
	updates int

	queryErr  error
	updateErr map[string]error
}

func newMemoryTasks(tasks ...tracking.Task) *memoryTasks {
	return &memoryTasks{tasks: tasks, updateErr: map[string]error{}}
}

func (m *memoryTasks) Query(_ context.Context, filter tracking.Filter, pageSize int) ([]tracking.Task, error) {
	m.queries = append(m.queries, filter)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []tracking.Task
	for _, t := range m.tasks {
		if matches(filter, t) {
			out = append(out, t)
			if len(out) == pageSize {
				break
			}
		}
	}
	return out, nil
}

// matches evaluates filter the way the Tracker would.
func matches(f tracking.Filter, t tracking.Task) bool {
	switch f.Op {
	case tracking.OpAnd:
		for _, c := range f.Children {
			if !matches(c, t) {
				return false
			}
		}
		return true
	case tracking.OpOr:
		for _, c := range f.Children {
			if matches(c, t) {
				return true
			}
		}
		return false
	}

	value, present := property(t, f.Property)
	switch f.Op {
	case tracking.OpIsEmpty:
		return !present
	case tracking.OpIsNotEmpty:
		return present
	case tracking.OpEquals:
		return present && fmt.Sprint(value) == fmt.Sprint(f.Value)
	}
	return false
}

func property(t tracking.Task, name string) (any, bool) {
	switch name {
	case tracking.PropName:
		return t.Title, t.Title != ""
	case tracking.PropStatus:
		return string(t.Status), t.Status != ""
	case tracking.PropIssueNumber:
		if t.IssueNumber == nil {
			return nil, false
		}
		return *t.IssueNumber, true
	case tracking.PropIssueURL:
		return t.IssueURL, t.IssueURL != ""
	case tracking.PropSource:
		return t.Source, t.Source != ""
	case tracking.PropLastSynced:
		return t.LastSyncedAt, !t.LastSyncedAt.IsZero()
	}
	return nil, false
}

func (m *memoryTasks) Create(_ context.Context, f tracking.TaskFields) (tracking.Task, error) {
	m.creates++
	m.nextID++
	t := tracking.Task{ID: fmt.Sprintf("task-%d", m.nextID), Status: tracking.StatusBacklog}
	apply(&t, f)
	m.tasks = append(m.tasks, t)
	return t, nil
}

func (m *memoryTasks) Update(_ context.Context, id string, f tracking.TaskFields) (tracking.Task, error) {
	if err := m.updateErr[id]; err != nil {
		return tracking.Task{}, err
	}
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.updates++
			apply(&m.tasks[i], f)
			return m.tasks[i], nil
		}
	}
	return tracking.Task{}, &tracking.ExternalAPIError{System: tracking.SystemTracker, StatusCode: http.StatusNotFound, Body: id}
}

func (m *memoryTasks) get(id string) tracking.Task {
	for _, t := range m.tasks {
		if t.ID == id {
			return t
		}
	}
	return tracking.Task{}
}

func apply(t *tracking.Task, f tracking.TaskFields) {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Status != nil {
		t.Status = *f.Status
	}
	if f.SetTypes {
		t.Types = tracking.NormalizeTypes(f.Types)
	}
	if f.IssueNumber != nil {
		t.IssueNumber = tracking.IntPtr(*f.IssueNumber)
	}
	if f.IssueURL != nil {
		t.IssueURL = *f.IssueURL
	}
	if f.Source != nil {
		t.Source = *f.Source
	}
	if f.LastSyncedAt != nil {
		t.LastSyncedAt = *f.LastSyncedAt
	}
}

type createCall struct {
	Title  string
	Body   string
	State  tracking.IssueState
	Labels []string
}

type patchCall struct {
	Number int
	State  *tracking.IssueState
	Labels []string
}

// memoryIssues is an in-memory IssueStore.
type memoryIssues struct {
	issues  map[int]tracking.Issue
	next    int
	creates        []createCall
	createAttempts int
	patches        []patchCall
	gets           int

	createErr map[string]error // by title
	closeErr  map[string]error // by title; the issue is opened, the follow-up close fails
	getErr    map[int]error
	getFlaky  map[int]int // remaining transient failures by number
	patchErr  map[int]error
}

func newMemoryIssues(existing ...tracking.Issue) *memoryIssues {
	m := &memoryIssues{
		issues:    map[int]tracking.Issue{},
		next:      100,
		createErr: map[string]error{},
		closeErr:  map[string]error{},
		getErr:    map[int]error{},
		getFlaky:  map[int]int{},
		patchErr:  map[int]error{},
	}
	for _, i := range existing {
		m.issues[i.Number] = i
	}
	return m
}

func (m *memoryIssues) CreateIssue(_ context.Context, title, body string, state tracking.IssueState, labels []string) (tracking.Issue, error) {
	m.createAttempts++
	if err := m.createErr[title]; err != nil {
		return tracking.Issue{}, err
	}
	m.creates = append(m.creates, createCall{Title: title, Body: body, State: state, Labels: labels})
	m.next++
	issue := tracking.Issue{
		Number:  m.next,
		Title:   title,
		Body:    body,
		State:   state,
		Labels:  labels,
		HTMLURL: fmt.Sprintf("https://github.com/octo/site/issues/%d", m.next),
	}
	if err := m.closeErr[title]; err != nil && state == tracking.IssueClosed {
		issue.State = tracking.IssueOpen
		m.issues[issue.Number] = issue
		return issue, err
	}
	m.issues[issue.Number] = issue
	return issue, nil
}

func (m *memoryIssues) PatchIssue(_ context.Context, number int, state *tracking.IssueState, labels []string) error {
	m.patches = append(m.patches, patchCall{Number: number, State: state, Labels: labels})
	if err := m.patchErr[number]; err != nil {
		return err
	}
	issue, ok := m.issues[number]
	if !ok {
		return &tracking.ExternalAPIError{System: tracking.SystemIssueStore, StatusCode: http.StatusNotFound}
	}
	if state != nil {
		issue.State = *state
	}
	if labels != nil {
		issue.Labels = labels
	}
	m.issues[number] = issue
	return nil
}

func (m *memoryIssues) GetIssue(_ context.Context, number int) (tracking.Issue, error) {
	m.gets++
	if m.getFlaky[number] > 0 {
		m.getFlaky[number]--
		return tracking.Issue{}, &tracking.ExternalAPIError{System: tracking.SystemIssueStore, StatusCode: http.StatusBadGateway}
	}
	if err := m.getErr[number]; err != nil {
		return tracking.Issue{}, err
	}
	issue, ok := m.issues[number]
	if !ok {
		return tracking.Issue{}, &tracking.ExternalAPIError{System: tracking.SystemIssueStore, StatusCode: http.StatusNotFound, Body: `{"message":"Not Found"}`}
	}
	return issue, nil
}

func (m *memoryIssues) writes() int {
	return len(m.creates) + len(m.patches)
}
