package notion

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// propertyTypes is the Dev Tasks database schema. The type decides both how a
// value is encoded and which key a filter condition goes under.
var propertyTypes = map[string]string{
	tracking.PropName:        "title",
	tracking.PropStatus:      "select",
	tracking.PropType:        "multi_select",
	tracking.PropIssueNumber: "number",
	tracking.PropIssueURL:    "url",
	tracking.PropSource:      "select",
	tracking.PropLastSynced:  "date",
}

// Page represents a Notion database page.
type Page struct {
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	Properties map[string]Property `json:"properties"`
}

// Property is the union of the property value shapes the database uses.
type Property struct {
	Type        string     `json:"type,omitempty"`
	Title       []richText `json:"title,omitempty"`
	RichText    []richText `json:"rich_text,omitempty"`
	Select      *option    `json:"select,omitempty"`
	Status      *option    `json:"status,omitempty"`
	MultiSelect []option   `json:"multi_select,omitempty"`
	Number      *float64   `json:"number,omitempty"`
	URL         *string    `json:"url,omitempty"`
	Date        *dateValue `json:"date,omitempty"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type option struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

// Task converts the page into the tracking model.
func (p Page) Task() tracking.Task {
	t := tracking.Task{
		ID:     p.ID,
		URL:    p.URL,
		Title:  p.text(tracking.PropName),
		Status: tracking.ParseTaskStatus(p.optionName(tracking.PropStatus)),
		Source: p.optionName(tracking.PropSource),
	}

	if prop, ok := p.Properties[tracking.PropType]; ok {
		types := make([]tracking.TypeName, 0, len(prop.MultiSelect))
		for _, o := range prop.MultiSelect {
			types = append(types, tracking.TypeName(o.Name))
		}
		t.Types = tracking.NormalizeTypes(types)
	}
	if prop, ok := p.Properties[tracking.PropIssueNumber]; ok && prop.Number != nil {
		t.IssueNumber = tracking.IntPtr(int(*prop.Number))
	}
	if prop, ok := p.Properties[tracking.PropIssueURL]; ok && prop.URL != nil {
		t.IssueURL = *prop.URL
	}
	if prop, ok := p.Properties[tracking.PropLastSynced]; ok && prop.Date != nil {
		if ts, err := time.Parse(time.RFC3339, prop.Date.Start); err == nil {
			t.LastSyncedAt = ts
		}
	}
	return t
}

func (p Page) text(name string) string {
	prop, ok := p.Properties[name]
	if !ok {
		return ""
	}
	items := prop.Title
	if len(items) == 0 {
		items = prop.RichText
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString(item.PlainText)
	}
	return b.String()
}

// optionName reads a select value, accepting Notion's status type as well.
func (p Page) optionName(name string) string {
	prop, ok := p.Properties[name]
	if !ok {
		return ""
	}
	if prop.Select != nil {
		return prop.Select.Name
	}
	if prop.Status != nil {
		return prop.Status.Name
	}
	return ""
}

// encodeProperties builds the "properties" object for create and update.
func encodeProperties(f tracking.TaskFields) map[string]any {
	props := make(map[string]any)

	if f.Title != nil {
		props[tracking.PropName] = map[string]any{
			"title": []map[string]any{
				{"text": map[string]string{"content": *f.Title}},
			},
		}
	}
	if f.Status != nil {
		props[tracking.PropStatus] = map[string]any{
			"select": map[string]string{"name": string(*f.Status)},
		}
	}
	if f.SetTypes {
		opts := make([]map[string]string, 0, len(f.Types))
		for _, t := range tracking.NormalizeTypes(f.Types) {
			opts = append(opts, map[string]string{"name": string(t)})
		}
		props[tracking.PropType] = map[string]any{"multi_select": opts}
	}
	if f.IssueNumber != nil {
		props[tracking.PropIssueNumber] = map[string]any{"number": *f.IssueNumber}
	}
	if f.IssueURL != nil {
		props[tracking.PropIssueURL] = map[string]any{"url": *f.IssueURL}
	}
	if f.Source != nil {
		props[tracking.PropSource] = map[string]any{
			"select": map[string]string{"name": *f.Source},
		}
	}
	if f.LastSyncedAt != nil {
		props[tracking.PropLastSynced] = map[string]any{
			"date": map[string]string{"start": f.LastSyncedAt.UTC().Format(time.RFC3339)},
		}
	}

	return props
}

// encodeFilter translates a tracking.Filter into the query filter object.
func encodeFilter(f tracking.Filter) map[string]any {
	switch f.Op {
	case tracking.OpAnd, tracking.OpOr:
		children := make([]map[string]any, 0, len(f.Children))
		for _, c := range f.Children {
			children = append(children, encodeFilter(c))
		}
		return map[string]any{string(f.Op): children}
	}

	kind, ok := propertyTypes[f.Property]
	if !ok {
		kind = "rich_text"
	}

	var cond map[string]any
	switch f.Op {
	case tracking.OpIsEmpty:
		cond = map[string]any{"is_empty": true}
	case tracking.OpIsNotEmpty:
		cond = map[string]any{"is_not_empty": true}
	case tracking.OpEquals:
		op := "equals"
		if kind == "multi_select" {
			op = "contains"
		}
		cond = map[string]any{op: filterValue(f.Value)}
	}

	return map[string]any{
		"property": f.Property,
		kind:       cond,
	}
}

func filterValue(v any) any {
	switch val := v.(type) {
	case tracking.TaskStatus:
		return string(val)
	case tracking.TypeName:
		return string(val)
	default:
		return val
	}
}
