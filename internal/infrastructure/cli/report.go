package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/tasksync/pkg/application"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	plannedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type reportWriter func(io.Writer, *application.Report) error

func reportEncoder(format string) (reportWriter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return writeText, nil
	case "json":
		return writeJSON, nil
	case "yaml", "yml":
		return writeYAML, nil
	default:
		return nil, NewCLIError(fmt.Sprintf("unknown output format %q", format), "Use text, json or yaml", nil)
	}
}

func renderReport(w io.Writer, format string, report *application.Report) error {
	if report == nil {
		return nil
	}
	enc, err := reportEncoder(format)
	if err != nil {
		return err
	}
	return enc(w, report)
}

func writeJSON(w io.Writer, report *application.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeYAML(w io.Writer, report *application.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

func writeText(w io.Writer, report *application.Report) error {
	var b strings.Builder

	header := fmt.Sprintf("tasksync %s run %s", report.Mode, report.RunID)
	if report.DryRun {
		header += " (dry run)"
	}
	b.WriteString(titleStyle.Render(header) + "\n")

	if report.Note != "" {
		b.WriteString(mutedStyle.Render(report.Note) + "\n")
	}
	if report.Event != nil {
		b.WriteString(itemLine(*report.Event) + "\n")
	}
	for _, batch := range report.Batches {
		if batch == nil {
			continue
		}
		b.WriteString(fmt.Sprintf("\n%s: %d task(s)\n", titleStyle.Render(batch.Operation), batch.Total))
		if batch.Total == 0 {
			b.WriteString(mutedStyle.Render("  nothing to do") + "\n")
		}
		for _, item := range batch.Items {
			b.WriteString("  " + itemLine(item) + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("\n%d write(s)\n", report.Writes()))

	_, err := io.WriteString(w, b.String())
	return err
}

func itemLine(item application.ItemResult) string {
	action := string(item.Action)
	switch item.Action {
	case application.ActionCreated, application.ActionUpdated, application.ActionClosed:
		action = okStyle.Render(action)
	case application.ActionPlanned:
		action = plannedStyle.Render(action)
	case application.ActionFailed:
		action = failStyle.Render(action)
	default:
		action = mutedStyle.Render(action)
	}

	line := action
	if item.IssueNumber > 0 {
		line += fmt.Sprintf(" #%d", item.IssueNumber)
	}
	if item.Title != "" {
		line += " " + item.Title
	}
	if item.TaskID != "" {
		line += mutedStyle.Render(" [" + item.TaskID + "]")
	}
	switch {
	case item.Error != "":
		line += ": " + item.Error
	case item.Reason != "":
		line += mutedStyle.Render(" (" + item.Reason + ")")
	}
	return line
}
