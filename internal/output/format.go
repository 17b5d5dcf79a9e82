// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"ganttview/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"
)

// FormatAccount formats an account line.
// Format: "{ID:>10}  {NAME}\n"
func FormatAccount(w io.Writer, a service.Account) {
	fmt.Fprintf(w, "%10d  %s\n", a.ID, normalizeTitle(a.Name))
}

// FormatProject formats a project line.
// Format: "{ID:>10}  {NAME}\n"
func FormatProject(w io.Writer, p service.Project) {
	fmt.Fprintf(w, "%10d  %s\n", p.ID, normalizeTitle(p.Name))
}

// FormatListHeader formats a to-do list section header.
func FormatListHeader(w io.Writer, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, normalizeTitle(title))
	fmt.Fprintln(w, ListSeparator)
}

// FormatTask formats a Gantt row.
// Format: "{START}  {END}  {PROGRESS:>3}%  {NAME}[  @{ASSIGNEES}]\n"
func FormatTask(w io.Writer, t service.GanttTask) {
	line := fmt.Sprintf("%s  %s  %3d%%  %s", t.Start, t.End, t.Progress, normalizeTitle(t.Name))
	if len(t.Assignees) > 0 {
		line += "  @" + strings.Join(t.Assignees, ", @")
	}
	fmt.Fprintln(w, line)
}

// FormatTasks writes rows grouped under a header per to-do list. Rows
// keep their order; a header is written whenever the list changes.
func FormatTasks(w io.Writer, tasks []service.GanttTask) {
	current := ""
	for i, t := range tasks {
		if i == 0 || t.List != current {
			FormatListHeader(w, t.List)
			current = t.List
		}
		FormatTask(w, t)
	}
}

// normalizeTitle normalizes a title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
