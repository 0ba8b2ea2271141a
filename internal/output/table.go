package output

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
	boardColWidth  = 28
	maxName        = 48
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	startedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	hiddenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	assignStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("44")).Bold(true)

	columnBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			Width(boardColWidth)
)

// DisableColor strips all styling from table output.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
	headerStyle = lipgloss.NewStyle()
	titleStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	startedStyle = lipgloss.NewStyle()
	completedStyle = lipgloss.NewStyle()
	hiddenStyle = lipgloss.NewStyle()
	overdueStyle = lipgloss.NewStyle()
	tagStyle = lipgloss.NewStyle()
	assignStyle = lipgloss.NewStyle()
	columnBox = columnBox.UnsetBorderForeground()
	plainMarkdown = true
}

// TaskTable renders a list of tasks as a formatted table.
func TaskTable(w io.Writer, tasks []*board.Tracked, o index.Options) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	idW, colW, nameW, assignW, tagsW, loadW, progW := 4, 8, 6, 10, 6, 10, 10
	for _, t := range tasks {
		idW = max(idW, len(t.ID)+pad)
		colW = max(colW, len(t.Column)+pad)
		nameW = max(nameW, min(len(t.Name)+pad, maxName+pad))
		assignW = max(assignW, len(assignedDisplay(t.Task))+pad)
		tagsW = max(tagsW, min(len(strings.Join(t.Metadata.Tags, ","))+pad, 30)) //nolint:mnd // max tags column width
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %-*s %s",
		idW, "ID", colW, "COLUMN", nameW, "NAME", assignW, "ASSIGNED",
		tagsW, "TAGS", loadW, "WORKLOAD", progW, "PROGRESS", "DUE")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, t := range tasks {
		assigned := assignedDisplay(t.Task)
		if assigned == "" {
			assigned = dimStyle.Render("--")
		} else {
			assigned = assignStyle.Render(assigned)
		}
		tags := strings.Join(t.Metadata.Tags, ",")
		if tags == "" {
			tags = dimStyle.Render("--")
		} else {
			tags = tagStyle.Render(tags)
		}

		row := fmt.Sprintf("%-*s %s %s %s %s %-*s %-*s %s",
			idW, t.ID,
			padRight(styledColumn(t.Column, o), colW),
			padRight(truncate(t.Name, maxName), nameW),
			padRight(assigned, assignW),
			padRight(tags, tagsW),
			loadW, formatNumber(t.Workload),
			progW, formatPercent(t.Progress),
			dueDisplay(t))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail.
func TaskDetail(w io.Writer, t *board.Tracked, o index.Options) {
	titleLine := fmt.Sprintf("Task %s: %s", t.ID, t.Name)
	fmt.Fprintln(w, titleStyle.Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	m := t.Metadata
	printField(w, "Column", stringOrDash(styledColumn(t.Column, o)))
	printField(w, "Assigned", stringOrDash(m.Assigned))
	if len(m.Tags) > 0 {
		printField(w, "Tags", tagStyle.Render(strings.Join(m.Tags, ", ")))
	} else {
		printField(w, "Tags", dimStyle.Render("--"))
	}
	printField(w, "Workload", formatNumber(t.Workload))
	printField(w, "Progress", formatPercent(t.Progress))
	printField(w, "Remaining", formatNumber(t.RemainingWorkload))

	for _, d := range []struct {
		label string
		value *time.Time
	}{
		{"Created", m.Created},
		{"Updated", m.Updated},
		{"Started", m.Started},
		{"Completed", m.Completed},
	} {
		if d.value != nil {
			printField(w, d.label, d.value.Format(dateTimeLayout))
		}
	}
	if t.Due != nil {
		due := t.Due.DueDate.Format(dateTimeLayout) + " (" + t.Due.DueMessage + ")"
		if t.Due.Overdue {
			due = overdueStyle.Render(due)
		}
		printField(w, "Due", due)
	}
	if m.Created != nil && m.Completed != nil {
		printField(w, "Lead time", FormatDuration(m.Completed.Sub(*m.Created)))
		if m.Started != nil {
			printField(w, "Cycle time", FormatDuration(m.Completed.Sub(*m.Started)))
		}
	}

	keys := make([]string, 0, len(m.Custom))
	for k := range m.Custom {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		printField(w, k, fmt.Sprint(m.Custom[k]))
	}

	if len(t.SubTasks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Sub-tasks"))
		for _, s := range t.SubTasks {
			mark := "[ ]"
			if s.Completed {
				mark = completedStyle.Render("[x]")
			}
			fmt.Fprintf(w, "  %s %s\n", mark, s.Text)
		}
	}

	if len(t.Relations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Relations"))
		for _, r := range t.Relations {
			if r.Type != "" {
				fmt.Fprintf(w, "  %s %s\n", r.Type, r.Task)
			} else {
				fmt.Fprintf(w, "  %s\n", r.Task)
			}
		}
	}

	if len(t.Comments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Comments"))
		for _, c := range t.Comments {
			var byline []string
			if c.Author != "" {
				byline = append(byline, c.Author)
			}
			if c.Date != nil {
				byline = append(byline, c.Date.Format(dateTimeLayout))
			}
			if len(byline) > 0 {
				fmt.Fprintln(w, "  "+dimStyle.Render(strings.Join(byline, ", ")))
			}
			for _, line := range strings.Split(c.Text, "\n") {
				fmt.Fprintln(w, "    "+line)
			}
		}
	}

	if t.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, Markdown(t.Description))
	}
}

type laneColumn struct {
	name  string
	tasks []*board.Tracked
}

// BoardTable renders the board as side-by-side columns. Hidden columns are
// left out.
func BoardTable(w io.Writer, x *index.Index, tasks []*board.Tracked) {
	byID := make(map[string]*board.Tracked, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var cols []laneColumn
	for _, c := range x.Columns {
		if x.Options.IsHidden(c.Name) {
			continue
		}
		lc := laneColumn{name: c.Name}
		for _, id := range c.Tasks {
			if t, ok := byID[id]; ok {
				lc.tasks = append(lc.tasks, t)
			}
		}
		cols = append(cols, lc)
	}

	fmt.Fprintln(w, titleStyle.Render(x.Name))
	fmt.Fprintln(w, renderColumns(cols, x.Options))
}

// ViewTable renders the lanes of a view one under another.
func ViewTable(w io.Writer, v *board.ViewResult, o index.Options) {
	fmt.Fprintln(w, titleStyle.Render(v.Name))
	for _, lane := range v.Lanes {
		if lane.Name != "" {
			fmt.Fprintln(w, headerStyle.Render(lane.Name))
		}
		cols := make([]laneColumn, 0, len(lane.Columns))
		for _, c := range lane.Columns {
			cols = append(cols, laneColumn{name: c.Name, tasks: c.Tasks})
		}
		fmt.Fprintln(w, renderColumns(cols, o))
	}
}

func renderColumns(cols []laneColumn, o index.Options) string {
	rendered := make([]string, 0, len(cols))
	for _, c := range cols {
		var b strings.Builder
		b.WriteString(styledColumn(c.name, o))
		b.WriteString(dimStyle.Render(fmt.Sprintf(" (%d)", len(c.tasks))))
		for _, t := range c.tasks {
			b.WriteString("\n")
			b.WriteString(card(t))
		}
		rendered = append(rendered, columnBox.Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func card(t *board.Tracked) string {
	line := truncate(t.Name, boardColWidth-4) //nolint:mnd // border and padding
	var meta []string
	if t.Metadata.Assigned != "" {
		meta = append(meta, assignStyle.Render("@"+t.Metadata.Assigned))
	}
	if t.Due != nil && t.Due.Overdue {
		meta = append(meta, overdueStyle.Render("overdue"))
	}
	if len(meta) > 0 {
		line += "\n  " + strings.Join(meta, " ")
	}
	return line
}

// StatusTable renders a status report as a dashboard.
func StatusTable(w io.Writer, r *board.StatusReport) {
	fmt.Fprintln(w, titleStyle.Render(r.Name))
	fmt.Fprintf(w, "Tasks: %d  Started: %d  Completed: %d\n", r.Tasks, r.StartedTasks, r.CompletedTasks)
	fmt.Fprintf(w, "Workload: %s  Remaining: %s\n\n",
		formatNumber(r.TotalWorkload), formatNumber(r.TotalRemainingWorkload))

	nameW := len("COLUMN")
	for _, c := range r.Columns {
		nameW = max(nameW, len(c.Name))
	}
	for _, a := range r.Assigned {
		nameW = max(nameW, len(a.Name))
	}
	nameW += 2

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %6s %9s %10s", nameW, "COLUMN", "TASKS", "WORKLOAD", "REMAINING")))
	for _, c := range r.Columns {
		fmt.Fprintf(w, "%-*s %6d %9s %10s\n", nameW, c.Name, c.Tasks, formatNumber(c.Workload), formatNumber(c.RemainingWorkload))
	}

	if len(r.Assigned) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %6s %9s %10s", nameW, "ASSIGNED", "TASKS", "WORKLOAD", "REMAINING")))
		for _, a := range r.Assigned {
			fmt.Fprintf(w, "%-*s %6d %9s %10s\n", nameW, a.Name, a.Tasks, formatNumber(a.Workload), formatNumber(a.RemainingWorkload))
		}
	}

	if len(r.Due) > 0 {
		fmt.Fprintln(w)
		idW := len("ID")
		for _, d := range r.Due {
			idW = max(idW, len(d.ID))
		}
		idW += 2
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %-12s %s", idW, "ID", "DUE", "STATUS")))
		for _, d := range r.Due {
			msg := d.DueMessage
			if d.Overdue {
				msg = overdueStyle.Render("overdue, " + msg)
			}
			fmt.Fprintf(w, "%-*s %-12s %s\n", idW, d.ID, d.DueDate.Format(dateLayout), msg)
		}
	}

	if s := r.Sprint; s != nil {
		fmt.Fprintln(w)
		title := fmt.Sprintf("Sprint %d: %s", s.Number, s.Name)
		if s.Current {
			title += " (current)"
		}
		fmt.Fprintln(w, titleStyle.Render(title))
		fmt.Fprintf(w, "%s to %s, started %s\n",
			s.Start.Format(dateLayout), s.End.Format(dateLayout), s.ElapsedMessage)
		activityTable(w, s.Activity)
	}

	if p := r.Period; p != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Period %s to %s",
			p.Start.Format(dateLayout), p.End.Format(dateLayout))))
		activityTable(w, p.Activity)
	}

	if len(r.Untracked) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("UNTRACKED"))
		for _, id := range r.Untracked {
			fmt.Fprintln(w, "  "+id)
		}
	}
}

func activityTable(w io.Writer, a board.Activity) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-10s %6s %9s  %s", "EVENT", "TASKS", "WORKLOAD", "IDS")))
	for _, row := range []struct {
		name string
		b    board.Breakdown
	}{
		{"created", a.Created},
		{"started", a.Started},
		{"completed", a.Completed},
		{"due", a.Due},
	} {
		fmt.Fprintf(w, "%-10s %6d %9s  %s\n", row.name, len(row.b.Tasks), formatNumber(row.b.Workload),
			strings.Join(row.b.Tasks, ", "))
	}
}

// BurndownTable renders each burndown series as a table of points.
func BurndownTable(w io.Writer, r *board.BurndownReport) {
	for i, s := range r.Series {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, titleStyle.Render(seriesTitle(s)))
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-17s %9s %6s  %s", "DATE", "WORKLOAD", "TASKS", "EVENTS")))
		for _, p := range s.Points {
			fmt.Fprintf(w, "%-17s %9s %6d  %s\n",
				p.X.Format(dateTimeLayout), formatNumber(p.Y), p.Count, eventsDisplay(p.Tasks))
		}
	}
}

func seriesTitle(s board.BurndownSeries) string {
	span := s.From.Format(dateLayout) + " to " + s.To.Format(dateLayout)
	if s.Sprint != nil {
		return fmt.Sprintf("Sprint %d: %s (%s)", s.Sprint.Number, s.Sprint.Name, span)
	}
	return span
}

func eventsDisplay(events []board.BurndownEvent) string {
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, e.Event+":"+e.Task)
	}
	return strings.Join(parts, ", ")
}

// GroupedTable renders tasks grouped by a field.
func GroupedTable(w io.Writer, gs board.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}

	for i, g := range gs.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d tasks, workload %s, remaining %s)",
			g.Key, len(g.Tasks), formatNumber(g.Workload), formatNumber(g.RemainingWorkload))
		fmt.Fprintln(w, titleStyle.Render(title))
		for _, id := range g.Tasks {
			fmt.Fprintln(w, "  "+id)
		}
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// FormatDuration renders a duration as human-readable "Xd Yh" or "Xh Ym".
func FormatDuration(d time.Duration) string {
	const hoursPerDay = 24
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if days > 0 {
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h"
	}
	minutes := int(d.Minutes()) % 60 //nolint:mnd // 60 minutes per hour
	return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f*100, 'f', 0, 64) + "%" //nolint:mnd // percent
}

// assignedDisplay returns "@name" if the task is assigned, or "" otherwise.
func assignedDisplay(t *task.Task) string {
	if t.Metadata.Assigned != "" {
		return "@" + t.Metadata.Assigned
	}
	return ""
}

func dueDisplay(t *board.Tracked) string {
	if t.Due == nil {
		return dimStyle.Render("--")
	}
	due := t.Due.DueDate.Format(dateLayout)
	if t.Due.Overdue {
		return overdueStyle.Render(due)
	}
	return due
}

// styledColumn colours a column name by its role on the board.
func styledColumn(name string, o index.Options) string {
	switch {
	case name == "":
		return ""
	case o.IsCompleted(name):
		return completedStyle.Render(name)
	case o.IsStarted(name):
		return startedStyle.Render(name)
	case o.IsHidden(name):
		return hiddenStyle.Render(name)
	}
	return name
}
