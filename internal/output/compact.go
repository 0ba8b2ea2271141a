package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/baflo/kanbn-sub002/internal/board"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []*board.Tracked) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(t))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, t *board.Tracked) {
	fmt.Fprintln(w, formatTaskLine(t)+
		" workload:"+formatNumber(t.Workload)+
		" progress:"+formatPercent(t.Progress))

	m := t.Metadata
	var ts []string
	if m.Created != nil {
		ts = append(ts, "created:"+m.Created.Format(dateLayout))
	}
	if m.Updated != nil {
		ts = append(ts, "updated:"+m.Updated.Format(dateLayout))
	}
	if m.Started != nil {
		ts = append(ts, "started:"+m.Started.Format(dateLayout))
	}
	if m.Completed != nil {
		ts = append(ts, "completed:"+m.Completed.Format(dateLayout))
	}
	if len(ts) > 0 {
		fmt.Fprintln(w, "  "+strings.Join(ts, " "))
	}

	for _, s := range t.SubTasks {
		mark := "[ ]"
		if s.Completed {
			mark = "[x]"
		}
		fmt.Fprintln(w, "  "+mark+" "+s.Text)
	}
	for _, r := range t.Relations {
		fmt.Fprintln(w, "  ->"+strings.TrimSpace(" "+r.Type+" "+r.Task))
	}
	if t.Description != "" {
		for _, line := range strings.Split(t.Description, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

// StatusCompact renders a status report in compact format.
func StatusCompact(w io.Writer, r *board.StatusReport) {
	fmt.Fprintf(w, "%s (%d tasks, %d started, %d completed, workload %s, remaining %s)\n",
		r.Name, r.Tasks, r.StartedTasks, r.CompletedTasks,
		formatNumber(r.TotalWorkload), formatNumber(r.TotalRemainingWorkload))

	for _, c := range r.Columns {
		fmt.Fprintln(w, "  "+c.Name+": "+strconv.Itoa(c.Tasks)+" workload:"+formatNumber(c.Workload))
	}
	for _, a := range r.Assigned {
		fmt.Fprintln(w, "  @"+a.Name+": "+strconv.Itoa(a.Tasks)+" workload:"+formatNumber(a.Workload))
	}
	for _, d := range r.Due {
		line := "  due " + d.ID + " " + d.DueDate.Format(dateLayout)
		if d.Overdue {
			line += " overdue"
		}
		fmt.Fprintln(w, line)
	}
	if s := r.Sprint; s != nil {
		fmt.Fprintf(w, "Sprint %d %s: created=%d started=%d completed=%d due=%d\n",
			s.Number, s.Name, len(s.Created.Tasks), len(s.Started.Tasks), len(s.Completed.Tasks), len(s.Due.Tasks))
	}
	if p := r.Period; p != nil {
		fmt.Fprintf(w, "Period %s..%s: created=%d started=%d completed=%d due=%d\n",
			p.Start.Format(dateLayout), p.End.Format(dateLayout),
			len(p.Created.Tasks), len(p.Started.Tasks), len(p.Completed.Tasks), len(p.Due.Tasks))
	}
	if len(r.Untracked) > 0 {
		fmt.Fprintln(w, "Untracked: "+strings.Join(r.Untracked, ", "))
	}
}

// BurndownCompact renders one line per burndown point.
func BurndownCompact(w io.Writer, r *board.BurndownReport) {
	for _, s := range r.Series {
		fmt.Fprintln(w, seriesTitle(s))
		for _, p := range s.Points {
			line := "  " + p.X.Format(dateTimeLayout) + " " + formatNumber(p.Y)
			if ev := eventsDisplay(p.Tasks); ev != "" {
				line += " " + ev
			}
			fmt.Fprintln(w, line)
		}
	}
}

// GroupedCompact renders one line per group.
func GroupedCompact(w io.Writer, gs board.GroupedSummary) {
	for _, g := range gs.Groups {
		fmt.Fprintf(w, "%s (%d): %s\n", g.Key, len(g.Tasks), strings.Join(g.Tasks, ", "))
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t *board.Tracked) string {
	line := t.ID + " [" + t.Column + "] " + t.Name

	if t.Metadata.Assigned != "" {
		line += " @" + t.Metadata.Assigned
	}
	if len(t.Metadata.Tags) > 0 {
		line += " (" + strings.Join(t.Metadata.Tags, ", ") + ")"
	}
	if t.Due != nil {
		line += " due:" + t.Due.DueDate.Format(dateLayout)
		if t.Due.Overdue {
			line += "!"
		}
	}

	return line
}
