package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/baflo/kanbn-sub002/internal/board"
	"github.com/baflo/kanbn-sub002/internal/repo"
)

// LogTable renders activity log entries, newest last.
func LogTable(w io.Writer, entries []repo.LogEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity recorded.")
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-18s %-8s %-24s %s", "WHEN", "ACTION", "TASK", "DETAIL")))
	for _, e := range entries {
		when := humanize.RelTime(e.Timestamp, now, "ago", "from now")
		fmt.Fprintf(w, "%-18s %-8s %-24s %s\n", when, e.Action, stringOrDash(e.TaskID), e.Detail)
	}
}

// ProblemsTable renders validation problems.
func ProblemsTable(w io.Writer, problems []repo.Problem) {
	if len(problems) == 0 {
		fmt.Fprintln(w, completedStyle.Render("Board is valid."))
		return
	}
	for _, p := range problems {
		fmt.Fprintf(w, "%s: %s\n", overdueStyle.Render(p.File), p.Error)
	}
}

// SprintTable renders sprint windows, marking the current one.
func SprintTable(w io.Writer, sprints []board.SprintWindow) {
	if len(sprints) == 0 {
		fmt.Fprintln(os.Stderr, "No sprints defined.")
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-4s %-20s %-12s %-10s %s", "#", "NAME", "START", "LENGTH", "DESCRIPTION")))
	for _, s := range sprints {
		name := s.Name
		if s.Current {
			name = completedStyle.Render(padRight(name+" *", 20)) //nolint:mnd // column width
		} else {
			name = padRight(name, 20) //nolint:mnd // column width
		}
		fmt.Fprintf(w, "%-4d %s %-12s %-10s %s\n",
			s.Number, name, s.Start.Format("2006-01-02"), FormatDuration(s.End.Sub(s.Start)), s.Description)
	}
}
