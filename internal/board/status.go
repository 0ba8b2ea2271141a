package board

import (
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

// StatusOptions selects the optional parts of a status report.
type StatusOptions struct {
	// Now is the reference time; the current time when zero.
	Now time.Time
	// Assigned adds per-assignee totals.
	Assigned bool
	// Due adds the due-date report.
	Due bool
	// Sprint adds a sprint report for SprintSelector (a 1-based number or
	// a name; empty means the latest sprint).
	Sprint         bool
	SprintSelector string
	// Dates adds a period report. One date covers that calendar day; more
	// cover [min, max].
	Dates []time.Time
}

// StatusReport summarises a board.
type StatusReport struct {
	Name                   string           `json:"name"`
	Tasks                  int              `json:"tasks"`
	Columns                []ColumnStatus   `json:"columns"`
	StartedTasks           int              `json:"startedTasks"`
	CompletedTasks         int              `json:"completedTasks"`
	TotalWorkload          float64          `json:"totalWorkload"`
	TotalRemainingWorkload float64          `json:"totalRemainingWorkload"`
	TaskWorkloads          []TaskWorkload   `json:"taskWorkloads"`
	Assigned               []AssignedStatus `json:"assigned,omitempty"`
	Due                    []DueStatus      `json:"dueTasks,omitempty"`
	Sprint                 *SprintStatus    `json:"sprint,omitempty"`
	Period                 *PeriodStatus    `json:"period,omitempty"`
	Untracked              []string         `json:"untrackedTasks,omitempty"`
}

// ColumnStatus holds per-column totals.
type ColumnStatus struct {
	Name              string  `json:"name"`
	Tasks             int     `json:"tasks"`
	Workload          float64 `json:"workload"`
	RemainingWorkload float64 `json:"remainingWorkload"`
}

// TaskWorkload holds one task's workload figures.
type TaskWorkload struct {
	ID                string  `json:"id"`
	Column            string  `json:"column"`
	Workload          float64 `json:"workload"`
	Progress          float64 `json:"progress"`
	RemainingWorkload float64 `json:"remainingWorkload"`
}

// AssignedStatus holds per-assignee totals.
type AssignedStatus struct {
	Name              string  `json:"name"`
	Tasks             int     `json:"tasks"`
	Workload          float64 `json:"workload"`
	RemainingWorkload float64 `json:"remainingWorkload"`
}

// DueStatus is one task's due standing.
type DueStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Column string `json:"column"`
	DueData
}

// Breakdown is a set of tasks and their summed workload.
type Breakdown struct {
	Tasks    []string `json:"tasks"`
	Workload float64  `json:"workload"`
}

// Activity groups tasks by which of their dates fall in a window.
type Activity struct {
	Created   Breakdown `json:"created"`
	Started   Breakdown `json:"started"`
	Completed Breakdown `json:"completed"`
	Due       Breakdown `json:"due"`
}

// SprintStatus reports on one sprint.
type SprintStatus struct {
	SprintWindow
	Elapsed        time.Duration `json:"durationDelta"`
	ElapsedMessage string        `json:"durationMessage"`
	Activity
}

// PeriodStatus reports on an arbitrary date range. Both ends are inclusive.
type PeriodStatus struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Activity
}

// Status builds a status report for the board.
func Status(x *index.Index, tasks []*task.Task, opts StatusOptions) (*StatusReport, error) {
	now := opts.Now
	if now.IsZero() {
		now = timeNow()
	}

	tracked := Hydrate(x, tasks, now)
	byID := make(map[string]*Tracked, len(tracked))
	for _, t := range tracked {
		byID[t.ID] = t
	}

	r := &StatusReport{Name: x.Name}
	for _, c := range x.Columns {
		cs := ColumnStatus{Name: c.Name, Tasks: len(c.Tasks)}
		r.Tasks += len(c.Tasks)
		if x.Options.IsStarted(c.Name) {
			r.StartedTasks += len(c.Tasks)
		}
		if x.Options.IsCompleted(c.Name) {
			r.CompletedTasks += len(c.Tasks)
		}
		for _, id := range c.Tasks {
			t, ok := byID[id]
			if !ok {
				continue
			}
			cs.Workload += t.Workload
			cs.RemainingWorkload += t.RemainingWorkload
			r.TaskWorkloads = append(r.TaskWorkloads, TaskWorkload{
				ID:                t.ID,
				Column:            c.Name,
				Workload:          t.Workload,
				Progress:          t.Progress,
				RemainingWorkload: t.RemainingWorkload,
			})
		}
		r.TotalWorkload += cs.Workload
		r.TotalRemainingWorkload += cs.RemainingWorkload
		r.Columns = append(r.Columns, cs)
	}

	onBoard := boardTasks(x, byID)
	if opts.Assigned {
		r.Assigned = assignedStatus(onBoard)
	}
	if opts.Due {
		for _, t := range onBoard {
			if t.Due != nil {
				r.Due = append(r.Due, DueStatus{ID: t.ID, Name: t.Name, Column: t.Column, DueData: *t.Due})
			}
		}
	}
	if opts.Sprint {
		w, err := ResolveSprint(x.Options, opts.SprintSelector, now)
		if err != nil {
			return nil, err
		}
		elapsedEnd := w.End
		if w.Current {
			elapsedEnd = now
		}
		r.Sprint = &SprintStatus{
			SprintWindow:   w,
			Elapsed:        elapsedEnd.Sub(w.Start),
			ElapsedMessage: strings.TrimSpace(humanize.RelTime(w.Start, elapsedEnd, "", "")),
			Activity:       activity(onBoard, w.Contains),
		}
	}
	if len(opts.Dates) > 0 {
		start, end := periodBounds(opts.Dates)
		r.Period = &PeriodStatus{
			Start: start,
			End:   end,
			Activity: activity(onBoard, func(t time.Time) bool {
				return !t.Before(start) && !t.After(end)
			}),
		}
	}
	return r, nil
}

// boardTasks returns the tracked tasks that sit in a column, in board order.
func boardTasks(x *index.Index, byID map[string]*Tracked) []*Tracked {
	var out []*Tracked
	for _, id := range x.TaskIDs() {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func assignedStatus(tasks []*Tracked) []AssignedStatus {
	var out []AssignedStatus
	pos := make(map[string]int)
	for _, t := range tasks {
		name := t.Metadata.Assigned
		if name == "" {
			continue
		}
		i, ok := pos[name]
		if !ok {
			i = len(out)
			pos[name] = i
			out = append(out, AssignedStatus{Name: name})
		}
		out[i].Tasks++
		out[i].Workload += t.Workload
		out[i].RemainingWorkload += t.RemainingWorkload
	}
	slices.SortStableFunc(out, func(a, b AssignedStatus) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func activity(tasks []*Tracked, in func(time.Time) bool) Activity {
	var a Activity
	add := func(b *Breakdown, d *time.Time, t *Tracked) {
		if d != nil && in(*d) {
			b.Tasks = append(b.Tasks, t.ID)
			b.Workload += t.Workload
		}
	}
	for _, t := range tasks {
		add(&a.Created, t.Metadata.Created, t)
		add(&a.Started, t.Metadata.Started, t)
		add(&a.Completed, t.Metadata.Completed, t)
		add(&a.Due, t.Metadata.Due, t)
	}
	return a
}

// periodBounds turns one date into its calendar day and several into
// [min, max].
func periodBounds(dates []time.Time) (time.Time, time.Time) {
	if len(dates) == 1 {
		return date.StartOfDay(dates[0]), date.EndOfDay(dates[0])
	}
	return slices.MinFunc(dates, time.Time.Compare), slices.MaxFunc(dates, time.Time.Compare)
}
