package board

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

// Tracked is a task with the facts derived from its position on the board.
// It is computed on demand and never written back.
type Tracked struct {
	*task.Task
	Column            string   `json:"column"`
	Workload          float64  `json:"workload"`
	Progress          float64  `json:"progress"`
	RemainingWorkload float64  `json:"remainingWorkload"`
	Due               *DueData `json:"dueData,omitempty"`
}

// DueData describes a task's standing against its due date.
type DueData struct {
	Completed     bool          `json:"completed"`
	CompletedDate *time.Time    `json:"completedDate,omitempty"`
	DueDate       time.Time     `json:"dueDate"`
	Overdue       bool          `json:"overdue"`
	DueDelta      time.Duration `json:"dueDelta"`
	DueMessage    string        `json:"dueMessage"`
}

// Hydrate derives column, workload, progress and due data for each task.
// Tasks missing from the index get an empty column.
func Hydrate(x *index.Index, tasks []*task.Task, now time.Time) []*Tracked {
	columns := make(map[string]string)
	for _, c := range x.Columns {
		for _, id := range c.Tasks {
			columns[id] = c.Name
		}
	}

	out := make([]*Tracked, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Track(t, columns[t.ID], x.Options, now))
	}
	return out
}

// Track hydrates a single task sitting in column.
func Track(t *task.Task, column string, o index.Options, now time.Time) *Tracked {
	tr := &Tracked{
		Task:     t,
		Column:   column,
		Workload: Workload(t, o),
		Progress: Progress(t, column, o),
	}
	tr.RemainingWorkload = RemainingWorkload(tr.Workload, tr.Progress)
	if t.Metadata.Due != nil {
		tr.Due = dueData(t, column, o, now)
	}
	return tr
}

func dueData(t *task.Task, column string, o index.Options, now time.Time) *DueData {
	due := *t.Metadata.Due
	d := &DueData{
		Completed:     t.Metadata.Completed != nil || o.IsCompleted(column),
		CompletedDate: t.Metadata.Completed,
		DueDate:       due,
	}

	if d.Completed {
		ref := now
		if d.CompletedDate != nil {
			ref = *d.CompletedDate
		}
		d.DueDelta = ref.Sub(due)
		d.DueMessage = humanize.RelTime(ref, due, "before due", "after due")
		return d
	}

	d.DueDelta = now.Sub(due)
	d.Overdue = d.DueDelta > 0
	d.DueMessage = humanize.RelTime(due, now, "overdue", "remaining")
	return d
}
