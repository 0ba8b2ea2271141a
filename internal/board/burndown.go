package board

import (
	"slices"
	"time"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

// Burndown event names.
const (
	EventCreated   = "created"
	EventStarted   = "started"
	EventCompleted = "completed"
)

// BurndownOptions selects the windows a burndown covers.
type BurndownOptions struct {
	// Now is the reference time; the current time when zero.
	Now time.Time
	// Sprints picks one window per sprint selector (number or name).
	Sprints []string
	// Dates picks a single window when Sprints is empty. One date runs
	// from that date to now; more run from the earliest to the latest.
	Dates []time.Time
	// Assigned keeps only tasks assigned to this person.
	Assigned string
	// Normalise collapses timestamps before points are computed.
	Normalise date.Resolution
}

// BurndownReport is one series per window.
type BurndownReport struct {
	Series []BurndownSeries `json:"series"`
}

// BurndownSeries is the data points of one window.
type BurndownSeries struct {
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
	Sprint *SprintWindow   `json:"sprint,omitempty"`
	Points []BurndownPoint `json:"dataPoints"`
}

// BurndownPoint is the active workload at one instant.
type BurndownPoint struct {
	X     time.Time       `json:"x"`
	Y     float64         `json:"y"`
	Count int             `json:"count"`
	Tasks []BurndownEvent `json:"tasks"`
}

// BurndownEvent is a task date that falls exactly on a point.
type BurndownEvent struct {
	Event string `json:"eventType"`
	Task  string `json:"task"`
}

type burndownWindow struct {
	from, to time.Time
	sprint   *SprintWindow
}

// burndownTask holds the normalised dates of one charted task.
type burndownTask struct {
	id       string
	workload float64
	events   [3]*time.Time
}

var eventNames = [3]string{EventCreated, EventStarted, EventCompleted}

// Burndown charts active workload over time. A task is active at T when it
// started at or before T and was not completed at or before T.
func Burndown(x *index.Index, tasks []*task.Task, opts BurndownOptions) (*BurndownReport, error) {
	now := opts.Now
	if now.IsZero() {
		now = timeNow()
	}

	tracked := Hydrate(x, tasks, now)
	byID := make(map[string]*Tracked, len(tracked))
	for _, t := range tracked {
		byID[t.ID] = t
	}
	onBoard := boardTasks(x, byID)
	if opts.Assigned != "" {
		onBoard = slices.DeleteFunc(onBoard, func(t *Tracked) bool {
			return t.Metadata.Assigned != opts.Assigned
		})
	}

	windows, err := burndownWindows(x.Options, onBoard, opts, now)
	if err != nil {
		return nil, err
	}

	res := opts.Normalise
	if res == date.Auto {
		res = date.ForSpan(windows[0].to.Sub(windows[0].from))
	}

	charted := make([]burndownTask, len(onBoard))
	for i, t := range onBoard {
		bt := burndownTask{id: t.ID, workload: t.Workload}
		for j, d := range []*time.Time{t.Metadata.Created, t.Metadata.Started, t.Metadata.Completed} {
			if d != nil {
				n := date.Normalize(*d, res)
				bt.events[j] = &n
			}
		}
		charted[i] = bt
	}

	report := &BurndownReport{}
	for _, w := range windows {
		from, to := date.Normalize(w.from, res), date.Normalize(w.to, res)
		report.Series = append(report.Series, BurndownSeries{
			From:   from,
			To:     to,
			Sprint: w.sprint,
			Points: burndownPoints(charted, from, to),
		})
	}
	return report, nil
}

func burndownWindows(o index.Options, tasks []*Tracked, opts BurndownOptions, now time.Time) ([]burndownWindow, error) {
	switch {
	case len(opts.Sprints) > 0:
		out := make([]burndownWindow, 0, len(opts.Sprints))
		for _, sel := range opts.Sprints {
			s, err := ResolveSprint(o, sel, now)
			if err != nil {
				return nil, err
			}
			out = append(out, burndownWindow{from: s.Start, to: s.End, sprint: &s})
		}
		return out, nil

	case len(opts.Dates) == 1:
		if opts.Dates[0].After(now) {
			return nil, clierr.New(clierr.SemanticError, "burndown date is in the future")
		}
		return []burndownWindow{{from: opts.Dates[0], to: now}}, nil

	case len(opts.Dates) > 1:
		return []burndownWindow{{
			from: slices.MinFunc(opts.Dates, time.Time.Compare),
			to:   slices.MaxFunc(opts.Dates, time.Time.Compare),
		}}, nil
	}

	if len(o.Sprints) > 0 {
		s := Sprints(o, now)[len(o.Sprints)-1]
		return []burndownWindow{{from: s.Start, to: s.End, sprint: &s}}, nil
	}
	from := now
	for _, t := range tasks {
		for _, d := range []*time.Time{t.Metadata.Created, t.Metadata.Started, t.Metadata.Completed} {
			if d != nil && d.Before(from) {
				from = *d
			}
		}
	}
	return []burndownWindow{{from: from, to: now}}, nil
}

func burndownPoints(tasks []burndownTask, from, to time.Time) []BurndownPoint {
	xs := []time.Time{from, to}
	for _, t := range tasks {
		for _, d := range t.events {
			if d != nil && !d.Before(from) && !d.After(to) {
				xs = append(xs, *d)
			}
		}
	}
	slices.SortFunc(xs, time.Time.Compare)
	xs = slices.CompactFunc(xs, time.Time.Equal)

	points := make([]BurndownPoint, len(xs))
	for i, at := range xs {
		p := BurndownPoint{X: at, Tasks: []BurndownEvent{}}
		for _, t := range tasks {
			if t.activeAt(at) {
				p.Y += t.workload
				p.Count++
			}
			for j, d := range t.events {
				if d != nil && d.Equal(at) {
					p.Tasks = append(p.Tasks, BurndownEvent{Event: eventNames[j], Task: t.id})
				}
			}
		}
		points[i] = p
	}
	return points
}

func (t burndownTask) activeAt(at time.Time) bool {
	started, completed := t.events[1], t.events[2]
	if started == nil || started.After(at) {
		return false
	}
	return completed == nil || completed.After(at)
}
