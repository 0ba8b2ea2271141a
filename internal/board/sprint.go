package board

import (
	"strconv"
	"time"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/index"
)

// SprintWindow is a sprint with its resolved bounds. Start is inclusive and
// End exclusive.
type SprintWindow struct {
	Number      int       `json:"number"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Current     bool      `json:"current"`
}

// Sprints resolves every sprint's window. Each sprint ends where the next
// starts; the last one ends at now.
func Sprints(o index.Options, now time.Time) []SprintWindow {
	out := make([]SprintWindow, len(o.Sprints))
	for i, s := range o.Sprints {
		w := SprintWindow{
			Number:      i + 1,
			Name:        s.Name,
			Description: s.Description,
			Start:       s.Start,
			End:         now,
			Current:     i == len(o.Sprints)-1,
		}
		if i+1 < len(o.Sprints) {
			w.End = o.Sprints[i+1].Start
		}
		out[i] = w
	}
	return out
}

// ResolveSprint finds a sprint by 1-based number or by name. An empty
// selector picks the latest sprint.
func ResolveSprint(o index.Options, selector string, now time.Time) (SprintWindow, error) {
	windows := Sprints(o, now)
	if len(windows) == 0 {
		return SprintWindow{}, clierr.New(clierr.SemanticError, "no sprints defined")
	}
	if selector == "" {
		return windows[len(windows)-1], nil
	}
	if n, err := strconv.Atoi(selector); err == nil {
		if n < 1 || n > len(windows) {
			return SprintWindow{}, clierr.Newf(clierr.SemanticError, "sprint %d does not exist", n).
				WithDetails(map[string]any{"sprint": n, "count": len(windows)})
		}
		return windows[n-1], nil
	}
	for _, w := range windows {
		if w.Name == selector {
			return w, nil
		}
	}
	return SprintWindow{}, clierr.Newf(clierr.SemanticError, "no sprint named %q", selector).
		WithDetails(map[string]any{"sprint": selector})
}

// Contains reports whether t falls inside [Start, End).
func (w SprintWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
