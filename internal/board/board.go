package board

import (
	"slices"
	"strings"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

// Untracked returns the ids in taskIDs that no column references, in input
// order.
func Untracked(x *index.Index, taskIDs []string) []string {
	var out []string
	for _, id := range taskIDs {
		if _, ok := x.Find(id); !ok {
			out = append(out, id)
		}
	}
	return out
}

// ParseIDs splits a comma-separated list of task ids, dropping blanks and
// duplicates.
func ParseIDs(arg string) ([]string, error) {
	var ids []string
	for _, p := range strings.Split(arg, ",") {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(ids, p) {
			continue
		}
		ids = append(ids, p)
	}
	if len(ids) == 0 {
		return nil, clierr.New(clierr.InvalidInput, "no task ids provided")
	}
	return ids, nil
}

// CountByColumn returns the number of tasks in each column.
func CountByColumn(x *index.Index) map[string]int {
	counts := make(map[string]int, len(x.Columns))
	for _, c := range x.Columns {
		counts[c.Name] = len(c.Tasks)
	}
	return counts
}

// FindDependents returns the ids of tasks holding a relation to id. Used to
// warn before removing a task.
func FindDependents(tasks []*task.Task, id string) []string {
	var out []string
	for _, t := range tasks {
		if t.ID == id {
			continue
		}
		if slices.ContainsFunc(t.Relations, func(r task.Relation) bool { return r.Task == id }) {
			out = append(out, t.ID)
		}
	}
	return out
}
