package board

import (
	"slices"
	"strings"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/index"
)

const (
	groupColumn   = "column"
	groupAssigned = "assigned"
	groupTag      = "tag"
)

// GroupedSummary holds tasks grouped by a field.
type GroupedSummary struct {
	Field  string         `json:"field"`
	Groups []GroupSummary `json:"groups"`
}

// GroupSummary is one group within a grouped view.
type GroupSummary struct {
	Key               string   `json:"key"`
	Tasks             []string `json:"tasks"`
	Workload          float64  `json:"workload"`
	RemainingWorkload float64  `json:"remainingWorkload"`
}

// GroupBy groups tasks by column, assignee or tag. A task with several tags
// appears in each tag's group.
func GroupBy(tasks []*Tracked, field string, x *index.Index) (GroupedSummary, error) {
	if !slices.Contains(ValidGroupByFields(), field) {
		return GroupedSummary{}, clierr.Newf(clierr.SemanticError, "cannot group by %q", field).
			WithDetails(map[string]any{"field": field, "valid": ValidGroupByFields()})
	}

	groups := make(map[string]*GroupSummary)
	for _, t := range tasks {
		for _, key := range groupKeys(t, field) {
			g, ok := groups[key]
			if !ok {
				g = &GroupSummary{Key: key}
				groups[key] = g
			}
			g.Tasks = append(g.Tasks, t.ID)
			g.Workload += t.Workload
			g.RemainingWorkload += t.RemainingWorkload
		}
	}

	result := GroupedSummary{Field: field, Groups: make([]GroupSummary, 0, len(groups))}
	for _, key := range sortGroupKeys(groups, field, x) {
		result.Groups = append(result.Groups, *groups[key])
	}
	return result, nil
}

func groupKeys(t *Tracked, field string) []string {
	switch field {
	case groupAssigned:
		if t.Metadata.Assigned == "" {
			return []string{"(unassigned)"}
		}
		return []string{t.Metadata.Assigned}
	case groupTag:
		if len(t.Metadata.Tags) == 0 {
			return []string{"(untagged)"}
		}
		return t.Metadata.Tags
	default:
		if t.Column == "" {
			return []string{"(untracked)"}
		}
		return []string{t.Column}
	}
}

// sortGroupKeys orders column groups by board order and everything else by
// name.
func sortGroupKeys(groups map[string]*GroupSummary, field string, x *index.Index) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	if field != groupColumn {
		slices.Sort(keys)
		return keys
	}
	order := x.ColumnNames()
	rank := func(k string) int {
		if i := slices.Index(order, k); i >= 0 {
			return i
		}
		return len(order)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if d := rank(a) - rank(b); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return keys
}

// ValidGroupByFields returns the list of valid --group-by field names.
func ValidGroupByFields() []string {
	return []string{groupColumn, groupAssigned, groupTag}
}
