package board

import (
	"regexp"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/index"
)

// ViewResult is a named view evaluated against the board.
type ViewResult struct {
	Name  string       `json:"name"`
	Lanes []LaneResult `json:"lanes"`
}

// LaneResult is one horizontal lane of a view.
type LaneResult struct {
	Name    string         `json:"name"`
	Columns []ColumnResult `json:"columns"`
}

// ColumnResult holds the tasks shown in one view column.
type ColumnResult struct {
	Name  string     `json:"name"`
	Tasks []*Tracked `json:"tasks"`
}

// ApplyView evaluates the view called name. View filters narrow the task set
// first; each column then applies its own filters and sorters. A column
// without filters shows the tasks of the board column sharing its name. A
// view without lanes yields a single unnamed lane.
func ApplyView(o index.Options, tasks []*Tracked, name string, opts QueryOptions) (*ViewResult, error) {
	v, ok := o.View(name)
	if !ok {
		return nil, clierr.Newf(clierr.SemanticError, "no view named %q", name).
			WithDetails(map[string]any{"view": name})
	}
	opts.Options = o

	visible, err := Filter(tasks, v.Filters, opts)
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnResult, len(v.Columns))
	for i, c := range v.Columns {
		filters := Filters(c.Filters)
		if len(filters) == 0 {
			filters = Filters{"column": "^" + regexp.QuoteMeta(c.Name) + "$"}
		}
		shown, err := FilterAndSort(visible, filters, c.Sorters, opts)
		if err != nil {
			return nil, err
		}
		columns[i] = ColumnResult{Name: c.Name, Tasks: shown}
	}

	res := &ViewResult{Name: v.Name}
	if len(v.Lanes) == 0 {
		res.Lanes = []LaneResult{{Columns: columns}}
		return res, nil
	}
	for _, l := range v.Lanes {
		lane := LaneResult{Name: l.Name, Columns: make([]ColumnResult, len(columns))}
		for i, c := range columns {
			in, err := Filter(c.Tasks, l.Filters, opts)
			if err != nil {
				return nil, err
			}
			lane.Columns[i] = ColumnResult{Name: c.Name, Tasks: in}
		}
		res.Lanes = append(res.Lanes, lane)
	}
	return res, nil
}
