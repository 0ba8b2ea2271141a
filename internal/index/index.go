// Package index models the board index document and encodes it in both of its
// on-disk formats.
package index

import (
	"slices"

	"github.com/baflo/kanbn-sub002/internal/clierr"
)

// FormatVersion selects the on-disk dialect of the index document.
type FormatVersion int

const (
	// V1 stores each column as a heading followed by a list of task links.
	V1 FormatVersion = 1
	// V2 stores all columns in a single table.
	V2 FormatVersion = 2
)

// Index is the decoded index document.
type Index struct {
	Name        string
	Description string
	Options     Options
	Columns     []Column
}

// Column is an ordered list of task ids. Order is display order.
type Column struct {
	Name  string
	Tasks []string
}

// ColumnNames returns the column names in board order.
func (x *Index) ColumnNames() []string {
	names := make([]string, len(x.Columns))
	for i, c := range x.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column called name.
func (x *Index) Column(name string) (*Column, bool) {
	for i := range x.Columns {
		if x.Columns[i].Name == name {
			return &x.Columns[i], true
		}
	}
	return nil, false
}

// ColumnMap returns a copy of column name to task ids. Empty columns map to
// empty, non-nil lists.
func (x *Index) ColumnMap() map[string][]string {
	m := make(map[string][]string, len(x.Columns))
	for _, c := range x.Columns {
		m[c.Name] = append([]string{}, c.Tasks...)
	}
	return m
}

// Find returns the column holding the task id.
func (x *Index) Find(id string) (string, bool) {
	for _, c := range x.Columns {
		if slices.Contains(c.Tasks, id) {
			return c.Name, true
		}
	}
	return "", false
}

// TaskIDs returns every tracked task id in board order.
func (x *Index) TaskIDs() []string {
	var ids []string
	for _, c := range x.Columns {
		ids = append(ids, c.Tasks...)
	}
	return ids
}

// AddColumn appends an empty column.
func (x *Index) AddColumn(name string) error {
	if _, ok := x.Column(name); ok {
		return clierr.Newf(clierr.InvalidInput, "column %q already exists", name).
			WithDetails(map[string]any{"column": name})
	}
	x.Columns = append(x.Columns, Column{Name: name})
	return nil
}

// AddTask appends id to column.
func (x *Index) AddTask(id, column string) error {
	if c, ok := x.Find(id); ok {
		return clierr.Newf(clierr.TaskAlreadyExists, "task %q is already in column %q", id, c).
			WithDetails(map[string]any{"id": id, "column": c})
	}
	col, ok := x.Column(column)
	if !ok {
		return columnNotFound(column)
	}
	col.Tasks = append(col.Tasks, id)
	return nil
}

// RemoveTask removes id from whichever column holds it.
func (x *Index) RemoveTask(id string) bool {
	for i := range x.Columns {
		if j := slices.Index(x.Columns[i].Tasks, id); j >= 0 {
			x.Columns[i].Tasks = slices.Delete(x.Columns[i].Tasks, j, j+1)
			return true
		}
	}
	return false
}

// MoveTask moves id into column at position. A negative or out-of-range
// position appends.
func (x *Index) MoveTask(id, column string, position int) error {
	col, ok := x.Column(column)
	if !ok {
		return columnNotFound(column)
	}
	if !x.RemoveTask(id) {
		return clierr.Newf(clierr.TaskNotFound, "task %q is not on the board", id).
			WithDetails(map[string]any{"id": id})
	}
	if position < 0 || position > len(col.Tasks) {
		position = len(col.Tasks)
	}
	col.Tasks = slices.Insert(col.Tasks, position, id)
	return nil
}

// RenameTask replaces old with id in place.
func (x *Index) RenameTask(old, id string) bool {
	for i := range x.Columns {
		if j := slices.Index(x.Columns[i].Tasks, old); j >= 0 {
			x.Columns[i].Tasks[j] = id
			return true
		}
	}
	return false
}

func columnNotFound(name string) *clierr.Error {
	return clierr.Newf(clierr.ColumnNotFound, "column %q not found", name).
		WithDetails(map[string]any{"column": name})
}
