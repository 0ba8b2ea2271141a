package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

// AddTask writes a new task and appends it to column, or to the first
// column when column is empty. The id is derived from the name when unset.
func (r *Repo) AddTask(t *task.Task, column string) error {
	if err := task.ValidateName(t.Name); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = task.Slug(t.Name)
	}

	return r.withLock(func() error {
		x, err := r.LoadIndex()
		if err != nil {
			return err
		}
		if column == "" {
			if len(x.Columns) == 0 {
				return clierr.New(clierr.ColumnNotFound, "the board has no columns")
			}
			column = x.Columns[0].Name
		}
		if _, err := task.FindByID(r.cfg.TasksPath(), t.ID); err == nil {
			return clierr.Newf(clierr.TaskAlreadyExists, "task %q already exists", t.ID).
				WithDetails(map[string]any{"id": t.ID})
		}
		if err := x.AddTask(t.ID, column); err != nil {
			return err
		}
		if err := task.ValidateRelations(t, r.taskExists); err != nil {
			return err
		}

		task.UpdateDates(t, "", column, x.Options, r.now())
		if err := r.SaveTask(t); err != nil {
			return err
		}
		if err := r.SaveIndex(x); err != nil {
			return err
		}
		r.logMutation(ActionAdd, t.ID, column)
		return nil
	})
}

// MoveTask moves a task to column at position (negative appends) and
// updates its lifecycle dates.
func (r *Repo) MoveTask(id, column string, position int) error {
	return r.withLock(func() error {
		x, err := r.LoadIndex()
		if err != nil {
			return err
		}
		from, ok := x.Find(id)
		if !ok {
			return clierr.Newf(clierr.TaskNotFound, "task %q is not on the board", id).
				WithDetails(map[string]any{"id": id})
		}
		t, err := r.LoadTask(id)
		if err != nil {
			return err
		}
		if err := x.MoveTask(id, column, position); err != nil {
			return err
		}

		task.UpdateDates(t, from, column, x.Options, r.now())
		if err := r.SaveTask(t); err != nil {
			return err
		}
		if err := r.SaveIndex(x); err != nil {
			return err
		}
		r.logMutation(ActionMove, id, from+" -> "+column)
		return nil
	})
}

// RemoveTask takes a task off the board and deletes its document unless
// keepFile is set.
func (r *Repo) RemoveTask(id string, keepFile bool) error {
	return r.withLock(func() error {
		x, err := r.LoadIndex()
		if err != nil {
			return err
		}
		path, findErr := task.FindByID(r.cfg.TasksPath(), id)
		onBoard := x.RemoveTask(id)
		if !onBoard && findErr != nil {
			return findErr
		}

		if onBoard {
			if err := r.SaveIndex(x); err != nil {
				return err
			}
		}
		if !keepFile && findErr == nil {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("removing task: %w", err)
			}
		}
		r.logMutation(ActionRemove, id, "")
		return nil
	})
}

// RenameTask gives a task a new name, moving its document to the new id and
// rewriting references to it.
func (r *Repo) RenameTask(id, name string) (string, error) {
	if err := task.ValidateName(name); err != nil {
		return "", err
	}
	newID := task.Slug(name)

	err := r.withLock(func() error {
		x, err := r.LoadIndex()
		if err != nil {
			return err
		}
		t, err := r.LoadTask(id)
		if err != nil {
			return err
		}
		if newID != id {
			if _, err := task.FindByID(r.cfg.TasksPath(), newID); err == nil {
				return clierr.Newf(clierr.TaskAlreadyExists, "task %q already exists", newID).
					WithDetails(map[string]any{"id": newID})
			}
		}

		t.Name = name
		t.ID = newID
		if err := r.SaveTask(t); err != nil {
			return err
		}
		if newID == id {
			return nil
		}
		if err := os.Remove(filepath.Join(r.cfg.TasksPath(), task.Filename(id))); err != nil {
			return fmt.Errorf("removing old task file: %w", err)
		}
		if err := r.rewriteRelations(id, newID); err != nil {
			return err
		}
		x.RenameTask(id, newID)
		return r.SaveIndex(x)
	})
	if err != nil {
		return "", err
	}
	r.logMutation(ActionRename, newID, id)
	return newID, nil
}

// UpdateTask applies edit to a task and saves it. The edit must not change
// the task's name; use RenameTask for that.
func (r *Repo) UpdateTask(id string, edit func(*task.Task) error) (*task.Task, error) {
	var updated *task.Task
	err := r.withLock(func() error {
		t, err := r.LoadTask(id)
		if err != nil {
			return err
		}
		name := t.Name
		if err := edit(t); err != nil {
			return err
		}
		if t.Name != name || t.ID != id {
			return clierr.New(clierr.InvalidInput, "use rename to change a task's name")
		}
		if err := task.ValidateRelations(t, r.taskExists); err != nil {
			return err
		}
		if err := r.SaveTask(t); err != nil {
			return err
		}
		updated = t

		x, err := r.LoadIndex()
		if err != nil {
			return err
		}
		if len(x.Options.ColumnSorting) == 0 {
			return nil
		}
		return r.SaveIndex(x)
	})
	if err != nil {
		return nil, err
	}
	r.logMutation(ActionEdit, id, "")
	return updated, nil
}

func (r *Repo) rewriteRelations(oldID, newID string) error {
	tasks, err := r.LoadTasks()
	if err != nil {
		return err
	}
	for _, t := range tasks {
		changed := false
		for i := range t.Relations {
			if t.Relations[i].Task == oldID {
				t.Relations[i].Task = newID
				changed = true
			}
		}
		if changed {
			if err := r.SaveTask(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateIndex applies edit to the index and saves it.
func (r *Repo) UpdateIndex(edit func(*index.Index) error) error {
	return r.withLock(func() error {
		x, err := r.LoadIndex()
		if err != nil {
			return err
		}
		if err := edit(x); err != nil {
			return err
		}
		return r.SaveIndex(x)
	})
}

// AddSprint appends a sprint starting at start, or now when start is zero.
func (r *Repo) AddSprint(name, description string, start time.Time) (index.Sprint, error) {
	if name == "" {
		return index.Sprint{}, clierr.New(clierr.InvalidInput, "sprint name is required")
	}
	if start.IsZero() {
		start = r.now()
	}
	s := index.Sprint{Start: start.UTC(), Name: name, Description: description}

	err := r.withLock(func() error {
		x, err := r.LoadIndex()
		if err != nil {
			return err
		}
		if n := len(x.Options.Sprints); n > 0 && start.Before(x.Options.Sprints[n-1].Start) {
			return clierr.Newf(clierr.InvalidInput, "sprint must start after %s", x.Options.Sprints[n-1].Name).
				WithDetails(map[string]any{"previous": x.Options.Sprints[n-1].Name})
		}
		x.Options.Sprints = append(x.Options.Sprints, s)
		if r.cfg.ExternalOptions() {
			return r.saveExternalSprints(x.Options.Sprints)
		}
		return r.SaveIndex(x)
	})
	if err != nil {
		return index.Sprint{}, err
	}
	r.logMutation(ActionSprint, "", name)
	return s, nil
}

// saveExternalSprints writes sprints back into the config file when the
// config file owns the board options.
func (r *Repo) saveExternalSprints(sprints []index.Sprint) error {
	o := index.Options{Sprints: sprints}
	m, err := o.Map()
	if err != nil {
		return err
	}
	r.cfg.Options["sprints"] = m["sprints"]
	return r.cfg.Save()
}

// Problem is a document that failed to decode.
type Problem struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Validate decodes the index and every task document and reports each
// failure. References from the index to missing task files are reported too.
func (r *Repo) Validate() ([]Problem, error) {
	var problems []Problem

	x, err := r.LoadIndex()
	if err != nil {
		if clierr.HasCode(err, clierr.BoardNotFound) {
			return nil, err
		}
		problems = append(problems, Problem{File: r.cfg.MainFile, Error: err.Error()})
	}

	_, warnings, err := task.ReadAllLenient(r.cfg.TasksPath(), r.taskOptions()...)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		problems = append(problems, Problem{File: filepath.Join(r.cfg.TasksDir, w.File), Error: w.Err.Error()})
	}

	if x != nil {
		ids, err := r.TaskIDs()
		if err != nil {
			return nil, err
		}
		for _, id := range x.TaskIDs() {
			if !slices.Contains(ids, id) {
				problems = append(problems, Problem{
					File:  r.cfg.MainFile,
					Error: fmt.Sprintf("task %q has no document", id),
				})
			}
		}
	}
	return problems, nil
}

func (r *Repo) taskExists(id string) bool {
	_, err := task.FindByID(r.cfg.TasksPath(), id)
	return err == nil
}
