package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/baflo/kanbn-sub002/internal/clierr"
)

const fileExt = ".md"

// Read decodes the task document at path. The file name, not the heading,
// supplies the id so that index references keep resolving after a rename of
// the heading alone.
func Read(path string, opts ...Option) (*Task, error) {
	data, err := os.ReadFile(path) //nolint:gosec // task path from trusted board dir
	if err != nil {
		return nil, fmt.Errorf("reading task: %w", err)
	}
	t, err := Decode(string(data), opts...)
	if err != nil {
		return nil, err
	}
	t.ID = IDFromFilename(filepath.Base(path))
	return t, nil
}

// FindByID returns the path of the task document for id.
func FindByID(tasksDir, id string) (string, error) {
	path := filepath.Join(tasksDir, Filename(id))
	if _, err := os.Stat(path); err != nil {
		return "", clierr.Newf(clierr.TaskNotFound, "task not found: %s", id).
			WithDetails(map[string]any{"id": id})
	}
	return path, nil
}

// IDs lists the task ids with a document in tasksDir, in directory order.
func IDs(tasksDir string) ([]string, error) {
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading tasks directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		ids = append(ids, IDFromFilename(entry.Name()))
	}
	return ids, nil
}

// ReadAll reads all task files from the given directory.
func ReadAll(tasksDir string, opts ...Option) ([]*Task, error) {
	ids, err := IDs(tasksDir)
	if err != nil {
		return nil, err
	}

	tasks := make([]*Task, 0, len(ids))
	for _, id := range ids {
		t, err := Read(filepath.Join(tasksDir, Filename(id)), opts...)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", Filename(id), err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ReadWarning describes a file that could not be parsed during lenient reading.
type ReadWarning struct {
	File string // base filename
	Err  error
}

// ReadAllLenient reads all task files, skipping malformed files instead of aborting.
// Successfully parsed tasks are returned along with warnings for files that failed.
func ReadAllLenient(tasksDir string, opts ...Option) ([]*Task, []ReadWarning, error) {
	ids, err := IDs(tasksDir)
	if err != nil {
		return nil, nil, err
	}

	var tasks []*Task
	var warnings []ReadWarning
	for _, id := range ids {
		t, readErr := Read(filepath.Join(tasksDir, Filename(id)), opts...)
		if readErr != nil {
			warnings = append(warnings, ReadWarning{File: Filename(id), Err: readErr})
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, warnings, nil
}

// IDFromFilename strips the document extension from a task file name.
func IDFromFilename(filename string) string {
	return strings.TrimSuffix(filename, fileExt)
}
