package task

import (
	"github.com/baflo/kanbn-sub002/internal/clierr"
)

// ValidateName checks that name yields a usable id.
func ValidateName(name string) error {
	if Slug(name) == "" {
		return clierr.Newf(clierr.InvalidInput, "task name %q does not produce a valid id", name).
			WithDetails(map[string]any{"name": name})
	}
	return nil
}

// ValidateDate returns a CLIError for invalid date input.
func ValidateDate(field, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidInput, "invalid %s date: %v", field, err).
		WithDetails(map[string]any{
			"field": field,
			"input": input,
		})
}

// ValidateProgress checks that progress is a fraction between 0 and 1.
func ValidateProgress(p float64) error {
	if p < 0 || p > 1 {
		return clierr.Newf(clierr.InvalidInput, "progress must be between 0 and 1, got %v", p).
			WithDetails(map[string]any{"progress": p})
	}
	return nil
}

// ValidateSelfReference returns a CLIError for a relation to the task itself.
func ValidateSelfReference(id string) *clierr.Error {
	return clierr.Newf(clierr.InvalidInput, "task cannot relate to itself (%s)", id).
		WithDetails(map[string]any{"id": id})
}

// ValidateRelationNotFound returns a CLIError for a relation to a missing task.
func ValidateRelationNotFound(id string) *clierr.Error {
	return clierr.Newf(clierr.TaskNotFound, "related task %s not found", id).
		WithDetails(map[string]any{"id": id})
}

// ValidateRelations checks that every relation points at another existing
// task.
func ValidateRelations(t *Task, exists func(id string) bool) error {
	for _, r := range t.Relations {
		if r.Task == t.ID {
			return ValidateSelfReference(r.Task)
		}
		if !exists(r.Task) {
			return ValidateRelationNotFound(r.Task)
		}
	}
	return nil
}
