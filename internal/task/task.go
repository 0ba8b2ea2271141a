// Package task handles task documents: metadata, description, sub-tasks,
// relations and comments.
package task

import (
	"slices"
	"time"
)

// Task represents a board task parsed from a markdown document.
type Task struct {
	// ID is derived from Name and is not stored in the document.
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Metadata    Metadata   `json:"metadata"`
	SubTasks    []SubTask  `json:"subTasks,omitempty"`
	Relations   []Relation `json:"relations,omitempty"`
	Comments    []Comment  `json:"comments,omitempty"`
}

// Metadata holds the recognised keys plus any custom fields.
type Metadata struct {
	Created   *time.Time `json:"created,omitempty" mapstructure:"created"`
	Updated   *time.Time `json:"updated,omitempty" mapstructure:"updated"`
	Started   *time.Time `json:"started,omitempty" mapstructure:"started"`
	Completed *time.Time `json:"completed,omitempty" mapstructure:"completed"`
	Due       *time.Time `json:"due,omitempty" mapstructure:"due"`
	Progress  *float64   `json:"progress,omitempty" mapstructure:"progress"`
	Tags      []string   `json:"tags,omitempty" mapstructure:"tags"`
	Assigned  string     `json:"assigned,omitempty" mapstructure:"assigned"`

	// Custom holds every other key, typically declared custom fields.
	Custom map[string]any `json:"custom,omitempty" mapstructure:",remain"`
}

// SubTask is one checklist entry.
type SubTask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Relation links to another task by id.
type Relation struct {
	Task string `json:"task"`
	Type string `json:"type,omitempty"`
}

// Comment is a note with optional author and date.
type Comment struct {
	Text   string     `json:"text"`
	Author string     `json:"author,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
}

// dateKeys are the metadata keys holding dates, in document order.
var dateKeys = []string{"created", "updated", "started", "completed", "due"}

// Dates returns the date-typed metadata by key.
func (m Metadata) Dates() map[string]*time.Time {
	return map[string]*time.Time{
		"created":   m.Created,
		"updated":   m.Updated,
		"started":   m.Started,
		"completed": m.Completed,
		"due":       m.Due,
	}
}

// Date returns the named date, if set.
func (m Metadata) Date(key string) (time.Time, bool) {
	if d := m.Dates()[key]; d != nil {
		return *d, true
	}
	return time.Time{}, false
}

// IsEmpty reports whether no metadata key is set.
func (m Metadata) IsEmpty() bool {
	for _, d := range m.Dates() {
		if d != nil {
			return false
		}
	}
	return m.Progress == nil && len(m.Tags) == 0 && m.Assigned == "" && len(m.Custom) == 0
}

// Map returns the metadata as a document-shaped map. Recognised keys that
// are unset are omitted.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.Custom)+len(dateKeys)+3) //nolint:mnd // progress, tags, assigned
	for k, v := range m.Custom {
		out[k] = v
	}
	for k, d := range m.Dates() {
		if d != nil {
			out[k] = *d
		}
	}
	if m.Progress != nil {
		out["progress"] = *m.Progress
	}
	if len(m.Tags) > 0 {
		out["tags"] = m.Tags
	}
	if m.Assigned != "" {
		out["assigned"] = m.Assigned
	}
	return out
}

// HasTag reports whether the task carries tag.
func (t *Task) HasTag(tag string) bool {
	return slices.Contains(t.Metadata.Tags, tag)
}

// Touch sets Updated, and Created when unset.
func (t *Task) Touch(now time.Time) {
	if t.Metadata.Created == nil {
		created := now
		t.Metadata.Created = &created
	}
	t.Metadata.Updated = &now
}
