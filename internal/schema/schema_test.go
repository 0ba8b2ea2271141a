package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/baflo/kanbn-sub002/internal/clierr"
)

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr []string
	}{
		{
			name:  "empty",
			value: map[string]any{},
		},
		{
			name: "full",
			value: map[string]any{
				"indexVersion":        2,
				"hiddenColumns":       []string{"Archive"},
				"completedColumns":    []any{"Done"},
				"defaultTaskWorkload": 2,
				"taskWorkloadTags":    map[string]any{"Large": 5},
				"sprints": []any{
					map[string]any{"start": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "name": "S1"},
				},
				"columnSorting": map[string]any{
					"Todo": []any{map[string]any{"field": "name", "order": "descending"}},
				},
				"customFields": []any{map[string]any{"name": "Reviewed", "type": "date", "updateDate": "once"}},
				"views": []any{map[string]any{
					"name":    "Mine",
					"columns": []any{map[string]any{"name": "Todo"}},
				}},
				"somethingElse": true,
			},
		},
		{
			name:    "wrong workload type",
			value:   map[string]any{"defaultTaskWorkload": "two"},
			wantErr: []string{"defaultTaskWorkload"},
		},
		{
			name: "aggregates violations",
			value: map[string]any{
				"hiddenColumns": "Done",
				"customFields":  []any{map[string]any{"name": "x", "type": "color"}},
				"sprints":       []any{map[string]any{"start": "2024-01-01"}},
			},
			wantErr: []string{"hiddenColumns", "customFields[0].type", "sprints[0]"},
		},
		{
			name:    "view without columns",
			value:   map[string]any{"views": []any{map[string]any{"name": "v", "columns": []any{}}}},
			wantErr: []string{"views[0].columns"},
		},
		{
			name:    "bad sort order",
			value:   map[string]any{"columnSorting": map[string]any{"A": []any{map[string]any{"field": "name", "order": "up"}}}},
			wantErr: []string{"columnSorting.A[0].order"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default.Validate(Options, tt.value)
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !clierr.HasCode(err, clierr.ValidationError) {
				t.Errorf("error code: got %v, want %s", err, clierr.ValidationError)
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestValidateLists(t *testing.T) {
	type subTask struct {
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
	}

	tests := []struct {
		name    string
		schema  Name
		value   any
		wantErr bool
	}{
		{"sub-tasks from structs", SubTasks, []subTask{{Text: "a", Completed: true}}, false},
		{"sub-task missing completed", SubTasks, []any{map[string]any{"text": "a"}}, true},
		{"relation ok", Relations, []any{map[string]any{"task": "t1", "type": "blocks"}}, false},
		{"relation empty id", Relations, []any{map[string]any{"task": ""}}, true},
		{"comment ok", Comments, []any{map[string]any{"text": "hi", "author": "bob"}}, false},
		{"comment without text", Comments, []any{map[string]any{"author": "bob"}}, true},
		{"columns ok", Columns, map[string][]string{"Todo": {"a"}, "Done": {}}, false},
		{"columns not lists", Columns, map[string]any{"Todo": "a"}, true},
		{"metadata ok", Metadata, map[string]any{"tags": []string{"x"}, "progress": 0.5, "custom": 1}, false},
		{"metadata tags not strings", Metadata, map[string]any{"tags": []any{1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default.Validate(tt.schema, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	err := Default.Validate(Name("nope"), map[string]any{})
	if !clierr.HasCode(err, clierr.InternalError) {
		t.Errorf("got %v, want INTERNAL_ERROR", err)
	}
}

func TestUniqueTaskIDs(t *testing.T) {
	cols := map[string][]string{"Todo": {"a", "b"}, "Done": {"c", "a"}}
	err := UniqueTaskIDs([]string{"Todo", "Done"}, cols)
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	if want := `task "a" appears in "Todo" and "Done"`; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not contain %q", err, want)
	}
	if err := UniqueTaskIDs([]string{"Todo"}, map[string][]string{"Todo": {"a"}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"/sprints/0/name":      "sprints[0].name",
		"/columnSorting/a~1b":  "columnSorting.a/b",
		"#/taskWorkloadTags/x": "taskWorkloadTags.x",
	}
	for in, want := range tests {
		if got := jsonPointerToPath(in); got != want {
			t.Errorf("jsonPointerToPath(%q) = %q, want %q", in, got, want)
		}
	}
}
