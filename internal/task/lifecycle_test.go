package task

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/index"
)

func TestUpdateDates(t *testing.T) {
	o := index.Options{
		StartedColumns:   []string{"Doing"},
		CompletedColumns: []string{"Done", "Archive"},
		CustomFields: []index.CustomField{
			{Name: "Review", Type: index.FieldDate, UpdateDate: index.UpdateAlways},
			{Name: "Doing", Type: index.FieldDate, UpdateDate: index.UpdateOnce},
			{Name: "Blocked", Type: index.FieldDate},
		},
	}
	earlier := now.Add(-24 * time.Hour)

	t.Run("started set once", func(t *testing.T) {
		tk := &Task{}
		UpdateDates(tk, "Todo", "Doing", o, now)
		if tk.Metadata.Started == nil || !tk.Metadata.Started.Equal(now) {
			t.Fatalf("started = %v", tk.Metadata.Started)
		}
		tk.Metadata.Started = &earlier
		UpdateDates(tk, "Todo", "Doing", o, now)
		if !tk.Metadata.Started.Equal(earlier) {
			t.Errorf("started overwritten: %v", tk.Metadata.Started)
		}
	})

	t.Run("completed", func(t *testing.T) {
		tk := &Task{}
		UpdateDates(tk, "Doing", "Done", o, now)
		if tk.Metadata.Completed == nil || !tk.Metadata.Completed.Equal(now) {
			t.Fatalf("completed = %v", tk.Metadata.Completed)
		}
		UpdateDates(tk, "Done", "Archive", o, now.Add(time.Hour))
		if !tk.Metadata.Completed.Equal(now) {
			t.Errorf("completed moved between completed columns: %v", tk.Metadata.Completed)
		}
	})

	t.Run("same column is a no-op", func(t *testing.T) {
		tk := &Task{}
		UpdateDates(tk, "Doing", "Doing", o, now)
		if tk.Metadata.Started != nil {
			t.Errorf("started = %v", tk.Metadata.Started)
		}
	})

	t.Run("custom date fields", func(t *testing.T) {
		tk := &Task{Metadata: Metadata{Custom: map[string]any{"Review": "old", "Doing": "old", "Blocked": "old"}}}
		UpdateDates(tk, "Todo", "Review", o, now)
		UpdateDates(tk, "Todo", "Doing", o, now)
		UpdateDates(tk, "Todo", "Blocked", o, now)
		want := map[string]any{"Review": date.Format(now), "Doing": "old", "Blocked": "old"}
		if !reflect.DeepEqual(tk.Metadata.Custom, want) {
			t.Errorf("got %v, want %v", tk.Metadata.Custom, want)
		}

		fresh := &Task{}
		UpdateDates(fresh, "Todo", "Doing", o, now)
		if fresh.Metadata.Custom["Doing"] != date.Format(now) {
			t.Errorf("once field not filled: %v", fresh.Metadata.Custom)
		}
	})
}

func TestValidate(t *testing.T) {
	if err := ValidateName("!!!"); !clierr.HasCode(err, clierr.InvalidInput) {
		t.Errorf("ValidateName: got %v", err)
	}
	if err := ValidateName("ok"); err != nil {
		t.Errorf("ValidateName: got %v", err)
	}
	if err := ValidateProgress(1.5); !clierr.HasCode(err, clierr.InvalidInput) {
		t.Errorf("ValidateProgress: got %v", err)
	}

	exists := func(id string) bool { return id == "other" }
	tests := []struct {
		name string
		rel  Relation
		code string
	}{
		{"existing", Relation{Task: "other"}, ""},
		{"self", Relation{Task: "me"}, clierr.InvalidInput},
		{"missing", Relation{Task: "ghost"}, clierr.TaskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelations(&Task{ID: "me", Relations: []Relation{tt.rel}}, exists)
			if tt.code == "" {
				if err != nil {
					t.Errorf("got %v", err)
				}
				return
			}
			if !clierr.HasCode(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestReadAllLenient(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"good.md":   "# A good task\n\nBody.\n",
		"broken.md": "no heading here\n",
		"notes.txt": "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	tasks, warnings, err := ReadAllLenient(dir, WithNow(now))
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].ID != "good" || tasks[0].Name != "A good task" {
		t.Errorf("tasks: got %+v", tasks)
	}
	if len(warnings) != 1 || warnings[0].File != "broken.md" {
		t.Errorf("warnings: got %+v", warnings)
	}

	if _, err := ReadAll(dir, WithNow(now)); err == nil {
		t.Error("ReadAll should fail on the broken file")
	}

	if _, err := FindByID(dir, "good"); err != nil {
		t.Errorf("FindByID: %v", err)
	}
	if _, err := FindByID(dir, "missing"); !clierr.HasCode(err, clierr.TaskNotFound) {
		t.Errorf("FindByID missing: got %v", err)
	}

	ids, err := IDs(filepath.Join(dir, "absent"))
	if err != nil || ids != nil {
		t.Errorf("IDs on missing dir: got %v, %v", ids, err)
	}
}
