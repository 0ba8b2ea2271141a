package repo

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/config"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/task"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions() []Option {
	return []Option{
		WithLogger(log.New(io.Discard)),
		WithClock(func() time.Time { return now }),
	}
}

func newBoard(t *testing.T, format index.FormatVersion) *Repo {
	t.Helper()
	r, err := Init(t.TempDir(), "Project", InitOptions{
		Columns: []string{"Todo", "Doing", "Done"},
		Format:  format,
	}, testOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// setOptions rewrites the board options in place.
func setOptions(t *testing.T, r *Repo, fn func(*index.Options)) {
	t.Helper()
	x, err := r.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	fn(&x.Options)
	if err := r.SaveIndex(x); err != nil {
		t.Fatal(err)
	}
}

func columns(t *testing.T, r *Repo) map[string][]string {
	t.Helper()
	x, err := r.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	return x.ColumnMap()
}

func TestInitAndOpen(t *testing.T) {
	for _, format := range []index.FormatVersion{index.V1, index.V2} {
		r := newBoard(t, format)

		opened, err := Open(r.Dir(), testOptions()...)
		if err != nil {
			t.Fatal(err)
		}
		x, err := opened.LoadIndex()
		if err != nil {
			t.Fatal(err)
		}
		if x.Name != "Project" || !reflect.DeepEqual(x.ColumnNames(), []string{"Todo", "Doing", "Done"}) {
			t.Errorf("format %d: got %+v", format, x)
		}
		if x.Options.Version() != format {
			t.Errorf("format %d: decoded as %d", format, x.Options.Version())
		}
	}
}

func TestOpenMissingBoard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), config.DefaultDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir, testOptions()...); !clierr.HasCode(err, clierr.BoardNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestAddTask(t *testing.T) {
	r := newBoard(t, index.V1)
	setOptions(t, r, func(o *index.Options) { o.StartedColumns = []string{"Doing"} })

	if err := r.AddTask(&task.Task{Name: "First task"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := r.AddTask(&task.Task{Name: "Second task"}, "Doing"); err != nil {
		t.Fatal(err)
	}

	want := map[string][]string{"Todo": {"first-task"}, "Doing": {"second-task"}, "Done": {}}
	if got := columns(t, r); !reflect.DeepEqual(got, want) {
		t.Errorf("columns: got %v, want %v", got, want)
	}

	second, err := r.LoadTask("second-task")
	if err != nil {
		t.Fatal(err)
	}
	if second.Metadata.Started == nil || !second.Metadata.Started.Equal(now) {
		t.Errorf("started: got %v", second.Metadata.Started)
	}
	if second.Metadata.Created == nil || second.Metadata.Updated == nil {
		t.Errorf("created/updated not stamped: %+v", second.Metadata)
	}

	tests := []struct {
		name   string
		task   *task.Task
		column string
		code   string
	}{
		{"duplicate", &task.Task{Name: "First task"}, "", clierr.TaskAlreadyExists},
		{"unknown column", &task.Task{Name: "Third"}, "Nope", clierr.ColumnNotFound},
		{"bad name", &task.Task{Name: "???"}, "", clierr.InvalidInput},
		{"missing relation", &task.Task{Name: "Fourth", Relations: []task.Relation{{Task: "ghost"}}}, "", clierr.TaskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.AddTask(tt.task, tt.column); !clierr.HasCode(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestMoveTask(t *testing.T) {
	r := newBoard(t, index.V2)
	setOptions(t, r, func(o *index.Options) {
		o.StartedColumns = []string{"Doing"}
		o.CompletedColumns = []string{"Done"}
	})
	for _, name := range []string{"a", "b"} {
		if err := r.AddTask(&task.Task{Name: name}, "Todo"); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.MoveTask("b", "Doing", -1); err != nil {
		t.Fatal(err)
	}
	if err := r.MoveTask("b", "Done", -1); err != nil {
		t.Fatal(err)
	}
	if err := r.MoveTask("a", "Done", 0); err != nil {
		t.Fatal(err)
	}

	want := map[string][]string{"Todo": {}, "Doing": {}, "Done": {"a", "b"}}
	if got := columns(t, r); !reflect.DeepEqual(got, want) {
		t.Errorf("columns: got %v, want %v", got, want)
	}
	b, err := r.LoadTask("b")
	if err != nil {
		t.Fatal(err)
	}
	if b.Metadata.Started == nil || b.Metadata.Completed == nil {
		t.Errorf("dates not set: %+v", b.Metadata)
	}

	if err := r.MoveTask("ghost", "Done", 0); !clierr.HasCode(err, clierr.TaskNotFound) {
		t.Errorf("got %v", err)
	}
	if err := r.MoveTask("a", "Nope", 0); !clierr.HasCode(err, clierr.ColumnNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestColumnSortingOnSave(t *testing.T) {
	r := newBoard(t, index.V1)
	for _, name := range []string{"Charlie", "alpha", "Bravo"} {
		if err := r.AddTask(&task.Task{Name: name}, "Todo"); err != nil {
			t.Fatal(err)
		}
	}
	setOptions(t, r, func(o *index.Options) {
		o.ColumnSorting = map[string][]index.Sorter{"Todo": {{Field: "name"}}}
	})

	if got, want := columns(t, r)["Todo"], []string{"alpha", "bravo", "charlie"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if err := r.AddTask(&task.Task{Name: "Aardvark"}, "Todo"); err != nil {
		t.Fatal(err)
	}
	if got := columns(t, r)["Todo"][0]; got != "aardvark" {
		t.Errorf("new task not sorted in: first is %q", got)
	}
}

func TestRemoveTask(t *testing.T) {
	r := newBoard(t, index.V1)
	if err := r.AddTask(&task.Task{Name: "Gone"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := r.AddTask(&task.Task{Name: "Kept"}, ""); err != nil {
		t.Fatal(err)
	}

	if err := r.RemoveTask("gone", false); err != nil {
		t.Fatal(err)
	}
	if err := r.RemoveTask("kept", true); err != nil {
		t.Fatal(err)
	}

	if got := columns(t, r)["Todo"]; len(got) != 0 {
		t.Errorf("tasks left on board: %v", got)
	}
	ids, err := r.TaskIDs()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"kept"}) {
		t.Errorf("task files: got %v", ids)
	}

	if err := r.RemoveTask("gone", false); !clierr.HasCode(err, clierr.TaskNotFound) {
		t.Errorf("got %v", err)
	}
}

func TestRenameTask(t *testing.T) {
	r := newBoard(t, index.V1)
	if err := r.AddTask(&task.Task{Name: "Old name"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := r.AddTask(&task.Task{Name: "Other", Relations: []task.Relation{{Task: "old-name", Type: "blocks"}}}, ""); err != nil {
		t.Fatal(err)
	}

	id, err := r.RenameTask("old-name", "New name")
	if err != nil {
		t.Fatal(err)
	}
	if id != "new-name" {
		t.Errorf("id: got %q", id)
	}
	if got := columns(t, r)["Todo"]; !reflect.DeepEqual(got, []string{"new-name", "other"}) {
		t.Errorf("columns: got %v", got)
	}
	other, err := r.LoadTask("other")
	if err != nil {
		t.Fatal(err)
	}
	if other.Relations[0].Task != "new-name" {
		t.Errorf("relation not rewritten: %+v", other.Relations)
	}
	if _, err := r.LoadTask("old-name"); !clierr.HasCode(err, clierr.TaskNotFound) {
		t.Errorf("old document still present: %v", err)
	}
}

func TestAddSprint(t *testing.T) {
	r := newBoard(t, index.V1)
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := r.AddSprint("S1", "first", start); err != nil {
		t.Fatal(err)
	}
	if _, err := r.AddSprint("S2", "", time.Time{}); err != nil {
		t.Fatal(err)
	}

	x, err := r.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	if len(x.Options.Sprints) != 2 || !x.Options.Sprints[0].Start.Equal(start) || !x.Options.Sprints[1].Start.Equal(now) {
		t.Errorf("sprints: got %+v", x.Options.Sprints)
	}

	if _, err := r.AddSprint("S0", "", start); !clierr.HasCode(err, clierr.InvalidInput) {
		t.Errorf("out-of-order sprint: got %v", err)
	}
}

func TestValidate(t *testing.T) {
	r := newBoard(t, index.V1)
	if err := r.AddTask(&task.Task{Name: "Fine"}, ""); err != nil {
		t.Fatal(err)
	}
	problems, err := r.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 0 {
		t.Fatalf("clean board reported %+v", problems)
	}

	broken := filepath.Join(r.Config().TasksPath(), "broken.md")
	if err := os.WriteFile(broken, []byte("no heading\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(r.Config().TasksPath(), "fine.md")); err != nil {
		t.Fatal(err)
	}

	problems, err = r.Validate()
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 2 {
		t.Fatalf("got %+v", problems)
	}
	if !strings.HasSuffix(problems[0].File, "broken.md") || !strings.Contains(problems[1].Error, "fine") {
		t.Errorf("got %+v", problems)
	}
}

func TestActivityLog(t *testing.T) {
	r := newBoard(t, index.V1)
	if err := r.AddTask(&task.Task{Name: "Logged"}, ""); err != nil {
		t.Fatal(err)
	}
	if err := r.MoveTask("logged", "Done", -1); err != nil {
		t.Fatal(err)
	}

	entries, err := ReadLog(r.Dir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	if want := []string{ActionInit, ActionAdd, ActionMove}; !reflect.DeepEqual(actions, want) {
		t.Errorf("got %v, want %v", actions, want)
	}
	if entries[2].Detail != "Todo -> Done" || !entries[2].Timestamp.Equal(now) {
		t.Errorf("move entry: got %+v", entries[2])
	}

	last, err := ReadLog(r.Dir(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 1 || last[0].Action != ActionMove {
		t.Errorf("limit: got %+v", last)
	}
}

func TestTruncateLog(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		if err := AppendLog(dir, LogEntry{Action: ActionAdd, TaskID: string(rune('a' + i))}); err != nil {
			t.Fatal(err)
		}
	}
	if err := truncateLogIfNeeded(filepath.Join(dir, logFileName), 2); err != nil {
		t.Fatal(err)
	}
	entries, err := ReadLog(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].TaskID != "d" || entries[1].TaskID != "e" {
		t.Errorf("got %+v", entries)
	}
}

func TestExternalOptions(t *testing.T) {
	r := newBoard(t, index.V1)
	cfgPath := filepath.Join(r.Dir(), config.ConfigFileName)
	content := "version: 2\noptions:\n  startedColumns: [Doing]\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	opened, err := Open(r.Dir(), testOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	if err := opened.AddTask(&task.Task{Name: "Ext"}, "Doing"); err != nil {
		t.Fatal(err)
	}
	x, err := opened.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	if !x.Options.IsStarted("Doing") {
		t.Errorf("external options not applied: %+v", x.Options)
	}

	data, err := os.ReadFile(opened.Config().MainPath())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "startedColumns") {
		t.Errorf("external options written into the index:\n%s", data)
	}

	if _, err := opened.AddSprint("S1", "", time.Time{}); err != nil {
		t.Fatal(err)
	}
	reloaded, err := config.Load(opened.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded.Options["sprints"]; !ok {
		t.Errorf("sprint not saved to config: %v", reloaded.Options)
	}
}

func TestUpdateTask(t *testing.T) {
	r := newBoard(t, index.V1)
	if err := r.AddTask(&task.Task{Name: "Edit me"}, ""); err != nil {
		t.Fatal(err)
	}

	got, err := r.UpdateTask("edit-me", func(tk *task.Task) error {
		tk.Metadata.Assigned = "sam"
		tk.Metadata.Tags = append(tk.Metadata.Tags, "bug")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.Assigned != "sam" {
		t.Errorf("got %+v", got.Metadata)
	}
	reloaded, err := r.LoadTask("edit-me")
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Metadata.Assigned != "sam" || !reloaded.HasTag("bug") {
		t.Errorf("not persisted: %+v", reloaded.Metadata)
	}

	_, err = r.UpdateTask("edit-me", func(tk *task.Task) error {
		tk.Name = "Other"
		return nil
	})
	if !clierr.HasCode(err, clierr.InvalidInput) {
		t.Errorf("name change: got %v", err)
	}
}
