package task

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// failingParser rejects every date so error paths do not depend on the
// natural-language parser.
var failingParser = date.ParserFunc(func(s string, _ time.Time) (time.Time, error) {
	return time.Time{}, errors.New("no dates today")
})

func sampleTask() *Task {
	return &Task{
		ID:          "write-the-codec",
		Name:        "Write the codec",
		Description: "Some text.\n\n## Notes\n\nMore notes.",
		Metadata: Metadata{
			Created:  ptr(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
			Started:  ptr(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)),
			Due:      ptr(time.Date(2024, 2, 1, 17, 0, 0, 0, time.UTC)),
			Progress: ptr(0.5),
			Tags:     []string{"Large", "backend"},
			Assigned: "alice",
			Custom:   map[string]any{"points": 3, "reviewed": true, "area": "core"},
		},
		SubTasks: []SubTask{{Text: "first", Completed: true}, {Text: "second"}},
		Relations: []Relation{
			{Task: "other-task", Type: "blocks"},
			{Task: "plain"},
			{Task: "third", Type: "duplicated by"},
		},
		Comments: []Comment{
			{Text: "Looks good\nreally", Author: "bob", Date: ptr(time.Date(2024, 1, 5, 12, 30, 0, 0, time.UTC))},
			{Text: "anonymous note"},
		},
	}
}

// assertTaskEqual compares dates with time.Equal and everything else deeply.
func assertTaskEqual(t *testing.T, got, want *Task) {
	t.Helper()
	g, w := *got, *want
	for _, key := range dateKeys {
		gd, gok := g.Metadata.Date(key)
		wd, wok := w.Metadata.Date(key)
		if gok != wok || !gd.Equal(wd) {
			t.Errorf("metadata %s: got %v (%v), want %v (%v)", key, gd, gok, wd, wok)
		}
	}
	g.Metadata.Created, g.Metadata.Updated, g.Metadata.Started, g.Metadata.Completed, g.Metadata.Due = nil, nil, nil, nil, nil
	w.Metadata.Created, w.Metadata.Updated, w.Metadata.Started, w.Metadata.Completed, w.Metadata.Due = nil, nil, nil, nil, nil

	if len(g.Comments) != len(w.Comments) {
		t.Fatalf("comments: got %d, want %d", len(g.Comments), len(w.Comments))
	}
	g.Comments, w.Comments = slicesClone(g.Comments), slicesClone(w.Comments)
	for i := range w.Comments {
		gd, wd := g.Comments[i].Date, w.Comments[i].Date
		if (gd == nil) != (wd == nil) || (gd != nil && !gd.Equal(*wd)) {
			t.Errorf("comment %d date: got %v, want %v", i, gd, wd)
		}
		g.Comments[i].Date, w.Comments[i].Date = nil, nil
	}

	if !reflect.DeepEqual(g, w) {
		t.Errorf("task mismatch:\ngot  %+v\nwant %+v", g, w)
	}
}

func slicesClone(c []Comment) []Comment { return append([]Comment(nil), c...) }

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		task *Task
	}{
		{"full", sampleTask()},
		{"level-1 heading in description", &Task{
			ID: "t", Name: "T", Description: "# Heading\n\nbody",
		}},
		{"hash line in fenced code", &Task{
			ID: "t", Name: "T", Description: "text\n\n```\n# not a heading\n```",
		}},
		{"tilde fence with heading-like yaml", &Task{
			ID: "t", Name: "T", Description: "~~~yaml\n# comment\nkey: v\n~~~\n\n## After\n\ndone",
		}},
		{"comment text that looks like metadata", &Task{
			ID: "t", Name: "T", Comments: []Comment{
				{Text: "author: is literal"},
				{Text: "date: is literal too"},
				{Author: "ann", Text: "date: still text"},
				{Text: "plain\nauthor: later line"},
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Encode(tt.task)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			got, err := Decode(text, WithNow(now))
			if err != nil {
				t.Fatalf("Decode error: %v\n%s", err, text)
			}
			assertTaskEqual(t, got, tt.task)

			again, err := Encode(got)
			if err != nil {
				t.Fatal(err)
			}
			if again != text {
				t.Errorf("re-encoded text differs:\n%s\n---\n%s", again, text)
			}
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	tk := &Task{
		Name:      "Fix bug",
		SubTasks:  []SubTask{{Text: "repro", Completed: true}},
		Relations: []Relation{{Task: "other", Type: "blocks"}},
		Comments:  []Comment{{Author: "ann", Text: "line one\nline two"}},
	}
	got, err := Encode(tk)
	if err != nil {
		t.Fatal(err)
	}
	want := "# Fix bug\n\n## Sub-tasks\n\n- [x] repro\n\n## Relations\n\n- [blocks other](other.md)\n\n## Comments\n\n- author: ann\n  line one\n  line two\n"
	if got != want {
		t.Errorf("Encode =\n%q\nwant\n%q", got, want)
	}
}

func TestEncodeMinimal(t *testing.T) {
	got, err := Encode(&Task{Name: "Only a name"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Only a name\n" {
		t.Errorf("Encode = %q", got)
	}
}

func TestDecodeMetadataHeadingOverwritesFrontMatter(t *testing.T) {
	text := "---\nassigned: alice\ntags: [a]\n---\n\n# Task\n\n## Metadata\n\n```yaml\nassigned: bob\n```\n"
	tk, err := Decode(text, WithNow(now))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if tk.Metadata.Assigned != "bob" {
		t.Errorf("assigned = %q, want bob", tk.Metadata.Assigned)
	}
	if !reflect.DeepEqual(tk.Metadata.Tags, []string{"a"}) {
		t.Errorf("tags = %v", tk.Metadata.Tags)
	}
	if tk.Description != "" {
		t.Errorf("description = %q, Metadata section must not leak", tk.Description)
	}
}

func TestDecodeDescription(t *testing.T) {
	text := "preamble\n\n# Task\n\nIntro\n\n## Details\n\nBody\n\n## Relations\n\n- [t2](t2.md)\n\n### Deep\n\nDeeper\n"
	tk, err := Decode(text, WithNow(now))
	if err != nil {
		t.Fatal(err)
	}
	want := "preamble\n\nIntro\n\n## Details\n\nBody\n\n### Deep\n\nDeeper"
	if tk.Description != want {
		t.Errorf("description = %q, want %q", tk.Description, want)
	}
	if tk.ID != "task" {
		t.Errorf("id = %q", tk.ID)
	}
}

func TestDecodeRelations(t *testing.T) {
	text := "# T\n\n## Relations\n\n- [blocks t2](t2.md)\n- [t3](t3.md)\n- [duplicated by t4](t4.md)\n"
	tk, err := Decode(text, WithNow(now))
	if err != nil {
		t.Fatal(err)
	}
	want := []Relation{{Task: "t2", Type: "blocks"}, {Task: "t3"}, {Task: "t4", Type: "duplicated by"}}
	if !reflect.DeepEqual(tk.Relations, want) {
		t.Errorf("relations = %+v, want %+v", tk.Relations, want)
	}
}

func TestDecodeSubTasks(t *testing.T) {
	text := "# T\n\n## Sub-tasks\n\n- [x] done thing\n- [ ] open thing\n- [X] shouty\n- no box\n"
	tk, err := Decode(text, WithNow(now))
	if err != nil {
		t.Fatal(err)
	}
	want := []SubTask{
		{Text: "done thing", Completed: true},
		{Text: "open thing"},
		{Text: "shouty", Completed: true},
		{Text: "no box"},
	}
	if !reflect.DeepEqual(tk.SubTasks, want) {
		t.Errorf("sub-tasks = %+v, want %+v", tk.SubTasks, want)
	}
}

func TestDecodeNaturalDates(t *testing.T) {
	friday := time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)
	parser := date.ParserFunc(func(s string, ref time.Time) (time.Time, error) {
		if s == "next friday" {
			return friday, nil
		}
		return date.Natural{}.Parse(s, ref)
	})

	text := "---\ndue: next friday\ncreated: 2024-03-01\nprogress: \"0.25\"\n---\n# T\n"
	tk, err := Decode(text, WithNow(now), WithDateParser(parser))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if tk.Metadata.Due == nil || !tk.Metadata.Due.Equal(friday) {
		t.Errorf("due = %v, want %v", tk.Metadata.Due, friday)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); tk.Metadata.Created == nil || !tk.Metadata.Created.Equal(want) {
		t.Errorf("created = %v, want %v", tk.Metadata.Created, want)
	}
	if tk.Metadata.Progress == nil || *tk.Metadata.Progress != 0.25 {
		t.Errorf("progress = %v, want 0.25", tk.Metadata.Progress)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		opts       []Option
		validation bool
	}{
		{name: "empty", text: ""},
		{name: "no name", text: "just words\n"},
		{name: "bad date", text: "---\ndue: whenever\n---\n# T\n", opts: []Option{WithDateParser(failingParser)}},
		{name: "bad progress", text: "---\nprogress: lots\n---\n# T\n"},
		{name: "tags not a list", text: "---\ntags: urgent\n---\n# T\n", validation: true},
		{name: "assigned not a string", text: "---\nassigned: [a, b]\n---\n# T\n", validation: true},
		{name: "sub-tasks not a list", text: "# T\n\n## Sub-tasks\n\nprose\n"},
		{name: "bad comment date", text: "# T\n\n## Comments\n\n- date: someday\n  hi\n", opts: []Option{WithDateParser(failingParser)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.text, append(tt.opts, WithNow(now))...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !clierr.HasCode(err, clierr.ParseError) {
				t.Errorf("error %v is not a PARSE_ERROR", err)
			}
			if !strings.HasPrefix(err.Error(), parseContext) {
				t.Errorf("error %q lacks context prefix", err)
			}
			if tt.validation && !clierr.HasCode(err, clierr.ValidationError) {
				t.Errorf("error %v does not wrap a VALIDATION_ERROR", err)
			}
		})
	}
}

func TestEncodeValidates(t *testing.T) {
	tests := []struct {
		name string
		task *Task
	}{
		{"no name", &Task{}},
		{"empty relation", &Task{Name: "T", Relations: []Relation{{Type: "blocks"}}}},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Encode(tt.task)
			if err == nil {
				t.Fatal("expected error")
			}
			if text != "" {
				t.Errorf("text emitted on error: %q", text)
			}
			if !clierr.HasCode(err, clierr.ParseError) {
				t.Errorf("error %v is not a PARSE_ERROR", err)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Write the codec", "write-the-codec"},
		{"  Fix: bug #42!  ", "fix-bug-42"},
		{"ALL CAPS", "all-caps"},
		{strings.Repeat("word ", 20), "word-word-word-word-word-word-word-word-word-word"},
	}
	for _, tt := range tests {
		if got := Slug(tt.name); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTouch(t *testing.T) {
	tk := &Task{Name: "T"}
	tk.Touch(now)
	if tk.Metadata.Created == nil || !tk.Metadata.Created.Equal(now) {
		t.Errorf("created = %v", tk.Metadata.Created)
	}
	later := now.Add(time.Hour)
	tk.Touch(later)
	if !tk.Metadata.Created.Equal(now) || !tk.Metadata.Updated.Equal(later) {
		t.Errorf("created %v updated %v", tk.Metadata.Created, tk.Metadata.Updated)
	}
}
