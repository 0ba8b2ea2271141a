package cmd

import (
	"testing"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/index"
	"github.com/baflo/kanbn-sub002/internal/repo"
)

func TestFilterLog(t *testing.T) {
	entries := []repo.LogEntry{
		{Action: repo.ActionAdd, TaskID: "a"},
		{Action: repo.ActionAdd, TaskID: "b"},
		{Action: repo.ActionMove, TaskID: "a"},
		{Action: repo.ActionEdit, TaskID: "a"},
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{repo.ActionAdd, repo.ActionMove, repo.ActionEdit}},
		{"newest two", 2, []string{repo.ActionMove, repo.ActionEdit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterLog(entries, "a", tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.Action != tt.want[i] {
					t.Errorf("entry %d action = %q, want %q", i, e.Action, tt.want[i])
				}
			}
		})
	}
}

func TestFormatConfigValue(t *testing.T) {
	tests := []struct {
		val  any
		want string
	}{
		{"", "--"},
		{"index.md", "index.md"},
		{[]string{}, "--"},
		{[]string{"Todo", "Done"}, "Todo, Done"},
		{2, "2"},
	}
	for _, tt := range tests {
		if got := formatConfigValue(tt.val); got != tt.want {
			t.Errorf("formatConfigValue(%v) = %q, want %q", tt.val, got, tt.want)
		}
	}
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"tag=bug", "tag=auth", "column=Doing"})
	if err != nil {
		t.Fatal(err)
	}
	tags, ok := got["tag"].([]string)
	if !ok || len(tags) != 2 || tags[0] != "bug" || tags[1] != "auth" {
		t.Errorf("tag filter = %#v, want [bug auth]", got["tag"])
	}
	if got["column"] != "Doing" {
		t.Errorf("column filter = %#v, want Doing", got["column"])
	}

	if _, err := parseFilters([]string{"nofield"}); !clierr.HasCode(err, clierr.InvalidInput) {
		t.Errorf("err = %v, want %s", err, clierr.InvalidInput)
	}
}

func TestParseSorters(t *testing.T) {
	got, err := parseSorters([]string{"due", "name:desc"})
	if err != nil {
		t.Fatal(err)
	}
	want := []index.Sorter{
		{Field: "due", Order: index.Ascending},
		{Field: "name", Order: index.Descending},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sorters, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Field != want[i].Field || got[i].Order != want[i].Order {
			t.Errorf("sorter %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, err := parseSorters([]string{"name:sideways"}); !clierr.HasCode(err, clierr.InvalidInput) {
		t.Errorf("err = %v, want %s", err, clierr.InvalidInput)
	}
}

func TestParseRelation(t *testing.T) {
	tests := []struct {
		in       string
		wantType string
		wantTask string
	}{
		{"blocks:fix-login", "blocks", "fix-login"},
		{"fix-login", "", "fix-login"},
	}
	for _, tt := range tests {
		got := parseRelation(tt.in)
		if got.Type != tt.wantType || got.Task != tt.wantTask {
			t.Errorf("parseRelation(%q) = %+v", tt.in, got)
		}
	}
}
