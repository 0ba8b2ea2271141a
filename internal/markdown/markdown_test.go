package markdown

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantFM    string
		wantBody  string
		wantFound bool
		wantErr   bool
	}{
		{
			name:      "with front matter",
			input:     "---\ntags: [a]\n---\n\n# Task\n",
			wantFM:    "tags: [a]",
			wantBody:  "# Task\n",
			wantFound: true,
		},
		{
			name:     "without front matter",
			input:    "# Task\n",
			wantBody: "# Task\n",
		},
		{
			name:      "empty block",
			input:     "---\n---\n# Task\n",
			wantBody:  "# Task\n",
			wantFound: true,
		},
		{
			name:      "closing fence at EOF",
			input:     "---\na: 1\n---",
			wantFM:    "a: 1",
			wantFound: true,
		},
		{
			name:      "crlf",
			input:     "---\r\na: 1\r\n---\r\n# T\r\n",
			wantFM:    "a: 1",
			wantBody:  "# T\n",
			wantFound: true,
		},
		{
			name:    "unclosed",
			input:   "---\na: 1\n# Task\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, found, err := SplitFrontMatter(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if fm != tt.wantFM || body != tt.wantBody || found != tt.wantFound {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)", fm, body, found, tt.wantFM, tt.wantBody, tt.wantFound)
			}
		})
	}
}

func TestJoinFrontMatter(t *testing.T) {
	got := JoinFrontMatter("a: 1\n", "# T\n")
	if want := "---\na: 1\n---\n\n# T\n"; got != want {
		t.Errorf("JoinFrontMatter = %q, want %q", got, want)
	}
	if got := JoinFrontMatter("", "# T\n"); got != "# T\n" {
		t.Errorf("JoinFrontMatter(empty) = %q", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := StripCodeFence("```yaml\na: 1\nb: 2\n```\n"); got != "a: 1\nb: 2" {
		t.Errorf("StripCodeFence = %q", got)
	}
	if got := StripCodeFence("a: 1"); got != "a: 1" {
		t.Errorf("StripCodeFence(plain) = %q", got)
	}
}

func TestSplit(t *testing.T) {
	doc := "preamble\n\n# Project\n\nSome description\n\n## Backlog\n\n- [a](tasks/a.md)\n\n## Done\n"
	s, err := Split(doc)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}

	var titles []string
	for _, sec := range s.All() {
		titles = append(titles, sec.Title)
	}
	if want := []string{RawTitle, "Project", "Backlog", "Done"}; !reflect.DeepEqual(titles, want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}

	raw, _ := s.Get(RawTitle)
	if raw.Content != "preamble" {
		t.Errorf("raw content = %q", raw.Content)
	}
	project, _ := s.Get("Project")
	if project.Heading != "# Project" || project.Content != "Some description" {
		t.Errorf("project = %+v", project)
	}
	done, _ := s.Get("Done")
	if done.Content != "" {
		t.Errorf("done content = %q, want empty", done.Content)
	}
	first, ok := s.First()
	if !ok || first.Title != "Project" {
		t.Errorf("First() = %+v, %v", first, ok)
	}
}

func TestSplitDuplicateTitleLastWins(t *testing.T) {
	s, err := Split("# A\n\none\n\n## B\n\nmiddle\n\n## A\n\ntwo\n")
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}
	all := s.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].Title != "A" || all[0].Content != "two" || all[0].Heading != "## A" {
		t.Errorf("first = %+v, want A at first position with last content", all[0])
	}
	if all[1].Title != "B" {
		t.Errorf("second = %+v", all[1])
	}
}

func TestSplitEmpty(t *testing.T) {
	if _, err := Split("  \n "); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Split(blank) error = %v, want ErrEmptyDocument", err)
	}
}

func TestSplitIgnoresNonHeadings(t *testing.T) {
	s, err := Split("#NoSpace\n####### seven\n# Real\n")
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (raw + Real)", s.Len())
	}
	raw, _ := s.Get(RawTitle)
	if raw.Content != "#NoSpace\n####### seven" {
		t.Errorf("raw = %q", raw.Content)
	}
}

func TestSplitSkipsFencedCode(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		content string
	}{
		{"backticks", "# T\n\n```sh\n# comment\n```\n\n## Next\n", "```sh\n# comment\n```"},
		{"tildes", "# T\n\n~~~\n## inside\n~~~\n\n## Next\n", "~~~\n## inside\n~~~"},
		{"shorter close does not end fence", "# T\n\n````\n```\n# still code\n````\n\n## Next\n", "````\n```\n# still code\n````"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Split(tt.text)
			if err != nil {
				t.Fatal(err)
			}
			var titles []string
			for _, sec := range s.All() {
				titles = append(titles, sec.Title)
			}
			if want := []string{"T", "Next"}; !slices.Equal(titles, want) {
				t.Fatalf("titles = %q, want %q", titles, want)
			}
			first, _ := s.First()
			if first.Content != tt.content {
				t.Errorf("content = %q, want %q", first.Content, tt.content)
			}
		})
	}
}

func TestListItems(t *testing.T) {
	items, err := ListItems("- [t1](tasks/t1.md)\n- plain item\n- author: bob\n  first line\n\n  second para\n")
	if err != nil {
		t.Fatalf("ListItems error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	if !items[0].HasLink || items[0].Link != "t1" {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[1].HasLink || items[1].Text() != "plain item" {
		t.Errorf("item 1 = %+v", items[1])
	}
	if want := []string{"author: bob", "first line", "", "second para"}; !reflect.DeepEqual(items[2].Lines, want) {
		t.Errorf("item 2 lines = %q, want %q", items[2].Lines, want)
	}
}

func TestListItemsRejectsParagraph(t *testing.T) {
	if _, err := ListItems("just some text"); err == nil {
		t.Error("expected error for non-list content")
	}
	items, err := ListItems("")
	if err != nil || len(items) != 0 {
		t.Errorf("ListItems(empty) = %v, %v", items, err)
	}
}

func TestParseDocument(t *testing.T) {
	body := "# Project\n\nFirst paragraph.\n\nSecond paragraph.\n\n" +
		"| Backlog | Doing |\n| --- | --- |\n| [a](tasks/a.md) | [b](tasks/b.md) |\n| [c](tasks/c.md) |  |\n"
	d, err := ParseDocument(body)
	if err != nil {
		t.Fatalf("ParseDocument error: %v", err)
	}
	if !d.HasName || d.Name != "Project" {
		t.Errorf("name = %q (%v)", d.Name, d.HasName)
	}
	if d.Description != "First paragraph.\n\nSecond paragraph." {
		t.Errorf("description = %q", d.Description)
	}
	if d.Table == nil {
		t.Fatal("table missing")
	}
	if !reflect.DeepEqual(d.Table.Header, []string{"Backlog", "Doing"}) {
		t.Errorf("header = %v", d.Table.Header)
	}
	if len(d.Table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(d.Table.Rows))
	}
	if c := d.Table.Rows[1][1]; c.HasLink {
		t.Errorf("empty cell has link: %+v", c)
	}
	if c := d.Table.Rows[1][0]; !c.HasLink || c.Link != "c" {
		t.Errorf("cell = %+v", c)
	}
}

func TestParseDocumentTwoTables(t *testing.T) {
	body := "# P\n\n| A |\n| --- |\n| x |\n\n| B |\n| --- |\n| y |\n"
	if _, err := ParseDocument(body); err == nil {
		t.Error("expected error for two tables")
	}
}

func TestTableWriter(t *testing.T) {
	got := WriteTable([]string{"A", "B"}, [][]string{{"x", "y"}, {"z"}})
	want := "| A | B |\n| --- | --- |\n| x | y |\n| z |  |"
	if got != want {
		t.Errorf("WriteTable = %q, want %q", got, want)
	}
}

func TestListItemWriter(t *testing.T) {
	got := ListItem("author: a", "text", "", "more")
	if want := "- author: a\n  text\n\n  more"; got != want {
		t.Errorf("ListItem = %q, want %q", got, want)
	}
}

func TestBlocks(t *testing.T) {
	if got := Blocks("# A", "", "b\n"); got != "# A\n\nb\n" {
		t.Errorf("Blocks = %q", got)
	}
}
