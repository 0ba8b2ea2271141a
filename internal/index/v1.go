package index

import (
	"errors"
	"fmt"
	"strings"

	"github.com/baflo/kanbn-sub002/internal/markdown"
)

// decodeV1 reads the heading dialect. The legacy Options block is returned
// separately so the caller can layer it over the front matter.
func decodeV1(body string) (*Index, map[string]any, error) {
	sections, err := markdown.Split(body)
	if err != nil {
		return nil, nil, err
	}
	nameSection, ok := sections.First()
	if !ok {
		return nil, nil, errors.New("index has no name heading")
	}

	x := &Index{Name: nameSection.Title}
	var desc []string
	if raw, ok := sections.Get(markdown.RawTitle); ok {
		desc = append(desc, raw.Content)
	}
	if nameSection.Content != "" {
		desc = append(desc, nameSection.Content)
	}
	x.Description = strings.Join(desc, "\n\n")

	var legacy map[string]any
	for _, s := range sections.All() {
		switch s.Title {
		case markdown.RawTitle, nameSection.Title:
			continue
		case optionsTitle:
			legacy, err = yamlMap(markdown.StripCodeFence(s.Content))
			if err != nil {
				return nil, nil, fmt.Errorf("options heading: %w", err)
			}
			continue
		}

		col := Column{Name: s.Title, Tasks: []string{}}
		items, err := markdown.ListItems(s.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", s.Title, err)
		}
		for i, it := range items {
			if !it.HasLink || it.Link == "" {
				return nil, nil, fmt.Errorf("column %q: item %d has no task link", s.Title, i+1)
			}
			col.Tasks = append(col.Tasks, it.Link)
		}
		x.Columns = append(x.Columns, col)
	}
	return x, legacy, nil
}

func encodeV1(x *Index, tasksDir string) string {
	blocks := []string{markdown.Heading(1, x.Name), x.Description}
	for _, c := range x.Columns {
		blocks = append(blocks, markdown.Heading(2, c.Name)) //nolint:mnd // column heading level
		items := make([]string, len(c.Tasks))
		for i, id := range c.Tasks {
			items[i] = markdown.ListItem(taskLink(id, tasksDir))
		}
		blocks = append(blocks, strings.Join(items, "\n"))
	}
	return markdown.Blocks(blocks...)
}
