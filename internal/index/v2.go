package index

import (
	"errors"
	"fmt"

	"github.com/baflo/kanbn-sub002/internal/markdown"
)

// decodeV2 reads the table dialect: name and description from the document
// tree, columns from its single table.
func decodeV2(body string) (*Index, error) {
	doc, err := markdown.ParseDocument(body)
	if err != nil {
		return nil, err
	}
	if !doc.HasName {
		return nil, errors.New("index has no name heading")
	}

	x := &Index{Name: doc.Name, Description: doc.Description}
	if doc.Table == nil {
		return x, nil
	}

	seen := make(map[string]bool, len(doc.Table.Header))
	for _, name := range doc.Table.Header {
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		x.Columns = append(x.Columns, Column{Name: name, Tasks: []string{}})
	}
	for _, row := range doc.Table.Rows {
		for i, cell := range row {
			if i >= len(x.Columns) || !cell.HasLink || cell.Link == "" {
				continue
			}
			x.Columns[i].Tasks = append(x.Columns[i].Tasks, cell.Link)
		}
	}
	return x, nil
}

func encodeV2(x *Index, tasksDir string) string {
	blocks := []string{markdown.Heading(1, x.Name), x.Description}
	if len(x.Columns) == 0 {
		return markdown.Blocks(blocks...)
	}

	depth := 0
	for _, c := range x.Columns {
		depth = max(depth, len(c.Tasks))
	}
	rows := make([][]string, depth)
	for r := range rows {
		rows[r] = make([]string, len(x.Columns))
		for i, c := range x.Columns {
			if r < len(c.Tasks) {
				rows[r][i] = taskLink(c.Tasks[r], tasksDir)
			}
		}
	}
	blocks = append(blocks, markdown.WriteTable(x.ColumnNames(), rows))
	return markdown.Blocks(blocks...)
}
