package markdown

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var parser = goldmark.New(goldmark.WithExtensions(extension.Table)).Parser()

// Item is one top-level list item.
type Item struct {
	// Lines are the item's source lines with indentation removed. Block
	// boundaries inside the item are kept as empty lines.
	Lines []string
	// Link is the text of the first link in the item, if HasLink.
	Link    string
	HasLink bool
}

// Text returns the item's lines joined with newlines.
func (it Item) Text() string {
	return strings.Join(it.Lines, "\n")
}

// ListItems parses content that must consist solely of lists and returns
// their items in order. Empty content yields no items.
func ListItems(content string) ([]Item, error) {
	src := []byte(Normalize(content))
	doc := parser.Parse(text.NewReader(src))

	var items []Item
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		list, ok := n.(*ast.List)
		if !ok {
			return nil, fmt.Errorf("expected a list, found %s", n.Kind())
		}
		for c := list.FirstChild(); c != nil; c = c.NextSibling() {
			li, ok := c.(*ast.ListItem)
			if !ok {
				continue
			}
			items = append(items, listItem(li, src))
		}
	}
	return items, nil
}

func listItem(li *ast.ListItem, src []byte) Item {
	var it Item
	for b := li.FirstChild(); b != nil; b = b.NextSibling() {
		if len(it.Lines) > 0 {
			it.Lines = append(it.Lines, "")
		}
		it.Lines = append(it.Lines, blockLines(b, src)...)
	}
	if link := firstLink(li); link != nil {
		it.Link = strings.TrimSpace(plainText(link, src))
		it.HasLink = true
	}
	return it
}

func blockLines(n ast.Node, src []byte) []string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimSpace(string(seg.Value(src))))
	}
	if _, ok := n.(*ast.List); ok {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			for j, l := range blockLines(c, src) {
				if j == 0 {
					l = "- " + l
				} else if l != "" {
					l = "  " + l
				}
				out = append(out, l)
			}
		}
	} else if _, ok := n.(*ast.ListItem); ok {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, blockLines(c, src)...)
		}
	}
	return out
}

func firstLink(n ast.Node) *ast.Link {
	var found *ast.Link
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if l, ok := c.(*ast.Link); ok {
			found = l
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// plainText concatenates the text leaves below n.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// Cell is one table cell.
type Cell struct {
	Text    string
	Link    string
	HasLink bool
}

// Table is a parsed GFM table.
type Table struct {
	Header []string
	Rows   [][]Cell
}

// Document is the tree view of a v2 index body: the first level-1 heading,
// every other block as description, and at most one table.
type Document struct {
	Name        string
	HasName     bool
	Description string
	Table       *Table
}

// ParseDocument parses body with GFM table support.
func ParseDocument(body string) (*Document, error) {
	src := []byte(Normalize(body))
	root := parser.Parse(text.NewReader(src))

	d := &Document{}
	var cut [][2]int // source spans excluded from the description

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level != 1 || d.HasName {
				continue
			}
			d.Name = strings.TrimSpace(plainText(node, src))
			d.HasName = true
			if span, ok := lineSpan(node, src); ok {
				cut = append(cut, span)
			}
		case *east.Table:
			if d.Table != nil {
				return nil, fmt.Errorf("expected exactly one table, found more")
			}
			d.Table = readTable(node, src)
			if span, ok := tableSpan(node, src); ok {
				cut = append(cut, span)
			}
		}
	}

	d.Description = remainder(src, cut)
	return d, nil
}

func readTable(t *east.Table, src []byte) *Table {
	out := &Table{}
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []Cell
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cell := Cell{Text: unescapePipes(plainText(c, src))}
			if l := firstLink(c); l != nil {
				cell.Link = unescapePipes(plainText(l, src))
				cell.HasLink = true
			}
			cells = append(cells, cell)
		}
		if _, ok := r.(*east.TableHeader); ok {
			for _, c := range cells {
				out.Header = append(out.Header, c.Text)
			}
			continue
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// unescapePipes undoes the \| escape WriteTable applies to cell text.
func unescapePipes(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `\|`, "|")
}

// lineSpan returns the full source lines covered by a block's segments.
func lineSpan(n ast.Node, src []byte) ([2]int, bool) {
	lines := n.Lines()
	if lines.Len() == 0 {
		return [2]int{}, false
	}
	return [2]int{lineStart(src, lines.At(0).Start), lineEnd(src, lines.At(lines.Len()-1).Stop)}, true
}

// tableSpan locates a table from its first text leaf and extends to the end
// of the contiguous run of non-blank lines.
func tableSpan(t *east.Table, src []byte) ([2]int, bool) {
	start := -1
	_ = ast.Walk(t, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if txt, ok := c.(*ast.Text); entering && ok {
			start = txt.Segment.Start
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if start < 0 {
		return [2]int{}, false
	}
	start = lineStart(src, start)
	end := start
	for end < len(src) {
		next := lineEnd(src, end)
		if strings.TrimSpace(string(src[end:next])) == "" {
			break
		}
		end = next
	}
	return [2]int{start, end}, true
}

func lineStart(src []byte, pos int) int {
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

func lineEnd(src []byte, pos int) int {
	for pos < len(src) && src[pos] != '\n' {
		pos++
	}
	if pos < len(src) {
		pos++
	}
	return pos
}

// remainder joins the source outside the cut spans, paragraph-separated.
func remainder(src []byte, cut [][2]int) string {
	var parts []string
	pos := 0
	for _, span := range sortSpans(cut) {
		if span[0] > pos {
			if p := strings.TrimSpace(string(src[pos:span[0]])); p != "" {
				parts = append(parts, p)
			}
		}
		if span[1] > pos {
			pos = span[1]
		}
	}
	if p := strings.TrimSpace(string(src[pos:])); p != "" {
		parts = append(parts, p)
	}
	return strings.Join(parts, "\n\n")
}

func sortSpans(spans [][2]int) [][2]int {
	out := append([][2]int(nil), spans...)
	slices.SortFunc(out, func(a, b [2]int) int { return a[0] - b[0] })
	return out
}
