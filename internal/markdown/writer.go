package markdown

import (
	"strings"
)

// Heading renders an ATX heading line.
func Heading(level int, title string) string {
	return strings.Repeat("#", level) + " " + title
}

// Link renders an inline link.
func Link(text, dest string) string {
	if strings.ContainsAny(dest, " ()") {
		dest = "<" + dest + ">"
	}
	return "[" + text + "](" + dest + ")"
}

// ListItem renders a bullet item. Continuation lines are indented so they
// stay inside the item; empty lines are kept empty.
func ListItem(lines ...string) string {
	var b strings.Builder
	for i, l := range lines {
		switch {
		case i == 0:
			b.WriteString("- " + l)
		case l == "":
		default:
			b.WriteString("  " + l)
		}
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Checkbox renders a task-list item.
func Checkbox(checked bool, text string) string {
	if checked {
		return "- [x] " + text
	}
	return "- [ ] " + text
}

// WriteTable renders a GFM table. Rows shorter than the header are padded with
// blank cells.
func WriteTable(header []string, rows [][]string) string {
	var b strings.Builder
	writeRow(&b, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&b, sep)
	for _, r := range rows {
		padded := make([]string, len(header))
		copy(padded, r)
		writeRow(&b, padded)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" " + strings.ReplaceAll(c, "|", `\|`) + " |")
	}
	b.WriteByte('\n')
}

// Blocks joins non-empty blocks with blank lines and terminates the result
// with a single newline.
func Blocks(blocks ...string) string {
	kept := blocks[:0:0]
	for _, bl := range blocks {
		if strings.TrimSpace(bl) != "" {
			kept = append(kept, strings.TrimRight(bl, "\n"))
		}
	}
	return strings.Join(kept, "\n\n") + "\n"
}
