package output

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const wrapWidth = 80

// plainMarkdown is set by DisableColor.
var plainMarkdown bool

// Markdown renders a task description for the terminal. The source is
// returned unchanged if rendering fails.
func Markdown(src string) string {
	style := glamour.WithAutoStyle()
	if plainMarkdown {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrapWidth))
	if err != nil {
		return src
	}
	out, err := r.Render(src)
	if err != nil {
		return src
	}
	return strings.TrimRight(out, "\n")
}
