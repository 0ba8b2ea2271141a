// Package markdown splits board documents into their structural parts:
// YAML front matter, heading sections, lists and GFM tables.
package markdown

import (
	"errors"
	"strings"
)

const fence = "---"

// ErrUnclosedFrontMatter is returned when a document opens a front-matter
// block but never closes it.
var ErrUnclosedFrontMatter = errors.New("unclosed front matter (missing closing ---)")

// Normalize converts CRLF line endings to LF.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// SplitFrontMatter separates a leading "---" fenced YAML block from the rest
// of the document. found is false when the document has no front matter, in
// which case body is the whole (normalized) text.
func SplitFrontMatter(text string) (frontMatter, body string, found bool, err error) {
	content := Normalize(text)
	if !strings.HasPrefix(content, fence+"\n") {
		return "", content, false, nil
	}

	rest := content[len(fence)+1:]
	idx := strings.Index(rest, "\n"+fence+"\n")
	switch {
	case strings.HasPrefix(rest, fence+"\n"):
		// Empty block: "---\n---\n".
		return "", strings.TrimLeft(rest[len(fence)+1:], "\n"), true, nil
	case idx >= 0:
	case strings.HasSuffix(rest, "\n"+fence):
		idx = len(rest) - len(fence) - 1
	default:
		return "", "", false, ErrUnclosedFrontMatter
	}

	frontMatter = rest[:idx]
	closingEnd := idx + len("\n"+fence+"\n")
	if closingEnd < len(rest) {
		body = strings.TrimLeft(rest[closingEnd:], "\n")
	}
	return frontMatter, body, true, nil
}

// JoinFrontMatter prefixes body with a front-matter block holding yamlText.
// An empty yamlText yields body unchanged.
func JoinFrontMatter(yamlText, body string) string {
	if strings.TrimSpace(yamlText) == "" {
		return body
	}
	var b strings.Builder
	b.WriteString(fence + "\n")
	b.WriteString(yamlText)
	if !strings.HasSuffix(yamlText, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(fence + "\n\n")
	b.WriteString(body)
	return b.String()
}

// StripCodeFence removes a surrounding ``` fence (with optional info string)
// from a block, as used by the legacy "Options" and "Metadata" headings.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[len(lines)-1]) != "```" { //nolint:mnd // opening and closing fence
		return trimmed
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}
