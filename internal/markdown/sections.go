package markdown

import (
	"errors"
	"regexp"
	"strings"
)

// RawTitle is the reserved title for content that precedes the first heading.
const RawTitle = "raw"

// ErrEmptyDocument is returned when Split receives no content.
var ErrEmptyDocument = errors.New("document is empty")

var (
	headingRe = regexp.MustCompile(`^#{1,6} (.*)$`)
	fenceRe   = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
)

// Section is one heading and the trimmed text up to the next heading.
type Section struct {
	Title   string
	Heading string // the full heading line, e.g. "## Backlog"
	Content string
}

// Sections is the ordered result of Split. Titles are unique: a title that
// occurs more than once keeps the position of its first occurrence and the
// content of its last.
type Sections struct {
	list  []Section
	index map[string]int
}

// Split scans text for ATX headings and returns its sections in document
// order. Leading content before the first heading is stored under RawTitle.
func Split(text string) (*Sections, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	text = Normalize(text)

	var found []Section
	matches := headings(text)

	if len(matches) == 0 || matches[0][0] > 0 {
		end := len(text)
		if len(matches) > 0 {
			end = matches[0][0]
		}
		if raw := strings.TrimSpace(text[:end]); raw != "" {
			found = append(found, Section{Title: RawTitle, Content: raw})
		}
	}

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		found = append(found, Section{
			Title:   strings.TrimSpace(text[m[2]:m[3]]),
			Heading: text[m[0]:m[1]],
			Content: strings.TrimSpace(text[m[1]:end]),
		})
	}

	return collapse(found), nil
}

// headings returns the submatch indices of every ATX heading line outside
// fenced code blocks.
func headings(text string) [][]int {
	var (
		out   [][]int
		fence string
	)
	for off := 0; off < len(text); {
		end := strings.IndexByte(text[off:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += off
		}
		line := text[off:end]

		switch f := fenceRe.FindStringSubmatch(line); {
		case fence != "":
			if f != nil && f[1][0] == fence[0] && len(f[1]) >= len(fence) &&
				strings.TrimSpace(line[len(f[0]):]) == "" {
				fence = ""
			}
		case f != nil:
			fence = f[1]
		default:
			if m := headingRe.FindStringSubmatchIndex(line); m != nil {
				for i := range m {
					m[i] += off
				}
				out = append(out, m)
			}
		}
		off = end + 1
	}
	return out
}

// collapse applies the duplicate-title rule: the first occurrence fixes the
// position, the last occurrence supplies heading and content.
func collapse(found []Section) *Sections {
	s := &Sections{index: make(map[string]int, len(found))}
	for _, sec := range found {
		if i, ok := s.index[sec.Title]; ok {
			s.list[i] = sec
			continue
		}
		s.index[sec.Title] = len(s.list)
		s.list = append(s.list, sec)
	}
	return s
}

// Get returns the section with the given title.
func (s *Sections) Get(title string) (Section, bool) {
	i, ok := s.index[title]
	if !ok {
		return Section{}, false
	}
	return s.list[i], true
}

// All returns the sections in document order.
func (s *Sections) All() []Section {
	out := make([]Section, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of distinct sections.
func (s *Sections) Len() int { return len(s.list) }

// First returns the first section that is not the raw preamble.
func (s *Sections) First() (Section, bool) {
	for _, sec := range s.list {
		if sec.Title != RawTitle {
			return sec, true
		}
	}
	return Section{}, false
}
