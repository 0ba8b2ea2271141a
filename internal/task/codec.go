package task

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.yaml.in/yaml/v3"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/markdown"
	"github.com/baflo/kanbn-sub002/internal/schema"
)

const (
	parseContext = "unable to parse task"
	buildContext = "unable to build task"

	metadataTitle  = "Metadata"
	subTasksTitle  = "Sub-tasks"
	relationsTitle = "Relations"
	commentsTitle  = "Comments"

	authorKey = "author:"
	dateKey   = "date:"
)

var (
	timeNow = time.Now

	checkboxRe = regexp.MustCompile(`(?s)^\[([ xX])\](?:\s+(.*))?$`)
)

type config struct {
	parser    date.Parser
	validator schema.Validator
	now       time.Time
}

// Option configures Decode and Encode.
type Option func(*config)

// WithNow sets the reference time for relative dates such as "tomorrow".
func WithNow(t time.Time) Option {
	return func(c *config) { c.now = t }
}

// WithDateParser overrides the natural-language date parser.
func WithDateParser(p date.Parser) Option {
	return func(c *config) { c.parser = p }
}

// WithValidator overrides the schema validator.
func WithValidator(v schema.Validator) Option {
	return func(c *config) { c.validator = v }
}

func newConfig(opts []Option) *config {
	c := &config{parser: date.Default, validator: schema.Default}
	for _, o := range opts {
		o(c)
	}
	if c.now.IsZero() {
		c.now = timeNow()
	}
	return c
}

// Decode parses a task document.
func Decode(text string, opts ...Option) (*Task, error) {
	t, err := decode(text, newConfig(opts))
	if err != nil {
		return nil, clierr.Wrap(clierr.ParseError, parseContext, err)
	}
	return t, nil
}

func decode(text string, cfg *config) (*Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, markdown.ErrEmptyDocument
	}
	fm, body, _, err := markdown.SplitFrontMatter(text)
	if err != nil {
		return nil, err
	}
	raw, err := yamlMap(fm)
	if err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	sections, err := markdown.Split(body)
	if err != nil {
		return nil, err
	}
	nameSection, ok := sections.First()
	if !ok {
		return nil, errors.New("task has no name heading")
	}
	t := &Task{Name: nameSection.Title, ID: Slug(nameSection.Title)}

	if s, ok := sections.Get(metadataTitle); ok {
		block, err := yamlMap(markdown.StripCodeFence(s.Content))
		if err != nil {
			return nil, fmt.Errorf("metadata heading: %w", err)
		}
		maps.Copy(raw, block)
	}
	if t.Metadata, err = decodeMetadata(raw, cfg); err != nil {
		return nil, err
	}

	if s, ok := sections.Get(subTasksTitle); ok {
		if t.SubTasks, err = decodeSubTasks(s.Content); err != nil {
			return nil, fmt.Errorf("sub-tasks: %w", err)
		}
	}
	if s, ok := sections.Get(relationsTitle); ok {
		if t.Relations, err = decodeRelations(s.Content); err != nil {
			return nil, fmt.Errorf("relations: %w", err)
		}
	}
	if s, ok := sections.Get(commentsTitle); ok {
		if t.Comments, err = decodeComments(s.Content, cfg); err != nil {
			return nil, fmt.Errorf("comments: %w", err)
		}
	}

	t.Description = description(sections, nameSection.Title)
	return t, nil
}

func decodeMetadata(raw map[string]any, cfg *config) (Metadata, error) {
	for _, k := range dateKeys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		if v == nil {
			delete(raw, k)
			continue
		}
		d, err := date.Coerce(v, cfg.parser, cfg.now)
		if err != nil {
			return Metadata{}, fmt.Errorf("metadata %q: %w", k, err)
		}
		raw[k] = d
	}

	if v, ok := raw["progress"]; ok {
		if v == nil {
			delete(raw, "progress")
		} else {
			p, err := toFloat(v)
			if err != nil {
				return Metadata{}, fmt.Errorf("metadata \"progress\": %w", err)
			}
			raw["progress"] = p
		}
	}

	if err := cfg.validator.Validate(schema.Metadata, raw); err != nil {
		return Metadata{}, err
	}

	var m Metadata
	if err := mapstructure.Decode(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("metadata: %w", err)
	}
	return m, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("unexpected %T", v)
}

func decodeSubTasks(content string) ([]SubTask, error) {
	items, err := markdown.ListItems(content)
	if err != nil {
		return nil, err
	}
	out := make([]SubTask, 0, len(items))
	for _, it := range items {
		text := it.Text()
		m := checkboxRe.FindStringSubmatch(text)
		if m == nil {
			out = append(out, SubTask{Text: strings.TrimSpace(text)})
			continue
		}
		out = append(out, SubTask{Text: strings.TrimSpace(m[2]), Completed: m[1] != " "})
	}
	return out, nil
}

func decodeRelations(content string) ([]Relation, error) {
	items, err := markdown.ListItems(content)
	if err != nil {
		return nil, err
	}
	out := make([]Relation, 0, len(items))
	for i, it := range items {
		text := it.Link
		if !it.HasLink {
			text = it.Text()
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			return nil, fmt.Errorf("item %d names no task", i+1)
		}
		out = append(out, Relation{
			Task: fields[len(fields)-1],
			Type: strings.Join(fields[:len(fields)-1], " "),
		})
	}
	return out, nil
}

// decodeComments reads each item's leading author and date lines, each at
// most once, and keeps the rest as text. An empty value is allowed.
func decodeComments(content string, cfg *config) ([]Comment, error) {
	items, err := markdown.ListItems(content)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(items))
	for _, it := range items {
		var (
			c                    Comment
			text                 []string
			seenAuthor, seenDate bool
		)
		header := true
		for _, line := range it.Lines {
			if header {
				if v, ok := strings.CutPrefix(line, authorKey); ok && !seenAuthor {
					c.Author = strings.TrimSpace(v)
					seenAuthor = true
					continue
				}
				if v, ok := strings.CutPrefix(line, dateKey); ok && !seenDate {
					seenDate = true
					if v = strings.TrimSpace(v); v != "" {
						d, err := cfg.parser.Parse(v, cfg.now)
						if err != nil {
							return nil, fmt.Errorf("comment date: %w", err)
						}
						c.Date = &d
					}
					continue
				}
				header = false
			}
			text = append(text, line)
		}
		c.Text = strings.TrimSpace(strings.Join(text, "\n"))
		out = append(out, c)
	}
	return out, nil
}

// description joins the preamble, the name section's content and every
// unreserved section with its heading. Only the name heading is dropped.
func description(sections *markdown.Sections, name string) string {
	var parts []string
	for _, s := range sections.All() {
		switch s.Title {
		case metadataTitle, subTasksTitle, relationsTitle, commentsTitle:
			continue
		}
		if s.Heading != "" && s.Title != name {
			parts = append(parts, s.Heading)
		}
		if s.Content != "" {
			parts = append(parts, s.Content)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// Encode renders t as a task document. The metadata and lists are validated
// before any text is produced.
func Encode(t *Task, opts ...Option) (string, error) {
	out, err := encode(t, newConfig(opts))
	if err != nil {
		return "", clierr.Wrap(clierr.ParseError, buildContext, err)
	}
	return out, nil
}

func encode(t *Task, cfg *config) (string, error) {
	if t == nil {
		return "", errors.New("task is nil")
	}
	if strings.TrimSpace(t.Name) == "" {
		return "", errors.New("task has no name")
	}

	for _, check := range []struct {
		name  schema.Name
		value any
	}{
		{schema.Metadata, t.Metadata.Map()},
		{schema.SubTasks, nonNil(t.SubTasks)},
		{schema.Relations, nonNil(t.Relations)},
		{schema.Comments, nonNil(t.Comments)},
	} {
		if err := cfg.validator.Validate(check.name, check.value); err != nil {
			return "", err
		}
	}

	var front string
	if !t.Metadata.IsEmpty() {
		data, err := yaml.Marshal(newFrontMatter(t.Metadata))
		if err != nil {
			return "", fmt.Errorf("encoding metadata: %w", err)
		}
		front = string(data)
	}

	blocks := []string{markdown.Heading(1, t.Name), t.Description}
	if len(t.SubTasks) > 0 {
		blocks = append(blocks, markdown.Heading(2, subTasksTitle), encodeSubTasks(t.SubTasks)) //nolint:mnd // section level
	}
	if len(t.Relations) > 0 {
		blocks = append(blocks, markdown.Heading(2, relationsTitle), encodeRelations(t.Relations)) //nolint:mnd // section level
	}
	if len(t.Comments) > 0 {
		blocks = append(blocks, markdown.Heading(2, commentsTitle), encodeComments(t.Comments)) //nolint:mnd // section level
	}
	return markdown.JoinFrontMatter(front, markdown.Blocks(blocks...)), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// frontMatter fixes the key order of written metadata.
type frontMatter struct {
	Created   *time.Time     `yaml:"created,omitempty"`
	Updated   *time.Time     `yaml:"updated,omitempty"`
	Started   *time.Time     `yaml:"started,omitempty"`
	Completed *time.Time     `yaml:"completed,omitempty"`
	Due       *time.Time     `yaml:"due,omitempty"`
	Progress  *float64       `yaml:"progress,omitempty"`
	Tags      []string       `yaml:"tags,omitempty"`
	Assigned  string         `yaml:"assigned,omitempty"`
	Custom    map[string]any `yaml:",inline"`
}

func newFrontMatter(m Metadata) frontMatter {
	utc := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}
		u := t.UTC()
		return &u
	}
	custom := maps.Clone(m.Custom)
	for _, k := range append(slices.Clone(dateKeys), "progress", "tags", "assigned") {
		delete(custom, k)
	}
	return frontMatter{
		Created:   utc(m.Created),
		Updated:   utc(m.Updated),
		Started:   utc(m.Started),
		Completed: utc(m.Completed),
		Due:       utc(m.Due),
		Progress:  m.Progress,
		Tags:      m.Tags,
		Assigned:  m.Assigned,
		Custom:    custom,
	}
}

func encodeSubTasks(subTasks []SubTask) string {
	items := make([]string, len(subTasks))
	for i, s := range subTasks {
		lines := strings.Split(s.Text, "\n")
		box := "[ ] "
		if s.Completed {
			box = "[x] "
		}
		lines[0] = box + lines[0]
		items[i] = markdown.ListItem(lines...)
	}
	return strings.Join(items, "\n")
}

func encodeRelations(relations []Relation) string {
	items := make([]string, len(relations))
	for i, r := range relations {
		text := strings.TrimSpace(r.Type + " " + r.Task)
		items[i] = markdown.ListItem(markdown.Link(text, Filename(r.Task)))
	}
	return strings.Join(items, "\n")
}

// encodeComments writes author and date lines ahead of the text. When the
// text itself starts like one of those lines, both are written, blank if
// unset, so the text is not read back as metadata.
func encodeComments(comments []Comment) string {
	items := make([]string, len(comments))
	for i, c := range comments {
		first, _, _ := strings.Cut(c.Text, "\n")
		ambiguous := strings.HasPrefix(first, authorKey) || strings.HasPrefix(first, dateKey)

		var lines []string
		if c.Author != "" || ambiguous {
			lines = append(lines, strings.TrimSpace(authorKey+" "+c.Author))
		}
		switch {
		case c.Date != nil:
			lines = append(lines, dateKey+" "+date.Format(*c.Date))
		case ambiguous:
			lines = append(lines, dateKey)
		}
		if c.Text != "" || len(lines) == 0 {
			lines = append(lines, strings.Split(c.Text, "\n")...)
		}
		items[i] = markdown.ListItem(lines...)
	}
	return strings.Join(items, "\n")
}

func yamlMap(text string) (map[string]any, error) {
	m := map[string]any{}
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	if err := yaml.Unmarshal([]byte(text), &m); err != nil {
		return nil, err
	}
	return m, nil
}
