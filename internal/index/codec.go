package index

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/markdown"
	"github.com/baflo/kanbn-sub002/internal/schema"
)

const (
	parseContext = "unable to parse index"
	buildContext = "unable to build index"

	// optionsTitle is the legacy heading that carries options in v1 documents.
	optionsTitle = "Options"

	// DefaultTasksDir is the link prefix for task files.
	DefaultTasksDir = "tasks"
)

var timeNow = time.Now

type decodeConfig struct {
	external  map[string]any
	parser    date.Parser
	validator schema.Validator
	now       time.Time
}

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

// WithOptions supplies externally managed options. They take precedence over
// options found in the document.
func WithOptions(opts map[string]any) DecodeOption {
	return func(c *decodeConfig) { c.external = opts }
}

// WithDateParser overrides the parser used for sprint dates.
func WithDateParser(p date.Parser) DecodeOption {
	return func(c *decodeConfig) { c.parser = p }
}

// WithValidator overrides the schema validator.
func WithValidator(v schema.Validator) DecodeOption {
	return func(c *decodeConfig) { c.validator = v }
}

// WithNow sets the reference time for relative dates.
func WithNow(t time.Time) DecodeOption {
	return func(c *decodeConfig) { c.now = t }
}

type encodeConfig struct {
	externalOptions bool
	tasksDir        string
	validator       schema.Validator
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

// WithExternalOptions marks options as managed outside the document; they
// are validated but not written.
func WithExternalOptions() EncodeOption {
	return func(c *encodeConfig) { c.externalOptions = true }
}

// WithTasksDir sets the directory task links point into.
func WithTasksDir(dir string) EncodeOption {
	return func(c *encodeConfig) { c.tasksDir = dir }
}

// WithEncodeValidator overrides the schema validator.
func WithEncodeValidator(v schema.Validator) EncodeOption {
	return func(c *encodeConfig) { c.validator = v }
}

// Decode parses an index document. Front matter seeds the options; its
// indexVersion selects the body format.
func Decode(text string, opts ...DecodeOption) (*Index, error) {
	cfg := decodeConfig{parser: date.Default, validator: schema.Default}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.now.IsZero() {
		cfg.now = timeNow()
	}

	x, err := decode(text, &cfg)
	if err != nil {
		return nil, clierr.Wrap(clierr.ParseError, parseContext, err)
	}
	return x, nil
}

func decode(text string, cfg *decodeConfig) (*Index, error) {
	if strings.TrimSpace(text) == "" {
		return nil, markdown.ErrEmptyDocument
	}
	fm, body, _, err := markdown.SplitFrontMatter(text)
	if err != nil {
		return nil, err
	}
	front, err := yamlMap(fm)
	if err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	raw := mergeOptions(front, cfg.external)
	version, err := versionOf(raw)
	if err != nil {
		return nil, err
	}

	var (
		x    *Index
		cols map[string][]string
	)
	switch version {
	case V2:
		x, err = decodeV2(body)
	default:
		var legacy map[string]any
		x, legacy, err = decodeV1(body)
		raw = mergeOptions(front, legacy, cfg.external)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.validator.Validate(schema.Options, raw); err != nil {
		return nil, err
	}
	cols = x.ColumnMap()
	if err := cfg.validator.Validate(schema.Columns, cols); err != nil {
		return nil, err
	}
	if err := schema.UniqueTaskIDs(x.ColumnNames(), cols); err != nil {
		return nil, err
	}

	x.Options, err = decodeOptions(raw, cfg.parser, cfg.now)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	return x, nil
}

func versionOf(raw map[string]any) (FormatVersion, error) {
	v, ok := raw["indexVersion"]
	if !ok || v == nil {
		return V1, nil
	}
	var n float64
	switch t := v.(type) {
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case uint64:
		n = float64(t)
	case float64:
		n = t
	default:
		return 0, fmt.Errorf("indexVersion must be a number, got %T", v)
	}
	switch n {
	case 1:
		return V1, nil
	case 2: //nolint:mnd // format generation
		return V2, nil
	}
	return 0, fmt.Errorf("unsupported indexVersion %v", v)
}

// Encode renders x in the given format. Options and columns are validated
// before any text is produced.
func Encode(x *Index, version FormatVersion, opts ...EncodeOption) (string, error) {
	cfg := encodeConfig{tasksDir: DefaultTasksDir, validator: schema.Default}
	for _, o := range opts {
		o(&cfg)
	}

	out, err := encode(x, version, &cfg)
	if err != nil {
		return "", clierr.Wrap(clierr.ParseError, buildContext, err)
	}
	return out, nil
}

func encode(x *Index, version FormatVersion, cfg *encodeConfig) (string, error) {
	if x == nil {
		return "", errors.New("index is nil")
	}
	if strings.TrimSpace(x.Name) == "" {
		return "", errors.New("index has no name")
	}
	if version != V1 && version != V2 {
		return "", fmt.Errorf("unsupported format version %d", version)
	}

	o := x.Options
	if version == V2 || o.IndexVersion != nil {
		v := int(version)
		o.IndexVersion = &v
	}
	raw, err := o.Map()
	if err != nil {
		return "", err
	}
	if err := cfg.validator.Validate(schema.Options, raw); err != nil {
		return "", err
	}
	if err := validateColumns(x, version, cfg.validator); err != nil {
		return "", err
	}

	var front string
	if !cfg.externalOptions && len(raw) > 0 {
		data, err := yaml.Marshal(o)
		if err != nil {
			return "", fmt.Errorf("encoding options: %w", err)
		}
		front = string(data)
	}

	var body string
	switch version {
	case V2:
		body = encodeV2(x, cfg.tasksDir)
	default:
		body = encodeV1(x, cfg.tasksDir)
	}
	return markdown.JoinFrontMatter(front, body), nil
}

func validateColumns(x *Index, version FormatVersion, v schema.Validator) error {
	seen := make(map[string]bool, len(x.Columns))
	for _, c := range x.Columns {
		switch {
		case strings.TrimSpace(c.Name) == "":
			return errors.New("column name is empty")
		case seen[c.Name]:
			return fmt.Errorf("duplicate column %q", c.Name)
		case version == V1 && (c.Name == optionsTitle || c.Name == markdown.RawTitle || c.Name == x.Name):
			return fmt.Errorf("column name %q is reserved", c.Name)
		}
		seen[c.Name] = true
	}
	cols := x.ColumnMap()
	if err := v.Validate(schema.Columns, cols); err != nil {
		return err
	}
	return schema.UniqueTaskIDs(x.ColumnNames(), cols)
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

func taskLink(id, tasksDir string) string {
	return markdown.Link(id, strings.TrimSuffix(tasksDir, "/")+"/"+id+".md")
}
