// Package schema validates decoded board values against embedded JSON Schemas.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/baflo/kanbn-sub002/internal/clierr"
)

// Name identifies one of the embedded schemas.
type Name string

// Known schemas.
const (
	Options   Name = "options"
	Columns   Name = "columns"
	Metadata  Name = "metadata"
	SubTasks  Name = "subTasks"
	Relations Name = "relations"
	Comments  Name = "comments"
)

var names = []Name{Options, Columns, Metadata, SubTasks, Relations, Comments}

//go:embed schemas/*.json
var files embed.FS

const baseURL = "kanbn:///schemas/"

// Validator checks a value against a named shape.
type Validator interface {
	Validate(name Name, v any) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(name Name, v any) error

// Validate calls f.
func (f ValidatorFunc) Validate(name Name, v any) error { return f(name, v) }

// Nop accepts every value.
var Nop Validator = ValidatorFunc(func(Name, any) error { return nil })

// Default is the embedded JSON Schema validator.
var Default Validator = &JSONSchema{}

// JSONSchema validates against the embedded schema files. The zero value is
// ready to use; schemas are compiled on first use.
type JSONSchema struct {
	once    sync.Once
	schemas map[Name]*jsonschema.Schema
	err     error
}

func (j *JSONSchema) compile() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7

	for _, n := range names {
		data, err := files.ReadFile("schemas/" + string(n) + ".json")
		if err != nil {
			j.err = fmt.Errorf("reading %s schema: %w", n, err)
			return
		}
		if err := c.AddResource(baseURL+string(n)+".json", bytes.NewReader(data)); err != nil {
			j.err = fmt.Errorf("loading %s schema: %w", n, err)
			return
		}
	}

	j.schemas = make(map[Name]*jsonschema.Schema, len(names))
	for _, n := range names {
		s, err := c.Compile(baseURL + string(n) + ".json")
		if err != nil {
			j.err = fmt.Errorf("compiling %s schema: %w", n, err)
			return
		}
		j.schemas[n] = s
	}
}

// Validate checks v against the named schema. v is normalised through a JSON
// round trip first so that structs, typed maps and time values validate the
// same way they are written. All violations are reported together in a single
// VALIDATION_ERROR.
func (j *JSONSchema) Validate(name Name, v any) error {
	j.once.Do(j.compile)
	if j.err != nil {
		return clierr.Wrap(clierr.InternalError, "schema unavailable", j.err)
	}
	s, ok := j.schemas[name]
	if !ok {
		return clierr.Newf(clierr.InternalError, "unknown schema %q", name)
	}

	doc, err := normalize(v)
	if err != nil {
		return clierr.Wrap(clierr.ValidationError, "invalid "+string(name), err)
	}

	if err := s.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return clierr.Wrap(clierr.ValidationError, "invalid "+string(name), err)
		}
		var violations []string
		collectSchemaErrors(&violations, ve)
		return clierr.Newf(clierr.ValidationError, "invalid %s: %s", name, strings.Join(violations, "; ")).
			WithDetails(map[string]any{
				"schema":     string(name),
				"violations": violations,
			})
	}
	return nil
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}
	return doc, nil
}

func collectSchemaErrors(out *[]string, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		if path := jsonPointerToPath(err.InstanceLocation); path != "" {
			*out = append(*out, path+": "+err.Message)
		} else {
			*out = append(*out, err.Message)
		}
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(out, cause)
	}
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}

// UniqueTaskIDs reports task ids that appear more than once across columns,
// which the column schema cannot express. order fixes the reporting order.
func UniqueTaskIDs(order []string, columns map[string][]string) error {
	seen := make(map[string]string)
	var violations []string
	for _, col := range order {
		for _, id := range columns[col] {
			if prev, ok := seen[id]; ok {
				violations = append(violations, fmt.Sprintf("task %q appears in %q and %q", id, prev, col))
				continue
			}
			seen[id] = col
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return clierr.Newf(clierr.ValidationError, "invalid columns: %s", strings.Join(violations, "; ")).
		WithDetails(map[string]any{"violations": violations})
}
