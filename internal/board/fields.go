package board

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/index"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindDate
	kindNumber
	kindBoolean
)

func (k fieldKind) String() string {
	switch k {
	case kindDate:
		return index.FieldDate
	case kindNumber:
		return index.FieldNumber
	case kindBoolean:
		return index.FieldBoolean
	default:
		return index.FieldString
	}
}

// value is a field read from a tracked task.
type value struct {
	present bool
	text    []string
	date    time.Time
	number  float64
	boolean bool
}

type extractor struct {
	kind fieldKind
	get  func(t *Tracked, q *query) value
}

func textValue(s string) value {
	return value{present: s != "", text: []string{s}}
}

func listValue(items []string) value {
	return value{present: len(items) > 0, text: items}
}

func numberValue(n float64) value { return value{present: true, number: n} }

func dateValue(d *time.Time) value {
	if d == nil {
		return value{}
	}
	return value{present: true, date: *d}
}

// fields is the catalogue of filterable and sortable task attributes.
var fields = map[string]extractor{
	"id":          {kindString, func(t *Tracked, _ *query) value { return textValue(t.ID) }},
	"name":        {kindString, func(t *Tracked, _ *query) value { return textValue(t.Name) }},
	"description": {kindString, func(t *Tracked, _ *query) value { return textValue(t.Description) }},
	"column":      {kindString, func(t *Tracked, _ *query) value { return textValue(t.Column) }},
	"assigned":    {kindString, func(t *Tracked, _ *query) value { return textValue(t.Metadata.Assigned) }},
	"tag":         {kindString, func(t *Tracked, _ *query) value { return listValue(t.Metadata.Tags) }},
	"sub-task": {kindString, func(t *Tracked, _ *query) value {
		items := make([]string, len(t.SubTasks))
		for i, s := range t.SubTasks {
			items[i] = s.Text
		}
		return listValue(items)
	}},
	"relation": {kindString, func(t *Tracked, _ *query) value {
		items := make([]string, len(t.Relations))
		for i, r := range t.Relations {
			items[i] = strings.TrimSpace(r.Type + " " + r.Task)
		}
		return listValue(items)
	}},
	"comment": {kindString, func(t *Tracked, _ *query) value {
		items := make([]string, len(t.Comments))
		for i, c := range t.Comments {
			items[i] = c.Text
		}
		return listValue(items)
	}},

	"created":   {kindDate, func(t *Tracked, _ *query) value { return dateValue(t.Metadata.Created) }},
	"updated":   {kindDate, func(t *Tracked, _ *query) value { return dateValue(t.Metadata.Updated) }},
	"started":   {kindDate, func(t *Tracked, _ *query) value { return dateValue(t.Metadata.Started) }},
	"completed": {kindDate, func(t *Tracked, _ *query) value { return dateValue(t.Metadata.Completed) }},
	"due":       {kindDate, func(t *Tracked, _ *query) value { return dateValue(t.Metadata.Due) }},

	"workload":           {kindNumber, func(t *Tracked, _ *query) value { return numberValue(t.Workload) }},
	"progress":           {kindNumber, func(t *Tracked, _ *query) value { return numberValue(t.Progress) }},
	"remaining-workload": {kindNumber, func(t *Tracked, _ *query) value { return numberValue(t.RemainingWorkload) }},
	"count-sub-tasks":    {kindNumber, func(t *Tracked, _ *query) value { return numberValue(float64(len(t.SubTasks))) }},
	"count-tags":         {kindNumber, func(t *Tracked, _ *query) value { return numberValue(float64(len(t.Metadata.Tags))) }},
	"count-relations":    {kindNumber, func(t *Tracked, _ *query) value { return numberValue(float64(len(t.Relations))) }},
	"count-comments":     {kindNumber, func(t *Tracked, _ *query) value { return numberValue(float64(len(t.Comments))) }},
}

// FieldNames lists the built-in field names.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	return names
}

// lookupField resolves a built-in or declared custom field.
func lookupField(name string, q *query) (extractor, error) {
	if e, ok := fields[name]; ok {
		return e, nil
	}
	cf, ok := q.options.CustomField(name)
	if !ok {
		return extractor{}, clierr.Newf(clierr.SemanticError, "unknown field %q", name).
			WithDetails(map[string]any{"field": name})
	}
	kind := kindString
	switch cf.Type {
	case index.FieldDate:
		kind = kindDate
	case index.FieldNumber:
		kind = kindNumber
	case index.FieldBoolean:
		kind = kindBoolean
	}
	return extractor{kind: kind, get: func(t *Tracked, q *query) value {
		v, ok := t.Metadata.Custom[name]
		if !ok || v == nil {
			return value{}
		}
		out, err := q.coerce(kind, v)
		if err != nil {
			return value{}
		}
		return out
	}}, nil
}

// coerce converts a raw document or filter value to the given kind.
func (q *query) coerce(kind fieldKind, v any) (value, error) {
	switch kind {
	case kindDate:
		d, err := date.Coerce(v, q.parser, q.now)
		if err != nil {
			return value{}, err
		}
		return value{present: true, date: d}, nil
	case kindNumber:
		n, err := toNumber(v)
		if err != nil {
			return value{}, err
		}
		return numberValue(n), nil
	case kindBoolean:
		switch b := v.(type) {
		case bool:
			return value{present: true, boolean: b}, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return value{}, fmt.Errorf("%q is not a boolean", b)
			}
			return value{present: true, boolean: parsed}, nil
		}
		return value{}, fmt.Errorf("%v is not a boolean", v)
	default:
		return textValue(fmt.Sprint(v)), nil
	}
}

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
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
	return 0, fmt.Errorf("%v is not a number", v)
}
