package index

import (
	"fmt"
	"slices"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.yaml.in/yaml/v3"

	"github.com/baflo/kanbn-sub002/internal/date"
)

// Field types a custom field may declare.
const (
	FieldBoolean = "boolean"
	FieldString  = "string"
	FieldNumber  = "number"
	FieldDate    = "date"
)

// UpdateDate policies for date custom fields named after a column.
const (
	UpdateAlways = "always"
	UpdateOnce   = "once"
	UpdateNone   = "none"
)

// Sort orders.
const (
	Ascending  = "ascending"
	Descending = "descending"
)

// Options is the board configuration stored in the index front matter (or
// supplied externally). Keys not modelled here are kept in Extra.
type Options struct {
	IndexVersion        *int                `yaml:"indexVersion,omitempty" mapstructure:"indexVersion"`
	HiddenColumns       []string            `yaml:"hiddenColumns,omitempty" mapstructure:"hiddenColumns"`
	StartedColumns      []string            `yaml:"startedColumns,omitempty" mapstructure:"startedColumns"`
	CompletedColumns    []string            `yaml:"completedColumns,omitempty" mapstructure:"completedColumns"`
	Sprints             []Sprint            `yaml:"sprints,omitempty" mapstructure:"sprints"`
	DefaultTaskWorkload *float64            `yaml:"defaultTaskWorkload,omitempty" mapstructure:"defaultTaskWorkload"`
	TaskWorkloadTags    map[string]float64  `yaml:"taskWorkloadTags,omitempty" mapstructure:"taskWorkloadTags"`
	ColumnSorting       map[string][]Sorter `yaml:"columnSorting,omitempty" mapstructure:"columnSorting"`
	TaskTemplate        string              `yaml:"taskTemplate,omitempty" mapstructure:"taskTemplate"`
	DateFormat          string              `yaml:"dateFormat,omitempty" mapstructure:"dateFormat"`
	CustomFields        []CustomField       `yaml:"customFields,omitempty" mapstructure:"customFields"`
	Views               []View              `yaml:"views,omitempty" mapstructure:"views"`

	Extra map[string]any `yaml:",inline" mapstructure:",remain"`
}

// Sprint is a named window starting at Start. It ends where the next sprint
// starts, or at the reference time for the last one.
type Sprint struct {
	Start       time.Time `yaml:"start" mapstructure:"start"`
	Name        string    `yaml:"name" mapstructure:"name"`
	Description string    `yaml:"description,omitempty" mapstructure:"description"`
}

// Sorter is one key of a multi-key sort. Filter is an optional regular
// expression whose matches replace the field value before comparison.
type Sorter struct {
	Field  string `yaml:"field" mapstructure:"field"`
	Filter string `yaml:"filter,omitempty" mapstructure:"filter"`
	Order  string `yaml:"order,omitempty" mapstructure:"order"`
}

// Descending reports whether the sorter inverts the comparison.
func (s Sorter) Descending() bool { return s.Order == Descending }

// CustomField declares a typed metadata key.
type CustomField struct {
	Name       string `yaml:"name" mapstructure:"name"`
	Type       string `yaml:"type" mapstructure:"type"`
	UpdateDate string `yaml:"updateDate,omitempty" mapstructure:"updateDate"`
}

// View is a saved board layout.
type View struct {
	Name    string         `yaml:"name" mapstructure:"name"`
	Filters map[string]any `yaml:"filters,omitempty" mapstructure:"filters"`
	Columns []ViewColumn   `yaml:"columns" mapstructure:"columns"`
	Lanes   []ViewLane     `yaml:"lanes,omitempty" mapstructure:"lanes"`
}

// ViewColumn is one column of a view.
type ViewColumn struct {
	Name    string         `yaml:"name" mapstructure:"name"`
	Filters map[string]any `yaml:"filters,omitempty" mapstructure:"filters"`
	Sorters []Sorter       `yaml:"sorters,omitempty" mapstructure:"sorters"`
}

// ViewLane splits a view horizontally.
type ViewLane struct {
	Name    string         `yaml:"name" mapstructure:"name"`
	Filters map[string]any `yaml:"filters,omitempty" mapstructure:"filters"`
}

// Version returns the index format selected by IndexVersion.
func (o Options) Version() FormatVersion {
	if o.IndexVersion != nil && *o.IndexVersion == int(V2) {
		return V2
	}
	return V1
}

// IsHidden reports whether column is listed in hiddenColumns.
func (o Options) IsHidden(column string) bool { return slices.Contains(o.HiddenColumns, column) }

// IsStarted reports whether column is listed in startedColumns.
func (o Options) IsStarted(column string) bool { return slices.Contains(o.StartedColumns, column) }

// IsCompleted reports whether column is listed in completedColumns.
func (o Options) IsCompleted(column string) bool {
	return slices.Contains(o.CompletedColumns, column)
}

// CustomField returns the declaration for name.
func (o Options) CustomField(name string) (CustomField, bool) {
	for _, f := range o.CustomFields {
		if f.Name == name {
			return f, true
		}
	}
	return CustomField{}, false
}

// View returns the view called name.
func (o Options) View(name string) (View, bool) {
	for _, v := range o.Views {
		if v.Name == name {
			return v, true
		}
	}
	return View{}, false
}

// Map returns the options as a generic map, the shape they take in a
// document.
func (o Options) Map() (map[string]any, error) {
	data, err := yaml.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}
	m := map[string]any{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding options: %w", err)
	}
	return m, nil
}

// IsZero reports whether no option is set.
func (o Options) IsZero() bool {
	m, err := o.Map()
	return err == nil && len(m) == 0
}

// decodeOptions converts a validated raw map into Options. Date strings are
// resolved with p relative to ref.
func decodeOptions(raw map[string]any, p date.Parser, ref time.Time) (Options, error) {
	var o Options
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: date.DecodeHook(p, ref),
		Result:     &o,
	})
	if err != nil {
		return Options{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Options{}, err
	}
	return o, nil
}

// mergeOptions overlays each map in order; later maps win per top-level key.
func mergeOptions(layers ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}
