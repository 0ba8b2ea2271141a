// Package board queries and analyses decoded boards: filtering, sorting,
// workload, status reports and burndown series.
package board

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/index"
)

var timeNow = time.Now

// Filters maps a field name to one value or a list of values.
type Filters map[string]any

// QueryOptions carries the board context that filters and sorters need.
type QueryOptions struct {
	// Options supplies custom field declarations.
	Options index.Options
	// Parser resolves date filter values; date.Default when nil.
	Parser date.Parser
	// Now is the reference for relative dates; the current time when zero.
	Now time.Time
}

type query struct {
	options index.Options
	parser  date.Parser
	now     time.Time
}

func newQuery(o QueryOptions) *query {
	q := &query{options: o.Options, parser: o.Parser, now: o.Now}
	if q.parser == nil {
		q.parser = date.Default
	}
	if q.now.IsZero() {
		q.now = timeNow()
	}
	return q
}

type predicate func(t *Tracked) bool

// FilterAndSort filters tasks, then sorts the survivors.
func FilterAndSort(tasks []*Tracked, filters Filters, sorters []index.Sorter, opts QueryOptions) ([]*Tracked, error) {
	filtered, err := Filter(tasks, filters, opts)
	if err != nil {
		return nil, err
	}
	return Sort(filtered, sorters, opts)
}

// Filter returns the tasks matching every filter field (AND logic). An empty
// filter set matches everything.
func Filter(tasks []*Tracked, filters Filters, opts QueryOptions) ([]*Tracked, error) {
	if len(filters) == 0 {
		return slices.Clone(tasks), nil
	}

	q := newQuery(opts)
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	slices.Sort(names)

	preds := make([]predicate, 0, len(names))
	for _, name := range names {
		p, err := q.predicate(name, filters[name])
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	var result []*Tracked
	for _, t := range tasks {
		if matchesAll(t, preds) {
			result = append(result, t)
		}
	}
	return result, nil
}

func matchesAll(t *Tracked, preds []predicate) bool {
	for _, p := range preds {
		if !p(t) {
			return false
		}
	}
	return true
}

func (q *query) predicate(name string, raw any) (predicate, error) {
	field, err := lookupField(name, q)
	if err != nil {
		return nil, err
	}
	values := filterValues(raw)
	if len(values) == 0 {
		return nil, invalidFilter(name, "no value given")
	}

	switch field.kind {
	case kindDate:
		return q.datePredicate(name, field, values)
	case kindNumber:
		return q.numberPredicate(name, field, values)
	case kindBoolean:
		want, err := q.coerce(kindBoolean, values[0])
		if err != nil {
			return nil, invalidFilter(name, err.Error())
		}
		return func(t *Tracked) bool {
			v := field.get(t, q)
			return v.present && v.boolean == want.boolean
		}, nil
	default:
		return q.stringPredicate(name, field, values)
	}
}

func (q *query) stringPredicate(name string, field extractor, values []any) (predicate, error) {
	alts := make([]string, len(values))
	for i, v := range values {
		alts[i] = "(?:" + fmt.Sprint(v) + ")"
	}
	re, err := regexp.Compile("(?i)" + strings.Join(alts, "|"))
	if err != nil {
		return nil, invalidFilter(name, err.Error())
	}
	return func(t *Tracked) bool {
		v := field.get(t, q)
		if !v.present {
			return false
		}
		return slices.ContainsFunc(v.text, re.MatchString)
	}, nil
}

func (q *query) datePredicate(name string, field extractor, values []any) (predicate, error) {
	dates := make([]time.Time, len(values))
	for i, v := range values {
		d, err := q.coerce(kindDate, v)
		if err != nil {
			return nil, invalidFilter(name, err.Error())
		}
		dates[i] = d.date
	}

	if len(dates) == 1 {
		day := dates[0]
		return func(t *Tracked) bool {
			v := field.get(t, q)
			return v.present && date.SameDay(day, v.date)
		}, nil
	}

	lo := slices.MinFunc(dates, time.Time.Compare)
	hi := slices.MaxFunc(dates, time.Time.Compare)
	return func(t *Tracked) bool {
		v := field.get(t, q)
		return v.present && !v.date.Before(lo) && !v.date.After(hi)
	}, nil
}

func (q *query) numberPredicate(name string, field extractor, values []any) (predicate, error) {
	nums := make([]float64, len(values))
	for i, v := range values {
		n, err := toNumber(v)
		if err != nil {
			return nil, invalidFilter(name, err.Error())
		}
		nums[i] = n
	}
	lo, hi := slices.Min(nums), slices.Max(nums)
	return func(t *Tracked) bool {
		v := field.get(t, q)
		return v.present && v.number >= lo && v.number <= hi
	}, nil
}

// filterValues flattens a single value or any slice into a list.
func filterValues(raw any) []any {
	if raw == nil {
		return nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice {
		return []any{raw}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func invalidFilter(field, reason string) *clierr.Error {
	return clierr.Newf(clierr.SemanticError, "invalid value for filter %q: %s", field, reason).
		WithDetails(map[string]any{"field": field})
}
