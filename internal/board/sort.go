package board

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/date"
	"github.com/baflo/kanbn-sub002/internal/index"
)

// sortKey is the comparable form of one field for one task.
type sortKey struct {
	present bool
	kind    fieldKind
	text    string
	number  float64
	date    time.Time
	boolean bool
}

type compiledSorter struct {
	field      extractor
	extract    *regexp.Regexp
	descending bool
}

// Sort returns the tasks ordered by each sorter in turn. Ties under every
// sorter keep their input order. Missing values sort before present ones.
func Sort(tasks []*Tracked, sorters []index.Sorter, opts QueryOptions) ([]*Tracked, error) {
	out := slices.Clone(tasks)
	if len(sorters) == 0 {
		return out, nil
	}

	q := newQuery(opts)
	compiled := make([]compiledSorter, len(sorters))
	for i, s := range sorters {
		f, err := lookupField(s.Field, q)
		if err != nil {
			return nil, err
		}
		c := compiledSorter{field: f, descending: s.Descending()}
		if s.Filter != "" {
			re, err := regexp.Compile("(?i)" + s.Filter)
			if err != nil {
				return nil, clierr.Newf(clierr.SemanticError, "invalid sort filter %q: %v", s.Filter, err).
					WithDetails(map[string]any{"field": s.Field})
			}
			c.extract = re
		}
		compiled[i] = c
	}

	keys := make(map[*Tracked][]sortKey, len(out))
	for _, t := range out {
		ks := make([]sortKey, len(compiled))
		for i, c := range compiled {
			ks[i] = c.key(t, q)
		}
		keys[t] = ks
	}

	collator := collate.New(language.Und, collate.IgnoreCase)
	slices.SortStableFunc(out, func(a, b *Tracked) int {
		ka, kb := keys[a], keys[b]
		for i, c := range compiled {
			r := compareKeys(collator, ka[i], kb[i])
			if r == 0 {
				continue
			}
			if c.descending {
				return -r
			}
			return r
		}
		return 0
	})
	return out, nil
}

func (c compiledSorter) key(t *Tracked, q *query) sortKey {
	v := c.field.get(t, q)
	if !v.present {
		return sortKey{}
	}
	k := sortKey{present: true, kind: c.field.kind, text: strings.Join(v.text, "\n"),
		number: v.number, date: v.date, boolean: v.boolean}
	if c.extract == nil {
		return k
	}
	return sortKey{present: true, kind: kindString, text: extract(c.extract, k.String())}
}

// String renders the key as text for pattern extraction.
func (k sortKey) String() string {
	switch k.kind {
	case kindNumber:
		return strconv.FormatFloat(k.number, 'f', -1, 64)
	case kindDate:
		return date.Format(k.date)
	case kindBoolean:
		return strconv.FormatBool(k.boolean)
	default:
		return k.text
	}
}

// extract concatenates the captured groups of every match, or the whole
// matches when the pattern has no groups. No match leaves s unchanged.
func extract(re *regexp.Regexp, s string) string {
	matches := re.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	for _, m := range matches {
		if len(m) == 1 {
			b.WriteString(m[0])
			continue
		}
		for _, g := range m[1:] {
			b.WriteString(g)
		}
	}
	return b.String()
}

func compareKeys(collator *collate.Collator, a, b sortKey) int {
	switch {
	case !a.present && !b.present:
		return 0
	case !a.present:
		return -1
	case !b.present:
		return 1
	}
	switch a.kind {
	case kindNumber:
		return cmp.Compare(a.number, b.number)
	case kindDate:
		return a.date.Compare(b.date)
	case kindBoolean:
		switch {
		case a.boolean == b.boolean:
			return 0
		case b.boolean:
			return -1
		default:
			return 1
		}
	default:
		return collator.CompareString(a.text, b.text)
	}
}
