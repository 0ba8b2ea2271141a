// Package date resolves natural-language date strings and provides the
// calendar arithmetic used by filters, reports and burndown charts.
package date

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// layout is the round-trippable textual form written by the encoders.
const layout = time.RFC3339Nano

// fixedLayouts are tried before falling back to natural-language parsing.
var fixedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Parser turns user-entered text into a point in time. ref is the moment
// relative expressions ("tomorrow", "in 3 days") are resolved against.
type Parser interface {
	Parse(s string, ref time.Time) (time.Time, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(s string, ref time.Time) (time.Time, error)

// Parse implements Parser.
func (f ParserFunc) Parse(s string, ref time.Time) (time.Time, error) { return f(s, ref) }

// Natural parses ISO-like dates and falls back to natural-language phrases.
type Natural struct{}

// Default is the parser used when callers do not inject one.
var Default Parser = Natural{}

// ErrUnparseable is returned when no layout or phrase matches.
var ErrUnparseable = errors.New("unrecognised date")

// Parse implements Parser.
func (Natural) Parse(s string, ref time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrUnparseable)
	}
	for _, l := range fixedLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	t, err := naturaldate.Parse(s, ref, naturaldate.WithDirection(naturaldate.Future))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrUnparseable, s, err)
	}
	// The phrase parser echoes the reference time back when nothing matched.
	if t.Equal(ref) && !strings.EqualFold(s, "now") {
		return time.Time{}, fmt.Errorf("%w %q", ErrUnparseable, s)
	}
	return t, nil
}

// Format renders t in the fixed round-trippable form used in documents.
func Format(t time.Time) string {
	return t.UTC().Format(layout)
}

// StartOfDay returns midnight at the start of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SameDay reports whether a and b fall on the same calendar day, ignoring
// time-of-day. Both are compared in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
