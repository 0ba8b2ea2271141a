package date

import (
	"fmt"
	"time"
)

// Resolution is the granularity timestamps are collapsed to before
// computing burndown points.
type Resolution string

// Supported resolutions. Auto picks one from the span being charted.
const (
	None    Resolution = ""
	Auto    Resolution = "auto"
	Days    Resolution = "days"
	Hours   Resolution = "hours"
	Minutes Resolution = "minutes"
	Seconds Resolution = "seconds"
)

const week = 7 * 24 * time.Hour

// ParseResolution validates a resolution name.
func ParseResolution(s string) (Resolution, error) {
	switch r := Resolution(s); r {
	case None, Auto, Days, Hours, Minutes, Seconds:
		return r, nil
	default:
		return None, fmt.Errorf("invalid resolution %q (expected auto, days, hours, minutes or seconds)", s)
	}
}

// ForSpan picks the resolution auto-normalisation uses for a window of the
// given length.
func ForSpan(span time.Duration) Resolution {
	switch {
	case span >= week:
		return Days
	case span >= 24*time.Hour:
		return Hours
	case span >= time.Hour:
		return Minutes
	default:
		return Seconds
	}
}

// Normalize zeroes every component of t finer than r. None and Auto return t
// unchanged; callers resolve Auto with ForSpan first.
func Normalize(t time.Time, r Resolution) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	switch r {
	case Days:
		return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
	case Hours:
		return time.Date(y, mo, d, h, 0, 0, 0, t.Location())
	case Minutes:
		return time.Date(y, mo, d, h, mi, 0, 0, t.Location())
	case Seconds:
		return time.Date(y, mo, d, h, mi, s, 0, t.Location())
	default:
		return t
	}
}
