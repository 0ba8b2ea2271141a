package date

import (
	"errors"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
)

var ref = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func TestNaturalParseFixedLayouts(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024-01-02T03:04:05.123Z", time.Date(2024, 1, 2, 3, 4, 5, 123000000, time.UTC)},
		{"2024-01-02 03:04", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		{"  2024-01-02  ", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Natural{}.Parse(tt.input, ref)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNaturalParseEmpty(t *testing.T) {
	_, err := Natural{}.Parse("   ", ref)
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("Parse(blank) error = %v, want ErrUnparseable", err)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	in := time.Date(2024, 5, 6, 7, 8, 9, 10, time.UTC)
	got, err := Natural{}.Parse(Format(in), ref)
	if err != nil {
		t.Fatalf("Parse(Format()) error: %v", err)
	}
	if !got.Equal(in) {
		t.Errorf("round trip = %v, want %v", got, in)
	}
}

func TestDayHelpers(t *testing.T) {
	tm := time.Date(2024, 1, 1, 15, 45, 30, 99, time.UTC)
	if got := StartOfDay(tm); !got.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartOfDay = %v", got)
	}
	if got := EndOfDay(tm); !got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
		t.Errorf("EndOfDay = %v", got)
	}
	if !SameDay(tm, time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)) {
		t.Error("SameDay should ignore time-of-day")
	}
	if SameDay(tm, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Error("SameDay should reject the next day")
	}
}

func TestNormalize(t *testing.T) {
	tm := time.Date(2024, 1, 3, 13, 14, 15, 16, time.UTC)
	tests := []struct {
		res  Resolution
		want time.Time
	}{
		{Days, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		{Hours, time.Date(2024, 1, 3, 13, 0, 0, 0, time.UTC)},
		{Minutes, time.Date(2024, 1, 3, 13, 14, 0, 0, time.UTC)},
		{Seconds, time.Date(2024, 1, 3, 13, 14, 15, 0, time.UTC)},
		{None, tm},
	}
	for _, tt := range tests {
		t.Run(string(tt.res), func(t *testing.T) {
			if got := Normalize(tm, tt.res); !got.Equal(tt.want) {
				t.Errorf("Normalize(%s) = %v, want %v", tt.res, got, tt.want)
			}
		})
	}
}

func TestForSpan(t *testing.T) {
	tests := []struct {
		span time.Duration
		want Resolution
	}{
		{7 * 24 * time.Hour, Days},
		{30 * 24 * time.Hour, Days},
		{24 * time.Hour, Hours},
		{6 * 24 * time.Hour, Hours},
		{time.Hour, Minutes},
		{59 * time.Minute, Seconds},
	}
	for _, tt := range tests {
		if got := ForSpan(tt.span); got != tt.want {
			t.Errorf("ForSpan(%v) = %s, want %s", tt.span, got, tt.want)
		}
	}
}

func TestParseResolution(t *testing.T) {
	if _, err := ParseResolution("weeks"); err == nil {
		t.Error("ParseResolution(weeks) should fail")
	}
	if r, err := ParseResolution("hours"); err != nil || r != Hours {
		t.Errorf("ParseResolution(hours) = %s, %v", r, err)
	}
}

func TestCoerce(t *testing.T) {
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []any{want, &want, "2024-01-02"} {
		got, err := Coerce(in, Default, ref)
		if err != nil {
			t.Fatalf("Coerce(%v) error: %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("Coerce(%v) = %v, want %v", in, got, want)
		}
	}
	if _, err := Coerce(42, Default, ref); !errors.Is(err, ErrUnparseable) {
		t.Errorf("Coerce(42) error = %v, want ErrUnparseable", err)
	}
}

func TestDecodeHookUsesParser(t *testing.T) {
	fixed := time.Date(2030, 5, 6, 0, 0, 0, 0, time.UTC)
	p := ParserFunc(func(string, time.Time) (time.Time, error) { return fixed, nil })

	var out struct {
		When time.Time
		Name string
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(p, ref),
		Result:     &out,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(map[string]any{"When": "whenever", "Name": "x"}); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !out.When.Equal(fixed) || out.Name != "x" {
		t.Errorf("decoded %+v", out)
	}
}
