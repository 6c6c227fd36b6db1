package utils

import (
	"errors"
	"testing"
	"time"
)

func mustTime(t *testing.T, year int, month time.Month, d, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, d, hour, min, 0, 0, time.UTC)
}

func TestNewTimeRange_Invalid(t *testing.T) {
	start := mustTime(t, 2024, 1, 4, 0, 0)

	cases := map[string]time.Time{
		"equal":    start,
		"inverted": mustTime(t, 2024, 1, 1, 0, 0),
		"zero":     {},
	}
	for name, end := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewTimeRange(start, end)
			if !errors.Is(err, ErrInvalidTimeRange) {
				t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
			}
		})
	}
}

func TestTimeRange_Days(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int64
	}{
		{"three whole days", mustTime(t, 2024, 1, 1, 0, 0), mustTime(t, 2024, 1, 4, 0, 0), 3},
		{"partial day rounds up", mustTime(t, 2024, 1, 1, 10, 0), mustTime(t, 2024, 1, 2, 11, 0), 2},
		{"one minute is one day", mustTime(t, 2024, 1, 1, 10, 0), mustTime(t, 2024, 1, 1, 10, 1), 1},
		{"exactly one day", mustTime(t, 2024, 2, 28, 12, 0), mustTime(t, 2024, 2, 29, 12, 0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTimeRange(tt.start, tt.end)
			if err != nil {
				t.Fatalf("NewTimeRange: %v", err)
			}
			if got := tr.Days(); got != tt.want {
				t.Fatalf("Days() = %d, want %d", got, tt.want)
			}
		})
	}

	if got := (TimeRange{Start: tests[0].end, End: tests[0].start}).Days(); got != 0 {
		t.Fatalf("inverted range Days() = %d, want 0", got)
	}
}

func TestTimeRange_Contains(t *testing.T) {
	tr, _ := NewTimeRange(mustTime(t, 2024, 1, 1, 0, 0), mustTime(t, 2024, 1, 2, 0, 0))
	if !tr.Contains(tr.Start) {
		t.Fatalf("start must be inside")
	}
	if tr.Contains(tr.End) {
		t.Fatalf("end must be outside")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-01-04")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(mustTime(t, 2024, 1, 4, 0, 0)) {
		t.Fatalf("got %v", got)
	}

	got, err = ParseDate("2024-01-04T10:30:00+02:00")
	if err != nil {
		t.Fatalf("ParseDate rfc3339: %v", err)
	}
	if !got.Equal(mustTime(t, 2024, 1, 4, 8, 30)) || got.Location() != time.UTC {
		t.Fatalf("got %v", got)
	}

	for _, bad := range []string{"", "  ", "04/01/2024", "tomorrow"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) err = %v", bad, err)
		}
	}
}
