package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("end date must be after start date")
	ErrInvalidDate      = errors.New("invalid date")
)

const day = 24 * time.Hour

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange validates that End is strictly after Start.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, ErrInvalidTimeRange
	}
	if !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Days counts started 24h periods: ceil((End-Start) / 24h).
// An empty or inverted range yields 0.
func (tr TimeRange) Days() int64 {
	d := tr.End.Sub(tr.Start)
	if d <= 0 {
		return 0
	}
	return int64((d + day - 1) / day)
}

// Contains reports whether t falls into [Start, End).
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

func (tr TimeRange) String() string {
	return fmt.Sprintf("%s..%s", tr.Start.Format(time.RFC3339), tr.End.Format(time.RFC3339))
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates
// (interpreted as UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
