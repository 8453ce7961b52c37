package offer

import (
	"fmt"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" means UTC; timestamps
// without an offset are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func minutesBetween(from, to string) (int, bool) {
	start, ok := ParseTimestamp(from)
	if !ok {
		return 0, false
	}
	end, ok := ParseTimestamp(to)
	if !ok {
		return 0, false
	}
	return int(end.Sub(start) / time.Minute), true
}

// JourneyMinutes is the time from the first departure to the last arrival. It is nil
// when either endpoint does not parse or the span is not positive.
func JourneyMinutes(segments []Segment) *int {
	if len(segments) == 0 {
		return nil
	}
	m, ok := minutesBetween(segments[0].DepartAt, segments[len(segments)-1].ArriveAt)
	if !ok || m <= 0 {
		return nil
	}
	return &m
}

// AirTimeMinutes sums the positive durations of segments whose timestamps parse.
func AirTimeMinutes(segments []Segment) *int {
	total := 0
	for _, s := range segments {
		if m, ok := minutesBetween(s.DepartAt, s.ArriveAt); ok && m > 0 {
			total += m
		}
	}
	if total <= 0 {
		return nil
	}
	return &total
}

// FormatMinutes renders minutes as "5h 30m", or "5h" on the hour.
func FormatMinutes(total int) string {
	h, m := total/60, total%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
