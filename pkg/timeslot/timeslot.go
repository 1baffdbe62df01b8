// Package timeslot interprets doctor slot labels. A label is an HH:MM
// 24-hour start time, optionally carrying an interval suffix
// ("09:00-10:00"); only the start takes part in comparison and
// ordering. Booked appointment timestamps are reduced to the same
// HH:MM form, so all slot math happens at time-of-day granularity.
package timeslot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const layout = "15:04"

// Start returns the HH:MM start of a slot label, or "" when the label
// carries no parseable start. The result is always zero-padded, even
// when the label writes the hour as a single digit, so that string
// comparison of starts matches time-of-day order and label lookups
// match OfTime output.
func Start(label string) string {
	s := strings.TrimSpace(label)
	if i := strings.IndexAny(s, "- "); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return ""
	}
	return t.Format(layout)
}

// Valid reports whether the label carries a parseable HH:MM start.
func Valid(label string) bool {
	return Start(label) != ""
}

// Hour returns the 0-23 hour of the slot start.
func Hour(label string) (int, error) {
	start := Start(label)
	if start == "" {
		return 0, fmt.Errorf("malformed slot label %q", label)
	}
	h, err := strconv.Atoi(start[:strings.Index(start, ":")])
	if err != nil {
		return 0, fmt.Errorf("malformed slot label %q", label)
	}
	return h, nil
}

// OfTime returns the HH:MM time-of-day label of t, discarding the date
// component.
func OfTime(t time.Time) string {
	return t.Format(layout)
}
