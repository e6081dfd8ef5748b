package delivery

import (
	"fmt"
	"time"
)

// DisabledSet is the canonical {dates, weekdays, ranges} triple a date picker
// disables. How weekdays are rendered is left to the caller.
type DisabledSet struct {
	Dates    []string       `json:"dates"`
	Weekdays []time.Weekday `json:"weekdays"`
	Ranges   []DateRange    `json:"ranges"`
}

// Resolve turns a config into its disabled set. It is pure: entries that cannot
// be interpreted are skipped, never reported, so any persisted document resolves.
func Resolve(cfg Config) DisabledSet {
	// Normalize keeps every valid entry even when it reports problems.
	clean, _ := Normalize(cfg)
	return DisabledSet{
		Dates:    clean.BlockedDates,
		Weekdays: clean.BlockedWeekdays,
		Ranges:   clean.BlockedRanges,
	}
}

// Disables reports whether the calendar date of t is blocked. The date and
// weekday are taken in t's own location.
func (s DisabledSet) Disables(t time.Time) bool {
	day := t.Format(DateLayout)
	for _, d := range s.Dates {
		if d == day {
			return true
		}
	}
	weekday := t.Weekday()
	for _, w := range s.Weekdays {
		if w == weekday {
			return true
		}
	}
	for _, r := range s.Ranges {
		if r.Contains(day) {
			return true
		}
	}
	return false
}

// DisablesDate is Disables for a YYYY-MM-DD (or RFC 3339) string.
func (s DisabledSet) DisablesDate(value string) (bool, error) {
	day, err := NormalizeDate(value)
	if err != nil {
		return false, err
	}
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return false, fmt.Errorf("delivery: %w", err)
	}
	return s.Disables(t), nil
}

// IsEmpty reports whether nothing is disabled.
func (s DisabledSet) IsEmpty() bool {
	return len(s.Dates) == 0 && len(s.Weekdays) == 0 && len(s.Ranges) == 0
}
