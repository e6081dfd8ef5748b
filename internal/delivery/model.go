// Package delivery models the merchant's blocked delivery dates and resolves
// them into the set of calendar values a date picker must disable.
package delivery

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format. Dates in this layout sort lexically.
const DateLayout = "2006-01-02"

// Metafield coordinates for the shop-scoped record and the per-order selection.
const (
	ConfigNamespace    = "custom"
	ConfigKey          = "locked_delivery_data"
	SelectionNamespace = "delivery"
	SelectionKey       = "selected_date"
)

// DateRange is a closed interval of calendar dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Normalize returns the range with both endpoints in DateLayout and Start <= End.
func (r DateRange) Normalize() (DateRange, error) {
	start, err := NormalizeDate(r.Start)
	if err != nil {
		return DateRange{}, fmt.Errorf("range start: %w", err)
	}
	end, err := NormalizeDate(r.End)
	if err != nil {
		return DateRange{}, fmt.Errorf("range end: %w", err)
	}
	if end < start {
		start, end = end, start
	}
	return DateRange{Start: start, End: end}, nil
}

// Contains reports whether day (DateLayout) falls inside the closed interval.
func (r DateRange) Contains(day string) bool {
	return r.Start <= day && day <= r.End
}

// Config is the persisted BlockedDeliveryConfig. There is exactly one per shop
// and every save replaces it whole.
type Config struct {
	BlockedWeekdays []time.Weekday `json:"blockedWeekdays"`
	BlockedDates    []string       `json:"blockedDates"`
	BlockedRanges   []DateRange    `json:"blockedRanges"`
}

// DefaultConfig is the record of a shop that has never saved: nothing blocked.
func DefaultConfig() Config {
	return Config{
		BlockedWeekdays: []time.Weekday{},
		BlockedDates:    []string{},
		BlockedRanges:   []DateRange{},
	}
}

// withDefaults replaces absent collections with empty ones.
func (c Config) withDefaults() Config {
	if c.BlockedWeekdays == nil {
		c.BlockedWeekdays = []time.Weekday{}
	}
	if c.BlockedDates == nil {
		c.BlockedDates = []string{}
	}
	if c.BlockedRanges == nil {
		c.BlockedRanges = []DateRange{}
	}
	return c
}

// Clone returns a deep copy so drafts never alias their baseline.
func (c Config) Clone() Config {
	out := Config{
		BlockedWeekdays: append([]time.Weekday{}, c.BlockedWeekdays...),
		BlockedDates:    append([]string{}, c.BlockedDates...),
		BlockedRanges:   append([]DateRange{}, c.BlockedRanges...),
	}
	return out
}

// MarshalJSON always emits empty arrays instead of null.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return json.Marshal(plain(c.withDefaults()))
}

// IsEmpty reports whether nothing is blocked.
func (c Config) IsEmpty() bool {
	return len(c.BlockedWeekdays) == 0 && len(c.BlockedDates) == 0 && len(c.BlockedRanges) == 0
}

// Equal compares two configs as sets: order and duplicates are ignored.
func (c Config) Equal(other Config) bool {
	return sameSet(c.BlockedWeekdays, other.BlockedWeekdays) &&
		sameSet(c.BlockedDates, other.BlockedDates) &&
		sameSet(c.BlockedRanges, other.BlockedRanges)
}

func sameSet[T comparable](a, b []T) bool {
	left := make(map[T]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[T]struct{}, len(b))
	for _, v := range b {
		if _, ok := left[v]; !ok {
			return false
		}
		right[v] = struct{}{}
	}
	return len(left) == len(right)
}

// NormalizeDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date in DateLayout. Timestamps are reduced to their UTC date.
func NormalizeDate(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if t, err := time.Parse(DateLayout, v); err == nil {
		return t.Format(DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC().Format(DateLayout), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// ValidWeekday reports whether d is 0 (Sunday) through 6 (Saturday).
func ValidWeekday(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday
}
