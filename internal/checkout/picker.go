// Package checkout backs the checkout date picker: which dates the buyer may
// not choose, and recording the one they did. The selection endpoint needs an
// existing order id, so it serves post-purchase and thank-you page surfaces.
package checkout

import (
	"github.com/wolfman30/blocked-delivery-dates/internal/delivery"
)

// PickerPayload is what the checkout date picker consumes. Disabled mixes the
// three forms the picker understands: "YYYY-MM-DD" strings, weekday names
// ("Sunday".."Saturday") and {start,end} ranges.
type PickerPayload struct {
	Disabled []any                `json:"disabled"`
	Dates    []string             `json:"dates"`
	Weekdays []string             `json:"weekdays"`
	Ranges   []delivery.DateRange `json:"ranges"`
}

// NewPickerPayload maps a resolved set to the picker's vocabulary.
func NewPickerPayload(set delivery.DisabledSet) PickerPayload {
	p := PickerPayload{
		Disabled: make([]any, 0, len(set.Dates)+len(set.Weekdays)+len(set.Ranges)),
		Dates:    append([]string{}, set.Dates...),
		Weekdays: make([]string, 0, len(set.Weekdays)),
		Ranges:   append([]delivery.DateRange{}, set.Ranges...),
	}
	for _, d := range set.Dates {
		p.Disabled = append(p.Disabled, d)
	}
	for _, wd := range set.Weekdays {
		p.Weekdays = append(p.Weekdays, wd.String())
		p.Disabled = append(p.Disabled, wd.String())
	}
	for _, r := range set.Ranges {
		p.Disabled = append(p.Disabled, r)
	}
	return p
}
