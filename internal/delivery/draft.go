package delivery

import (
	"fmt"
	"slices"
	"time"
)

// Draft is the merchant's editable copy of a config next to the last saved
// baseline. It is request-scoped: callers carry it between requests themselves.
type Draft struct {
	Baseline     Config       `json:"baseline"`
	Working      Config       `json:"working"`
	Confirmation Confirmation `json:"confirmation"`
}

// NewDraft starts editing from the loaded config.
func NewDraft(loaded Config) *Draft {
	base := loaded.withDefaults()
	return &Draft{
		Baseline:     base.Clone(),
		Working:      base.Clone(),
		Confirmation: Confirmation{Phase: PhaseIdle},
	}
}

// HasChanges reports whether any working collection differs from the baseline as a set.
func (d *Draft) HasChanges() bool {
	return !d.Working.Equal(d.Baseline)
}

// ToggleWeekday blocks day if it is open and opens it if it is blocked.
func (d *Draft) ToggleWeekday(day time.Weekday) error {
	if !ValidWeekday(day) {
		return ErrInvalidWeekday
	}
	if i := slices.Index(d.Working.BlockedWeekdays, day); i >= 0 {
		d.Working.BlockedWeekdays = slices.Delete(slices.Clone(d.Working.BlockedWeekdays), i, i+1)
		return nil
	}
	d.Working.BlockedWeekdays = append(slices.Clone(d.Working.BlockedWeekdays), day)
	return nil
}

// AddDate appends a normalized date unless it is already listed.
func (d *Draft) AddDate(value string) error {
	day, err := NormalizeDate(value)
	if err != nil {
		return err
	}
	if slices.Contains(d.Working.BlockedDates, day) {
		return nil
	}
	d.Working.BlockedDates = append(slices.Clone(d.Working.BlockedDates), day)
	return nil
}

// AddRange appends a normalized range. Reversed endpoints are swapped and an
// identical range already listed is not added again.
func (d *Draft) AddRange(start, end string) error {
	r, err := DateRange{Start: start, End: end}.Normalize()
	if err != nil {
		return err
	}
	if slices.Contains(d.Working.BlockedRanges, r) {
		return nil
	}
	d.Working.BlockedRanges = append(slices.Clone(d.Working.BlockedRanges), r)
	return nil
}

// RequestDelete asks for confirmation before removing the targeted entry.
func (d *Draft) RequestDelete(target DeleteTarget) error {
	if err := d.checkIndex(target); err != nil {
		return err
	}
	return d.Confirmation.Request(target)
}

// ConfirmDelete applies the pending removal.
func (d *Draft) ConfirmDelete() error {
	target, err := d.Confirmation.Confirm()
	if err != nil {
		return err
	}
	// The working copy may have changed since the request.
	if err := d.checkIndex(target); err != nil {
		return err
	}
	switch target.Kind {
	case TargetDate:
		d.Working.BlockedDates = slices.Delete(slices.Clone(d.Working.BlockedDates), target.Index, target.Index+1)
	case TargetRange:
		d.Working.BlockedRanges = slices.Delete(slices.Clone(d.Working.BlockedRanges), target.Index, target.Index+1)
	}
	return nil
}

// CancelDelete drops the pending removal without touching the working copy.
func (d *Draft) CancelDelete() {
	d.Confirmation.Cancel()
}

// Discard throws away every unsaved edit.
func (d *Draft) Discard() {
	d.Working = d.Baseline.Clone()
	d.Confirmation.Cancel()
}

// Snapshot is the document handed to the persistence endpoint on save.
func (d *Draft) Snapshot() Config {
	return d.Working.Clone()
}

// MarkSaved makes the saved working copy the new baseline.
func (d *Draft) MarkSaved() {
	d.Baseline = d.Working.Clone()
}

func (d *Draft) checkIndex(target DeleteTarget) error {
	var n int
	switch target.Kind {
	case TargetDate:
		n = len(d.Working.BlockedDates)
	case TargetRange:
		n = len(d.Working.BlockedRanges)
	default:
		return fmt.Errorf("delivery: unknown delete target %q", target.Kind)
	}
	if target.Index < 0 || target.Index >= n {
		return fmt.Errorf("delivery: %s %d: %w", target.Kind, target.Index, ErrIndexOutOfRange)
	}
	return nil
}
