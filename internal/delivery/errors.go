package delivery

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidDate is returned when a value is not a calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidWeekday is returned for weekday values outside 0..6.
	ErrInvalidWeekday = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")

	// ErrDeletePending is returned when a removal is requested while another awaits confirmation.
	ErrDeletePending = errors.New("another removal is awaiting confirmation")

	// ErrNoPendingDelete is returned when confirming with nothing pending.
	ErrNoPendingDelete = errors.New("no removal is awaiting confirmation")

	// ErrIndexOutOfRange is returned when a removal targets a missing entry.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// ParseError means a persisted value was not valid JSON. Readers recover from it
// by substituting DefaultConfig.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("delivery: parse config: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError lists every rejected entry of a submitted config.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}
