package delivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// document mirrors Config with every collection left raw so one bad entry
// cannot sink the entries around it.
type document struct {
	BlockedWeekdays json.RawMessage `json:"blockedWeekdays"`
	BlockedDates    json.RawMessage `json:"blockedDates"`
	BlockedRanges   json.RawMessage `json:"blockedRanges"`
}

// Decode parses a persisted config document. Empty input and JSON null yield
// DefaultConfig; anything that is not a JSON object yields a *ParseError.
// Entries of the wrong JSON type are skipped and the rest are kept.
func Decode(raw []byte) (Config, error) {
	cfg, _, err := decode(raw)
	return cfg, err
}

// DecodeSubmitted parses a document sent by the merchant. Unlike Decode it
// rejects entries of the wrong JSON type with a *ValidationError instead of
// skipping them.
func DecodeSubmitted(raw []byte) (Config, error) {
	cfg, problems, err := decode(raw)
	if err != nil {
		return cfg, err
	}
	if len(problems) > 0 {
		return cfg, &ValidationError{Problems: problems}
	}
	return cfg, nil
}

// DecodeOrDefault never fails: malformed documents become DefaultConfig.
func DecodeOrDefault(raw []byte) Config {
	cfg, err := Decode(raw)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

func decode(raw []byte) (Config, []string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return DefaultConfig(), nil, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return DefaultConfig(), nil, &ParseError{Err: err}
	}

	var problems []string
	cfg := DefaultConfig()

	for i, entry := range entries(doc.BlockedWeekdays, "blockedWeekdays", &problems) {
		day, ok := decodeWeekday(entry)
		if !ok {
			problems = append(problems, fmt.Sprintf("blockedWeekdays.%d: %v", i, ErrInvalidWeekday))
			continue
		}
		cfg.BlockedWeekdays = append(cfg.BlockedWeekdays, day)
	}

	for i, entry := range entries(doc.BlockedDates, "blockedDates", &problems) {
		var day string
		if err := json.Unmarshal(entry, &day); err != nil {
			problems = append(problems, fmt.Sprintf("blockedDates.%d: %v: not a string", i, ErrInvalidDate))
			continue
		}
		cfg.BlockedDates = append(cfg.BlockedDates, day)
	}

	for i, entry := range entries(doc.BlockedRanges, "blockedRanges", &problems) {
		var r DateRange
		if err := json.Unmarshal(entry, &r); err != nil {
			problems = append(problems, fmt.Sprintf("blockedRanges.%d: expected {start,end}", i))
			continue
		}
		cfg.BlockedRanges = append(cfg.BlockedRanges, r)
	}

	return cfg, problems, nil
}

// entries splits a raw collection into its elements. A collection that is
// not an array is reported once and treated as empty.
func entries(raw json.RawMessage, field string, problems *[]string) []json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: expected an array", field))
		return nil
	}
	return list
}

// decodeWeekday accepts integral JSON numbers only. Values outside 0..6 are
// returned as-is and rejected later by Normalize.
func decodeWeekday(raw json.RawMessage) (time.Weekday, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || (trimmed[0] != '-' && (trimmed[0] < '0' || trimmed[0] > '9')) {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, false
		}
		return time.Weekday(i), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return time.Weekday(int(f)), true
}

// Normalize validates a submitted config and returns it in canonical form:
// dates in DateLayout, ranges ordered, duplicates removed, first-seen order kept.
// Every rejected entry is reported in a single *ValidationError.
func Normalize(cfg Config) (Config, error) {
	var problems []string
	out := DefaultConfig()

	seenDays := map[time.Weekday]struct{}{}
	for i, d := range cfg.BlockedWeekdays {
		if !ValidWeekday(d) {
			problems = append(problems, fmt.Sprintf("blockedWeekdays.%d: %v", i, ErrInvalidWeekday))
			continue
		}
		if _, dup := seenDays[d]; dup {
			continue
		}
		seenDays[d] = struct{}{}
		out.BlockedWeekdays = append(out.BlockedWeekdays, d)
	}

	seenDates := map[string]struct{}{}
	for i, raw := range cfg.BlockedDates {
		day, err := NormalizeDate(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("blockedDates.%d: %v", i, err))
			continue
		}
		if _, dup := seenDates[day]; dup {
			continue
		}
		seenDates[day] = struct{}{}
		out.BlockedDates = append(out.BlockedDates, day)
	}

	seenRanges := map[DateRange]struct{}{}
	for i, raw := range cfg.BlockedRanges {
		r, err := raw.Normalize()
		if err != nil {
			problems = append(problems, fmt.Sprintf("blockedRanges.%d: %v", i, err))
			continue
		}
		if _, dup := seenRanges[r]; dup {
			continue
		}
		seenRanges[r] = struct{}{}
		out.BlockedRanges = append(out.BlockedRanges, r)
	}

	if len(problems) > 0 {
		return out, &ValidationError{Problems: problems}
	}
	return out, nil
}
