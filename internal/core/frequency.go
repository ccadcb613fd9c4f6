package core

import (
	"fmt"
	"time"
)

// Frequency enumerates how often a bill, recurring transaction, or
// auto-contribution repeats.
type Frequency string

const (
	Daily      Frequency = "daily"
	Weekly     Frequency = "weekly"
	Biweekly   Frequency = "biweekly"
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "quarterly"
	Semiannual Frequency = "semiannual"
	Annual     Frequency = "annual"
	Once       Frequency = "once"
)

// Frequencies lists all valid values, in offset order.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Biweekly, Monthly, Quarterly, Semiannual, Annual, Once}
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Semiannual, Annual, Once:
		return true
	}
	return false
}

// Recurring reports whether f produces further occurrences.
func (f Frequency) Recurring() bool {
	return f.Valid() && f != Once
}

// ValidateFrequency wraps Valid with a descriptive error.
func ValidateFrequency(f Frequency) error {
	if !f.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrValidation, string(f))
	}
	return nil
}

// NextOccurrence returns the next occurrence after anchor for the
// given frequency. The second return is false for Once (no further
// occurrence) and for unknown frequencies.
//
// Calendar arithmetic clamps to the last day of the target month:
// Jan 31 + 1 month is Feb 28 (29 in leap years), and Feb 29 + 1 year
// is Feb 28. Day-based frequencies add a fixed number of days.
func NextOccurrence(anchor time.Time, f Frequency) (time.Time, bool) {
	switch f {
	case Daily:
		return anchor.AddDate(0, 0, 1), true
	case Weekly:
		return anchor.AddDate(0, 0, 7), true
	case Biweekly:
		return anchor.AddDate(0, 0, 14), true
	case Monthly:
		return addMonthsClamped(anchor, 1), true
	case Quarterly:
		return addMonthsClamped(anchor, 3), true
	case Semiannual:
		return addMonthsClamped(anchor, 6), true
	case Annual:
		return addMonthsClamped(anchor, 12), true
	default:
		return time.Time{}, false
	}
}

// addMonthsClamped adds months keeping the day of month, clamped to
// the last day of the target month. time.AddDate alone would
// normalize Jan 31 + 1 month to Mar 2/3, which is not what a billing
// schedule wants.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
