package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// parseDate accepts RFC3339 timestamps and bare dates. Bare dates are
// interpreted at midnight UTC.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", core.ErrValidation)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", core.ErrValidation, s)
	}
	return t, nil
}

func monthStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
