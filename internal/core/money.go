// Package core holds the pure finance domain: money, recurrence
// schedules, the tracked entities, and the aggregation functions.
// Nothing in this package touches storage or the network.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in integer cents. All arithmetic happens on cents
// to avoid floating-point drift; floats appear only at display edges.
type Money struct {
	Cents int64
}

// ParseAmount converts a decimal string to Money with half-up rounding
// on the third decimal place. Both dot and comma separators are
// accepted. Negative and zero amounts are rejected.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Money{}, fmt.Errorf("%w: empty amount", ErrValidation)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	cents := d.Mul(decimal.New(100, 0)).Round(0)
	if !cents.IsPositive() {
		return Money{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !cents.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: amount out of range", ErrValidation)
	}
	return Money{Cents: cents.BigInt().Int64()}, nil
}

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return nil
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Cents == 0 }

// Add returns m + other.
func (m Money) Add(other Money) Money { return Money{Cents: m.Cents + other.Cents} }

// Sub returns m - other.
func (m Money) Sub(other Money) Money { return Money{Cents: m.Cents - other.Cents} }

// Decimal returns the amount as a decimal value in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the amount in major units for chart rendering and
// JSON summaries. Not for arithmetic.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as "123.45" (with sign for negatives).
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
