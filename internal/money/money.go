// Package money provides a fixed two-decimal monetary value type used for
// wallet balances and transfer amounts. Values are always non-negative once
// constructed and all arithmetic is exact.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const scale = 2

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeResult = errors.New("resulting amount cannot be negative")
)

// Money is an immutable two-decimal amount. The zero value is 0.00.
type Money struct {
	amount decimal.Decimal
}

// Zero returns a Money of 0.00.
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Parse builds a Money from its string form. Non-numeric or negative input is
// rejected. Input with more than two fractional digits is rounded half-up to
// two, matching how amounts are normalized at the API boundary.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal builds a Money from a decimal, normalizing to two fractional
// digits. Negative values are rejected.
func FromDecimal(d decimal.Decimal) (Money, error) {
	normalized := d.Round(scale)
	if normalized.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount cannot be negative", ErrInvalidAmount)
	}
	return Money{amount: normalized}, nil
}

// MustParse is Parse for trusted inputs such as test fixtures and seeds.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + other. The result is always representable since both
// operands are non-negative.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other, or ErrNegativeResult when the subtraction would drop
// below zero.
func (m Money) Sub(other Money) (Money, error) {
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, ErrNegativeResult
	}
	return Money{amount: result}, nil
}

// GreaterThanOrEqual reports whether m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

// Equal reports exact equality.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// IsZero reports whether m is 0.00.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether m is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Decimal exposes the underlying decimal for persistence.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// String renders the amount with exactly two fractional digits, so
// Parse(m.String()) always round-trips.
func (m Money) String() string {
	return m.amount.StringFixed(scale)
}

// MarshalJSON renders the amount as a two-decimal JSON string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both string and number forms.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
