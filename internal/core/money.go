// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Conversions from user input and from
// the decimal numbers of the document-file format go through
// shopspring/decimal so no binary floating point rounding leaks in.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in cents.
type Money struct {
	Cents int64
}

// Validate enforces amount >= 0. Zero is a valid (no-op) amount.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to the cent. Negative values are rejected; zero is accepted.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,345") -> 1235
//	ParseAmount("0")      -> 0
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidInput
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidInput
	}
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return FromDecimal(d)
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// FromDecimal rounds d half-up to the cent. Amounts that do not fit in int64
// cents are rejected.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return Money{}, fmt.Errorf("%w: amount %s out of range", ErrInvalidInput, d.String())
	}
	return Money{Cents: cents.IntPart()}, nil
}

// FromFloat converts a JSON number, rounding to the cent.
func FromFloat(f float64) (Money, error) {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two decimals, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}
