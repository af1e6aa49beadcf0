// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimal.Decimal so totals never accumulate
// floating-point error.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest accepted amount. It keeps every value within the
// 15 significant digits any backend can represent exactly.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ParseAmount converts a user-entered decimal string into a currency amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimal places. Signs, zero, amounts above MaxAmount and
// malformed input are rejected with a ValidationError.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	invalid := &ValidationError{Field: "amount", Err: ErrInvalidAmount}

	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, invalid
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, invalid
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, invalid
	}
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero, &ValidationError{Field: "amount", Err: ErrAmountTooLarge}
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
