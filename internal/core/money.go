// Package core provides money parsing and handling utilities.
//
// Amounts are currency-agnostic decimals. Upstream sources send them as
// "12.34", "12,34" or "1.234,56"; everything here normalises to a
// decimal.Decimal without going through float64.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user or upstream string to a positive decimal.
//
// Both dot and comma decimal separators are accepted. When both appear, the
// last one is the decimal separator and the other is treated as grouping.
// Returns ErrInvalidAmount for blank, malformed, zero or negative input.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34
//	ParseAmount("12,34")    -> 12.34
//	ParseAmount("1.234,56") -> 1234.56
//	ParseAmount("1,234.56") -> 1234.56
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return decimal.Zero, ErrInvalidAmount
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseNullAmount is the lenient form used when reading stored records:
// malformed input becomes an invalid NullDecimal instead of an error.
func ParseNullAmount(s string) decimal.NullDecimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Amount builds a valid NullDecimal from a string literal. It panics on bad
// input and is meant for fixtures and constants.
func Amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

// FormatAmount renders a decimal with two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
