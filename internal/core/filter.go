package core

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FilterCriteria is rebuilt on every user interaction and shared by the
// dashboard and the report so both compute the same numbers.
// All fields are optional; the zero value matches everything.
type FilterCriteria struct {
	From        *time.Time // inclusive
	To          *time.Time // inclusive
	Description string     // case-insensitive substring
	Category    string
	WalletIDs   []int64
	MinAmount   decimal.NullDecimal
	MaxAmount   decimal.NullDecimal
}

// DayRange returns inclusive bounds covering whole calendar days, from the
// start of from to the last instant of to. Zero dates leave the bound unset.
func DayRange(from, to time.Time) (*time.Time, *time.Time) {
	var f, t *time.Time
	if !from.IsZero() {
		start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		f = &start
	}
	if !to.IsZero() {
		end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).
			AddDate(0, 0, 1).Add(-time.Nanosecond)
		t = &end
	}
	return f, t
}

// InRange checks the date bounds only.
func (f FilterCriteria) InRange(t time.Time) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}

// Covers reports whether ts is valid and inside the date bounds. Zoneless
// timestamps are read in the location of the bounds.
func (f FilterCriteria) Covers(ts Timestamp) bool {
	at, ok := ts.In(f.Location())
	return ok && f.InRange(at)
}

// Location is the zone the date bounds were built in, UTC when unbounded.
func (f FilterCriteria) Location() *time.Location {
	switch {
	case f.From != nil:
		return f.From.Location()
	case f.To != nil:
		return f.To.Location()
	}
	return time.UTC
}

// Matches evaluates the non-date criteria. Stores apply it when answering
// queries; the aggregator only looks at the date bounds.
func (f FilterCriteria) Matches(t Transaction) bool {
	if f.Description != "" &&
		!strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Description)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.CategoryOrDefault(), f.Category) {
		return false
	}
	if len(f.WalletIDs) > 0 {
		if t.Wallet == nil || !slices.Contains(f.WalletIDs, t.Wallet.ID) {
			return false
		}
	}
	if f.MinAmount.Valid && t.Value().LessThan(f.MinAmount.Decimal) {
		return false
	}
	if f.MaxAmount.Valid && t.Value().GreaterThan(f.MaxAmount.Decimal) {
		return false
	}
	return true
}

// Bounded reports whether any date bound is set.
func (f FilterCriteria) Bounded() bool {
	return f.From != nil || f.To != nil
}
