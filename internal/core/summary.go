package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Totals are the flow sums of a record set. Net is always Income - Expense.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// DailyPoint is one calendar day of a densely populated series.
type DailyPoint struct {
	Date    time.Time       `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Breakdown groups everything a chart needs for one partition of records.
type Breakdown struct {
	Totals
	TopExpenseCategories []CategoryAmount `json:"top_expense_categories"`
	TopIncomeCategories  []CategoryAmount `json:"top_income_categories"`
	Daily                []DailyPoint     `json:"daily"`
}

// AggregateResult is derived on every call and never persisted.
type AggregateResult struct {
	Breakdown
	Credit         Breakdown       `json:"credit"`
	Debit          Breakdown       `json:"debit"`
	CarriedBalance decimal.Decimal `json:"carried_balance"`

	// PreviousPeriod covers the window of the same length right before the
	// filter range. Nil unless both filter bounds are set.
	PreviousPeriod *Totals          `json:"previous_period,omitempty"`
	Trend          *decimal.Decimal `json:"trend,omitempty"`

	ScopedCount  int `json:"scoped_count"`
	SkippedCount int `json:"skipped_count"`
}
