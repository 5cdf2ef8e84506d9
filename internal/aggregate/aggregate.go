// Package aggregate derives the figures behind every chart, summary card and
// printable report from a reconciled record set and a FilterCriteria.
//
// The dashboard and the report both call Aggregate with the same filter
// shape, so their numbers cannot diverge.
package aggregate

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

const (
	DefaultWindowDays = 30
	DefaultTopN       = 5
)

// Options carries every parameter the computation depends on. Nothing is
// read from ambient state.
type Options struct {
	// Now anchors the trailing daily window. Defaults to time.Now().
	Now time.Time
	// WindowDays is the length of the daily series. Defaults to 30.
	WindowDays int
	// TopN bounds each category ranking. Defaults to 5.
	TopN int
	// Location decides which calendar day a timestamp belongs to.
	// Defaults to the location of Now.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.Location == nil {
		o.Location = o.Now.Location()
	}
	return o
}

// dated is a record whose timestamp is known to be valid.
type dated struct {
	tx core.Transaction
	at time.Time
}

// Aggregate computes totals, category rankings, the daily series, the
// credit/debit split and the balance carried from before filter.From.
//
// Records with unparseable timestamps are excluded from every sum and
// counted in SkippedCount. Missing or malformed amounts contribute zero.
func Aggregate(records []core.Transaction, filter core.FilterCriteria, opts Options) core.AggregateResult {
	opts = opts.withDefaults()

	all := make([]dated, 0, len(records))
	skipped := 0
	for _, t := range records {
		at, ok := t.Timestamp.In(opts.Location)
		if !ok {
			skipped++
			continue
		}
		all = append(all, dated{tx: t, at: at})
	}

	scoped := make([]dated, 0, len(all))
	for _, d := range all {
		if filter.InRange(d.at) {
			scoped = append(scoped, d)
		}
	}

	var credit, debit []dated
	for _, d := range scoped {
		if d.tx.EffectiveInstrument() == core.Credit {
			credit = append(credit, d)
		} else {
			debit = append(debit, d)
		}
	}

	result := core.AggregateResult{
		Breakdown:      breakdown(scoped, opts),
		Credit:         breakdown(credit, opts),
		Debit:          breakdown(debit, opts),
		CarriedBalance: carriedBalance(all, filter),
		ScopedCount:    len(scoped),
		SkippedCount:   skipped,
	}

	if prev, ok := previousPeriod(all, filter); ok {
		trend := result.Net.Sub(prev.Net)
		result.PreviousPeriod = &prev
		result.Trend = &trend
	}

	return result
}

// Totals sums income and expense over records regardless of their dates.
func Totals(records []core.Transaction) core.Totals {
	ds := make([]dated, len(records))
	for i, t := range records {
		ds[i] = dated{tx: t}
	}
	return totals(ds)
}

func totals(records []dated) core.Totals {
	income := decimal.Zero
	expense := decimal.Zero
	for _, d := range records {
		switch d.tx.Kind {
		case core.Income:
			income = income.Add(d.tx.Value())
		case core.Expense:
			expense = expense.Add(d.tx.Value())
		}
	}
	return core.Totals{Income: income, Expense: expense, Net: income.Sub(expense)}
}

func breakdown(records []dated, opts Options) core.Breakdown {
	return core.Breakdown{
		Totals:               totals(records),
		TopExpenseCategories: topCategories(records, core.Expense, opts.TopN),
		TopIncomeCategories:  topCategories(records, core.Income, opts.TopN),
		Daily:                dailySeries(records, opts),
	}
}

// topCategories ranks categories by sum, descending. Ties keep the order in
// which categories were first encountered.
func topCategories(records []dated, kind core.Kind, n int) []core.CategoryAmount {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, d := range records {
		if d.tx.Kind != kind {
			continue
		}
		name := d.tx.CategoryOrDefault()
		sum, seen := sums[name]
		if !seen {
			order = append(order, name)
			sum = decimal.Zero
		}
		sums[name] = sum.Add(d.tx.Value())
	}

	out := make([]core.CategoryAmount, 0, len(order))
	for _, name := range order {
		out = append(out, core.CategoryAmount{Name: name, Amount: sums[name]})
	}
	slices.SortStableFunc(out, func(a, b core.CategoryAmount) int {
		return b.Amount.Cmp(a.Amount)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// dailySeries returns exactly opts.WindowDays points, oldest first, ending
// on the calendar day of opts.Now. Days without activity are zero.
func dailySeries(records []dated, opts Options) []core.DailyPoint {
	loc := opts.Location
	now := opts.Now.In(loc)
	last := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := last.AddDate(0, 0, -(opts.WindowDays - 1))

	points := make([]core.DailyPoint, opts.WindowDays)
	index := make(map[string]int, opts.WindowDays)
	for i := range points {
		day := first.AddDate(0, 0, i)
		points[i] = core.DailyPoint{
			Date:    day,
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Net:     decimal.Zero,
		}
		index[day.Format(time.DateOnly)] = i
	}

	for _, d := range records {
		i, ok := index[d.at.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		p := &points[i]
		switch d.tx.Kind {
		case core.Income:
			p.Income = p.Income.Add(d.tx.Value())
		case core.Expense:
			p.Expense = p.Expense.Add(d.tx.Value())
		}
		p.Net = p.Income.Sub(p.Expense)
	}
	return points
}

// carriedBalance is the net of everything strictly before filter.From.
// An unbounded window has no "before", so the balance is zero.
func carriedBalance(records []dated, filter core.FilterCriteria) decimal.Decimal {
	if filter.From == nil {
		return decimal.Zero
	}
	var before []dated
	for _, d := range records {
		if d.at.Before(*filter.From) {
			before = append(before, d)
		}
	}
	return totals(before).Net
}

// previousPeriod totals the range of the same length that ends right before
// filter.From. Both bounds must be set.
func previousPeriod(records []dated, filter core.FilterCriteria) (core.Totals, bool) {
	if filter.From == nil || filter.To == nil || filter.To.Before(*filter.From) {
		return core.Totals{}, false
	}
	length := filter.To.Sub(*filter.From)
	end := filter.From.Add(-time.Nanosecond)
	start := end.Add(-length)

	var prev []dated
	for _, d := range records {
		if !d.at.Before(start) && !d.at.After(end) {
			prev = append(prev, d)
		}
	}
	return totals(prev), true
}
