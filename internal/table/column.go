package table

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FilterFunc decides whether a row passes a column filter with the given
// user-entered value.
type FilterFunc[T any] func(row T, value string) bool

// Column describes one grid column. Only ID is required.
type Column[T any] struct {
	ID string

	// Text is the cell's textual form; global search matches against it.
	Text func(T) string

	// Compare orders two rows ascending. Nil makes the column unsortable.
	Compare func(a, b T) int

	// Missing marks rows without a value; they sort last in both directions.
	Missing func(T) bool

	// Filter is the column's own predicate. Nil makes it unfilterable.
	Filter FilterFunc[T]
}

func (c Column[T]) sortable() bool {
	return c.Compare != nil
}

// Contains matches a case-insensitive substring.
func Contains[T any](text func(T) string) FilterFunc[T] {
	return func(row T, value string) bool {
		return strings.Contains(strings.ToLower(text(row)), strings.ToLower(strings.TrimSpace(value)))
	}
}

// Equals matches a categorical value, ignoring case.
func Equals[T any](value func(T) string) FilterFunc[T] {
	return func(row T, v string) bool {
		return strings.EqualFold(value(row), strings.TrimSpace(v))
	}
}

// AtLeast keeps rows whose number is >= the filter value. A filter value
// that does not parse as a number filters nothing.
func AtLeast[T any](num func(T) decimal.Decimal) FilterFunc[T] {
	return func(row T, v string) bool {
		floor, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(v), ",", ".", 1))
		if err != nil {
			return true
		}
		return num(row).GreaterThanOrEqual(floor)
	}
}
