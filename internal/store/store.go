// Package store defines the ports for the remote transaction store and the
// query helpers shared by in-memory adapters.
package store

import (
	"context"
	"errors"
	"slices"

	"fluxo/internal/core"
)

// ErrReadOnly is returned by backends that cannot accept new records.
var ErrReadOnly = errors.New("store is read-only")

type (
	// Source reads transactions. Records may arrive with duplicates and
	// malformed fields; callers reconcile and aggregate them.
	Source interface {
		// ListPage returns one page of records matching filter, most recent
		// first. page is 1-based.
		ListPage(ctx context.Context, filter core.FilterCriteria, page, limit int) (Page, error)
		// ListAll returns every record matching filter.
		ListAll(ctx context.Context, filter core.FilterCriteria) ([]core.Transaction, error)
	}

	// Writer persists a validated transaction and returns it with its id.
	Writer interface {
		Append(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}
)

// Page is one server-side page.
type Page struct {
	Records []core.Transaction
	Total   int
	Page    int
	Limit   int
}

// PageCount is ceil(Total/Limit), or 0 when Limit is unset.
func (p Page) PageCount() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// Apply returns the records matching filter, most recent first. Records
// without a valid timestamp only pass when the filter has no date bounds
// and are placed last.
func Apply(records []core.Transaction, filter core.FilterCriteria) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	for _, t := range records {
		if !filter.Matches(t) {
			continue
		}
		if filter.Bounded() && !filter.Covers(t.Timestamp) {
			continue
		}
		out = append(out, t)
	}
	loc := filter.Location()
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		at, aok := a.Timestamp.In(loc)
		bt, bok := b.Timestamp.In(loc)
		switch {
		case aok && bok:
			return bt.Compare(at)
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
	return out
}

// Slice cuts the 1-based page out of records. Out-of-range pages are empty.
func Slice(records []core.Transaction, page, limit int) Page {
	if page < 1 {
		page = 1
	}
	p := Page{Records: []core.Transaction{}, Total: len(records), Page: page, Limit: limit}
	if limit <= 0 {
		return p
	}
	start := (page - 1) * limit
	if start >= len(records) {
		return p
	}
	end := min(start+limit, len(records))
	p.Records = slices.Clone(records[start:end])
	return p
}
