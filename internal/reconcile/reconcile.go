// Package reconcile merges overlapping pulls of the transaction feed into a
// duplicate-free working set.
//
// The paginated window and the full pull are fetched independently and
// overlap by construction, so duplicates are expected input, not errors.
package reconcile

import "fluxo/internal/core"

// compositeKey identifies records that have not been persisted yet.
// It lives in its own map so it can never collide with an id key.
type compositeKey struct {
	owner       string
	timestamp   string
	description string
	amount      string
}

func keyOf(t core.Transaction) compositeKey {
	amount := ""
	if t.Amount.Valid {
		amount = t.Amount.Decimal.String()
	}
	return compositeKey{
		owner:       t.Owner,
		timestamp:   t.Timestamp.Raw(),
		description: t.Description,
		amount:      amount,
	}
}

// Reconcile drops duplicates, keeping the first occurrence. Records with an
// id are keyed by id; the rest by (owner, timestamp, description, amount).
// Input order is preserved and the result is never nil.
func Reconcile(raw []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(raw))
	byID := make(map[int64]struct{}, len(raw))
	byComposite := make(map[compositeKey]struct{})

	for _, t := range raw {
		if id, ok := t.IDValue(); ok {
			if _, seen := byID[id]; seen {
				continue
			}
			byID[id] = struct{}{}
			out = append(out, t)
			continue
		}
		k := keyOf(t)
		if _, seen := byComposite[k]; seen {
			continue
		}
		byComposite[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Merge reconciles two pulls of the same feed. Records from window win over
// identical ones from full.
func Merge(window, full []core.Transaction) []core.Transaction {
	all := make([]core.Transaction, 0, len(window)+len(full))
	all = append(all, window...)
	all = append(all, full...)
	return Reconcile(all)
}

// ChartEligible keeps the records whose timestamp parses to a valid date.
// Only chart inputs go through it; table rows keep malformed records.
func ChartEligible(records []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	for _, t := range records {
		if t.Timestamp.Valid() {
			out = append(out, t)
		}
	}
	return out
}
