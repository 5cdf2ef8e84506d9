package table

import (
	"strings"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

// Column IDs of the transaction grid. They double as sort and filter keys
// in query strings.
const (
	ColTimestamp   = "timestamp"
	ColDescription = "description"
	ColCategory    = "category"
	ColKind        = "kind"
	ColInstrument  = "instrument"
	ColWallet      = "wallet"
	ColAmount      = "amount"
	ColOwner       = "owner"
)

// TransactionColumns is the column set of the transaction grid.
func TransactionColumns() []Column[core.Transaction] {
	timestamp := func(t core.Transaction) string { return t.Timestamp.String() }
	description := func(t core.Transaction) string { return t.Description }
	category := func(t core.Transaction) string { return t.CategoryOrDefault() }
	kind := func(t core.Transaction) string { return string(t.Kind) }
	instrument := func(t core.Transaction) string { return string(t.EffectiveInstrument()) }
	wallet := func(t core.Transaction) string {
		if t.Wallet == nil {
			return ""
		}
		return t.Wallet.Name
	}
	amount := func(t core.Transaction) string {
		if !t.Amount.Valid {
			return ""
		}
		return core.FormatAmount(t.Amount.Decimal)
	}
	owner := func(t core.Transaction) string { return t.Owner }

	return []Column[core.Transaction]{
		{
			ID:   ColTimestamp,
			Text: timestamp,
			Compare: func(a, b core.Transaction) int {
				at, _ := a.Timestamp.Time()
				bt, _ := b.Timestamp.Time()
				return at.Compare(bt)
			},
			Missing: func(t core.Transaction) bool { return !t.Timestamp.Valid() },
		},
		{
			ID:      ColDescription,
			Text:    description,
			Compare: byText(description),
			Filter:  Contains(description),
		},
		{
			ID:      ColCategory,
			Text:    category,
			Compare: byText(category),
			Filter:  Equals(category),
		},
		{
			ID:      ColKind,
			Text:    kind,
			Compare: byText(kind),
			Filter:  Equals(kind),
		},
		{
			ID:     ColInstrument,
			Text:   instrument,
			Filter: Equals(instrument),
		},
		{
			ID:      ColWallet,
			Text:    wallet,
			Compare: byText(wallet),
			Filter:  Contains(wallet),
		},
		{
			ID:   ColAmount,
			Text: amount,
			Compare: func(a, b core.Transaction) int {
				return a.Amount.Decimal.Cmp(b.Amount.Decimal)
			},
			Missing: func(t core.Transaction) bool { return !t.Amount.Valid },
			Filter:  AtLeast(func(t core.Transaction) decimal.Decimal { return t.Value() }),
		},
		{
			ID:      ColOwner,
			Text:    owner,
			Compare: byText(owner),
			Filter:  Equals(owner),
		},
	}
}

func byText[T any](text func(T) string) func(a, b T) int {
	return func(a, b T) int {
		return strings.Compare(strings.ToLower(text(a)), strings.ToLower(text(b)))
	}
}
