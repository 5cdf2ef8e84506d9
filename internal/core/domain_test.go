package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		Owner:       "5511999990000",
		Description: "mercado",
		Amount:      Amount("42.10"),
		Category:    "alimentacao",
		Kind:        Expense,
		Instrument:  Debit,
		Timestamp:   ParseTimestamp("2025-03-01T10:00:00Z"),
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"2025-03-01T10:00:00Z", true},
		{"2025-03-01T10:00:00.123-03:00", true},
		{"2025-03-01T10:00:00", true},
		{"2025-03-01 10:00:00", true},
		{"2025-03-01", true},
		{"", false},
		{"   ", false},
		{"01/03/2025", false},
		{"Invalid Date", false},
		{"2025-13-01", false},
	}
	for _, tc := range cases {
		ts := ParseTimestamp(tc.raw)
		if ts.Valid() != tc.ok {
			t.Fatalf("%q: expected valid=%v", tc.raw, tc.ok)
		}
		if ts.Raw() != tc.raw {
			t.Fatalf("%q: raw text not preserved, got %q", tc.raw, ts.Raw())
		}
	}
}

func TestTimestampIn(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	cases := []struct {
		raw   string
		want  time.Time
		zoned bool
	}{
		{"2025-03-30", time.Date(2025, 3, 30, 0, 0, 0, 0, sp), false},
		{"2025-03-30T22:15:00", time.Date(2025, 3, 30, 22, 15, 0, 0, sp), false},
		{"2025-03-30 22:15:00", time.Date(2025, 3, 30, 22, 15, 0, 0, sp), false},
		{"2025-03-30T01:00:00Z", time.Date(2025, 3, 29, 22, 0, 0, 0, sp), true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			ts := ParseTimestamp(tc.raw)
			got, ok := ts.In(sp)
			if !ok || !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v (ok=%v)", tc.want, got, ok)
			}
			if got.In(sp).Day() != tc.want.Day() {
				t.Fatalf("calendar day moved: %v", got.In(sp))
			}
			if ts.Zoned() != tc.zoned {
				t.Fatalf("zoned=%v, want %v", ts.Zoned(), tc.zoned)
			}
		})
	}
	if _, ok := ParseTimestamp("ontem").In(sp); ok {
		t.Fatal("invalid timestamp must not resolve")
	}
}

func TestFilterCoversZonelessDates(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	day := time.Date(2025, 3, 30, 0, 0, 0, 0, sp)
	from, to := DayRange(day, day)
	f := FilterCriteria{From: from, To: to}

	cases := []struct {
		raw  string
		want bool
	}{
		{"2025-03-30", true},
		{"2025-03-30T23:59:59", true},
		{"2025-03-30 00:00:00", true},
		{"2025-03-29", false},
		{"2025-03-31", false},
		{"2025-03-30T01:00:00Z", false},
		{"2025-03-31T02:59:00Z", true},
		{"ontem", false},
	}
	for _, tc := range cases {
		if got := f.Covers(ParseTimestamp(tc.raw)); got != tc.want {
			t.Fatalf("%q: covers=%v, want %v", tc.raw, got, tc.want)
		}
	}
	if f.Location() != sp || (FilterCriteria{}).Location() != time.UTC {
		t.Fatal("unexpected filter location")
	}
}

func TestTimestampOf(t *testing.T) {
	if TimestampOf(time.Time{}).Valid() {
		t.Fatalf("zero time must be invalid")
	}
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ts := TimestampOf(now)
	got, ok := ts.Time()
	if !ok || !got.Equal(now) {
		t.Fatalf("expected %v, got %v (ok=%v)", now, got, ok)
	}
	if !ParseTimestamp(ts.Raw()).Valid() {
		t.Fatalf("raw form of TimestampOf must parse back")
	}
}

func TestTransactionValue(t *testing.T) {
	tx := validTransaction()
	if !tx.Value().Equal(decimal.RequireFromString("42.10")) {
		t.Fatalf("unexpected value %s", tx.Value())
	}
	tx.Amount = decimal.NullDecimal{}
	if !tx.Value().IsZero() {
		t.Fatalf("missing amount must count as zero")
	}
	tx.Amount = Amount("-5")
	if !tx.Value().IsZero() {
		t.Fatalf("negative amount must count as zero")
	}
}

func TestCategoryOrDefault(t *testing.T) {
	tx := validTransaction()
	tx.Category = "  "
	if tx.CategoryOrDefault() != DefaultCategory {
		t.Fatalf("expected default category, got %q", tx.CategoryOrDefault())
	}
}

func TestEffectiveInstrument(t *testing.T) {
	cases := []struct {
		name       string
		instrument Instrument
		wallet     *Wallet
		want       Instrument
	}{
		{"unspecified defaults to debit", "", nil, Debit},
		{"transaction credit", Credit, nil, Credit},
		{"wallet credit overrides debit", Debit, &Wallet{ID: 1, Kind: Credit}, Credit},
		{"wallet debit overrides credit", Credit, &Wallet{ID: 1, Kind: Debit}, Debit},
		{"wallet without kind falls back", Credit, &Wallet{ID: 1}, Credit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := Transaction{Instrument: tc.instrument, Wallet: tc.wallet}
			if got := tx.EffectiveInstrument(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := []struct {
		mutate func(*Transaction)
		want   error
	}{
		{func(tx *Transaction) { tx.Owner = "" }, ErrEmptyOwner},
		{func(tx *Transaction) { tx.Description = " " }, ErrEmptyDescription},
		{func(tx *Transaction) { tx.Description = strings.Repeat("a", MaxDescriptionLength+1) }, ErrDescriptionTooLong},
		{func(tx *Transaction) { tx.Amount = decimal.NullDecimal{} }, ErrInvalidAmount},
		{func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{func(tx *Transaction) { tx.Instrument = "pix" }, ErrInvalidInstrument},
		{func(tx *Transaction) { tx.Timestamp = ParseTimestamp("ontem") }, ErrInvalidTimestamp},
		{func(tx *Transaction) { tx.Kind = Income; tx.Instrument = Credit }, ErrCreditIncome},
		{func(tx *Transaction) { tx.Kind = Income; tx.Wallet = &Wallet{ID: 2, Kind: Credit} }, ErrCreditIncome},
	}
	for i, tc := range bad {
		tx := validTransaction()
		tc.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestParseKindAndInstrument(t *testing.T) {
	if k, err := ParseKind("Despesa"); err != nil || k != Expense {
		t.Fatalf("expected expense, got %q (%v)", k, err)
	}
	if _, err := ParseKind("transfer"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if i, err := ParseInstrument(""); err != nil || i != "" {
		t.Fatalf("blank instrument must be unspecified")
	}
	if i, err := ParseInstrument("crédito"); err != nil || i != Credit {
		t.Fatalf("expected credit, got %q (%v)", i, err)
	}
}

func TestFilterCriteria(t *testing.T) {
	from, to := DayRange(time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	f := FilterCriteria{From: from, To: to}

	if !f.InRange(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start of first day must be in range")
	}
	if !f.InRange(time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("end of last day must be in range")
	}
	if f.InRange(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("next day must be out of range")
	}

	tx := validTransaction()
	tx.Wallet = &Wallet{ID: 7, Name: "Nubank", Kind: Credit}
	cases := []struct {
		name   string
		filter FilterCriteria
		want   bool
	}{
		{"empty", FilterCriteria{}, true},
		{"description substring", FilterCriteria{Description: "MERC"}, true},
		{"description miss", FilterCriteria{Description: "uber"}, false},
		{"category", FilterCriteria{Category: "Alimentacao"}, true},
		{"wallet hit", FilterCriteria{WalletIDs: []int64{3, 7}}, true},
		{"wallet miss", FilterCriteria{WalletIDs: []int64{3}}, false},
		{"min", FilterCriteria{MinAmount: Amount("42.10")}, true},
		{"min miss", FilterCriteria{MinAmount: Amount("50")}, false},
		{"max miss", FilterCriteria{MaxAmount: Amount("10")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(tx); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
