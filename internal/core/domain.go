package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	Credit Instrument = "credit"
	Debit  Instrument = "debit"

	// DefaultCategory is used when a record carries no category.
	DefaultCategory = "outros"

	MaxDescriptionLength = 200
)

type (
	// Kind tells whether money came in or went out.
	Kind string

	// Instrument is the payment method. The zero value means unspecified.
	Instrument string

	Wallet struct {
		ID   int64
		Name string
		Kind Instrument
	}

	// Transaction is one financial movement as delivered by the transaction
	// store. Upstream data is not fully trusted: ID, Wallet, Instrument,
	// Amount and Timestamp may all be missing.
	Transaction struct {
		ID          *int64
		Owner       string
		Description string
		Amount      decimal.NullDecimal
		Category    string
		Kind        Kind
		Instrument  Instrument
		Wallet      *Wallet
		Timestamp   Timestamp
	}
)

var (
	ErrInvalidKind        = errors.New("invalid kind")
	ErrInvalidInstrument  = errors.New("invalid instrument")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyOwner         = errors.New("empty owner")
	ErrCreditIncome       = errors.New("income cannot be paid with credit")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (i Instrument) Valid() bool {
	return i == Credit || i == Debit
}

// ParseKind accepts the canonical names plus the Portuguese labels used by
// the chat channel.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "entrada", "receita":
		return Income, nil
	case "expense", "saida", "saída", "despesa", "gasto":
		return Expense, nil
	}
	return "", ErrInvalidKind
}

// ParseInstrument returns the zero Instrument for blank input.
func ParseInstrument(s string) (Instrument, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "credit", "credito", "crédito":
		return Credit, nil
	case "debit", "debito", "débito":
		return Debit, nil
	}
	return "", ErrInvalidInstrument
}

// IDValue returns the persisted id, if any.
func (t Transaction) IDValue() (int64, bool) {
	if t.ID == nil {
		return 0, false
	}
	return *t.ID, true
}

// Value is the amount used by every sum. Missing, malformed and
// non-positive amounts count as zero.
func (t Transaction) Value() decimal.Decimal {
	if !t.Amount.Valid || !t.Amount.Decimal.IsPositive() {
		return decimal.Zero
	}
	return t.Amount.Decimal
}

func (t Transaction) CategoryOrDefault() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return DefaultCategory
}

// EffectiveInstrument resolves the credit/debit partition of a record: the
// wallet kind wins over the per-transaction flag, and anything unspecified
// is debit.
func (t Transaction) EffectiveInstrument() Instrument {
	if t.Wallet != nil && t.Wallet.Kind.Valid() {
		return t.Wallet.Kind
	}
	if t.Instrument == Credit {
		return Credit
	}
	return Debit
}

// Validate applies the entry-time rules. Stored records are never
// re-validated; aggregation tolerates whatever the store returns.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !t.Amount.Valid || !t.Amount.Decimal.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Instrument != "" && !t.Instrument.Valid() {
		return ErrInvalidInstrument
	}
	if t.Wallet != nil && t.Wallet.Kind != "" && !t.Wallet.Kind.Valid() {
		return ErrInvalidInstrument
	}
	if !t.Timestamp.Valid() {
		return ErrInvalidTimestamp
	}
	if t.Kind == Income && t.EffectiveInstrument() == Credit {
		return ErrCreditIncome
	}
	return nil
}

// Int64 is a small helper for building optional ids.
func Int64(v int64) *int64 {
	return &v
}

// Timestamp keeps the upstream text next to its parsed form so malformed
// values survive for display while aggregation can skip them.
//
// Values written without a zone are wall-clock readings. They have no
// instant of their own until placed in a location with In.
type Timestamp struct {
	raw      string
	parsed   time.Time
	ok       bool
	floating bool
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

var floatingLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp never fails; an unparseable or blank value yields an
// invalid Timestamp that still remembers its raw text.
func ParseTimestamp(raw string) Timestamp {
	ts := Timestamp{raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return ts
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.parsed, ts.ok = t, true
			return ts
		}
	}
	for _, layout := range floatingLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.parsed, ts.ok, ts.floating = t, true, true
			return ts
		}
	}
	return ts
}

// TimestampOf wraps an already-parsed time. The zero time is invalid.
func TimestampOf(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{raw: t.Format(time.RFC3339Nano), parsed: t, ok: true}
}

func (ts Timestamp) Valid() bool {
	return ts.ok
}

// Time returns the parsed time and whether it is valid. A zoneless value is
// read as UTC; use In when the calendar day matters.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.parsed, ts.ok
}

// In returns the instant in loc. A zoneless value keeps its wall clock, so
// "2025-03-30" is midnight of the 30th in loc.
func (ts Timestamp) In(loc *time.Location) (time.Time, bool) {
	if !ts.ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if ts.floating {
		p := ts.parsed
		return time.Date(p.Year(), p.Month(), p.Day(), p.Hour(), p.Minute(), p.Second(), p.Nanosecond(), loc), true
	}
	return ts.parsed.In(loc), true
}

// Zoned reports whether the raw text carried its own offset.
func (ts Timestamp) Zoned() bool {
	return ts.ok && !ts.floating
}

// Raw is the text the timestamp was built from.
func (ts Timestamp) Raw() string {
	return ts.raw
}

func (ts Timestamp) String() string {
	return ts.raw
}

// Before reports whether both timestamps are valid and ts precedes other.
func (ts Timestamp) Before(other Timestamp) bool {
	return ts.ok && other.ok && ts.parsed.Before(other.parsed)
}
