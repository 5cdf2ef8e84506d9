package core

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

type walletJSON struct {
	ID   int64      `json:"id"`
	Name string     `json:"name"`
	Kind Instrument `json:"kind,omitempty"`
}

type transactionJSON struct {
	ID          *int64          `json:"id,omitempty"`
	Owner       string          `json:"owner"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Kind        Kind            `json:"kind"`
	Instrument  Instrument      `json:"instrument,omitempty"`
	Wallet      *walletJSON     `json:"wallet,omitempty"`
	Timestamp   Timestamp       `json:"timestamp"`
}

// MarshalJSON writes the amount as a fixed two-decimal string, or null when
// it is missing.
func (t Transaction) MarshalJSON() ([]byte, error) {
	w := transactionJSON{
		ID:          t.ID,
		Owner:       t.Owner,
		Description: t.Description,
		Amount:      json.RawMessage("null"),
		Category:    t.Category,
		Kind:        t.Kind,
		Instrument:  t.Instrument,
		Timestamp:   t.Timestamp,
	}
	if t.Amount.Valid {
		w.Amount = json.RawMessage(strconv.Quote(FormatAmount(t.Amount.Decimal)))
	}
	if t.Wallet != nil {
		w.Wallet = &walletJSON{ID: t.Wallet.ID, Name: t.Wallet.Name, Kind: t.Wallet.Kind}
	}
	return json.Marshal(w)
}

// UnmarshalJSON is tolerant: an amount or timestamp that does not parse is
// kept as an invalid value rather than failing the whole record.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Transaction{
		ID:          w.ID,
		Owner:       w.Owner,
		Description: w.Description,
		Amount:      amountFromJSON(w.Amount),
		Category:    w.Category,
		Kind:        w.Kind,
		Instrument:  w.Instrument,
		Timestamp:   w.Timestamp,
	}
	if w.Wallet != nil {
		t.Wallet = &Wallet{ID: w.Wallet.ID, Name: w.Wallet.Name, Kind: w.Wallet.Kind}
	}
	return nil
}

func amountFromJSON(raw json.RawMessage) decimal.NullDecimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.NullDecimal{}
		}
	}
	return ParseNullAmount(s)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(ts.raw)
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Numbers and other scalars are kept as raw text.
		*ts = ParseTimestamp(string(data))
		return nil
	}
	*ts = ParseTimestamp(s)
	return nil
}
