package amqp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

// ErrInvalidMessage marks deliveries that can never succeed. They are
// rejected without requeue.
var ErrInvalidMessage = errors.New("invalid transaction message")

// TransactionMessage is what the chat gateway publishes for every money
// movement a user reports.
type TransactionMessage struct {
	MessageID   string     `json:"message_id"`
	Owner       string     `json:"owner"`
	Description string     `json:"description"`
	Amount      flexString `json:"amount"`
	Category    string     `json:"category,omitempty"`
	Kind        string     `json:"kind"`
	Instrument  string     `json:"instrument,omitempty"`
	Wallet      string     `json:"wallet,omitempty"`
	WalletKind  string     `json:"wallet_kind,omitempty"`
	// Timestamp is when the movement happened; empty means SentAt.
	Timestamp string    `json:"timestamp,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// flexString accepts both "12,50" and 12.5.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// NewTransactionMessage builds a message for t with a fresh message id.
func NewTransactionMessage(t core.Transaction) *TransactionMessage {
	m := &TransactionMessage{
		MessageID:   uuid.NewString(),
		Owner:       t.Owner,
		Description: t.Description,
		Category:    t.Category,
		Kind:        string(t.Kind),
		Instrument:  string(t.Instrument),
		Timestamp:   t.Timestamp.Raw(),
		SentAt:      time.Now().UTC(),
	}
	if t.Amount.Valid {
		m.Amount = flexString(t.Amount.Decimal.String())
	}
	if t.Wallet != nil {
		m.Wallet = t.Wallet.Name
		m.WalletKind = string(t.Wallet.Kind)
	}
	return m
}

// ToJSON converts the message to JSON bytes
func (m *TransactionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionMessageFromJSON decodes a delivery body. Undecodable bodies
// wrap ErrInvalidMessage.
func TransactionMessageFromJSON(data []byte) (*TransactionMessage, error) {
	var msg TransactionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &msg, nil
}

// ToTransaction converts the message strictly. Unlike stored records, a
// chat entry with an unparseable amount or kind is rejected outright.
func (m *TransactionMessage) ToTransaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(string(m.Amount))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: amount %q: %v", ErrInvalidMessage, m.Amount, err)
	}
	kind, err := core.ParseKind(m.Kind)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	instrument, err := core.ParseInstrument(m.Instrument)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	ts := core.ParseTimestamp(m.Timestamp)
	if strings.TrimSpace(m.Timestamp) == "" && !m.SentAt.IsZero() {
		ts = core.TimestampOf(m.SentAt)
	}

	t := core.Transaction{
		Owner:       strings.TrimSpace(m.Owner),
		Description: strings.TrimSpace(m.Description),
		Amount:      decimal.NullDecimal{Decimal: amount, Valid: true},
		Category:    strings.TrimSpace(m.Category),
		Kind:        kind,
		Instrument:  instrument,
		Timestamp:   ts,
	}
	if name := strings.TrimSpace(m.Wallet); name != "" {
		kind, err := core.ParseInstrument(m.WalletKind)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("%w: wallet: %v", ErrInvalidMessage, err)
		}
		t.Wallet = &core.Wallet{Name: name, Kind: kind}
	}
	return t, nil
}
