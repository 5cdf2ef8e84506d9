package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTransactionJSONTolerant(t *testing.T) {
	in := `[
		{"id": 7, "owner": "5511", "description": "mercado", "amount": "120,50", "kind": "expense",
		 "wallet": {"id": 2, "name": "Nubank", "kind": "credit"}, "timestamp": "2025-03-01T10:00:00Z"},
		{"owner": "5511", "description": "pix", "amount": 35.9, "kind": "income", "timestamp": "2025-03-02"},
		{"owner": "5511", "description": "lixo", "amount": "abc", "kind": "expense", "timestamp": "ontem"},
		{"owner": "5511", "description": "vazio", "amount": null, "kind": "expense"}
	]`
	var got []Transaction
	if err := json.Unmarshal([]byte(in), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %d", len(got))
	}

	if id, ok := got[0].IDValue(); !ok || id != 7 {
		t.Fatalf("unexpected id: %v", got[0].ID)
	}
	if got[0].Value().String() != "120.5" || got[0].EffectiveInstrument() != Credit {
		t.Fatalf("unexpected first record: %+v", got[0])
	}
	if !got[1].Amount.Valid || got[1].Value().String() != "35.9" || !got[1].Timestamp.Valid() {
		t.Fatalf("numeric amount not accepted: %+v", got[1])
	}
	if got[2].Amount.Valid || got[2].Timestamp.Valid() || got[2].Timestamp.Raw() != "ontem" {
		t.Fatalf("malformed fields should stay invalid: %+v", got[2])
	}
	if got[3].Amount.Valid || got[3].Timestamp.Valid() {
		t.Fatalf("missing fields should be invalid: %+v", got[3])
	}
}

func TestTransactionJSONMarshal(t *testing.T) {
	tx := Transaction{
		Owner:       "5511",
		Description: "uber",
		Amount:      Amount("18.5"),
		Kind:        Expense,
		Timestamp:   ParseTimestamp("2025-03-03T10:00:00Z"),
	}
	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"amount":"18.50"`, `"timestamp":"2025-03-03T10:00:00Z"`, `"kind":"expense"`} {
		if !strings.Contains(s, want) {
			t.Fatalf("expected %s in %s", want, s)
		}
	}
	if strings.Contains(s, `"id"`) || strings.Contains(s, `"wallet"`) {
		t.Fatalf("optional fields should be omitted: %s", s)
	}

	tx.Amount.Valid = false
	b, _ = json.Marshal(tx)
	if !strings.Contains(string(b), `"amount":null`) {
		t.Fatalf("invalid amount should be null: %s", b)
	}
}
