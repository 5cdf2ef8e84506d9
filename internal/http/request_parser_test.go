package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/table"
)

func TestParseFilter(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	q, _ := url.ParseQuery("from=2025-03-01&to=2025-03-31&q=%20mercado%20&category=casa&wallet=1,2&min=10,5&max=1.000")
	f, err := ParseFilter(q, sp)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.From == nil || !f.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, sp)) {
		t.Fatalf("from = %v", f.From)
	}
	if f.To == nil || f.To.Day() != 31 || f.To.Hour() != 23 {
		t.Fatalf("to = %v", f.To)
	}
	if f.Description != "mercado" || f.Category != "casa" || len(f.WalletIDs) != 2 {
		t.Fatalf("unexpected filter %+v", f)
	}
	if f.MinAmount.Decimal.String() != "10.5" || f.MaxAmount.Decimal.String() != "1" {
		t.Fatalf("amounts %s %s", f.MinAmount.Decimal, f.MaxAmount.Decimal)
	}
}

func TestParseFilterScopesZonelessDates(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	q, _ := url.ParseQuery("from=2025-03-30&to=2025-03-30")
	f, err := ParseFilter(q, sp)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tests := []struct {
		raw  string
		want bool
	}{
		{"2025-03-30", true},
		{"2025-03-30T23:59:00", true},
		{"2025-03-29 23:59:59", false},
		{"2025-03-31", false},
	}
	for _, tt := range tests {
		if got := f.Covers(core.ParseTimestamp(tt.raw)); got != tt.want {
			t.Fatalf("%s: covers=%v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseFilterErrors(t *testing.T) {
	for _, raw := range []string{"from=03/01/2025", "to=x", "wallet=1,b", "max=abc", "from=2025-03-02&to=2025-03-01"} {
		q, _ := url.ParseQuery(raw)
		if _, err := ParseFilter(q, time.UTC); !errors.Is(err, errBadQuery) {
			t.Fatalf("%s: expected errBadQuery, got %v", raw, err)
		}
	}
}

func TestParseTableQuery(t *testing.T) {
	tests := []struct {
		raw   string
		page  int
		limit int
		sort  string
		dir   table.Direction
	}{
		{"", 1, 0, "", table.None},
		{"page=3&limit=500", 3, maxPageLimit, "", table.None},
		{"page=x&limit=-1", 1, 0, "", table.None},
		{"sort=amount", 1, 0, "amount", table.Asc},
		{"sort=-amount", 1, 0, "amount", table.Desc},
		{"sort=amount&dir=desc", 1, 0, "amount", table.Desc},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.raw)
			got := ParseTableQuery(q)
			if got.Page != tt.page || got.Limit != tt.limit || got.Sort != tt.sort || got.Direction != tt.dir {
				t.Fatalf("got %+v", got)
			}
		})
	}

	q, _ := url.ParseQuery("f.kind=income&f.=x&search=uber")
	got := ParseTableQuery(q)
	if len(got.Filters) != 1 || got.Filters["kind"] != "income" || got.Search != "uber" {
		t.Fatalf("filters %+v", got)
	}
}

func TestDecodeTransaction(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":99,"owner":" 5511 ","description":"feira\u0007","amount":"23,90","kind":"expense"}`))
	tx, err := DecodeTransaction(req, now)
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if tx.ID != nil || tx.Owner != "5511" || tx.Description != "feira" || tx.Value().String() != "23.9" {
		t.Fatalf("unexpected %+v", tx)
	}
	if at, ok := tx.Timestamp.Time(); !ok || !at.Equal(now) {
		t.Fatalf("timestamp should default to now, got %v", tx.Timestamp)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("owner=5511&description=bar&amount=15&kind=Expense&wallet=Inter&timestamp=2025-03-09"))
	tx, err = DecodeTransaction(req, now)
	if err != nil {
		t.Fatalf("decode form: %v", err)
	}
	if tx.Kind != core.Expense || tx.Wallet == nil || tx.Wallet.Name != "Inter" || tx.Timestamp.Raw() != "2025-03-09" {
		t.Fatalf("unexpected %+v", tx)
	}
}
