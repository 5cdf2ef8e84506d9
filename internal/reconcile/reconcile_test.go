package reconcile

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"fluxo/internal/core"
)

func tx(id *int64, owner, ts, desc, amount string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Owner:       owner,
		Description: desc,
		Amount:      core.ParseNullAmount(amount),
		Kind:        core.Expense,
		Timestamp:   core.ParseTimestamp(ts),
	}
}

func TestReconcileEmpty(t *testing.T) {
	got := Reconcile(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestReconcileScenarioA(t *testing.T) {
	in := []core.Transaction{
		{ID: core.Int64(1), Amount: core.Amount("100"), Kind: core.Income, Timestamp: core.ParseTimestamp("2025-03-01T10:00:00Z")},
		{ID: core.Int64(1), Amount: core.Amount("100"), Kind: core.Income, Timestamp: core.ParseTimestamp("2025-03-01T10:00:00Z")},
	}
	got := Reconcile(in)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

func TestReconcileFirstSeenWins(t *testing.T) {
	in := []core.Transaction{
		tx(core.Int64(9), "a", "2025-03-01", "first", "10"),
		tx(core.Int64(9), "b", "2025-03-02", "second", "20"),
		tx(core.Int64(9), "c", "2025-03-03", "third", "30"),
	}
	got := Reconcile(in)
	if len(got) != 1 || got[0].Description != "first" {
		t.Fatalf("expected first instance to survive, got %+v", got)
	}
}

func TestReconcileCompositeKey(t *testing.T) {
	in := []core.Transaction{
		tx(nil, "5511", "2025-03-01T10:00:00Z", "uber", "15.5"),
		tx(nil, "5511", "2025-03-01T10:00:00Z", "uber", "15.50"),
		tx(nil, "5511", "2025-03-01T10:00:00Z", "uber", "16"),
		tx(nil, "5522", "2025-03-01T10:00:00Z", "uber", "15.5"),
		tx(nil, "5511", "bad date", "uber", "15.5"),
		tx(nil, "5511", "bad date", "uber", "15.5"),
	}
	got := Reconcile(in)
	if len(got) != 4 {
		t.Fatalf("expected 4 survivors, got %d: %+v", len(got), got)
	}
}

func TestReconcileKeySpacesNeverMerge(t *testing.T) {
	// Same content, one persisted and one not: both survive.
	in := []core.Transaction{
		tx(core.Int64(1), "5511", "2025-03-01", "cafe", "5"),
		tx(nil, "5511", "2025-03-01", "cafe", "5"),
		tx(core.Int64(2), "5511", "2025-03-01", "cafe", "5"),
	}
	got := Reconcile(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 survivors, got %d", len(got))
	}
}

func TestReconcileIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		var in []core.Transaction
		for i := 0; i < 40; i++ {
			var id *int64
			if r.Intn(2) == 0 {
				id = core.Int64(int64(r.Intn(10)))
			}
			in = append(in, tx(id, fmt.Sprint(r.Intn(3)), fmt.Sprintf("2025-03-%02d", 1+r.Intn(3)), "d", fmt.Sprint(1+r.Intn(3))))
		}
		once := Reconcile(in)
		twice := Reconcile(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("round %d: reconcile is not idempotent", round)
		}
	}
}

func TestMerge(t *testing.T) {
	window := []core.Transaction{
		tx(core.Int64(1), "a", "2025-03-01", "window copy", "10"),
	}
	full := []core.Transaction{
		tx(core.Int64(1), "a", "2025-03-01", "full copy", "10"),
		tx(core.Int64(2), "a", "2025-03-02", "only in full", "20"),
	}
	got := Merge(window, full)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Description != "window copy" {
		t.Fatalf("window record must win, got %q", got[0].Description)
	}
}

func TestChartEligible(t *testing.T) {
	in := []core.Transaction{
		tx(core.Int64(1), "a", "2025-03-01", "ok", "10"),
		tx(core.Int64(2), "a", "", "missing", "10"),
		tx(core.Int64(3), "a", "Invalid Date", "malformed", "10"),
	}
	got := ChartEligible(in)
	if len(got) != 1 || got[0].Description != "ok" {
		t.Fatalf("expected only the valid record, got %+v", got)
	}
	if len(in) != 3 {
		t.Fatalf("input must not be modified")
	}
}
