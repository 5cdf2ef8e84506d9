package table

import "testing"

func TestToggleSortCycle(t *testing.T) {
	s := State{Filters: map[string]string{}}
	want := []Sort{
		{Column: ColAmount, Direction: Asc},
		{Column: ColAmount, Direction: Desc},
		{},
		{Column: ColAmount, Direction: Asc},
	}
	for i, w := range want {
		s = s.ToggleSort(ColAmount)
		if s.Sort != w {
			t.Fatalf("step %d: expected %+v, got %+v", i, w, s.Sort)
		}
	}
}

func TestToggleSortOtherColumnStartsAscending(t *testing.T) {
	s := DefaultState(10)
	s = s.ToggleSort(ColDescription)
	if s.Sort != (Sort{Column: ColDescription, Direction: Asc}) {
		t.Fatalf("unexpected sort %+v", s.Sort)
	}
}

func TestDefaultState(t *testing.T) {
	s := DefaultState(0)
	if s.PageSize != DefaultPageSize || s.PageIndex != 0 {
		t.Fatalf("unexpected page state %+v", s.PageState)
	}
	if s.Sort != (Sort{Column: ColTimestamp, Direction: Desc}) {
		t.Fatalf("expected most recent first, got %+v", s.Sort)
	}
}

func TestStateMutationsDoNotAlias(t *testing.T) {
	s := DefaultState(10)
	next := s.SetColumnFilter(ColCategory, "mercado")
	if len(s.Filters) != 0 {
		t.Fatalf("original state was modified: %+v", s.Filters)
	}
	if next.Filters[ColCategory] != "mercado" {
		t.Fatalf("filter not set: %+v", next.Filters)
	}
	cleared := next.SetColumnFilter(ColCategory, "")
	if _, ok := cleared.Filters[ColCategory]; ok {
		t.Fatal("empty value should clear the filter")
	}
}

func TestSetPageSizeResetsIndex(t *testing.T) {
	s := DefaultState(10).SetPageIndex(4)
	s = s.SetPageSize(25)
	if s.PageIndex != 0 || s.PageSize != 25 {
		t.Fatalf("unexpected page state %+v", s.PageState)
	}

	same := s.SetPageSize(0)
	if same.PageState != s.PageState {
		t.Fatalf("size 0 should be ignored, got %+v", same.PageState)
	}
}

func TestSetPageIndexClampsNegative(t *testing.T) {
	s := DefaultState(10).SetPageIndex(-3)
	if s.PageIndex != 0 {
		t.Fatalf("expected 0, got %d", s.PageIndex)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"asc", Asc},
		{"desc", Desc},
		{"", None},
		{"sideways", None},
	}
	for _, tt := range tests {
		if got := ParseDirection(tt.in); got != tt.want {
			t.Fatalf("ParseDirection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
