package table

import "maps"

// Direction is the tri-state sort order of a column.
type Direction int

const (
	None Direction = iota
	Asc
	Desc
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return "none"
	}
}

// ParseDirection maps "asc"/"desc" to a Direction; anything else is None.
func ParseDirection(s string) Direction {
	switch s {
	case "asc":
		return Asc
	case "desc":
		return Desc
	}
	return None
}

// next cycles asc -> desc -> none -> asc.
func (d Direction) next() Direction {
	switch d {
	case Asc:
		return Desc
	case Desc:
		return None
	default:
		return Asc
	}
}

// Sort names the single active sort column. The zero value means unsorted.
type Sort struct {
	Column    string
	Direction Direction
}

// PageState is what gets forwarded to the caller in manual mode.
type PageState struct {
	PageIndex int
	PageSize  int
}

// State is the full view state. Every mutation below is a total function
// returning a new State; the receiver is never modified.
type State struct {
	Sort    Sort
	Filters map[string]string
	Search  string
	PageState
}

const (
	DefaultPageSize   = 10
	DefaultSortColumn = ColTimestamp
)

// DefaultState sorts most recent first and starts on page 0.
func DefaultState(pageSize int) State {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return State{
		Sort:      Sort{Column: DefaultSortColumn, Direction: Desc},
		Filters:   map[string]string{},
		PageState: PageState{PageIndex: 0, PageSize: pageSize},
	}
}

func (s State) clone() State {
	out := s
	out.Filters = make(map[string]string, len(s.Filters))
	maps.Copy(out.Filters, s.Filters)
	return out
}

// ToggleSort advances the column through asc, desc and none. Selecting a
// different column starts it at asc and clears the previous one.
func (s State) ToggleSort(column string) State {
	out := s.clone()
	dir := Asc
	if s.Sort.Column == column {
		dir = s.Sort.Direction.next()
	}
	if dir == None {
		out.Sort = Sort{}
	} else {
		out.Sort = Sort{Column: column, Direction: dir}
	}
	return out
}

// WithSort replaces the sort outright.
func (s State) WithSort(column string, dir Direction) State {
	out := s.clone()
	if column == "" || dir == None {
		out.Sort = Sort{}
	} else {
		out.Sort = Sort{Column: column, Direction: dir}
	}
	return out
}

// SetColumnFilter sets or, with an empty value, clears a column filter.
func (s State) SetColumnFilter(column, value string) State {
	out := s.clone()
	if value == "" {
		delete(out.Filters, column)
	} else {
		out.Filters[column] = value
	}
	return out
}

func (s State) SetSearch(q string) State {
	out := s.clone()
	out.Search = q
	return out
}

// SetPageIndex clamps negative indexes to 0.
func (s State) SetPageIndex(i int) State {
	out := s.clone()
	if i < 0 {
		i = 0
	}
	out.PageIndex = i
	return out
}

// SetPageSize resets the page index so the view cannot land past the end.
// Sizes below 1 leave the state unchanged.
func (s State) SetPageSize(n int) State {
	out := s.clone()
	if n < 1 {
		return out
	}
	out.PageSize = n
	out.PageIndex = 0
	return out
}
