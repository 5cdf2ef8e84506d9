// Package table implements a generic sortable, filterable, paginated grid
// that runs either fully in memory or with pagination owned by the caller.
//
// Sorting, column filters and global search are always applied locally.
// Only pagination switches ownership: in Automatic mode the engine slices
// the full list, in Manual mode it forwards page changes to the caller and
// shows the supplied rows as they are.
//
// An Engine is not safe for concurrent use.
package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrContract reports misuse of the pagination mode contract. It is a
// programmer error, not a runtime condition to recover from.
var ErrContract = errors.New("table: pagination contract violated")

// Pagination selects who owns paging. It is either Automatic or Manual.
type Pagination interface {
	pagination()
}

// Automatic pages the full in-memory list locally.
type Automatic struct{}

// Manual delegates paging to the caller, which must refetch on every
// OnPaginationChange and hand the new page back through SetPage.
//
// Total and PageCount describe the server-side result. Both zero means an
// empty result; one zero without the other is rejected.
type Manual struct {
	Total              int
	PageCount          int
	OnPaginationChange func(PageState)
}

func (Automatic) pagination() {}
func (Manual) pagination()    {}

// Config configures an Engine. State is optional and defaults to
// DefaultState(PageSize).
type Config[T any] struct {
	Columns    []Column[T]
	Pagination Pagination
	PageSize   int
	State      *State
}

type Engine[T any] struct {
	columns []Column[T]
	byID    map[string]int

	manual    bool
	total     int
	pageCount int
	onChange  func(PageState)

	state State
	data  []T
}

// New builds an engine over rows. In Manual mode rows is the current page
// and must not hold more than one page of records.
func New[T any](cfg Config[T], rows []T) (*Engine[T], error) {
	e := &Engine[T]{
		columns: cfg.Columns,
		byID:    make(map[string]int, len(cfg.Columns)),
	}
	for i, c := range cfg.Columns {
		if c.ID == "" {
			return nil, fmt.Errorf("table: column %d has no id", i)
		}
		if _, dup := e.byID[c.ID]; dup {
			return nil, fmt.Errorf("table: duplicate column id %q", c.ID)
		}
		e.byID[c.ID] = i
	}

	if cfg.State != nil {
		e.state = cfg.State.clone()
		if e.state.PageSize < 1 {
			e.state.PageSize = DefaultState(cfg.PageSize).PageSize
		}
	} else {
		e.state = DefaultState(cfg.PageSize)
	}

	switch p := cfg.Pagination.(type) {
	case Automatic:
		e.data = rows
	case Manual:
		if p.OnPaginationChange == nil {
			return nil, fmt.Errorf("%w: manual pagination requires OnPaginationChange", ErrContract)
		}
		e.manual = true
		e.onChange = p.OnPaginationChange
		if err := e.SetPage(rows, p.Total, p.PageCount); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: pagination mode is required", ErrContract)
	}
	return e, nil
}

// Manual reports whether pagination is owned by the caller.
func (e *Engine[T]) Manual() bool {
	return e.manual
}

// State returns a copy of the current view state.
func (e *Engine[T]) State() State {
	return e.state.clone()
}

// SetData replaces the full list in Automatic mode.
func (e *Engine[T]) SetData(rows []T) error {
	if e.manual {
		return fmt.Errorf("%w: SetData on a manual table, use SetPage", ErrContract)
	}
	e.data = rows
	return nil
}

// SetPage hands the engine a freshly fetched page in Manual mode. Passing
// more rows than the page size means the caller did not paginate, which
// would make the grid paginate twice.
func (e *Engine[T]) SetPage(rows []T, total, pageCount int) error {
	if !e.manual {
		return fmt.Errorf("%w: SetPage on an automatic table, use SetData", ErrContract)
	}
	if total < 0 || pageCount < 0 || (total == 0) != (pageCount == 0) {
		return fmt.Errorf("%w: manual pagination requires total and page count (got %d, %d)", ErrContract, total, pageCount)
	}
	if len(rows) > total {
		return fmt.Errorf("%w: %d rows supplied for a total of %d", ErrContract, len(rows), total)
	}
	if len(rows) > e.state.PageSize {
		return fmt.Errorf("%w: %d rows supplied for a page of %d", ErrContract, len(rows), e.state.PageSize)
	}
	e.data = rows
	e.total = total
	e.pageCount = pageCount
	return nil
}

// ToggleSort cycles a sortable column through asc, desc and none. Unknown
// or unsortable columns are ignored.
func (e *Engine[T]) ToggleSort(column string) {
	c, ok := e.column(column)
	if !ok || !c.sortable() {
		return
	}
	e.state = e.state.ToggleSort(column)
}

// SetSort sets the sort directly, as when restoring it from a query string.
func (e *Engine[T]) SetSort(column string, dir Direction) {
	if c, ok := e.column(column); column != "" && (!ok || !c.sortable()) {
		return
	}
	e.state = e.state.WithSort(column, dir)
}

// SetColumnFilter applies a column's own predicate. In Automatic mode the
// view returns to the first page.
func (e *Engine[T]) SetColumnFilter(column, value string) {
	c, ok := e.column(column)
	if !ok || c.Filter == nil {
		return
	}
	e.state = e.state.SetColumnFilter(column, value)
	if !e.manual {
		e.state = e.state.SetPageIndex(0)
	}
}

// SetSearch sets the global search string.
func (e *Engine[T]) SetSearch(q string) {
	e.state = e.state.SetSearch(q)
	if !e.manual {
		e.state = e.state.SetPageIndex(0)
	}
}

// SetPageIndex moves to a page, clamped to the available range.
func (e *Engine[T]) SetPageIndex(i int) {
	if last := e.PageCount() - 1; i > last {
		i = last
	}
	e.paginate(e.state.SetPageIndex(i))
}

// SetPageSize changes the page size and returns to page 0.
func (e *Engine[T]) SetPageSize(n int) {
	if n < 1 {
		return
	}
	e.paginate(e.state.SetPageSize(n))
}

func (e *Engine[T]) NextPage() {
	if e.CanNextPage() {
		e.SetPageIndex(e.state.PageIndex + 1)
	}
}

func (e *Engine[T]) PreviousPage() {
	if e.CanPreviousPage() {
		e.SetPageIndex(e.state.PageIndex - 1)
	}
}

func (e *Engine[T]) CanNextPage() bool {
	return e.state.PageIndex+1 < e.PageCount()
}

func (e *Engine[T]) CanPreviousPage() bool {
	return e.state.PageIndex > 0
}

// paginate applies a pagination change, forwarding it in Manual mode.
func (e *Engine[T]) paginate(next State) {
	changed := next.PageState != e.state.PageState
	e.state = next
	if e.manual && changed {
		e.onChange(next.PageState)
	}
}

// Rows returns the visible rows: filtered, sorted and, in Automatic mode,
// sliced to the current page. Supplied rows are never modified.
func (e *Engine[T]) Rows() []T {
	rows := e.sorted(e.filtered())
	if e.manual {
		return rows
	}
	start := e.state.PageIndex * e.state.PageSize
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+e.state.PageSize, len(rows))
	return rows[start:end]
}

// FilteredCount is the number of rows that pass search and column filters,
// over the full list in Automatic mode and over the page in Manual mode.
func (e *Engine[T]) FilteredCount() int {
	return len(e.filtered())
}

// Total is the record count pagination is computed against.
func (e *Engine[T]) Total() int {
	if e.manual {
		return e.total
	}
	return e.FilteredCount()
}

// PageCount comes from the caller in Manual mode.
func (e *Engine[T]) PageCount() int {
	if e.manual {
		return e.pageCount
	}
	n := e.FilteredCount()
	return (n + e.state.PageSize - 1) / e.state.PageSize
}

// Range returns the 1-based positions of the first and last visible row,
// or (0, 0) when there is nothing to show.
func (e *Engine[T]) Range() (start, end int) {
	total := e.Total()
	start = e.state.PageIndex*e.state.PageSize + 1
	end = min((e.state.PageIndex+1)*e.state.PageSize, total)
	if total == 0 || start > end {
		return 0, 0
	}
	return start, end
}

func (e *Engine[T]) column(id string) (Column[T], bool) {
	i, ok := e.byID[id]
	if !ok {
		return Column[T]{}, false
	}
	return e.columns[i], true
}

func (e *Engine[T]) filtered() []T {
	search := strings.ToLower(strings.TrimSpace(e.state.Search))
	out := make([]T, 0, len(e.data))
	for _, row := range e.data {
		if search != "" && !e.matchesSearch(row, search) {
			continue
		}
		if !e.matchesFilters(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// matchesSearch is an OR across every column with a textual form.
func (e *Engine[T]) matchesSearch(row T, search string) bool {
	for _, c := range e.columns {
		if c.Text == nil {
			continue
		}
		if strings.Contains(strings.ToLower(c.Text(row)), search) {
			return true
		}
	}
	return false
}

// matchesFilters is an AND across active column filters.
func (e *Engine[T]) matchesFilters(row T) bool {
	for id, value := range e.state.Filters {
		c, ok := e.column(id)
		if !ok || c.Filter == nil || value == "" {
			continue
		}
		if !c.Filter(row, value) {
			return false
		}
	}
	return true
}

func (e *Engine[T]) sorted(rows []T) []T {
	s := e.state.Sort
	c, ok := e.column(s.Column)
	if !ok || !c.sortable() || s.Direction == None {
		return rows
	}
	slices.SortStableFunc(rows, func(a, b T) int {
		if c.Missing != nil {
			ma, mb := c.Missing(a), c.Missing(b)
			switch {
			case ma && mb:
				return 0
			case ma:
				return 1
			case mb:
				return -1
			}
		}
		r := c.Compare(a, b)
		if s.Direction == Desc {
			r = -r
		}
		return r
	})
	return rows
}
