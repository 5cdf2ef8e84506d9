package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fluxo/internal/aggregate"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/reconcile"
	"fluxo/internal/store"
	"fluxo/internal/table"
)

// DashboardOptions are the knobs the dashboard reads from configuration.
type DashboardOptions struct {
	WindowDays     int
	TopN           int
	DefaultLimit   int
	FullFetchLimit int
	Location       *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// TableQuery is the grid part of a dashboard request. Page is 1-based.
type TableQuery struct {
	Page      int
	Limit     int
	Sort      string
	Direction table.Direction
	Search    string
	// Filters holds per-column filters keyed by column id.
	Filters map[string]string
}

// TableView is one rendered page of the transaction grid.
type TableView struct {
	Rows       []core.Transaction `json:"rows"`
	Total      int                `json:"total"`
	PageCount  int                `json:"page_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	RangeStart int                `json:"range_start"`
	RangeEnd   int                `json:"range_end"`
	Sort       string             `json:"sort,omitempty"`
	Direction  string             `json:"direction,omitempty"`
	Search     string             `json:"search,omitempty"`
}

// Dashboard is the payload behind the dashboard screen.
type Dashboard struct {
	Aggregate core.AggregateResult `json:"aggregate"`
	Table     TableView            `json:"table"`
}

// DashboardService combines the paginated window and the full pull of the
// transaction source into charts and a table page.
type DashboardService struct {
	source store.Source
	opts   DashboardOptions
	logger *log.Logger
}

func NewDashboardService(source store.Source, opts DashboardOptions, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.NewDefault()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = table.DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DashboardService{
		source: source,
		opts:   opts,
		logger: logger.WithComponent(log.ComponentDashboard),
	}
}

// Dashboard fetches the window page and the full set concurrently. The full
// pull ignores the date bounds so the carried balance and the previous
// period can see records outside the range.
func (s *DashboardService) Dashboard(ctx context.Context, filter core.FilterCriteria, q TableQuery) (Dashboard, error) {
	q = s.normalize(q)

	var (
		page store.Page
		full []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = s.source.ListPage(gctx, filter, q.Page, q.Limit)
		if err != nil {
			return fmt.Errorf("fetch window: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		full, err = s.source.ListAll(gctx, undated(filter))
		if err != nil {
			return fmt.Errorf("fetch all: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Dashboard fetch failed",
			log.FieldOperation, log.OpRead,
			log.FieldError, err)
		return Dashboard{}, err
	}

	view, err := s.tableView(ctx, page, q)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Aggregate: s.aggregate(ctx, full, filter),
		Table:     view,
	}, nil
}

// Transactions renders only the grid, fetching a single page.
func (s *DashboardService) Transactions(ctx context.Context, filter core.FilterCriteria, q TableQuery) (TableView, error) {
	q = s.normalize(q)
	page, err := s.source.ListPage(ctx, filter, q.Page, q.Limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Transaction page fetch failed",
			log.FieldOperation, log.OpList,
			log.FieldError, err)
		return TableView{}, fmt.Errorf("fetch window: %w", err)
	}
	return s.tableView(ctx, page, q)
}

func (s *DashboardService) normalize(q TableQuery) TableQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = s.opts.DefaultLimit
	}
	return q
}

func (s *DashboardService) aggregate(ctx context.Context, full []core.Transaction, filter core.FilterCriteria) core.AggregateResult {
	records := reconcile.Reconcile(full)
	s.logger.DebugContext(ctx, "Reconciled full fetch",
		log.NewFields().WithReconcile(len(full), len(records)).ToSlice()...)

	if limit := s.opts.FullFetchLimit; limit > 0 && len(records) > limit {
		s.logger.WarnContext(ctx, "Full fetch truncated",
			log.FieldRecords, len(records),
			"limit", limit)
		records = records[:limit]
	}

	eligible := reconcile.ChartEligible(records)
	result := aggregate.Aggregate(eligible, filter, aggregate.Options{
		Now:        s.opts.Now(),
		WindowDays: s.opts.WindowDays,
		TopN:       s.opts.TopN,
		Location:   s.opts.Location,
	})
	if skipped := len(records) - len(eligible); skipped > 0 {
		s.logger.WarnContext(ctx, "Records without a valid timestamp left out of charts",
			log.FieldOperation, log.OpAggregate,
			log.FieldSkipped, skipped)
	}
	return result
}

// tableView runs the reconciled page through a manual-mode engine so sort,
// search and column filters apply locally while paging stays with the source.
func (s *DashboardService) tableView(ctx context.Context, page store.Page, q TableQuery) (TableView, error) {
	rows := reconcile.Reconcile(page.Records)
	if dups := len(page.Records) - len(rows); dups > 0 {
		s.logger.InfoContext(ctx, "Dropped duplicate rows from page",
			log.NewFields().WithReconcile(len(page.Records), len(rows)).WithPage(q.Page, q.Limit).ToSlice()...)
	}

	state := table.DefaultState(q.Limit).SetPageIndex(q.Page - 1)
	if q.Sort != "" {
		state = state.WithSort(q.Sort, q.Direction)
	}
	state = state.SetSearch(q.Search)
	for col, v := range q.Filters {
		state = state.SetColumnFilter(col, v)
	}

	engine, err := table.New(table.Config[core.Transaction]{
		Columns: table.TransactionColumns(),
		Pagination: table.Manual{
			Total:     page.Total,
			PageCount: page.PageCount(),
			OnPaginationChange: func(ps table.PageState) {
				s.logger.DebugContext(ctx, "Page change requested",
					log.NewFields().WithPage(ps.PageIndex+1, ps.PageSize).ToSlice()...)
			},
		},
		State: &state,
	}, rows)
	if err != nil {
		s.logger.ErrorContext(ctx, "Table contract violated",
			log.FieldErrorType, log.ErrorTypeContract,
			log.FieldError, err)
		return TableView{}, err
	}

	start, end := engine.Range()
	st := engine.State()
	view := TableView{
		Rows:       engine.Rows(),
		Total:      engine.Total(),
		PageCount:  engine.PageCount(),
		Page:       st.PageIndex + 1,
		Limit:      st.PageSize,
		RangeStart: start,
		RangeEnd:   end,
		Search:     st.Search,
	}
	if st.Sort.Column != "" {
		view.Sort = st.Sort.Column
		view.Direction = st.Sort.Direction.String()
	}
	return view, nil
}

func undated(f core.FilterCriteria) core.FilterCriteria {
	f.From, f.To = nil, nil
	return f
}
