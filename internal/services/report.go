package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"fluxo/internal/aggregate"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/reconcile"
	"fluxo/internal/store"
)

// Report is a printable statement for a filter: every matching row plus the
// same aggregates the dashboard shows.
type Report struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	From         *time.Time           `json:"from,omitempty"`
	To           *time.Time           `json:"to,omitempty"`
	Aggregate    core.AggregateResult `json:"aggregate"`
	Transactions []core.Transaction   `json:"transactions"`
}

type ReportService struct {
	source store.Source
	opts   DashboardOptions
	logger *log.Logger
}

func NewReportService(source store.Source, opts DashboardOptions, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.NewDefault()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReportService{
		source: source,
		opts:   opts,
		logger: logger.WithComponent(log.ComponentReport),
	}
}

// Build pulls everything once and derives both the rows and the aggregate
// from it.
func (s *ReportService) Build(ctx context.Context, filter core.FilterCriteria) (Report, error) {
	raw, err := s.source.ListAll(ctx, undated(filter))
	if err != nil {
		s.logger.ErrorContext(ctx, "Report fetch failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		return Report{}, fmt.Errorf("fetch report records: %w", err)
	}
	records := reconcile.Reconcile(raw)
	if limit := s.opts.FullFetchLimit; limit > 0 && len(records) > limit {
		s.logger.WarnContext(ctx, "Report records truncated",
			log.FieldRecords, len(records),
			"limit", limit)
		records = records[:limit]
	}

	now := s.opts.Now()
	rep := Report{
		GeneratedAt:  now,
		From:         filter.From,
		To:           filter.To,
		Transactions: store.Apply(records, filter),
		Aggregate: aggregate.Aggregate(reconcile.ChartEligible(records), filter, aggregate.Options{
			Now:        now,
			WindowDays: s.opts.WindowDays,
			TopN:       s.opts.TopN,
			Location:   s.opts.Location,
		}),
	}

	s.logger.InfoContext(ctx, "Report built",
		log.NewFields().
			WithOperation(log.OpExport).
			WithReconcile(len(raw), len(records)).
			ToSlice()...)
	return rep, nil
}

var csvHeader = []string{"date", "description", "category", "kind", "instrument", "wallet", "amount"}

// WriteCSV writes one line per transaction followed by the totals.
func WriteCSV(w io.Writer, rep Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range rep.Transactions {
		wallet := ""
		if t.Wallet != nil {
			wallet = t.Wallet.Name
		}
		amount := ""
		if t.Amount.Valid {
			amount = core.FormatAmount(t.Amount.Decimal)
		}
		row := []string{
			t.Timestamp.String(),
			t.Description,
			t.CategoryOrDefault(),
			string(t.Kind),
			string(t.EffectiveInstrument()),
			wallet,
			amount,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	totals := rep.Aggregate.Totals
	for _, line := range [][]string{
		{"", "total income", "", "", "", "", core.FormatAmount(totals.Income)},
		{"", "total expense", "", "", "", "", core.FormatAmount(totals.Expense)},
		{"", "net", "", "", "", "", core.FormatAmount(totals.Net)},
		{"", "carried balance", "", "", "", "", core.FormatAmount(rep.Aggregate.CarriedBalance)},
	} {
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv totals: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
