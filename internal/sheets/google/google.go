package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fluxo/internal/cache"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/store"
)

// Options configures a Client.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	// CacheTTL bounds how long a fetched range is reused. Zero disables
	// reuse across calls but still collapses concurrent reads.
	CacheTTL time.Duration
	Location *time.Location
}

// Client is a read-only transaction source over one Sheets tab.
type Client struct {
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	fetch         func(ctx context.Context, rng string) ([][]any, error)
	rows          *cache.LRUCache[[][]any]
	logger        *log.Logger
}

var _ store.Source = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.NewDefault()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	fetch := func(ctx context.Context, rng string) ([][]any, error) {
		resp, err := svc.Spreadsheets.Values.Get(opts.SpreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	}
	return newClient(opts, fetch, logger), nil
}

func newClient(opts Options, fetch func(context.Context, string) ([][]any, error), logger *log.Logger) *Client {
	name := strings.TrimSpace(opts.SheetName)
	if name == "" {
		name = "Transacoes"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := opts.CacheTTL
	if ttl < 0 {
		ttl = 0
	}
	return &Client{
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     name,
		loc:           loc,
		fetch:         fetch,
		rows:          cache.NewLRUCache[[][]any](4, ttl),
		logger:        logger,
	}
}

// newSheetsService builds a read-only Sheets service from inline JSON or a
// credentials file.
func newSheetsService(ctx context.Context, opts Options, logger *log.Logger) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		logger.InfoContext(ctx, "Reading service account credentials", "path", opts.CredentialsFile)
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Cache exposes the range cache so it can be registered for cleanup.
func (c *Client) Cache() *cache.LRUCache[[][]any] {
	return c.rows
}

// ListAll reads the whole tab and filters it locally; Sheets has no query
// language worth using for this.
func (c *Client) ListAll(ctx context.Context, filter core.FilterCriteria) ([]core.Transaction, error) {
	records, err := c.records(ctx)
	if err != nil {
		return nil, err
	}
	return store.Apply(records, filter), nil
}

func (c *Client) ListPage(ctx context.Context, filter core.FilterCriteria, page, limit int) (store.Page, error) {
	all, err := c.ListAll(ctx, filter)
	if err != nil {
		return store.Page{}, err
	}
	return store.Slice(all, page, limit), nil
}

// Invalidate drops the cached range so the next read refetches.
func (c *Client) Invalidate() {
	c.rows.Purge()
}

func (c *Client) records(ctx context.Context) ([]core.Transaction, error) {
	rng := fmt.Sprintf("%s!A:K", c.sheetName)
	values, err := c.rows.GetOrLoad(rng, func() ([][]any, error) {
		start := time.Now()
		v, err := c.fetch(ctx, rng)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rng, err)
		}
		c.logger.DebugContext(ctx, "Sheet range fetched", "range", rng, "rows", len(v), log.FieldDuration, time.Since(start).Milliseconds())
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	records, skipped := parseRows(values, c.loc)
	if skipped > 0 {
		c.logger.WarnContext(ctx, "Sheet rows without data skipped", "range", rng, log.FieldSkipped, skipped)
	}
	return records, nil
}
