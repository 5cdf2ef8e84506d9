package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
	"fluxo/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db  *sql.DB
	loc *time.Location
}

type Option func(*SQLiteRepository)

// WithLocation sets the zone that timestamps written without an offset
// belong to. It must match the zone date filters are built in. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(r *SQLiteRepository) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db, loc: time.UTC}
	for _, opt := range opts {
		opt(repo)
	}
	if err := repo.backfillSearchKeys(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureWallet returns the wallet with the given name, creating it when
// missing. A non-empty kind overwrites the stored one.
func (r *SQLiteRepository) EnsureWallet(ctx context.Context, name string, kind core.Instrument) (core.Wallet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Wallet{}, fmt.Errorf("wallet name is required")
	}
	if kind != "" && !kind.Valid() {
		return core.Wallet{}, core.ErrInvalidInstrument
	}
	var w core.Wallet
	var k string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO wallets (name, kind) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET kind = CASE WHEN excluded.kind <> '' THEN excluded.kind ELSE wallets.kind END
		RETURNING id, name, kind
	`, name, string(kind)).Scan(&w.ID, &w.Name, &k)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("ensure wallet %s: %w", name, err)
	}
	w.Kind = core.Instrument(k)
	return w, nil
}

// Append implements store.Writer. A wallet given by name only is created on
// the fly.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.Wallet != nil && t.Wallet.ID == 0 {
		w, err := r.EnsureWallet(ctx, t.Wallet.Name, t.Wallet.Kind)
		if err != nil {
			return core.Transaction{}, err
		}
		t.Wallet = &w
	}
	id, err := r.insert(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = core.Int64(id)

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"owner", t.Owner,
		"kind", t.Kind,
		"amount", core.FormatAmount(t.Value()))

	return t, nil
}

// Import stores records as delivered, without validation. It is used to
// load exports from the upstream store, malformed rows included.
func (r *SQLiteRepository) Import(ctx context.Context, records []core.Transaction) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for _, t := range records {
		if _, err := r.insertWith(ctx, tx, t); err != nil {
			return n, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteRepository) insert(ctx context.Context, t core.Transaction) (int64, error) {
	return r.insertWith(ctx, r.db, t)
}

func (r *SQLiteRepository) insertWith(ctx context.Context, db execer, t core.Transaction) (int64, error) {
	var amount sql.NullString
	var cents sql.NullInt64
	if t.Amount.Valid {
		amount = sql.NullString{String: t.Amount.Decimal.String(), Valid: true}
		cents = sql.NullInt64{Int64: t.Amount.Decimal.Shift(2).Round(0).IntPart(), Valid: true}
	}
	var walletID sql.NullInt64
	if t.Wallet != nil && t.Wallet.ID != 0 {
		walletID = sql.NullInt64{Int64: t.Wallet.ID, Valid: true}
	}
	var occurred sql.NullInt64
	if at, ok := t.Timestamp.In(r.loc); ok {
		occurred = sql.NullInt64{Int64: at.UnixNano(), Valid: true}
	}

	descKey, catKey := searchKeys(t.Description, t.Category)

	var res sql.Result
	var err error
	if id, ok := t.IDValue(); ok {
		res, err = db.ExecContext(ctx, `
			INSERT INTO transactions (id, owner, description, description_key, amount, amount_cents, category, category_key, kind, instrument, wallet_id, occurred_at, occurred_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, t.Owner, t.Description, descKey, amount, cents, t.Category, catKey, string(t.Kind), string(t.Instrument), walletID, t.Timestamp.Raw(), occurred)
	} else {
		res, err = db.ExecContext(ctx, `
			INSERT INTO transactions (owner, description, description_key, amount, amount_cents, category, category_key, kind, instrument, wallet_id, occurred_at, occurred_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.Owner, t.Description, descKey, amount, cents, t.Category, catKey, string(t.Kind), string(t.Instrument), walletID, t.Timestamp.Raw(), occurred)
	}
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// searchKeys folds description and category the way FilterCriteria.Matches
// compares them.
func searchKeys(description, category string) (string, string) {
	t := core.Transaction{Category: category}
	return strings.ToLower(description), strings.ToLower(t.CategoryOrDefault())
}

// backfillSearchKeys fills the keys of rows written before they existed.
func (r *SQLiteRepository) backfillSearchKeys(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, description, category FROM transactions WHERE category_key = ''`)
	if err != nil {
		return fmt.Errorf("list rows without search keys: %w", err)
	}
	type pending struct {
		id          int64
		description string
		category    string
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.description, &p.category); err != nil {
			rows.Close()
			return fmt.Errorf("scan row without search keys: %w", err)
		}
		todo = append(todo, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range todo {
		d, c := searchKeys(p.description, p.category)
		if _, err := r.db.ExecContext(ctx,
			`UPDATE transactions SET description_key = ?, category_key = ? WHERE id = ?`, d, c, p.id); err != nil {
			return fmt.Errorf("backfill search keys: %w", err)
		}
	}
	if len(todo) > 0 {
		slog.InfoContext(ctx, "Backfilled transaction search keys", "rows", len(todo))
	}
	return nil
}

// ListPage implements store.Source. page is 1-based.
func (r *SQLiteRepository) ListPage(ctx context.Context, filter core.FilterCriteria, page, limit int) (store.Page, error) {
	if page < 1 {
		page = 1
	}
	where, args := whereClause(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions t"+where, args...).Scan(&total); err != nil {
		return store.Page{}, fmt.Errorf("count transactions: %w", err)
	}

	p := store.Page{Records: []core.Transaction{}, Total: total, Page: page, Limit: limit}
	if limit <= 0 {
		return p, nil
	}
	records, err := r.query(ctx, where, args, limit, (page-1)*limit)
	if err != nil {
		return store.Page{}, err
	}
	p.Records = records
	return p, nil
}

// ListAll implements store.Source.
func (r *SQLiteRepository) ListAll(ctx context.Context, filter core.FilterCriteria) ([]core.Transaction, error) {
	where, args := whereClause(filter)
	return r.query(ctx, where, args, 0, 0)
}

const selectTransactions = `
	SELECT t.id, t.owner, t.description, t.amount, t.category, t.kind, t.instrument,
	       w.id, w.name, w.kind, t.occurred_at
	FROM transactions t
	LEFT JOIN wallets w ON w.id = t.wallet_id`

// Most recent first; rows whose timestamp did not parse go last.
const orderTransactions = " ORDER BY t.occurred_ns IS NULL, t.occurred_ns DESC, t.id DESC"

// query lists matching transactions. A limit of 0 returns every row.
func (r *SQLiteRepository) query(ctx context.Context, where string, args []any, limit, offset int) ([]core.Transaction, error) {
	q := selectTransactions + where + orderTransactions
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var (
			t                    core.Transaction
			id                   int64
			amount               sql.NullString
			kind, instrument     string
			walletID             sql.NullInt64
			walletName, walletKd sql.NullString
			occurred             string
		)
		if err := rows.Scan(&id, &t.Owner, &t.Description, &amount, &t.Category, &kind, &instrument,
			&walletID, &walletName, &walletKd, &occurred); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.ID = core.Int64(id)
		if amount.Valid {
			if d, err := decimal.NewFromString(amount.String); err == nil {
				t.Amount = decimal.NullDecimal{Decimal: d, Valid: true}
			}
		}
		t.Kind = core.Kind(kind)
		t.Instrument = core.Instrument(instrument)
		if walletID.Valid {
			t.Wallet = &core.Wallet{ID: walletID.Int64, Name: walletName.String, Kind: core.Instrument(walletKd.String)}
		}
		t.Timestamp = core.ParseTimestamp(occurred)
		out = append(out, t)
	}
	return out, rows.Err()
}

// whereClause translates a FilterCriteria into SQL with the same semantics
// as FilterCriteria.Matches and InRange.
func whereClause(f core.FilterCriteria) (string, []any) {
	where := " WHERE 1=1"
	var args []any

	if f.From != nil {
		where += " AND t.occurred_ns >= ?"
		args = append(args, f.From.UnixNano())
	}
	if f.To != nil {
		where += " AND t.occurred_ns <= ?"
		args = append(args, f.To.UnixNano())
	}
	if d := strings.TrimSpace(f.Description); d != "" {
		where += " AND instr(t.description_key, ?) > 0"
		args = append(args, strings.ToLower(f.Description))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		where += " AND t.category_key = ?"
		args = append(args, strings.ToLower(c))
	}
	if len(f.WalletIDs) > 0 {
		where += " AND t.wallet_id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(f.WalletIDs)), ",") + ")"
		for _, id := range f.WalletIDs {
			args = append(args, id)
		}
	}
	if f.MinAmount.Valid {
		where += " AND COALESCE(t.amount_cents, 0) >= ?"
		args = append(args, f.MinAmount.Decimal.Shift(2).Ceil().IntPart())
	}
	if f.MaxAmount.Valid {
		where += " AND COALESCE(t.amount_cents, 0) <= ?"
		args = append(args, f.MaxAmount.Decimal.Shift(2).Floor().IntPart())
	}
	return where, args
}
