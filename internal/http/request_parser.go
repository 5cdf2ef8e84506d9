package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/services"
	"fluxo/internal/table"
)

const (
	dateLayout   = "2006-01-02"
	maxPageLimit = 100
	maxBodyBytes = 64 << 10
	// filterPrefix marks per-column table filters, e.g. f.kind=income.
	filterPrefix = "f."
)

var errBadQuery = errors.New("invalid query")

// ParseFilter builds the FilterCriteria shared by dashboard, table and
// report requests. Dates are whole days in loc.
func ParseFilter(q url.Values, loc *time.Location) (core.FilterCriteria, error) {
	if loc == nil {
		loc = time.Local
	}
	var f core.FilterCriteria

	from, err := parseDay(q.Get("from"), loc)
	if err != nil {
		return f, fmt.Errorf("%w: from: %v", errBadQuery, err)
	}
	to, err := parseDay(q.Get("to"), loc)
	if err != nil {
		return f, fmt.Errorf("%w: to: %v", errBadQuery, err)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return f, fmt.Errorf("%w: to is before from", errBadQuery)
	}
	f.From, f.To = core.DayRange(from, to)

	f.Description = sanitizeInput(q.Get("q"))
	f.Category = sanitizeInput(q.Get("category"))

	if v := strings.TrimSpace(q.Get("wallet")); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return f, fmt.Errorf("%w: wallet %q", errBadQuery, part)
			}
			f.WalletIDs = append(f.WalletIDs, id)
		}
	}

	if v := strings.TrimSpace(q.Get("min")); v != "" {
		d, err := core.ParseAmount(v)
		if err != nil {
			return f, fmt.Errorf("%w: min: %v", errBadQuery, err)
		}
		f.MinAmount.Decimal, f.MinAmount.Valid = d, true
	}
	if v := strings.TrimSpace(q.Get("max")); v != "" {
		d, err := core.ParseAmount(v)
		if err != nil {
			return f, fmt.Errorf("%w: max: %v", errBadQuery, err)
		}
		f.MaxAmount.Decimal, f.MaxAmount.Valid = d, true
	}
	return f, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, s, loc)
}

// ParseTableQuery reads paging, sorting, search and column filters. Bad
// numbers fall back to defaults rather than failing the request.
func ParseTableQuery(q url.Values) services.TableQuery {
	tq := services.TableQuery{
		Page:   atoiOr(q.Get("page"), 1),
		Limit:  atoiOr(q.Get("limit"), 0),
		Search: sanitizeInput(q.Get("search")),
	}
	if tq.Limit > maxPageLimit {
		tq.Limit = maxPageLimit
	}

	if sort := strings.TrimSpace(q.Get("sort")); sort != "" {
		tq.Sort = strings.TrimPrefix(sort, "-")
		switch {
		case q.Has("dir"):
			tq.Direction = table.ParseDirection(strings.ToLower(q.Get("dir")))
		case strings.HasPrefix(sort, "-"):
			tq.Direction = table.Desc
		default:
			tq.Direction = table.Asc
		}
	}

	for key, vals := range q {
		col, ok := strings.CutPrefix(key, filterPrefix)
		if !ok || col == "" || len(vals) == 0 {
			continue
		}
		if tq.Filters == nil {
			tq.Filters = map[string]string{}
		}
		tq.Filters[col] = sanitizeInput(vals[0])
	}
	return tq
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// DecodeTransaction reads a manual entry from a JSON or form-encoded body.
// A missing timestamp means now.
func DecodeTransaction(r *http.Request, now time.Time) (core.Transaction, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read body: %w", err)
	}
	trimmed := strings.TrimSpace(string(body))

	var t core.Transaction
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(body, &t); err != nil {
			return core.Transaction{}, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		t.ID = nil
	} else {
		form, err := url.ParseQuery(trimmed)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		t = core.Transaction{
			Owner:       form.Get("owner"),
			Description: form.Get("description"),
			Amount:      core.ParseNullAmount(form.Get("amount")),
			Category:    form.Get("category"),
			Kind:        core.Kind(strings.ToLower(strings.TrimSpace(form.Get("kind")))),
			Instrument:  core.Instrument(strings.ToLower(strings.TrimSpace(form.Get("instrument")))),
			Timestamp:   core.ParseTimestamp(form.Get("timestamp")),
		}
		if name := sanitizeInput(form.Get("wallet")); name != "" {
			t.Wallet = &core.Wallet{Name: name}
		}
	}

	t.Owner = sanitizeInput(t.Owner)
	t.Description = sanitizeInput(t.Description)
	t.Category = sanitizeInput(t.Category)
	if strings.TrimSpace(t.Timestamp.Raw()) == "" {
		t.Timestamp = core.TimestampOf(now)
	}
	return t, nil
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}
