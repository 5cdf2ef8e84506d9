package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fluxo/internal/core"
)

// Column headers recognised in the first row, in any order and case.
// Portuguese labels are accepted alongside the English ones.
var headerAliases = map[string][]string{
	"id":          {"id"},
	"owner":       {"owner", "telefone", "phone"},
	"timestamp":   {"timestamp", "data", "date"},
	"description": {"description", "descricao", "descrição"},
	"amount":      {"amount", "valor"},
	"category":    {"category", "categoria"},
	"kind":        {"kind", "tipo", "type"},
	"instrument":  {"instrument", "forma", "pagamento"},
	"wallet_id":   {"wallet_id", "carteira_id"},
	"wallet":      {"wallet", "carteira"},
	"wallet_kind": {"wallet_kind", "tipo_carteira"},
}

// Sheets returns dates in the spreadsheet locale.
var localLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

type columns map[string]int

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func headerIndex(headers []string) columns {
	cols := columns{}
	for name, aliases := range headerAliases {
		for _, a := range aliases {
			if i := indexOf(headers, a); i >= 0 {
				cols[name] = i
				break
			}
		}
	}
	return cols
}

// parseRows converts a values matrix into transactions. Malformed amounts,
// timestamps and kinds are kept as invalid values; only rows with neither a
// description nor an amount are dropped.
func parseRows(values [][]any, loc *time.Location) ([]core.Transaction, int) {
	out := []core.Transaction{}
	if len(values) == 0 {
		return out, 0
	}
	cols := headerIndex(toStrings(values[0]))
	skipped := 0
	for _, raw := range values[1:] {
		row := toStrings(raw)
		desc := cols.get(row, "description")
		amount := cols.get(row, "amount")
		if desc == "" && amount == "" {
			skipped++
			continue
		}
		t := core.Transaction{
			Owner:       cols.get(row, "owner"),
			Description: desc,
			Amount:      core.ParseNullAmount(amount),
			Category:    cols.get(row, "category"),
			Kind:        parseKind(cols.get(row, "kind")),
			Instrument:  parseInstrument(cols.get(row, "instrument")),
			Timestamp:   parseTimestamp(cols.get(row, "timestamp"), loc),
		}
		if id, err := strconv.ParseInt(cols.get(row, "id"), 10, 64); err == nil {
			t.ID = core.Int64(id)
		}
		if name := cols.get(row, "wallet"); name != "" {
			w := &core.Wallet{Name: name, Kind: parseInstrument(cols.get(row, "wallet_kind"))}
			if id, err := strconv.ParseInt(cols.get(row, "wallet_id"), 10, 64); err == nil {
				w.ID = id
			}
			t.Wallet = w
		}
		out = append(out, t)
	}
	return out, skipped
}

func parseKind(s string) core.Kind {
	k, err := core.ParseKind(s)
	if err != nil {
		return core.Kind(strings.ToLower(s))
	}
	return k
}

func parseInstrument(s string) core.Instrument {
	i, err := core.ParseInstrument(s)
	if err != nil {
		return core.Instrument(strings.ToLower(s))
	}
	return i
}

// parseTimestamp accepts ISO values and the spreadsheet's dd/mm/yyyy form,
// which is rewritten to ISO so the raw text is stable across fetches.
func parseTimestamp(s string, loc *time.Location) core.Timestamp {
	ts := core.ParseTimestamp(s)
	if ts.Valid() {
		return ts
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return core.ParseTimestamp(t.Format(time.RFC3339))
		}
	}
	return ts
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}
