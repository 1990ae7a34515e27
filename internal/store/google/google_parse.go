package google

import (
	"fmt"
	"strings"

	"presupuesto/internal/core"
)

type columns struct {
	id, kind, category, description, amount, timestamp int
}

var defaultColumns = columns{0, 1, 2, 3, 4, 5}

// headerColumns maps header names to positions so reordered tabs still
// load. ok is false when row is not a header.
func headerColumns(row []string) (columns, bool) {
	cols := columns{
		id:          indexOf(row, "id"),
		kind:        indexOf(row, "tipo"),
		category:    indexOf(row, "categoria"),
		description: indexOf(row, "descripcion"),
		amount:      indexOf(row, "monto"),
		timestamp:   indexOf(row, "fecha"),
	}
	if cols.id == -1 || cols.kind == -1 || cols.amount == -1 {
		return defaultColumns, false
	}
	return cols, true
}

// parseRows converts a values matrix into movements, skipping the header,
// blank rows and rows that cannot be read. skipped counts the latter.
func parseRows(values [][]any) (out []core.Movement, skipped int) {
	cols := defaultColumns
	for i, raw := range values {
		row := toStrings(raw)
		if i == 0 {
			if hc, ok := headerColumns(row); ok {
				cols = hc
				continue
			}
		}
		if isBlank(row) {
			continue
		}
		m, err := parseRow(raw, row, cols)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, m)
	}
	return out, skipped
}

func parseRow(raw []any, row []string, cols columns) (core.Movement, error) {
	kind, err := core.ParseKind(safeGet(row, cols.kind))
	if err != nil {
		return core.Movement{}, err
	}
	amount, err := parseAmountCell(raw, cols.amount)
	if err != nil {
		return core.Movement{}, err
	}
	m := core.Movement{
		ID:          safeGet(row, cols.id),
		Kind:        kind,
		Category:    safeGet(row, cols.category),
		Description: safeGet(row, cols.description),
		Amount:      amount,
	}
	if m.ID == "" {
		return core.Movement{}, fmt.Errorf("row without id")
	}
	if ts := safeGet(row, cols.timestamp); ts != "" {
		t, err := core.ParseTimestamp(ts)
		if err != nil {
			return core.Movement{}, err
		}
		m.Timestamp = t
	}
	return m, nil
}

// parseAmountCell accepts unformatted numbers as well as text such as "12,50".
func parseAmountCell(raw []any, idx int) (core.Money, error) {
	if idx < 0 || idx >= len(raw) {
		return core.Money{}, fmt.Errorf("missing monto")
	}
	switch v := raw[idx].(type) {
	case float64:
		if v < 0 {
			return core.Money{}, core.ErrNegativeAmount
		}
		return core.FromFloat(v)
	default:
		return core.ParseAmount(fmt.Sprint(v))
	}
}

// formatRow renders m in the column order of cols. Columns missing from
// the header are dropped.
func formatRow(m core.Movement, cols columns) []any {
	fecha := ""
	if !m.Timestamp.IsZero() {
		fecha = core.FormatTimestamp(m.Timestamp)
	}
	width := 0
	for _, i := range []int{cols.id, cols.kind, cols.category, cols.description, cols.amount, cols.timestamp} {
		width = max(width, i+1)
	}
	row := make([]any, width)
	for i := range row {
		row[i] = ""
	}
	set := func(i int, v any) {
		if i >= 0 {
			row[i] = v
		}
	}
	set(cols.id, m.ID)
	set(cols.kind, m.Kind.Label())
	set(cols.category, m.Category)
	set(cols.description, m.Description)
	set(cols.amount, m.Amount.Decimal().InexactFloat64())
	set(cols.timestamp, fecha)
	return row
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
