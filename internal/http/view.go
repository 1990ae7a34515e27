package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"presupuesto/internal/core"
)

// MaxPageSize bounds page_size so one request cannot dump a whole ledger
// through the table endpoint. Exports are not paginated.
const MaxPageSize = 100

const maxPage = 1 << 20

// ViewState is the table view a client is looking at. It is parsed from
// every request and echoed back so clients can render pagination controls
// without keeping state on the server.
type ViewState struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	Kind     core.Kind `json:"kind,omitempty"`
}

// Range returns the inclusive date window of v.
func (v ViewState) Range() core.DateRange {
	start, _ := core.ParseDate(v.From)
	end, _ := core.ParseDate(v.To)
	return core.DateRange{Start: start, End: end}
}

// parseViewState reads from, to, page, page_size and kind. The window
// defaults to the first day of today's month through today.
func parseViewState(q url.Values, today time.Time) (ViewState, error) {
	todayDate := core.DateOf(today)
	v := ViewState{
		From:     core.NewDate(todayDate.Year, todayDate.Month, 1).String(),
		To:       todayDate.String(),
		Page:     1,
		PageSize: core.DefaultPageSize,
	}

	if s := strings.TrimSpace(q.Get("from")); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return v, err
		}
		v.From = d.String()
	}
	if s := strings.TrimSpace(q.Get("to")); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return v, err
		}
		v.To = d.String()
	}

	if s := strings.TrimSpace(q.Get("page")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n > maxPage {
			return v, fmt.Errorf("%w: page %q", core.ErrInvalidInput, s)
		}
		if n > 1 {
			v.Page = n
		}
	}
	if s := strings.TrimSpace(q.Get("page_size")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxPageSize {
			return v, fmt.Errorf("%w: page_size must be between 1 and %d", core.ErrInvalidInput, MaxPageSize)
		}
		v.PageSize = n
	}

	if s := strings.TrimSpace(q.Get("kind")); s != "" {
		k, err := core.ParseKind(s)
		if err != nil {
			return v, err
		}
		v.Kind = k
	}
	return v, nil
}

// rows applies the view's window and kind filter to l.
func (v ViewState) rows(l core.Ledger) []core.Movement {
	rows := core.QueryRange(l, v.Range())
	if v.Kind == "" {
		return rows
	}
	out := rows[:0:0]
	for _, m := range rows {
		if m.Kind == v.Kind {
			out = append(out, m)
		}
	}
	return out
}
