package http

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"presupuesto/internal/core"
)

// jsonMoney is written as a JSON number with two decimals. Requests may send
// either a number or a string; a decimal comma is accepted.
type jsonMoney core.Money

func (m jsonMoney) MarshalJSON() ([]byte, error) {
	return []byte(core.Money(m).String()), nil
}

func (m *jsonMoney) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("%w: amount: %v", core.ErrInvalidInput, err)
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return fmt.Errorf("%w: amount %q", core.ErrInvalidInput, s)
		}
		*m = jsonMoney(v)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("%w: amount %s", core.ErrInvalidInput, b)
	}
	v, err := core.FromDecimal(d)
	if err != nil {
		return err
	}
	*m = jsonMoney(v)
	return nil
}

type movementJSON struct {
	ID          string    `json:"id"`
	Kind        core.Kind `json:"kind"`
	Label       string    `json:"label"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      jsonMoney `json:"amount"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   string    `json:"timestamp,omitempty"`
}

func toMovementJSON(m core.Movement) movementJSON {
	out := movementJSON{
		ID:          m.ID,
		Kind:        m.Kind,
		Label:       m.Kind.Label(),
		Category:    m.Category,
		Description: m.Description,
		Amount:      jsonMoney(m.Amount),
		AmountCents: m.Amount.Cents,
	}
	if !m.Timestamp.IsZero() {
		out.Timestamp = core.FormatTimestamp(m.Timestamp)
	}
	return out
}

func toMovementsJSON(ms []core.Movement) []movementJSON {
	out := make([]movementJSON, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovementJSON(m))
	}
	return out
}

type totalsJSON struct {
	Income     jsonMoney `json:"income"`
	Expense    jsonMoney `json:"expense"`
	Saving     jsonMoney `json:"saving"`
	Investment jsonMoney `json:"investment"`
	Balance    jsonMoney `json:"balance"`
}

func toTotalsJSON(t core.Totals) totalsJSON {
	return totalsJSON{
		Income:     jsonMoney(t.Income),
		Expense:    jsonMoney(t.Expense),
		Saving:     jsonMoney(t.Saving),
		Investment: jsonMoney(t.Investment),
		Balance:    jsonMoney(t.Balance()),
	}
}

type categoryAmountJSON struct {
	Kind   core.Kind `json:"kind"`
	Name   string    `json:"name"`
	Amount jsonMoney `json:"amount"`
}

type summaryJSON struct {
	User       string               `json:"user"`
	Movements  int                  `json:"movements"`
	Totals     totalsJSON           `json:"totals"`
	ByCategory []categoryAmountJSON `json:"by_category"`
}

func toSummaryJSON(user string, count int, s core.Summary) summaryJSON {
	out := summaryJSON{
		User:       user,
		Movements:  count,
		Totals:     toTotalsJSON(s.Totals),
		ByCategory: make([]categoryAmountJSON, 0, len(s.ByCategory)),
	}
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountJSON{Kind: c.Kind, Name: c.Name, Amount: jsonMoney(c.Amount)})
	}
	return out
}

type pageJSON struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalRows  int  `json:"total_rows"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

type tableJSON struct {
	User   string         `json:"user"`
	View   ViewState      `json:"view"`
	Rows   []movementJSON `json:"rows"`
	Page   pageJSON       `json:"pagination"`
	Totals totalsJSON     `json:"totals"`
}

type categoryJSON struct {
	Name        string   `json:"name"`
	Suggestions []string `json:"suggestions"`
}

type kindCategoriesJSON struct {
	Kind       core.Kind      `json:"kind"`
	Label      string         `json:"label"`
	Categories []categoryJSON `json:"categories"`
}

func categoriesJSON() []kindCategoriesJSON {
	out := make([]kindCategoriesJSON, 0, len(core.Kinds()))
	for _, k := range core.Kinds() {
		kc := kindCategoriesJSON{Kind: k, Label: k.Label()}
		for _, c := range core.Categories(k) {
			sugg := core.Suggestions(c)
			if sugg == nil {
				sugg = []string{}
			}
			kc.Categories = append(kc.Categories, categoryJSON{Name: c, Suggestions: sugg})
		}
		out = append(out, kc)
	}
	return out
}

type createMovementRequest struct {
	Kind        string     `json:"kind"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Amount      *jsonMoney `json:"amount"`
}

func (req createMovementRequest) entry() (core.Entry, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return core.Entry{}, err
	}
	if req.Amount == nil {
		return core.Entry{}, fmt.Errorf("%w: amount is required", core.ErrInvalidInput)
	}
	e := core.Entry{
		Kind:        kind,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Amount:      core.Money(*req.Amount),
	}
	if err := core.ValidateEntry(e); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

type updateMovementRequest struct {
	Amount *jsonMoney `json:"amount"`
}

type errorJSON struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
