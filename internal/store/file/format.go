package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"presupuesto/internal/core"
)

// legacyNamespace seeds ids for records written before ids existed.
var legacyNamespace = uuid.MustParse("6f1c1a8e-3b5d-4c1e-9a57-0d2b9e4f7a10")

// document mirrors the on-disk layout. Every bucket is always written.
type document struct {
	Ingresos  []record `json:"ingresos"`
	Gastos    []record `json:"gastos"`
	Ahorro    []record `json:"ahorro"`
	Inversion []record `json:"inversion"`
}

type record struct {
	ID          string `json:"id,omitempty"`
	Fecha       string `json:"fecha"`
	Categoria   string `json:"categoria"`
	Descripcion string `json:"descripcion"`
	Monto       amount `json:"monto"`
}

// amount is written as a two-decimal JSON number. Reading also accepts
// quoted numbers found in hand-edited files.
type amount struct{ core.Money }

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Money.String()), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		a.Money = core.Money{}
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("monto: %w", err)
		}
		m, err := core.ParseAmount(unq)
		if err != nil {
			return fmt.Errorf("monto %q: %w", unq, err)
		}
		a.Money = m
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("monto %q: %w", s, err)
	}
	m, err := core.FromDecimal(d)
	if err != nil {
		return fmt.Errorf("monto %q: %w", s, err)
	}
	a.Money = m
	return nil
}

func (d *document) bucket(k core.Kind) *[]record {
	switch k {
	case core.Income:
		return &d.Ingresos
	case core.Expense:
		return &d.Gastos
	case core.Saving:
		return &d.Ahorro
	default:
		return &d.Inversion
	}
}

func encode(l core.Ledger) document {
	doc := document{
		Ingresos:  []record{},
		Gastos:    []record{},
		Ahorro:    []record{},
		Inversion: []record{},
	}
	for _, k := range core.Kinds() {
		dst := doc.bucket(k)
		for _, m := range l.Bucket(k) {
			r := record{
				ID:          m.ID,
				Categoria:   m.Category,
				Descripcion: m.Description,
				Monto:       amount{m.Amount},
			}
			if !m.Timestamp.IsZero() {
				r.Fecha = core.FormatTimestamp(m.Timestamp)
			}
			*dst = append(*dst, r)
		}
	}
	return doc
}

func decode(user string, doc document) (core.Ledger, error) {
	var ms []core.Movement
	for _, k := range core.Kinds() {
		recs := *doc.bucket(k)
		for i, r := range recs {
			m := core.Movement{
				ID:          r.ID,
				Kind:        k,
				Category:    r.Categoria,
				Description: r.Descripcion,
				Amount:      r.Monto.Money,
			}
			if r.Fecha != "" {
				ts, err := core.ParseTimestamp(r.Fecha)
				if err != nil {
					return core.Ledger{}, fmt.Errorf("%s[%d]: fecha %q: %w", k.BucketKey(), i, r.Fecha, err)
				}
				m.Timestamp = ts
			}
			if m.ID == "" {
				m.ID = legacyID(k, i, r.Fecha)
			}
			ms = append(ms, m)
		}
	}
	return core.LedgerOf(user, ms), nil
}

// legacyID derives a stable id for a record without one. Records sharing a
// timestamp share an id, so removing one removes all of them.
func legacyID(k core.Kind, index int, fecha string) string {
	if fecha != "" {
		return uuid.NewSHA1(legacyNamespace, []byte(fecha)).String()
	}
	return uuid.NewSHA1(legacyNamespace, []byte(fmt.Sprintf("%s/%d", k.BucketKey(), index))).String()
}

func marshal(l core.Ledger) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(encode(l)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
