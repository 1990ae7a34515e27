// Package export renders a movements table, with the totals of its rows,
// as CSV, XLSX or PDF.
package export

import (
	"fmt"
	"io"
	"strings"

	"presupuesto/internal/core"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{CSV, XLSX, PDF}
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case CSV, XLSX, PDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", core.ErrInvalidInput, s)
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Table is an already filtered movements table.
type Table struct {
	User   string
	Range  core.DateRange
	Rows   []core.Movement
	Totals core.Totals
}

// NewTable computes the totals of rows.
func NewTable(user string, r core.DateRange, rows []core.Movement) Table {
	return Table{User: user, Range: r, Rows: rows, Totals: core.ComputeTotals(rows)}
}

// Filename suggests a download name such as presupuesto_ana_2024-01-01_2024-01-31.csv.
func Filename(t Table, f Format) string {
	name := "presupuesto_" + t.User
	if !t.Range.Start.IsZero() && !t.Range.End.IsZero() {
		name += "_" + t.Range.Start.String() + "_" + t.Range.End.String()
	}
	return name + "." + string(f)
}

// Write renders t in format f.
func Write(w io.Writer, f Format, t Table) error {
	switch f {
	case CSV:
		return writeCSV(w, t)
	case XLSX:
		return writeXLSX(w, t)
	case PDF:
		return writePDF(w, t)
	}
	return fmt.Errorf("%w: unsupported export format %q", core.ErrInvalidInput, f)
}

var header = []string{"Fecha", "Tipo", "Categoría", "Descripción", "Monto"}

func row(m core.Movement) []string {
	fecha := ""
	if !m.Timestamp.IsZero() {
		fecha = core.FormatTimestamp(m.Timestamp)
	}
	return []string{fecha, m.Kind.Label(), m.Category, m.Description, m.Amount.String()}
}

type totalLine struct {
	label  string
	amount core.Money
}

// totalLines are the rows appended below the table.
func totalLines(t core.Totals) []totalLine {
	return []totalLine{
		{"Total Ingresos", t.Income},
		{"Total Gastos", t.Expense},
		{"Total Ahorro", t.Saving},
		{"Total Inversión", t.Investment},
		{"Saldo", t.Balance()},
	}
}
