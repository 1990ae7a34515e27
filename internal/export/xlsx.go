package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Movimientos"

func writeXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &head); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "E1", bold); err != nil {
		return err
	}

	r := 2
	for _, m := range t.Rows {
		cells := row(m)
		values := []any{cells[0], cells[1], cells[2], cells[3], m.Amount.Decimal().InexactFloat64()}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", r), &values); err != nil {
			return err
		}
		r++
	}
	first := r
	for _, tl := range totalLines(t.Totals) {
		values := []any{tl.label, tl.amount.Decimal().InexactFloat64()}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("D%d", r), &values); err != nil {
			return err
		}
		r++
	}
	if err := f.SetCellStyle(sheetName, "E2", fmt.Sprintf("E%d", r-1), money); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("D%d", first), fmt.Sprintf("D%d", r-1), bold); err != nil {
		return err
	}

	for col, width := range map[string]float64{"A": 20, "B": 12, "C": 20, "D": 32, "E": 14} {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}
