package export

import (
	"encoding/csv"
	"io"
)

// utf8BOM lets spreadsheet applications detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func writeCSV(w io.Writer, t Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, m := range t.Rows {
		if err := cw.Write(row(m)); err != nil {
			return err
		}
	}
	for _, tl := range totalLines(t.Totals) {
		if err := cw.Write([]string{"", "", "", tl.label, tl.amount.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
