package export

import (
	"io"

	"github.com/go-pdf/fpdf"
)

var pdfWidths = []float64{38, 24, 36, 62, 30}

func writePDF(w io.Writer, t Table) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate accents such as in "Inversión".
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Presupuesto "+t.User), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	title := "Presupuesto de " + t.User
	if !t.Range.Start.IsZero() && !t.Range.End.IsZero() {
		title += " (" + t.Range.Start.String() + " a " + t.Range.End.String() + ")"
	}
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(pdfWidths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, m := range t.Rows {
		for i, cell := range row(m) {
			align := "L"
			if i == len(header)-1 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], 6, tr(fit(cell, pdfWidths[i])), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	labelWidth := pdfWidths[0] + pdfWidths[1] + pdfWidths[2] + pdfWidths[3]
	for _, tl := range totalLines(t.Totals) {
		pdf.CellFormat(labelWidth, 6, tr(tl.label), "", 0, "R", false, 0, "")
		pdf.CellFormat(pdfWidths[4], 6, tl.amount.String(), "", 1, "R", false, 0, "")
	}

	return pdf.Output(w)
}

// fit truncates s to roughly what fits a column of width mm at 9pt.
func fit(s string, width float64) string {
	max := int(width / 1.9)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
