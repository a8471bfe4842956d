package report

import (
	"io"

	"codeberg.org/go-pdf/fpdf"

	"github.com/criskgs/analiza-camion/internal/core"
)

// Column widths in points; they add up to the printable width of an A4
// page with 40pt margins.
var pdfWidths = []float64{110, 65, 65, 65, 70, 70, 70}

const (
	pdfMargin    = 40
	pdfRowHeight = 14
)

// WritePDF renders r as an A4 document: title, period line, result table
// and the alert list ("No alerts." when nothing was flagged).
//
// The core fonts only cover Windows-1252, so text is folded to plain
// Latin letters before it is drawn.
func WritePDF(w io.Writer, r *core.Report) error {
	if r == nil || r.Result == nil {
		return core.ErrNoResult
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(Title, true)
	pdf.SetCreationDate(r.Result.GeneratedAt)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(core.StripDiacritics(s)) }

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 18, text(Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 12, text(r.PeriodSummary()), "", "L", false)
	pdf.Ln(8)

	// Table header
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(79, 70, 229)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range Columns {
		pdf.CellFormat(pdfWidths[i], pdfRowHeight, text(col), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range Rows(r) {
		for i, cell := range row.Cells {
			align := "L"
			if i > 0 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, text(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 12, text(Footer(r)), "", "L", false)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 16, "Alerts:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	alerts := r.Alerts()
	if len(alerts) == 0 {
		pdf.CellFormat(0, 12, "No alerts.", "", 1, "L", false, 0, "")
	}
	for _, line := range alerts {
		pdf.MultiCell(0, 12, text("- "+line), "", "L", false)
	}

	return pdf.Output(w)
}
