package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/okian/vitae/internal/domain/model"
)

// PDF layout constants (landscape A4, millimeters).
const (
	colFilenameWidth = 52
	colDateWidth     = 22
	colBestWidth     = 28
	colSpecsWidth    = 55
	colScoreWidth    = 20
	rowHeight        = 7
)

// renderPDF produces the print-ready rendering of the same row set as
// the spreadsheet variant.
func renderPDF(rows []Row) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Candidate Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Candidate Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	drawHeader(pdf)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows {
		if pdf.GetY() > 185 {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 8)
			drawHeader(pdf)
			pdf.SetFont("Helvetica", "", 8)
		}
		pdf.CellFormat(colFilenameWidth, rowHeight, clip(row.Filename, 38), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colDateWidth, rowHeight, row.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colBestWidth, rowHeight, titleCase(string(row.BestArea)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colSpecsWidth, rowHeight, clip(strings.Join(row.TopSpecializations, ", "), 42), "1", 0, "L", false, 0, "")
		for _, area := range model.Areas() {
			pdf.CellFormat(colScoreWidth, rowHeight, fmt.Sprintf("%.1f", row.Scores[area]), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawHeader(pdf *fpdf.Fpdf) {
	pdf.CellFormat(colFilenameWidth, rowHeight, "Filename", "1", 0, "L", false, 0, "")
	pdf.CellFormat(colDateWidth, rowHeight, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colBestWidth, rowHeight, "Best Fit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(colSpecsWidth, rowHeight, "Top Specializations", "1", 0, "L", false, 0, "")
	for _, area := range model.Areas() {
		pdf.CellFormat(colScoreWidth, rowHeight, titleCase(string(area)), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
