package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/vitae/internal/domain/model"
)

const sheetName = "Candidates"

// renderXLSX produces the spreadsheet rendering: one header row plus
// one row per candidate, with a score column per area.
func renderXLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := headerCells()
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, row := range rows {
		values := []any{
			row.Filename,
			row.Date.Format("2006-01-02"),
			titleCase(string(row.BestArea)),
			strings.Join(row.TopSpecializations, ", "),
		}
		for _, area := range model.Areas() {
			values = append(values, row.Scores[area])
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("row cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 36); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, "D", "D", 44); err != nil {
		return nil, fmt.Errorf("column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func headerCells() []string {
	headers := []string{"Filename", "Date", "Best Fit", "Top Specializations"}
	for _, area := range model.Areas() {
		headers = append(headers, titleCase(string(area)))
	}
	return headers
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
