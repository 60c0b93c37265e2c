// Package report renders filtered candidate exports as spreadsheet or
// print-ready documents. Row content and ordering are deterministic for
// identical inputs, so repeated generation over an unchanged store
// yields identical reports.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/pkg/metrics"
)

// Format selects the report rendering.
type Format string

// Supported report formats.
const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a wire string onto a Format.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatXLSX:
		return FormatXLSX, true
	case FormatPDF:
		return FormatPDF, true
	default:
		return "", false
	}
}

// maxTopSpecializations caps the specializations shown per row.
const maxTopSpecializations = 3

// Filters narrows the record set before rendering. Nil fields match
// everything; the date range is inclusive on both ends.
type Filters struct {
	Area *model.Area
	From *time.Time
	To   *time.Time
}

// Row is one candidate line in a report.
type Row struct {
	Filename           string
	Date               time.Time
	BestArea           model.Area
	TopSpecializations []string
	Scores             map[model.Area]float64
}

// BuildRows filters records, orders them by timestamp descending, and
// shapes one row per candidate. A filter matching zero records yields
// an empty, well-formed row set.
func BuildRows(records []*model.AnalysisRecord, f Filters) []Row {
	matched := make([]*model.AnalysisRecord, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if f.Area != nil && rec.MostFittedArea != *f.Area {
			continue
		}
		if f.From != nil && rec.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && rec.Timestamp.After(*f.To) {
			continue
		}
		matched = append(matched, rec)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	rows := make([]Row, 0, len(matched))
	for _, rec := range matched {
		rows = append(rows, buildRow(rec))
	}
	return rows
}

func buildRow(rec *model.AnalysisRecord) Row {
	specs := make([]string, 0, maxTopSpecializations)
	for _, s := range rec.Specializations {
		if len(specs) == maxTopSpecializations {
			break
		}
		specs = append(specs, fmt.Sprintf("%s (%s)", s.Name, s.Level))
	}

	scores := make(map[model.Area]float64, len(rec.AreaScores))
	for a, v := range rec.AreaScores {
		scores[a] = v
	}

	return Row{
		Filename:           rec.Filename,
		Date:               rec.Timestamp,
		BestArea:           rec.MostFittedArea,
		TopSpecializations: specs,
		Scores:             scores,
	}
}

// Generate renders the filtered record set in the requested format.
func Generate(records []*model.AnalysisRecord, f Filters, format Format) ([]byte, error) {
	rows := BuildRows(records, f)
	return render(rows, format)
}

// GenerateOne renders a single-record report with the same row shape.
func GenerateOne(rec *model.AnalysisRecord, format Format) ([]byte, error) {
	return render([]Row{buildRow(rec)}, format)
}

func render(rows []Row, format Format) ([]byte, error) {
	var (
		blob []byte
		err  error
	)
	switch format {
	case FormatXLSX:
		blob, err = renderXLSX(rows)
	case FormatPDF:
		blob, err = renderPDF(rows)
	default:
		return nil, fmt.Errorf("render: %w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordReportGenerated(string(format))
	return blob, nil
}

// ContentType returns the MIME type for a format.
func ContentType(format Format) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}
