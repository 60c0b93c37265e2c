package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/internal/domain/report"
)

// Filter dates arrive as calendar days; the upper bound is inclusive.
const filterDateLayout = "2006-01-02"

// ReportsHandler serves downloadable candidate reports.
type ReportsHandler struct {
	deps Dependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleFilteredReport handles GET /reports?format=&area=&from=&to=.
func (h *ReportsHandler) HandleFilteredReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	format, err := parseFormatParam(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	filters, err := parseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	data, err := h.deps.Report(r.Context(), filters, format)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeAttachment(w, format, "candidates", data)
}

// HandleSingleReport handles GET /reports/{id}?format=.
func (h *ReportsHandler) HandleSingleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/reports/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	format, err := parseFormatParam(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	data, err := h.deps.ReportOne(r.Context(), id, format)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeAttachment(w, format, "candidate-"+id, data)
}

func parseFormatParam(raw string) (report.Format, error) {
	if raw == "" {
		return report.FormatXLSX, nil
	}
	f, ok := report.ParseFormat(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown format %q", ErrBadRequest, raw)
	}
	return f, nil
}

func parseFilters(r *http.Request) (report.Filters, error) {
	var filters report.Filters
	q := r.URL.Query()

	if raw := q.Get("area"); raw != "" {
		area, ok := model.ParseArea(raw)
		if !ok {
			return filters, fmt.Errorf("%w: unknown area %q", ErrBadRequest, raw)
		}
		filters.Area = &area
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(filterDateLayout, raw)
		if err != nil {
			return filters, fmt.Errorf("%w: invalid from date", ErrBadRequest)
		}
		filters.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(filterDateLayout, raw)
		if err != nil {
			return filters, fmt.Errorf("%w: invalid to date", ErrBadRequest)
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		filters.To = &end
	}
	if filters.From != nil && filters.To != nil && filters.From.After(*filters.To) {
		return filters, fmt.Errorf("%w: from date is after to date", ErrBadRequest)
	}
	return filters, nil
}

func writeAttachment(w http.ResponseWriter, format report.Format, name string, data []byte) {
	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", name+"."+string(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
