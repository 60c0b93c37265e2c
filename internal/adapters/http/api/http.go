// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/vitae/internal/adapters/repository"
	"github.com/okian/vitae/internal/domain/analytics"
	"github.com/okian/vitae/internal/domain/jobs"
	"github.com/okian/vitae/internal/domain/model"
	"github.com/okian/vitae/internal/domain/report"
	"github.com/okian/vitae/internal/domain/scoring"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Write path.
	Submit(ctx context.Context, cvText, filename string) (*model.AnalysisRecord, error)
	EnqueueSubmission(ctx context.Context, cvText, filename string) (jobs.Job, bool)
	Delete(ctx context.Context, id string) error

	// Read path.
	Job(ctx context.Context, id string) (jobs.Job, bool)
	Get(ctx context.Context, id string) (*model.AnalysisRecord, error)
	List(ctx context.Context, limit, offset int) ([]*model.AnalysisRecord, error)
	Metrics(ctx context.Context) (analytics.Metrics, error)
	BestCandidates(ctx context.Context) (map[model.Area]*model.AnalysisRecord, error)
	Report(ctx context.Context, f report.Filters, format report.Format) ([]byte, error)
	ReportOne(ctx context.Context, id string, format report.Format) ([]byte, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	analysesHandler *AnalysesHandler
	jobsHandler     *JobsHandler
	metricsHandler  *MetricsHandler
	bestHandler     *BestCandidatesHandler
	reportsHandler  *ReportsHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
}

// NewServer creates a new API server with all handlers. maxListLimit
// caps GET /analyses?limit; maxBatchSize caps one batch submission.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit, maxBatchSize int) *Server {
	return &Server{
		analysesHandler: NewAnalysesHandler(deps, maxListLimit, maxBatchSize),
		jobsHandler:     NewJobsHandler(deps),
		metricsHandler:  NewMetricsHandler(deps),
		bestHandler:     NewBestCandidatesHandler(deps),
		reportsHandler:  NewReportsHandler(deps),
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyses", MetricsMiddleware(s.analysesHandler.HandleAnalyses, "analyses"))
	mux.HandleFunc("/analyses/batch", MetricsMiddleware(s.analysesHandler.HandleBatch, "analyses_batch"))
	mux.HandleFunc("/analyses/", MetricsMiddleware(s.analysesHandler.HandleAnalysisByID, "analysis"))
	mux.HandleFunc("/jobs/", MetricsMiddleware(s.jobsHandler.HandleGetJob, "job"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.metricsHandler.HandleGetMetrics, "metrics"))
	mux.HandleFunc("/best-candidates", MetricsMiddleware(s.bestHandler.HandleGetBest, "best_candidates"))
	mux.HandleFunc("/reports", MetricsMiddleware(s.reportsHandler.HandleFilteredReport, "reports"))
	mux.HandleFunc("/reports/", MetricsMiddleware(s.reportsHandler.HandleSingleReport, "report"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain sentinel errors into client- or
// server-fault responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, scoring.ErrEmptyCV):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, scoring.ErrAllAreasFailed):
		writeError(w, http.StatusBadGateway, "upstream_exhausted", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
