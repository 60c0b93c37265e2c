package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/vitae/internal/domain/jobs"
)

// Default list page size when ?limit is omitted.
const defaultListLimit = 50

// AnalysesHandler handles CV submission and record access.
type AnalysesHandler struct {
	deps         Dependencies
	maxListLimit int
	maxBatchSize int
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps Dependencies, maxListLimit, maxBatchSize int) *AnalysesHandler {
	return &AnalysesHandler{
		deps:         deps,
		maxListLimit: maxListLimit,
		maxBatchSize: maxBatchSize,
	}
}

// submitRequest mirrors the POST /analyses body. CV text arrives
// already extracted; document parsing happens upstream.
type submitRequest struct {
	CVText   string `json:"cv_text"`
	Filename string `json:"filename"`
}

func (r *submitRequest) normalize() error {
	if strings.TrimSpace(r.CVText) == "" {
		return fmt.Errorf("%w: missing cv_text", ErrBadRequest)
	}
	if strings.TrimSpace(r.Filename) == "" {
		r.Filename = "cv.txt"
	}
	return nil
}

// HandleAnalyses handles POST /analyses and GET /analyses?limit=N&offset=M.
func (h *AnalysesHandler) HandleAnalyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *AnalysesHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.normalize(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	rec, err := h.deps.Submit(r.Context(), req.CVText, req.Filename)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *AnalysesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		limit = n
	}
	if limit > h.maxListLimit {
		limit = h.maxListLimit
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		offset = n
	}

	records, err := h.deps.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// batchRequest mirrors the POST /analyses/batch body.
type batchRequest struct {
	Items []submitRequest `json:"items"`
}

type batchResponse struct {
	Jobs []jobs.Job `json:"jobs"`
}

// batchRejectedResponse is the 429 body for a batch that hit queue
// backpressure partway through. Jobs carries every job created so far,
// accepted ones included, so their ids stay pollable; the job that was
// rejected is marked failed.
type batchRejectedResponse struct {
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Jobs    []jobs.Job `json:"jobs"`
}

// HandleBatch handles POST /analyses/batch: every CV becomes a tracked
// job processed off the request path by the worker pool.
func (h *AnalysesHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if len(req.Items) == 0 || len(req.Items) > h.maxBatchSize {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: send between 1 and %d items", ErrBadRequest, h.maxBatchSize))
		return
	}
	for i := range req.Items {
		if err := req.Items[i].normalize(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("item %d: %w", i, err))
			return
		}
	}

	resp := batchResponse{Jobs: make([]jobs.Job, 0, len(req.Items))}
	for _, item := range req.Items {
		job, ok := h.deps.EnqueueSubmission(r.Context(), item.CVText, item.Filename)
		resp.Jobs = append(resp.Jobs, job)
		if !ok {
			// Items accepted before this one are already queued and will
			// be processed; the client must keep their ids to poll them.
			writeJSON(w, http.StatusTooManyRequests, batchRejectedResponse{
				Code:    "backpressure",
				Message: ErrBackpressure.Error(),
				Jobs:    resp.Jobs,
			})
			return
		}
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// HandleAnalysisByID handles GET and DELETE /analyses/{id}.
func (h *AnalysesHandler) HandleAnalysisByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/analyses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := h.deps.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if err := h.deps.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}
