package api

import (
	"net/http"

	"github.com/okian/vitae/internal/domain/model"
)

// BestCandidatesHandler serves the per-area ranking view.
type BestCandidatesHandler struct {
	deps Dependencies
}

// NewBestCandidatesHandler creates a new best-candidates handler.
func NewBestCandidatesHandler(deps Dependencies) *BestCandidatesHandler {
	return &BestCandidatesHandler{deps: deps}
}

// HandleGetBest handles GET /best-candidates. Every known area appears
// in the response; areas without a scored candidate map to null.
func (h *BestCandidatesHandler) HandleGetBest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	best, err := h.deps.BestCandidates(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make(map[model.Area]*model.AnalysisRecord, len(model.Areas()))
	for _, area := range model.Areas() {
		out[area] = best[area]
	}
	writeJSON(w, http.StatusOK, out)
}
