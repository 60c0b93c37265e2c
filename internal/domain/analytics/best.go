package analytics

import (
	"github.com/okian/vitae/internal/domain/model"
)

// ComputeBest returns, per area, the record with the maximum score for
// that area. Exact score ties resolve to the most recently created
// record (highest timestamp). Areas with no scored record are absent
// from the result; callers surface that as "no candidate yet".
//
// Records missing a score for an area are skipped for that area only.
func ComputeBest(records []*model.AnalysisRecord) map[model.Area]*model.AnalysisRecord {
	best := make(map[model.Area]*model.AnalysisRecord)

	for _, area := range model.Areas() {
		for _, rec := range records {
			if rec == nil {
				continue
			}
			score, ok := rec.AreaScores[area]
			if !ok {
				continue
			}
			current, exists := best[area]
			switch {
			case !exists:
				best[area] = rec
			case score > current.AreaScores[area]:
				best[area] = rec
			case score == current.AreaScores[area] && rec.Timestamp.After(current.Timestamp):
				best[area] = rec
			}
		}
	}
	return best
}
