// Package analytics contains the pure read-side computations derived
// from a store snapshot: dashboard metrics and best-candidate rankings.
// Nothing here is persisted; recomputing over the same snapshot always
// yields the same result.
package analytics

import (
	"github.com/okian/vitae/internal/domain/model"
)

// recentWindow is how many trailing analysis times the dashboard trend
// display receives.
const recentWindow = 30

// Metrics is the derived dashboard view over all stored records.
type Metrics struct {
	TotalAnalyses int                `json:"total_analyses"`
	AreaCounts    map[model.Area]int `json:"area_counts"`
	ModelCounts   map[string]int     `json:"model_counts"`

	TotalAnalysisSeconds float64 `json:"total_analysis_seconds"`
	AvgAnalysisSeconds   float64 `json:"avg_analysis_seconds"`
	MinAnalysisSeconds   float64 `json:"min_analysis_seconds"`
	MaxAnalysisSeconds   float64 `json:"max_analysis_seconds"`

	TotalAPICalls   int `json:"total_api_calls"`
	TotalTokensUsed int `json:"total_tokens_used"`

	// Estimated human review time saved, in minutes.
	TotalTimeSavedMinutes float64 `json:"total_time_saved_minutes"`
	AvgTimeSavedMinutes   float64 `json:"avg_time_saved_minutes"`

	// RecentAnalysisSeconds holds the most recent analysis times in
	// chronological order for trend display.
	RecentAnalysisSeconds []float64 `json:"recent_analysis_seconds"`
}

// Compute derives Metrics in a single pass. Records are expected in
// timestamp-ascending order, as returned by the store snapshot.
// humanReviewMinutes is the assumed manual review time per CV; each
// record saves max(0, humanReviewMinutes - analysisTime/60) minutes.
func Compute(records []*model.AnalysisRecord, humanReviewMinutes float64) Metrics {
	m := Metrics{
		AreaCounts:            make(map[model.Area]int),
		ModelCounts:           make(map[string]int),
		RecentAnalysisSeconds: []float64{},
	}

	for _, rec := range records {
		if rec == nil {
			continue
		}
		m.TotalAnalyses++
		m.AreaCounts[rec.MostFittedArea]++
		if rec.ModelUsed != "" {
			m.ModelCounts[rec.ModelUsed]++
		}

		t := rec.AnalysisTimeSeconds
		m.TotalAnalysisSeconds += t
		if m.TotalAnalyses == 1 || t < m.MinAnalysisSeconds {
			m.MinAnalysisSeconds = t
		}
		if t > m.MaxAnalysisSeconds {
			m.MaxAnalysisSeconds = t
		}

		m.TotalAPICalls += rec.APICalls
		m.TotalTokensUsed += rec.TokensUsed

		saved := humanReviewMinutes - t/60
		if saved < 0 {
			saved = 0
		}
		m.TotalTimeSavedMinutes += saved

		m.RecentAnalysisSeconds = append(m.RecentAnalysisSeconds, t)
		if len(m.RecentAnalysisSeconds) > recentWindow {
			m.RecentAnalysisSeconds = m.RecentAnalysisSeconds[1:]
		}
	}

	if m.TotalAnalyses > 0 {
		m.AvgAnalysisSeconds = m.TotalAnalysisSeconds / float64(m.TotalAnalyses)
		m.AvgTimeSavedMinutes = m.TotalTimeSavedMinutes / float64(m.TotalAnalyses)
	}
	return m
}
