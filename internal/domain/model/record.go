// Package model contains domain models passed between layers.
package model

import "time"

// Area is a fixed evaluation category every CV is scored against.
// The set is closed at compile time; Areas() returns the full domain
// in canonical order.
type Area string

// The full evaluation area set.
const (
	AreaLegal          Area = "legal"
	AreaTech           Area = "tech"
	AreaFinance        Area = "finance"
	AreaInfrastructure Area = "infrastructure"
	AreaMarketing      Area = "marketing"
	AreaOperations     Area = "operations"
)

// areas holds the canonical enumeration order. Tie-breaks on a single
// record's scores resolve in this order.
var areas = []Area{
	AreaLegal,
	AreaTech,
	AreaFinance,
	AreaInfrastructure,
	AreaMarketing,
	AreaOperations,
}

// Areas returns the full area set in canonical order. The returned slice
// is a copy; callers may reorder it freely.
func Areas() []Area {
	out := make([]Area, len(areas))
	copy(out, areas)
	return out
}

// ParseArea maps a wire string onto the closed Area set.
// Returns false for anything outside the domain.
func ParseArea(s string) (Area, bool) {
	for _, a := range areas {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

// Level is an ordinal qualification tier attached to a specialization.
type Level int

// Levels order from least to most qualified.
const (
	LevelEntry Level = iota
	LevelIntermediate
	LevelAdvanced
	LevelExpert
)

var levelNames = map[Level]string{
	LevelEntry:        "entry",
	LevelIntermediate: "intermediate",
	LevelAdvanced:     "advanced",
	LevelExpert:       "expert",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "entry"
}

// ParseLevel maps a wire string onto a Level. Unknown strings map to
// LevelEntry with ok=false so callers can decide whether to keep them.
func ParseLevel(s string) (Level, bool) {
	for l, name := range levelNames {
		if name == s {
			return l, true
		}
	}
	return LevelEntry, false
}

// MarshalText implements encoding.TextMarshaler so Level serializes as
// its name in JSON documents.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	parsed, _ := ParseLevel(string(b))
	*l = parsed
	return nil
}

// Specialization is a named skill finding scoped to the area whose
// grading pass surfaced it.
type Specialization struct {
	Name  string `json:"name"`
	Level Level  `json:"level"`
	Area  Area   `json:"area"`
}

// AnalysisRecord is the immutable stored result of scoring one CV.
// AreaScores always covers the full area domain with values in [0, 5].
type AnalysisRecord struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`

	AreaScores      map[Area]float64 `json:"area_scores"`
	MostFittedArea  Area             `json:"most_fitted_area"`
	Specializations []Specialization `json:"specializations"`

	CandidateSummary string `json:"candidate_summary,omitempty"`

	// Instrumentation captured during scoring.
	AnalysisTimeSeconds float64 `json:"analysis_time_seconds"`
	APICalls            int     `json:"api_calls"`
	TokensUsed          int     `json:"tokens_used"`
	ModelUsed           string  `json:"model_used"`
	UnscoredAreas       []Area  `json:"unscored_areas,omitempty"`
}

// MostFitted derives the area with the maximum score. Ties resolve by
// canonical enumeration order, so the result is stable for equal scores.
func MostFitted(scores map[Area]float64) Area {
	best := areas[0]
	bestScore := scores[best]
	for _, a := range areas[1:] {
		if scores[a] > bestScore {
			best = a
			bestScore = scores[a]
		}
	}
	return best
}

// CompleteScores reports whether scores covers exactly the full area
// domain with every value inside [0, 5].
func CompleteScores(scores map[Area]float64) bool {
	if len(scores) != len(areas) {
		return false
	}
	for _, a := range areas {
		v, ok := scores[a]
		if !ok || v < 0 || v > 5 {
			return false
		}
	}
	return true
}
