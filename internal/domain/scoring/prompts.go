package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "embed"

	"github.com/okian/vitae/internal/domain/model"
)

//go:embed prompt_grade.md
var gradePromptTemplate string

//go:embed prompt_classify.md
var classifyPromptTemplate string

//go:embed prompt_summary.md
var summaryPromptTemplate string

func buildGradePrompt(area model.Area, cvText, focus string) string {
	prompt := strings.ReplaceAll(gradePromptTemplate, "{{AREA}}", string(area))
	if focus = strings.TrimSpace(focus); focus != "" {
		focus = "A screening pass suggested focusing on: " + focus
	}
	prompt = strings.ReplaceAll(prompt, "{{FOCUS}}", focus)
	return strings.ReplaceAll(prompt, "{{CV_TEXT}}", cvText)
}

func buildClassifyPrompt(area model.Area, cvText string) string {
	prompt := strings.ReplaceAll(classifyPromptTemplate, "{{AREA}}", string(area))
	return strings.ReplaceAll(prompt, "{{CV_TEXT}}", cvText)
}

func buildSummaryPrompt(cvText string) string {
	return strings.ReplaceAll(summaryPromptTemplate, "{{CV_TEXT}}", cvText)
}

// gradeResponse mirrors the JSON shape requested by the grading prompt.
type gradeResponse struct {
	Score           float64
	Specializations []model.Specialization
}

// parseGradeResponse decodes a grading response, tolerating markdown
// fences, quoted numbers, and unknown level names.
func parseGradeResponse(area model.Area, raw string) (*gradeResponse, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse grading response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("grading response for %s has no usable score", area)
	}
	score = clampScore(score)

	var specs []model.Specialization
	if rawSpecs, ok := data["specializations"].([]any); ok {
		for _, entry := range rawSpecs {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name := coerceString(m["name"])
			if name == "" {
				continue
			}
			level, _ := model.ParseLevel(strings.ToLower(coerceString(m["level"])))
			specs = append(specs, model.Specialization{
				Name:  name,
				Level: level,
				Area:  area,
			})
		}
	}

	return &gradeResponse{Score: score, Specializations: specs}, nil
}

// parseClassifyResponse extracts the focus note from a screening response.
func parseClassifyResponse(raw string) (string, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return "", fmt.Errorf("parse classify response: %w", err)
	}
	if !coerceBool(data["relevant"]) {
		return "", nil
	}
	return coerceString(data["focus"]), nil
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 5:
		return 5
	default:
		return v
	}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}
