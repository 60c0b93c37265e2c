package testcvs

import "time"

// Config holds configuration for the CV submission test
type Config struct {
	BaseURL      string        // Base URL of the service
	NumCVs       int           // Number of CVs to generate
	BatchSize    int           // CVs per batch submission
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between job status polls
	OutputFile   string        // Output file for generated CVs
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

// CV represents a CV to be submitted
type CV struct {
	Filename string `json:"filename"`
	CVText   string `json:"cv_text"`
	Area     string `json:"area"` // area the generator biased toward
}

// BatchResponse mirrors the body returned by a batch submission
type BatchResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobView mirrors a tracked job as returned by the API
type JobView struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	Step       string `json:"step"`
	AnalysisID string `json:"analysis_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// MetricsView mirrors the aggregate metrics endpoint
type MetricsView struct {
	TotalAnalyses int            `json:"total_analyses"`
	AreaCounts    map[string]int `json:"area_counts"`
	TotalAPICalls int            `json:"total_api_calls"`
}

// Stats holds test statistics
type Stats struct {
	CVsGenerated   int
	CVsSubmitted   int
	JobsAccepted   int
	JobsCompleted  int
	JobsFailed     int
	JobsRejected   int
	BestCandidates int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
