package testcvs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
)

// verifyResults cross-checks the metrics and best-candidates views
// against the jobs the test completed.
func verifyResults(ctx context.Context, config *Config, stats *Stats) error {
	log.Println("verifying results...")

	client := newHTTPClient(config.Timeout)

	metrics, err := fetchMetrics(ctx, client, config.BaseURL)
	if err != nil {
		return fmt.Errorf("metrics retrieval failed: %w", err)
	}
	if metrics.TotalAnalyses < stats.JobsCompleted {
		log.Printf("warning: metrics report %d analyses but %d jobs completed",
			metrics.TotalAnalyses, stats.JobsCompleted)
	} else {
		log.Printf("metrics consistent: total_analyses=%d completed_jobs=%d",
			metrics.TotalAnalyses, stats.JobsCompleted)
	}

	best, err := fetchBestCandidates(ctx, client, config.BaseURL)
	if err != nil {
		return fmt.Errorf("best-candidates retrieval failed: %w", err)
	}
	covered := 0
	for _, rec := range best {
		if rec != nil {
			covered++
		}
	}
	stats.BestCandidates = covered
	log.Printf("best-candidates covers %d of %d areas", covered, len(best))

	displayAreaCounts(metrics, config.Verbose)

	log.Println("result verification completed")
	return nil
}

// fetchMetrics retrieves the aggregate metrics view.
func fetchMetrics(ctx context.Context, client *HTTPClient, baseURL string) (*MetricsView, error) {
	resp, err := client.Get(ctx, baseURL+"/metrics")
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("metrics returned status %d", resp.StatusCode)
	}

	var m MetricsView
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metrics response: %w", err)
	}
	return &m, nil
}

// fetchBestCandidates retrieves the per-area ranking view. Record
// bodies are left opaque; presence per area is all verification needs.
func fetchBestCandidates(ctx context.Context, client *HTTPClient, baseURL string) (map[string]json.RawMessage, error) {
	resp, err := client.Get(ctx, baseURL+"/best-candidates")
	if err != nil {
		return nil, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("best-candidates returned status %d", resp.StatusCode)
	}

	var best map[string]json.RawMessage
	if err := json.Unmarshal(body, &best); err != nil {
		return nil, fmt.Errorf("failed to parse best-candidates response: %w", err)
	}
	for area, raw := range best {
		if string(raw) == "null" {
			best[area] = nil
		}
	}
	return best, nil
}

// displayAreaCounts prints the most-fitted distribution the service saw.
func displayAreaCounts(m *MetricsView, verbose bool) {
	if len(m.AreaCounts) == 0 {
		return
	}

	areas := make([]string, 0, len(m.AreaCounts))
	for area := range m.AreaCounts {
		areas = append(areas, area)
	}
	sort.Slice(areas, func(i, j int) bool {
		return m.AreaCounts[areas[i]] > m.AreaCounts[areas[j]]
	})

	log.Println("most-fitted area distribution:")
	for _, area := range areas {
		log.Printf("   %s: %d", area, m.AreaCounts[area])
	}

	if verbose {
		log.Printf("total upstream API calls: %d", m.TotalAPICalls)
	}
}
