package testcvs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/vitae/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete CV submission test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting vitae CV test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("cvs", config.NumCVs),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate synthetic CVs
	cvs, err := generateCVs(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("CV generation failed: %w", err)
	}

	// Step 3: Submit CVs in batches
	jobIDs, err := submitCVs(ctx, config, cvs, stats)
	if err != nil {
		return fmt.Errorf("CV submission failed: %w", err)
	}

	// Step 4: Poll jobs until terminal
	if err := pollJobs(ctx, config, jobIDs, stats); err != nil {
		return fmt.Errorf("job polling failed: %w", err)
	}

	// Step 5: Verify metrics and rankings
	if err := verifyResults(ctx, config, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save generated CVs to file
	if err := saveCVsToFile(ctx, config, cvs); err != nil {
		logger.Get().Warn(ctx, "failed to save CVs to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Any 200 counts as healthy; the endpoint serves Prometheus metrics.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveCVsToFile saves the generated CVs to a JSON file.
func saveCVsToFile(ctx context.Context, config *Config, cvs []CV) error {
	if len(cvs) == 0 {
		return fmt.Errorf("no CVs to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_cvs_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cvs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal CVs: %w", err)
	}
	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "CVs saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, cvsPerSecond float64

	if stats.JobsAccepted > 0 {
		successRate = float64(stats.JobsCompleted) / float64(stats.JobsAccepted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		cvsPerSecond = float64(stats.CVsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("cvsGenerated", stats.CVsGenerated),
		logger.Int("cvsSubmitted", stats.CVsSubmitted),
		logger.Int("jobsAccepted", stats.JobsAccepted),
		logger.Int("jobsCompleted", stats.JobsCompleted),
		logger.Int("jobsFailed", stats.JobsFailed),
		logger.Int("jobsRejected", stats.JobsRejected),
		logger.Int("bestCandidateAreas", stats.BestCandidates),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("cvsPerSecond", cvsPerSecond))
}
