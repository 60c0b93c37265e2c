package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/vitae/internal/testcvs"
)

// Default configuration constants.
const (
	defaultNumCVs      = 50
	defaultBatchSize   = 10
	defaultWorkers     = 4
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 30 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numCVs       = flag.Int("cvs", defaultNumCVs, "Number of synthetic CVs to generate and submit")
		batchSize    = flag.Int("batch", defaultBatchSize, "CVs per batch submission")
		workers      = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollInterval = flag.Duration("poll", testcvs.DefaultPollInterval, "Delay between job status polls")
		outputFile   = flag.String("output", "", "Output file for generated CVs (default: generated_cvs_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testcvs.ShowHelp()
		return
	}

	if err := testcvs.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testcvs.Config{
		BaseURL:      *baseURL,
		NumCVs:       *numCVs,
		BatchSize:    *batchSize,
		Workers:      *workers,
		Timeout:      *timeout,
		PollInterval: *pollInterval,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	if err := testcvs.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
