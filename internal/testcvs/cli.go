package testcvs

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/vitae/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the test CVs tool.
func ShowHelp() {
	os.Stdout.WriteString(`Vitae CV Test Tool
==================

A concurrent tool for exercising the vitae CV analysis service.

Usage:
  go run cmd/test-cvs/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -cvs int
        Number of synthetic CVs to generate and submit (default 50)
  -batch int
        CVs per batch submission (default 10)
  -workers int
        Number of concurrent workers (default 4)
  -timeout duration
        HTTP request timeout (default 30s)
  -poll duration
        Delay between job status polls (default 2s)
  -output string
        Output file for generated CVs (default: generated_cvs_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-cvs/main.go

  # Test with custom parameters
  go run cmd/test-cvs/main.go -cvs 200 -batch 20 -workers 8 -url http://localhost:8080

  # Test with verbose output
  go run cmd/test-cvs/main.go -verbose -cvs 100
`)
}
